package chunker

import (
	"github.com/standardbeagle/codemill/internal/types"
)

// bracketFriendly lists languages whose delimiter discipline the bracket
// strategy can rely on.
var bracketFriendly = map[string]bool{
	"c": true, "cpp": true, "go": true, "rust": true, "java": true,
	"javascript": true, "typescript": true, "csharp": true, "php": true,
	"zig": true,
}

// Factory owns the strategy catalog and applies the selection table.
type Factory struct {
	strategies map[types.StrategyName]Strategy
}

func NewFactory() *Factory {
	f := &Factory{strategies: make(map[types.StrategyName]Strategy)}
	for _, s := range []Strategy{
		astStrategy{}, bracketStrategy{}, lineStrategy{},
		markdownStrategy{}, xmlStrategy{}, universalStrategy{},
	} {
		f.strategies[s.Name()] = s
	}
	return f
}

// Get returns a registered strategy by name.
func (f *Factory) Get(name types.StrategyName) (Strategy, bool) {
	s, ok := f.strategies[name]
	return s, ok
}

// Select applies the decision table in order, first match wins, and
// returns the fallback chain for the choice: [chosen, bracket, line],
// deduplicated. A nil return means skip the file entirely.
func (f *Factory) Select(det types.Detection, hasTree bool) []Strategy {
	var chosen types.StrategyName
	switch {
	case det.IsBinary:
		return nil
	case det.Language == "markdown":
		chosen = types.StrategyMarkdown
	case det.Language == "xml" || det.Language == "html":
		chosen = types.StrategyXML
	case det.IsText && !det.IsCode:
		chosen = types.StrategyUniversal
	case det.SizeBand == types.SizeTiny:
		if hasTree {
			chosen = types.StrategyAST
		} else {
			chosen = types.StrategyLine
		}
	case det.IsCode && hasTree:
		chosen = types.StrategyAST
	case det.IsCode && bracketFriendly[det.Language]:
		chosen = types.StrategyBracket
	default:
		chosen = types.StrategyLine
	}
	return f.chain(chosen)
}

// DegradedChain is the selection used while the guard is tripped: line
// strategy only.
func (f *Factory) DegradedChain() []Strategy {
	return []Strategy{f.strategies[types.StrategyLine]}
}

func (f *Factory) chain(chosen types.StrategyName) []Strategy {
	names := []types.StrategyName{chosen, types.StrategyBracket, types.StrategyLine}
	if chosen == types.StrategyLine {
		// The line strategy is terminal; nothing follows it.
		names = names[:1]
	}
	seen := make(map[types.StrategyName]bool, 3)
	var out []Strategy
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		if s, ok := f.strategies[name]; ok {
			out = append(out, s)
		}
	}
	return out
}
