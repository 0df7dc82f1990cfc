// Package adapter normalizes query matches into canonical Entity and
// Relationship records. One adapter serves one language; all of them
// share the same capture-label conventions, ID derivation, complexity
// scoring and fallback behavior, so a new language is a query set plus
// a profile, never new machinery.
package adapter

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/codemill/internal/parser"
	"github.com/standardbeagle/codemill/internal/types"
)

// Context carries the per-file inputs every normalization needs.
type Context struct {
	Path     string
	Content  []byte
	Language string
	Digest   string
}

// FileID is the pseudo-entity edges attach to when a relationship has
// no enclosing declaration (top-level call, import).
func (c *Context) FileID() string {
	return types.EntityID(c.Path, types.EntityModule, filepath.Base(c.Path), 0, c.Digest)
}

// Adapter turns matches of one query into entity/relationship streams.
// Normalize must not fail a whole file: a match it cannot make sense of
// is skipped and counted, and partial output is valid output.
type Adapter interface {
	Language() string
	SupportedQueryNames() []string
	Normalize(queryName string, match *parser.Match, ctx *Context) ([]types.Entity, []types.Relationship, error)
}

// Registry holds one adapter per language tag.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds the registry over every built-in language profile.
func NewRegistry() *Registry {
	r := &Registry{adapters: make(map[string]Adapter)}
	for _, a := range builtinAdapters() {
		r.adapters[a.Language()] = a
	}
	return r
}

// Get returns the adapter for a language tag.
func (r *Registry) Get(language string) (Adapter, bool) {
	a, ok := r.adapters[language]
	return a, ok
}

// Languages lists the registered language tags.
func (r *Registry) Languages() []string {
	out := make([]string, 0, len(r.adapters))
	for lang := range r.adapters {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// entityPriorities orders kinds by centrality; smaller is more central.
var entityPriorities = map[types.EntityKind]int{
	types.EntityClass:      1,
	types.EntityInterface:  1,
	types.EntityStruct:     1,
	types.EntityModule:     1,
	types.EntityEnum:       2,
	types.EntityUnion:      2,
	types.EntityFunction:   2,
	types.EntityMethod:     2,
	types.EntityTypeAlias:  3,
	types.EntityMacro:      3,
	types.EntityVariable:   4,
	types.EntityConstant:   4,
	types.EntityField:      4,
	types.EntityImport:     5,
	types.EntityExport:     5,
	types.EntityAnnotation: 6,
	types.EntityComment:    7,
	types.EntityGeneric:    8,
}

func priorityFor(kind types.EntityKind) int {
	if p, ok := entityPriorities[kind]; ok {
		return p
	}
	return 8
}

// locationOf converts a node span into a Location.
func locationOf(ctx *Context, node *tree_sitter.Node) types.Location {
	return types.Location{
		Path:      ctx.Path,
		StartByte: int(node.StartByte()),
		EndByte:   int(node.EndByte()),
		StartLine: int(node.StartPosition().Row) + 1,
		EndLine:   int(node.EndPosition().Row) + 1,
	}
}

// Complexity scoring weights.
const (
	complexityBase     = 1.0
	complexityPerParam = 0.1
	complexityPerLine  = 0.05
	complexityPerDepth = 0.1
	complexityPointer  = 0.1
	complexityStorage  = 0.05
	complexityMin      = 1.0
	complexityMax      = 100.0
)

// complexityScore computes the declaration complexity from what the
// concrete tree shows: parameters, body length, nesting, pointer use
// and storage modifiers.
func complexityScore(paramCount, bodyLines, nestingDepth, pointerUses, storageMods int) float64 {
	score := complexityBase +
		float64(paramCount)*complexityPerParam +
		float64(bodyLines)*complexityPerLine +
		float64(nestingDepth)*complexityPerDepth +
		float64(pointerUses)*complexityPointer +
		float64(storageMods)*complexityStorage
	if score < complexityMin {
		return complexityMin
	}
	if score > complexityMax {
		return complexityMax
	}
	return score
}

// nestingKinds are the node kinds that deepen control nesting.
var nestingKinds = map[string]bool{
	"if_statement": true, "for_statement": true, "while_statement": true,
	"do_statement": true, "switch_statement": true, "try_statement": true,
	"if_expression": true, "for_expression": true, "while_expression": true,
	"match_expression": true, "for_in_statement": true, "foreach_statement": true,
	"for_each_statement": true, "enhanced_for_statement": true,
	"expression_switch_statement": true, "type_switch_statement": true,
	"select_statement": true, "with_statement": true, "loop_expression": true,
}

// maxNestingDepth walks the subtree counting nested control constructs.
func maxNestingDepth(node *tree_sitter.Node) int {
	if node == nil {
		return 0
	}
	deepest := 0
	count := int(node.NamedChildCount())
	for i := 0; i < count; i++ {
		child := node.NamedChild(uint(i))
		if child == nil {
			continue
		}
		d := maxNestingDepth(child)
		if nestingKinds[child.Kind()] {
			d++
		}
		if d > deepest {
			deepest = d
		}
	}
	return deepest
}

// Relationship strength adjustments, applied over a 0.5 base.
const (
	strengthBase = 0.5
	strengthMin  = 0.1
	strengthMax  = 1.0
)

var strengthAdjustments = map[string]float64{
	"recursive":           +0.3,
	"macro":               -0.2,
	"conditional":         -0.1,
	"indirect":            +0.2,
	"function_pointer":    +0.2,
	"compound_assignment": +0.1,
}

func strengthFor(relType string) float64 {
	s := strengthBase + strengthAdjustments[relType]
	if s < strengthMin {
		return strengthMin
	}
	if s > strengthMax {
		return strengthMax
	}
	return s
}

// trimName reduces a raw capture to a usable symbol name.
func trimName(raw string) string {
	name := strings.TrimSpace(raw)
	name = strings.Trim(name, `"'`+"`")
	name = strings.TrimPrefix(name, "<")
	name = strings.TrimSuffix(name, ">")
	if idx := strings.IndexAny(name, "\n("); idx >= 0 {
		name = name[:idx]
	}
	return strings.TrimSpace(name)
}

// unresolvedTarget builds the placeholder ID for a name the graph store
// resolves later.
func unresolvedTarget(ctx *Context, name string) string {
	return types.UnresolvedID(ctx.Path, name)
}

// anonymousTarget labels targets that have no name at all, such as a
// control-flow block.
func anonymousTarget(ctx *Context, kind string, line int) string {
	return types.UnresolvedID(ctx.Path, fmt.Sprintf("%s@%d", kind, line))
}
