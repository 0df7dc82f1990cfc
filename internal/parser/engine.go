package parser

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/codemill/internal/cerrors"
	"github.com/standardbeagle/codemill/internal/debug"
)

// Capture is one labelled node from a query match. Labels follow the
// catalog conventions: a dot-free primary plus <primary>.<role> children.
type Capture struct {
	Label string
	Node  tree_sitter.Node
}

// Match is one hit of a named query against a tree. Capture order is the
// order declared in the pattern; adapters rely on it being preserved.
type Match struct {
	Query    string
	Captures []Capture
}

// Primary returns the dot-free capture, falling back to the first
// capture when a pattern declares only sub-captures.
func (m *Match) Primary() *tree_sitter.Node {
	for i := range m.Captures {
		if !strings.Contains(m.Captures[i].Label, ".") {
			return &m.Captures[i].Node
		}
	}
	if len(m.Captures) > 0 {
		return &m.Captures[0].Node
	}
	return nil
}

// PrimaryLabel returns the label of the primary capture.
func (m *Match) PrimaryLabel() string {
	for i := range m.Captures {
		if !strings.Contains(m.Captures[i].Label, ".") {
			return m.Captures[i].Label
		}
	}
	if len(m.Captures) > 0 {
		return m.Captures[0].Label
	}
	return ""
}

// Node returns the first capture matching any of the given labels, in
// label priority order. Lookups scan the ordered list; capture counts
// are small enough that hashing would cost more than it saves.
func (m *Match) Node(labels ...string) *tree_sitter.Node {
	for _, label := range labels {
		for i := range m.Captures {
			if m.Captures[i].Label == label {
				return &m.Captures[i].Node
			}
		}
	}
	return nil
}

// Text slices the source for the first capture matching any label, or
// returns the empty string.
func (m *Match) Text(content []byte, labels ...string) string {
	node := m.Node(labels...)
	if node == nil {
		return ""
	}
	return NodeText(node, content)
}

// NodeText returns the source bytes a node spans.
func NodeText(node *tree_sitter.Node, content []byte) string {
	start, end := int(node.StartByte()), int(node.EndByte())
	if start < 0 || end > len(content) || start > end {
		return ""
	}
	return string(content[start:end])
}

// Engine executes compiled queries against trees.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Execute runs a query over the tree rooted at root and returns every
// match with its ordered captures. A crash inside the cursor is
// recovered and surfaced as a QueryExecuteError.
func (e *Engine) Execute(query *tree_sitter.Query, queryName string, root *tree_sitter.Node, content []byte) (matches []Match, err error) {
	if query == nil || root == nil {
		return nil, nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			debug.LogParse("query cursor panic in %s: %v", queryName, rec)
			matches = nil
			err = cerrors.New(cerrors.ErrorTypeQueryExecute, "normalize",
				fmt.Errorf("query %s panicked: %v", queryName, rec))
		}
	}()

	captureNames := query.CaptureNames()
	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()

	queryMatches := qc.Matches(query, root, content)
	for {
		match := queryMatches.Next()
		if match == nil {
			break
		}
		captures := make([]Capture, 0, len(match.Captures))
		for _, c := range match.Captures {
			captures = append(captures, Capture{
				Label: captureNames[c.Index],
				Node:  c.Node,
			})
		}
		if len(captures) == 0 {
			continue
		}
		matches = append(matches, Match{Query: queryName, Captures: captures})
	}
	return matches, nil
}
