package chunker

import (
	"context"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/codemill/internal/config"
	"github.com/standardbeagle/codemill/internal/types"
)

// astStrategy cuts chunks at declaration boundaries of the parsed tree.
// Top-level declarations become chunk candidates; inter-declaration gaps
// (comments, directives, stray statements) attach to the following
// declaration so coverage never leaks.
type astStrategy struct{}

func (astStrategy) Name() types.StrategyName { return types.StrategyAST }

// chunkKinds maps CST node kinds to chunk kinds. Unlisted kinds fall
// back to "generic".
var chunkKinds = map[string]string{
	"function_declaration":    "function",
	"function_definition":     "function",
	"function_item":           "function",
	"method_declaration":      "function",
	"method_definition":       "function",
	"constructor_declaration": "function",
	"class_declaration":       "class",
	"class_definition":        "class",
	"class_specifier":         "class",
	"interface_declaration":   "class",
	"trait_declaration":       "class",
	"trait_item":              "class",
	"impl_item":               "class",
	"struct_specifier":        "struct",
	"struct_item":             "struct",
	"struct_declaration":      "struct",
	"union_specifier":         "struct",
	"enum_specifier":          "struct",
	"enum_declaration":        "struct",
	"enum_item":               "struct",
	"type_declaration":        "struct",
	"type_definition":         "struct",
	"namespace_definition":    "section",
	"mod_item":                "section",
	"import_declaration":      "generic",
	"preproc_include":         "generic",
}

func chunkKindFor(nodeKind string) string {
	if k, ok := chunkKinds[nodeKind]; ok {
		return k
	}
	return "generic"
}

// bodyContainers are node kinds that hold nested declarations worth
// extracting when the parent is oversized.
var bodyContainers = map[string]bool{
	"class_body":             true,
	"field_declaration_list": true,
	"declaration_list":       true,
	"block":                  true,
	"compound_statement":     true,
	"interface_body":         true,
	"enum_body":              true,
}

func isDeclarationKind(kind string) bool {
	if _, ok := chunkKinds[kind]; ok {
		return true
	}
	return strings.HasSuffix(kind, "_declaration") ||
		strings.HasSuffix(kind, "_definition") ||
		strings.HasSuffix(kind, "_item")
}

func (astStrategy) Split(ctx context.Context, src *Source, cfg config.Chunking) ([]types.Chunk, error) {
	if src.Tree == nil {
		return nil, nil
	}
	root := src.Tree.RootNode()
	if root == nil || root.NamedChildCount() == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var chunks []types.Chunk
	segStart := 0

	count := int(root.NamedChildCount())
	for i := 0; i < count; i++ {
		node := root.NamedChild(uint(i))
		if node == nil {
			continue
		}
		nodeStart, nodeEnd := int(node.StartByte()), int(node.EndByte())
		if nodeEnd <= nodeStart {
			continue
		}

		// The leading gap (doc comment, directive) rides with this
		// declaration, trimmed to the first non-blank line.
		start := trimBlankPrefix(src.Content, segStart, nodeStart)
		if start > nodeStart {
			start = nodeStart
		}

		size := nodeEnd - start
		if size <= cfg.MaxChunkBytes {
			chunks = append(chunks, astChunk(src, start, nodeEnd, node))
		} else {
			chunks = append(chunks, splitOversizeDecl(src, cfg, start, node)...)
		}
		segStart = nodeEnd
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	// A trailing tail (usually comments) extends the last chunk so the
	// coverage property holds.
	if tail := strings.TrimSpace(string(src.Content[segStart:])); tail != "" {
		last := &chunks[len(chunks)-1]
		last.EndByte = len(src.Content)
		last.Content = string(src.Content[last.StartByte:last.EndByte])
		last.EndLine = src.Lines().lineAt(maxInt(last.StartByte, last.EndByte-1))
	}
	return chunks, nil
}

func astChunk(src *Source, start, end int, node *tree_sitter.Node) types.Chunk {
	c := chunkAt(src, start, end, chunkKindFor(node.Kind()), types.StrategyAST)
	c = withMeta(c, types.MetaNodeKind, node.Kind())
	return c
}

// splitOversizeDecl handles a declaration larger than the chunk budget.
// Nested declarations are extracted whole when they fit; the header up
// to the first nested declaration rides with that declaration's chunk.
// A declaration with fewer than two extractable children is emitted
// whole and flagged oversize.
func splitOversizeDecl(src *Source, cfg config.Chunking, start int, node *tree_sitter.Node) []types.Chunk {
	nested := nestedDeclarations(node)
	if len(nested) < 2 {
		c := astChunk(src, start, int(node.EndByte()), node)
		return []types.Chunk{withMeta(c, types.MetaOversize, true)}
	}

	var out []types.Chunk
	segStart := start
	for _, child := range nested {
		childStart, childEnd := int(child.StartByte()), int(child.EndByte())
		cs := trimBlankPrefix(src.Content, segStart, childStart)
		if cs > childStart {
			cs = childStart
		}
		if childEnd-cs <= cfg.MaxChunkBytes {
			out = append(out, astChunk(src, cs, childEnd, child))
		} else {
			// One level of nesting is as deep as extraction goes; a
			// nested declaration that still busts the budget ships whole.
			c := astChunk(src, cs, childEnd, child)
			out = append(out, withMeta(c, types.MetaOversize, true))
		}
		segStart = childEnd
	}

	// Whatever trails the last nested declaration (closing braces of the
	// parent) joins the final chunk to keep the parent's bytes covered.
	nodeEnd := int(node.EndByte())
	if segStart < nodeEnd && len(out) > 0 {
		last := &out[len(out)-1]
		last.EndByte = nodeEnd
		last.Content = string(src.Content[last.StartByte:last.EndByte])
		last.EndLine = src.Lines().lineAt(maxInt(last.StartByte, last.EndByte-1))
	}
	return out
}

// nestedDeclarations finds declaration children one container level
// below node (methods of a class, functions of a namespace).
func nestedDeclarations(node *tree_sitter.Node) []*tree_sitter.Node {
	var out []*tree_sitter.Node
	count := int(node.NamedChildCount())
	for i := 0; i < count; i++ {
		child := node.NamedChild(uint(i))
		if child == nil {
			continue
		}
		if bodyContainers[child.Kind()] {
			inner := int(child.NamedChildCount())
			for j := 0; j < inner; j++ {
				decl := child.NamedChild(uint(j))
				if decl != nil && isDeclarationKind(decl.Kind()) {
					out = append(out, decl)
				}
			}
		}
	}
	return out
}

// trimBlankPrefix advances start past blank lines inside [start, limit).
func trimBlankPrefix(content []byte, start, limit int) int {
	for start < limit {
		lineEnd := start
		for lineEnd < limit && content[lineEnd] != '\n' {
			lineEnd++
		}
		if strings.TrimSpace(string(content[start:minInt(lineEnd+1, limit)])) != "" {
			return start
		}
		if lineEnd >= limit {
			return limit
		}
		start = lineEnd + 1
	}
	return start
}
