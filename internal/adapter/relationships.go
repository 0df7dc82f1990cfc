package adapter

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/codemill/internal/parser"
	"github.com/standardbeagle/codemill/internal/types"
)

// newRelationship assembles the common fields; the ID is a pure function
// of the edge, so re-emitting the same edge dedupes downstream.
func (a *languageAdapter) newRelationship(ctx *Context, category types.RelationshipCategory, relType, from, to string, node *tree_sitter.Node) types.Relationship {
	loc := locationOf(ctx, node)
	return types.Relationship{
		ID:         types.RelationshipID(from, to, relType, loc.StartLine),
		Category:   category,
		Type:       relType,
		FromNodeID: from,
		ToNodeID:   to,
		Directed:   true,
		Strength:   strengthFor(relType),
		Location:   loc,
		Language:   a.language,
	}
}

// underCondition reports whether the node sits inside a conditional
// construct within its enclosing declaration.
func (a *languageAdapter) underCondition(node *tree_sitter.Node) bool {
	for p := node.Parent(); p != nil; p = p.Parent() {
		if _, isDecl := a.declKindOf(p); isDecl {
			return false
		}
		if nestingKinds[p.Kind()] {
			return true
		}
	}
	return false
}

// callRelationship classifies one call site. The call type comes from
// the callee expression shape; a self-call upgrades to recursive.
func (a *languageAdapter) callRelationship(m *parser.Match, ctx *Context) []types.Relationship {
	primary := m.Primary()
	if primary == nil {
		return nil
	}

	relType := "function"
	callee := ""
	switch {
	case m.Node("call.indirect") != nil:
		relType = "function_pointer"
		callee = trimName(m.Text(ctx.Content, "call.indirect"))
	case m.Node("call.macro") != nil:
		relType = "macro"
		callee = trimName(m.Text(ctx.Content, "call.macro"))
	default:
		calleeNode := m.Node("call.callee")
		if calleeNode == nil {
			return nil
		}
		callee = trimName(parser.NodeText(calleeNode, ctx.Content))
		if parent := calleeNode.Parent(); parent != nil {
			switch parent.Kind() {
			case "selector_expression", "member_expression", "field_expression",
				"attribute", "member_access_expression", "member_call_expression":
				relType = "method"
			}
		}
	}
	if callee == "" {
		callee = "unknown"
	}

	from, enclosingName := a.enclosing(ctx, primary)
	if relType == "function" && callee == enclosingName {
		relType = "recursive"
	}

	rel := a.newRelationship(ctx, types.RelCall, relType, from, unresolvedTarget(ctx, callee), primary)
	if a.underCondition(primary) {
		rel.Strength = clampStrength(rel.Strength + strengthAdjustments["conditional"])
	}
	rel.Properties = map[string]any{"callee": callee}
	return []types.Relationship{rel}
}

func clampStrength(s float64) float64 {
	if s < strengthMin {
		return strengthMin
	}
	if s > strengthMax {
		return strengthMax
	}
	return s
}

// flowRelationship emits one data-flow edge per assignment-like match.
func (a *languageAdapter) flowRelationship(m *parser.Match, ctx *Context) []types.Relationship {
	primary := m.Primary()
	target := m.Node("flow.target")
	if primary == nil || target == nil {
		return nil
	}
	targetName := trimName(parser.NodeText(target, ctx.Content))
	if targetName == "" {
		targetName = "unknown"
	}

	relType := "assignment"
	switch {
	case strings.Contains(primary.Kind(), "augmented"):
		relType = "compound_assignment"
	case primary.Kind() == "init_declarator",
		primary.Kind() == "short_var_declaration",
		primary.Kind() == "variable_declarator",
		primary.Kind() == "let_declaration",
		primary.Kind() == "local_variable_declaration":
		relType = "initialization"
	default:
		if op := primary.ChildByFieldName("operator"); op != nil {
			if text := parser.NodeText(op, ctx.Content); text != "=" && text != ":=" {
				relType = "compound_assignment"
			}
		}
	}
	switch target.Kind() {
	case "field_expression", "member_expression", "pointer_expression", "attribute", "subscript_expression":
		relType = "indirect"
	}

	from, _ := a.enclosing(ctx, primary)
	rel := a.newRelationship(ctx, types.RelDataFlow, relType, from, unresolvedTarget(ctx, targetName), primary)
	rel.Properties = map[string]any{"target": targetName}
	return []types.Relationship{rel}
}

// branchRelationship emits one control-flow edge per construct, typed by
// the construct kind.
func (a *languageAdapter) branchRelationship(m *parser.Match, ctx *Context) []types.Relationship {
	primary := m.Primary()
	if primary == nil {
		return nil
	}
	kind := primary.Kind()
	relType, ok := a.controlTypes[kind]
	if !ok {
		relType = strings.TrimSuffix(strings.TrimSuffix(kind, "_statement"), "_expression")
	}

	from, _ := a.enclosing(ctx, primary)
	line := int(primary.StartPosition().Row) + 1
	rel := a.newRelationship(ctx, types.RelControlFlow, relType, from, anonymousTarget(ctx, relType, line), primary)
	return []types.Relationship{rel}
}

// inheritRelationship links a derived type to each base it names.
func (a *languageAdapter) inheritRelationship(m *parser.Match, ctx *Context) []types.Relationship {
	primary := m.Primary()
	if primary == nil {
		return nil
	}

	base, relType := "", ""
	if a.inheritInfo != nil {
		var ok bool
		if base, relType, ok = a.inheritInfo(a, m, ctx); !ok {
			return nil
		}
	} else {
		base = trimName(m.Text(ctx.Content, "inherit.base"))
	}
	if base == "" {
		return nil
	}
	if relType == "" {
		relType = a.inheritanceType
	}

	derived := trimName(m.Text(ctx.Content, "inherit.derived"))
	var from string
	if derived != "" {
		from = unresolvedTarget(ctx, derived)
	} else {
		from, _ = a.enclosing(ctx, primary)
	}
	rel := a.newRelationship(ctx, types.RelInheritance, relType, from, unresolvedTarget(ctx, base), primary)
	rel.Properties = map[string]any{"base": base}
	return []types.Relationship{rel}
}

// depRelationship links the file to the module a directive names.
func (a *languageAdapter) depRelationship(m *parser.Match, ctx *Context) []types.Relationship {
	primary := m.Primary()
	if primary == nil {
		return nil
	}
	path := trimName(m.Text(ctx.Content, "dep.path"))
	if path == "" {
		path = trimName(parser.NodeText(primary, ctx.Content))
	}
	if path == "" {
		return nil
	}
	rel := a.newRelationship(ctx, types.RelDependency, a.dependencyType, ctx.FileID(), unresolvedTarget(ctx, path), primary)
	rel.Properties = map[string]any{"path": path}
	return []types.Relationship{rel}
}

// lifecycleRelationship emits an edge only when the construct or callee
// is in the language's lifecycle tables; everything else is silence,
// not an error.
func (a *languageAdapter) lifecycleRelationship(m *parser.Match, ctx *Context) []types.Relationship {
	primary := m.Primary()
	if primary == nil {
		return nil
	}

	relType, ok := a.lifecycleKinds[primary.Kind()]
	target := ""
	if !ok {
		callee := trimName(m.Text(ctx.Content, "lifecycle.callee"))
		if callee == "" {
			return nil
		}
		if relType, ok = a.lifecycleCallees[callee]; !ok {
			return nil
		}
		target = callee
	}
	if target == "" {
		if typeNode := primary.ChildByFieldName("type"); typeNode != nil {
			target = trimName(parser.NodeText(typeNode, ctx.Content))
		}
	}
	if target == "" {
		target = relType
	}

	from, _ := a.enclosing(ctx, primary)
	rel := a.newRelationship(ctx, types.RelLifecycle, relType, from, unresolvedTarget(ctx, target), primary)
	return []types.Relationship{rel}
}

// semanticRelationship records type-usage edges like instantiation or
// struct nesting.
func (a *languageAdapter) semanticRelationship(m *parser.Match, ctx *Context) []types.Relationship {
	primary := m.Primary()
	if primary == nil || a.semanticType == "" {
		return nil
	}
	typeName := trimName(m.Text(ctx.Content, "sem.type"))
	if typeName == "" {
		return nil
	}
	from, _ := a.enclosing(ctx, primary)
	rel := a.newRelationship(ctx, types.RelSemantic, a.semanticType, from, unresolvedTarget(ctx, typeName), primary)
	rel.Properties = map[string]any{"type": typeName}
	return []types.Relationship{rel}
}

// concurrencyRelationship mirrors lifecycle: construct kinds first, then
// known concurrency primitives by callee name.
func (a *languageAdapter) concurrencyRelationship(m *parser.Match, ctx *Context) []types.Relationship {
	primary := m.Primary()
	if primary == nil {
		return nil
	}

	relType, ok := a.concKinds[primary.Kind()]
	target := relType
	if !ok {
		callee := trimName(m.Text(ctx.Content, "conc.callee"))
		if callee == "" {
			return nil
		}
		if relType, ok = a.concCallees[callee]; !ok {
			return nil
		}
		target = callee
	}

	from, _ := a.enclosing(ctx, primary)
	line := int(primary.StartPosition().Row) + 1
	rel := a.newRelationship(ctx, types.RelConcurrency, relType, from, anonymousTarget(ctx, target, line), primary)
	return []types.Relationship{rel}
}
