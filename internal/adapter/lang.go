package adapter

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/codemill/internal/cerrors"
	"github.com/standardbeagle/codemill/internal/parser"
	"github.com/standardbeagle/codemill/internal/types"
)

// languageAdapter implements Adapter from a declarative profile. The
// machinery is shared; languages differ only in the tables and a couple
// of optional hooks.
type languageAdapter struct {
	language string
	queries  []string

	// entityKinds maps primary capture labels to entity kinds.
	entityKinds map[string]types.EntityKind
	// declKinds maps CST node kinds that form enclosing declarations to
	// the entity kind those declarations were emitted as.
	declKinds map[string]types.EntityKind
	// declKindFor overrides declKinds lookup for context-dependent node
	// kinds (a python function is a method when a class encloses it).
	declKindFor func(node *tree_sitter.Node) (types.EntityKind, bool)

	modifierKeywords map[string]bool

	controlTypes     map[string]string
	lifecycleKinds   map[string]string // node kind -> relationship type
	lifecycleCallees map[string]string // callee name -> relationship type
	concKinds        map[string]string
	concCallees      map[string]string
	inheritanceType  string
	dependencyType   string
	semanticType     string

	// inheritInfo extracts (base, relationship type) from an inheritance
	// match; languages with plain @inherit.base captures leave it nil
	// and get inheritanceType.
	inheritInfo func(a *languageAdapter, m *parser.Match, ctx *Context) (string, string, bool)

	// returnTypeField names the CST field carrying the return type of a
	// function declaration, when the grammar exposes one.
	returnTypeField string
}

func (a *languageAdapter) Language() string { return a.language }

func (a *languageAdapter) SupportedQueryNames() []string {
	return a.queries
}

func (a *languageAdapter) Normalize(queryName string, match *parser.Match, ctx *Context) ([]types.Entity, []types.Relationship, error) {
	switch queryName {
	case parser.QueryEntityFunction, parser.QueryEntityClassStruct,
		parser.QueryEntityVariable, parser.QueryEntityImport,
		parser.QueryEntityComment, parser.QueryEntityAnnotation:
		e, err := a.entity(match, ctx)
		if err != nil {
			return nil, nil, err
		}
		return []types.Entity{e}, nil, nil
	case parser.QueryRelCall:
		return nil, a.callRelationship(match, ctx), nil
	case parser.QueryRelDataFlow:
		return nil, a.flowRelationship(match, ctx), nil
	case parser.QueryRelControlFlow:
		return nil, a.branchRelationship(match, ctx), nil
	case parser.QueryRelInheritance:
		return nil, a.inheritRelationship(match, ctx), nil
	case parser.QueryRelDependency:
		return nil, a.depRelationship(match, ctx), nil
	case parser.QueryRelLifecycle:
		return nil, a.lifecycleRelationship(match, ctx), nil
	case parser.QueryRelSemantic:
		return nil, a.semanticRelationship(match, ctx), nil
	case parser.QueryRelConcurrency:
		return nil, a.concurrencyRelationship(match, ctx), nil
	default:
		return nil, nil, cerrors.New(cerrors.ErrorTypeAdapter, "normalize",
			fmt.Errorf("adapter %s does not handle query %s", a.language, queryName))
	}
}

// entity builds one Entity from an entity-query match.
func (a *languageAdapter) entity(m *parser.Match, ctx *Context) (types.Entity, error) {
	primary := m.Primary()
	if primary == nil {
		return types.Entity{}, cerrors.New(cerrors.ErrorTypeAdapter, "normalize",
			fmt.Errorf("match of %s has no primary capture", m.Query))
	}
	label := m.PrimaryLabel()
	kind, ok := a.entityKinds[label]
	if !ok {
		return types.Entity{}, cerrors.New(cerrors.ErrorTypeAdapter, "normalize",
			fmt.Errorf("unknown capture label %q in %s", label, m.Query))
	}

	name := a.entityName(m, ctx, label, kind, primary)
	loc := locationOf(ctx, primary)
	content := parser.NodeText(primary, ctx.Content)

	entity := types.Entity{
		ID:       types.EntityID(ctx.Path, kind, name, loc.StartByte, ctx.Digest),
		Kind:     kind,
		Name:     name,
		Location: loc,
		Language: a.language,
		Content:  content,
		Priority: priorityFor(kind),
	}

	modifiers := a.modifiers(m, primary)
	entity.Modifiers = modifiers
	entity.Properties = a.entityProperties(m, ctx, kind, primary, modifiers)
	return entity, nil
}

// entityName resolves the declaration name: the conventional capture
// first, ranked alternates next, then the primary node's own text, and
// "unnamed" as the last resort. A missing capture never fails the file.
func (a *languageAdapter) entityName(m *parser.Match, ctx *Context, label string, kind types.EntityKind, primary *tree_sitter.Node) string {
	if kind == types.EntityComment {
		return ""
	}
	alternates := []string{label + ".name", label + ".path", label + ".source"}
	if text := m.Text(ctx.Content, alternates...); text != "" {
		return trimName(text)
	}
	if kind == types.EntityImport || kind == types.EntityAnnotation {
		if name := trimName(parser.NodeText(primary, ctx.Content)); name != "" {
			return name
		}
	}
	if nameNode := primary.ChildByFieldName("name"); nameNode != nil {
		if name := trimName(parser.NodeText(nameNode, ctx.Content)); name != "" {
			return name
		}
	}
	return "unnamed"
}

// modifiers collects reserved keywords among the declaration's leading
// children plus explicit modifier.* captures.
func (a *languageAdapter) modifiers(m *parser.Match, primary *tree_sitter.Node) []string {
	found := make(map[string]bool)
	for _, c := range m.Captures {
		if strings.HasPrefix(c.Label, "modifier.") {
			found[strings.TrimPrefix(c.Label, "modifier.")] = true
		}
	}
	collectModifierKeywords(primary, a.modifierKeywords, found, 2)
	if len(found) == 0 {
		return nil
	}
	out := make([]string, 0, len(found))
	for kw := range found {
		out = append(out, kw)
	}
	sortStrings(out)
	return out
}

// collectModifierKeywords walks depth levels of children recording
// keyword tokens. Anonymous tokens report their text as their kind.
func collectModifierKeywords(node *tree_sitter.Node, keywords map[string]bool, found map[string]bool, depth int) {
	if node == nil || depth < 0 {
		return
	}
	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		child := node.Child(uint(i))
		if child == nil {
			continue
		}
		if keywords[child.Kind()] {
			found[child.Kind()] = true
		}
		if depth > 0 && (strings.Contains(child.Kind(), "modifier") || strings.Contains(child.Kind(), "specifier")) {
			collectModifierKeywords(child, keywords, found, depth-1)
		}
	}
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// entityProperties derives the open property map. Functions get the
// full complexity treatment; other kinds stay lean.
func (a *languageAdapter) entityProperties(m *parser.Match, ctx *Context, kind types.EntityKind, primary *tree_sitter.Node, modifiers []string) map[string]any {
	props := make(map[string]any, 4)

	lines := int(primary.EndPosition().Row) - int(primary.StartPosition().Row) + 1
	props["lineCount"] = lines

	if kind != types.EntityFunction && kind != types.EntityMethod {
		return props
	}

	label := m.PrimaryLabel()
	paramCount := 0
	if params := m.Node(label+".params", label+".parameters"); params != nil {
		paramCount = int(params.NamedChildCount())
	} else if params := primary.ChildByFieldName("parameters"); params != nil {
		paramCount = int(params.NamedChildCount())
	}
	props["parameterCount"] = paramCount

	if rt := a.returnType(primary, ctx); rt != "" {
		props["returnType"] = rt
	}

	bodyLines := 0
	var body *tree_sitter.Node
	if body = m.Node(label + ".body"); body == nil {
		body = primary.ChildByFieldName("body")
	}
	if body != nil {
		bodyLines = int(body.EndPosition().Row) - int(body.StartPosition().Row) + 1
	}

	storage := 0
	for _, mod := range modifiers {
		if mod == "static" || mod == "extern" {
			storage++
		}
	}
	pointerUses := strings.Count(signatureText(primary, ctx, body), "*")

	props["complexity"] = complexityScore(paramCount, bodyLines, maxNestingDepth(body), pointerUses, storage)
	return props
}

// signatureText is the declaration text before the body, used for
// pointer counting without scanning the whole body.
func signatureText(primary *tree_sitter.Node, ctx *Context, body *tree_sitter.Node) string {
	start := int(primary.StartByte())
	end := int(primary.EndByte())
	if body != nil {
		end = int(body.StartByte())
	}
	if start >= end || end > len(ctx.Content) {
		return ""
	}
	return string(ctx.Content[start:end])
}

// returnType extracts the declared return type when the grammar exposes
// it as a field.
func (a *languageAdapter) returnType(primary *tree_sitter.Node, ctx *Context) string {
	if a.returnTypeField == "" {
		return ""
	}
	node := primary.ChildByFieldName(a.returnTypeField)
	if node == nil {
		return ""
	}
	return strings.TrimSpace(parser.NodeText(node, ctx.Content))
}

// enclosing walks parents to the nearest declaration and returns its
// stable entity ID and name; file scope when no declaration encloses.
func (a *languageAdapter) enclosing(ctx *Context, node *tree_sitter.Node) (string, string) {
	for p := node.Parent(); p != nil; p = p.Parent() {
		kind, ok := a.declKindOf(p)
		if !ok {
			continue
		}
		name := a.declName(p, ctx)
		if name == "" {
			continue
		}
		return types.EntityID(ctx.Path, kind, name, int(p.StartByte()), ctx.Digest), name
	}
	return ctx.FileID(), ""
}

func (a *languageAdapter) declKindOf(node *tree_sitter.Node) (types.EntityKind, bool) {
	if a.declKindFor != nil {
		if kind, ok := a.declKindFor(node); ok {
			return kind, true
		}
	}
	kind, ok := a.declKinds[node.Kind()]
	return kind, ok
}

// declName mirrors entityName for nodes reached through parent walks:
// the name field when present, else the C-style declarator descent.
func (a *languageAdapter) declName(node *tree_sitter.Node, ctx *Context) string {
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return trimName(parser.NodeText(nameNode, ctx.Content))
	}
	decl := node.ChildByFieldName("declarator")
	for decl != nil {
		switch decl.Kind() {
		case "identifier", "field_identifier", "type_identifier":
			return trimName(parser.NodeText(decl, ctx.Content))
		}
		next := decl.ChildByFieldName("declarator")
		if next == nil {
			break
		}
		decl = next
	}
	return ""
}
