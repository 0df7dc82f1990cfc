package adapter

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/codemill/internal/parser"
	"github.com/standardbeagle/codemill/internal/types"
)

// baseEntityKinds is the shared capture-label vocabulary. Every profile
// uses this same map; none of them needs to extend it so far.
var baseEntityKinds = map[string]types.EntityKind{
	"function":    types.EntityFunction,
	"method":      types.EntityMethod,
	"constructor": types.EntityMethod,
	"class":       types.EntityClass,
	"record":      types.EntityClass,
	"trait":       types.EntityClass,
	"interface":   types.EntityInterface,
	"struct":      types.EntityStruct,
	"union":       types.EntityUnion,
	"enum":        types.EntityEnum,
	"type":        types.EntityTypeAlias,
	"delegate":    types.EntityTypeAlias,
	"variable":    types.EntityVariable,
	"constant":    types.EntityConstant,
	"field":       types.EntityField,
	"property":    types.EntityField,
	"event":       types.EntityField,
	"import":      types.EntityImport,
	"using":       types.EntityImport,
	"include":     types.EntityImport,
	"package":     types.EntityImport,
	"module":      types.EntityModule,
	"namespace":   types.EntityModule,
	"macro":       types.EntityMacro,
	"annotation":  types.EntityAnnotation,
	"comment":     types.EntityComment,
}

// cFamilyControl maps statement kinds shared by the brace languages.
var cFamilyControl = map[string]string{
	"if_statement":     "if",
	"for_statement":    "for",
	"while_statement":  "while",
	"do_statement":     "do_while",
	"switch_statement": "switch",
	"goto_statement":   "goto",
	"try_statement":    "try",
}

func builtinAdapters() []Adapter {
	return []Adapter{
		newCAdapter(),
		newCppAdapter(),
		newGoAdapter(),
		newJavaScriptAdapter("javascript"),
		newJavaScriptAdapter("typescript"),
		newPythonAdapter(),
		newRustAdapter(),
		newJavaAdapter(),
		newCSharpAdapter(),
		newPHPAdapter(),
		newZigAdapter(),
	}
}

func newCAdapter() *languageAdapter {
	return &languageAdapter{
		language:    "c",
		queries:     parser.CatalogNames("c"),
		entityKinds: baseEntityKinds,
		declKinds: map[string]types.EntityKind{
			"function_definition": types.EntityFunction,
		},
		modifierKeywords: map[string]bool{
			"static": true, "extern": true, "inline": true, "const": true,
			"volatile": true, "register": true,
		},
		controlTypes: cFamilyControl,
		lifecycleCallees: map[string]string{
			"malloc": "memory_allocation", "calloc": "memory_allocation",
			"realloc": "memory_allocation", "free": "memory_deallocation",
			"fopen": "resource_acquisition", "fclose": "resource_release",
			"open": "resource_acquisition", "close": "resource_release",
		},
		concCallees: map[string]string{
			"pthread_create": "thread_create", "pthread_join": "thread_join",
			"pthread_mutex_lock": "mutex_lock", "pthread_mutex_unlock": "mutex_unlock",
			"pthread_cond_wait": "condition_wait", "pthread_cond_signal": "condition_signal",
		},
		dependencyType:  "include",
		semanticType:    "nested_struct",
		returnTypeField: "type",
	}
}

func newCppAdapter() *languageAdapter {
	a := newCAdapter()
	a.language = "cpp"
	a.queries = parser.CatalogNames("cpp")
	a.modifierKeywords["constexpr"] = true
	a.modifierKeywords["virtual"] = true
	a.modifierKeywords["explicit"] = true
	a.modifierKeywords["mutable"] = true
	a.lifecycleKinds = map[string]string{
		"new_expression":    "memory_allocation",
		"delete_expression": "memory_deallocation",
	}
	a.inheritanceType = "extends"
	a.semanticType = ""
	// A function_definition whose declarator names a field or qualified
	// identifier is a method definition.
	a.declKindFor = func(node *tree_sitter.Node) (types.EntityKind, bool) {
		if node.Kind() != "function_definition" {
			return "", false
		}
		decl := node.ChildByFieldName("declarator")
		for decl != nil {
			switch decl.Kind() {
			case "field_identifier", "qualified_identifier":
				return types.EntityMethod, true
			case "identifier":
				return types.EntityFunction, true
			}
			next := decl.ChildByFieldName("declarator")
			if next == nil {
				break
			}
			decl = next
		}
		return types.EntityFunction, true
	}
	return a
}

func newGoAdapter() *languageAdapter {
	return &languageAdapter{
		language:    "go",
		queries:     parser.CatalogNames("go"),
		entityKinds: baseEntityKinds,
		declKinds: map[string]types.EntityKind{
			"function_declaration": types.EntityFunction,
			"method_declaration":   types.EntityMethod,
		},
		modifierKeywords: map[string]bool{},
		controlTypes: map[string]string{
			"if_statement":                "if",
			"for_statement":               "for",
			"expression_switch_statement": "switch",
			"type_switch_statement":       "switch",
			"select_statement":            "select",
		},
		lifecycleKinds: map[string]string{
			"defer_statement": "deferred_cleanup",
		},
		lifecycleCallees: map[string]string{
			"make": "allocation", "new": "allocation", "close": "resource_release",
		},
		concKinds: map[string]string{
			"go_statement":     "goroutine",
			"send_statement":   "channel_send",
			"select_statement": "select",
		},
		inheritanceType: "embeds",
		dependencyType:  "import",
		semanticType:    "instantiates",
		returnTypeField: "result",
		// Embedded fields are the field declarations without a name.
		inheritInfo: func(a *languageAdapter, m *parser.Match, ctx *Context) (string, string, bool) {
			field := m.Node("inherit.field")
			if field == nil {
				return "", "", false
			}
			if field.ChildByFieldName("name") != nil {
				return "", "", false
			}
			typeNode := field.ChildByFieldName("type")
			if typeNode == nil {
				return "", "", false
			}
			return trimName(parser.NodeText(typeNode, ctx.Content)), "embeds", true
		},
	}
}

func newJavaScriptAdapter(language string) *languageAdapter {
	a := &languageAdapter{
		language:    language,
		queries:     parser.CatalogNames(language),
		entityKinds: baseEntityKinds,
		declKinds: map[string]types.EntityKind{
			"function_declaration":           types.EntityFunction,
			"generator_function_declaration": types.EntityFunction,
			"method_definition":              types.EntityMethod,
		},
		modifierKeywords: map[string]bool{
			"static": true, "async": true, "get": true, "set": true,
			"export": true, "default": true, "abstract": true,
			"readonly": true, "declare": true,
			"public": true, "private": true, "protected": true,
		},
		controlTypes: map[string]string{
			"if_statement":     "if",
			"for_statement":    "for",
			"for_in_statement": "for",
			"while_statement":  "while",
			"do_statement":     "do_while",
			"switch_statement": "switch",
			"try_statement":    "try",
		},
		lifecycleKinds: map[string]string{
			"new_expression": "instantiation",
		},
		concKinds: map[string]string{
			"await_expression": "await",
		},
		inheritanceType: "extends",
		dependencyType:  "import",
	}
	if language == "typescript" {
		a.returnTypeField = "return_type"
		a.inheritInfo = func(a *languageAdapter, m *parser.Match, ctx *Context) (string, string, bool) {
			baseNode := m.Node("inherit.base")
			if baseNode == nil {
				return "", "", false
			}
			relType := "extends"
			if parent := baseNode.Parent(); parent != nil && parent.Kind() == "implements_clause" {
				relType = "implements"
			}
			return trimName(parser.NodeText(baseNode, ctx.Content)), relType, true
		}
	}
	// An arrow function assigned to a declarator makes the declarator the
	// enclosing declaration for the arrow body.
	a.declKindFor = func(node *tree_sitter.Node) (types.EntityKind, bool) {
		if node.Kind() != "variable_declarator" {
			return "", false
		}
		value := node.ChildByFieldName("value")
		if value == nil {
			return "", false
		}
		switch value.Kind() {
		case "arrow_function", "function_expression", "generator_function":
			return types.EntityFunction, true
		}
		return "", false
	}
	return a
}

func newPythonAdapter() *languageAdapter {
	return &languageAdapter{
		language:    "python",
		queries:     parser.CatalogNames("python"),
		entityKinds: baseEntityKinds,
		declKinds: map[string]types.EntityKind{
			"class_definition": types.EntityClass,
		},
		modifierKeywords: map[string]bool{"async": true},
		controlTypes: map[string]string{
			"if_statement":     "if",
			"for_statement":    "for",
			"while_statement":  "while",
			"try_statement":    "try",
		},
		lifecycleKinds: map[string]string{
			"with_statement": "context_manager",
		},
		concKinds: map[string]string{
			"await": "await",
		},
		inheritanceType: "extends",
		dependencyType:  "import",
		returnTypeField: "return_type",
		// A function is a method when a class encloses it.
		declKindFor: func(node *tree_sitter.Node) (types.EntityKind, bool) {
			if node.Kind() != "function_definition" {
				return "", false
			}
			for p := node.Parent(); p != nil; p = p.Parent() {
				if p.Kind() == "class_definition" {
					return types.EntityMethod, true
				}
			}
			return types.EntityFunction, true
		},
	}
}

func newRustAdapter() *languageAdapter {
	return &languageAdapter{
		language:    "rust",
		queries:     parser.CatalogNames("rust"),
		entityKinds: baseEntityKinds,
		declKinds: map[string]types.EntityKind{
			"function_item": types.EntityFunction,
		},
		modifierKeywords: map[string]bool{
			"pub": true, "async": true, "unsafe": true, "const": true, "mut": true,
		},
		controlTypes: map[string]string{
			"if_expression":     "if",
			"for_expression":    "for",
			"while_expression":  "while",
			"loop_expression":   "loop",
			"match_expression":  "match",
		},
		concKinds: map[string]string{
			"await_expression": "await",
		},
		inheritanceType: "trait_impl",
		dependencyType:  "use",
		returnTypeField: "return_type",
	}
}

func newJavaAdapter() *languageAdapter {
	return &languageAdapter{
		language:    "java",
		queries:     parser.CatalogNames("java"),
		entityKinds: baseEntityKinds,
		declKinds: map[string]types.EntityKind{
			"method_declaration":      types.EntityMethod,
			"constructor_declaration": types.EntityMethod,
			"class_declaration":       types.EntityClass,
		},
		modifierKeywords: map[string]bool{
			"public": true, "private": true, "protected": true, "static": true,
			"final": true, "abstract": true, "synchronized": true,
			"native": true, "volatile": true, "transient": true,
		},
		controlTypes: map[string]string{
			"if_statement":           "if",
			"for_statement":          "for",
			"enhanced_for_statement": "foreach",
			"while_statement":        "while",
			"switch_expression":      "switch",
			"try_statement":          "try",
		},
		lifecycleKinds: map[string]string{
			"object_creation_expression": "instantiation",
		},
		concKinds: map[string]string{
			"synchronized_statement": "synchronized",
		},
		inheritanceType: "extends",
		dependencyType:  "import",
		returnTypeField: "type",
		inheritInfo: func(a *languageAdapter, m *parser.Match, ctx *Context) (string, string, bool) {
			baseNode := m.Node("inherit.base")
			if baseNode == nil {
				return "", "", false
			}
			relType := "extends"
			for p := baseNode.Parent(); p != nil; p = p.Parent() {
				if p.Kind() == "super_interfaces" {
					relType = "implements"
					break
				}
				if p.Kind() == "superclass" {
					break
				}
			}
			return trimName(parser.NodeText(baseNode, ctx.Content)), relType, true
		},
	}
}

func newCSharpAdapter() *languageAdapter {
	return &languageAdapter{
		language:    "csharp",
		queries:     parser.CatalogNames("csharp"),
		entityKinds: baseEntityKinds,
		declKinds: map[string]types.EntityKind{
			"method_declaration":      types.EntityMethod,
			"constructor_declaration": types.EntityMethod,
			"class_declaration":       types.EntityClass,
		},
		modifierKeywords: map[string]bool{
			"public": true, "private": true, "protected": true, "internal": true,
			"static": true, "readonly": true, "sealed": true, "abstract": true,
			"virtual": true, "override": true, "async": true, "partial": true,
		},
		controlTypes: map[string]string{
			"if_statement":       "if",
			"for_statement":      "for",
			"for_each_statement": "foreach",
			"while_statement":    "while",
			"switch_statement":   "switch",
			"try_statement":      "try",
		},
		lifecycleKinds: map[string]string{
			"object_creation_expression": "instantiation",
		},
		concKinds: map[string]string{
			"await_expression": "await",
		},
		inheritanceType: "extends",
		dependencyType:  "using",
		returnTypeField: "returns",
	}
}

func newPHPAdapter() *languageAdapter {
	return &languageAdapter{
		language:    "php",
		queries:     parser.CatalogNames("php"),
		entityKinds: baseEntityKinds,
		declKinds: map[string]types.EntityKind{
			"function_definition": types.EntityFunction,
			"method_declaration":  types.EntityMethod,
		},
		modifierKeywords: map[string]bool{
			"public": true, "private": true, "protected": true,
			"static": true, "final": true, "abstract": true, "readonly": true,
		},
		controlTypes: map[string]string{
			"if_statement":      "if",
			"for_statement":     "for",
			"foreach_statement": "foreach",
			"while_statement":   "while",
			"switch_statement":  "switch",
			"try_statement":     "try",
		},
		lifecycleKinds: map[string]string{
			"object_creation_expression": "instantiation",
		},
		inheritanceType: "extends",
		dependencyType:  "use",
		returnTypeField: "return_type",
		inheritInfo: func(a *languageAdapter, m *parser.Match, ctx *Context) (string, string, bool) {
			baseNode := m.Node("inherit.base")
			if baseNode == nil {
				return "", "", false
			}
			relType := "extends"
			if parent := baseNode.Parent(); parent != nil && parent.Kind() == "class_interface_clause" {
				relType = "implements"
			}
			return trimName(parser.NodeText(baseNode, ctx.Content)), relType, true
		},
	}
}

func newZigAdapter() *languageAdapter {
	return &languageAdapter{
		language:    "zig",
		queries:     parser.CatalogNames("zig"),
		entityKinds: baseEntityKinds,
		declKinds: map[string]types.EntityKind{
			"function_declaration": types.EntityFunction,
		},
		modifierKeywords: map[string]bool{
			"pub": true, "const": true, "export": true, "extern": true, "inline": true,
		},
		dependencyType: "import",
	}
}
