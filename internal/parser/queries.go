package parser

// Query catalog. Each language ships the subset of named queries its
// grammar can express; a missing query simply means that language emits
// fewer entity or relationship kinds.
//
// Capture conventions the adapters rely on:
//   - the primary capture label has no dot (@function, @call, @branch);
//   - sub-captures use <primary>.<role> (@function.name, @call.callee);
//   - capture order inside a pattern is positional and preserved.

// Catalog query names.
const (
	QueryEntityFunction    = "entities.function"
	QueryEntityClassStruct = "entities.class_or_struct"
	QueryEntityVariable    = "entities.variable"
	QueryEntityImport      = "entities.import"
	QueryEntityComment     = "entities.comment"
	QueryEntityAnnotation  = "entities.annotation"
	QueryRelCall           = "relationships.call"
	QueryRelDataFlow       = "relationships.data_flow"
	QueryRelControlFlow    = "relationships.control_flow"
	QueryRelInheritance    = "relationships.inheritance"
	QueryRelDependency     = "relationships.dependency"
	QueryRelLifecycle      = "relationships.lifecycle"
	QueryRelSemantic       = "relationships.semantic"
	QueryRelConcurrency    = "relationships.concurrency"
)

// CatalogNames lists the catalog for a language without touching the
// registry; adapters use it to declare the queries they serve.
func CatalogNames(language string) []string {
	catalog, ok := querySources[language]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	return names
}

var querySources = map[string]map[string]string{
	"go": {
		QueryEntityFunction: `
            (function_declaration
                name: (identifier) @function.name
                parameters: (parameter_list) @function.params
                body: (block) @function.body) @function
            (method_declaration
                receiver: (parameter_list) @method.receiver
                name: (field_identifier) @method.name
                parameters: (parameter_list) @method.params
                body: (block) @method.body) @method
        `,
		QueryEntityClassStruct: `
            (type_declaration
                (type_spec name: (type_identifier) @struct.name
                    type: (struct_type) @struct.body)) @struct
            (type_declaration
                (type_spec name: (type_identifier) @interface.name
                    type: (interface_type) @interface.body)) @interface
            (type_declaration
                (type_spec name: (type_identifier) @type.name
                    type: [(pointer_type) (qualified_type) (type_identifier)
                           (map_type) (slice_type) (array_type)
                           (channel_type) (function_type)])) @type
        `,
		QueryEntityVariable: `
            (var_declaration (var_spec name: (identifier) @variable.name)) @variable
            (const_declaration (const_spec name: (identifier) @constant.name)) @constant
        `,
		QueryEntityImport: `
            (import_spec path: (interpreted_string_literal) @import.path) @import
        `,
		QueryEntityComment: `
            (comment) @comment
        `,
		QueryRelCall: `
            (call_expression function: (identifier) @call.callee) @call
            (call_expression
                function: (selector_expression field: (field_identifier) @call.callee)) @call
        `,
		QueryRelDataFlow: `
            (assignment_statement
                left: (expression_list (identifier) @flow.target)
                right: (expression_list) @flow.source) @flow
            (short_var_declaration
                left: (expression_list (identifier) @flow.target)
                right: (expression_list) @flow.source) @flow
        `,
		QueryRelControlFlow: `
            [(if_statement) (for_statement) (expression_switch_statement)
             (type_switch_statement) (select_statement)] @branch
        `,
		QueryRelInheritance: `
            (type_declaration
                (type_spec name: (type_identifier) @inherit.derived
                    type: (struct_type
                        (field_declaration_list (field_declaration) @inherit.field)))) @inherit
        `,
		QueryRelDependency: `
            (import_spec path: (interpreted_string_literal) @dep.path) @dep
        `,
		QueryRelLifecycle: `
            (defer_statement) @lifecycle
            (call_expression function: (identifier) @lifecycle.callee) @lifecycle
        `,
		QueryRelSemantic: `
            (composite_literal type: (type_identifier) @sem.type) @sem
        `,
		QueryRelConcurrency: `
            [(go_statement) (send_statement) (select_statement)] @conc
        `,
	},

	"c": {
		QueryEntityFunction: `
            (function_definition
                declarator: (function_declarator
                    declarator: (identifier) @function.name
                    parameters: (parameter_list) @function.params)
                body: (compound_statement) @function.body) @function
            (function_definition
                declarator: (pointer_declarator
                    declarator: (function_declarator
                        declarator: (identifier) @function.name
                        parameters: (parameter_list) @function.params))
                body: (compound_statement) @function.body) @function
            (declaration
                declarator: (function_declarator
                    declarator: (identifier) @function.name
                    parameters: (parameter_list) @function.params)) @function
        `,
		QueryEntityClassStruct: `
            (struct_specifier name: (type_identifier) @struct.name
                body: (field_declaration_list) @struct.body) @struct
            (union_specifier name: (type_identifier) @union.name
                body: (field_declaration_list) @union.body) @union
            (enum_specifier name: (type_identifier) @enum.name) @enum
            (type_definition declarator: (type_identifier) @type.name) @type
        `,
		QueryEntityVariable: `
            (declaration
                declarator: (init_declarator
                    declarator: (identifier) @variable.name
                    value: (_) @variable.value)) @variable
            (declaration declarator: (identifier) @variable.name) @variable
        `,
		QueryEntityImport: `
            (preproc_include path: (_) @import.path) @import
        `,
		QueryEntityComment: `
            (comment) @comment
        `,
		QueryEntityAnnotation: `
            (preproc_def name: (identifier) @macro.name) @macro
            (preproc_function_def name: (identifier) @macro.name) @macro
        `,
		QueryRelCall: `
            (call_expression function: (identifier) @call.callee) @call
            (call_expression
                function: (field_expression field: (field_identifier) @call.callee)) @call
            (call_expression function: (parenthesized_expression
                (pointer_expression) @call.indirect)) @call
        `,
		QueryRelDataFlow: `
            (assignment_expression left: (identifier) @flow.target right: (_) @flow.source) @flow
            (assignment_expression left: (field_expression) @flow.target right: (_) @flow.source) @flow
            (assignment_expression left: (pointer_expression) @flow.target right: (_) @flow.source) @flow
            (init_declarator declarator: (identifier) @flow.target value: (_) @flow.source) @flow
        `,
		QueryRelControlFlow: `
            [(if_statement) (for_statement) (while_statement) (do_statement)
             (switch_statement) (goto_statement)] @branch
        `,
		QueryRelDependency: `
            (preproc_include path: (_) @dep.path) @dep
        `,
		QueryRelLifecycle: `
            (call_expression function: (identifier) @lifecycle.callee) @lifecycle
        `,
		QueryRelSemantic: `
            (field_declaration
                type: (struct_specifier name: (type_identifier) @sem.type)) @sem
        `,
		QueryRelConcurrency: `
            (call_expression function: (identifier) @conc.callee) @conc
        `,
	},

	"cpp": {
		QueryEntityFunction: `
            (function_definition
                declarator: (function_declarator
                    declarator: (identifier) @function.name
                    parameters: (parameter_list) @function.params)
                body: (compound_statement) @function.body) @function
            (function_definition
                declarator: (function_declarator
                    declarator: (field_identifier) @method.name
                    parameters: (parameter_list) @method.params)
                body: (compound_statement) @method.body) @method
            (function_definition
                declarator: (function_declarator
                    declarator: (qualified_identifier name: (identifier) @method.name)
                    parameters: (parameter_list) @method.params)
                body: (compound_statement) @method.body) @method
        `,
		QueryEntityClassStruct: `
            (class_specifier name: (type_identifier) @class.name
                body: (field_declaration_list) @class.body) @class
            (struct_specifier name: (type_identifier) @struct.name
                body: (field_declaration_list) @struct.body) @struct
            (union_specifier name: (type_identifier) @union.name) @union
            (enum_specifier name: (type_identifier) @enum.name) @enum
            (namespace_definition name: (namespace_identifier) @module.name) @module
            (type_definition declarator: (type_identifier) @type.name) @type
        `,
		QueryEntityVariable: `
            (declaration
                declarator: (init_declarator
                    declarator: (identifier) @variable.name)) @variable
        `,
		QueryEntityImport: `
            (preproc_include path: (_) @import.path) @import
        `,
		QueryEntityComment: `
            (comment) @comment
        `,
		QueryEntityAnnotation: `
            (preproc_def name: (identifier) @macro.name) @macro
            (preproc_function_def name: (identifier) @macro.name) @macro
        `,
		QueryRelCall: `
            (call_expression function: (identifier) @call.callee) @call
            (call_expression
                function: (field_expression field: (field_identifier) @call.callee)) @call
        `,
		QueryRelDataFlow: `
            (assignment_expression left: (identifier) @flow.target right: (_) @flow.source) @flow
            (assignment_expression left: (field_expression) @flow.target right: (_) @flow.source) @flow
            (init_declarator declarator: (identifier) @flow.target value: (_) @flow.source) @flow
        `,
		QueryRelControlFlow: `
            [(if_statement) (for_statement) (for_range_loop) (while_statement)
             (do_statement) (switch_statement)] @branch
        `,
		QueryRelInheritance: `
            (class_specifier name: (type_identifier) @inherit.derived
                (base_class_clause (type_identifier) @inherit.base)) @inherit
        `,
		QueryRelDependency: `
            (preproc_include path: (_) @dep.path) @dep
        `,
		QueryRelLifecycle: `
            [(new_expression) (delete_expression)] @lifecycle
            (call_expression function: (identifier) @lifecycle.callee) @lifecycle
        `,
		QueryRelConcurrency: `
            (call_expression function: (identifier) @conc.callee) @conc
        `,
	},

	"javascript": {
		QueryEntityFunction: `
            (function_declaration
                name: (identifier) @function.name
                parameters: (formal_parameters) @function.params
                body: (statement_block) @function.body) @function
            (generator_function_declaration
                name: (identifier) @function.name
                parameters: (formal_parameters) @function.params) @function
            (method_definition
                name: (property_identifier) @method.name
                parameters: (formal_parameters) @method.params) @method
            (variable_declarator
                name: (identifier) @function.name
                value: (arrow_function) @function.body) @function
        `,
		QueryEntityClassStruct: `
            (class_declaration name: (identifier) @class.name
                body: (class_body) @class.body) @class
        `,
		QueryEntityVariable: `
            (variable_declarator name: (identifier) @variable.name) @variable
        `,
		QueryEntityImport: `
            (import_statement source: (string) @import.source) @import
        `,
		QueryEntityComment: `
            (comment) @comment
        `,
		QueryRelCall: `
            (call_expression function: (identifier) @call.callee) @call
            (call_expression
                function: (member_expression property: (property_identifier) @call.callee)) @call
        `,
		QueryRelDataFlow: `
            (assignment_expression left: (identifier) @flow.target right: (_) @flow.source) @flow
            (assignment_expression left: (member_expression) @flow.target right: (_) @flow.source) @flow
            (variable_declarator name: (identifier) @flow.target value: (_) @flow.source) @flow
        `,
		QueryRelControlFlow: `
            [(if_statement) (for_statement) (for_in_statement) (while_statement)
             (do_statement) (switch_statement) (try_statement)] @branch
        `,
		QueryRelInheritance: `
            (class_declaration name: (identifier) @inherit.derived
                (class_heritage (identifier) @inherit.base)) @inherit
        `,
		QueryRelDependency: `
            (import_statement source: (string) @dep.path) @dep
        `,
		QueryRelLifecycle: `
            (new_expression constructor: (identifier) @lifecycle.callee) @lifecycle
        `,
		QueryRelConcurrency: `
            (await_expression) @conc
        `,
	},

	"typescript": {
		QueryEntityFunction: `
            (function_declaration
                name: (identifier) @function.name
                parameters: (formal_parameters) @function.params
                body: (statement_block) @function.body) @function
            (method_definition
                name: (property_identifier) @method.name
                parameters: (formal_parameters) @method.params) @method
            (variable_declarator
                name: (identifier) @function.name
                value: (arrow_function) @function.body) @function
        `,
		QueryEntityClassStruct: `
            (class_declaration name: (type_identifier) @class.name
                body: (class_body) @class.body) @class
            (interface_declaration name: (type_identifier) @interface.name) @interface
            (type_alias_declaration name: (type_identifier) @type.name) @type
            (enum_declaration name: (identifier) @enum.name) @enum
        `,
		QueryEntityVariable: `
            (variable_declarator name: (identifier) @variable.name) @variable
        `,
		QueryEntityImport: `
            (import_statement source: (string) @import.source) @import
        `,
		QueryEntityComment: `
            (comment) @comment
        `,
		QueryEntityAnnotation: `
            (decorator) @annotation
        `,
		QueryRelCall: `
            (call_expression function: (identifier) @call.callee) @call
            (call_expression
                function: (member_expression property: (property_identifier) @call.callee)) @call
        `,
		QueryRelDataFlow: `
            (assignment_expression left: (identifier) @flow.target right: (_) @flow.source) @flow
            (variable_declarator name: (identifier) @flow.target value: (_) @flow.source) @flow
        `,
		QueryRelControlFlow: `
            [(if_statement) (for_statement) (for_in_statement) (while_statement)
             (do_statement) (switch_statement) (try_statement)] @branch
        `,
		QueryRelInheritance: `
            (extends_clause (identifier) @inherit.base) @inherit
            (implements_clause (type_identifier) @inherit.base) @inherit
        `,
		QueryRelDependency: `
            (import_statement source: (string) @dep.path) @dep
        `,
		QueryRelLifecycle: `
            (new_expression constructor: (identifier) @lifecycle.callee) @lifecycle
        `,
		QueryRelConcurrency: `
            (await_expression) @conc
        `,
	},

	"python": {
		QueryEntityFunction: `
            (module (function_definition
                name: (identifier) @function.name
                parameters: (parameters) @function.params
                body: (block) @function.body) @function)
            (module (decorated_definition
                definition: (function_definition
                    name: (identifier) @function.name
                    parameters: (parameters) @function.params
                    body: (block) @function.body) @function))
            (class_definition body: (block
                (function_definition
                    name: (identifier) @method.name
                    parameters: (parameters) @method.params
                    body: (block) @method.body) @method))
        `,
		QueryEntityClassStruct: `
            (class_definition name: (identifier) @class.name
                body: (block) @class.body) @class
        `,
		QueryEntityVariable: `
            (module (expression_statement
                (assignment left: (identifier) @variable.name) @variable))
        `,
		QueryEntityImport: `
            [(import_statement) (import_from_statement)] @import
        `,
		QueryEntityComment: `
            (comment) @comment
        `,
		QueryEntityAnnotation: `
            (decorator) @annotation
        `,
		QueryRelCall: `
            (call function: (identifier) @call.callee) @call
            (call function: (attribute attribute: (identifier) @call.callee)) @call
        `,
		QueryRelDataFlow: `
            (assignment left: (identifier) @flow.target right: (_) @flow.source) @flow
            (augmented_assignment left: (identifier) @flow.target) @flow
        `,
		QueryRelControlFlow: `
            [(if_statement) (for_statement) (while_statement)
             (try_statement)] @branch
        `,
		QueryRelInheritance: `
            (class_definition name: (identifier) @inherit.derived
                superclasses: (argument_list (identifier) @inherit.base)) @inherit
        `,
		QueryRelDependency: `
            [(import_statement) (import_from_statement)] @dep
        `,
		QueryRelLifecycle: `
            (with_statement) @lifecycle
        `,
		QueryRelConcurrency: `
            (await) @conc
        `,
	},

	"rust": {
		QueryEntityFunction: `
            (function_item
                name: (identifier) @function.name
                parameters: (parameters) @function.params
                body: (block) @function.body) @function
        `,
		QueryEntityClassStruct: `
            (struct_item name: (type_identifier) @struct.name) @struct
            (enum_item name: (type_identifier) @enum.name) @enum
            (union_item name: (type_identifier) @union.name) @union
            (trait_item name: (type_identifier) @interface.name) @interface
            (type_item name: (type_identifier) @type.name) @type
            (mod_item name: (identifier) @module.name) @module
        `,
		QueryEntityVariable: `
            (let_declaration pattern: (identifier) @variable.name) @variable
            (const_item name: (identifier) @constant.name) @constant
            (static_item name: (identifier) @constant.name) @constant
        `,
		QueryEntityImport: `
            (use_declaration) @import
        `,
		QueryEntityComment: `
            [(line_comment) (block_comment)] @comment
        `,
		QueryEntityAnnotation: `
            (attribute_item) @annotation
        `,
		QueryRelCall: `
            (call_expression function: (identifier) @call.callee) @call
            (call_expression
                function: (field_expression field: (field_identifier) @call.callee)) @call
            (macro_invocation macro: (identifier) @call.macro) @call
        `,
		QueryRelDataFlow: `
            (assignment_expression left: (identifier) @flow.target right: (_) @flow.source) @flow
            (let_declaration pattern: (identifier) @flow.target value: (_) @flow.source) @flow
        `,
		QueryRelControlFlow: `
            [(if_expression) (for_expression) (while_expression) (loop_expression)
             (match_expression)] @branch
        `,
		QueryRelInheritance: `
            (impl_item trait: (type_identifier) @inherit.base
                type: (type_identifier) @inherit.derived) @inherit
        `,
		QueryRelDependency: `
            (use_declaration argument: (_) @dep.path) @dep
        `,
		QueryRelConcurrency: `
            (await_expression) @conc
        `,
	},

	"java": {
		QueryEntityFunction: `
            (method_declaration
                name: (identifier) @method.name
                parameters: (formal_parameters) @method.params) @method
            (constructor_declaration
                name: (identifier) @method.name
                parameters: (formal_parameters) @method.params) @method
        `,
		QueryEntityClassStruct: `
            (class_declaration name: (identifier) @class.name) @class
            (record_declaration name: (identifier) @class.name) @class
            (interface_declaration name: (identifier) @interface.name) @interface
            (enum_declaration name: (identifier) @enum.name) @enum
            (annotation_type_declaration name: (identifier) @annotation.name) @annotation
        `,
		QueryEntityVariable: `
            (field_declaration
                declarator: (variable_declarator name: (identifier) @field.name)) @field
        `,
		QueryEntityImport: `
            (import_declaration) @import
        `,
		QueryEntityComment: `
            [(line_comment) (block_comment)] @comment
        `,
		QueryEntityAnnotation: `
            [(marker_annotation) (annotation)] @annotation
        `,
		QueryRelCall: `
            (method_invocation name: (identifier) @call.callee) @call
        `,
		QueryRelDataFlow: `
            (assignment_expression left: (identifier) @flow.target right: (_) @flow.source) @flow
            (local_variable_declaration
                declarator: (variable_declarator
                    name: (identifier) @flow.target
                    value: (_) @flow.source)) @flow
        `,
		QueryRelControlFlow: `
            [(if_statement) (for_statement) (enhanced_for_statement) (while_statement)
             (switch_expression) (try_statement)] @branch
        `,
		QueryRelInheritance: `
            (class_declaration name: (identifier) @inherit.derived
                superclass: (superclass (type_identifier) @inherit.base)) @inherit
            (super_interfaces (type_list (type_identifier) @inherit.base)) @inherit
        `,
		QueryRelDependency: `
            (import_declaration) @dep
        `,
		QueryRelLifecycle: `
            (object_creation_expression type: (type_identifier) @lifecycle.callee) @lifecycle
        `,
		QueryRelConcurrency: `
            (synchronized_statement) @conc
        `,
	},

	"csharp": {
		QueryEntityFunction: `
            (method_declaration name: (identifier) @method.name) @method
            (constructor_declaration name: (identifier) @method.name) @method
        `,
		QueryEntityClassStruct: `
            (class_declaration name: (identifier) @class.name) @class
            (interface_declaration name: (identifier) @interface.name) @interface
            (struct_declaration name: (identifier) @struct.name) @struct
            (record_declaration name: (identifier) @class.name) @class
            (enum_declaration name: (identifier) @enum.name) @enum
        `,
		QueryEntityVariable: `
            (field_declaration
                (variable_declaration
                    (variable_declarator (identifier) @field.name))) @field
            (property_declaration name: (identifier) @field.name) @field
        `,
		QueryEntityImport: `
            (using_directive) @import
        `,
		QueryEntityComment: `
            (comment) @comment
        `,
		QueryRelCall: `
            (invocation_expression function: (identifier) @call.callee) @call
            (invocation_expression
                function: (member_access_expression name: (identifier) @call.callee)) @call
        `,
		QueryRelDataFlow: `
            (assignment_expression left: (identifier) @flow.target right: (_) @flow.source) @flow
        `,
		QueryRelControlFlow: `
            [(if_statement) (for_statement) (for_each_statement) (while_statement)
             (switch_statement) (try_statement)] @branch
        `,
		QueryRelInheritance: `
            (base_list (identifier) @inherit.base) @inherit
        `,
		QueryRelDependency: `
            (using_directive) @dep
        `,
		QueryRelLifecycle: `
            (object_creation_expression) @lifecycle
        `,
		QueryRelConcurrency: `
            (await_expression) @conc
        `,
	},

	"php": {
		QueryEntityFunction: `
            (function_definition name: (name) @function.name) @function
            (method_declaration name: (name) @method.name) @method
        `,
		QueryEntityClassStruct: `
            (class_declaration name: (name) @class.name) @class
            (interface_declaration name: (name) @interface.name) @interface
            (trait_declaration name: (name) @class.name) @class
            (enum_declaration name: (name) @enum.name) @enum
            (namespace_definition name: (namespace_name) @module.name) @module
        `,
		QueryEntityVariable: `
            (property_declaration) @field
            (const_declaration) @constant
        `,
		QueryEntityImport: `
            (namespace_use_declaration) @import
        `,
		QueryEntityComment: `
            (comment) @comment
        `,
		QueryRelCall: `
            (function_call_expression function: (name) @call.callee) @call
            (member_call_expression name: (name) @call.callee) @call
        `,
		QueryRelDataFlow: `
            (assignment_expression left: (variable_name) @flow.target right: (_) @flow.source) @flow
        `,
		QueryRelControlFlow: `
            [(if_statement) (for_statement) (foreach_statement) (while_statement)
             (switch_statement) (try_statement)] @branch
        `,
		QueryRelInheritance: `
            (base_clause (name) @inherit.base) @inherit
            (class_interface_clause (name) @inherit.base) @inherit
        `,
		QueryRelDependency: `
            (namespace_use_declaration) @dep
        `,
		QueryRelLifecycle: `
            (object_creation_expression) @lifecycle
        `,
	},

	"zig": {
		QueryEntityFunction: `
            (function_declaration (identifier) @function.name) @function
        `,
		QueryEntityClassStruct: `
            (variable_declaration
                (identifier) @struct.name
                (struct_declaration) @struct.body) @struct
            (variable_declaration
                (identifier) @union.name
                (union_declaration) @union.body) @union
        `,
	},
}
