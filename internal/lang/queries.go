package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"
)

// languageSpec is the declarative per-language table driving the shared
// tree-sitter adapter. Capture names in symbolQuery double as symbol kinds.
type languageSpec struct {
	name    string
	grammar func() *sitter.Language

	symbolQuery  string
	importQuery  string // captures @import
	inheritQuery string // captures @base
	callQuery    string // captures @obj; matched against import roots

	branchTypes  map[string]bool
	commentTypes map[string]bool
}

var languageSpecs = []languageSpec{
	{
		name:    "python",
		grammar: python.GetLanguage,
		symbolQuery: `
			(function_definition name: (identifier) @function)
			(class_definition name: (identifier) @class)
		`,
		importQuery: `
			(import_statement name: (dotted_name) @import)
			(import_statement name: (aliased_import name: (dotted_name) @import))
			(import_from_statement module_name: (dotted_name) @import)
		`,
		inheritQuery: `
			(class_definition superclasses: (argument_list (identifier) @base))
		`,
		callQuery: `
			(call function: (attribute object: (identifier) @obj))
		`,
		branchTypes: setOf(
			"if_statement", "elif_clause", "for_statement", "while_statement",
			"except_clause", "with_statement", "assert_statement",
			"conditional_expression", "boolean_operator", "case_clause",
		),
		commentTypes: setOf("comment"),
	},
	{
		name:    "javascript",
		grammar: javascript.GetLanguage,
		symbolQuery: `
			(function_declaration name: (identifier) @function)
			(class_declaration name: (identifier) @class)
			(method_definition name: (property_identifier) @method)
		`,
		importQuery: `
			(import_statement source: (string) @import)
		`,
		inheritQuery: `
			(class_heritage (identifier) @base)
		`,
		branchTypes: setOf(
			"if_statement", "for_statement", "for_in_statement",
			"while_statement", "do_statement", "switch_case",
			"catch_clause", "ternary_expression",
		),
		commentTypes: setOf("comment"),
	},
	{
		name:    "typescript",
		grammar: ts.GetLanguage,
		symbolQuery: `
			(function_declaration name: (identifier) @function)
			(class_declaration name: (type_identifier) @class)
			(method_definition name: (property_identifier) @method)
			(interface_declaration name: (type_identifier) @type)
			(type_alias_declaration name: (type_identifier) @type)
		`,
		importQuery: `
			(import_statement source: (string) @import)
		`,
		inheritQuery: `
			(extends_clause (identifier) @base)
		`,
		branchTypes: setOf(
			"if_statement", "for_statement", "for_in_statement",
			"while_statement", "do_statement", "switch_case",
			"catch_clause", "ternary_expression",
		),
		commentTypes: setOf("comment"),
	},
	{
		name:    "java",
		grammar: java.GetLanguage,
		symbolQuery: `
			(class_declaration name: (identifier) @class)
			(interface_declaration name: (identifier) @type)
			(method_declaration name: (identifier) @method)
		`,
		importQuery: `
			(import_declaration (scoped_identifier) @import)
		`,
		inheritQuery: `
			(class_declaration superclass: (superclass (type_identifier) @base))
		`,
		branchTypes: setOf(
			"if_statement", "for_statement", "enhanced_for_statement",
			"while_statement", "do_statement", "switch_block_statement_group",
			"catch_clause", "ternary_expression",
		),
		commentTypes: setOf("line_comment", "block_comment"),
	},
	{
		name:    "c",
		grammar: c.GetLanguage,
		symbolQuery: `
			(function_definition declarator: (function_declarator declarator: (identifier) @function))
			(struct_specifier name: (type_identifier) @type)
		`,
		importQuery: `
			(preproc_include path: (string_literal) @import)
			(preproc_include path: (system_lib_string) @import)
		`,
		branchTypes: setOf(
			"if_statement", "for_statement", "while_statement",
			"do_statement", "case_statement", "conditional_expression",
		),
		commentTypes: setOf("comment"),
	},
	{
		name:    "cpp",
		grammar: cpp.GetLanguage,
		symbolQuery: `
			(function_definition declarator: (function_declarator declarator: (identifier) @function))
			(class_specifier name: (type_identifier) @class)
			(struct_specifier name: (type_identifier) @type)
		`,
		importQuery: `
			(preproc_include path: (string_literal) @import)
			(preproc_include path: (system_lib_string) @import)
		`,
		inheritQuery: `
			(base_class_clause (type_identifier) @base)
		`,
		branchTypes: setOf(
			"if_statement", "for_statement", "while_statement",
			"do_statement", "case_statement", "conditional_expression",
			"catch_clause",
		),
		commentTypes: setOf("comment"),
	},
	{
		name:    "go",
		grammar: golang.GetLanguage,
		symbolQuery: `
			(function_declaration name: (identifier) @function)
			(method_declaration name: (field_identifier) @method)
			(type_declaration (type_spec name: (type_identifier) @type))
		`,
		importQuery: `
			(import_spec path: (interpreted_string_literal) @import)
		`,
		branchTypes: setOf(
			"if_statement", "for_statement", "expression_case",
			"type_case", "communication_case", "select_statement",
		),
		commentTypes: setOf("comment"),
	},
}

func setOf(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}
