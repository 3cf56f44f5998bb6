package region

import "strings"

// Language lists the syntax node kinds that matter for region selection in
// one grammar.
type Language struct {
	Functions map[string]bool
	Blocks    map[string]bool
	Classes   map[string]bool

	// Constructors are method names treated as the class constructor.
	Constructors []string
}

type nodeClass uint8

const (
	classNone nodeClass = iota
	classFunction
	classBlock
	classClass
)

func set(kinds ...string) map[string]bool {
	m := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		m[k] = true
	}
	return m
}

// Languages holds the built-in grammar tables keyed by filetype.
var Languages = map[string]Language{
	"go": {
		Functions: set("function_declaration", "method_declaration", "func_literal"),
		Blocks: set("block", "if_statement", "for_statement", "expression_switch_statement",
			"type_switch_statement", "select_statement"),
		Classes: set("type_declaration"),
	},
	"python": {
		Functions: set("function_definition", "lambda"),
		Blocks: set("block", "if_statement", "for_statement", "while_statement",
			"try_statement", "with_statement", "match_statement"),
		Classes:      set("class_definition"),
		Constructors: []string{"__init__"},
	},
	"javascript": {
		Functions: set("function_declaration", "function_expression", "function", "arrow_function",
			"method_definition", "generator_function_declaration"),
		Blocks: set("statement_block", "if_statement", "for_statement", "for_in_statement",
			"while_statement", "try_statement", "switch_statement"),
		Classes:      set("class_declaration", "class"),
		Constructors: []string{"constructor"},
	},
	"typescript": {
		Functions: set("function_declaration", "function_expression", "function", "arrow_function",
			"method_definition", "generator_function_declaration"),
		Blocks: set("statement_block", "if_statement", "for_statement", "for_in_statement",
			"while_statement", "try_statement", "switch_statement"),
		Classes:      set("class_declaration", "class", "abstract_class_declaration", "interface_declaration"),
		Constructors: []string{"constructor"},
	},
	"rust": {
		Functions: set("function_item", "closure_expression"),
		Blocks: set("block", "if_expression", "match_expression", "loop_expression",
			"for_expression", "while_expression"),
		Classes:      set("impl_item", "struct_item", "trait_item", "enum_item"),
		Constructors: []string{"new"},
	},
	"ruby": {
		Functions:    set("method", "singleton_method"),
		Blocks:       set("do_block", "block", "if", "while", "begin"),
		Classes:      set("class", "module"),
		Constructors: []string{"initialize"},
	},
	"java": {
		Functions:    set("method_declaration", "constructor_declaration", "lambda_expression"),
		Blocks:       set("block", "if_statement", "for_statement", "while_statement", "try_statement"),
		Classes:      set("class_declaration", "interface_declaration", "enum_declaration"),
		Constructors: []string{},
	},
	"lua": {
		Functions: set("function_declaration", "function_definition"),
		Blocks:    set("block", "if_statement", "for_statement", "while_statement", "do_statement"),
		Classes:   set(),
	},
}

// classify maps a node kind to its role, falling back to name heuristics for
// grammars without a table.
func (l Language) classify(kind string) nodeClass {
	switch {
	case l.Functions[kind]:
		return classFunction
	case l.Blocks[kind]:
		return classBlock
	case l.Classes[kind]:
		return classClass
	}
	if l.Functions != nil || l.Blocks != nil || l.Classes != nil {
		return classNone
	}
	return classifyGeneric(kind)
}

var compoundStatements = set("if_statement", "for_statement", "while_statement", "try_statement",
	"with_statement", "switch_statement", "match_statement", "if_expression", "match_expression",
	"for_expression", "while_expression", "loop_expression")

func classifyGeneric(kind string) nodeClass {
	switch {
	case strings.Contains(kind, "function"), strings.Contains(kind, "method"),
		strings.Contains(kind, "lambda"), strings.Contains(kind, "closure"):
		return classFunction
	case strings.Contains(kind, "class"), strings.Contains(kind, "struct"),
		strings.Contains(kind, "interface"), strings.Contains(kind, "trait"),
		strings.Contains(kind, "impl"):
		return classClass
	case strings.Contains(kind, "block"), compoundStatements[kind]:
		return classBlock
	default:
		return classNone
	}
}

// isConstructor reports whether a node with the given kind and name is a
// constructor for this language.
func (l Language) isConstructor(kind, name string) bool {
	if strings.Contains(kind, "constructor") {
		return true
	}
	for _, c := range l.Constructors {
		if name == c {
			return true
		}
	}
	return false
}
