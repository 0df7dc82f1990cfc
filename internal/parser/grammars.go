package parser

import (
	tree_sitter_zig "github.com/tree-sitter-grammars/tree-sitter-zig/bindings/go"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// grammarLoaders maps language tags to grammar constructors. Loaders run
// lazily; an entry here costs nothing until the first file of that
// language arrives.
func grammarLoaders() map[string]func() *tree_sitter.Language {
	return map[string]func() *tree_sitter.Language{
		"go": func() *tree_sitter.Language {
			return tree_sitter.NewLanguage(tree_sitter_go.Language())
		},
		"c": func() *tree_sitter.Language {
			return tree_sitter.NewLanguage(tree_sitter_c.Language())
		},
		"cpp": func() *tree_sitter.Language {
			return tree_sitter.NewLanguage(tree_sitter_cpp.Language())
		},
		"javascript": func() *tree_sitter.Language {
			return tree_sitter.NewLanguage(tree_sitter_javascript.Language())
		},
		"typescript": func() *tree_sitter.Language {
			return tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
		},
		"python": func() *tree_sitter.Language {
			return tree_sitter.NewLanguage(tree_sitter_python.Language())
		},
		"rust": func() *tree_sitter.Language {
			return tree_sitter.NewLanguage(tree_sitter_rust.Language())
		},
		"java": func() *tree_sitter.Language {
			return tree_sitter.NewLanguage(tree_sitter_java.Language())
		},
		"csharp": func() *tree_sitter.Language {
			return tree_sitter.NewLanguage(tree_sitter_csharp.Language())
		},
		"php": func() *tree_sitter.Language {
			return tree_sitter.NewLanguage(tree_sitter_php.LanguagePHP())
		},
		"zig": func() *tree_sitter.Language {
			return tree_sitter.NewLanguage(tree_sitter_zig.Language())
		},
	}
}
