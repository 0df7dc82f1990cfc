// Package parser wraps the tree-sitter grammars behind a lazy-loading
// registry, carries the per-language query catalog, and executes queries
// against parsed trees.
package parser

import (
	"context"
	"fmt"
	"sort"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/codemill/internal/cerrors"
	"github.com/standardbeagle/codemill/internal/debug"
)

// Tree and Node alias the binding types so downstream packages depend
// on this package alone.
type (
	Tree = tree_sitter.Tree
	Node = tree_sitter.Node
)

// Registry owns one parser and one compiled query set per language.
// Grammar loading is the most expensive initialization step, so each
// language initializes on first use and stays loaded for the process
// lifetime; there is no unload.
type Registry struct {
	mu        sync.RWMutex
	languages map[string]*languageEntry
}

type languageEntry struct {
	name string
	load func() *tree_sitter.Language

	once     sync.Once
	initErr  error
	language *tree_sitter.Language
	parser   *tree_sitter.Parser
	// Tree-sitter parsers are not reentrant; one parse at a time per language.
	parserMu sync.Mutex

	queryMu  sync.Mutex
	queries  map[string]*tree_sitter.Query
	queryErr map[string]error
}

// NewRegistry builds a registry over every bundled grammar. Nothing is
// loaded until the first Parse for that language.
func NewRegistry() *Registry {
	r := &Registry{languages: make(map[string]*languageEntry)}
	for name, load := range grammarLoaders() {
		r.languages[name] = &languageEntry{
			name:     name,
			load:     load,
			queries:  make(map[string]*tree_sitter.Query),
			queryErr: make(map[string]error),
		}
	}
	return r
}

// Supported returns the language tags the registry has grammars for.
func (r *Registry) Supported() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.languages))
	for name := range r.languages {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Has reports whether a grammar exists for the language tag.
func (r *Registry) Has(language string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.languages[language]
	return ok
}

func (r *Registry) entry(language string) (*languageEntry, error) {
	r.mu.RLock()
	entry, ok := r.languages[language]
	r.mu.RUnlock()
	if !ok {
		return nil, cerrors.New(cerrors.ErrorTypeUnknownLanguage, "parse",
			fmt.Errorf("no grammar for language %q", language))
	}
	entry.once.Do(func() {
		lang := entry.load()
		if lang == nil {
			entry.initErr = fmt.Errorf("grammar for %s returned nil", entry.name)
			return
		}
		parser := tree_sitter.NewParser()
		if err := parser.SetLanguage(lang); err != nil {
			entry.initErr = fmt.Errorf("set language %s: %w", entry.name, err)
			return
		}
		entry.language = lang
		entry.parser = parser
		debug.LogParse("loaded grammar %s", entry.name)
	})
	if entry.initErr != nil {
		return nil, cerrors.New(cerrors.ErrorTypeParse, "parse", entry.initErr)
	}
	return entry, nil
}

// Parse builds a concrete syntax tree for content in the given language.
// The returned tree is owned by the caller (normally the AST cache) and
// must be closed when no consumer borrows it anymore.
func (r *Registry) Parse(ctx context.Context, language string, content []byte) (tree *tree_sitter.Tree, err error) {
	entry, err := r.entry(language)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, cerrors.New(cerrors.ErrorTypeTimeout, "parse", err)
	}

	// The tree-sitter C library mutates input buffers through CGO, so the
	// caller's bytes get a defensive copy before parsing.
	buffer := make([]byte, len(content))
	copy(buffer, content)

	defer func() {
		if rec := recover(); rec != nil {
			debug.LogParse("tree-sitter panic for %s: %v", language, rec)
			tree = nil
			err = cerrors.New(cerrors.ErrorTypeParse, "parse", fmt.Errorf("parser panic: %v", rec))
		}
	}()

	entry.parserMu.Lock()
	tree = entry.parser.Parse(buffer, nil)
	entry.parserMu.Unlock()

	if tree == nil {
		return nil, cerrors.New(cerrors.ErrorTypeParse, "parse",
			fmt.Errorf("parser returned no tree for %s", language))
	}
	return tree, nil
}

// Query returns the compiled query for (language, name), compiling it on
// first use. A pattern that fails to compile is remembered and keeps
// returning the same QueryCompileError; other queries are unaffected.
func (r *Registry) Query(language, name string) (*tree_sitter.Query, error) {
	entry, err := r.entry(language)
	if err != nil {
		return nil, err
	}

	entry.queryMu.Lock()
	defer entry.queryMu.Unlock()

	if q, ok := entry.queries[name]; ok {
		return q, nil
	}
	if err, ok := entry.queryErr[name]; ok {
		return nil, err
	}

	source, ok := querySources[language][name]
	if !ok {
		return nil, cerrors.New(cerrors.ErrorTypeQueryCompile, "normalize",
			fmt.Errorf("language %s has no query %s", language, name))
	}

	query, qerr := tree_sitter.NewQuery(entry.language, source)
	// The binding can report a typed-nil error; trust the query pointer.
	if query == nil {
		compileErr := cerrors.New(cerrors.ErrorTypeQueryCompile, "normalize",
			fmt.Errorf("query %s for %s failed to compile: %v", name, language, qerr))
		entry.queryErr[name] = compileErr
		debug.LogParse("query compile failed: %s/%s", language, name)
		return nil, compileErr
	}
	entry.queries[name] = query
	return query, nil
}

// QueryNames lists the catalog for a language, entity queries first and
// alphabetical within each group, so normalization order is stable.
func (r *Registry) QueryNames(language string) []string {
	catalog, ok := querySources[language]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ei, ej := isEntityQuery(names[i]), isEntityQuery(names[j])
		if ei != ej {
			return ei
		}
		return names[i] < names[j]
	})
	return names
}

func isEntityQuery(name string) bool {
	return len(name) > 9 && name[:9] == "entities."
}
