package parser

import (
	"context"
	"testing"

	"github.com/standardbeagle/codemill/internal/cerrors"
)

func TestRegistry_SupportedLanguages(t *testing.T) {
	r := NewRegistry()
	want := []string{"c", "cpp", "csharp", "go", "java", "javascript", "php", "python", "rust", "typescript", "zig"}
	got := r.Supported()
	if len(got) != len(want) {
		t.Fatalf("supported = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("supported = %v, want %v", got, want)
		}
	}
	for _, lang := range want {
		if !r.Has(lang) {
			t.Errorf("Has(%s) = false", lang)
		}
	}
	if r.Has("cobol") {
		t.Error("Has(cobol) = true")
	}
}

func TestRegistry_UnknownLanguage(t *testing.T) {
	r := NewRegistry()
	_, err := r.Parse(context.Background(), "cobol", []byte("x"))
	if err == nil {
		t.Fatal("expected error for unknown language")
	}
	if cerrors.TypeOf(err) != cerrors.ErrorTypeUnknownLanguage {
		t.Errorf("error type = %s, want unknown_language", cerrors.TypeOf(err))
	}
}

func TestRegistry_ParseC(t *testing.T) {
	r := NewRegistry()
	source := []byte("int add(int a, int b) { return a + b; }")
	tree, err := r.Parse(context.Background(), "c", source)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		t.Fatal("no root node")
	}
	if root.Kind() != "translation_unit" {
		t.Errorf("root kind = %s, want translation_unit", root.Kind())
	}
	if root.NamedChildCount() != 1 {
		t.Fatalf("top-level declarations = %d, want 1", root.NamedChildCount())
	}
	decl := root.NamedChild(0)
	if decl.Kind() != "function_definition" {
		t.Errorf("declaration kind = %s, want function_definition", decl.Kind())
	}
	if int(decl.StartByte()) != 0 || int(decl.EndByte()) != len(source) {
		t.Errorf("declaration span = [%d,%d), want [0,%d)", decl.StartByte(), decl.EndByte(), len(source))
	}
}

func TestRegistry_ParseDoesNotMutateInput(t *testing.T) {
	r := NewRegistry()
	source := []byte("package main\n\nfunc main() {}\n")
	original := string(source)
	tree, err := r.Parse(context.Background(), "go", source)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	defer tree.Close()
	if string(source) != original {
		t.Error("caller's buffer was mutated by parse")
	}
}

func TestRegistry_QueryCompileOnce(t *testing.T) {
	r := NewRegistry()
	q1, err := r.Query("c", QueryEntityFunction)
	if err != nil {
		t.Fatalf("query compile: %v", err)
	}
	q2, err := r.Query("c", QueryEntityFunction)
	if err != nil {
		t.Fatal(err)
	}
	if q1 != q2 {
		t.Error("query recompiled instead of cached")
	}
}

func TestRegistry_MissingQueryName(t *testing.T) {
	r := NewRegistry()
	// Zig ships a reduced catalog without a comment query.
	_, err := r.Query("zig", QueryEntityComment)
	if err == nil {
		t.Fatal("expected error for missing query")
	}
	if cerrors.TypeOf(err) != cerrors.ErrorTypeQueryCompile {
		t.Errorf("error type = %s, want query_compile", cerrors.TypeOf(err))
	}
}

func TestRegistry_QueryNamesOrdering(t *testing.T) {
	r := NewRegistry()
	names := r.QueryNames("c")
	if len(names) == 0 {
		t.Fatal("no query names for c")
	}
	sawRelationship := false
	for _, name := range names {
		if isEntityQuery(name) && sawRelationship {
			t.Fatalf("entity query after relationship query in %v", names)
		}
		if !isEntityQuery(name) {
			sawRelationship = true
		}
	}
}

func TestRegistry_ConcurrentParseSameLanguage(t *testing.T) {
	r := NewRegistry()
	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			tree, err := r.Parse(context.Background(), "go", []byte("package p\n\nfunc f() {}\n"))
			if tree != nil {
				tree.Close()
			}
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		if err := <-done; err != nil {
			t.Fatal(err)
		}
	}
}
