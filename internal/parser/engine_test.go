package parser

import (
	"context"
	"testing"
)

func executeNamed(t *testing.T, language, queryName string, source []byte) []Match {
	t.Helper()
	r := NewRegistry()
	tree, err := r.Parse(context.Background(), language, source)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	t.Cleanup(tree.Close)

	query, err := r.Query(language, queryName)
	if err != nil {
		t.Fatalf("query %s: %v", queryName, err)
	}
	matches, err := NewEngine().Execute(query, queryName, tree.RootNode(), source)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	return matches
}

func TestEngine_CFunctionCaptures(t *testing.T) {
	source := []byte("int add(int a, int b) { return a + b; }")
	matches := executeNamed(t, "c", QueryEntityFunction, source)
	if len(matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(matches))
	}

	m := matches[0]
	primary := m.Primary()
	if primary == nil {
		t.Fatal("no primary capture")
	}
	if m.PrimaryLabel() != "function" {
		t.Errorf("primary label = %s, want function", m.PrimaryLabel())
	}
	if got := m.Text(source, "function.name"); got != "add" {
		t.Errorf("function.name = %q, want add", got)
	}
	params := m.Node("function.params")
	if params == nil {
		t.Fatal("no function.params capture")
	}
	if got := int(params.NamedChildCount()); got != 2 {
		t.Errorf("parameter count = %d, want 2", got)
	}
	if m.Node("function.body") == nil {
		t.Error("no function.body capture")
	}
}

func TestEngine_CCallCapture(t *testing.T) {
	source := []byte("int f(){ return g(); }")
	matches := executeNamed(t, "c", QueryRelCall, source)
	if len(matches) != 1 {
		t.Fatalf("call matches = %d, want 1", len(matches))
	}
	if got := matches[0].Text(source, "call.callee"); got != "g" {
		t.Errorf("callee = %q, want g", got)
	}
}

func TestEngine_GoEntities(t *testing.T) {
	source := []byte(`package demo

import "fmt"

type Greeter struct {
	name string
}

func (g Greeter) Greet() {
	fmt.Println(g.name)
}

func hello() {
	fmt.Println("hi")
}
`)
	funcs := executeNamed(t, "go", QueryEntityFunction, source)
	var names []string
	for i := range funcs {
		names = append(names, funcs[i].Text(source, funcs[i].PrimaryLabel()+".name"))
	}
	if len(names) != 2 {
		t.Fatalf("function/method matches = %d (%v), want 2", len(names), names)
	}

	structs := executeNamed(t, "go", QueryEntityClassStruct, source)
	found := false
	for i := range structs {
		if structs[i].Text(source, "struct.name") == "Greeter" {
			found = true
		}
	}
	if !found {
		t.Error("struct Greeter not matched")
	}

	imports := executeNamed(t, "go", QueryEntityImport, source)
	if len(imports) != 1 {
		t.Fatalf("import matches = %d, want 1", len(imports))
	}
	if got := imports[0].Text(source, "import.path"); got != `"fmt"` {
		t.Errorf("import path = %q, want \"fmt\"", got)
	}
}

func TestEngine_CaptureOrderPreserved(t *testing.T) {
	source := []byte("int add(int a, int b) { return a + b; }")
	matches := executeNamed(t, "c", QueryEntityFunction, source)
	if len(matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(matches))
	}
	// Within one match the captures follow pattern declaration order:
	// the enclosing @function first, then its sub-captures as declared.
	want := []string{"function", "function.name", "function.params", "function.body"}
	labels := make(map[string]bool)
	for _, c := range matches[0].Captures {
		labels[c.Label] = true
	}
	for _, label := range want {
		if !labels[label] {
			t.Errorf("capture %s missing from match", label)
		}
	}
	for i, label := range want {
		if i >= len(matches[0].Captures) || matches[0].Captures[i].Label != label {
			t.Errorf("capture %d is not %s; order not preserved", i, label)
		}
	}
}

func TestEngine_NilInputs(t *testing.T) {
	matches, err := NewEngine().Execute(nil, "x", nil, nil)
	if err != nil || matches != nil {
		t.Errorf("nil inputs: matches=%v err=%v, want nil/nil", matches, err)
	}
}

func TestEngine_ControlFlowAlternation(t *testing.T) {
	source := []byte(`int f(int x) {
	if (x) { return 1; }
	for (;;) { break; }
	while (x) { x--; }
	return 0;
}`)
	matches := executeNamed(t, "c", QueryRelControlFlow, source)
	kinds := make(map[string]int)
	for i := range matches {
		if p := matches[i].Primary(); p != nil {
			kinds[p.Kind()]++
		}
	}
	for _, want := range []string{"if_statement", "for_statement", "while_statement"} {
		if kinds[want] == 0 {
			t.Errorf("no %s match; got %v", want, kinds)
		}
	}
}
