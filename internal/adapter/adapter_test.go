package adapter

import (
	"math"
	"testing"

	"github.com/standardbeagle/codemill/internal/types"
)

func TestComplexityScore_BaseAndClamp(t *testing.T) {
	if got := complexityScore(0, 0, 0, 0, 0); got != 1.0 {
		t.Errorf("empty declaration complexity = %v, want 1.0", got)
	}
	// 2 params, 10 body lines, depth 2, 1 pointer, 1 storage modifier:
	// 1.0 + 0.2 + 0.5 + 0.2 + 0.1 + 0.05
	want := 2.05
	if got := complexityScore(2, 10, 2, 1, 1); math.Abs(got-want) > 1e-9 {
		t.Errorf("complexity = %v, want %v", got, want)
	}
	if got := complexityScore(1000, 10000, 100, 50, 10); got != 100.0 {
		t.Errorf("complexity not clamped high: %v", got)
	}
}

func TestStrengthTable(t *testing.T) {
	cases := []struct {
		relType string
		want    float64
	}{
		{"function", 0.5},
		{"recursive", 0.8},
		{"macro", 0.3},
		{"indirect", 0.7},
		{"function_pointer", 0.7},
		{"compound_assignment", 0.6},
	}
	for _, tc := range cases {
		if got := strengthFor(tc.relType); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("strength(%s) = %v, want %v", tc.relType, got, tc.want)
		}
	}
	if got := clampStrength(1.7); got != 1.0 {
		t.Errorf("clamp high = %v", got)
	}
	if got := clampStrength(0.01); got != 0.1 {
		t.Errorf("clamp low = %v", got)
	}
}

func TestTrimName(t *testing.T) {
	cases := []struct{ in, want string }{
		{`"fmt"`, "fmt"},
		{"  spaced  ", "spaced"},
		{"<stdio.h>", "stdio.h"},
		{"name(args)", "name"},
		{"first\nsecond", "first"},
		{"`tick`", "tick"},
	}
	for _, tc := range cases {
		if got := trimName(tc.in); got != tc.want {
			t.Errorf("trimName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPriorities_CentralKindsFirst(t *testing.T) {
	if priorityFor(types.EntityClass) >= priorityFor(types.EntityVariable) {
		t.Error("class should rank ahead of variable")
	}
	if priorityFor(types.EntityFunction) >= priorityFor(types.EntityComment) {
		t.Error("function should rank ahead of comment")
	}
	if priorityFor(types.EntityKind("mystery")) != 8 {
		t.Error("unknown kind should get the weakest priority")
	}
}

func TestRegistry_CoversCatalogLanguages(t *testing.T) {
	r := NewRegistry()
	for _, lang := range []string{"c", "cpp", "go", "javascript", "typescript", "python", "rust", "java", "csharp", "php", "zig"} {
		a, ok := r.Get(lang)
		if !ok {
			t.Errorf("no adapter for %s", lang)
			continue
		}
		if a.Language() != lang {
			t.Errorf("adapter language = %s, want %s", a.Language(), lang)
		}
		if len(a.SupportedQueryNames()) == 0 {
			t.Errorf("adapter %s supports no queries", lang)
		}
	}
	if _, ok := r.Get("cobol"); ok {
		t.Error("adapter registry invented a language")
	}
}
