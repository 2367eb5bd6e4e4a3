package cachekey

import (
	"strings"
	"testing"
)

func mustGenerate(t *testing.T, prefix string, params map[string]any) string {
	t.Helper()
	key, err := Generate(prefix, params)
	if err != nil {
		t.Fatalf("Generate(%q): %v", prefix, err)
	}
	return key
}

func TestGenerate_OrderIndependent(t *testing.T) {
	a := mustGenerate(t, "records:list", map[string]any{"page": 1, "limit": 10, "artist": "Björk"})
	b := mustGenerate(t, "records:list", map[string]any{"artist": "Björk", "limit": 10, "page": 1})

	if a != b {
		t.Fatalf("keys differ: %q vs %q", a, b)
	}
	if want := `records:list:{"artist":"Björk","limit":10,"page":1}`; a != want {
		t.Fatalf("got %q, want %q", a, want)
	}
}

func TestGenerate_OmitsNil(t *testing.T) {
	var (
		noFormat *string
		noTags   []string
		noExtra  map[string]int
	)
	got := mustGenerate(t, "orders:list", map[string]any{
		"page":   2,
		"owner":  nil,
		"format": noFormat,
		"tags":   noTags,
		"extra":  noExtra,
	})
	if want := `orders:list:{"page":2}`; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	format := "Vinyl"
	got = mustGenerate(t, "orders:list", map[string]any{"page": 2, "format": &format})
	if want := `orders:list:{"format":"Vinyl","page":2}`; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestGenerate_Empty(t *testing.T) {
	if got := mustGenerate(t, "orders:detail", nil); got != "orders:detail:{}" {
		t.Fatalf("got %q", got)
	}
}

func TestGenerate_UnencodableParamIsError(t *testing.T) {
	_, err := Generate("records:list", map[string]any{"page": 1, "cb": func() {}})
	if err == nil {
		t.Fatal("expected error for a parameter json cannot encode")
	}
	if !strings.Contains(err.Error(), "records:list") {
		t.Fatalf("error must name the prefix: %v", err)
	}
}

func TestContaining(t *testing.T) {
	got := Containing("records:detail", "a*b")
	if want := `records:detail:*a\*b*`; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestEscapeGlob(t *testing.T) {
	cases := map[string]string{
		"plain":  "plain",
		"a?b":    `a\?b`,
		"[x]":    `\[x\]`,
		"{a,b}":  `\{a,b\}`,
		`back\s`: `back\\s`,
	}
	for in, want := range cases {
		if got := EscapeGlob(in); got != want {
			t.Fatalf("EscapeGlob(%q)=%q, want %q", in, got, want)
		}
	}
}
