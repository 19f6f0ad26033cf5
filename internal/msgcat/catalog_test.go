package msgcat

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEmbeddedRender(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := c.Render("dialogue.word.incorrect.first", map[string]any{"Word": "coffee"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "No, that's not it. The word was: coffee" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestMissingDataFallsBack(t *testing.T) {
	c := Default()
	// Word is required by the template
	if _, err := c.Render("dialogue.word.incorrect.first", map[string]any{}); err == nil {
		t.Fatalf("expected missingkey error")
	}
	if got := c.RenderOr("dialogue.nope", nil, "fallback"); got != "fallback" {
		t.Fatalf("RenderOr = %q", got)
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("dialogue:\n  memory:\n    match:\n      first: \"Found one!\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.RenderOr("dialogue.memory.match.first", nil, ""); got != "Found one!" {
		t.Fatalf("override not applied: %q", got)
	}
	if !c.Has("dialogue.memory.miss.first") {
		t.Fatalf("embedded key lost after override")
	}
}

func TestDuplicateOverrideRejected(t *testing.T) {
	dir := t.TempDir()
	body := []byte("ui:\n  title: \"x\"\n")
	for _, n := range []string{"a.yaml", "b.yml"} {
		if err := os.WriteFile(filepath.Join(dir, n), body, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("expected duplicate key error")
	}
}
