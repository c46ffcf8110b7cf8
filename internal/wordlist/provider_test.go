package wordlist

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEnglishBuiltIn(t *testing.T) {
	words := English()
	if len(words) < 100 {
		t.Fatalf("expected a sizeable english list, got %d words", len(words))
	}
	if words[0] != "the" {
		t.Fatalf("expected frequency order starting with \"the\", got %q", words[0])
	}
}

func TestProviderPrefersDisk(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "en.txt"), []byte("zebra\nCAPS\nyak\n"), 0o644); err != nil {
		t.Fatalf("write list: %v", err)
	}
	p := NewProvider(dir)
	words, err := p.Words("EN")
	if err != nil {
		t.Fatalf("Words failed: %v", err)
	}
	if len(words) != 2 || words[0] != "zebra" || words[1] != "yak" {
		t.Fatalf("unexpected words: %v", words)
	}
}

func TestProviderFallsBackToBuiltIn(t *testing.T) {
	p := NewProvider(t.TempDir())
	words, err := p.Words("en")
	if err != nil {
		t.Fatalf("Words failed: %v", err)
	}
	if len(words) != len(English()) {
		t.Fatalf("expected built-in list, got %d words", len(words))
	}
}

func TestProviderUnknownLanguage(t *testing.T) {
	p := NewProvider("")
	if _, err := p.Words("xx"); !errors.Is(err, ErrUnknownLanguage) {
		t.Fatalf("expected ErrUnknownLanguage, got %v", err)
	}
}

func TestProviderLanguages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"de.txt", "fr.txt", "notes.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("wort\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	langs, err := NewProvider(dir).Languages()
	if err != nil {
		t.Fatalf("Languages failed: %v", err)
	}
	want := []string{"de", "en", "fr"}
	if len(langs) != len(want) {
		t.Fatalf("expected %v, got %v", want, langs)
	}
	for i := range want {
		if langs[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, langs)
		}
	}
}
