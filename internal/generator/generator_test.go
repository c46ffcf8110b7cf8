package generator

import (
	"strings"
	"testing"
	"unicode"
)

var testWords = []string{"the", "be", "of", "and", "a", "to", "in", "he", "have", "it", "that", "for", "they", "with", "as", "not", "on", "she", "at", "by"}

func TestMulberry32KnownSequence(t *testing.T) {
	m := NewMulberry32(1)
	want := []uint32{2693262067, 11749833, 2265367787}
	for i, w := range want {
		if got := m.Uint32(); got != w {
			t.Fatalf("output %d: expected %d, got %d", i, w, got)
		}
	}
	m = NewMulberry32(1)
	if got := m.Float64(); got != 0.6270739405881613 {
		t.Fatalf("expected 0.6270739405881613, got %v", got)
	}
}

func TestMulberry32Range(t *testing.T) {
	m := NewMulberry32(42)
	for i := 0; i < 10000; i++ {
		v := m.Float64()
		if v < 0 || v >= 1 {
			t.Fatalf("value %v out of [0,1)", v)
		}
	}
}

func TestHashSeed(t *testing.T) {
	cases := map[string]int32{
		"":           0,
		"a":          97,
		"2026-03-01": 1161725312,
		"2026-03-02": 1161725313,
	}
	for in, want := range cases {
		if got := HashSeed(in); got != want {
			t.Fatalf("HashSeed(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestDailyWordsDeterministic(t *testing.T) {
	first := DailyWords("2026-03-01", testWords)
	second := DailyWords("2026-03-01", testWords)
	if len(first) != DailyWordCount {
		t.Fatalf("expected %d words, got %d", DailyWordCount, len(first))
	}
	if strings.Join(first, " ") != strings.Join(second, " ") {
		t.Fatalf("expected identical sequences for the same date")
	}
}

func TestDailyWordsDifferAcrossDays(t *testing.T) {
	seen := map[string]string{}
	for _, date := range []string{"2026-03-01", "2026-03-02", "2026-03-03", "2026-03-04", "2026-12-31"} {
		text := strings.Join(DailyWords(date, testWords), " ")
		if prev, ok := seen[text]; ok {
			t.Fatalf("dates %s and %s produced the same challenge", prev, date)
		}
		seen[text] = date
	}
}

func TestDailyWordsDecorationRules(t *testing.T) {
	base := map[string]struct{}{}
	for _, w := range testWords {
		base[w] = struct{}{}
	}
	for _, date := range []string{"2026-01-01", "2026-02-14", "2026-07-04"} {
		words := DailyWords(date, testWords)
		if unicode.IsUpper([]rune(words[0])[0]) {
			t.Fatalf("%s: first word must not be capitalized: %q", date, words[0])
		}
		last := words[len(words)-1]
		if strings.ContainsAny(last, string(PunctSet)) {
			t.Fatalf("%s: last word must not be punctuated: %q", date, last)
		}
		for _, w := range words {
			plain := strings.ToLower(strings.TrimRight(w, string(PunctSet)))
			if _, ok := base[plain]; !ok {
				t.Fatalf("%s: unexpected word %q", date, w)
			}
			if strings.ContainsAny(w, string(PunctSet)) && unicode.IsUpper([]rune(w)[0]) {
				t.Fatalf("%s: word %q has both decorations", date, w)
			}
		}
	}
}

func TestDailyWordsEmptyList(t *testing.T) {
	if got := DailyWords("2026-03-01", nil); got != nil {
		t.Fatalf("expected nil for empty list, got %v", got)
	}
}

type fixedSource struct {
	values []float64
	i      int
}

func (f *fixedSource) Float64() float64 {
	v := f.values[f.i%len(f.values)]
	f.i++
	return v
}

func TestGeneratePlain(t *testing.T) {
	gen := NewWithSource(&fixedSource{values: []float64{0, 0.5, 0.99}})
	got := gen.Generate([]string{"alpha", "beta", "gamma"}, 3, Options{})
	want := []string{"alpha", "beta", "gamma"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestGeneratePunctuation(t *testing.T) {
	// index, branch, mark draws for each word.
	src := &fixedSource{values: []float64{
		0.0, 0.5, // word 0 plain
		0.4, 0.05, // word 1 capitalized
		0.9, 0.2, 0.0, // word 2 gets '.'
		0.0, 0.2, // last word never punctuated
	}}
	gen := NewWithSource(src)
	got := gen.Generate([]string{"alpha", "beta", "gamma"}, 4, Options{Punctuation: true})
	want := []string{"alpha", "Beta", "gamma.", "alpha"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestGenerateNumbers(t *testing.T) {
	src := &fixedSource{values: []float64{0.05, 0.5}}
	gen := NewWithSource(src)
	got := gen.Generate([]string{"alpha"}, 2, Options{Numbers: true})
	for _, w := range got {
		if w != "5000" {
			t.Fatalf("expected number tokens, got %v", got)
		}
	}
}
