// Package generator builds typing text sequences.
package generator

import (
	"math/rand"
	"strconv"
	"time"
	"unicode"
)

const (
	// DailyWordCount is the length of every daily challenge.
	DailyWordCount = 100

	capsChance  = 0.10
	punctChance = 0.25
	numberPct   = 0.10
)

// PunctSet lists the marks appended to decorated words.
var PunctSet = []rune{'.', ',', '!', '?', ';', ':'}

// Source yields floats in [0, 1).
type Source interface {
	Float64() float64
}

// Options toggles decorations for practice text.
type Options struct {
	Punctuation bool
	Numbers     bool
}

// Generator produces randomized typing text.
type Generator struct {
	rnd Source
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewWithSource returns a Generator drawing from src.
func NewWithSource(src Source) *Generator {
	return &Generator{rnd: src}
}

// Generate selects words uniformly and applies the enabled decorations.
func (g *Generator) Generate(words []string, count int, opts Options) []string {
	if len(words) == 0 || count <= 0 {
		return nil
	}
	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		if opts.Numbers && g.rnd.Float64() < numberPct {
			result = append(result, strconv.Itoa(1+intn(g.rnd, 9999)))
			continue
		}
		word := words[intn(g.rnd, len(words))]
		if opts.Punctuation {
			word = decorate(g.rnd, word, i, count)
		}
		result = append(result, word)
	}
	return result
}

// DailyWords derives the challenge for a date. The same date always yields the same words.
func DailyWords(date string, words []string) []string {
	if len(words) == 0 {
		return nil
	}
	rnd := NewMulberry32(uint32(HashSeed(date)))
	result := make([]string, 0, DailyWordCount)
	for i := 0; i < DailyWordCount; i++ {
		word := words[intn(rnd, len(words))]
		result = append(result, decorate(rnd, word, i, DailyWordCount))
	}
	return result
}

// decorate draws once to pick a branch and once more for the punctuation mark.
// The first word is never capitalized and the last never punctuated.
func decorate(rnd Source, word string, i, count int) string {
	r := rnd.Float64()
	switch {
	case r < capsChance:
		if i > 0 {
			return capitalize(word)
		}
	case r < punctChance:
		if i < count-1 {
			return word + string(PunctSet[intn(rnd, len(PunctSet))])
		}
	}
	return word
}

func capitalize(word string) string {
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func intn(rnd Source, n int) int {
	return int(rnd.Float64() * float64(n))
}
