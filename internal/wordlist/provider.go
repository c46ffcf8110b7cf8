package wordlist

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

//go:embed en.txt
var embeddedEnglish string

// ErrUnknownLanguage is returned when no list exists for a language.
var ErrUnknownLanguage = errors.New("unknown language")

// Provider returns base vocabularies by language code.
type Provider struct {
	dir string

	mu    sync.Mutex
	cache map[string][]string
}

// NewProvider looks for <lang>.txt in dir before falling back to built-in lists.
func NewProvider(dir string) *Provider {
	return &Provider{dir: dir, cache: map[string][]string{}}
}

// Words returns the word list for lang. Results are cached for the process lifetime.
func (p *Provider) Words(lang string) ([]string, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	p.mu.Lock()
	defer p.mu.Unlock()
	if words, ok := p.cache[lang]; ok {
		return words, nil
	}
	words, err := p.load(lang)
	if err != nil {
		return nil, err
	}
	p.cache[lang] = words
	return words, nil
}

// English returns the built-in English list. daily.Words always draws from it,
// ignoring any en.txt on disk.
func English() []string {
	return parseWords(embeddedEnglish, FilterForLang("en"))
}

// Languages lists codes that have a list on disk or built in.
func (p *Provider) Languages() ([]string, error) {
	set := map[string]struct{}{"en": {}}
	if p.dir != "" {
		entries, err := os.ReadDir(p.dir)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read wordlist directory: %w", err)
		}
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || !strings.HasSuffix(name, ".txt") {
				continue
			}
			set[strings.TrimSuffix(name, ".txt")] = struct{}{}
		}
	}
	langs := make([]string, 0, len(set))
	for lang := range set {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs, nil
}

func (p *Provider) load(lang string) ([]string, error) {
	if p.dir != "" {
		path := filepath.Join(p.dir, lang+".txt")
		words, err := LoadWords(path)
		if err == nil {
			return filterWords(words, FilterForLang(lang))
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	if lang == "en" {
		return English(), nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownLanguage, lang)
}

func parseWords(text string, keep FilterFunc) []string {
	var words []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && keep(line) {
			words = append(words, line)
		}
	}
	return words
}

func filterWords(words []string, keep FilterFunc) ([]string, error) {
	out := words[:0]
	for _, w := range words {
		if keep(w) {
			out = append(out, w)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("word list is empty after filtering")
	}
	return out, nil
}
