// internal/words/words.go
//
// Word oracle for Maratona rooms.
//
// Responsibilities:
//   - Load per-language answer lists from WORDS_DIR override files or fall
//     back to the embedded defaults in the assets package.
//   - Maintain sets for quick dictionary lookups.
//   - Draw the secret for a room round (Pick) and answer IsAllowed/Stats.
//
// Initialization behavior (New):
//  1. For every supported language, if dir != "" and <dir>/<lang>.txt exists,
//     load it.
//  2. Otherwise use the embedded assets/words/<lang>.txt.
//
// Constraints:
//   - Words must be WordLength alphabetic letters.
//   - Lists are normalised to upper case.
package words

import (
	"bufio"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/robalobadob/maratona/assets"
	"github.com/robalobadob/maratona/internal/game"
)

// Language is a room language code as sent by the client ("it", "en").
type Language string

const (
	Italian Language = "it"
	English Language = "en"
)

// Supported lists the languages with an answer list.
var Supported = []Language{Italian, English}

// ParseLanguage maps a client code to a supported language, or def.
func ParseLanguage(s string, def Language) Language {
	l := Language(strings.ToLower(strings.TrimSpace(s)))
	for _, x := range Supported {
		if l == x {
			return l
		}
	}
	return def
}

// Oracle holds the answer lists and draws secrets for rooms.
type Oracle struct {
	lists map[Language][]string
	sets  map[Language]map[string]struct{}
	def   Language
	salt  string
}

// New loads the lists for every supported language.
// Returns an error if a language ends up with an empty list.
func New(dir, salt string, def Language) (*Oracle, error) {
	o := &Oracle{
		lists: make(map[Language][]string, len(Supported)),
		sets:  make(map[Language]map[string]struct{}, len(Supported)),
		def:   ParseLanguage(string(def), Italian),
		salt:  salt,
	}
	for _, lang := range Supported {
		list, err := load(dir, lang)
		if err != nil {
			return nil, fmt.Errorf("words: load %s: %w", lang, err)
		}
		if len(list) == 0 {
			return nil, fmt.Errorf("words: %s answers list is empty", lang)
		}
		o.lists[lang] = list
		o.sets[lang] = toSet(list)
	}
	return o, nil
}

func load(dir string, lang Language) ([]string, error) {
	if dir != "" {
		p := filepath.Join(dir, string(lang)+".txt")
		list, err := readWordFile(p)
		if err == nil {
			return list, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	raw, err := assets.WordList(string(lang))
	if err != nil {
		return nil, err
	}
	return normalizeLines(raw), nil
}

// readWordFile loads one word per line from a file and keeps only valid words.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return normalizeLines(lines), nil
}

// normalizeLines upper-cases, trims, dedupes and filters words.
func normalizeLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		w := game.Normalize(line)
		if !isWord(w) {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

func isWord(w string) bool {
	if utf8.RuneCountInString(w) != game.WordLength {
		return false
	}
	for _, r := range w {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func toSet(list []string) map[string]struct{} {
	m := make(map[string]struct{}, len(list))
	for _, w := range list {
		m[w] = struct{}{}
	}
	return m
}

func (o *Oracle) resolve(lang Language) Language {
	if _, ok := o.lists[lang]; ok {
		return lang
	}
	return o.def
}

// Default is the fallback language.
func (o *Oracle) Default() Language { return o.def }

// Pick draws the secret for a room round. With a salt the draw is
// deterministic for key (see WordIndex); otherwise it is crypto-random.
func (o *Oracle) Pick(lang Language, key string) string {
	list := o.lists[o.resolve(lang)]
	if o.salt != "" {
		return list[WordIndex(key, o.salt, len(list))]
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(list))))
	if err != nil {
		return list[WordIndex(key, "fallback", len(list))]
	}
	return list[n.Int64()]
}

// IsAllowed reports whether w is in the list of lang.
func (o *Oracle) IsAllowed(lang Language, w string) bool {
	_, ok := o.sets[o.resolve(lang)][game.Normalize(w)]
	return ok
}

// Stats returns the loaded list size per language.
func (o *Oracle) Stats() map[Language]int {
	out := make(map[Language]int, len(o.lists))
	for l, list := range o.lists {
		out[l] = len(list)
	}
	return out
}
