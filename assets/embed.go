// Package assets embeds the default per-language answer lists.
// Each file under words/ is named <lang>.txt, one word per line;
// blank lines and lines starting with '#' are ignored.
package assets

import (
	"bufio"
	"embed"
	"path"
	"strings"
)

//go:embed words/*.txt
var FS embed.FS

func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

// WordList returns the embedded list for a language code ("it", "en").
func WordList(lang string) ([]string, error) {
	return readLines(path.Join("words", lang+".txt"))
}
