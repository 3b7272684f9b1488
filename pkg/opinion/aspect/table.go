package aspect

import (
	_ "embed"
	"os"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/internalerr"
)

// Table maps a venue category to the aspect keywords reviews of that
// category are expected to talk about. It is read-only after construction.
type Table struct {
	categories map[string]*category
	order      []string
}

type category struct {
	keywords []string
	set      map[string]struct{}
}

//go:embed data/aspects.yaml
var defaultTable []byte

// DefaultTable returns the embedded twelve-category table.
func DefaultTable() (*Table, error) {
	t, err := ParseTable(defaultTable)
	if err != nil {
		return nil, eris.Wrap(err, "aspect: embedded table")
	}
	return t, nil
}

// LoadTable reads a table from a YAML file.
//
// Expected format:
//
//	categories:
//	  - name: restaurant
//	    keywords: [food, menu, happy hour]
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "aspect: read table %s", path)
	}
	return ParseTable(data)
}

// ParseTable builds a table from YAML bytes.
func ParseTable(data []byte) (*Table, error) {
	var doc struct {
		Categories []struct {
			Name     string   `yaml:"name"`
			Keywords []string `yaml:"keywords"`
		} `yaml:"categories"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "aspect: parse table")
	}

	t := NewTable()
	for _, c := range doc.Categories {
		if err := t.Add(c.Name, c.Keywords); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{categories: make(map[string]*category)}
}

// Add registers a category. Keywords are lowercased; repeated keywords are
// kept once. Each keyword is compiled into a word-boundary pattern.
func (t *Table) Add(name string, keywords []string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return eris.Wrap(internalerr.ErrInvalidInput, "aspect: category without name")
	}
	if _, exists := t.categories[name]; exists {
		return eris.Wrapf(internalerr.ErrDuplicate, "aspect: category %q", name)
	}

	c := &category{set: make(map[string]struct{}, len(keywords))}
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, dup := c.set[kw]; dup {
			continue
		}
		c.set[kw] = struct{}{}
		c.keywords = append(c.keywords, kw)
	}
	t.categories[name] = c
	t.order = append(t.order, name)
	return nil
}

// Has reports whether the category is known.
func (t *Table) Has(name string) bool {
	_, ok := t.categories[name]
	return ok
}

// Categories returns the category names in definition order.
func (t *Table) Categories() []string {
	return append([]string(nil), t.order...)
}

// Keywords returns the keywords of a category in definition order.
func (t *Table) Keywords(name string) []string {
	c, ok := t.categories[name]
	if !ok {
		return nil
	}
	return append([]string(nil), c.keywords...)
}

// match counts word-boundary occurrences of every keyword of the category
// in text, which must already be lowercase.
func (c *category) match(text string) map[string]int {
	hits := make(map[string]int)
	for _, kw := range c.keywords {
		if n := countWord(text, kw); n > 0 {
			hits[kw] = n
		}
	}
	return hits
}

// countWord counts non-overlapping occurrences of kw bounded by word
// boundaries on both sides. Letters and digits of any script count as word
// characters, so "éview" does not contain "view".
func countWord(text, kw string) int {
	n := 0
	for from := 0; from <= len(text)-len(kw); {
		i := strings.Index(text[from:], kw)
		if i < 0 {
			break
		}
		start := from + i
		end := start + len(kw)
		if wordBoundary(text, start) && wordBoundary(text, end) {
			n++
			from = end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		from = start + size
	}
	return n
}

// wordBoundary reports whether exactly one side of byte offset pos is a word
// character.
func wordBoundary(text string, pos int) bool {
	before, after := false, false
	if pos > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:pos])
		before = isWordRune(r)
	}
	if pos < len(text) {
		r, _ := utf8.DecodeRuneInString(text[pos:])
		after = isWordRune(r)
	}
	return before != after
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func (c *category) firstKeyword(names []string) (string, bool) {
	for _, n := range names {
		if _, ok := c.set[n]; ok {
			return n, true
		}
	}
	return "", false
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
