// Package lexnet provides the lexical network used to generalize concrete
// nouns ("ribeye", "lasagna") to the broader concepts a review taxonomy
// lists ("food", "dish").
//
// The network is a WordNet-style noun hierarchy: synsets grouping synonymous
// lemmas, linked upward through hypernym edges. A synset's concept name is
// the part of its id before the first dot, so "rib_eye.n.01" names
// "rib eye".
package lexnet

import (
	_ "embed"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/internalerr"
)

// Generalizer maps a noun to the concept names reachable by walking its
// hypernym hierarchy, including the noun's own senses. A nil result means
// the noun is unknown or the resource is unavailable; callers fall back to
// literal keyword matching in that case.
type Generalizer interface {
	Ancestors(noun string) []string
}

// Synset is one node of the hierarchy.
type Synset struct {
	ID        string   `yaml:"id"`
	Lemmas    []string `yaml:"lemmas"`
	Hypernyms []string `yaml:"hypernyms,omitempty"`
}

// Name returns the concept name of the synset.
func (s Synset) Name() string {
	return ConceptName(s.ID)
}

// ConceptName strips the ".pos.nn" suffix from a synset id and restores
// spaces in multi-word names.
func ConceptName(id string) string {
	head := id
	if i := strings.IndexByte(id, '.'); i >= 0 {
		head = id[:i]
	}
	return strings.ReplaceAll(head, "_", " ")
}

// Graph is an in-memory hypernym hierarchy. It is safe for concurrent reads
// once loading is done.
type Graph struct {
	synsets map[string]*Synset
	// lemma -> synset ids, in insertion order (first sense first)
	senses map[string][]string
}

// Stats summarizes a graph.
type Stats struct {
	Synsets int `json:"synsets"`
	Lemmas  int `json:"lemmas"`
	Edges   int `json:"edges"`
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		synsets: make(map[string]*Synset),
		senses:  make(map[string][]string),
	}
}

//go:embed data/hypernyms.yaml
var defaultData []byte

// Default returns the embedded review-domain hierarchy.
func Default() (*Graph, error) {
	g, err := Parse(defaultData)
	if err != nil {
		return nil, eris.Wrap(err, "lexnet: embedded hierarchy")
	}
	return g, nil
}

// LoadFromYAML loads a hierarchy from a YAML file.
//
// Expected format:
//
//	synsets:
//	  - id: lasagna.n.01
//	    lemmas: [lasagna, lasagne]
//	    hypernyms: [pasta.n.02]
func LoadFromYAML(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "lexnet: read %s", path)
	}
	return Parse(data)
}

// Parse builds a graph from YAML bytes. Every hypernym must name a synset
// defined in the same document.
func Parse(data []byte) (*Graph, error) {
	var doc struct {
		Synsets []Synset `yaml:"synsets"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "lexnet: parse yaml")
	}

	g := New()
	for _, s := range doc.Synsets {
		if err := g.Add(s); err != nil {
			return nil, err
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Add inserts a synset. Lemmas are lowercased and multi-word lemmas are
// joined with underscores.
func (g *Graph) Add(s Synset) error {
	id := strings.TrimSpace(s.ID)
	if id == "" {
		return eris.Wrap(internalerr.ErrInvalidInput, "lexnet: synset without id")
	}
	if _, exists := g.synsets[id]; exists {
		return eris.Wrapf(internalerr.ErrDuplicate, "lexnet: synset %q", id)
	}

	node := &Synset{ID: id}
	for _, lemma := range s.Lemmas {
		key := normalize(lemma)
		if key == "" {
			continue
		}
		node.Lemmas = append(node.Lemmas, key)
		g.senses[key] = append(g.senses[key], id)
	}
	for _, h := range s.Hypernyms {
		if h = strings.TrimSpace(h); h != "" {
			node.Hypernyms = append(node.Hypernyms, h)
		}
	}
	g.synsets[id] = node
	return nil
}

// Validate checks that every hypernym edge points at a known synset.
func (g *Graph) Validate() error {
	for id, s := range g.synsets {
		for _, h := range s.Hypernyms {
			if _, ok := g.synsets[h]; !ok {
				return eris.Wrapf(internalerr.ErrNotFound, "lexnet: %s has unknown hypernym %s", id, h)
			}
		}
	}
	return nil
}

// Synset returns the synset with the given id.
func (g *Graph) Synset(id string) (Synset, bool) {
	s, ok := g.synsets[id]
	if !ok {
		return Synset{}, false
	}
	return *s, true
}

// Synsets returns all synsets ordered by id.
func (g *Graph) Synsets() []Synset {
	out := make([]Synset, 0, len(g.synsets))
	for _, s := range g.synsets {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Stats counts synsets, distinct lemmas and hypernym edges.
func (g *Graph) Stats() Stats {
	st := Stats{Synsets: len(g.synsets), Lemmas: len(g.senses)}
	for _, s := range g.synsets {
		st.Edges += len(s.Hypernyms)
	}
	return st
}

// Senses returns the synset ids of every noun sense of word, trying the
// word as given and then its base forms.
func (g *Graph) Senses(word string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, form := range baseForms(normalize(word)) {
		for _, id := range g.senses[form] {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// Ancestors implements Generalizer. It walks every hypernym path of every
// sense of noun and returns the distinct concept names met along the way,
// the senses themselves included. Unknown nouns yield nil.
func (g *Graph) Ancestors(noun string) []string {
	senses := g.Senses(noun)
	if len(senses) == 0 {
		return nil
	}

	var names []string
	seenName := make(map[string]bool)
	visited := make(map[string]bool)
	var walk func(id string)
	walk = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		s := g.synsets[id]
		if name := s.Name(); !seenName[name] {
			seenName[name] = true
			names = append(names, name)
		}
		for _, h := range s.Hypernyms {
			walk(h)
		}
	}
	for _, id := range senses {
		walk(id)
	}
	return names
}

// HypernymPaths returns every path from the synset up to a root, each path
// starting at id. Cycles are cut at the first repeated node.
func (g *Graph) HypernymPaths(id string) [][]string {
	if _, ok := g.synsets[id]; !ok {
		return nil
	}
	var paths [][]string
	onPath := make(map[string]bool)
	var walk func(id string, path []string)
	walk = func(id string, path []string) {
		path = append(path, id)
		onPath[id] = true
		defer delete(onPath, id)

		var next []string
		for _, h := range g.synsets[id].Hypernyms {
			if !onPath[h] {
				next = append(next, h)
			}
		}
		if len(next) == 0 {
			paths = append(paths, append([]string(nil), path...))
			return
		}
		for _, h := range next {
			walk(h, path)
		}
	}
	walk(id, nil)
	return paths
}

func normalize(word string) string {
	w := strings.ToLower(strings.TrimSpace(word))
	return strings.Join(strings.Fields(w), "_")
}
