package aspect

import (
	"github.com/jdkato/prose/v2"
	"github.com/rotisserie/eris"
)

// Token is one tagged word. Tag uses the Penn Treebank tag set.
type Token struct {
	Text string
	Tag  string
}

// Tagger assigns part-of-speech tags to the words of a text.
type Tagger interface {
	Tag(text string) ([]Token, error)
}

// FuncTagger adapts a function to the Tagger interface.
type FuncTagger func(text string) ([]Token, error)

// Tag implements Tagger.
func (f FuncTagger) Tag(text string) ([]Token, error) { return f(text) }

// ProseTagger tags with the averaged perceptron model bundled in prose.
type ProseTagger struct{}

// NewProseTagger returns a tagger backed by prose.
func NewProseTagger() *ProseTagger {
	return &ProseTagger{}
}

// Tag implements Tagger.
func (p *ProseTagger) Tag(text string) ([]Token, error) {
	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.WithExtraction(false))
	if err != nil {
		return nil, eris.Wrap(err, "aspect: prose tagging")
	}

	toks := doc.Tokens()
	out := make([]Token, len(toks))
	for i, tok := range toks {
		out[i] = Token{Text: tok.Text, Tag: tok.Tag}
	}
	return out, nil
}

func isNoun(tag string) bool {
	return tag == "NN" || tag == "NNS"
}
