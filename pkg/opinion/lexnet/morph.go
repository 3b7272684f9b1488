package lexnet

import "strings"

// nounSuffixes are the WordNet detachment rules for nouns.
var nounSuffixes = []struct{ from, to string }{
	{"s", ""},
	{"ses", "s"},
	{"xes", "x"},
	{"zes", "z"},
	{"ches", "ch"},
	{"shes", "sh"},
	{"men", "man"},
	{"ies", "y"},
}

// baseForms returns word followed by every candidate lemma the suffix rules
// produce for it. Candidates are not checked against the graph here.
func baseForms(word string) []string {
	if word == "" {
		return nil
	}
	forms := []string{word}
	for _, r := range nounSuffixes {
		if !strings.HasSuffix(word, r.from) {
			continue
		}
		base := strings.TrimSuffix(word, r.from) + r.to
		if base != "" && base != word {
			forms = append(forms, base)
		}
	}
	return forms
}
