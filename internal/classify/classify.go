// Package classify guesses whether a character is female from its name and
// description.
package classify

import (
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/varoOP/animebot/internal/domain"
)

//go:embed lexicon.yaml
var lexiconYAML []byte

// Lexicon holds the substrings used by the classifier
type Lexicon struct {
	FemaleNameFragments []string `yaml:"female_name_fragments"`
	FemaleKeywords      []string `yaml:"female_keywords"`
	MaleKeywords        []string `yaml:"male_keywords"`
}

var defaultLexicon = mustLoad(lexiconYAML)

func mustLoad(b []byte) Lexicon {
	l, err := ParseLexicon(b)
	if err != nil {
		panic(err)
	}
	return l
}

// ParseLexicon decodes a YAML lexicon
func ParseLexicon(b []byte) (Lexicon, error) {
	var l Lexicon
	if err := yaml.Unmarshal(b, &l); err != nil {
		return Lexicon{}, err
	}
	return l, nil
}

// DefaultLexicon returns the embedded lexicon
func DefaultLexicon() Lexicon {
	return defaultLexicon
}

// IsFemale classifies c with the embedded lexicon
func IsFemale(c domain.Character) bool {
	return defaultLexicon.IsFemale(c)
}

// IsFemale reports whether the name contains a female fragment or the
// description a female keyword, and the description has no male keyword.
// Matching is plain substring search, so "he" also matches "she".
func (l Lexicon) IsFemale(c domain.Character) bool {
	name := strings.ToLower(c.FullName)
	desc := strings.ToLower(c.Description)

	female := containsAny(name, l.FemaleNameFragments) || containsAny(desc, l.FemaleKeywords)
	return female && !containsAny(desc, l.MaleKeywords)
}

// Female filters characters down to the ones classified female, keeping order
func Female(chars []domain.Character) []domain.Character {
	var out []domain.Character
	for _, c := range chars {
		if IsFemale(c) {
			out = append(out, c)
		}
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
