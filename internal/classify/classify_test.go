package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varoOP/animebot/internal/domain"
)

func TestIsFemale(t *testing.T) {
	tests := []struct {
		name        string
		fullName    string
		description string
		want        bool
	}{
		{name: "name and keyword", fullName: "Sakura", description: "a girl", want: true},
		{name: "male keyword", fullName: "Naruto", description: "he is a ninja", want: false},
		{name: "name fragment alone", fullName: "Rem", description: "", want: true},
		{name: "male keyword overrides", fullName: "Yuki", description: "a girl who meets a boy", want: false},
		{name: "keyword alone", fullName: "Xyz", description: "A LADY of the court", want: true},
		{name: "no signal", fullName: "Goku", description: "", want: false},
		{name: "case insensitive name", fullName: "MIKASA Ackerman", description: "", want: true},
		// "she" contains "he", so any "she" description reads as male
		{name: "substring quirk", fullName: "Rem", description: "she is a maid", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsFemale(domain.Character{FullName: tt.fullName, Description: tt.description})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFemale_KeepsOrder(t *testing.T) {
	chars := []domain.Character{
		{FullName: "Rem"},
		{FullName: "Goku"},
		{FullName: "Emilia"},
	}
	got := Female(chars)
	require.Len(t, got, 2)
	assert.Equal(t, "Rem", got[0].FullName)
	assert.Equal(t, "Emilia", got[1].FullName)
}

func TestDefaultLexicon(t *testing.T) {
	l := DefaultLexicon()
	assert.Len(t, l.FemaleNameFragments, 41)
	assert.Len(t, l.FemaleKeywords, 17)
	assert.Len(t, l.MaleKeywords, 23)
}

func TestParseLexicon(t *testing.T) {
	l, err := ParseLexicon([]byte("female_name_fragments: [foo]\nmale_keywords: [bar]\n"))
	require.NoError(t, err)

	assert.True(t, l.IsFemale(domain.Character{FullName: "Foobar"}))
	assert.False(t, l.IsFemale(domain.Character{FullName: "Foo", Description: "bar"}))

	_, err = ParseLexicon([]byte("female_keywords: {"))
	assert.Error(t, err)
}
