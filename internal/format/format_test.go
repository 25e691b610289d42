package format

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varoOP/animebot/internal/domain"
)

func TestStripHTML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "plain text", want: "plain text"},
		{in: "<b>Bold</b> and <i>italic</i>", want: "Bold and italic"},
		{in: "line one<br>line two<br><br><br>line three", want: "line one\nline two\n\nline three"},
		{in: "Tom &amp; Jerry", want: "Tom & Jerry"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripHTML(tt.in), tt.in)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abc...", Truncate("abcdef", 3))
	assert.Equal(t, "日本...", Truncate("日本語です", 2), "counts runes, not bytes")
}

func TestDescription(t *testing.T) {
	assert.Equal(t, noDescription, Description("", 200))
	assert.Equal(t, noDescription, Description("<br>", 200))

	long := strings.Repeat("a", 300)
	got := Description(long, 200)
	assert.Len(t, got, 203)
}

func TestMediaEmbed(t *testing.T) {
	m := domain.Media{
		Kind:          domain.MediaManga,
		TitleEnglish:  "Berserk",
		Status:        "RELEASING",
		StartDate:     domain.FuzzyDate{Year: domain.IntPtr(1989), Month: domain.IntPtr(8)},
		Chapters:      nil,
		CoverImageURL: "cover",
		SiteURL:       "site",
		Source:        domain.SourceAniList,
	}

	e := MediaEmbed(m)
	assert.Equal(t, "Berserk", e.Title)
	assert.Equal(t, ColorManga, e.Color)
	assert.Equal(t, "cover", e.ImageURL)
	assert.Equal(t, "Source: AniList", e.Footer)
	require.Len(t, e.Fields, 5)
	assert.Equal(t, domain.EmbedField{Name: "Rating", Value: "N/A", Inline: true}, e.Fields[0])
	assert.Equal(t, "1989-8-?", e.Fields[2].Value)
	assert.Equal(t, "N/A", e.Fields[3].Value)
	assert.Equal(t, domain.EmbedField{Name: "Chapters", Value: "N/A", Inline: true}, e.Fields[4])
}

func TestRankingMessage(t *testing.T) {
	msg := RankingMessage("action", []domain.RankEntry{
		{Title: "A", Score: domain.IntPtr(90)},
		{Title: "B"},
	})

	assert.Equal(t, HeaderRanking, msg.Content)
	require.NotNil(t, msg.Embed)
	assert.Equal(t, "📊 New Anime Ranking (action)", msg.Embed.Title)
	assert.Equal(t, "1. A", msg.Embed.Fields[0].Name)
	assert.Equal(t, "⭐ 90/100", msg.Embed.Fields[0].Value)
	assert.Equal(t, "⭐ N/A/100", msg.Embed.Fields[1].Value)
}

func TestAiringMessage(t *testing.T) {
	at := time.Date(2024, time.October, 5, 21, 30, 0, 0, time.Local)
	msg := AiringMessage(domain.AiringSchedule{AiringAt: at.Unix(), Episode: 4, Media: domain.Media{TitleRomaji: "Show"}})

	assert.Equal(t, "📺 **AIRING TODAY - Episode 4 (21:30)** 📺", msg.Content)
	assert.Equal(t, "Show", msg.Embed.Title)
}

func TestTopEmbed(t *testing.T) {
	e := TopEmbed("Top", ColorRanking, []domain.Media{
		{TitleRomaji: "A", AverageScore: domain.IntPtr(88), StartDate: domain.FuzzyDate{Year: domain.IntPtr(2024)}},
		{TitleRomaji: "B"},
	}, true)

	require.Len(t, e.Fields, 2)
	assert.Equal(t, "⭐ 88/100 | 🗓️ 2024", e.Fields[0].Value)
	assert.Equal(t, "⭐ N/A/100 | 🗓️ N/A", e.Fields[1].Value)
}
