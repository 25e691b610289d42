// Package format builds the chat payloads sent by commands and jobs.
package format

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/varoOP/animebot/internal/domain"
)

const (
	ColorAnime     = 0x00ff00
	ColorManga     = 0x0000ff
	ColorCharacter = 0xe91e63
	ColorRanking   = 0xff69b4
	ColorTopYear   = 0x1e90ff
	ColorWaifuPic  = 0xff9ff3
	ColorTopWaifus = 0xfeca57
)

const (
	descriptionLimit = 200
	noDescription    = "No description available."
	na               = "N/A"
)

const (
	HeaderNewAnime    = "🎉 **NEW ANIME RELEASED TODAY** 🎉"
	HeaderNewWaifu    = "💖 **NEW WAIFU TODAY** 💖"
	HeaderWaifuPic    = "💖 **WAIFU OF THE MOMENT** 💖"
	HeaderRanking     = "📈 **ANIME RANKING UPDATED** 📈"
	headerAiringToday = "📺 **AIRING TODAY - Episode %d (%s)** 📺"
)

// Truncate shortens s to limit runes, appending "..." when it was cut
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit])) + "..."
}

// Description cleans an upstream description for display
func Description(s string, limit int) string {
	s = StripHTML(s)
	if s == "" {
		return noDescription
	}
	return Truncate(s, limit)
}

// Score renders an optional 0-100 score
func Score(score *int) string {
	if score == nil {
		return na
	}
	return fmt.Sprintf("%d", *score)
}

func count(n *int) string {
	if n == nil {
		return na
	}
	return fmt.Sprintf("%d", *n)
}

func orNA(s string) string {
	if s == "" {
		return na
	}
	return s
}

func footer(source string) string {
	return "Source: " + source
}

// MediaEmbed renders an anime or manga
func MediaEmbed(m domain.Media) *domain.Embed {
	color := ColorAnime
	if m.Kind == domain.MediaManga {
		color = ColorManga
	}

	e := &domain.Embed{
		Title:       m.Title(),
		Description: Description(m.Description, descriptionLimit),
		URL:         m.SiteURL,
		Color:       color,
		ImageURL:    m.CoverImageURL,
		Footer:      footer(orNA(m.Source)),
	}

	e.AddField("Rating", Score(m.AverageScore), true).
		AddField("Status", orNA(m.Status), true).
		AddField("Start Date", m.StartDate.String(), true).
		AddField("End Date", m.EndDate.String(), true)
	if m.Kind == domain.MediaManga {
		e.AddField("Chapters", count(m.Chapters), true)
	} else {
		e.AddField("Episodes", count(m.Episodes), true)
	}

	return e
}

// CharacterEmbed renders a character
func CharacterEmbed(c domain.Character) *domain.Embed {
	e := &domain.Embed{
		Title:       c.FullName,
		Description: Description(c.Description, descriptionLimit),
		URL:         c.SiteURL,
		Color:       ColorCharacter,
		ImageURL:    c.ImageURL,
		Footer:      footer(domain.SourceAniList),
	}
	if c.OriginMediaTitle != "" {
		e.AddField("Anime", c.OriginMediaTitle, true)
	}
	return e
}

// ReleaseMessage announces a media that started today
func ReleaseMessage(m domain.Media) domain.Message {
	e := &domain.Embed{
		Title:       m.Title(),
		Description: Description(m.Description, descriptionLimit),
		URL:         m.SiteURL,
		Color:       ColorAnime,
		ImageURL:    m.CoverImageURL,
		Footer:      footer(orNA(m.Source)),
	}
	return domain.Message{Content: HeaderNewAnime, Embed: e}
}

// NewWaifuMessage announces a character from a media that started today
func NewWaifuMessage(c domain.Character) domain.Message {
	return domain.Message{Content: HeaderNewWaifu, Embed: CharacterEmbed(c)}
}

// AiringMessage announces an episode airing today, with the airing time in
// local time
func AiringMessage(s domain.AiringSchedule) domain.Message {
	return domain.Message{
		Content: fmt.Sprintf(headerAiringToday, s.Episode, s.Time().Format("15:04")),
		Embed:   MediaEmbed(s.Media),
	}
}

// RankingMessage renders a changed ranking
func RankingMessage(genre string, entries []domain.RankEntry) domain.Message {
	e := &domain.Embed{
		Title:  "📊 New Anime Ranking" + domain.GenreLabel(genre),
		Color:  ColorRanking,
		Footer: footer(domain.SourceAniList),
	}
	for i, entry := range entries {
		e.AddField(fmt.Sprintf("%d. %s", i+1, entry.Title), fmt.Sprintf("⭐ %s/100", Score(entry.Score)), false)
	}
	return domain.Message{Content: HeaderRanking, Embed: e}
}

// ImageMessage renders a waifu picture with an optional header line
func ImageMessage(header string, img domain.Image) domain.Message {
	return domain.Message{
		Content: header,
		Embed: &domain.Embed{
			Color:    ColorWaifuPic,
			ImageURL: img.URL,
			Footer:   footer(domain.SourceWaifuIm),
		},
	}
}

// TopEmbed renders a numbered media list. With years set each row also shows
// the start year.
func TopEmbed(title string, color int, media []domain.Media, years bool) *domain.Embed {
	e := &domain.Embed{Title: title, Color: color, Footer: footer(domain.SourceAniList)}
	for i, m := range media {
		value := fmt.Sprintf("⭐ %s/100", Score(m.AverageScore))
		if years {
			year := na
			if m.StartDate.Year != nil && *m.StartDate.Year != 0 {
				year = fmt.Sprintf("%d", *m.StartDate.Year)
			}
			value += " | 🗓️ " + year
		}
		e.AddField(fmt.Sprintf("%d. %s", i+1, m.Title()), value, false)
	}
	return e
}
