package domain

import (
	"fmt"
	"time"
)

// MediaKind is the AniList media type
type MediaKind string

const (
	MediaAnime MediaKind = "ANIME"
	MediaManga MediaKind = "MANGA"
)

const (
	SourceAniList = "AniList"
	SourceJikan   = "Jikan (MyAnimeList)"
	SourceWaifuIm = "waifu.im"
)

// FuzzyDate is a calendar date where every part may be unknown
type FuzzyDate struct {
	Year  *int `json:"year"`
	Month *int `json:"month"`
	Day   *int `json:"day"`
}

// Complete reports whether year, month and day are all known
func (d FuzzyDate) Complete() bool {
	return d.Year != nil && d.Month != nil && d.Day != nil &&
		*d.Year != 0 && *d.Month != 0 && *d.Day != 0
}

// Matches reports whether the date is complete and falls on the calendar day of t
func (d FuzzyDate) Matches(t time.Time) bool {
	if !d.Complete() {
		return false
	}
	return *d.Year == t.Year() && *d.Month == int(t.Month()) && *d.Day == t.Day()
}

// String renders the date as Y-M-D, with "?" for unknown month or day and
// "N/A" when the year is unknown
func (d FuzzyDate) String() string {
	if d.Year == nil || *d.Year == 0 {
		return "N/A"
	}
	part := func(p *int) string {
		if p == nil || *p == 0 {
			return "?"
		}
		return fmt.Sprintf("%d", *p)
	}
	return fmt.Sprintf("%d-%s-%s", *d.Year, part(d.Month), part(d.Day))
}

// Media stores information about an anime or manga
type Media struct {
	ID            int
	Kind          MediaKind
	TitleRomaji   string
	TitleEnglish  string
	Description   string
	AverageScore  *int
	Status        string
	StartDate     FuzzyDate
	EndDate       FuzzyDate
	Episodes      *int
	Chapters      *int
	CoverImageURL string
	SiteURL       string
	Source        string
}

// Title returns the romaji title, falling back to the english one
func (m Media) Title() string {
	if m.TitleRomaji != "" {
		return m.TitleRomaji
	}
	return m.TitleEnglish
}

// Character stores information about a character
type Character struct {
	ID               int
	FullName         string
	Description      string
	ImageURL         string
	SiteURL          string
	OriginMediaTitle string
}

// AiringSchedule is one upcoming episode broadcast
type AiringSchedule struct {
	AiringAt int64
	Episode  int
	Media    Media
}

// Time returns the airing time
func (a AiringSchedule) Time() time.Time {
	return time.Unix(a.AiringAt, 0)
}

// Image is a picture returned by the image catalog
type Image struct {
	URL    string
	Source string
	IsNSFW bool
}

// IntPtr is a small helper for optional numeric fields
func IntPtr(v int) *int {
	return &v
}
