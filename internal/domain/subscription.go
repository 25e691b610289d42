package domain

import (
	"fmt"
	"slices"
	"strings"
)

// NotificationKind is a recurring alert type a channel can subscribe to
type NotificationKind string

const (
	KindNewAnime      NotificationKind = "new_anime"
	KindNewWaifu      NotificationKind = "new_waifu"
	KindAiringToday   NotificationKind = "airing_today"
	KindWaifuPic      NotificationKind = "waifu_pic"
	KindRankingUpdate NotificationKind = "ranking_update"
)

// NotificationKinds lists every kind in a stable order
var NotificationKinds = []NotificationKind{
	KindNewAnime,
	KindNewWaifu,
	KindAiringToday,
	KindWaifuPic,
	KindRankingUpdate,
}

// Valid reports whether k is a known kind
func (k NotificationKind) Valid() bool {
	return slices.Contains(NotificationKinds, k)
}

// Subscription registers a channel for a notification kind. Genre is an
// optional filter, only meaningful for ranking updates.
type Subscription struct {
	Kind      NotificationKind `json:"kind"`
	ChannelID string           `json:"channel_id"`
	Genre     string           `json:"genre,omitempty"`
}

// Genres is the fixed list of genres accepted by filters
var Genres = []string{
	"action", "adventure", "comedy", "drama", "fantasy", "horror", "mystery", "romance",
	"sci-fi", "slice of life", "sports", "supernatural", "ecchi", "historical", "isekai",
	"mecha", "music", "psychological", "school", "shounen", "shoujo", "seinen", "josei",
}

// NormalizeGenre lower-cases genre and checks it against Genres.
// An empty genre is valid and means "no filter".
func NormalizeGenre(genre string) (string, error) {
	g := strings.ToLower(strings.TrimSpace(genre))
	if g == "" {
		return "", nil
	}
	if !slices.Contains(Genres, g) {
		return "", NewValidationError("Genre '%s' is not valid! Genres: %s", g, strings.Join(Genres, ", "))
	}
	return g, nil
}

// GenreLabel renders " (genre)" for titles, or nothing without a filter
func GenreLabel(genre string) string {
	if genre == "" {
		return ""
	}
	return fmt.Sprintf(" (%s)", genre)
}
