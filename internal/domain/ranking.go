package domain

import (
	"slices"
	"time"
)

// DefaultGenreKey is the snapshot key used when no genre filter is set
const DefaultGenreKey = "default"

// GenreKey normalizes an optional genre to a snapshot key
func GenreKey(genre string) string {
	if genre == "" {
		return DefaultGenreKey
	}
	return genre
}

// RankEntry is one row of a ranking
type RankEntry struct {
	Title string `json:"title"`
	Score *int   `json:"score"`
}

func (e RankEntry) equal(o RankEntry) bool {
	if e.Title != o.Title {
		return false
	}
	if e.Score == nil || o.Score == nil {
		return e.Score == nil && o.Score == nil
	}
	return *e.Score == *o.Score
}

// RankingSnapshot is the last observed ordered ranking for a genre
type RankingSnapshot struct {
	Genre     string
	Entries   []RankEntry
	UpdatedAt time.Time
}

// SameEntries reports element-wise, order-sensitive equality of two rankings
func SameEntries(a, b []RankEntry) bool {
	return slices.EqualFunc(a, b, RankEntry.equal)
}

// RankingFromMedia builds ranking entries from trending media
func RankingFromMedia(media []Media) []RankEntry {
	entries := make([]RankEntry, 0, len(media))
	for _, m := range media {
		entries = append(entries, RankEntry{Title: m.Title(), Score: m.AverageScore})
	}
	return entries
}

// Vote is one append-only vote of a user for a waifu
type Vote struct {
	UserID    string
	Waifu     string
	CreatedAt time.Time
}

// VoteCount is an aggregated leaderboard row
type VoteCount struct {
	Waifu string
	Count int
}
