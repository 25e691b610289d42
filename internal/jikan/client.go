// Package jikan is the client for the Jikan (MyAnimeList) REST catalog,
// used as the fallback source for today's releases.
package jikan

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/varoOP/animebot/internal/cache"
	"github.com/varoOP/animebot/internal/domain"
	"github.com/varoOP/animebot/internal/fetch"
)

const (
	DefaultURL = "https://api.jikan.moe/v4"

	upstream    = "jikan"
	seasonLimit = 25
)

type Client struct {
	log     zerolog.Logger
	baseURL string
	fetcher *fetch.Fetcher
	cache   *cache.Cache
}

var _ domain.SeasonCatalog = (*Client)(nil)

func NewClient(log zerolog.Logger, baseURL string, fetcher *fetch.Fetcher, c *cache.Cache) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		log:     log.With().Str("module", "jikan").Logger(),
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: fetcher,
		cache:   c,
	}
}

type seasonResponse struct {
	Data []animeEntry `json:"data"`
}

type animeEntry struct {
	MalID        int      `json:"mal_id"`
	URL          string   `json:"url"`
	Title        string   `json:"title"`
	TitleEnglish string   `json:"title_english"`
	Synopsis     string   `json:"synopsis"`
	Status       string   `json:"status"`
	Episodes     *int     `json:"episodes"`
	Score        *float64 `json:"score"`
	Images       struct {
		JPG struct {
			ImageURL      string `json:"image_url"`
			LargeImageURL string `json:"large_image_url"`
		} `json:"jpg"`
	} `json:"images"`
	Aired struct {
		From string `json:"from"`
		To   string `json:"to"`
	} `json:"aired"`
}

func validateData(body []byte) error {
	var v struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return errors.Wrap(err, "malformed json")
	}
	if len(v.Data) == 0 || string(v.Data) == "null" {
		return errors.New("response has no data")
	}
	return nil
}

// CurrentSeason returns the first page of the current season listing
func (c *Client) CurrentSeason(ctx context.Context) ([]domain.Media, error) {
	entries, err := c.currentSeason(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Media, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.toDomain())
	}
	return out, nil
}

// ReleasesOn returns current season entries whose airing start date is day.
// Entries with a missing or unparseable start timestamp are skipped.
func (c *Client) ReleasesOn(ctx context.Context, day time.Time) ([]domain.Media, error) {
	entries, err := c.currentSeason(ctx)
	if err != nil {
		return nil, err
	}

	var out []domain.Media
	for _, e := range entries {
		if e.Aired.From == "" {
			continue
		}
		aired, err := time.Parse(time.RFC3339, e.Aired.From)
		if err != nil {
			c.log.Trace().Err(err).Int("mal_id", e.MalID).Msg("skipping entry with bad airing date")
			continue
		}
		if sameDay(aired, day) {
			out = append(out, e.toDomain())
		}
	}
	return out, nil
}

func (c *Client) currentSeason(ctx context.Context) ([]animeEntry, error) {
	query := url.Values{"limit": {strconv.Itoa(seasonLimit)}}
	req := fetch.Request{URL: c.baseURL + "/seasons/now", Query: query}

	body, err := c.fetcher.Cached(ctx, c.cache, fetch.Key(upstream, "seasons_now", query), req, validateData)
	if err != nil {
		return nil, err
	}

	var resp seasonResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, "could not decode season response")
	}
	return resp.Data, nil
}

// sameDay compares the calendar date of the upstream timestamp, in its own
// offset, with the local calendar date of day
func sameDay(aired, day time.Time) bool {
	y1, m1, d1 := aired.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func (e animeEntry) toDomain() domain.Media {
	m := domain.Media{
		ID:            e.MalID,
		Kind:          domain.MediaAnime,
		TitleRomaji:   e.Title,
		TitleEnglish:  e.TitleEnglish,
		Description:   e.Synopsis,
		Status:        e.Status,
		Episodes:      e.Episodes,
		CoverImageURL: e.Images.JPG.LargeImageURL,
		SiteURL:       e.URL,
		Source:        domain.SourceJikan,
	}
	if m.CoverImageURL == "" {
		m.CoverImageURL = e.Images.JPG.ImageURL
	}
	// MyAnimeList scores are 0-10
	if e.Score != nil {
		m.AverageScore = domain.IntPtr(int(*e.Score*10 + 0.5))
	}
	if aired, err := time.Parse(time.RFC3339, e.Aired.From); err == nil {
		y, mo, d := aired.Date()
		m.StartDate = domain.FuzzyDate{Year: domain.IntPtr(y), Month: domain.IntPtr(int(mo)), Day: domain.IntPtr(d)}
	}
	return m
}
