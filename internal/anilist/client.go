// Package anilist is the client for the AniList GraphQL media catalog.
package anilist

import (
	"context"
	"net/http"
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
	DefaultURL = "https://graphql.anilist.co"

	upstream          = "anilist"
	recentReleaseSize = 50
	mediaCharacterMax = 10
	airingScheduleMax = 5
)

// Client implements domain.MediaCatalog against AniList
type Client struct {
	log     zerolog.Logger
	url     string
	fetcher *fetch.Fetcher
	cache   *cache.Cache
}

var _ domain.MediaCatalog = (*Client)(nil)

// NewClient creates an AniList client. c may be nil to disable caching.
func NewClient(log zerolog.Logger, url string, fetcher *fetch.Fetcher, c *cache.Cache) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		log:     log.With().Str("module", "anilist").Logger(),
		url:     url,
		fetcher: fetcher,
		cache:   c,
	}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlResponse[T any] struct {
	Data T `json:"data"`
}

type fuzzyDate struct {
	Year  *int `json:"year"`
	Month *int `json:"month"`
	Day   *int `json:"day"`
}

type title struct {
	Romaji  string `json:"romaji"`
	English string `json:"english"`
}

type mediaNode struct {
	ID           int       `json:"id"`
	Type         string    `json:"type"`
	Title        title     `json:"title"`
	Description  string    `json:"description"`
	AverageScore *int      `json:"averageScore"`
	Status       string    `json:"status"`
	StartDate    fuzzyDate `json:"startDate"`
	EndDate      fuzzyDate `json:"endDate"`
	Episodes     *int      `json:"episodes"`
	Chapters     *int      `json:"chapters"`
	CoverImage   struct {
		Large string `json:"large"`
	} `json:"coverImage"`
	SiteURL string `json:"siteUrl"`
}

type characterNode struct {
	ID   int `json:"id"`
	Name struct {
		Full string `json:"full"`
	} `json:"name"`
	Description string `json:"description"`
	Image       struct {
		Large string `json:"large"`
	} `json:"image"`
	SiteURL string `json:"siteUrl"`
	Media   struct {
		Nodes []struct {
			Title title `json:"title"`
		} `json:"nodes"`
	} `json:"media"`
}

type airingNode struct {
	AiringAt int64     `json:"airingAt"`
	Episode  int       `json:"episode"`
	Media    mediaNode `json:"media"`
}

// validateData accepts a response only when it carries a non-null top-level data object
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

func (c *Client) query(ctx context.Context, operation, query string, vars map[string]any, out any) error {
	return c.queryKeyed(ctx, fetch.Key(upstream, operation, vars), operation, query, vars, out)
}

func (c *Client) queryKeyed(ctx context.Context, key, operation, query string, vars map[string]any, out any) error {
	payload, err := json.Marshal(graphqlRequest{Query: query, Variables: vars})
	if err != nil {
		return errors.Wrap(err, "could not encode graphql request")
	}

	// a search without a match answers 404 with a data object holding null
	req := fetch.Request{Method: http.MethodPost, URL: c.url, Body: payload, AcceptStatus: []int{http.StatusNotFound}}
	body, err := c.fetcher.Cached(ctx, c.cache, key, req, validateData)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "could not decode %s response", operation)
	}
	return nil
}

// SearchMedia returns the best match for query, or ErrNotFound
func (c *Client) SearchMedia(ctx context.Context, kind domain.MediaKind, query string) (*domain.Media, error) {
	var resp graphqlResponse[struct {
		Media *mediaNode `json:"Media"`
	}]
	if err := c.query(ctx, "search_media", searchMediaQuery, map[string]any{"search": query, "type": string(kind)}, &resp); err != nil {
		return nil, err
	}
	if resp.Data.Media == nil {
		return nil, errors.Wrapf(domain.ErrNotFound, "%s %q", strings.ToLower(string(kind)), query)
	}

	m := resp.Data.Media.toDomain()
	return &m, nil
}

// SearchCharacter returns the best matching character, or ErrNotFound
func (c *Client) SearchCharacter(ctx context.Context, query string) (*domain.Character, error) {
	var resp graphqlResponse[struct {
		Character *characterNode `json:"Character"`
	}]
	if err := c.query(ctx, "search_character", searchCharacterQuery, map[string]any{"search": query}, &resp); err != nil {
		return nil, err
	}
	if resp.Data.Character == nil {
		return nil, errors.Wrapf(domain.ErrNotFound, "character %q", query)
	}

	ch := resp.Data.Character.toDomain()
	return &ch, nil
}

// Trending returns the top trending media of kind, optionally filtered by genre
func (c *Client) Trending(ctx context.Context, kind domain.MediaKind, limit int, genre string) ([]domain.Media, error) {
	vars := map[string]any{"type": string(kind), "perPage": limit, "genre": nil}
	if genre != "" {
		vars["genre"] = genreParam(genre)
	}

	var resp graphqlResponse[struct {
		Page struct {
			Media []mediaNode `json:"media"`
		} `json:"Page"`
	}]
	if err := c.query(ctx, "trending", trendingQuery, vars, &resp); err != nil {
		return nil, err
	}
	return mediaList(resp.Data.Page.Media), nil
}

// PopularByYear returns the most popular anime of a season year
func (c *Client) PopularByYear(ctx context.Context, year, limit int) ([]domain.Media, error) {
	var resp graphqlResponse[struct {
		Page struct {
			Media []mediaNode `json:"media"`
		} `json:"Page"`
	}]
	if err := c.query(ctx, "popular_by_year", popularByYearQuery, map[string]any{"year": year, "perPage": limit}, &resp); err != nil {
		return nil, err
	}
	return mediaList(resp.Data.Page.Media), nil
}

// TopCharacters returns characters ordered by favourites
func (c *Client) TopCharacters(ctx context.Context, limit int) ([]domain.Character, error) {
	var resp graphqlResponse[struct {
		Page struct {
			Characters []characterNode `json:"characters"`
		} `json:"Page"`
	}]
	if err := c.query(ctx, "top_characters", topCharactersQuery, map[string]any{"perPage": limit}, &resp); err != nil {
		return nil, err
	}

	out := make([]domain.Character, 0, len(resp.Data.Page.Characters))
	for _, n := range resp.Data.Page.Characters {
		out = append(out, n.toDomain())
	}
	return out, nil
}

// ReleasesOn returns the recently started anime whose complete start date is day.
// Only the 50 most recent entries are considered.
func (c *Client) ReleasesOn(ctx context.Context, day time.Time) ([]domain.Media, error) {
	var resp graphqlResponse[struct {
		Page struct {
			Media []mediaNode `json:"media"`
		} `json:"Page"`
	}]
	// the day only filters client-side; keying on it gives every day a fresh listing
	vars := map[string]any{"perPage": recentReleaseSize}
	key := fetch.Key(upstream, "releases_on", map[string]any{"perPage": recentReleaseSize, "day": day.Format(time.DateOnly)})
	if err := c.queryKeyed(ctx, key, "releases_on", recentReleasesQuery, vars, &resp); err != nil {
		return nil, err
	}

	var out []domain.Media
	for _, n := range resp.Data.Page.Media {
		m := n.toDomain()
		if m.StartDate.Matches(day) {
			out = append(out, m)
		}
	}

	c.log.Debug().Str("day", day.Format(time.DateOnly)).Int("releases", len(out)).Msg("filtered recent releases")
	return out, nil
}

// MediaCharacters returns up to 10 characters of a media, by relevance
func (c *Client) MediaCharacters(ctx context.Context, mediaID int) ([]domain.Character, error) {
	var resp graphqlResponse[struct {
		Media *struct {
			Title      title `json:"title"`
			Characters struct {
				Nodes []characterNode `json:"nodes"`
			} `json:"characters"`
		} `json:"Media"`
	}]
	if err := c.query(ctx, "media_characters", mediaCharactersQuery, map[string]any{"id": mediaID, "perPage": mediaCharacterMax}, &resp); err != nil {
		return nil, err
	}
	if resp.Data.Media == nil {
		return nil, errors.Wrapf(domain.ErrNotFound, "media %d", mediaID)
	}

	origin := resp.Data.Media.Title.preferred()
	out := make([]domain.Character, 0, len(resp.Data.Media.Characters.Nodes))
	for _, n := range resp.Data.Media.Characters.Nodes {
		ch := n.toDomain()
		if ch.OriginMediaTitle == "" {
			ch.OriginMediaTitle = origin
		}
		out = append(out, ch)
	}
	return out, nil
}

// AiringSchedules returns up to 5 episodes airing strictly inside (start, end)
func (c *Client) AiringSchedules(ctx context.Context, start, end time.Time) ([]domain.AiringSchedule, error) {
	var resp graphqlResponse[struct {
		Page struct {
			AiringSchedules []airingNode `json:"airingSchedules"`
		} `json:"Page"`
	}]
	vars := map[string]any{"start": start.Unix(), "end": end.Unix(), "perPage": airingScheduleMax}
	if err := c.query(ctx, "airing_schedules", airingSchedulesQuery, vars, &resp); err != nil {
		return nil, err
	}

	out := make([]domain.AiringSchedule, 0, len(resp.Data.Page.AiringSchedules))
	for _, n := range resp.Data.Page.AiringSchedules {
		out = append(out, domain.AiringSchedule{
			AiringAt: n.AiringAt,
			Episode:  n.Episode,
			Media:    n.Media.toDomain(),
		})
	}
	return out, nil
}

func mediaList(nodes []mediaNode) []domain.Media {
	out := make([]domain.Media, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.toDomain())
	}
	return out
}

func (t title) preferred() string {
	if t.Romaji != "" {
		return t.Romaji
	}
	return t.English
}

func (d fuzzyDate) toDomain() domain.FuzzyDate {
	return domain.FuzzyDate{Year: d.Year, Month: d.Month, Day: d.Day}
}

func (n mediaNode) toDomain() domain.Media {
	kind := domain.MediaKind(n.Type)
	if kind == "" {
		kind = domain.MediaAnime
	}
	return domain.Media{
		ID:            n.ID,
		Kind:          kind,
		TitleRomaji:   n.Title.Romaji,
		TitleEnglish:  n.Title.English,
		Description:   n.Description,
		AverageScore:  n.AverageScore,
		Status:        n.Status,
		StartDate:     n.StartDate.toDomain(),
		EndDate:       n.EndDate.toDomain(),
		Episodes:      n.Episodes,
		Chapters:      n.Chapters,
		CoverImageURL: n.CoverImage.Large,
		SiteURL:       n.SiteURL,
		Source:        domain.SourceAniList,
	}
}

func (n characterNode) toDomain() domain.Character {
	ch := domain.Character{
		ID:          n.ID,
		FullName:    n.Name.Full,
		Description: n.Description,
		ImageURL:    n.Image.Large,
		SiteURL:     n.SiteURL,
	}
	if len(n.Media.Nodes) > 0 {
		ch.OriginMediaTitle = n.Media.Nodes[0].Title.preferred()
	}
	return ch
}

// genreParam converts a normalized genre to AniList's capitalization,
// e.g. "slice of life" to "Slice of Life" and "sci-fi" to "Sci-Fi".
func genreParam(genre string) string {
	words := strings.Fields(genre)
	for i, w := range words {
		if w == "of" && i > 0 {
			continue
		}
		parts := strings.Split(w, "-")
		for j, p := range parts {
			if p != "" {
				parts[j] = strings.ToUpper(p[:1]) + p[1:]
			}
		}
		words[i] = strings.Join(parts, "-")
	}
	return strings.Join(words, " ")
}
