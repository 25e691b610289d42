// Package waifuim is the client for the waifu.im image catalog.
package waifuim

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/varoOP/animebot/internal/cache"
	"github.com/varoOP/animebot/internal/domain"
	"github.com/varoOP/animebot/internal/fetch"
)

const (
	DefaultURL = "https://api.waifu.im"

	upstream = "waifuim"
)

type Client struct {
	log     zerolog.Logger
	baseURL string
	fetcher *fetch.Fetcher
	cache   *cache.Cache
}

var _ domain.ImageCatalog = (*Client)(nil)

func NewClient(log zerolog.Logger, baseURL string, fetcher *fetch.Fetcher, c *cache.Cache) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		log:     log.With().Str("module", "waifuim").Logger(),
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: fetcher,
		cache:   c,
	}
}

type searchResponse struct {
	Images []struct {
		ImageID int    `json:"image_id"`
		URL     string `json:"url"`
		Source  string `json:"source"`
		IsNSFW  bool   `json:"is_nsfw"`
	} `json:"images"`
}

func validateImages(body []byte) error {
	var v searchResponse
	if err := json.Unmarshal(body, &v); err != nil {
		return errors.Wrap(err, "malformed json")
	}
	if len(v.Images) == 0 {
		return errors.New("response has no images")
	}
	return nil
}

// RandomImage returns one random image. Results are never cached.
func (c *Client) RandomImage(ctx context.Context, nsfw bool) (*domain.Image, error) {
	query := url.Values{
		"is_nsfw": {strconv.FormatBool(nsfw)},
		"many":    {"false"},
	}
	images, err := c.search(ctx, nil, query)
	if err != nil {
		return nil, err
	}
	return &images[0], nil
}

// PopularImages returns up to limit images tagged waifu
func (c *Client) PopularImages(ctx context.Context, limit int) ([]domain.Image, error) {
	query := url.Values{
		"included_tags": {"waifu"},
		"many":          {"true"},
		"limit":         {strconv.Itoa(limit)},
	}
	images, err := c.search(ctx, c.cache, query)
	if err != nil {
		return nil, err
	}
	if len(images) > limit {
		images = images[:limit]
	}
	return images, nil
}

func (c *Client) search(ctx context.Context, cc *cache.Cache, query url.Values) ([]domain.Image, error) {
	req := fetch.Request{URL: c.baseURL + "/search", Query: query}

	body, err := c.fetcher.Cached(ctx, cc, fetch.Key(upstream, "search", query), req, validateImages)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, "could not decode search response")
	}

	images := make([]domain.Image, 0, len(resp.Images))
	for _, img := range resp.Images {
		images = append(images, domain.Image{URL: img.URL, Source: img.Source, IsNSFW: img.IsNSFW})
	}
	return images, nil
}
