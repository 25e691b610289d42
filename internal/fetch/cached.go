package fetch

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/varoOP/animebot/internal/cache"
)

// Cached serves key from c when present. Otherwise it executes req and stores
// the body only after it passed validation. Cache hits skip the cool-down.
func (f *Fetcher) Cached(ctx context.Context, c *cache.Cache, key string, req Request, validate Validator) ([]byte, error) {
	if c != nil {
		if body, ok := c.Get(key); ok {
			f.log.Trace().Str("key", key).Msg("cache hit")
			return body, nil
		}
	}

	body, err := f.Execute(ctx, req, validate)
	if err != nil {
		return nil, err
	}

	if c != nil {
		c.Set(key, body)
	}
	return body, nil
}

// Key builds a stable cache key from an upstream, an operation and its
// parameters. Map parameters are encoded with sorted keys.
func Key(upstream, operation string, params any) string {
	b, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%s:%s:%v", upstream, operation, params)
	}
	return upstream + ":" + operation + ":" + string(b)
}
