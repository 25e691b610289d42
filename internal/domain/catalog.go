package domain

import (
	"context"
	"time"
)

// MediaCatalog is the primary (GraphQL) media catalog.
// Lookups return ErrNotFound when nothing matches and ErrUnavailable when the
// upstream could not be reached.
type MediaCatalog interface {
	SearchMedia(ctx context.Context, kind MediaKind, query string) (*Media, error)
	SearchCharacter(ctx context.Context, query string) (*Character, error)
	Trending(ctx context.Context, kind MediaKind, limit int, genre string) ([]Media, error)
	PopularByYear(ctx context.Context, year, limit int) ([]Media, error)
	TopCharacters(ctx context.Context, limit int) ([]Character, error)
	ReleasesOn(ctx context.Context, day time.Time) ([]Media, error)
	MediaCharacters(ctx context.Context, mediaID int) ([]Character, error)
	AiringSchedules(ctx context.Context, start, end time.Time) ([]AiringSchedule, error)
}

// SeasonCatalog is the secondary (REST) media catalog used as a fallback
type SeasonCatalog interface {
	ReleasesOn(ctx context.Context, day time.Time) ([]Media, error)
}

// ImageCatalog serves waifu pictures
type ImageCatalog interface {
	RandomImage(ctx context.Context, nsfw bool) (*Image, error)
	PopularImages(ctx context.Context, limit int) ([]Image, error)
}
