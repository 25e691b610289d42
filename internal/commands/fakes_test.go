package commands

import (
	"context"
	"sync"
	"time"

	"github.com/varoOP/animebot/internal/domain"
)

type fakeMedia struct {
	media     map[domain.MediaKind]*domain.Media
	character *domain.Character
	trending  []domain.Media
	popular   []domain.Media
	top       []domain.Character
	releases  []domain.Media
	err       error
	lastGenre string
	lastYear  int
	lastQuery string
}

func (f *fakeMedia) SearchMedia(_ context.Context, kind domain.MediaKind, query string) (*domain.Media, error) {
	f.lastQuery = query
	if f.err != nil {
		return nil, f.err
	}
	m, ok := f.media[kind]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

func (f *fakeMedia) SearchCharacter(_ context.Context, query string) (*domain.Character, error) {
	f.lastQuery = query
	if f.err != nil {
		return nil, f.err
	}
	if f.character == nil {
		return nil, domain.ErrNotFound
	}
	return f.character, nil
}

func (f *fakeMedia) Trending(_ context.Context, _ domain.MediaKind, _ int, genre string) ([]domain.Media, error) {
	f.lastGenre = genre
	return f.trending, f.err
}

func (f *fakeMedia) PopularByYear(_ context.Context, year, _ int) ([]domain.Media, error) {
	f.lastYear = year
	return f.popular, f.err
}

func (f *fakeMedia) TopCharacters(context.Context, int) ([]domain.Character, error) {
	return f.top, f.err
}

func (f *fakeMedia) ReleasesOn(context.Context, time.Time) ([]domain.Media, error) {
	return f.releases, f.err
}

func (f *fakeMedia) MediaCharacters(context.Context, int) ([]domain.Character, error) {
	return nil, nil
}

func (f *fakeMedia) AiringSchedules(context.Context, time.Time, time.Time) ([]domain.AiringSchedule, error) {
	return nil, nil
}

type fakeSeason struct {
	releases []domain.Media
}

func (f *fakeSeason) ReleasesOn(context.Context, time.Time) ([]domain.Media, error) {
	return f.releases, nil
}

type fakeImages struct {
	img      *domain.Image
	popular  []domain.Image
	err      error
	lastNSFW bool
	calls    int
}

func (f *fakeImages) RandomImage(_ context.Context, nsfw bool) (*domain.Image, error) {
	f.calls++
	f.lastNSFW = nsfw
	if f.err != nil {
		return nil, f.err
	}
	return f.img, nil
}

func (f *fakeImages) PopularImages(_ context.Context, limit int) ([]domain.Image, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.popular) > limit {
		return f.popular[:limit], nil
	}
	return f.popular, nil
}

// fakeVotes keeps votes in memory with the same daily limit semantics as the
// database repo
type fakeVotes struct {
	mu        sync.Mutex
	maxPerDay int
	votes     []domain.Vote
}

func (f *fakeVotes) AddVote(_ context.Context, v domain.Vote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, existing := range f.votes {
		if existing.UserID == v.UserID {
			n++
		}
	}
	if f.maxPerDay > 0 && n >= f.maxPerDay {
		return domain.ErrVoteLimit
	}
	f.votes = append(f.votes, v)
	return nil
}

func (f *fakeVotes) CountVotesSince(_ context.Context, userID string, _ time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, v := range f.votes {
		if v.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeVotes) TopVotes(_ context.Context, limit int) ([]domain.VoteCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[string]int{}
	var order []string
	for _, v := range f.votes {
		if counts[v.Waifu] == 0 {
			order = append(order, v.Waifu)
		}
		counts[v.Waifu]++
	}
	out := make([]domain.VoteCount, 0, len(order))
	for _, w := range order {
		out = append(out, domain.VoteCount{Waifu: w, Count: counts[w]})
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
