package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/varoOP/animebot/internal/domain"
)

type fakeMedia struct {
	releases    []domain.Media
	releasesErr error
	characters  map[int][]domain.Character
	trending    map[string][]domain.Media
	trendingErr error
	schedules   []domain.AiringSchedule

	mu           sync.Mutex
	trendingCall []string
	airingStart  time.Time
	airingEnd    time.Time
}

func (f *fakeMedia) SearchMedia(context.Context, domain.MediaKind, string) (*domain.Media, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeMedia) SearchCharacter(context.Context, string) (*domain.Character, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeMedia) Trending(_ context.Context, _ domain.MediaKind, _ int, genre string) ([]domain.Media, error) {
	f.mu.Lock()
	f.trendingCall = append(f.trendingCall, genre)
	f.mu.Unlock()
	if f.trendingErr != nil {
		return nil, f.trendingErr
	}
	return f.trending[genre], nil
}

func (f *fakeMedia) PopularByYear(context.Context, int, int) ([]domain.Media, error) {
	return nil, nil
}

func (f *fakeMedia) TopCharacters(context.Context, int) ([]domain.Character, error) {
	return nil, nil
}

func (f *fakeMedia) ReleasesOn(context.Context, time.Time) ([]domain.Media, error) {
	return f.releases, f.releasesErr
}

func (f *fakeMedia) MediaCharacters(_ context.Context, id int) ([]domain.Character, error) {
	return f.characters[id], nil
}

func (f *fakeMedia) AiringSchedules(_ context.Context, start, end time.Time) ([]domain.AiringSchedule, error) {
	f.airingStart, f.airingEnd = start, end
	return f.schedules, nil
}

type fakeSeason struct {
	releases []domain.Media
	err      error
	calls    int
}

func (f *fakeSeason) ReleasesOn(context.Context, time.Time) ([]domain.Media, error) {
	f.calls++
	return f.releases, f.err
}

type fakeImages struct {
	img     *domain.Image
	err     error
	calls   int
	sawNSFW bool
}

func (f *fakeImages) RandomImage(_ context.Context, nsfw bool) (*domain.Image, error) {
	f.calls++
	f.sawNSFW = f.sawNSFW || nsfw
	return f.img, f.err
}

func (f *fakeImages) PopularImages(context.Context, int) ([]domain.Image, error) {
	return nil, nil
}

type fakeRankings struct {
	snapshots map[string]domain.RankingSnapshot
	getErr    error
	puts      int
}

func newFakeRankings() *fakeRankings {
	return &fakeRankings{snapshots: make(map[string]domain.RankingSnapshot)}
}

func (f *fakeRankings) GetSnapshot(_ context.Context, genre string) (*domain.RankingSnapshot, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.snapshots[domain.GenreKey(genre)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (f *fakeRankings) PutSnapshot(_ context.Context, s domain.RankingSnapshot) error {
	f.puts++
	f.snapshots[domain.GenreKey(s.Genre)] = s
	return nil
}

type sentMessage struct {
	channel string
	msg     domain.Message
}

type recordingMessenger struct {
	mu   sync.Mutex
	sent []sentMessage
	fail map[string]bool
}

func (r *recordingMessenger) Send(_ context.Context, channelID string, msg domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[channelID] {
		return context.DeadlineExceeded
	}
	r.sent = append(r.sent, sentMessage{channel: channelID, msg: msg})
	return nil
}

func (r *recordingMessenger) to(channelID string) []domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for _, s := range r.sent {
		if s.channel == channelID {
			out = append(out, s.msg)
		}
	}
	return out
}
