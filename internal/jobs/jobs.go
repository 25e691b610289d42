// Package jobs holds the scheduled checks that push notifications to
// subscribed channels.
package jobs

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/varoOP/animebot/internal/classify"
	"github.com/varoOP/animebot/internal/domain"
	"github.com/varoOP/animebot/internal/format"
	"github.com/varoOP/animebot/internal/scheduler"
)

const (
	// perSubscriberLimit caps how many items one check sends to a channel
	perSubscriberLimit = 3
	rankingSize        = 10
	airingWindow       = 24 * time.Hour
)

// Subscriptions is the read side of the subscription registry
type Subscriptions interface {
	Subscribers(kind domain.NotificationKind) []domain.Subscription
}

// Deps are the collaborators of the jobs
type Deps struct {
	Media         domain.MediaCatalog
	Season        domain.SeasonCatalog
	Images        domain.ImageCatalog
	Rankings      domain.RankingRepo
	Subscriptions Subscriptions
	Messenger     domain.Messenger
	// DailyHour is the local hour the airing check fires in
	DailyHour int
	// Now defaults to time.Now
	Now func() time.Time
}

type Jobs struct {
	log zerolog.Logger
	Deps
}

func New(log zerolog.Logger, deps Deps) *Jobs {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Jobs{
		log:  log.With().Str("module", "jobs").Logger(),
		Deps: deps,
	}
}

// Tasks returns the scheduled tasks with their intervals
func (j *Jobs) Tasks(cfg domain.ScheduleConfig) []scheduler.Task {
	return []scheduler.Task{
		{Name: string(domain.KindNewAnime), Interval: cfg.CheckInterval, Run: j.NewAnimeCheck},
		{Name: string(domain.KindNewWaifu), Interval: cfg.CheckInterval, Run: j.NewWaifuCheck},
		{
			Name:     string(domain.KindAiringToday),
			Interval: 24 * time.Hour,
			Next:     scheduler.AlignToHour(cfg.DailyCheckHour),
			Run:      j.AiringTodayCheck,
		},
		{Name: string(domain.KindRankingUpdate), Interval: cfg.CheckInterval, Run: j.RankingUpdateCheck},
		{Name: string(domain.KindWaifuPic), Interval: cfg.WaifuPicInterval, Run: j.WaifuPicPush},
	}
}

// Releases returns today's releases from the primary catalog, falling back to
// the secondary one when the primary has none or is unavailable
func Releases(ctx context.Context, log zerolog.Logger, primary domain.MediaCatalog, fallback domain.SeasonCatalog, day time.Time) ([]domain.Media, error) {
	media, err := primary.ReleasesOn(ctx, day)
	if err != nil && !errors.Is(err, domain.ErrUnavailable) {
		return nil, err
	}
	if len(media) > 0 {
		return media, nil
	}
	if err != nil {
		log.Warn().Err(err).Msg("primary catalog unavailable, using fallback")
	}
	if fallback == nil {
		return nil, nil
	}

	media, err = fallback.ReleasesOn(ctx, day)
	if err != nil {
		if errors.Is(err, domain.ErrUnavailable) {
			log.Warn().Err(err).Msg("fallback catalog unavailable")
			return nil, nil
		}
		return nil, err
	}
	return media, nil
}

// NewAnimeCheck announces up to 3 of today's releases to every subscriber
func (j *Jobs) NewAnimeCheck(ctx context.Context) error {
	subs := j.Subscriptions.Subscribers(domain.KindNewAnime)
	if len(subs) == 0 {
		return nil
	}

	today := j.Now()
	media, err := Releases(ctx, j.log, j.Media, j.Season, today)
	if err != nil {
		return errors.Wrap(err, "could not list releases")
	}
	if len(media) == 0 {
		j.log.Info().Str("day", today.Format(time.DateOnly)).Msg("no new anime today")
		return nil
	}

	msgs := make([]domain.Message, 0, perSubscriberLimit)
	for _, m := range head(media, perSubscriberLimit) {
		msgs = append(msgs, format.ReleaseMessage(m))
	}
	j.broadcast(ctx, subs, msgs)
	return nil
}

// NewWaifuCheck announces up to 3 female characters of today's releases
func (j *Jobs) NewWaifuCheck(ctx context.Context) error {
	subs := j.Subscriptions.Subscribers(domain.KindNewWaifu)
	if len(subs) == 0 {
		return nil
	}

	today := j.Now()
	media, err := j.Media.ReleasesOn(ctx, today)
	if err != nil {
		if errors.Is(err, domain.ErrUnavailable) {
			j.log.Warn().Err(err).Msg("could not list releases")
			return nil
		}
		return errors.Wrap(err, "could not list releases")
	}

	var waifus []domain.Character
	for _, m := range media {
		if len(waifus) >= perSubscriberLimit {
			break
		}
		chars, err := j.Media.MediaCharacters(ctx, m.ID)
		if err != nil {
			j.log.Warn().Err(err).Int("media_id", m.ID).Msg("could not fetch characters")
			continue
		}
		waifus = append(waifus, classify.Female(chars)...)
	}

	if len(waifus) == 0 {
		j.log.Info().Str("day", today.Format(time.DateOnly)).Msg("no new waifu today")
		return nil
	}

	msgs := make([]domain.Message, 0, perSubscriberLimit)
	for _, c := range head(waifus, perSubscriberLimit) {
		msgs = append(msgs, format.NewWaifuMessage(c))
	}
	j.broadcast(ctx, subs, msgs)
	return nil
}

// AiringTodayCheck announces up to 3 episodes airing in the next 24 hours.
// It only fires during the configured hour.
func (j *Jobs) AiringTodayCheck(ctx context.Context) error {
	subs := j.Subscriptions.Subscribers(domain.KindAiringToday)
	if len(subs) == 0 {
		return nil
	}

	now := j.Now()
	if now.Hour() != j.DailyHour {
		j.log.Debug().Int("hour", now.Hour()).Int("daily_hour", j.DailyHour).Msg("outside the daily hour, skipping")
		return nil
	}

	schedules, err := j.Media.AiringSchedules(ctx, now, now.Add(airingWindow))
	if err != nil {
		if errors.Is(err, domain.ErrUnavailable) {
			j.log.Warn().Err(err).Msg("could not list airing schedules")
			return nil
		}
		return errors.Wrap(err, "could not list airing schedules")
	}
	if len(schedules) == 0 {
		return nil
	}

	msgs := make([]domain.Message, 0, perSubscriberLimit)
	for _, s := range head(schedules, perSubscriberLimit) {
		msgs = append(msgs, format.AiringMessage(s))
	}
	j.broadcast(ctx, subs, msgs)
	return nil
}

// RankingUpdateCheck compares the trending top 10 of every subscribed genre
// with the stored snapshot. Only a changed ranking is stored and announced.
func (j *Jobs) RankingUpdateCheck(ctx context.Context) error {
	subs := j.Subscriptions.Subscribers(domain.KindRankingUpdate)
	if len(subs) == 0 {
		return nil
	}

	var (
		byGenre = make(map[string][]domain.Subscription)
		genres  []string
	)
	for _, s := range subs {
		if _, ok := byGenre[s.Genre]; !ok {
			genres = append(genres, s.Genre)
		}
		byGenre[s.Genre] = append(byGenre[s.Genre], s)
	}

	var firstErr error
	for _, genre := range genres {
		if err := j.checkRanking(ctx, genre, byGenre[genre]); err != nil {
			j.log.Error().Err(err).Str("genre", domain.GenreKey(genre)).Msg("ranking check failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (j *Jobs) checkRanking(ctx context.Context, genre string, subs []domain.Subscription) error {
	media, err := j.Media.Trending(ctx, domain.MediaAnime, rankingSize, genre)
	if err != nil {
		if errors.Is(err, domain.ErrUnavailable) {
			j.log.Warn().Err(err).Str("genre", domain.GenreKey(genre)).Msg("could not fetch ranking")
			return nil
		}
		return errors.Wrap(err, "could not fetch ranking")
	}
	if len(media) == 0 {
		return nil
	}

	current := domain.RankingFromMedia(media)

	stored, err := j.Rankings.GetSnapshot(ctx, genre)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		stored = &domain.RankingSnapshot{Genre: domain.GenreKey(genre)}
	case err != nil:
		return errors.Wrap(err, "could not read stored ranking")
	}

	if domain.SameEntries(stored.Entries, current) {
		j.log.Debug().Str("genre", domain.GenreKey(genre)).Msg("ranking unchanged")
		return nil
	}

	snapshot := domain.RankingSnapshot{Genre: domain.GenreKey(genre), Entries: current, UpdatedAt: j.Now()}
	if err := j.Rankings.PutSnapshot(ctx, snapshot); err != nil {
		return errors.Wrap(err, "could not store ranking")
	}

	j.log.Info().Str("genre", snapshot.Genre).Msg("ranking changed")
	j.broadcast(ctx, subs, []domain.Message{format.RankingMessage(genre, current)})
	return nil
}

// WaifuPicPush sends one random picture to every subscriber
func (j *Jobs) WaifuPicPush(ctx context.Context) error {
	subs := j.Subscriptions.Subscribers(domain.KindWaifuPic)
	if len(subs) == 0 {
		return nil
	}

	img, err := j.Images.RandomImage(ctx, false)
	if err != nil {
		if errors.Is(err, domain.ErrUnavailable) {
			j.log.Warn().Err(err).Msg("could not fetch waifu picture")
			return nil
		}
		return errors.Wrap(err, "could not fetch waifu picture")
	}

	j.broadcast(ctx, subs, []domain.Message{format.ImageMessage(format.HeaderWaifuPic, *img)})
	return nil
}

// broadcast sends msgs to every subscriber in order. A channel that fails
// is logged and skipped so the others still get the messages.
func (j *Jobs) broadcast(ctx context.Context, subs []domain.Subscription, msgs []domain.Message) int {
	sent := 0
	for _, s := range subs {
		for _, msg := range msgs {
			if ctx.Err() != nil {
				return sent
			}
			if err := j.Messenger.Send(ctx, s.ChannelID, msg); err != nil {
				j.log.Warn().Err(err).Str("channel", s.ChannelID).Str("kind", string(s.Kind)).Msg("could not deliver notification")
				break
			}
			sent++
		}
	}
	return sent
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
