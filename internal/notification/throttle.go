package notification

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/varoOP/animebot/internal/domain"
	"github.com/varoOP/animebot/internal/metrics"
)

// Throttled spaces out sends to the wrapped messenger. One limiter is shared
// by every caller, so jobs and commands firing together still respect it.
type Throttled struct {
	log     zerolog.Logger
	next    domain.Messenger
	limiter *rate.Limiter
}

var _ domain.Messenger = (*Throttled)(nil)

// NewThrottled allows one send per delay. A delay <= 0 disables throttling.
func NewThrottled(log zerolog.Logger, next domain.Messenger, delay time.Duration) *Throttled {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Throttled{
		log:     log.With().Str("module", "notification").Str("type", "throttle").Logger(),
		next:    next,
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (t *Throttled) Send(ctx context.Context, channelID string, msg domain.Message) error {
	if err := t.limiter.Wait(ctx); err != nil {
		metrics.MessagesSent.WithLabelValues("cancelled").Inc()
		return errors.Wrap(err, "send throttle")
	}

	if err := t.next.Send(ctx, channelID, msg); err != nil {
		metrics.MessagesSent.WithLabelValues("error").Inc()
		t.log.Warn().Err(err).Str("channel", channelID).Msg("could not send message")
		return err
	}

	metrics.MessagesSent.WithLabelValues("ok").Inc()
	return nil
}

// LogMessenger writes messages to the log instead of a chat channel
type LogMessenger struct {
	log zerolog.Logger
}

var _ domain.Messenger = (*LogMessenger)(nil)

func NewLogMessenger(log zerolog.Logger) *LogMessenger {
	return &LogMessenger{log: log.With().Str("module", "notification").Str("type", "log").Logger()}
}

func (l *LogMessenger) Send(_ context.Context, channelID string, msg domain.Message) error {
	ev := l.log.Info().Str("channel", channelID).Str("content", msg.Content)
	if msg.Embed != nil {
		ev = ev.Str("title", msg.Embed.Title).Int("fields", len(msg.Embed.Fields))
		if msg.Embed.ImageURL != "" {
			ev = ev.Str("image", msg.Embed.ImageURL)
		}
	}
	ev.Msg("message")
	return nil
}
