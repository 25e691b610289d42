// Package notification delivers bot output: rate-limited channel messages and
// operational alerts about failing jobs.
package notification

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/varoOP/animebot/internal/domain"
)

// Service fans operational alerts out to every configured sink. Alerts are
// always written to the log, and to the webhook when one is set.
type Service struct {
	log     zerolog.Logger
	discord *DiscordService
}

func NewService(log zerolog.Logger, webhookURL string) domain.NotificationService {
	var discord *DiscordService
	if webhookURL != "" {
		discord = NewDiscordService(log, webhookURL)
	}

	return &Service{
		log:     log.With().Str("module", "notification").Logger(),
		discord: discord,
	}
}

func (s *Service) SendError(ctx context.Context, job string, err error) error {
	s.log.Error().Err(err).Str("job", job).Msg("job failed")

	if s.discord != nil {
		if err := s.discord.SendError(ctx, job, err); err != nil {
			return err
		}
	}
	return nil
}
