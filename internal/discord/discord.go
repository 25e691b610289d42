// Package discord is the messaging surface: it delivers messages to channels
// and feeds chat messages to the command handler.
package discord

import (
	"context"
	"sync"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/varoOP/animebot/internal/commands"
	"github.com/varoOP/animebot/internal/domain"
	"github.com/varoOP/animebot/internal/format"
)

// Discord limits on embeds
const (
	maxTitle       = 256
	maxDescription = 4096
	maxFields      = 25
	maxFieldName   = 256
	maxFieldValue  = 1024
	maxFooter      = 2048
	maxContent     = 2000
)

// Session is the part of *discordgo.Session the bot uses
type Session interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelTyping(channelID string, options ...discordgo.RequestOption) error
	UserChannelPermissions(userID, channelID string, fetchOptions ...discordgo.RequestOption) (int64, error)
}

// Commander answers parsed chat commands
type Commander interface {
	Handle(ctx context.Context, req commands.Request) []domain.Message
}

// NewSession creates a bot session with the intents needed to read commands
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, errors.Wrap(err, "could not create discord session")
	}
	s.Identify.Intents = discordgo.IntentGuildMessages | discordgo.IntentMessageContent
	return s, nil
}

// Messenger sends domain messages through a session
type Messenger struct {
	session Session
}

func NewMessenger(session Session) *Messenger {
	return &Messenger{session: session}
}

func (m *Messenger) Send(ctx context.Context, channelID string, msg domain.Message) error {
	if _, err := m.session.ChannelMessageSendComplex(channelID, toMessageSend(msg), discordgo.WithContext(ctx)); err != nil {
		return errors.Wrapf(err, "could not send message to channel %s", channelID)
	}
	return nil
}

func toMessageSend(msg domain.Message) *discordgo.MessageSend {
	out := &discordgo.MessageSend{Content: clip(msg.Content, maxContent)}
	if msg.Embed != nil {
		out.Embeds = []*discordgo.MessageEmbed{toEmbed(msg.Embed)}
	}
	return out
}

// clip keeps s within n runes including the ellipsis
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return format.Truncate(s, n-3)
}

func toEmbed(e *domain.Embed) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title:       clip(e.Title, maxTitle),
		Description: clip(e.Description, maxDescription),
		URL:         e.URL,
		Color:       e.Color,
	}
	if e.ImageURL != "" {
		out.Image = &discordgo.MessageEmbedImage{URL: e.ImageURL}
	}
	if e.ThumbnailURL != "" {
		out.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: e.ThumbnailURL}
	}
	if e.Footer != "" {
		out.Footer = &discordgo.MessageEmbedFooter{Text: clip(e.Footer, maxFooter)}
	}

	fields := e.Fields
	if len(fields) > maxFields {
		fields = fields[:maxFields]
	}
	for _, f := range fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{
			Name:   clip(f.Name, maxFieldName),
			Value:  clip(f.Value, maxFieldValue),
			Inline: f.Inline,
		})
	}
	return out
}

// Bot routes chat messages to the command handler and replies in the same channel
type Bot struct {
	log       zerolog.Logger
	session   Session
	messenger domain.Messenger
	commands  Commander
	prefix    string

	mu  sync.RWMutex
	ctx context.Context
}

// NewBot creates a Bot. Replies go through messenger so they share the send
// rate limit with scheduled notifications.
func NewBot(log zerolog.Logger, session Session, messenger domain.Messenger, cmds Commander, prefix string) *Bot {
	return &Bot{
		log:       log.With().Str("module", "discord").Logger(),
		session:   session,
		messenger: messenger,
		commands:  cmds,
		prefix:    prefix,
		ctx:       context.Background(),
	}
}

func (b *Bot) baseContext() context.Context {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ctx
}

// Serve connects the gateway and handles messages until ctx is done
func (b *Bot) Serve(ctx context.Context) error {
	s, ok := b.session.(*discordgo.Session)
	if !ok {
		return errors.New("bot session does not support a gateway connection")
	}

	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()

	remove := s.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		b.HandleMessage(b.baseContext(), m)
	})
	defer remove()

	if err := s.Open(); err != nil {
		return errors.Wrap(err, "could not open discord gateway")
	}
	b.log.Info().Msg("connected to discord")

	<-ctx.Done()

	if err := s.Close(); err != nil {
		b.log.Error().Err(err).Msg("could not close discord session")
	}
	b.log.Info().Msg("disconnected from discord")
	return ctx.Err()
}

func (b *Bot) String() string {
	return "discord"
}

// HandleMessage answers one chat message. Messages from bots and messages
// without the command prefix are ignored.
func (b *Bot) HandleMessage(ctx context.Context, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil || m.Author == nil || m.Author.Bot {
		return
	}

	req, ok := commands.Parse(b.prefix, m.Content)
	if !ok {
		return
	}
	req.ChannelID = m.ChannelID
	req.UserID = m.Author.ID
	req.IsAdmin = b.isAdmin(ctx, m)

	log := b.log.With().Str("command", req.Name).Str("channel", req.ChannelID).Logger()
	log.Debug().Str("user", req.UserID).Msg("command received")

	if err := b.session.ChannelTyping(m.ChannelID, discordgo.WithContext(ctx)); err != nil {
		log.Debug().Err(err).Msg("could not send typing indicator")
	}

	for _, msg := range b.commands.Handle(ctx, req) {
		if err := b.messenger.Send(ctx, m.ChannelID, msg); err != nil {
			log.Error().Err(err).Msg("could not send reply")
			return
		}
	}
}

func (b *Bot) isAdmin(ctx context.Context, m *discordgo.MessageCreate) bool {
	if m.Member != nil && m.Member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	perms, err := b.session.UserChannelPermissions(m.Author.ID, m.ChannelID, discordgo.WithContext(ctx))
	if err != nil {
		b.log.Debug().Err(err).Str("user", m.Author.ID).Msg("could not resolve permissions")
		return false
	}
	return perms&discordgo.PermissionAdministrator != 0
}
