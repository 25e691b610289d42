// Package commands implements the chat commands. Handlers only build
// payloads, the messaging surface delivers them.
package commands

import (
	"context"
	"fmt"
	"math/rand/v2"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/varoOP/animebot/internal/domain"
	"github.com/varoOP/animebot/internal/metrics"
)

// reactionChance is the probability of a reaction line after a successful command
const reactionChance = 0.3

var reactions = []string{" 😍", " 💖", " 🔥"}

var channelMention = regexp.MustCompile(`^<#(\d+)>$`)

// Request is one parsed command invocation
type Request struct {
	Name      string
	Args      []string
	ChannelID string
	UserID    string
	// IsAdmin is set by the messaging surface from the caller's permissions
	IsAdmin bool
}

// Rest returns all arguments joined back together, for free-text queries
func (r Request) Rest() string {
	return strings.Join(r.Args, " ")
}

// Parse splits a chat message into a Request. It reports false when content
// does not start with prefix.
func Parse(prefix, content string) (Request, bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return Request{}, false
	}
	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return Request{}, false
	}
	return Request{Name: strings.ToLower(fields[0]), Args: fields[1:]}, true
}

// ParseChannelMention extracts the channel ID from a <#id> mention
func ParseChannelMention(arg string) (string, bool) {
	m := channelMention.FindStringSubmatch(arg)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Subscriptions is the write side of the subscription registry
type Subscriptions interface {
	Subscribe(kind domain.NotificationKind, channelID, genre string) error
	Unsubscribe(kind domain.NotificationKind, channelID string) (bool, error)
}

// Deps are the collaborators of the command handlers
type Deps struct {
	Media         domain.MediaCatalog
	Season        domain.SeasonCatalog
	Images        domain.ImageCatalog
	Votes         domain.VoteRepo
	Subscriptions Subscriptions
	Prefix        string
	NSFWToken     string
	// Now and Rand default to time.Now and math/rand
	Now  func() time.Time
	Rand func() float64
}

type command struct {
	name    string
	usage   string
	help    string
	admin   bool
	handler func(ctx context.Context, req Request) ([]domain.Message, error)
}

// Handler routes requests to commands
type Handler struct {
	log      zerolog.Logger
	deps     Deps
	commands map[string]command
	order    []string
}

func NewHandler(log zerolog.Logger, deps Deps) *Handler {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Rand == nil {
		deps.Rand = rand.Float64
	}

	h := &Handler{
		log:      log.With().Str("module", "commands").Logger(),
		deps:     deps,
		commands: make(map[string]command),
	}
	h.register()
	return h
}

func (h *Handler) add(c command) {
	h.commands[c.name] = c
	h.order = append(h.order, c.name)
}

// Names returns every command name in help order
func (h *Handler) Names() []string {
	return slices.Clone(h.order)
}

// Handle runs req and always returns at least one message for the caller
func (h *Handler) Handle(ctx context.Context, req Request) []domain.Message {
	cmd, ok := h.commands[req.Name]
	if !ok {
		metrics.CommandsHandled.WithLabelValues("unknown").Inc()
		return []domain.Message{domain.Text(fmt.Sprintf("Unknown command! Use `%shelp` to see the command list.", h.deps.Prefix))}
	}
	metrics.CommandsHandled.WithLabelValues(cmd.name).Inc()

	if cmd.admin && !req.IsAdmin {
		return []domain.Message{domain.Text("You do not have permission to use this command!")}
	}

	log := h.log.With().Str("command", cmd.name).Str("channel", req.ChannelID).Str("user", req.UserID).Logger()

	msgs, err := cmd.handler(ctx, req)
	if err != nil {
		return []domain.Message{h.errorMessage(log, cmd, err)}
	}
	if len(msgs) == 0 {
		log.Warn().Msg("command produced no reply")
		return []domain.Message{domain.Text("Done.")}
	}

	if h.deps.Rand() < reactionChance {
		msgs = append(msgs, domain.Text(reactions[int(h.deps.Rand()*float64(len(reactions)))%len(reactions)]))
	}
	return msgs
}

func (h *Handler) errorMessage(log zerolog.Logger, cmd command, err error) domain.Message {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return domain.Text(verr.Message)
	case errors.Is(err, domain.ErrNotFound):
		return domain.Text("Nothing found!")
	case errors.Is(err, domain.ErrUnavailable):
		log.Warn().Err(err).Msg("upstream unavailable")
		return domain.Text("The catalog is not reachable right now, please try again later.")
	default:
		log.Error().Err(err).Msg("command failed")
		return domain.Text(fmt.Sprintf("Something went wrong while running `%s%s`!", h.deps.Prefix, cmd.name))
	}
}

// notFound turns a missing record into a command specific reply. Lookups
// degrade the same way when the catalog could not be reached.
func (h *Handler) notFound(err error, text string) ([]domain.Message, error) {
	if errors.Is(err, domain.ErrUnavailable) {
		h.log.Warn().Err(err).Msg("lookup failed, upstream unavailable")
		return []domain.Message{domain.Text(text)}, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return []domain.Message{domain.Text(text)}, nil
	}
	return nil, err
}

func (h *Handler) usage(cmd string) error {
	c := h.commands[cmd]
	return domain.NewValidationError("Usage: `%s%s`", h.deps.Prefix, c.usage)
}
