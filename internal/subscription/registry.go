// Package subscription keeps track of which channels receive which
// notification kinds.
package subscription

import (
	"slices"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/varoOP/animebot/internal/domain"
)

// Persister stores subscriptions durably. The registry writes through to it
// on every mutation.
type Persister interface {
	Load() ([]domain.Subscription, error)
	Save(sub domain.Subscription) error
	Delete(kind domain.NotificationKind, channelID string) error
}

// Registry is the process-wide subscription state. It is safe for concurrent use.
type Registry struct {
	log       zerolog.Logger
	mu        sync.RWMutex
	subs      map[domain.NotificationKind]map[string]domain.Subscription
	persister Persister
}

// NewRegistry creates an empty registry. persister may be nil to keep
// subscriptions in memory only.
func NewRegistry(log zerolog.Logger, persister Persister) *Registry {
	subs := make(map[domain.NotificationKind]map[string]domain.Subscription, len(domain.NotificationKinds))
	for _, k := range domain.NotificationKinds {
		subs[k] = make(map[string]domain.Subscription)
	}
	return &Registry{
		log:       log.With().Str("module", "subscription").Logger(),
		subs:      subs,
		persister: persister,
	}
}

// Load replaces the in-memory state with the persisted subscriptions
func (r *Registry) Load() error {
	if r.persister == nil {
		return nil
	}

	stored, err := r.persister.Load()
	if err != nil {
		return errors.Wrap(err, "could not load subscriptions")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range stored {
		if !s.Kind.Valid() {
			r.log.Warn().Str("kind", string(s.Kind)).Str("channel", s.ChannelID).Msg("ignoring stored subscription of unknown kind")
			continue
		}
		r.subs[s.Kind][s.ChannelID] = s
	}

	r.log.Debug().Int("subscriptions", len(stored)).Msg("loaded subscriptions")
	return nil
}

// Subscribe registers channelID for kind. Subscribing again replaces the
// genre filter, so a channel never holds two subscriptions of one kind.
func (r *Registry) Subscribe(kind domain.NotificationKind, channelID, genre string) error {
	if !kind.Valid() {
		return errors.Errorf("unknown notification kind %q", kind)
	}
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return errors.New("channel id is required")
	}
	genre, err := domain.NormalizeGenre(genre)
	if err != nil {
		return err
	}

	sub := domain.Subscription{Kind: kind, ChannelID: channelID, Genre: genre}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.persister != nil {
		if err := r.persister.Save(sub); err != nil {
			return errors.Wrap(err, "could not persist subscription")
		}
	}
	r.subs[kind][channelID] = sub

	r.log.Info().Str("kind", string(kind)).Str("channel", channelID).Str("genre", genre).Msg("subscribed")
	return nil
}

// Unsubscribe removes channelID from kind and reports whether it was present.
// Removing an absent subscription is not an error.
func (r *Registry) Unsubscribe(kind domain.NotificationKind, channelID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	channels, ok := r.subs[kind]
	if !ok {
		return false, nil
	}
	if _, ok := channels[channelID]; !ok {
		return false, nil
	}

	if r.persister != nil {
		if err := r.persister.Delete(kind, channelID); err != nil {
			return false, errors.Wrap(err, "could not delete persisted subscription")
		}
	}
	delete(channels, channelID)

	r.log.Info().Str("kind", string(kind)).Str("channel", channelID).Msg("unsubscribed")
	return true, nil
}

// IsSubscribed reports whether channelID receives kind
func (r *Registry) IsSubscribed(kind domain.NotificationKind, channelID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.subs[kind][channelID]
	return ok
}

// Subscribers returns a snapshot of the subscriptions of kind, sorted by channel
func (r *Registry) Subscribers(kind domain.NotificationKind) []domain.Subscription {
	r.mu.RLock()
	out := make([]domain.Subscription, 0, len(r.subs[kind]))
	for _, s := range r.subs[kind] {
		out = append(out, s)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.Subscription) int {
		return strings.Compare(a.ChannelID, b.ChannelID)
	})
	return out
}

// ChannelIDs returns the channels subscribed to kind, sorted
func (r *Registry) ChannelIDs(kind domain.NotificationKind) []string {
	subs := r.Subscribers(kind)
	ids := make([]string, 0, len(subs))
	for _, s := range subs {
		ids = append(ids, s.ChannelID)
	}
	return ids
}
