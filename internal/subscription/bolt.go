package subscription

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/varoOP/animebot/internal/domain"
)

var subscriptionsBucket = []byte("subscriptions")

// BoltPersister stores subscriptions in a bbolt file, one key per
// kind and channel
type BoltPersister struct {
	db *bolt.DB
}

var _ Persister = (*BoltPersister)(nil)

func NewBoltPersister(path string) (*BoltPersister, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "could not open subscriptions file %s", path)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(subscriptionsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "could not create subscriptions bucket")
	}

	return &BoltPersister{db: db}, nil
}

func (p *BoltPersister) Close() error {
	return p.db.Close()
}

func key(kind domain.NotificationKind, channelID string) []byte {
	return []byte(string(kind) + "/" + channelID)
}

func (p *BoltPersister) Load() ([]domain.Subscription, error) {
	var subs []domain.Subscription
	err := p.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(subscriptionsBucket).ForEach(func(_ []byte, v []byte) error {
			var s domain.Subscription
			if err := json.Unmarshal(v, &s); err != nil {
				return err
			}
			subs = append(subs, s)
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not read subscriptions")
	}
	return subs, nil
}

func (p *BoltPersister) Save(sub domain.Subscription) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	return p.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(subscriptionsBucket).Put(key(sub.Kind, sub.ChannelID), data)
	})
}

func (p *BoltPersister) Delete(kind domain.NotificationKind, channelID string) error {
	return p.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(subscriptionsBucket).Delete(key(kind, channelID))
	})
}
