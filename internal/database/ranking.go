package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/varoOP/animebot/internal/domain"
)

// RankingRepo implements domain.RankingRepo
type RankingRepo struct {
	log zerolog.Logger
	db  *DB
}

func NewRankingRepo(log zerolog.Logger, db *DB) *RankingRepo {
	return &RankingRepo{
		log: log.With().Str("repo", "ranking").Logger(),
		db:  db,
	}
}

// GetSnapshot returns the stored ranking for genre, or domain.ErrNotFound
func (r *RankingRepo) GetSnapshot(ctx context.Context, genre string) (*domain.RankingSnapshot, error) {
	key := domain.GenreKey(genre)

	queryBuilder := r.db.squirrel.
		Select("data", "updated_at").
		From("rankings").
		Where("genre = ?", key)

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("GetSnapshot")

	r.db.lock.RLock()
	defer r.db.lock.RUnlock()

	var data, updatedAt string
	if err := r.db.handler.QueryRowContext(ctx, query, args...).Scan(&data, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(domain.ErrNotFound, "ranking %s", key)
		}
		return nil, errors.Wrap(err, "error executing query")
	}

	snapshot := &domain.RankingSnapshot{Genre: key}
	if err := json.Unmarshal([]byte(data), &snapshot.Entries); err != nil {
		return nil, errors.Wrapf(err, "could not decode ranking %s", key)
	}
	if t, err := time.Parse(timeFormat, updatedAt); err == nil {
		snapshot.UpdatedAt = t
	}

	return snapshot, nil
}

// PutSnapshot replaces the stored ranking for the snapshot's genre key
func (r *RankingRepo) PutSnapshot(ctx context.Context, snapshot domain.RankingSnapshot) error {
	key := domain.GenreKey(snapshot.Genre)

	entries := snapshot.Entries
	if entries == nil {
		entries = []domain.RankEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return errors.Wrap(err, "could not encode ranking")
	}

	updatedAt := snapshot.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	queryBuilder := r.db.squirrel.
		Replace("rankings").
		Columns("genre", "data", "updated_at").
		Values(key, string(data), updatedAt.UTC().Format(timeFormat))

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("PutSnapshot")

	r.db.lock.Lock()
	defer r.db.lock.Unlock()

	if _, err := r.db.handler.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "error executing query")
	}

	return nil
}
