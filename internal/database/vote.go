package database

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/varoOP/animebot/internal/domain"
)

// VoteRepo implements domain.VoteRepo
type VoteRepo struct {
	log       zerolog.Logger
	db        *DB
	maxPerDay int
	now       func() time.Time
}

// NewVoteRepo creates a vote store. maxPerDay <= 0 means unlimited votes.
func NewVoteRepo(log zerolog.Logger, db *DB, maxPerDay int) *VoteRepo {
	return &VoteRepo{
		log:       log.With().Str("repo", "vote").Logger(),
		db:        db,
		maxPerDay: maxPerDay,
		now:       time.Now,
	}
}

// AddVote appends a vote. With a daily limit the count check and the insert
// run under the same write lock, so concurrent votes cannot overshoot it.
func (r *VoteRepo) AddVote(ctx context.Context, vote domain.Vote) error {
	if vote.CreatedAt.IsZero() {
		vote.CreatedAt = r.now()
	}

	r.db.lock.Lock()
	defer r.db.lock.Unlock()

	if r.maxPerDay > 0 {
		count, err := r.countSince(ctx, vote.UserID, vote.CreatedAt.Add(-24*time.Hour))
		if err != nil {
			return err
		}
		if count >= r.maxPerDay {
			return domain.ErrVoteLimit
		}
	}

	queryBuilder := r.db.squirrel.
		Insert("votes").
		Columns("user_id", "waifu", "created_at").
		Values(vote.UserID, vote.Waifu, vote.CreatedAt.UTC().Format(timeFormat))

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("AddVote")

	if _, err := r.db.handler.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "error executing query")
	}

	return nil
}

// CountVotesSince counts the votes of userID cast at or after since
func (r *VoteRepo) CountVotesSince(ctx context.Context, userID string, since time.Time) (int, error) {
	r.db.lock.RLock()
	defer r.db.lock.RUnlock()

	return r.countSince(ctx, userID, since)
}

func (r *VoteRepo) countSince(ctx context.Context, userID string, since time.Time) (int, error) {
	queryBuilder := r.db.squirrel.
		Select("COUNT(*)").
		From("votes").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.GtOrEq{"created_at": since.UTC().Format(timeFormat)})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("CountVotesSince")

	var count int
	if err := r.db.handler.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "error executing query")
	}

	return count, nil
}

// TopVotes aggregates votes per waifu, most voted first, ties by name
func (r *VoteRepo) TopVotes(ctx context.Context, limit int) ([]domain.VoteCount, error) {
	queryBuilder := r.db.squirrel.
		Select("waifu", "COUNT(*) AS vote_count").
		From("votes").
		GroupBy("waifu").
		OrderBy("vote_count DESC", "waifu ASC")
	if limit > 0 {
		queryBuilder = queryBuilder.Limit(uint64(limit))
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("TopVotes")

	r.db.lock.RLock()
	defer r.db.lock.RUnlock()

	rows, err := r.db.handler.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	var result []domain.VoteCount
	for rows.Next() {
		var vc domain.VoteCount
		if err := rows.Scan(&vc.Waifu, &vc.Count); err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}
		result = append(result, vc)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	return result, nil
}
