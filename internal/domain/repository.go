package domain

import (
	"context"
	"time"
)

// RankingRepo is the durable change-detection store for rankings
type RankingRepo interface {
	// GetSnapshot returns ErrNotFound when nothing is stored for genre
	GetSnapshot(ctx context.Context, genre string) (*RankingSnapshot, error)
	PutSnapshot(ctx context.Context, snapshot RankingSnapshot) error
}

// VoteRepo is the durable append-only vote store
type VoteRepo interface {
	AddVote(ctx context.Context, vote Vote) error
	CountVotesSince(ctx context.Context, userID string, since time.Time) (int, error)
	TopVotes(ctx context.Context, limit int) ([]VoteCount, error)
}
