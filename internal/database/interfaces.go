package database

import (
	"context"

	"github.com/buzzboard/internal/promo"
)

// QueueRepository handles database operations for the topic queue.
type QueueRepository interface {
	Add(ctx context.Context, item promo.QueueItem) (promo.QueueItem, error)
	List(ctx context.Context) ([]promo.QueueItem, error)
	// ClaimOldest atomically takes the oldest pending item and marks it
	// done in the same statement. Returns nil when the queue is empty.
	ClaimOldest(ctx context.Context) (*promo.QueueItem, error)
	SetStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
}

// ThreadRepository handles database operations for generated threads.
type ThreadRepository interface {
	Insert(ctx context.Context, thread promo.Thread) (promo.Thread, error)
	List(ctx context.Context) ([]promo.Thread, error)
	Get(ctx context.Context, id string) (*promo.Thread, error)
	Latest(ctx context.Context) (*promo.Thread, error)
	// Random picks one thread at random among the 100 newest.
	Random(ctx context.Context) (*promo.Thread, error)
	UpdateTranscript(ctx context.Context, id string, transcript []promo.TranscriptTurn) error
	Delete(ctx context.Context, id string) error
}
