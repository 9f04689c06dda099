package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/buzzboard/internal/promo"
)

// TopicQueueRepository is the postgres-backed QueueRepository.
type TopicQueueRepository struct {
	db *DB
}

func NewTopicQueueRepository(db *DB) *TopicQueueRepository {
	return &TopicQueueRepository{db: db}
}

const queueColumns = "id, url, affiliate_url, affiliate_text, title, context, status, created_at"

// Add inserts a new pending queue item.
func (r *TopicQueueRepository) Add(ctx context.Context, item promo.QueueItem) (promo.QueueItem, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO topic_queue (url, affiliate_url, affiliate_text, title, context)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+queueColumns, item.URL, item.AffiliateURL, item.AffiliateText, item.Title, item.Context)

	created, err := scanQueueItem(row)
	if err != nil {
		return promo.QueueItem{}, fmt.Errorf("inserting queue item: %w", err)
	}
	return *created, nil
}

// List returns the 100 oldest items across all statuses, oldest first, so
// the admin view mirrors processing order.
func (r *TopicQueueRepository) List(ctx context.Context) ([]promo.QueueItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+queueColumns+`
		FROM topic_queue
		ORDER BY created_at ASC
		LIMIT 100`)
	if err != nil {
		return nil, fmt.Errorf("listing queue items: %w", err)
	}
	defer rows.Close()

	items := []promo.QueueItem{}
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning queue item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// ClaimOldest takes the oldest pending item and flips it to done in one
// statement. Flipping before processing means a crash mid-generation can
// never wedge the queue on one bad row; the worker reports the failure
// separately. SKIP LOCKED keeps concurrent cron ticks off the same row.
func (r *TopicQueueRepository) ClaimOldest(ctx context.Context) (*promo.QueueItem, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE topic_queue
		SET status = $1
		WHERE id = (
			SELECT id FROM topic_queue
			WHERE status = $2
			ORDER BY created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+queueColumns, promo.StatusDone, promo.StatusPending)

	item, err := scanQueueItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claiming queue item: %w", err)
	}
	return item, nil
}

// SetStatus moves an item between statuses, which is how operators requeue a
// consumed URL.
func (r *TopicQueueRepository) SetStatus(ctx context.Context, id, status string) error {
	switch status {
	case promo.StatusPending, promo.StatusDone, promo.StatusError:
	default:
		return fmt.Errorf("unknown queue status %q", status)
	}

	result, err := r.db.ExecContext(ctx, `UPDATE topic_queue SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("updating queue item status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating queue item status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("queue item %s not found", id)
	}
	return nil
}

func (r *TopicQueueRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM topic_queue WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting queue item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting queue item: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("queue item %s not found", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQueueItem(row rowScanner) (*promo.QueueItem, error) {
	var item promo.QueueItem
	err := row.Scan(
		&item.ID,
		&item.URL,
		&item.AffiliateURL,
		&item.AffiliateText,
		&item.Title,
		&item.Context,
		&item.Status,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
