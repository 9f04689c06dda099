package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/buzzboard/internal/promo"
)

// PromoThreadRepository is the postgres-backed ThreadRepository. Transcripts
// and cast profiles live in jsonb columns and transcripts are normalized on
// every load, so legacy-shape rows keep working without a data migration.
type PromoThreadRepository struct {
	db *DB
}

func NewPromoThreadRepository(db *DB) *PromoThreadRepository {
	return &PromoThreadRepository{db: db}
}

const threadColumns = "id, product_name, source_url, affiliate_url, key_features, og_image_url, cast_profiles, transcript, created_at"

func (r *PromoThreadRepository) Insert(ctx context.Context, thread promo.Thread) (promo.Thread, error) {
	castJSON, err := marshalCast(thread.CastProfiles)
	if err != nil {
		return promo.Thread{}, err
	}
	transcriptJSON, err := marshalTranscript(thread.Transcript)
	if err != nil {
		return promo.Thread{}, err
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO promo_threads (product_name, source_url, affiliate_url, key_features, og_image_url, cast_profiles, transcript)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+threadColumns,
		thread.ProductName, thread.SourceURL, thread.AffiliateURL, thread.KeyFeatures,
		thread.OGImageURL, castJSON, transcriptJSON)

	created, err := scanThread(row)
	if err != nil {
		return promo.Thread{}, fmt.Errorf("inserting thread: %w", err)
	}
	return *created, nil
}

// List returns the 50 newest threads, newest first.
func (r *PromoThreadRepository) List(ctx context.Context) ([]promo.Thread, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+threadColumns+`
		FROM promo_threads
		ORDER BY created_at DESC
		LIMIT 50`)
	if err != nil {
		return nil, fmt.Errorf("listing threads: %w", err)
	}
	defer rows.Close()

	threads := []promo.Thread{}
	for rows.Next() {
		thread, err := scanThread(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning thread: %w", err)
		}
		threads = append(threads, *thread)
	}
	return threads, rows.Err()
}

func (r *PromoThreadRepository) Get(ctx context.Context, id string) (*promo.Thread, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+threadColumns+`
		FROM promo_threads
		WHERE id = $1`, id)
	return r.oneThread(row, "loading thread")
}

func (r *PromoThreadRepository) Latest(ctx context.Context) (*promo.Thread, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+threadColumns+`
		FROM promo_threads
		ORDER BY created_at DESC
		LIMIT 1`)
	return r.oneThread(row, "loading latest thread")
}

func (r *PromoThreadRepository) Random(ctx context.Context) (*promo.Thread, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+threadColumns+` FROM (
			SELECT `+threadColumns+`
			FROM promo_threads
			ORDER BY created_at DESC
			LIMIT 100
		) recent
		ORDER BY random()
		LIMIT 1`)
	return r.oneThread(row, "loading random thread")
}

// UpdateTranscript replaces the whole transcript array for a thread.
func (r *PromoThreadRepository) UpdateTranscript(ctx context.Context, id string, transcript []promo.TranscriptTurn) error {
	transcriptJSON, err := marshalTranscript(transcript)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `UPDATE promo_threads SET transcript = $1 WHERE id = $2`, transcriptJSON, id)
	if err != nil {
		return fmt.Errorf("updating thread transcript: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating thread transcript: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("thread %s not found", id)
	}
	return nil
}

func (r *PromoThreadRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM promo_threads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting thread: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting thread: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("thread %s not found", id)
	}
	return nil
}

func (r *PromoThreadRepository) oneThread(row rowScanner, op string) (*promo.Thread, error) {
	thread, err := scanThread(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return thread, nil
}

func scanThread(row rowScanner) (*promo.Thread, error) {
	var (
		thread         promo.Thread
		castJSON       []byte
		transcriptJSON []byte
	)
	err := row.Scan(
		&thread.ID,
		&thread.ProductName,
		&thread.SourceURL,
		&thread.AffiliateURL,
		&thread.KeyFeatures,
		&thread.OGImageURL,
		&castJSON,
		&transcriptJSON,
		&thread.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	thread.CastProfiles = []promo.CastProfile{}
	if len(castJSON) > 0 {
		if err := json.Unmarshal(castJSON, &thread.CastProfiles); err != nil {
			return nil, fmt.Errorf("decoding cast profiles: %w", err)
		}
	}
	thread.Transcript = promo.NormalizeTranscript(transcriptJSON)
	return &thread, nil
}

func marshalCast(cast []promo.CastProfile) ([]byte, error) {
	if cast == nil {
		cast = []promo.CastProfile{}
	}
	data, err := json.Marshal(cast)
	if err != nil {
		return nil, fmt.Errorf("encoding cast profiles: %w", err)
	}
	return data, nil
}

func marshalTranscript(transcript []promo.TranscriptTurn) ([]byte, error) {
	if transcript == nil {
		transcript = []promo.TranscriptTurn{}
	}
	data, err := json.Marshal(transcript)
	if err != nil {
		return nil, fmt.Errorf("encoding transcript: %w", err)
	}
	return data, nil
}
