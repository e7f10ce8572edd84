package reviews

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type dbtx interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists reviews. Deletion is always soft.
type Repository struct {
	db dbtx
}

func NewRepository(db dbtx) *Repository {
	if db == nil {
		panic("reviews: db required")
	}
	return &Repository{db: db}
}

const reviewColumns = `id, client_id, client_name, technician_id, rating, comment, tags,
		reply_text, reply_at, created_at, updated_at, deleted_at`

// Create inserts a review.
func (r *Repository) Create(ctx context.Context, rv Review) error {
	query := `
		INSERT INTO reviews (id, client_id, client_name, technician_id, rating, comment, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		rv.ID, rv.ClientID, rv.ClientName, rv.TechnicianID, rv.Rating, rv.Comment, rv.Tags,
		rv.CreatedAt, rv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("reviews: insert: %w", err)
	}
	return nil
}

// GetByID loads one review, soft-deleted included; callers that must not
// see deleted reviews check DeletedAt.
func (r *Repository) GetByID(ctx context.Context, id string) (Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`
	rv, err := scanReview(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Review{}, ErrNotFound
	}
	if err != nil {
		return Review{}, fmt.Errorf("reviews: get: %w", err)
	}
	return rv, nil
}

// Update rewrites the client-editable fields.
func (r *Repository) Update(ctx context.Context, id string, rating int, comment string, tags []string, now time.Time) error {
	query := `
		UPDATE reviews
		SET rating = $2, comment = $3, tags = $4, updated_at = $5
		WHERE id = $1 AND deleted_at IS NULL
	`
	ct, err := r.db.Exec(ctx, query, id, rating, comment, tags, now)
	if err != nil {
		return fmt.Errorf("reviews: update: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetReply attaches the technician's reply.
func (r *Repository) SetReply(ctx context.Context, id, text string, now time.Time) error {
	query := `
		UPDATE reviews
		SET reply_text = $2, reply_at = $3
		WHERE id = $1 AND deleted_at IS NULL
	`
	ct, err := r.db.Exec(ctx, query, id, text, now)
	if err != nil {
		return fmt.Errorf("reviews: set reply: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete hides the review without destroying the row.
func (r *Repository) SoftDelete(ctx context.Context, id string, now time.Time) error {
	query := `
		UPDATE reviews
		SET deleted_at = $2
		WHERE id = $1 AND deleted_at IS NULL
	`
	ct, err := r.db.Exec(ctx, query, id, now)
	if err != nil {
		return fmt.Errorf("reviews: soft delete: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListForTechnician returns a technician's visible reviews, newest first.
func (r *Repository) ListForTechnician(ctx context.Context, techID string) ([]Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE technician_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC`
	return r.list(ctx, query, techID)
}

// ListByPair returns visible reviews for one (client, technician) pair; the
// eligibility check runs over this set.
func (r *Repository) ListByPair(ctx context.Context, clientID, techID string) ([]Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE client_id = $1 AND technician_id = $2 AND deleted_at IS NULL`
	return r.list(ctx, query, clientID, techID)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]Review, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reviews: list: %w", err)
	}
	defer rows.Close()

	var out []Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("reviews: scan: %w", err)
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func scanReview(row pgx.Row) (Review, error) {
	var rv Review
	var replyText *string
	var replyAt *time.Time
	err := row.Scan(
		&rv.ID, &rv.ClientID, &rv.ClientName, &rv.TechnicianID, &rv.Rating, &rv.Comment, &rv.Tags,
		&replyText, &replyAt, &rv.CreatedAt, &rv.UpdatedAt, &rv.DeletedAt,
	)
	if err != nil {
		return Review{}, err
	}
	if replyText != nil && replyAt != nil {
		rv.Reply = &Reply{Text: *replyText, CreatedAt: *replyAt}
	}
	return rv, nil
}
