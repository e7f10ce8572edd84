// Package moderation backs the moderator dashboard: the dispute queue,
// dispute resolution, platform stats, and the resolved-dispute archive.
package moderation

import (
	"context"
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

// DisputedAppointment is one dispute-queue row.
type DisputedAppointment struct {
	ID             string    `json:"id"`
	ClientID       string    `json:"client_id"`
	ClientName     string    `json:"client_name"`
	TechnicianID   string    `json:"technician_id"`
	TechnicianName string    `json:"technician_name"`
	Date           string    `json:"date"`
	Time           string    `json:"time"`
	DeviceModel    string    `json:"device_model"`
	Issue          string    `json:"issue"`
	Reason         string    `json:"reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// PlatformStats is the moderator overview aggregate.
type PlatformStats struct {
	AppointmentsByStatus map[string]int `json:"appointments_by_status"`
	OpenDisputes         int            `json:"open_disputes"`
	TotalReviews         int            `json:"total_reviews"`
	AverageRating        float64        `json:"average_rating"`
}

// Repository reads moderator-facing aggregates straight from Postgres.
type Repository struct {
	db dbtx
}

func NewRepository(db dbtx) *Repository {
	if db == nil {
		panic("moderation: db required")
	}
	return &Repository{db: db}
}

// DisputeQueue lists DISPUTED appointments, oldest first so the longest-
// waiting dispute is handled next.
func (r *Repository) DisputeQueue(ctx context.Context) ([]DisputedAppointment, error) {
	query := `
		SELECT id, client_id, client_name, technician_id, technician_name,
			date, time, device_model, issue, COALESCE(status_reason, ''), created_at
		FROM appointments
		WHERE status = 'DISPUTED'
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("moderation: dispute queue: %w", err)
	}
	defer rows.Close()

	var out []DisputedAppointment
	for rows.Next() {
		var d DisputedAppointment
		if err := rows.Scan(
			&d.ID, &d.ClientID, &d.ClientName, &d.TechnicianID, &d.TechnicianName,
			&d.Date, &d.Time, &d.DeviceModel, &d.Issue, &d.Reason, &d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("moderation: scan dispute: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Stats aggregates appointment and review counts for the overview page.
func (r *Repository) Stats(ctx context.Context) (PlatformStats, error) {
	stats := PlatformStats{AppointmentsByStatus: map[string]int{}}

	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM appointments GROUP BY status`)
	if err != nil {
		return PlatformStats{}, fmt.Errorf("moderation: status counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return PlatformStats{}, fmt.Errorf("moderation: scan status count: %w", err)
		}
		stats.AppointmentsByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return PlatformStats{}, err
	}
	stats.OpenDisputes = stats.AppointmentsByStatus["DISPUTED"]

	err = r.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(AVG(rating), 0)
		FROM reviews WHERE deleted_at IS NULL
	`).Scan(&stats.TotalReviews, &stats.AverageRating)
	if err != nil {
		return PlatformStats{}, fmt.Errorf("moderation: review stats: %w", err)
	}
	return stats, nil
}
