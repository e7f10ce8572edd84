package appointments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type dbtx interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists appointments. Rows are never deleted, only
// status-transitioned.
type Repository struct {
	db dbtx
}

func NewRepository(db dbtx) *Repository {
	if db == nil {
		panic("appointments: db required")
	}
	return &Repository{db: db}
}

const appointmentColumns = `id, client_id, client_name, technician_id, technician_name,
		date, time, device_model, issue, status, created_at`

// Create inserts a new appointment row.
func (r *Repository) Create(ctx context.Context, a Appointment) error {
	query := `
		INSERT INTO appointments (` + appointmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		a.ID, a.ClientID, a.ClientName, a.TechnicianID, a.TechnicianName,
		a.Date, a.Time, a.DeviceModel, a.Issue, a.Status, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("appointments: insert: %w", err)
	}
	return nil
}

// GetByID loads one appointment.
func (r *Repository) GetByID(ctx context.Context, id string) (Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	a, err := scanAppointment(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Appointment{}, ErrNotFound
	}
	if err != nil {
		return Appointment{}, fmt.Errorf("appointments: get: %w", err)
	}
	return a, nil
}

// UpdateStatus replaces the current status. reason is optional free text
// recorded alongside moderator or dispute actions.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status Status, reason string) error {
	query := `
		UPDATE appointments
		SET status = $2, status_reason = NULLIF($3, '')
		WHERE id = $1
	`
	ct, err := r.db.Exec(ctx, query, id, status, reason)
	if err != nil {
		return fmt.Errorf("appointments: update status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListForClient returns a client's appointments, newest first.
func (r *Repository) ListForClient(ctx context.Context, clientID string) ([]Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE client_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, clientID)
}

// ListForTechnician returns a technician's appointments, newest first.
func (r *Repository) ListForTechnician(ctx context.Context, techID string) ([]Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE technician_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, techID)
}

// ListByParticipants returns every appointment between a client and a
// technician. The review eligibility check runs over this set.
func (r *Repository) ListByParticipants(ctx context.Context, clientID, techID string) ([]Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE client_id = $1 AND technician_id = $2 ORDER BY created_at DESC`
	return r.list(ctx, query, clientID, techID)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAppointment(row pgx.Row) (Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID, &a.ClientID, &a.ClientName, &a.TechnicianID, &a.TechnicianName,
		&a.Date, &a.Time, &a.DeviceModel, &a.Issue, &a.Status, &a.CreatedAt,
	)
	return a, err
}
