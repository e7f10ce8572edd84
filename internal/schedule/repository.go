package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDayConflict is returned when the conditional upsert guard fails: the
// stored slots no longer match the snapshot the transition was computed
// from, so the write was rejected and the caller must re-read and retry.
var ErrDayConflict = errors.New("schedule: day changed since snapshot was read")

type dbtx interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists technician day schedules, one row per
// (technician_id, date), with the slot table as JSONB.
type Repository struct {
	db dbtx
}

// NewRepository creates a repository backed by a pgx pool or compatible
// querier.
func NewRepository(db dbtx) *Repository {
	if db == nil {
		panic("schedule: db required")
	}
	return &Repository{db: db}
}

// UpsertDay writes one day of a technician's schedule. prevSlots is the slot
// table the caller's transition was computed from; on update the write only
// lands if the stored slots still equal it, which turns concurrent writes to
// the same day into ErrDayConflict instead of lost updates.
func (r *Repository) UpsertDay(ctx context.Context, techID string, day DaySchedule, prevSlots []TimeSlot) error {
	slots, err := json.Marshal(day.Slots)
	if err != nil {
		return fmt.Errorf("schedule: marshal slots: %w", err)
	}
	prev, err := json.Marshal(prevSlots)
	if err != nil {
		return fmt.Errorf("schedule: marshal prior slots: %w", err)
	}

	query := `
		INSERT INTO day_schedules (technician_id, date, slots, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (technician_id, date) DO UPDATE
		SET slots = EXCLUDED.slots, updated_at = now()
		WHERE day_schedules.slots = $4::jsonb
	`
	ct, err := r.db.Exec(ctx, query, techID, day.Date, slots, prev)
	if err != nil {
		return fmt.Errorf("schedule: upsert day: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrDayConflict
	}
	return nil
}

// ListForTechnician returns every stored day for a technician, ordered by
// date.
func (r *Repository) ListForTechnician(ctx context.Context, techID string) ([]DaySchedule, error) {
	query := `
		SELECT date, slots
		FROM day_schedules
		WHERE technician_id = $1
		ORDER BY date
	`
	rows, err := r.db.Query(ctx, query, techID)
	if err != nil {
		return nil, fmt.Errorf("schedule: list days: %w", err)
	}
	defer rows.Close()

	var days []DaySchedule
	for rows.Next() {
		var day DaySchedule
		var slots []byte
		if err := rows.Scan(&day.Date, &slots); err != nil {
			return nil, fmt.Errorf("schedule: scan day: %w", err)
		}
		if err := json.Unmarshal(slots, &day.Slots); err != nil {
			return nil, fmt.Errorf("schedule: decode slots for %s: %w", day.Date, err)
		}
		days = append(days, day)
	}
	return days, rows.Err()
}

// ListAll returns the full schedule map keyed by technician id.
func (r *Repository) ListAll(ctx context.Context) (map[string][]DaySchedule, error) {
	query := `
		SELECT technician_id, date, slots
		FROM day_schedules
		ORDER BY technician_id, date
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("schedule: list all: %w", err)
	}
	defer rows.Close()

	all := make(map[string][]DaySchedule)
	for rows.Next() {
		var techID string
		var day DaySchedule
		var slots []byte
		if err := rows.Scan(&techID, &day.Date, &slots); err != nil {
			return nil, fmt.Errorf("schedule: scan day: %w", err)
		}
		if err := json.Unmarshal(slots, &day.Slots); err != nil {
			return nil, fmt.Errorf("schedule: decode slots for %s/%s: %w", techID, day.Date, err)
		}
		all[techID] = append(all[techID], day)
	}
	return all, rows.Err()
}
