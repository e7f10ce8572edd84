// Package audit records sensitive marketplace actions. The service is
// explicitly constructed and closed by the caller; there is no package-level
// state, and the encryption key lives only inside the service instance.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fixloop/fixloop-platform/pkg/logging"
)

// EventType classifies an audit record.
type EventType string

const (
	EventBookingCreated    EventType = "booking.created"
	EventBookingCancelled  EventType = "booking.cancelled"
	EventStatusOverride    EventType = "booking.status_override"
	EventDisputeResolved   EventType = "dispute.resolved"
	EventReviewSoftDeleted EventType = "review.soft_deleted"
)

// Event is one immutable audit record. Details are stored encrypted.
type Event struct {
	ID            string          `json:"id"`
	EventType     EventType       `json:"event_type"`
	ActorID       string          `json:"actor_id"`
	ActorRole     string          `json:"actor_role"`
	AppointmentID string          `json:"appointment_id,omitempty"`
	Details       json.RawMessage `json:"details,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Service writes encrypted audit events. Construct with New, use, then
// Close when the application shuts down.
type Service struct {
	db     *sql.DB
	cipher *payloadCipher
	logger *logging.Logger
	closed bool
}

// New creates an audit service. keyHex is a 64-char hex AES-256 key; an
// empty key disables encryption and stores detail payloads as plain JSON.
func New(db *sql.DB, keyHex string, logger *logging.Logger) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("audit: db required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	cipher, err := newPayloadCipher(keyHex)
	if err != nil {
		return nil, err
	}
	return &Service{db: db, cipher: cipher, logger: logger}, nil
}

// Record persists one audit event. Failures are returned, not swallowed;
// callers decide whether the triggering action should still proceed.
func (s *Service) Record(ctx context.Context, eventType EventType, actorID, actorRole, appointmentID string, details any) error {
	if s == nil || s.closed {
		return fmt.Errorf("audit: service not available")
	}

	var payload []byte
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("audit: marshal details: %w", err)
		}
		payload, err = s.cipher.seal(raw)
		if err != nil {
			return fmt.Errorf("audit: encrypt details: %w", err)
		}
	}

	query := `
		INSERT INTO audit_events (id, event_type, actor_id, actor_role, appointment_id, details, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.NewString(), string(eventType), actorID, actorRole, appointmentID, payload, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("audit: insert event: %w", err)
	}
	return nil
}

// ListByAppointment returns decrypted audit events for one appointment,
// oldest first. Used by the moderator dashboard.
func (s *Service) ListByAppointment(ctx context.Context, appointmentID string) ([]Event, error) {
	if s == nil || s.closed {
		return nil, fmt.Errorf("audit: service not available")
	}
	query := `
		SELECT id, event_type, actor_id, actor_role, COALESCE(appointment_id, ''), details, created_at
		FROM audit_events
		WHERE appointment_id = $1
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("audit: query events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Event
	for rows.Next() {
		var e Event
		var et string
		var sealed []byte
		if err := rows.Scan(&e.ID, &et, &e.ActorID, &e.ActorRole, &e.AppointmentID, &sealed, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan event: %w", err)
		}
		e.EventType = EventType(et)
		if len(sealed) > 0 {
			raw, err := s.cipher.open(sealed)
			if err != nil {
				return nil, fmt.Errorf("audit: decrypt details for %s: %w", e.ID, err)
			}
			e.Details = raw
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close releases the service. Further calls fail; the shared *sql.DB is the
// caller's to close.
func (s *Service) Close() error {
	if s == nil {
		return nil
	}
	s.closed = true
	return nil
}
