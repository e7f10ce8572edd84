package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fixloop/fixloop-platform/internal/appointments"
	"github.com/fixloop/fixloop-platform/internal/events"
	"github.com/fixloop/fixloop-platform/internal/identity"
	"github.com/fixloop/fixloop-platform/pkg/logging"
)

type appointmentGetter interface {
	GetByID(ctx context.Context, id string) (appointments.Appointment, error)
}

type userDirectory interface {
	GetByID(ctx context.Context, id string) (identity.User, error)
}

// Service consumes booking lifecycle events from the outbox and sends the
// matching client emails. It satisfies the outbox delivery handler.
type Service struct {
	email  EmailSender
	appts  appointmentGetter
	users  userDirectory
	logger *logging.Logger
}

func NewService(email EmailSender, appts appointmentGetter, users userDirectory, logger *logging.Logger) *Service {
	if email == nil {
		email = NewNoopSender(logger)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, appts: appts, users: users, logger: logger}
}

var _ events.DeliveryHandler = (*Service)(nil)

// Handle routes one outbox entry to its email template. Unknown event
// types are acknowledged so they do not wedge the outbox.
func (s *Service) Handle(ctx context.Context, entry events.OutboxEntry) error {
	switch entry.Type {
	case events.TypeBookingConfirmed:
		var evt events.BookingConfirmedV1
		if err := json.Unmarshal(entry.Payload, &evt); err != nil {
			return fmt.Errorf("notify: decode %s: %w", entry.Type, err)
		}
		return s.sendBookingConfirmed(ctx, evt)
	case events.TypeBookingCancelled:
		var evt events.BookingCancelledV1
		if err := json.Unmarshal(entry.Payload, &evt); err != nil {
			return fmt.Errorf("notify: decode %s: %w", entry.Type, err)
		}
		return s.sendBookingCancelled(ctx, evt)
	case events.TypeDisputeResolved:
		var evt events.DisputeResolvedV1
		if err := json.Unmarshal(entry.Payload, &evt); err != nil {
			return fmt.Errorf("notify: decode %s: %w", entry.Type, err)
		}
		return s.sendDisputeResolved(ctx, evt)
	default:
		s.logger.Debug("no email template for event", "event_type", entry.Type)
		return nil
	}
}

func (s *Service) sendBookingConfirmed(ctx context.Context, evt events.BookingConfirmedV1) error {
	to, toName, err := s.clientAddress(ctx, evt.ClientID, evt.ClientEmail, evt.ClientName)
	if err != nil {
		return err
	}
	if to == "" {
		s.logger.Warn("client has no email, skipping confirmation", "client_id", evt.ClientID)
		return nil
	}
	return s.email.Send(ctx, EmailMessage{
		To:      to,
		ToName:  toName,
		Subject: fmt.Sprintf("Repair booked for %s at %s", evt.Date, evt.Time),
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour %s repair with %s is confirmed for %s at %s.\n\nNeed to change plans? Appointments can be cancelled up to 24 hours in advance.\n\nFixLoop",
			toName, evt.DeviceModel, evt.TechnicianName, evt.Date, evt.Time,
		),
	})
}

func (s *Service) sendBookingCancelled(ctx context.Context, evt events.BookingCancelledV1) error {
	to, toName, err := s.clientAddress(ctx, evt.ClientID, evt.ClientEmail, "")
	if err != nil {
		return err
	}
	if to == "" {
		s.logger.Warn("client has no email, skipping cancellation notice", "client_id", evt.ClientID)
		return nil
	}
	body := fmt.Sprintf("Hi %s,\n\nYour appointment on %s at %s was cancelled", toName, evt.Date, evt.Time)
	if evt.CancelledBy != "client" {
		body += fmt.Sprintf(" by the %s", evt.CancelledBy)
	}
	body += "."
	if evt.Reason != "" {
		body += fmt.Sprintf("\nReason: %s", evt.Reason)
	}
	body += "\n\nThe slot has been released. You can book a new time any moment.\n\nFixLoop"
	return s.email.Send(ctx, EmailMessage{
		To:      to,
		ToName:  toName,
		Subject: fmt.Sprintf("Appointment on %s cancelled", evt.Date),
		Body:    body,
	})
}

func (s *Service) sendDisputeResolved(ctx context.Context, evt events.DisputeResolvedV1) error {
	if s.appts == nil {
		s.logger.Debug("no appointment store wired, skipping dispute email", "appointment_id", evt.AppointmentID)
		return nil
	}
	appt, err := s.appts.GetByID(ctx, evt.AppointmentID)
	if err != nil {
		return fmt.Errorf("notify: load appointment %s: %w", evt.AppointmentID, err)
	}
	to, toName, err := s.clientAddress(ctx, appt.ClientID, "", appt.ClientName)
	if err != nil {
		return err
	}
	if to == "" {
		s.logger.Warn("client has no email, skipping dispute notice", "client_id", appt.ClientID)
		return nil
	}
	body := fmt.Sprintf(
		"Hi %s,\n\nA moderator reviewed your dispute for the %s repair on %s and closed it as %s.",
		toName, appt.DeviceModel, appt.Date, evt.Resolution,
	)
	if evt.Note != "" {
		body += fmt.Sprintf("\nModerator note: %s", evt.Note)
	}
	body += "\n\nFixLoop"
	return s.email.Send(ctx, EmailMessage{
		To:      to,
		ToName:  toName,
		Subject: "Your dispute has been resolved",
		Body:    body,
	})
}

// clientAddress prefers the email embedded in the event and falls back to
// a directory lookup.
func (s *Service) clientAddress(ctx context.Context, clientID, email, name string) (string, string, error) {
	if email != "" {
		return email, name, nil
	}
	if s.users == nil {
		return "", name, nil
	}
	user, err := s.users.GetByID(ctx, clientID)
	if err != nil {
		return "", "", fmt.Errorf("notify: load user %s: %w", clientID, err)
	}
	if name == "" {
		name = user.Name
	}
	return user.Email, name, nil
}
