package reminders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fixloop/fixloop-platform/internal/appointments"
	"github.com/fixloop/fixloop-platform/internal/events"
	"github.com/fixloop/fixloop-platform/pkg/logging"
)

// DefaultLeadTime is how far before the appointment the reminder goes out.
const DefaultLeadTime = 2 * time.Hour

type jobWriter interface {
	Put(ctx context.Context, job *Job) error
	Cancel(ctx context.Context, appointmentID string) error
}

// queueNotice is the SQS message body linking back to the job.
type queueNotice struct {
	AppointmentID string `json:"appointment_id"`
	SendAt        string `json:"send_at"`
}

// Scheduler consumes booking events and maintains the reminder jobs. It
// satisfies the outbox delivery handler.
type Scheduler struct {
	jobs     jobWriter
	queue    Queue
	leadTime time.Duration
	logger   *logging.Logger
	clock    func() time.Time
}

// SchedulerConfig wires optional knobs.
type SchedulerConfig struct {
	LeadTime time.Duration
	Logger   *logging.Logger
	Clock    func() time.Time
}

func NewScheduler(jobs jobWriter, queue Queue, cfg SchedulerConfig) *Scheduler {
	if jobs == nil {
		panic("reminders: job store required")
	}
	if queue == nil {
		panic("reminders: queue required")
	}
	leadTime := cfg.LeadTime
	if leadTime <= 0 {
		leadTime = DefaultLeadTime
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Scheduler{jobs: jobs, queue: queue, leadTime: leadTime, logger: logger, clock: clock}
}

var _ events.DeliveryHandler = (*Scheduler)(nil)

// Handle creates a reminder job on booking and cancels it on cancellation.
func (s *Scheduler) Handle(ctx context.Context, entry events.OutboxEntry) error {
	switch entry.Type {
	case events.TypeBookingConfirmed:
		var evt events.BookingConfirmedV1
		if err := json.Unmarshal(entry.Payload, &evt); err != nil {
			return fmt.Errorf("reminders: decode %s: %w", entry.Type, err)
		}
		return s.schedule(ctx, evt)
	case events.TypeBookingCancelled:
		var evt events.BookingCancelledV1
		if err := json.Unmarshal(entry.Payload, &evt); err != nil {
			return fmt.Errorf("reminders: decode %s: %w", entry.Type, err)
		}
		if err := s.jobs.Cancel(ctx, evt.AppointmentID); err != nil && !errors.Is(err, ErrJobNotFound) {
			return err
		}
		return nil
	default:
		return nil
	}
}

func (s *Scheduler) schedule(ctx context.Context, evt events.BookingConfirmedV1) error {
	at, err := appointments.ScheduledAt(evt.Date, evt.Time)
	if err != nil {
		return fmt.Errorf("reminders: bad schedule on %s: %w", evt.AppointmentID, err)
	}

	sendAt := at.Add(-s.leadTime)
	now := s.clock()
	if !sendAt.After(now) {
		s.logger.Info("appointment inside lead time, skipping reminder", "appointment_id", evt.AppointmentID)
		return nil
	}

	job := &Job{
		AppointmentID:  evt.AppointmentID,
		ClientID:       evt.ClientID,
		ClientName:     evt.ClientName,
		ClientEmail:    evt.ClientEmail,
		TechnicianName: evt.TechnicianName,
		Date:           evt.Date,
		Time:           evt.Time,
		DeviceModel:    evt.DeviceModel,
		SendAt:         sendAt.UTC().Format(time.RFC3339),
	}
	if err := s.jobs.Put(ctx, job); err != nil {
		return err
	}

	body, err := json.Marshal(queueNotice{AppointmentID: evt.AppointmentID, SendAt: job.SendAt})
	if err != nil {
		return fmt.Errorf("reminders: marshal notice: %w", err)
	}
	if err := s.queue.Send(ctx, string(body), sendAt.Sub(now)); err != nil {
		return err
	}

	s.logger.Info("reminder scheduled",
		"appointment_id", evt.AppointmentID,
		"send_at", job.SendAt,
	)
	return nil
}
