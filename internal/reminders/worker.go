package reminders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fixloop/fixloop-platform/internal/appointments"
	"github.com/fixloop/fixloop-platform/internal/notify"
	"github.com/fixloop/fixloop-platform/pkg/logging"
)

type jobReader interface {
	Get(ctx context.Context, appointmentID string) (*Job, error)
	MarkSent(ctx context.Context, appointmentID string) error
}

type appointmentGetter interface {
	GetByID(ctx context.Context, id string) (appointments.Appointment, error)
}

// Worker drains the reminder queue and sends the emails that are due.
type Worker struct {
	jobs   jobReader
	queue  Queue
	appts  appointmentGetter
	email  notify.EmailSender
	logger *logging.Logger
	clock  func() time.Time

	pollWait  int
	batchSize int
}

// WorkerConfig wires optional knobs.
type WorkerConfig struct {
	Logger    *logging.Logger
	Clock     func() time.Time
	PollWait  int // SQS long-poll seconds
	BatchSize int
}

func NewWorker(jobs jobReader, queue Queue, appts appointmentGetter, email notify.EmailSender, cfg WorkerConfig) *Worker {
	if jobs == nil {
		panic("reminders: job store required")
	}
	if queue == nil {
		panic("reminders: queue required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	if email == nil {
		email = notify.NewNoopSender(logger)
	}
	pollWait := cfg.PollWait
	if pollWait <= 0 {
		pollWait = 10
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 5
	}
	return &Worker{
		jobs: jobs, queue: queue, appts: appts, email: email,
		logger: logger, clock: clock, pollWait: pollWait, batchSize: batchSize,
	}
}

// Run polls until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("reminder worker started")
	for {
		if ctx.Err() != nil {
			w.logger.Info("reminder worker stopping")
			return
		}
		messages, err := w.queue.Receive(ctx, w.batchSize, w.pollWait)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("reminder receive failed", "error", err)
			time.Sleep(2 * time.Second)
			continue
		}
		for _, msg := range messages {
			if err := w.process(ctx, msg); err != nil {
				w.logger.Error("reminder processing failed", "message_id", msg.ID, "error", err)
				continue
			}
			if err := w.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
				w.logger.Error("reminder ack failed", "message_id", msg.ID, "error", err)
			}
		}
	}
}

// process handles one queue message. A nil return acknowledges the
// message; errors leave it for redelivery.
func (w *Worker) process(ctx context.Context, msg Message) error {
	var notice queueNotice
	if err := json.Unmarshal([]byte(msg.Body), &notice); err != nil {
		// Malformed messages would loop forever; log and acknowledge.
		w.logger.Warn("dropping malformed reminder message", "message_id", msg.ID, "error", err)
		return nil
	}

	job, err := w.jobs.Get(ctx, notice.AppointmentID)
	if errors.Is(err, ErrJobNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if job.Status != JobStatusPending {
		return nil
	}

	sendAt, err := time.Parse(time.RFC3339, job.SendAt)
	if err != nil {
		return fmt.Errorf("reminders: bad sendAt on %s: %w", job.AppointmentID, err)
	}
	if remaining := sendAt.Sub(w.clock()); remaining > 0 {
		// Delivered early (SQS delay is capped); push it back.
		body, _ := json.Marshal(queueNotice{AppointmentID: job.AppointmentID, SendAt: job.SendAt})
		return w.queue.Send(ctx, string(body), remaining)
	}

	if w.appts != nil {
		appt, err := w.appts.GetByID(ctx, job.AppointmentID)
		if err != nil && !errors.Is(err, appointments.ErrNotFound) {
			return err
		}
		if err != nil || appt.Status != appointments.StatusConfirmed {
			return w.jobs.MarkSent(ctx, job.AppointmentID)
		}
	}

	if job.ClientEmail == "" {
		w.logger.Warn("reminder job has no client email", "appointment_id", job.AppointmentID)
		return w.jobs.MarkSent(ctx, job.AppointmentID)
	}

	err = w.email.Send(ctx, notify.EmailMessage{
		To:      job.ClientEmail,
		ToName:  job.ClientName,
		Subject: fmt.Sprintf("Reminder: repair today at %s", job.Time),
		Body: fmt.Sprintf(
			"Hi %s,\n\nA reminder that your %s repair with %s is coming up on %s at %s.\n\nFixLoop",
			job.ClientName, job.DeviceModel, job.TechnicianName, job.Date, job.Time,
		),
	})
	if err != nil {
		return err
	}

	if err := w.jobs.MarkSent(ctx, job.AppointmentID); err != nil {
		return err
	}
	w.logger.Info("reminder sent", "appointment_id", job.AppointmentID, "to", job.ClientEmail)
	return nil
}
