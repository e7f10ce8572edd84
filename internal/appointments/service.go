package appointments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fixloop/fixloop-platform/internal/audit"
	"github.com/fixloop/fixloop-platform/internal/events"
	"github.com/fixloop/fixloop-platform/internal/identity"
	"github.com/fixloop/fixloop-platform/internal/observability/metrics"
	"github.com/fixloop/fixloop-platform/internal/schedule"
	"github.com/fixloop/fixloop-platform/pkg/logging"
)

var bookingTracer = otel.Tracer("fixloop.internal.appointments")

type appointmentStore interface {
	Create(ctx context.Context, a Appointment) error
	GetByID(ctx context.Context, id string) (Appointment, error)
	UpdateStatus(ctx context.Context, id string, status Status, reason string) error
	ListForClient(ctx context.Context, clientID string) ([]Appointment, error)
	ListForTechnician(ctx context.Context, techID string) ([]Appointment, error)
}

type dayScheduleStore interface {
	ListForTechnician(ctx context.Context, techID string) ([]schedule.DaySchedule, error)
	UpsertDay(ctx context.Context, techID string, day schedule.DaySchedule, prevSlots []schedule.TimeSlot) error
}

type scheduleCache interface {
	Get(ctx context.Context, techID string) ([]schedule.DaySchedule, bool, error)
	Set(ctx context.Context, techID string, days []schedule.DaySchedule) error
	Invalidate(ctx context.Context, techID string) error
}

type userDirectory interface {
	GetByID(ctx context.Context, id string) (identity.User, error)
}

type eventSink interface {
	Insert(ctx context.Context, eventType string, payload any) (uuid.UUID, error)
}

type auditRecorder interface {
	Record(ctx context.Context, eventType audit.EventType, actorID, actorRole, appointmentID string, details any) error
}

// Service orchestrates booking, cancellation, and status updates. All state
// lives in the stores; the service only computes transitions and persists
// them, re-validating availability against a fresh snapshot each time.
type Service struct {
	store   appointmentStore
	days    dayScheduleStore
	cache   scheduleCache
	users   userDirectory
	outbox  eventSink
	auditor auditRecorder
	metrics *metrics.BookingMetrics
	logger  *logging.Logger

	clock        func() time.Time
	cancelWindow time.Duration
}

// ServiceConfig wires the service's optional collaborators and policy
// knobs. Zero values fall back to sane defaults.
type ServiceConfig struct {
	Cache        scheduleCache
	Outbox       eventSink
	Auditor      auditRecorder
	Metrics      *metrics.BookingMetrics
	Logger       *logging.Logger
	Clock        func() time.Time
	CancelWindow time.Duration
}

// NewService constructs the booking service.
func NewService(appts appointmentStore, days dayScheduleStore, users userDirectory, cfg ServiceConfig) *Service {
	if appts == nil {
		panic("appointments: appointment store required")
	}
	if days == nil {
		panic("appointments: day schedule store required")
	}
	if users == nil {
		panic("appointments: user directory required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	window := cfg.CancelWindow
	if window <= 0 {
		window = DefaultCancelWindow
	}
	return &Service{
		store:        appts,
		days:         days,
		cache:        cfg.Cache,
		users:        users,
		outbox:       cfg.Outbox,
		auditor:      cfg.Auditor,
		metrics:      cfg.Metrics,
		logger:       logger,
		clock:        clock,
		cancelWindow: window,
	}
}

// BookingInput is what a client submits to book a slot.
type BookingInput struct {
	TechnicianID string `json:"technician_id"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	DeviceModel  string `json:"device_model"`
	Issue        string `json:"issue"`
}

// Validate checks the input shape; slot availability is checked separately.
func (in *BookingInput) Validate() error {
	if in.TechnicianID == "" {
		return errors.New("technician_id is required")
	}
	if _, err := ScheduledAt(in.Date, in.Time); err != nil {
		return err
	}
	if in.DeviceModel == "" {
		return errors.New("device_model is required")
	}
	return nil
}

// TechnicianSchedule returns a technician's day schedules for browsing,
// served from the snapshot cache when possible.
func (s *Service) TechnicianSchedule(ctx context.Context, techID string) ([]schedule.DaySchedule, error) {
	if s.cache != nil {
		days, ok, err := s.cache.Get(ctx, techID)
		if err != nil {
			s.logger.Warn("schedule cache read failed", "technician_id", techID, "error", err)
		}
		s.metrics.ObserveCacheLookup(ok)
		if ok {
			return days, nil
		}
	}
	days, err := s.days.ListForTechnician(ctx, techID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, techID, days); err != nil {
			s.logger.Warn("schedule cache write failed", "technician_id", techID, "error", err)
		}
	}
	return days, nil
}

// Book reserves a slot and creates a CONFIRMED appointment. The slot is
// re-validated against a fresh snapshot, and the day write carries a
// conditional guard, so losing a race surfaces as ErrSlotUnavailable.
func (s *Service) Book(ctx context.Context, client identity.User, in BookingInput) (Appointment, error) {
	ctx, span := bookingTracer.Start(ctx, "appointments.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("fixloop.client_id", client.ID),
		attribute.String("fixloop.technician_id", in.TechnicianID),
	)
	started := s.clock()

	if err := in.Validate(); err != nil {
		s.metrics.ObserveBooking("invalid")
		return Appointment{}, err
	}

	days, err := s.days.ListForTechnician(ctx, in.TechnicianID)
	if err != nil {
		span.RecordError(err)
		return Appointment{}, err
	}
	if !schedule.IsSlotAvailable(days, in.Date, in.Time) {
		s.metrics.ObserveBooking("slot_unavailable")
		return Appointment{}, ErrSlotUnavailable
	}

	tech, err := s.users.GetByID(ctx, in.TechnicianID)
	if err != nil {
		span.RecordError(err)
		return Appointment{}, err
	}

	_, updatedDay := schedule.SetSlotBooked(days, in.Date, in.Time, true)
	if updatedDay == nil {
		// Availability said yes but the day vanished from the snapshot;
		// treat as a lost race.
		s.metrics.ObserveBooking("slot_unavailable")
		return Appointment{}, ErrSlotUnavailable
	}

	prevSlots := slotsForDate(days, in.Date)
	if err := s.days.UpsertDay(ctx, in.TechnicianID, *updatedDay, prevSlots); err != nil {
		if errors.Is(err, schedule.ErrDayConflict) {
			s.metrics.ObserveBooking("slot_unavailable")
			return Appointment{}, ErrSlotUnavailable
		}
		span.RecordError(err)
		return Appointment{}, err
	}

	appt := New(client, tech, in.Date, in.Time, in.DeviceModel, in.Issue, s.clock())
	if err := s.store.Create(ctx, appt); err != nil {
		span.RecordError(err)
		s.revertSlot(ctx, in.TechnicianID, *updatedDay, in.Time)
		return Appointment{}, err
	}

	s.invalidateSchedule(ctx, in.TechnicianID)
	s.metrics.ObserveBooking("confirmed")
	s.metrics.ObserveLatency("book", s.clock().Sub(started).Seconds())
	s.publish(ctx, events.TypeBookingConfirmed, events.BookingConfirmedV1{
		AppointmentID:  appt.ID,
		ClientID:       client.ID,
		ClientName:     client.Name,
		ClientEmail:    client.Email,
		TechnicianID:   tech.ID,
		TechnicianName: tech.Name,
		Date:           appt.Date,
		Time:           appt.Time,
		DeviceModel:    appt.DeviceModel,
		OccurredAt:     appt.CreatedAt,
	})
	s.auditRecord(ctx, audit.EventBookingCreated, client, appt.ID, map[string]string{
		"date": appt.Date, "time": appt.Time, "device": appt.DeviceModel,
	})

	s.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"client_id", client.ID,
		"technician_id", tech.ID,
		"date", appt.Date,
		"time", appt.Time,
	)
	return appt, nil
}

// Cancel transitions an appointment to CANCELLED and frees its slot. Client
// cancellation is subject to the cancellation window; technicians and
// moderators bypass it.
func (s *Service) Cancel(ctx context.Context, actor identity.User, appointmentID, reason string) error {
	ctx, span := bookingTracer.Start(ctx, "appointments.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("fixloop.appointment_id", appointmentID))

	appt, err := s.store.GetByID(ctx, appointmentID)
	if err != nil {
		return err
	}
	if err := s.authorizeActor(actor, appt); err != nil {
		s.metrics.ObserveCancellation(string(actor.Role), "forbidden")
		return err
	}

	if actor.Role == identity.RoleClient {
		ok, err := CanClientCancel(appt.Date, appt.Time, s.clock(), s.cancelWindow)
		if err != nil {
			return err
		}
		if !ok {
			s.metrics.ObserveCancellation(string(actor.Role), "window_closed")
			return ErrCancelWindowClosed
		}
	}

	if err := s.store.UpdateStatus(ctx, appt.ID, StatusCancelled, reason); err != nil {
		span.RecordError(err)
		return err
	}
	s.freeSlot(ctx, appt.TechnicianID, appt.Date, appt.Time)
	s.invalidateSchedule(ctx, appt.TechnicianID)

	s.metrics.ObserveCancellation(string(actor.Role), "cancelled")
	s.publish(ctx, events.TypeBookingCancelled, events.BookingCancelledV1{
		AppointmentID: appt.ID,
		ClientID:      appt.ClientID,
		TechnicianID:  appt.TechnicianID,
		Date:          appt.Date,
		Time:          appt.Time,
		CancelledBy:   string(actor.Role),
		Reason:        reason,
		OccurredAt:    s.clock(),
	})
	s.auditRecord(ctx, audit.EventBookingCancelled, actor, appt.ID, map[string]string{"reason": reason})

	s.logger.Info("appointment cancelled",
		"appointment_id", appt.ID,
		"cancelled_by", actor.Role,
	)
	return nil
}

// UpdateStatus applies a status change requested by a participant or
// moderator. The lifecycle table on Status is deliberately not enforced
// here; only actor authorization and status validity are checked.
func (s *Service) UpdateStatus(ctx context.Context, actor identity.User, appointmentID string, status Status, reason string) error {
	if !status.Valid() {
		return ErrUnknownStatus
	}
	appt, err := s.store.GetByID(ctx, appointmentID)
	if err != nil {
		return err
	}
	if err := s.authorizeActor(actor, appt); err != nil {
		return err
	}
	if err := s.store.UpdateStatus(ctx, appt.ID, status, reason); err != nil {
		return err
	}
	s.auditRecord(ctx, audit.EventStatusOverride, actor, appt.ID, map[string]string{
		"from": string(appt.Status), "to": string(status), "reason": reason,
	})
	s.logger.Info("appointment status updated",
		"appointment_id", appt.ID,
		"from", appt.Status,
		"to", status,
		"actor_role", actor.Role,
	)
	return nil
}

// ToggleBlock flips the manual block on one of the technician's own slots.
// Booked state is untouched; blocking a booked slot is allowed and only
// affects future availability.
func (s *Service) ToggleBlock(ctx context.Context, tech identity.User, date, hhmm string) (*schedule.DaySchedule, error) {
	days, err := s.days.ListForTechnician(ctx, tech.ID)
	if err != nil {
		return nil, err
	}
	_, updatedDay := schedule.ToggleSlotBlock(days, date, hhmm)
	if updatedDay == nil {
		return nil, ErrSlotUnavailable
	}
	if err := s.days.UpsertDay(ctx, tech.ID, *updatedDay, slotsForDate(days, date)); err != nil {
		if errors.Is(err, schedule.ErrDayConflict) {
			return nil, ErrSlotUnavailable
		}
		return nil, err
	}
	s.invalidateSchedule(ctx, tech.ID)
	s.logger.Info("slot block toggled", "technician_id", tech.ID, "date", date, "time", hhmm)
	return updatedDay, nil
}

// ListForClient returns the actor's own appointments.
func (s *Service) ListForClient(ctx context.Context, clientID string) ([]Appointment, error) {
	return s.store.ListForClient(ctx, clientID)
}

// ListForTechnician returns a technician's appointments.
func (s *Service) ListForTechnician(ctx context.Context, techID string) ([]Appointment, error) {
	return s.store.ListForTechnician(ctx, techID)
}

// Get loads one appointment, authorizing the actor.
func (s *Service) Get(ctx context.Context, actor identity.User, appointmentID string) (Appointment, error) {
	appt, err := s.store.GetByID(ctx, appointmentID)
	if err != nil {
		return Appointment{}, err
	}
	if err := s.authorizeActor(actor, appt); err != nil {
		return Appointment{}, err
	}
	return appt, nil
}

func (s *Service) authorizeActor(actor identity.User, appt Appointment) error {
	if actor.IsModerator() {
		return nil
	}
	if actor.ID == appt.ClientID || actor.ID == appt.TechnicianID {
		return nil
	}
	return ErrForbidden
}

// freeSlot unbooks the appointment's slot. Failure here is logged and not
// returned: the cancellation already committed, and the slot can be fixed
// by the technician re-toggling it.
func (s *Service) freeSlot(ctx context.Context, techID, date, hhmm string) {
	days, err := s.days.ListForTechnician(ctx, techID)
	if err != nil {
		s.logger.Error("failed to load schedule while freeing slot", "technician_id", techID, "error", err)
		return
	}
	_, updatedDay := schedule.SetSlotBooked(days, date, hhmm, false)
	if updatedDay == nil {
		s.logger.Warn("cancelled appointment had no schedule day", "technician_id", techID, "date", date)
		return
	}
	if err := s.days.UpsertDay(ctx, techID, *updatedDay, slotsForDate(days, date)); err != nil {
		s.logger.Error("failed to free slot", "technician_id", techID, "date", date, "time", hhmm, "error", err)
	}
}

// revertSlot is the best-effort compensation when the appointment insert
// fails after the slot was already marked booked.
func (s *Service) revertSlot(ctx context.Context, techID string, bookedDay schedule.DaySchedule, hhmm string) {
	reverted, updated := schedule.SetSlotBooked([]schedule.DaySchedule{bookedDay}, bookedDay.Date, hhmm, false)
	if updated == nil {
		return
	}
	if err := s.days.UpsertDay(ctx, techID, reverted[0], bookedDay.Slots); err != nil {
		s.logger.Error("failed to revert slot after booking failure",
			"technician_id", techID, "date", bookedDay.Date, "time", hhmm, "error", err)
	}
}

func (s *Service) invalidateSchedule(ctx context.Context, techID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, techID); err != nil {
		s.logger.Warn("schedule cache invalidation failed", "technician_id", techID, "error", err)
	}
}

func (s *Service) publish(ctx context.Context, eventType string, payload any) {
	if s.outbox == nil {
		return
	}
	if _, err := s.outbox.Insert(ctx, eventType, payload); err != nil {
		s.logger.Error("failed to enqueue event", "type", eventType, "error", err)
	}
}

func (s *Service) auditRecord(ctx context.Context, eventType audit.EventType, actor identity.User, appointmentID string, details any) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Record(ctx, eventType, actor.ID, string(actor.Role), appointmentID, details); err != nil {
		s.logger.Error("audit write failed", "event_type", eventType, "error", err)
	}
}

func slotsForDate(days []schedule.DaySchedule, date string) []schedule.TimeSlot {
	for _, day := range days {
		if day.Date == date {
			return day.Slots
		}
	}
	return nil
}
