package moderation

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	dto "github.com/prometheus/client_model/go"

	"github.com/fixloop/fixloop-platform/internal/appointments"
	"github.com/fixloop/fixloop-platform/internal/audit"
	"github.com/fixloop/fixloop-platform/internal/events"
	"github.com/fixloop/fixloop-platform/internal/identity"
	"github.com/fixloop/fixloop-platform/pkg/logging"
)

type disputeBookings interface {
	Get(ctx context.Context, actor identity.User, appointmentID string) (appointments.Appointment, error)
	UpdateStatus(ctx context.Context, actor identity.User, appointmentID string, status appointments.Status, reason string) error
}

type disputeStore interface {
	DisputeQueue(ctx context.Context) ([]DisputedAppointment, error)
	Stats(ctx context.Context) (PlatformStats, error)
}

type eventSink interface {
	Insert(ctx context.Context, eventType string, payload any) (uuid.UUID, error)
}

type auditRecorder interface {
	Record(ctx context.Context, eventType audit.EventType, actorID, actorRole, appointmentID string, details any) error
}

type auditTrail interface {
	ListByAppointment(ctx context.Context, appointmentID string) ([]audit.Event, error)
}

type metricsGatherer interface {
	Gather() ([]*dto.MetricFamily, error)
}

// Service drives the moderator dashboard workflows.
type Service struct {
	store    disputeStore
	bookings disputeBookings
	outbox   eventSink
	auditor  auditRecorder
	trail    auditTrail
	exporter *Exporter
	gatherer metricsGatherer
	logger   *logging.Logger
	clock    func() time.Time
}

// ServiceConfig wires optional collaborators.
type ServiceConfig struct {
	Outbox   eventSink
	Auditor  auditRecorder
	Trail    auditTrail
	Exporter *Exporter
	Gatherer metricsGatherer
	Logger   *logging.Logger
	Clock    func() time.Time
}

func NewService(store disputeStore, bookings disputeBookings, cfg ServiceConfig) *Service {
	if store == nil {
		panic("moderation: store required")
	}
	if bookings == nil {
		panic("moderation: bookings required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		store:    store,
		bookings: bookings,
		outbox:   cfg.Outbox,
		auditor:  cfg.Auditor,
		trail:    cfg.Trail,
		exporter: cfg.Exporter,
		gatherer: cfg.Gatherer,
		logger:   logger,
		clock:    clock,
	}
}

// Queue lists open disputes, oldest first.
func (s *Service) Queue(ctx context.Context) ([]DisputedAppointment, error) {
	return s.store.DisputeQueue(ctx)
}

// Resolve closes a dispute as COMPLETED or CANCELLED, archives the record,
// and emits the resolution event.
func (s *Service) Resolve(ctx context.Context, moderator identity.User, appointmentID string, resolution appointments.Status, note string) error {
	if resolution != appointments.StatusCompleted && resolution != appointments.StatusCancelled {
		return appointments.ErrUnknownStatus
	}

	appt, err := s.bookings.Get(ctx, moderator, appointmentID)
	if err != nil {
		return err
	}
	if err := s.bookings.UpdateStatus(ctx, moderator, appointmentID, resolution, note); err != nil {
		return err
	}

	now := s.clock()
	if s.outbox != nil {
		_, err := s.outbox.Insert(ctx, events.TypeDisputeResolved, events.DisputeResolvedV1{
			AppointmentID: appointmentID,
			Resolution:    string(resolution),
			ModeratorID:   moderator.ID,
			Note:          note,
			OccurredAt:    now,
		})
		if err != nil {
			s.logger.Error("outbox write failed", "event_type", events.TypeDisputeResolved, "error", err)
		}
	}
	if s.auditor != nil {
		err := s.auditor.Record(ctx, audit.EventDisputeResolved, moderator.ID, string(moderator.Role), appointmentID, map[string]string{
			"resolution": string(resolution),
			"note":       note,
		})
		if err != nil {
			s.logger.Error("audit write failed", "event_type", audit.EventDisputeResolved, "error", err)
		}
	}
	if s.exporter.Enabled() {
		record := DisputeRecord{
			AppointmentID:  appointmentID,
			ClientID:       appt.ClientID,
			ClientName:     appt.ClientName,
			TechnicianID:   appt.TechnicianID,
			TechnicianName: appt.TechnicianName,
			Resolution:     string(resolution),
			Note:           note,
			ModeratorID:    moderator.ID,
			ResolvedAt:     now,
		}
		if err := s.exporter.Export(ctx, record); err != nil {
			s.logger.Error("dispute export failed", "appointment_id", appointmentID, "error", err)
		}
	}

	s.logger.Info("dispute resolved",
		"appointment_id", appointmentID,
		"resolution", resolution,
		"moderator_id", moderator.ID,
	)
	return nil
}

// AuditTrail returns the audit events recorded against an appointment,
// oldest first. Empty when the audit trail is disabled.
func (s *Service) AuditTrail(ctx context.Context, appointmentID string) ([]audit.Event, error) {
	if s.trail == nil {
		return nil, nil
	}
	return s.trail.ListByAppointment(ctx, appointmentID)
}

// StatsOverview is the stats endpoint payload: SQL aggregates plus a
// snapshot of the process counters.
type StatsOverview struct {
	PlatformStats
	Counters map[string]float64 `json:"counters,omitempty"`
}

// Stats merges database aggregates with a gathered snapshot of the
// platform's own Prometheus counters.
func (s *Service) Stats(ctx context.Context) (StatsOverview, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return StatsOverview{}, err
	}
	out := StatsOverview{PlatformStats: stats}

	if s.gatherer != nil {
		families, err := s.gatherer.Gather()
		if err != nil {
			s.logger.Warn("metrics gather failed", "error", err)
			return out, nil
		}
		out.Counters = counterSnapshot(families)
	}
	return out, nil
}

// counterSnapshot sums counter families by metric name, keeping only the
// platform's own metrics.
func counterSnapshot(families []*dto.MetricFamily) map[string]float64 {
	snapshot := map[string]float64{}
	for _, family := range families {
		name := family.GetName()
		if !strings.HasPrefix(name, "fixloop_") || family.GetType() != dto.MetricType_COUNTER {
			continue
		}
		var total float64
		for _, m := range family.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		snapshot[name] = total
	}
	return snapshot
}
