package reviews

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fixloop/fixloop-platform/internal/appointments"
	"github.com/fixloop/fixloop-platform/internal/audit"
	"github.com/fixloop/fixloop-platform/internal/identity"
	"github.com/fixloop/fixloop-platform/internal/observability/metrics"
	"github.com/fixloop/fixloop-platform/pkg/logging"
)

var reviewsTracer = otel.Tracer("fixloop.internal.reviews")

type reviewStore interface {
	Create(ctx context.Context, rv Review) error
	GetByID(ctx context.Context, id string) (Review, error)
	Update(ctx context.Context, id string, rating int, comment string, tags []string, now time.Time) error
	SetReply(ctx context.Context, id, text string, now time.Time) error
	SoftDelete(ctx context.Context, id string, now time.Time) error
	ListForTechnician(ctx context.Context, techID string) ([]Review, error)
	ListByPair(ctx context.Context, clientID, techID string) ([]Review, error)
}

type appointmentLister interface {
	ListByParticipants(ctx context.Context, clientID, techID string) ([]appointments.Appointment, error)
}

type auditRecorder interface {
	Record(ctx context.Context, eventType audit.EventType, actorID, actorRole, appointmentID string, details any) error
}

// Service gates review creation and owns the review lifecycle.
type Service struct {
	store   reviewStore
	appts   appointmentLister
	auditor auditRecorder
	metrics *metrics.BookingMetrics
	logger  *logging.Logger
	clock   func() time.Time
}

// ServiceConfig wires optional collaborators.
type ServiceConfig struct {
	Auditor auditRecorder
	Metrics *metrics.BookingMetrics
	Logger  *logging.Logger
	Clock   func() time.Time
}

func NewService(store reviewStore, appts appointmentLister, cfg ServiceConfig) *Service {
	if store == nil {
		panic("reviews: store required")
	}
	if appts == nil {
		panic("reviews: appointment lister required")
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
		store:   store,
		appts:   appts,
		auditor: cfg.Auditor,
		metrics: cfg.Metrics,
		logger:  logger,
		clock:   clock,
	}
}

// Create runs the eligibility gate and, when allowed, stores a new review.
// A denied eligibility is returned as a value with a user-displayable
// reason, not as an error.
func (s *Service) Create(ctx context.Context, client identity.User, techID string, rating int, comment string, tags []string) (Review, Eligibility, error) {
	ctx, span := reviewsTracer.Start(ctx, "reviews.create")
	defer span.End()
	span.SetAttributes(
		attribute.String("fixloop.client_id", client.ID),
		attribute.String("fixloop.technician_id", techID),
	)

	if rating < 1 || rating > 5 {
		return Review{}, Eligibility{}, ErrInvalidRating
	}

	history, err := s.appts.ListByParticipants(ctx, client.ID, techID)
	if err != nil {
		span.RecordError(err)
		return Review{}, Eligibility{}, err
	}
	existing, err := s.store.ListByPair(ctx, client.ID, techID)
	if err != nil {
		span.RecordError(err)
		return Review{}, Eligibility{}, err
	}

	elig := ValidateEligibility(history, existing, client.ID, techID)
	if !elig.Allowed {
		s.metrics.ObserveReview("denied")
		return Review{}, elig, nil
	}

	rv := New(client, techID, rating, comment, tags, s.clock())
	if err := s.store.Create(ctx, rv); err != nil {
		span.RecordError(err)
		return Review{}, Eligibility{}, err
	}

	s.metrics.ObserveReview("created")
	s.logger.Info("review created", "review_id", rv.ID, "client_id", client.ID, "technician_id", techID, "rating", rating)
	return rv, elig, nil
}

// Edit lets the owning client change rating, comment, and tags.
func (s *Service) Edit(ctx context.Context, actor identity.User, reviewID string, rating int, comment string, tags []string) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	rv, err := s.store.GetByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if rv.ClientID != actor.ID {
		return ErrForbidden
	}
	return s.store.Update(ctx, reviewID, rating, comment, tags, s.clock())
}

// ReplyTo lets the reviewed technician attach one reply.
func (s *Service) ReplyTo(ctx context.Context, actor identity.User, reviewID, text string) error {
	rv, err := s.store.GetByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if rv.TechnicianID != actor.ID {
		return ErrForbidden
	}
	return s.store.SetReply(ctx, reviewID, text, s.clock())
}

// Delete soft-deletes the actor's own review. Moderators may remove any
// review during dispute resolution.
func (s *Service) Delete(ctx context.Context, actor identity.User, reviewID string) error {
	rv, err := s.store.GetByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if rv.ClientID != actor.ID && !actor.IsModerator() {
		return ErrForbidden
	}
	if err := s.store.SoftDelete(ctx, reviewID, s.clock()); err != nil {
		return err
	}
	if s.auditor != nil {
		if err := s.auditor.Record(ctx, audit.EventReviewSoftDeleted, actor.ID, string(actor.Role), "", map[string]string{
			"review_id": reviewID, "technician_id": rv.TechnicianID,
		}); err != nil {
			s.logger.Error("audit write failed", "event_type", audit.EventReviewSoftDeleted, "error", err)
		}
	}
	return nil
}

// RatingSummary is the browse-surface aggregate for one technician.
type RatingSummary struct {
	TechnicianID string   `json:"technician_id"`
	Average      float64  `json:"average"`
	Count        int      `json:"count"`
	Reviews      []Review `json:"reviews"`
}

// TechnicianSummary lists a technician's visible reviews with their mean
// rating, recomputed from scratch.
func (s *Service) TechnicianSummary(ctx context.Context, techID string) (RatingSummary, error) {
	list, err := s.store.ListForTechnician(ctx, techID)
	if err != nil {
		return RatingSummary{}, err
	}
	return RatingSummary{
		TechnicianID: techID,
		Average:      AverageRating(list),
		Count:        len(list),
		Reviews:      list,
	}, nil
}
