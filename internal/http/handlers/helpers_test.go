package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fixloop/fixloop-platform/internal/appointments"
	"github.com/fixloop/fixloop-platform/internal/http/middleware"
	"github.com/fixloop/fixloop-platform/internal/identity"
	"github.com/fixloop/fixloop-platform/internal/reviews"
	"github.com/fixloop/fixloop-platform/internal/schedule"
)

// In-memory fakes shared by the handler tests. They satisfy the narrow
// store interfaces the services consume.

type fakeApptStore struct {
	byID    map[string]appointments.Appointment
	created []appointments.Appointment
}

func (f *fakeApptStore) Create(_ context.Context, a appointments.Appointment) error {
	f.created = append(f.created, a)
	f.byID[a.ID] = a
	return nil
}

func (f *fakeApptStore) GetByID(_ context.Context, id string) (appointments.Appointment, error) {
	a, ok := f.byID[id]
	if !ok {
		return appointments.Appointment{}, appointments.ErrNotFound
	}
	return a, nil
}

func (f *fakeApptStore) UpdateStatus(_ context.Context, id string, status appointments.Status, _ string) error {
	a, ok := f.byID[id]
	if !ok {
		return appointments.ErrNotFound
	}
	a.Status = status
	f.byID[id] = a
	return nil
}

func (f *fakeApptStore) ListForClient(_ context.Context, clientID string) ([]appointments.Appointment, error) {
	var out []appointments.Appointment
	for _, a := range f.byID {
		if a.ClientID == clientID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeApptStore) ListForTechnician(_ context.Context, techID string) ([]appointments.Appointment, error) {
	var out []appointments.Appointment
	for _, a := range f.byID {
		if a.TechnicianID == techID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeApptStore) ListByParticipants(_ context.Context, clientID, techID string) ([]appointments.Appointment, error) {
	var out []appointments.Appointment
	for _, a := range f.byID {
		if a.ClientID == clientID && a.TechnicianID == techID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeDayStore struct {
	days map[string][]schedule.DaySchedule
}

func (f *fakeDayStore) ListForTechnician(_ context.Context, techID string) ([]schedule.DaySchedule, error) {
	return f.days[techID], nil
}

func (f *fakeDayStore) UpsertDay(_ context.Context, techID string, day schedule.DaySchedule, _ []schedule.TimeSlot) error {
	list := f.days[techID]
	for i := range list {
		if list[i].Date == day.Date {
			list[i] = day
			return nil
		}
	}
	f.days[techID] = append(list, day)
	return nil
}

type fakeUsers struct {
	users map[string]identity.User
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (identity.User, error) {
	u, ok := f.users[id]
	if !ok {
		return identity.User{}, identity.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) ListTechnicians(_ context.Context) ([]identity.User, error) {
	var out []identity.User
	for _, u := range f.users {
		if u.Role == identity.RoleTechnician {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeReviewStore struct {
	byID map[string]reviews.Review
}

func (f *fakeReviewStore) Create(_ context.Context, rv reviews.Review) error {
	f.byID[rv.ID] = rv
	return nil
}

func (f *fakeReviewStore) GetByID(_ context.Context, id string) (reviews.Review, error) {
	rv, ok := f.byID[id]
	if !ok {
		return reviews.Review{}, reviews.ErrNotFound
	}
	return rv, nil
}

func (f *fakeReviewStore) Update(_ context.Context, id string, rating int, comment string, tags []string, now time.Time) error {
	rv, ok := f.byID[id]
	if !ok {
		return reviews.ErrNotFound
	}
	rv.Rating, rv.Comment, rv.Tags, rv.UpdatedAt = rating, comment, tags, now
	f.byID[id] = rv
	return nil
}

func (f *fakeReviewStore) SetReply(_ context.Context, id, text string, now time.Time) error {
	rv, ok := f.byID[id]
	if !ok {
		return reviews.ErrNotFound
	}
	rv.Reply = &reviews.Reply{Text: text, CreatedAt: now}
	f.byID[id] = rv
	return nil
}

func (f *fakeReviewStore) SoftDelete(_ context.Context, id string, now time.Time) error {
	rv, ok := f.byID[id]
	if !ok {
		return reviews.ErrNotFound
	}
	rv.DeletedAt = &now
	f.byID[id] = rv
	return nil
}

func (f *fakeReviewStore) ListForTechnician(_ context.Context, techID string) ([]reviews.Review, error) {
	var out []reviews.Review
	for _, rv := range f.byID {
		if rv.TechnicianID == techID && rv.DeletedAt == nil {
			out = append(out, rv)
		}
	}
	return out, nil
}

func (f *fakeReviewStore) ListByPair(_ context.Context, clientID, techID string) ([]reviews.Review, error) {
	var out []reviews.Review
	for _, rv := range f.byID {
		if rv.ClientID == clientID && rv.TechnicianID == techID && rv.DeletedAt == nil {
			out = append(out, rv)
		}
	}
	return out, nil
}

var (
	handlerClient = identity.User{ID: "client-1", Name: "Ada Chen", Email: "ada@example.com", Role: identity.RoleClient}
	handlerTech   = identity.User{ID: "tech-1", Name: "Bo Reyes", Email: "bo@example.com", Role: identity.RoleTechnician}
)

func handlerClock() func() time.Time {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)
	return func() time.Time { return now }
}

type fixture struct {
	appts   *fakeApptStore
	days    *fakeDayStore
	users   *fakeUsers
	revs    *fakeReviewStore
	booking *appointments.Service
	reviews *reviews.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	appts := &fakeApptStore{byID: map[string]appointments.Appointment{}}
	days := &fakeDayStore{days: map[string][]schedule.DaySchedule{
		"tech-1": {{
			Date: "2024-03-05",
			Slots: []schedule.TimeSlot{
				{ID: "s1", Time: "10:00"},
				{ID: "s2", Time: "11:00", Booked: true},
			},
		}},
	}}
	users := &fakeUsers{users: map[string]identity.User{
		"client-1": handlerClient,
		"tech-1":   handlerTech,
	}}
	revs := &fakeReviewStore{byID: map[string]reviews.Review{}}

	booking := appointments.NewService(appts, days, users, appointments.ServiceConfig{Clock: handlerClock()})
	reviewSvc := reviews.NewService(revs, appts, reviews.ServiceConfig{Clock: handlerClock()})

	return &fixture{appts: appts, days: days, users: users, revs: revs, booking: booking, reviews: reviewSvc}
}

// doRequest runs a handler func with chi URL params and an authenticated
// identity already in context, mirroring what the router middleware does.
func doRequest(t *testing.T, handler http.HandlerFunc, method, target, body string, user *identity.User, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if user != nil {
		ctx = middleware.WithIdentity(ctx, *user)
	}
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}
