package reviews

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *Repository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock, NewRepository(mock)
}

func TestRepositoryCreate(t *testing.T) {
	mock, repo := newMockRepo(t)

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	rv := Review{
		ID: "rv-1", ClientID: "client-1", ClientName: "Ada Chen", TechnicianID: "tech-1",
		Rating: 5, Comment: "fast turnaround", Tags: []string{"screen"},
		CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectExec("INSERT INTO reviews").
		WithArgs("rv-1", "client-1", "Ada Chen", "tech-1", 5, "fast turnaround", []string{"screen"}, now, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), rv); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func reviewRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "client_id", "client_name", "technician_id", "rating", "comment", "tags",
		"reply_text", "reply_at", "created_at", "updated_at", "deleted_at",
	})
}

func TestRepositoryGetByIDHydratesReply(t *testing.T) {
	mock, repo := newMockRepo(t)

	created := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	replyAt := created.Add(2 * time.Hour)
	text := "glad it worked out"

	mock.ExpectQuery("SELECT (.+) FROM reviews WHERE id").
		WithArgs("rv-1").
		WillReturnRows(reviewRows().AddRow(
			"rv-1", "client-1", "Ada Chen", "tech-1", 5, "fast turnaround", []string{"screen"},
			&text, &replyAt, created, created, nil,
		))

	rv, err := repo.GetByID(context.Background(), "rv-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if rv.Reply == nil || rv.Reply.Text != text {
		t.Fatalf("expected hydrated reply, got %+v", rv.Reply)
	}
}

func TestRepositoryGetByIDNotFound(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM reviews WHERE id").
		WithArgs("missing").
		WillReturnRows(reviewRows())

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRepositoryUpdateSkipsDeletedRows(t *testing.T) {
	mock, repo := newMockRepo(t)

	now := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE reviews").
		WithArgs("rv-1", 4, "still good", []string{"battery"}, now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), "rv-1", 4, "still good", []string{"battery"}, now)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound when row is gone or deleted", err)
	}
}

func TestRepositorySoftDelete(t *testing.T) {
	mock, repo := newMockRepo(t)

	now := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE reviews").
		WithArgs("rv-1", now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.SoftDelete(context.Background(), "rv-1", now); err != nil {
		t.Fatalf("soft delete failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRepositoryListForTechnicianExcludesDeleted(t *testing.T) {
	mock, repo := newMockRepo(t)

	created := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM reviews WHERE technician_id").
		WithArgs("tech-1").
		WillReturnRows(reviewRows().
			AddRow("rv-2", "client-2", "Ben Ito", "tech-1", 4, "", []string{}, nil, nil, created.Add(time.Hour), created.Add(time.Hour), nil).
			AddRow("rv-1", "client-1", "Ada Chen", "tech-1", 5, "fast", []string{}, nil, nil, created, created, nil))

	list, err := repo.ListForTechnician(context.Background(), "tech-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(list))
	}
	if list[0].ID != "rv-2" {
		t.Fatalf("expected newest first, got %s", list[0].ID)
	}
}
