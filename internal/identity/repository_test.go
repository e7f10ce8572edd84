package identity

import (
	"context"
	"errors"
	"testing"

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

func TestGetByID(t *testing.T) {
	mock, repo := newMockRepo(t)

	rows := pgxmock.NewRows([]string{"id", "name", "email", "role"}).
		AddRow("user-1", "Ada Chen", "ada@example.com", string(RoleClient))
	mock.ExpectQuery("SELECT id, name, email, role").
		WithArgs("user-1").
		WillReturnRows(rows)

	u, err := repo.GetByID(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if u.Name != "Ada Chen" || u.Role != RoleClient {
		t.Fatalf("unexpected user: %+v", u)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery("SELECT id, name, email, role").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "role"}))

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestListTechnicians(t *testing.T) {
	mock, repo := newMockRepo(t)

	rows := pgxmock.NewRows([]string{"id", "name", "email", "role"}).
		AddRow("tech-1", "Marcus Webb", "marcus@example.com", string(RoleTechnician)).
		AddRow("tech-2", "Priya Nair", "priya@example.com", string(RoleTechnician))
	mock.ExpectQuery("SELECT id, name, email, role").
		WillReturnRows(rows)

	techs, err := repo.ListTechnicians(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(techs) != 2 {
		t.Fatalf("expected 2 technicians, got %d", len(techs))
	}
	if techs[0].ID != "tech-1" || techs[1].Name != "Priya Nair" {
		t.Fatalf("unexpected technicians: %+v", techs)
	}
}
