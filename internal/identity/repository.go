package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("identity: user not found")

type dbtx interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository reads users from Postgres.
type Repository struct {
	db dbtx
}

func NewRepository(db dbtx) *Repository {
	if db == nil {
		panic("identity: db required")
	}
	return &Repository{db: db}
}

// GetByID loads a single user.
func (r *Repository) GetByID(ctx context.Context, id string) (User, error) {
	query := `
		SELECT id, name, email, role
		FROM users
		WHERE id = $1
	`
	var u User
	err := r.db.QueryRow(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email, &u.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("identity: get user: %w", err)
	}
	return u, nil
}

// ListTechnicians returns every user with the technician role, for the
// browse surface.
func (r *Repository) ListTechnicians(ctx context.Context) ([]User, error) {
	query := `
		SELECT id, name, email, role
		FROM users
		WHERE role = 'technician'
		ORDER BY name
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("identity: list technicians: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role); err != nil {
			return nil, fmt.Errorf("identity: scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
