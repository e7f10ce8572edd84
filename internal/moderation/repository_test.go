package moderation

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestDisputeQueueScansRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := NewRepository(mock)

	created := time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{
		"id", "client_id", "client_name", "technician_id", "technician_name",
		"date", "time", "device_model", "issue", "status_reason", "created_at",
	}).AddRow("appt-1", "client-1", "Ada Chen", "tech-1", "Bo Reyes",
		"2024-03-18", "10:00", "Pixel 8", "screen flicker", "repair disputed", created)
	mock.ExpectQuery("SELECT (.+) FROM appointments").WillReturnRows(rows)

	queue, err := repo.DisputeQueue(context.Background())
	if err != nil {
		t.Fatalf("queue read failed: %v", err)
	}
	if len(queue) != 1 || queue[0].Reason != "repair disputed" {
		t.Fatalf("unexpected queue %+v", queue)
	}
}

func TestStatsAggregates(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := NewRepository(mock)

	statusRows := pgxmock.NewRows([]string{"status", "count"}).
		AddRow("CONFIRMED", 5).
		AddRow("DISPUTED", 2)
	mock.ExpectQuery("SELECT status, COUNT").WillReturnRows(statusRows)

	reviewRows := pgxmock.NewRows([]string{"count", "avg"}).AddRow(7, 4.2)
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(reviewRows)

	stats, err := repo.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats read failed: %v", err)
	}
	if stats.OpenDisputes != 2 || stats.TotalReviews != 7 || stats.AverageRating != 4.2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}
