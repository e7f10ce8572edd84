package appointments

import (
	"testing"
	"time"
)

func TestCanClientCancelBoundary(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)

	tests := []struct {
		name string
		date string
		hhmm string
		want bool
	}{
		{"exactly 24h ahead is cancellable", "2024-03-02", "10:00", true},
		{"23h59m ahead is not", "2024-03-02", "09:59", false},
		{"well ahead", "2024-03-10", "08:00", true},
		{"in the past", "2024-02-28", "10:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanClientCancel(tt.date, tt.hhmm, now, DefaultCancelWindow)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("CanClientCancel(%s %s) = %v, want %v", tt.date, tt.hhmm, got, tt.want)
			}
		})
	}
}

func TestCanClientCancelCustomWindow(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)
	got, err := CanClientCancel("2024-03-01", "13:00", now, 2*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got {
		t.Fatal("3h ahead with a 2h window should be cancellable")
	}
}

func TestCanClientCancelMalformedInput(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)
	if _, err := CanClientCancel("03/02/2024", "10:00", now, DefaultCancelWindow); err == nil {
		t.Fatal("expected error for malformed date")
	}
	if _, err := CanClientCancel("2024-03-02", "25:99", now, DefaultCancelWindow); err == nil {
		t.Fatal("expected error for malformed time")
	}
}

func TestScheduledAtLocalWallClock(t *testing.T) {
	at, err := ScheduledAt("2024-03-02", "10:30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if at.Hour() != 10 || at.Minute() != 30 {
		t.Fatalf("expected 10:30 wall clock, got %s", at)
	}
	if at.Location() != time.Local {
		t.Fatalf("expected local timezone, got %s", at.Location())
	}
}
