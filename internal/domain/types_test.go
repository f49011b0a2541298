package domain

import (
	"testing"
	"time"
)

func TestSeverityFor(t *testing.T) {
	cases := []struct {
		used float64
		want Severity
	}{
		{0, SeverityOK},
		{69.9, SeverityOK},
		{70, SeverityElevated},
		{90, SeverityCritical},
		{100, SeverityLimit},
	}
	for _, tc := range cases {
		if got := SeverityFor(tc.used); got != tc.want {
			t.Fatalf("used %v: expected %v, got %v", tc.used, tc.want, got)
		}
	}
}

func TestSnapshotSeverityTakesWorstWindow(t *testing.T) {
	snapshot := Snapshot{
		Primary:   &Window{UsedPercent: Float64Ptr(12)},
		Secondary: &Window{UsedPercent: Float64Ptr(91)},
	}
	if got := snapshot.Severity(); got != SeverityCritical {
		t.Fatalf("expected critical, got %v", got)
	}
}

func TestSnapshotSeverityHonorsLimitFlag(t *testing.T) {
	snapshot := Snapshot{
		Primary:      &Window{UsedPercent: Float64Ptr(5)},
		LimitReached: true,
	}
	if got := snapshot.Severity(); got != SeverityLimit {
		t.Fatalf("expected limit, got %v", got)
	}
}

func TestResetTimePrefersRelativeSeconds(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	after := int64(3600)
	epoch := now.Add(9 * time.Hour).Unix()

	got := ResetTime(now, &after, &epoch)
	if got == nil || !got.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected reset time %v", got)
	}

	got = ResetTime(now, nil, &epoch)
	if got == nil || !got.Equal(now.Add(9*time.Hour)) {
		t.Fatalf("unexpected reset time %v", got)
	}

	if got := ResetTime(now, nil, nil); got != nil {
		t.Fatalf("expected nil reset time, got %v", got)
	}
}
