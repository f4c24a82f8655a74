package scorer

import (
	"testing"
	"time"
)

func TestScoreZeroAccessIsZero(t *testing.T) {
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	created := now.Add(-48 * time.Hour)
	if got := Score(0, created, now); got != 0 {
		t.Errorf("Score() = %v, want 0", got)
	}
}

func TestScoreDecaysWithAge(t *testing.T) {
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	young := Score(10, now.Add(-1*24*time.Hour), now)
	old := Score(10, now.Add(-100*24*time.Hour), now)
	if young <= old {
		t.Errorf("young score %v should exceed old score %v for equal access counts", young, old)
	}
}

func TestScoreIncreasesWithAccessCount(t *testing.T) {
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	created := now.Add(-10 * 24 * time.Hour)
	low := Score(1, created, now)
	high := Score(20, created, now)
	if high <= low {
		t.Errorf("high access score %v should exceed low %v", high, low)
	}
}

func TestScoreClampsFutureCreatedAt(t *testing.T) {
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	// Should not panic or go negative/NaN; ageDays clamps to 0.
	got := Score(5, future, now)
	if got <= 0 {
		t.Errorf("Score() with future createdAt = %v, want > 0", got)
	}
}

func TestEffectiveDatePicksLatestDescendant(t *testing.T) {
	root := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	d1 := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	got := EffectiveDate(root, []time.Time{d1, d2})
	if !got.Equal(d2) {
		t.Errorf("EffectiveDate() = %v, want %v", got, d2)
	}
}

func TestEffectiveDateFallsBackToRoot(t *testing.T) {
	root := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	got := EffectiveDate(root, nil)
	if !got.Equal(root) {
		t.Errorf("EffectiveDate() = %v, want %v", got, root)
	}
}
