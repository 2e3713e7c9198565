package xp

import (
	"testing"

	"github.com/mmeshcher/petprogress-system/internal/model"
)

func TestVerifyWalk(t *testing.T) {
	tests := []struct {
		name         string
		stats        model.WalkStats
		wantVerified bool
		wantBonus    int
	}{
		{
			name:         "enough positions and distance",
			stats:        model.WalkStats{DistanceMeters: 600, PositionCount: 5},
			wantVerified: true,
			wantBonus:    6,
		},
		{
			name:         "exactly at thresholds",
			stats:        model.WalkStats{DistanceMeters: 50, PositionCount: 3},
			wantVerified: true,
			wantBonus:    0,
		},
		{
			name:         "too few positions",
			stats:        model.WalkStats{DistanceMeters: 600, PositionCount: 2},
			wantVerified: false,
		},
		{
			name:         "too short",
			stats:        model.WalkStats{DistanceMeters: 49, PositionCount: 10},
			wantVerified: false,
		},
		{
			name:         "empty stats",
			stats:        model.WalkStats{},
			wantVerified: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := VerifyWalk(tt.stats)
			if res.Verified != tt.wantVerified {
				t.Fatalf("Verified = %v, want %v", res.Verified, tt.wantVerified)
			}
			if res.DistanceBonus != tt.wantBonus {
				t.Fatalf("DistanceBonus = %d, want %d", res.DistanceBonus, tt.wantBonus)
			}
		})
	}
}

func TestVerifyWalk_SpeedNotChecked(t *testing.T) {
	// При начислении скорость не проверяется: явно нереальная прогулка
	// проходит, если точек и дистанции достаточно.
	stats := model.WalkStats{DistanceMeters: 10000, PositionCount: 5, DurationMinutes: 10}

	res := VerifyWalk(stats)
	if !res.Verified {
		t.Fatalf("grant-time verification must ignore speed")
	}
}

func TestPreviewWalk(t *testing.T) {
	tests := []struct {
		name         string
		stats        model.WalkStats
		wantVerified bool
	}{
		{
			name:         "plausible walk",
			stats:        model.WalkStats{DistanceMeters: 600, PositionCount: 5, DurationMinutes: 10},
			wantVerified: true,
		},
		{
			name:         "short walk skips speed check",
			stats:        model.WalkStats{DistanceMeters: 600, PositionCount: 5, DurationMinutes: 4},
			wantVerified: true,
		},
		{
			name:         "implausibly fast",
			stats:        model.WalkStats{DistanceMeters: 10000, PositionCount: 5, DurationMinutes: 10},
			wantVerified: false,
		},
		{
			name:         "implausibly slow",
			stats:        model.WalkStats{DistanceMeters: 60, PositionCount: 5, DurationMinutes: 30},
			wantVerified: false,
		},
		{
			name:         "zero duration",
			stats:        model.WalkStats{DistanceMeters: 600, PositionCount: 5},
			wantVerified: true,
		},
		{
			name:         "too few positions",
			stats:        model.WalkStats{DistanceMeters: 600, PositionCount: 1, DurationMinutes: 10},
			wantVerified: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, checks := PreviewWalk(tt.stats)
			if res.Verified != tt.wantVerified {
				t.Fatalf("Verified = %v, want %v (checks %+v)", res.Verified, tt.wantVerified, checks)
			}
		})
	}
}

func TestPreviewWalk_Checks(t *testing.T) {
	stats := model.WalkStats{DistanceMeters: 10000, PositionCount: 5, DurationMinutes: 10}

	_, checks := PreviewWalk(stats)
	if !checks.EnoughPositions {
		t.Fatalf("EnoughPositions must be true")
	}
	if !checks.EnoughDistance {
		t.Fatalf("EnoughDistance must be true")
	}
	if checks.SpeedPlausible {
		t.Fatalf("SpeedPlausible must be false at 1000 m/min")
	}
	if checks.AvgSpeedMpm != 1000 {
		t.Fatalf("AvgSpeedMpm = %v, want 1000", checks.AvgSpeedMpm)
	}
}

func TestPreviewWalk_StricterThanGrant(t *testing.T) {
	// Предпросмотр строже начисления: всё, что проходит предпросмотр,
	// проходит и проверку при начислении, но не наоборот.
	statsList := []model.WalkStats{
		{DistanceMeters: 600, PositionCount: 5, DurationMinutes: 10},
		{DistanceMeters: 10000, PositionCount: 5, DurationMinutes: 10},
		{DistanceMeters: 40, PositionCount: 5, DurationMinutes: 10},
		{DistanceMeters: 100, PositionCount: 2, DurationMinutes: 3},
	}

	for _, stats := range statsList {
		preview, _ := PreviewWalk(stats)
		grant := VerifyWalk(stats)
		if preview.Verified && !grant.Verified {
			t.Fatalf("stats %+v: preview verified but grant-time not", stats)
		}
	}
}
