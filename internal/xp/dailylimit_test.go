package xp

import (
	"testing"

	"github.com/mmeshcher/petprogress-system/internal/model"
)

func TestRollCounters(t *testing.T) {
	rec := &model.ProgressRecord{
		Daily:      model.DailyCounters{XP: 120, Meals: 3, Walks: 1},
		LastXPDate: "2026-08-30",
	}

	same := RollCounters(rec, "2026-08-30")
	if same.XP != 120 || same.Meals != 3 {
		t.Fatalf("counters must be preserved for the same day: %+v", same)
	}

	rolled := RollCounters(rec, "2026-08-31")
	if rolled != (model.DailyCounters{}) {
		t.Fatalf("counters must be zero for a new day: %+v", rolled)
	}

	// Сохранённая запись не изменяется.
	if rec.Daily.XP != 120 {
		t.Fatalf("stored counters must not be mutated")
	}
}

func TestCheckActionLimit(t *testing.T) {
	tests := []struct {
		name     string
		counters model.DailyCounters
		kind     model.ActionKind
		wantErr  bool
		wantLim  int
	}{
		{name: "meal under cap", counters: model.DailyCounters{Meals: 9}, kind: model.ActionMeal},
		{name: "meal at cap", counters: model.DailyCounters{Meals: 10}, kind: model.ActionMeal, wantErr: true, wantLim: 10},
		{name: "walk under cap", counters: model.DailyCounters{Walks: 4}, kind: model.ActionWalk},
		{name: "walk at cap", counters: model.DailyCounters{Walks: 5}, kind: model.ActionWalk, wantErr: true, wantLim: 5},
		{name: "photo at cap", counters: model.DailyCounters{Photos: 20}, kind: model.ActionPhoto, wantErr: true, wantLim: 20},
		{name: "task has no cap", counters: model.DailyCounters{Tasks: 1000}, kind: model.ActionTaskComplete},
		{name: "tap has no cap", counters: model.DailyCounters{Taps: 1000}, kind: model.ActionAvatarTap},
		{name: "bond has no cap", counters: model.DailyCounters{Bonds: 1000}, kind: model.ActionAvatarBond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckActionLimit(tt.counters, tt.kind)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected limit error")
				}
				if err.Scope != string(tt.kind) {
					t.Fatalf("Scope = %q, want %q", err.Scope, tt.kind)
				}
				if err.Limit != tt.wantLim {
					t.Fatalf("Limit = %d, want %d", err.Limit, tt.wantLim)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestClampToDailyXP(t *testing.T) {
	tests := []struct {
		name      string
		dailyXP   int
		delta     int
		wantDelta int
		wantErr   bool
	}{
		{name: "under ceiling", dailyXP: 100, delta: 20, wantDelta: 20},
		{name: "exactly at ceiling", dailyXP: 480, delta: 20, wantDelta: 20},
		{name: "clamped", dailyXP: 490, delta: 20, wantDelta: 10},
		{name: "ceiling reached", dailyXP: 500, delta: 20, wantErr: true},
		{name: "zero delta at ceiling is allowed", dailyXP: 500, delta: 0, wantDelta: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delta, err := ClampToDailyXP(model.DailyCounters{XP: tt.dailyXP}, tt.delta)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected limit error")
				}
				if err.Scope != "total_xp" || err.Limit != MaxDailyXP {
					t.Fatalf("unexpected error contents: %+v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if delta != tt.wantDelta {
				t.Fatalf("delta = %d, want %d", delta, tt.wantDelta)
			}
		})
	}
}

func TestClampToDailyXP_NeverExceedsCeiling(t *testing.T) {
	for dailyXP := 0; dailyXP <= MaxDailyXP; dailyXP += 7 {
		for delta := 0; delta <= 100; delta += 13 {
			clamped, err := ClampToDailyXP(model.DailyCounters{XP: dailyXP}, delta)
			if err != nil {
				continue
			}
			if dailyXP+clamped > MaxDailyXP {
				t.Fatalf("dailyXP %d + clamped %d exceeds %d", dailyXP, clamped, MaxDailyXP)
			}
		}
	}
}
