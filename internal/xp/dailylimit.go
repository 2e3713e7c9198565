package xp

import (
	"fmt"

	"github.com/mmeshcher/petprogress-system/internal/model"
)

// Дневные лимиты на количество действий и суммарный опыт.
const (
	maxDailyMeals  = 10
	maxDailyWalks  = 5
	maxDailyPhotos = 20

	// MaxDailyXP — суммарный потолок опыта за календарные сутки UTC.
	MaxDailyXP = 500
)

// DailyLimitError возвращается при превышении дневного лимита.
// Scope содержит либо тип действия, либо "total_xp" для суммарного потолка.
type DailyLimitError struct {
	Scope string
	Limit int
}

func (e *DailyLimitError) Error() string {
	return fmt.Sprintf("daily limit reached: %s (limit %d)", e.Scope, e.Limit)
}

// RollCounters возвращает действующие дневные счётчики: сохранённые, если
// запись относится к сегодняшнему дню, иначе нулевые. Сохранённая запись
// при этом не изменяется — перенос фиксируется только при записи.
func RollCounters(record *model.ProgressRecord, today string) model.DailyCounters {
	if record.LastXPDate != today {
		return model.DailyCounters{}
	}
	return record.Daily
}

// CheckActionLimit проверяет дневной лимит на количество действий данного
// типа ДО вычисления опыта. Превышение — терминальная ошибка, запрос
// отклоняется целиком без частичного начисления.
func CheckActionLimit(counters model.DailyCounters, kind model.ActionKind) *DailyLimitError {
	switch kind {
	case model.ActionMeal:
		if counters.Meals >= maxDailyMeals {
			return &DailyLimitError{Scope: string(kind), Limit: maxDailyMeals}
		}
	case model.ActionWalk:
		if counters.Walks >= maxDailyWalks {
			return &DailyLimitError{Scope: string(kind), Limit: maxDailyWalks}
		}
	case model.ActionPhoto:
		if counters.Photos >= maxDailyPhotos {
			return &DailyLimitError{Scope: string(kind), Limit: maxDailyPhotos}
		}
	}
	// task_complete, avatar_tap и avatar_bond ограничены только суммарным потолком.
	return nil
}

// ClampToDailyXP ограничивает дельту суммарным дневным потолком ПОСЛЕ
// вычисления опыта. Если после усечения дельта равна нулю, возвращается
// ошибка лимита и опыт не начисляется.
func ClampToDailyXP(counters model.DailyCounters, delta int) (int, *DailyLimitError) {
	if counters.XP+delta <= MaxDailyXP {
		return delta, nil
	}

	clamped := MaxDailyXP - counters.XP
	if clamped < 0 {
		clamped = 0
	}
	if clamped == 0 {
		return 0, &DailyLimitError{Scope: "total_xp", Limit: MaxDailyXP}
	}
	return clamped, nil
}
