// Package model содержит доменные сущности сервиса прогресса питомцев.
package model

import (
	"encoding/json"
	"time"
)

// Pet представляет профиль питомца, принадлежащий пользователю.
type Pet struct {
	ID        int64
	OwnerID   int64
	Name      string
	Breed     string
	CreatedAt time.Time
}

// ActionKind описывает тип действия по уходу за питомцем, за которое начисляется опыт.
type ActionKind string

const (
	ActionMeal         ActionKind = "meal"
	ActionWalk         ActionKind = "walk"
	ActionPhoto        ActionKind = "photo"
	ActionTaskComplete ActionKind = "task_complete"
	ActionAvatarTap    ActionKind = "avatar_tap"
	ActionAvatarBond   ActionKind = "avatar_bond"
)

// WalkStats содержит GPS-статистику прогулки, присланную клиентом.
// Значения не считаются достоверными до серверной проверки.
type WalkStats struct {
	DistanceMeters  float64 `json:"distanceMeters"`
	PositionCount   int     `json:"positionCount"`
	DurationMinutes int     `json:"durationMinutes"`
}

// WalkMetadata содержит метаданные действия walk: длительность и GPS-статистику.
type WalkMetadata struct {
	DurationMinutes int        `json:"durationMinutes"`
	Stats           *WalkStats `json:"walkStats,omitempty"`
}

// DailyCounters содержит дневные счётчики действий и опыта.
// Счётчики действительны только когда LastXPDate равна текущей дате UTC,
// иначе трактуются как нулевые.
type DailyCounters struct {
	XP     int `json:"dailyXP"`
	Meals  int `json:"dailyMeals"`
	Walks  int `json:"dailyWalks"`
	Photos int `json:"dailyPhotos"`
	Tasks  int `json:"dailyTasks"`
	Taps   int `json:"dailyTaps"`
	Bonds  int `json:"dailyBonds"`
}

// ProgressRecord описывает накопленный прогресс одного питомца.
type ProgressRecord struct {
	Level          int
	CurrentXP      int
	XPForNextLevel int
	TotalXP        int
	Daily          DailyCounters
	LastXPDate     string // дата UTC в формате "2006-01-02"; пустая строка для нового профиля
	LastXPAction   ActionKind
	Streak         int
}

// NewProgressRecord возвращает начальное состояние прогресса для нового питомца.
func NewProgressRecord() *ProgressRecord {
	return &ProgressRecord{
		Level:          1,
		XPForNextLevel: 1000,
	}
}

// AuditEntry описывает неизменяемую запись о начислении опыта.
// Создаётся ровно один раз на успешное начисление и никогда не изменяется.
type AuditEntry struct {
	ID        int64
	PetID     int64
	Action    ActionKind
	XPAdded   int
	Metadata  json.RawMessage
	Verified  bool
	CreatedAt time.Time
}

// GrantResult возвращается клиенту после успешного начисления опыта.
type GrantResult struct {
	XPAdded        int  `json:"xpAdded"`
	NewXP          int  `json:"newXP"`
	NewLevel       int  `json:"newLevel"`
	XPForNextLevel int  `json:"xpForNextLevel"`
	LeveledUp      bool `json:"leveledUp"`
	DailyRemaining int  `json:"dailyRemaining"`
}

// StatusResult содержит проекцию прогресса для отображения клиенту.
type StatusResult struct {
	Level          int `json:"level"`
	CurrentXP      int `json:"currentXP"`
	XPForNextLevel int `json:"xpForNextLevel"`
	TotalXP        int `json:"totalXP"`
	DailyXP        int `json:"dailyXP"`
	DailyRemaining int `json:"dailyRemaining"`
	Streak         int `json:"streak"`
}
