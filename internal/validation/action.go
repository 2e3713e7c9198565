// Package validation содержит функции валидации входных данных.
package validation

import "github.com/mmeshcher/petprogress-system/internal/model"

// IsValidAction проверяет, что тип действия входит в список известных.
func IsValidAction(kind model.ActionKind) bool {
	switch kind {
	case model.ActionMeal, model.ActionWalk, model.ActionPhoto,
		model.ActionTaskComplete, model.ActionAvatarTap, model.ActionAvatarBond:
		return true
	}
	return false
}

// IsValidWalkStats проверяет, что GPS-статистика прогулки не содержит
// отрицательных значений. Достоверность данных проверяется отдельно
// движком начисления.
func IsValidWalkStats(stats model.WalkStats) bool {
	return stats.DistanceMeters >= 0 &&
		stats.PositionCount >= 0 &&
		stats.DurationMinutes >= 0
}

// IsValidWalkMetadata проверяет метаданные действия walk.
func IsValidWalkMetadata(meta model.WalkMetadata) bool {
	if meta.DurationMinutes < 0 {
		return false
	}
	if meta.Stats != nil && !IsValidWalkStats(*meta.Stats) {
		return false
	}
	return true
}
