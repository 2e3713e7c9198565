package xp

import "github.com/mmeshcher/petprogress-system/internal/model"

// Базовые значения опыта за действия.
const (
	xpMeal         = 15
	xpPhoto        = 20
	xpTaskComplete = 10
	xpAvatarTap    = 5
	xpAvatarBond   = 10

	// maxWalkMinutes ограничивает зачитываемую длительность прогулки.
	maxWalkMinutes = 60

	// maxActionXP — глобальный потолок опыта за одно действие любого типа.
	maxActionXP = 100
)

// ComputeDelta вычисляет количество опыта за действие. Для прогулок с
// GPS-статистикой выполняется проверка подлинности: неподтверждённая
// прогулка получает половину опыта, подтверждённая — бонус за дистанцию.
// Возвращает дельту опыта и признак подтверждения для записи в аудит.
func ComputeDelta(kind model.ActionKind, walk *model.WalkMetadata) (int, bool) {
	var delta int
	verified := false

	switch kind {
	case model.ActionMeal:
		delta = xpMeal
	case model.ActionPhoto:
		delta = xpPhoto
	case model.ActionTaskComplete:
		delta = xpTaskComplete
	case model.ActionAvatarTap:
		delta = xpAvatarTap
	case model.ActionAvatarBond:
		delta = xpAvatarBond
	case model.ActionWalk:
		minutes := 0
		if walk != nil {
			minutes = walk.DurationMinutes
		}
		if minutes > maxWalkMinutes {
			minutes = maxWalkMinutes
		}
		if minutes < 0 {
			minutes = 0
		}
		delta = minutes

		if walk != nil && walk.Stats != nil {
			res := VerifyWalk(*walk.Stats)
			verified = res.Verified
			if verified {
				delta += res.DistanceBonus
			} else {
				delta = delta / 2
			}
		}
	}

	if delta > maxActionXP {
		delta = maxActionXP
	}

	return delta, verified
}
