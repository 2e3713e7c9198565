// Package xp реализует движок начисления опыта: подсчёт очков,
// проверку подлинности прогулок, дневные лимиты и расчёт уровней.
package xp

import "github.com/mmeshcher/petprogress-system/internal/model"

// Пороговые значения проверки подлинности прогулки по GPS-данным.
const (
	minWalkPositions = 3
	minWalkDistance  = 50.0 // метров
	minWalkSpeedMpm  = 20.0 // метров в минуту
	maxWalkSpeedMpm  = 150.0
)

// VerificationResult содержит результат проверки прогулки при начислении опыта.
type VerificationResult struct {
	Verified      bool
	DistanceBonus int
}

// VerificationChecks содержит результаты отдельных проверок для предпросмотра.
type VerificationChecks struct {
	EnoughPositions bool    `json:"enoughPositions"`
	EnoughDistance  bool    `json:"enoughDistance"`
	SpeedPlausible  bool    `json:"speedPlausible"`
	AvgSpeedMpm     float64 `json:"avgSpeedMpm"`
}

// VerifyWalk проверяет прогулку по правилам начисления: достаточно ли
// GPS-точек и пройденной дистанции. Скорость на этом пути не проверяется —
// расхождение с предпросмотром сохранено намеренно (см. DESIGN.md).
func VerifyWalk(stats model.WalkStats) VerificationResult {
	verified := stats.PositionCount >= minWalkPositions &&
		stats.DistanceMeters >= minWalkDistance

	bonus := 0
	if verified {
		bonus = int(stats.DistanceMeters / 100)
	}

	return VerificationResult{
		Verified:      verified,
		DistanceBonus: bonus,
	}
}

// PreviewWalk проверяет прогулку по правилам предпросмотра: помимо точек и
// дистанции, для прогулок длительностью от 5 минут средняя скорость должна
// попадать в правдоподобный диапазон.
func PreviewWalk(stats model.WalkStats) (VerificationResult, VerificationChecks) {
	avgSpeed := 0.0
	if stats.DurationMinutes > 0 {
		avgSpeed = stats.DistanceMeters / float64(stats.DurationMinutes)
	}

	checks := VerificationChecks{
		EnoughPositions: stats.PositionCount >= minWalkPositions,
		EnoughDistance:  stats.DistanceMeters >= minWalkDistance,
		SpeedPlausible:  stats.DurationMinutes < 5 || (avgSpeed >= minWalkSpeedMpm && avgSpeed <= maxWalkSpeedMpm),
		AvgSpeedMpm:     avgSpeed,
	}

	verified := checks.EnoughPositions && checks.EnoughDistance && checks.SpeedPlausible

	bonus := 0
	if verified {
		bonus = int(stats.DistanceMeters / 100)
	}

	return VerificationResult{Verified: verified, DistanceBonus: bonus}, checks
}
