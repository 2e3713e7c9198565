package xp

import "github.com/mmeshcher/petprogress-system/internal/model"

// LevelResult содержит состояние уровня после начисления опыта.
type LevelResult struct {
	Level          int
	CurrentXP      int
	XPForNextLevel int
	LeveledUp      bool
}

// Threshold возвращает количество опыта, необходимое для перехода
// с указанного уровня на следующий.
func Threshold(level int) int {
	return 1000 + level*200
}

// ApplyXP прибавляет дельту к текущему опыту и повышает уровень, пока опыт
// достигает порога. Цикл завершается за считанные итерации: дельта ограничена
// сверху, а порог растёт с каждым уровнем. После любого повышения действует
// инвариант XPForNextLevel = 1000 + level*200 и CurrentXP < XPForNextLevel.
func ApplyXP(record *model.ProgressRecord, delta int) LevelResult {
	level := record.Level
	if level < 1 {
		level = 1
	}

	threshold := record.XPForNextLevel
	if threshold <= 0 {
		threshold = 1000
	}

	current := record.CurrentXP + delta
	for current >= threshold {
		current -= threshold
		level++
		threshold = Threshold(level)
	}

	return LevelResult{
		Level:          level,
		CurrentXP:      current,
		XPForNextLevel: threshold,
		LeveledUp:      level > record.Level,
	}
}
