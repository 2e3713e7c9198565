// Package ratelimit реализует ограничитель частоты запросов со скользящим окном.
package ratelimit

import (
	"sync"
	"time"
)

// Параметры окна по умолчанию: не более 100 запросов за скользящие 60 секунд.
const (
	DefaultLimit  = 100
	DefaultWindow = 60 * time.Second
)

// Limiter отслеживает отметки времени недавних запросов каждого пользователя.
// Состояние хранится только в памяти процесса и не разделяется между
// экземплярами сервиса (см. DESIGN.md).
type Limiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	windows map[int64][]time.Time
}

// NewLimiter создаёт ограничитель с указанной ёмкостью и длиной окна.
// Неположительные аргументы заменяются значениями по умолчанию.
func NewLimiter(limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{
		limit:   limit,
		window:  window,
		windows: make(map[int64][]time.Time),
	}
}

// Admit решает, допустить ли запрос пользователя в момент now. При отказе
// возвращает время до освобождения места в окне, округлённое вверх до
// целых секунд.
func (l *Limiter) Admit(actorID int64, now time.Time) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)

	stamps := l.windows[actorID]
	kept := stamps[:0]
	for _, ts := range stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.limit {
		l.windows[actorID] = kept
		retryAfter := kept[0].Add(l.window).Sub(now)
		return false, ceilSeconds(retryAfter)
	}

	l.windows[actorID] = append(kept, now)
	return true, 0
}

func ceilSeconds(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Second
	}
	secs := (d + time.Second - 1) / time.Second
	return secs * time.Second
}
