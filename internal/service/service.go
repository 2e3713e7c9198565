// Package service реализует бизнес-логику сервиса прогресса питомцев.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/mmeshcher/petprogress-system/internal/model"
	"github.com/mmeshcher/petprogress-system/internal/repository"
	"github.com/mmeshcher/petprogress-system/internal/xp"
)

// dateLayout — формат календарной даты UTC, по которой сбрасываются дневные счётчики.
const dateLayout = "2006-01-02"

// ErrForbidden возвращается при попытке действия над чужим питомцем.
var ErrForbidden = errors.New("pet owned by another user")

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	CreatePet(ctx context.Context, ownerID int64, name, breed string) (int64, error)
	GetPet(ctx context.Context, petID int64) (*model.Pet, error)
	GetProgress(ctx context.Context, petID int64) (*model.ProgressRecord, error)
	ApplyGrant(ctx context.Context, petID int64, rec *model.ProgressRecord, entry *model.AuditEntry) error
	GetAuditByPet(ctx context.Context, petID int64, limit int) ([]model.AuditEntry, error)
	RolloverStreaks(ctx context.Context, today, yesterday string) (int64, error)
}

// Service содержит бизнес-логику начисления опыта.
//
// Начисления для одного питомца сериализуются мьютексом по идентификатору:
// без этого два конкурентных запроса читают одни и те же счётчики и оба
// записывают результат, теряя обновления и пробивая дневной потолок.
type Service struct {
	repo Repository
	now  func() time.Time

	mu       sync.Mutex
	petLocks map[int64]*sync.Mutex
}

// NewService создаёт новый сервис с указанным репозиторием.
func NewService(repo Repository) *Service {
	return &Service{
		repo:     repo,
		now:      time.Now,
		petLocks: make(map[int64]*sync.Mutex),
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

func (s *Service) lockPet(petID int64) func() {
	s.mu.Lock()
	lock, ok := s.petLocks[petID]
	if !ok {
		lock = &sync.Mutex{}
		s.petLocks[petID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func (s *Service) today() string {
	return s.now().UTC().Format(dateLayout)
}

// ownedPet проверяет, что питомец существует и принадлежит пользователю.
func (s *Service) ownedPet(ctx context.Context, actorID, petID int64) (*model.Pet, error) {
	pet, err := s.repo.GetPet(ctx, petID)
	if err != nil {
		return nil, err
	}
	if pet.OwnerID != actorID {
		return nil, ErrForbidden
	}
	return pet, nil
}

// RegisterPet создаёт профиль питомца для пользователя.
func (s *Service) RegisterPet(ctx context.Context, actorID int64, name, breed string) (*model.Pet, error) {
	id, err := s.repo.CreatePet(ctx, actorID, name, breed)
	if err != nil {
		return nil, err
	}
	return &model.Pet{ID: id, OwnerID: actorID, Name: name, Breed: breed}, nil
}

// Grant проводит начисление опыта за одно действие: проверяет владение,
// дневные лимиты, вычисляет дельту, применяет уровни и сохраняет результат
// вместе с записью аудита. Повторная отправка того же действия не
// дедуплицируется и начисляет опыт повторно.
func (s *Service) Grant(ctx context.Context, actorID, petID int64, kind model.ActionKind, walk *model.WalkMetadata, rawMeta json.RawMessage) (*model.GrantResult, error) {
	if _, err := s.ownedPet(ctx, actorID, petID); err != nil {
		return nil, err
	}

	unlock := s.lockPet(petID)
	defer unlock()

	rec, err := s.repo.GetProgress(ctx, petID)
	if err != nil {
		if !errors.Is(err, repository.ErrProgressNotFound) {
			return nil, err
		}
		rec = model.NewProgressRecord()
	}

	today := s.today()
	counters := xp.RollCounters(rec, today)

	if dlErr := xp.CheckActionLimit(counters, kind); dlErr != nil {
		return nil, dlErr
	}

	delta, verified := xp.ComputeDelta(kind, walk)

	delta, dlErr := xp.ClampToDailyXP(counters, delta)
	if dlErr != nil {
		return nil, dlErr
	}

	lvl := xp.ApplyXP(rec, delta)

	counters.XP += delta
	bumpActionCounter(&counters, kind)

	rec.Level = lvl.Level
	rec.CurrentXP = lvl.CurrentXP
	rec.XPForNextLevel = lvl.XPForNextLevel
	rec.TotalXP += delta
	rec.Daily = counters
	rec.LastXPDate = today
	rec.LastXPAction = kind

	entry := &model.AuditEntry{
		PetID:    petID,
		Action:   kind,
		XPAdded:  delta,
		Metadata: rawMeta,
		Verified: verified,
	}

	if err := s.repo.ApplyGrant(ctx, petID, rec, entry); err != nil {
		return nil, err
	}

	return &model.GrantResult{
		XPAdded:        delta,
		NewXP:          rec.CurrentXP,
		NewLevel:       rec.Level,
		XPForNextLevel: rec.XPForNextLevel,
		LeveledUp:      lvl.LeveledUp,
		DailyRemaining: dailyRemaining(counters),
	}, nil
}

func bumpActionCounter(c *model.DailyCounters, kind model.ActionKind) {
	switch kind {
	case model.ActionMeal:
		c.Meals++
	case model.ActionWalk:
		c.Walks++
	case model.ActionPhoto:
		c.Photos++
	case model.ActionTaskComplete:
		c.Tasks++
	case model.ActionAvatarTap:
		c.Taps++
	case model.ActionAvatarBond:
		c.Bonds++
	}
}

func dailyRemaining(c model.DailyCounters) int {
	remaining := xp.MaxDailyXP - c.XP
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// Status возвращает проекцию прогресса питомца для отображения. Дневные
// счётчики за прошедшие дни показываются нулевыми, но сохранённая запись
// при этом не изменяется.
func (s *Service) Status(ctx context.Context, actorID, petID int64) (*model.StatusResult, error) {
	if _, err := s.ownedPet(ctx, actorID, petID); err != nil {
		return nil, err
	}

	rec, err := s.repo.GetProgress(ctx, petID)
	if err != nil {
		if !errors.Is(err, repository.ErrProgressNotFound) {
			return nil, err
		}
		rec = model.NewProgressRecord()
	}

	counters := xp.RollCounters(rec, s.today())

	return &model.StatusResult{
		Level:          rec.Level,
		CurrentXP:      rec.CurrentXP,
		XPForNextLevel: rec.XPForNextLevel,
		TotalXP:        rec.TotalXP,
		DailyXP:        counters.XP,
		DailyRemaining: dailyRemaining(counters),
		Streak:         rec.Streak,
	}, nil
}

// WalkPreview содержит результат предварительной проверки прогулки.
// Ничего не сохраняется: клиент видит, засчиталась бы прогулка и сколько
// опыта она принесла бы.
type WalkPreview struct {
	Verified bool                  `json:"verified"`
	XPEarned int                   `json:"xpEarned"`
	Stats    model.WalkStats       `json:"stats"`
	Checks   xp.VerificationChecks `json:"checks"`
}

// PreviewWalk проверяет прогулку по правилам предпросмотра без начисления опыта.
func (s *Service) PreviewWalk(stats model.WalkStats) *WalkPreview {
	res, checks := xp.PreviewWalk(stats)

	minutes := stats.DurationMinutes
	if minutes > 60 {
		minutes = 60
	}
	earned := minutes
	if res.Verified {
		earned += res.DistanceBonus
	} else {
		earned = earned / 2
	}
	if earned > 100 {
		earned = 100
	}

	return &WalkPreview{
		Verified: res.Verified,
		XPEarned: earned,
		Stats:    stats,
		Checks:   checks,
	}
}

// GetAuditByPet возвращает последние записи аудита питомца владельцу.
func (s *Service) GetAuditByPet(ctx context.Context, actorID, petID int64, limit int) ([]model.AuditEntry, error) {
	if _, err := s.ownedPet(ctx, actorID, petID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return s.repo.GetAuditByPet(ctx, petID, limit)
}

// StartStreakRollover запускает фоновый процесс ежедневного переноса серий
// активности. Перенос идемпотентен в пределах суток, поэтому проверка
// выполняется раз в час и безопасна при рестартах.
func (s *Service) StartStreakRollover(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		s.rolloverStreaks(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.rolloverStreaks(ctx)
			}
		}
	}()
}

func (s *Service) rolloverStreaks(ctx context.Context) {
	now := s.now().UTC()
	today := now.Format(dateLayout)
	yesterday := now.AddDate(0, 0, -1).Format(dateLayout)

	_, _ = s.repo.RolloverStreaks(ctx, today, yesterday)
}
