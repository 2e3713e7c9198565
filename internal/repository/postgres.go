// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/petprogress-system/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrPetNotFound возвращается, если питомец не найден.
var (
	ErrPetNotFound = errors.New("pet not found")
	// ErrProgressNotFound возвращается, если для питомца ещё нет записи прогресса.
	ErrProgressNotFound = errors.New("progress not found")
)

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delays := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		// Если ошибка контекста — выходим сразу
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		// Ретраи полезны для Serialization Failure и Deadlocks.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected {
				if i < len(delays) {
					time.Sleep(delays[i])
					continue
				}
			}
		}

		// Если это не pg-ошибка, но сетевая
		if isConnectionError(err) {
			if i < len(delays) {
				time.Sleep(delays[i])
				continue
			}
		}

		break
	}
	return err
}

func isConnectionError(err error) bool {
	// Упрощенная проверка на ошибки соединения
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreatePet создаёт профиль питомца для указанного владельца.
func (r *PostgresRepository) CreatePet(ctx context.Context, ownerID int64, name, breed string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO pets (owner_id, name, breed) VALUES ($1, $2, $3) RETURNING id`,
		ownerID, name, breed,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create pet: %w", err)
	}
	return id, nil
}

// GetPet возвращает профиль питомца по идентификатору.
func (r *PostgresRepository) GetPet(ctx context.Context, petID int64) (*model.Pet, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, owner_id, name, breed, created_at FROM pets WHERE id = $1`,
		petID,
	)

	var p model.Pet
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Breed, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPetNotFound
		}
		return nil, fmt.Errorf("get pet: %w", err)
	}

	return &p, nil
}

// GetProgress возвращает запись прогресса питомца.
func (r *PostgresRepository) GetProgress(ctx context.Context, petID int64) (*model.ProgressRecord, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT level, current_xp, xp_for_next_level, total_xp,
		        daily_xp, daily_meals, daily_walks, daily_photos, daily_tasks, daily_taps, daily_bonds,
		        last_xp_date, last_xp_action, streak
		 FROM pet_progress
		 WHERE pet_id = $1`,
		petID,
	)

	var rec model.ProgressRecord
	var action string
	err := row.Scan(
		&rec.Level, &rec.CurrentXP, &rec.XPForNextLevel, &rec.TotalXP,
		&rec.Daily.XP, &rec.Daily.Meals, &rec.Daily.Walks, &rec.Daily.Photos,
		&rec.Daily.Tasks, &rec.Daily.Taps, &rec.Daily.Bonds,
		&rec.LastXPDate, &action, &rec.Streak,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProgressNotFound
		}
		return nil, fmt.Errorf("get progress: %w", err)
	}

	rec.LastXPAction = model.ActionKind(action)
	return &rec, nil
}

// ApplyGrant сохраняет обновлённую запись прогресса и добавляет запись аудита
// в одной транзакции. Запись аудита неизменяема и никогда не удаляется.
func (r *PostgresRepository) ApplyGrant(ctx context.Context, petID int64, rec *model.ProgressRecord, entry *model.AuditEntry) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		_, err = tx.Exec(ctx,
			`INSERT INTO pet_progress (
			     pet_id, level, current_xp, xp_for_next_level, total_xp,
			     daily_xp, daily_meals, daily_walks, daily_photos, daily_tasks, daily_taps, daily_bonds,
			     last_xp_date, last_xp_action, streak, updated_at
			 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now())
			 ON CONFLICT (pet_id) DO UPDATE SET
			     level = EXCLUDED.level,
			     current_xp = EXCLUDED.current_xp,
			     xp_for_next_level = EXCLUDED.xp_for_next_level,
			     total_xp = EXCLUDED.total_xp,
			     daily_xp = EXCLUDED.daily_xp,
			     daily_meals = EXCLUDED.daily_meals,
			     daily_walks = EXCLUDED.daily_walks,
			     daily_photos = EXCLUDED.daily_photos,
			     daily_tasks = EXCLUDED.daily_tasks,
			     daily_taps = EXCLUDED.daily_taps,
			     daily_bonds = EXCLUDED.daily_bonds,
			     last_xp_date = EXCLUDED.last_xp_date,
			     last_xp_action = EXCLUDED.last_xp_action,
			     streak = EXCLUDED.streak,
			     updated_at = now()`,
			petID, rec.Level, rec.CurrentXP, rec.XPForNextLevel, rec.TotalXP,
			rec.Daily.XP, rec.Daily.Meals, rec.Daily.Walks, rec.Daily.Photos,
			rec.Daily.Tasks, rec.Daily.Taps, rec.Daily.Bonds,
			rec.LastXPDate, string(rec.LastXPAction), rec.Streak,
		)
		if err != nil {
			return fmt.Errorf("upsert progress: %w", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO xp_audit (pet_id, action, xp_added, metadata, verified)
			 VALUES ($1, $2, $3, $4, $5)`,
			petID, string(entry.Action), entry.XPAdded, entry.Metadata, entry.Verified,
		)
		if err != nil {
			return fmt.Errorf("insert audit: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}

		return nil
	})
}

// GetAuditByPet возвращает последние записи аудита для питомца.
func (r *PostgresRepository) GetAuditByPet(ctx context.Context, petID int64, limit int) ([]model.AuditEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, pet_id, action, xp_added, metadata, verified, created_at
		 FROM xp_audit
		 WHERE pet_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		petID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select audit: %w", err)
	}
	defer rows.Close()

	var res []model.AuditEntry
	for rows.Next() {
		var e model.AuditEntry
		var action string
		if err := rows.Scan(&e.ID, &e.PetID, &action, &e.XPAdded, &e.Metadata, &e.Verified, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		e.Action = model.ActionKind(action)
		res = append(res, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// RolloverStreaks выполняет ежедневный перенос серий активности: питомцы,
// получившие опыт вчера, увеличивают серию на единицу (не более одного раза
// в сутки), остальные серии обнуляются. Возвращает количество продлённых серий.
func (r *PostgresRepository) RolloverStreaks(ctx context.Context, today, yesterday string) (int64, error) {
	var extended int64

	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		cmdTag, err := tx.Exec(ctx,
			`UPDATE pet_progress
			 SET streak = streak + 1, streak_date = $1
			 WHERE last_xp_date = $2 AND streak_date <> $1`,
			today, yesterday,
		)
		if err != nil {
			return fmt.Errorf("extend streaks: %w", err)
		}
		extended = cmdTag.RowsAffected()

		_, err = tx.Exec(ctx,
			`UPDATE pet_progress
			 SET streak = 0, streak_date = $1
			 WHERE last_xp_date < $2 AND streak > 0`,
			today, yesterday,
		)
		if err != nil {
			return fmt.Errorf("reset streaks: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}

		return nil
	})

	return extended, err
}
