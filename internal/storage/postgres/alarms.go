// Package postgres persists the alarm list.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Raimguhinov/alarm-go/internal/alarm"
	"github.com/Raimguhinov/alarm-go/internal/usecase"
	"github.com/Raimguhinov/alarm-go/pkg/logger"
	"github.com/Raimguhinov/alarm-go/pkg/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type repository struct {
	client *postgres.Postgres
	logger *logger.Logger
}

func NewRepository(client *postgres.Postgres, logger *logger.Logger) usecase.AlarmRepository {
	return &repository{
		client: client,
		logger: logger,
	}
}

// EnsureSchema creates the alarms schema when it is missing. The repeat
// rule exclusivity invariant is also enforced here as a CHECK, so a record
// with both a weekday set and a date can never be persisted.
func EnsureSchema(ctx context.Context, client *postgres.Postgres) error {
	_, err := client.Pool.Exec(ctx, `
		CREATE SCHEMA IF NOT EXISTS alarms;
		CREATE TABLE IF NOT EXISTS alarms.alarm
		(
			id            uuid PRIMARY KEY,
			name          text        NOT NULL,
			hour          int         NOT NULL CHECK (hour BETWEEN 0 AND 23),
			minute        int         NOT NULL CHECK (minute BETWEEN 0 AND 59),
			timezone      text        NOT NULL,
			country       text        NOT NULL DEFAULT '',
			flag          text        NOT NULL DEFAULT '',
			weekdays      int[]       NOT NULL DEFAULT '{}',
			specific_date date,
			enabled       boolean     NOT NULL DEFAULT true,
			sort_order    int         NOT NULL DEFAULT 0,
			created_at    timestamptz NOT NULL DEFAULT now(),
			CONSTRAINT repeat_rule_exclusive
				CHECK (cardinality(weekdays) = 0 OR specific_date IS NULL)
		)
	`)
	if err != nil {
		return fmt.Errorf("postgres - EnsureSchema: %w", client.ToPgErr(err))
	}
	return nil
}

func (r *repository) Create(ctx context.Context, a alarm.Alarm) error {
	r.logger.Debug("postgres.Create")

	sql, args, err := r.client.Builder.
		Insert("alarms.alarm").
		Columns("id", "name", "hour", "minute", "timezone", "country", "flag",
			"weekdays", "specific_date", "enabled", "sort_order", "created_at").
		Values(a.ID, a.Name, a.Hour, a.Minute, a.Timezone, a.Country, a.Flag,
			weekdaysToDB(a.Weekdays), a.Date, a.Enabled, a.SortOrder, a.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("postgres - Create - ToSql: %w", err)
	}

	if _, err := r.client.Pool.Exec(ctx, sql, args...); err != nil {
		err = r.client.ToPgErr(err)
		r.logger.Error("postgres.Create", logger.Err(err))
		return err
	}
	return nil
}

func (r *repository) Update(ctx context.Context, a alarm.Alarm) error {
	r.logger.Debug("postgres.Update")

	sql, args, err := r.client.Builder.
		Update("alarms.alarm").
		Set("name", a.Name).
		Set("hour", a.Hour).
		Set("minute", a.Minute).
		Set("timezone", a.Timezone).
		Set("country", a.Country).
		Set("flag", a.Flag).
		Set("weekdays", weekdaysToDB(a.Weekdays)).
		Set("specific_date", a.Date).
		Set("enabled", a.Enabled).
		Set("sort_order", a.SortOrder).
		Where("id = ?", a.ID).
		ToSql()
	if err != nil {
		return fmt.Errorf("postgres - Update - ToSql: %w", err)
	}

	tag, err := r.client.Pool.Exec(ctx, sql, args...)
	if err != nil {
		err = r.client.ToPgErr(err)
		r.logger.Error("postgres.Update", logger.Err(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return usecase.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	r.logger.Debug("postgres.Delete")

	if _, err := r.client.Pool.Exec(ctx, `
		DELETE FROM alarms.alarm WHERE id = $1
	`, id); err != nil {
		err = r.client.ToPgErr(err)
		r.logger.Error("postgres.Delete", logger.Err(err))
		return err
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (alarm.Alarm, error) {
	r.logger.Debug("postgres.Get")

	row := r.client.Pool.QueryRow(ctx, `
		SELECT id, name, hour, minute, timezone, country, flag,
		       weekdays, specific_date, enabled, sort_order, created_at
		FROM alarms.alarm
		WHERE id = $1
	`, id)

	a, err := scanAlarm(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return alarm.Alarm{}, usecase.ErrNotFound
	}
	if err != nil {
		err = r.client.ToPgErr(err)
		r.logger.Error("postgres.Get", logger.Err(err))
		return alarm.Alarm{}, err
	}
	return a, nil
}

func (r *repository) List(ctx context.Context) ([]alarm.Alarm, error) {
	return r.list(ctx, false)
}

func (r *repository) ListEnabled(ctx context.Context) ([]alarm.Alarm, error) {
	return r.list(ctx, true)
}

func (r *repository) list(ctx context.Context, onlyEnabled bool) ([]alarm.Alarm, error) {
	r.logger.Debug("postgres.List", "onlyEnabled", onlyEnabled)

	q := r.client.Builder.
		Select("id", "name", "hour", "minute", "timezone", "country", "flag",
			"weekdays", "specific_date", "enabled", "sort_order", "created_at").
		From("alarms.alarm").
		OrderBy("sort_order", "created_at DESC")
	if onlyEnabled {
		q = q.Where("enabled")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("postgres - list - ToSql: %w", err)
	}

	rows, err := r.client.Pool.Query(ctx, sql, args...)
	if err != nil {
		err = r.client.ToPgErr(err)
		r.logger.Error("postgres.List", logger.Err(err))
		return nil, err
	}
	defer rows.Close()

	var alarms []alarm.Alarm
	for rows.Next() {
		a, err := scanAlarm(rows)
		if err != nil {
			err = r.client.ToPgErr(err)
			r.logger.Error("postgres.List", logger.Err(err))
			return nil, err
		}
		alarms = append(alarms, a)
	}
	return alarms, rows.Err()
}

func (r *repository) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) (alarm.Alarm, error) {
	r.logger.Debug("postgres.SetEnabled")

	row := r.client.Pool.QueryRow(ctx, `
		UPDATE alarms.alarm
		SET enabled = $2
		WHERE id = $1
		RETURNING id, name, hour, minute, timezone, country, flag,
		          weekdays, specific_date, enabled, sort_order, created_at
	`, id, enabled)

	a, err := scanAlarm(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return alarm.Alarm{}, usecase.ErrNotFound
	}
	if err != nil {
		err = r.client.ToPgErr(err)
		r.logger.Error("postgres.SetEnabled", logger.Err(err))
		return alarm.Alarm{}, err
	}
	return a, nil
}

func (r *repository) Reorder(ctx context.Context, ids []uuid.UUID) error {
	r.logger.Debug("postgres.Reorder")

	tx, err := r.client.NewTx(ctx)
	if err != nil {
		return fmt.Errorf("postgres - Reorder - NewTx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for i, id := range ids {
		if _, err := tx.Exec(ctx, `
			UPDATE alarms.alarm SET sort_order = $2 WHERE id = $1
		`, id, i); err != nil {
			err = r.client.ToPgErr(err)
			r.logger.Error("postgres.Reorder", logger.Err(err))
			return err
		}
	}
	return tx.Commit(ctx)
}

func scanAlarm(row pgx.Row) (alarm.Alarm, error) {
	var (
		a        alarm.Alarm
		weekdays []int32
	)
	err := row.Scan(&a.ID, &a.Name, &a.Hour, &a.Minute, &a.Timezone, &a.Country,
		&a.Flag, &weekdays, &a.Date, &a.Enabled, &a.SortOrder, &a.CreatedAt)
	if err != nil {
		return alarm.Alarm{}, err
	}
	for _, wd := range weekdays {
		a.Weekdays = append(a.Weekdays, int(wd))
	}
	return a, nil
}

func weekdaysToDB(weekdays []int) []int32 {
	out := make([]int32, 0, len(weekdays))
	for _, wd := range weekdays {
		out = append(out, int32(wd))
	}
	return out
}
