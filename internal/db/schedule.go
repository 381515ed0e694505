package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/zmdiary/zmdiary-bot/internal/ctxutil"
	"github.com/zmdiary/zmdiary-bot/internal/models"
	"github.com/zmdiary/zmdiary-bot/internal/storage"
)

func (s *Store) GetSchedule(ctx context.Context, class, school string) (models.Schedule, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT schedule_json FROM schedule WHERE class = $1 AND school = $2`,
		class, school).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var sched models.Schedule
	if err := json.Unmarshal(raw, &sched); err != nil {
		return nil, err
	}
	return sched, nil
}

// SetScheduleDay целиком заменяет список уроков одного дня. Остальные дни в
// JSON-объекте не трогаем — merge на стороне Postgres.
func (s *Store) SetScheduleDay(ctx context.Context, class, school, day string, subjects []string) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	dayJSON, err := json.Marshal(subjects)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO schedule (class, school, schedule_json)
VALUES ($1, $2, jsonb_build_object($3::text, $4::jsonb))
ON CONFLICT (class, school)
DO UPDATE SET schedule_json = schedule.schedule_json || jsonb_build_object($3::text, $4::jsonb)`,
		class, school, day, dayJSON)
	return err
}
