package db

import (
	"context"

	"github.com/zmdiary/zmdiary-bot/internal/ctxutil"
	"github.com/zmdiary/zmdiary-bot/internal/models"
)

func (s *Store) ListSchools(ctx context.Context) ([]models.School, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM schools ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.School
	for rows.Next() {
		var sc models.School
		if err := rows.Scan(&sc.ID, &sc.Name); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *Store) SchoolExists(ctx context.Context, name string) (bool, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM schools WHERE name = $1)`, name).Scan(&exists)
	return exists, err
}

func (s *Store) InsertSchool(ctx context.Context, name string) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO schools (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
	return err
}
