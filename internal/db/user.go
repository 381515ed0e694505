package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/zmdiary/zmdiary-bot/internal/ctxutil"
	"github.com/zmdiary/zmdiary-bot/internal/models"
	"github.com/zmdiary/zmdiary-bot/internal/storage"
)

const userCols = `id, display_name, school, class, group_number, role, balance, referrer_id, editor_request`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.DisplayName, &u.School, &u.Class, &u.Group, &u.Role, &u.Balance, &u.ReferrerID, &u.EditorRequest)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	if u.Role == "" {
		u.Role = models.Viewer
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO users (id, display_name, referrer_id, role)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET display_name = excluded.display_name`,
		u.ID, u.DisplayName, u.ReferrerID, u.Role)
	return err
}

func (s *Store) SetUserSchool(ctx context.Context, id int64, school string) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return s.execOne(ctx, `UPDATE users SET school = $1 WHERE id = $2`, school, id)
}

func (s *Store) SetUserClassGroup(ctx context.Context, id int64, class, group string) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	if group == "" {
		return s.execOne(ctx, `UPDATE users SET class = $1 WHERE id = $2`, class, id)
	}
	return s.execOne(ctx, `UPDATE users SET class = $1, group_number = $2 WHERE id = $3`, class, group, id)
}

// SetUserRole пишет роль условно: учётка с ролью admin не правится, защита
// атомарна с самой записью.
func (s *Store) SetUserRole(ctx context.Context, id int64, role models.Role) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET role = $1 WHERE id = $2 AND role <> 'admin'`, role, id)
	if err != nil {
		return err
	}
	return s.affectedOr(ctx, res, id, storage.ErrProtected)
}

// UpdateUserRole — compare-and-set по текущей роли, чтобы админ-правка и
// ротация не затирали друг друга молча.
func (s *Store) UpdateUserRole(ctx context.Context, id int64, from, to models.Role) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET role = $1 WHERE id = $2 AND role = $3`, to, id, from)
	if err != nil {
		return err
	}
	return s.affectedOr(ctx, res, id, storage.ErrConflict)
}

func (s *Store) UpdateUserBalance(ctx context.Context, id int64, balance int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET balance = $1 WHERE id = $2 AND role <> 'admin'`, balance, id)
	if err != nil {
		return err
	}
	return s.affectedOr(ctx, res, id, storage.ErrProtected)
}

func (s *Store) SetEditorRequest(ctx context.Context, id int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET editor_request = TRUE WHERE id = $1 AND editor_request = FALSE`, id)
	if err != nil {
		return err
	}
	return s.affectedOr(ctx, res, id, storage.ErrConflict)
}

func (s *Store) ClearEditorRequest(ctx context.Context, id int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return s.execOne(ctx, `UPDATE users SET editor_request = FALSE WHERE id = $1`, id)
}

func (s *Store) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
SELECT `+userCols+` FROM users
WHERE display_name ILIKE $1 OR class ILIKE $1 OR school ILIKE $1
ORDER BY id`, pattern)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, `SELECT `+userCols+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (s *Store) ListEditors(ctx context.Context) ([]models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userCols+` FROM users WHERE role = 'editor' ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (s *Store) ListPendingEditorsInClass(ctx context.Context, class, school string) ([]models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, `
SELECT `+userCols+` FROM users
WHERE editor_request = TRUE AND class = $1 AND school = $2
ORDER BY id`, class, school)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (s *Store) CountEditorsInClass(ctx context.Context, class, school string) (int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE class = $1 AND school = $2 AND role = 'editor'`,
		class, school).Scan(&n)
	return n, err
}

func collectUsers(rows *sql.Rows) ([]models.User, error) {
	defer rows.Close()
	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (s *Store) execOne(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// affectedOr различает «строки нет» (ErrNotFound) и «условие записи не
// прошло» (condErr).
func (s *Store) affectedOr(ctx context.Context, res sql.Result, id int64, condErr error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("проверка существования пользователя: %w", err)
	}
	if !exists {
		return storage.ErrNotFound
	}
	return condErr
}
