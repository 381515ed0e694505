package db

import (
	"context"

	"github.com/zmdiary/zmdiary-bot/internal/ctxutil"
	"github.com/zmdiary/zmdiary-bot/internal/models"
)

func (s *Store) InsertHomework(ctx context.Context, e *models.HomeworkEntry) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return s.db.QueryRowContext(ctx, `
INSERT INTO homework (author_id, date, class, school, subject, task, group_number)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`,
		e.AuthorID, e.Date, e.Class, e.School, e.Subject, e.Task, e.Group).Scan(&e.ID)
}

// QueryHomework отдаёт записи в порядке вставки. Запись без группы видна всем,
// с группой — только своей группе.
func (s *Store) QueryHomework(ctx context.Context, date, class, school string, group *string) ([]models.HomeworkEntry, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, `
SELECT id, author_id, date, class, school, subject, task, group_number
FROM homework
WHERE date = $1 AND class = $2 AND school = $3
  AND (group_number IS NULL OR $4::text IS NULL OR group_number = $4)
ORDER BY id`, date, class, school, group)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.HomeworkEntry
	for rows.Next() {
		var e models.HomeworkEntry
		if err := rows.Scan(&e.ID, &e.AuthorID, &e.Date, &e.Class, &e.School, &e.Subject, &e.Task, &e.Group); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountRecentHomeworkByAuthor — канон "ГГ ММ ДД" сортируется лексикографически,
// поэтому сравнение строк даёт хронологию.
func (s *Store) CountRecentHomeworkByAuthor(ctx context.Context, authorID int64, since string) (int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM homework WHERE author_id = $1 AND date >= $2`,
		authorID, since).Scan(&n)
	return n, err
}
