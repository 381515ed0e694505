// Package homework — записи домашних заданий. Только добавление и выборка:
// правок и удаления у дневника нет.
package homework

import (
	"context"

	"github.com/zmdiary/zmdiary-bot/internal/metrics"
	"github.com/zmdiary/zmdiary-bot/internal/models"
	"github.com/zmdiary/zmdiary-bot/internal/storage"
)

type Service struct {
	store storage.Store
}

func New(store storage.Store) *Service { return &Service{store: store} }

// Add добавляет запись, штампуя группу автора на момент записи — позже профиль
// автора может поменяться, запись остаётся как была.
func (s *Service) Add(ctx context.Context, author *models.User, date, subject, task string) (*models.HomeworkEntry, error) {
	e := &models.HomeworkEntry{
		AuthorID: author.ID,
		Date:     date,
		Class:    *author.Class,
		School:   *author.School,
		Subject:  subject,
		Task:     task,
		Group:    author.Group,
	}
	if err := s.store.InsertHomework(ctx, e); err != nil {
		return nil, err
	}
	metrics.HomeworkAdded.Inc()
	return e, nil
}

// EntriesFor — записи на дату: без группы видны всем, с группой — своей группе.
// Порядок — порядок вставки.
func (s *Service) EntriesFor(ctx context.Context, date, class, school string, group *string) ([]models.HomeworkEntry, error) {
	return s.store.QueryHomework(ctx, date, class, school, group)
}
