// Package adminpanel — поиск пользователей и правка роли/баланса из /admin.
package adminpanel

import (
	"context"
	"errors"
	"strconv"

	"github.com/zmdiary/zmdiary-bot/internal/models"
	"github.com/zmdiary/zmdiary-bot/internal/storage"
)

// ErrProtected — попытка изменить учётку с ролью admin. Защиту несёт само
// условие записи в хранилище, поэтому гонка «прочитали viewer, а роль уже
// сменилась на admin» невозможна.
var ErrProtected = storage.ErrProtected

type Service struct {
	store storage.Store
}

func New(store storage.Store) *Service { return &Service{store: store} }

// Search: числовой запрос — точное совпадение id, иначе подстрочный поиск по
// имени, классу и школе.
func (s *Service) Search(ctx context.Context, query string) ([]models.User, error) {
	if id, err := strconv.ParseInt(query, 10, 64); err == nil {
		u, err := s.store.GetUser(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return []models.User{*u}, nil
	}
	return s.store.SearchUsers(ctx, query)
}

func (s *Service) ChangeRole(ctx context.Context, targetID int64, role models.Role) error {
	return s.store.SetUserRole(ctx, targetID, role)
}

func (s *Service) ChangeBalance(ctx context.Context, targetID int64, balance int64) error {
	return s.store.UpdateUserBalance(ctx, targetID, balance)
}
