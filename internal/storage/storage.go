// Package storage описывает контракт хранилища. Ядро работает только с этим
// интерфейсом; конкретная реализация (Postgres) живёт в internal/db, для
// тестов есть память в internal/testutil/memstore.
package storage

import (
	"context"
	"errors"

	"github.com/zmdiary/zmdiary-bot/internal/models"
)

var ErrNotFound = errors.New("storage: запись не найдена")

// ErrConflict — условная запись не прошла: текущее значение не совпало с
// ожидаемым (кто-то успел изменить строку раньше).
var ErrConflict = errors.New("storage: конфликт условной записи")

// ErrProtected — запись по учётке с ролью admin отклонена самим условием
// UPDATE; профили администраторов правятся только руками в БД.
var ErrProtected = errors.New("storage: учётка администратора защищена")

type Store interface {
	// Пользователи
	GetUser(ctx context.Context, id int64) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	SetUserSchool(ctx context.Context, id int64, school string) error
	SetUserClassGroup(ctx context.Context, id int64, class, group string) error
	// SetUserRole — прямая запись роли (админ-панель, бан при отклонении
	// школы). Учётки с ролью admin не трогает: ErrProtected.
	SetUserRole(ctx context.Context, id int64, role models.Role) error
	// UpdateUserRole — compare-and-set: запись проходит, только если текущая
	// роль равна from. Иначе ErrConflict.
	UpdateUserRole(ctx context.Context, id int64, from, to models.Role) error
	// UpdateUserBalance не трогает учётки с ролью admin: ErrProtected.
	UpdateUserBalance(ctx context.Context, id int64, balance int64) error
	// SetEditorRequest ставит флаг заявки, если он ещё не стоит. Иначе ErrConflict.
	SetEditorRequest(ctx context.Context, id int64) error
	ClearEditorRequest(ctx context.Context, id int64) error
	SearchUsers(ctx context.Context, query string) ([]models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ListEditors(ctx context.Context) ([]models.User, error)
	ListPendingEditorsInClass(ctx context.Context, class, school string) ([]models.User, error)
	CountEditorsInClass(ctx context.Context, class, school string) (int, error)

	// Школы
	ListSchools(ctx context.Context) ([]models.School, error)
	SchoolExists(ctx context.Context, name string) (bool, error)
	InsertSchool(ctx context.Context, name string) error

	// Расписание
	GetSchedule(ctx context.Context, class, school string) (models.Schedule, error)
	SetScheduleDay(ctx context.Context, class, school, day string, subjects []string) error

	// Домашка
	InsertHomework(ctx context.Context, e *models.HomeworkEntry) error
	QueryHomework(ctx context.Context, date, class, school string, group *string) ([]models.HomeworkEntry, error)
	CountRecentHomeworkByAuthor(ctx context.Context, authorID int64, since string) (int, error)

	// Состояние диалога
	GetConversationState(ctx context.Context, userID int64) (*models.ConversationState, error)
	SetConversationState(ctx context.Context, st *models.ConversationState) error
	ClearConversationState(ctx context.Context, userID int64) error
}
