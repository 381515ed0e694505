// Package schedule — недельное расписание класса и вывод даты следующего урока
// по предмету.
package schedule

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/zmdiary/zmdiary-bot/internal/dates"
	"github.com/zmdiary/zmdiary-bot/internal/models"
	"github.com/zmdiary/zmdiary-bot/internal/storage"
)

// lookaheadDays — окно поиска следующего урока: завтра и ещё 12 дней, чтобы
// покрыть две учебные недели.
const lookaheadDays = 13

type Service struct {
	store storage.Store
	now   func() time.Time
}

func New(store storage.Store, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, now: now}
}

// Get возвращает расписание или nil, если его ещё не заводили.
func (s *Service) Get(ctx context.Context, class, school string) (models.Schedule, error) {
	sched, err := s.store.GetSchedule(ctx, class, school)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return sched, err
}

// SetDay целиком заменяет уроки одного дня; другие дни не трогаются.
func (s *Service) SetDay(ctx context.Context, class, school, day string, subjects []string) error {
	return s.store.SetScheduleDay(ctx, class, school, day, subjects)
}

// NextOccurrence ищет ближайшую дату урока subject начиная с завтрашнего дня в
// окне lookaheadDays. Элемент "А/Б" сверяется с частью своей группы (группа 1 —
// первая часть); без известной группы такие элементы пропускаются. Выходные не
// рассматриваются: их просто нет среди ключей расписания. Возвращает нулевое
// время, если урока в окне нет.
func (s *Service) NextOccurrence(ctx context.Context, class, school, subject string, group *string) (time.Time, error) {
	sched, err := s.store.GetSchedule(ctx, class, school)
	if errors.Is(err, storage.ErrNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}

	today := s.now()
	for i := 1; i <= lookaheadDays; i++ {
		day := today.AddDate(0, 0, i)
		subjects, ok := sched[dates.WeekdayName(day)]
		if !ok {
			continue
		}
		for _, token := range subjects {
			if MatchSubject(token, subject, group) {
				return day, nil
			}
		}
	}
	return time.Time{}, nil
}

// MatchSubject сверяет элемент расписания с предметом с учётом деления на
// группы.
func MatchSubject(token, subject string, group *string) bool {
	if strings.Contains(token, "/") {
		if group == nil {
			return false
		}
		parts := strings.Split(token, "/")
		idx := 0
		if *group == "2" {
			idx = 1
		}
		if idx >= len(parts) {
			return false
		}
		return parts[idx] == subject
	}
	return token == subject
}

// ResolveSubject приводит элемент расписания к предмету конкретной группы;
// второй результат false — элемент групповой, а группа неизвестна.
func ResolveSubject(token string, group *string) (string, bool) {
	if !strings.Contains(token, "/") {
		return token, true
	}
	if group == nil {
		return "", false
	}
	parts := strings.Split(token, "/")
	idx := 0
	if *group == "2" {
		idx = 1
	}
	if idx >= len(parts) {
		return "", false
	}
	return parts[idx], true
}
