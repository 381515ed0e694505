// Package memstore — потокобезопасная реализация storage.Store в памяти для
// юнит-тестов ядра. Семантика повторяет Postgres-реализацию, включая условные
// записи роли и флага заявки.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/zmdiary/zmdiary-bot/internal/models"
	"github.com/zmdiary/zmdiary-bot/internal/storage"
)

type Store struct {
	mu       sync.Mutex
	users    map[int64]*models.User
	schools  []string
	sched    map[string]models.Schedule // ключ class|school
	homework []models.HomeworkEntry
	states   map[int64]*models.ConversationState
	nextID   int64
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:  map[int64]*models.User{},
		sched:  map[string]models.Schedule{},
		states: map[int64]*models.ConversationState{},
	}
}

func key(class, school string) string { return class + "|" + school }

func cloneUser(u *models.User) *models.User {
	c := *u
	return &c
}

func (s *Store) GetUser(_ context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.Role == "" {
		u.Role = models.Viewer
	}
	s.users[u.ID] = cloneUser(u)
	return nil
}

func (s *Store) SetUserSchool(_ context.Context, id int64, school string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.School = &school
	return nil
}

func (s *Store) SetUserClassGroup(_ context.Context, id int64, class, group string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.Class = &class
	if group != "" {
		u.Group = &group
	}
	return nil
}

func (s *Store) SetUserRole(_ context.Context, id int64, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	if u.Role == models.Admin {
		return storage.ErrProtected
	}
	u.Role = role
	return nil
}

func (s *Store) UpdateUserRole(_ context.Context, id int64, from, to models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	if u.Role != from {
		return storage.ErrConflict
	}
	u.Role = to
	return nil
}

func (s *Store) UpdateUserBalance(_ context.Context, id int64, balance int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	if u.Role == models.Admin {
		return storage.ErrProtected
	}
	u.Balance = balance
	return nil
}

func (s *Store) SetEditorRequest(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	if u.EditorRequest {
		return storage.ErrConflict
	}
	u.EditorRequest = true
	return nil
}

func (s *Store) ClearEditorRequest(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.EditorRequest = false
	return nil
}

func (s *Store) SearchUsers(_ context.Context, query string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := strings.ToLower(query)
	var out []models.User
	for _, u := range s.users {
		if strings.Contains(strings.ToLower(u.DisplayName), q) ||
			(u.Class != nil && strings.Contains(strings.ToLower(*u.Class), q)) ||
			(u.School != nil && strings.Contains(strings.ToLower(*u.School), q)) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListEditors(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		if u.Role == models.Editor {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListPendingEditorsInClass(_ context.Context, class, school string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		if u.EditorRequest && u.Class != nil && *u.Class == class && u.School != nil && *u.School == school {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CountEditorsInClass(_ context.Context, class, school string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, u := range s.users {
		if u.Role == models.Editor && u.Class != nil && *u.Class == class && u.School != nil && *u.School == school {
			n++
		}
	}
	return n, nil
}

func (s *Store) ListSchools(_ context.Context) ([]models.School, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.School, 0, len(s.schools))
	for i, name := range s.schools {
		out = append(out, models.School{ID: int64(i + 1), Name: name})
	}
	return out, nil
}

func (s *Store) SchoolExists(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.schools {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) InsertSchool(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.schools {
		if n == name {
			return nil
		}
	}
	s.schools = append(s.schools, name)
	return nil
}

func (s *Store) GetSchedule(_ context.Context, class, school string) (models.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.sched[key(class, school)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := models.Schedule{}
	for d, subjects := range sc {
		out[d] = append([]string(nil), subjects...)
	}
	return out, nil
}

func (s *Store) SetScheduleDay(_ context.Context, class, school, day string, subjects []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(class, school)
	sc, ok := s.sched[k]
	if !ok {
		sc = models.Schedule{}
		s.sched[k] = sc
	}
	sc[day] = append([]string(nil), subjects...)
	return nil
}

func (s *Store) InsertHomework(_ context.Context, e *models.HomeworkEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	e.ID = s.nextID
	s.homework = append(s.homework, *e)
	return nil
}

func (s *Store) QueryHomework(_ context.Context, date, class, school string, group *string) ([]models.HomeworkEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.HomeworkEntry
	for _, e := range s.homework {
		if e.Date != date || e.Class != class || e.School != school {
			continue
		}
		if group != nil && e.Group != nil && *e.Group != *group {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) CountRecentHomeworkByAuthor(_ context.Context, authorID int64, since string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.homework {
		// канонический формат "ГГ ММ ДД" сортируется лексикографически
		if e.AuthorID == authorID && e.Date >= since {
			n++
		}
	}
	return n, nil
}

func (s *Store) GetConversationState(_ context.Context, userID int64) (*models.ConversationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[userID]
	if !ok {
		return models.NewConversationState(userID), nil
	}
	cp := *st
	cp.Data = map[string]string{}
	for k, v := range st.Data {
		cp.Data[k] = v
	}
	return &cp, nil
}

func (s *Store) SetConversationState(_ context.Context, st *models.ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *st
	cp.Data = map[string]string{}
	for k, v := range st.Data {
		cp.Data[k] = v
	}
	s.states[st.UserID] = &cp
	return nil
}

func (s *Store) ClearConversationState(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, userID)
	return nil
}
