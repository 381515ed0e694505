package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zmdiary/zmdiary-bot/internal/bot/keyboards"
	"github.com/zmdiary/zmdiary-bot/internal/flow"
	"github.com/zmdiary/zmdiary-bot/internal/models"
	"github.com/zmdiary/zmdiary-bot/internal/storage"
)

const welcomeText = `👋 Привет! Ты из %s класса школы %s.

🎒 Команды:
📝 /addhw – Добавить домашку
📖 /viewhw – Посмотреть домашку

✏️ /editschedule – Изменить расписание
📅 /viewschedule – Посмотреть расписание

📋 /menu – Информация о пользователе
💖 /donate – Поддержать проект`

// StartCommand — вход /start: создаёт пользователя при первом контакте и
// возобновляет регистрацию, если школа или класс ещё не выбраны.
func StartCommand(ctx context.Context, e *flow.Engine, d *Deps, ev flow.Event, displayName string, referrerID *int64) error {
	u, err := d.Store.GetUser(ctx, ev.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		u = &models.User{ID: ev.UserID, DisplayName: displayName, Role: models.Viewer, ReferrerID: referrerID}
		if err := d.Store.CreateUser(ctx, u); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	switch {
	case u.School == nil:
		schools, err := d.Store.ListSchools(ctx)
		if err != nil {
			return err
		}
		d.sendKB(ev.ChatID, "Выберите свою школу:", keyboards.Schools(schools))
		return e.Begin(ctx, ev.UserID, models.StateRegSchool, nil)
	case u.Class == nil:
		d.sendKB(ev.ChatID, "Выберите свой класс:", keyboards.Grades())
		return e.Begin(ctx, ev.UserID, models.StateRegClassGrade, nil)
	default:
		d.sendKB(ev.ChatID, fmt.Sprintf(welcomeText, *u.Class, *u.School), keyboards.MainMenu())
		return nil
	}
}

func registerRegistration(e *flow.Engine, d *Deps) {
	e.Register(models.StateRegSchool, flow.KindCallback, "school_", d.regSchoolChosen)
	e.Register(models.StateRegSchool, flow.KindCallback, "new_school", d.regNewSchoolPrompt)
	e.Register(models.StateRegNewSchool, flow.KindMessage, "", d.regNewSchoolInput)
	e.Register(models.StateRegClassGrade, flow.KindCallback, "class_", d.regGradeChosen)
	e.Register(models.StateRegClassLetter, flow.KindCallback, "classn_", d.regLetterChosen)
	e.Register(models.StateRegGroup, flow.KindCallback, "group_", d.regGroupChosen)
}

func (d *Deps) regSchoolChosen(ctx context.Context, ev flow.Event, st *models.ConversationState) error {
	defer d.answer(ev)
	name := strings.TrimPrefix(ev.Data, "school_")

	exists, err := d.Store.SchoolExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		// школа успела пропасть из списка — отправляем на модерацию как новую
		return d.proposeSchool(ctx, ev, st, name)
	}
	if err := d.Store.SetUserSchool(ctx, ev.UserID, name); err != nil {
		return err
	}
	d.editKB(ev, "Выберите свой класс:", keyboards.Grades())
	st.To(models.StateRegClassGrade)
	return nil
}

func (d *Deps) regNewSchoolPrompt(_ context.Context, ev flow.Event, st *models.ConversationState) error {
	defer d.answer(ev)
	d.edit(ev, "Введите название школы, пример:\n«Школа №12».")
	st.To(models.StateRegNewSchool)
	return nil
}

func (d *Deps) regNewSchoolInput(ctx context.Context, ev flow.Event, st *models.ConversationState) error {
	name := strings.TrimSpace(ev.Text)
	if name == "" {
		d.send(ev.ChatID, "Название школы не может быть пустым. Введите ещё раз:")
		return nil
	}
	return d.proposeSchool(ctx, ev, st, name)
}

// proposeSchool отправляет предложение модератору; регистрация продолжится
// после одобрения.
func (d *Deps) proposeSchool(_ context.Context, ev flow.Event, st *models.ConversationState, name string) error {
	p := d.Approval.Propose(ev.UserID, name)
	text := fmt.Sprintf("Новое предложение школы:\n\nШкола: %s\nПользователь: %d\n\nВыберите действие:", p.Name, p.ProposerID)
	d.sendKB(d.AdminChatID, text, keyboards.Approval(p.ID))
	d.send(ev.ChatID, fmt.Sprintf("✅ Школа «%s» отправлена на модерацию.", name))
	st.Clear()
	return nil
}

func (d *Deps) regGradeChosen(_ context.Context, ev flow.Event, st *models.ConversationState) error {
	defer d.answer(ev)
	grade := strings.TrimPrefix(ev.Data, "class_")
	st.Set(models.KeyGrade, grade)
	d.editKB(ev, "Выбери букву класса:", keyboards.Letters(grade))
	st.To(models.StateRegClassLetter)
	return nil
}

func (d *Deps) regLetterChosen(_ context.Context, ev flow.Event, st *models.ConversationState) error {
	defer d.answer(ev)
	class := strings.TrimPrefix(ev.Data, "classn_")
	st.Set(models.KeyClass, class)
	d.editKB(ev,
		"Выберите свою группу для предметов, которые изучаются по группам (например, Английский/Информатика):",
		keyboards.Groups())
	st.To(models.StateRegGroup)
	return nil
}

func (d *Deps) regGroupChosen(ctx context.Context, ev flow.Event, st *models.ConversationState) error {
	defer d.answer(ev)
	group := strings.TrimPrefix(ev.Data, "group_")
	class := st.Get(models.KeyClass)
	if err := d.Store.SetUserClassGroup(ctx, ev.UserID, class, group); err != nil {
		return err
	}

	u, err := d.Store.GetUser(ctx, ev.UserID)
	if err != nil {
		return err
	}
	school := ""
	if u.School != nil {
		school = *u.School
	}
	sched, err := d.Schedule.Get(ctx, class, school)
	if err != nil {
		return err
	}
	if len(sched) == 0 {
		d.edit(ev, fmt.Sprintf("✅ Вы выбрали %s и группу %s.\n⚠️ Расписания нет. Добавьте его: /editschedule.", class, group))
	} else {
		d.edit(ev, fmt.Sprintf("✅ Вы выбрали %s и группу %s.\n/start", class, group))
	}
	st.Clear()
	return nil
}
