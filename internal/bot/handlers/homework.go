package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zmdiary/zmdiary-bot/internal/bot/keyboards"
	"github.com/zmdiary/zmdiary-bot/internal/dates"
	"github.com/zmdiary/zmdiary-bot/internal/flow"
	"github.com/zmdiary/zmdiary-bot/internal/models"
)

// AddHomeworkCommand — вход /addhw (после проверок доступа).
func AddHomeworkCommand(ctx context.Context, e *flow.Engine, d *Deps, ev flow.Event, u *models.User) error {
	d.sendKB(ev.ChatID, "Выберите дату:", keyboards.Dates(d.Now(), true))
	return e.Begin(ctx, ev.UserID, models.StateHWDate, map[string]string{
		models.KeyClass:  *u.Class,
		models.KeySchool: *u.School,
	})
}

// ViewHomeworkCommand — вход /viewhw.
func ViewHomeworkCommand(ctx context.Context, e *flow.Engine, d *Deps, ev flow.Event, u *models.User) error {
	d.sendKB(ev.ChatID, "Выберите дату:", keyboards.Dates(d.Now(), false))
	return e.Begin(ctx, ev.UserID, models.StateHWViewDate, map[string]string{
		models.KeyClass:  *u.Class,
		models.KeySchool: *u.School,
	})
}

func registerHomework(e *flow.Engine, d *Deps) {
	e.Register(models.StateHWDate, flow.KindCallback, "date_", d.hwDateChosen)
	e.Register(models.StateHWDate, flow.KindCallback, "manual_date", d.hwManualDatePrompt)
	e.Register(models.StateHWDate, flow.KindCallback, "next_lesson", d.hwNextLesson)
	e.Register(models.StateHWDate, flow.KindMessage, "", d.hwManualDateInput)

	e.Register(models.StateHWSubject, flow.KindCallback, "subject_", d.hwSubjectChosen)
	e.Register(models.StateHWSubject, flow.KindCallback, "all_subjects", d.hwAllSubjects)
	e.Register(models.StateHWSubject, flow.KindCallback, "new_subject", d.hwNewSubjectPrompt)
	e.Register(models.StateHWSubject, flow.KindMessage, "", d.hwNewSubjectInput)

	e.Register(models.StateHWTask, flow.KindMessage, "", d.hwTaskInput)

	e.Register(models.StateHWViewDate, flow.KindCallback, "date_", d.hwViewDate)
	e.Register(models.StateHWViewDate, flow.KindCallback, "manual_date", d.hwManualDatePrompt)
	e.Register(models.StateHWViewDate, flow.KindMessage, "", d.hwViewManualDate)
}

func (d *Deps) subjectsKeyboard(ctx context.Context, st *models.ConversationState, userID int64, day string, includeAll bool) (tgbotapi.InlineKeyboardMarkup, error) {
	u, err := d.Store.GetUser(ctx, userID)
	if err != nil {
		return tgbotapi.InlineKeyboardMarkup{}, err
	}
	sched, err := d.Schedule.Get(ctx, st.Get(models.KeyClass), st.Get(models.KeySchool))
	if err != nil {
		return tgbotapi.InlineKeyboardMarkup{}, err
	}
	return keyboards.Subjects(sched, day, u.Group, includeAll), nil
}

// переход к выбору предмета после того, как дата известна
func (d *Deps) toSubjectStep(ctx context.Context, ev flow.Event, st *models.ConversationState, date time.Time) error {
	st.Set(models.KeyDate, dates.Format(date))
	kb, err := d.subjectsKeyboard(ctx, st, ev.UserID, dates.WeekdayName(date), true)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("Вы выбрали дату: %s\nВыберите предмет:", dates.Display(date))
	if ev.Kind == flow.KindCallback {
		d.editKB(ev, text, kb)
	} else {
		d.sendKB(ev.ChatID, text, kb)
	}
	st.To(models.StateHWSubject)
	return nil
}

func (d *Deps) hwDateChosen(ctx context.Context, ev flow.Event, st *models.ConversationState) error {
	defer d.answer(ev)
	date, err := dates.Parse(strings.TrimPrefix(ev.Data, "date_"))
	if err != nil {
		d.send(ev.ChatID, "Ошибка: неверный формат даты.")
		return nil
	}
	return d.toSubjectStep(ctx, ev, st, date)
}

func (d *Deps) hwManualDatePrompt(_ context.Context, ev flow.Event, _ *models.ConversationState) error {
	defer d.answer(ev)
	d.edit(ev, fmt.Sprintf("Сегодня %s.\nВведите дату в формате ММ ДД или ГГ ММ ДД:", dates.Format(d.Now())))
	return nil
}

func (d *Deps) hwManualDateInput(ctx context.Context, ev flow.Event, st *models.ConversationState) error {
	date, err := dates.ParseManual(ev.Text, d.Now())
	if err != nil {
		d.send(ev.ChatID, "Некорректный формат даты. Используйте ММ ДД (например, 04 15) или ГГ ММ ДД (например, 24 04 15).")
		return nil
	}
	return d.toSubjectStep(ctx, ev, st, date)
}

// hwNextLesson — шорткат «добавить на следующий урок»: сперва предмет, дату
// выведем из расписания.
func (d *Deps) hwNextLesson(ctx context.Context, ev flow.Event, st *models.ConversationState) error {
	defer d.answer(ev)
	kb, err := d.subjectsKeyboard(ctx, st, ev.UserID, "", false)
	if err != nil {
		return err
	}
	st.Set(models.KeyNextLesson, "1")
	d.editKB(ev, "Выберите предмет для добавления на следующий урок:", kb)
	st.To(models.StateHWSubject)
	return nil
}

func (d *Deps) hwSubjectChosen(ctx context.Context, ev flow.Event, st *models.ConversationState) error {
	defer d.answer(ev)
	subject := strings.TrimPrefix(ev.Data, "subject_")
	st.Set(models.KeySubject, subject)

	if st.Get(models.KeyNextLesson) == "1" {
		u, err := d.Store.GetUser(ctx, ev.UserID)
		if err != nil {
			return err
		}
		next, err := d.Schedule.NextOccurrence(ctx, st.Get(models.KeyClass), st.Get(models.KeySchool), subject, u.Group)
		if err != nil {
			return err
		}
		if next.IsZero() {
			d.alert(ev, "❌ Следующий урок по этому предмету не найден.")
			return nil
		}
		st.Set(models.KeyDate, dates.Format(next))
		d.edit(ev, fmt.Sprintf("Следующий урок по %s будет %s.\nВведите задание:", subject, dates.Display(next)))
		st.To(models.StateHWTask)
		return nil
	}

	d.edit(ev, fmt.Sprintf("Вы выбрали предмет: %s\nТеперь введите задание:", subject))
	st.To(models.StateHWTask)
	return nil
}

func (d *Deps) hwAllSubjects(ctx context.Context, ev flow.Event, st *models.ConversationState) error {
	defer d.answer(ev)
	kb, err := d.subjectsKeyboard(ctx, st, ev.UserID, "", false)
	if err != nil {
		return err
	}
	d.editKB(ev, "Выберите предмет из всех доступных:", kb)
	return nil
}

func (d *Deps) hwNewSubjectPrompt(_ context.Context, ev flow.Event, st *models.ConversationState) error {
	defer d.answer(ev)
	st.Set(models.KeyNewSubject, "1")
	d.edit(ev, "Введите название нового предмета:")
	return nil
}

func (d *Deps) hwNewSubjectInput(ctx context.Context, ev flow.Event, st *models.ConversationState) error {
	if st.Get(models.KeyNewSubject) != "1" {
		d.send(ev.ChatID, "Выберите предмет кнопкой или нажмите «Новый предмет».")
		return nil
	}
	subject := strings.TrimSpace(ev.Text)
	if subject == "" {
		d.send(ev.ChatID, "Название предмета не может быть пустым. Введите ещё раз:")
		return nil
	}
	st.Set(models.KeySubject, subject)

	// в шорткате «следующий урок» дату ещё предстоит вывести из расписания
	if st.Get(models.KeyNextLesson) == "1" {
		u, err := d.Store.GetUser(ctx, ev.UserID)
		if err != nil {
			return err
		}
		next, err := d.Schedule.NextOccurrence(ctx, st.Get(models.KeyClass), st.Get(models.KeySchool), subject, u.Group)
		if err != nil {
			return err
		}
		if next.IsZero() {
			d.send(ev.ChatID, "❌ Следующий урок по этому предмету не найден. Выберите другой предмет:")
			return nil
		}
		st.Set(models.KeyDate, dates.Format(next))
		d.send(ev.ChatID, fmt.Sprintf("Следующий урок по %s будет %s.\nВведите задание:", subject, dates.Display(next)))
		st.To(models.StateHWTask)
		return nil
	}

	d.send(ev.ChatID, fmt.Sprintf("Вы выбрали предмет: %s\nТеперь введите задание:", subject))
	st.To(models.StateHWTask)
	return nil
}

func (d *Deps) hwTaskInput(ctx context.Context, ev flow.Event, st *models.ConversationState) error {
	task := strings.TrimSpace(ev.Text)
	if task == "" {
		d.send(ev.ChatID, "Задание не может быть пустым. Введите ещё раз:")
		return nil
	}
	u, err := d.Store.GetUser(ctx, ev.UserID)
	if err != nil {
		return err
	}
	entry, err := d.Homework.Add(ctx, u, st.Get(models.KeyDate), st.Get(models.KeySubject), task)
	if err != nil {
		return err
	}
	d.send(ev.ChatID, fmt.Sprintf("✅ Добавлено: %s на %s для %s — %s",
		entry.Subject, entry.Date, entry.Class, entry.Task))
	st.Clear()
	return nil
}

func (d *Deps) hwViewDate(ctx context.Context, ev flow.Event, st *models.ConversationState) error {
	defer d.answer(ev)
	date, err := dates.Parse(strings.TrimPrefix(ev.Data, "date_"))
	if err != nil {
		d.send(ev.ChatID, "Ошибка: неверный формат даты.")
		return nil
	}
	return d.renderHomework(ctx, ev, st, date)
}

func (d *Deps) hwViewManualDate(ctx context.Context, ev flow.Event, st *models.ConversationState) error {
	date, err := dates.ParseManual(ev.Text, d.Now())
	if err != nil {
		d.send(ev.ChatID, "Некорректный формат даты. Используйте ММ ДД (например, 04 15) или ГГ ММ ДД (например, 24 04 15).")
		return nil
	}
	return d.renderHomework(ctx, ev, st, date)
}

// renderHomework — терминальный шаг /viewhw: расписание дня + задания с учётом
// группы смотрящего.
func (d *Deps) renderHomework(ctx context.Context, ev flow.Event, st *models.ConversationState, date time.Time) error {
	class := st.Get(models.KeyClass)
	school := st.Get(models.KeySchool)

	u, err := d.Store.GetUser(ctx, ev.UserID)
	if err != nil {
		return err
	}
	sched, err := d.Schedule.Get(ctx, class, school)
	if err != nil {
		return err
	}
	entries, err := d.Homework.EntriesFor(ctx, dates.Format(date), class, school, u.Group)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📅 Расписание для %s на (%s):\n", class, dates.Display(date))
	daySubjects := sched[dates.WeekdayName(date)]
	if len(daySubjects) > 0 {
		for i, s := range daySubjects {
			fmt.Fprintf(&b, "%d. %s\n", i+1, s)
		}
	} else {
		b.WriteString("Расписание на этот день отсутствует.\n")
	}
	b.WriteString("\n📚 Домашнее задание:\n")
	if len(entries) > 0 {
		for _, e := range entries {
			fmt.Fprintf(&b, "%s: %s\n", e.Subject, e.Task)
		}
	} else {
		b.WriteString("Нет заданий на этот день.")
	}

	if ev.Kind == flow.KindCallback {
		d.edit(ev, b.String())
	} else {
		d.send(ev.ChatID, b.String())
	}
	st.Clear()
	return nil
}
