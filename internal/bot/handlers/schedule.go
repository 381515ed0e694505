package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/zmdiary/zmdiary-bot/internal/bot/keyboards"
	"github.com/zmdiary/zmdiary-bot/internal/dates"
	"github.com/zmdiary/zmdiary-bot/internal/flow"
	"github.com/zmdiary/zmdiary-bot/internal/models"
)

var exampleSubjects = []string{
	"Алгебра", "Английский", "Биология", "ВИС", "География", "Геометрия", "История",
	"Информатика", "ИЗО", "Литература", "Математика", "Музыка", "МХК", "Общество",
	"ОБЖ", "РОВ", "Русский", "Технология", "Физика", "Физ-ра", "Химия", "Английский/Информатика",
}

// EditScheduleCommand — вход /editschedule.
func EditScheduleCommand(ctx context.Context, e *flow.Engine, d *Deps, ev flow.Event, u *models.User) error {
	d.sendKB(ev.ChatID, "Выберите день недели для изменения:", keyboards.Days())
	return e.Begin(ctx, ev.UserID, models.StateSchedDay, map[string]string{
		models.KeyClass:  *u.Class,
		models.KeySchool: *u.School,
	})
}

// ViewScheduleCommand — /viewschedule, без сценария: просто рендер.
func ViewScheduleCommand(ctx context.Context, d *Deps, ev flow.Event, u *models.User) error {
	sched, err := d.Schedule.Get(ctx, *u.Class, *u.School)
	if err != nil {
		return err
	}
	if len(sched) == 0 {
		d.send(ev.ChatID, fmt.Sprintf("Нет расписания для %s (%s).\nДобавить: /editschedule", *u.Class, *u.School))
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📌 Расписание для %s класса %s:\n", *u.Class, *u.School)
	for _, day := range dates.SchoolDays {
		subjects := sched[day]
		if len(subjects) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n<b>%s</b>\n", day)
		for i, s := range subjects {
			fmt.Fprintf(&b, "%d. %s\n", i+1, s)
		}
	}
	d.sendHTML(ev.ChatID, b.String())
	return nil
}

func registerScheduleEdit(e *flow.Engine, d *Deps) {
	e.Register(models.StateSchedDay, flow.KindCallback, "day_", d.schedDayChosen)
	e.Register(models.StateSchedSubjects, flow.KindMessage, "", d.schedSubjectsInput)
}

func (d *Deps) schedDayChosen(ctx context.Context, ev flow.Event, st *models.ConversationState) error {
	defer d.answer(ev)
	day := strings.TrimPrefix(ev.Data, "day_")
	st.Set(models.KeyDay, day)

	sched, err := d.Schedule.Get(ctx, st.Get(models.KeyClass), st.Get(models.KeySchool))
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📅 Текущее расписание на %s:\n\n", day)
	if len(sched[day]) > 0 {
		b.WriteString(strings.Join(sched[day], ", ") + "\n\n")
	} else {
		b.WriteString("❌ Расписание отсутствует.\n\n")
	}
	b.WriteString("📚 Список предметов для примера:\n\n")
	b.WriteString(strings.Join(exampleSubjects, "\n"))
	b.WriteString("\n\n✏️ Введите новые предметы через запятую:")

	d.edit(ev, b.String())
	st.To(models.StateSchedSubjects)
	return nil
}

// schedSubjectsInput — терминальный шаг: список дня заменяется целиком.
func (d *Deps) schedSubjectsInput(ctx context.Context, ev flow.Event, st *models.ConversationState) error {
	var subjects []string
	for _, s := range strings.Split(ev.Text, ",") {
		if s = strings.TrimSpace(s); s != "" {
			subjects = append(subjects, s)
		}
	}
	if len(subjects) == 0 {
		d.send(ev.ChatID, "Список предметов пуст. Введите предметы через запятую:")
		return nil
	}

	day := st.Get(models.KeyDay)
	if err := d.Schedule.SetDay(ctx, st.Get(models.KeyClass), st.Get(models.KeySchool), day, subjects); err != nil {
		return err
	}
	d.send(ev.ChatID, fmt.Sprintf("✅ Расписание на %s обновлено: %s", day, strings.Join(subjects, ", ")))
	st.Clear()
	return nil
}
