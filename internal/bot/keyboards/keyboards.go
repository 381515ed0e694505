// Package keyboards — сборка reply- и inline-клавиатур бота.
package keyboards

import (
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zmdiary/zmdiary-bot/internal/dates"
	"github.com/zmdiary/zmdiary-bot/internal/models"
	"github.com/zmdiary/zmdiary-bot/internal/schedule"
)

// rowsOf раскладывает кнопки по perRow в ряд.
func rowsOf(buttons []tgbotapi.InlineKeyboardButton, perRow int) [][]tgbotapi.InlineKeyboardButton {
	var rows [][]tgbotapi.InlineKeyboardButton
	for len(buttons) > 0 {
		n := perRow
		if n > len(buttons) {
			n = len(buttons)
		}
		rows = append(rows, buttons[:n])
		buttons = buttons[n:]
	}
	return rows
}

func MainMenu() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/addhw"),
			tgbotapi.NewKeyboardButton("/viewhw"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/viewschedule"),
		),
	)
	kb.ResizeKeyboard = true
	kb.Selective = true
	return kb
}

func Grades() tgbotapi.InlineKeyboardMarkup {
	var btns []tgbotapi.InlineKeyboardButton
	for grade := 1; grade <= 11; grade++ {
		btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%d класс", grade), fmt.Sprintf("class_%d", grade)))
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rowsOf(btns, 2)}
}

func Letters(grade string) tgbotapi.InlineKeyboardMarkup {
	var btns []tgbotapi.InlineKeyboardButton
	for _, letter := range []string{"А", "Б", "В", "Г", "Д"} {
		class := grade + " " + letter
		btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(class, "classn_"+class))
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rowsOf(btns, 2)}
}

func Groups() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Группа 1", "group_1")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Группа 2", "group_2")),
	)
}

func Schools(schools []models.School) tgbotapi.InlineKeyboardMarkup {
	var btns []tgbotapi.InlineKeyboardButton
	for _, s := range schools {
		btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(s.Name, "school_"+s.Name))
	}
	btns = append(btns, tgbotapi.NewInlineKeyboardButtonData("➕ Предложить новую школу", "new_school"))
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rowsOf(btns, 2)}
}

// Approval — клавиатура модератору; id зашит в callback, чтобы решение
// сошлось с конкретным предложением.
func Approval(proposalID int64) tgbotapi.InlineKeyboardMarkup {
	id := strconv.FormatInt(proposalID, 10)
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rowsOf([]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("✅ Добавить", "approve_"+id),
		tgbotapi.NewInlineKeyboardButtonData("❌ Забанить", "reject_"+id),
		tgbotapi.NewInlineKeyboardButtonData("⏩ Пропустить", "skip_"+id),
	}, 2)}
}

var shortDays = map[time.Weekday]string{
	time.Monday: "ПН", time.Tuesday: "ВТ", time.Wednesday: "СР",
	time.Thursday: "ЧТ", time.Friday: "ПТ",
}

// Dates — сегодня/завтра/послезавтра (будни), ещё четыре будних дня, опционально
// «следующий урок», всегда ручной ввод.
func Dates(now time.Time, includeNextLesson bool) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	add := func(label string, d time.Time) {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "date_"+dates.Format(d))))
	}
	special := []struct {
		label  string
		offset int
	}{{"Сегодня", 0}, {"Завтра", 1}, {"Послезавтра", 2}}
	for _, sp := range special {
		d := now.AddDate(0, 0, sp.offset)
		if d.Weekday() >= time.Monday && d.Weekday() <= time.Friday {
			add(sp.label, d)
		}
	}
	for i := 3; i < 7; i++ {
		d := now.AddDate(0, 0, i)
		if short, ok := shortDays[d.Weekday()]; ok {
			add(short+d.Format(" 02.01"), d)
		}
	}
	if includeNextLesson {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Добавить на следующий урок", "next_lesson")))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("📅 Ввести дату вручную", "manual_date")))
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// Subjects — предметы из расписания: конкретного дня, либо всех дней сразу.
// Групповые элементы показываются частью своей группы; без группы пропускаем.
func Subjects(sched models.Schedule, day string, group *string, includeAll bool) tgbotapi.InlineKeyboardMarkup {
	var tokens []string
	if day != "" {
		tokens = sched[day]
	} else {
		seen := map[string]bool{}
		for _, d := range dates.SchoolDays {
			for _, t := range sched[d] {
				if !seen[t] {
					seen[t] = true
					tokens = append(tokens, t)
				}
			}
		}
	}

	var btns []tgbotapi.InlineKeyboardButton
	added := map[string]bool{}
	for _, token := range tokens {
		subj, ok := schedule.ResolveSubject(token, group)
		if !ok || added[subj] {
			continue
		}
		added[subj] = true
		btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(subj, "subject_"+subj))
	}
	if includeAll {
		btns = append(btns, tgbotapi.NewInlineKeyboardButtonData("📚 Все предметы", "all_subjects"))
	}
	btns = append(btns, tgbotapi.NewInlineKeyboardButtonData("➕ Новый предмет", "new_subject"))
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rowsOf(btns, 2)}
}

func Days() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, day := range dates.SchoolDays {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(day, "day_"+day)))
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func AdminUserActions() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👤 Изменить роль", "admin_changerole"),
			tgbotapi.NewInlineKeyboardButtonData("💰 Изменить баланс", "admin_changebalance"),
		),
	)
}

func AdminSearch() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📥 Экспорт пользователей", "admin_export"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💾 Бэкап БД", "admin_backup"),
			tgbotapi.NewInlineKeyboardButtonData("🛠 Восстановить БД", "admin_restore"),
		),
	)
}

func AdminUserList(users []models.User) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, u := range users {
		class, school := "—", "—"
		if u.Class != nil {
			class = *u.Class
		}
		if u.School != nil {
			school = *u.School
		}
		label := fmt.Sprintf("%s - %s %s (%s)", u.DisplayName, class, school, u.Role)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "admin_user_"+strconv.FormatInt(u.ID, 10))))
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func Roles() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rowsOf([]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("👀 Viewer", "role_viewer"),
		tgbotapi.NewInlineKeyboardButtonData("✏️ Editor", "role_editor"),
		tgbotapi.NewInlineKeyboardButtonData("🛡️ Admin", "role_admin"),
		tgbotapi.NewInlineKeyboardButtonData("🌟 VIP", "role_vip"),
		tgbotapi.NewInlineKeyboardButtonData("🚫 Ban", "role_ban"),
	}, 2)}
}

func RequestEditor() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ Подать заявку на редактора", "request_editor"),
		),
	)
}

// DisableMarkup «гасит» inline-клавиатуру у сообщения: защита от двойной
// обработки (например, решений модератора).
func DisableMarkup(chatID int64, messageID int) tgbotapi.EditMessageReplyMarkupConfig {
	empty := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: make([][]tgbotapi.InlineKeyboardButton, 0)}
	return tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, empty)
}
