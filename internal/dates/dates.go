// Package dates — разбор и форматирование дат дневника. Внутренний канон —
// строка "ГГ ММ ДД" (например "26 09 01"), как ключ в таблице домашки.
package dates

import (
	"fmt"
	"strings"
	"time"
)

const Canonical = "06 01 02"

// Русские названия дней недели; ключами расписания бывают только Пн..Пт.
var weekdays = [...]string{
	time.Sunday:    "Воскресенье",
	time.Monday:    "Понедельник",
	time.Tuesday:   "Вторник",
	time.Wednesday: "Среда",
	time.Thursday:  "Четверг",
	time.Friday:    "Пятница",
	time.Saturday:  "Суббота",
}

var SchoolDays = []string{"Понедельник", "Вторник", "Среда", "Четверг", "Пятница"}

func WeekdayName(t time.Time) string { return weekdays[t.Weekday()] }

func Format(t time.Time) string { return t.Format(Canonical) }

func Parse(s string) (time.Time, error) {
	return time.Parse(Canonical, strings.TrimSpace(s))
}

// Display — дата для показа пользователю.
func Display(t time.Time) string { return t.Format("02.01.2006") }

// ParseManual принимает ручной ввод "ММ ДД" или "ГГ ММ ДД". Для короткой формы
// год берётся из now.
func ParseManual(input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	parts := strings.Fields(input)
	switch len(parts) {
	case 2:
		input = now.Format("06") + " " + parts[0] + " " + parts[1]
	case 3:
		input = strings.Join(parts, " ")
	default:
		return time.Time{}, fmt.Errorf("ожидается ММ ДД или ГГ ММ ДД, получено %q", input)
	}
	return time.Parse(Canonical, input)
}
