package models

type HomeworkEntry struct {
	ID       int64   `db:"id"`
	AuthorID int64   `db:"author_id"`
	Date     string  `db:"date"` // каноничный вид "ГГ ММ ДД"
	Class    string  `db:"class"`
	School   string  `db:"school"`
	Subject  string  `db:"subject"`
	Task     string  `db:"task"`
	Group    *string `db:"group_number"` // копия группы автора на момент записи
}

// Schedule — расписание класса: день недели (Понедельник..Пятница) → уроки по порядку.
// Отсутствующий день означает «расписания нет». Элемент вида "А/Б" — предмет,
// который группы 1 и 2 посещают раздельно.
type Schedule map[string][]string
