package models

type Role string

const (
	Viewer Role = "viewer"
	Editor Role = "editor"
	VIP    Role = "vip"
	Admin  Role = "admin"
	Ban    Role = "ban"
)

// ElevatedRoles — роли, которым разрешена запись (домашка, расписание).
func (r Role) Elevated() bool {
	return r == Editor || r == VIP || r == Admin
}

type User struct {
	ID            int64   `db:"id"` // telegram id, единственная идентичность
	DisplayName   string  `db:"display_name"`
	School        *string `db:"school"`
	Class         *string `db:"class"` // "7 Б" = номер + буква
	Group         *string `db:"group_number"`
	Role          Role    `db:"role"`
	Balance       int64   `db:"balance"`
	ReferrerID    *int64  `db:"referrer_id"`
	EditorRequest bool    `db:"editor_request"`
}

// Registered — школа и класс выбраны, регистрация завершена.
func (u *User) Registered() bool {
	return u.School != nil && u.Class != nil
}

type School struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}
