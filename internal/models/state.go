package models

// DialogState — шаг активного сценария пользователя. Пустое значение — сценарий
// не запущен.
type DialogState string

const (
	StateNone DialogState = ""

	// Регистрация
	StateRegSchool      DialogState = "reg_school"
	StateRegClassGrade  DialogState = "reg_class_grade"
	StateRegClassLetter DialogState = "reg_class_letter"
	StateRegGroup       DialogState = "reg_group"
	StateRegNewSchool   DialogState = "reg_new_school"

	// Домашка
	StateHWDate     DialogState = "hw_date"
	StateHWSubject  DialogState = "hw_subject"
	StateHWTask     DialogState = "hw_task"
	StateHWViewDate DialogState = "hw_view_date"

	// Расписание
	StateSchedDay      DialogState = "sched_day"
	StateSchedSubjects DialogState = "sched_subjects"

	// Админ-панель
	StateAdmSearch  DialogState = "adm_search"
	StateAdmAction  DialogState = "adm_action"
	StateAdmRole    DialogState = "adm_role"
	StateAdmBalance DialogState = "adm_balance"
)

// Ключи временных данных сценария.
const (
	KeyGrade      = "grade"
	KeySchool     = "school"
	KeyClass      = "class"
	KeyDay        = "day"
	KeyDate       = "date"
	KeySubject    = "subject"
	KeyTargetUser = "target_user"
	KeyNewSubject = "new_subject"
	KeyNextLesson = "next_lesson"
)

// ConversationState — единственная на пользователя запись о текущем сценарии.
// Создаётся при входе в сценарий, меняется на каждом шаге и обязана очищаться
// на любом терминальном действии.
type ConversationState struct {
	UserID int64
	State  DialogState
	Data   map[string]string
}

func NewConversationState(userID int64) *ConversationState {
	return &ConversationState{UserID: userID, State: StateNone, Data: map[string]string{}}
}

func (s *ConversationState) Get(key string) string {
	if s.Data == nil {
		return ""
	}
	return s.Data[key]
}

func (s *ConversationState) Set(key, val string) {
	if s.Data == nil {
		s.Data = map[string]string{}
	}
	s.Data[key] = val
}

// To переводит сценарий на следующий шаг, сохраняя данные.
func (s *ConversationState) To(st DialogState) { s.State = st }

// Clear завершает сценарий: состояние «none», пустой мешок данных.
func (s *ConversationState) Clear() {
	s.State = StateNone
	s.Data = map[string]string{}
}

func (s *ConversationState) Active() bool { return s.State != StateNone }
