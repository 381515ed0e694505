// Package access — цепочка проверок доступа перед запуском сценария. Проверки
// идут по порядку, первая отказавшая останавливает разбор; пользователь видит
// только её сообщение.
package access

import (
	"github.com/zmdiary/zmdiary-bot/internal/models"
)

// Denial — отказ проверки: текст для пользователя и признак того, что к отказу
// стоит приложить кнопку «подать заявку на редактора».
type Denial struct {
	Gate               string
	Message            string
	OfferEditorRequest bool
}

// Gate — чистый предикат над (приватность чата, профиль). Профиль может быть
// nil, если пользователь ещё не заходил.
type Gate interface {
	Name() string
	Check(private bool, u *models.User) *Denial
}

// Chain прогоняет проверки по порядку и возвращает первый отказ.
func Chain(private bool, u *models.User, gates ...Gate) *Denial {
	for _, g := range gates {
		if d := g.Check(private, u); d != nil {
			d.Gate = g.Name()
			return d
		}
	}
	return nil
}

type privateChatOnly struct{}

// PrivateChatOnly — бот работает только в личных сообщениях.
var PrivateChatOnly Gate = privateChatOnly{}

func (privateChatOnly) Name() string { return "private_chat" }

func (privateChatOnly) Check(private bool, _ *models.User) *Denial {
	if private {
		return nil
	}
	return &Denial{Message: "🚫 Бот работает только в лс."}
}

type notBanned struct{}

var NotBanned Gate = notBanned{}

func (notBanned) Name() string { return "not_banned" }

func (notBanned) Check(_ bool, u *models.User) *Denial {
	if u != nil && u.Role == models.Ban {
		return &Denial{Message: "❌ Вы забанены и не можете пользоваться ботом."}
	}
	return nil
}

type hasSchoolAndClass struct{}

var HasSchoolAndClass Gate = hasSchoolAndClass{}

func (hasSchoolAndClass) Name() string { return "registered" }

func (hasSchoolAndClass) Check(_ bool, u *models.User) *Denial {
	if u != nil && u.Registered() {
		return nil
	}
	return &Denial{Message: "❌ Вы не зарегистрировали школу и класс.\n/start"}
}

type hasElevatedRole struct{}

// HasElevatedRole допускает editor, vip и admin; остальным предлагает подать
// заявку на роль редактора.
var HasElevatedRole Gate = hasElevatedRole{}

func (hasElevatedRole) Name() string { return "elevated_role" }

func (hasElevatedRole) Check(_ bool, u *models.User) *Denial {
	if u != nil && u.Role.Elevated() {
		return nil
	}
	return &Denial{
		Message:            "❌ У вас нет прав для выполнения этой команды.",
		OfferEditorRequest: true,
	}
}

type isAdmin struct{}

var IsAdmin Gate = isAdmin{}

func (isAdmin) Name() string { return "admin" }

func (isAdmin) Check(_ bool, u *models.User) *Denial {
	if u != nil && u.Role == models.Admin {
		return nil
	}
	return &Denial{Message: "❌ Команда доступна только администратору."}
}
