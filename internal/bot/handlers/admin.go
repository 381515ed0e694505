package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zmdiary/zmdiary-bot/internal/adminpanel"
	"github.com/zmdiary/zmdiary-bot/internal/bot/keyboards"
	"github.com/zmdiary/zmdiary-bot/internal/export"
	"github.com/zmdiary/zmdiary-bot/internal/flow"
	"github.com/zmdiary/zmdiary-bot/internal/metrics"
	"github.com/zmdiary/zmdiary-bot/internal/models"
	"github.com/zmdiary/zmdiary-bot/internal/observability"
	"github.com/zmdiary/zmdiary-bot/internal/storage"
)

// AdminCommand — вход /admin.
func AdminCommand(ctx context.Context, e *flow.Engine, d *Deps, ev flow.Event) error {
	d.sendKB(ev.ChatID, "🔍 Введите имя пользователя или Telegram ID для поиска:", keyboards.AdminSearch())
	return e.Begin(ctx, ev.UserID, models.StateAdmSearch, nil)
}

func registerAdminPanel(e *flow.Engine, d *Deps) {
	e.Register(models.StateAdmSearch, flow.KindCallback, "admin_user_", d.admUserChosen)
	e.Register(models.StateAdmSearch, flow.KindCallback, "admin_export", d.admExport)
	e.Register(models.StateAdmSearch, flow.KindCallback, "admin_backup", d.admBackup)
	e.Register(models.StateAdmSearch, flow.KindCallback, "admin_restore", d.admRestore)
	e.Register(models.StateAdmSearch, flow.KindMessage, "", d.admSearchInput)

	e.Register(models.StateAdmAction, flow.KindCallback, "admin_changerole", d.admChangeRolePrompt)
	e.Register(models.StateAdmAction, flow.KindCallback, "admin_changebalance", d.admChangeBalancePrompt)

	e.Register(models.StateAdmRole, flow.KindCallback, "role_", d.admRoleChosen)
	e.Register(models.StateAdmBalance, flow.KindMessage, "", d.admBalanceInput)
}

func profileText(u *models.User, header string) string {
	class, school := "—", "—"
	if u.Class != nil {
		class = *u.Class
	}
	if u.School != nil {
		school = *u.School
	}
	return fmt.Sprintf(
		"%s\n\n🆔 ID: %d\n👤 Имя: %s\n🏫 Школа: %s\n🎒 Класс: %s\n👤 Роль: %s\n💰 Баланс: %d",
		header, u.ID, u.DisplayName, school, class, u.Role, u.Balance)
}

func (d *Deps) admSearchInput(ctx context.Context, ev flow.Event, st *models.ConversationState) error {
	query := strings.TrimSpace(ev.Text)
	users, err := d.Admin.Search(ctx, query)
	if err != nil {
		return err
	}
	switch len(users) {
	case 0:
		d.send(ev.ChatID, "❌ Пользователь не найден.")
		st.Clear()
		return nil
	case 1:
		return d.admShowUser(ev, st, &users[0])
	default:
		d.sendKB(ev.ChatID, "🔍 Найдено несколько пользователей. Выберите одного:", keyboards.AdminUserList(users))
		return nil // остаёмся на шаге поиска, ждём выбор кнопкой
	}
}

func (d *Deps) admUserChosen(ctx context.Context, ev flow.Event, st *models.ConversationState) error {
	defer d.answer(ev)
	id, err := strconv.ParseInt(strings.TrimPrefix(ev.Data, "admin_user_"), 10, 64)
	if err != nil {
		d.send(ev.ChatID, "Ошибка: не удалось определить пользователя.")
		return nil
	}
	u, err := d.Store.GetUser(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		d.send(ev.ChatID, "❌ Пользователь не найден.")
		st.Clear()
		return nil
	}
	if err != nil {
		return err
	}
	return d.admShowUser(ev, st, u)
}

// admShowUser — профиль найден; админские учётки можно смотреть, но не править.
func (d *Deps) admShowUser(ev flow.Event, st *models.ConversationState, u *models.User) error {
	if u.Role == models.Admin {
		d.send(ev.ChatID, profileText(u, "🔍 Информация о пользователе (админ):")+
			"\n\n❌ Вы не можете изменять данные другого админа.")
		st.Clear()
		return nil
	}
	st.Set(models.KeyTargetUser, strconv.FormatInt(u.ID, 10))
	d.sendKB(ev.ChatID, profileText(u, "🔍 Найден пользователь:")+"\n\nВыберите действие:",
		keyboards.AdminUserActions())
	st.To(models.StateAdmAction)
	return nil
}

func (d *Deps) admChangeRolePrompt(_ context.Context, ev flow.Event, st *models.ConversationState) error {
	defer d.answer(ev)
	d.editKB(ev, "Выберите новую роль:", keyboards.Roles())
	st.To(models.StateAdmRole)
	return nil
}

func (d *Deps) admChangeBalancePrompt(_ context.Context, ev flow.Event, st *models.ConversationState) error {
	defer d.answer(ev)
	d.edit(ev, "Введите новый баланс:")
	st.To(models.StateAdmBalance)
	return nil
}

func (d *Deps) admRoleChosen(ctx context.Context, ev flow.Event, st *models.ConversationState) error {
	defer d.answer(ev)
	role := models.Role(strings.TrimPrefix(ev.Data, "role_"))
	target, _ := strconv.ParseInt(st.Get(models.KeyTargetUser), 10, 64)

	err := d.Admin.ChangeRole(ctx, target, role)
	if errors.Is(err, adminpanel.ErrProtected) {
		d.edit(ev, "❌ Вы не можете изменять данные другого администратора.")
		st.Clear()
		return nil
	}
	if err != nil {
		return err
	}
	d.edit(ev, fmt.Sprintf("✅ Роль пользователя %d изменена на %s.", target, role))
	st.Clear()
	return nil
}

func (d *Deps) admBalanceInput(ctx context.Context, ev flow.Event, st *models.ConversationState) error {
	balance, err := strconv.ParseInt(strings.TrimSpace(ev.Text), 10, 64)
	if err != nil {
		d.send(ev.ChatID, "❌ Некорректное значение баланса. Введите число.")
		return nil
	}
	target, _ := strconv.ParseInt(st.Get(models.KeyTargetUser), 10, 64)

	err = d.Admin.ChangeBalance(ctx, target, balance)
	if errors.Is(err, adminpanel.ErrProtected) {
		d.send(ev.ChatID, "❌ Вы не можете изменять данные другого администратора.")
		st.Clear()
		return nil
	}
	if err != nil {
		return err
	}
	d.send(ev.ChatID, fmt.Sprintf("✅ Баланс пользователя %d изменен на %d.", target, balance))
	st.Clear()
	return nil
}

// admExport — выгрузка всех пользователей в .xlsx.
func (d *Deps) admExport(ctx context.Context, ev flow.Event, st *models.ConversationState) error {
	defer d.answer(ev)
	users, err := d.Store.ListUsers(ctx)
	if err != nil {
		return err
	}
	data, err := export.UsersWorkbook(users)
	if err != nil {
		return err
	}
	doc := tgbotapi.NewDocument(ev.ChatID, tgbotapi.FileBytes{
		Name:  "users.xlsx",
		Bytes: data,
	})
	if _, err := d.Bot.Send(doc); err != nil {
		metrics.HandlerErrors.Inc()
	}
	st.Clear()
	return nil
}

// admBackup — дамп базы через sidecar pgbackup; файл остаётся на его диске.
func (d *Deps) admBackup(ctx context.Context, ev flow.Event, st *models.ConversationState) error {
	defer d.answer(ev)
	d.send(ev.ChatID, "⌛ Делаю бэкап базы…")
	path, err := d.Backup.Backup(ctx)
	if err != nil {
		metrics.HandlerErrors.Inc()
		observability.CaptureErr(err)
		d.send(ev.ChatID, fmt.Sprintf("❌ Не удалось сделать бэкап: %v", err))
		st.Clear()
		return nil
	}
	d.send(ev.ChatID, "✅ Готово. Сохранено: "+path)
	st.Clear()
	return nil
}

func (d *Deps) admRestore(ctx context.Context, ev flow.Event, st *models.ConversationState) error {
	defer d.answer(ev)
	d.send(ev.ChatID, "🛠 Восстанавливаю БД из последнего бэкапа…")
	path, err := d.Backup.RestoreLatest(ctx)
	if err != nil {
		metrics.HandlerErrors.Inc()
		observability.CaptureErr(err)
		d.send(ev.ChatID, fmt.Sprintf("❌ Не удалось восстановить: %v", err))
		st.Clear()
		return nil
	}
	d.send(ev.ChatID, "✅ Готово. Восстановлено из: "+path)
	st.Clear()
	return nil
}
