// Package app — приём обновлений Telegram: проверки доступа, запуск сценариев,
// маршрутизация глобальных колбэков и отдача служебного HTTP.
package app

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/getsentry/sentry-go"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/zmdiary/zmdiary-bot/internal/access"
	"github.com/zmdiary/zmdiary-bot/internal/bot/handlers"
	"github.com/zmdiary/zmdiary-bot/internal/bot/keyboards"
	"github.com/zmdiary/zmdiary-bot/internal/ctxutil"
	"github.com/zmdiary/zmdiary-bot/internal/flow"
	"github.com/zmdiary/zmdiary-bot/internal/metrics"
	"github.com/zmdiary/zmdiary-bot/internal/models"
	"github.com/zmdiary/zmdiary-bot/internal/storage"
)

const errText = "⚠️ Произошла ошибка. Попробуйте ещё раз."

type Dispatcher struct {
	deps    *handlers.Deps
	engine  *flow.Engine
	limiter *ChatLimiter
	log     *zap.SugaredLogger
}

func NewDispatcher(deps *handlers.Deps, engine *flow.Engine, log *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{deps: deps, engine: engine, limiter: NewChatLimiter(), log: log}
}

// HandleUpdate — одна точка входа на обновление; события одного пользователя
// обрабатываются строго по очереди.
func (d *Dispatcher) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	metrics.BotUpdates.Inc()

	ev, ok := toEvent(upd)
	if !ok {
		return
	}
	unlock := d.limiter.lock(ev.UserID)
	defer unlock()

	if err := d.route(ctx, upd, ev); err != nil {
		d.log.Errorw("ошибка обработки обновления", "user", ev.UserID, "err", err)
		metrics.HandlerErrors.Inc()
		sentry.CaptureException(err)
		d.send(ev.ChatID, errText)
	}
}

func toEvent(upd tgbotapi.Update) (flow.Event, bool) {
	switch {
	case upd.Message != nil && upd.Message.From != nil:
		m := upd.Message
		return flow.Event{
			UserID:    m.From.ID,
			ChatID:    m.Chat.ID,
			Kind:      flow.KindMessage,
			Text:      m.Text,
			MessageID: m.MessageID,
			Private:   m.Chat.IsPrivate(),
		}, true
	case upd.CallbackQuery != nil && upd.CallbackQuery.Message != nil:
		cb := upd.CallbackQuery
		return flow.Event{
			UserID:     cb.From.ID,
			ChatID:     cb.Message.Chat.ID,
			Kind:       flow.KindCallback,
			Data:       cb.Data,
			MessageID:  cb.Message.MessageID,
			CallbackID: cb.ID,
			Private:    cb.Message.Chat.IsPrivate(),
		}, true
	}
	return flow.Event{}, false
}

func (d *Dispatcher) route(ctx context.Context, upd tgbotapi.Update, ev flow.Event) error {
	u, err := d.deps.Store.GetUser(ctx, ev.UserID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	if ev.Kind == flow.KindCallback {
		// решения модератора и заявка на редактора живут вне сценариев
		if handled, err := handlers.ModerationCallback(ctx, d.deps, ev); handled {
			return err
		}
		if ev.Data == "request_editor" {
			return handlers.RequestEditorCallback(ctx, d.deps, ev, u)
		}
		handled, err := d.engine.Dispatch(ctxutil.WithOp(ctx, "dialog"), ev)
		if err != nil {
			return err
		}
		if !handled {
			d.answerCallback(ev)
		}
		return nil
	}

	msg := upd.Message
	if msg.IsCommand() {
		return d.command(ctxutil.WithOp(ctx, msg.Command()), msg, ev, u)
	}

	// текст в группе не скармливаем сценарию: личный диалог пользователя не
	// должен продвигаться его сообщениями из чужих чатов
	if !ev.Private {
		d.send(ev.ChatID, "🚫 Бот работает только в лс.")
		return nil
	}

	handled, err := d.engine.Dispatch(ctxutil.WithOp(ctx, "dialog"), ev)
	if err != nil {
		return err
	}
	if !handled {
		d.send(ev.ChatID, "⚠️ Неизвестная команда. Используйте /start")
	}
	return nil
}

func (d *Dispatcher) command(ctx context.Context, msg *tgbotapi.Message, ev flow.Event, u *models.User) error {
	var gates []access.Gate
	switch msg.Command() {
	case "start":
		gates = []access.Gate{access.PrivateChatOnly, access.NotBanned}
	case "addhw", "editschedule":
		gates = []access.Gate{access.PrivateChatOnly, access.NotBanned, access.HasSchoolAndClass, access.HasElevatedRole}
	case "viewhw", "viewschedule", "menu", "donate", "hide":
		gates = []access.Gate{access.PrivateChatOnly, access.NotBanned, access.HasSchoolAndClass}
	case "admin":
		gates = []access.Gate{access.PrivateChatOnly, access.IsAdmin}
	default:
		if ev.Private {
			d.send(ev.ChatID, "⚠️ Неизвестная команда. Используйте /start")
		} else {
			d.send(ev.ChatID, "🚫 Бот работает только в лс.")
		}
		return nil
	}

	if denial := access.Chain(ev.Private, u, gates...); denial != nil {
		metrics.GateDenials.WithLabelValues(denial.Gate).Inc()
		if denial.OfferEditorRequest {
			d.sendKB(ev.ChatID, denial.Message, keyboards.RequestEditor())
		} else {
			d.send(ev.ChatID, denial.Message)
		}
		return nil
	}

	switch msg.Command() {
	case "start":
		return handlers.StartCommand(ctx, d.engine, d.deps, ev, displayName(msg.From), referrer(msg, ev.UserID))
	case "addhw":
		return handlers.AddHomeworkCommand(ctx, d.engine, d.deps, ev, u)
	case "viewhw":
		return handlers.ViewHomeworkCommand(ctx, d.engine, d.deps, ev, u)
	case "editschedule":
		return handlers.EditScheduleCommand(ctx, d.engine, d.deps, ev, u)
	case "viewschedule":
		return handlers.ViewScheduleCommand(ctx, d.deps, ev, u)
	case "menu":
		return handlers.MenuCommand(d.deps, ev, u)
	case "donate":
		return handlers.DonateCommand(d.deps, ev)
	case "hide":
		return handlers.HideCommand(d.deps, ev)
	case "admin":
		return handlers.AdminCommand(ctx, d.engine, d.deps, ev)
	}
	return nil
}

func displayName(from *tgbotapi.User) string {
	if from.UserName != "" {
		return from.UserName
	}
	return strings.TrimSpace(from.FirstName + " " + from.LastName)
}

// referrer достаёт id пригласившего из "/start <id>"; свой id не считается.
func referrer(msg *tgbotapi.Message, self int64) *int64 {
	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		return nil
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id == self {
		return nil
	}
	return &id
}

func (d *Dispatcher) send(chatID int64, text string) {
	if _, err := d.deps.Bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		metrics.HandlerErrors.Inc()
	}
}

func (d *Dispatcher) sendKB(chatID int64, text string, mk tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = mk
	if _, err := d.deps.Bot.Send(msg); err != nil {
		metrics.HandlerErrors.Inc()
	}
}

func (d *Dispatcher) answerCallback(ev flow.Event) {
	if ev.CallbackID == "" {
		return
	}
	if _, err := d.deps.Bot.Request(tgbotapi.NewCallback(ev.CallbackID, "")); err != nil {
		metrics.HandlerErrors.Inc()
	}
}
