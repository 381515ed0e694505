// Package handlers — шаги пользовательских сценариев. Маршруты регистрируются
// в flow.Engine; команды-входы зовёт диспетчер после проверок доступа.
package handlers

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/zmdiary/zmdiary-bot/internal/adminpanel"
	"github.com/zmdiary/zmdiary-bot/internal/backupclient"
	"github.com/zmdiary/zmdiary-bot/internal/flow"
	"github.com/zmdiary/zmdiary-bot/internal/homework"
	"github.com/zmdiary/zmdiary-bot/internal/metrics"
	"github.com/zmdiary/zmdiary-bot/internal/schedule"
	"github.com/zmdiary/zmdiary-bot/internal/school"
	"github.com/zmdiary/zmdiary-bot/internal/storage"
	"github.com/zmdiary/zmdiary-bot/internal/tg"
)

type Deps struct {
	Store    storage.Store
	Schedule *schedule.Service
	Homework *homework.Service
	Approval *school.Approval
	Admin    *adminpanel.Service
	Backup   *backupclient.Client

	Bot tg.Sender
	Log *zap.SugaredLogger

	AdminChatID int64
	BotName     string
	Now         func() time.Time
}

// Register вешает все шаги сценариев на движок.
func Register(e *flow.Engine, d *Deps) {
	registerRegistration(e, d)
	registerHomework(e, d)
	registerScheduleEdit(e, d)
	registerAdminPanel(e, d)
}

func (d *Deps) send(chatID int64, text string) {
	if _, err := d.Bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		metrics.HandlerErrors.Inc()
	}
}

func (d *Deps) sendKB(chatID int64, text string, mk any) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = mk
	if _, err := d.Bot.Send(msg); err != nil {
		metrics.HandlerErrors.Inc()
	}
}

func (d *Deps) sendHTML(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := d.Bot.Send(msg); err != nil {
		metrics.HandlerErrors.Inc()
	}
}

// edit заменяет текст сообщения с кнопками, на которое пришёл колбэк.
func (d *Deps) edit(ev flow.Event, text string) {
	if _, err := d.Bot.Send(tgbotapi.NewEditMessageText(ev.ChatID, ev.MessageID, text)); err != nil {
		metrics.HandlerErrors.Inc()
	}
}

func (d *Deps) editKB(ev flow.Event, text string, mk tgbotapi.InlineKeyboardMarkup) {
	if _, err := d.Bot.Send(tgbotapi.NewEditMessageTextAndMarkup(ev.ChatID, ev.MessageID, text, mk)); err != nil {
		metrics.HandlerErrors.Inc()
	}
}

// answer снимает «крутилку» с кнопки.
func (d *Deps) answer(ev flow.Event) {
	if ev.CallbackID == "" {
		return
	}
	if _, err := d.Bot.Request(tgbotapi.NewCallback(ev.CallbackID, "")); err != nil {
		metrics.HandlerErrors.Inc()
	}
}

func (d *Deps) alert(ev flow.Event, text string) {
	if ev.CallbackID == "" {
		d.send(ev.ChatID, text)
		return
	}
	cb := tgbotapi.NewCallbackWithAlert(ev.CallbackID, text)
	if _, err := d.Bot.Request(cb); err != nil {
		metrics.HandlerErrors.Inc()
	}
}
