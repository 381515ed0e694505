package handlers

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zmdiary/zmdiary-bot/internal/flow"
	"github.com/zmdiary/zmdiary-bot/internal/metrics"
	"github.com/zmdiary/zmdiary-bot/internal/models"
)

// MenuCommand — профиль пользователя и его реферальная ссылка.
func MenuCommand(d *Deps, ev flow.Event, u *models.User) error {
	refLink := fmt.Sprintf("https://t.me/%s?start=%d", d.BotName, u.ID)
	text := fmt.Sprintf(
		"📋 *Меню пользователя:*\n\n"+
			"🏫 *Школа:* %s\n"+
			"🎒 *Класс:* %s\n"+
			"👤 *Роль:* %s\n"+
			"💰 *Баланс:* %d баллов\n"+
			"🔗 *Реферальная ссылка* (нажмите, чтобы скопировать):\n"+
			"`%s`\n\n"+
			"💖 *Поддержать проект:* `/donate`",
		*u.School, *u.Class, u.Role, u.Balance, refLink)
	msg := tgbotapi.NewMessage(ev.ChatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := d.Bot.Send(msg); err != nil {
		metrics.HandlerErrors.Inc()
	}
	return nil
}

func DonateCommand(d *Deps, ev flow.Event) error {
	d.sendHTML(ev.ChatID,
		"💖 Поддержать проект:\n\n"+
			"Если вам нравится бот и вы хотите поддержать его развитие, "+
			"вы можете сделать пожертвование на карту:\n\n"+
			"💳 <code>2200 7019 1503 8563</code>\n\n"+
			"Спасибо за вашу поддержку! 🙏")
	return nil
}

func HideCommand(d *Deps, ev flow.Event) error {
	msg := tgbotapi.NewMessage(ev.ChatID, "Клавиатура скрыта.")
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	if _, err := d.Bot.Send(msg); err != nil {
		metrics.HandlerErrors.Inc()
	}
	return nil
}
