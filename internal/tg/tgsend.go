package tg

import (
	"strings"

	"github.com/zmdiary/zmdiary-bot/internal/observability"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender — то, что нужно хендлерам от телеграма. В тестах подменяется записью
// сообщений в память.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot оборачивает tgbotapi и отправляет системные ошибки в Sentry.
type Bot struct {
	API *tgbotapi.BotAPI
}

var _ Sender = (*Bot)(nil)

// Считаем системными: 5xx, 429, timeout. 400-ки и типичные телеграм-валидации в Sentry не шлём.
func isSystemErr(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	if strings.Contains(s, "429") || strings.Contains(s, "502") || strings.Contains(s, "503") || strings.Contains(s, "timeout") {
		return true
	}
	return false
}

func (b *Bot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m, err := b.API.Send(c)
	if isSystemErr(err) {
		observability.CaptureErr(err)
	}
	return m, err
}

func (b *Bot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	r, err := b.API.Request(c)
	if isSystemErr(err) {
		observability.CaptureErr(err)
	}
	return r, err
}

// Notify — простое текстовое уведомление; этим пользуются ротация редакторов
// и модерация школ.
func Notify(s Sender, chatID int64, text string) error {
	_, err := s.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
