package app

import (
	"context"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/zmdiary/zmdiary-bot/internal/adminpanel"
	"github.com/zmdiary/zmdiary-bot/internal/bot/handlers"
	"github.com/zmdiary/zmdiary-bot/internal/flow"
	"github.com/zmdiary/zmdiary-bot/internal/homework"
	"github.com/zmdiary/zmdiary-bot/internal/models"
	"github.com/zmdiary/zmdiary-bot/internal/schedule"
	"github.com/zmdiary/zmdiary-bot/internal/school"
	"github.com/zmdiary/zmdiary-bot/internal/testutil/memstore"
)

type fakeSender struct{ texts []string }

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.texts = append(f.texts, m.Text)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) last(t *testing.T) string {
	t.Helper()
	if len(f.texts) == 0 {
		t.Fatal("бот ничего не отправил")
	}
	return f.texts[len(f.texts)-1]
}

type nopNotifier struct{}

func (nopNotifier) Notify(int64, string) error { return nil }

func newDispatcher(t *testing.T) (*Dispatcher, *fakeSender, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	sender := &fakeSender{}
	now := func() time.Time { return time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC) }
	log := zap.NewNop().Sugar()
	d := &handlers.Deps{
		Store:       st,
		Schedule:    schedule.New(st, now),
		Homework:    homework.New(st),
		Approval:    school.NewApproval(st, nopNotifier{}, log),
		Admin:       adminpanel.New(st),
		Bot:         sender,
		Log:         log,
		AdminChatID: 777,
		BotName:     "zmdiarybot",
		Now:         now,
	}
	e := flow.NewEngine(st, log, nil)
	handlers.Register(e, d)
	return NewDispatcher(d, e, log), sender, st
}

func textUpdate(chat *tgbotapi.Chat, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: 42, UserName: "vasya"},
		Chat:      chat,
		Text:      text,
	}}
}

func commandUpdate(chat *tgbotapi.Chat, text string) tgbotapi.Update {
	upd := textUpdate(chat, text)
	upd.Message.Entities = []tgbotapi.MessageEntity{
		{Type: "bot_command", Offset: 0, Length: len(text)},
	}
	return upd
}

func groupChat() *tgbotapi.Chat   { return &tgbotapi.Chat{ID: -100500, Type: "group"} }
func privateChat() *tgbotapi.Chat { return &tgbotapi.Chat{ID: 42, Type: "private"} }

func TestGroupTextGetsPrivateOnlyReply(t *testing.T) {
	d, sender, _ := newDispatcher(t)

	d.HandleUpdate(context.Background(), textUpdate(groupChat(), "привет"))

	if sender.last(t) != "🚫 Бот работает только в лс." {
		t.Fatalf("текст в группе должен получать отказ: %q", sender.last(t))
	}
}

func TestGroupCommandGetsPrivateOnlyReply(t *testing.T) {
	d, sender, _ := newDispatcher(t)

	d.HandleUpdate(context.Background(), commandUpdate(groupChat(), "/start"))
	if sender.last(t) != "🚫 Бот работает только в лс." {
		t.Fatalf("команда в группе должна получать отказ: %q", sender.last(t))
	}

	d.HandleUpdate(context.Background(), commandUpdate(groupChat(), "/whoami"))
	if sender.last(t) != "🚫 Бот работает только в лс." {
		t.Fatalf("неизвестная команда в группе — тот же отказ: %q", sender.last(t))
	}
}

func TestGroupTextDoesNotAdvanceDialog(t *testing.T) {
	d, _, st := newDispatcher(t)
	ctx := context.Background()

	// пользователь в личке на шаге ввода названия школы
	d.HandleUpdate(ctx, commandUpdate(privateChat(), "/start"))
	stBefore, _ := st.GetConversationState(ctx, 42)
	if !stBefore.Active() {
		t.Fatal("после /start сценарий регистрации должен быть активен")
	}

	d.HandleUpdate(ctx, textUpdate(groupChat(), "Школа №1"))

	stAfter, _ := st.GetConversationState(ctx, 42)
	if stAfter.State != stBefore.State {
		t.Fatalf("сообщение из группы не продвигает личный сценарий: %s -> %s",
			stBefore.State, stAfter.State)
	}
}

func TestUnknownPrivateCommand(t *testing.T) {
	d, sender, _ := newDispatcher(t)

	d.HandleUpdate(context.Background(), commandUpdate(privateChat(), "/whoami"))
	if sender.last(t) != "⚠️ Неизвестная команда. Используйте /start" {
		t.Fatalf("неизвестная команда в личке: %q", sender.last(t))
	}
}

func TestBannedUserStopped(t *testing.T) {
	d, sender, st := newDispatcher(t)
	ctx := context.Background()
	if err := st.CreateUser(ctx, &models.User{ID: 42, DisplayName: "vasya", Role: models.Ban}); err != nil {
		t.Fatal(err)
	}

	d.HandleUpdate(ctx, commandUpdate(privateChat(), "/start"))
	if sender.last(t) != "❌ Вы забанены и не можете пользоваться ботом." {
		t.Fatalf("бан должен останавливать /start: %q", sender.last(t))
	}
}
