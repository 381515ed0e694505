package flow

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/zmdiary/zmdiary-bot/internal/models"
	"github.com/zmdiary/zmdiary-bot/internal/testutil/memstore"
)

const (
	stepOne models.DialogState = "step_one"
	stepTwo models.DialogState = "step_two"
)

func msg(userID int64, text string) Event {
	return Event{UserID: userID, ChatID: userID, Kind: KindMessage, Text: text, Private: true}
}

func cb(userID int64, data string) Event {
	return Event{UserID: userID, ChatID: userID, Kind: KindCallback, Data: data, Private: true}
}

func TestDispatchInactive(t *testing.T) {
	e := NewEngine(memstore.New(), zap.NewNop().Sugar(), nil)
	handled, err := e.Dispatch(context.Background(), msg(1, "привет"))
	if err != nil {
		t.Fatal(err)
	}
	if handled {
		t.Fatal("без активного сценария событие не наше")
	}
}

func TestMismatchDoesNotAdvance(t *testing.T) {
	st := memstore.New()
	rejected := 0
	e := NewEngine(st, zap.NewNop().Sugar(), func(Event) { rejected++ })

	e.Register(stepOne, KindCallback, "pick_", func(_ context.Context, _ Event, s *models.ConversationState) error {
		s.To(stepTwo)
		return nil
	})
	ctx := context.Background()
	if err := e.Begin(ctx, 1, stepOne, nil); err != nil {
		t.Fatal(err)
	}

	// шаг ждёт колбэк, приходит текст
	handled, err := e.Dispatch(ctx, msg(1, "не то"))
	if err != nil {
		t.Fatal(err)
	}
	if !handled || rejected != 1 {
		t.Fatalf("несовпавшее событие отвергается с ответом: handled=%v rejected=%d", handled, rejected)
	}
	got, _ := st.GetConversationState(ctx, 1)
	if got.State != stepOne {
		t.Fatalf("состояние должно остаться прежним: %s", got.State)
	}

	// колбэк с чужим префиксом — тоже отказ
	if _, err := e.Dispatch(ctx, cb(1, "other_x")); err != nil {
		t.Fatal(err)
	}
	got, _ = st.GetConversationState(ctx, 1)
	if got.State != stepOne || rejected != 2 {
		t.Fatalf("состояние: %s, отказов: %d", got.State, rejected)
	}

	// правильный колбэк продвигает
	if _, err := e.Dispatch(ctx, cb(1, "pick_a")); err != nil {
		t.Fatal(err)
	}
	got, _ = st.GetConversationState(ctx, 1)
	if got.State != stepTwo {
		t.Fatalf("ожидали переход на stepTwo: %s", got.State)
	}
}

func TestHandlerErrorKeepsState(t *testing.T) {
	st := memstore.New()
	e := NewEngine(st, zap.NewNop().Sugar(), nil)

	boom := errors.New("хранилище упало")
	calls := 0
	e.Register(stepOne, KindMessage, "", func(_ context.Context, _ Event, s *models.ConversationState) error {
		calls++
		if calls == 1 {
			s.Set("key", "залипшее")
			s.To(stepTwo)
			return boom
		}
		s.To(stepTwo)
		return nil
	})
	ctx := context.Background()
	if err := e.Begin(ctx, 1, stepOne, nil); err != nil {
		t.Fatal(err)
	}

	handled, err := e.Dispatch(ctx, msg(1, "раз"))
	if !handled || !errors.Is(err, boom) {
		t.Fatalf("ошибка обработчика должна вернуться: handled=%v err=%v", handled, err)
	}
	got, _ := st.GetConversationState(ctx, 1)
	if got.State != stepOne || got.Get("key") != "" {
		t.Fatalf("после ошибки сохранённое состояние не меняется: %#v", got)
	}

	// повтор того же шага проходит
	if _, err := e.Dispatch(ctx, msg(1, "два")); err != nil {
		t.Fatal(err)
	}
	got, _ = st.GetConversationState(ctx, 1)
	if got.State != stepTwo {
		t.Fatalf("повтор должен продвинуть сценарий: %s", got.State)
	}
}

func TestTerminalStepClearsState(t *testing.T) {
	st := memstore.New()
	e := NewEngine(st, zap.NewNop().Sugar(), nil)

	e.Register(stepOne, KindMessage, "", func(_ context.Context, _ Event, s *models.ConversationState) error {
		s.Clear()
		return nil
	})
	ctx := context.Background()
	if err := e.Begin(ctx, 1, stepOne, map[string]string{"class": "7 Б", "date": "26 09 01"}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Dispatch(ctx, msg(1, "готово")); err != nil {
		t.Fatal(err)
	}

	got, _ := st.GetConversationState(ctx, 1)
	if got.Active() {
		t.Fatalf("терминальный шаг завершает сценарий: %s", got.State)
	}
	if len(got.Data) != 0 {
		t.Fatalf("временные данные не должны пережить сценарий: %#v", got.Data)
	}

	// следующее событие уже не наше
	handled, err := e.Dispatch(ctx, msg(1, "ещё"))
	if err != nil {
		t.Fatal(err)
	}
	if handled {
		t.Fatal("после завершения сценария событие не наше")
	}
}

func TestBeginOverwritesPreviousScenario(t *testing.T) {
	st := memstore.New()
	e := NewEngine(st, zap.NewNop().Sugar(), nil)
	ctx := context.Background()

	if err := e.Begin(ctx, 1, stepOne, map[string]string{"old": "x"}); err != nil {
		t.Fatal(err)
	}
	if err := e.Begin(ctx, 1, stepTwo, map[string]string{"new": "y"}); err != nil {
		t.Fatal(err)
	}

	got, _ := st.GetConversationState(ctx, 1)
	if got.State != stepTwo || got.Get("old") != "" || got.Get("new") != "y" {
		t.Fatalf("новый сценарий перезаписывает старый целиком: %#v", got)
	}
}

func TestUsersAreIsolated(t *testing.T) {
	st := memstore.New()
	e := NewEngine(st, zap.NewNop().Sugar(), nil)

	e.Register(stepOne, KindMessage, "", func(_ context.Context, _ Event, s *models.ConversationState) error {
		s.To(stepTwo)
		return nil
	})
	ctx := context.Background()
	if err := e.Begin(ctx, 1, stepOne, nil); err != nil {
		t.Fatal(err)
	}
	if err := e.Begin(ctx, 2, stepOne, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Dispatch(ctx, msg(1, "вперёд")); err != nil {
		t.Fatal(err)
	}

	got1, _ := st.GetConversationState(ctx, 1)
	got2, _ := st.GetConversationState(ctx, 2)
	if got1.State != stepTwo || got2.State != stepOne {
		t.Fatalf("шаг одного пользователя не задевает другого: %s / %s", got1.State, got2.State)
	}
}
