// Package flow — машина состояний диалога. Маршрут выбирается точным
// совпадением (текущий шаг, вид события, префикс данных); обработчик меняет
// временные данные сценария, а движок сохраняет их после каждого события.
package flow

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/zmdiary/zmdiary-bot/internal/ctxutil"
	"github.com/zmdiary/zmdiary-bot/internal/models"
	"github.com/zmdiary/zmdiary-bot/internal/storage"
)

type Kind int

const (
	KindMessage Kind = iota
	KindCallback
)

// Event — входящее событие в терминах ядра, без телеграмных типов.
type Event struct {
	UserID     int64
	ChatID     int64
	Kind       Kind
	Text       string // текст сообщения
	Data       string // payload колбэка
	MessageID  int
	CallbackID string
	Private    bool
}

// Payload — то, что сверяется с префиксом маршрута.
func (e Event) Payload() string {
	if e.Kind == KindCallback {
		return e.Data
	}
	return e.Text
}

// Handler получает событие и текущее состояние. Любые переходы делаются через
// st.To/st.Set/st.Clear; движок сохранит результат.
type Handler func(ctx context.Context, ev Event, st *models.ConversationState) error

type route struct {
	kind    Kind
	prefix  string // для сообщений обычно "" — любой текст
	handler Handler
}

// Rejecter шлёт пользователю ответ о событии, не подошедшем текущему шагу.
type Rejecter func(ev Event)

type Engine struct {
	store  storage.Store
	log    *zap.SugaredLogger
	routes map[models.DialogState][]route
	reject Rejecter
}

func NewEngine(store storage.Store, log *zap.SugaredLogger, reject Rejecter) *Engine {
	return &Engine{
		store:  store,
		log:    log,
		routes: map[models.DialogState][]route{},
		reject: reject,
	}
}

func (e *Engine) Register(st models.DialogState, kind Kind, prefix string, h Handler) {
	e.routes[st] = append(e.routes[st], route{kind: kind, prefix: prefix, handler: h})
}

// Begin запускает сценарий: перезаписывает состояние пользователя целиком.
// Вызывающий обязан держать пользовательскую блокировку (как и для Dispatch).
func (e *Engine) Begin(ctx context.Context, userID int64, st models.DialogState, data map[string]string) error {
	cs := models.NewConversationState(userID)
	cs.State = st
	for k, v := range data {
		cs.Set(k, v)
	}
	return e.store.SetConversationState(ctx, cs)
}

// Dispatch обрабатывает событие против сохранённого шага пользователя.
// Возвращает false, если сценарий не активен и событие не наше. Событие, не
// подошедшее активному шагу, отвергается без смены состояния: пользователь
// просто пробует ещё раз.
func (e *Engine) Dispatch(ctx context.Context, ev Event) (bool, error) {
	st, err := e.store.GetConversationState(ctx, ev.UserID)
	if err != nil {
		return false, err
	}
	if !st.Active() {
		return false, nil
	}

	h := e.match(st.State, ev)
	if h == nil {
		if e.reject != nil {
			e.reject(ev)
		}
		return true, nil
	}

	if err := h(ctx, ev, st); err != nil {
		// состояние не трогаем: пользователь может повторить тот же шаг
		op, _ := ctxutil.Op(ctx)
		e.log.Errorw("шаг сценария завершился ошибкой",
			"user", ev.UserID, "state", st.State, "op", op, "err", err)
		return true, err
	}

	if !st.Active() {
		return true, e.store.ClearConversationState(ctx, ev.UserID)
	}
	return true, e.store.SetConversationState(ctx, st)
}

func (e *Engine) match(st models.DialogState, ev Event) Handler {
	payload := ev.Payload()
	for _, r := range e.routes[st] {
		if r.kind != ev.Kind {
			continue
		}
		if r.prefix == "" || strings.HasPrefix(payload, r.prefix) {
			return r.handler
		}
	}
	return nil
}
