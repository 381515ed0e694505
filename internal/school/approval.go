// Package school — модерация предложенных школ. Предложение живёт только в
// памяти до решения модератора; строка в таблице schools появляется лишь после
// одобрения.
package school

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/zmdiary/zmdiary-bot/internal/models"
	"github.com/zmdiary/zmdiary-bot/internal/storage"
)

// ErrAlreadyProcessed — по предложению уже принято решение; повторные нажатия
// по старой клавиатуре отклоняются.
var ErrAlreadyProcessed = errors.New("school: предложение уже обработано")

// Notifier доставляет простые текстовые уведомления пользователям.
type Notifier interface {
	Notify(chatID int64, text string) error
}

type Proposal struct {
	ID         int64
	ProposerID int64
	Name       string
}

type Approval struct {
	store  storage.Store
	notify Notifier
	log    *zap.SugaredLogger

	mu      sync.Mutex
	seq     int64
	pending map[int64]Proposal
}

func NewApproval(store storage.Store, notify Notifier, log *zap.SugaredLogger) *Approval {
	return &Approval{store: store, notify: notify, log: log, pending: map[int64]Proposal{}}
}

// Propose регистрирует предложение и возвращает его модератору на рассмотрение.
func (a *Approval) Propose(proposerID int64, name string) Proposal {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seq++
	p := Proposal{ID: a.seq, ProposerID: proposerID, Name: name}
	a.pending[p.ID] = p
	return p
}

// take атомарно забирает предложение: ровно одно из действий approve/reject/skip
// может «выиграть».
func (a *Approval) take(id int64) (Proposal, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.pending[id]
	if ok {
		delete(a.pending, id)
	}
	return p, ok
}

// notifyProposer — решение уже применено, недоставленное уведомление его не
// откатывает.
func (a *Approval) notifyProposer(id int64, text string) {
	if err := a.notify.Notify(id, text); err != nil {
		a.log.Warnw("не удалось уведомить автора предложения", "user", id, "err", err)
	}
}

// Approve добавляет школу в одобренный список, проставляет её автору и зовёт
// его продолжить регистрацию.
func (a *Approval) Approve(ctx context.Context, id int64) (Proposal, error) {
	p, ok := a.take(id)
	if !ok {
		return Proposal{}, ErrAlreadyProcessed
	}
	if err := a.store.InsertSchool(ctx, p.Name); err != nil {
		return p, err
	}
	if err := a.store.SetUserSchool(ctx, p.ProposerID, p.Name); err != nil {
		return p, err
	}
	a.notifyProposer(p.ProposerID, "✅ Школа «"+p.Name+"» одобрена!\nВыберите класс. /start")
	return p, nil
}

// Reject банит автора предложения и сообщает ему об этом.
func (a *Approval) Reject(ctx context.Context, id int64) (Proposal, error) {
	p, ok := a.take(id)
	if !ok {
		return Proposal{}, ErrAlreadyProcessed
	}
	if err := a.store.SetUserRole(ctx, p.ProposerID, models.Ban); err != nil {
		return p, err
	}
	a.notifyProposer(p.ProposerID, "❌ Ваше предложение школы отклонено.")
	return p, nil
}

// Skip ничего не меняет, автор получает уведомление.
func (a *Approval) Skip(_ context.Context, id int64) (Proposal, error) {
	p, ok := a.take(id)
	if !ok {
		return Proposal{}, ErrAlreadyProcessed
	}
	a.notifyProposer(p.ProposerID, "❌ Ваша заявка на добавление школы была пропущена.")
	return p, nil
}
