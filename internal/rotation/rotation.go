// Package rotation — еженедельная ротация редакторов: малоактивные теряют роль,
// их место получает случайный кандидат из очереди заявок того же класса.
package rotation

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/zmdiary/zmdiary-bot/internal/dates"
	"github.com/zmdiary/zmdiary-bot/internal/models"
	"github.com/zmdiary/zmdiary-bot/internal/storage"
)

const (
	// minWeeklyEntries — сколько записей за 7 дней нужно, чтобы сохранить роль.
	minWeeklyEntries = 4
	// minPeersToDemote — разжалуем, только если редакторов в классе больше.
	minPeersToDemote = 3
)

type Notifier interface {
	Notify(chatID int64, text string) error
}

type Rotator struct {
	store  storage.Store
	notify Notifier
	log    *zap.SugaredLogger
	now    func() time.Time
	rnd    *rand.Rand
}

// New собирает ротатор; now и rnd подменяются в тестах для детерминизма.
func New(store storage.Store, notify Notifier, log *zap.SugaredLogger, now func() time.Time, rnd *rand.Rand) *Rotator {
	if now == nil {
		now = time.Now
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Rotator{store: store, notify: notify, log: log, now: now, rnd: rnd}
}

// Run — один проход по всем редакторам. Сбой на одном редакторе (включая отказ
// доставки уведомления) логируется и не прерывает остальных. Повторный запуск
// без новых данных ничего не каскадирует: разжалованные уже не редакторы, а
// peerCount пересчитывается на каждом шаге.
func (r *Rotator) Run(ctx context.Context) error {
	editors, err := r.store.ListEditors(ctx)
	if err != nil {
		return err
	}

	since := dates.Format(r.now().AddDate(0, 0, -7))
	var firstErr error
	for _, e := range editors {
		if err := r.rotateOne(ctx, &e, since); err != nil {
			r.log.Errorw("ротация редактора не удалась", "editor", e.ID, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Rotator) rotateOne(ctx context.Context, e *models.User, since string) error {
	if e.Class == nil || e.School == nil {
		return nil
	}
	recent, err := r.store.CountRecentHomeworkByAuthor(ctx, e.ID, since)
	if err != nil {
		return err
	}
	peers, err := r.store.CountEditorsInClass(ctx, *e.Class, *e.School)
	if err != nil {
		return err
	}
	if recent >= minWeeklyEntries || peers <= minPeersToDemote {
		return nil
	}

	// CAS: если роль уже поменял админ, проигравшую запись не затираем.
	if err := r.store.UpdateUserRole(ctx, e.ID, models.Editor, models.Viewer); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			r.log.Infow("роль редактора изменилась параллельно, пропускаем", "editor", e.ID)
			return nil
		}
		return err
	}
	r.log.Infow("редактор разжалован за неактивность",
		"editor", e.ID, "recent", recent, "peers", peers)

	return r.promoteCandidate(ctx, *e.Class, *e.School)
}

// promoteCandidate выбирает равновероятно одного из подавших заявку в классе.
// Если кандидатов нет, класс остаётся с меньшим числом редакторов.
func (r *Rotator) promoteCandidate(ctx context.Context, class, school string) error {
	candidates, err := r.store.ListPendingEditorsInClass(ctx, class, school)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return nil
	}
	c := candidates[r.rnd.Intn(len(candidates))]
	if err := r.store.UpdateUserRole(ctx, c.ID, c.Role, models.Editor); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			r.log.Infow("кандидат изменился параллельно, пропускаем", "user", c.ID)
			return nil
		}
		return err
	}
	if err := r.store.ClearEditorRequest(ctx, c.ID); err != nil {
		return err
	}
	if err := r.notify.Notify(c.ID, "🎉 Поздравляем! Вы стали редактором."); err != nil {
		// уведомление не критично: роль уже выдана, откатывать нечего
		r.log.Warnw("не удалось уведомить нового редактора", "user", c.ID, "err", err)
	}
	r.log.Infow("новый редактор назначен", "user", c.ID, "class", class, "school", school)
	return nil
}
