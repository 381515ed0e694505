package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/zmdiary/zmdiary-bot/internal/bot/keyboards"
	"github.com/zmdiary/zmdiary-bot/internal/flow"
	"github.com/zmdiary/zmdiary-bot/internal/metrics"
	"github.com/zmdiary/zmdiary-bot/internal/models"
	"github.com/zmdiary/zmdiary-bot/internal/school"
	"github.com/zmdiary/zmdiary-bot/internal/storage"
)

// ModerationCallback обрабатывает решения модератора по предложенной школе.
// Колбэки глобальные: они приходят без диалогового состояния и могут прийти
// повторно по старой клавиатуре.
func ModerationCallback(ctx context.Context, d *Deps, ev flow.Event) (bool, error) {
	var action func(context.Context, int64) (school.Proposal, error)
	var result string
	switch {
	case strings.HasPrefix(ev.Data, "approve_"):
		action, result = d.Approval.Approve, "✅ Школа «%s» добавлена."
	case strings.HasPrefix(ev.Data, "reject_"):
		action, result = d.Approval.Reject, "❌ Школа «%s» отклонена, автор забанен."
	case strings.HasPrefix(ev.Data, "skip_"):
		action, result = d.Approval.Skip, "⏩ Заявка на школу «%s» пропущена."
	default:
		return false, nil
	}

	defer d.answer(ev)
	id, err := strconv.ParseInt(ev.Data[strings.Index(ev.Data, "_")+1:], 10, 64)
	if err != nil {
		return true, nil
	}
	// клавиатуру гасим до решения, чтобы второй клик не успел пройти
	if _, err := d.Bot.Send(keyboards.DisableMarkup(ev.ChatID, ev.MessageID)); err != nil {
		metrics.HandlerErrors.Inc()
	}

	p, err := action(ctx, id)
	if errors.Is(err, school.ErrAlreadyProcessed) {
		d.alert(ev, "Это предложение уже обработано.")
		return true, nil
	}
	if err != nil {
		return true, err
	}
	d.edit(ev, fmt.Sprintf(result, p.Name))
	return true, nil
}

// RequestEditorCallback — заявка на роль редактора с кнопки под отказом.
func RequestEditorCallback(ctx context.Context, d *Deps, ev flow.Event, u *models.User) error {
	defer d.answer(ev)
	if u == nil || u.Role == models.Ban {
		return nil
	}
	err := d.Store.SetEditorRequest(ctx, u.ID)
	if errors.Is(err, storage.ErrConflict) {
		d.alert(ev, "❌ Вы уже подавали заявку или имеете повышенную роль.")
		return nil
	}
	if err != nil {
		return err
	}
	d.alert(ev, "✅ Заявка подана. Редакторы назначаются еженедельно.")
	return nil
}
