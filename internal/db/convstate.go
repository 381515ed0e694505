package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/zmdiary/zmdiary-bot/internal/ctxutil"
	"github.com/zmdiary/zmdiary-bot/internal/models"
)

// GetConversationState возвращает пустое состояние, если записи нет:
// отсутствие строки и «сценарий не запущен» — одно и то же.
func (s *Store) GetConversationState(ctx context.Context, userID int64) (*models.ConversationState, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	var (
		state string
		raw   []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT state, data FROM conversation_state WHERE user_id = $1`, userID).
		Scan(&state, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NewConversationState(userID), nil
	}
	if err != nil {
		return nil, err
	}
	st := &models.ConversationState{UserID: userID, State: models.DialogState(state)}
	if err := json.Unmarshal(raw, &st.Data); err != nil {
		return nil, err
	}
	if st.Data == nil {
		st.Data = map[string]string{}
	}
	return st, nil
}

func (s *Store) SetConversationState(ctx context.Context, st *models.ConversationState) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	raw, err := json.Marshal(st.Data)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO conversation_state (user_id, state, data)
VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO UPDATE SET state = excluded.state, data = excluded.data`,
		st.UserID, string(st.State), raw)
	return err
}

func (s *Store) ClearConversationState(ctx context.Context, userID int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM conversation_state WHERE user_id = $1`, userID)
	return err
}
