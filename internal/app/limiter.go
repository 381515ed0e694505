package app

import "sync"

// ChatLimiter предотвращает одновременную обработку двух событий одного
// пользователя: шаг сценария читает и пишет состояние без гонок.
type ChatLimiter struct {
	mu   sync.Mutex
	byID map[int64]*sync.Mutex
}

func NewChatLimiter() *ChatLimiter {
	return &ChatLimiter{byID: make(map[int64]*sync.Mutex)}
}

func (l *ChatLimiter) lock(userID int64) func() {
	l.mu.Lock()
	m, ok := l.byID[userID]
	if !ok {
		m = &sync.Mutex{}
		l.byID[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return func() { m.Unlock() }
}
