// Package db — Postgres-реализация storage.Store поверх database/sql с
// драйвером pgx.
package db

import (
	"database/sql"

	"github.com/zmdiary/zmdiary-bot/internal/storage"
)

type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

func NewStore(database *sql.DB) *Store { return &Store{db: database} }
