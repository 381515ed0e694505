package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	BotToken    string
	DatabaseURL string
	AdminChatID int64 // чат модерации школ
	Location    *time.Location
	HTTPAddr    string
	LogLevel    string
	Env         string // dev|prod
	SentryDSN   string
	BotName     string // для реферальной ссылки t.me/<BotName>?start=<id>
	BackupURL   string // sidecar pgbackup
}

func Load() (*Config, error) {
	tz := getenv("TZ", "Europe/Moscow")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.Local
	}

	adminChatID, err := strconv.ParseInt(mustEnv("ADMIN_CHAT_ID"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_CHAT_ID: %w", err)
	}

	cfg := &Config{
		BotToken:    mustEnv("BOT_TOKEN"),
		DatabaseURL: mustEnv("DATABASE_URL"),
		AdminChatID: adminChatID,
		Location:    loc,
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		Env:         getenv("ENV", "dev"),
		SentryDSN:   os.Getenv("SENTRY_DSN"),
		BotName:     getenv("BOT_NAME", "zmdiarybot"),
		BackupURL:   getenv("BACKUPCTL_URL", "http://pgbackup:8081"),
	}
	return cfg, nil
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("required env " + k + " is empty")
	}
	return v
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
