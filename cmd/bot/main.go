package main

import (
	"context"
	"log"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/zmdiary/zmdiary-bot/internal/adminpanel"
	"github.com/zmdiary/zmdiary-bot/internal/app"
	"github.com/zmdiary/zmdiary-bot/internal/backupclient"
	"github.com/zmdiary/zmdiary-bot/internal/bot/handlers"
	"github.com/zmdiary/zmdiary-bot/internal/config"
	"github.com/zmdiary/zmdiary-bot/internal/db"
	"github.com/zmdiary/zmdiary-bot/internal/flow"
	"github.com/zmdiary/zmdiary-bot/internal/homework"
	"github.com/zmdiary/zmdiary-bot/internal/jobs"
	"github.com/zmdiary/zmdiary-bot/internal/logging"
	"github.com/zmdiary/zmdiary-bot/internal/metrics"
	"github.com/zmdiary/zmdiary-bot/internal/observability"
	"github.com/zmdiary/zmdiary-bot/internal/rotation"
	"github.com/zmdiary/zmdiary-bot/internal/schedule"
	"github.com/zmdiary/zmdiary-bot/internal/school"
	"github.com/zmdiary/zmdiary-bot/internal/tg"
)

const release = "zmdiary-bot@dev"

// notifier — уведомления пользователям из ротации и модерации школ.
type notifier struct{ s tg.Sender }

func (n notifier) Notify(chatID int64, text string) error {
	return tg.Notify(n.s, chatID, text)
}

func main() {
	// Загрузка переменных окружения
	if err := godotenv.Load(); err != nil {
		log.Println("Не удалось загрузить .env файл, используем переменные окружения")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка конфигурации: %v", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("Ошибка инициализации логгера: %v", err)
	}
	defer lg.Closer()
	logger := lg.Sugar

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, release)
	if err != nil {
		logger.Warnw("sentry не инициализирован", "err", err)
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalw("ошибка подключения к БД", "err", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		logger.Fatalw("миграция не удалась", "err", err)
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Fatalw("ошибка запуска бота", "err", err)
	}
	logger.Infow("бот запущен", "username", api.Self.UserName)

	if _, err := api.Request(tgbotapi.NewSetMyCommands(app.BotCommands()...)); err != nil {
		logger.Warnw("не удалось зарегистрировать меню команд", "err", err)
	}

	bot := &tg.Bot{API: api}
	store := db.NewStore(database)

	now := func() time.Time { return time.Now().In(cfg.Location) }

	deps := &handlers.Deps{
		Store:       store,
		Schedule:    schedule.New(store, now),
		Homework:    homework.New(store),
		Approval:    school.NewApproval(store, notifier{bot}, logger),
		Admin:       adminpanel.New(store),
		Backup:      backupclient.New(cfg.BackupURL),
		Bot:         bot,
		Log:         logger,
		AdminChatID: cfg.AdminChatID,
		BotName:     cfg.BotName,
		Now:         now,
	}

	engine := flow.NewEngine(store, logger, func(ev flow.Event) {
		_ = tg.Notify(bot, ev.ChatID, "⚠️ Сейчас ожидается другой ответ. Продолжите текущий шаг.")
	})
	handlers.Register(engine, deps)

	dispatcher := app.NewDispatcher(deps, engine, logger)

	app.StartHTTP(ctx, cfg.HTTPAddr, database)

	rotator := rotation.New(store, notifier{bot}, logger, now,
		rand.New(rand.NewSource(time.Now().UnixNano())))

	runner := jobs.New(ctx, cfg.Location)
	runner.Weekly(time.Saturday, 4, "editor_rotation", rotator.Run)
	runner.Every(30*time.Second, "db_ping", func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		t0 := time.Now()
		if err := database.PingContext(pingCtx); err != nil {
			return err
		}
		metrics.ObserveDBPing(time.Since(t0))
		return nil
	})

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			logger.Infow("останавливаемся")
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			dispatcher.HandleUpdate(ctx, upd)
		}
	}
}
