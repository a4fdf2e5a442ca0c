package container

import (
	"github.com/sirupsen/logrus"

	"recycle-guide/config"
	"recycle-guide/internal/api/telegram"
	"recycle-guide/internal/api/web"
	app "recycle-guide/internal/application"
	"recycle-guide/internal/domain/port"
	"recycle-guide/internal/infrastructure/customvision"
	"recycle-guide/internal/infrastructure/storage"
)

type Container struct {
	Store      *storage.MemoryStateStore
	Classifier *customvision.Client
	Loop       *app.LoopController
	Web        *web.Server
	Bot        *telegram.Bot // nil, если токен не задан
}

func New(cfg *config.Config, source port.FrameSource, log logrus.FieldLogger) (*Container, error) {
	store := storage.NewMemoryStateStore()

	classifier := customvision.NewClient(ClassifierConfig(cfg), customvision.NewHTTPClient(), log)
	loop := app.NewLoopController(source, classifier, store, LoopConfig(cfg), log)

	c := &Container{
		Store:      store,
		Classifier: classifier,
		Loop:       loop,
		Web:        web.NewServer(store, loop, log),
	}

	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, cfg.TelegramChatID, store, log)
		if err != nil {
			return nil, err
		}
		c.Bot = bot
	}

	return c, nil
}

// LoopConfig переносит настройки цикла из конфига
func LoopConfig(cfg *config.Config) app.LoopConfig {
	return app.LoopConfig{
		Period:         cfg.CapturePeriod,
		CoalesceDelay:  cfg.CoalesceDelay,
		CaptureTimeout: cfg.CaptureTimeout,
		TargetWidth:    cfg.TargetWidth,
		Quality:        cfg.JPEGQuality,
		Thresholds: app.Thresholds{
			Done:     cfg.DoneThreshold,
			Position: cfg.PositionThreshold,
		},
		EmptyPolicy: app.EmptyPolicy(cfg.EmptyPolicy),
	}
}

// ClassifierConfig переносит настройки клиента из конфига
func ClassifierConfig(cfg *config.Config) customvision.Config {
	return customvision.Config{
		URL:            cfg.PredictionURL,
		Key:            cfg.PredictionKey,
		RetryCount:     cfg.RetryCount,
		BackoffBase:    cfg.BackoffBase,
		AttemptTimeout: cfg.AttemptTimeout,
	}
}
