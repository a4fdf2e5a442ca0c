package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	PredictionURL string `validate:"required,url"`
	PredictionKey string `validate:"required"`

	CameraDevice   int           `validate:"gte=0"`
	CapturePeriod  time.Duration `validate:"gt=0"`
	CoalesceDelay  time.Duration `validate:"gte=0,ltfield=CapturePeriod"`
	CaptureTimeout time.Duration `validate:"gt=0"`

	RetryCount     int           `validate:"gte=0,lte=10"`
	BackoffBase    time.Duration `validate:"gt=0"`
	AttemptTimeout time.Duration `validate:"gt=0"`

	TargetWidth int     `validate:"gt=0"`
	JPEGQuality float64 `validate:"gt=0,lte=1"`

	DoneThreshold     float64 `validate:"gte=0,lte=1"`
	PositionThreshold float64 `validate:"gte=0,lte=1"`
	EmptyPolicy       string  `validate:"oneof=reset hold"`

	HTTPAddr       string `validate:"required"`
	TelegramToken  string
	TelegramChatID int64 `validate:"required_with=TelegramToken"`

	LogLevel string `validate:"oneof=debug info warn error"`
	LogFile  string
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	l := &loader{}
	cfg := &Config{
		PredictionURL: os.Getenv("PREDICTION_URL"),
		PredictionKey: os.Getenv("PREDICTION_KEY"),

		CameraDevice:   l.getInt("CAMERA_DEVICE", 0),
		CapturePeriod:  l.getDuration("CAPTURE_PERIOD", 1500*time.Millisecond),
		CoalesceDelay:  l.getDuration("COALESCE_DELAY", 50*time.Millisecond),
		CaptureTimeout: l.getDuration("CAPTURE_TIMEOUT", 5*time.Second),

		RetryCount:     l.getInt("RETRY_COUNT", 3),
		BackoffBase:    l.getDuration("BACKOFF_BASE", time.Second),
		AttemptTimeout: l.getDuration("ATTEMPT_TIMEOUT", 10*time.Second),

		TargetWidth: l.getInt("TARGET_WIDTH", 250),
		JPEGQuality: l.getFloat("JPEG_QUALITY", 0.2),

		DoneThreshold:     l.getFloat("DONE_THRESHOLD", 0.8),
		PositionThreshold: l.getFloat("POSITION_THRESHOLD", 0.5),
		EmptyPolicy:       getEnv("EMPTY_POLICY", "reset"),

		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		TelegramChatID: l.getInt64("TELEGRAM_CHAT_ID", 0),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  os.Getenv("LOG_FILE"),
	}
	if l.err != nil {
		return nil, l.err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loader запоминает первую ошибку разбора
type loader struct {
	err error
}

func (l *loader) getInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil && l.err == nil {
		l.err = fmt.Errorf("%s: %w", key, err)
	}
	return v
}

func (l *loader) getInt64(key string, def int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil && l.err == nil {
		l.err = fmt.Errorf("%s: %w", key, err)
	}
	return v
}

func (l *loader) getFloat(key string, def float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil && l.err == nil {
		l.err = fmt.Errorf("%s: %w", key, err)
	}
	return v
}

func (l *loader) getDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil && l.err == nil {
		l.err = fmt.Errorf("%s: %w", key, err)
	}
	return v
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
