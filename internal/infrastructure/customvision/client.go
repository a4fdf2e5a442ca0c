package customvision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"recycle-guide/internal/domain/entity"
	"recycle-guide/internal/domain/port"
)

const (
	headerPredictionKey = "Prediction-Key"
	contentTypeImage    = "application/octet-stream"

	maxResponseBytes  = 1 << 20
	maxErrorBodyBytes = 512
)

// Config параметры клиента Custom Vision
type Config struct {
	URL            string
	Key            string
	RetryCount     int           // повторов после первой попытки, только для 429
	BackoffBase    time.Duration // задержка перед первым повтором, дальше удваивается
	AttemptTimeout time.Duration // ограничение одной попытки
}

// DefaultConfig значения по умолчанию без адреса и ключа
func DefaultConfig() Config {
	return Config{
		RetryCount:     3,
		BackoffBase:    time.Second,
		AttemptTimeout: 10 * time.Second,
	}
}

// Client клиент detect-эндпоинта Custom Vision
type Client struct {
	cfg   Config
	http  *http.Client
	log   logrus.FieldLogger
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient создаёт клиента. httpClient может быть nil.
func NewClient(cfg Config, httpClient *http.Client, log logrus.FieldLogger) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		cfg:   cfg,
		http:  httpClient,
		log:   log.WithField("component", "customvision"),
		sleep: sleepContext,
	}
}

// Classify отправляет картинку. На 429 повторяет с экспоненциальной задержкой,
// остальные ошибки возвращает сразу.
func (c *Client) Classify(ctx context.Context, payload []byte) ([]entity.Detection, error) {
	for attempt := 0; ; attempt++ {
		detections, err := c.attempt(ctx, payload)
		if err == nil {
			return detections, nil
		}

		var serverErr *entity.ServerError
		if !errors.As(err, &serverErr) || !serverErr.IsRateLimited() || attempt >= c.cfg.RetryCount {
			return nil, err
		}

		delay := c.cfg.BackoffBase << attempt
		c.log.WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"delay":   delay.String(),
		}).Warn("rate limited by classifier, backing off")

		if err := c.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("%w: backoff interrupted: %v", entity.ErrNetwork, err)
		}
	}
}

func (c *Client) attempt(ctx context.Context, payload []byte) ([]entity.Detection, error) {
	if c.cfg.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.AttemptTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", entity.ErrNetwork, err)
	}
	req.Header.Set(headerPredictionKey, c.cfg.Key)
	req.Header.Set("Content-Type", contentTypeImage)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %v", entity.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &entity.ServerError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", entity.ErrNetwork, err)
	}

	return parsePredictions(body)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Проверка реализации интерфейса
var _ port.Classifier = (*Client)(nil)
