package entity

import (
	"errors"
	"fmt"
	"net/http"
)

// Ошибки цикла. Все они локальны для одного цикла и не меняют состояние.
var (
	ErrCaptureUnavailable = errors.New("capture unavailable")
	ErrTransform          = errors.New("frame transform failed")
	ErrNetwork            = errors.New("network error")
	ErrParse              = errors.New("malformed classifier response")
)

// ServerError ответ сервиса классификации с неуспешным статусом
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("classifier returned status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("classifier returned status %d", e.StatusCode)
}

// IsRateLimited true для 429
func (e *ServerError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// ErrorKind короткое имя вида ошибки для логов
func ErrorKind(err error) string {
	var serverErr *ServerError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCaptureUnavailable):
		return "capture_unavailable"
	case errors.Is(err, ErrTransform):
		return "transform"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.As(err, &serverErr):
		return "server"
	case errors.Is(err, ErrNetwork):
		return "network"
	default:
		return "unknown"
	}
}
