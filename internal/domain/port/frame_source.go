package port

import (
	"context"

	"recycle-guide/internal/domain/entity"
)

// FrameSource интерфейс источника кадров
type FrameSource interface {
	// Capture снимает новый кадр; ошибка оборачивает entity.ErrCaptureUnavailable
	Capture(ctx context.Context) (*entity.Frame, error)

	// Compress уменьшает кадр до targetWidth и кодирует в JPEG с качеством quality (0..1)
	Compress(frame *entity.Frame, targetWidth int, quality float64) ([]byte, error)
}
