package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"recycle-guide/internal/domain/entity"
	"recycle-guide/internal/domain/port"
)

// Grabber отдаёт сырой кадр с устройства
type Grabber interface {
	Grab(ctx context.Context) (image.Image, error)
}

// Source источник кадров поверх Grabber: захват и подготовка JPEG для отправки
type Source struct {
	grabber Grabber
	now     func() time.Time
	newID   func() string
}

// NewSource создаёт источник кадров
func NewSource(grabber Grabber) *Source {
	return &Source{
		grabber: grabber,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Capture снимает кадр
func (s *Source) Capture(ctx context.Context) (*entity.Frame, error) {
	img, err := s.grabber.Grab(ctx)
	if err != nil {
		if errors.Is(err, entity.ErrCaptureUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", entity.ErrCaptureUnavailable, err)
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty frame", entity.ErrCaptureUnavailable)
	}

	return &entity.Frame{
		ID:         s.newID(),
		CapturedAt: s.now(),
		Image:      img,
	}, nil
}

// Compress приводит кадр к ширине targetWidth с сохранением пропорций и кодирует в JPEG
func (s *Source) Compress(frame *entity.Frame, targetWidth int, quality float64) ([]byte, error) {
	if frame == nil || frame.Image == nil {
		return nil, fmt.Errorf("%w: no frame", entity.ErrTransform)
	}
	if targetWidth <= 0 {
		return nil, fmt.Errorf("%w: invalid target width %d", entity.ErrTransform, targetWidth)
	}
	if quality <= 0 || quality > 1 {
		return nil, fmt.Errorf("%w: invalid quality %v", entity.ErrTransform, quality)
	}

	resized := imaging.Resize(frame.Image, targetWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	q := int(math.Max(1, math.Round(quality*100)))
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(q)); err != nil {
		return nil, fmt.Errorf("%w: encode jpeg: %v", entity.ErrTransform, err)
	}

	return buf.Bytes(), nil
}

// Проверка реализации интерфейса
var _ port.FrameSource = (*Source)(nil)
