//go:build !gocv
// +build !gocv

package camera

import (
	"context"
	"fmt"
	"image"

	"recycle-guide/internal/domain/entity"
)

// Device заглушка камеры для сборки без OpenCV
type Device struct{}

// Open возвращает ошибку, если сборка без тега gocv.
func Open(deviceID int) (*Device, error) {
	return nil, fmt.Errorf("%w: device %d: gocv build tag is not enabled", entity.ErrCaptureUnavailable, deviceID)
}

// Grab возвращает ошибку, если сборка без тега gocv.
func (d *Device) Grab(ctx context.Context) (image.Image, error) {
	_ = ctx
	return nil, fmt.Errorf("%w: gocv build tag is not enabled", entity.ErrCaptureUnavailable)
}

// Close ничего не делает.
func (d *Device) Close() error {
	return nil
}
