//go:build gocv
// +build gocv

package camera

import (
	"context"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"recycle-guide/internal/domain/entity"
)

// Device камера OpenCV по индексу устройства
type Device struct {
	mu      sync.Mutex
	capture *gocv.VideoCapture
	id      int
	reads   singleRead
}

// Open открывает камеру. Ошибка открытия трактуется как отсутствие доступа.
func Open(deviceID int) (*Device, error) {
	capture, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: open device %d: %v", entity.ErrCaptureUnavailable, deviceID, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: device %d is not opened", entity.ErrCaptureUnavailable, deviceID)
	}
	return &Device{capture: capture, id: deviceID}, nil
}

// Grab читает один кадр. Чтение с устройства может зависнуть, поэтому ждём его не дольше ctx.
// Зависшее чтение не перезапускается, следующий Grab дожидается его же.
func (d *Device) Grab(ctx context.Context) (image.Image, error) {
	r, err := d.reads.do(ctx, d.read)
	if err != nil {
		return nil, fmt.Errorf("%w: device %d: %v", entity.ErrCaptureUnavailable, d.id, err)
	}
	return r.img, r.err
}

func (d *Device) read() grabResult {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.capture == nil {
		return grabResult{err: fmt.Errorf("%w: device is not opened", entity.ErrCaptureUnavailable)}
	}

	mat := gocv.NewMat()
	defer mat.Close()

	if ok := d.capture.Read(&mat); !ok || mat.Empty() {
		return grabResult{err: fmt.Errorf("%w: device %d returned empty frame", entity.ErrCaptureUnavailable, d.id)}
	}

	img, err := mat.ToImage()
	if err != nil {
		return grabResult{err: fmt.Errorf("%w: convert frame: %v", entity.ErrCaptureUnavailable, err)}
	}
	return grabResult{img: img}
}

// Close освобождает устройство
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.capture == nil {
		return nil
	}
	return d.capture.Close()
}
