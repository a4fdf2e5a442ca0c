package entity

import (
	"image"
	"time"
)

// Frame кадр с камеры. Живёт ровно один цикл.
type Frame struct {
	ID         string
	CapturedAt time.Time
	Image      image.Image
}
