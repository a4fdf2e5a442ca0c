package customvision

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"recycle-guide/internal/domain/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// predictionResponse ответ detect-эндпоинта. Указатели нужны, чтобы отличить
// отсутствующее поле от нулевого значения.
type predictionResponse struct {
	Predictions *[]prediction `json:"predictions"`
}

type prediction struct {
	TagName     *string      `json:"tagName"`
	Probability *float64     `json:"probability"`
	BoundingBox *boundingBox `json:"boundingBox"`
}

type boundingBox struct {
	Left   *float64 `json:"left"`
	Top    *float64 `json:"top"`
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`
}

// parsePredictions разбирает тело ответа целиком или не возвращает ничего
func parsePredictions(body []byte) ([]entity.Detection, error) {
	var resp predictionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrParse, err)
	}
	if resp.Predictions == nil {
		return nil, fmt.Errorf("%w: missing predictions", entity.ErrParse)
	}

	detections := make([]entity.Detection, 0, len(*resp.Predictions))
	for i, p := range *resp.Predictions {
		d, err := p.toDetection()
		if err != nil {
			return nil, fmt.Errorf("%w: prediction %d: %v", entity.ErrParse, i, err)
		}
		detections = append(detections, d)
	}
	return detections, nil
}

func (p prediction) toDetection() (entity.Detection, error) {
	if p.TagName == nil {
		return entity.Detection{}, fmt.Errorf("missing tagName")
	}
	if p.Probability == nil {
		return entity.Detection{}, fmt.Errorf("missing probability")
	}
	if *p.Probability < 0 || *p.Probability > 1 {
		return entity.Detection{}, fmt.Errorf("probability %v out of range", *p.Probability)
	}

	d := entity.Detection{
		Label:      *p.TagName,
		Confidence: *p.Probability,
	}
	// Рамка необязательна, но присланная рамка должна быть полной.
	if p.BoundingBox != nil {
		region, err := p.BoundingBox.toRect()
		if err != nil {
			return entity.Detection{}, err
		}
		d.Region = &region
	}
	return d, nil
}

func (b boundingBox) toRect() (entity.Rect, error) {
	if b.Left == nil || b.Top == nil || b.Width == nil || b.Height == nil {
		return entity.Rect{}, fmt.Errorf("incomplete boundingBox")
	}
	r := entity.Rect{X: *b.Left, Y: *b.Top, Width: *b.Width, Height: *b.Height}
	if !r.Valid() {
		return entity.Rect{}, fmt.Errorf("negative boundingBox %+v", r)
	}
	return r, nil
}
