package app

import "recycle-guide/internal/domain/entity"

// Thresholds пороги уверенности для шагов. Сравнение строгое.
type Thresholds struct {
	Done     float64
	Position float64
}

// DefaultThresholds пороги по умолчанию
func DefaultThresholds() Thresholds {
	return Thresholds{Done: 0.8, Position: 0.5}
}

// Decide переводит набор детекций в шаг сценария.
// Функция чистая: пустой список даёт ALIGN без подсветки.
func Decide(detections []entity.Detection, th Thresholds) entity.StepState {
	if d, ok := firstAbove(detections, entity.LabelRecycled, th.Done); ok {
		var highlight *entity.Rect
		if d.Region != nil {
			r := *d.Region
			highlight = &r
		}
		return entity.StepState{Step: entity.StepDone, Highlight: highlight}
	}

	if _, ok := firstAbove(detections, entity.LabelOnPosition, th.Position); ok {
		return entity.StepState{Step: entity.StepPosition}
	}

	return entity.StepState{Step: entity.StepAlign}
}

// firstAbove возвращает первую детекцию с меткой label и уверенностью выше threshold
func firstAbove(detections []entity.Detection, label string, threshold float64) (entity.Detection, bool) {
	for _, d := range detections {
		if d.Label == label && d.Confidence > threshold {
			return d, true
		}
	}
	return entity.Detection{}, false
}
