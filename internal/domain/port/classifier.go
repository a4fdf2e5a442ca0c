package port

import (
	"context"

	"recycle-guide/internal/domain/entity"
)

// Classifier интерфейс удалённого классификатора
type Classifier interface {
	// Classify отправляет картинку и возвращает только полностью разобранные детекции
	Classify(ctx context.Context, payload []byte) ([]entity.Detection, error)
}
