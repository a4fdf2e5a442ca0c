package port

import "recycle-guide/internal/domain/entity"

// StateStore хранилище текущего шага с рассылкой подписчикам
type StateStore interface {
	// Current возвращает последний опубликованный снимок
	Current() entity.Snapshot

	// Publish атомарно заменяет состояние и уведомляет подписчиков
	Publish(state entity.StepState, cycleID string) entity.Snapshot

	// Subscribe регистрирует обработчик; возвращает функцию отписки
	Subscribe(fn func(entity.Snapshot)) (unsubscribe func())
}
