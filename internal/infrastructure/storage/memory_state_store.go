package storage

import (
	"sync"
	"time"

	"recycle-guide/internal/domain/entity"
	"recycle-guide/internal/domain/port"
)

// MemoryStateStore in-memory хранилище текущего шага
type MemoryStateStore struct {
	mu       sync.RWMutex
	snapshot entity.Snapshot

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(entity.Snapshot)

	now func() time.Time
}

// NewMemoryStateStore создаёт хранилище с начальным состоянием ALIGN
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{
		snapshot: entity.NewSnapshot(entity.InitialState(), "", time.Now()),
		subs:     make(map[int]func(entity.Snapshot)),
		now:      time.Now,
	}
}

// Current возвращает последний снимок
func (s *MemoryStateStore) Current() entity.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Publish заменяет шаг и подсветку одной записью, затем синхронно вызывает подписчиков
func (s *MemoryStateStore) Publish(state entity.StepState, cycleID string) entity.Snapshot {
	if state.Highlight != nil {
		h := *state.Highlight
		state.Highlight = &h
	}
	snap := entity.NewSnapshot(state, cycleID, s.now())

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	for _, fn := range s.subscribers() {
		fn(snap)
	}
	return snap
}

// Subscribe добавляет подписчика
func (s *MemoryStateStore) Subscribe(fn func(entity.Snapshot)) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *MemoryStateStore) subscribers() []func(entity.Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	fns := make([]func(entity.Snapshot), 0, len(s.subs))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	return fns
}

// Проверка реализации интерфейса
var _ port.StateStore = (*MemoryStateStore)(nil)
