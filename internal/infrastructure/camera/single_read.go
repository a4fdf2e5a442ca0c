package camera

import (
	"context"
	"image"
	"sync"
)

type grabResult struct {
	img image.Image
	err error
}

type readCall struct {
	done chan struct{}
	res  grabResult
}

// singleRead держит не больше одного чтения с устройства.
// Пока зависшее чтение не вернулось, новые вызовы ждут его результат, а не запускают ещё одно.
type singleRead struct {
	mu      sync.Mutex
	pending *readCall
}

func (s *singleRead) do(ctx context.Context, read func() grabResult) (grabResult, error) {
	s.mu.Lock()
	call := s.pending
	if call == nil {
		call = &readCall{done: make(chan struct{})}
		s.pending = call
		go func() {
			call.res = read()
			s.mu.Lock()
			s.pending = nil
			s.mu.Unlock()
			close(call.done)
		}()
	}
	s.mu.Unlock()

	select {
	case <-call.done:
		return call.res, nil
	case <-ctx.Done():
		return grabResult{}, ctx.Err()
	}
}

func (s *singleRead) inFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}
