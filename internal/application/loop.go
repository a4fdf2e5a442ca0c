package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"recycle-guide/internal/domain/entity"
	"recycle-guide/internal/domain/port"
)

// Phase фаза контроллера цикла
type Phase int32

const (
	PhaseIdle    Phase = iota // Разрешения на камеру ещё нет
	PhaseArmed                // Таймер запущен, цикла нет
	PhaseCycle                // Идёт цикл захват-классификация
	PhaseStopped              // Остановлен, терминальная фаза
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseArmed:
		return "armed"
	case PhaseCycle:
		return "cycle_in_progress"
	case PhaseStopped:
		return "stopped"
	default:
		return fmt.Sprintf("phase(%d)", int32(p))
	}
}

// EmptyPolicy что делать, если классификатор вернул пустой список
type EmptyPolicy string

const (
	EmptyReset EmptyPolicy = "reset" // применить Decide(nil), то есть ALIGN
	EmptyHold  EmptyPolicy = "hold"  // оставить предыдущее состояние
)

// LoopConfig параметры цикла
type LoopConfig struct {
	Period         time.Duration
	CoalesceDelay  time.Duration
	CaptureTimeout time.Duration
	TargetWidth    int
	Quality        float64
	Thresholds     Thresholds
	EmptyPolicy    EmptyPolicy
}

// DefaultLoopConfig значения по умолчанию
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		Period:         1500 * time.Millisecond,
		CoalesceDelay:  50 * time.Millisecond,
		CaptureTimeout: 5 * time.Second,
		TargetWidth:    250,
		Quality:        0.2,
		Thresholds:     DefaultThresholds(),
		EmptyPolicy:    EmptyReset,
	}
}

// LoopStats счётчики циклов
type LoopStats struct {
	Started   uint64 `json:"started"`
	Succeeded uint64 `json:"succeeded"`
	Failed    uint64 `json:"failed"`
	Dropped   uint64 `json:"dropped"`
}

// LoopController периодически снимает кадр, классифицирует его и публикует шаг.
// В любой момент выполняется не больше одного цикла.
type LoopController struct {
	source     port.FrameSource
	classifier port.Classifier
	store      port.StateStore
	cfg        LoopConfig
	log        logrus.FieldLogger

	mu       sync.Mutex
	phase    Phase // только idle, armed или stopped; cycle вычисляется из busy
	ticker   *time.Ticker
	done     chan struct{}
	debounce *time.Timer

	busy    atomic.Bool
	cycles  sync.WaitGroup
	applyMu sync.Mutex // порядок захвата: applyMu, затем mu

	started   atomic.Uint64
	succeeded atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64

	newID func() string
}

// NewLoopController создаёт контроллер в фазе idle
func NewLoopController(source port.FrameSource, classifier port.Classifier, store port.StateStore, cfg LoopConfig, log logrus.FieldLogger) *LoopController {
	if cfg.EmptyPolicy == "" {
		cfg.EmptyPolicy = EmptyReset
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LoopController{
		source:     source,
		classifier: classifier,
		store:      store,
		cfg:        cfg,
		log:        log.WithField("component", "loop"),
		newID:      uuid.NewString,
	}
}

// Phase возвращает текущую фазу
func (c *LoopController) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseArmed && c.busy.Load() {
		return PhaseCycle
	}
	return c.phase
}

// Stats возвращает счётчики циклов
func (c *LoopController) Stats() LoopStats {
	return LoopStats{
		Started:   c.started.Load(),
		Succeeded: c.succeeded.Load(),
		Failed:    c.failed.Load(),
		Dropped:   c.dropped.Load(),
	}
}

// SetPermission принимает сигнал разрешения камеры.
// granted запускает таймер из idle; отзыв останавливает контроллер без ожидания цикла.
func (c *LoopController) SetPermission(granted bool) {
	if !granted {
		c.log.Info("camera permission revoked")
		c.halt()
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseIdle {
		c.log.WithField("phase", c.phase.String()).Debug("permission granted in non-idle phase, ignoring")
		return
	}

	c.phase = PhaseArmed
	c.ticker = time.NewTicker(c.cfg.Period)
	c.done = make(chan struct{})
	go c.tick(c.ticker, c.done)

	c.log.WithFields(logrus.Fields{
		"period":   c.cfg.Period.String(),
		"coalesce": c.cfg.CoalesceDelay.String(),
	}).Info("camera permission granted, loop armed")
}

func (c *LoopController) tick(t *time.Ticker, done <-chan struct{}) {
	for {
		select {
		case <-t.C:
			c.Trigger()
		case <-done:
			return
		}
	}
}

// Trigger просит запустить цикл. Частые вызовы схлопываются задержкой CoalesceDelay,
// цикл стартует по последнему из них.
func (c *LoopController) Trigger() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseArmed {
		return
	}
	if c.cfg.CoalesceDelay <= 0 {
		go c.tryStartCycle()
		return
	}
	if c.debounce == nil {
		c.debounce = time.AfterFunc(c.cfg.CoalesceDelay, func() { c.tryStartCycle() })
		return
	}
	c.debounce.Reset(c.cfg.CoalesceDelay)
}

// tryStartCycle занимает блокировку цикла и запускает его в отдельной горутине.
// Если цикл уже идёт, запуск отбрасывается.
func (c *LoopController) tryStartCycle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseArmed {
		return false
	}
	if !c.busy.CompareAndSwap(false, true) {
		c.dropped.Add(1)
		c.log.Debug("cycle already in flight, dropping trigger")
		return false
	}

	c.cycles.Add(1)
	go c.runCycle()
	return true
}

func (c *LoopController) runCycle() {
	defer c.cycles.Done()
	defer c.busy.Store(false)

	cycleID := c.newID()
	log := c.log.WithField("cycle_id", cycleID)
	c.started.Add(1)
	start := time.Now()

	// Сетевой вызов не отменяется при остановке, результат просто отбрасывается.
	state, apply, err := c.cycle(context.Background(), log)
	if err != nil {
		c.failed.Add(1)
		log.WithError(err).WithFields(logrus.Fields{
			"kind":     entity.ErrorKind(err),
			"duration": time.Since(start).String(),
		}).Warn("cycle failed, state unchanged")
		return
	}
	c.succeeded.Add(1)

	if !apply {
		log.Debug("no detections, holding previous state")
		return
	}
	snap, published := c.publish(state, cycleID, log)
	if !published {
		return
	}
	log.WithFields(logrus.Fields{
		"step":     snap.Status,
		"duration": time.Since(start).String(),
	}).Debug("cycle applied")
}

// publish проверяет фазу и публикует состояние под applyMu, поэтому после
// возврата halt ни один результат цикла уже не попадёт в хранилище.
// Подписчики хранилища вызываются внутри и не должны звать SetPermission или Stop.
func (c *LoopController) publish(state entity.StepState, cycleID string, log logrus.FieldLogger) (entity.Snapshot, bool) {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()

	if c.stopped() {
		log.Debug("controller stopped, discarding cycle result")
		return entity.Snapshot{}, false
	}
	if state.Equal(c.store.Current().StepState) {
		log.Debug("state unchanged, skipping publish")
		return entity.Snapshot{}, false
	}
	return c.store.Publish(state, cycleID), true
}

// cycle выполняет захват, сжатие, классификацию и решение.
// apply=false означает, что состояние трогать не нужно.
func (c *LoopController) cycle(ctx context.Context, log logrus.FieldLogger) (entity.StepState, bool, error) {
	captureCtx := ctx
	if c.cfg.CaptureTimeout > 0 {
		var cancel context.CancelFunc
		captureCtx, cancel = context.WithTimeout(ctx, c.cfg.CaptureTimeout)
		defer cancel()
	}

	frame, err := c.source.Capture(captureCtx)
	if err != nil {
		return entity.StepState{}, false, fmt.Errorf("capture: %w", err)
	}

	payload, err := c.source.Compress(frame, c.cfg.TargetWidth, c.cfg.Quality)
	if err != nil {
		return entity.StepState{}, false, fmt.Errorf("compress frame %s: %w", frame.ID, err)
	}
	log.WithFields(logrus.Fields{"frame_id": frame.ID, "bytes": len(payload)}).Debug("frame compressed")

	detections, err := c.classifier.Classify(ctx, payload)
	if err != nil {
		return entity.StepState{}, false, fmt.Errorf("classify: %w", err)
	}

	if len(detections) == 0 && c.cfg.EmptyPolicy == EmptyHold {
		return entity.StepState{}, false, nil
	}
	return Decide(detections, c.cfg.Thresholds), true, nil
}

func (c *LoopController) stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase == PhaseStopped
}

// halt отменяет таймер и отложенный запуск, переводит в stopped
func (c *LoopController) halt() {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase == PhaseStopped {
		return
	}
	c.phase = PhaseStopped

	if c.ticker != nil {
		c.ticker.Stop()
	}
	if c.done != nil {
		close(c.done)
	}
	if c.debounce != nil {
		c.debounce.Stop()
	}
}

// Stop останавливает контроллер и ждёт завершения текущего цикла, пока жив ctx
func (c *LoopController) Stop(ctx context.Context) error {
	c.halt()

	waited := make(chan struct{})
	go func() {
		c.cycles.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		c.log.Info("loop stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for in-flight cycle: %w", ctx.Err())
	}
}
