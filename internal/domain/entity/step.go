package entity

import (
	"fmt"
	"time"
)

// Step шаг сценария
type Step int

const (
	StepAlign    Step = iota + 1 // Выровнять объект
	StepPosition                 // Объект на позиции, можно отпускать
	StepDone                     // Готово
)

// String возвращает текст статуса для экрана
func (s Step) String() string {
	switch s {
	case StepAlign:
		return "Align"
	case StepPosition:
		return "Drop"
	case StepDone:
		return "Succeeded"
	default:
		return "Align"
	}
}

// Number номер шага, начиная с 1
func (s Step) Number() int {
	return int(s)
}

// StepState текущий шаг вместе с подсветкой. Меняется только целиком.
type StepState struct {
	Step      Step  `json:"step"`
	Highlight *Rect `json:"highlight,omitempty"`
}

// InitialState состояние на старте процесса
func InitialState() StepState {
	return StepState{Step: StepAlign}
}

// Equal сравнивает состояния по значению, включая подсветку
func (s StepState) Equal(other StepState) bool {
	if s.Step != other.Step {
		return false
	}
	if s.Highlight == nil || other.Highlight == nil {
		return s.Highlight == nil && other.Highlight == nil
	}
	return *s.Highlight == *other.Highlight
}

// Snapshot то, что видит слой отображения
type Snapshot struct {
	StepState
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
	CycleID   string    `json:"cycle_id,omitempty"`
}

// NewSnapshot собирает снимок состояния со строкой статуса
func NewSnapshot(state StepState, cycleID string, at time.Time) Snapshot {
	return Snapshot{
		StepState: state,
		Status:    state.Step.String(),
		UpdatedAt: at,
		CycleID:   cycleID,
	}
}

// StatusLine строка вида "2. Drop"
func (s Snapshot) StatusLine() string {
	return fmt.Sprintf("%d. %s", s.Step.Number(), s.Status)
}
