package stepform

// StepState is the visual state of a step relative to the current index.
type StepState int

const (
	StatePending StepState = iota
	StateActive
	StateCompleted
)

func (s StepState) String() string {
	switch s {
	case StateCompleted:
		return "completed"
	case StateActive:
		return "active"
	default:
		return "pending"
	}
}

// Sequencer tracks the current step index within [0, count].
type Sequencer struct {
	current int
	count   int
}

// NewSequencer returns a sequencer positioned on the first step.
func NewSequencer(count int) *Sequencer {
	if count < 0 {
		count = 0
	}
	return &Sequencer{count: count}
}

// Current returns the current index; Count() means summary.
func (s *Sequencer) Current() int {
	return s.current
}

// Count returns the number of input steps.
func (s *Sequencer) Count() int {
	return s.count
}

// AtSummary reports whether every step has been completed.
func (s *Sequencer) AtSummary() bool {
	return s.current == s.count
}

// Advance moves to the next index and reports whether it moved.
func (s *Sequencer) Advance() bool {
	if s.current >= s.count {
		return false
	}
	s.current++
	return true
}

// Retreat moves to the previous index and reports whether it moved.
func (s *Sequencer) Retreat() bool {
	if s.current <= 0 {
		return false
	}
	s.current--
	return true
}

// StateOf returns the state of step i.
func (s *Sequencer) StateOf(i int) StepState {
	switch {
	case i < s.current:
		return StateCompleted
	case i == s.current:
		return StateActive
	default:
		return StatePending
	}
}
