package resources

// Phase is the coarse lifecycle of a running simulation.
type Phase uint8

const (
	PhaseReady Phase = iota
	PhaseRunning
	PhasePaused
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseReady:
		return "ready"
	case PhaseRunning:
		return "running"
	case PhasePaused:
		return "paused"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// SimState is the built-in resource tracking the world's phase and how long
// it has been running. Game-specific state lives in host resource types.
type SimState struct {
	Phase   Phase
	Elapsed float64
}

func NewSimState() *SimState {
	return &SimState{Phase: PhaseReady}
}

// Start moves the simulation into the running phase. Starting a finished
// simulation resets the elapsed clock.
func (s *SimState) Start() {
	if s.Phase == PhaseFinished || s.Phase == PhaseReady {
		s.Elapsed = 0
	}
	s.Phase = PhaseRunning
}

// Pause holds the phase clock; only a running simulation can pause.
func (s *SimState) Pause() {
	if s.Phase == PhaseRunning {
		s.Phase = PhasePaused
	}
}

// Resume continues a paused simulation.
func (s *SimState) Resume() {
	if s.Phase == PhasePaused {
		s.Phase = PhaseRunning
	}
}

// Finish terminates the simulation.
func (s *SimState) Finish() {
	s.Phase = PhaseFinished
}

// Reset returns to the ready phase with a cleared clock.
func (s *SimState) Reset() {
	s.Phase = PhaseReady
	s.Elapsed = 0
}

// Advance accrues elapsed time while running.
func (s *SimState) Advance(dt float64) {
	if s.Phase == PhaseRunning {
		s.Elapsed += dt
	}
}

// Running reports whether systems should advance the world.
func (s *SimState) Running() bool {
	return s.Phase == PhaseRunning
}
