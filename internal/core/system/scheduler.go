package system

import (
	"fmt"
	"sync"

	"github.com/tickforge/tickforge/internal/core/observability/log"
	"github.com/tickforge/tickforge/internal/core/resource"
	"github.com/tickforge/tickforge/internal/core/resources"
	"github.com/tickforge/tickforge/pkg/concurrent"
	"github.com/tickforge/tickforge/pkg/sequence"
)

// Scheduler owns every registered system and drives them once per host
// frame: variable group, fixed-step group under an accumulator, then the
// render group, with a hard barrier between waves. Update failures are
// contained per system; build and init failures are fatal before the
// first tick.
type Scheduler struct {
	cfg Config
	log log.Log

	entries []*entry
	byName  map[string]*entry
	sched   *schedule

	groupInactive map[Group]bool
	accumulator   float64
	started       bool

	mu       sync.Mutex
	failures map[string]int
}

func NewScheduler(cfg Config, logger log.Log) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Provide()
	}
	return &Scheduler{
		cfg:           cfg,
		log:           logger.With(log.String("component", "scheduler")),
		byName:        make(map[string]*entry),
		groupInactive: make(map[Group]bool),
		failures:      make(map[string]int),
	}, nil
}

// Register adds a system to the variable-rate update group.
func (s *Scheduler) Register(sys System) error {
	return s.RegisterIn(sys, GroupUpdate)
}

// RegisterIn adds a system to a named group. Names must be unique across
// all groups. Registration invalidates any cached schedule.
func (s *Scheduler) RegisterIn(sys System, group Group) error {
	name := sys.Name()
	if _, taken := s.byName[name]; taken {
		return fmt.Errorf("%q: %w", name, ErrDuplicateName)
	}
	e := &entry{sys: sys, group: group, order: len(s.entries)}
	s.entries = append(s.entries, e)
	s.byName[name] = e
	s.sched = nil
	return nil
}

// Unregister removes a system. If the scheduler already started, the
// system is shut down first.
func (s *Scheduler) Unregister(w World, name string) error {
	e, ok := s.byName[name]
	if !ok {
		return fmt.Errorf("unregister %q: not registered", name)
	}
	if s.started {
		if err := e.sys.Shutdown(w); err != nil {
			s.log.Error("system shutdown failed", log.String("system", name), log.Error(err))
		}
	}
	for i, cur := range s.entries {
		if cur == e {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			break
		}
	}
	delete(s.byName, name)
	delete(s.failures, name)
	s.sched = nil
	return nil
}

// Has reports whether a system with the name is registered.
func (s *Scheduler) Has(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// SetSystemActive toggles one system, reporting whether it was found.
func (s *Scheduler) SetSystemActive(name string, active bool) bool {
	e, ok := s.byName[name]
	if !ok {
		return false
	}
	e.sys.SetActive(active)
	if active {
		s.mu.Lock()
		s.failures[name] = 0
		s.mu.Unlock()
	}
	return true
}

// SetGroupActive toggles a whole group; an inactive group is skipped
// entirely each tick with no per-system checks.
func (s *Scheduler) SetGroupActive(g Group, active bool) {
	s.groupInactive[g] = !active
}

// resolve returns the current schedule, rebuilding it only when the
// registration fingerprint changed.
func (s *Scheduler) resolve() (*schedule, error) {
	if s.sched != nil && s.sched.fingerprint == fingerprintOf(s.entries) {
		return s.sched, nil
	}
	sched, err := buildSchedule(s.entries)
	if err != nil {
		return nil, err
	}
	s.sched = sched
	return sched, nil
}

// ExecutionOrder returns the resolved total order of system names, for
// debugging and tests.
func (s *Scheduler) ExecutionOrder() ([]string, error) {
	sched, err := s.resolve()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(sched.order))
	for i, e := range sched.order {
		names[i] = e.sys.Name()
	}
	return names, nil
}

// Waves returns the wave partition of one group as system names.
func (s *Scheduler) Waves(g Group) ([][]string, error) {
	sched, err := s.resolve()
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(sched.waves[g]))
	for i, wave := range sched.waves[g] {
		names := make([]string, len(wave))
		for j, e := range wave {
			names[j] = e.sys.Name()
		}
		out[i] = names
	}
	return out, nil
}

// Start resolves the dependency graph and initializes every system in
// dependency order. If any Init fails, Start reports which system and why,
// and no system runs a tick. Built-in resources missing from the world are
// inserted first.
func (s *Scheduler) Start(w World) error {
	sched, err := s.resolve()
	if err != nil {
		return err
	}

	if !resource.Has[resources.Time](w.Resources()) {
		resource.Insert(w.Resources(), resources.NewTime())
	}
	if !resource.Has[resources.SimState](w.Resources()) {
		resource.Insert(w.Resources(), resources.NewSimState())
	}
	if t, ok := resource.Get[resources.Time](w.Resources()); ok {
		t.SetScale(s.cfg.TimeScale)
	}

	for _, e := range sched.order {
		if err := e.sys.Init(w); err != nil {
			return &InitError{System: e.sys.Name(), Err: err}
		}
		s.log.Debug("system initialized", log.String("system", e.sys.Name()))
	}
	s.started = true
	s.log.Info("scheduler started",
		log.Int("systems", len(s.entries)),
		log.Float64("fixed_rate", s.cfg.FixedUpdateRate))
	return nil
}

// Tick drives one host frame: time bookkeeping, the variable group once,
// the fixed group per the accumulator, the render group once, then the
// deferred-destruction flush. Per-system update errors are contained and
// logged, never returned.
func (s *Scheduler) Tick(w World, elapsed float64) error {
	if !s.started {
		return ErrNotStarted
	}
	// Re-resolve in case systems were registered or removed since Start.
	if _, err := s.resolve(); err != nil {
		return err
	}
	if elapsed > s.cfg.MaxDeltaTime {
		elapsed = s.cfg.MaxDeltaTime
	}

	dt := elapsed
	if t, ok := resource.Get[resources.Time](w.Resources()); ok {
		dt = t.BeginFrame(elapsed)
	}
	if st, ok := resource.Get[resources.SimState](w.Resources()); ok {
		st.Advance(dt)
	}

	s.runGroup(w, GroupUpdate, dt)

	fixedDt := 1.0 / s.cfg.FixedUpdateRate
	s.accumulator += dt
	for s.accumulator >= fixedDt {
		s.runGroup(w, GroupFixed, fixedDt)
		s.accumulator -= fixedDt
	}

	s.runGroup(w, GroupRender, dt)

	w.Entities().Flush()
	return nil
}

func (s *Scheduler) runGroup(w World, g Group, dt float64) {
	if s.groupInactive[g] {
		return
	}
	for _, wave := range s.sched.waves[g] {
		s.runWave(w, wave, dt)
	}
}

// runWave executes one wave. Consecutive systems with non-conflicting
// declared access sets form a concurrent batch; everything else runs
// sequentially. The wave is a hard barrier either way.
func (s *Scheduler) runWave(w World, wave []*entry, dt float64) {
	if !s.cfg.Parallel {
		for _, e := range wave {
			s.runOne(w, e, dt)
		}
		return
	}

	var batch []*entry
	acc := newAccessSet()
	flush := func() {
		switch len(batch) {
		case 0:
		case 1:
			s.runOne(w, batch[0], dt)
		default:
			_ = concurrent.Concurrent(sequence.From(batch), func(e *entry) error {
				s.runOne(w, e, dt)
				return nil
			})
		}
		batch = batch[:0]
		acc.reset()
	}

	for _, e := range wave {
		decl, ok := e.sys.(Accessor)
		if !ok {
			flush()
			s.runOne(w, e, dt)
			continue
		}
		if acc.conflicts(decl) {
			flush()
		}
		acc.add(decl)
		batch = append(batch, e)
	}
	flush()
}

// runOne runs a single system's slot: the runnability predicate is checked
// first and can skip the slot for this tick; a panic or error from Update
// is contained, logged, and counted toward the failure threshold.
func (s *Scheduler) runOne(w World, e *entry, dt float64) {
	sys := e.sys
	if !sys.IsActive() || !sys.IsRunnable(w) {
		return
	}
	if err := s.safeUpdate(sys, w, dt); err != nil {
		s.handleFailure(sys, err)
		return
	}
	s.mu.Lock()
	delete(s.failures, sys.Name())
	s.mu.Unlock()
}

func (s *Scheduler) safeUpdate(sys System, w World, dt float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &UpdateError{System: sys.Name(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if uerr := sys.Update(w, dt); uerr != nil {
		err = &UpdateError{System: sys.Name(), Err: uerr}
	}
	return err
}

func (s *Scheduler) handleFailure(sys System, err error) {
	s.mu.Lock()
	s.failures[sys.Name()]++
	count := s.failures[sys.Name()]
	s.mu.Unlock()

	s.log.Error("system update failed",
		log.String("system", sys.Name()),
		log.Int("consecutive", count),
		log.Error(err))

	if s.cfg.FailureThreshold > 0 && count >= s.cfg.FailureThreshold {
		sys.SetActive(false)
		s.log.Warn("system deactivated after repeated failures",
			log.String("system", sys.Name()),
			log.Int("failures", count))
	}
}

// Shutdown stops every system in reverse dependency order. Failures are
// logged and do not block the remaining shutdowns.
func (s *Scheduler) Shutdown(w World) {
	if s.sched == nil {
		return
	}
	for i := len(s.sched.order) - 1; i >= 0; i-- {
		sys := s.sched.order[i].sys
		if err := sys.Shutdown(w); err != nil {
			s.log.Error("system shutdown failed",
				log.String("system", sys.Name()), log.Error(err))
		}
	}
	s.started = false
	s.log.Info("scheduler stopped")
}
