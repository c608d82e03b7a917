package system_test

import (
	"errors"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tickforge/tickforge/internal/core/component"
	"github.com/tickforge/tickforge/internal/core/observability/log"
	"github.com/tickforge/tickforge/internal/core/resource"
	"github.com/tickforge/tickforge/internal/core/resources"
	"github.com/tickforge/tickforge/internal/core/system"
	"github.com/tickforge/tickforge/internal/core/world"
)

func newWorld() *world.World {
	return world.New(world.WithLogger(log.Nop()))
}

type lifecycle struct {
	system.Base
	journal *[]string
	initErr error
}

func (l *lifecycle) Init(system.World) error {
	if l.initErr != nil {
		return l.initErr
	}
	*l.journal = append(*l.journal, "init:"+l.Name())
	return nil
}

func (l *lifecycle) Update(system.World, float64) error {
	*l.journal = append(*l.journal, "tick:"+l.Name())
	return nil
}

func (l *lifecycle) Shutdown(system.World) error {
	*l.journal = append(*l.journal, "stop:"+l.Name())
	return nil
}

type gated struct {
	system.Base
	open bool
	runs int
}

func (g *gated) IsRunnable(system.World) bool { return g.open }

func (g *gated) Update(system.World, float64) error {
	g.runs++
	return nil
}

func TestNewScheduler_ValidatesConfig(t *testing.T) {
	cfg := system.DefaultConfig()
	cfg.FixedUpdateRate = 0
	_, err := system.NewScheduler(cfg, log.Nop())
	require.Error(t, err)
}

func TestScheduler_TickBeforeStart(t *testing.T) {
	s := newScheduler(t)
	require.ErrorIs(t, s.Tick(newWorld(), 0.016), system.ErrNotStarted)
}

func TestScheduler_StartInitsInDependencyOrder(t *testing.T) {
	s := newScheduler(t)
	var journal []string
	require.NoError(t, s.Register(&lifecycle{Base: system.NewBase("render", 0, "physics"), journal: &journal}))
	require.NoError(t, s.Register(&lifecycle{Base: system.NewBase("physics", 0, "input"), journal: &journal}))
	require.NoError(t, s.Register(&lifecycle{Base: system.NewBase("input", 0), journal: &journal}))

	require.NoError(t, s.Start(newWorld()))
	require.Equal(t, []string{"init:input", "init:physics", "init:render"}, journal)
}

func TestScheduler_InitFailureAborts(t *testing.T) {
	s := newScheduler(t)
	var journal []string
	boom := errors.New("no device")
	require.NoError(t, s.Register(&lifecycle{Base: system.NewBase("input", 0), journal: &journal}))
	require.NoError(t, s.Register(&lifecycle{Base: system.NewBase("render", 0, "input"), journal: &journal, initErr: boom}))

	w := newWorld()
	err := s.Start(w)
	require.ErrorIs(t, err, boom)

	var ie *system.InitError
	require.ErrorAs(t, err, &ie)
	require.Equal(t, "render", ie.System)

	require.ErrorIs(t, s.Tick(w, 0.016), system.ErrNotStarted)
}

func TestScheduler_StartInsertsBuiltinResources(t *testing.T) {
	s := newScheduler(t, func(c *system.Config) { c.TimeScale = 2.0 })
	w := newWorld()
	require.NoError(t, s.Start(w))

	tm, ok := resource.Get[resources.Time](w.Resources())
	require.True(t, ok)
	require.Equal(t, 2.0, tm.Scale)
	require.True(t, resource.Has[resources.SimState](w.Resources()))
}

func TestScheduler_TickGroups(t *testing.T) {
	s := newScheduler(t, func(c *system.Config) {
		c.FixedUpdateRate = 8
		c.MaxDeltaTime = 1
	})

	update := newCounting("update")
	fixed := newCounting("fixed")
	render := newCounting("render")
	require.NoError(t, s.Register(update))
	require.NoError(t, s.RegisterIn(fixed, system.GroupFixed))
	require.NoError(t, s.RegisterIn(render, system.GroupRender))

	w := newWorld()
	require.NoError(t, s.Start(w))

	require.NoError(t, s.Tick(w, 0.3125))
	require.Equal(t, 1, update.runs)
	require.Equal(t, 1, render.runs)
	require.Equal(t, 2, fixed.runs, "0.3125s covers two 0.125s fixed steps")

	require.NoError(t, s.Tick(w, 0.3125))
	require.Equal(t, 2, update.runs)
	require.Equal(t, 5, fixed.runs, "the 0.0625s remainder carries into the next tick")

	t.Run("fixed steps always see the fixed delta", func(t *testing.T) {
		for _, dt := range fixed.deltas {
			require.InDelta(t, 0.125, dt, 1e-9)
		}
	})

	t.Run("variable groups see the frame delta", func(t *testing.T) {
		require.InDelta(t, 0.3125, update.deltas[0], 1e-9)
		require.InDelta(t, 0.3125, render.deltas[0], 1e-9)
	})
}

func TestScheduler_MaxDeltaClamp(t *testing.T) {
	s := newScheduler(t)
	update := newCounting("update")
	require.NoError(t, s.Register(update))

	w := newWorld()
	require.NoError(t, s.Start(w))
	require.NoError(t, s.Tick(w, 5.0))

	require.InDelta(t, 0.1, update.deltas[0], 1e-9, "a host hitch must not produce a giant step")
}

func TestScheduler_AdvancesTimeAndState(t *testing.T) {
	s := newScheduler(t, func(c *system.Config) { c.MaxDeltaTime = 1 })
	w := newWorld()
	require.NoError(t, s.Start(w))

	st, _ := resource.Get[resources.SimState](w.Resources())
	st.Start()

	require.NoError(t, s.Tick(w, 0.5))
	require.NoError(t, s.Tick(w, 0.5))

	tm, _ := resource.Get[resources.Time](w.Resources())
	require.Equal(t, uint64(2), tm.Frames)
	require.InDelta(t, 1.0, tm.Total, 1e-9)
	require.InDelta(t, 1.0, st.Elapsed, 1e-9)
}

func TestScheduler_UpdateErrorIsContained(t *testing.T) {
	s := newScheduler(t)
	failing := newCounting("failing")
	failing.err = errors.New("boom")
	healthy := newCounting("healthy")
	require.NoError(t, s.Register(failing))
	require.NoError(t, s.Register(healthy))

	w := newWorld()
	require.NoError(t, s.Start(w))
	require.NoError(t, s.Tick(w, 0.016), "a per-system failure never fails the tick")
	require.Equal(t, 1, failing.runs)
	require.Equal(t, 1, healthy.runs)
}

func TestScheduler_PanicIsContained(t *testing.T) {
	s := newScheduler(t)
	require.NoError(t, s.Register(system.NewFunc("panicky", 0, func(system.World, float64) error {
		panic("slice out of range")
	})))
	healthy := newCounting("healthy")
	require.NoError(t, s.Register(healthy))

	w := newWorld()
	require.NoError(t, s.Start(w))
	require.NoError(t, s.Tick(w, 0.016))
	require.Equal(t, 1, healthy.runs)
}

func TestScheduler_FailureThreshold(t *testing.T) {
	s := newScheduler(t, func(c *system.Config) { c.FailureThreshold = 2 })
	failing := newCounting("failing")
	failing.err = errors.New("boom")
	require.NoError(t, s.Register(failing))

	w := newWorld()
	require.NoError(t, s.Start(w))

	require.NoError(t, s.Tick(w, 0.016))
	require.NoError(t, s.Tick(w, 0.016))
	require.False(t, failing.IsActive(), "two consecutive failures hit the threshold")

	require.NoError(t, s.Tick(w, 0.016))
	require.Equal(t, 2, failing.runs, "a deactivated system no longer runs")

	t.Run("reactivation resets the count", func(t *testing.T) {
		failing.err = nil
		require.True(t, s.SetSystemActive("failing", true))
		require.NoError(t, s.Tick(w, 0.016))
		require.Equal(t, 3, failing.runs)
		require.True(t, failing.IsActive())
	})
}

func TestScheduler_FailureCountResetsOnSuccess(t *testing.T) {
	s := newScheduler(t, func(c *system.Config) { c.FailureThreshold = 2 })
	flaky := newCounting("flaky")
	require.NoError(t, s.Register(flaky))

	w := newWorld()
	require.NoError(t, s.Start(w))

	flaky.err = errors.New("boom")
	require.NoError(t, s.Tick(w, 0.016))
	flaky.err = nil
	require.NoError(t, s.Tick(w, 0.016))
	flaky.err = errors.New("boom")
	require.NoError(t, s.Tick(w, 0.016))

	require.True(t, flaky.IsActive(), "non-consecutive failures never hit the threshold")
}

func TestScheduler_SetSystemActive(t *testing.T) {
	s := newScheduler(t)
	c := newCounting("mover")
	require.NoError(t, s.Register(c))

	w := newWorld()
	require.NoError(t, s.Start(w))

	require.True(t, s.SetSystemActive("mover", false))
	require.NoError(t, s.Tick(w, 0.016))
	require.Zero(t, c.runs)

	require.True(t, s.SetSystemActive("mover", true))
	require.NoError(t, s.Tick(w, 0.016))
	require.Equal(t, 1, c.runs)

	require.False(t, s.SetSystemActive("ghost", true))
}

func TestScheduler_SetGroupActive(t *testing.T) {
	s := newScheduler(t)
	update := newCounting("update")
	render := newCounting("render")
	require.NoError(t, s.Register(update))
	require.NoError(t, s.RegisterIn(render, system.GroupRender))

	w := newWorld()
	require.NoError(t, s.Start(w))

	s.SetGroupActive(system.GroupRender, false)
	require.NoError(t, s.Tick(w, 0.016))
	require.Equal(t, 1, update.runs)
	require.Zero(t, render.runs)

	s.SetGroupActive(system.GroupRender, true)
	require.NoError(t, s.Tick(w, 0.016))
	require.Equal(t, 1, render.runs)
}

func TestScheduler_RunnableGate(t *testing.T) {
	s := newScheduler(t)
	g := &gated{Base: system.NewBase("gated", 0)}
	require.NoError(t, s.Register(g))

	w := newWorld()
	require.NoError(t, s.Start(w))

	require.NoError(t, s.Tick(w, 0.016))
	require.Zero(t, g.runs)

	g.open = true
	require.NoError(t, s.Tick(w, 0.016))
	require.Equal(t, 1, g.runs)
}

func TestScheduler_FlushesDeferredDestroys(t *testing.T) {
	s := newScheduler(t)
	w := newWorld()
	doomed := w.Entities().Create()

	require.NoError(t, s.Register(system.NewFunc("reaper", 0, func(sw system.World, _ float64) error {
		if sw.Entities().Alive(doomed) {
			return sw.Entities().DestroyDeferred(doomed)
		}
		return nil
	})))
	observedAlive := false
	require.NoError(t, s.Register(system.NewFunc("observer", 0, func(sw system.World, _ float64) error {
		observedAlive = sw.Entities().Alive(doomed)
		return nil
	}, "reaper")))

	require.NoError(t, s.Start(w))
	require.NoError(t, s.Tick(w, 0.016))

	require.True(t, observedAlive, "deferred destruction holds until the end of the tick")
	require.False(t, w.Entities().Alive(doomed))
}

type tallyComponent struct{ N int }

func TestScheduler_ParallelDeclaredAccess(t *testing.T) {
	s := newScheduler(t)
	w := newWorld()
	tallies := component.For[tallyComponent](w.Entities())
	id := w.Entities().Create()
	tallies.Insert(id, tallyComponent{})

	var reads atomic.Int32
	reader := func(name string) system.System {
		return system.WithAccess(
			system.NewFunc(name, 0, func(sw system.World, _ float64) error {
				if _, ok := tallies.Get(id); ok {
					reads.Add(1)
				}
				return nil
			}),
			[]reflect.Type{component.TypeOf[tallyComponent]()},
			nil,
		)
	}
	require.NoError(t, s.Register(reader("reader-a")))
	require.NoError(t, s.Register(reader("reader-b")))
	writer := system.WithAccess(
		system.NewFunc("writer", 0, func(sw system.World, _ float64) error {
			v, _ := tallies.GetMut(id)
			v.N++
			return nil
		}),
		nil,
		[]reflect.Type{component.TypeOf[tallyComponent]()},
	)
	require.NoError(t, s.Register(writer))

	require.NoError(t, s.Start(w))
	require.NoError(t, s.Tick(w, 0.016))

	require.Equal(t, int32(2), reads.Load())
	v, _ := tallies.Get(id)
	require.Equal(t, 1, v.N)
}

func TestScheduler_SequentialMode(t *testing.T) {
	s := newScheduler(t, func(c *system.Config) { c.Parallel = false })
	a := newCounting("a")
	b := newCounting("b")
	require.NoError(t, s.Register(a))
	require.NoError(t, s.Register(b))

	w := newWorld()
	require.NoError(t, s.Start(w))
	require.NoError(t, s.Tick(w, 0.016))
	require.Equal(t, 1, a.runs)
	require.Equal(t, 1, b.runs)
}

func TestScheduler_Unregister(t *testing.T) {
	s := newScheduler(t)
	var journal []string
	require.NoError(t, s.Register(&lifecycle{Base: system.NewBase("mover", 0), journal: &journal}))

	w := newWorld()
	require.NoError(t, s.Start(w))
	require.True(t, s.Has("mover"))

	require.NoError(t, s.Unregister(w, "mover"))
	require.False(t, s.Has("mover"))
	require.Contains(t, journal, "stop:mover")

	require.Error(t, s.Unregister(w, "mover"))
}

func TestScheduler_RegisterAfterStart(t *testing.T) {
	s := newScheduler(t)
	early := newCounting("early")
	require.NoError(t, s.Register(early))

	w := newWorld()
	require.NoError(t, s.Start(w))
	require.NoError(t, s.Tick(w, 0.016))

	late := newCounting("late")
	require.NoError(t, s.Register(late))
	require.NoError(t, s.Tick(w, 0.016))
	require.Equal(t, 2, early.runs)
	require.Equal(t, 1, late.runs)
}

func TestScheduler_ShutdownReverseOrder(t *testing.T) {
	s := newScheduler(t)
	var journal []string
	require.NoError(t, s.Register(&lifecycle{Base: system.NewBase("render", 0, "physics"), journal: &journal}))
	require.NoError(t, s.Register(&lifecycle{Base: system.NewBase("physics", 0), journal: &journal}))

	w := newWorld()
	require.NoError(t, s.Start(w))
	journal = journal[:0]

	s.Shutdown(w)
	require.Equal(t, []string{"stop:render", "stop:physics"}, journal)
	require.ErrorIs(t, s.Tick(w, 0.016), system.ErrNotStarted)
}
