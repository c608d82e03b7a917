package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"reflect"
	"syscall"
	"time"

	"github.com/tickforge/tickforge/internal/core/component"
	"github.com/tickforge/tickforge/internal/core/entity"
	"github.com/tickforge/tickforge/internal/core/events/bus"
	"github.com/tickforge/tickforge/internal/core/observability/log"
	"github.com/tickforge/tickforge/internal/core/resource"
	"github.com/tickforge/tickforge/internal/core/resources"
	"github.com/tickforge/tickforge/internal/core/system"
	"github.com/tickforge/tickforge/internal/core/world"
)

type Position struct{ X, Y float64 }
type Velocity struct{ X, Y float64 }

type Spawned struct{ ID entity.ID }

func main() {
	cfgPath := flag.String("config", "", "path to scheduler yaml config")
	flag.Parse()

	logger := log.New(log.LevelInfo)

	cfg := system.DefaultConfig()
	if *cfgPath != "" {
		f, err := os.Open(*cfgPath)
		if err != nil {
			fmt.Println("Error opening config:", err)
			os.Exit(1)
		}
		cfg, err = system.LoadConfig(f)
		_ = f.Close()
		if err != nil {
			fmt.Println("Error loading config:", err)
			os.Exit(1)
		}
	}

	w := world.New(world.WithLogger(logger))
	sched, err := system.NewScheduler(cfg, logger)
	if err != nil {
		fmt.Println("Error creating scheduler:", err)
		os.Exit(1)
	}

	if err := registerSystems(sched, w); err != nil {
		fmt.Println("Error registering systems:", err)
		os.Exit(1)
	}
	if err := sched.Start(w); err != nil {
		fmt.Println("Error starting scheduler:", err)
		os.Exit(1)
	}
	if st, ok := resource.Get[resources.SimState](w.Resources()); ok {
		st.Start()
	}

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()
	last := time.Now()

loop:
	for {
		select {
		case <-stopCh:
			break loop
		case now := <-ticker.C:
			if err := sched.Tick(w, now.Sub(last).Seconds()); err != nil {
				fmt.Println("Error ticking:", err)
				break loop
			}
			last = now
		}
	}

	sched.Shutdown(w)
}

func registerSystems(sched *system.Scheduler, w *world.World) error {
	positions := component.For[Position](w.Entities())
	velocities := component.For[Velocity](w.Entities())

	spawner := system.NewFunc("spawner", 0, func(sw system.World, dt float64) error {
		if sw.Entities().Count() >= 100 {
			return nil
		}
		id := sw.Entities().Create()
		positions.Insert(id, Position{})
		velocities.Insert(id, Velocity{X: rand.Float64()*2 - 1, Y: rand.Float64()*2 - 1})
		bus.Publish(sw.Events(), Spawned{ID: id})
		return nil
	})

	movement := system.WithAccess(
		system.NewFunc("movement", 0, func(sw system.World, dt float64) error {
			positions.Each(func(id entity.ID, p *Position) bool {
				if v, ok := velocities.Get(id); ok {
					p.X += v.X * dt
					p.Y += v.Y * dt
				}
				return true
			})
			return nil
		}),
		[]reflect.Type{component.TypeOf[Velocity]()},
		[]reflect.Type{component.TypeOf[Position]()},
	)

	report := system.RateControlled(
		system.NewFunc("report", 0, func(sw system.World, dt float64) error {
			t, _ := resource.Get[resources.Time](sw.Resources())
			sw.Log().Info("world state",
				log.Int("entities", sw.Entities().Count()),
				log.Float64("fps", t.FPS),
				log.Uint64("frames", t.Frames))
			return nil
		}),
		1.0,
	)

	pump := system.NewEventPump(100)

	bus.Subscribe(w.Events(), func(ev Spawned) error {
		w.Log().Debug("entity spawned", log.String("id", ev.ID.String()))
		return nil
	})

	if err := sched.RegisterIn(spawner, system.GroupFixed); err != nil {
		return err
	}
	if err := sched.Register(movement); err != nil {
		return err
	}
	if err := sched.RegisterIn(report, system.GroupRender); err != nil {
		return err
	}
	return sched.Register(pump)
}
