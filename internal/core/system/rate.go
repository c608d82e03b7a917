package system

import "errors"

// RateLimited wraps a system so its inner Update runs only once the
// accumulated elapsed time reaches the configured interval. The remainder
// is kept for the next tick rather than reset, so the effective rate does
// not drift over long runs.
type RateLimited struct {
	System
	interval float64
	acc      float64
}

// RateControlled caps a system at updatesPerSecond. Identity, activation
// and lifecycle calls pass through to the inner system.
func RateControlled(inner System, updatesPerSecond float64) *RateLimited {
	return &RateLimited{
		System:   inner,
		interval: 1.0 / updatesPerSecond,
	}
}

// SetRate changes the cap. The accumulated remainder is preserved.
func (r *RateLimited) SetRate(updatesPerSecond float64) {
	r.interval = 1.0 / updatesPerSecond
}

func (r *RateLimited) Update(w World, dt float64) error {
	r.acc += dt
	var all error
	for r.acc >= r.interval {
		if err := r.System.Update(w, r.interval); err != nil {
			all = errors.Join(all, err)
		}
		r.acc -= r.interval
	}
	return all
}
