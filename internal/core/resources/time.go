// Package resources defines the built-in resource types the runtime itself
// maintains. Hosts add their own types next to these through the registry.
package resources

// fpsWindow is the number of frame samples the FPS estimate averages over.
const fpsWindow = 60

// Time tracks per-frame timing for the whole world: the scaled delta of
// the current frame, total simulated time, frame count and a smoothed FPS
// estimate. The scheduler begins a frame on it once per tick; systems read
// it through the registry.
type Time struct {
	Delta  float64
	Total  float64
	Frames uint64
	FPS    float64

	Scale  float64
	Paused bool

	samples [fpsWindow]float64
	head    int
	filled  int
}

func NewTime() *Time {
	return &Time{Scale: 1.0}
}

// BeginFrame advances the clock by the host-reported elapsed seconds and
// returns the scaled delta systems should observe. While paused the delta
// is zero and total time holds still, but frames keep counting.
func (t *Time) BeginFrame(elapsed float64) float64 {
	if elapsed < 0 {
		elapsed = 0
	}
	if t.Paused {
		t.Delta = 0
	} else {
		t.Delta = elapsed * t.Scale
		t.Total += t.Delta
	}
	t.Frames++

	t.samples[t.head] = elapsed
	t.head = (t.head + 1) % fpsWindow
	if t.filled < fpsWindow {
		t.filled++
	}
	var sum float64
	for i := 0; i < t.filled; i++ {
		sum += t.samples[i]
	}
	if sum > 0 {
		t.FPS = float64(t.filled) / sum
	}
	return t.Delta
}

// SetScale sets the time scale, clamped to [0.1, 10].
func (t *Time) SetScale(scale float64) {
	if scale < 0.1 {
		scale = 0.1
	}
	if scale > 10 {
		scale = 10
	}
	t.Scale = scale
}

// SetPaused pauses or resumes the simulated clock.
func (t *Time) SetPaused(paused bool) {
	t.Paused = paused
}

// EverySeconds reports true once per interval of total time, which makes
// it convenient for periodic work inside a variable-rate system.
func (t *Time) EverySeconds(interval float64) bool {
	if interval <= 0 || t.Delta <= 0 {
		return false
	}
	modTime := t.Total - float64(int(t.Total/interval))*interval
	return modTime < t.Delta
}
