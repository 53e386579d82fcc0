package gpgpu

import (
	"time"
)

type Time struct {
	Time  time.Time
	Dt    time.Duration
	Frame uint64
	// FPS is the instantaneous frame rate of the last frame.
	FPS float64
}

type TimeModule struct {
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Time{
		Time: time.Now(),
	})
	app.UseSystem(
		System(timeSystem).
			InStage(Prelude).
			RunAlways(),
	)
}

func timeSystem(timeResource *Time) {
	timeResource.Advance(time.Now())
}

func (t *Time) Advance(now time.Time) {
	t.Dt = now.Sub(t.Time)
	t.Time = now
	t.Frame++
	if t.Dt > 0 {
		t.FPS = 1 / t.Dt.Seconds()
	}
}
