package gpgpu

import (
	"fmt"
	"sort"
	"time"
)

// Profiler keeps the CPU time of named scopes for the current frame and a few counters.
type Profiler struct {
	Scopes     map[string]time.Duration
	StartTimes map[string]time.Time
	Counts     map[string]int
	Order      []string

	now func() time.Time
}

func NewProfiler() *Profiler {
	return &Profiler{
		Scopes:     make(map[string]time.Duration),
		StartTimes: make(map[string]time.Time),
		Counts:     make(map[string]int),
		now:        time.Now,
	}
}

func (p *Profiler) BeginScope(name string) {
	p.StartTimes[name] = p.now()
	if _, seen := p.Scopes[name]; !seen {
		p.Order = append(p.Order, name)
		p.Scopes[name] = 0
	}
}

func (p *Profiler) EndScope(name string) {
	if start, ok := p.StartTimes[name]; ok {
		p.Scopes[name] = p.now().Sub(start)
		delete(p.StartTimes, name)
	}
}

func (p *Profiler) SetCount(name string, count int) {
	p.Counts[name] = count
}

// Reset zeroes the timings; scope order and counters are kept.
func (p *Profiler) Reset() {
	for k := range p.Scopes {
		p.Scopes[k] = 0
	}
}

// StatsLines renders timings in first-use order, then counters sorted by name.
func (p *Profiler) StatsLines() []string {
	lines := make([]string, 0, len(p.Order)+len(p.Counts)+2)
	lines = append(lines, "Timings (CPU):")
	for _, name := range p.Order {
		ms := float64(p.Scopes[name].Microseconds()) / 1000.0
		lines = append(lines, fmt.Sprintf("  %-12s %.2f ms", name, ms))
	}

	keys := make([]string, 0, len(p.Counts))
	for k := range p.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		lines = append(lines, "Stats:")
	}
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("  %-12s %d", k, p.Counts[k]))
	}
	return lines
}

type ProfilerModule struct{}

func (ProfilerModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(NewProfiler())
	app.UseSystem(
		System(profilerResetSystem).
			InStage(Prelude).
			RunAlways(),
	)
}

func profilerResetSystem(p *Profiler) {
	p.Reset()
}
