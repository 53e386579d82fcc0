package gpgpu

import (
	"errors"
	"fmt"

	"github.com/gekko3d/gpgpu/particlert/rt/gpu"
	"github.com/gekko3d/gpgpu/particlert/rt/sim"
)

const unsupportedNotice = "float texture not supported"

// ParticleRenderer drives the particle pipeline from the app loop.
type ParticleRenderer struct {
	Pipeline *sim.Pipeline
	Frame    sim.FrameState
	// Err holds the capability failure that moved the app to StateUnsupported.
	Err error

	side            int
	uploaded        bool
	uploadedVersion uint
}

type ParticlesModule struct {
	Side  int
	Decay float32
}

func (m ParticlesModule) Install(app *App, cmd *Commands) {
	side := m.Side
	if side == 0 {
		side = DefaultConfig().Simulation.Side
	}
	cmd.AddResources(&ParticleRenderer{
		Frame: sim.NewFrameState(m.Decay),
		side:  side,
	})

	app.UseSystem(
		System(particleStartupSystem).
			InStage(Render).
			InState(OnEnter(StateStartup)),
	)
	app.UseSystem(
		System(particleFrameSystem).
			InStage(Render).
			InState(OnExecute(StateRunning)),
	)
	app.UseSystem(
		System(particleBackgroundOnlySystem).
			InStage(Render).
			InState(OnExecute(StateUnsupported)),
	)
	app.UseSystem(
		System(particleReleaseSystem).
			InStage(Render).
			InState(OnEnter(StateExit)),
	)
	if _, ok := Resource[WindowState](app); ok {
		app.UseSystem(
			System(unsupportedTitleSystem).
				InStage(PostRender).
				InState(OnEnter(StateUnsupported)),
		)
	}
}

func particleStartupSystem(r *ParticleRenderer, g *Graphics, bg *Background, cmd *Commands) {
	log := cmd.Logger()
	p, err := sim.NewPipeline(g.Device, r.side, log)
	if err != nil {
		log.Errorf("particles: %v", err)
		panic(fmt.Errorf("particle pipeline: %w", err))
	}
	p.SetCanvas(g.Width, g.Height)
	r.Pipeline = p

	if err := p.Allocate(); err != nil {
		if !errors.Is(err, gpu.ErrCapabilityMissing) {
			panic(fmt.Errorf("particle pipeline: %w", err))
		}
		log.Errorf("particles: %v", err)
		r.Err = err
		bg.Notice = unsupportedNotice
		cmd.ChangeState(StateUnsupported)
		return
	}
	if err := p.Seed(); err != nil {
		panic(fmt.Errorf("seed particles: %w", err))
	}
	log.Infof("particles: %d particles, %s state", p.Layout().Count(), p.Format())
	cmd.ChangeState(StateRunning)
}

func (r *ParticleRenderer) syncBackground(assets *AssetServer, bg *Background) {
	tex, ok := assets.Texture(bg.Texture)
	if !ok {
		return
	}
	if r.uploaded && tex.Version == r.uploadedVersion {
		return
	}
	r.Pipeline.UploadBackground(tex.Image)
	r.uploaded = true
	r.uploadedVersion = tex.Version
}

func particleFrameSystem(r *ParticleRenderer, input *Input, assets *AssetServer, bg *Background, prof *Profiler, cmd *Commands) {
	r.Frame.Pointer = input.Pointer
	r.Frame.Engaged = input.Engaged

	prof.BeginScope("upload")
	r.syncBackground(assets, bg)
	prof.EndScope("upload")

	prof.BeginScope("passes")
	err := r.Pipeline.Frame(&r.Frame)
	prof.EndScope("passes")
	if err != nil {
		cmd.Logger().Errorf("particles: frame %d: %v", r.Frame.Frame, err)
	}

	prof.SetCount("particles", r.Pipeline.Layout().Count())
	prof.SetCount("frame", int(r.Frame.Frame))
}

func particleBackgroundOnlySystem(r *ParticleRenderer, assets *AssetServer, bg *Background, cmd *Commands) {
	r.syncBackground(assets, bg)
	if err := r.Pipeline.DrawBackground(); err != nil {
		cmd.Logger().Errorf("particles: background: %v", err)
	}
	r.Pipeline.Node().Device().Flush()
}

func particleReleaseSystem(r *ParticleRenderer) {
	if r.Pipeline != nil {
		r.Pipeline.Release()
		r.Pipeline = nil
	}
}

func unsupportedTitleSystem(ws *WindowState) {
	ws.SetTitle(ws.Title() + ": " + unsupportedNotice)
}
