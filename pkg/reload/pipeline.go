package reload

import (
	"context"
	"log"

	"github.com/wavecraft-dev/wavecraft/pkg/dsp"
	"github.com/wavecraft-dev/wavecraft/pkg/dsp/parambridge"
)

// Broadcaster notifies connected clients that parameters changed.
// Implemented by the WebSocket hub; kept as a narrow interface here so
// this package doesn't import pkg/wsrpc.
type Broadcaster interface {
	BroadcastParametersChanged() error
}

// Pipeline wires the watcher, build guard, build step, loader, and
// parameter swap into the file-watch → rebuild → parameter-rediscovery
// → broadcast loop described for C5.
type Pipeline struct {
	EngineDir    string
	BuildCommand string
	BuildArgs    []string

	Guard       *BuildGuard
	Holder      *parambridge.Holder
	SpecsHolder *parambridge.SpecsHolder
	Loader      ParamLoader
	Broadcaster Broadcaster

	generation uint64

	OnFailure func(*Failure)

	// OnReloaded fires after a fully successful build+load+swap+
	// broadcast cycle, with the generation counter for this cycle.
	// main.go uses it to swap the devserver's active processor and to
	// retire the previous plugin library once the new one is live.
	OnReloaded func(generation uint64)
}

// Run blocks, watching EngineDir and driving rebuild cycles, until ctx
// is cancelled or shutdown is closed. Every failure is reported via
// OnFailure (if set) rather than returned; none of them terminate the
// loop.
func (p *Pipeline) Run(ctx context.Context, shutdown <-chan struct{}) error {
	watcher, err := NewWatcher(p.EngineDir)
	if err != nil {
		return err
	}
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-shutdown:
			return nil
		case err := <-watcher.Errors:
			log.Printf("reload: watcher error: %v", err)
		case <-watcher.Changes:
			p.handleChange(ctx, shutdown)
		}
	}
}

// handleChange runs one build+reload cycle, then loops again if the
// guard reports a pending build. Run reads no watcher signal while a
// cycle runs; file events that arrive meanwhile coalesce into the
// watcher's one-slot Changes channel and start the next cycle once
// this call returns.
func (p *Pipeline) handleChange(ctx context.Context, shutdown <-chan struct{}) {
	if !p.Guard.TryStart() {
		return
	}
	for {
		p.runCycle(ctx, shutdown)
		if !p.Guard.Complete() {
			return
		}
		if !p.Guard.TryStart() {
			return
		}
	}
}

// runCycle executes exactly one build → load → swap → broadcast
// cycle, reporting whatever failure occurs along the way.
func (p *Pipeline) runCycle(ctx context.Context, shutdown <-chan struct{}) {
	p.generation++

	result, failure := RunBuild(ctx, p.BuildCommand, p.BuildArgs, p.EngineDir, shutdown)
	if failure != nil {
		p.report(failure)
		return
	}
	_ = result

	specs, failure := LoadParams(ctx, p.Loader, shutdown)
	if failure != nil {
		p.report(failure)
		return
	}

	if failure := Swap(p.Holder, p.SpecsHolder, specs); failure != nil {
		p.report(failure)
		return
	}

	if p.Broadcaster != nil {
		if err := p.Broadcaster.BroadcastParametersChanged(); err != nil {
			p.report(&Failure{Kind: BroadcastFailed, Reason: err.Error()})
			return
		}
	}

	if p.OnReloaded != nil {
		p.OnReloaded(p.generation)
	}
}

func (p *Pipeline) report(f *Failure) {
	if p.OnFailure != nil {
		p.OnFailure(f)
		return
	}
	log.Printf("reload: %v", f)
}
