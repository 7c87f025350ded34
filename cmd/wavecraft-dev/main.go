// Command wavecraft-dev is the development runtime: it watches a
// plugin engine's source tree, rebuilds it on change, hot-swaps the
// freshly built processor into a live full-duplex audio stream, and
// serves a WebSocket JSON-RPC surface a browser UI can drive.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/gordonklaus/portaudio"
	"github.com/spf13/pflag"

	"github.com/wavecraft-dev/wavecraft/internal/api"
	"github.com/wavecraft-dev/wavecraft/internal/config"
	"github.com/wavecraft-dev/wavecraft/internal/logging"
	"github.com/wavecraft-dev/wavecraft/pkg/devserver"
	"github.com/wavecraft-dev/wavecraft/pkg/dsp"
	"github.com/wavecraft-dev/wavecraft/pkg/dsp/parambridge"
	"github.com/wavecraft-dev/wavecraft/pkg/ffi"
	"github.com/wavecraft-dev/wavecraft/pkg/reload"
	"github.com/wavecraft-dev/wavecraft/pkg/wsrpc"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "dev":
		runDev(os.Args[2:])
	case "doctor":
		runDoctor(os.Args[2:])
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "wavecraft-dev: unknown subcommand %q\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: wavecraft-dev <dev|doctor> [flags]")
}

func bindConfigFlags(fs *pflag.FlagSet, cfg *config.Config) {
	fs.StringVarP(&cfg.EngineDir, "engine-dir", "e", cfg.EngineDir, "plugin engine source tree to watch and rebuild")
	fs.StringVarP(&cfg.BuildCommand, "build-command", "b", cfg.BuildCommand, "toolchain invocation run on every rebuild")
	fs.StringSliceVarP(&cfg.BuildArgs, "build-arg", "a", cfg.BuildArgs, "argument passed to build-command (repeatable)")
	fs.IntVarP(&cfg.BufferSize, "buffer-size", "n", cfg.BufferSize, "requested audio callback frame count")
	fs.StringVarP(&cfg.HTTPAddr, "listen", "l", cfg.HTTPAddr, "HTTP/WebSocket listen address")
	fs.StringVarP(&cfg.PluginLibraryPath, "plugin", "p", cfg.PluginLibraryPath, "path the build step writes the plugin shared library to")
	fs.StringVarP(&cfg.LogLevel, "log-level", "v", cfg.LogLevel, "debug|info|warn|error")
}

// runDev wires C1-C5 together and blocks until interrupted.
func runDev(args []string) {
	cfg := config.Default()
	fs := pflag.NewFlagSet("dev", pflag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: wavecraft-dev dev [flags]")
		fs.PrintDefaults()
	}
	bindConfigFlags(fs, &cfg)
	fs.Parse(args)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "wavecraft-dev: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	root := logging.New(cfg.LogLevel)
	log := logging.For(root, "main")

	bridge := parambridge.NewHolder(parambridge.NewBridge(parambridge.NewLayout(nil), nil))
	specsHolder := parambridge.NewSpecsHolder(nil)

	srv := devserver.NewServer(devserver.Config{BufferSize: cfg.BufferSize}, dsp.NewPassthrough(), bridge)
	handle, meters, scopes, err := devserver.Start(srv)
	if err != nil {
		log.Error("failed to start audio", "err", err)
		os.Exit(1)
	}
	defer handle.Close()

	// hub's handler needs the router, and the router wants the hub for
	// broadcast fanout; closing over a pointer set immediately after
	// NewHub breaks the cycle without exposing a hub field setter.
	var router *api.Router
	hub := wsrpc.NewHub(func(client *wsrpc.Client, req wsrpc.Request) []byte {
		return router.Handle(client, req)
	})
	router = &api.Router{Bridge: bridge, Specs: specsHolder, Meters: meters, Hub: hub}

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	httpServer := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.For(root, "http").Error("server exited", "err", err)
		}
	}()
	log.Info("listening", "addr", cfg.HTTPAddr)

	ctx, cancel := context.WithCancel(context.Background())
	shutdown := make(chan struct{})
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Info("shutting down")
		close(shutdown)
		cancel()
	}()

	go drainMeters(ctx, hub, meters)
	go drainScope(ctx, scopes)

	engine := &engineState{log: logging.For(root, "reload")}
	pipeline := &reload.Pipeline{
		EngineDir:    cfg.EngineDir,
		BuildCommand: cfg.BuildCommand,
		BuildArgs:    cfg.BuildArgs,
		Guard:        &reload.BuildGuard{},
		Holder:       bridge,
		SpecsHolder:  specsHolder,
		Loader:       engine.load(cfg.PluginLibraryPath),
		Broadcaster:  hub,
		OnFailure: func(f *reload.Failure) {
			engine.log.Warn("reload failed", "kind", f.Kind.String(), "detail", f.Error())
		},
		OnReloaded: func(generation uint64) {
			engine.promote(srv)
			engine.log.Info("reload complete", "generation", generation)
		},
	}

	if err := pipeline.Run(ctx, shutdown); err != nil {
		log.Error("reload pipeline exited", "err", err)
	}
	httpServer.Close()
}

// drainMeters polls the meter ring on a ~16ms tick and sends only the
// newest buffered frame as a meterUpdate notification; frames are
// produced at roughly 40Hz, so most ticks send at most one.
func drainMeters(ctx context.Context, hub *wsrpc.Hub, meters *devserver.MeterConsumer) {
	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if frame, ok := meters.DrainLatest(); ok {
				api.BroadcastMeterFrame(hub, frame, time.Now())
			}
		}
	}
}

// drainScope keeps the oscilloscope ring from filling while nothing
// consumes it over the wire; this protocol surface has no WebSocket
// delivery method of its own (a desktop UI is expected to poll the
// consumer in-process instead), so frames are simply discarded here.
func drainScope(ctx context.Context, scopes *devserver.ScopeConsumer) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				if _, ok := scopes.Next(); !ok {
					break
				}
			}
		}
	}
}

// engineState tracks the currently loaded plugin library/instance so
// the old one can be retired only after the new one is live, per the
// library-outlives-every-instance lifetime rule.
type engineState struct {
	log *charmlog.Logger

	pendingLib *ffi.Library
	pendingAd  *ffi.Adapter

	liveLib *ffi.Library
}

// load returns a reload.ParamLoader that opens the freshly built
// plugin, discovers its parameter specs, and stashes a ready adapter
// for promote to install. It never closes the previous library itself
// -- that happens in promote, after the swap has had a chance to take
// effect.
func (e *engineState) load(pluginPath string) reload.ParamLoader {
	return func(ctx context.Context) ([]dsp.ParamSpec, error) {
		lib, err := ffi.Load(pluginPath)
		if err != nil {
			return nil, err
		}
		specs, err := lib.ParamSpecs()
		if err != nil {
			lib.Close()
			return nil, err
		}
		inst, err := lib.NewInstance()
		if err != nil {
			lib.Close()
			return nil, err
		}
		e.pendingLib = lib
		e.pendingAd = ffi.NewAdapter(inst, specs)
		return specs, nil
	}
}

// promote installs the pending adapter as the server's active
// processor and retires the previous library after a brief settle
// window, long enough for the audio callback thread to have observed
// the swap at least once.
func (e *engineState) promote(srv *devserver.Server) {
	if e.pendingAd == nil {
		return
	}
	srv.SwapProcessor(e.pendingAd)

	previous := e.liveLib
	e.liveLib = e.pendingLib
	e.pendingLib, e.pendingAd = nil, nil

	if previous == nil {
		return
	}
	go func() {
		time.Sleep(100 * time.Millisecond)
		if err := previous.Close(); err != nil {
			e.log.Warn("failed to close retired plugin library", "err", err)
		}
	}()
}

// runDoctor checks that a dev configuration is actually runnable
// before the caller wires up a full session: the engine directory
// exists, the build command resolves on PATH, and a default input and
// output audio device are both present.
func runDoctor(args []string) {
	cfg := config.Default()
	fs := pflag.NewFlagSet("doctor", pflag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: wavecraft-dev doctor [flags]")
		fs.PrintDefaults()
	}
	bindConfigFlags(fs, &cfg)
	fs.Parse(args)

	ok := true
	check := func(label string, err error) {
		if err != nil {
			fmt.Printf("[FAIL] %-28s %v\n", label, err)
			ok = false
			return
		}
		fmt.Printf("[ OK ] %s\n", label)
	}

	check("configuration", cfg.Validate())

	if _, err := os.Stat(cfg.EngineDir); err != nil {
		check("engine directory", err)
	} else {
		check("engine directory", nil)
	}

	if _, err := exec.LookPath(cfg.BuildCommand); err != nil {
		check("build command on PATH", err)
	} else {
		check("build command on PATH", nil)
	}

	if err := portaudio.Initialize(); err != nil {
		check("portaudio init", err)
	} else {
		defer portaudio.Terminate()
		check("portaudio init", nil)

		if dev, err := portaudio.DefaultInputDevice(); err != nil || dev == nil {
			check("default input device", fmt.Errorf("none available"))
		} else {
			check("default input device", nil)
		}
		if dev, err := portaudio.DefaultOutputDevice(); err != nil || dev == nil {
			check("default output device", fmt.Errorf("none available"))
		} else {
			check("default output device", nil)
		}
	}

	if !ok {
		os.Exit(1)
	}
}
