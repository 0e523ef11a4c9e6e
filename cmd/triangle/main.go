package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/cgame/renderer/platform"
	"github.com/cgame/renderer/render"
)

// idleDelay is how long to sleep, in milliseconds, while there is nothing to draw.
const idleDelay = 10

type options struct {
	validation bool
	frames     int
	vertPath   string
	fragPath   string
	width      int
	height     int
	debug      bool
}

func parseOptions(args []string) (options, error) {
	defaults := render.DefaultConfig()

	var opts options
	fs := flag.NewFlagSet("triangle", flag.ContinueOnError)
	fs.BoolVar(&opts.validation, "validation", false, "enable the Khronos validation layer")
	fs.IntVar(&opts.frames, "frames", defaults.FramesInFlight, "frames in flight")
	fs.StringVar(&opts.vertPath, "vert", defaults.VertexShaderPath, "compiled vertex shader")
	fs.StringVar(&opts.fragPath, "frag", defaults.FragmentShaderPath, "compiled fragment shader")
	fs.IntVar(&opts.width, "width", 800, "initial window width")
	fs.IntVar(&opts.height, "height", 600, "initial window height")
	fs.BoolVar(&opts.debug, "debug", false, "log at debug level")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.width <= 0 || opts.height <= 0 {
		return opts, errors.Newf("window size must be positive, got %dx%d", opts.width, opts.height)
	}
	return opts, nil
}

func (o options) config(logger *slog.Logger) render.RenderConfig {
	cfg := render.DefaultConfig()
	cfg.EnableValidation = o.validation
	cfg.FramesInFlight = o.frames
	cfg.VertexShaderPath = o.vertPath
	cfg.FragmentShaderPath = o.fragPath
	cfg.Logger = logger
	return cfg
}

func (o options) logger() *slog.Logger {
	level := slog.LevelInfo
	if o.debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	// SDL and the presentation engine must be driven from the main thread.
	runtime.LockOSThread()

	opts, err := parseOptions(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	} else if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := opts.logger()
	if err := run(opts, logger); err != nil {
		logger.Error("triangle failed", "error", fmt.Sprintf("%+v", err))
		os.Exit(1)
	}
}

func run(opts options, logger *slog.Logger) (err error) {
	window, err := platform.OpenWindow("Vulkan", opts.width, opts.height)
	if err != nil {
		return err
	}
	defer window.Close()

	loader, err := window.NewLoader()
	if err != nil {
		return err
	}

	state, err := render.Init(loader, window, opts.config(logger))
	if err != nil {
		return errors.Wrap(err, "init renderer")
	}
	defer func() {
		err = errors.CombineErrors(err, state.Shutdown())
	}()

	return mainLoop(state, window, platform.NewClock(), logger)
}

func mainLoop(state *render.RenderState, window *platform.Window, clock *platform.Clock, logger *slog.Logger) error {
	rendering := true

appLoop:
	for {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				break appLoop
			case *sdl.WindowEvent:
				switch e.Event {
				case sdl.WINDOWEVENT_MINIMIZED:
					rendering = false
				case sdl.WINDOWEVENT_RESTORED:
					rendering = true
				case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
					rendering = !window.Minimized()
					state.NotifyResized()
				}
			}
		}

		if !rendering {
			sdl.Delay(idleDelay)
			continue
		}

		status, err := state.Draw(clock)
		if err != nil {
			return err
		}
		if status == render.StatusSkipped {
			sdl.Delay(idleDelay)
		}
	}

	stats := state.Stats()
	logger.Info("main loop finished", "drawn", stats.Drawn, "dropped", stats.Dropped, "recreations", stats.Recreations)
	return nil
}
