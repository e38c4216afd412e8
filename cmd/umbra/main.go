// umbra - Terminal Stencil Shadow Viewer
// Renders a scene with stencil shadow volumes in your terminal.
//
// Controls:
//
//	Mouse drag  - Orbit camera
//	Scroll      - Zoom in/out
//	A/D         - Swing light around the scene
//	W/S         - Raise/lower light
//	P           - Toggle point/directional light
//	M           - Cycle shadow mode
//	Z           - Toggle z-pass/z-fail
//	O           - Cycle stencil implementation
//	Space       - Pause/resume animation
//	G           - Toggle ground grid
//	?           - Toggle HUD overlay
//	Esc         - Quit
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/taigrr/umbra/pkg/render"
	"github.com/taigrr/umbra/pkg/scene"
	"github.com/taigrr/umbra/pkg/shadow"
)

var (
	modeFlag     = flag.String("mode", "cpu-silhouette", "Shadow mode: cpu-silhouette, cpu-per-triangle, gpu-per-triangle, gpu-silhouette, cpu-find-gpu-extrude, debug-silhouette")
	methodFlag   = flag.String("method", "zfail", "Stencil method: zpass or zfail")
	stencilFlag  = flag.String("stencil", "auto", "Stencil implementation: auto, one-sided, two-sided")
	updateFlag   = flag.String("update", "each-frame", "Geometry updates: each-frame or manual")
	castFlag     = flag.String("cast", "auto", "Shadow casting face: auto, front, back, front-and-back")
	orderFlag    = flag.String("order", "auto", "Front face ordering: auto, ccw, cw")
	ambientFlag  = flag.Float64("ambient", 0.3, "Ambient light level")
	noAmbient    = flag.Bool("no-ambient-pass", false, "Skip the ambient pass (depth only)")
	noClear      = flag.Bool("no-clear", false, "Do not clear the stencil buffer each frame")
	castBlended  = flag.Bool("cast-transparent", false, "Let blended geometry cast shadows")
	targetFPS    = flag.Int("fps", 30, "Target FPS")
	bgColor      = flag.String("bg", "30,30,40", "Background color (R,G,B)")
	snapshotPath = flag.String("snapshot", "", "Render one frame to this image file (.png, .bmp, .tiff) and exit")
	snapshotSize = flag.String("size", "320x240", "Snapshot size (WxH)")
	logPath      = flag.String("log", "", "Write debug logs to this file")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "umbra - Terminal Stencil Shadow Viewer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: umbra [options] [model.glb|model.gltf]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  Mouse drag  - Orbit camera\n")
		fmt.Fprintf(os.Stderr, "  Scroll      - Zoom in/out\n")
		fmt.Fprintf(os.Stderr, "  A/D W/S     - Move light\n")
		fmt.Fprintf(os.Stderr, "  P           - Point/directional light\n")
		fmt.Fprintf(os.Stderr, "  M/Z/O       - Mode, method, stencil implementation\n")
		fmt.Fprintf(os.Stderr, "  Space       - Pause animation\n")
		fmt.Fprintf(os.Stderr, "  G           - Toggle grid\n")
		fmt.Fprintf(os.Stderr, "  ?           - Toggle HUD overlay\n")
		fmt.Fprintf(os.Stderr, "  Esc         - Quit\n")
	}
	flag.Parse()

	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// configFromFlags builds the shadow configuration from the command line.
func configFromFlags() (shadow.Config, error) {
	cfg := shadow.DefaultConfig()
	var err error
	if cfg.Mode, err = shadow.ParseMode(*modeFlag); err != nil {
		return cfg, err
	}
	if cfg.Method, err = shadow.ParseMethod(*methodFlag); err != nil {
		return cfg, err
	}
	if cfg.StencilImplementation, err = shadow.ParseStencilImplementation(*stencilFlag); err != nil {
		return cfg, err
	}
	if cfg.UpdateStrategy, err = shadow.ParseUpdateStrategy(*updateFlag); err != nil {
		return cfg, err
	}
	if cfg.ShadowCastingFace, err = shadow.ParseCastFace(*castFlag); err != nil {
		return cfg, err
	}
	if cfg.FaceOrdering, err = shadow.ParseFaceOrdering(*orderFlag); err != nil {
		return cfg, err
	}
	cfg.Ambient = *ambientFlag
	cfg.AmbientPass = !*noAmbient
	cfg.ClearStencil = !*noClear
	cfg.SkipTransparent = !*castBlended
	return cfg, nil
}

func setupLogging() (io.Closer, error) {
	if *logPath == "" {
		return nil, nil
	}
	f, err := os.Create(*logPath)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	shadow.SetLogger(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return f, nil
}

func run(modelPath string) error {
	cfg, err := configFromFlags()
	if err != nil {
		return err
	}
	bg, err := parseColor(*bgColor)
	if err != nil {
		return err
	}

	closer, err := setupLogging()
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	d := newDemo()
	root, title := d.root, "demo scene"
	if modelPath != "" {
		if root, err = modelScene(modelPath); err != nil {
			return fmt.Errorf("load model: %w", err)
		}
		d, title = nil, filepath.Base(modelPath)
	}

	if *snapshotPath != "" {
		w, h, err := parseSize(*snapshotSize)
		if err != nil {
			return err
		}
		v := newViewer(cfg, root, w, h, bg)
		v.frame()
		if err := v.rasterizer.Framebuffer().Save(*snapshotPath); err != nil {
			return err
		}
		fmt.Printf("Saved %s (%dx%d, %s)\n", *snapshotPath, w, h, cfg.Mode)
		return nil
	}

	return interactive(cfg, root, d, title, bg)
}

func interactive(cfg shadow.Config, root *scene.Node, d *demo, title string, bg render.Color) error {
	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	// Enable mouse mode
	fmt.Fprint(os.Stdout, "\x1b[?1003h") // Enable any-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // Enable SGR extended mouse mode

	// Each terminal cell shows two framebuffer rows.
	v := newViewer(cfg, root, width, height*2, bg)
	hud := NewHUD(title, root.TriangleCount())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	cleanup := func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}
	defer cleanup()

	var mouseDown bool
	var lastMouseX, lastMouseY int
	animate := d != nil

	ticker := time.NewTicker(time.Second / time.Duration(max(*targetFPS, 1)))
	defer ticker.Stop()
	events := term.Events()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-events:
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				width, height = ev.Width, ev.Height
				term.Erase()
				term.Resize(width, height)
				v.resize(width, height*2)

			case uv.KeyPressEvent:
				switch {
				case ev.MatchString("escape", "ctrl+c"):
					return nil
				case ev.MatchString("a", "left"):
					v.light.swing(-math.Pi / 8)
				case ev.MatchString("d", "right"):
					v.light.swing(math.Pi / 8)
				case ev.MatchString("w", "up"):
					v.light.raise(1)
				case ev.MatchString("s", "down"):
					v.light.raise(-1)
				case ev.MatchString("p"):
					v.light.Directional = !v.light.Directional
				case ev.MatchString("m"):
					v.cycleMode()
				case ev.MatchString("z"):
					v.toggleMethod()
				case ev.MatchString("o"):
					v.cycleStencil()
				case ev.MatchString("space"):
					animate = d != nil && !animate
				case ev.MatchString("g"):
					v.showGrid = !v.showGrid
				case ev.MatchString("+", "="):
					v.orbit.zoom(-0.5)
				case ev.MatchString("-", "_"):
					v.orbit.zoom(0.5)
				case ev.MatchString("?"), ev.MatchString("shift+/"):
					hud.show = !hud.show
				}

			case uv.MouseClickEvent:
				mouseDown = true
				lastMouseX, lastMouseY = ev.X, ev.Y

			case uv.MouseReleaseEvent:
				mouseDown = false

			case uv.MouseMotionEvent:
				if mouseDown {
					v.orbit.ApplyImpulse(float64(ev.Y-lastMouseY)*0.01, float64(ev.X-lastMouseX)*0.02)
					lastMouseX, lastMouseY = ev.X, ev.Y
				}

			case uv.MouseWheelEvent:
				switch ev.Button {
				case uv.MouseWheelUp:
					v.orbit.zoom(-0.5)
				case uv.MouseWheelDown:
					v.orbit.zoom(0.5)
				}
			}

		case <-ticker.C:
			if animate {
				d.advance(0.03)
				// Manual updates only see moved geometry when told.
				v.controller.MarkDirty()
			}
			v.update()
			v.frame()

			v.rasterizer.Framebuffer().Draw(term, uv.Rect(0, 0, width, height))
			if err := term.Display(); err != nil {
				return fmt.Errorf("display: %w", err)
			}

			hud.UpdateFPS()
			hud.Render(width, height, v)
		}
	}
}
