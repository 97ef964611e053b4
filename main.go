package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"rayrows/internal/config"
	"rayrows/internal/raytracer"
	"rayrows/internal/threading"
	"rayrows/internal/threading/rendering"
	"rayrows/internal/threading/session"
	"rayrows/internal/viewer"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "configuration file")
		envPath    = flag.String("env", ".env", "optional environment file")
		scenePath  = flag.String("scene", "", "scene file (overrides scene.file in the config)")
		headless   = flag.Bool("headless", false, "render once without a window and write the result")
		output     = flag.String("out", "out/image.png", "output file for headless mode")
		ppm        = flag.Bool("ppm", false, "write a plain PPM instead of PNG in headless mode")
		direct     = flag.Bool("direct", false, "headless mode: render on the goroutine pool without row workers")
	)
	flag.Parse()

	if err := config.LoadEnv(*envPath); err != nil {
		log.Println("No .env file found, relying on system env vars")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *scenePath != "" {
		cfg.Scene.File = *scenePath
	}

	logger := log.Default()
	tc := threading.NewThreadingComponents(logger, cfg.GetWorkerCount())
	defer tc.Shutdown()

	opts := raytracer.Options{
		Samples:  cfg.Tracer.Samples,
		MaxDepth: cfg.Tracer.MaxDepth,
		Seed:     cfg.Tracer.Seed,
	}
	scenes := raytracer.SceneGenerator{Path: cfg.Scene.File, Seed: cfg.Scene.Seed}
	req := session.Request{
		Width:             cfg.GetWidth(),
		Height:            cfg.GetHeight(),
		Workers:           cfg.GetWorkerCount(),
		HandshakeTimeout:  cfg.GetHandshakeTimeout(),
		PartialFrameEvery: cfg.GetPartialFrameEvery(),
		Factory:           raytracer.NewFactory(opts),
		Scenes:            scenes,
	}

	if *headless {
		out := *output
		if *ppm {
			out = strings.TrimSuffix(out, filepath.Ext(out)) + ".ppm"
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if *direct {
			err = renderDirect(ctx, tc, req, scenes, opts, out)
		} else {
			err = renderHeadless(ctx, tc, req, out)
		}
		if err != nil {
			tc.Shutdown()
			log.Fatal(err)
		}
		return
	}

	// Set window properties from config
	scale := cfg.GetScale()
	ebiten.SetWindowSize(cfg.GetWidth()*scale, cfg.GetHeight()*scale)
	ebiten.SetWindowTitle(cfg.GetWindowTitle())
	if cfg.Display.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}

	v := viewer.New(tc.Sessions, req, scale, logger)
	if err := v.Submit(); err != nil {
		log.Printf("Warning: initial render failed to start: %v", err)
	}
	if err := ebiten.RunGame(v); err != nil {
		tc.Shutdown()
		log.Fatal(err)
	}
}

// loadConfig reads the config file, falling back to defaults plus
// environment overrides when it does not exist
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	log.Printf("Warning: %s not found, using defaults", path)
	cfg = config.Default()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	config.GlobalConfig = cfg
	return cfg, nil
}

func renderHeadless(ctx context.Context, tc *threading.ThreadingComponents, req session.Request, out string) error {
	req.Presenter = session.NewLogPresenter(log.Default())
	s, err := tc.Sessions.Submit(ctx, req)
	if err != nil {
		return err
	}
	err = tc.Sessions.Wait(ctx)
	tc.LogPerformanceAlerts(log.Default())
	if err != nil {
		return err
	}
	if err := rendering.SaveFrame(out, s.Frame()); err != nil {
		return err
	}
	log.Printf("Wrote %s (%dx%d)", out, req.Width, req.Height)
	return nil
}

func renderDirect(ctx context.Context, tc *threading.ThreadingComponents, req session.Request, scenes raytracer.SceneGenerator, opts raytracer.Options, out string) error {
	blob, err := scenes.GenerateScene()
	if err != nil {
		return err
	}
	scene, err := raytracer.DecodeScene(blob)
	if err != nil {
		return err
	}

	tracer := raytracer.NewTracer(scene, req.Width, req.Height, opts)
	frame, err := raytracer.RenderImage(ctx, tc.DirectPool, tracer)
	if err != nil {
		return err
	}
	if err := rendering.SaveFrame(out, frame); err != nil {
		return err
	}
	log.Printf("Wrote %s (%dx%d)", out, req.Width, req.Height)
	return nil
}
