package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/clothsim/internal/compute"
	"github.com/san-kum/clothsim/internal/config"
	"github.com/san-kum/clothsim/internal/logger"
	"github.com/san-kum/clothsim/internal/stream"
	"github.com/san-kum/clothsim/internal/viz"
)

// session owns the backend of a live view across resets.
type session struct {
	backend string
	current compute.Backend
}

func (s *session) open(cfg *config.Config) (compute.Backend, error) {
	sim, err := newSimulator(cfg)
	if err != nil {
		return nil, err
	}
	b, err := compute.Select(s.backend, sim, logger.Named("compute"))
	if err != nil {
		return nil, err
	}
	s.close()
	s.current = b
	return b, nil
}

func (s *session) close() {
	if s.current != nil {
		s.current.Cleanup()
		s.current = nil
	}
}

func liveConfig(cfg *config.Config, title string, s *session) (viz.LiveConfig, error) {
	topo, err := cfg.Topology()
	if err != nil {
		return viz.LiveConfig{}, err
	}
	fps := cfg.Render.FPS
	if frameRate > 0 {
		fps = frameRate
	}
	return viz.LiveConfig{
		Title:    title,
		Topology: topo,
		Material: cfg.Material.Params(),
		Sphere:   cfg.Sphere.Params(),
		Dt:       cfg.Simulation.Dt,
		FPS:      fps,
		Reset:    func() (viz.Source, error) { return s.open(cfg) },
		Log:      logger.Named("live"),
	}, nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	name, closeCtx, err := openContext(cfg.Simulation.Backend)
	if err != nil {
		return err
	}
	defer closeCtx()

	s := &session{backend: name}
	defer s.close()
	b, err := s.open(cfg)
	if err != nil {
		return err
	}
	title := "clothsim"
	if preset != "" {
		title = preset
	}
	lc, err := liveConfig(cfg, title, s)
	if err != nil {
		return err
	}
	return viz.Run(b, lc)
}

func runTUI(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	name, closeCtx, err := openContext(base.Simulation.Backend)
	if err != nil {
		return err
	}
	defer closeCtx()

	s := &session{backend: name}
	defer s.close()

	var choices []viz.Choice
	for _, p := range config.ListPresets() {
		choices = append(choices, viz.Choice{Name: p, Description: config.Presets[p].Description})
	}
	launch := func(p string) (viz.Source, viz.LiveConfig, error) {
		cfg, err := config.GetPreset(p)
		if err != nil {
			return nil, viz.LiveConfig{}, err
		}
		b, err := s.open(cfg)
		if err != nil {
			return nil, viz.LiveConfig{}, err
		}
		lc, err := liveConfig(cfg, p, s)
		return b, lc, err
	}
	return viz.RunPicker(choices, launch)
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Serve.Addr = addr
	}
	if frameRate > 0 {
		cfg.Serve.FPS = frameRate
	}

	sim, err := newSimulator(cfg)
	if err != nil {
		return err
	}
	b, closeBackend, err := openBackend(cfg, sim)
	if err != nil {
		return err
	}
	defer closeBackend()

	log := logger.Named("stream")
	srv, err := stream.New(b, sim.Topology(), sim.Sphere(), cfg.Simulation.Dt, cfg.Serve.FPS, log)
	if err != nil {
		return err
	}

	httpSrv := &http.Server{Addr: cfg.Serve.Addr, Handler: srv.Handler(), ReadHeaderTimeout: 5 * time.Second}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("streaming", zap.String("addr", cfg.Serve.Addr), zap.String("backend", b.Name()), zap.Int("fps", cfg.Serve.FPS))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		stop()
	}()

	// stepping stays on the main goroutine, which owns the GL context
	runErr := srv.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)

	select {
	case err := <-errCh:
		return err
	default:
	}
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}
