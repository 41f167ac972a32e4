package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/compute"
	"github.com/san-kum/clothsim/internal/config"
	"github.com/san-kum/clothsim/internal/gui"
	"github.com/san-kum/clothsim/internal/logger"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	logFile    string
	// Simulation overrides
	resolution    uint32
	clothSize     float32
	dt            float32
	frames        int
	sampleEvery   int
	backend       string
	workers       int
	workgroupSize int
	sphereRadius  float32
	// Output
	outFile     string
	snapshotOut string
	frameRate   int
	addr        string
	metric      string
	ascii       bool
	// Studies
	analyzeMetric string
	sweepMetric   string
	sweepRanges   []string
)

// GL contexts are bound to the thread that made them current.
func init() { runtime.LockOSThread() }

func main() {
	rootCmd := &cobra.Command{
		Use:           "clothsim",
		Short:         "mass-spring cloth simulation over a sphere",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return gui.RunInteractive(cfg, logger.Named("gui"))
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".clothsim", "data directory")
	pf.StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	pf.StringVar(&logFile, "log-file", "", "also log JSON to this rotating file")
	simFlags(rootCmd)

	runCmd := &cobra.Command{
		Use:   "run [name]",
		Short: "run a headless simulation and store the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	simFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run metrics",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&metric, "metric", "", "plot only this metric")
	plotCmd.Flags().StringVarP(&outFile, "out", "o", "", "write the plot as SVG instead")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [run_id]",
		Short: "render the final cloth of a run, or of a fresh simulation, as SVG",
		Args:  cobra.MaximumNArgs(1),
		RunE:  snapshot,
	}
	simFlags(snapshotCmd)
	snapshotCmd.Flags().StringVarP(&snapshotOut, "out", "o", "cloth.svg", "output file")
	snapshotCmd.Flags().BoolVar(&ascii, "ascii", false, "print a braille rendering instead")

	liveCmd := &cobra.Command{
		Use:         "live",
		Short:       "run the simulation in the terminal",
		Annotations: map[string]string{"tui": "true"},
		RunE:        runLive,
	}
	simFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 0, "frame rate (default from config)")

	tuiCmd := &cobra.Command{
		Use:         "tui",
		Short:       "pick a preset and run it in the terminal",
		Annotations: map[string]string{"tui": "true"},
		RunE:        runTUI,
	}
	simFlags(tuiCmd)

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "run the simulation in a window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return gui.Run(cfg, logger.Named("gui"))
		},
	}
	simFlags(guiCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "stream the simulation to websocket clients",
		RunE:  serve,
	}
	simFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().IntVar(&frameRate, "fps", 0, "frames per second (default from config)")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure step throughput",
		RunE:  bench,
	}
	simFlags(benchCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "describe the topology and parameter block of a configuration",
		RunE:  inspect,
	}
	simFlags(inspectCmd)

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a run metric",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&analyzeMetric, "metric", "kinetic", "metric to analyze")

	sweepCmd := &cobra.Command{
		Use:     "sweep",
		Short:   "grid search material parameters for the lowest metric value",
		Example: "  clothsim sweep --preset tiny --param structural.stiffness=20:80:4 --param bend.damping=0,0.1",
		RunE:    sweep,
	}
	simFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepRanges, "param", nil, "parameter range as name=lo:hi:n or name=a,b,c (repeatable)")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "max_stretch", "metric to minimize")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a YAML scenario of headless runs and store each one",
		Args:  cobra.ExactArgs(1),
		RunE:  scenario,
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportJSONCmd, snapshotCmd, liveCmd, tuiCmd, guiCmd, serveCmd, benchCmd, presetsCmd, inspectCmd, analyzeCmd, sweepCmd, scenarioCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func simFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "start from a preset")
	f.Uint32Var(&resolution, "resolution", config.DefaultResolution, "vertices per row")
	f.Float32Var(&clothSize, "size", config.DefaultClothSize, "cloth side length")
	f.Float32Var(&dt, "dt", config.DefaultDt, "timestep")
	f.IntVar(&frames, "frames", config.DefaultFrames, "frames to simulate")
	f.IntVar(&sampleEvery, "sample-every", config.DefaultSampleEvery, "metric sampling interval in frames")
	f.StringVar(&backend, "backend", config.DefaultBackend, "compute backend (cpu, opengl, auto)")
	f.IntVar(&workers, "workers", 0, "cpu worker goroutines (0 = one per CPU)")
	f.IntVar(&workgroupSize, "workgroup-size", 0, "vertices per workgroup")
	f.Float32Var(&sphereRadius, "sphere-radius", cloth.DefaultSphereRadius, "collider radius")
}

// loadConfig resolves defaults, then the preset, then the config file, then
// any flag set on the command line, and installs the logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		p, err := config.GetPreset(preset)
		if err != nil {
			return nil, err
		}
		cfg = p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("resolution") {
		cfg.Cloth.Resolution = resolution
	}
	if flags.Changed("size") {
		cfg.Cloth.Size = clothSize
	}
	if flags.Changed("dt") {
		cfg.Simulation.Dt = dt
	}
	if flags.Changed("frames") {
		cfg.Simulation.Frames = frames
	}
	if flags.Changed("sample-every") {
		cfg.Simulation.SampleEvery = sampleEvery
	}
	if flags.Changed("backend") {
		cfg.Simulation.Backend = backend
	}
	if flags.Changed("workers") {
		cfg.Simulation.Workers = workers
	}
	if flags.Changed("workgroup-size") {
		cfg.Simulation.WorkgroupSize = workgroupSize
	}
	if flags.Changed("sphere-radius") {
		cfg.Sphere.Radius = sphereRadius
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if flags.Changed("log-file") {
		cfg.Logging.LogFile = logFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := initLogger(cmd, cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}

// initLogger keeps terminal UIs off stderr; they log to the file only.
func initLogger(cmd *cobra.Command, lc config.LoggingConfig) error {
	if cmd.Annotations["tui"] == "true" {
		fileCfg := logger.FileConfig{}
		if lc.LogFile != "" {
			fileCfg = logger.DefaultFileConfig(lc.LogFile)
		}
		return logger.InitWithFileConfig(lc.Level, fileCfg, nil)
	}
	return logger.Init(lc.Level, lc.LogFile)
}

// openContext makes a hidden GL context current for non-cpu backends. It
// returns the backend name to use, downgraded to cpu when "auto" finds no
// context.
func openContext(name string) (string, func(), error) {
	if name == "cpu" {
		return name, func() {}, nil
	}
	closeCtx, err := gui.OpenContext()
	switch {
	case err == nil:
		return name, closeCtx, nil
	case name == "opengl":
		return "", nil, err
	default:
		logger.Log.Warn("no opengl context, using cpu", zap.Error(err))
		return "cpu", func() {}, nil
	}
}

// openBackend selects the configured backend for sim.
func openBackend(cfg *config.Config, sim *cloth.Simulator) (compute.Backend, func(), error) {
	name, closeCtx, err := openContext(cfg.Simulation.Backend)
	if err != nil {
		return nil, nil, err
	}
	b, err := compute.Select(name, sim, logger.Named("compute"))
	if err != nil {
		closeCtx()
		return nil, nil, err
	}
	return b, func() {
		b.Cleanup()
		closeCtx()
	}, nil
}

func newSimulator(cfg *config.Config) (*cloth.Simulator, error) {
	return cfg.NewSimulator(cloth.WithLogger(logger.Named("cloth")))
}
