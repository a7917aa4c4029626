package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/san-kum/osvsim/internal/builder"
	"github.com/san-kum/osvsim/internal/config"
	"github.com/san-kum/osvsim/internal/logging"
	"github.com/san-kum/osvsim/internal/metrics"
	"github.com/san-kum/osvsim/internal/request"
	"github.com/san-kum/osvsim/internal/sandbox"
	"github.com/san-kum/osvsim/internal/sim"
	"github.com/san-kum/osvsim/internal/storage"
	"github.com/san-kum/osvsim/internal/telemetry"
	"github.com/spf13/cobra"
)

var (
	configFile string
	logLevel   string
	dataDir    string

	requestFile string
	binaryPath  string
	preset      string
	save        bool
	csvDir      string
	tickRate    float64
	timeout     time.Duration

	theme string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "osvsim",
		Short:         "hardware-in-the-loop simulator for autonomous surface vehicle programs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "run history directory")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "build a control program and run it against the simulated arena",
		Long: `Reads a run request (JSON) from stdin or --request, builds the program,
spawns it and streams telemetry frames on stdout until the timeout.`,
		Args: cobra.NoArgs,
		RunE: runSimulate,
	}
	simulateCmd.Flags().StringVar(&requestFile, "request", "", "read the run request from this file instead of stdin")
	simulateCmd.Flags().StringVar(&binaryPath, "binary", "", "run a prebuilt executable and skip the build")
	simulateCmd.Flags().StringVar(&preset, "preset", "", "seed the arena from a named layout instead of a request")
	simulateCmd.Flags().BoolVar(&save, "save", false, "record the run in the history database")
	simulateCmd.Flags().StringVar(&csvDir, "csv", "", "also write frames.csv and perf.csv to this directory")
	simulateCmd.Flags().Float64Var(&tickRate, "tick-rate", config.DefaultTickRate, "ticks per second")
	simulateCmd.Flags().DurationVar(&timeout, "timeout", config.DefaultTimeout, "run length")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot x, y and theta of a run (latest by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run frames to CSV on stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportCSV,
	}

	replayCmd := &cobra.Command{
		Use:   "replay [run_id]",
		Short: "replay a recorded run in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  replayRun,
	}
	replayCmd.Flags().StringVar(&theme, "theme", "harbor", "color theme (harbor, sonar, plain)")

	deleteCmd := &cobra.Command{
		Use:   "delete [run_id]",
		Short: "remove a run from the history",
		Args:  cobra.ExactArgs(1),
		RunE:  deleteRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list arena presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Printf("  %-8s %s (%d obstacles)\n", name, p.Description, len(p.Obstacles))
			}
		},
	}

	rootCmd.AddCommand(simulateCmd, listCmd, plotCmd, exportCSVCmd, replayCmd, deleteCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads --config over the defaults and applies flags the user
// set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("data") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("tick-rate") {
		cfg.TickRate = tickRate
	}
	if flags.Changed("timeout") {
		cfg.Timeout = timeout
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg *config.Config) (zerolog.Logger, io.Closer, error) {
	log, closer, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return log, nil, fmt.Errorf("open log file: %w", err)
	}
	return log, closer, nil
}

func simConfig(cfg *config.Config) sim.Config {
	return sim.Config{
		TickRate:    cfg.TickRate,
		Timeout:     cfg.Timeout,
		Ack:         cfg.Protocol.Ack,
		ReadBuffer:  cfg.Protocol.ReadBuffer,
		QueueCap:    cfg.Protocol.QueueCap,
		SensorRange: cfg.Sensor.Range,
	}
}

// loadRequest resolves the arena for this run from --preset or the request
// document. The label names the run in the history.
func loadRequest(cfg *config.Config) (*request.Request, string, error) {
	if preset != "" {
		layout := config.GetPreset(preset)
		if layout == nil {
			return nil, "", fmt.Errorf("unknown preset %q (have %v)", preset, config.ListPresets())
		}
		if binaryPath == "" {
			return nil, "", errors.New("--preset needs --binary")
		}
		return &request.Request{Arena: request.FromPreset(layout, cfg)}, preset, nil
	}

	in := io.Reader(os.Stdin)
	if requestFile != "" {
		f, err := os.Open(requestFile)
		if err != nil {
			return nil, "", err
		}
		defer f.Close()
		in = f
	}

	req, err := request.Read(in, cfg, request.Options{Prebuilt: binaryPath != ""})
	if err != nil {
		return nil, "", err
	}
	return req, req.ID, nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	req, label, err := loadRequest(cfg)
	if err != nil {
		return err
	}

	exe := binaryPath
	if exe == "" {
		b := builder.New(cfg.Builder, logging.Component(log, "builder"))
		if exe, err = b.Build(ctx, req.ID, req.Code); err != nil {
			return err
		}
	}

	started := time.Now()
	s := sim.New(req.Arena, simConfig(cfg), logging.Component(log, "sim"))

	stream := telemetry.NewStreamWriter(os.Stdout)
	s.AddObserver(sim.ObserverFunc(stream.WriteFrame))

	summary := metrics.Standard(req.Arena)
	s.AddObserver(summary)

	out, err := telemetry.NewOutputManager(csvDir)
	if err != nil {
		return err
	}
	if out != nil {
		defer out.Close()
		s.AddObserver(sim.ObserverFunc(out.WriteFrame))
	}

	var rec *storage.Recorder
	if save {
		st := storage.New(cfg.DataDir, logging.Component(log, "storage"))
		if err := st.Init(); err != nil {
			return err
		}
		defer st.Close()

		run := storage.NewRun(storage.NewRunID(label, started), started, req.Arena)
		run.ProgramID = req.ID
		run.Preset = preset
		run.TickRate = cfg.TickRate
		run.Timeout = cfg.Timeout
		rec = storage.NewRecorder(st, run)
		s.AddObserver(rec)
	}

	launch := func(ctx context.Context) (sandbox.Process, error) {
		return sandbox.Spawn(ctx, exe, logging.Component(log, "sandbox"))
	}

	res, runErr := s.Run(ctx, launch)
	if res == nil {
		return runErr
	}

	if err := out.WritePerf(res.Perf); err != nil {
		log.Warn().Err(err).Msg("write perf csv")
	}
	if res.Frames > 0 {
		summary.Log(log)
	}
	if rec != nil {
		if res.Frames > 0 {
			v := summary.Values()
			run := rec.Run()
			run.ControlEffort = v["control_effort"]
			run.PathLength = v["path_length"]
			run.ClosestApproach = v["closest_approach"]
		}
		final := res.State.String()
		if res.TimedOut {
			final = sim.StateTimedOut.String()
		}
		if err := rec.Flush(final, res.Perf); err != nil {
			log.Error().Err(err).Msg("save run")
		} else {
			log.Info().Str("run_id", rec.Run().ID).Msg("run saved")
		}
	}

	if errors.Is(runErr, context.Canceled) {
		log.Info().Int("frames", res.Frames).Msg("interrupted")
		return nil
	}
	return runErr
}
