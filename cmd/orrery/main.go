package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/orrery/internal/config"
	"github.com/san-kum/orrery/internal/export"
	"github.com/san-kum/orrery/internal/frame"
	"github.com/san-kum/orrery/internal/loop"
	"github.com/san-kum/orrery/internal/metrics"
	"github.com/san-kum/orrery/internal/nbody"
	"github.com/san-kum/orrery/internal/storage"
	"github.com/san-kum/orrery/internal/transport"
	"github.com/san-kum/orrery/internal/viz"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	preset     string
	policy     string
	dt         float64
	fps        float64
	numBodies  int
	seed       int64
	snapshot   bool
	transportK string
	addr       string
	ticks      int
	benchSteps int

	exportFormat string
	outFile      string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "orrery",
		Short:         "mass-focus n-body mockup generator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".orrery", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "stream frames to a renderer",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().StringVar(&transportK, "transport", config.DefaultTransport, "frame transport (stdout, ws)")
	runCmd.Flags().StringVar(&addr, "addr", config.DefaultListenAddress, "websocket listen address")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run with the terminal viewer",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSimFlags(liveCmd)

	recordCmd := &cobra.Command{
		Use:   "record",
		Short: "run for a number of ticks and save the frames",
		Args:  cobra.NoArgs,
		RunE:  recordRun,
	}
	addSimFlags(recordCmd)
	recordCmd.Flags().IntVar(&ticks, "ticks", 1000, "number of ticks to record")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot body distances of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a recorded run as json or svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "output format (json, svg)")
	exportCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark the integrator",
		Args:  cobra.NoArgs,
		RunE:  benchIntegrator,
	}
	benchCmd.Flags().IntVar(&benchSteps, "steps", 200, "steps per body count")
	benchCmd.Flags().BoolVar(&snapshot, "snapshot", false, "read a pre-step copy of the bodies")

	rootCmd.AddCommand(runCmd, liveCmd, recordCmd, listCmd, plotCmd, exportCmd, presetsCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&policy, "policy", config.DefaultPolicy, "initialization policy (solar, random)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultTimestep, "timestep in seconds")
	cmd.Flags().Float64Var(&fps, "fps", config.DefaultFPS, "target frames per second, 0 for unpaced")
	cmd.Flags().IntVar(&numBodies, "bodies", config.DefaultBodies, "number of bodies around the central one (random)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed, 0 picks one from the clock")
	cmd.Flags().BoolVar(&snapshot, "snapshot", false, "read a pre-step copy of the bodies")
}

func newLogger() (*log.Logger, error) {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "orrery",
	})
	logger.SetLevel(level)
	return logger, nil
}

// loadConfig starts from the defaults or a preset, reads the config file over
// it, then applies the flags the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", preset)
		}
	}

	if configFile != "" {
		var err error
		cfg, err = config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("policy") {
		cfg.Policy = policy
	}
	if flags.Changed("dt") {
		cfg.Timestep = dt
	}
	if flags.Changed("fps") {
		cfg.FPS = fps
	}
	if flags.Changed("bodies") {
		cfg.Random.Bodies = numBodies
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("snapshot") {
		cfg.Snapshot = snapshot
	}
	if flags.Lookup("transport") != nil && flags.Changed("transport") {
		cfg.Transport.Kind = transportK
	}
	if flags.Lookup("addr") != nil && flags.Changed("addr") {
		cfg.Transport.Address = addr
	}

	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newRunner initializes the bodies for cfg and wires them to link.
func newRunner(cfg *config.Config, link loop.Link, maxTicks int, logger *log.Logger) (*loop.Runner, *nbody.Bodies, error) {
	initializer, err := cfg.Initializer()
	if err != nil {
		return nil, nil, err
	}

	bodies, err := initializer.Init(rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		return nil, nil, fmt.Errorf("initialize %s: %w", initializer.Name(), err)
	}

	runner, err := loop.New(bodies, cfg.Integrator(initializer), frame.NewEmitter(cfg.Unit()), link, cfg.LoopConfig(maxTicks), logger)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("simulation ready",
		"policy", initializer.Name(),
		"bodies", bodies.Len(),
		"seed", cfg.Seed,
		"dt", cfg.Timestep,
		"fps", cfg.FPS,
	)
	return runner, bodies, nil
}

func interrupted(err error) bool {
	return errors.Is(err, context.Canceled)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var link loop.Link
	switch cfg.Transport.Kind {
	case config.TransportWebSocket:
		ln := transport.NewListener(logger)
		srv, err := ln.Listen(cfg.Transport.Address)
		if err != nil {
			return fmt.Errorf("%w: %w", loop.ErrChannel, err)
		}
		defer srv.Close()

		logger.Info("waiting for renderer", "addr", "ws://"+srv.Addr().String())
		ws, err := ln.Accept(ctx)
		if err != nil {
			if interrupted(err) && ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("%w: %w", loop.ErrChannel, err)
		}
		defer ws.Close()
		link = ws
	default:
		link = transport.NewStream(os.Stdin, os.Stdout)
	}

	runner, _, err := newRunner(cfg, link, 0, logger)
	if err != nil {
		return err
	}

	if err := runner.Run(ctx); err != nil {
		if interrupted(err) {
			logger.Info("interrupted", "ticks", runner.Ticks())
			return nil
		}
		return err
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	// the terminal belongs to the viewer, so logs only go out on error
	logger := log.New(io.Discard)
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	pipe := transport.NewPipe(4)
	runner, bodies, err := newRunner(cfg, pipe, 0, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- runner.Run(ctx)
		pipe.CloseFrames()
	}()

	title := fmt.Sprintf("orrery: %s, %d bodies", cfg.Policy, bodies.Len())
	p := tea.NewProgram(viz.NewLive(pipe, title), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return err
	}

	cancel()
	if err := <-done; err != nil && !interrupted(err) {
		return err
	}
	return nil
}

func recordRun(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("fps") {
		cfg.FPS = 0
	}
	if ticks <= 0 {
		return fmt.Errorf("%w: ticks must be positive, got %d", nbody.ErrInvalidConfig, ticks)
	}

	runner, bodies, err := newRunner(cfg, transport.Discard{}, ticks, logger)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	rec, err := st.Create(storage.RunMetadata{
		Policy:       cfg.Policy,
		Seed:         cfg.Seed,
		Timestep:     cfg.Timestep,
		Bodies:       bodies.Len(),
		DistanceUnit: cfg.Unit(),
	})
	if err != nil {
		return err
	}

	runner.AddObserver(rec)
	runner.AddMetric(metrics.NewEnergy(nbody.G))
	runner.AddMetric(metrics.NewEnergyDrift(nbody.G))
	runner.AddMetric(metrics.NewBound(2 * cfg.Unit()))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	start := time.Now()
	runErr := runner.Run(ctx)
	if err := rec.Close(runner.Metrics()); err != nil {
		return err
	}
	if runErr != nil && !interrupted(runErr) {
		return runErr
	}

	logger.Info("run recorded", "id", rec.ID(), "ticks", runner.Ticks(), "elapsed", time.Since(start).Round(time.Millisecond))
	fmt.Println(rec.ID())
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPOLICY\tTIME\tBODIES\tTICKS\tDT\tDRIFT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.0fs\t%.3g\n",
			run.ID,
			run.Policy,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Bodies,
			run.Ticks,
			run.Timestep,
			run.Metrics["energy_drift"],
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	frames, _, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}

	if len(frames) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("policy: %s\n", meta.Policy)
	fmt.Printf("frames: %d\n\n", len(frames))

	n := frames[0].Len()
	maxPlots := 6
	if n > maxPlots {
		n = maxPlots
	}

	for body := 0; body < n; body++ {
		data := make([]float64, len(frames))
		for i, f := range frames {
			if body < f.Len() {
				data[i] = f.Distance(body)
			}
		}

		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("body %d distance", body)),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	var w io.Writer = os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch exportFormat {
	case "json":
		return st.Export(w, runID)
	case "svg":
		frames, _, err := st.LoadFrames(runID)
		if err != nil {
			return err
		}
		return export.TrajectoriesToSVG(w, frames, 800, 800)
	default:
		return fmt.Errorf("unknown export format: %s", exportFormat)
	}
}

func listPresets(cmd *cobra.Command, args []string) error {
	names := config.ListPresets()
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPOLICY\tDT\tFPS\tBODIES")
	for _, name := range names {
		cfg := config.GetPreset(name)
		bodies := "4"
		if cfg.Policy == config.PolicyRandom {
			bodies = fmt.Sprintf("%d", cfg.Random.Bodies+1)
		}
		fmt.Fprintf(w, "%s\t%s\t%.0fs\t%.0f\t%s\n", name, cfg.Policy, cfg.Timestep, cfg.FPS, bodies)
	}
	return w.Flush()
}

func benchIntegrator(cmd *cobra.Command, args []string) error {
	if benchSteps <= 0 {
		return fmt.Errorf("%w: steps must be positive, got %d", nbody.ErrInvalidConfig, benchSteps)
	}

	fmt.Printf("benchmarking %d steps per size\n\n", benchSteps)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POLICY\tBODIES\tSTEPS\tTIME\tSTEPS/SEC")

	cfgs := []*config.Config{config.GetPreset("solar")}
	for _, n := range []int{10, 100, 500} {
		cfg := config.GetPreset("cluster")
		cfg.Random.Bodies = n
		cfgs = append(cfgs, cfg)
	}

	for _, cfg := range cfgs {
		cfg.Seed = 42
		cfg.Snapshot = snapshot
		initializer, err := cfg.Initializer()
		if err != nil {
			return err
		}
		bodies, err := initializer.Init(rand.New(rand.NewSource(cfg.Seed)))
		if err != nil {
			return err
		}
		integ := cfg.Integrator(initializer)

		start := time.Now()
		for i := 0; i < benchSteps; i++ {
			if err := integ.Step(bodies, cfg.Timestep); err != nil {
				return err
			}
		}
		elapsed := time.Since(start)

		fmt.Fprintf(w, "%s\t%d\t%d\t%v\t%.0f\n",
			cfg.Policy, bodies.Len(), benchSteps, elapsed.Round(time.Microsecond),
			float64(benchSteps)/elapsed.Seconds())
	}

	return w.Flush()
}
