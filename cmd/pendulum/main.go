package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/xxori/elastic-pendulum/internal/analysis"
	"github.com/xxori/elastic-pendulum/internal/config"
	"github.com/xxori/elastic-pendulum/internal/dynamo"
	"github.com/xxori/elastic-pendulum/internal/export"
	"github.com/xxori/elastic-pendulum/internal/integrators"
	"github.com/xxori/elastic-pendulum/internal/metrics"
	"github.com/xxori/elastic-pendulum/internal/physics"
	"github.com/xxori/elastic-pendulum/internal/render"
	"github.com/xxori/elastic-pendulum/internal/storage"
	"github.com/xxori/elastic-pendulum/internal/sweep"
	"github.com/xxori/elastic-pendulum/internal/swing"
	"github.com/xxori/elastic-pendulum/internal/viz"
)

var (
	dataDir    string
	configFile string
	presetName string
	verbose    bool

	// Physical parameters and initial state
	restLength float64
	stiffness  float64
	mass       float64
	gravity    float64
	theta      float64
	omega      float64
	length     float64
	lengthRate float64

	// Solver
	tMax       float64
	dt         float64
	fps        int
	relTol     float64
	absTol     float64
	integrator string

	// Output
	outPath     string
	framesDir   string
	encoderName string
	palettePath string
	dpi         float64
	noSave      bool

	// Swing search
	swingCount   int
	maxDoublings int
	maxHorizon   float64
	interpolate  bool

	// Parameter sweep
	sweepAxes    []string
	sweepWorkers int
	sweepBest    string

	logger *log.Logger
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "pendulum",
		Short:         "elastic pendulum simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "pendulum"})
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}
			log.SetDefault(logger)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pendulum", "run store directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml or toml)")
	rootCmd.PersistentFlags().StringVar(&presetName, "preset", "", "start from a preset configuration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate and save the trajectory",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addParamFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "print the summary without saving the run")

	animateCmd := &cobra.Command{
		Use:   "animate",
		Short: "render frames and encode an animation",
		Args:  cobra.NoArgs,
		RunE:  animate,
	}
	addParamFlags(animateCmd)
	animateCmd.Flags().StringVarP(&outPath, "out", "o", "out.gif", "animation file")
	animateCmd.Flags().StringVar(&framesDir, "frames", "frames", "frame directory")
	animateCmd.Flags().StringVar(&encoderName, "encoder", "ffmpeg", "encoder: ffmpeg or native")
	animateCmd.Flags().StringVar(&palettePath, "palette", "palette.png", "gif palette image")
	animateCmd.Flags().Float64Var(&dpi, "dpi", config.DefaultDPI, "frame resolution")

	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "write the summary figure",
		Args:  cobra.NoArgs,
		RunE:  writeSummary,
	}
	addParamFlags(summaryCmd)
	summaryCmd.Flags().StringVarP(&outPath, "out", "o", "out.png", "summary image")
	summaryCmd.Flags().Float64Var(&dpi, "dpi", config.DefaultDPI, "image resolution")

	swingCmd := &cobra.Command{
		Use:   "swing",
		Short: "find the time of the nth full swing",
		Args:  cobra.NoArgs,
		RunE:  swingTime,
	}
	addParamFlags(swingCmd)
	swingCmd.Flags().IntVarP(&swingCount, "n", "n", config.DefaultSwings, "swing count")
	swingCmd.Flags().IntVar(&maxDoublings, "max-doublings", swing.DefaultMaxDoublings, "horizon doublings before giving up (negative for no limit)")
	swingCmd.Flags().Float64Var(&maxHorizon, "max-horizon", 0, "largest horizon to try in seconds (0 for no limit)")
	swingCmd.Flags().BoolVar(&interpolate, "interpolate", false, "report the interpolated zero crossing instead of the sample time")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "replay a simulation in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addParamFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot theta and length of a run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "swing periods, spectrum and phase portrait",
		Args:  cobra.MaximumNArgs(1),
		RunE:  analyzeRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportJSON,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export the mass path as SVG",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	sweepCmd := &cobra.Command{
		Use:     "sweep",
		Short:   "simulate a grid of parameters in parallel",
		Example: "  pendulum sweep --param stiffness=20:80:4 --param theta=0.2,0.8 --best mean_period",
		Args:    cobra.NoArgs,
		RunE:    runSweep,
	}
	addParamFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVarP(&sweepAxes, "param", "p", nil, "swept parameter, name=start:stop:count or name=v1,v2 (repeatable)")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 0, "parallel simulations (0 for one per cpu)")
	sweepCmd.Flags().StringVar(&sweepBest, "best", "", "report the point minimising this metric")
	_ = sweepCmd.MarkFlagRequired("param")

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write the resolved configuration to a file",
		Args:  cobra.ExactArgs(1),
		RunE:  writeConfig,
	}
	addParamFlags(configCmd)

	rootCmd.AddCommand(runCmd, animateCmd, summaryCmd, swingCmd, liveCmd, listCmd, plotCmd, analyzeCmd,
		exportCSVCmd, exportJSONCmd, exportSVGCmd, sweepCmd, presetsCmd, configCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if logger == nil {
			logger = log.Default()
		}
		logger.Error(err)
		stop()
		os.Exit(1)
	}
}

func addParamFlags(cmd *cobra.Command) {
	defaults := config.DefaultConfig()
	f := cmd.Flags()
	f.Float64Var(&restLength, "l0", defaults.Physics.RestLength, "spring rest length (m)")
	f.Float64Var(&stiffness, "k", defaults.Physics.Stiffness, "spring constant (N/m)")
	f.Float64Var(&mass, "m", defaults.Physics.Mass, "mass (kg)")
	f.Float64Var(&gravity, "g", defaults.Physics.Gravity, "gravitational acceleration (m/s²)")
	f.Float64Var(&theta, "theta", defaults.InitState.Theta, "initial angle from vertical (rad)")
	f.Float64Var(&omega, "omega", defaults.InitState.Omega, "initial angular velocity (rad/s)")
	f.Float64Var(&length, "length", defaults.InitState.Length, "initial spring length (m)")
	f.Float64Var(&lengthRate, "length-rate", defaults.InitState.LengthRate, "initial spring extension rate (m/s)")
	f.Float64Var(&tMax, "tmax", defaults.Sim.TMax, "simulated time (s)")
	f.Float64Var(&dt, "dt", defaults.Sim.Dt, "sample spacing (s)")
	f.IntVar(&fps, "fps", defaults.Sim.FPS, "animation frame rate")
	f.Float64Var(&relTol, "rtol", defaults.Sim.RelTol, "relative tolerance")
	f.Float64Var(&absTol, "atol", defaults.Sim.AbsTol, "absolute tolerance")
	f.StringVar(&integrator, "integrator", defaults.Sim.Integrator, "integrator: "+strings.Join(integrators.Names(), ", "))
}

// loadConfig layers preset, config file and explicitly set flags, in that
// order, over the defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if presetName != "" {
		cfg = config.GetPreset(presetName)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q (available: %s)", presetName, strings.Join(config.ListPresets(), ", "))
		}
		logger.Debug("using preset", "name", presetName)
	}

	if configFile != "" {
		if err := config.DecodeFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		logger.Debug("loaded config", "path", configFile)
	}

	f := cmd.Flags()
	if f.Changed("l0") {
		cfg.Physics.RestLength = restLength
	}
	if f.Changed("k") {
		cfg.Physics.Stiffness = stiffness
	}
	if f.Changed("m") {
		cfg.Physics.Mass = mass
	}
	if f.Changed("g") {
		cfg.Physics.Gravity = gravity
	}
	if f.Changed("theta") {
		cfg.InitState.Theta = theta
	}
	if f.Changed("omega") {
		cfg.InitState.Omega = omega
	}
	if f.Changed("length") {
		cfg.InitState.Length = length
	}
	if f.Changed("length-rate") {
		cfg.InitState.LengthRate = lengthRate
	}
	if f.Changed("tmax") {
		cfg.Sim.TMax = tMax
	}
	if f.Changed("dt") {
		cfg.Sim.Dt = dt
	}
	if f.Changed("fps") {
		cfg.Sim.FPS = fps
	}
	if f.Changed("rtol") {
		cfg.Sim.RelTol = relTol
	}
	if f.Changed("atol") {
		cfg.Sim.AbsTol = absTol
	}
	if f.Changed("integrator") {
		cfg.Sim.Integrator = integrator
	}
	if f.Changed("frames") {
		cfg.Output.FramesDir = framesDir
	}
	if f.Changed("encoder") {
		cfg.Output.Encoder = encoderName
	}
	if f.Changed("palette") {
		cfg.Output.Palette = palettePath
	}
	if f.Changed("dpi") {
		cfg.Output.DPI = dpi
	}
	if f.Changed("n") {
		cfg.Swing.Count = swingCount
	}
	if f.Changed("max-doublings") {
		cfg.Swing.MaxDoublings = maxDoublings
	}
	if f.Changed("max-horizon") {
		cfg.Swing.MaxHorizon = maxHorizon
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newSimulator(cfg *config.Config) (*dynamo.Simulator, *physics.ElasticPendulum, error) {
	p := cfg.Pendulum()
	integ, err := integrators.New(cfg.Sim.Integrator)
	if err != nil {
		return nil, nil, err
	}

	sim := dynamo.New(p, integ)
	sim.AddMetric(metrics.NewEnergy(p))
	sim.AddMetric(metrics.NewEnergyDrift(p))
	sim.AddMetric(metrics.NewLengthBounds())
	sim.AddMetric(metrics.NewStretch(physics.Length, p.EquilibriumLength(), p.RestLength))
	return sim, p, nil
}

func simulate(ctx context.Context, cfg *config.Config) (*dynamo.Trajectory, *physics.ElasticPendulum, error) {
	sim, p, err := newSimulator(cfg)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("simulating", "t_max", cfg.Sim.TMax, "dt", cfg.Sim.Dt, "integrator", cfg.Sim.Integrator)
	start := time.Now()
	traj, err := sim.Run(ctx, cfg.GetInitState(), cfg.SimConfig())
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("simulation done", "samples", traj.Len(), "steps", traj.Stats.Steps,
		"rejected", traj.Stats.Rejected, "elapsed", time.Since(start))
	return traj, p, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	traj, p, err := simulate(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	events := analysis.Turnarounds(traj.Column(physics.ThetaDot))

	fmt.Println(titleStyle.Render("elastic pendulum"))
	fmt.Println(viz.Field("samples", fmt.Sprintf("%d", traj.Len())))
	fmt.Println(viz.Field("steps", fmt.Sprintf("%d (%d rejected)", traj.Stats.Steps, traj.Stats.Rejected)))
	fmt.Println(viz.Field("energy drift", fmt.Sprintf("%.3e", traj.Metrics["energy_drift"])))
	fmt.Println(viz.Field("min length", fmt.Sprintf("%.4f m", traj.Metrics["min_length"])))
	fmt.Println(viz.Field("turnarounds", fmt.Sprintf("%d", len(events))))
	if period := analysis.MeanPeriod(events, traj.Dt); period > 0 {
		fmt.Println(viz.Field("mean period", fmt.Sprintf("%.3f s (small angle %.3f s)", period, p.PendulumPeriod())))
	}

	if noSave {
		return nil
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	id, err := st.Save(storage.RunMetadata{
		Preset:     presetName,
		Integrator: cfg.Sim.Integrator,
		Params:     p.GetParams(),
	}, traj)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(viz.Field("run", id))
	return nil
}

func animate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out := cfg.Output.Animation
	if cmd.Flags().Changed("out") {
		out = outPath
	}

	traj, _, err := simulate(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	r := render.NewFrameRenderer(cfg.Output.FramesDir, cfg.Sim.FPS)
	r.DPI = cfg.Output.DPI
	r.Logger = logger
	n, err := r.RenderFrames(cmd.Context(), traj)
	if err != nil {
		return err
	}
	logger.Info("frames written", "count", n, "dir", cfg.Output.FramesDir)

	logger.Info("encoding", "out", out, "encoder", cfg.Output.Encoder)
	switch cfg.Output.Encoder {
	case "native":
		if !strings.EqualFold(filepath.Ext(out), ".gif") {
			return fmt.Errorf("native encoder only writes gif, got %s", out)
		}
		err = render.NativeGIF(cfg.Output.FramesDir, out, cfg.Sim.FPS)
	case "ffmpeg":
		enc := render.NewEncoder(cfg.Sim.FPS)
		enc.Palette = cfg.Output.Palette
		enc.Logger = logger
		err = enc.Encode(cmd.Context(), cfg.Output.FramesDir, out)
	default:
		return fmt.Errorf("unknown encoder %q (want ffmpeg or native)", cfg.Output.Encoder)
	}
	if err != nil {
		if errors.Is(err, render.ErrEncoderMissing) {
			logger.Warn("frames kept; install ffmpeg or use --encoder native", "dir", cfg.Output.FramesDir)
		}
		return err
	}

	fmt.Println(viz.Field("animation", out))
	return nil
}

func writeSummary(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out := cfg.Output.Summary
	if cmd.Flags().Changed("out") {
		out = outPath
	}

	traj, p, err := simulate(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	s := render.NewSummary()
	s.DPI = cfg.Output.DPI
	if err := s.Save(out, traj, p); err != nil {
		return err
	}

	fmt.Println(viz.Field("summary", out))
	return nil
}

func swingTime(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	sim, _, err := newSimulator(cfg)
	if err != nil {
		return err
	}

	r := &swing.Refiner{
		Sim:          sim,
		X0:           cfg.GetInitState(),
		Config:       cfg.SimConfig(),
		MaxDoublings: cfg.Swing.MaxDoublings,
		MaxHorizon:   cfg.Swing.MaxHorizon,
		Logger:       logger,
	}
	res, err := r.TimeForSwing(cmd.Context(), cfg.Swing.Count)
	if err != nil {
		return err
	}

	t := res.Time
	if interpolate {
		traj := res.Trajectory
		t = analysis.InterpolatedCrossing(traj.Times, traj.Column(physics.ThetaDot), res.EventIndex)
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("swing %d", cfg.Swing.Count)))
	fmt.Println(viz.Field("time", fmt.Sprintf("%.4f s", t)))
	fmt.Println(viz.Field("sample", fmt.Sprintf("%d", res.EventIndex)))
	fmt.Println(viz.Field("horizon", fmt.Sprintf("%g s (%d doublings)", res.Horizon, res.Doublings)))
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	traj, p, err := simulate(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	title := "elastic pendulum"
	if presetName != "" {
		title += " · " + presetName
	}
	m := viz.NewLiveModel(title, traj, p, cfg.Sim.FPS)
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
	if errors.Is(err, tea.ErrProgramKilled) && cmd.Context().Err() != nil {
		return nil
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	s := &sweep.Sweep{Config: cfg.SimConfig(), Workers: sweepWorkers, Logger: logger}
	for _, a := range sweepAxes {
		axis, err := sweep.ParseAxis(a)
		if err != nil {
			return err
		}
		s.Axes = append(s.Axes, axis)
	}

	build := sweep.PendulumBuilder(*cfg.Pendulum(), cfg.GetInitState(), cfg.Sim.Integrator)
	logger.Info("sweeping", "points", len(s.Grid()), "workers", sweepWorkers)
	points, err := s.Run(cmd.Context(), build)
	if err != nil {
		return err
	}

	names := sweep.MetricNames(points)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := make([]string, 0, len(s.Axes)+len(names))
	for _, axis := range s.Axes {
		header = append(header, strings.ToUpper(axis.Name))
	}
	for _, name := range names {
		header = append(header, strings.ToUpper(name))
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))

	failed := 0
	for _, pt := range points {
		row := make([]string, 0, len(header))
		for _, axis := range s.Axes {
			row = append(row, fmt.Sprintf("%g", pt.Params[axis.Name]))
		}
		if pt.Err != nil {
			failed++
			row = append(row, "error: "+pt.Err.Error())
		} else {
			for _, name := range names {
				row = append(row, fmt.Sprintf("%.4g", pt.Metrics[name]))
			}
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		logger.Warn("some sweep points failed", "failed", failed, "total", len(points))
	}

	if sweepBest != "" {
		best, ok := sweep.Best(points, sweepBest)
		if !ok {
			return fmt.Errorf("no successful point reports metric %q", sweepBest)
		}
		fmt.Println()
		fmt.Println(titleStyle.Render("best " + sweepBest))
		for _, axis := range s.Axes {
			fmt.Println(viz.Field(axis.Name, fmt.Sprintf("%g", best.Params[axis.Name])))
		}
		fmt.Println(viz.Field(sweepBest, fmt.Sprintf("%.6g", best.Metrics[sweepBest])))
	}
	return nil
}

func resolveRun(args []string) (*storage.Store, string, error) {
	st := storage.New(dataDir)
	id := ""
	if len(args) > 0 {
		id = args[0]
	}
	id, err := st.Resolve(id)
	if err != nil {
		return nil, "", err
	}
	return st, id, nil
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
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tDURATION\tDT\tINTEG\tSTEPS")

	for _, run := range runs {
		preset := run.Preset
		if preset == "" {
			preset = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%d\n",
			run.ID,
			preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Steps,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st, id, err := resolveRun(args)
	if err != nil {
		return err
	}

	meta, traj, err := st.LoadTrajectory(id)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n\n", meta.ID)

	series := []struct {
		caption string
		index   int
	}{
		{"theta (rad)", physics.Theta},
		{"spring length (m)", physics.Length},
	}
	for _, s := range series {
		graph := asciigraph.Plot(traj.Column(s.index),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st, id, err := resolveRun(args)
	if err != nil {
		return err
	}

	meta, traj, err := st.LoadTrajectory(id)
	if err != nil {
		return err
	}
	if traj.Len() < 2 {
		return fmt.Errorf("run %s: not enough samples", id)
	}

	p := physics.NewElasticPendulum()
	for name, v := range meta.Params {
		if err := p.SetParam(name, v); err != nil {
			logger.Warn("ignoring stored parameter", "name", name, "err", err)
		}
	}

	thetaSeries := traj.Column(physics.Theta)
	events := analysis.Turnarounds(traj.Column(physics.ThetaDot))

	fmt.Println(titleStyle.Render("analysis: " + meta.ID))
	fmt.Println(viz.Field("turnarounds", fmt.Sprintf("%d", len(events))))
	if period := analysis.MeanPeriod(events, traj.Dt); period > 0 {
		fmt.Println(viz.Field("swing period", fmt.Sprintf("%.3f s", period)))
	}
	if period := analysis.DominantPeriod(thetaSeries, traj.Dt); period > 0 {
		fmt.Println(viz.Field("fft period", fmt.Sprintf("%.3f s", period)))
	}
	if period := analysis.DominantPeriod(traj.Column(physics.Length), traj.Dt); period > 0 {
		fmt.Println(viz.Field("spring period", fmt.Sprintf("%.3f s", period)))
	}
	fmt.Println(mutedStyle.Render(fmt.Sprintf("small oscillation: pendulum %.3f s, spring %.3f s",
		p.PendulumPeriod(), p.SpringPeriod())))
	fmt.Println()

	ps := analysis.PowerSpectrum(thetaSeries)
	if len(ps) > 8 {
		graph := asciigraph.Plot(ps[:len(ps)/4],
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("power spectrum (theta)"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	fmt.Println(mutedStyle.Render("phase portrait (theta, dtheta/dt)"))
	fmt.Println(analysis.PointsToASCII(analysis.PhasePortrait(traj, physics.Theta, physics.ThetaDot), 60, 20))
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st, id, err := resolveRun(args)
	if err != nil {
		return err
	}
	return st.ExportCSV(os.Stdout, id)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st, id, err := resolveRun(args)
	if err != nil {
		return err
	}
	return st.ExportJSON(os.Stdout, id)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st, id, err := resolveRun(args)
	if err != nil {
		return err
	}

	_, traj, err := st.LoadTrajectory(id)
	if err != nil {
		return err
	}

	svg := export.PathToSVG(analysis.CartesianPath(traj), 600, 600, "#e63946")
	if outPath == "" {
		fmt.Print(svg)
		return nil
	}
	if err := os.WriteFile(outPath, []byte(svg), 0644); err != nil {
		return err
	}
	logger.Info("svg written", "path", outPath)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tK\tM\tTHETA0\tLENGTH0\tT_MAX")
	for _, name := range config.ListPresets() {
		c := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%g\t%g\t%.3f\t%g\t%g\n",
			name, c.Physics.Stiffness, c.Physics.Mass, c.InitState.Theta, c.InitState.Length, c.Sim.TMax)
	}
	return w.Flush()
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Println(viz.Field("config", args[0]))
	return nil
}
