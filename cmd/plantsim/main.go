package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/plantsim/plantsim/internal/config"
	"github.com/plantsim/plantsim/internal/optim"
	"github.com/plantsim/plantsim/internal/registry"
	"github.com/plantsim/plantsim/internal/sim"
	"github.com/plantsim/plantsim/internal/store"
	"github.com/plantsim/plantsim/internal/tui"
	"github.com/plantsim/plantsim/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	verbose    bool
	// run overrides
	dt     float64
	hours  float64
	method string
	// plot selection
	plotNode string
	plotKey  string
	// export options
	exportFormat string
	exportOut    string
	// calibration
	calNode    string
	calParams  []string
	calTargets []string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "plantsim",
		Short: "wastewater treatment plant simulator",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".plantsim", "data directory")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "verbose logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a plant simulation",
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "plant layout file (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use a named preset layout")
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep, hours")
	runCmd.Flags().Float64Var(&hours, "hours", config.DefaultDuration, "simulated window, hours")
	runCmd.Flags().StringVar(&method, "solver", "rk4", "integration method")

	validateCmd := &cobra.Command{
		Use:   "validate [config]",
		Short: "check a plant layout without running it",
		Args:  cobra.ExactArgs(1),
		RunE:  validateConfig,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in plant layouts",
		RunE:  listPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run metadata and indicators",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run series",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotNode, "node", "", "node to plot (default: last in the layout)")
	plotCmd.Flags().StringVar(&plotKey, "component", "flowrate", "component id, or flowrate/temperature")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run records",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "csv, json or parquet")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output path (default: stdout; required for parquet)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run with a live dashboard",
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&configFile, "config", "", "plant layout file (yaml)")
	liveCmd.Flags().StringVar(&preset, "preset", "", "use a named preset layout")
	liveCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep, hours")
	liveCmd.Flags().Float64Var(&hours, "hours", config.DefaultDuration, "simulated window, hours")
	liveCmd.Flags().StringVar(&method, "solver", "rk4", "integration method")

	calibrateCmd := &cobra.Command{
		Use:   "calibrate",
		Short: "grid-search model coefficients against effluent targets",
		RunE:  calibrate,
	}
	calibrateCmd.Flags().StringVar(&configFile, "config", "", "plant layout file (yaml)")
	calibrateCmd.Flags().StringVar(&preset, "preset", "", "use a named preset layout")
	calibrateCmd.Flags().StringVar(&calNode, "node", "", "node to calibrate (default: first in the layout)")
	calibrateCmd.Flags().StringArrayVar(&calParams, "param", nil, "grid spec name=min:max:steps (repeatable)")
	calibrateCmd.Flags().StringArrayVar(&calTargets, "target", nil, "effluent target key=value (repeatable)")

	rootCmd.AddCommand(runCmd, validateCmd, presetsCmd, listCmd, showCmd, plotCmd, exportCmd, liveCmd, calibrateCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func logger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig resolves the layout from --config or --preset, applies
// flag overrides, and validates it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	default:
		cfg = config.DefaultConfig()
	}

	if cmd.Flags().Changed("dt") {
		cfg.Time.Dt = dt
	}
	if cmd.Flags().Changed("hours") {
		cfg.Time.End = cfg.Time.Start + hours
	}
	if cmd.Flags().Changed("solver") {
		cfg.Solver.Method = method
	}
	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, w := range cfg.Warnings() {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	net, err := sim.BuildNetwork(cfg, registry.NewRegistry())
	if err != nil {
		return err
	}
	orch := sim.New(net, sim.DefaultKPIs(net), logger())

	fmt.Printf("running %s...\n", cfg.Name)
	start := time.Now()
	res, runErr := orch.Run(context.Background(), sim.Window(cfg))
	elapsed := time.Since(start)

	if res == nil {
		return runErr
	}

	st, err := store.Open(dataDir)
	if err != nil {
		return err
	}
	defer st.Close()
	runID, err := st.SaveRun(context.Background(), cfg, res, runErr)
	if err != nil {
		return err
	}

	if runErr != nil {
		fmt.Printf("aborted after %d steps: %v\n", res.Steps, runErr)
	} else {
		fmt.Printf("completed in %v\n", elapsed)
	}
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", res.Steps)
	if len(res.KPIs) > 0 {
		fmt.Println("\nindicators:")
		names := make([]string, 0, len(res.KPIs))
		for name := range res.KPIs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %s: %.4f\n", name, res.KPIs[name])
		}
	}
	return runErr
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	for _, w := range cfg.Warnings() {
		fmt.Printf("warning: %s\n", w)
	}
	// a dry graph build catches cycles and dangling edges
	if _, err := sim.BuildNetwork(cfg, registry.NewRegistry()); err != nil {
		return err
	}
	fmt.Printf("%s: ok (%d nodes, %d edges)\n", cfg.Name, len(cfg.Nodes), len(cfg.Edges))
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tNODES\tHOURS\tDT")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%.0f\t%.2f\n", name, len(cfg.Nodes), cfg.Time.End-cfg.Time.Start, cfg.Time.Dt)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := store.Open(dataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List(context.Background())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tHOURS\tDT\tSOLVER\tSTEPS\tSTATUS")
	for _, run := range runs {
		status := "completed"
		if run.Aborted {
			status = "aborted"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.0f\t%.2f\t%s\t%d\t%s\n",
			run.ID, run.Name, run.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			run.End-run.Start, run.Dt, run.Solver, run.Steps, status)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st, err := store.Open(dataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.LoadRun(context.Background(), args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func plotRun(cmd *cobra.Command, args []string) error {
	st, err := store.Open(dataDir)
	if err != nil {
		return err
	}
	defer st.Close()
	ctx := context.Background()

	node := plotNode
	if node == "" {
		nodes, err := st.Nodes(ctx, args[0])
		if err != nil {
			return err
		}
		if len(nodes) == 0 {
			return fmt.Errorf("no records for run %s", args[0])
		}
		node = nodes[len(nodes)-1]
	}

	recs, err := st.LoadRecords(ctx, args[0], node)
	if err != nil {
		return err
	}
	hist := &sim.History{}
	for _, r := range recs {
		hist.Append(r)
	}
	_, values := hist.Series(node, plotKey)
	if len(values) == 0 {
		return fmt.Errorf("no data for node %s", node)
	}

	fmt.Printf("run: %s\n", args[0])
	fmt.Printf("samples: %d\n\n", len(values))
	fmt.Println(viz.Series(values, fmt.Sprintf("%s @ %s vs time", plotKey, node)))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st, err := store.Open(dataDir)
	if err != nil {
		return err
	}
	defer st.Close()
	ctx := context.Background()

	meta, err := st.LoadRun(ctx, args[0])
	if err != nil {
		return err
	}
	recs, err := st.LoadRecords(ctx, args[0], "")
	if err != nil {
		return err
	}

	if exportFormat == "parquet" {
		out := exportOut
		if out == "" {
			out = args[0] + ".parquet"
		}
		if err := store.ExportParquet(out, recs); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", out)
		return nil
	}

	w := os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	switch exportFormat {
	case "csv":
		return store.ExportCSV(w, recs)
	case "json":
		return store.ExportJSON(w, meta, recs)
	default:
		return fmt.Errorf("unknown format: %s", exportFormat)
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	net, err := sim.BuildNetwork(cfg, registry.NewRegistry())
	if err != nil {
		return err
	}
	orch := sim.New(net, nil, logger())
	stepper, err := orch.Stepper(sim.Window(cfg))
	if err != nil {
		return err
	}

	nodes := net.Graph.Order()[1:]
	p := tea.NewProgram(tui.New(cfg.Name, nodes, stepper))
	_, err = p.Run()
	return err
}

func calibrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(calParams) == 0 {
		return fmt.Errorf("at least one --param name=min:max:steps is required")
	}
	if len(calTargets) == 0 {
		return fmt.Errorf("at least one --target key=value is required")
	}

	node := calNode
	if node == "" {
		node = cfg.Nodes[0].ID
	}

	names := make([]string, 0, len(calParams))
	ranges := make([][]float64, 0, len(calParams))
	for _, spec := range calParams {
		name, grid, err := parseGrid(spec)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, grid)
	}

	targets := make(map[string]float64, len(calTargets))
	for _, spec := range calTargets {
		key, val, err := parsePair(spec)
		if err != nil {
			return err
		}
		targets[key] = val
	}

	total := 1
	for _, r := range ranges {
		total *= len(r)
	}
	fmt.Printf("calibrating %s over %d candidates...\n", node, total)
	start := time.Now()

	gs := optim.NewGridSearch(node, names, ranges, logger())
	best, score, err := gs.Search(context.Background(), cfg, registry.NewRegistry(), optim.EffluentTarget(node, targets))
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("best score: %.6f\n", score)
	fmt.Println("best params:")
	bestNames := make([]string, 0, len(best))
	for name := range best {
		bestNames = append(bestNames, name)
	}
	sort.Strings(bestNames)
	for _, name := range bestNames {
		fmt.Printf("  %s: %.4f\n", name, best[name])
	}
	return nil
}

// parseGrid expands "mu_h=4:8:5" into five evenly spaced candidates.
func parseGrid(spec string) (string, []float64, error) {
	name, rest, ok := strings.Cut(spec, "=")
	if !ok {
		return "", nil, fmt.Errorf("bad param spec %q, want name=min:max:steps", spec)
	}
	parts := strings.Split(rest, ":")
	if len(parts) != 3 {
		return "", nil, fmt.Errorf("bad param spec %q, want name=min:max:steps", spec)
	}
	min, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, fmt.Errorf("bad param spec %q: %w", spec, err)
	}
	max, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", nil, fmt.Errorf("bad param spec %q: %w", spec, err)
	}
	steps, err := strconv.Atoi(parts[2])
	if err != nil || steps < 1 {
		return "", nil, fmt.Errorf("bad param spec %q: steps must be a positive integer", spec)
	}

	grid := make([]float64, steps)
	if steps == 1 {
		grid[0] = min
	} else {
		for i := range grid {
			grid[i] = min + (max-min)*float64(i)/float64(steps-1)
		}
	}
	return name, grid, nil
}

func parsePair(spec string) (string, float64, error) {
	key, rest, ok := strings.Cut(spec, "=")
	if !ok {
		return "", 0, fmt.Errorf("bad target %q, want key=value", spec)
	}
	val, err := strconv.ParseFloat(rest, 64)
	if err != nil {
		return "", 0, fmt.Errorf("bad target %q: %w", spec, err)
	}
	return key, val, nil
}
