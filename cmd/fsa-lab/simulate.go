package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fsa-anomaly-lab/internal/admin"
	"fsa-anomaly-lab/internal/config"
	"fsa-anomaly-lab/internal/logging"
	"fsa-anomaly-lab/internal/observability"
	"fsa-anomaly-lab/internal/scenario"
	"fsa-anomaly-lab/internal/sim"
	"fsa-anomaly-lab/internal/telemetry"
)

var (
	simConfigPath string
	simSchemaPath string
	simTick       string
	simNodes      int
	simSpeed      float64
	simSeed       int64
	simOutput     string
	simLogFile    string
	simAdminAddr  string
	simScenario   string
	simGreptime   string
	simPaused     bool
	simTrace      bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the real-time node simulator",
	Long:  "simulate ticks a fleet of FSA nodes, classifies anomalies and fans events out to the selected writers.",
	RunE:  runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.StringVar(&simConfigPath, "config", "", "Path to simulation configuration YAML (defaults when empty)")
	f.StringVar(&simSchemaPath, "schema", "schemas/simulation.cue", "Path to CUE schema file")
	f.StringVar(&simTick, "tick", "", "Tick interval (e.g. 250ms, 2s); overrides --speed")
	f.IntVar(&simNodes, "nodes", config.DefaultNodeCount, "Number of simulated nodes")
	f.Float64Var(&simSpeed, "speed", 1, "Speed multiplier (1x = one tick per second)")
	f.Int64Var(&simSeed, "seed", 0, "Deterministic RNG seed")
	f.StringVar(&simOutput, "output", defaultOutput(), "Display writer: tui, color or json")
	f.StringVar(&simLogFile, "log-file", "", "Export events as JSONL (trend and summary go to .trend and .summary)")
	f.StringVar(&simAdminAddr, "admin", "", "Admin HTTP address (default from config, \"off\" disables)")
	f.StringVar(&simScenario, "scenario", "", "Built-in scenario name or scenario YAML path")
	f.StringVar(&simGreptime, "greptime", "", "GreptimeDB endpoint host:port (default $"+envGreptimeEndpoint+")")
	f.BoolVar(&simPaused, "paused", false, "Start with the clock stopped (the TUI always starts stopped)")
	f.BoolVar(&simTrace, "trace", false, "Export tick spans to STDERR")
}

// loadConfig layers file, environment and flags, in that order.
func loadConfig(cmd *cobra.Command) (*config.SimulationConfig, error) {
	cfg := config.Default()
	if simConfigPath != "" {
		loaded, err := config.Load(simConfigPath, simSchemaPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("nodes") {
		cfg.NodeCount = simNodes
	}
	if flags.Changed("speed") {
		cfg.Speed = simSpeed
		cfg.TickInterval = ""
	}
	if flags.Changed("tick") {
		cfg.TickInterval = simTick
	}
	if flags.Changed("seed") {
		seed := simSeed
		cfg.Seed = &seed
	}
	if flags.Changed("scenario") {
		cfg.Scenario = simScenario
	}
	if flags.Changed("admin") {
		cfg.AdminAddr = simAdminAddr
	}
	if cfg.AdminAddr == "off" {
		cfg.AdminAddr = ""
	}
	return cfg, cfg.Validate()
}

func runSimulate(cmd *cobra.Command, args []string) error {
	log, closeLog, err := newLogger(simOutput)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.NewContext(ctx, log)

	tracing := observability.TracingConfigFromEnv()
	tracing.Enabled = tracing.Enabled || simTrace
	shutdownTracing, err := observability.InitTracing(ctx, tracing, log)
	if err != nil {
		return err
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	endpoint := simGreptime
	if endpoint == "" {
		endpoint = os.Getenv(envGreptimeEndpoint)
	}
	ws, cleanup, err := newWriters(ctx, cfg, simOutput, simLogFile, endpoint)
	if err != nil {
		return err
	}
	defer cleanup()

	simulator, err := sim.NewSimulator(cfg, ws.sink, nil, nil)
	if err != nil {
		return err
	}

	collector, err := observability.NewCollector(nil)
	if err != nil {
		return err
	}
	simulator.SetRecorder(collector)

	if cfg.Scenario != "" {
		src, err := scenarioSource(cfg)
		if err != nil {
			return err
		}
		simulator.SetEventSource(src)
		log.Info("scenario loaded", "scenario", src.Name(), "phase", src.Phase())
	}

	if cfg.AdminAddr != "" {
		srv := admin.NewServer(simulator, collector.Handler())
		go func() {
			if ws.tui != nil {
				ws.tui.SetAdminStatus(cfg.AdminAddr, true)
			}
			if err := srv.Start(ctx, cfg.AdminAddr); err != nil {
				log.Error("admin server failed", "err", err)
				if ws.tui != nil {
					ws.tui.SetAdminStatus(cfg.AdminAddr, false)
				}
			}
		}()
	}

	log.Info("simulation ready", "sim", simulator.String(), "output", simOutput)
	if ws.tui != nil || simPaused {
		<-ctx.Done()
		simulator.Stop()
	} else {
		simulator.Run(ctx)
	}
	log.Info("simulation stopped", "sim", simulator.String())
	return nil
}

func scenarioSource(cfg *config.SimulationConfig) (*scenario.Source, error) {
	sc, err := scenario.Lookup(cfg.Scenario)
	if err != nil {
		return nil, err
	}
	dists, err := cfg.EventDistributions()
	if err != nil {
		return nil, err
	}
	return scenario.NewSource(sc, telemetry.NewGenerator(dists)), nil
}
