package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/trafficsim/trafficsim/sim"
	"github.com/trafficsim/trafficsim/sim/observe"
	"github.com/trafficsim/trafficsim/sim/stage"
	"github.com/trafficsim/trafficsim/sim/trace"
)

var (
	// CLI flags for the run command
	stagePath        string  // Stage file (.yaml, .yml, .json, .hcl)
	maxPackets       int     // Packet pool capacity
	ticks            int     // Maximum number of ticks to simulate
	deltaMs          float64 // Virtual milliseconds per tick
	seed             int64   // Seed for spawn speed variance
	logLevel         string  // Log verbosity level
	traceLevel       string  // Decision trace level
	traceMaxRecords  int     // Cap on recorded decisions per list
	metricsOut       string  // Prometheus textfile output path
	otelTraceOut     string  // OpenTelemetry span output path
	resultsPath      string  // JSON results output path
	defaultsFilePath string  // Node spec overrides
	stopWhenDrained  bool    // Stop once all waves fired and no packet is left
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "trafficsim",
	Short: "Discrete-time simulator for request routing and admission control",
}

// runCmd executes a stage using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a stage through the traffic simulation",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level: %s (valid: none, decisions)", traceLevel)
		}
		if maxPackets < 0 {
			logrus.Fatalf("--max-packets must be >= 0, got %d", maxPackets)
		}
		if deltaMs <= 0 {
			logrus.Fatalf("--delta-ms must be > 0, got %g", deltaMs)
		}

		s, err := stage.LoadStage(stagePath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if !stage.WithinBudget(s) {
			logrus.Warnf("topology cost %d exceeds stage budget %d", stage.TopologyCost(s), s.Meta.Budget)
		}

		var applyOpts []stage.ApplyOption
		if cmd.Flags().Changed("defaults") {
			cfg, err := loadDefaultsConfig(defaultsFilePath)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			specs, err := cfg.NodeSpecs()
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			applyOpts = append(applyOpts, stage.WithNodeSpecs(specs))
		}

		engineCfg := sim.DefaultEngineConfig(maxPackets)
		engineCfg.Seed = seed
		engine := sim.NewEngineFromConfig(engineCfg, nil)

		director, err := stage.Apply(s, engine, applyOpts...)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		var decisions *trace.SimulationTrace
		if trace.TraceLevel(traceLevel) == trace.TraceLevelDecisions {
			decisions = trace.NewSimulationTrace(trace.TraceConfig{
				Level:      trace.TraceLevelDecisions,
				MaxRecords: traceMaxRecords,
			})
			engine.SetTracer(decisions)
		}

		var collector *observe.Collector
		if metricsOut != "" {
			collector, err = observe.NewCollector(prometheus.NewRegistry())
			if err != nil {
				logrus.Fatalf("metrics: %v", err)
			}
		}

		ctx := context.Background()
		shutdown, err := initTracing(ctx, otelTraceOut)
		if err != nil {
			logrus.Fatalf("tracing: %v", err)
		}
		defer shutdownWithTimeout(ctx, shutdown)

		logrus.Infof("Starting stage %q: %d nodes, %d waves, %d packet slots, %d ticks of %.1fms, seed=%d",
			s.Meta.Title, engine.NodeCount(), director.PendingWaves(), maxPackets, ticks, deltaMs, seed)

		startTime := time.Now()
		executed := runStage(ctx, engine, director, collector)
		logrus.Infof("Simulation finished: %d ticks in %s", executed, time.Since(startTime))

		result := newRunResult(s, engine, director, seed, executed)
		engine.Stats().Print(engine.ActiveCount(), result.RoundTrip)
		fmt.Printf("SLA                  : %.4f (target %.2f, met=%v)\n",
			result.Score.SuccessRate, result.Score.SLATarget, result.Score.MetSLA)
		fmt.Printf("Topology Cost        : %d (budget %d)\n", result.TopologyCost, s.Meta.Budget)

		if decisions != nil {
			printTraceSummary(trace.Summarize(decisions), decisions.Overflow)
		}
		if collector != nil {
			if err := collector.WriteTextfile(metricsOut); err != nil {
				logrus.Errorf("%v", err)
			}
		}
		if resultsPath != "" {
			if err := saveResults(result, resultsPath); err != nil {
				logrus.Errorf("%v", err)
			}
		}

		logrus.Info("Simulation complete.")
	},
}

// runStage drives the tick loop and returns the number of ticks executed.
func runStage(ctx context.Context, engine *sim.Engine, director *stage.Director, collector *observe.Collector) int {
	tracer := otel.Tracer(tracerName)
	_, span := tracer.Start(ctx, "stage.run", oteltrace.WithAttributes(
		attribute.String("stage.title", director.Stage().Meta.Title),
		attribute.Int("engine.max_packets", engine.MaxPackets()),
		attribute.Float64("tick.delta_ms", deltaMs),
	))
	defer span.End()

	executed := 0
	for executed < ticks {
		if fired := director.TriggerUntil(engine.CurrentTime()); fired > 0 {
			span.AddEvent("waves.fired", oteltrace.WithAttributes(
				attribute.Int("count", fired),
				attribute.Float64("clock_ms", engine.CurrentTime()),
			))
		}
		engine.Tick(deltaMs)
		executed++
		collector.Observe(engine)

		if stopWhenDrained && director.PendingWaves() == 0 &&
			engine.PendingSpawns() == 0 && engine.ActiveCount() == 0 {
			logrus.Infof("[t=%.0f] all waves drained", engine.CurrentTime())
			break
		}
	}

	stats := engine.Stats()
	span.SetAttributes(
		attribute.Int("packets.spawned", stats.Spawned),
		attribute.Int("packets.processed", stats.Processed),
		attribute.Int("packets.dropped", stats.Dropped),
		attribute.Int("packets.expired", stats.Expired),
		attribute.Int("ticks.executed", executed),
	)
	return executed
}

func printTraceSummary(ts *trace.TraceSummary, overflow int) {
	fmt.Println("=== Decision Trace ===")
	fmt.Printf("Admissions           : %d (served %d, queued %d, dropped %d, passed %d)\n",
		ts.TotalAdmissions, ts.ServedCount, ts.QueuedCount, ts.DroppedCount, ts.PassedCount)
	fmt.Printf("Routings             : %d (terminal %d, unique targets %d)\n",
		ts.TotalRoutings, ts.TerminalRoutings, ts.UniqueTargets)
	if overflow > 0 {
		fmt.Printf("Overflow             : %d records discarded\n", overflow)
	}
}

// validateCmd loads and validates stage files without simulating them
var validateCmd = &cobra.Command{
	Use:   "validate <stage-file>...",
	Short: "Validate stage files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logrus.SetLevel(logrus.WarnLevel)
		for _, path := range args {
			s, err := stage.LoadStage(path)
			if err != nil {
				return err
			}
			budget := "ok"
			if !stage.WithinBudget(s) {
				budget = "OVER BUDGET"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %q, %d nodes, %d waves, %d packets, cost %d/%d (%s)\n",
				path, s.Meta.Title, len(s.Map.FixedNodes), len(s.Waves), s.TotalPackets(),
				stage.TopologyCost(s), s.Meta.Budget, budget)
		}
		return nil
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&stagePath, "stage", "stages/tutorial.yaml", "Stage file (.yaml, .yml, .json or .hcl)")
	runCmd.Flags().IntVar(&maxPackets, "max-packets", 5000, "Packet pool capacity")
	runCmd.Flags().IntVar(&ticks, "ticks", 3750, "Maximum number of ticks to simulate")
	runCmd.Flags().Float64Var(&deltaMs, "delta-ms", 16, "Virtual milliseconds per tick")
	runCmd.Flags().Int64Var(&seed, "seed", sim.DefaultSeed, "Seed for spawn speed variance")
	runCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().BoolVar(&stopWhenDrained, "stop-when-drained", true, "Stop early once every wave fired and no packet is left")

	// Outputs
	runCmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Decision trace level (none, decisions)")
	runCmd.Flags().IntVar(&traceMaxRecords, "trace-max-records", 100000, "Max decision records per list (0 = unbounded)")
	runCmd.Flags().StringVar(&metricsOut, "metrics-out", "", "Write Prometheus metrics to this textfile")
	runCmd.Flags().StringVar(&otelTraceOut, "otel-trace", "", "Write OpenTelemetry spans as JSON to this file")
	runCmd.Flags().StringVar(&resultsPath, "results", "", "Write a JSON run summary to this file")
	runCmd.Flags().StringVar(&defaultsFilePath, "defaults", "defaults.yaml", "Node spec overrides (used only when the flag is set)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}
