package cmd

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/delivery-sim/delivery-sim/sim"
	"github.com/delivery-sim/delivery-sim/sim/scenario"
)

var (
	// CLI flags for the simulation run
	scenarioPath string  // Optional YAML scenario file
	logLevel     string  // Log verbosity level
	seed         int64   // Master seed for deterministic runs
	durationMs   int64   // Simulation duration (in ms of virtual time)
	fragmentSize int     // Fragment size in bytes
	paceRateBps  int64   // Target pacing rate (bits/s)
	linkRateBps  int64   // Modeled link rate (bits/s)
	linkDelayMs  int64   // Link propagation delay (ms)
	threshold    float64 // Classification distance threshold
	fallback     string  // Fallback class name (empty = drop uncertain payloads)
	unresolved   float64 // Probability of an unresolved classification
	uncertain    float64 // Probability of an uncertain classification
	payloadSize  int     // Synthetic payload size in bytes
	perClass     int     // Payloads submitted per class
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "delivery-sim",
	Short: "Discrete-event simulator for classification-driven content delivery",
}

// runCmd executes the simulation using parameters from CLI flags or a
// scenario file. Flags fill a synthetic scenario; --scenario replaces
// it wholesale.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the delivery simulation",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		spec := flagSpec()
		if scenarioPath != "" {
			spec, err = scenario.Load(scenarioPath)
			if err != nil {
				logrus.Fatalf("Unable to load scenario: %v", err)
			}
		} else {
			spec.ApplyDefaults()
			if err := spec.Validate(); err != nil {
				logrus.Fatalf("Invalid configuration: %v", err)
			}
		}

		cfg, err := spec.Config()
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}

		logrus.Infof("Starting simulation: %d-byte fragments paced at %d bits/s, horizon=%d ticks, seed=%d",
			cfg.FragmentSize, cfg.PaceRateBps, cfg.Horizon, spec.Seed)

		startTime := time.Now()

		s := sim.NewSimulator(cfg.Horizon)
		rng := sim.NewPartitionedRNG(spec.Seed)
		classifier := sim.NewSimulatedClassifier(
			rng.ForSubsystem(sim.SubsystemClassifier), spec.UnresolvedRate, spec.UncertainRate)
		orch, err := sim.NewOrchestrator(s, cfg, classifier, sim.NewNetwork(s), sim.NewTracker())
		if err != nil {
			logrus.Fatalf("Unable to set up simulation: %v", err)
		}

		subs, err := scenario.BuildSubmissions(spec)
		if err != nil {
			logrus.Fatalf("Unable to build workload: %v", err)
		}
		for _, sub := range subs {
			orch.SubmitAt(sub.Data, sub.At)
		}

		s.Run()
		orch.CancelPending()
		orch.PrintReport()

		logrus.Infof("Simulation complete in %v.", time.Since(startTime))
	},
}

// flagSpec builds a scenario spec from the individual CLI flags.
func flagSpec() *scenario.Spec {
	spec := &scenario.Spec{
		Seed:                seed,
		DurationMs:          durationMs,
		FragmentSize:        fragmentSize,
		PaceRateBps:         paceRateBps,
		LinkRateBps:         linkRateBps,
		LinkDelayMs:         linkDelayMs,
		ConfidenceThreshold: threshold,
		FallbackClass:       fallback,
		UnresolvedRate:      unresolved,
		UncertainRate:       uncertain,
	}
	for i, class := range sim.Classes {
		spec.Payloads = append(spec.Payloads, scenario.PayloadSpec{
			Class:     class.String(),
			Size:      payloadSize,
			Count:     perClass,
			StartMs:   2_000 + int64(i)*500,
			StaggerMs: 100,
		})
	}
	return spec
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "YAML scenario file (overrides the other workload flags)")
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Master seed for deterministic runs")

	runCmd.Flags().Int64Var(&durationMs, "duration-ms", 10_000, "Simulation duration in virtual milliseconds")
	runCmd.Flags().IntVar(&fragmentSize, "fragment-size", 1024, "Fragment size in bytes")
	runCmd.Flags().Int64Var(&paceRateBps, "rate", 1_000_000, "Target pacing rate in bits/s")
	runCmd.Flags().Int64Var(&linkRateBps, "link-rate", 5_000_000, "Modeled link rate in bits/s")
	runCmd.Flags().Int64Var(&linkDelayMs, "link-delay-ms", 2, "Link propagation delay in ms")

	runCmd.Flags().Float64Var(&threshold, "threshold", 100.0, "Classification distance threshold (lower distance = more confident)")
	runCmd.Flags().StringVar(&fallback, "fallback", "", "Fallback class for uncertain payloads (empty = drop)")
	runCmd.Flags().Float64Var(&unresolved, "unresolved-rate", 0.0, "Probability a payload yields no detectable subject")
	runCmd.Flags().Float64Var(&uncertain, "uncertain-rate", 0.0, "Probability a classification fails the threshold")

	runCmd.Flags().IntVar(&payloadSize, "payload-size", 50_000, "Synthetic payload size in bytes")
	runCmd.Flags().IntVar(&perClass, "payloads-per-class", 1, "Payloads submitted per class")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
