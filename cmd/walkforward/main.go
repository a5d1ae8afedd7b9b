// Package main provides the walk-forward analysis CLI.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/walkforward/internal/config"
	"github.com/yourusername/walkforward/internal/database"
	"github.com/yourusername/walkforward/internal/ingest"
	"github.com/yourusername/walkforward/internal/logger"
	"github.com/yourusername/walkforward/internal/metrics"
	"github.com/yourusername/walkforward/internal/repository"
	"github.com/yourusername/walkforward/internal/scheduler"
	"github.com/yourusername/walkforward/internal/stats"
	"github.com/yourusername/walkforward/internal/walkforward"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	tradesFile string
	blockID    string
	outputPath string
	saveResult bool

	appLogger *logrus.Logger
	cfg       *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	runCmd.Flags().StringVarP(&tradesFile, "trades", "t", "", "Path to trade log CSV")
	runCmd.Flags().StringVarP(&blockID, "block-id", "b", "", "Trade log block ID (generated when omitted)")
	runCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Optional path for a JSON results export")
	runCmd.Flags().BoolVar(&saveResult, "save", false, "Persist the analysis to the configured store")
	listCmd.Flags().StringVarP(&blockID, "block-id", "b", "", "Trade log block ID")
	scheduleCmd.Flags().StringVarP(&tradesFile, "trades", "t", "", "Path to trade log CSV")
	scheduleCmd.Flags().StringVarP(&blockID, "block-id", "b", "", "Trade log block ID (generated when omitted)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(versionCmd)
}

var rootCmd = &cobra.Command{
	Use:   "walkforward",
	Short: "Walk-forward validation for options-trading logs",
	Long:  `Runs rolling train/test parameter optimization over a historical trade log and scores how well the selected parameters generalize out-of-sample.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadWithDefaults(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := config.Validate(loaded); err != nil {
			return err
		}
		cfg = loaded
		appLogger = logger.NewLogger(cfg.App.LogLevel)
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a walk-forward analysis over a trade log CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		if tradesFile == "" {
			return fmt.Errorf("--trades is required")
		}
		return runAnalysis(cmd.Context())
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved analyses for a trade log",
	RunE: func(cmd *cobra.Command, args []string) error {
		if blockID == "" {
			return fmt.Errorf("--block-id is required")
		}
		return listAnalyses(cmd.Context())
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Periodically re-run the analysis on a cron schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		if tradesFile == "" {
			return fmt.Errorf("--trades is required")
		}
		if !cfg.Scheduler.Enabled {
			return fmt.Errorf("scheduled re-analysis requires scheduler.enabled in %s", configFile)
		}
		return runScheduled(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("walkforward %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func runAnalysis(ctx context.Context) error {
	block, err := resolveBlockID()
	if err != nil {
		return err
	}

	trades, err := ingest.ReadTradesFile(tradesFile, block)
	if err != nil {
		return fmt.Errorf("failed to load trades: %w", err)
	}
	appLogger.WithFields(logrus.Fields{"trades": len(trades), "block_id": block}).Info("Loaded trade log")

	if cfg.Metrics.Enabled {
		startMetricsServer()
	}

	evaluator := stats.NewCalculator(cfg.Analysis.InitialCapital)
	runner, err := walkforward.NewRunner(evaluator,
		walkforward.WithLogger(appLogger),
		walkforward.WithWorkers(cfg.Analysis.Workers),
		walkforward.WithProgress(func(percent float64, step string) {
			appLogger.WithField("percent", fmt.Sprintf("%.0f", percent)).Info(step)
		}),
	)
	if err != nil {
		return err
	}

	analysis, err := runner.Run(ctx, block, trades, cfg.Analysis.ToWalkForwardConfig())
	if err != nil {
		return err
	}

	fmt.Print(walkforward.GenerateConsoleReport(analysis))

	if outputPath != "" {
		if err := walkforward.ExportJSON(analysis, outputPath); err != nil {
			return fmt.Errorf("failed to export results: %w", err)
		}
		appLogger.WithField("path", outputPath).Info("Exported results")
	}

	if saveResult {
		repo, cleanup, err := buildRepository(ctx)
		if err != nil {
			return err
		}
		defer cleanup()
		if err := repo.Save(ctx, analysis); err != nil {
			return fmt.Errorf("failed to persist analysis: %w", err)
		}
		appLogger.WithField("analysis_id", analysis.ID).Info("Saved analysis")
	}

	return nil
}

func runScheduled(ctx context.Context) error {
	block, err := resolveBlockID()
	if err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		startMetricsServer()
	}

	var repo repository.AnalysisRepository
	if cfg.Database.Enabled {
		var cleanup func()
		repo, cleanup, err = buildRepository(ctx)
		if err != nil {
			return err
		}
		defer cleanup()
	}

	evaluator := stats.NewCalculator(cfg.Analysis.InitialCapital)
	runner, err := walkforward.NewRunner(evaluator,
		walkforward.WithLogger(appLogger),
		walkforward.WithWorkers(cfg.Analysis.Workers),
	)
	if err != nil {
		return err
	}

	// The trade log is re-read on every tick so new rows in the export
	// are picked up without restarting.
	reanalyze := func(jobCtx context.Context, jobBlock uuid.UUID) error {
		trades, err := ingest.ReadTradesFile(tradesFile, jobBlock)
		if err != nil {
			return fmt.Errorf("failed to load trades: %w", err)
		}
		analysis, err := runner.Run(jobCtx, jobBlock, trades, cfg.Analysis.ToWalkForwardConfig())
		if err != nil {
			return err
		}
		if repo != nil {
			return repo.Save(jobCtx, analysis)
		}
		fmt.Print(walkforward.GenerateConsoleReport(analysis))
		return nil
	}

	sched := scheduler.NewScheduler(appLogger)
	if err := sched.ScheduleReanalysis(cfg.Scheduler.ReanalyzeCron, block, reanalyze); err != nil {
		return err
	}
	if err := sched.Start(); err != nil {
		return err
	}
	appLogger.WithFields(logrus.Fields{
		"block_id": block,
		"cron":     cfg.Scheduler.ReanalyzeCron,
	}).Info("Scheduler started, press Ctrl+C to stop")

	waitCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-waitCtx.Done()

	sched.Stop()
	appLogger.Info("Scheduler stopped")
	return nil
}

func listAnalyses(ctx context.Context) error {
	block, err := uuid.Parse(blockID)
	if err != nil {
		return fmt.Errorf("invalid block ID: %w", err)
	}

	repo, cleanup, err := buildRepository(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	analyses, err := repo.GetAllByBlockID(ctx, block)
	if err != nil {
		return fmt.Errorf("failed to load analyses: %w", err)
	}

	if len(analyses) == 0 {
		fmt.Println("No analyses found")
		return nil
	}
	for _, analysis := range analyses {
		fmt.Printf("%s  created=%s periods=%d robustness=%.4f\n",
			analysis.ID,
			analysis.CreatedAt.Format(time.RFC3339),
			analysis.Results.Stats.EvaluatedPeriods,
			analysis.Results.Summary.RobustnessScore,
		)
	}
	return nil
}

func resolveBlockID() (uuid.UUID, error) {
	if blockID == "" {
		return uuid.New(), nil
	}
	block, err := uuid.Parse(blockID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid block ID: %w", err)
	}
	return block, nil
}

func buildRepository(ctx context.Context) (repository.AnalysisRepository, func(), error) {
	if !cfg.Database.Enabled {
		return nil, nil, fmt.Errorf("persistence requires database.enabled in %s", configFile)
	}
	db, err := database.NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	ttl := time.Duration(cfg.Database.CacheTTLSeconds) * time.Second
	repo := repository.NewCachedAnalysisRepository(repository.NewPostgresAnalysisRepository(db), ttl)
	return repo, db.Close, nil
}

func startMetricsServer() {
	addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, metrics.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			appLogger.WithError(err).Warn("Metrics server stopped")
		}
	}()
	appLogger.WithField("addr", addr).Info("Serving Prometheus metrics")
}
