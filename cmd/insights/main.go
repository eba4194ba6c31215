package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gstewart/log-insights-go/internal/accesslog"
	"github.com/gstewart/log-insights-go/internal/config"
	"github.com/gstewart/log-insights-go/internal/errorlog"
	"github.com/gstewart/log-insights-go/internal/insight"
	"github.com/gstewart/log-insights-go/internal/logging"
	"github.com/gstewart/log-insights-go/internal/notification"
	"github.com/gstewart/log-insights-go/internal/pipeline"
	"github.com/gstewart/log-insights-go/internal/report"
	"github.com/gstewart/log-insights-go/internal/storage"
	"github.com/gstewart/log-insights-go/pkg/logger"
)

const (
	exitSuccess = 0
	exitFailure = 1
)

// Version information - injected at build time via ldflags
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Parse CLI arguments first
	cli := config.ParseCLI()

	// Handle -help flag
	if cli.ShowHelp {
		config.PrintUsage()
		return exitSuccess
	}

	// Handle -version flag
	if cli.ShowVersion {
		fmt.Printf("log-insights %s\n", version)
		if gitCommit != "unknown" {
			fmt.Printf("  commit: %s\n", gitCommit)
		}
		if buildTime != "unknown" {
			fmt.Printf("  built:  %s\n", buildTime)
		}
		return exitSuccess
	}

	// Handle -stats flag (read-only, no analysis config needed)
	if cli.ShowStats {
		return runStats()
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Load configuration with CLI overrides
	cfg, err := config.LoadWithCLI(cli)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return exitFailure
	}

	// Initialize logger with credential sanitization
	baseLog := logger.New(logger.Config{
		Level:      cfg.LogLevel,
		LogDir:     "./logs",
		Filename:   "insights.log",
		MaxSizeMB:  10,
		MaxBackups: 5,
		Console:    false,
	})
	log := logging.NewSecure(baseLog)
	defer func() {
		if err := log.Close(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to close logger: %v\n", err)
		}
	}()

	log.Info().Str("log_type", cfg.LogType).Int("num_grams", cfg.NumGrams).Msg("Starting the Get Log Insights application")

	if err := runInsights(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("Analysis failed")
		_, _ = fmt.Fprintf(os.Stderr, "Analysis failed: %v\n", err)
		return exitFailure
	}

	log.Info().Msg("Analysis completed successfully")
	return exitSuccess
}

// runStats prints the run history statistics and exits.
func runStats() int {
	settings := config.LoadStorageSettings()
	if !settings.Enabled {
		_, _ = fmt.Fprintln(os.Stderr, "Run history is disabled (ENABLE_DATABASE=false)")
		return exitFailure
	}

	store, err := storage.New(settings.DatabasePath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to open run history database: %v\n", err)
		return exitFailure
	}
	defer func() {
		_ = store.Close()
	}()

	stats, err := store.GetStatistics()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to read statistics: %v\n", err)
		return exitFailure
	}
	runs, err := store.GetRecentRuns(settings.RetentionDays, "")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to read recent runs: %v\n", err)
		return exitFailure
	}

	report.WriteStats(os.Stdout, stats, runs)
	return exitSuccess
}

func runInsights(ctx context.Context, cfg *config.Config, log *logging.SecureLogger) error {
	// 1. Initialize storage (if enabled)
	var store *storage.Storage
	var err error

	if cfg.EnableDatabase {
		store, err = storage.New(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer func(store *storage.Storage) {
			err = store.Close()
			if err != nil {
				log.Warn().Err(err).Msg("Failed to close database")
			}
		}(store)
		log.Info().Str("path", cfg.DatabasePath).Msg("Database initialized")
	}

	// 2. Resolve the log handler for the configured type
	registry := insight.NewRegistry()
	if err := registry.Register(insight.LogTypeApacheError, errorlog.NewHandler()); err != nil {
		return fmt.Errorf("failed to register error log handler: %w", err)
	}
	if err := registry.Register(insight.LogTypeApacheAccess, accesslog.NewHandler()); err != nil {
		return fmt.Errorf("failed to register access log handler: %w", err)
	}

	logType, err := insight.ParseLogType(cfg.LogType)
	if err != nil {
		return err
	}
	handler, ok := registry.Get(logType)
	if !ok {
		return fmt.Errorf("no handler registered for log type %q", logType)
	}

	// 3. Discover and analyze the log files
	p := pipeline.New(logType, handler, cfg.NumGrams, cfg.ResultLimit, cfg.MaxLogSizeMB)

	paths, err := p.Discover(cfg.InputDir)
	if err != nil {
		return err
	}
	log.Info().Int("files", len(paths)).Str("input_dir", cfg.InputDir).Msg("Identified files for parsing")

	// File count goes out before parsing starts, so slow runs show progress
	report.WriteDiscovery(os.Stdout, len(paths))

	result, err := p.Run(ctx, paths)
	if err != nil {
		return err
	}
	log.Info().
		Int("records", result.RecordCount).
		Int("grams", len(result.TopGrams)).
		Float64("duration_s", result.Duration.Seconds()).
		Msg("Scoring completed")

	// 4. Print the record count and the ranked table
	report.WriteRecordCount(os.Stdout, result.RecordCount)
	report.WriteTable(os.Stdout, result)

	// 5. Save run history (if enabled)
	if store != nil {
		run := &storage.RunRecord{
			Timestamp:       time.Now(),
			LogType:         string(result.LogType),
			GramSize:        result.GramSize,
			InputDir:        cfg.InputDir,
			FileCount:       result.FileCount,
			RecordCount:     result.RecordCount,
			DurationSeconds: result.Duration.Seconds(),
			TopGrams:        result.TopGrams,
		}
		if err := store.SaveRun(run); err != nil {
			log.Warn().Err(err).Msg("Failed to save run to database")
		} else {
			log.Info().Int64("id", run.ID).Msg("Run saved to database")
		}

		deleted, err := store.CleanupOldRuns(cfg.HistoryRetentionDays)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to cleanup old runs")
		} else if deleted > 0 {
			log.Info().Int64("deleted", deleted).Msg("Old runs cleaned up")
		}
	}

	// 6. Push the report to Telegram (if configured)
	if cfg.HasTelegram() {
		telegramClient, err := notification.NewTelegramClient(cfg.TelegramBotToken, cfg.TelegramChannelID)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Telegram client")
			return nil
		}
		defer func(telegramClient *notification.TelegramClient) {
			if err := telegramClient.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close Telegram client")
			}
		}(telegramClient)

		if err := telegramClient.SendRunReport(result); err != nil {
			log.Warn().Err(err).Msg("Failed to send Telegram notification")
		} else {
			log.Info().Msg("Report sent to Telegram")
		}
	}

	return nil
}
