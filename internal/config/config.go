// Package config loads and validates application configuration from CLI
// arguments, a .env file, and environment variables.
package config

import (
	"flag"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/gstewart/log-insights-go/internal/insight"
)

// CLIOptions holds command-line argument overrides
type CLIOptions struct {
	LogType     string // -log-type: the type of logs to analyze
	NumGrams    int    // -num-grams: the number n in n-grams
	InputDir    string // -input-dir: directory containing the log files
	ShowHelp    bool   // -help: show usage
	ShowVersion bool   // -version: show version
	ShowStats   bool   // -stats: show run history statistics
}

// ParseCLI parses command-line arguments and returns CLIOptions
func ParseCLI() *CLIOptions {
	opts := &CLIOptions{}

	flag.StringVar(&opts.LogType, "log-type", "",
		fmt.Sprintf("The type of logs to be analyzed. Currently supports: %v", insight.ValidLogTypes()))
	flag.IntVar(&opts.NumGrams, "num-grams", 0, "Number n in n-grams (default 5)")
	flag.StringVar(&opts.InputDir, "input-dir", "", "Directory containing the log files to analyze")
	flag.BoolVar(&opts.ShowHelp, "help", false, "Show usage information")
	flag.BoolVar(&opts.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&opts.ShowStats, "stats", false, "Show run history statistics and exit")

	// Custom usage message
	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Log Insights - statistically significant phrases from server logs\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nExamples:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  %s -log-type apache-error -num-grams 5 -input-dir /var/log/httpd\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "  %s -log-type apache-access -num-grams 3 -input-dir ./access-logs\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment variables can be set in .env file or exported directly.\n")
		_, _ = fmt.Fprintf(os.Stderr, "CLI arguments override environment variables.\n")
	}

	flag.Parse()

	return opts
}

// PrintUsage prints the command-line usage information
func PrintUsage() {
	flag.Usage()
}

// StorageSettings holds just the run-history settings, for read-only
// commands that never touch the analysis pipeline.
type StorageSettings struct {
	Enabled       bool
	DatabasePath  string
	RetentionDays int
}

// LoadStorageSettings loads the run-history settings from .env and
// environment variables. Unlike LoadWithCLI it performs no analysis
// validation, so it works without -log-type or -input-dir.
func LoadStorageSettings() StorageSettings {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	_ = godotenv.Load()
	setDefaults()

	return StorageSettings{
		Enabled:       viper.GetBool("ENABLE_DATABASE"),
		DatabasePath:  viper.GetString("DATABASE_PATH"),
		RetentionDays: viper.GetInt("HISTORY_RETENTION_DAYS"),
	}
}

// Config holds all application configuration
type Config struct {
	// Analysis
	LogType  string // "apache-error" or "apache-access"
	NumGrams int    // gram size n
	InputDir string // directory scanned for matching log files

	// Pipeline limits
	ResultLimit  int // number of top n-grams reported
	MaxLogSizeMB int // per-file size guard

	// Application
	LogLevel string

	// Run history
	EnableDatabase       bool
	DatabasePath         string
	HistoryRetentionDays int

	// Telegram (optional report push)
	TelegramBotToken  string
	TelegramChannelID int64
}

// Load loads configuration from .env file and environment variables
// Priority: .env file > OS environment variables
// For CLI overrides, use LoadWithCLI instead
func Load() (*Config, error) {
	return LoadWithCLI(nil)
}

// LoadWithCLI loads configuration with CLI argument overrides
// Priority: CLI args > .env file > OS environment variables
func LoadWithCLI(cli *CLIOptions) (*Config, error) {
	// Set up viper first to read OS environment variables
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Load .env file to override OS environment variables
	// godotenv.Load() sets OS env vars from .env, which viper will then read
	_ = godotenv.Load()

	// Set defaults
	setDefaults()

	config := &Config{
		LogType:  viper.GetString("LOG_TYPE"),
		NumGrams: viper.GetInt("NUM_GRAMS"),
		InputDir: viper.GetString("INPUT_DIR"),

		ResultLimit:  viper.GetInt("RESULT_LIMIT"),
		MaxLogSizeMB: viper.GetInt("MAX_LOG_SIZE_MB"),

		LogLevel: viper.GetString("LOG_LEVEL"),

		EnableDatabase:       viper.GetBool("ENABLE_DATABASE"),
		DatabasePath:         viper.GetString("DATABASE_PATH"),
		HistoryRetentionDays: viper.GetInt("HISTORY_RETENTION_DAYS"),

		TelegramBotToken:  viper.GetString("TELEGRAM_BOT_TOKEN"),
		TelegramChannelID: viper.GetInt64("TELEGRAM_CHANNEL_ID"),
	}

	// Apply CLI overrides (highest priority)
	if cli != nil {
		if cli.LogType != "" {
			config.LogType = cli.LogType
		}
		if cli.NumGrams != 0 {
			config.NumGrams = cli.NumGrams
		}
		if cli.InputDir != "" {
			config.InputDir = cli.InputDir
		}
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("NUM_GRAMS", 5)
	viper.SetDefault("RESULT_LIMIT", 10)
	viper.SetDefault("MAX_LOG_SIZE_MB", 50)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("ENABLE_DATABASE", true)
	viper.SetDefault("DATABASE_PATH", "./data/insights.db")
	viper.SetDefault("HISTORY_RETENTION_DAYS", 90)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate input directory (required, must exist)
	if c.InputDir == "" {
		return fmt.Errorf("input directory is required (use -input-dir /path/to/server/logs)")
	}
	if _, err := os.Stat(c.InputDir); os.IsNotExist(err) {
		return fmt.Errorf("the input directory at path %s does not seem to exist", c.InputDir)
	}

	// Validate log type
	if _, err := insight.ParseLogType(c.LogType); err != nil {
		return fmt.Errorf("log type is required (use -log-type <log_type>): %w", err)
	}

	// Validate gram size
	if c.NumGrams < 1 {
		return fmt.Errorf("NUM_GRAMS must be a positive integer (got: %d)", c.NumGrams)
	}

	// Validate result limit
	if c.ResultLimit < 1 {
		return fmt.Errorf("RESULT_LIMIT must be a positive integer (got: %d)", c.ResultLimit)
	}

	// Validate max log size
	if c.MaxLogSizeMB < 1 || c.MaxLogSizeMB > 1024 {
		return fmt.Errorf("MAX_LOG_SIZE_MB must be between 1 and 1024")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error")
	}

	// Validate retention
	if c.EnableDatabase && c.HistoryRetentionDays < 1 {
		return fmt.Errorf("HISTORY_RETENTION_DAYS must be at least 1")
	}

	// Validate Telegram settings (optional, but consistent when present)
	if err := c.validateTelegram(); err != nil {
		return err
	}

	return nil
}

// validateTelegram validates the optional Telegram notification settings
func (c *Config) validateTelegram() error {
	if c.TelegramBotToken == "" && c.TelegramChannelID == 0 {
		return nil // notifications disabled
	}

	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required when TELEGRAM_CHANNEL_ID is set")
	}
	if c.TelegramChannelID == 0 {
		return fmt.Errorf("TELEGRAM_CHANNEL_ID is required when TELEGRAM_BOT_TOKEN is set")
	}

	telegramTokenRegex := regexp.MustCompile(`^\d+:[A-Za-z0-9_-]+$`)
	if !telegramTokenRegex.MatchString(c.TelegramBotToken) {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN has invalid format (expected: 'number:token')")
	}
	if c.TelegramChannelID > -100 {
		return fmt.Errorf("TELEGRAM_CHANNEL_ID must be a supergroup/channel ID (starts with -100)")
	}

	return nil
}

// HasTelegram returns true if Telegram notifications are configured
func (c *Config) HasTelegram() bool {
	return c.TelegramBotToken != "" && c.TelegramChannelID != 0
}
