package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ukane-philemon/srms/internal/config"
	"github.com/ukane-philemon/srms/internal/db/flatfile"
	"github.com/ukane-philemon/srms/internal/db/mongodb"
	"github.com/ukane-philemon/srms/internal/db/sqlite"
	"github.com/ukane-philemon/srms/internal/student"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	configPath string
	dataFile   string
	backend    string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "srms",
	Short: "SRMS - Student Record Management System",
	Long: `SRMS manages student records: id, name, email, course, score and the
grade derived from the score. Records are kept in memory and persisted to a
flat file, SQLite or MongoDB.

Run without arguments to start the interactive shell.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Validated once the flag overrides are applied.
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		if dataFile != "" {
			cfg.Storage.DataFile = dataFile
		}
		if backend != "" {
			cfg.Storage.Backend = backend
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, err = newLogger(cfg.Logging, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runShell,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "srms.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&dataFile, "data", "", "data file for the file backend (overrides config)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "storage backend: file, sqlite or mongodb (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(shellCmd, serveCmd, listCmd, infoCmd, initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(lc config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if lc.Encoding != "" {
		zc.Encoding = lc.Encoding
	}
	if zc.Encoding == "console" {
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	level := zapcore.InfoLevel
	if lc.Level != "" {
		if err := level.Set(lc.Level); err != nil {
			return nil, err
		}
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	return zc.Build()
}

// openPersister opens the configured backend. The returned close function
// releases its connections.
func openPersister(ctx context.Context, cfg *config.Config, logger *zap.Logger) (student.Persister, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		db, err := sqlite.New(ctx, cfg.Storage.SQLitePath, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite.New error: %w", err)
		}
		return db, func(context.Context) error { return db.Close() }, nil
	case config.BackendMongoDB:
		db, err := mongodb.New(ctx, cfg.Storage.MongoDB, cfg.Storage.MongoURL, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("mongodb.New error: %w", err)
		}
		return db, db.Shutdown, nil
	default:
		return flatfile.NewFile(cfg.Storage.DataFile, logger), noop, nil
	}
}

// loadStore opens the configured backend and loads it into a new store.
func loadStore(ctx context.Context) (*student.Store, student.Persister, func(context.Context) error, error) {
	persister, closeFn, err := openPersister(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	store := student.NewStore()
	if err := persister.Load(ctx, store); err != nil {
		_ = closeFn(ctx)
		return nil, nil, nil, err
	}
	return store, persister, closeFn, nil
}
