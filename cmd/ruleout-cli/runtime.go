package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"ruleout-server/internal/config"
	"ruleout-server/internal/infrastructure/database"
	"ruleout-server/internal/infrastructure/logger"
)

func loadEnvFiles(extra string) {
	paths := []string{".env", "../.env"}
	if extra != "" {
		paths = append(paths, extra)
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}

// runtimeEnv is the configuration, logger and database a command works with.
type runtimeEnv struct {
	cfg *config.Config
	log zerolog.Logger
	db  *gorm.DB
}

func (r *runtimeEnv) Close() {
	if err := database.Close(r.db); err != nil {
		r.log.Warn().Err(err).Msg("close database")
	}
}

func openRuntime(cmd *cobra.Command) (*runtimeEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.LogLevel = "debug"
	} else if cfg.LogLevel == "info" {
		cfg.LogLevel = "warn"
	}
	log := logger.New(cfg)

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    1,
		MaxOpenConns:    2,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return &runtimeEnv{cfg: cfg, log: log, db: db}, nil
}
