package db

import (
	"fmt"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Options selects the database backend.
// A non-empty TursoURL connects to a remote libSQL database, otherwise Path is opened as SQLite.
type Options struct {
	Path        string
	TursoURL    string
	TursoToken  string
	Environment string
	// Quiet silences SQL logging, for callers that own the terminal
	Quiet bool
}

// Initialize sets up the database connection
func Initialize(opts Options, log *zap.Logger) error {
	var err error

	logLevel := logger.Info
	if opts.Environment == "production" {
		logLevel = logger.Warn
	}
	if opts.Quiet {
		logLevel = logger.Silent
	}
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	}

	if opts.TursoURL != "" {
		DB, err = gorm.Open(sqlite.New(sqlite.Config{
			DriverName: "libsql",
			DSN:        libsqlDSN(opts.TursoURL, opts.TursoToken),
		}), gormCfg)
		if err != nil {
			return fmt.Errorf("failed to connect to libsql database: %w", err)
		}
		log.Info("database connection established", zap.String("driver", "libsql"))
		return nil
	}

	// WAL mode for concurrent readers while the feed writes
	DB, err = gorm.Open(sqlite.Open(opts.Path+"?_journal_mode=WAL"), gormCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info("database connection established", zap.String("driver", "sqlite"), zap.String("path", opts.Path))
	return nil
}

func libsqlDSN(url, token string) string {
	if token == "" {
		return url
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "authToken=" + token
}

// AutoMigrate runs database migrations for the provided models
func AutoMigrate(models ...interface{}) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	if err := DB.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	return sqlDB.Close()
}
