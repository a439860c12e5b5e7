package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/supplychain-ai/backend-go/internal/config"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverSQLite   = "sqlite"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

type DB struct {
	*sqlx.DB
	sem *semaphore.Weighted
}

// NewDB opens a connection pool for the configured driver
func NewDB(cfg *config.DatabaseConfig) (*DB, error) {
	driver, dsn, err := resolveDSN(cfg)
	if err != nil {
		return nil, err
	}
	return Open(driver, dsn)
}

// Open connects with an explicit driver name and DSN.
func Open(driver, dsn string) (*DB, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	// Configure connection pool
	if driver == DriverSQLite {
		// SQLite allows a single writer
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	log.Debug().Str("driver", driver).Msg("database connected")

	return &DB{
		DB:  db,
		sem: semaphore.NewWeighted(10), // Limit to 10 concurrent write transactions
	}, nil
}

// IsSQLite reports whether the pool talks to SQLite
func (db *DB) IsSQLite() bool {
	return db.DriverName() == DriverSQLite
}

// WithTx executes a function within a transaction
func (db *DB) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	// Acquire semaphore
	if err := db.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("could not acquire semaphore: %w", err)
	}
	defer db.sem.Release(1)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("could not rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

func resolveDSN(cfg *config.DatabaseConfig) (string, string, error) {
	url := strings.TrimSpace(cfg.URL)

	switch {
	case strings.HasPrefix(url, "sqlite://"):
		return DriverSQLite, SQLiteDSN(strings.TrimPrefix(url, "sqlite:///")), nil
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		driver := cfg.Driver
		if driver == "" {
			driver = DriverPostgres
		}
		if driver != DriverPostgres && driver != DriverPgx {
			return "", "", fmt.Errorf("driver %q cannot open %s urls", driver, "postgres")
		}
		return driver, url, nil
	case url == "":
		driver := cfg.Driver
		if driver == "" {
			driver = DriverPostgres
		}
		connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
		return driver, connStr, nil
	default:
		return "", "", fmt.Errorf("unsupported database url %q", url)
	}
}

// SQLiteDSN builds a modernc DSN with foreign keys and a busy timeout.
func SQLiteDSN(path string) string {
	if path == "" {
		path = "dev.db"
	}
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}
