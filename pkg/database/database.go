package database

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/abbywylie/Ripple/pkg/config"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

const sqlitePrefix = "sqlite://"

// NewConnection opens the database named by cfg.DatabaseURL.
// A sqlite:// URL opens a local file, anything else is treated as a postgres DSN.
func NewConnection(cfg *config.Config) (*gorm.DB, error) {
	if strings.HasPrefix(cfg.DatabaseURL, sqlitePrefix) {
		path := strings.TrimPrefix(cfg.DatabaseURL, sqlitePrefix)
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		log.Printf("[Database] Using sqlite database at %s", path)
		return NewSQLiteConnection(path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	}
	return NewPostgresConnection(cfg.DatabaseURL)
}

// NewPostgresConnection opens a postgres database through pgx.
func NewPostgresConnection(dsn string) (*gorm.DB, error) {
	// Hosted postgres URLs are sometimes given with the SQLAlchemy scheme
	dsn = strings.Replace(dsn, "postgresql+psycopg2://", "postgres://", 1)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return db, nil
}

// NewSQLiteConnection opens a sqlite database with the pure Go modernc driver.
// Use ":memory:" for a throwaway database.
func NewSQLiteConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.New(sqlite.Config{
		DriverName: "sqlite",
		DSN:        dsn,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	// sqlite allows a single writer
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// IsPostgres reports whether db talks to postgres.
func IsPostgres(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}

// IsUniqueViolation reports whether err comes from a unique or primary key constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
