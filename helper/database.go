package helper

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
)

// DatabaseConfiguration holds the connection parameters for the optional
// Postgres+pgvector vector-store backend.
type DatabaseConfiguration struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Database wraps a *sql.DB with the logger every handler in this repository
// is constructed with.
type Database struct {
	Instance *sql.DB
	Logger   *slog.Logger
}

// NewDatabase opens a connection to the configured Postgres instance. The
// name parameter is used only for log and error context.
func NewDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) (*Database, error) {
	if config == nil {
		return nil, NewError("new database", fmt.Errorf("configuration is nil"))
	}

	sslMode := config.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, sslMode,
	)

	instance, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, NewError("open database "+name, err)
	}

	if err := instance.Ping(); err != nil {
		return nil, NewError("ping database "+name, err)
	}

	logger.Info("Connected to database", slog.String("name", name), slog.String("host", config.Host))

	return &Database{
		Instance: instance,
		Logger:   logger,
	}, nil
}
