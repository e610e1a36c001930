package database

import (
	"embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/samosabot/samosa-bot/logging"
)

// Postgres is the leaderboard store backed by a postgres table.
type Postgres struct {
	connections *sqlx.DB
	logger      *logging.Logger
}

//go:embed migrations/*.sql
var embedMigrations embed.FS

// NewPostgres connects to dbURL, applies the embedded migrations and verifies the connection.
func NewPostgres(dbURL string, logger *logging.Logger) (*Postgres, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if dbURL == "" {
		return nil, fmt.Errorf("POSTGRES_URL is not set")
	}

	logger.Info("connecting to postgres database")
	dbx, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		logger.Error("error connecting to postgres", "error", err.Error())
		return nil, fmt.Errorf("error connecting to postgres: %w", err)
	}

	return migratePostgres(dbx, logger)
}

// migratePostgres verifies the pool and applies the embedded migrations. The
// pool is closed when either step fails.
func migratePostgres(dbx *sqlx.DB, logger *logging.Logger) (_ *Postgres, err error) {
	defer func() {
		if err != nil {
			if cerr := dbx.Close(); cerr != nil {
				logger.Warn("error closing postgres after failed setup", "error", cerr.Error())
			}
		}
	}()

	logger.Debug("verifying database connection")
	if err := dbx.Ping(); err != nil {
		logger.Error("error pinging postgres", "error", err.Error())
		return nil, fmt.Errorf("error pinging postgres: %w", err)
	}

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		logger.Error("error setting dialect", "error", err.Error())
		return nil, fmt.Errorf("error setting dialect: %w", err)
	}

	logger.Info("running database migrations")
	if err := goose.Up(dbx.DB, "migrations"); err != nil {
		logger.Error("error running migrations", "error", err.Error())
		return nil, fmt.Errorf("error running migrations: %w", err)
	}

	logger.Info("database connection established successfully")
	return &Postgres{
		connections: dbx,
		logger:      logger,
	}, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	p.logger.Info("closing postgres connection")
	return p.connections.Close()
}
