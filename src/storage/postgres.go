package storage

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"traffic-publisher/src/logger"
	"traffic-publisher/src/models"

	_ "github.com/lib/pq"
)

var unsafeSchemaChars = regexp.MustCompile(`[^a-z0-9_]+`)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	ledger
	Config *models.MConfig
	Schema string
}

// -----------------------------------------------------------------------------

// SchemaName derives the postgres schema from the configured application name.
func SchemaName(name string) string {
	s := unsafeSchemaChars.ReplaceAllString(strings.ToLower(name), "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "traffic_publisher"
	}
	return s
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	schema := SchemaName(cfg.Name)

	return &PostgresDB{
		ledger: ledger{
			Logger:        log.Named("PostgresDB"),
			RetentionDays: cfg.Storage.RetentionDays,
			runsTable:     fmt.Sprintf(`"%s"."runs"`, schema),
			uploadsTable:  fmt.Sprintf(`"%s"."uploads"`, schema),
			bind:          bindDollar,
		},
		Config: cfg,
		Schema: schema,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}

	d.DB = db

	// Create Schema
	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	if err := d.createTables("BIGINT"); err != nil {
		return err
	}

	d.Logger.Info("PostgresDB initialized successfully (Schema: %s)", d.Schema)
	return nil
}
