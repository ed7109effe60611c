package storage

import (
	"fmt"

	"traffic-publisher/src/interfaces"
	"traffic-publisher/src/logger"
	"traffic-publisher/src/models"
)

// NewDatabase selects the ledger backend from storage.db_type. The returned
// database is not initialized yet.
func NewDatabase(cfg *models.MConfig, log *logger.Logger) (interfaces.IDatabase, error) {
	switch cfg.Storage.DBType {
	case "sqlite":
		return NewSQLiteDB(cfg, log)
	case "postgres":
		return NewPostgresDB(cfg, log)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Storage.DBType)
	}
}
