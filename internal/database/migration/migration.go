// Package migration creates the schema on first start. Each step is
// idempotent; the sentinel check skips the whole run once both tables exist.
package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id         UUID        PRIMARY KEY,
  title      TEXT        NOT NULL CHECK (title <> ''),
  expires_on DATE        NOT NULL,
  type       TEXT        NOT NULL DEFAULT 'other' CHECK (type IN ('pollution', 'insurance', 'other')),
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_documents_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents (created_at);`,
	},
	{
		Name: "create_table_uploaded_documents",
		SQL: `CREATE TABLE IF NOT EXISTS uploaded_documents (
  id           UUID        PRIMARY KEY,
  name         TEXT        NOT NULL,
  category     TEXT        NOT NULL CHECK (category IN ('driving_license', 'rc', 'pollution_certificate')),
  storage_path TEXT        NOT NULL,
  url          TEXT        NOT NULL,
  size         BIGINT      NOT NULL DEFAULT 0 CHECK (size >= 0),
  content_type TEXT        NOT NULL,
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		// not unique: the same (category, name) uploaded twice yields two rows
		Name: "create_index_uploaded_documents_storage_path",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_uploaded_documents_storage_path ON uploaded_documents (storage_path);`,
	},
	{
		Name: "create_index_uploaded_documents_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_uploaded_documents_created_at ON uploaded_documents (created_at);`,
	},
}

const sentinelQuery = "SELECT to_regclass('public.documents') IS NOT NULL AND to_regclass('public.uploaded_documents') IS NOT NULL"

// EnsureMigrated checks whether both tables exist and runs every step if either is missing.
func EnsureMigrated(ctx context.Context, db *sql.DB, logger *logrus.Logger, dbHost string) error {
	start := time.Now()
	log := logger.WithFields(logrus.Fields{
		"component": "database",
		"db_host":   dbHost,
	})

	log.WithFields(logrus.Fields{"event": "db_migration_check", "status": "starting"}).Info("checking schema")

	var exists bool
	if err := db.QueryRowContext(ctx, sentinelQuery).Scan(&exists); err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"event":       "db_migration_failed",
			"status":      "error",
			"duration_ms": time.Since(start).Milliseconds(),
		}).Error("failed to check sentinel tables")
		return fmt.Errorf("failed to check sentinel tables: %w", err)
	}

	if exists {
		log.WithFields(logrus.Fields{
			"event":       "db_migration_skip",
			"status":      "success",
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("schema already exists, skipping migration")
		return nil
	}

	log.WithFields(logrus.Fields{"event": "db_migration_start", "status": "in_progress"}).Info("applying schema")

	for _, step := range steps {
		stepStart := time.Now()
		stepLog := log.WithField("migration_step", step.Name)

		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			stepLog.WithError(err).WithFields(logrus.Fields{
				"event":            "db_migration_failed",
				"status":           "error",
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			}).Error("migration step failed")
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		stepLog.WithFields(logrus.Fields{
			"event":            "db_migration_step",
			"status":           "success",
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		}).Info("migration step applied")
	}

	log.WithFields(logrus.Fields{
		"event":       "db_migration_success",
		"status":      "success",
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("schema ready")

	return nil
}
