package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"airbnb-cleaner/models"
	"airbnb-cleaner/utils"
)

const postgresMaxParams = 65535

// PostgresWriter exports the final tables to PostgreSQL, one SQL table per
// dataset table, named "<prefix>_<table>".
type PostgresWriter struct {
	db     *sql.DB
	prefix string
	logger *utils.Logger
}

// NewPostgresWriter opens a connection to PostgreSQL and waits until it answers.
func NewPostgresWriter(dsn, prefix string, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: 10, BaseDelay: 500 * time.Millisecond, Logger: logger}
	if err := retry.Do("postgres ping", db.Ping); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	return &PostgresWriter{db: db, prefix: prefix, logger: logger}, nil
}

// TableName returns the SQL table a dataset table is exported to.
func (pw *PostgresWriter) TableName(t *models.Table) string {
	if pw.prefix == "" {
		return t.Name
	}
	return pw.prefix + "_" + t.Name
}

// WriteTables replaces each exported table with the given contents.
func (pw *PostgresWriter) WriteTables(tables ...*models.Table) error {
	for _, t := range tables {
		if err := pw.writeTable(t); err != nil {
			return err
		}
		pw.logger.Info("[postgres] Exported %d rows to %s", t.Len(), pw.TableName(t))
	}
	return nil
}

func (pw *PostgresWriter) writeTable(t *models.Table) error {
	name := pw.TableName(t)
	tx, err := pw.db.Begin()
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DROP TABLE IF EXISTS ` + quoteIdent(name)); err != nil {
		return fmt.Errorf("postgres: drop %s: %w", name, err)
	}
	if _, err := tx.Exec(postgresDialect.createTable(name, t)); err != nil {
		return fmt.Errorf("postgres: create %s: %w", name, err)
	}

	ncols := len(t.Columns())
	batch := batchRows(ncols, postgresMaxParams, insertMaxRows)
	args := make([]any, 0, batch*ncols)
	for from := 0; from < t.Len(); from += batch {
		to := min(from+batch, t.Len())
		args = postgresDialect.rowArgs(args[:0], t, from, to)
		if _, err := tx.Exec(postgresDialect.insert(name, ncols, to-from), args...); err != nil {
			return fmt.Errorf("postgres: insert %s rows %d-%d: %w", name, from, to, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit %s: %w", name, err)
	}
	return nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
