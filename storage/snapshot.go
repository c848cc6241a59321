package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"airbnb-cleaner/models"
)

const (
	columnsTable        = "_columns"
	snapshotTable       = "_snapshot"
	classificationTable = "listings_cols"
	sqliteMaxParams     = 30000
	insertMaxRows       = 500
)

// FileStore reads the raw CSV files and keeps typed snapshots of the tables as
// SQLite files. Missing values are stored as NULL so they survive a round trip.
type FileStore struct {
	runID string
}

// NewFileStore creates a FileStore that tags every snapshot with runID.
func NewFileStore(runID string) *FileStore {
	return &FileStore{runID: runID}
}

// ReadRaw loads a raw CSV table.
func (s *FileStore) ReadRaw(path, name string) (*models.Table, error) {
	return ReadCSVTable(path, name)
}

// SaveTables writes the tables to a new snapshot at path, replacing any
// previous snapshot once the new one is complete.
func (s *FileStore) SaveTables(path string, tables ...*models.Table) error {
	return s.writeSnapshot(path, func(tx *sql.Tx) error {
		for _, t := range tables {
			if err := writeTable(tx, t); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadTables reads every table of the snapshot at path, in the order they were saved.
func (s *FileStore) LoadTables(path string) ([]*models.Table, error) {
	db, err := openSnapshot(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`SELECT table_name, column_name, column_type FROM ` + columnsTable + ` ORDER BY table_seq, position`)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read columns: %w", err)
	}
	type colDef struct {
		name string
		typ  models.ColumnType
	}
	var order []string
	defs := make(map[string][]colDef)
	for rows.Next() {
		var table, col, typ string
		if err := rows.Scan(&table, &col, &typ); err != nil {
			rows.Close()
			return nil, fmt.Errorf("snapshot: scan column: %w", err)
		}
		ct, err := models.ParseColumnType(typ)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("snapshot: %s.%s: %w", table, col, err)
		}
		if _, ok := defs[table]; !ok {
			order = append(order, table)
		}
		defs[table] = append(defs[table], colDef{col, ct})
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	tables := make([]*models.Table, 0, len(order))
	for _, name := range order {
		cols := make([]*models.Column, len(defs[name]))
		for i, d := range defs[name] {
			cols[i] = &models.Column{Name: d.name, Type: d.typ}
		}
		if err := readTable(db, name, cols); err != nil {
			return nil, err
		}
		t, err := models.NewTable(name, cols...)
		if err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// SaveClassification writes the column classification to its own snapshot.
func (s *FileStore) SaveClassification(path string, cl *models.Classification) error {
	return s.writeSnapshot(path, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`CREATE TABLE ` + classificationTable + ` (position INTEGER, column_name TEXT PRIMARY KEY, kind TEXT NOT NULL)`); err != nil {
			return fmt.Errorf("snapshot: create classification: %w", err)
		}
		for i, col := range cl.Columns() {
			k, _ := cl.Get(col)
			if _, err := tx.Exec(`INSERT INTO `+classificationTable+` VALUES (?, ?, ?)`, i, col, k.String()); err != nil {
				return fmt.Errorf("snapshot: insert classification %q: %w", col, err)
			}
		}
		return nil
	})
}

// LoadClassification reads a classification saved by SaveClassification.
func (s *FileStore) LoadClassification(path string) (*models.Classification, error) {
	db, err := openSnapshot(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`SELECT column_name, kind FROM ` + classificationTable + ` ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read classification: %w", err)
	}
	defer rows.Close()

	cl := models.NewClassification()
	for rows.Next() {
		var col, tag string
		if err := rows.Scan(&col, &tag); err != nil {
			return nil, fmt.Errorf("snapshot: scan classification: %w", err)
		}
		k, err := models.ParseKind(tag)
		if err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
		cl.Set(col, k)
	}
	return cl, rows.Err()
}

// Exists reports whether a snapshot file is present.
func (s *FileStore) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func openSnapshot(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %q: %w", path, err)
	}
	return db, nil
}

func (s *FileStore) writeSnapshot(path string, fill func(tx *sql.Tx) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("snapshot: create dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("snapshot: %w", err)
	}

	db, err := sql.Open("sqlite", tmp)
	if err != nil {
		return fmt.Errorf("snapshot: open %q: %w", tmp, err)
	}
	err = func() error {
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`CREATE TABLE ` + snapshotTable + ` (key TEXT PRIMARY KEY, value TEXT)`); err != nil {
			return err
		}
		if _, err := tx.Exec(`INSERT INTO `+snapshotTable+` VALUES ('run_id', ?), ('created_at', ?)`,
			s.runID, time.Now().UTC().Format(time.RFC3339)); err != nil {
			return err
		}
		if _, err := tx.Exec(`CREATE TABLE ` + columnsTable + ` (table_seq INTEGER, table_name TEXT, position INTEGER, column_name TEXT, column_type TEXT)`); err != nil {
			return err
		}
		if err := fill(tx); err != nil {
			return err
		}
		return tx.Commit()
	}()
	if cerr := db.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("snapshot: write %q: %w", path, err)
	}
	return os.Rename(tmp, path)
}

func writeTable(tx *sql.Tx, t *models.Table) error {
	var seq int
	if err := tx.QueryRow(`SELECT COUNT(DISTINCT table_name) FROM ` + columnsTable).Scan(&seq); err != nil {
		return err
	}
	for i, c := range t.Columns() {
		if _, err := tx.Exec(`INSERT INTO `+columnsTable+` VALUES (?, ?, ?, ?, ?)`,
			seq, t.Name, i, c.Name, c.Type.String()); err != nil {
			return fmt.Errorf("%s: register column %s: %w", t.Name, c.Name, err)
		}
	}
	if _, err := tx.Exec(sqliteDialect.createTable(t.Name, t)); err != nil {
		return fmt.Errorf("%s: create table: %w", t.Name, err)
	}

	ncols := len(t.Columns())
	batch := batchRows(ncols, sqliteMaxParams, insertMaxRows)
	args := make([]any, 0, batch*ncols)
	for from := 0; from < t.Len(); from += batch {
		to := min(from+batch, t.Len())
		args = sqliteDialect.rowArgs(args[:0], t, from, to)
		if _, err := tx.Exec(sqliteDialect.insert(t.Name, ncols, to-from), args...); err != nil {
			return fmt.Errorf("%s: insert rows %d-%d: %w", t.Name, from, to, err)
		}
	}
	return nil
}

func readTable(db *sql.DB, name string, cols []*models.Column) error {
	rows, err := db.Query(`SELECT * FROM ` + quoteIdent(name) + ` ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("snapshot: read %s: %w", name, err)
	}
	defer rows.Close()

	dest := make([]any, len(cols))
	for i, c := range cols {
		switch c.Type {
		case models.TypeFloat:
			dest[i] = new(sql.NullFloat64)
		case models.TypeBool:
			dest[i] = new(sql.NullInt64)
		default:
			dest[i] = new(sql.NullString)
		}
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("snapshot: scan %s: %w", name, err)
		}
		for i, c := range cols {
			v, err := scannedValue(dest[i], c.Type)
			if err != nil {
				return fmt.Errorf("snapshot: %s.%s: %w", name, c.Name, err)
			}
			c.Values = append(c.Values, v)
		}
	}
	return rows.Err()
}

func scannedValue(dest any, t models.ColumnType) (models.Value, error) {
	switch d := dest.(type) {
	case *sql.NullFloat64:
		if !d.Valid {
			return models.Missing(), nil
		}
		return models.Float(d.Float64), nil
	case *sql.NullInt64:
		if !d.Valid {
			return models.Missing(), nil
		}
		return models.Bool(d.Int64 != 0), nil
	case *sql.NullString:
		if !d.Valid {
			return models.Missing(), nil
		}
		if t == models.TypeDate {
			tm, err := time.Parse(models.DateLayout, d.String)
			if err != nil {
				return models.Missing(), err
			}
			return models.Date(tm), nil
		}
		return models.String(d.String), nil
	}
	return models.Missing(), fmt.Errorf("unsupported scan target %T", dest)
}
