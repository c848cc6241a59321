package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"airbnb-cleaner/models"
)

// naValues are the cell values read as missing.
var naValues = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None", "n/a",
	"nan", "null",
}

// ReadCSVTable loads a CSV file with a header row. Columns whose present values
// all parse as numbers become float columns, the rest stay text. Columns with
// no present value at all are float columns.
func ReadCSVTable(path, name string) (*models.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()
	return ParseCSVTable(f, name)
}

// ParseCSVTable is ReadCSVTable over a reader. A file without data rows is an error.
func ParseCSVTable(r io.Reader, name string) (*models.Table, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.DefaultType(series.Float),
		dataframe.NaNValues(naValues),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("csv: read %s: %w", name, df.Err)
	}
	if df.Nrow() == 0 {
		return nil, fmt.Errorf("csv: %s has no rows", name)
	}

	names := df.Names()
	cols := make([]*models.Column, len(names))
	for i, h := range names {
		cols[i] = columnFromSeries(h, df.Col(h))
	}
	return models.NewTable(name, cols...)
}

// columnFromSeries converts a loaded series into a column. Integer series are
// widened to float; boolean series keep their text.
func columnFromSeries(name string, s series.Series) *models.Column {
	typ := models.TypeString
	if t := s.Type(); t == series.Float || t == series.Int {
		typ = models.TypeFloat
	}
	c := models.NewColumn(name, typ, s.Len())
	for i := range c.Values {
		e := s.Elem(i)
		if e.IsNA() {
			continue
		}
		if typ == models.TypeFloat {
			c.Values[i] = models.Float(e.Float())
		} else {
			c.Values[i] = models.String(e.String())
		}
	}
	return c
}

// WriteCSVTable writes t with a header row. Missing values are written empty.
// Intermediate directories are created automatically.
func WriteCSVTable(path string, t *models.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("csv: create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(t.Names()); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv: write header: %w", err)
	}
	row := make([]string, len(t.Columns()))
	for r := 0; r < t.Len(); r++ {
		for i, c := range t.Columns() {
			row[i] = c.Values[r].Format(c.Type)
		}
		if err := w.Write(row); err != nil {
			_ = f.Close()
			return fmt.Errorf("csv: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv: flush: %w", err)
	}
	return f.Close()
}

// CSVExporter writes each table to <dir>/<table>.csv.
type CSVExporter struct {
	dir string
}

// NewCSVExporter creates an exporter rooted at dir.
func NewCSVExporter(dir string) *CSVExporter {
	return &CSVExporter{dir: dir}
}

func (e *CSVExporter) WriteTables(tables ...*models.Table) error {
	for _, t := range tables {
		if err := WriteCSVTable(filepath.Join(e.dir, t.Name+".csv"), t); err != nil {
			return err
		}
	}
	return nil
}

func (e *CSVExporter) Close() error { return nil }
