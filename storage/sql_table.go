package storage

import (
	"fmt"
	"strings"

	"airbnb-cleaner/models"
)

// dialect holds what differs between the SQL backends a table is written to.
type dialect struct {
	placeholder func(n int) string
	columnType  func(models.ColumnType) string
	arg         func(models.Value, models.ColumnType) any
}

var sqliteDialect = dialect{
	placeholder: func(int) string { return "?" },
	columnType: func(t models.ColumnType) string {
		switch t {
		case models.TypeFloat:
			return "REAL"
		case models.TypeBool:
			return "INTEGER"
		default:
			return "TEXT"
		}
	},
	arg: func(v models.Value, t models.ColumnType) any {
		if !v.Valid {
			return nil
		}
		switch t {
		case models.TypeFloat:
			return v.Num
		case models.TypeBool:
			if v.Bool {
				return int64(1)
			}
			return int64(0)
		default:
			return v.Format(t)
		}
	},
}

var postgresDialect = dialect{
	placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	columnType: func(t models.ColumnType) string {
		switch t {
		case models.TypeFloat:
			return "DOUBLE PRECISION"
		case models.TypeBool:
			return "BOOLEAN"
		case models.TypeDate:
			return "DATE"
		default:
			return "TEXT"
		}
	},
	arg: func(v models.Value, t models.ColumnType) any {
		if !v.Valid {
			return nil
		}
		switch t {
		case models.TypeFloat:
			return v.Num
		case models.TypeBool:
			return v.Bool
		case models.TypeDate:
			return v.Time
		default:
			return v.Str
		}
	},
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d dialect) createTable(name string, t *models.Table) string {
	defs := make([]string, len(t.Columns()))
	for i, c := range t.Columns() {
		defs[i] = quoteIdent(c.Name) + " " + d.columnType(c.Type)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(name), strings.Join(defs, ", "))
}

// insert builds a multi-row INSERT for nrows rows of ncols values each.
func (d dialect) insert(name string, ncols, nrows int) string {
	rows := make([]string, nrows)
	n := 1
	for r := range rows {
		ph := make([]string, ncols)
		for c := range ph {
			ph[c] = d.placeholder(n)
			n++
		}
		rows[r] = "(" + strings.Join(ph, ",") + ")"
	}
	return fmt.Sprintf("INSERT INTO %s VALUES %s", quoteIdent(name), strings.Join(rows, ","))
}

// rowArgs appends the arguments of rows [from, to) to args.
func (d dialect) rowArgs(args []any, t *models.Table, from, to int) []any {
	for r := from; r < to; r++ {
		for _, c := range t.Columns() {
			args = append(args, d.arg(c.Values[r], c.Type))
		}
	}
	return args
}

// batchRows caps a multi-row INSERT below the bind parameter limit.
func batchRows(ncols, maxParams, maxRows int) int {
	if ncols == 0 {
		return maxRows
	}
	n := maxParams / ncols
	if n > maxRows {
		n = maxRows
	}
	if n < 1 {
		n = 1
	}
	return n
}
