package models

import (
	"fmt"
	"strconv"
	"time"
)

// ColumnType is the storage type of every value in a column.
type ColumnType int

const (
	TypeString ColumnType = iota
	TypeFloat
	TypeBool
	TypeDate
)

// DateLayout is the layout used by every date column of the dataset.
const DateLayout = "2006-01-02"

func (t ColumnType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeDate:
		return "date"
	}
	return "unknown"
}

// ParseColumnType is the inverse of ColumnType.String.
func ParseColumnType(s string) (ColumnType, error) {
	switch s {
	case "string":
		return TypeString, nil
	case "float":
		return TypeFloat, nil
	case "bool":
		return TypeBool, nil
	case "date":
		return TypeDate, nil
	}
	return TypeString, fmt.Errorf("unknown column type %q", s)
}

// Value is a single optional cell. Valid=false marks a missing value; only the
// field matching the column type is meaningful.
type Value struct {
	Valid bool
	Str   string
	Num   float64
	Bool  bool
	Time  time.Time
}

// Missing returns the missing marker.
func Missing() Value { return Value{} }

func String(s string) Value     { return Value{Valid: true, Str: s} }
func Float(f float64) Value     { return Value{Valid: true, Num: f} }
func Bool(b bool) Value         { return Value{Valid: true, Bool: b} }
func Date(t time.Time) Value    { return Value{Valid: true, Time: t} }
func (v Value) IsMissing() bool { return !v.Valid }

// Equal compares two values of the given column type.
func (v Value) Equal(o Value, t ColumnType) bool {
	if v.Valid != o.Valid {
		return false
	}
	if !v.Valid {
		return true
	}
	switch t {
	case TypeFloat:
		return v.Num == o.Num
	case TypeBool:
		return v.Bool == o.Bool
	case TypeDate:
		return v.Time.Equal(o.Time)
	default:
		return v.Str == o.Str
	}
}

// Format renders a value as text; missing values render as "".
func (v Value) Format(t ColumnType) string {
	if !v.Valid {
		return ""
	}
	switch t {
	case TypeFloat:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case TypeBool:
		if v.Bool {
			return "t"
		}
		return "f"
	case TypeDate:
		return v.Time.Format(DateLayout)
	default:
		return v.Str
	}
}

// Key returns a comparable representation used for grouping and counting.
func (v Value) Key(t ColumnType) string {
	return v.Format(t)
}
