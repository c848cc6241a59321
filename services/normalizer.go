package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"airbnb-cleaner/models"
	"airbnb-cleaner/utils"
)

// ErrMalformedValue is returned when a raw value does not follow the fixed
// format of its source column.
var ErrMalformedValue = errors.New("malformed value")

var (
	// priceRegexp matches currency strings such as "$1,234.50"
	priceRegexp = regexp.MustCompile(`^\$[\d,]+(?:\.\d+)?$`)
	// dateRegexp matches the 8-digit ISO dates used by every date column
	dateRegexp = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	// percentRegexp matches rates such as "96%"
	percentRegexp = regexp.MustCompile(`^-?\d+(?:\.\d+)?%$`)
)

// ValueFunc converts one raw value into a typed one.
type ValueFunc func(models.Value) (models.Value, error)

// PriceToFloat converts a price like "$1,234.50" to 1234.5.
func PriceToFloat(v models.Value) (models.Value, error) {
	if !v.Valid {
		return models.Missing(), nil
	}
	if !strings.HasPrefix(v.Str, "$") {
		return models.Missing(), fmt.Errorf("price %q: %w", v.Str, ErrMalformedValue)
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(v.Str[1:], ",", ""))
	if err != nil {
		return models.Missing(), fmt.Errorf("price %q: %w", v.Str, ErrMalformedValue)
	}
	f, _ := d.Float64()
	return models.Float(f), nil
}

// StringToBool converts "t"/"True" and "f"/"False". Anything else, including a
// missing value, becomes missing.
func StringToBool(v models.Value) (models.Value, error) {
	if !v.Valid {
		return models.Missing(), nil
	}
	switch v.Str {
	case "t", "True":
		return models.Bool(true), nil
	case "f", "False":
		return models.Bool(false), nil
	}
	return models.Missing(), nil
}

// StringToDate parses a YYYY-MM-DD date.
func StringToDate(v models.Value) (models.Value, error) {
	if !v.Valid {
		return models.Missing(), nil
	}
	t, err := time.Parse(models.DateLayout, v.Str)
	if err != nil {
		return models.Missing(), fmt.Errorf("date %q: %w", v.Str, ErrMalformedValue)
	}
	return models.Date(t), nil
}

// PercentToNum converts "96%" to 96.
func PercentToNum(v models.Value) (models.Value, error) {
	if !v.Valid {
		return models.Missing(), nil
	}
	d, err := decimal.NewFromString(strings.TrimSuffix(v.Str, "%"))
	if err != nil {
		return models.Missing(), fmt.Errorf("percent %q: %w", v.Str, ErrMalformedValue)
	}
	f, _ := d.Float64()
	return models.Float(f), nil
}

func isBoolToken(s string) bool {
	return s == "t" || s == "f" || s == "True" || s == "False"
}

// ConvertColumn applies fn to every value of a string column and returns a new
// column of the target type. Already converted columns are returned as copies.
func ConvertColumn(c *models.Column, target models.ColumnType, fn ValueFunc) (*models.Column, error) {
	if c.Type == target {
		return c.Clone(), nil
	}
	out := models.NewColumn(c.Name, target, len(c.Values))
	if c.Type != models.TypeString {
		if c.MissingCount() == len(c.Values) {
			return out, nil
		}
		return nil, fmt.Errorf("%s: cannot convert %s column to %s", c.Name, c.Type, target)
	}
	for i, v := range c.Values {
		conv, err := fn(v)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", c.Name, i, err)
		}
		out.Values[i] = conv
	}
	return out, nil
}

// ApplyColumns converts the named columns of t in place.
func ApplyColumns(t *models.Table, names []string, target models.ColumnType, fn ValueFunc) error {
	for _, name := range names {
		c, err := t.Column(name)
		if err != nil {
			return err
		}
		conv, err := ConvertColumn(c, target, fn)
		if err != nil {
			return fmt.Errorf("%s: %w", t.Name, err)
		}
		if err := t.AddColumn(conv); err != nil {
			return err
		}
	}
	return nil
}

// IsPriceColumn reports whether every present value is a currency string.
func IsPriceColumn(c *models.Column) bool {
	if c.Type != models.TypeString {
		return false
	}
	seen := false
	for _, v := range c.Values {
		if !v.Valid {
			continue
		}
		if !priceRegexp.MatchString(v.Str) {
			return false
		}
		seen = true
	}
	return seen
}

// IsBoolColumn reports whether any value is a boolean token. A single stray
// "t" in an unrelated column is enough.
func IsBoolColumn(c *models.Column) bool {
	if c.Type != models.TypeString {
		return false
	}
	for _, v := range c.Values {
		if v.Valid && isBoolToken(v.Str) {
			return true
		}
	}
	return false
}

// IsDateColumn only looks at the first row.
func IsDateColumn(c *models.Column) bool {
	if c.Type != models.TypeString || len(c.Values) == 0 {
		return false
	}
	first := c.Values[0]
	return first.Valid && dateRegexp.MatchString(first.Str)
}

// IsPercentColumn reports whether every present value is a percentage.
func IsPercentColumn(c *models.Column) bool {
	if c.Type != models.TypeString {
		return false
	}
	seen := false
	for _, v := range c.Values {
		if !v.Valid {
			continue
		}
		if !percentRegexp.MatchString(v.Str) {
			return false
		}
		seen = true
	}
	return seen
}

// ListingsColumnTypes groups the string columns of the listings table by the
// type they should be converted to.
type ListingsColumnTypes struct {
	Price   []string
	Bool    []string
	Date    []string
	Percent []string
}

// DetectListingsColumns runs the detection heuristics in order: price, boolean,
// date, percent. A column lands in the first group that claims it.
func DetectListingsColumns(t *models.Table) ListingsColumnTypes {
	var out ListingsColumnTypes
	for _, c := range t.Columns() {
		switch {
		case IsPriceColumn(c):
			out.Price = append(out.Price, c.Name)
		case IsBoolColumn(c):
			out.Bool = append(out.Bool, c.Name)
		case IsDateColumn(c):
			out.Date = append(out.Date, c.Name)
		case IsPercentColumn(c):
			out.Percent = append(out.Percent, c.Name)
		}
	}
	return out
}

// Normalizer converts the raw string columns of the dataset to typed columns.
type Normalizer struct {
	logger *utils.Logger
}

// NewNormalizer creates a Normalizer with the given logger.
func NewNormalizer(logger *utils.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize returns a typed copy of ds. Missing values stay missing.
func (n *Normalizer) Normalize(ds models.Dataset) (models.Dataset, error) {
	out := ds.Clone()

	if err := n.normalizeCalendar(out.Calendar); err != nil {
		return models.Dataset{}, err
	}
	if err := n.normalizeListings(out.Listings); err != nil {
		return models.Dataset{}, err
	}
	if err := ApplyColumns(out.Reviews, []string{"date"}, models.TypeDate, StringToDate); err != nil {
		return models.Dataset{}, err
	}

	n.logger.Info("[normalizer] Normalized calendar (%d rows), listings (%d rows), reviews (%d rows)",
		out.Calendar.Len(), out.Listings.Len(), out.Reviews.Len())
	return out, nil
}

func (n *Normalizer) normalizeCalendar(t *models.Table) error {
	if err := ApplyColumns(t, []string{"price"}, models.TypeFloat, PriceToFloat); err != nil {
		return err
	}
	if err := ApplyColumns(t, []string{"available"}, models.TypeBool, StringToBool); err != nil {
		return err
	}
	return ApplyColumns(t, []string{"date"}, models.TypeDate, StringToDate)
}

func (n *Normalizer) normalizeListings(t *models.Table) error {
	cols := DetectListingsColumns(t)
	n.logger.Debug("[normalizer] listings: %d price, %d boolean, %d date, %d percent columns",
		len(cols.Price), len(cols.Bool), len(cols.Date), len(cols.Percent))

	if err := ApplyColumns(t, cols.Price, models.TypeFloat, PriceToFloat); err != nil {
		return err
	}
	if err := ApplyColumns(t, cols.Bool, models.TypeBool, StringToBool); err != nil {
		return err
	}
	if err := ApplyColumns(t, cols.Date, models.TypeDate, StringToDate); err != nil {
		return err
	}
	return ApplyColumns(t, cols.Percent, models.TypeFloat, PercentToNum)
}
