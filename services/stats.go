package services

import (
	"fmt"
	"time"

	"github.com/go-gota/gota/series"

	"airbnb-cleaner/models"
)

func requireType(c *models.Column, t models.ColumnType) error {
	if c.Type != t {
		return fmt.Errorf("%s: expected %s column, got %s", c.Name, t, c.Type)
	}
	return nil
}

// presentFloats returns the present values of a float column as a series.
// gota reductions propagate NaN, so missing cells never reach them.
func presentFloats(c *models.Column) series.Series {
	xs := make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		if v.Valid {
			xs = append(xs, v.Num)
		}
	}
	return series.Floats(xs)
}

// columnMean averages the present values of a float column.
func columnMean(c *models.Column) (float64, bool) {
	s := presentFloats(c)
	if s.Len() == 0 {
		return 0, false
	}
	return s.Mean(), true
}

// columnMedian takes the median of the present values of a float column.
func columnMedian(c *models.Column) (float64, bool) {
	s := presentFloats(c)
	if s.Len() == 0 {
		return 0, false
	}
	return s.Median(), true
}

// boolMedian is the majority value of a bool column; an even split gives true.
func boolMedian(c *models.Column) (bool, bool) {
	xs := make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		if v.Valid {
			if v.Bool {
				xs = append(xs, 1)
			} else {
				xs = append(xs, 0)
			}
		}
	}
	if len(xs) == 0 {
		return false, false
	}
	return series.Floats(xs).Median() >= 0.5, true
}

// mostFrequent returns the most common present value. Ties go to the value
// seen first.
func mostFrequent(c *models.Column) (models.Value, bool) {
	keys := make([]string, 0, len(c.Values))
	first := make(map[string]models.Value)
	var order []string
	for _, v := range c.Values {
		if !v.Valid {
			continue
		}
		k := v.Key(c.Type)
		if _, ok := first[k]; !ok {
			first[k] = v
			order = append(order, k)
		}
		keys = append(keys, k)
	}
	if len(order) == 0 {
		return models.Missing(), false
	}

	s := series.Strings(keys)
	best, bestCount := order[0], -1
	for _, k := range order {
		matches, err := s.Compare(series.Eq, k).Bool()
		if err != nil {
			continue
		}
		n := 0
		for _, m := range matches {
			if m {
				n++
			}
		}
		if n > bestCount {
			best, bestCount = k, n
		}
	}
	return first[best], true
}

// maxDate returns the latest present date of a date column.
func maxDate(c *models.Column) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, v := range c.Values {
		if v.Valid && (!found || v.Time.After(latest)) {
			latest = v.Time
			found = true
		}
	}
	return latest, found
}

// meanRatio averages num/den over rows where both are present. Rows where den
// is zero are skipped rather than contributing an infinite ratio.
func meanRatio(num, den *models.Column) (float64, bool) {
	var sum float64
	n := 0
	for i, v := range num.Values {
		d := den.Values[i]
		if v.Valid && d.Valid && d.Num != 0 {
			sum += v.Num / d.Num
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// fillWith fills the missing values of c with v, a value of type vt. A column
// with nothing but missing values takes the fill type; a string fill turns a
// typed column into text, as does any fill into a text column.
func fillWith(c *models.Column, v models.Value, vt models.ColumnType) error {
	switch {
	case c.Type == vt:
	case c.MissingCount() == len(c.Values):
		c.Type = vt
	case vt == models.TypeString:
		toStringColumn(c)
	case c.Type == models.TypeString:
		v = models.String(v.Format(vt))
	default:
		return fmt.Errorf("%s: cannot fill %s column with %s value", c.Name, c.Type, vt)
	}
	c.FillMissing(v)
	return nil
}

func toStringColumn(c *models.Column) {
	for i, v := range c.Values {
		if v.Valid {
			c.Values[i] = models.String(v.Format(c.Type))
		}
	}
	c.Type = models.TypeString
}

// fillFromColumn fills missing values of dst row by row from src.
func fillFromColumn(dst, src *models.Column) error {
	if dst.Type != src.Type {
		switch {
		case dst.MissingCount() == len(dst.Values):
			dst.Type = src.Type
		case dst.Type == models.TypeString:
			for i, v := range dst.Values {
				if !v.Valid && src.Values[i].Valid {
					dst.Values[i] = models.String(src.Values[i].Format(src.Type))
				}
			}
			return nil
		default:
			return fmt.Errorf("%s: cannot fill %s column from %s column %s", dst.Name, dst.Type, src.Type, src.Name)
		}
	}
	dst.FillFrom(src)
	return nil
}
