package models

import "fmt"

// Kind is the semantic category of a listings column. It decides which fill
// rule applies to the column.
type Kind int

const (
	KindNumeric Kind = iota
	KindPrice
	KindBooleanFlag
	KindFreeText
	KindURL
	KindLocation
	KindDate
	KindPercent
	KindTimeCategory
	KindSimpleCategorical
)

// Kinds lists every kind in fill order.
var Kinds = []Kind{
	KindNumeric,
	KindPrice,
	KindBooleanFlag,
	KindFreeText,
	KindURL,
	KindLocation,
	KindDate,
	KindPercent,
	KindTimeCategory,
	KindSimpleCategorical,
}

var kindNames = map[Kind]string{
	KindNumeric:           "num_cols",
	KindPrice:             "price_cols",
	KindBooleanFlag:       "tf_cols",
	KindFreeText:          "free_text_cols",
	KindURL:               "url_cols",
	KindLocation:          "location_cols",
	KindDate:              "date_cols",
	KindPercent:           "percent_cols",
	KindTimeCategory:      "time_cols",
	KindSimpleCategorical: "cat_cols",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a persisted kind tag back to its Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown column kind %q", s)
}

// Classification maps listings column names to their kind. Insertion order is kept
// so persisted snapshots are stable.
type Classification struct {
	order []string
	kinds map[string]Kind
}

// NewClassification creates an empty classification.
func NewClassification() *Classification {
	return &Classification{kinds: make(map[string]Kind)}
}

// Set assigns a kind to a column.
func (c *Classification) Set(column string, k Kind) {
	if _, ok := c.kinds[column]; !ok {
		c.order = append(c.order, column)
	}
	c.kinds[column] = k
}

// Get returns the kind of a column.
func (c *Classification) Get(column string) (Kind, bool) {
	k, ok := c.kinds[column]
	return k, ok
}

// Drop removes the given columns. Absent columns are ignored.
func (c *Classification) Drop(columns ...string) {
	for _, col := range columns {
		delete(c.kinds, col)
	}
	kept := make([]string, 0, len(c.order))
	for _, col := range c.order {
		if _, ok := c.kinds[col]; ok {
			kept = append(kept, col)
		}
	}
	c.order = kept
}

// Columns returns the classified column names in insertion order.
func (c *Classification) Columns() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of classified columns.
func (c *Classification) Len() int { return len(c.order) }

// Clone returns an independent copy.
func (c *Classification) Clone() *Classification {
	out := NewClassification()
	for _, col := range c.order {
		out.Set(col, c.kinds[col])
	}
	return out
}
