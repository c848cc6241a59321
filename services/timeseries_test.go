package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airbnb-cleaner/models"
)

func floatsOf(c *models.Column) []any {
	out := make([]any, len(c.Values))
	for i, v := range c.Values {
		if v.Valid {
			out[i] = v.Num
		}
	}
	return out
}

func TestFillInTime(t *testing.T) {
	tests := []struct {
		name string
		in   []any
		want []any
	}{
		{"inner gap", []any{10, nil, nil, 40}, []any{10.0, 10.0, 10.0, 40.0}},
		{"leading gap", []any{nil, nil, 20, 30}, []any{20.0, 20.0, 20.0, 30.0}},
		{"trailing gap", []any{5, nil, nil}, []any{5.0, 5.0, 5.0}},
		{"no data", []any{nil, nil}, []any{nil, nil}},
		{"empty", []any{}, []any{}},
	}

	for _, tt := range tests {
		c := col("price", models.TypeFloat, tt.in...)
		got := &models.Column{Name: "price", Type: models.TypeFloat, Values: FillInTime(c.Values)}
		if !assert.Equal(t, tt.want, floatsOf(got), tt.name) {
			continue
		}
		assert.Equal(t, len(tt.in), len(c.Values), "%s: input changed length", tt.name)
	}
}

func sampleCalendar(t *testing.T) *models.Table {
	return table(t, "calendar",
		col("listing_id", models.TypeFloat, 1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 4, 4),
		col("date", models.TypeDate,
			"2016-01-04", "2016-01-05", "2016-01-06", "2016-01-07",
			"2016-01-07", "2016-01-06", "2016-01-05", "2016-01-04",
			"2016-01-04", "2016-01-05",
			"2016-01-04", "2016-01-05"),
		col("available", models.TypeBool, true, false, false, true, false, true, true, false, false, false, false, false),
		col("price", models.TypeFloat, 10, nil, nil, 40, 30, 20, nil, nil, nil, nil, nil, nil),
	)
}

func TestFillTableInTime(t *testing.T) {
	cal := sampleCalendar(t)

	out, err := FillTableInTime(cal, "listing_id", "date", "price")
	require.NoError(t, err)

	prices, _ := out.Column("price")
	// listing 2 rows are in reverse date order: 07=30, 06=20, 05=_, 04=_
	assert.Equal(t, []any{10.0, 10.0, 10.0, 40.0, 30.0, 20.0, 20.0, 20.0, nil, nil, nil, nil}, floatsOf(prices))

	orig, _ := cal.Column("price")
	assert.Equal(t, 8, orig.MissingCount(), "input should not change")
}

func TestPivotAveragesDuplicates(t *testing.T) {
	cal := table(t, "calendar",
		col("listing_id", models.TypeFloat, 1, 1, 1),
		col("date", models.TypeDate, "2016-01-04", "2016-01-04", "2016-01-05"),
		col("price", models.TypeFloat, 10, 20, nil),
	)

	g, err := Pivot(cal, "listing_id", "date", "price")
	require.NoError(t, err)

	require.Len(t, g.Dates, 2)
	assert.Equal(t, models.Float(15), g.At("1", day("2016-01-04")))
	assert.False(t, g.At("1", day("2016-01-05")).Valid)
	assert.False(t, g.At("9", day("2016-01-05")).Valid)
}

func TestFillWithListings(t *testing.T) {
	cal := sampleCalendar(t)
	listings := table(t, "listings",
		col("id", models.TypeFloat, 1, 2, 3),
		col("price", models.TypeFloat, 99, 88, 77),
	)

	out, err := FillWithListings(cal, listings)
	require.NoError(t, err)

	prices, _ := out.Column("price")
	// present prices are kept, listing 4 has no listing price at all
	assert.Equal(t, []any{10.0, 99.0, 99.0, 40.0, 30.0, 20.0, 88.0, 88.0, 77.0, 77.0, nil, nil}, floatsOf(prices))
}

func TestFillCalendar(t *testing.T) {
	cal := sampleCalendar(t)
	listings := table(t, "listings",
		col("id", models.TypeFloat, 1, 2, 3, 4),
		col("price", models.TypeFloat, 99, 88, 77, nil),
	)

	out, err := testImputer().FillCalendar(cal, listings)
	require.NoError(t, err)

	prices, _ := out.Column("price")
	assert.Equal(t, []any{10.0, 10.0, 10.0, 40.0, 30.0, 20.0, 20.0, 20.0, 77.0, 77.0, nil, nil}, floatsOf(prices))

	again, err := testImputer().FillCalendar(out, listings)
	require.NoError(t, err)
	assert.True(t, out.Equal(again), "second fill changed the calendar")
}

func TestFillCalendarListingWithOneObservation(t *testing.T) {
	cal := table(t, "calendar",
		col("listing_id", models.TypeFloat, 5, 5, 5, 6),
		col("date", models.TypeDate, "2016-01-04", "2016-01-05", "2016-01-06", "2016-01-04"),
		col("price", models.TypeFloat, nil, 55, nil, 60),
	)
	listings := table(t, "listings", col("id", models.TypeFloat, 5, 6), col("price", models.TypeFloat, 1, 1))

	out, err := testImputer().FillCalendar(cal, listings)
	require.NoError(t, err)

	prices, _ := out.Column("price")
	assert.Zero(t, prices.MissingCount())
	assert.Equal(t, []any{55.0, 55.0, 55.0, 60.0}, floatsOf(prices))
}

func TestFillCalendarRequiresTypedColumns(t *testing.T) {
	cal := table(t, "calendar",
		col("listing_id", models.TypeFloat, 1),
		col("date", models.TypeString, "2016-01-04"),
		col("price", models.TypeFloat, 1),
	)
	listings := table(t, "listings", col("id", models.TypeFloat, 1), col("price", models.TypeFloat, 1))

	_, err := testImputer().FillCalendar(cal, listings)
	assert.Error(t, err)
}
