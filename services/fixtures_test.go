package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"airbnb-cleaner/models"
	"airbnb-cleaner/utils"
)

// col builds a column; nil entries are missing. Date columns take "YYYY-MM-DD".
func col(name string, typ models.ColumnType, vals ...any) *models.Column {
	c := models.NewColumn(name, typ, len(vals))
	for i, v := range vals {
		switch x := v.(type) {
		case nil:
		case int:
			c.Values[i] = models.Float(float64(x))
		case float64:
			c.Values[i] = models.Float(x)
		case bool:
			c.Values[i] = models.Bool(x)
		case string:
			if typ == models.TypeDate {
				d, err := time.Parse(models.DateLayout, x)
				if err != nil {
					panic(err)
				}
				c.Values[i] = models.Date(d)
			} else {
				c.Values[i] = models.String(x)
			}
		}
	}
	return c
}

func table(t *testing.T, name string, cols ...*models.Column) *models.Table {
	t.Helper()
	tb, err := models.NewTable(name, cols...)
	require.NoError(t, err)
	return tb
}

func day(s string) time.Time {
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func testImputer() *Imputer {
	return NewImputer(DefaultImputeConfig(), utils.NewNopLogger())
}

// rowOf returns the row holding the listing id.
func rowOf(t *testing.T, tb *models.Table, id float64) int {
	t.Helper()
	ids, err := tb.Column("id")
	require.NoError(t, err)
	for i, v := range ids.Values {
		if v.Valid && v.Num == id {
			return i
		}
	}
	t.Fatalf("listing %v not found", id)
	return -1
}

func value(t *testing.T, tb *models.Table, column string, row int) models.Value {
	t.Helper()
	c, err := tb.Column(column)
	require.NoError(t, err)
	return c.Values[row]
}

// sampleListings is a normalized listings table of ten rows. Listing 7 has no
// host_since and is dropped by the date rule.
func sampleListings(t *testing.T) (*models.Table, *models.Classification) {
	t.Helper()
	S, F, B, D := models.TypeString, models.TypeFloat, models.TypeBool, models.TypeDate
	tb := table(t, "listings",
		col("id", F, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10),
		col("listing_url", S, "u1", nil, "u3", "u4", "u5", "u6", "u7", "u8", "u9", "u10"),
		col("summary", S, "cosy", nil, nil, "big", "quiet", "nice", "ok", "fine", "good", "great"),
		col("price", F, 100, 200, 100, 50, 150, 100, 80, 120, 90, 110),
		col("weekly_price", F, 700, nil, 700, 350, nil, 700, 560, 840, 630, 770),
		col("monthly_price", F, 3000, 6000, 3000, 1500, 4500, 3000, 2400, 3600, 2700, nil),
		col("cleaning_fee", F, nil, 100, 50, nil, 75, 50, 40, 60, 45, 55),
		col("security_deposit", F, 100, nil, 300, nil, nil, nil, nil, nil, nil, 200),
		col("bathrooms", F, 1, nil, 2, 1, 1, 1, 3, 1, 2, 1),
		col("bedrooms", F, 1, 2, nil, nil, 1, 2, 3, 1, 1, 2),
		col("beds", F, 1, 2, 1, 1, 1, 2, 3, 1, 1, 2),
		col("host_listings_count", F, 1, 1, 2, 1, 1, 3, 1, 1, 1, 1),
		col("host_total_listings_count", F, 1, 1, 2, 1, 1, 3, 1, 1, 1, 1),
		col("review_scores_rating", F, 90, nil, nil, nil, 80, 100, nil, nil, nil, nil),
		col("square_feet", F, nil, nil, nil, nil, nil, nil, nil, nil, nil, 500),
		col("license", F, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil),
		col("host_is_superhost", B, true, false, false, nil, false, true, false, false, true, false),
		col("neighbourhood_cleansed", S, "Broadway", "Fremont", "Broadway", "Belltown", "Fremont", "Wallingford", "Broadway", "Belltown", "Fremont", "Broadway"),
		col("neighbourhood", S, "Capitol Hill", nil, "Capitol Hill", nil, "Fremont", "Wallingford", "Capitol Hill", "Belltown", "Fremont", "Capitol Hill"),
		col("host_neighbourhood", S, nil, nil, "Capitol Hill", "Belltown", nil, "Wallingford", "Capitol Hill", "Belltown", "Fremont", "Capitol Hill"),
		col("host_location", S, "Seattle", "Seattle", nil, "Portland", "Seattle", nil, "Seattle", "Portland", "Seattle", "Seattle"),
		col("zipcode", S, "98122", nil, "99\n98122", "98121", "98103", "98103", "98122", "98121", "98103", "98122"),
		col("last_scraped", D, "2016-01-04", "2016-01-04", "2016-01-05", "2016-01-04", "2016-01-04", "2016-01-04", "2016-01-04", "2016-01-04", "2016-01-04", "2016-01-04"),
		col("host_since", D, "2011-08-11", "2013-02-21", "2014-06-12", "2013-11-06", "2011-11-29", "2010-12-25", nil, "2012-05-30", "2015-04-01", "2014-09-09"),
		col("first_review", D, "2011-11-01", nil, "2014-07-15", "2014-01-08", nil, "2011-01-20", "2015-01-01", "2012-06-01", "2015-05-01", "2014-10-01"),
		col("last_review", D, "2016-01-02", nil, "2015-12-01", "2015-11-30", nil, "2016-01-01", "2015-12-31", "2015-12-20", "2015-12-28", "2016-01-03"),
		col("host_response_rate", F, 90, nil, 100, 80, nil, 90, 10, 100, nil, 80),
		col("host_response_time", S, "within an hour", nil, "within a day", "within an hour", nil, "within a few hours", "within an hour", "within an hour", nil, "within a day"),
		col("property_type", S, "House", "Apartment", "House", nil, "Apartment", "Apartment", "Apartment", "House", "House", nil),
	)

	cl := models.NewClassification()
	for _, c := range []string{"id", "bathrooms", "bedrooms", "beds", "host_listings_count",
		"host_total_listings_count", "review_scores_rating", "square_feet", "license"} {
		cl.Set(c, models.KindNumeric)
	}
	for _, c := range []string{"price", "weekly_price", "monthly_price", "cleaning_fee", "security_deposit"} {
		cl.Set(c, models.KindPrice)
	}
	cl.Set("host_is_superhost", models.KindBooleanFlag)
	cl.Set("summary", models.KindFreeText)
	cl.Set("listing_url", models.KindURL)
	for _, c := range []string{"neighbourhood_cleansed", "neighbourhood", "host_neighbourhood", "host_location", "zipcode"} {
		cl.Set(c, models.KindLocation)
	}
	for _, c := range []string{"last_scraped", "host_since", "first_review", "last_review"} {
		cl.Set(c, models.KindDate)
	}
	cl.Set("host_response_rate", models.KindPercent)
	cl.Set("host_response_time", models.KindTimeCategory)
	cl.Set("property_type", models.KindSimpleCategorical)
	return tb, cl
}
