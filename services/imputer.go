package services

import (
	"fmt"

	"airbnb-cleaner/models"
	"airbnb-cleaner/utils"
)

// ImputeConfig holds the column sets and constants the fill rules use.
type ImputeConfig struct {
	// DropNumeric lists numeric columns whose missingness is too structural to impute.
	DropNumeric []string
	// MedianNumeric lists numeric columns filled with their median instead of the mean.
	MedianNumeric []string
	// An is-missing indicator is added for numeric columns whose missing fraction
	// lies strictly between IndicatorMin and IndicatorMax.
	IndicatorMin  float64
	IndicatorMax  float64
	MissingSuffix string

	ResponseTimeSentinel string
	// ZipcodeFixes maps known bad zipcode records to their corrected value.
	ZipcodeFixes map[string]string
}

// DefaultImputeConfig returns the settings used for the Seattle dataset.
func DefaultImputeConfig() ImputeConfig {
	return ImputeConfig{
		DropNumeric: []string{"license", "square_feet"},
		MedianNumeric: []string{
			"bathrooms",
			"bedrooms",
			"beds",
			"host_listings_count",
			"host_total_listings_count",
		},
		IndicatorMin:         0.1,
		IndicatorMax:         0.9,
		MissingSuffix:        "_missing",
		ResponseTimeSentinel: "no data",
		ZipcodeFixes:         map[string]string{"99\n98122": "98122"},
	}
}

// Imputer fills missing values in the three tables.
type Imputer struct {
	cfg    ImputeConfig
	logger *utils.Logger
}

// NewImputer creates an Imputer.
func NewImputer(cfg ImputeConfig, logger *utils.Logger) *Imputer {
	return &Imputer{cfg: cfg, logger: logger}
}

// FillMissing fills the calendar, reviews and listings tables and returns them
// with the updated classification. The calendar is filled first since its
// fallback reads listing prices.
func (im *Imputer) FillMissing(ds models.Dataset, cl *models.Classification) (models.Dataset, *models.Classification, error) {
	calendar, err := im.FillCalendar(ds.Calendar, ds.Listings)
	if err != nil {
		return models.Dataset{}, nil, err
	}
	reviews := im.FillReviews(ds.Reviews)
	listings, cl, err := im.FillListings(ds.Listings, cl)
	if err != nil {
		return models.Dataset{}, nil, err
	}
	return models.Dataset{Calendar: calendar, Listings: listings, Reviews: reviews}, cl, nil
}

// FillReviews drops every review with a missing field.
func (im *Imputer) FillReviews(reviews *models.Table) *models.Table {
	out := reviews.Clone()
	before := out.Len()
	out.DropMissingRows()
	im.logger.Info("[imputer] reviews: dropped %d of %d rows with missing fields", before-out.Len(), before)
	return out
}

// FillListings applies one fill rule per column kind, in kind order. Columns
// dropped by a rule are removed from the returned classification too.
func (im *Imputer) FillListings(listings *models.Table, cl *models.Classification) (*models.Table, *models.Classification, error) {
	t := listings.Clone()
	cl = cl.Clone()
	if err := CheckClassification(cl, t); err != nil {
		return nil, nil, err
	}
	for _, k := range models.Kinds {
		if err := im.fillKind(k, t, cl); err != nil {
			return nil, nil, fmt.Errorf("imputer: fill %s: %w", k, err)
		}
	}
	im.logger.Info("[imputer] listings: %d rows, %d columns after filling", t.Len(), len(t.Columns()))
	return t, cl, nil
}

func (im *Imputer) fillKind(k models.Kind, t *models.Table, cl *models.Classification) error {
	switch k {
	case models.KindNumeric:
		return im.fillNumeric(t, cl)
	case models.KindPrice:
		return im.fillPrice(t)
	case models.KindBooleanFlag:
		return im.fillBooleanFlags(t, cl)
	case models.KindFreeText, models.KindURL:
		return im.fillEmptyString(t, ColumnsByKind(cl, t, k))
	case models.KindLocation:
		return im.fillLocation(t)
	case models.KindDate:
		return im.fillDates(t)
	case models.KindPercent:
		return im.fillPercent(t, cl)
	case models.KindTimeCategory:
		return im.fillResponseTime(t)
	case models.KindSimpleCategorical:
		return im.fillMostFrequent(t, "property_type")
	}
	return fmt.Errorf("no fill rule for kind %s", k)
}

// CreateIsMissing adds a 0/1 column "<col><suffix>" for each named column.
func CreateIsMissing(t *models.Table, cols []string, suffix string) error {
	for _, name := range cols {
		c, err := t.Column(name)
		if err != nil {
			return err
		}
		ind := models.NewColumn(name+suffix, models.TypeFloat, len(c.Values))
		for i, v := range c.Values {
			if v.Valid {
				ind.Values[i] = models.Float(0)
			} else {
				ind.Values[i] = models.Float(1)
			}
		}
		if err := t.AddColumn(ind); err != nil {
			return err
		}
	}
	return nil
}

func (im *Imputer) fillNumeric(t *models.Table, cl *models.Classification) error {
	numCols := ColumnsByKind(cl, t, models.KindNumeric)
	drop := utils.NewStringSet(im.cfg.DropNumeric...)
	medianSet := utils.NewStringSet(im.cfg.MedianNumeric...)

	var withMissing, indicators []string
	for _, name := range numCols {
		c, _ := t.Column(name)
		if !c.HasMissing() {
			continue
		}
		withMissing = append(withMissing, name)
		if f := c.MissingFraction(); f > im.cfg.IndicatorMin && f < im.cfg.IndicatorMax {
			indicators = append(indicators, name)
		}
	}

	if err := CreateIsMissing(t, indicators, im.cfg.MissingSuffix); err != nil {
		return err
	}

	dropped := drop.Intersect(t.Names())
	t.DropColumns(dropped...)
	cl.Drop(drop.Intersect(cl.Columns())...)
	if len(dropped) > 0 {
		im.logger.Debug("[imputer] dropped numeric columns %v", dropped)
	}

	for _, name := range im.cfg.MedianNumeric {
		c, err := t.Column(name)
		if err != nil {
			return err
		}
		if err := requireType(c, models.TypeFloat); err != nil {
			return err
		}
		if m, ok := columnMedian(c); ok {
			c.FillMissing(models.Float(m))
		}
	}

	for _, name := range withMissing {
		if drop.Contains(name) || medianSet.Contains(name) {
			continue
		}
		c, _ := t.Column(name)
		if err := requireType(c, models.TypeFloat); err != nil {
			return err
		}
		if m, ok := columnMean(c); ok {
			c.FillMissing(models.Float(m))
		}
	}

	im.logger.Debug("[imputer] numeric: %d with missing values, %d indicators", len(withMissing), len(indicators))
	return nil
}

func (im *Imputer) floatColumns(t *models.Table, names ...string) ([]*models.Column, error) {
	cols := make([]*models.Column, len(names))
	for i, name := range names {
		c, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		if err := requireType(c, models.TypeFloat); err != nil {
			return nil, err
		}
		cols[i] = c
	}
	return cols, nil
}

func (im *Imputer) fillPrice(t *models.Table) error {
	cols, err := im.floatColumns(t, "price", "weekly_price", "monthly_price", "cleaning_fee", "security_deposit")
	if err != nil {
		return err
	}
	price := cols[0]

	// Long-term prices and the cleaning fee scale with the daily price by one
	// dataset-wide ratio.
	for _, c := range cols[1:4] {
		factor, ok := meanRatio(c, price)
		if !ok {
			continue
		}
		for i, v := range c.Values {
			if !v.Valid && price.Values[i].Valid {
				c.Values[i] = models.Float(price.Values[i].Num * factor)
			}
		}
		im.logger.Debug("[imputer] %s filled as price x %.4f", c.Name, factor)
	}

	deposit := cols[4]
	if m, ok := columnMean(deposit); ok {
		deposit.FillMissing(models.Float(m))
	}
	return nil
}

func (im *Imputer) fillBooleanFlags(t *models.Table, cl *models.Classification) error {
	for _, name := range ColumnsByKind(cl, t, models.KindBooleanFlag) {
		c, _ := t.Column(name)
		if c.Type != models.TypeBool {
			// Flag columns without a single t/f token were never converted.
			continue
		}
		if m, ok := boolMedian(c); ok {
			c.FillMissing(models.Bool(m))
		}
	}
	return nil
}

func (im *Imputer) fillEmptyString(t *models.Table, names []string) error {
	for _, name := range names {
		c, _ := t.Column(name)
		if err := fillWith(c, models.String(""), models.TypeString); err != nil {
			return err
		}
	}
	return nil
}

func (im *Imputer) fillLocation(t *models.Table) error {
	pairs := [][2]string{
		{"neighbourhood", "neighbourhood_cleansed"},
		{"host_neighbourhood", "neighbourhood"},
	}
	for _, p := range pairs {
		dst, err := t.Column(p[0])
		if err != nil {
			return err
		}
		src, err := t.Column(p[1])
		if err != nil {
			return err
		}
		if err := fillFromColumn(dst, src); err != nil {
			return err
		}
	}

	if err := im.fillMostFrequent(t, "host_location"); err != nil {
		return err
	}

	zip, err := t.Column("zipcode")
	if err != nil {
		return err
	}
	if err := fillWith(zip, models.String(""), models.TypeString); err != nil {
		return err
	}
	for i, v := range zip.Values {
		if fixed, ok := im.cfg.ZipcodeFixes[v.Str]; ok {
			zip.Values[i] = models.String(fixed)
		}
	}
	return nil
}

func (im *Imputer) fillDates(t *models.Table) error {
	scraped, err := t.Column("last_scraped")
	if err != nil {
		return err
	}
	if err := requireType(scraped, models.TypeDate); err != nil {
		return err
	}
	if latest, ok := maxDate(scraped); ok {
		for _, name := range []string{"first_review", "last_review"} {
			c, err := t.Column(name)
			if err != nil {
				return err
			}
			if err := fillWith(c, models.Date(latest), models.TypeDate); err != nil {
				return err
			}
		}
	}

	since, err := t.Column("host_since")
	if err != nil {
		return err
	}
	before := t.Len()
	t.FilterRows(func(row int) bool { return since.Values[row].Valid })
	if dropped := before - t.Len(); dropped > 0 {
		im.logger.Debug("[imputer] dropped %d listings without host_since", dropped)
	}
	return nil
}

func (im *Imputer) fillPercent(t *models.Table, cl *models.Classification) error {
	for _, name := range ColumnsByKind(cl, t, models.KindPercent) {
		c, _ := t.Column(name)
		if err := requireType(c, models.TypeFloat); err != nil {
			return err
		}
		if m, ok := columnMean(c); ok {
			c.FillMissing(models.Float(m))
		}
	}
	return nil
}

func (im *Imputer) fillResponseTime(t *models.Table) error {
	c, err := t.Column("host_response_time")
	if err != nil {
		return err
	}
	return fillWith(c, models.String(im.cfg.ResponseTimeSentinel), models.TypeString)
}

func (im *Imputer) fillMostFrequent(t *models.Table, name string) error {
	c, err := t.Column(name)
	if err != nil {
		return err
	}
	if v, ok := mostFrequent(c); ok {
		c.FillMissing(v)
	}
	return nil
}
