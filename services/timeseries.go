package services

import (
	"sort"
	"time"

	"airbnb-cleaner/models"
)

// FillInTime forward fills a series, then backward fills what is left. The
// result has no gaps as long as one value is present.
func FillInTime(series []models.Value) []models.Value {
	out := make([]models.Value, len(series))
	copy(out, series)

	var last models.Value
	for i, v := range out {
		if v.Valid {
			last = v
		} else if last.Valid {
			out[i] = last
		}
	}

	var next models.Value
	for i := len(out) - 1; i >= 0; i-- {
		if out[i].Valid {
			next = out[i]
		} else if next.Valid {
			out[i] = next
		}
	}
	return out
}

// TimeGrid holds one value series per id over a shared, sorted set of dates.
type TimeGrid struct {
	Dates  []time.Time
	IDs    []string
	Series map[string][]models.Value

	dateIndex map[int64]int
}

// Pivot builds one series per id from (id, date, value) rows. Duplicate cells
// are averaged; cells without any present value are gaps.
func Pivot(t *models.Table, idCol, dateCol, valueCol string) (*TimeGrid, error) {
	ids, dates, values, err := timeColumns(t, idCol, dateCol, valueCol)
	if err != nil {
		return nil, err
	}

	g := &TimeGrid{Series: make(map[string][]models.Value), dateIndex: make(map[int64]int)}
	seenDate := make(map[int64]time.Time)
	seenID := make(map[string]bool)
	for i, d := range dates.Values {
		if !d.Valid {
			continue
		}
		seenDate[d.Time.Unix()] = d.Time
		if k := ids.Values[i].Key(ids.Type); !seenID[k] {
			seenID[k] = true
			g.IDs = append(g.IDs, k)
		}
	}
	for _, d := range seenDate {
		g.Dates = append(g.Dates, d)
	}
	sort.Slice(g.Dates, func(i, j int) bool { return g.Dates[i].Before(g.Dates[j]) })
	for i, d := range g.Dates {
		g.dateIndex[d.Unix()] = i
	}

	sums := make(map[string][]float64, len(g.IDs))
	counts := make(map[string][]int, len(g.IDs))
	for _, id := range g.IDs {
		sums[id] = make([]float64, len(g.Dates))
		counts[id] = make([]int, len(g.Dates))
	}
	for i, v := range values.Values {
		if !v.Valid || !dates.Values[i].Valid {
			continue
		}
		id := ids.Values[i].Key(ids.Type)
		di := g.dateIndex[dates.Values[i].Time.Unix()]
		sums[id][di] += v.Num
		counts[id][di]++
	}
	for _, id := range g.IDs {
		s := make([]models.Value, len(g.Dates))
		for di, n := range counts[id] {
			if n > 0 {
				s[di] = models.Float(sums[id][di] / float64(n))
			}
		}
		g.Series[id] = s
	}
	return g, nil
}

// FillInTime fills every series of the grid.
func (g *TimeGrid) FillInTime() {
	for id, s := range g.Series {
		g.Series[id] = FillInTime(s)
	}
}

// At returns the grid value for an id and date.
func (g *TimeGrid) At(id string, date time.Time) models.Value {
	di, ok := g.dateIndex[date.Unix()]
	if !ok {
		return models.Missing()
	}
	s, ok := g.Series[id]
	if !ok {
		return models.Missing()
	}
	return s[di]
}

func timeColumns(t *models.Table, idCol, dateCol, valueCol string) (ids, dates, values *models.Column, err error) {
	if ids, err = t.Column(idCol); err != nil {
		return
	}
	if dates, err = t.Column(dateCol); err != nil {
		return
	}
	if err = requireType(dates, models.TypeDate); err != nil {
		return
	}
	if values, err = t.Column(valueCol); err != nil {
		return
	}
	err = requireType(values, models.TypeFloat)
	return
}

// FillTableInTime fills the missing values of valueCol from the forward and
// backward filled series of the row's id. Present values are never replaced.
func FillTableInTime(t *models.Table, idCol, dateCol, valueCol string) (*models.Table, error) {
	g, err := Pivot(t, idCol, dateCol, valueCol)
	if err != nil {
		return nil, err
	}
	g.FillInTime()

	out := t.Clone()
	ids, dates, values, _ := timeColumns(out, idCol, dateCol, valueCol)
	for i, v := range values.Values {
		if v.Valid || !dates.Values[i].Valid {
			continue
		}
		values.Values[i] = g.At(ids.Values[i].Key(ids.Type), dates.Values[i].Time)
	}
	return out, nil
}

// FillWithListings fills the calendar prices still missing with the static
// price of the listing.
func FillWithListings(calendar, listings *models.Table) (*models.Table, error) {
	listingIDs, err := listings.Column("id")
	if err != nil {
		return nil, err
	}
	listingPrices, err := listings.Column("price")
	if err != nil {
		return nil, err
	}
	if err := requireType(listingPrices, models.TypeFloat); err != nil {
		return nil, err
	}
	byID := make(map[string]models.Value, len(listingIDs.Values))
	for i, id := range listingIDs.Values {
		byID[id.Key(listingIDs.Type)] = listingPrices.Values[i]
	}

	out := calendar.Clone()
	ids, err := out.Column("listing_id")
	if err != nil {
		return nil, err
	}
	prices, err := out.Column("price")
	if err != nil {
		return nil, err
	}
	if err := requireType(prices, models.TypeFloat); err != nil {
		return nil, err
	}
	for i, v := range prices.Values {
		if v.Valid {
			continue
		}
		if p, ok := byID[ids.Values[i].Key(ids.Type)]; ok {
			prices.Values[i] = p
		}
	}
	return out, nil
}

// FillCalendar fills missing calendar prices in time, then from the listings.
// Listings without any price anywhere keep their gaps.
func (im *Imputer) FillCalendar(calendar, listings *models.Table) (*models.Table, error) {
	prices, err := calendar.Column("price")
	if err != nil {
		return nil, err
	}
	before := prices.MissingCount()

	filled, err := FillTableInTime(calendar, "listing_id", "date", "price")
	if err != nil {
		return nil, err
	}
	filled, err = FillWithListings(filled, listings)
	if err != nil {
		return nil, err
	}

	after, _ := filled.Column("price")
	im.logger.Info("[imputer] calendar: %d missing prices before, %d after", before, after.MissingCount())
	return filled, nil
}
