package services

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"airbnb-cleaner/config"
	"airbnb-cleaner/models"
	"airbnb-cleaner/storage"
	"airbnb-cleaner/utils"
)

const rawCalendar = `listing_id,date,available,price
1,2016-01-04,t,$100.00
1,2016-01-05,f,
1,2016-01-06,f,"$1,120.00"
3,2016-01-04,f,
3,2016-01-05,f,
`

const rawReviews = `listing_id,id,date,reviewer_id,reviewer_name,comments
1,11,2015-07-21,100,Ann,Great stay
1,12,2015-08-01,101,Bo,
2,13,2015-09-01,102,Cy,"Lovely, quiet"
`

// writeRawListings renders the sample listings the way listings.csv spells
// them: prices with a dollar sign and rates with a percent sign.
func writeRawListings(t *testing.T, path string) *models.Classification {
	t.Helper()
	tb, cl := sampleListings(t)

	cols := make([]*models.Column, 0, len(tb.Columns()))
	for _, c := range tb.Columns() {
		k, _ := cl.Get(c.Name)
		out := models.NewColumn(c.Name, models.TypeString, len(c.Values))
		for i, v := range c.Values {
			if !v.Valid {
				continue
			}
			s := v.Format(c.Type)
			switch k {
			case models.KindPrice:
				s = "$" + s
			case models.KindPercent:
				s += "%"
			}
			out.Values[i] = models.String(s)
		}
		cols = append(cols, out)
	}
	require.NoError(t, storage.WriteCSVTable(path, table(t, ListingsTable, cols...)))
	return cl
}

func seedYAML(t *testing.T, cl *models.Classification) []byte {
	t.Helper()
	seed := make(map[string][]string)
	for _, c := range cl.Columns() {
		k, _ := cl.Get(c)
		seed[k.String()] = append(seed[k.String()], c)
	}
	data, err := yaml.Marshal(seed)
	require.NoError(t, err)
	return data
}

func setupCity(t *testing.T) (config.CityPaths, string, []byte) {
	t.Helper()
	dir := t.TempDir()
	processed := filepath.Join(dir, config.ProcessedSubdir)
	paths := config.PathsFor(filepath.Join(dir, config.RawSubdir), filepath.Join(dir, config.InterimSubdir), processed, "seattle")

	cl := writeRawListings(t, paths.Listings)
	require.NoError(t, os.WriteFile(paths.Calendar, []byte(rawCalendar), 0o644))
	require.NoError(t, os.WriteFile(paths.Reviews, []byte(rawReviews), 0o644))
	return paths, processed, seedYAML(t, cl)
}

func newTestPipeline(t *testing.T, runID string, seed []byte) (*Pipeline, *storage.FileStore) {
	t.Helper()
	var cl *models.Classification
	if seed != nil {
		var err error
		cl, err = ParseClassificationSeed(seed)
		require.NoError(t, err)
	}
	store := storage.NewFileStore(runID)
	p := NewPipeline(store, PipelineOptions{
		RunID:            runID,
		SaveIntermediate: true,
		Seed:             cl,
		Impute:           DefaultImputeConfig(),
	}, utils.NewNopLogger())
	return p, store
}

func TestPipelineRun(t *testing.T) {
	paths, processed, seed := setupCity(t)
	p, store := newTestPipeline(t, "run-1", seed)

	res, err := p.Run(paths)
	require.NoError(t, err)

	listings := res.Filled.Listings
	assert.Equal(t, 9, listings.Len())
	for _, c := range listings.Columns() {
		assert.Zero(t, c.MissingCount(), "listings.%s still has missing values", c.Name)
	}
	assert.False(t, listings.Has("license"))
	assert.True(t, listings.Has("bedrooms_missing"))
	assert.Equal(t, "98122", value(t, listings, "zipcode", rowOf(t, listings, 3)).Str)

	prices, _ := res.Filled.Calendar.Column("price")
	assert.Equal(t, []any{100.0, 100.0, 1120.0, 100.0, 100.0}, floatsOf(prices))
	assert.Equal(t, 2, res.Filled.Reviews.Len())

	for _, path := range []string{paths.Normalized, paths.Filled, paths.Classification, paths.Final} {
		assert.FileExists(t, path)
	}

	loaded, err := LoadProcessed(store, processed, "seattle")
	require.NoError(t, err)
	for i, tb := range res.Filled.Tables() {
		assert.True(t, tb.Equal(loaded.Tables()[i]), "%s changed on reload", tb.Name)
	}

	cl, err := store.LoadClassification(paths.Classification)
	require.NoError(t, err)
	assert.Equal(t, res.Classification.Columns(), cl.Columns())
	_, ok := cl.Get("square_feet")
	assert.False(t, ok, "dropped columns should leave the persisted classification")
}

func TestPipelineRunIsRepeatable(t *testing.T) {
	paths, _, seed := setupCity(t)

	p, _ := newTestPipeline(t, "run-1", seed)
	first, err := p.Run(paths)
	require.NoError(t, err)

	// second run starts from the persisted classification
	p, _ = newTestPipeline(t, "run-2", nil)
	second, err := p.Run(paths)
	require.NoError(t, err)

	for i, tb := range first.Filled.Tables() {
		assert.True(t, tb.Equal(second.Filled.Tables()[i]), "%s differs between runs", tb.Name)
	}
}

func TestFillMissingIsIdempotent(t *testing.T) {
	paths, _, seed := setupCity(t)
	p, _ := newTestPipeline(t, "run-1", seed)
	res, err := p.Run(paths)
	require.NoError(t, err)

	again, cl, err := testImputer().FillMissing(res.Filled, res.Classification)
	require.NoError(t, err)

	assert.Equal(t, res.Classification.Columns(), cl.Columns())
	for i, tb := range res.Filled.Tables() {
		assert.True(t, tb.Equal(again.Tables()[i]), "%s changed on the second fill", tb.Name)
	}
}

func TestPipelineRunMissingInput(t *testing.T) {
	paths, _, seed := setupCity(t)
	require.NoError(t, os.Remove(paths.Reviews))

	p, _ := newTestPipeline(t, "run-1", seed)
	_, err := p.Run(paths)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPipelineReport(t *testing.T) {
	paths, _, seed := setupCity(t)
	p, _ := newTestPipeline(t, "run-1", seed)
	res, err := p.Run(paths)
	require.NoError(t, err)

	status := make(map[string]string)
	for _, e := range res.Report.Entries {
		status[e.Table+"."+e.Column] = e.Status
	}
	assert.Equal(t, models.StatusDropped, status["listings.license"])
	assert.Equal(t, models.StatusAdded, status["listings.bedrooms_missing"])
	assert.Equal(t, models.StatusFilled, status["calendar.price"])
	assert.Equal(t, models.StatusComplete, status["listings.id"])

	kinds := make(map[string]string)
	for _, e := range res.Report.Entries {
		if e.Table == ListingsTable {
			kinds[e.Column] = e.Kind
		}
	}
	assert.Equal(t, "num_cols", kinds["license"], "dropped columns keep their kind")
	assert.Equal(t, "num_cols", kinds["square_feet"])
	assert.Empty(t, kinds["bedrooms_missing"])

	before, after := res.Report.Totals()
	assert.Greater(t, before, after)

	var buf bytes.Buffer
	NewReportService(utils.NewNopLogger()).Print(&buf, res.Report)
	assert.Contains(t, buf.String(), "MISSING DATA REPORT")
	assert.Contains(t, buf.String(), "run-1")
	assert.Contains(t, buf.String(), "license")
}

func TestPipelineReportKindsOnRerun(t *testing.T) {
	paths, _, seed := setupCity(t)
	p, _ := newTestPipeline(t, "run-1", seed)
	_, err := p.Run(paths)
	require.NoError(t, err)

	// the persisted classification no longer lists license
	p, _ = newTestPipeline(t, "run-2", seed)
	res, err := p.Run(paths)
	require.NoError(t, err)
	for _, e := range res.Report.Entries {
		if e.Table == ListingsTable && e.Column == "license" {
			assert.Equal(t, models.StatusDropped, e.Status)
			assert.Equal(t, "num_cols", e.Kind)
		}
	}
}

func TestPipelineRunWithoutSeed(t *testing.T) {
	paths, _, _ := setupCity(t)
	p, _ := newTestPipeline(t, "run-1", nil)

	_, err := p.Run(paths)
	assert.Error(t, err)
}

func TestDatasetFromTablesRequiresAllThree(t *testing.T) {
	cal := table(t, CalendarTable, col("listing_id", models.TypeFloat, 1))
	lst := table(t, ListingsTable, col("id", models.TypeFloat, 1))

	_, err := DatasetFromTables([]*models.Table{cal, lst})
	assert.Error(t, err)
}
