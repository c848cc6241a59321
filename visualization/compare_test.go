package visualization

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airbnb-cleaner/models"
)

func column(name string, vals ...any) *models.Column {
	c := models.NewColumn(name, models.TypeFloat, len(vals))
	for i, v := range vals {
		if f, ok := v.(float64); ok {
			c.Values[i] = models.Float(f)
		}
	}
	return c
}

func TestPairsSkipsIncompleteRows(t *testing.T) {
	price := column("price", 100.0, 200.0, nil, 50.0)
	weekly := column("weekly_price", 700.0, nil, 500.0, 350.0)

	xs, ys, err := Pairs(price, weekly)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 50}, xs)
	assert.Equal(t, []float64{700, 350}, ys)
}

func TestPairsNoOverlap(t *testing.T) {
	_, _, err := Pairs(column("price", 1.0, nil), column("weekly_price", nil, 2.0))
	assert.ErrorIs(t, err, ErrNoPairs)
}

func TestPairsRequiresFloatColumns(t *testing.T) {
	text := models.NewColumn("summary", models.TypeString, 1)
	_, _, err := Pairs(text, column("price", 1.0))
	assert.Error(t, err)
}

func TestComparePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plots", "price_vs_weekly_price.png")
	price := column("price", 100.0, 200.0, 50.0, 0.0)
	weekly := column("weekly_price", 700.0, 1400.0, 350.0, 10.0)

	require.NoError(t, ComparePNG(path, price, weekly))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, plotSize, cfg.Width)
	assert.Equal(t, plotSize, cfg.Height)
}
