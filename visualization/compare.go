// Package visualization renders the charts used to pick imputation strategies.
// Nothing here changes the data.
package visualization

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"

	"airbnb-cleaner/models"
)

const (
	plotSize   = 640
	plotMargin = 60.0
)

// ErrNoPairs is returned when no row holds a value in both columns.
var ErrNoPairs = errors.New("no rows with both values present")

// Pairs returns the (x, y) values of the rows where both columns are present.
func Pairs(x, y *models.Column) (xs, ys []float64, err error) {
	if x.Type != models.TypeFloat || y.Type != models.TypeFloat {
		return nil, nil, fmt.Errorf("compare %s/%s: both columns must be float", x.Name, y.Name)
	}
	for i, xv := range x.Values {
		if i >= len(y.Values) {
			break
		}
		if yv := y.Values[i]; xv.Valid && yv.Valid {
			xs = append(xs, xv.Num)
			ys = append(ys, yv.Num)
		}
	}
	if len(xs) == 0 {
		return nil, nil, ErrNoPairs
	}
	return xs, ys, nil
}

// ComparePNG draws a scatter plot of y against x with the line through the
// origin whose slope is the mean y/x ratio, and saves it as a PNG.
func ComparePNG(path string, x, y *models.Column) error {
	xs, ys, err := Pairs(x, y)
	if err != nil {
		return err
	}

	maxX, maxY := xs[0], ys[0]
	var ratioSum float64
	ratios := 0
	for i := range xs {
		maxX = max(maxX, xs[i])
		maxY = max(maxY, ys[i])
		if xs[i] != 0 {
			ratioSum += ys[i] / xs[i]
			ratios++
		}
	}
	if maxX <= 0 {
		maxX = 1
	}
	if maxY <= 0 {
		maxY = 1
	}

	inner := float64(plotSize) - 2*plotMargin
	px := func(v float64) float64 { return plotMargin + v/maxX*inner }
	py := func(v float64) float64 { return float64(plotSize) - plotMargin - v/maxY*inner }

	dc := gg.NewContext(plotSize, plotSize)
	dc.SetColor(color.White)
	dc.Clear()

	dc.SetColor(color.Black)
	dc.SetLineWidth(1)
	dc.DrawLine(plotMargin, py(0), px(maxX), py(0))
	dc.DrawLine(plotMargin, py(0), plotMargin, py(maxY))
	dc.Stroke()
	dc.DrawStringAnchored(x.Name, float64(plotSize)/2, float64(plotSize)-plotMargin/3, 0.5, 0.5)
	dc.DrawStringAnchored(y.Name, plotMargin/3, plotMargin/2, 0, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%.0f", maxX), px(maxX), py(0)+14, 0.5, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%.0f", maxY), plotMargin-6, py(maxY), 1, 0.5)

	dc.SetRGBA(0.2, 0.4, 0.8, 0.5)
	for i := range xs {
		dc.DrawCircle(px(xs[i]), py(ys[i]), 2.5)
		dc.Fill()
	}

	if ratios > 0 {
		slope := ratioSum / float64(ratios)
		endX := maxX
		if slope*endX > maxY {
			endX = maxY / slope
		}
		dc.SetRGB(0.85, 0.2, 0.2)
		dc.SetLineWidth(2)
		dc.DrawLine(px(0), py(0), px(endX), py(slope*endX))
		dc.Stroke()
		dc.DrawStringAnchored(fmt.Sprintf("mean ratio %.3f", slope), px(maxX), plotMargin/2, 1, 0.5)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("plot: create output dir: %w", err)
	}
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("plot: save %q: %w", path, err)
	}
	return nil
}
