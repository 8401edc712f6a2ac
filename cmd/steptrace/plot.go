package main

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/stride.report/internal/stepdetect"
)

var (
	colorRaw   = color.RGBA{R: 180, G: 180, B: 180, A: 255}
	colorShort = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	colorLong  = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	colorPower = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	colorStep  = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// powerPlotPath derives the power plot file name from the filter plot name:
// trace.png becomes trace_power.png.
func powerPlotPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_power" + ext
}

func seconds(ts, t0 int64) float64 { return float64(ts-t0) / 1e9 }

// SavePlots writes two PNGs: the raw signal with both moving averages and
// step markers, and the cumulative power against the gate thresholds. It
// returns the paths written.
func SavePlots(tr *Trace, cfg stepdetect.Config, path string) ([]string, error) {
	if len(tr.States) == 0 {
		return nil, fmt.Errorf("no samples to plot")
	}
	t0 := tr.States[0].Timestamp

	raw := make(plotter.XYs, 0, len(tr.States))
	short := make(plotter.XYs, 0, len(tr.States))
	long := make(plotter.XYs, 0, len(tr.States))
	power := make(plotter.XYs, 0, len(tr.States))
	var steps plotter.XYs
	var lastSteps uint64
	for _, st := range tr.States {
		x := seconds(st.Timestamp, t0)
		raw = append(raw, plotter.XY{X: x, Y: st.Raw})
		short = append(short, plotter.XY{X: x, Y: st.ShortAverage})
		long = append(long, plotter.XY{X: x, Y: st.LongAverage})
		power = append(power, plotter.XY{X: x, Y: st.Power})
		if st.Steps != lastSteps {
			steps = append(steps, plotter.XY{X: x, Y: st.ShortAverage})
			lastSteps = st.Steps
		}
	}
	end := raw[len(raw)-1].X

	pFilters := plot.New()
	pFilters.Title.Text = fmt.Sprintf("Moving averages (short %.2fs, long %.2fs), %d steps", cfg.ShortWindowSeconds, cfg.LongWindowSeconds, len(steps))
	pFilters.X.Label.Text = "Time (s)"
	pFilters.Y.Label.Text = "Acceleration"

	for _, series := range []struct {
		name string
		xys  plotter.XYs
		c    color.Color
	}{
		{"raw", raw, colorRaw},
		{"short", short, colorShort},
		{"long", long, colorLong},
	} {
		line, err := plotter.NewLine(series.xys)
		if err != nil {
			return nil, err
		}
		line.Color = series.c
		line.Width = vg.Points(1)
		pFilters.Add(line)
		pFilters.Legend.Add(series.name, line)
	}
	if len(steps) > 0 {
		markers, err := plotter.NewScatter(steps)
		if err != nil {
			return nil, err
		}
		markers.GlyphStyle = draw.GlyphStyle{Color: colorStep, Radius: vg.Points(3), Shape: draw.TriangleGlyph{}}
		pFilters.Add(markers)
		pFilters.Legend.Add("step", markers)
	}

	pPower := plot.New()
	pPower.Title.Text = "Cumulative power (gating " + cfg.Gating.String() + ")"
	pPower.X.Label.Text = "Time (s)"
	pPower.Y.Label.Text = "Power"

	powerLine, err := plotter.NewLine(power)
	if err != nil {
		return nil, err
	}
	powerLine.Color = colorPower
	powerLine.Width = vg.Points(1)
	pPower.Add(powerLine)
	pPower.Legend.Add("power", powerLine)

	thresholds := []float64{cfg.LowPowerThreshold}
	if cfg.Gating == stepdetect.GateDual {
		thresholds = append(thresholds, cfg.HighPowerThreshold)
	}
	for _, th := range thresholds {
		line, err := plotter.NewLine(plotter.XYs{{X: 0, Y: th}, {X: end, Y: th}})
		if err != nil {
			return nil, err
		}
		line.Color = colorStep
		line.Width = vg.Points(1)
		line.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		pPower.Add(line)
	}

	for _, p := range []*plot.Plot{pFilters, pPower} {
		p.Legend.Top = true
		p.Legend.Left = false
		p.Legend.XOffs = -10
		p.Legend.YOffs = -10
	}

	powerPath := powerPlotPath(path)
	if err := pFilters.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return nil, fmt.Errorf("failed to save %s: %w", path, err)
	}
	if err := pPower.Save(14*vg.Inch, 6*vg.Inch, powerPath); err != nil {
		return nil, fmt.Errorf("failed to save %s: %w", powerPath, err)
	}
	return []string{path, powerPath}, nil
}
