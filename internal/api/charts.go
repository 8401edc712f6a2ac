package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/stride.report/internal/httputil"
	"github.com/banshee-data/stride.report/internal/stepdetect"
)

const echartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// filterSeries is the chart data derived from a run of snapshots. X values
// are seconds since the first snapshot.
type filterSeries struct {
	x     []string
	raw   []opts.LineData
	short []opts.LineData
	long  []opts.LineData
	power []opts.LineData
	steps []opts.LineData
}

func buildFilterSeries(snaps []stepdetect.State) filterSeries {
	fs := filterSeries{
		x:     make([]string, 0, len(snaps)),
		raw:   make([]opts.LineData, 0, len(snaps)),
		short: make([]opts.LineData, 0, len(snaps)),
		long:  make([]opts.LineData, 0, len(snaps)),
		power: make([]opts.LineData, 0, len(snaps)),
		steps: make([]opts.LineData, 0, len(snaps)),
	}
	if len(snaps) == 0 {
		return fs
	}

	t0 := snaps[0].Timestamp
	lastSteps := snaps[0].Steps
	for _, st := range snaps {
		fs.x = append(fs.x, fmt.Sprintf("%.2f", float64(st.Timestamp-t0)/1e9))
		fs.raw = append(fs.raw, opts.LineData{Value: st.Raw})
		fs.short = append(fs.short, opts.LineData{Value: st.ShortAverage})
		fs.long = append(fs.long, opts.LineData{Value: st.LongAverage})
		fs.power = append(fs.power, opts.LineData{Value: st.Power})

		// A step marker sits on the short average wherever the step count
		// moved since the previous snapshot.
		if st.Steps != lastSteps {
			fs.steps = append(fs.steps, opts.LineData{Value: st.ShortAverage, Symbol: "triangle", SymbolSize: 10})
		} else {
			fs.steps = append(fs.steps, opts.LineData{Value: nil})
		}
		lastSteps = st.Steps
	}
	return fs
}

// handleFilterChart renders the recent filter history (HTML) using
// go-echarts. Debugging only; there is no auth.
func (s *Server) handleFilterChart(w http.ResponseWriter, r *http.Request) {
	snaps := s.history.Snapshots()
	if len(snaps) == 0 {
		httputil.NotFound(w, "no snapshots recorded yet")
		return
	}
	fs := buildFilterSeries(snaps)
	cfg := s.engine.Config()
	last := snaps[len(snaps)-1]

	filters := charts.NewLine()
	filters.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Moving averages",
			Subtitle: fmt.Sprintf("short=%.2fs long=%.2fs steps=%d", cfg.ShortWindowSeconds, cfg.LongWindowSeconds, last.Steps),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "30"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)
	filters.SetXAxis(fs.x).
		AddSeries("raw", fs.raw, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)})).
		AddSeries("short", fs.short, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)})).
		AddSeries("long", fs.long, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)})).
		AddSeries("steps", fs.steps, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}),
			charts.WithLineStyleOpts(opts.LineStyle{Opacity: opts.Float(0)}))

	power := charts.NewLine()
	power.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "320px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Cumulative power", Subtitle: "gating=" + cfg.Gating.String()}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)", NameLocation: "middle", NameGap: 25}),
	)
	marks := []opts.MarkLineNameYAxisItem{{Name: "low", YAxis: cfg.LowPowerThreshold}}
	if cfg.Gating == stepdetect.GateDual {
		marks = append(marks, opts.MarkLineNameYAxisItem{Name: "high", YAxis: cfg.HighPowerThreshold})
	}
	power.SetXAxis(fs.x).
		AddSeries("power", fs.power,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithMarkLineNameYAxisItemOpts(marks...),
		)

	page := components.NewPage()
	page.SetPageTitle("Step detector filters")
	page.SetAssetsHost(echartsAssetsHost)
	page.AddCharts(filters, power)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
