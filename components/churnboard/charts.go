package churnboard

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const defaultChartHeight = "360px"

// ChartKind names a rendered visualisation. Several kinds may be drawn
// from the same backend dataset.
type ChartKind string

const (
	KindChurnDistribution      ChartKind = "churn_distribution"
	KindRevenueAnalysis        ChartKind = "revenue_analysis"
	KindGeographicDistribution ChartKind = "geographic_distribution"
	KindTrendAnalysis          ChartKind = "trend_analysis"
)

// ChartKinds lists the analytics selector options in display order.
func ChartKinds() []ChartKind {
	return []ChartKind{KindChurnDistribution, KindRevenueAnalysis, KindGeographicDistribution, KindTrendAnalysis}
}

// ParseChartKind maps a selector value to a kind, defaulting to the churn
// distribution for unknown input.
func ParseChartKind(raw string) ChartKind {
	for _, kind := range ChartKinds() {
		if string(kind) == strings.TrimSpace(raw) {
			return kind
		}
	}
	return KindChurnDistribution
}

// Title returns the human label of the kind.
func (k ChartKind) Title() string {
	switch k {
	case KindRevenueAnalysis:
		return "Revenue Analysis"
	case KindGeographicDistribution:
		return "Geographic Distribution"
	case KindTrendAnalysis:
		return "Churn Trend Analysis"
	default:
		return "Churn Risk Distribution"
	}
}

// ChartRenderer turns datasets into go-echarts markup.
type ChartRenderer struct {
	cache      RenderCache
	theme      string
	assetsHost string
	height     string
}

// ChartOption customizes a ChartRenderer.
type ChartOption func(*ChartRenderer)

// WithChartCache injects a render cache. A nil cache disables caching.
func WithChartCache(cache RenderCache) ChartOption {
	return func(r *ChartRenderer) {
		r.cache = cache
	}
}

// WithChartTheme sets the echarts theme (defaults to Westeros).
func WithChartTheme(theme string) ChartOption {
	return func(r *ChartRenderer) {
		if theme != "" {
			r.theme = theme
		}
	}
}

// WithChartAssetsHost rewrites the host the echarts JS is loaded from.
func WithChartAssetsHost(host string) ChartOption {
	return func(r *ChartRenderer) {
		r.assetsHost = host
	}
}

// WithChartHeight overrides the canvas height.
func WithChartHeight(height string) ChartOption {
	return func(r *ChartRenderer) {
		if height != "" {
			r.height = height
		}
	}
}

// NewChartRenderer builds a renderer with a private TTL cache unless one
// is provided.
func NewChartRenderer(options ...ChartOption) *ChartRenderer {
	r := &ChartRenderer{
		cache:  NewChartCache(defaultChartCacheTTL),
		theme:  types.ThemeWesteros,
		height: defaultChartHeight,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// ChurnDistribution draws the risk distribution as a pie coloured per label.
func (r *ChartRenderer) ChurnDistribution(ds ChartDataset) (string, error) {
	return r.cached(KindChurnDistribution, ds.Digest(), func() (string, error) {
		pie := charts.NewPie()
		pie.SetGlobalOptions(r.globalOptions(KindChurnDistribution.Title(), "Customers by churn risk")...)
		pie.AddSeries("Customers", toRiskPieData(ds.Labels, ds.Data))
		pie.SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {c}"}))
		return renderChart(pie)
	})
}

// RevenueByRisk draws total and average revenue per risk label.
func (r *ChartRenderer) RevenueByRisk(ds ChartDataset) (string, error) {
	return r.cached(KindRevenueAnalysis, ds.Digest(), func() (string, error) {
		bar := charts.NewBar()
		bar.SetGlobalOptions(r.globalOptions(KindRevenueAnalysis.Title(), "Total and average revenue by risk level")...)
		bar.SetXAxis(ds.Labels)
		bar.AddSeries("Total Revenue", toBarData(ds.Labels, ds.TotalRevenue))
		bar.AddSeries("Avg Revenue", toBarData(ds.Labels, ds.AvgRevenue))
		return renderChart(bar)
	})
}

// GeographicDistribution draws customers per state.
func (r *ChartRenderer) GeographicDistribution(ds ChartDataset) (string, error) {
	return r.cached(KindGeographicDistribution, ds.Digest(), func() (string, error) {
		bar := charts.NewBar()
		bar.SetGlobalOptions(r.globalOptions(KindGeographicDistribution.Title(), "Top states by customer count")...)
		bar.SetXAxis(ds.Labels)
		bar.AddSeries("Customers", toBarData(ds.Labels, ds.Data))
		return renderChart(bar)
	})
}

// Trend draws the monthly risk trend as stacked areas.
func (r *ChartRenderer) Trend(trend TrendSeries) (string, error) {
	return r.cached(KindTrendAnalysis, trend.Digest(), func() (string, error) {
		line := charts.NewLine()
		line.SetGlobalOptions(r.globalOptions(KindTrendAnalysis.Title(), "Customers per risk level over time")...)
		line.SetXAxis(trend.Months)
		for _, series := range trend.Series {
			line.AddSeries(series.Label, toLineData(trend.Months, series.Values),
				charts.WithItemStyleOpts(opts.ItemStyle{Color: RiskColor(series.Label)}),
			)
		}
		line.SetSeriesOptions(
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true), Stack: "risk"}),
			charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: 0.4}),
		)
		return renderChart(line)
	})
}

// RenderKind renders the analytics chart selected by kind.
func (r *ChartRenderer) RenderKind(kind ChartKind, data AnalyticsData) (string, error) {
	switch kind {
	case KindChurnDistribution:
		return r.ChurnDistribution(data.Churn)
	case KindRevenueAnalysis:
		return r.RevenueByRisk(data.Revenue)
	case KindGeographicDistribution:
		return r.GeographicDistribution(data.Geographic)
	case KindTrendAnalysis:
		return r.Trend(data.Trend)
	default:
		return "", fmt.Errorf("churnboard: unsupported chart kind %q", kind)
	}
}

func (r *ChartRenderer) cached(kind ChartKind, digest uint64, render func() (string, error)) (string, error) {
	if r.cache == nil {
		return render()
	}
	return r.cache.Chart(ChartKey{Kind: kind, Theme: r.theme, Digest: digest}, render)
}

func (r *ChartRenderer) globalOptions(title, subtitle string) []charts.GlobalOpts {
	initOpts := opts.Initialization{
		Theme:  r.theme,
		Width:  "100%",
		Height: r.height,
	}
	if r.assetsHost != "" {
		initOpts.AssetsHost = r.assetsHost
	}
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithInitializationOpts(initOpts),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	}
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func toRiskPieData(labels []string, values []float64) []opts.PieData {
	n := min(len(labels), len(values))
	data := make([]opts.PieData, n)
	for i := range n {
		data[i] = opts.PieData{
			Name:      labels[i],
			Value:     values[i],
			ItemStyle: &opts.ItemStyle{Color: RiskColor(labels[i])},
		}
	}
	return data
}

func toBarData(labels []string, values []float64) []opts.BarData {
	n := min(len(labels), len(values))
	data := make([]opts.BarData, n)
	for i := range n {
		data[i] = opts.BarData{Name: labels[i], Value: values[i]}
	}
	return data
}

func toLineData(labels []string, values []float64) []opts.LineData {
	n := min(len(labels), len(values))
	data := make([]opts.LineData, n)
	for i := range n {
		data[i] = opts.LineData{Name: labels[i], Value: values[i]}
	}
	return data
}
