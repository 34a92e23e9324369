package churnboard

import (
	"context"
	"sync"
)

// TrendLine is one risk label's monthly counts.
type TrendLine struct {
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
}

// TrendSeries is a month-indexed set of trend lines.
type TrendSeries struct {
	Months []string    `json:"months"`
	Series []TrendLine `json:"series"`
}

// DefaultTrend returns the fixed illustrative six-month trend. The backend
// exposes no time series, so this is presentation data only.
func DefaultTrend() TrendSeries {
	return TrendSeries{
		Months: []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun"},
		Series: []TrendLine{
			{Label: RiskHigh, Values: []float64{1200, 1100, 1000, 950, 900, 850}},
			{Label: RiskMedium, Values: []float64{800, 850, 900, 950, 1000, 1050}},
			{Label: RiskLow, Values: []float64{2000, 2100, 2200, 2300, 2400, 2500}},
			{Label: RiskStable, Values: []float64{600, 650, 700, 750, 800, 850}},
		},
	}
}

// AnalyticsData bundles the three backend datasets plus the trend.
type AnalyticsData struct {
	Churn      ChartDataset `json:"churn_distribution"`
	Revenue    ChartDataset `json:"revenue_by_risk"`
	Geographic ChartDataset `json:"geographic_distribution"`
	Trend      TrendSeries  `json:"trend"`
}

// AnalyticsPage shows one selectable chart over datasets fetched together.
type AnalyticsPage struct {
	pageBase
	source chartSource
	charts *ChartRenderer

	mu       sync.Mutex
	selected ChartKind
	slot     Slot[AnalyticsData]
}

// NewAnalyticsPage wires an analytics page.
func NewAnalyticsPage(source chartSource, charts *ChartRenderer, telemetry Telemetry) *AnalyticsPage {
	if charts == nil {
		charts = NewChartRenderer()
	}
	return &AnalyticsPage{
		pageBase: newPageBase(PageAnalytics, telemetry),
		source:   source,
		charts:   charts,
		selected: KindChurnDistribution,
	}
}

// Load fetches all datasets in parallel.
func (p *AnalyticsPage) Load(ctx context.Context) (Result[AnalyticsData], error) {
	result, err := p.slot.Run(ctx, p.fetch, fixedMessage("Failed to load analytics data"))
	p.recordError(ctx, "load", err)
	p.recordLoad(ctx, result.State, map[string]any{"chart": string(p.Selected())})
	return result, err
}

func (p *AnalyticsPage) fetch(ctx context.Context) (AnalyticsData, error) {
	data := AnalyticsData{Trend: DefaultTrend()}
	targets := map[ChartType]*ChartDataset{
		ChartChurnDistribution:      &data.Churn,
		ChartRevenueByRisk:          &data.Revenue,
		ChartGeographicDistribution: &data.Geographic,
	}
	fetches := make([]func(context.Context) error, 0, len(targets))
	for chart, target := range targets {
		fetches = append(fetches, func(ctx context.Context) error {
			ds, err := p.source.FetchChart(ctx, chart)
			*target = ds
			return err
		})
	}
	if err := FetchAll(ctx, fetches...); err != nil {
		return AnalyticsData{}, err
	}
	return data, nil
}

// Select switches the displayed chart without refetching.
func (p *AnalyticsPage) Select(kind ChartKind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selected = kind
}

// Selected returns the displayed chart kind.
func (p *AnalyticsPage) Selected() ChartKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selected
}

// Result returns the current state.
func (p *AnalyticsPage) Result() Result[AnalyticsData] {
	return p.slot.Snapshot()
}

// Dismiss clears the page alert.
func (p *AnalyticsPage) Dismiss() {
	p.slot.Dismiss()
}

// View builds the template payload.
func (p *AnalyticsPage) View(ctx context.Context) ViewData {
	selected := p.Selected()
	result := p.slot.Snapshot()

	options := make([]ViewData, 0, len(ChartKinds()))
	for _, kind := range ChartKinds() {
		options = append(options, ViewData{"value": string(kind), "title": kind.Title(), "selected": kind == selected})
	}
	view := ViewData{
		"page":     PageAnalytics,
		"result":   resultView(result),
		"options":  options,
		"selected": string(selected),
		"title":    selected.Title(),
	}
	if !result.HasData {
		return view
	}
	data := result.Data
	if html, err := p.charts.RenderKind(selected, data); err != nil {
		p.recordError(ctx, "render."+string(selected), err)
	} else {
		view["chart"] = html
	}

	total := data.Churn.Total()
	distribution := make([]ViewData, 0, len(data.Churn.Labels))
	for i, label := range data.Churn.Labels {
		if i >= len(data.Churn.Data) {
			break
		}
		share := 0.0
		if total > 0 {
			share = data.Churn.Data[i] / total
		}
		distribution = append(distribution, ViewData{
			"risk":    StyleForRisk(label),
			"count":   FormatNumber(data.Churn.Data[i], 0),
			"percent": FormatPercent(share),
		})
	}
	view["quick_stats"] = ViewData{
		"total_customers": FormatNumber(total, 0),
		"total_revenue":   "$" + FormatNumber(data.Revenue.RevenueTotal(), 0),
		"distribution":    distribution,
	}
	return view
}
