package churnboard

import (
	"context"
)

type summarySource interface {
	FetchSummary(ctx context.Context) (Summary, error)
}

type chartSource interface {
	FetchChart(ctx context.Context, chart ChartType) (ChartDataset, error)
}

type dashboardSource interface {
	summarySource
	chartSource
}

// DashboardData is committed only when every dashboard request succeeded.
type DashboardData struct {
	Summary Summary      `json:"summary"`
	Churn   ChartDataset `json:"churn_distribution"`
	Revenue ChartDataset `json:"revenue_by_risk"`
}

// DashboardPage loads the summary and the two overview charts.
type DashboardPage struct {
	pageBase
	source dashboardSource
	charts *ChartRenderer
	slot   Slot[DashboardData]
}

// NewDashboardPage wires a dashboard page.
func NewDashboardPage(source dashboardSource, charts *ChartRenderer, telemetry Telemetry) *DashboardPage {
	if charts == nil {
		charts = NewChartRenderer()
	}
	return &DashboardPage{
		pageBase: newPageBase(PageDashboard, telemetry),
		source:   source,
		charts:   charts,
	}
}

// Load fetches summary and charts in parallel. A single failure fails the
// whole page.
func (p *DashboardPage) Load(ctx context.Context) (Result[DashboardData], error) {
	result, err := p.slot.Run(ctx, p.fetch, fixedMessage("Failed to load dashboard data"))
	p.recordError(ctx, "load", err)
	p.recordLoad(ctx, result.State, nil)
	return result, err
}

func (p *DashboardPage) fetch(ctx context.Context) (DashboardData, error) {
	var data DashboardData
	err := FetchAll(ctx,
		func(ctx context.Context) error {
			summary, err := p.source.FetchSummary(ctx)
			data.Summary = summary
			return err
		},
		func(ctx context.Context) error {
			churn, err := p.source.FetchChart(ctx, ChartChurnDistribution)
			data.Churn = churn
			return err
		},
		func(ctx context.Context) error {
			revenue, err := p.source.FetchChart(ctx, ChartRevenueByRisk)
			data.Revenue = revenue
			return err
		},
	)
	if err != nil {
		return DashboardData{}, err
	}
	return data, nil
}

// Result returns the current state.
func (p *DashboardPage) Result() Result[DashboardData] {
	return p.slot.Snapshot()
}

// Dismiss clears the page alert.
func (p *DashboardPage) Dismiss() {
	p.slot.Dismiss()
}

// View builds the template payload.
func (p *DashboardPage) View(ctx context.Context) ViewData {
	result := p.slot.Snapshot()
	view := ViewData{"page": PageDashboard, "result": resultView(result)}
	if !result.HasData {
		return view
	}
	data := result.Data
	summary := data.Summary
	view["cards"] = []ViewData{
		{"title": "Total Customers", "value": FormatInt(summary.TotalCustomers)},
		{"title": "Total Revenue", "value": FormatCurrency(summary.TotalRevenue)},
		{"title": "Avg Order Value", "value": FormatCurrency(summary.AvgOrderValue)},
		{"title": "High Risk Customers", "value": FormatInt(summary.RiskCount(RiskHigh)), "color": RiskColor(RiskHigh)},
	}
	view["churn_total"] = FormatNumber(data.Churn.Total(), 0)

	if html, err := p.charts.ChurnDistribution(data.Churn); err != nil {
		p.recordError(ctx, "render.churn_distribution", err)
	} else {
		view["churn_chart"] = html
	}
	if html, err := p.charts.RevenueByRisk(data.Revenue); err != nil {
		p.recordError(ctx, "render.revenue_by_risk", err)
	} else {
		view["revenue_chart"] = html
	}

	rows := make([]ViewData, 0, len(summary.RecentPredictions))
	for _, pred := range summary.RecentPredictions {
		rows = append(rows, ViewData{
			"id":          pred.ID,
			"customer_id": pred.CustomerID,
			"risk":        StyleForRisk(pred.Risk),
			"confidence":  FormatPercent(pred.Confidence),
			"date":        FormatDateTime(pred.Date),
		})
	}
	view["recent_predictions"] = rows
	return view
}
