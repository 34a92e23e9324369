package churnapi

import (
	"context"

	churnboard "github.com/goliatone/go-churnboard/components/churnboard"
)

// SummaryClient fetches the dashboard headline numbers.
type SummaryClient interface {
	FetchSummary(ctx context.Context) (churnboard.Summary, error)
}

// ChartClient fetches chart datasets.
type ChartClient interface {
	FetchChart(ctx context.Context, chart churnboard.ChartType) (churnboard.ChartDataset, error)
}

// CustomerClient lists and reads customers.
type CustomerClient interface {
	ListCustomers(ctx context.Context, query churnboard.CustomerQuery) (churnboard.CustomerPage, error)
	GetCustomer(ctx context.Context, id int) (churnboard.Customer, error)
}

// CampaignClient manages retention campaigns.
type CampaignClient interface {
	ListCampaigns(ctx context.Context) ([]churnboard.Campaign, error)
	CreateCampaign(ctx context.Context, input churnboard.CampaignInput) (int, error)
	UpdateCampaign(ctx context.Context, id int, input churnboard.CampaignInput) error
	DeleteCampaign(ctx context.Context, id int) error
}

// PredictionClient scores a feature vector.
type PredictionClient interface {
	Predict(ctx context.Context, input churnboard.PredictionInput) (churnboard.Prediction, error)
}

// HealthClient checks backend health.
type HealthClient interface {
	Health(ctx context.Context) (churnboard.Health, error)
}

// Client is the full backend surface.
type Client interface {
	SummaryClient
	ChartClient
	CustomerClient
	CampaignClient
	PredictionClient
	HealthClient
}

var (
	_ Client             = (*HTTPClient)(nil)
	_ Client             = (*MockClient)(nil)
	_ churnboard.Backend = (*HTTPClient)(nil)
	_ churnboard.Backend = (*MockClient)(nil)
)
