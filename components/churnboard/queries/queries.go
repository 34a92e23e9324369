package queries

import (
	"context"
	"errors"

	churnboard "github.com/goliatone/go-churnboard/components/churnboard"
	gocommand "github.com/goliatone/go-command"
)

// SummaryInput requests the dashboard headline numbers.
type SummaryInput struct{}

type summaryService interface {
	FetchSummary(ctx context.Context) (churnboard.Summary, error)
}

// SummaryQuery fetches the dashboard summary.
type SummaryQuery struct {
	service summaryService
}

// NewSummaryQuery builds the query.
func NewSummaryQuery(service summaryService) *SummaryQuery {
	return &SummaryQuery{service: service}
}

var _ gocommand.Querier[SummaryInput, churnboard.Summary] = (*SummaryQuery)(nil)

// Query returns the summary.
func (q *SummaryQuery) Query(ctx context.Context, _ SummaryInput) (churnboard.Summary, error) {
	if q.service == nil {
		return churnboard.Summary{}, errors.New("summary query requires service")
	}
	return q.service.FetchSummary(ctx)
}

type customerService interface {
	ListCustomers(ctx context.Context, query churnboard.CustomerQuery) (churnboard.CustomerPage, error)
	GetCustomer(ctx context.Context, id int) (churnboard.Customer, error)
}

// CustomersQuery lists a page of customers.
type CustomersQuery struct {
	service customerService
}

// NewCustomersQuery builds the query.
func NewCustomersQuery(service customerService) *CustomersQuery {
	return &CustomersQuery{service: service}
}

var _ gocommand.Querier[churnboard.CustomerQuery, churnboard.CustomerPage] = (*CustomersQuery)(nil)

// Query applies paging defaults and lists customers.
func (q *CustomersQuery) Query(ctx context.Context, input churnboard.CustomerQuery) (churnboard.CustomerPage, error) {
	if q.service == nil {
		return churnboard.CustomerPage{}, errors.New("customers query requires service")
	}
	return q.service.ListCustomers(ctx, input.Normalize())
}

// CustomerInput identifies one customer.
type CustomerInput struct {
	ID int
}

// CustomerQuery fetches one customer.
type CustomerQuery struct {
	service customerService
}

// NewCustomerQuery builds the query.
func NewCustomerQuery(service customerService) *CustomerQuery {
	return &CustomerQuery{service: service}
}

var _ gocommand.Querier[CustomerInput, churnboard.Customer] = (*CustomerQuery)(nil)

// Query returns the customer.
func (q *CustomerQuery) Query(ctx context.Context, input CustomerInput) (churnboard.Customer, error) {
	if q.service == nil {
		return churnboard.Customer{}, errors.New("customer query requires service")
	}
	if input.ID <= 0 {
		return churnboard.Customer{}, errors.New("customer query requires an id")
	}
	return q.service.GetCustomer(ctx, input.ID)
}

// CampaignsInput requests the campaign list.
type CampaignsInput struct{}

type campaignService interface {
	ListCampaigns(ctx context.Context) ([]churnboard.Campaign, error)
}

// CampaignsReport is the list with its derived statistics.
type CampaignsReport struct {
	Campaigns []churnboard.Campaign    `json:"campaigns"`
	Stats     churnboard.CampaignStats `json:"stats"`
}

// CampaignsQuery lists campaigns and computes their statistics.
type CampaignsQuery struct {
	service campaignService
}

// NewCampaignsQuery builds the query.
func NewCampaignsQuery(service campaignService) *CampaignsQuery {
	return &CampaignsQuery{service: service}
}

var _ gocommand.Querier[CampaignsInput, CampaignsReport] = (*CampaignsQuery)(nil)

// Query returns the campaigns report.
func (q *CampaignsQuery) Query(ctx context.Context, _ CampaignsInput) (CampaignsReport, error) {
	if q.service == nil {
		return CampaignsReport{}, errors.New("campaigns query requires service")
	}
	campaigns, err := q.service.ListCampaigns(ctx)
	if err != nil {
		return CampaignsReport{}, err
	}
	return CampaignsReport{Campaigns: campaigns, Stats: churnboard.ComputeCampaignStats(campaigns)}, nil
}

// HealthInput requests a backend health check.
type HealthInput struct{}

type healthService interface {
	Health(ctx context.Context) (churnboard.Health, error)
}

// HealthQuery checks backend health.
type HealthQuery struct {
	service healthService
}

// NewHealthQuery builds the query.
func NewHealthQuery(service healthService) *HealthQuery {
	return &HealthQuery{service: service}
}

var _ gocommand.Querier[HealthInput, churnboard.Health] = (*HealthQuery)(nil)

// Query returns the backend health.
func (q *HealthQuery) Query(ctx context.Context, _ HealthInput) (churnboard.Health, error) {
	if q.service == nil {
		return churnboard.Health{}, errors.New("health query requires service")
	}
	return q.service.Health(ctx)
}
