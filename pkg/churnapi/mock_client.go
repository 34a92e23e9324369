package churnapi

import (
	"context"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	churnboard "github.com/goliatone/go-churnboard/components/churnboard"
)

// MockData seeds deterministic backend responses for tests or local demos.
type MockData struct {
	Summary    churnboard.Summary
	Charts     map[churnboard.ChartType]churnboard.ChartDataset
	Customers  []churnboard.Customer
	Campaigns  []churnboard.Campaign
	Prediction churnboard.Prediction
	Health     churnboard.Health
}

// MockClient implements Client using in-memory fixtures. Campaign mutations
// are applied to the fixture list so a re-fetch observes them.
type MockClient struct {
	mu     sync.RWMutex
	data   MockData
	nextID int
	errs   map[string]error
	calls  map[string]int
	now    func() time.Time
}

// NewMockClient builds a mock client from the provided fixtures.
func NewMockClient(data MockData) *MockClient {
	next := 1
	for _, c := range data.Campaigns {
		if c.ID >= next {
			next = c.ID + 1
		}
	}
	data.Campaigns = slices.Clone(data.Campaigns)
	data.Customers = slices.Clone(data.Customers)
	return &MockClient{
		data:   data,
		nextID: next,
		errs:   make(map[string]error),
		calls:  make(map[string]int),
		now:    time.Now,
	}
}

// FailWith makes every later call to op return err until cleared with a nil
// error. op is the method name, e.g. "ListCampaigns".
func (c *MockClient) FailWith(op string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.errs, op)
		return
	}
	c.errs[op] = err
}

// Calls reports how many times op was invoked.
func (c *MockClient) Calls(op string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.calls[op]
}

func (c *MockClient) enter(ctx context.Context, op string) error {
	c.mu.Lock()
	c.calls[op]++
	err := c.errs[op]
	c.mu.Unlock()
	if err != nil {
		return err
	}
	return ctx.Err()
}

// FetchSummary returns the configured summary.
func (c *MockClient) FetchSummary(ctx context.Context) (churnboard.Summary, error) {
	if err := c.enter(ctx, "FetchSummary"); err != nil {
		return churnboard.Summary{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	summary := c.data.Summary
	summary.ChurnDistribution = maps.Clone(summary.ChurnDistribution)
	summary.RecentPredictions = slices.Clone(summary.RecentPredictions)
	return summary, nil
}

// FetchChart returns the configured dataset or a not found error.
func (c *MockClient) FetchChart(ctx context.Context, chart churnboard.ChartType) (churnboard.ChartDataset, error) {
	if err := c.enter(ctx, "FetchChart"); err != nil {
		return churnboard.ChartDataset{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	ds, ok := c.data.Charts[chart]
	if !ok {
		return churnboard.ChartDataset{}, statusError(http.MethodGet, "/api/analytics/charts?type="+string(chart), http.StatusNotFound, []byte(`{"error":"Invalid chart type"}`))
	}
	ds.Type = chart
	ds.Labels = slices.Clone(ds.Labels)
	ds.Data = slices.Clone(ds.Data)
	ds.TotalRevenue = slices.Clone(ds.TotalRevenue)
	ds.AvgRevenue = slices.Clone(ds.AvgRevenue)
	return ds, nil
}

// ListCustomers filters and pages the fixture customers the way the backend
// does: search matches id, city or state, risk_level matches exactly.
func (c *MockClient) ListCustomers(ctx context.Context, query churnboard.CustomerQuery) (churnboard.CustomerPage, error) {
	if err := c.enter(ctx, "ListCustomers"); err != nil {
		return churnboard.CustomerPage{}, err
	}
	query = query.Normalize()
	c.mu.RLock()
	defer c.mu.RUnlock()
	search := strings.ToLower(strings.TrimSpace(query.Search))
	var matched []churnboard.Customer
	for _, cust := range c.data.Customers {
		if query.RiskLevel != "" && cust.ChurnRisk != query.RiskLevel {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(cust.UniqueID), search) &&
			!strings.Contains(strings.ToLower(cust.City), search) &&
			!strings.Contains(strings.ToLower(cust.State), search) {
			continue
		}
		matched = append(matched, cust)
	}
	total := len(matched)
	start := min((query.Page-1)*query.PerPage, total)
	end := min(start+query.PerPage, total)
	return churnboard.CustomerPage{
		Customers:   slices.Clone(matched[start:end]),
		Total:       total,
		Pages:       (total + query.PerPage - 1) / query.PerPage,
		CurrentPage: query.Page,
	}, nil
}

// GetCustomer returns a fixture customer or a not found error.
func (c *MockClient) GetCustomer(ctx context.Context, id int) (churnboard.Customer, error) {
	if err := c.enter(ctx, "GetCustomer"); err != nil {
		return churnboard.Customer{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, cust := range c.data.Customers {
		if cust.ID == id {
			return cust, nil
		}
	}
	return churnboard.Customer{}, statusError(http.MethodGet, "/api/customers", http.StatusNotFound, []byte(`{"error":"Customer not found"}`))
}

// ListCampaigns returns the current campaign list.
func (c *MockClient) ListCampaigns(ctx context.Context) ([]churnboard.Campaign, error) {
	if err := c.enter(ctx, "ListCampaigns"); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.data.Campaigns), nil
}

// CreateCampaign appends a campaign and returns its id.
func (c *MockClient) CreateCampaign(ctx context.Context, input churnboard.CampaignInput) (int, error) {
	if err := c.enter(ctx, "CreateCampaign"); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	campaign := churnboard.Campaign{ID: id, CreatedAt: c.now().UTC()}
	applyInput(&campaign, input.WithDefaults())
	c.data.Campaigns = append(c.data.Campaigns, campaign)
	return id, nil
}

// UpdateCampaign replaces the editable fields of a campaign.
func (c *MockClient) UpdateCampaign(ctx context.Context, id int, input churnboard.CampaignInput) error {
	if err := c.enter(ctx, "UpdateCampaign"); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.indexOf(id)
	if idx < 0 {
		return campaignNotFound(http.MethodPut, id)
	}
	applyInput(&c.data.Campaigns[idx], input)
	return nil
}

// DeleteCampaign removes a campaign.
func (c *MockClient) DeleteCampaign(ctx context.Context, id int) error {
	if err := c.enter(ctx, "DeleteCampaign"); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.indexOf(id)
	if idx < 0 {
		return campaignNotFound(http.MethodDelete, id)
	}
	c.data.Campaigns = slices.Delete(c.data.Campaigns, idx, idx+1)
	return nil
}

// Predict returns the configured prediction, echoing the submitted features.
func (c *MockClient) Predict(ctx context.Context, input churnboard.PredictionInput) (churnboard.Prediction, error) {
	if err := c.enter(ctx, "Predict"); err != nil {
		return churnboard.Prediction{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	prediction := c.data.Prediction
	prediction.ClassProbabilities = maps.Clone(prediction.ClassProbabilities)
	prediction.FeaturesUsed = input.Values()
	return prediction, nil
}

// Health returns the configured health, defaulting to healthy.
func (c *MockClient) Health(ctx context.Context) (churnboard.Health, error) {
	if err := c.enter(ctx, "Health"); err != nil {
		return churnboard.Health{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	health := c.data.Health
	if health.Status == "" {
		health = churnboard.Health{Status: "healthy", Timestamp: c.now().UTC(), ModelLoaded: true}
	}
	return health, nil
}

func (c *MockClient) indexOf(id int) int {
	return slices.IndexFunc(c.data.Campaigns, func(campaign churnboard.Campaign) bool {
		return campaign.ID == id
	})
}

func applyInput(campaign *churnboard.Campaign, input churnboard.CampaignInput) {
	campaign.Name = input.Name
	campaign.TargetRiskLevel = input.TargetRiskLevel
	campaign.CampaignType = input.CampaignType
	campaign.DiscountPercentage = input.DiscountPercentage
	campaign.Message = input.Message
	campaign.TargetCustomers = input.TargetCustomers
	if input.Status != "" {
		campaign.Status = input.Status
	}
}

func campaignNotFound(method string, id int) error {
	return statusError(method, "/api/campaigns/"+strconv.Itoa(id), http.StatusNotFound, []byte(`{"error":"Campaign not found"}`))
}
