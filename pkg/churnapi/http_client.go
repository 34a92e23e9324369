package churnapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	churnboard "github.com/goliatone/go-churnboard/components/churnboard"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Text codes attached to client errors that do not come from an HTTP status.
const (
	TextCodeUnreachable     = "BACKEND_UNREACHABLE"
	TextCodeInvalidResponse = "INVALID_RESPONSE"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 8 << 20
)

// HTTPConfig configures the HTTP churn API client. BaseURL is required and
// is used verbatim apart from trailing slashes.
type HTTPConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	// RateLimit caps outgoing requests per second. Zero disables limiting.
	RateLimit rate.Limit
	Burst     int
	Validator *ResponseValidator
}

// HTTPClient talks to the churn analytics REST backend.
type HTTPClient struct {
	baseURL   string
	apiKey    string
	client    *http.Client
	limiter   *rate.Limiter
	validator *ResponseValidator
}

// NewHTTPClient builds a client for the backend at cfg.BaseURL.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, goerrors.New("churnapi: base url is required", goerrors.CategoryBadInput)
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "churnapi: invalid base url")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	validator := cfg.Validator
	if validator == nil {
		validator = NewResponseValidator()
	}
	client := &HTTPClient{
		baseURL:   base,
		apiKey:    cfg.APIKey,
		client:    httpClient,
		validator: validator,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		client.limiter = rate.NewLimiter(cfg.RateLimit, burst)
	}
	return client, nil
}

// BaseURL returns the resolved backend origin.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// FetchSummary calls GET /api/analytics/summary.
func (c *HTTPClient) FetchSummary(ctx context.Context) (churnboard.Summary, error) {
	var resp summaryResponse
	if err := c.do(ctx, http.MethodGet, "/api/analytics/summary", nil, schemaSummary, &resp); err != nil {
		return churnboard.Summary{}, err
	}
	return resp.toSummary(), nil
}

// FetchChart calls GET /api/analytics/charts?type={type}.
func (c *HTTPClient) FetchChart(ctx context.Context, chart churnboard.ChartType) (churnboard.ChartDataset, error) {
	if chart == "" {
		return churnboard.ChartDataset{}, goerrors.New("churnapi: chart type is required", goerrors.CategoryBadInput)
	}
	var resp chartResponse
	params := url.Values{"type": {string(chart)}}
	path := "/api/analytics/charts?" + params.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, schemaChart, &resp); err != nil {
		return churnboard.ChartDataset{}, err
	}
	return resp.toDataset(chart), nil
}

// ListCustomers calls GET /api/customers with paging and filters.
func (c *HTTPClient) ListCustomers(ctx context.Context, query churnboard.CustomerQuery) (churnboard.CustomerPage, error) {
	query = query.Normalize()
	params := url.Values{}
	params.Set("page", strconv.Itoa(query.Page))
	params.Set("per_page", strconv.Itoa(query.PerPage))
	if query.Search != "" {
		params.Set("search", query.Search)
	}
	if query.RiskLevel != "" {
		params.Set("risk_level", query.RiskLevel)
	}
	var resp customersResponse
	if err := c.do(ctx, http.MethodGet, "/api/customers?"+params.Encode(), nil, schemaCustomers, &resp); err != nil {
		return churnboard.CustomerPage{}, err
	}
	return resp.toPage(query), nil
}

// GetCustomer calls GET /api/customers/{id}.
func (c *HTTPClient) GetCustomer(ctx context.Context, id int) (churnboard.Customer, error) {
	var resp customerResponse
	if err := c.do(ctx, http.MethodGet, "/api/customers/"+strconv.Itoa(id), nil, schemaCustomer, &resp); err != nil {
		return churnboard.Customer{}, err
	}
	return resp.toCustomer(), nil
}

// ListCampaigns calls GET /api/campaigns.
func (c *HTTPClient) ListCampaigns(ctx context.Context) ([]churnboard.Campaign, error) {
	var resp []campaignResponse
	if err := c.do(ctx, http.MethodGet, "/api/campaigns", nil, schemaCampaigns, &resp); err != nil {
		return nil, err
	}
	campaigns := make([]churnboard.Campaign, 0, len(resp))
	for _, item := range resp {
		campaigns = append(campaigns, item.toCampaign())
	}
	return campaigns, nil
}

// CreateCampaign calls POST /api/campaigns and returns the new id.
func (c *HTTPClient) CreateCampaign(ctx context.Context, input churnboard.CampaignInput) (int, error) {
	var resp mutationResponse
	if err := c.do(ctx, http.MethodPost, "/api/campaigns", newCampaignRequest(input), schemaMutation, &resp); err != nil {
		return 0, err
	}
	if resp.ID == nil {
		return 0, nil
	}
	return *resp.ID, nil
}

// UpdateCampaign calls PUT /api/campaigns/{id}.
func (c *HTTPClient) UpdateCampaign(ctx context.Context, id int, input churnboard.CampaignInput) error {
	return c.do(ctx, http.MethodPut, "/api/campaigns/"+strconv.Itoa(id), newCampaignRequest(input), schemaMutation, nil)
}

// DeleteCampaign calls DELETE /api/campaigns/{id}.
func (c *HTTPClient) DeleteCampaign(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/api/campaigns/"+strconv.Itoa(id), nil, schemaMutation, nil)
}

// Predict calls POST /api/predict with the full feature vector.
func (c *HTTPClient) Predict(ctx context.Context, input churnboard.PredictionInput) (churnboard.Prediction, error) {
	var resp predictionResponse
	if err := c.do(ctx, http.MethodPost, "/api/predict", input, schemaPrediction, &resp); err != nil {
		return churnboard.Prediction{}, err
	}
	return resp.toPrediction(), nil
}

// Health calls GET /api/health.
func (c *HTTPClient) Health(ctx context.Context) (churnboard.Health, error) {
	var resp healthResponse
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, schemaHealth, &resp); err != nil {
		return churnboard.Health{}, err
	}
	return resp.toHealth(), nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload any, schema string, target any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "churnapi: encode payload")
		}
		body = bytes.NewReader(data)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return c.transportError(err, method, path)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "churnapi: build request")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	requestID, ok := churnboard.RequestIDFromContext(ctx)
	if !ok {
		requestID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.client.Do(req)
	if err != nil {
		return c.transportError(err, method, path).WithRequestID(requestID)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return c.transportError(err, method, path).WithRequestID(requestID)
	}
	if resp.StatusCode >= 300 {
		return statusError(method, path, resp.StatusCode, raw).WithRequestID(requestID)
	}
	if target == nil {
		return nil
	}
	if err := c.validator.Validate(schema, raw); err != nil {
		return invalidResponse(err, method, path).WithRequestID(requestID)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return invalidResponse(err, method, path).WithRequestID(requestID)
	}
	return nil
}

func (c *HTTPClient) transportError(err error, method, path string) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryExternal, fmt.Sprintf("churnapi: %s %s failed", method, path)).
		WithTextCode(TextCodeUnreachable).
		WithMetadata(map[string]any{"method": method, "path": path, "base_url": c.baseURL})
}

func invalidResponse(err error, method, path string) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryExternal, fmt.Sprintf("churnapi: %s %s returned an invalid body", method, path)).
		WithTextCode(TextCodeInvalidResponse).
		WithMetadata(map[string]any{"method": method, "path": path})
}

// statusError maps a non-2xx response. Backend failures (5xx) keep the
// external category so callers can tell them apart from local bugs.
func statusError(method, path string, status int, raw []byte) *goerrors.Error {
	category := goerrors.HTTPStatusToCategory(status)
	if status >= http.StatusInternalServerError {
		category = goerrors.CategoryExternal
	}
	metadata := map[string]any{"method": method, "path": path, "status": status}
	if msg := backendErrorText(raw); msg != "" {
		metadata[churnboard.MetaBackendError] = msg
	}
	return goerrors.New(fmt.Sprintf("churnapi: %s %s returned %d", method, path, status), category).
		WithCode(status).
		WithTextCode(goerrors.HTTPStatusToTextCode(status)).
		WithMetadata(metadata)
}

func backendErrorText(raw []byte) string {
	var body errorResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Error != "" {
		return body.Error
	}
	return body.Message
}
