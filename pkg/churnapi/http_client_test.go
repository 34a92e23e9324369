package churnapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	churnboard "github.com/goliatone/go-churnboard/components/churnboard"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewHTTPClient(HTTPConfig{BaseURL: server.URL + "/", APIKey: "secret"})
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestNewHTTPClientRequiresBaseURL(t *testing.T) {
	_, err := NewHTTPClient(HTTPConfig{})
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryBadInput, richErr.Category)
}

func TestHTTPClientTrimsTrailingSlash(t *testing.T) {
	client, err := NewHTTPClient(HTTPConfig{BaseURL: "http://localhost:8000///"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", client.BaseURL())
}

func TestHTTPClientFetchSummary(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/analytics/summary", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		writeJSON(w, http.StatusOK, `{
			"total_customers": 420,
			"total_revenue": 12345.5,
			"avg_order_value": null,
			"churn_distribution": {"High Risk": 120, "Stable": 300},
			"recent_predictions": [
				{"id": 1, "customer_id": 7, "predicted_churn_risk": null, "confidence": 0.5, "prediction_date": "2024-01-15T10:30:00.123456"}
			]
		}`)
	})

	summary, err := client.FetchSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 420, summary.TotalCustomers)
	assert.InDelta(t, 12345.5, summary.TotalRevenue, 0.001)
	assert.Zero(t, summary.AvgOrderValue)
	assert.Equal(t, 120, summary.RiskCount(churnboard.RiskHigh))
	require.Len(t, summary.RecentPredictions, 1)
	assert.Equal(t, churnboard.RiskUnknown, summary.RecentPredictions[0].Risk)
	assert.Equal(t, 2024, summary.RecentPredictions[0].Date.Year())
}

func TestHTTPClientForwardsRequestID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "req-123", r.Header.Get("X-Request-ID"))
		writeJSON(w, http.StatusOK, `{"status":"healthy","timestamp":"2024-01-15T10:30:00","model_loaded":true}`)
	})

	ctx := churnboard.WithRequestID(context.Background(), "req-123")
	health, err := client.Health(ctx)
	require.NoError(t, err)
	assert.True(t, health.Healthy())
	assert.True(t, health.ModelLoaded)
	assert.Equal(t, time.January, health.Timestamp.Month())
}

func TestHTTPClientFetchChartTruncatesParallelArrays(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/analytics/charts", r.URL.Path)
		assert.Equal(t, "revenue_by_risk", r.URL.Query().Get("type"))
		writeJSON(w, http.StatusOK, `{
			"labels": ["High Risk", null, "Stable"],
			"total_revenue": [100, 200],
			"avg_revenue": [10, null, 30]
		}`)
	})

	ds, err := client.FetchChart(context.Background(), churnboard.ChartRevenueByRisk)
	require.NoError(t, err)
	assert.Equal(t, churnboard.ChartRevenueByRisk, ds.Type)
	assert.Equal(t, []string{churnboard.RiskHigh, churnboard.RiskUnknown}, ds.Labels)
	assert.Equal(t, []float64{100, 200}, ds.TotalRevenue)
	assert.Equal(t, []float64{10, 0}, ds.AvgRevenue)
	assert.Nil(t, ds.Data)
}

func TestHTTPClientListCustomersEncodesQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "50", q.Get("per_page"))
		assert.Equal(t, "sao paulo", q.Get("search"))
		assert.Equal(t, "High Risk", q.Get("risk_level"))
		writeJSON(w, http.StatusOK, `{
			"customers": [
				{"id": 9, "customer_unique_id": "abc", "customer_city": "sao paulo", "customer_state": "SP",
				 "customer_zip_code_prefix": 1310, "total_orders": 3, "churn_risk": "High Risk",
				 "last_order_date": "2018-08-17 10:00:00"}
			],
			"total": 51
		}`)
	})

	page, err := client.ListCustomers(context.Background(), churnboard.CustomerQuery{
		Page: 2, Search: "sao paulo", RiskLevel: churnboard.RiskHigh,
	})
	require.NoError(t, err)
	assert.Equal(t, 51, page.Total)
	assert.Equal(t, 2, page.Pages)
	assert.Equal(t, 2, page.CurrentPage)
	require.Len(t, page.Customers, 1)
	assert.Equal(t, "1310", page.Customers[0].ZipPrefix)
	assert.Equal(t, 2018, page.Customers[0].LastOrderDate.Year())
}

func TestHTTPClientCampaignCRUD(t *testing.T) {
	var created map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/campaigns":
			writeJSON(w, http.StatusOK, `[{"id": 1, "name": "Win-back", "target_risk_level": "High Risk", "campaign_type": "Email",
				"discount_percentage": 20, "message": "hi", "status": null, "created_at": "2024-01-15T10:30:00",
				"target_customers": 100, "engaged_customers": 25}]`)
		case r.Method == http.MethodPost && r.URL.Path == "/api/campaigns":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			writeJSON(w, http.StatusCreated, `{"id": 42, "message": "Campaign created successfully"}`)
		case r.Method == http.MethodPut && r.URL.Path == "/api/campaigns/42":
			writeJSON(w, http.StatusOK, `{"message": "Campaign updated successfully"}`)
		case r.Method == http.MethodDelete && r.URL.Path == "/api/campaigns/7":
			writeJSON(w, http.StatusNotFound, `{"error": "Campaign not found"}`)
		default:
			t.Fatalf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})
	ctx := context.Background()

	campaigns, err := client.ListCampaigns(ctx)
	require.NoError(t, err)
	require.Len(t, campaigns, 1)
	assert.Equal(t, churnboard.StatusDraft, campaigns[0].Status)
	assert.Equal(t, 25, campaigns[0].EngagedCustomers)

	id, err := client.CreateCampaign(ctx, churnboard.CampaignInput{
		Name: " Spring ", TargetRiskLevel: churnboard.RiskHigh, CampaignType: "Email",
		DiscountPercentage: 15, Message: "hello", TargetCustomers: 10, Status: churnboard.StatusDraft,
	})
	require.NoError(t, err)
	assert.Equal(t, 42, id)
	assert.Equal(t, "Spring", created["name"])
	assert.Equal(t, float64(15), created["discount_percentage"])

	require.NoError(t, client.UpdateCampaign(ctx, 42, churnboard.CampaignInput{Name: "Spring"}))

	err = client.DeleteCampaign(ctx, 7)
	require.Error(t, err)
	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryNotFound, richErr.Category)
	assert.Equal(t, http.StatusNotFound, richErr.Code)
	assert.Equal(t, "Campaign not found", churnboard.BackendMessage(err, "Failed to delete campaign"))
}

func TestHTTPClientPredictSurfacesBackendError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "recency_days")
		writeJSON(w, http.StatusInternalServerError, `{"error": "Model not loaded"}`)
	})

	v := 1.0
	_, err := client.Predict(context.Background(), churnboard.PredictionInput{RecencyDays: &v})
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryExternal, richErr.Category)
	assert.Equal(t, "Model not loaded", churnboard.BackendMessage(err, "Prediction failed"))
}

func TestHTTPClientPredictDecodesProbabilities(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{
			"predicted_churn_risk": "High Risk",
			"confidence": 0.82,
			"class_probabilities": {"High Risk": 0.82, "Low Risk": 0.18},
			"features_used": {"recency_days": 120, "cluster": null}
		}`)
	})

	prediction, err := client.Predict(context.Background(), churnboard.PredictionInput{})
	require.NoError(t, err)
	assert.Equal(t, churnboard.RiskHigh, prediction.Risk)
	assert.InDelta(t, 0.82, prediction.Confidence, 1e-9)
	assert.Len(t, prediction.Probabilities(), 2)
	assert.Equal(t, float64(0), prediction.FeaturesUsed["cluster"])
}

func TestHTTPClientRejectsInvalidResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"confidence": 3}`)
	})

	_, err := client.Predict(context.Background(), churnboard.PredictionInput{})
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, TextCodeInvalidResponse, richErr.TextCode)
	assert.NotEmpty(t, richErr.RequestID)
}

func TestHTTPClientUnreachableBackend(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	base := server.URL
	server.Close()

	client, err := NewHTTPClient(HTTPConfig{BaseURL: base})
	require.NoError(t, err)

	_, err = client.FetchSummary(context.Background())
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryExternal, richErr.Category)
	assert.Equal(t, TextCodeUnreachable, richErr.TextCode)
}

func TestHTTPClientHonoursCancelledContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[]`)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ListCampaigns(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
