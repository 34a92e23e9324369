package churnapi

import (
	"encoding/json"
	"testing"
	"time"

	churnboard "github.com/goliatone/go-churnboard/components/churnboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexStringAcceptsStringsAndNumbers(t *testing.T) {
	var payload struct {
		A *flexString `json:"a"`
		B *flexString `json:"b"`
		C *flexString `json:"c"`
		D *flexString `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"01310","b":1310,"c":null}`), &payload))
	assert.Equal(t, "01310", payload.A.String())
	assert.Equal(t, "1310", payload.B.String())
	assert.Equal(t, "", payload.C.String())
	assert.Equal(t, "", payload.D.String())
}

func TestParseTimeLayouts(t *testing.T) {
	cases := map[string]time.Time{
		"2024-01-15T10:30:00Z":          time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		"2024-01-15T10:30:00.5":         time.Date(2024, 1, 15, 10, 30, 0, 500000000, time.UTC),
		"2024-01-15 10:30:00":           time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		"Mon, 15 Jan 2024 10:30:00 UTC": time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		"2024-01-15":                    time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}
	for input, want := range cases {
		got := parseTime(&input)
		assert.True(t, want.Equal(got), "input %q: got %s", input, got)
	}

	garbage := "yesterday"
	assert.True(t, parseTime(&garbage).IsZero())
	assert.True(t, parseTime(nil).IsZero())
}

func TestSummaryFallbacks(t *testing.T) {
	var resp summaryResponse
	require.NoError(t, json.Unmarshal([]byte(`{"churn_distribution":{"":3,"Stable":null}}`), &resp))

	summary := resp.toSummary()
	assert.Zero(t, summary.TotalCustomers)
	assert.Equal(t, 3, summary.RiskCount(churnboard.RiskUnknown))
	assert.Equal(t, 0, summary.RiskCount(churnboard.RiskStable))
	assert.NotNil(t, summary.RecentPredictions)
	assert.Empty(t, summary.RecentPredictions)
}

func TestChartDatasetWithoutLabelsIsEmpty(t *testing.T) {
	var resp chartResponse
	require.NoError(t, json.Unmarshal([]byte(`{"data":[1,2,3]}`), &resp))

	ds := resp.toDataset(churnboard.ChartChurnDistribution)
	assert.Empty(t, ds.Labels)
	assert.Empty(t, ds.Data)
	assert.Zero(t, ds.Total())
}

func TestCustomersPageDerivesPagesWhenMissing(t *testing.T) {
	resp := customersResponse{Total: ptr(120)}
	page := resp.toPage(churnboard.CustomerQuery{Page: 1, PerPage: 50})
	assert.Equal(t, 3, page.Pages)
	assert.Equal(t, 1, page.CurrentPage)
	assert.NotNil(t, page.Customers)
}

func ptr[T any](v T) *T { return &v }
