package churnboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDistribution() ChartDataset {
	return ChartDataset{
		Type:   ChartChurnDistribution,
		Labels: []string{RiskHigh, RiskMedium, RiskLow, RiskStable},
		Data:   []float64{120, 80, 100, 120},
	}
}

func TestChartDatasetTotals(t *testing.T) {
	assert.InDelta(t, 420.0, sampleDistribution().Total(), 1e-9)

	revenue := ChartDataset{Labels: []string{RiskHigh, RiskLow}, TotalRevenue: []float64{1000.5, 250}}
	assert.InDelta(t, 1250.5, revenue.RevenueTotal(), 1e-9)
	assert.Zero(t, ChartDataset{}.Total())
}

func TestParseChartKind(t *testing.T) {
	assert.Equal(t, KindRevenueAnalysis, ParseChartKind("revenue_analysis"))
	assert.Equal(t, KindTrendAnalysis, ParseChartKind(" trend_analysis "))
	assert.Equal(t, KindChurnDistribution, ParseChartKind("pie"))
	assert.Equal(t, "Geographic Distribution", KindGeographicDistribution.Title())
}

func TestChartRendererRendersEveryKind(t *testing.T) {
	renderer := NewChartRenderer(WithChartCache(nil), WithChartAssetsHost("https://cdn.example.com/echarts/"))
	data := AnalyticsData{
		Churn:      sampleDistribution(),
		Revenue:    ChartDataset{Labels: []string{RiskHigh, RiskLow}, TotalRevenue: []float64{1000, 250}, AvgRevenue: []float64{100, 50}},
		Geographic: ChartDataset{Labels: []string{"SP", "RJ"}, Data: []float64{40, 25}},
		Trend:      DefaultTrend(),
	}
	for _, kind := range ChartKinds() {
		html, err := renderer.RenderKind(kind, data)
		require.NoError(t, err, kind)
		assert.Contains(t, html, kind.Title(), kind)
		assert.Contains(t, html, "https://cdn.example.com/echarts/", kind)
	}

	_, err := renderer.RenderKind("scatter", data)
	assert.Error(t, err)
}

func TestChartRendererUsesCache(t *testing.T) {
	cache := NewChartCache(defaultChartCacheTTL)
	renderer := NewChartRenderer(WithChartCache(cache))

	first, err := renderer.ChurnDistribution(sampleDistribution())
	require.NoError(t, err)
	second, err := renderer.ChurnDistribution(sampleDistribution())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.Len())
	assert.Contains(t, first, RiskColor(RiskHigh))
}
