package churnboard

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingRender(calls *int, html string) func() (string, error) {
	return func() (string, error) {
		*calls++
		return html, nil
	}
}

func TestChartCacheReusesMarkupForSameData(t *testing.T) {
	cache := NewChartCache(time.Minute)
	key := ChartKey{Kind: KindChurnDistribution, Theme: "westeros", Digest: sampleDistribution().Digest()}
	calls := 0

	first, err := cache.Chart(key, countingRender(&calls, "pie"))
	require.NoError(t, err)
	second, err := cache.Chart(key, countingRender(&calls, "pie"))
	require.NoError(t, err)

	assert.Equal(t, "pie", first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, cache.Len())
}

func TestChartCacheReplacesKindOnNewData(t *testing.T) {
	cache := NewChartCache(time.Minute)
	calls := 0
	old := sampleDistribution()
	fresh := sampleDistribution()
	fresh.Data[0]++

	_, err := cache.Chart(ChartKey{Kind: KindChurnDistribution, Digest: old.Digest()}, countingRender(&calls, "old"))
	require.NoError(t, err)
	html, err := cache.Chart(ChartKey{Kind: KindChurnDistribution, Digest: fresh.Digest()}, countingRender(&calls, "fresh"))
	require.NoError(t, err)
	assert.Equal(t, "fresh", html)
	assert.Equal(t, 1, cache.Len())

	_, err = cache.Chart(ChartKey{Kind: KindRevenueAnalysis, Digest: fresh.Digest()}, countingRender(&calls, "bar"))
	require.NoError(t, err)
	_, err = cache.Chart(ChartKey{Kind: KindChurnDistribution, Theme: "dark", Digest: fresh.Digest()}, countingRender(&calls, "dark"))
	require.NoError(t, err)
	assert.Equal(t, 3, cache.Len())
	assert.Equal(t, 4, calls)
}

func TestChartCacheExpires(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewChartCache(time.Minute)
	cache.now = func() time.Time { return now }
	key := ChartKey{Kind: KindTrendAnalysis, Digest: DefaultTrend().Digest()}
	calls := 0

	_, err := cache.Chart(key, countingRender(&calls, "trend"))
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	_, err = cache.Chart(key, countingRender(&calls, "trend"))
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestChartCacheSkipsErrorsAndDisabledTTL(t *testing.T) {
	cache := NewChartCache(time.Minute)
	key := ChartKey{Kind: KindChurnDistribution}
	_, err := cache.Chart(key, func() (string, error) { return "", errors.New("boom") })
	require.Error(t, err)
	assert.Zero(t, cache.Len())

	disabled := NewChartCache(0)
	calls := 0
	for range 2 {
		_, err := disabled.Chart(key, countingRender(&calls, "x"))
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
	assert.Zero(t, disabled.Len())
}

func TestChartDatasetDigest(t *testing.T) {
	a := ChartDataset{Labels: []string{"ab", "c"}, Data: []float64{1, 2}}
	assert.Equal(t, a.Digest(), ChartDataset{Labels: []string{"ab", "c"}, Data: []float64{1, 2}}.Digest())
	assert.NotEqual(t, a.Digest(), ChartDataset{Labels: []string{"a", "bc"}, Data: []float64{1, 2}}.Digest())
	assert.NotEqual(t, a.Digest(), ChartDataset{Labels: []string{"ab", "c"}, TotalRevenue: []float64{1, 2}}.Digest())
	assert.NotEqual(t, a.Digest(), ChartDataset{Labels: []string{"ab", "c"}, Data: []float64{1, 3}}.Digest())

	trend := DefaultTrend()
	changed := DefaultTrend()
	changed.Series[0].Values[5] = 0
	assert.NotEqual(t, trend.Digest(), changed.Digest())
}
