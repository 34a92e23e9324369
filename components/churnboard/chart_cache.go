package churnboard

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"sync"
	"time"
)

const defaultChartCacheTTL = 5 * time.Minute

// ChartKey identifies one rendering of a chart.
type ChartKey struct {
	Kind   ChartKind
	Theme  string
	Digest uint64
}

// RenderCache memoizes rendered chart markup.
type RenderCache interface {
	Chart(key ChartKey, render func() (string, error)) (string, error)
}

// ChartCache holds the latest rendering of each chart kind and theme.
// Fresh data for a kind replaces its entry, so the cache stays bounded by
// the number of kinds.
type ChartCache struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[chartSlot]renderedChart
	now     func() time.Time
}

type chartSlot struct {
	kind  ChartKind
	theme string
}

type renderedChart struct {
	digest  uint64
	html    string
	expires time.Time
}

// NewChartCache builds a cache with the provided TTL. A non-positive TTL
// disables storage.
func NewChartCache(ttl time.Duration) *ChartCache {
	return &ChartCache{
		ttl:     ttl,
		entries: make(map[chartSlot]renderedChart),
		now:     time.Now,
	}
}

// Chart returns the stored markup when the kind was last drawn from the
// same data, otherwise renders and stores it. Render errors are not kept.
func (c *ChartCache) Chart(key ChartKey, render func() (string, error)) (string, error) {
	if c == nil || c.ttl <= 0 {
		return render()
	}
	slot := chartSlot{kind: key.Kind, theme: key.Theme}
	now := c.now()

	c.mu.Lock()
	entry, ok := c.entries[slot]
	c.mu.Unlock()
	if ok && entry.digest == key.Digest && now.Before(entry.expires) {
		return entry.html, nil
	}

	html, err := render()
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.entries[slot] = renderedChart{digest: key.Digest, html: html, expires: now.Add(c.ttl)}
	c.mu.Unlock()
	return html, nil
}

// Len reports how many chart kinds currently have markup stored.
func (c *ChartCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Digest fingerprints the labels and series of a dataset.
func (d ChartDataset) Digest() uint64 {
	var h digestWriter
	h.strings(d.Labels)
	h.floats(d.Data)
	h.floats(d.TotalRevenue)
	h.floats(d.AvgRevenue)
	return h.sum()
}

// Digest fingerprints the months and lines of a trend.
func (t TrendSeries) Digest() uint64 {
	var h digestWriter
	h.strings(t.Months)
	for _, line := range t.Series {
		h.strings([]string{line.Label})
		h.floats(line.Values)
	}
	return h.sum()
}

// digestWriter collects length-prefixed sections so adjacent fields cannot blur
// into each other.
type digestWriter struct {
	buf []byte
}

func (d *digestWriter) length(n int) {
	d.buf = binary.LittleEndian.AppendUint64(d.buf, uint64(n))
}

func (d *digestWriter) strings(values []string) {
	d.length(len(values))
	for _, v := range values {
		d.length(len(v))
		d.buf = append(d.buf, v...)
	}
}

func (d *digestWriter) floats(values []float64) {
	d.length(len(values))
	for _, v := range values {
		d.buf = binary.LittleEndian.AppendUint64(d.buf, math.Float64bits(v))
	}
}

func (d *digestWriter) sum() uint64 {
	h := fnv.New64a()
	_, _ = h.Write(d.buf)
	return h.Sum64()
}
