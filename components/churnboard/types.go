package churnboard

import (
	"sort"
	"time"
)

// Risk labels produced by the churn model.
const (
	RiskHigh    = "High Risk"
	RiskMedium  = "Medium Risk"
	RiskLow     = "Low Risk"
	RiskStable  = "Stable"
	RiskUnknown = "Unknown"
)

// RiskLevels lists the known labels in display order.
func RiskLevels() []string {
	return []string{RiskHigh, RiskMedium, RiskLow, RiskStable}
}

// ChartType identifies a backend chart dataset.
type ChartType string

const (
	ChartChurnDistribution      ChartType = "churn_distribution"
	ChartRevenueByRisk          ChartType = "revenue_by_risk"
	ChartGeographicDistribution ChartType = "geographic_distribution"
)

// Customer mirrors a customer record served by the backend. Detail-only
// fields stay zero when the record came from the list endpoint.
type Customer struct {
	ID               int       `json:"id"`
	UniqueID         string    `json:"customer_unique_id"`
	City             string    `json:"customer_city"`
	State            string    `json:"customer_state"`
	ZipPrefix        string    `json:"customer_zip_code_prefix,omitempty"`
	TotalOrders      int       `json:"total_orders"`
	TotalPayment     float64   `json:"total_payment"`
	AvgOrderValue    float64   `json:"avg_order_value"`
	UniqueProducts   int       `json:"unique_products,omitempty"`
	UniqueCategories int       `json:"unique_categories,omitempty"`
	AvgReviewScore   float64   `json:"avg_review_score,omitempty"`
	RecencyDays      int       `json:"recency_days"`
	Frequency        int       `json:"frequency"`
	Monetary         float64   `json:"monetary"`
	ChurnRisk        string    `json:"churn_risk"`
	Cluster          int       `json:"cluster,omitempty"`
	FirstOrderDate   time.Time `json:"first_order_date,omitempty"`
	LastOrderDate    time.Time `json:"last_order_date,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
	UpdatedAt        time.Time `json:"updated_at,omitempty"`
}

// CustomerQuery filters the paginated customer listing.
type CustomerQuery struct {
	Page      int    `json:"page"`
	PerPage   int    `json:"per_page"`
	Search    string `json:"search,omitempty"`
	RiskLevel string `json:"risk_level,omitempty"`
}

// DefaultPerPage matches the backend page size.
const DefaultPerPage = 50

// Normalize applies paging defaults.
func (q CustomerQuery) Normalize() CustomerQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage <= 0 {
		q.PerPage = DefaultPerPage
	}
	return q
}

// CustomerPage is one page of customers plus pagination totals.
type CustomerPage struct {
	Customers   []Customer `json:"customers"`
	Total       int        `json:"total"`
	Pages       int        `json:"pages"`
	CurrentPage int        `json:"current_page"`
}

// RecentPrediction is a stored prediction listed in the summary.
type RecentPrediction struct {
	ID         int       `json:"id"`
	CustomerID int       `json:"customer_id"`
	Risk       string    `json:"predicted_churn_risk"`
	Confidence float64   `json:"confidence"`
	Date       time.Time `json:"prediction_date"`
}

// Summary aggregates the dashboard headline numbers.
type Summary struct {
	TotalCustomers    int                `json:"total_customers"`
	TotalRevenue      float64            `json:"total_revenue"`
	AvgOrderValue     float64            `json:"avg_order_value"`
	ChurnDistribution map[string]int     `json:"churn_distribution"`
	RecentPredictions []RecentPrediction `json:"recent_predictions"`
}

// RiskCount returns the customer count for a label, zero when absent.
func (s Summary) RiskCount(label string) int {
	return s.ChurnDistribution[label]
}

// ChartDataset carries labels and parallel value arrays. Only the arrays
// relevant to the chart type are populated.
type ChartDataset struct {
	Type         ChartType `json:"type"`
	Labels       []string  `json:"labels"`
	Data         []float64 `json:"data,omitempty"`
	TotalRevenue []float64 `json:"total_revenue,omitempty"`
	AvgRevenue   []float64 `json:"avg_revenue,omitempty"`
}

// Total sums the primary data array.
func (d ChartDataset) Total() float64 {
	return sum(d.Data)
}

// RevenueTotal sums the total_revenue array.
func (d ChartDataset) RevenueTotal() float64 {
	return sum(d.TotalRevenue)
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// Campaign is a retention campaign managed through the backend.
type Campaign struct {
	ID                 int       `json:"id"`
	Name               string    `json:"name"`
	TargetRiskLevel    string    `json:"target_risk_level"`
	CampaignType       string    `json:"campaign_type"`
	DiscountPercentage float64   `json:"discount_percentage"`
	Message            string    `json:"message"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
	TargetCustomers    int       `json:"target_customers"`
	EngagedCustomers   int       `json:"engaged_customers"`
}

// Campaign statuses and channels offered by the form.
const (
	StatusDraft     = "Draft"
	StatusActive    = "Active"
	StatusPaused    = "Paused"
	StatusCompleted = "Completed"
)

// CampaignStatuses lists the statuses accepted by the form.
func CampaignStatuses() []string {
	return []string{StatusDraft, StatusActive, StatusPaused, StatusCompleted}
}

// CampaignTypes lists the channels accepted by the form.
func CampaignTypes() []string {
	return []string{"Email", "SMS", "Push", "Retargeting", "Loyalty"}
}

// Prediction is the model output for one feature vector.
type Prediction struct {
	Risk               string             `json:"predicted_churn_risk"`
	Confidence         float64            `json:"confidence"`
	ClassProbabilities map[string]float64 `json:"class_probabilities"`
	FeaturesUsed       map[string]float64 `json:"features_used,omitempty"`
}

// ClassProbability is a single label/probability pair.
type ClassProbability struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// Probabilities returns the class probabilities with known labels first in
// risk order and any other labels sorted alphabetically.
func (p Prediction) Probabilities() []ClassProbability {
	out := make([]ClassProbability, 0, len(p.ClassProbabilities))
	seen := make(map[string]bool, len(p.ClassProbabilities))
	for _, label := range RiskLevels() {
		if prob, ok := p.ClassProbabilities[label]; ok {
			out = append(out, ClassProbability{Label: label, Probability: prob})
			seen[label] = true
		}
	}
	var rest []string
	for label := range p.ClassProbabilities {
		if !seen[label] {
			rest = append(rest, label)
		}
	}
	sort.Strings(rest)
	for _, label := range rest {
		out = append(out, ClassProbability{Label: label, Probability: p.ClassProbabilities[label]})
	}
	return out
}

// Health reports backend liveness.
type Health struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	ModelLoaded bool      `json:"model_loaded"`
}

// Healthy reports whether the backend answered with a healthy status.
func (h Health) Healthy() bool {
	return h.Status == "healthy"
}
