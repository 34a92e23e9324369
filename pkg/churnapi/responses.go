package churnapi

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	churnboard "github.com/goliatone/go-churnboard/components/churnboard"
)

// Wire types mirror the backend payloads. Every field the backend may omit
// or null is a pointer so fallbacks are applied in one place.

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type mutationResponse struct {
	ID      *int    `json:"id"`
	Message *string `json:"message"`
}

type recentPredictionResponse struct {
	ID         *int     `json:"id"`
	CustomerID *int     `json:"customer_id"`
	Risk       *string  `json:"predicted_churn_risk"`
	Confidence *float64 `json:"confidence"`
	Date       *string  `json:"prediction_date"`
}

type summaryResponse struct {
	TotalCustomers    *int                       `json:"total_customers"`
	TotalRevenue      *float64                   `json:"total_revenue"`
	AvgOrderValue     *float64                   `json:"avg_order_value"`
	ChurnDistribution map[string]*int            `json:"churn_distribution"`
	RecentPredictions []recentPredictionResponse `json:"recent_predictions"`
}

func (r summaryResponse) toSummary() churnboard.Summary {
	distribution := make(map[string]int, len(r.ChurnDistribution))
	for label, count := range r.ChurnDistribution {
		distribution[labelOrUnknown(&label)] += intOr(count, 0)
	}
	recent := make([]churnboard.RecentPrediction, 0, len(r.RecentPredictions))
	for _, p := range r.RecentPredictions {
		recent = append(recent, churnboard.RecentPrediction{
			ID:         intOr(p.ID, 0),
			CustomerID: intOr(p.CustomerID, 0),
			Risk:       labelOrUnknown(p.Risk),
			Confidence: floatOr(p.Confidence, 0),
			Date:       parseTime(p.Date),
		})
	}
	return churnboard.Summary{
		TotalCustomers:    intOr(r.TotalCustomers, 0),
		TotalRevenue:      floatOr(r.TotalRevenue, 0),
		AvgOrderValue:     floatOr(r.AvgOrderValue, 0),
		ChurnDistribution: distribution,
		RecentPredictions: recent,
	}
}

type chartResponse struct {
	Labels       []*string  `json:"labels"`
	Data         []*float64 `json:"data"`
	TotalRevenue []*float64 `json:"total_revenue"`
	AvgRevenue   []*float64 `json:"avg_revenue"`
}

// toDataset truncates every populated value array, and the labels, to the
// shortest populated length.
func (r chartResponse) toDataset(chart churnboard.ChartType) churnboard.ChartDataset {
	n := len(r.Labels)
	for _, values := range [][]*float64{r.Data, r.TotalRevenue, r.AvgRevenue} {
		if values != nil && len(values) < n {
			n = len(values)
		}
	}
	labels := make([]string, n)
	for i := range n {
		labels[i] = labelOrUnknown(r.Labels[i])
	}
	return churnboard.ChartDataset{
		Type:         chart,
		Labels:       labels,
		Data:         floats(r.Data, n),
		TotalRevenue: floats(r.TotalRevenue, n),
		AvgRevenue:   floats(r.AvgRevenue, n),
	}
}

type customerResponse struct {
	ID               int         `json:"id"`
	UniqueID         *flexString `json:"customer_unique_id"`
	City             *string     `json:"customer_city"`
	State            *string     `json:"customer_state"`
	ZipPrefix        *flexString `json:"customer_zip_code_prefix"`
	TotalOrders      *int        `json:"total_orders"`
	TotalPayment     *float64    `json:"total_payment"`
	AvgOrderValue    *float64    `json:"avg_order_value"`
	UniqueProducts   *int        `json:"unique_products"`
	UniqueCategories *int        `json:"unique_categories"`
	AvgReviewScore   *float64    `json:"avg_review_score"`
	RecencyDays      *int        `json:"recency_days"`
	Frequency        *int        `json:"frequency"`
	Monetary         *float64    `json:"monetary"`
	ChurnRisk        *string     `json:"churn_risk"`
	Cluster          *int        `json:"cluster"`
	FirstOrderDate   *string     `json:"first_order_date"`
	LastOrderDate    *string     `json:"last_order_date"`
	CreatedAt        *string     `json:"created_at"`
	UpdatedAt        *string     `json:"updated_at"`
}

func (r customerResponse) toCustomer() churnboard.Customer {
	return churnboard.Customer{
		ID:               r.ID,
		UniqueID:         r.UniqueID.String(),
		City:             stringOr(r.City, ""),
		State:            stringOr(r.State, ""),
		ZipPrefix:        r.ZipPrefix.String(),
		TotalOrders:      intOr(r.TotalOrders, 0),
		TotalPayment:     floatOr(r.TotalPayment, 0),
		AvgOrderValue:    floatOr(r.AvgOrderValue, 0),
		UniqueProducts:   intOr(r.UniqueProducts, 0),
		UniqueCategories: intOr(r.UniqueCategories, 0),
		AvgReviewScore:   floatOr(r.AvgReviewScore, 0),
		RecencyDays:      intOr(r.RecencyDays, 0),
		Frequency:        intOr(r.Frequency, 0),
		Monetary:         floatOr(r.Monetary, 0),
		ChurnRisk:        labelOrUnknown(r.ChurnRisk),
		Cluster:          intOr(r.Cluster, 0),
		FirstOrderDate:   parseTime(r.FirstOrderDate),
		LastOrderDate:    parseTime(r.LastOrderDate),
		CreatedAt:        parseTime(r.CreatedAt),
		UpdatedAt:        parseTime(r.UpdatedAt),
	}
}

type customersResponse struct {
	Customers   []customerResponse `json:"customers"`
	Total       *int               `json:"total"`
	Pages       *int               `json:"pages"`
	CurrentPage *int               `json:"current_page"`
}

func (r customersResponse) toPage(query churnboard.CustomerQuery) churnboard.CustomerPage {
	customers := make([]churnboard.Customer, 0, len(r.Customers))
	for _, c := range r.Customers {
		customers = append(customers, c.toCustomer())
	}
	total := intOr(r.Total, len(customers))
	pages := intOr(r.Pages, 0)
	if r.Pages == nil && query.PerPage > 0 {
		pages = (total + query.PerPage - 1) / query.PerPage
	}
	return churnboard.CustomerPage{
		Customers:   customers,
		Total:       total,
		Pages:       pages,
		CurrentPage: intOr(r.CurrentPage, query.Page),
	}
}

type campaignResponse struct {
	ID                 int      `json:"id"`
	Name               *string  `json:"name"`
	TargetRiskLevel    *string  `json:"target_risk_level"`
	CampaignType       *string  `json:"campaign_type"`
	DiscountPercentage *float64 `json:"discount_percentage"`
	Message            *string  `json:"message"`
	Status             *string  `json:"status"`
	CreatedAt          *string  `json:"created_at"`
	TargetCustomers    *int     `json:"target_customers"`
	EngagedCustomers   *int     `json:"engaged_customers"`
}

func (r campaignResponse) toCampaign() churnboard.Campaign {
	return churnboard.Campaign{
		ID:                 r.ID,
		Name:               stringOr(r.Name, ""),
		TargetRiskLevel:    labelOrUnknown(r.TargetRiskLevel),
		CampaignType:       stringOr(r.CampaignType, ""),
		DiscountPercentage: floatOr(r.DiscountPercentage, 0),
		Message:            stringOr(r.Message, ""),
		Status:             stringOr(r.Status, churnboard.StatusDraft),
		CreatedAt:          parseTime(r.CreatedAt),
		TargetCustomers:    intOr(r.TargetCustomers, 0),
		EngagedCustomers:   intOr(r.EngagedCustomers, 0),
	}
}

type campaignRequest struct {
	Name               string  `json:"name"`
	TargetRiskLevel    string  `json:"target_risk_level"`
	CampaignType       string  `json:"campaign_type"`
	DiscountPercentage float64 `json:"discount_percentage"`
	Message            string  `json:"message"`
	TargetCustomers    int     `json:"target_customers"`
	Status             string  `json:"status,omitempty"`
}

func newCampaignRequest(input churnboard.CampaignInput) campaignRequest {
	return campaignRequest{
		Name:               strings.TrimSpace(input.Name),
		TargetRiskLevel:    input.TargetRiskLevel,
		CampaignType:       input.CampaignType,
		DiscountPercentage: input.DiscountPercentage,
		Message:            input.Message,
		TargetCustomers:    input.TargetCustomers,
		Status:             input.Status,
	}
}

type predictionResponse struct {
	Risk               *string             `json:"predicted_churn_risk"`
	Confidence         *float64            `json:"confidence"`
	ClassProbabilities map[string]float64  `json:"class_probabilities"`
	FeaturesUsed       map[string]*float64 `json:"features_used"`
}

func (r predictionResponse) toPrediction() churnboard.Prediction {
	probabilities := make(map[string]float64, len(r.ClassProbabilities))
	for label, p := range r.ClassProbabilities {
		probabilities[labelOrUnknown(&label)] = p
	}
	features := make(map[string]float64, len(r.FeaturesUsed))
	for name, v := range r.FeaturesUsed {
		features[name] = floatOr(v, 0)
	}
	return churnboard.Prediction{
		Risk:               labelOrUnknown(r.Risk),
		Confidence:         floatOr(r.Confidence, 0),
		ClassProbabilities: probabilities,
		FeaturesUsed:       features,
	}
}

type healthResponse struct {
	Status      string  `json:"status"`
	Timestamp   *string `json:"timestamp"`
	ModelLoaded *bool   `json:"model_loaded"`
}

func (r healthResponse) toHealth() churnboard.Health {
	loaded := false
	if r.ModelLoaded != nil {
		loaded = *r.ModelLoaded
	}
	return churnboard.Health{
		Status:      r.Status,
		Timestamp:   parseTime(r.Timestamp),
		ModelLoaded: loaded,
	}
}

// flexString accepts a JSON string or number. Identifier-like columns such
// as zip prefixes arrive as either depending on the backend's data source.
type flexString struct {
	value string
}

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		f.value = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &f.value)
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	f.value = n.String()
	return nil
}

func (f *flexString) String() string {
	if f == nil {
		return ""
	}
	return f.value
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC1123,
	time.DateOnly,
}

// parseTime accepts the timestamp formats the backend emits and returns the
// zero time when the value is missing or unparseable.
func parseTime(value *string) time.Time {
	if value == nil {
		return time.Time{}
	}
	s := strings.TrimSpace(*value)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC()
	}
	return time.Time{}
}

func labelOrUnknown(label *string) string {
	if label == nil || strings.TrimSpace(*label) == "" {
		return churnboard.RiskUnknown
	}
	return *label
}

func stringOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

func floatOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

// floats converts the first n entries, nulls becoming zero. A missing array
// stays nil.
func floats(values []*float64, n int) []float64 {
	if values == nil {
		return nil
	}
	out := make([]float64, n)
	for i := range n {
		out[i] = floatOr(values[i], 0)
	}
	return out
}
