package churnboard

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
)

// PredictionInput is the customer feature vector sent to /api/predict.
// Fields are pointers so a missing value is distinguishable from zero.
type PredictionInput struct {
	RecencyDays            *float64 `json:"recency_days"`
	Frequency              *float64 `json:"frequency"`
	Monetary               *float64 `json:"monetary"`
	AvgOrderValue          *float64 `json:"avg_order_value"`
	UniqueProducts         *float64 `json:"unique_products"`
	UniqueCategories       *float64 `json:"unique_categories"`
	ProductDiversityRatio  *float64 `json:"product_diversity_ratio"`
	CategoryDiversityRatio *float64 `json:"category_diversity_ratio"`
	CustomerLifetimeDays   *float64 `json:"customer_lifetime_days"`
	AvgDaysBetweenOrders   *float64 `json:"avg_days_between_orders"`
	AvgReviewScore         *float64 `json:"avg_review_score"`
	TotalReviewComments    *float64 `json:"total_review_comments"`
	AvgPaymentMethods      *float64 `json:"avg_payment_methods"`
	MaxInstallments        *float64 `json:"max_installments"`
	TotalFreight           *float64 `json:"total_freight"`
	AvgFreight             *float64 `json:"avg_freight"`
	StdPayment             *float64 `json:"std_payment"`
	Cluster                *float64 `json:"cluster"`
}

// PredictionField describes one form input.
type PredictionField struct {
	Name  string  `json:"name"`
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max,omitempty"`
	Step  string  `json:"step"`
}

// PredictionFields lists the form inputs in display order.
func PredictionFields() []PredictionField {
	return []PredictionField{
		{Name: "recency_days", Label: "Recency (days)", Min: 0, Step: "1"},
		{Name: "frequency", Label: "Frequency", Min: 1, Step: "1"},
		{Name: "monetary", Label: "Monetary value", Min: 0, Step: "0.01"},
		{Name: "avg_order_value", Label: "Avg order value", Min: 0, Step: "0.01"},
		{Name: "unique_products", Label: "Unique products", Min: 1, Step: "1"},
		{Name: "unique_categories", Label: "Unique categories", Min: 1, Step: "1"},
		{Name: "product_diversity_ratio", Label: "Product diversity ratio", Min: 0, Step: "0.01"},
		{Name: "category_diversity_ratio", Label: "Category diversity ratio", Min: 0, Step: "0.01"},
		{Name: "customer_lifetime_days", Label: "Customer lifetime (days)", Min: 0, Step: "1"},
		{Name: "avg_days_between_orders", Label: "Avg days between orders", Min: 0, Step: "0.1"},
		{Name: "avg_review_score", Label: "Avg review score", Min: 0, Max: 5, Step: "0.1"},
		{Name: "total_review_comments", Label: "Total review comments", Min: 0, Step: "1"},
		{Name: "avg_payment_methods", Label: "Avg payment methods", Min: 0, Step: "0.1"},
		{Name: "max_installments", Label: "Max installments", Min: 0, Step: "1"},
		{Name: "total_freight", Label: "Total freight", Min: 0, Step: "0.01"},
		{Name: "avg_freight", Label: "Avg freight", Min: 0, Step: "0.01"},
		{Name: "std_payment", Label: "Payment std deviation", Min: 0, Step: "0.01"},
		{Name: "cluster", Label: "Customer cluster", Min: 0, Max: 4, Step: "1"},
	}
}

// Validate checks presence and ranges before any request is issued.
func (in PredictionInput) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.RecencyDays, validation.NotNil, atLeast(0)),
		validation.Field(&in.Frequency, validation.NotNil, atLeast(1)),
		validation.Field(&in.Monetary, validation.NotNil, atLeast(0)),
		validation.Field(&in.AvgOrderValue, validation.NotNil, atLeast(0)),
		validation.Field(&in.UniqueProducts, validation.NotNil, atLeast(1)),
		validation.Field(&in.UniqueCategories, validation.NotNil, atLeast(1)),
		validation.Field(&in.ProductDiversityRatio, validation.NotNil, atLeast(0)),
		validation.Field(&in.CategoryDiversityRatio, validation.NotNil, atLeast(0)),
		validation.Field(&in.CustomerLifetimeDays, validation.NotNil, atLeast(0)),
		validation.Field(&in.AvgDaysBetweenOrders, validation.NotNil, atLeast(0)),
		validation.Field(&in.AvgReviewScore, validation.NotNil, between(0, 5)),
		validation.Field(&in.TotalReviewComments, validation.NotNil, atLeast(0)),
		validation.Field(&in.AvgPaymentMethods, validation.NotNil, atLeast(0)),
		validation.Field(&in.MaxInstallments, validation.NotNil, atLeast(0)),
		validation.Field(&in.TotalFreight, validation.NotNil, atLeast(0)),
		validation.Field(&in.AvgFreight, validation.NotNil, atLeast(0)),
		validation.Field(&in.StdPayment, validation.NotNil, atLeast(0)),
		validation.Field(&in.Cluster, validation.NotNil, between(0, 4)),
	)
	if err != nil {
		return goerrors.FromOzzoValidation(err, "prediction input is invalid")
	}
	return nil
}

// Values returns the populated fields keyed by their form name.
func (in PredictionInput) Values() map[string]float64 {
	out := make(map[string]float64, 18)
	for name, ptr := range in.fieldPointers() {
		if *ptr != nil {
			out[name] = **ptr
		}
	}
	return out
}

func (in *PredictionInput) fieldPointers() map[string]**float64 {
	return map[string]**float64{
		"recency_days":             &in.RecencyDays,
		"frequency":                &in.Frequency,
		"monetary":                 &in.Monetary,
		"avg_order_value":          &in.AvgOrderValue,
		"unique_products":          &in.UniqueProducts,
		"unique_categories":        &in.UniqueCategories,
		"product_diversity_ratio":  &in.ProductDiversityRatio,
		"category_diversity_ratio": &in.CategoryDiversityRatio,
		"customer_lifetime_days":   &in.CustomerLifetimeDays,
		"avg_days_between_orders":  &in.AvgDaysBetweenOrders,
		"avg_review_score":         &in.AvgReviewScore,
		"total_review_comments":    &in.TotalReviewComments,
		"avg_payment_methods":      &in.AvgPaymentMethods,
		"max_installments":         &in.MaxInstallments,
		"total_freight":            &in.TotalFreight,
		"avg_freight":              &in.AvgFreight,
		"std_payment":              &in.StdPayment,
		"cluster":                  &in.Cluster,
	}
}

// PredictionInputFromForm parses raw form values. Blank or non-numeric
// values are left nil so Validate reports them as missing.
func PredictionInputFromForm(get func(string) string) PredictionInput {
	var in PredictionInput
	for name, ptr := range in.fieldPointers() {
		if value, ok := parseNumber(get(name)); ok {
			*ptr = &value
		}
	}
	return in
}

// CampaignInput is the create/update payload for a campaign.
type CampaignInput struct {
	Name               string  `json:"name"`
	TargetRiskLevel    string  `json:"target_risk_level"`
	CampaignType       string  `json:"campaign_type"`
	DiscountPercentage float64 `json:"discount_percentage"`
	Message            string  `json:"message"`
	TargetCustomers    int     `json:"target_customers"`
	Status             string  `json:"status,omitempty"`
}

// CampaignInputFrom seeds the form from an existing campaign.
func CampaignInputFrom(c Campaign) CampaignInput {
	return CampaignInput{
		Name:               c.Name,
		TargetRiskLevel:    c.TargetRiskLevel,
		CampaignType:       c.CampaignType,
		DiscountPercentage: c.DiscountPercentage,
		Message:            c.Message,
		TargetCustomers:    c.TargetCustomers,
		Status:             c.Status,
	}
}

// CampaignInputFromForm parses raw form values. Unparseable numbers are
// reported through Validate.
func CampaignInputFromForm(get func(string) string) (CampaignInput, error) {
	in := CampaignInput{
		Name:            strings.TrimSpace(get("name")),
		TargetRiskLevel: strings.TrimSpace(get("target_risk_level")),
		CampaignType:    strings.TrimSpace(get("campaign_type")),
		Message:         strings.TrimSpace(get("message")),
		Status:          strings.TrimSpace(get("status")),
	}
	var fields []goerrors.FieldError
	if raw := strings.TrimSpace(get("discount_percentage")); raw != "" {
		value, ok := parseNumber(raw)
		if !ok {
			fields = append(fields, goerrors.FieldError{Field: "discount_percentage", Message: "must be a number", Value: raw})
		}
		in.DiscountPercentage = value
	}
	if raw := strings.TrimSpace(get("target_customers")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			fields = append(fields, goerrors.FieldError{Field: "target_customers", Message: "must be a whole number", Value: raw})
		}
		in.TargetCustomers = value
	}
	if len(fields) > 0 {
		return in, goerrors.NewValidation("campaign input is invalid", fields...)
	}
	return in, nil
}

// Validate checks the campaign form rules.
func (in CampaignInput) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required),
		validation.Field(&in.TargetRiskLevel, validation.Required, validation.In(stringsToAny(RiskLevels())...)),
		validation.Field(&in.CampaignType, validation.Required, validation.In(stringsToAny(CampaignTypes())...)),
		validation.Field(&in.DiscountPercentage, between(0, 100)),
		validation.Field(&in.TargetCustomers, validation.Min(0)),
		validation.Field(&in.Message, validation.Required),
		validation.Field(&in.Status, validation.In(stringsToAny(CampaignStatuses())...)),
	)
	if err != nil {
		return goerrors.FromOzzoValidation(err, "campaign input is invalid")
	}
	return nil
}

// WithDefaults fills the status for new campaigns.
func (in CampaignInput) WithDefaults() CampaignInput {
	if in.Status == "" {
		in.Status = StatusDraft
	}
	return in
}

func atLeast(min float64) validation.Rule {
	return bounded(&min, nil)
}

func between(min, max float64) validation.Rule {
	return bounded(&min, &max)
}

func bounded(min, max *float64) validation.Rule {
	return validation.By(func(value any) error {
		var v float64
		switch n := value.(type) {
		case *float64:
			if n == nil {
				return nil
			}
			v = *n
		case float64:
			v = n
		default:
			return nil
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return validation.NewError("validation_not_finite", "must be a finite number")
		}
		if min != nil && v < *min {
			return validation.NewError("validation_min_threshold", fmt.Sprintf("must be no less than %s", formatBound(*min)))
		}
		if max != nil && v > *max {
			return validation.NewError("validation_max_threshold", fmt.Sprintf("must be no greater than %s", formatBound(*max)))
		}
		return nil
	})
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseNumber(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

func stringsToAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
