package churnboard

import "github.com/ettle/strcase"

// RiskStyle is the presentation bundle for a risk label.
type RiskStyle struct {
	Label string `json:"label"`
	Color string `json:"color"`
	Tag   string `json:"tag"`
	Icon  string `json:"icon"`
	Slug  string `json:"slug"`
}

const (
	defaultRiskColor = "#666"
	defaultTagColor  = "default"
	defaultRiskIcon  = "❓"
)

var riskStyles = map[string]RiskStyle{
	RiskHigh:   {Color: "#ff4d4f", Tag: "red", Icon: "🚨"},
	RiskMedium: {Color: "#faad14", Tag: "orange", Icon: "⚠️"},
	RiskLow:    {Color: "#52c41a", Tag: "green", Icon: "✅"},
	RiskStable: {Color: "#1890ff", Tag: "blue", Icon: "🌟"},
}

// StyleForRisk returns the style for a label. Unknown labels get the
// neutral fallback instead of an error.
func StyleForRisk(label string) RiskStyle {
	style, ok := riskStyles[label]
	if !ok {
		style = RiskStyle{Color: defaultRiskColor, Tag: defaultTagColor, Icon: defaultRiskIcon}
	}
	style.Label = label
	style.Slug = riskSlug(label)
	return style
}

// RiskColor is shorthand for StyleForRisk(label).Color.
func RiskColor(label string) string {
	return StyleForRisk(label).Color
}

func riskSlug(label string) string {
	if label == "" {
		return "unknown"
	}
	return strcase.ToKebab(label)
}

var statusTags = map[string]string{
	StatusActive:    "green",
	StatusPaused:    "orange",
	StatusCompleted: "blue",
	StatusDraft:     "gray",
}

// StatusTag maps a campaign status to its tag colour.
func StatusTag(status string) string {
	if tag, ok := statusTags[status]; ok {
		return tag
	}
	return defaultTagColor
}

// Recommendations maps a risk label to retention actions.
type Recommendations map[string][]string

// DefaultRecommendations returns the built-in action table.
func DefaultRecommendations() Recommendations {
	return Recommendations{
		RiskHigh: {
			"Send personalized win-back campaigns with 20-30% discounts",
			"Offer free shipping on next order",
			"Conduct exit surveys to understand inactivity reasons",
			"Provide exclusive access to new products",
			"Implement urgent email/SMS re-engagement campaigns",
		},
		RiskMedium: {
			"Send targeted product recommendations",
			"Offer loyalty program enrollment with immediate benefits",
			"Provide moderate discounts (10-15%)",
			"Send educational content about products",
			"Implement retargeting campaigns",
		},
		RiskLow: {
			"Send regular newsletters with new arrivals",
			"Provide cross-selling recommendations",
			"Offer seasonal promotions",
			"Encourage product reviews and social sharing",
			"Maintain consistent communication",
		},
		RiskStable: {
			"Focus on upselling premium products",
			"Invite to VIP/premium loyalty tiers",
			"Request referrals with incentives",
			"Provide early access to new collections",
			"Gather feedback for product development",
		},
	}
}

// For returns a copy of the actions for label, empty for unknown labels.
func (r Recommendations) For(label string) []string {
	actions := r[label]
	out := make([]string, len(actions))
	copy(out, actions)
	return out
}
