package churnapi

import (
	"time"

	churnboard "github.com/goliatone/go-churnboard/components/churnboard"
)

// DemoData returns a small, self-consistent fixture set used by the mock
// backend when the dashboard runs without a live API.
func DemoData() MockData {
	day := func(s string) time.Time {
		t, _ := time.Parse(time.DateOnly, s)
		return t
	}
	customers := []churnboard.Customer{
		{ID: 1, UniqueID: "8d50f5eadf50201ccdcedfb9e2ac8455", City: "sao paulo", State: "SP", ZipPrefix: "01310", TotalOrders: 17, TotalPayment: 2710.15, AvgOrderValue: 159.42, UniqueProducts: 14, UniqueCategories: 6, AvgReviewScore: 4.6, RecencyDays: 12, Frequency: 17, Monetary: 2710.15, ChurnRisk: churnboard.RiskStable, Cluster: 0, FirstOrderDate: day("2016-10-04"), LastOrderDate: day("2018-08-17")},
		{ID: 2, UniqueID: "3e43e6105506432c953e165fb2acf44c", City: "rio de janeiro", State: "RJ", ZipPrefix: "22790", TotalOrders: 9, TotalPayment: 1172.66, AvgOrderValue: 130.30, UniqueProducts: 8, UniqueCategories: 4, AvgReviewScore: 4.1, RecencyDays: 48, Frequency: 9, Monetary: 1172.66, ChurnRisk: churnboard.RiskLow, Cluster: 1, FirstOrderDate: day("2017-02-11"), LastOrderDate: day("2018-07-02")},
		{ID: 3, UniqueID: "1b6c7548a2a1f9037c1fd3ddfed95f33", City: "belo horizonte", State: "MG", ZipPrefix: "30130", TotalOrders: 4, TotalPayment: 402.90, AvgOrderValue: 100.73, UniqueProducts: 4, UniqueCategories: 2, AvgReviewScore: 3.5, RecencyDays: 131, Frequency: 4, Monetary: 402.90, ChurnRisk: churnboard.RiskMedium, Cluster: 2, FirstOrderDate: day("2017-05-20"), LastOrderDate: day("2018-04-10")},
		{ID: 4, UniqueID: "ca77025e7201e3b30c44b472ff346268", City: "curitiba", State: "PR", ZipPrefix: "80010", TotalOrders: 1, TotalPayment: 89.99, AvgOrderValue: 89.99, UniqueProducts: 1, UniqueCategories: 1, AvgReviewScore: 2.0, RecencyDays: 402, Frequency: 1, Monetary: 89.99, ChurnRisk: churnboard.RiskHigh, Cluster: 3, FirstOrderDate: day("2017-07-15"), LastOrderDate: day("2017-07-15")},
		{ID: 5, UniqueID: "f0e310a6839dce9de1638e0fe5ab282a", City: "porto alegre", State: "RS", ZipPrefix: "90010", TotalOrders: 2, TotalPayment: 215.40, AvgOrderValue: 107.70, UniqueProducts: 2, UniqueCategories: 2, AvgReviewScore: 3.0, RecencyDays: 287, Frequency: 2, Monetary: 215.40, ChurnRisk: churnboard.RiskHigh, Cluster: 3, FirstOrderDate: day("2017-03-02"), LastOrderDate: day("2017-11-06")},
	}
	return MockData{
		Summary: churnboard.Summary{
			TotalCustomers: 5,
			TotalRevenue:   4591.10,
			AvgOrderValue:  139.12,
			ChurnDistribution: map[string]int{
				churnboard.RiskHigh:   2,
				churnboard.RiskMedium: 1,
				churnboard.RiskLow:    1,
				churnboard.RiskStable: 1,
			},
			RecentPredictions: []churnboard.RecentPrediction{
				{ID: 2, CustomerID: 4, Risk: churnboard.RiskHigh, Confidence: 0.82, Date: day("2018-08-20")},
				{ID: 1, CustomerID: 1, Risk: churnboard.RiskStable, Confidence: 0.91, Date: day("2018-08-19")},
			},
		},
		Charts: map[churnboard.ChartType]churnboard.ChartDataset{
			churnboard.ChartChurnDistribution: {
				Labels: []string{churnboard.RiskHigh, churnboard.RiskMedium, churnboard.RiskLow, churnboard.RiskStable},
				Data:   []float64{2, 1, 1, 1},
			},
			churnboard.ChartRevenueByRisk: {
				Labels:       []string{churnboard.RiskHigh, churnboard.RiskMedium, churnboard.RiskLow, churnboard.RiskStable},
				TotalRevenue: []float64{305.39, 402.90, 1172.66, 2710.15},
				AvgRevenue:   []float64{152.70, 402.90, 1172.66, 2710.15},
			},
			churnboard.ChartGeographicDistribution: {
				Labels: []string{"SP", "RJ", "MG", "PR", "RS"},
				Data:   []float64{1, 1, 1, 1, 1},
			},
		},
		Customers: customers,
		Campaigns: []churnboard.Campaign{
			{ID: 1, Name: "Win-back 20%", TargetRiskLevel: churnboard.RiskHigh, CampaignType: "Email", DiscountPercentage: 20, Message: "We miss you! Enjoy 20% off your next order.", Status: churnboard.StatusActive, CreatedAt: day("2018-08-01"), TargetCustomers: 100, EngagedCustomers: 25},
			{ID: 2, Name: "Loyalty boost", TargetRiskLevel: churnboard.RiskStable, CampaignType: "Loyalty", DiscountPercentage: 5, Message: "Thanks for staying with us.", Status: churnboard.StatusDraft, CreatedAt: day("2018-08-05"), TargetCustomers: 50, EngagedCustomers: 25},
		},
		Prediction: churnboard.Prediction{
			Risk:       churnboard.RiskHigh,
			Confidence: 0.82,
			ClassProbabilities: map[string]float64{
				churnboard.RiskHigh: 0.82,
				churnboard.RiskLow:  0.18,
			},
		},
		Health: churnboard.Health{Status: "healthy", ModelLoaded: true},
	}
}
