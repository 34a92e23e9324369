package churnboard

// CampaignStats are derived from the loaded campaign list only.
type CampaignStats struct {
	Total          int     `json:"total"`
	Active         int     `json:"active"`
	TotalTarget    int     `json:"total_target"`
	TotalEngaged   int     `json:"total_engaged"`
	EngagementRate float64 `json:"engagement_rate"`
}

// EngagementRateLabel formats the overall rate with one decimal.
func (s CampaignStats) EngagementRateLabel() string {
	return FormatFixed(s.EngagementRate, 1)
}

// ComputeCampaignStats aggregates totals for the campaigns page.
func ComputeCampaignStats(campaigns []Campaign) CampaignStats {
	stats := CampaignStats{Total: len(campaigns)}
	for _, c := range campaigns {
		if c.Status == StatusActive {
			stats.Active++
		}
		stats.TotalTarget += c.TargetCustomers
		stats.TotalEngaged += c.EngagedCustomers
	}
	stats.EngagementRate = EngagementRate(stats.TotalEngaged, stats.TotalTarget)
	return stats
}

// EngagementRate returns engaged/target*100, or 0 when target is not positive.
func EngagementRate(engaged, target int) float64 {
	if target <= 0 {
		return 0
	}
	return float64(engaged) / float64(target) * 100
}
