package churnboard

import (
	"context"
)

// ViewData is the template payload produced by a page.
type ViewData map[string]any

// Page names double as template names.
const (
	PageDashboard   = "dashboard"
	PageCustomers   = "customers"
	PageCustomer    = "customer"
	PagePredictions = "predictions"
	PageCampaigns   = "campaigns"
	PageAnalytics   = "analytics"
)

type pageBase struct {
	name      string
	telemetry Telemetry
}

func newPageBase(name string, telemetry Telemetry) pageBase {
	return pageBase{name: name, telemetry: normalizeTelemetry(telemetry)}
}

func (p pageBase) recordLoad(ctx context.Context, state State, extra map[string]any) {
	payload := map[string]any{"page": p.name, "state": string(state)}
	for k, v := range extra {
		payload[k] = v
	}
	p.telemetry.Record(ctx, "churnboard.page.load", payload)
}

func (p pageBase) recordError(ctx context.Context, op string, err error) {
	if err == nil {
		return
	}
	p.telemetry.Record(ctx, "churnboard.fetch.error", map[string]any{
		"page":      p.name,
		"operation": op,
		"error":     err.Error(),
	})
}

func fixedMessage(message string) func(error) string {
	return func(error) string { return message }
}

func resultView[T any](r Result[T]) ViewData {
	return ViewData{
		"state":   string(r.State),
		"loading": r.IsLoading(),
		"error":   r.Message,
		"ready":   r.HasData,
	}
}
