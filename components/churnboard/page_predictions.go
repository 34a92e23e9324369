package churnboard

import (
	"context"
	"sync"
)

type predictionSource interface {
	Predict(ctx context.Context, input PredictionInput) (Prediction, error)
}

// PredictionsPage holds the feature form and the last model answer.
type PredictionsPage struct {
	pageBase
	source          predictionSource
	recommendations Recommendations

	mu     sync.Mutex
	values map[string]string
	errors map[string]string
	result Slot[Prediction]
}

// NewPredictionsPage wires a predictions page.
func NewPredictionsPage(source predictionSource, recommendations Recommendations, telemetry Telemetry) *PredictionsPage {
	if recommendations == nil {
		recommendations = DefaultRecommendations()
	}
	return &PredictionsPage{
		pageBase:        newPageBase(PagePredictions, telemetry),
		source:          source,
		recommendations: recommendations,
		values:          map[string]string{},
	}
}

// Submit validates the form and, when valid, asks the model. raw holds
// the submitted strings so the form can be redisplayed as entered.
func (p *PredictionsPage) Submit(ctx context.Context, input PredictionInput, raw map[string]string) (Result[Prediction], error) {
	p.mu.Lock()
	p.values = copyStrings(raw)
	p.errors = nil
	p.mu.Unlock()

	if err := input.Validate(); err != nil {
		p.mu.Lock()
		p.errors = FieldErrors(err)
		p.mu.Unlock()
		p.recordError(ctx, "validate", err)
		return p.result.Snapshot(), err
	}

	result, err := p.result.Run(ctx, func(ctx context.Context) (Prediction, error) {
		return p.source.Predict(ctx, input)
	}, func(err error) string {
		return BackendMessage(err, "Prediction failed")
	})
	p.recordError(ctx, "predict", err)
	if err == nil {
		p.telemetry.Record(ctx, "churnboard.prediction", map[string]any{
			"risk":       result.Data.Risk,
			"confidence": result.Data.Confidence,
		})
	}
	return result, err
}

// Reset clears the form and the result.
func (p *PredictionsPage) Reset() {
	p.mu.Lock()
	p.values = map[string]string{}
	p.errors = nil
	p.mu.Unlock()
	p.result.Reset()
}

// Result returns the prediction state.
func (p *PredictionsPage) Result() Result[Prediction] {
	return p.result.Snapshot()
}

// Dismiss clears the alert.
func (p *PredictionsPage) Dismiss() {
	p.result.Dismiss()
}

// View builds the template payload.
func (p *PredictionsPage) View() ViewData {
	p.mu.Lock()
	values := copyStrings(p.values)
	errors := copyStrings(p.errors)
	p.mu.Unlock()

	fields := make([]ViewData, 0, 18)
	for _, field := range PredictionFields() {
		entry := ViewData{
			"name":  field.Name,
			"label": field.Label,
			"min":   FormatFixed(field.Min, -1),
			"step":  field.Step,
			"value": values[field.Name],
			"error": errors[field.Name],
		}
		if field.Max > 0 {
			entry["max"] = FormatFixed(field.Max, -1)
		}
		fields = append(fields, entry)
	}

	result := p.result.Snapshot()
	view := ViewData{
		"page":         PagePredictions,
		"result":       resultView(result),
		"fields":       fields,
		"field_errors": len(errors) > 0,
	}
	if result.State != StateSuccess {
		return view
	}
	pred := result.Data
	bars := make([]ViewData, 0, len(pred.ClassProbabilities))
	for _, prob := range pred.Probabilities() {
		bars = append(bars, ViewData{
			"label":   prob.Label,
			"percent": FormatPercent(prob.Probability),
			"width":   FormatFixed(clamp01(prob.Probability)*100, 1),
			"color":   RiskColor(prob.Label),
		})
	}
	view["prediction"] = ViewData{
		"risk":            StyleForRisk(pred.Risk),
		"confidence":      FormatPercent(pred.Confidence),
		"probabilities":   bars,
		"recommendations": p.recommendations.For(pred.Risk),
	}
	return view
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}

func copyStrings(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
