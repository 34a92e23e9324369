package commands

import (
	"context"
	"errors"

	churnboard "github.com/goliatone/go-churnboard/components/churnboard"
	gocommand "github.com/goliatone/go-command"
)

type predictionForm interface {
	Submit(ctx context.Context, input churnboard.PredictionInput, raw map[string]string) (churnboard.Result[churnboard.Prediction], error)
}

// SubmitPredictionInput carries the parsed feature vector and the raw form
// values echoed back on validation failure.
type SubmitPredictionInput struct {
	Input churnboard.PredictionInput
	Raw   map[string]string
}

// SubmitPredictionCommand submits the prediction form. The outcome is read
// from the page state afterwards.
type SubmitPredictionCommand struct {
	page   predictionForm
	events commandEvents
}

// NewSubmitPredictionCommand creates the command.
func NewSubmitPredictionCommand(page predictionForm, telemetry churnboard.Telemetry) *SubmitPredictionCommand {
	return &SubmitPredictionCommand{page: page, events: newCommandEvents(telemetry)}
}

var _ gocommand.Commander[SubmitPredictionInput] = (*SubmitPredictionCommand)(nil)

// Execute runs the prediction.
func (c *SubmitPredictionCommand) Execute(ctx context.Context, msg SubmitPredictionInput) error {
	if c.page == nil {
		return errors.New("submit prediction command requires predictions page")
	}
	started := c.events.now()
	result, err := c.page.Submit(ctx, msg.Input, msg.Raw)
	payload := map[string]any{}
	if err == nil {
		payload["risk"] = result.Data.Risk
		payload["confidence"] = result.Data.Confidence
	}
	c.events.finish(ctx, "prediction", started, err, payload)
	return err
}
