package commands

import (
	"context"
	"time"

	churnboard "github.com/goliatone/go-churnboard/components/churnboard"
	goerrors "github.com/goliatone/go-errors"
)

// Command outcomes attached to every command event.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeFailed  = "failed"
)

// commandEvents emits one "churnboard.command.<name>" event per Execute,
// whether it succeeded or not.
type commandEvents struct {
	telemetry churnboard.Telemetry
	now       func() time.Time
}

func newCommandEvents(telemetry churnboard.Telemetry) commandEvents {
	return commandEvents{telemetry: telemetry, now: time.Now}
}

func (e commandEvents) finish(ctx context.Context, name string, started time.Time, err error, payload map[string]any) {
	if e.telemetry == nil {
		return
	}
	if payload == nil {
		payload = map[string]any{}
	}
	payload["outcome"] = outcome(err)
	payload["elapsed_ms"] = e.now().Sub(started).Milliseconds()
	if err != nil {
		payload["error"] = err.Error()
	}
	e.telemetry.Record(ctx, "churnboard.command."+name, payload)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case goerrors.IsValidation(err):
		return OutcomeInvalid
	default:
		return OutcomeFailed
	}
}
