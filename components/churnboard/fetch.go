package churnboard

import (
	"context"
	"sort"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/sync/errgroup"
)

// MetaBackendError is the metadata key holding the backend's error text.
const MetaBackendError = "backend_error"

// FetchAll runs fetches concurrently. The first failure cancels the others
// and is returned; callers commit results only when FetchAll returns nil.
func FetchAll(ctx context.Context, fetches ...func(context.Context) error) error {
	group, groupCtx := errgroup.WithContext(ctx)
	for _, fetch := range fetches {
		group.Go(func() error {
			return fetch(groupCtx)
		})
	}
	return group.Wait()
}

// BackendMessage returns the error text sent by the backend, or fallback
// when the failure carried none.
func BackendMessage(err error, fallback string) string {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		if msg, ok := richErr.Metadata[MetaBackendError].(string); ok && msg != "" {
			return msg
		}
	}
	return fallback
}

// FieldErrors flattens validation failures into field -> message.
func FieldErrors(err error) map[string]string {
	fields, ok := goerrors.GetValidationErrors(err)
	if !ok || len(fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(fields))
	for _, field := range fields {
		out[field.Field] = field.Message
	}
	return out
}

// FieldErrorList returns FieldErrors as a stable, sorted slice.
func FieldErrorList(err error) []goerrors.FieldError {
	fields, ok := goerrors.GetValidationErrors(err)
	if !ok {
		return nil
	}
	out := append([]goerrors.FieldError(nil), fields...)
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}
