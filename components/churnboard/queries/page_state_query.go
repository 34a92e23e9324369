package queries

import (
	"context"

	churnboard "github.com/goliatone/go-churnboard/components/churnboard"
	gocommand "github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
)

// PageStateInput identifies a viewer's page.
type PageStateInput struct {
	Viewer string
	Page   string
}

type sessionSource interface {
	Get(viewer string) *churnboard.Session
}

// PageStateQuery returns the current view model of a viewer's page
// without triggering a fetch.
type PageStateQuery struct {
	sessions sessionSource
}

// NewPageStateQuery builds the query.
func NewPageStateQuery(sessions sessionSource) *PageStateQuery {
	return &PageStateQuery{sessions: sessions}
}

var _ gocommand.Querier[PageStateInput, churnboard.ViewData] = (*PageStateQuery)(nil)

// Query returns the page view model.
func (q *PageStateQuery) Query(ctx context.Context, input PageStateInput) (churnboard.ViewData, error) {
	if q.sessions == nil {
		return nil, goerrors.New("page state query requires sessions", goerrors.CategoryInternal)
	}
	view, ok := q.sessions.Get(input.Viewer).View(ctx, input.Page)
	if !ok {
		return nil, goerrors.New("unknown page "+input.Page, goerrors.CategoryNotFound).
			WithTextCode("UNKNOWN_PAGE")
	}
	return view, nil
}
