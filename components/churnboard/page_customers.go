package churnboard

import (
	"context"
	"fmt"
	"sync"
)

type customerSource interface {
	ListCustomers(ctx context.Context, query CustomerQuery) (CustomerPage, error)
	GetCustomer(ctx context.Context, id int) (Customer, error)
}

// CustomersPage browses the paginated customer list. Rows from the
// previous load stay visible while a refresh is in flight.
type CustomersPage struct {
	pageBase
	source customerSource

	mu     sync.Mutex
	query  CustomerQuery
	list   Slot[CustomerPage]
	detail Slot[Customer]
}

// NewCustomersPage wires a customers page.
func NewCustomersPage(source customerSource, telemetry Telemetry) *CustomersPage {
	page := &CustomersPage{
		pageBase: newPageBase(PageCustomers, telemetry),
		source:   source,
		query:    CustomerQuery{}.Normalize(),
	}
	page.list.KeepPrevious()
	return page
}

// Load fetches the page described by query. The query comes straight
// from the route, so a page number is honoured as given; the filter form
// submits without a page, which lands on the first page.
func (p *CustomersPage) Load(ctx context.Context, query CustomerQuery) (Result[CustomerPage], error) {
	query = query.Normalize()
	p.mu.Lock()
	p.query = query
	p.mu.Unlock()

	result, err := p.list.Run(ctx, func(ctx context.Context) (CustomerPage, error) {
		return p.source.ListCustomers(ctx, query)
	}, fixedMessage("Failed to load customers"))
	p.recordError(ctx, "list", err)
	p.recordLoad(ctx, result.State, map[string]any{"page_number": query.Page, "risk_level": query.RiskLevel})
	return result, err
}

// Query returns the active filters.
func (p *CustomersPage) Query() CustomerQuery {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.query
}

// LoadCustomer fetches one customer for the detail view.
func (p *CustomersPage) LoadCustomer(ctx context.Context, id int) (Result[Customer], error) {
	result, err := p.detail.Run(ctx, func(ctx context.Context) (Customer, error) {
		return p.source.GetCustomer(ctx, id)
	}, func(err error) string {
		return BackendMessage(err, "Failed to load customer details")
	})
	p.recordError(ctx, "detail", err)
	return result, err
}

// Result returns the list state.
func (p *CustomersPage) Result() Result[CustomerPage] {
	return p.list.Snapshot()
}

// Dismiss clears the list alert.
func (p *CustomersPage) Dismiss() {
	p.list.Dismiss()
}

// RangeText renders "first-last of total customers" for the loaded page.
func RangeText(page CustomerPage, perPage int) string {
	if page.Total == 0 || len(page.Customers) == 0 {
		return "0 of 0 customers"
	}
	current := max(page.CurrentPage, 1)
	first := (current-1)*perPage + 1
	last := first + len(page.Customers) - 1
	return fmt.Sprintf("%d-%d of %s customers", first, last, FormatInt(page.Total))
}

// View builds the list payload.
func (p *CustomersPage) View() ViewData {
	query := p.Query()
	result := p.list.Snapshot()
	view := ViewData{
		"page":        PageCustomers,
		"result":      resultView(result),
		"search":      query.Search,
		"risk_level":  query.RiskLevel,
		"per_page":    query.PerPage,
		"risk_levels": RiskLevels(),
	}
	if !result.HasData {
		return view
	}
	data := result.Data
	rows := make([]ViewData, 0, len(data.Customers))
	for _, c := range data.Customers {
		rows = append(rows, customerRow(c))
	}
	view["rows"] = rows
	view["range"] = RangeText(data, query.PerPage)
	view["current_page"] = data.CurrentPage
	view["pages"] = data.Pages
	if data.CurrentPage > 1 {
		view["prev_page"] = data.CurrentPage - 1
	}
	if data.CurrentPage < data.Pages {
		view["next_page"] = data.CurrentPage + 1
	}
	return view
}

// DetailView builds the customer detail payload.
func (p *CustomersPage) DetailView() ViewData {
	result := p.detail.Snapshot()
	view := ViewData{"page": PageCustomer, "result": resultView(result)}
	if !result.HasData {
		return view
	}
	c := result.Data
	row := customerRow(c)
	row["zip_prefix"] = c.ZipPrefix
	row["unique_products"] = c.UniqueProducts
	row["unique_categories"] = c.UniqueCategories
	row["avg_review_score"] = FormatFixed(c.AvgReviewScore, 2)
	row["cluster"] = c.Cluster
	row["first_order_date"] = FormatDate(c.FirstOrderDate)
	row["updated_at"] = FormatDateTime(c.UpdatedAt)
	view["customer"] = row
	return view
}

func customerRow(c Customer) ViewData {
	return ViewData{
		"id":              c.ID,
		"unique_id":       c.UniqueID,
		"location":        location(c.City, c.State),
		"total_orders":    c.TotalOrders,
		"total_payment":   FormatCurrency(c.TotalPayment),
		"avg_order_value": FormatCurrency(c.AvgOrderValue),
		"recency_days":    c.RecencyDays,
		"frequency":       c.Frequency,
		"monetary":        FormatCurrency(c.Monetary),
		"risk":            StyleForRisk(c.ChurnRisk),
		"last_order_date": FormatDate(c.LastOrderDate),
	}
}

func location(city, state string) string {
	switch {
	case city == "" && state == "":
		return "-"
	case state == "":
		return city
	case city == "":
		return state
	default:
		return city + ", " + state
	}
}
