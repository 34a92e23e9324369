package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	churnboard "github.com/goliatone/go-churnboard/components/churnboard"
)

type printer struct {
	out  io.Writer
	json bool
}

func newPrinter(out io.Writer, asJSON bool) *printer {
	return &printer{out: out, json: asJSON}
}

// emit prints v as indented JSON when requested, otherwise calls text.
func (p *printer) emit(v any, text func(w io.Writer)) error {
	if p.json {
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(p.out)
	return nil
}

func (p *printer) table(header []string, rows [][]string) {
	tw := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}

func (p *printer) summary(s churnboard.Summary) error {
	return p.emit(s, func(w io.Writer) {
		fmt.Fprintf(w, "Customers:        %s\n", humanize.Comma(int64(s.TotalCustomers)))
		fmt.Fprintf(w, "Revenue:          %s\n", churnboard.FormatCurrency(s.TotalRevenue))
		fmt.Fprintf(w, "Avg order value:  %s\n", churnboard.FormatCurrency(s.AvgOrderValue))
		fmt.Fprintln(w)
		rows := make([][]string, 0, len(churnboard.RiskLevels()))
		for _, level := range churnboard.RiskLevels() {
			rows = append(rows, []string{level, churnboard.FormatInt(s.RiskCount(level))})
		}
		p.table([]string{"RISK", "CUSTOMERS"}, rows)
		if len(s.RecentPredictions) == 0 {
			return
		}
		fmt.Fprintln(w)
		rows = rows[:0]
		for _, r := range s.RecentPredictions {
			rows = append(rows, []string{
				fmt.Sprintf("%d", r.CustomerID),
				r.Risk,
				churnboard.FormatPercent(r.Confidence),
				relative(r.Date),
			})
		}
		p.table([]string{"CUSTOMER", "PREDICTION", "CONFIDENCE", "WHEN"}, rows)
	})
}

func (p *printer) customers(page churnboard.CustomerPage) error {
	return p.emit(page, func(w io.Writer) {
		rows := make([][]string, 0, len(page.Customers))
		for _, c := range page.Customers {
			rows = append(rows, []string{
				fmt.Sprintf("%d", c.ID),
				c.UniqueID,
				c.City + ", " + c.State,
				churnboard.FormatInt(c.TotalOrders),
				churnboard.FormatCurrency(c.TotalPayment),
				c.ChurnRisk,
			})
		}
		p.table([]string{"ID", "CUSTOMER", "LOCATION", "ORDERS", "TOTAL SPENT", "RISK"}, rows)
		fmt.Fprintf(w, "\npage %d of %d (%s customers)\n", page.CurrentPage, page.Pages, humanize.Comma(int64(page.Total)))
	})
}

func (p *printer) customer(c churnboard.Customer) error {
	return p.emit(c, func(w io.Writer) {
		p.table([]string{"FIELD", "VALUE"}, [][]string{
			{"id", fmt.Sprintf("%d", c.ID)},
			{"customer", c.UniqueID},
			{"location", c.City + ", " + c.State},
			{"orders", churnboard.FormatInt(c.TotalOrders)},
			{"total spent", churnboard.FormatCurrency(c.TotalPayment)},
			{"avg order value", churnboard.FormatCurrency(c.AvgOrderValue)},
			{"recency", humanize.Comma(int64(c.RecencyDays)) + " days"},
			{"frequency", churnboard.FormatInt(c.Frequency)},
			{"review score", churnboard.FormatFixed(c.AvgReviewScore, 1)},
			{"churn risk", c.ChurnRisk},
			{"last order", relative(c.LastOrderDate)},
		})
	})
}

func (p *printer) campaigns(campaigns []churnboard.Campaign, stats churnboard.CampaignStats) error {
	payload := map[string]any{"campaigns": campaigns, "stats": stats}
	return p.emit(payload, func(w io.Writer) {
		rows := make([][]string, 0, len(campaigns))
		for _, c := range campaigns {
			rows = append(rows, []string{
				fmt.Sprintf("%d", c.ID),
				c.Name,
				c.TargetRiskLevel,
				c.CampaignType,
				churnboard.FormatFixed(c.DiscountPercentage, 0) + "%",
				c.Status,
				fmt.Sprintf("%d/%d", c.EngagedCustomers, c.TargetCustomers),
				relative(c.CreatedAt),
			})
		}
		p.table([]string{"ID", "NAME", "TARGET", "TYPE", "DISCOUNT", "STATUS", "ENGAGED", "CREATED"}, rows)
		fmt.Fprintf(w, "\n%d campaigns, %d active, %s%% engagement\n",
			stats.Total, stats.Active, stats.EngagementRateLabel())
	})
}

func (p *printer) prediction(pred churnboard.Prediction, actions []string) error {
	payload := map[string]any{"prediction": pred, "recommendations": actions}
	return p.emit(payload, func(w io.Writer) {
		fmt.Fprintf(w, "Predicted risk:  %s\n", pred.Risk)
		fmt.Fprintf(w, "Confidence:      %s\n\n", churnboard.FormatPercent(pred.Confidence))
		rows := make([][]string, 0, len(pred.ClassProbabilities))
		for _, prob := range pred.Probabilities() {
			rows = append(rows, []string{prob.Label, churnboard.FormatPercent(prob.Probability)})
		}
		p.table([]string{"CLASS", "PROBABILITY"}, rows)
		if len(actions) > 0 {
			fmt.Fprintln(w, "\nRecommended actions:")
			for _, action := range actions {
				fmt.Fprintf(w, "  - %s\n", action)
			}
		}
	})
}

func (p *printer) health(h churnboard.Health) error {
	return p.emit(h, func(w io.Writer) {
		fmt.Fprintf(w, "status: %s\nmodel loaded: %t\nchecked: %s\n", h.Status, h.ModelLoaded, relative(h.Timestamp))
	})
}

func (p *printer) fieldErrors(err error) {
	fields := churnboard.FieldErrorList(err)
	if p.json || len(fields) == 0 {
		return
	}
	rows := make([][]string, 0, len(fields))
	for _, field := range fields {
		rows = append(rows, []string{field.Field, field.Message})
	}
	p.table([]string{"FIELD", "ERROR"}, rows)
}

func relative(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}
