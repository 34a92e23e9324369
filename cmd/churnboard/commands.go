package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ettle/strcase"
	churnboard "github.com/goliatone/go-churnboard/components/churnboard"
	"github.com/goliatone/go-churnboard/components/churnboard/commands"
	"github.com/goliatone/go-churnboard/components/churnboard/queries"
	goerrors "github.com/goliatone/go-errors"
)

// cliViewer tags telemetry and campaign events raised from the command line.
const cliViewer = "cli"

type summaryCmd struct{}

func (cmd *summaryCmd) Run(ctx context.Context, g *Globals) error {
	_, client, err := g.setup()
	if err != nil {
		return err
	}
	summary, err := queries.NewSummaryQuery(client).Query(ctx, queries.SummaryInput{})
	if err != nil {
		return err
	}
	return g.printer().summary(summary)
}

type customersCmd struct {
	List customersListCmd `cmd:"" default:"withargs" help:"List customers page by page."`
	Show customersShowCmd `cmd:"" help:"Show one customer."`
}

type customersListCmd struct {
	Page    int    `help:"Page number." default:"1"`
	PerPage int    `name:"per-page" help:"Customers per page." default:"20"`
	Search  string `help:"Match customer id, city or state."`
	Risk    string `help:"Filter by churn risk level, e.g. \"High Risk\"."`
}

func (cmd *customersListCmd) Run(ctx context.Context, g *Globals) error {
	_, client, err := g.setup()
	if err != nil {
		return err
	}
	page, err := queries.NewCustomersQuery(client).Query(ctx, churnboard.CustomerQuery{
		Page:      cmd.Page,
		PerPage:   cmd.PerPage,
		Search:    cmd.Search,
		RiskLevel: cmd.Risk,
	})
	if err != nil {
		return err
	}
	return g.printer().customers(page)
}

type customersShowCmd struct {
	ID int `arg:"" help:"Customer id."`
}

func (cmd *customersShowCmd) Run(ctx context.Context, g *Globals) error {
	_, client, err := g.setup()
	if err != nil {
		return err
	}
	customer, err := queries.NewCustomerQuery(client).Query(ctx, queries.CustomerInput{ID: cmd.ID})
	if err != nil {
		return err
	}
	return g.printer().customer(customer)
}

type campaignsCmd struct {
	List   campaignsListCmd   `cmd:"" default:"withargs" help:"List campaigns with totals."`
	Create campaignsCreateCmd `cmd:"" help:"Create a campaign."`
	Update campaignsUpdateCmd `cmd:"" help:"Update a campaign. Omitted flags keep their current value."`
	Delete campaignsDeleteCmd `cmd:"" help:"Delete a campaign."`
}

type campaignsListCmd struct{}

func (cmd *campaignsListCmd) Run(ctx context.Context, g *Globals) error {
	_, client, err := g.setup()
	if err != nil {
		return err
	}
	report, err := queries.NewCampaignsQuery(client).Query(ctx, queries.CampaignsInput{})
	if err != nil {
		return err
	}
	return g.printer().campaigns(report.Campaigns, report.Stats)
}

type CampaignFlags struct {
	Name     *string  `help:"Campaign name."`
	Target   *string  `help:"Target churn risk level."`
	Type     *string  `help:"Channel (Email, SMS, Push, Retargeting, Loyalty)."`
	Discount *float64 `help:"Discount percentage, 0 to 100."`
	Message  *string  `help:"Message sent to customers."`
	Size     *int     `help:"Number of targeted customers."`
	Status   *string  `help:"Draft, Active, Paused or Completed."`
}

func (f CampaignFlags) apply(in churnboard.CampaignInput) churnboard.CampaignInput {
	if f.Name != nil {
		in.Name = strings.TrimSpace(*f.Name)
	}
	if f.Target != nil {
		in.TargetRiskLevel = *f.Target
	}
	if f.Type != nil {
		in.CampaignType = *f.Type
	}
	if f.Discount != nil {
		in.DiscountPercentage = *f.Discount
	}
	if f.Message != nil {
		in.Message = *f.Message
	}
	if f.Size != nil {
		in.TargetCustomers = *f.Size
	}
	if f.Status != nil {
		in.Status = *f.Status
	}
	return in
}

// campaignsPage builds a campaigns page and loads the current list so
// updates and deletes can resolve existing campaigns.
func campaignsPage(ctx context.Context, g *Globals) (*churnboard.CampaignsPage, churnboard.Telemetry, error) {
	cfg, client, err := g.setup()
	if err != nil {
		return nil, nil, err
	}
	telemetry := churnboard.NewLogTelemetry(cfg.NewLogger(os.Stderr))
	page := churnboard.NewCampaignsPage(client, nil, telemetry, cliViewer)
	if _, err := page.Load(ctx); err != nil {
		return nil, nil, err
	}
	return page, telemetry, nil
}

func saveCampaign(ctx context.Context, g *Globals, page *churnboard.CampaignsPage, telemetry churnboard.Telemetry, id int, input churnboard.CampaignInput) error {
	cmd := commands.NewSaveCampaignCommand(page, telemetry)
	out := g.printer()
	if err := cmd.Execute(ctx, commands.SaveCampaignInput{ID: id, Campaign: input}); err != nil {
		out.fieldErrors(err)
		return err
	}
	result := page.Result()
	return out.campaigns(result.Data, page.Stats())
}

type campaignsCreateCmd struct {
	CampaignFlags
}

func (cmd *campaignsCreateCmd) Run(ctx context.Context, g *Globals) error {
	page, telemetry, err := campaignsPage(ctx, g)
	if err != nil {
		return err
	}
	return saveCampaign(ctx, g, page, telemetry, 0, cmd.apply(churnboard.CampaignInput{}))
}

type campaignsUpdateCmd struct {
	ID int `arg:"" help:"Campaign id."`
	CampaignFlags
}

func (cmd *campaignsUpdateCmd) Run(ctx context.Context, g *Globals) error {
	page, telemetry, err := campaignsPage(ctx, g)
	if err != nil {
		return err
	}
	if !page.OpenEdit(cmd.ID) {
		return goerrors.New(fmt.Sprintf("campaign %d not found", cmd.ID), goerrors.CategoryNotFound)
	}
	return saveCampaign(ctx, g, page, telemetry, cmd.ID, cmd.apply(page.Form().Input))
}

type campaignsDeleteCmd struct {
	ID int `arg:"" help:"Campaign id."`
}

func (cmd *campaignsDeleteCmd) Run(ctx context.Context, g *Globals) error {
	page, telemetry, err := campaignsPage(ctx, g)
	if err != nil {
		return err
	}
	if err := commands.NewDeleteCampaignCommand(page, telemetry).Execute(ctx, commands.DeleteCampaignInput{ID: cmd.ID}); err != nil {
		return err
	}
	result := page.Result()
	return g.printer().campaigns(result.Data, page.Stats())
}

type predictCmd struct {
	Set  map[string]string `help:"Feature value as name=value. Repeat for each feature." placeholder:"NAME=VALUE"`
	File string            `help:"JSON file holding feature values." type:"existingfile"`
}

// values merges the JSON file and --set flags. Keys are normalized to
// snake case so recency-days and RecencyDays both work.
func (cmd *predictCmd) values() (map[string]string, error) {
	raw := map[string]string{}
	if cmd.File != "" {
		data, err := os.ReadFile(cmd.File)
		if err != nil {
			return nil, fmt.Errorf("churnboard: read features: %w", err)
		}
		var values map[string]json.Number
		if err := json.Unmarshal(data, &values); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "churnboard: parse features")
		}
		for name, value := range values {
			raw[strcase.ToSnake(name)] = value.String()
		}
	}
	for name, value := range cmd.Set {
		raw[strcase.ToSnake(name)] = strings.TrimSpace(value)
	}
	return raw, nil
}

func (cmd *predictCmd) Run(ctx context.Context, g *Globals) error {
	cfg, client, err := g.setup()
	if err != nil {
		return err
	}
	manifest, err := loadManifest(cfg)
	if err != nil {
		return err
	}
	raw, err := cmd.values()
	if err != nil {
		return err
	}
	input := churnboard.PredictionInputFromForm(func(name string) string { return raw[name] })

	telemetry := churnboard.NewLogTelemetry(cfg.NewLogger(os.Stderr))
	page := churnboard.NewPredictionsPage(client, manifest.Recommendations, telemetry)
	out := g.printer()
	if err := commands.NewSubmitPredictionCommand(page, telemetry).Execute(ctx, commands.SubmitPredictionInput{Input: input, Raw: raw}); err != nil {
		out.fieldErrors(err)
		return err
	}
	prediction := page.Result().Data
	return out.prediction(prediction, manifest.Recommendations.For(prediction.Risk))
}

type healthCmd struct{}

func (cmd *healthCmd) Run(ctx context.Context, g *Globals) error {
	_, client, err := g.setup()
	if err != nil {
		return err
	}
	health, err := queries.NewHealthQuery(client).Query(ctx, queries.HealthInput{})
	if err != nil {
		return err
	}
	if err := g.printer().health(health); err != nil {
		return err
	}
	if !health.Healthy() {
		return goerrors.New("backend reports "+health.Status, goerrors.CategoryExternal)
	}
	return nil
}
