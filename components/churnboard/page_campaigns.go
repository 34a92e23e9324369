package churnboard

import (
	"context"
	"strconv"
	"sync"
	"time"
)

type campaignSource interface {
	ListCampaigns(ctx context.Context) ([]Campaign, error)
	CreateCampaign(ctx context.Context, input CampaignInput) (int, error)
	UpdateCampaign(ctx context.Context, id int, input CampaignInput) error
	DeleteCampaign(ctx context.Context, id int) error
}

// CampaignForm is the create/edit modal state. EditingID is zero while
// creating.
type CampaignForm struct {
	Open      bool              `json:"open"`
	EditingID int               `json:"editing_id,omitempty"`
	Input     CampaignInput     `json:"input"`
	Errors    map[string]string `json:"errors,omitempty"`
	Message   string            `json:"message,omitempty"`
}

// CampaignsPage lists campaigns and performs CRUD. Every successful
// mutation is followed by a full re-fetch of the list.
type CampaignsPage struct {
	pageBase
	source campaignSource
	hook   CampaignHook
	viewer string

	mu     sync.Mutex
	form   CampaignForm
	notice string
	list   Slot[[]Campaign]
}

// NewCampaignsPage wires a campaigns page. viewer tags published events.
func NewCampaignsPage(source campaignSource, hook CampaignHook, telemetry Telemetry, viewer string) *CampaignsPage {
	if hook == nil {
		hook = noopCampaignHook{}
	}
	return &CampaignsPage{
		pageBase: newPageBase(PageCampaigns, telemetry),
		source:   source,
		hook:     hook,
		viewer:   viewer,
	}
}

// Load fetches the campaign list.
func (p *CampaignsPage) Load(ctx context.Context) (Result[[]Campaign], error) {
	result, err := p.list.Run(ctx, p.source.ListCampaigns, fixedMessage("Failed to load campaigns"))
	p.recordError(ctx, "list", err)
	p.recordLoad(ctx, result.State, nil)
	return result, err
}

// OpenCreate opens an empty form.
func (p *CampaignsPage) OpenCreate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.form = CampaignForm{Open: true, Input: CampaignInput{}.WithDefaults()}
}

// OpenEdit opens the form seeded from a loaded campaign. It reports false
// when the id is not in the current list.
func (p *CampaignsPage) OpenEdit(id int) bool {
	campaign, ok := p.find(id)
	if !ok {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.form = CampaignForm{Open: true, EditingID: id, Input: CampaignInputFrom(campaign)}
	return true
}

// CloseForm discards the form.
func (p *CampaignsPage) CloseForm() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.form = CampaignForm{}
}

// Form returns a copy of the form state.
func (p *CampaignsPage) Form() CampaignForm {
	p.mu.Lock()
	defer p.mu.Unlock()
	form := p.form
	form.Errors = copyStrings(p.form.Errors)
	return form
}

// Save creates or updates depending on editingID. On failure the form
// stays open with the entered values and an error message.
func (p *CampaignsPage) Save(ctx context.Context, editingID int, input CampaignInput) error {
	if editingID == 0 {
		input = input.WithDefaults()
	}
	p.mu.Lock()
	p.form = CampaignForm{Open: true, EditingID: editingID, Input: input}
	p.mu.Unlock()

	if err := input.Validate(); err != nil {
		p.failForm(FieldErrors(err), "Please correct the highlighted fields")
		p.recordError(ctx, "validate", err)
		return err
	}

	event := CampaignEvent{Name: input.Name, Viewer: p.viewer}
	var err error
	if editingID == 0 {
		var id int
		id, err = p.source.CreateCampaign(ctx, input)
		event.Action, event.CampaignID = CampaignCreated, id
	} else {
		err = p.source.UpdateCampaign(ctx, editingID, input)
		event.Action, event.CampaignID = CampaignUpdated, editingID
	}
	if err != nil {
		p.failForm(nil, BackendMessage(err, "Failed to save campaign"))
		p.recordError(ctx, "save", err)
		return err
	}

	p.CloseForm()
	p.mutated(ctx, event)
	_, _ = p.Load(ctx)
	return nil
}

// RejectForm reopens the form with input values that could not be parsed
// and shows the field errors carried by err. Nothing is sent to the backend.
func (p *CampaignsPage) RejectForm(ctx context.Context, editingID int, input CampaignInput, err error) {
	if editingID == 0 {
		input = input.WithDefaults()
	}
	p.mu.Lock()
	p.form = CampaignForm{Open: true, EditingID: editingID, Input: input}
	p.mu.Unlock()
	p.failForm(FieldErrors(err), "Please correct the highlighted fields")
	p.recordError(ctx, "parse", err)
}

// Delete removes a campaign. Failures leave the list untouched and raise
// a notice.
func (p *CampaignsPage) Delete(ctx context.Context, id int) error {
	if err := p.source.DeleteCampaign(ctx, id); err != nil {
		p.mu.Lock()
		p.notice = BackendMessage(err, "Failed to delete campaign")
		p.mu.Unlock()
		p.recordError(ctx, "delete", err)
		return err
	}
	name := ""
	if campaign, ok := p.find(id); ok {
		name = campaign.Name
	}
	p.mu.Lock()
	p.notice = ""
	p.mu.Unlock()
	p.mutated(ctx, CampaignEvent{Action: CampaignDeleted, CampaignID: id, Name: name, Viewer: p.viewer})
	_, _ = p.Load(ctx)
	return nil
}

// Notice returns the pending notification, if any.
func (p *CampaignsPage) Notice() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.notice
}

// Dismiss clears the list alert and the notice.
func (p *CampaignsPage) Dismiss() {
	p.mu.Lock()
	p.notice = ""
	p.mu.Unlock()
	p.list.Dismiss()
}

// Result returns the list state.
func (p *CampaignsPage) Result() Result[[]Campaign] {
	return p.list.Snapshot()
}

// Stats derives statistics from the loaded list.
func (p *CampaignsPage) Stats() CampaignStats {
	return ComputeCampaignStats(p.list.Snapshot().Data)
}

func (p *CampaignsPage) find(id int) (Campaign, bool) {
	for _, c := range p.list.Snapshot().Data {
		if c.ID == id {
			return c, true
		}
	}
	return Campaign{}, false
}

func (p *CampaignsPage) failForm(errors map[string]string, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.form.Errors = errors
	p.form.Message = message
}

func (p *CampaignsPage) mutated(ctx context.Context, event CampaignEvent) {
	event.At = time.Now().UTC()
	p.telemetry.Record(ctx, "churnboard.campaign."+event.Action, map[string]any{
		"campaign_id": event.CampaignID,
		"name":        event.Name,
	})
	if err := p.hook.CampaignChanged(ctx, event); err != nil {
		p.recordError(ctx, "broadcast", err)
	}
}

// View builds the template payload.
func (p *CampaignsPage) View() ViewData {
	result := p.list.Snapshot()
	form := p.Form()
	view := ViewData{
		"page":        PageCampaigns,
		"result":      resultView(result),
		"notice":      p.Notice(),
		"form":        campaignFormView(form),
		"risk_levels": RiskLevels(),
		"types":       CampaignTypes(),
		"statuses":    CampaignStatuses(),
	}
	if !result.HasData {
		return view
	}
	stats := ComputeCampaignStats(result.Data)
	view["stats"] = ViewData{
		"total":           stats.Total,
		"active":          stats.Active,
		"total_target":    FormatInt(stats.TotalTarget),
		"total_engaged":   FormatInt(stats.TotalEngaged),
		"engagement_rate": stats.EngagementRateLabel(),
	}
	rows := make([]ViewData, 0, len(result.Data))
	for _, c := range result.Data {
		rows = append(rows, ViewData{
			"id":              c.ID,
			"name":            c.Name,
			"risk":            StyleForRisk(c.TargetRiskLevel),
			"type":            c.CampaignType,
			"discount":        FormatFixed(c.DiscountPercentage, 0) + "%",
			"status":          c.Status,
			"status_tag":      StatusTag(c.Status),
			"target":          FormatInt(c.TargetCustomers),
			"engaged":         FormatInt(c.EngagedCustomers),
			"engagement_rate": FormatFixed(EngagementRate(c.EngagedCustomers, c.TargetCustomers), 1),
			"created_at":      FormatDate(c.CreatedAt),
			"message":         c.Message,
		})
	}
	view["rows"] = rows
	return view
}

func campaignFormView(form CampaignForm) ViewData {
	title := "Create Campaign"
	action := "/campaigns"
	if form.EditingID != 0 {
		title = "Edit Campaign"
		action = "/campaigns/" + strconv.Itoa(form.EditingID)
	}
	return ViewData{
		"open":       form.Open,
		"editing_id": form.EditingID,
		"title":      title,
		"action":     action,
		"input": ViewData{
			"name":                form.Input.Name,
			"target_risk_level":   form.Input.TargetRiskLevel,
			"campaign_type":       form.Input.CampaignType,
			"discount_percentage": FormatFixed(form.Input.DiscountPercentage, -1),
			"message":             form.Input.Message,
			"target_customers":    form.Input.TargetCustomers,
			"status":              form.Input.Status,
		},
		"errors":  form.Errors,
		"message": form.Message,
	}
}
