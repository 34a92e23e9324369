package commands

import (
	"context"
	"errors"

	churnboard "github.com/goliatone/go-churnboard/components/churnboard"
	gocommand "github.com/goliatone/go-command"
)

type campaignStore interface {
	Save(ctx context.Context, editingID int, input churnboard.CampaignInput) error
	Delete(ctx context.Context, id int) error
}

// SaveCampaignInput creates a campaign when ID is zero and updates it
// otherwise.
type SaveCampaignInput struct {
	ID       int
	Campaign churnboard.CampaignInput
}

// SaveCampaignCommand validates and persists a campaign through the
// campaigns page so the list is re-fetched and listeners are notified.
type SaveCampaignCommand struct {
	page   campaignStore
	events commandEvents
}

// NewSaveCampaignCommand creates the command.
func NewSaveCampaignCommand(page campaignStore, telemetry churnboard.Telemetry) *SaveCampaignCommand {
	return &SaveCampaignCommand{page: page, events: newCommandEvents(telemetry)}
}

var _ gocommand.Commander[SaveCampaignInput] = (*SaveCampaignCommand)(nil)

// Execute saves the campaign.
func (c *SaveCampaignCommand) Execute(ctx context.Context, msg SaveCampaignInput) error {
	if c.page == nil {
		return errors.New("save campaign command requires campaigns page")
	}
	if msg.ID < 0 {
		return errors.New("save campaign command requires a non-negative id")
	}
	action := churnboard.CampaignCreated
	if msg.ID != 0 {
		action = churnboard.CampaignUpdated
	}
	started := c.events.now()
	err := c.page.Save(ctx, msg.ID, msg.Campaign)
	c.events.finish(ctx, "campaign."+action, started, err, map[string]any{
		"campaign_id": msg.ID,
		"name":        msg.Campaign.Name,
	})
	return err
}

// DeleteCampaignInput names the campaign to remove.
type DeleteCampaignInput struct {
	ID int
}

// DeleteCampaignCommand removes a campaign.
type DeleteCampaignCommand struct {
	page   campaignStore
	events commandEvents
}

// NewDeleteCampaignCommand creates the command.
func NewDeleteCampaignCommand(page campaignStore, telemetry churnboard.Telemetry) *DeleteCampaignCommand {
	return &DeleteCampaignCommand{page: page, events: newCommandEvents(telemetry)}
}

var _ gocommand.Commander[DeleteCampaignInput] = (*DeleteCampaignCommand)(nil)

// Execute deletes the campaign.
func (c *DeleteCampaignCommand) Execute(ctx context.Context, msg DeleteCampaignInput) error {
	if c.page == nil {
		return errors.New("delete campaign command requires campaigns page")
	}
	if msg.ID <= 0 {
		return errors.New("delete campaign command requires an id")
	}
	started := c.events.now()
	err := c.page.Delete(ctx, msg.ID)
	c.events.finish(ctx, "campaign."+churnboard.CampaignDeleted, started, err, map[string]any{
		"campaign_id": msg.ID,
	})
	return err
}
