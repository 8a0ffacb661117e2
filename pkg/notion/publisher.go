package notion

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
)

// PublishResult counts what one Publish call did.
type PublishResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// Publisher writes scored leads into a Notion database. A lead already
// present (matched on Lead ID) is updated in place, so re-publishing a run
// never creates duplicate pages.
type Publisher struct {
	client Client
	dbID   string
	policy resilience.Policy
}

// NewPublisher creates a Publisher for the database dbID.
func NewPublisher(c Client, dbID string) *Publisher {
	return &Publisher{
		client: c,
		dbID:   dbID,
		policy: resilience.DefaultPolicy("notion", "publish_lead"),
	}
}

// Publish upserts every lead. A lead that still fails after retries is
// logged and counted; only listing existing pages or cancellation abort
// the call.
func (p *Publisher) Publish(ctx context.Context, leads []model.ScoredLead) (*PublishResult, error) {
	log := zap.L().With(zap.String("stage", "publish"), zap.String("database", p.dbID))

	existing, err := resilience.DoVal(ctx, p.policy, func(ctx context.Context) (map[string]string, error) {
		return ExistingLeads(ctx, p.client, p.dbID)
	})
	if err != nil {
		return nil, err
	}

	res := &PublishResult{}
	for _, l := range leads {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		props := LeadProperties(l)

		if pageID, ok := existing[l.ID()]; ok {
			err = resilience.Do(ctx, p.policy, func(ctx context.Context) error {
				_, err := p.client.UpdatePage(ctx, pageID, &notionapi.PageUpdateRequest{Properties: props})
				return err
			})
			if err == nil {
				res.Updated++
				continue
			}
		} else {
			var page *notionapi.Page
			page, err = resilience.DoVal(ctx, p.policy, func(ctx context.Context) (*notionapi.Page, error) {
				return p.client.CreatePage(ctx, &notionapi.PageCreateRequest{
					Parent: notionapi.Parent{
						Type:       notionapi.ParentTypeDatabaseID,
						DatabaseID: notionapi.DatabaseID(p.dbID),
					},
					Properties: props,
				})
			})
			if err == nil {
				existing[l.ID()] = string(page.ID)
				res.Created++
				continue
			}
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		res.Failed++
		log.Warn("publish lead failed", zap.String("lead", l.ID()), zap.Error(err))
	}

	log.Info("publish complete",
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

// LeadProperties builds the page properties for one lead.
func LeadProperties(l model.ScoredLead) notionapi.Properties {
	contactBy := notionapi.Date(l.ContactBy)
	props := notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Type:  notionapi.PropertyTypeTitle,
			Title: richText(l.Record.Name),
		},
		LeadIDProperty: notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(l.ID()),
		},
		"Score": notionapi.NumberProperty{
			Number: float64(l.Score),
		},
		"Priority": notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(l.Priority)},
		},
		"Vertical": notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(l.Vertical())},
		},
		"Contact By": notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &contactBy},
		},
		"City": notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(l.Record.City),
		},
		"Rating": notionapi.NumberProperty{
			Number: l.Record.Rating,
		},
		"Reviews": notionapi.NumberProperty{
			Number: float64(l.Record.ReviewCount),
		},
		"On Competitor": notionapi.CheckboxProperty{
			Checkbox: l.Features.OnPlatformA || l.Features.OnPlatformB,
		},
		"Breakdown": notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(l.Breakdown.String()),
		},
	}
	if l.Record.Phone != "" {
		props["Phone"] = notionapi.PhoneNumberProperty{PhoneNumber: l.Record.Phone}
	}
	if l.Record.Website != "" {
		props["Website"] = notionapi.URLProperty{
			Type: notionapi.PropertyTypeURL,
			URL:  l.Record.Website,
		}
	}
	return props
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{
		{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}},
	}
}

// Summary formats a result for logs and CLI output.
func (r *PublishResult) Summary() string {
	return fmt.Sprintf("created=%d updated=%d failed=%d", r.Created, r.Updated, r.Failed)
}
