package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// LeadIDProperty is the rich text column holding the lead identifier. It
// is the key the publisher deduplicates on.
const LeadIDProperty = "Lead ID"

// QueryAll fetches every page matching req, following pagination cursors.
func QueryAll(ctx context.Context, c Client, dbID string, req *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	var all []notionapi.Page
	var cursor notionapi.Cursor
	for {
		page := &notionapi.DatabaseQueryRequest{StartCursor: cursor}
		if req != nil {
			page.Filter = req.Filter
			page.Sorts = req.Sorts
			page.PageSize = req.PageSize
		}
		resp, err := c.QueryDatabase(ctx, dbID, page)
		if err != nil {
			return nil, eris.Wrap(err, "notion: query all")
		}
		all = append(all, resp.Results...)
		if !resp.HasMore || resp.NextCursor == "" {
			return all, nil
		}
		cursor = resp.NextCursor
	}
}

// ExistingLeads maps every Lead ID already in the database to its page id.
// Pages with an empty Lead ID are ignored.
func ExistingLeads(ctx context.Context, c Client, dbID string) (map[string]string, error) {
	pages, err := QueryAll(ctx, c, dbID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: LeadIDProperty,
			RichText: &notionapi.TextFilterCondition{IsNotEmpty: true},
		},
		PageSize: 100,
	})
	if err != nil {
		return nil, eris.Wrap(err, "notion: list existing leads")
	}
	out := make(map[string]string, len(pages))
	for _, p := range pages {
		id := leadID(p)
		if id == "" {
			continue
		}
		if _, dup := out[id]; !dup {
			out[id] = string(p.ID)
		}
	}
	return out, nil
}

func leadID(p notionapi.Page) string {
	switch prop := p.Properties[LeadIDProperty].(type) {
	case *notionapi.RichTextProperty:
		return plainText(prop.RichText)
	case notionapi.RichTextProperty:
		return plainText(prop.RichText)
	}
	return ""
}

func plainText(rts []notionapi.RichText) string {
	var s string
	for _, rt := range rts {
		if rt.PlainText != "" {
			s += rt.PlainText
		} else if rt.Text != nil {
			s += rt.Text.Content
		}
	}
	return s
}
