package notion

import (
	"time"

	"github.com/jomei/notionapi"

	"github.com/custodia-labs/corra/internal/core/domain"
)

// pageDocument converts a page to a document. Summaries pass an empty
// content; Fetch passes the flattened block text.
func pageDocument(page *notionapi.Page, content string) domain.Document {
	meta := map[string]string{
		"page_id": page.ID.String(),
	}
	if !page.CreatedTime.IsZero() {
		meta["created_time"] = page.CreatedTime.Format(time.RFC3339)
	}
	if !page.LastEditedTime.IsZero() {
		meta["last_edited_time"] = page.LastEditedTime.Format(time.RFC3339)
	}

	return domain.Document{
		ID:       "notion:" + page.ID.String(),
		Source:   domain.SourceNotion,
		Title:    pageTitle(page),
		Content:  content,
		Metadata: meta,
		Origin:   page.URL,
	}
}

// pageTitle extracts the title property. Notion guarantees at most one
// title property per page; pages without one render as "Untitled".
func pageTitle(page *notionapi.Page) string {
	for _, prop := range page.Properties {
		title, ok := prop.(*notionapi.TitleProperty)
		if !ok {
			continue
		}
		if text := richTextString(title.Title); text != "" {
			return text
		}
	}
	return "Untitled"
}
