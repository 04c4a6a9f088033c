package notion

import (
	"strings"

	"github.com/jomei/notionapi"
)

// pageText flattens blocks to plain text, one line per block.
// Blocks without extractable text contribute empty lines, which keeps
// paragraph spacing; leading and trailing whitespace is trimmed.
func pageText(blocks []notionapi.Block) string {
	lines := make([]string, 0, len(blocks))
	for _, block := range blocks {
		lines = append(lines, blockText(block))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// blockText extracts the plain text of a single block. Non-text blocks
// (images, tables, embeds) yield an empty string.
func blockText(block notionapi.Block) string {
	switch b := block.(type) {
	case *notionapi.ParagraphBlock:
		return richTextString(b.Paragraph.RichText)
	case *notionapi.Heading1Block:
		return richTextString(b.Heading1.RichText)
	case *notionapi.Heading2Block:
		return richTextString(b.Heading2.RichText)
	case *notionapi.Heading3Block:
		return richTextString(b.Heading3.RichText)
	case *notionapi.BulletedListItemBlock:
		return richTextString(b.BulletedListItem.RichText)
	case *notionapi.NumberedListItemBlock:
		return richTextString(b.NumberedListItem.RichText)
	case *notionapi.ToDoBlock:
		return richTextString(b.ToDo.RichText)
	case *notionapi.ToggleBlock:
		return richTextString(b.Toggle.RichText)
	case *notionapi.QuoteBlock:
		return richTextString(b.Quote.RichText)
	case *notionapi.CalloutBlock:
		return richTextString(b.Callout.RichText)
	case *notionapi.CodeBlock:
		return richTextString(b.Code.RichText)
	default:
		return ""
	}
}

// richTextString concatenates the plain text of all spans.
func richTextString(spans []notionapi.RichText) string {
	var sb strings.Builder
	for _, span := range spans {
		sb.WriteString(span.PlainText)
	}
	return sb.String()
}
