package catalog

import (
	"strings"

	"golang.org/x/net/html"
)

// PlainText strips markup from a rich-text description and decodes entities.
// Text inside script and style elements is dropped.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken:
			name, _ := z.TagName()
			if isRawText(name) {
				skip++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if isRawText(name) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isRawText(tag []byte) bool {
	t := string(tag)
	return t == "script" || t == "style"
}

// Match returns the first item whose plain-text name or description equals the
// trimmed plain-text description. It reports false for an empty description.
func Match(description string, items []Item) (Item, bool) {
	plain := strings.TrimSpace(PlainText(description))
	if plain == "" {
		return Item{}, false
	}
	for _, item := range items {
		if strings.TrimSpace(PlainText(item.Name)) == plain {
			return item, true
		}
		if desc := strings.TrimSpace(PlainText(item.Description)); desc != "" && desc == plain {
			return item, true
		}
	}
	return Item{}, false
}

// DisplayName is the label shown for a line item: the matched item's name,
// else the first three words of the description, else "Line Item".
func DisplayName(description string, matched *Item) string {
	if matched != nil && matched.Name != "" {
		return matched.Name
	}
	words := strings.Fields(PlainText(description))
	if len(words) > 3 {
		words = words[:3]
	}
	if len(words) == 0 {
		return "Line Item"
	}
	return strings.Join(words, " ")
}

// LineDraft is the line item produced when adding a catalog entry to a document.
type LineDraft struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
}

// DraftFromItem uses the item's description, falling back to its name, with quantity 1.
func DraftFromItem(item Item) LineDraft {
	desc := item.Description
	if strings.TrimSpace(PlainText(desc)) == "" {
		desc = item.Name
	}
	return LineDraft{Description: desc, Quantity: 1, Price: item.Price}
}
