// Package grounding renders a project's context items into the single
// labeled document that generation is restricted to.
package grounding

import (
	"fmt"
	"strings"

	"github.com/ayushmankoley/GrowMint/internal/domain"
	"github.com/ayushmankoley/GrowMint/internal/utils"
)

// Header opens every non-empty grounding document.
const Header = "Detailed Project Context:"

// Document is the rendered grounding for one project.
type Document struct {
	Text   string `json:"text"`
	Items  int    `json:"items"`
	Tokens int    `json:"tokens"`
}

// Empty reports that no grounding is available.
func (d Document) Empty() bool { return d.Items == 0 }

// Build renders items in the given order. Every item is emitted in full; an
// empty slice yields an empty document.
func Build(items []domain.ContextItem) Document {
	if len(items) == 0 {
		return Document{}
	}
	var b strings.Builder
	b.WriteString(Header)
	b.WriteString("\n")
	for i, item := range items {
		b.WriteString("\n")
		writeItem(&b, i+1, item)
	}
	text := b.String()
	return Document{Text: text, Items: len(items), Tokens: utils.CountTokens(text)}
}

// BlockHeader is the label line of the n-th (1-based) item.
func BlockHeader(n int, kind domain.ContentKind) string {
	return fmt.Sprintf("--- Context Item %d (%s) ---", n, strings.ToUpper(string(kind)))
}

func writeItem(b *strings.Builder, n int, item domain.ContextItem) {
	b.WriteString(BlockHeader(n, item.Kind))
	b.WriteString("\n")
	switch item.Kind {
	case domain.KindURL:
		fmt.Fprintf(b, "Website: %s\n", item.Content)
		page, _ := item.Metadata.Scraped()
		if page == nil {
			page = &domain.ScrapedPage{}
		}
		fmt.Fprintf(b, "Title: %s\n", orNA(page.Title))
		fmt.Fprintf(b, "Summary: %s\n", orNA(page.Summary))
		if len(page.KeyPoints) > 0 {
			fmt.Fprintf(b, "Key Points: %s\n", strings.Join(page.KeyPoints, ", "))
		}
		if page.BusinessInfo != "" {
			fmt.Fprintf(b, "Business Info: %s\n", page.BusinessInfo)
		}
	case domain.KindDocument, domain.KindImage:
		fmt.Fprintf(b, "File: %s\n", FileName(item.Metadata))
	default:
		fmt.Fprintf(b, "Content: %s\n", item.Content)
	}
}

// FileName prefers the uploader's original name over the generated one.
func FileName(m domain.Metadata) string {
	if v := m.String(domain.MetaOriginalName); v != "" {
		return v
	}
	if v := m.String(domain.MetaName); v != "" {
		return v
	}
	return "Unknown file"
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// BudgetWarning is reported when a document exceeds the configured budget.
// The document is never truncated.
type BudgetWarning struct {
	Tokens int
	Budget int
	Items  int
}

func (w BudgetWarning) String() string {
	return fmt.Sprintf("project context is about %d tokens across %d items, above the %d-token budget; all of it is still sent",
		w.Tokens, w.Items, w.Budget)
}

// CheckBudget returns a warning when budget > 0 and the document exceeds it.
func CheckBudget(d Document, budget int) (BudgetWarning, bool) {
	if budget <= 0 || d.Tokens <= budget {
		return BudgetWarning{}, false
	}
	return BudgetWarning{Tokens: d.Tokens, Budget: budget, Items: d.Items}, true
}
