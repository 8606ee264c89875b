package grounding

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ayushmankoley/GrowMint/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_Empty(t *testing.T) {
	doc := Build(nil)
	assert.True(t, doc.Empty())
	assert.Empty(t, doc.Text)
	assert.Zero(t, doc.Tokens)
}

func TestBuild_BlockPerItem(t *testing.T) {
	for n := 1; n <= 12; n++ {
		items := make([]domain.ContextItem, n)
		for i := range items {
			items[i] = domain.ContextItem{Kind: domain.KindText, Content: fmt.Sprintf("fact %d", i)}
		}
		doc := Build(items)
		assert.Equal(t, n, doc.Items)
		assert.Equal(t, n, strings.Count(doc.Text, "--- Context Item "), "n=%d", n)
		for i := range items {
			assert.Contains(t, doc.Text, fmt.Sprintf("Content: fact %d\n", i))
		}
	}
}

func TestBuild_KindShapes(t *testing.T) {
	items := []domain.ContextItem{
		{Kind: domain.KindText, Content: "Acme sells B2B widgets"},
		{Kind: domain.KindURL, Content: "https://acme.test", Metadata: domain.Metadata{
			domain.MetaScrapedData: map[string]any{
				"title": "Acme Inc", "summary": "Widget maker",
				"keyPoints": []any{"Founded 1999", "200 staff"}, "businessInfo": "Series B",
			},
		}},
		{Kind: domain.KindURL, Content: "https://bare.test"},
		{Kind: domain.KindDocument, Content: "file:///u/abc.pdf", Metadata: domain.Metadata{
			domain.MetaName: "abc.pdf", domain.MetaOriginalName: "Pricing 2025.pdf",
		}},
		{Kind: domain.KindImage, Content: "file:///u/def.png", Metadata: domain.Metadata{domain.MetaName: "def.png"}},
		{Kind: domain.KindDocument, Content: "file:///u/x"},
	}
	doc := Build(items)
	require.Equal(t, 6, doc.Items)

	want := []string{
		Header,
		"--- Context Item 1 (TEXT) ---\nContent: Acme sells B2B widgets\n",
		"--- Context Item 2 (URL) ---\nWebsite: https://acme.test\nTitle: Acme Inc\nSummary: Widget maker\nKey Points: Founded 1999, 200 staff\nBusiness Info: Series B\n",
		"--- Context Item 3 (URL) ---\nWebsite: https://bare.test\nTitle: N/A\nSummary: N/A\n",
		"--- Context Item 4 (DOCUMENT) ---\nFile: Pricing 2025.pdf\n",
		"--- Context Item 5 (IMAGE) ---\nFile: def.png\n",
		"--- Context Item 6 (DOCUMENT) ---\nFile: Unknown file\n",
	}
	last := -1
	for _, w := range want {
		idx := strings.Index(doc.Text, w)
		require.GreaterOrEqual(t, idx, 0, "missing %q", w)
		assert.Greater(t, idx, last, "out of order: %q", w)
		last = idx
	}
	assert.NotContains(t, doc.Text, "Key Points: \n")
}

func TestBuild_NoTruncation(t *testing.T) {
	big := strings.Repeat("word ", 50_000)
	doc := Build([]domain.ContextItem{{Kind: domain.KindText, Content: big}})
	assert.Contains(t, doc.Text, big)

	w, over := CheckBudget(doc, 1000)
	require.True(t, over)
	assert.Equal(t, doc.Tokens, w.Tokens)
	assert.Contains(t, w.String(), "1000-token budget")

	_, over = CheckBudget(doc, 0)
	assert.False(t, over)
}
