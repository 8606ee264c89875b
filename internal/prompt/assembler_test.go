package prompt

import (
	"strings"
	"testing"

	"github.com/ayushmankoley/GrowMint/internal/domain"
	"github.com/ayushmankoley/GrowMint/internal/grounding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func acme() *domain.Project {
	return &domain.Project{ID: "p1", Name: "Acme Expansion", Description: "Land Acme", Priority: domain.PriorityHigh, Status: domain.StatusActive}
}

func requiredFields(spec ToolSpec) map[string]string {
	out := map[string]string{}
	for _, f := range spec.Fields {
		if f.Required {
			out[f.Key] = "some " + f.Key
		}
	}
	return out
}

func TestBuild_EveryKindHasPreambleAndProjectName(t *testing.T) {
	a := NewAssembler()
	doc := grounding.Build([]domain.ContextItem{{Kind: domain.KindText, Content: "Acme sells B2B widgets"}})
	for _, spec := range Tools("") {
		req := Request{Kind: spec.Kind, Project: acme(), Grounding: doc, Fields: requiredFields(spec)}
		if spec.Surface == SurfaceConversational {
			req.Instruction = "what next?"
		}
		got, err := a.Build(req)
		require.NoError(t, err, spec.Kind)
		assert.True(t, strings.HasPrefix(got, RulePreamble), spec.Kind)
		assert.Contains(t, got, "Acme Expansion", spec.Kind)
		assert.Contains(t, got, spec.Task, spec.Kind)
		assert.NotContains(t, got, DisclosureClause, spec.Kind)
	}
}

func TestBuild_ColdEmailScenario(t *testing.T) {
	doc := grounding.Build([]domain.ContextItem{{Kind: domain.KindText, Content: "Acme sells B2B widgets"}})
	got, err := NewAssembler().Build(Request{Kind: KindColdEmail, Project: acme(), Grounding: doc})
	require.NoError(t, err)

	assert.Contains(t, got, "Acme sells B2B widgets")
	assert.NotContains(t, got, personaLabel)
	assert.NotContains(t, got, hintLabel)
	assert.NotContains(t, got, historyLabel)
	assert.Contains(t, got, toolInstruction+" Generate the Cold Email Generator output")
}

func TestBuild_EmptyGroundingAssistantScenario(t *testing.T) {
	got, err := NewAssembler().Build(Request{
		Kind:        KindAssistant,
		ProjectID:   "p-missing",
		Instruction: "what does this company do?",
	})
	require.NoError(t, err)
	assert.Contains(t, got, DisclosureClause)
	assert.Contains(t, got, `"Unknown Project"`)
	assert.NotContains(t, got, overviewLabel)
	assert.NotContains(t, got, fallbackLabel)
	assert.Contains(t, got, chatInstruction+" what does this company do?")
}

func TestBuild_MissingProjectRecordFraming(t *testing.T) {
	doc := grounding.Build([]domain.ContextItem{{Kind: domain.KindText, Content: "fact"}})
	got, err := NewAssembler().Build(Request{Kind: KindAssistant, ProjectID: "p9", Grounding: doc, Instruction: "hi"})
	require.NoError(t, err)
	assert.Contains(t, got, fallbackLabel+"\n- Project ID: p9")
	assert.Contains(t, got, `"Project"`)
	assert.Contains(t, got, "Content: fact")
}

func TestBuild_SectionOrder(t *testing.T) {
	doc := grounding.Build([]domain.ContextItem{{Kind: domain.KindText, Content: "fact"}})
	got, err := NewAssembler().Build(Request{
		Kind:      KindAssistant,
		Project:   acme(),
		Persona:   &domain.Persona{Name: "Dana", RoleTitle: "AE"},
		Grounding: doc,
		History: []domain.Message{
			{Role: domain.RoleUser, Content: "first question"},
			{Role: domain.RoleAssistant, Content: "first answer"},
		},
		Hint:        "be brief",
		Instruction: "second question",
	})
	require.NoError(t, err)

	order := []string{
		RulePreamble,
		"You are an intelligent business advisor",
		personaLabel,
		overviewLabel,
		grounding.Header,
		historyLabel + "\nUser: first question\nAssistant: first answer",
		hintLabel + "\nbe brief",
		chatInstruction + " second question",
		`Reference the actual project name "Acme Expansion"`,
	}
	last := -1
	for _, marker := range order {
		idx := strings.Index(got, marker)
		require.GreaterOrEqual(t, idx, 0, "missing %q", marker)
		assert.Greater(t, idx, last, "out of order: %q", marker)
		last = idx
	}
}

func TestBuild_HistoryOnlyForAssistant(t *testing.T) {
	got, err := NewAssembler().Build(Request{
		Kind:    KindBattlecards,
		Project: acme(),
		History: []domain.Message{{Role: domain.RoleUser, Content: "leak"}},
	})
	require.NoError(t, err)
	assert.NotContains(t, got, historyLabel)
	assert.NotContains(t, got, "leak")
}

func TestValidate_RequiredFields(t *testing.T) {
	a := NewAssembler()

	_, err := a.Build(Request{Kind: KindContentRepurposer, Project: acme()})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "source_text", ve.Field)

	_, err = a.Build(Request{Kind: KindSEOOptimizer, Project: acme(), Fields: map[string]string{"source_copy": "   "}})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "source_copy", ve.Field)

	got, err := a.Build(Request{Kind: KindSEOOptimizer, Project: acme(), Fields: map[string]string{"source_copy": "Our widgets", "keywords": "b2b widgets"}})
	require.NoError(t, err)
	assert.Contains(t, got, "- Source Copy: Our widgets")
	assert.Contains(t, got, "- Target Keywords: b2b widgets")
}

func TestValidate_Errors(t *testing.T) {
	a := NewAssembler()
	cases := map[string]Request{
		"unknown kind":     {Kind: "haiku", Project: acme()},
		"no project":       {Kind: KindColdEmail},
		"empty chat":       {Kind: KindAssistant, Instruction: "  "},
		"bad option":       {Kind: KindAdCopy, Project: acme(), Fields: map[string]string{"platform": "TikTok"}},
		"undeclared field": {Kind: KindColdEmail, Project: acme(), Fields: map[string]string{"tone": "x"}},
	}
	for name, req := range cases {
		_, err := a.Build(req)
		assert.ErrorIs(t, err, domain.ErrValidation, name)
	}
}

func TestBuild_AdCopyPlatformDefault(t *testing.T) {
	got, err := NewAssembler().Build(Request{Kind: KindAdCopy, Project: acme()})
	require.NoError(t, err)
	assert.Contains(t, got, "- Platform: Google Ads")
	assert.Contains(t, got, "3-5 A/B test ideas")
}

func TestBuild_ContextSummaryOmitsOldSummary(t *testing.T) {
	p := acme()
	p.ContextSummary = "stale summary"
	got, err := NewAssembler().Build(Request{Kind: KindContextSummary, Project: p})
	require.NoError(t, err)
	assert.NotContains(t, got, "stale summary")
	assert.Contains(t, got, DisclosureClause)
}

func TestTools_Surfaces(t *testing.T) {
	assert.Len(t, Tools(SurfaceSales), 6)
	assert.Len(t, Tools(SurfaceMarketing), 10)
	assert.Len(t, Tools(SurfaceConversational), 1)
	assert.Len(t, Tools(""), 18)
}

func TestBuild_ClosingRestatesNameLiterally(t *testing.T) {
	p := acme()
	p.Name = `Acme "Q" Labs \ West`
	for _, kind := range []ToolKind{KindAssistant, KindCampaignBrief} {
		got, err := NewAssembler().Build(Request{Kind: kind, Project: p, Instruction: "go"})
		require.NoError(t, err)
		assert.Contains(t, got, `Reference the actual project name "Acme "Q" Labs \ West" and`)
		assert.NotContains(t, got, `\"Q\"`)
	}
}
