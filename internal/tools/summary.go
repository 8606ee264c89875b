package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ayushmankoley/GrowMint/internal/domain"
	"github.com/ayushmankoley/GrowMint/internal/generation"
	"github.com/ayushmankoley/GrowMint/internal/grounding"
	"github.com/ayushmankoley/GrowMint/internal/prompt"
	"github.com/ayushmankoley/GrowMint/internal/store"
	"github.com/ayushmankoley/GrowMint/internal/utils"
)

// Summary is the outcome of Summarize.
type Summary struct {
	Project *domain.Project `json:"project"`
	Text    string          `json:"summary"`
	// Fallback is set when generation failed and a summary was composed
	// from the stored project fields instead.
	Fallback bool  `json:"fallback"`
	Err      error `json:"-"`
}

// Summarizer writes Project.ContextSummary using the context-summary tool.
type Summarizer struct {
	userID    string
	repo      store.Repository
	assembler *prompt.Assembler
	gen       generation.Generator
	logger    *slog.Logger
}

// NewSummarizer builds a Summarizer for userID.
func NewSummarizer(userID string, repo store.Repository, assembler *prompt.Assembler, gen generation.Generator, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{
		userID:    userID,
		repo:      repo,
		assembler: assembler,
		gen:       gen,
		logger:    logger.With("component", "tools", "tool", string(prompt.KindContextSummary)),
	}
}

// Summarize regenerates and stores the summary of projectID. When the model
// cannot be reached a plain summary of the stored fields is saved and
// Summary.Fallback is set; cancellation is returned as an error.
func (s *Summarizer) Summarize(ctx context.Context, projectID string) (*Summary, error) {
	project, err := s.repo.GetProject(ctx, s.userID, projectID)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", projectID, err)
	}
	items, err := s.repo.ListContextItems(ctx, s.userID, project.ID)
	if err != nil {
		return nil, fmt.Errorf("load project context: %w", err)
	}
	doc := grounding.Build(items)

	text, err := s.assembler.Build(prompt.Request{
		Kind:      prompt.KindContextSummary,
		Project:   project,
		ProjectID: project.ID,
		Grounding: doc,
	})
	if err != nil {
		return nil, err
	}

	out := &Summary{}
	summary, err := s.gen.Generate(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		s.logger.Warn("summary generation failed, storing fallback", "project_id", project.ID, "err", err)
		summary = FallbackSummary(project, items)
		out.Fallback, out.Err = true, err
	}
	summary = strings.TrimSpace(summary)

	updated, err := s.repo.UpdateProject(ctx, s.userID, project.ID, domain.ProjectPatch{ContextSummary: &summary})
	if err != nil {
		return nil, fmt.Errorf("save summary: %w", err)
	}
	out.Project, out.Text = updated, summary
	s.logger.Info("project summarized", "project_id", project.ID, "fallback", out.Fallback)
	return out, nil
}

// FallbackSummary describes a project from its stored fields and any
// analyzed websites.
func FallbackSummary(p *domain.Project, items []domain.ContextItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s. Description: %s. Lead Source: %s. Context files: %d items.",
		p.Name, naIfBlank(p.Description), naIfBlank(p.LeadSource), len(items))

	var sites []string
	for _, it := range items {
		if it.Kind != domain.KindURL {
			continue
		}
		sp, ok := it.Metadata.Scraped()
		if !ok {
			continue
		}
		title := sp.Title
		if title == "" {
			title = it.Content
		}
		site := fmt.Sprintf("- %s", title)
		if d := it.Metadata.String(domain.MetaDomain); d != "" {
			site += fmt.Sprintf(" (%s)", d)
		}
		if sp.Summary != "" {
			site += ": " + utils.Excerpt(sp.Summary, 25)
		}
		sites = append(sites, site)
	}
	if len(sites) > 0 {
		b.WriteString("\n\nWebsites analyzed:\n")
		b.WriteString(strings.Join(sites, "\n"))
	}
	return b.String()
}

func naIfBlank(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
