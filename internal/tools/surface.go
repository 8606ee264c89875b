// Package tools drives the one-shot generators (sales and marketing) and the
// project context summary on top of the shared assembler and generator.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ayushmankoley/GrowMint/internal/domain"
	"github.com/ayushmankoley/GrowMint/internal/generation"
	"github.com/ayushmankoley/GrowMint/internal/grounding"
	"github.com/ayushmankoley/GrowMint/internal/prompt"
	"github.com/ayushmankoley/GrowMint/internal/store"
)

// ErrBusy is returned when Generate is triggered while another run of the
// same surface is in flight.
var ErrBusy = errors.New("a generation is already running on this surface")

// Selection is the form state of a surface.
type Selection struct {
	Tool      prompt.ToolKind   `json:"tool" validate:"required"`
	ProjectID string            `json:"project_id" validate:"notblank"`
	PersonaID string            `json:"persona_id,omitempty" validate:"omitempty,notblank"`
	Fields    map[string]string `json:"fields,omitempty" validate:"dive,keys,notblank,endkeys"`
	Hint      string            `json:"hint,omitempty" validate:"max=4000"`
}

// Result is one generated output.
type Result struct {
	Tool     prompt.ToolKind `json:"tool"`
	Content  string          `json:"content"`
	Prompt   string          `json:"-"`
	Warnings []string        `json:"warnings,omitempty"`
	Artifact string          `json:"artifact_id,omitempty"`
}

// Options configures a Surface.
type Options struct {
	// Persist saves each result as a GeneratedArtifact.
	Persist         bool
	GroundingBudget int
	Logger          *slog.Logger
}

// Surface is one tool family (sales or marketing) for one user.
type Surface struct {
	family    prompt.Surface
	userID    string
	repo      store.Repository
	assembler *prompt.Assembler
	gen       generation.Generator
	opts      Options
	logger    *slog.Logger

	running sync.Mutex

	mu    sync.Mutex
	sel   Selection
	cache map[prompt.ToolKind]Result
}

// NewSurface builds a surface for family.
func NewSurface(family prompt.Surface, userID string, repo store.Repository, assembler *prompt.Assembler, gen generation.Generator, opts Options) *Surface {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Surface{
		family:    family,
		userID:    userID,
		repo:      repo,
		assembler: assembler,
		gen:       gen,
		opts:      opts,
		logger:    logger.With("component", "tools", "surface", string(family)),
		cache:     map[prompt.ToolKind]Result{},
	}
}

// SelectTool switches the active tool. Fields belong to a tool and are reset.
func (s *Surface) SelectTool(kind prompt.ToolKind) error {
	spec, ok := prompt.Lookup(kind)
	if !ok || spec.Surface != s.family {
		return domain.Invalid("tool", "%q is not a %s tool", kind, s.family)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sel.Tool != kind {
		s.sel.Fields = nil
	}
	s.sel.Tool = kind
	return nil
}

// SelectProject sets the project.
func (s *Surface) SelectProject(id string) {
	s.mu.Lock()
	s.sel.ProjectID = strings.TrimSpace(id)
	s.mu.Unlock()
}

// SelectPersona sets or clears ("") the persona.
func (s *Surface) SelectPersona(id string) {
	s.mu.Lock()
	s.sel.PersonaID = strings.TrimSpace(id)
	s.mu.Unlock()
}

// SetField sets a tool input.
func (s *Surface) SetField(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sel.Fields == nil {
		s.sel.Fields = map[string]string{}
	}
	s.sel.Fields[key] = value
}

// SetHint sets the free-text hint.
func (s *Surface) SetHint(h string) {
	s.mu.Lock()
	s.sel.Hint = h
	s.mu.Unlock()
}

// Selection returns a copy of the current form state.
func (s *Surface) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// snapshot copies sel; callers hold mu.
func (s *Surface) snapshot() Selection {
	out := s.sel
	out.Fields = copyFields(s.sel.Fields)
	return out
}

func copyFields(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Cached returns the last result generated for kind in this session.
func (s *Surface) Cached(kind prompt.ToolKind) (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.cache[kind]
	return r, ok
}

// Generate runs the selected tool. Validation failures return before any
// store read or network call.
func (s *Surface) Generate(ctx context.Context) (*Result, error) {
	return s.run(ctx, nil, false)
}

// Preview builds the prompt for the current selection without generating.
func (s *Surface) Preview(ctx context.Context) (*Result, error) {
	return s.run(ctx, nil, true)
}

// Submit replaces the whole form state with sel and runs it as one step.
// Fields are reset the same way SelectTool resets them.
func (s *Surface) Submit(ctx context.Context, sel Selection, dryRun bool) (*Result, error) {
	return s.run(ctx, func() error {
		if err := s.SelectTool(sel.Tool); err != nil {
			return err
		}
		s.mu.Lock()
		s.sel = Selection{
			Tool:      sel.Tool,
			ProjectID: strings.TrimSpace(sel.ProjectID),
			PersonaID: strings.TrimSpace(sel.PersonaID),
			Fields:    copyFields(sel.Fields),
			Hint:      sel.Hint,
		}
		s.mu.Unlock()
		return nil
	}, dryRun)
}

// RegenerateWith runs the selected tool with extra as the hint. The stored
// hint is left as it was whatever the outcome.
func (s *Surface) RegenerateWith(ctx context.Context, extra string) (*Result, error) {
	if !s.running.TryLock() {
		return nil, ErrBusy
	}
	defer s.running.Unlock()

	sel := s.Selection()
	sel.Hint = extra
	return s.exec(ctx, sel, false)
}

// run holds the busy guard while prepare edits the form and the snapshot runs.
func (s *Surface) run(ctx context.Context, prepare func() error, dryRun bool) (*Result, error) {
	if !s.running.TryLock() {
		return nil, ErrBusy
	}
	defer s.running.Unlock()

	if prepare != nil {
		if err := prepare(); err != nil {
			return nil, err
		}
	}
	return s.exec(ctx, s.Selection(), dryRun)
}

func (s *Surface) exec(ctx context.Context, sel Selection, dryRun bool) (*Result, error) {
	if err := domain.Validate(sel); err != nil {
		return nil, err
	}
	spec, ok := prompt.Lookup(sel.Tool)
	if !ok || spec.Surface != s.family {
		return nil, domain.Invalid("tool", "%q is not a %s tool", sel.Tool, s.family)
	}
	// Field rules are checked before touching the store.
	if _, err := s.assembler.Validate(prompt.Request{Kind: sel.Tool, Project: &domain.Project{}, Fields: sel.Fields}); err != nil {
		return nil, err
	}

	project, err := s.repo.GetProject(ctx, s.userID, sel.ProjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("project %s: %w", sel.ProjectID, err)
		}
		return nil, fmt.Errorf("load project: %w", err)
	}
	items, err := s.repo.ListContextItems(ctx, s.userID, project.ID)
	if err != nil {
		return nil, fmt.Errorf("load project context: %w", err)
	}
	var persona *domain.Persona
	if sel.PersonaID != "" {
		if persona, err = s.repo.GetPersona(ctx, s.userID, sel.PersonaID); err != nil {
			return nil, fmt.Errorf("persona %s: %w", sel.PersonaID, err)
		}
	}

	doc := grounding.Build(items)
	res := &Result{Tool: sel.Tool}
	if w, over := grounding.CheckBudget(doc, s.opts.GroundingBudget); over {
		res.Warnings = append(res.Warnings, w.String())
		s.logger.Warn("grounding over budget", "tokens", w.Tokens, "budget", w.Budget)
	}
	if doc.Empty() {
		res.Warnings = append(res.Warnings, "this project has no context items; output will say the context is insufficient")
	}

	res.Prompt, err = s.assembler.Build(prompt.Request{
		Kind:      sel.Tool,
		Project:   project,
		ProjectID: project.ID,
		Persona:   persona,
		Grounding: doc,
		Hint:      sel.Hint,
		Fields:    sel.Fields,
	})
	if err != nil {
		return nil, err
	}
	if dryRun {
		return res, nil
	}

	res.Content, err = s.gen.Generate(ctx, res.Prompt)
	if err != nil {
		s.logger.Error("generation failed", "tool", sel.Tool, "project_id", project.ID, "err", err)
		return nil, fmt.Errorf("generate %s: %w", spec.Name, err)
	}

	if s.opts.Persist {
		art := &domain.GeneratedArtifact{
			ProjectID: project.ID,
			ToolKind:  string(sel.Tool),
			Content:   res.Content,
			Metadata:  artifactMetadata(sel),
		}
		if err := s.repo.SaveArtifact(ctx, s.userID, art); err != nil {
			res.Warnings = append(res.Warnings, "result was not saved: "+err.Error())
			s.logger.Warn("save artifact failed", "err", err)
		} else {
			res.Artifact = art.ID
		}
	}

	s.mu.Lock()
	s.cache[sel.Tool] = *res
	s.mu.Unlock()
	s.logger.Info("generated", "tool", sel.Tool, "project_id", project.ID, "chars", len(res.Content))
	return res, nil
}

func artifactMetadata(sel Selection) domain.Metadata {
	md := domain.Metadata{}
	if sel.PersonaID != "" {
		md["persona_id"] = sel.PersonaID
	}
	if sel.Hint != "" {
		md["hint"] = sel.Hint
	}
	for k, v := range sel.Fields {
		md[k] = v
	}
	return md
}
