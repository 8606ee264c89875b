package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ayushmankoley/GrowMint/internal/domain"
	"github.com/ayushmankoley/GrowMint/internal/prompt"
	"github.com/ayushmankoley/GrowMint/internal/store"
	"github.com/ayushmankoley/GrowMint/internal/tools"
	"github.com/go-chi/chi/v5"
)

type toolInfo struct {
	Kind        prompt.ToolKind `json:"kind"`
	Surface     prompt.Surface  `json:"surface"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Fields      []prompt.Field  `json:"fields,omitempty"`
}

// ListTools returns every tool kind, optionally filtered by ?surface=.
func (h *Handler) ListTools(w http.ResponseWriter, r *http.Request) {
	specs := prompt.Tools(prompt.Surface(r.URL.Query().Get("surface")))
	out := make([]toolInfo, 0, len(specs))
	for _, s := range specs {
		out = append(out, toolInfo{Kind: s.Kind, Surface: s.Surface, Name: s.Name, Description: s.Description, Fields: s.Fields})
	}
	JSON(w, http.StatusOK, out)
}

type generateRequest struct {
	ProjectID string            `json:"project_id"`
	PersonaID string            `json:"persona_id"`
	Fields    map[string]string `json:"fields"`
	Hint      string            `json:"hint"`
	DryRun    bool              `json:"dry_run"`
}

type generateResponse struct {
	*tools.Result
	Prompt string `json:"prompt,omitempty"`
}

// surface returns the user's session for one tool family. Results stay
// cached on it and concurrent runs on it are rejected.
func (h *Handler) surface(userID string, family prompt.Surface) *tools.Surface {
	key := userID + "\x00" + string(family)
	if s, ok := h.surfaces.Load(key); ok {
		return s.(*tools.Surface)
	}
	s, _ := h.surfaces.LoadOrStore(key, tools.NewSurface(family, userID, h.repo, h.assembler, h.gen, tools.Options{
		Persist:         h.opts.PersistArtifacts,
		GroundingBudget: h.opts.GroundingBudget,
		Logger:          h.logger,
	}))
	return s.(*tools.Surface)
}

// toolSpec resolves the {kind} parameter to a sales or marketing tool.
func toolSpec(r *http.Request) (prompt.ToolSpec, error) {
	kind := prompt.ToolKind(chi.URLParam(r, "kind"))
	spec, ok := prompt.Lookup(kind)
	if !ok || (spec.Surface != prompt.SurfaceSales && spec.Surface != prompt.SurfaceMarketing) {
		return prompt.ToolSpec{}, domain.Invalid("tool", "%q is not a sales or marketing tool", kind)
	}
	return spec, nil
}

// GenerateTool runs one sales or marketing tool.
func (h *Handler) GenerateTool(w http.ResponseWriter, r *http.Request) {
	spec, err := toolSpec(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req generateRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	surf := h.surface(UserIDFromContext(r.Context()), spec.Surface)
	res, err := surf.Submit(r.Context(), tools.Selection{
		Tool:      spec.Kind,
		ProjectID: req.ProjectID,
		PersonaID: req.PersonaID,
		Fields:    req.Fields,
		Hint:      req.Hint,
	}, req.DryRun)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := generateResponse{Result: res}
	if req.DryRun {
		out.Prompt = res.Prompt
	}
	JSON(w, http.StatusOK, out)
}

type regenerateRequest struct {
	Instruction string `json:"instruction"`
}

// RegenerateTool reruns the last generated tool with an extra instruction,
// leaving the stored hint untouched.
func (h *Handler) RegenerateTool(w http.ResponseWriter, r *http.Request) {
	spec, err := toolSpec(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req regenerateRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.Instruction) == "" {
		h.fail(w, r, domain.Invalid("instruction", "is required"))
		return
	}
	surf := h.surface(UserIDFromContext(r.Context()), spec.Surface)
	if surf.Selection().Tool != spec.Kind {
		h.fail(w, r, domain.Invalid("tool", "generate %s before regenerating it", spec.Kind))
		return
	}
	res, err := surf.RegenerateWith(r.Context(), req.Instruction)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, res)
}

// ToolResult returns the last result of a tool in the caller's session.
func (h *Handler) ToolResult(w http.ResponseWriter, r *http.Request) {
	spec, err := toolSpec(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, ok := h.surface(UserIDFromContext(r.Context()), spec.Surface).Cached(spec.Kind)
	if !ok {
		h.fail(w, r, fmt.Errorf("no %s result in this session: %w", spec.Kind, store.ErrNotFound))
		return
	}
	JSON(w, http.StatusOK, res)
}
