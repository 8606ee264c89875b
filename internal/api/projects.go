package api

import (
	"net/http"
	"strings"

	"github.com/ayushmankoley/GrowMint/internal/domain"
	"github.com/ayushmankoley/GrowMint/internal/tools"
	"github.com/go-chi/chi/v5"
)

type projectRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	LeadSource  string          `json:"lead_source"`
	Priority    domain.Priority `json:"priority"`
	Status      domain.Status   `json:"status"`
	Progress    int             `json:"progress"`
}

// ListProjects returns the caller's projects.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.repo.ListProjects(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, nonNil(projects))
}

// CreateProject inserts a project.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	p := &domain.Project{
		UserID:      UserIDFromContext(r.Context()),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		LeadSource:  req.LeadSource,
		Priority:    req.Priority,
		Status:      req.Status,
		Progress:    req.Progress,
	}
	if err := h.repo.CreateProject(r.Context(), p); err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, p)
}

// GetProject returns one project.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.repo.GetProject(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, p)
}

// UpdateProject applies a partial update.
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var patch domain.ProjectPatch
	if err := decode(w, r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.repo.UpdateProject(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, p)
}

// DeleteProject removes a project and everything attached to it.
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.DeleteProject(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SummarizeProject regenerates the project's AI summary.
func (h *Handler) SummarizeProject(w http.ResponseWriter, r *http.Request) {
	s := tools.NewSummarizer(UserIDFromContext(r.Context()), h.repo, h.assembler, h.gen, h.logger)
	sum, err := s.Summarize(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, sum)
}

// ListArtifacts returns the saved tool outputs of a project.
func (h *Handler) ListArtifacts(w http.ResponseWriter, r *http.Request) {
	arts, err := h.repo.ListArtifacts(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, nonNil(arts))
}

type contextRequest struct {
	Kind     domain.ContentKind `json:"content_type"`
	Content  string             `json:"content"`
	Metadata domain.Metadata    `json:"metadata"`
}

// ListContext returns a project's context items, oldest first.
func (h *Handler) ListContext(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	projectID := chi.URLParam(r, "id")
	// A foreign or missing project is a 404, not an empty list.
	if _, err := h.repo.GetProject(r.Context(), userID, projectID); err != nil {
		h.fail(w, r, err)
		return
	}
	items, err := h.repo.ListContextItems(r.Context(), userID, projectID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, nonNil(items))
}

// AddContext attaches a text, url, document or image item.
func (h *Handler) AddContext(w http.ResponseWriter, r *http.Request) {
	var req contextRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	item := &domain.ContextItem{
		ProjectID: chi.URLParam(r, "id"),
		Kind:      req.Kind,
		Content:   req.Content,
		Metadata:  req.Metadata,
	}
	if err := h.repo.AddContextItem(r.Context(), UserIDFromContext(r.Context()), item); err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, item)
}

// DeleteContext removes an item and any stored upload behind it.
func (h *Handler) DeleteContext(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")
	item, err := h.repo.GetContextItem(r.Context(), userID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.repo.DeleteContextItem(r.Context(), userID, id); err != nil {
		h.fail(w, r, err)
		return
	}
	if h.uploads != nil {
		if err := h.uploads.Remove(item.Content); err != nil {
			h.logger.Warn("remove stored file failed", "item_id", id, "err", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
