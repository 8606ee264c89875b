package api

import (
	"net/http"

	"github.com/ayushmankoley/GrowMint/internal/domain"
	"github.com/go-chi/chi/v5"
)

type personaRequest struct {
	Name         string `json:"persona_name"`
	RoleTitle    string `json:"role_title"`
	Organization string `json:"company_or_business"`
	Industry     string `json:"industry"`
	Description  string `json:"description"`
	IsDefault    bool   `json:"is_default"`
}

func (req personaRequest) persona(userID string) *domain.Persona {
	return &domain.Persona{
		UserID:       userID,
		Name:         req.Name,
		RoleTitle:    req.RoleTitle,
		Organization: req.Organization,
		Industry:     req.Industry,
		Description:  req.Description,
		IsDefault:    req.IsDefault,
	}
}

// ListPersonas returns the caller's personas, default first.
func (h *Handler) ListPersonas(w http.ResponseWriter, r *http.Request) {
	personas, err := h.repo.ListPersonas(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, nonNil(personas))
}

// CreatePersona inserts a persona.
func (h *Handler) CreatePersona(w http.ResponseWriter, r *http.Request) {
	var req personaRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	p := req.persona(UserIDFromContext(r.Context()))
	if err := h.repo.CreatePersona(r.Context(), p); err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, p)
}

// UpdatePersona rewrites a persona's descriptive fields.
func (h *Handler) UpdatePersona(w http.ResponseWriter, r *http.Request) {
	var req personaRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	userID := UserIDFromContext(r.Context())
	p := req.persona(userID)
	p.ID = chi.URLParam(r, "id")
	if err := h.repo.UpdatePersona(r.Context(), p); err != nil {
		h.fail(w, r, err)
		return
	}
	updated, err := h.repo.GetPersona(r.Context(), userID, p.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, updated)
}

// DeletePersona removes a persona.
func (h *Handler) DeletePersona(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.DeletePersona(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetDefaultPersona makes a persona the caller's only default.
func (h *Handler) SetDefaultPersona(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")
	if err := h.repo.SetDefaultPersona(r.Context(), userID, id); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.repo.GetPersona(r.Context(), userID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, p)
}
