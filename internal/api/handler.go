// Package api provides the HTTP JSON surface of GrowMint.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/ayushmankoley/GrowMint/internal/conversation"
	"github.com/ayushmankoley/GrowMint/internal/domain"
	"github.com/ayushmankoley/GrowMint/internal/generation"
	"github.com/ayushmankoley/GrowMint/internal/intake"
	"github.com/ayushmankoley/GrowMint/internal/prompt"
	"github.com/ayushmankoley/GrowMint/internal/store"
	"github.com/ayushmankoley/GrowMint/internal/tools"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// maxBody bounds request bodies.
const maxBody = 1 << 20

// Options configures the handler.
type Options struct {
	GroundingBudget  int
	PersistArtifacts bool
	Logger           *slog.Logger
}

// Handler serves the API.
type Handler struct {
	repo      store.Repository
	assembler *prompt.Assembler
	gen       generation.Generator
	uploads   *intake.Uploads
	opts      Options
	logger    *slog.Logger

	// managers holds the conversation managers with a request in flight, so
	// concurrent sends to the same thread are rejected.
	mgrMu    sync.Mutex
	managers map[string]*pooledManager
	// surfaces holds one tool surface per user and family.
	surfaces sync.Map
}

// NewHandler creates a Handler. uploads may be nil.
func NewHandler(repo store.Repository, assembler *prompt.Assembler, gen generation.Generator, uploads *intake.Uploads, opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		repo:      repo,
		assembler: assembler,
		gen:       gen,
		uploads:   uploads,
		opts:      opts,
		logger:    logger.With("component", "api"),
		managers:  map[string]*pooledManager{},
	}
}

// Router builds the chi router with middleware and every route.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(RequestLogger(h.logger))
	r.Use(chiMiddleware.Recoverer)

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(Identity)

		r.Get("/projects", h.ListProjects)
		r.Post("/projects", h.CreateProject)
		r.Route("/projects/{id}", func(r chi.Router) {
			r.Get("/", h.GetProject)
			r.Patch("/", h.UpdateProject)
			r.Delete("/", h.DeleteProject)
			r.Post("/summary", h.SummarizeProject)
			r.Get("/context", h.ListContext)
			r.Post("/context", h.AddContext)
			r.Get("/artifacts", h.ListArtifacts)
		})
		r.Delete("/context/{id}", h.DeleteContext)

		r.Get("/personas", h.ListPersonas)
		r.Post("/personas", h.CreatePersona)
		r.Patch("/personas/{id}", h.UpdatePersona)
		r.Delete("/personas/{id}", h.DeletePersona)
		r.Post("/personas/{id}/default", h.SetDefaultPersona)

		r.Get("/conversations", h.ListConversations)
		r.Post("/conversations", h.CreateConversation)
		r.Patch("/conversations/{id}", h.RenameConversation)
		r.Delete("/conversations/{id}", h.DeleteConversation)
		r.Get("/conversations/{id}/messages", h.ListMessages)
		r.Post("/conversations/{id}/messages", h.SendMessage)

		r.Get("/tools", h.ListTools)
		r.Post("/tools/{kind}/generate", h.GenerateTool)
		r.Post("/tools/{kind}/regenerate", h.RegenerateTool)
		r.Get("/tools/{kind}/result", h.ToolResult)
	})
	return r
}

// Health reports database connectivity.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Ping(r.Context()); err != nil {
		Error(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// Status maps a domain error to an HTTP status.
func Status(err error) int {
	var fe *generation.FallbackError
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, conversation.ErrBusy), errors.Is(err, tools.ErrBusy):
		return http.StatusConflict
	case errors.As(err, &fe), errors.Is(err, generation.ErrNoFallback):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := Status(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "status", status, "err", err, "request_id", chiMiddleware.GetReqID(r.Context()))
	}
	Error(w, status, err.Error())
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.Invalid("body", "%v", err)
	}
	return nil
}
