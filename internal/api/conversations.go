package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ayushmankoley/GrowMint/internal/conversation"
	"github.com/ayushmankoley/GrowMint/internal/domain"
	"github.com/go-chi/chi/v5"
)

type pooledManager struct {
	m    *conversation.Manager
	refs int
}

// acquire returns the conversation manager of one user's thread. Requests
// on the same thread share it while any of them is in flight; release drops
// it once the last one finishes.
func (h *Handler) acquire(userID, conversationID string) (*conversation.Manager, func()) {
	key := userID + "\x00" + conversationID
	h.mgrMu.Lock()
	pm, ok := h.managers[key]
	if !ok {
		pm = &pooledManager{m: h.newManager(userID)}
		h.managers[key] = pm
	}
	pm.refs++
	h.mgrMu.Unlock()

	return pm.m, func() {
		h.mgrMu.Lock()
		defer h.mgrMu.Unlock()
		if pm.refs--; pm.refs == 0 && h.managers[key] == pm {
			delete(h.managers, key)
		}
	}
}

func (h *Handler) newManager(userID string) *conversation.Manager {
	return conversation.NewManager(userID, h.repo, h.assembler, h.gen, conversation.Options{
		GroundingBudget: h.opts.GroundingBudget,
		Logger:          h.logger,
	})
}

// ListConversations returns the caller's conversations, most recently updated first.
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.repo.ListConversations(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, nonNil(convs))
}

// CreateConversation starts an empty thread on a project.
func (h *Handler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	var in conversation.CreateInput
	if err := decode(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.newManager(UserIDFromContext(r.Context())).Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, c)
}

type renameRequest struct {
	Title string `json:"title"`
}

// RenameConversation updates a conversation's title.
func (h *Handler) RenameConversation(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	userID := UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")
	m, release := h.acquire(userID, id)
	err := m.Rename(r.Context(), id, req.Title)
	release()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.repo.GetConversation(r.Context(), userID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, c)
}

// DeleteConversation removes a conversation and its messages.
func (h *Handler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")
	m, release := h.acquire(userID, id)
	err := m.Delete(r.Context(), id)
	release()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMessages returns a conversation's history in order.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")
	if _, err := h.repo.GetConversation(r.Context(), userID, id); err != nil {
		h.fail(w, r, err)
		return
	}
	msgs, err := h.repo.ListMessages(r.Context(), userID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, nonNil(msgs))
}

type sendRequest struct {
	Content string `json:"content"`
}

// SendMessage posts a user turn and returns the assistant reply. A failed
// reply is a 502 whose body still carries the persisted history.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		h.fail(w, r, domain.Invalid("content", "is required"))
		return
	}
	userID := UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")
	m, release := h.acquire(userID, id)
	defer release()

	if err := m.Select(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := m.Send(r.Context(), req.Content)
	var re *conversation.ReplyError
	if errors.As(err, &re) {
		h.logger.Warn("assistant reply failed", "conversation_id", id, "err", re.Err)
		JSON(w, http.StatusBadGateway, map[string]any{
			"error":    err.Error(),
			"messages": nonNil(res.Messages),
			"warnings": res.Warnings,
		})
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, res)
}
