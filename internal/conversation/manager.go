// Package conversation owns the lifecycle of multi-turn threads: creating and
// selecting them, and sending messages through the shared prompt assembler
// and generator.
package conversation

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
	"golang.org/x/sync/errgroup"
)

// State of a Manager.
type State int

const (
	NoConversation State = iota
	Loading
	Ready
	Generating
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Generating:
		return "generating"
	default:
		return "no conversation"
	}
}

// ErrBusy is returned when an operation is triggered while another load or
// send is in flight. It is a rejection, not a queue.
var ErrBusy = errors.New("conversation is busy; wait for the current operation to finish")

// ErrNoSelection is returned by Send when no conversation is selected.
var ErrNoSelection = errors.New("no conversation selected")

// ReplyError reports a failed assistant reply. The user message was persisted
// and stays in history.
type ReplyError struct {
	UserMessage domain.Message
	Err         error
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("assistant reply failed (your message was saved): %v", e.Err)
}

func (e *ReplyError) Unwrap() error { return e.Err }

// CreateInput is the form for a new conversation.
type CreateInput struct {
	ProjectID string `json:"project_id" validate:"notblank"`
	PersonaID string `json:"persona_id,omitempty"`
	Title     string `json:"title" validate:"notblank,max=200"`
}

// SendResult is the outcome of a successful Send.
type SendResult struct {
	Messages []domain.Message `json:"messages"`
	Reply    domain.Message   `json:"reply"`
	Warnings []string         `json:"warnings,omitempty"`
}

// Options configures a Manager.
type Options struct {
	// GroundingBudget warns (never truncates) above this many tokens; 0 disables.
	GroundingBudget int
	Logger          *slog.Logger
}

// Manager is a per-session conversation controller bound to one user.
type Manager struct {
	userID    string
	repo      store.Repository
	assembler *prompt.Assembler
	gen       generation.Generator
	opts      Options
	logger    *slog.Logger

	// busy guards re-entrant Select/Send.
	busy sync.Mutex

	mu        sync.RWMutex
	state     State
	current   *domain.Conversation
	project   *domain.Project
	persona   *domain.Persona
	history   []domain.Message
	grounding *grounding.Document
}

// NewManager builds a Manager for userID.
func NewManager(userID string, repo store.Repository, assembler *prompt.Assembler, gen generation.Generator, opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		userID:    userID,
		repo:      repo,
		assembler: assembler,
		gen:       gen,
		opts:      opts,
		logger:    logger.With("component", "conversation", "user_id", userID),
	}
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Current returns the selected conversation, or nil.
func (m *Manager) Current() *domain.Conversation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil
	}
	c := *m.current
	return &c
}

// History returns a copy of the loaded message list.
func (m *Manager) History() []domain.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Message(nil), m.history...)
}

// Grounding returns the grounding document of the selected conversation and
// whether one has been loaded.
func (m *Manager) Grounding() (grounding.Document, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.grounding == nil {
		return grounding.Document{}, false
	}
	return *m.grounding, true
}

// Project returns the selected conversation's project record, which may be
// nil when the record could not be found.
func (m *Manager) Project() *domain.Project {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.project
}

// List returns the user's conversations, most recently updated first.
func (m *Manager) List(ctx context.Context) ([]domain.Conversation, error) {
	return m.repo.ListConversations(ctx, m.userID)
}

// Create persists a new conversation with an empty history and selects it.
func (m *Manager) Create(ctx context.Context, in CreateInput) (*domain.Conversation, error) {
	if err := domain.Validate(in); err != nil {
		return nil, err
	}
	c := &domain.Conversation{
		UserID:    m.userID,
		ProjectID: strings.TrimSpace(in.ProjectID),
		Title:     strings.TrimSpace(in.Title),
	}
	if id := strings.TrimSpace(in.PersonaID); id != "" {
		c.PersonaID = &id
	}
	if err := m.repo.CreateConversation(ctx, c); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	m.logger.Info("conversation created", "conversation_id", c.ID, "project_id", c.ProjectID)
	if err := m.Select(ctx, c.ID); err != nil {
		return c, err
	}
	return c, nil
}

// Select loads history and refreshes grounding for conversation id. A missing
// project record is tolerated; a missing conversation is store.ErrNotFound.
func (m *Manager) Select(ctx context.Context, id string) error {
	if !m.busy.TryLock() {
		return ErrBusy
	}
	defer m.busy.Unlock()

	conv, err := m.repo.GetConversation(ctx, m.userID, id)
	if err != nil {
		return err
	}

	prev := m.setState(Loading)
	var (
		history []domain.Message
		project *domain.Project
		persona *domain.Persona
		doc     grounding.Document
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		history, err = m.repo.ListMessages(gctx, m.userID, conv.ID)
		return err
	})
	g.Go(func() error {
		var err error
		project, doc, err = m.loadProject(gctx, conv.ProjectID)
		return err
	})
	g.Go(func() error {
		var err error
		persona, err = m.loadPersona(gctx, conv.PersonaID)
		return err
	})
	if err := g.Wait(); err != nil {
		m.setState(prev)
		return fmt.Errorf("load conversation: %w", err)
	}

	m.mu.Lock()
	m.current = conv
	m.history = history
	m.project = project
	m.persona = persona
	m.grounding = &doc
	m.state = Ready
	m.mu.Unlock()
	return nil
}

// Send posts text to the selected conversation. Whitespace-only text is a
// no-op. On generation failure the user message stays persisted and a
// *ReplyError is returned together with the re-read history.
func (m *Manager) Send(ctx context.Context, text string) (*SendResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if !m.busy.TryLock() {
		return nil, ErrBusy
	}
	defer m.busy.Unlock()

	m.mu.RLock()
	conv := m.current
	prior := append([]domain.Message(nil), m.history...)
	persona := m.persona
	m.mu.RUnlock()
	if conv == nil {
		return nil, ErrNoSelection
	}

	// Grounding is read at send time so items added since Select are used.
	m.setState(Loading)
	project, d, err := m.loadProject(ctx, conv.ProjectID)
	if err != nil {
		m.setState(Ready)
		return nil, fmt.Errorf("load project context: %w", err)
	}
	doc := &d
	m.mu.Lock()
	m.project, m.grounding = project, doc
	m.mu.Unlock()
	m.setState(Generating)
	defer m.setState(Ready)

	var warnings []string
	if w, over := grounding.CheckBudget(*doc, m.opts.GroundingBudget); over {
		warnings = append(warnings, w.String())
		m.logger.Warn("grounding over budget", "tokens", w.Tokens, "budget", w.Budget)
	}
	if doc.Empty() {
		warnings = append(warnings, "this project has no context items; replies will say the context is insufficient")
	}

	userMsg := domain.Message{ConversationID: conv.ID, Role: domain.RoleUser, Content: text}
	if err := m.repo.AppendMessage(ctx, m.userID, &userMsg); err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}

	promptText, err := m.assembler.Build(prompt.Request{
		Kind:        prompt.KindAssistant,
		Project:     project,
		ProjectID:   conv.ProjectID,
		Persona:     persona,
		Grounding:   *doc,
		History:     prior,
		Instruction: text,
	})
	var reply string
	if err == nil {
		reply, err = m.gen.Generate(ctx, promptText)
	}
	if err != nil {
		m.logger.Error("assistant reply failed", "conversation_id", conv.ID, "err", err)
		if _, rerr := m.reload(context.WithoutCancel(ctx), conv.ID); rerr != nil {
			m.logger.Warn("history reload failed", "err", rerr)
		}
		return &SendResult{Messages: m.History(), Warnings: warnings}, &ReplyError{UserMessage: userMsg, Err: err}
	}

	replyMsg := domain.Message{ConversationID: conv.ID, Role: domain.RoleAssistant, Content: reply}
	if err := m.repo.AppendMessage(ctx, m.userID, &replyMsg); err != nil {
		return nil, fmt.Errorf("save reply: %w", err)
	}
	if err := m.repo.TouchConversation(ctx, m.userID, conv.ID); err != nil {
		m.logger.Warn("touch conversation failed", "err", err)
	}
	msgs, err := m.reload(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("reload history: %w", err)
	}
	return &SendResult{Messages: msgs, Reply: replyMsg, Warnings: warnings}, nil
}

// Rename updates the title of one of the user's conversations.
func (m *Manager) Rename(ctx context.Context, id, title string) error {
	if err := m.repo.RenameConversation(ctx, m.userID, id, title); err != nil {
		return err
	}
	m.mu.Lock()
	if m.current != nil && m.current.ID == id {
		m.current.Title = strings.TrimSpace(title)
	}
	m.mu.Unlock()
	return nil
}

// Delete removes a conversation. Deleting the selected one clears the selection.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.repo.DeleteConversation(ctx, m.userID, id); err != nil {
		return err
	}
	m.mu.Lock()
	if m.current != nil && m.current.ID == id {
		m.current, m.project, m.persona, m.history, m.grounding = nil, nil, nil, nil, nil
		m.state = NoConversation
	}
	m.mu.Unlock()
	m.logger.Info("conversation deleted", "conversation_id", id)
	return nil
}

// loadProject reads the project record and its grounding. A missing project
// yields a nil record.
func (m *Manager) loadProject(ctx context.Context, projectID string) (*domain.Project, grounding.Document, error) {
	project, err := m.repo.GetProject(ctx, m.userID, projectID)
	if errors.Is(err, store.ErrNotFound) {
		m.logger.Warn("conversation project record not found", "project_id", projectID)
		project, err = nil, nil
	}
	if err != nil {
		return nil, grounding.Document{}, err
	}
	items, err := m.repo.ListContextItems(ctx, m.userID, projectID)
	if err != nil {
		return nil, grounding.Document{}, err
	}
	return project, grounding.Build(items), nil
}

func (m *Manager) loadPersona(ctx context.Context, id *string) (*domain.Persona, error) {
	if id == nil || *id == "" {
		return nil, nil
	}
	p, err := m.repo.GetPersona(ctx, m.userID, *id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

func (m *Manager) reload(ctx context.Context, conversationID string) ([]domain.Message, error) {
	msgs, err := m.repo.ListMessages(ctx, m.userID, conversationID)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.history = msgs
	m.mu.Unlock()
	return append([]domain.Message(nil), msgs...), nil
}

func (m *Manager) setState(s State) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.state
	m.state = s
	return prev
}
