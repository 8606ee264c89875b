// Package store provides the relational persistence boundary for projects,
// context items, personas, conversations, messages and generated artifacts.
package store

import (
	"context"
	"errors"

	"github.com/ayushmankoley/GrowMint/internal/domain"
)

// ErrNotFound is returned when a record does not exist or is not owned by the
// requesting user. Callers treat it as a distinct, non-fatal case.
var ErrNotFound = errors.New("record not found")

// Repository is the storage contract used by the generation pipeline and the
// surfaces. Every operation is scoped by the owning user's ID.
type Repository interface {
	// CreateProject inserts a project, filling ID, defaults and timestamps.
	CreateProject(ctx context.Context, p *domain.Project) error
	// GetProject returns a project owned by userID.
	GetProject(ctx context.Context, userID, id string) (*domain.Project, error)
	// ListProjects returns the user's projects, most recently updated first.
	ListProjects(ctx context.Context, userID string) ([]domain.Project, error)
	// UpdateProject applies a patch and returns the updated record.
	UpdateProject(ctx context.Context, userID, id string, patch domain.ProjectPatch) (*domain.Project, error)
	// DeleteProject removes a project and, by cascade, its context,
	// conversations, messages and artifacts.
	DeleteProject(ctx context.Context, userID, id string) error

	// AddContextItem attaches an item to a project owned by userID.
	AddContextItem(ctx context.Context, userID string, item *domain.ContextItem) error
	// ListContextItems returns a project's items, oldest first.
	ListContextItems(ctx context.Context, userID, projectID string) ([]domain.ContextItem, error)
	// GetContextItem returns a single item.
	GetContextItem(ctx context.Context, userID, id string) (*domain.ContextItem, error)
	// DeleteContextItem removes a single item.
	DeleteContextItem(ctx context.Context, userID, id string) error

	// CreatePersona inserts a persona. If IsDefault is set the other
	// defaults of the user are cleared in the same transaction.
	CreatePersona(ctx context.Context, p *domain.Persona) error
	// GetPersona returns a persona owned by userID.
	GetPersona(ctx context.Context, userID, id string) (*domain.Persona, error)
	// ListPersonas returns the user's personas, default first.
	ListPersonas(ctx context.Context, userID string) ([]domain.Persona, error)
	// UpdatePersona rewrites the descriptive fields of a persona.
	UpdatePersona(ctx context.Context, p *domain.Persona) error
	// DeletePersona removes a persona.
	DeletePersona(ctx context.Context, userID, id string) error
	// SetDefaultPersona unsets every default of the user and sets id, atomically.
	SetDefaultPersona(ctx context.Context, userID, id string) error
	// DefaultPersona returns the user's default persona or ErrNotFound.
	DefaultPersona(ctx context.Context, userID string) (*domain.Persona, error)

	// CreateConversation inserts a conversation with an empty history.
	CreateConversation(ctx context.Context, c *domain.Conversation) error
	// GetConversation returns a conversation owned by userID.
	GetConversation(ctx context.Context, userID, id string) (*domain.Conversation, error)
	// ListConversations returns the user's conversations, most recently updated first.
	ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error)
	// RenameConversation updates the title.
	RenameConversation(ctx context.Context, userID, id, title string) error
	// TouchConversation bumps updated_at.
	TouchConversation(ctx context.Context, userID, id string) error
	// DeleteConversation removes a conversation and its messages.
	DeleteConversation(ctx context.Context, userID, id string) error

	// AppendMessage adds a message to a conversation owned by userID.
	AppendMessage(ctx context.Context, userID string, m *domain.Message) error
	// ListMessages returns a conversation's messages in creation order.
	ListMessages(ctx context.Context, userID, conversationID string) ([]domain.Message, error)

	// SaveArtifact persists the output of a one-shot tool.
	SaveArtifact(ctx context.Context, userID string, a *domain.GeneratedArtifact) error
	// ListArtifacts returns a project's artifacts, newest first.
	ListArtifacts(ctx context.Context, userID, projectID string) ([]domain.GeneratedArtifact, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error
	// Close closes the database connection.
	Close() error
}
