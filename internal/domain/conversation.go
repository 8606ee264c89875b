package domain

import "time"

// Persona is an optional "write as this role" framing owned by a user.
type Persona struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"user_id" db:"user_id" validate:"required"`
	Name         string    `json:"persona_name" db:"persona_name" validate:"required,max=120"`
	RoleTitle    string    `json:"role_title" db:"role_title" validate:"required,max=120"`
	Organization string    `json:"company_or_business" db:"company_or_business"`
	Industry     string    `json:"industry" db:"industry"`
	Description  string    `json:"description" db:"description"`
	IsDefault    bool      `json:"is_default" db:"is_default"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Conversation is a multi-turn thread bound to one project.
type Conversation struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	ProjectID string    `json:"project_id" db:"project_id"`
	PersonaID *string   `json:"persona_id,omitempty" db:"persona_id"`
	Title     string    `json:"title" db:"title"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Role of a message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Label is the speaker name used when rendering history into a prompt.
func (r Role) Label() string {
	if r == RoleAssistant {
		return "Assistant"
	}
	return "User"
}

// Message is one append-only turn of a conversation.
type Message struct {
	ID             string    `json:"id" db:"id"`
	ConversationID string    `json:"conversation_id" db:"conversation_id"`
	Role           Role      `json:"role" db:"role"`
	Content        string    `json:"content" db:"content"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// GeneratedArtifact is the output of a one-shot tool.
type GeneratedArtifact struct {
	ID        string    `json:"id" db:"id"`
	ProjectID string    `json:"project_id" db:"project_id"`
	ToolKind  string    `json:"tool_type" db:"tool_type"`
	Content   string    `json:"content" db:"content"`
	Metadata  Metadata  `json:"metadata,omitempty" db:"metadata"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
