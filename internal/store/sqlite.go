package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ayushmankoley/GrowMint/internal/domain"
	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithLogger sets the logger used for zero-row warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *SQLiteStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the timestamp source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSQLite opens (creating if needed) the database at dbPath and applies the schema.
func NewSQLite(dbPath string, opts ...Option) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer keeps SQLITE_BUSY out of the picture for an interactive client.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db, logger: slog.Default(), now: func() time.Time { return time.Now().UTC() }}
	for _, o := range opts {
		o(s)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close closes the database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func expectOne(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", what, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- projects ----

const projectColumns = `id, user_id, name, description, lead_source, priority, status, progress, context_summary, created_at, updated_at`

// CreateProject inserts a project.
func (s *SQLiteStore) CreateProject(ctx context.Context, p *domain.Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Priority == "" {
		p.Priority = domain.PriorityMedium
	}
	if p.Status == "" {
		p.Status = domain.StatusDraft
	}
	if err := domain.Validate(p); err != nil {
		return err
	}
	now := s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := s.db.ExecContext(ctx, `INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Name, p.Description, p.LeadSource, p.Priority, p.Status, p.Progress, p.ContextSummary, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// GetProject returns a project owned by userID.
func (s *SQLiteStore) GetProject(ctx context.Context, userID, id string) (*domain.Project, error) {
	var p domain.Project
	err := sqlscan.Get(ctx, s.db, &p, `SELECT `+projectColumns+` FROM projects WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// ListProjects returns the user's projects, most recently updated first.
func (s *SQLiteStore) ListProjects(ctx context.Context, userID string) ([]domain.Project, error) {
	var out []domain.Project
	if err := sqlscan.Select(ctx, s.db, &out, `SELECT `+projectColumns+` FROM projects WHERE user_id = ? ORDER BY updated_at DESC, rowid DESC`, userID); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return out, nil
}

// UpdateProject applies a patch and returns the updated record.
func (s *SQLiteStore) UpdateProject(ctx context.Context, userID, id string, patch domain.ProjectPatch) (*domain.Project, error) {
	p, err := s.GetProject(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(p)
	if err := domain.Validate(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.now()
	res, err := s.db.ExecContext(ctx, `UPDATE projects SET name = ?, description = ?, lead_source = ?, priority = ?, status = ?, progress = ?, context_summary = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		p.Name, p.Description, p.LeadSource, p.Priority, p.Status, p.Progress, p.ContextSummary, p.UpdatedAt, id, userID)
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	if err := expectOne(res, "update project"); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProject removes a project; context, conversations and artifacts cascade.
func (s *SQLiteStore) DeleteProject(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return expectOne(res, "delete project")
}

func (s *SQLiteStore) ownsProject(ctx context.Context, q sqlscan.Querier, userID, projectID string) error {
	var n int
	if err := sqlscan.Get(ctx, q, &n, `SELECT COUNT(1) FROM projects WHERE id = ? AND user_id = ?`, projectID, userID); err != nil {
		return fmt.Errorf("check project owner: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- context items ----

const contextColumns = `id, project_id, content_type, content, metadata, created_at`

// AddContextItem attaches an item to a project owned by userID.
func (s *SQLiteStore) AddContextItem(ctx context.Context, userID string, item *domain.ContextItem) error {
	if err := domain.Validate(item); err != nil {
		return err
	}
	if err := s.ownsProject(ctx, s.db, userID, item.ProjectID); err != nil {
		return err
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.CreatedAt = s.now()
	_, err := s.db.ExecContext(ctx, `INSERT INTO project_context (`+contextColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		item.ID, item.ProjectID, item.Kind, item.Content, item.Metadata, item.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert context item: %w", err)
	}
	return nil
}

// ListContextItems returns a project's items, oldest first.
func (s *SQLiteStore) ListContextItems(ctx context.Context, userID, projectID string) ([]domain.ContextItem, error) {
	var out []domain.ContextItem
	err := sqlscan.Select(ctx, s.db, &out, `SELECT `+contextColumns+` FROM project_context
		WHERE project_id = ? AND project_id IN (SELECT id FROM projects WHERE user_id = ?)
		ORDER BY created_at ASC, rowid ASC`, projectID, userID)
	if err != nil {
		return nil, fmt.Errorf("list context items: %w", err)
	}
	return out, nil
}

// GetContextItem returns one item of a project owned by userID.
func (s *SQLiteStore) GetContextItem(ctx context.Context, userID, id string) (*domain.ContextItem, error) {
	var item domain.ContextItem
	err := sqlscan.Get(ctx, s.db, &item, `SELECT `+contextColumns+` FROM project_context
		WHERE id = ? AND project_id IN (SELECT id FROM projects WHERE user_id = ?)`, id, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

// DeleteContextItem removes a single item.
func (s *SQLiteStore) DeleteContextItem(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM project_context
		WHERE id = ? AND project_id IN (SELECT id FROM projects WHERE user_id = ?)`, id, userID)
	if err != nil {
		return fmt.Errorf("delete context item: %w", err)
	}
	return expectOne(res, "delete context item")
}

// ---- personas ----

const personaColumns = `id, user_id, persona_name, role_title, company_or_business, industry, description, is_default, created_at, updated_at`

// CreatePersona inserts a persona; a default persona clears the others atomically.
func (s *SQLiteStore) CreatePersona(ctx context.Context, p *domain.Persona) error {
	if err := domain.Validate(p); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if p.IsDefault {
			if _, err := tx.ExecContext(ctx, `UPDATE user_personas SET is_default = 0 WHERE user_id = ?`, p.UserID); err != nil {
				return fmt.Errorf("unset default personas: %w", err)
			}
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO user_personas (`+personaColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.UserID, p.Name, p.RoleTitle, p.Organization, p.Industry, p.Description, p.IsDefault, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert persona: %w", err)
		}
		return nil
	})
}

// GetPersona returns a persona owned by userID.
func (s *SQLiteStore) GetPersona(ctx context.Context, userID, id string) (*domain.Persona, error) {
	var p domain.Persona
	if err := sqlscan.Get(ctx, s.db, &p, `SELECT `+personaColumns+` FROM user_personas WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// ListPersonas returns the user's personas, default first.
func (s *SQLiteStore) ListPersonas(ctx context.Context, userID string) ([]domain.Persona, error) {
	var out []domain.Persona
	if err := sqlscan.Select(ctx, s.db, &out, `SELECT `+personaColumns+` FROM user_personas WHERE user_id = ? ORDER BY is_default DESC, created_at ASC, rowid ASC`, userID); err != nil {
		return nil, fmt.Errorf("list personas: %w", err)
	}
	return out, nil
}

// UpdatePersona rewrites the descriptive fields of a persona. The default flag
// is only changed through SetDefaultPersona.
func (s *SQLiteStore) UpdatePersona(ctx context.Context, p *domain.Persona) error {
	if err := domain.Validate(p); err != nil {
		return err
	}
	p.UpdatedAt = s.now()
	res, err := s.db.ExecContext(ctx, `UPDATE user_personas SET persona_name = ?, role_title = ?, company_or_business = ?, industry = ?, description = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		p.Name, p.RoleTitle, p.Organization, p.Industry, p.Description, p.UpdatedAt, p.ID, p.UserID)
	if err != nil {
		return fmt.Errorf("update persona: %w", err)
	}
	return expectOne(res, "update persona")
}

// DeletePersona removes a persona.
func (s *SQLiteStore) DeletePersona(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM user_personas WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete persona: %w", err)
	}
	return expectOne(res, "delete persona")
}

// SetDefaultPersona unsets every default of userID and sets id in one
// transaction. An unknown id rolls the unset back.
func (s *SQLiteStore) SetDefaultPersona(ctx context.Context, userID, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE user_personas SET is_default = 0, updated_at = ? WHERE user_id = ? AND is_default = 1`, s.now(), userID); err != nil {
			return fmt.Errorf("unset default personas: %w", err)
		}
		res, err := tx.ExecContext(ctx, `UPDATE user_personas SET is_default = 1, updated_at = ? WHERE id = ? AND user_id = ?`, s.now(), id, userID)
		if err != nil {
			return fmt.Errorf("set default persona: %w", err)
		}
		return expectOne(res, "set default persona")
	})
}

// DefaultPersona returns the user's default persona or ErrNotFound.
func (s *SQLiteStore) DefaultPersona(ctx context.Context, userID string) (*domain.Persona, error) {
	var p domain.Persona
	if err := sqlscan.Get(ctx, s.db, &p, `SELECT `+personaColumns+` FROM user_personas WHERE user_id = ? AND is_default = 1 LIMIT 1`, userID); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// ---- conversations ----

const conversationColumns = `id, user_id, project_id, persona_id, title, created_at, updated_at`

// CreateConversation inserts a conversation with an empty history.
func (s *SQLiteStore) CreateConversation(ctx context.Context, c *domain.Conversation) error {
	if err := s.ownsProject(ctx, s.db, c.UserID, c.ProjectID); err != nil {
		return err
	}
	if c.PersonaID != nil {
		if _, err := s.GetPersona(ctx, c.UserID, *c.PersonaID); err != nil {
			return err
		}
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	_, err := s.db.ExecContext(ctx, `INSERT INTO conversations (`+conversationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.ProjectID, c.PersonaID, c.Title, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

// GetConversation returns a conversation owned by userID.
func (s *SQLiteStore) GetConversation(ctx context.Context, userID, id string) (*domain.Conversation, error) {
	var c domain.Conversation
	if err := sqlscan.Get(ctx, s.db, &c, `SELECT `+conversationColumns+` FROM conversations WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// ListConversations returns the user's conversations, most recently updated first.
func (s *SQLiteStore) ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error) {
	var out []domain.Conversation
	if err := sqlscan.Select(ctx, s.db, &out, `SELECT `+conversationColumns+` FROM conversations WHERE user_id = ? ORDER BY updated_at DESC, rowid DESC`, userID); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return out, nil
}

// RenameConversation updates the title.
func (s *SQLiteStore) RenameConversation(ctx context.Context, userID, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Invalid("title", "is required")
	}
	res, err := s.db.ExecContext(ctx, `UPDATE conversations SET title = ?, updated_at = ? WHERE id = ? AND user_id = ?`, title, s.now(), id, userID)
	if err != nil {
		return fmt.Errorf("rename conversation: %w", err)
	}
	return expectOne(res, "rename conversation")
}

// TouchConversation bumps updated_at.
func (s *SQLiteStore) TouchConversation(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE conversations SET updated_at = ? WHERE id = ? AND user_id = ?`, s.now(), id, userID)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		s.logger.Warn("TouchConversation affected 0 rows", "conversation_id", id)
	}
	return nil
}

// DeleteConversation removes a conversation and its messages.
func (s *SQLiteStore) DeleteConversation(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return expectOne(res, "delete conversation")
}

// ---- messages ----

// AppendMessage adds a message to a conversation owned by userID.
func (s *SQLiteStore) AppendMessage(ctx context.Context, userID string, m *domain.Message) error {
	if m.Role != domain.RoleUser && m.Role != domain.RoleAssistant {
		return domain.Invalid("role", "must be user or assistant")
	}
	if _, err := s.GetConversation(ctx, userID, m.ConversationID); err != nil {
		return err
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = s.now()
	_, err := s.db.ExecContext(ctx, `INSERT INTO messages (id, conversation_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.ConversationID, m.Role, m.Content, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListMessages returns a conversation's messages in creation order.
func (s *SQLiteStore) ListMessages(ctx context.Context, userID, conversationID string) ([]domain.Message, error) {
	var out []domain.Message
	err := sqlscan.Select(ctx, s.db, &out, `SELECT id, conversation_id, role, content, created_at FROM messages
		WHERE conversation_id = ? AND conversation_id IN (SELECT id FROM conversations WHERE user_id = ?)
		ORDER BY created_at ASC, rowid ASC`, conversationID, userID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return out, nil
}

// ---- artifacts ----

// SaveArtifact persists the output of a one-shot tool.
func (s *SQLiteStore) SaveArtifact(ctx context.Context, userID string, a *domain.GeneratedArtifact) error {
	if err := s.ownsProject(ctx, s.db, userID, a.ProjectID); err != nil {
		return err
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = s.now()
	_, err := s.db.ExecContext(ctx, `INSERT INTO generated_content (id, project_id, tool_type, content, metadata, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.ProjectID, a.ToolKind, a.Content, a.Metadata, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert artifact: %w", err)
	}
	return nil
}

// ListArtifacts returns a project's artifacts, newest first.
func (s *SQLiteStore) ListArtifacts(ctx context.Context, userID, projectID string) ([]domain.GeneratedArtifact, error) {
	var out []domain.GeneratedArtifact
	err := sqlscan.Select(ctx, s.db, &out, `SELECT id, project_id, tool_type, content, metadata, created_at FROM generated_content
		WHERE project_id = ? AND project_id IN (SELECT id FROM projects WHERE user_id = ?)
		ORDER BY created_at DESC, rowid DESC`, projectID, userID)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

var _ Repository = (*SQLiteStore)(nil)
