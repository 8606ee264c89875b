package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ContentKind tells how a context item's Content is to be read.
type ContentKind string

const (
	KindText     ContentKind = "text"
	KindImage    ContentKind = "image"
	KindDocument ContentKind = "document"
	KindURL      ContentKind = "url"
)

// Valid reports whether k is one of the known kinds.
func (k ContentKind) Valid() bool {
	switch k {
	case KindText, KindImage, KindDocument, KindURL:
		return true
	}
	return false
}

// ContextItem is one piece of grounding attached to a project. Content is raw
// text, a stored file URL or a source URL depending on Kind.
type ContextItem struct {
	ID        string      `json:"id" db:"id"`
	ProjectID string      `json:"project_id" db:"project_id" validate:"required"`
	Kind      ContentKind `json:"content_type" db:"content_type" validate:"oneof=text image document url"`
	Content   string      `json:"content" db:"content" validate:"required"`
	Metadata  Metadata    `json:"metadata" db:"metadata"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}

// ScrapedPage is the structured record produced upstream for a url item.
type ScrapedPage struct {
	Title        string   `json:"title"`
	Summary      string   `json:"summary"`
	KeyPoints    []string `json:"keyPoints"`
	BusinessInfo string   `json:"businessInfo,omitempty"`
}

// Metadata is the kind-specific JSON bag of a context item.
type Metadata map[string]any

// Metadata keys written by the intake and url paths.
const (
	MetaName         = "name"
	MetaOriginalName = "original_name"
	MetaFileSize     = "file_size"
	MetaMimeType     = "mime_type"
	MetaPreview      = "preview"
	MetaScrapedData  = "scraped_data"
	MetaDomain       = "domain"
	MetaWordCount    = "word_count"
	MetaScrapedAt    = "scraped_at"
)

// String returns the string value under key, or "".
func (m Metadata) String(key string) string {
	if m == nil {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	return ""
}

// Int returns a numeric value under key as int64. JSON numbers decode as float64.
func (m Metadata) Int(key string) int64 {
	if m == nil {
		return 0
	}
	switch v := m[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	}
	return 0
}

// Scraped decodes the scraped_data entry, if any.
func (m Metadata) Scraped() (*ScrapedPage, bool) {
	if m == nil {
		return nil, false
	}
	raw, ok := m[MetaScrapedData]
	if !ok || raw == nil {
		return nil, false
	}
	if sp, ok := raw.(*ScrapedPage); ok {
		return sp, true
	}
	if sp, ok := raw.(ScrapedPage); ok {
		return &sp, true
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, false
	}
	var sp ScrapedPage
	if err := json.Unmarshal(b, &sp); err != nil {
		return nil, false
	}
	return &sp, true
}

// Scan implements sql.Scanner.
func (m *Metadata) Scan(value any) error {
	var b []byte
	switch v := value.(type) {
	case nil:
		*m = nil
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("cannot scan type %T into Metadata", value)
	}
	if len(strings.TrimSpace(string(b))) == 0 || string(b) == "null" {
		*m = nil
		return nil
	}
	out := Metadata{}
	if err := json.Unmarshal(b, &out); err != nil {
		return fmt.Errorf("decode metadata: %w", err)
	}
	*m = out
	return nil
}

// Value implements driver.Valuer.
func (m Metadata) Value() (driver.Value, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(map[string]any(m))
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return string(b), nil
}
