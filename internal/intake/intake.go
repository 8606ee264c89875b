// Package intake copies uploaded files into the uploads directory and
// describes them as context items.
package intake

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ayushmankoley/GrowMint/internal/domain"
	"github.com/ayushmankoley/GrowMint/internal/utils"
	"github.com/google/uuid"
)

// DefaultMaxSize caps a single upload.
const DefaultMaxSize int64 = 20 << 20

// previewTokens bounds the stored preview.
const previewTokens = 60

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".webp": true, ".bmp": true, ".svg": true, ".heic": true,
}

// ErrTooLarge is returned when a file exceeds the upload limit.
var ErrTooLarge = errors.New("file exceeds the upload size limit")

// Uploads stores files under a directory.
type Uploads struct {
	dir     string
	maxSize int64
	logger  *slog.Logger
	newName func() string
}

// Option configures Uploads.
type Option func(*Uploads)

// WithMaxSize overrides DefaultMaxSize.
func WithMaxSize(n int64) Option { return func(u *Uploads) { u.maxSize = n } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(u *Uploads) { u.logger = l } }

// New returns an Uploads rooted at dir.
func New(dir string, opts ...Option) *Uploads {
	u := &Uploads{
		dir:     dir,
		maxSize: DefaultMaxSize,
		logger:  slog.Default(),
		newName: func() string { return uuid.NewString() },
	}
	for _, o := range opts {
		o(u)
	}
	u.logger = u.logger.With("component", "intake")
	return u
}

// Item copies the file at path into the uploads directory and returns an
// unsaved context item for projectID. name is the display name; the base
// file name is used when it is blank.
func (u *Uploads) Item(projectID, path, name string) (*domain.ContextItem, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat upload: %w", err)
	}
	if info.IsDir() {
		return nil, domain.Invalid("file", "%s is a directory", path)
	}
	if info.Size() > u.maxSize {
		return nil, fmt.Errorf("%s (%s): %w", filepath.Base(path), HumanSize(info.Size()), ErrTooLarge)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	original := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(original))
	stored := filepath.Join(u.dir, u.newName()+ext)
	if err := utils.SafeWriteFile(stored, data); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}
	abs, err := filepath.Abs(stored)
	if err != nil {
		abs = stored
	}

	if strings.TrimSpace(name) == "" {
		name = original
	}
	md := domain.Metadata{
		domain.MetaName:         name,
		domain.MetaOriginalName: original,
		domain.MetaFileSize:     info.Size(),
		domain.MetaMimeType:     DetectMIME(original, data),
	}
	kind := Classify(original, md.String(domain.MetaMimeType))
	if kind == domain.KindDocument {
		if text, err := Extract(original, data); err == nil && text != "" {
			md[domain.MetaPreview] = utils.Excerpt(text, previewTokens)
		} else if err != nil && !errors.Is(err, ErrNoText) {
			u.logger.Warn("preview extraction failed", "file", original, "err", err)
		}
	}

	u.logger.Info("file stored", "original", original, "stored", stored, "bytes", info.Size(), "kind", kind)
	return &domain.ContextItem{
		ProjectID: projectID,
		Kind:      kind,
		Content:   FileURL(abs),
		Metadata:  md,
	}, nil
}

// Remove deletes a stored file referenced by a file:// URL. Other URLs and
// files outside the uploads directory are left alone.
func (u *Uploads) Remove(content string) error {
	p, ok := LocalPath(content)
	if !ok || !u.owns(p) {
		return nil
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (u *Uploads) owns(p string) bool {
	dir, err := filepath.Abs(u.dir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(dir, filepath.Clean(p))
	return err == nil && rel != "." && !strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel)
}

// Classify reports whether a file is an image or a document.
func Classify(filename, mimeType string) domain.ContentKind {
	if imageExts[strings.ToLower(filepath.Ext(filename))] || strings.HasPrefix(mimeType, "image/") {
		return domain.KindImage
	}
	return domain.KindDocument
}

// DetectMIME uses the extension first and sniffs content otherwise.
func DetectMIME(filename string, data []byte) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); t != "" {
		return t
	}
	if len(data) > 512 {
		data = data[:512]
	}
	return http.DetectContentType(data)
}

// FileURL turns an absolute path into a file:// URL.
func FileURL(abs string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}

// LocalPath returns the path of a file:// URL.
func LocalPath(content string) (string, bool) {
	u, err := url.Parse(content)
	if err != nil || u.Scheme != "file" {
		return "", false
	}
	return filepath.FromSlash(u.Path), true
}

// HumanSize formats a byte count for listings.
func HumanSize(n int64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d bytes", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
}
