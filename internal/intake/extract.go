package intake

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrNoText is returned by Extract for formats with no text preview.
var ErrNoText = errors.New("no text preview for this format")

// extractor pulls plain text out of one file format.
type extractor interface {
	CanExtract(filename string) bool
	Extract(content []byte) (string, error)
}

var extractors = []extractor{txtExtractor{}, markdownExtractor{}, docxExtractor{}}

// Extract returns the readable text of content for the formats that have one
// (txt, md, docx).
func Extract(filename string, content []byte) (string, error) {
	for _, e := range extractors {
		if e.CanExtract(filename) {
			return e.Extract(content)
		}
	}
	return "", fmt.Errorf("%s: %w", filepath.Ext(filename), ErrNoText)
}

type txtExtractor struct{}

func (txtExtractor) CanExtract(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".txt")
}

func (txtExtractor) Extract(content []byte) (string, error) {
	return normalizeNewlines(string(content)), nil
}

type markdownExtractor struct{}

func (markdownExtractor) CanExtract(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".md" || ext == ".markdown"
}

func (markdownExtractor) Extract(content []byte) (string, error) {
	return normalizeNewlines(string(content)), nil
}

type docxExtractor struct{}

var (
	xmlTag       = regexp.MustCompile(`<[^>]+>`)
	xmlParagraph = regexp.MustCompile(`</w:p>`)
)

func (docxExtractor) CanExtract(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".docx")
}

// Extract reads word/document.xml from the archive and strips the markup.
func (docxExtractor) Extract(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open document.xml: %w", err)
		}
		b, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return "", fmt.Errorf("read document.xml: %w", err)
		}
		text := xmlParagraph.ReplaceAllString(string(b), "\n")
		text = xmlTag.ReplaceAllString(text, "")
		return normalizeNewlines(text), nil
	}
	return "", errors.New("document.xml not found in docx")
}

func normalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSpace(text)
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}
	return text
}
