package extract

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrEmptyContent      = errors.New("document has no extractable content")
)

// Extractor turns an uploaded file into raw text.
type Extractor interface {
	Extract(ctx context.Context, filename, contentType string, data []byte) (string, error)
}

var plainTextExtensions = map[string]bool{
	".txt":      true,
	".text":     true,
	".md":       true,
	".markdown": true,
}

// PlainTextExtractor accepts text and markdown. Binary office formats are rejected.
type PlainTextExtractor struct{}

func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

func (e *PlainTextExtractor) Supports(filename, contentType string) bool {
	if contentType != "" {
		if media, _, err := mime.ParseMediaType(contentType); err == nil {
			return strings.HasPrefix(media, "text/")
		}
	}
	if filename == "" {
		// Inline content without a name is treated as text.
		return true
	}
	return plainTextExtensions[strings.ToLower(filepath.Ext(filename))]
}

func (e *PlainTextExtractor) Extract(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !e.Supports(filename, contentType) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, describe(filename, contentType))
	}

	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "\uFFFD")
	}
	text = strings.TrimPrefix(text, "\ufeff")
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyContent
	}
	return text, nil
}

func describe(filename, contentType string) string {
	if contentType != "" {
		return contentType
	}
	return filepath.Ext(filename)
}
