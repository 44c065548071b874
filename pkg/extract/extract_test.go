package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainTextExtractor(t *testing.T) {
	e := NewPlainTextExtractor()
	ctx := context.Background()

	tests := []struct {
		name        string
		filename    string
		contentType string
		data        string
		wantErr     error
	}{
		{name: "markdown file", filename: "notes.md", data: "# Title\n\nBody"},
		{name: "text content type", filename: "upload.bin", contentType: "text/plain; charset=utf-8", data: "hello"},
		{name: "inline content", data: "hello"},
		{name: "pdf rejected", filename: "report.pdf", data: "%PDF-1.7", wantErr: ErrUnsupportedFormat},
		{name: "word rejected", filename: "spec.docx", contentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", data: "PK", wantErr: ErrUnsupportedFormat},
		{name: "blank rejected", filename: "empty.txt", data: " \n\t ", wantErr: ErrEmptyContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := e.Extract(ctx, tt.filename, tt.contentType, []byte(tt.data))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.data, text)
		})
	}
}

func TestPreprocessor_SegmentsParagraphs(t *testing.T) {
	p := NewPreprocessor(DefaultPreprocessorConfig(), nil)

	res, err := p.Run(context.Background(), "First paragraph.  \r\n\r\n\r\n\r\nSecond paragraph.\n\nThird.")

	require.NoError(t, err)
	require.Len(t, res.Segments, 3)
	assert.Equal(t, "seg-0", res.Segments[0].ID)
	assert.Equal(t, "Second paragraph.", res.Segments[1].Text)
	assert.Equal(t, 2, res.Segments[2].Index)
	assert.Equal(t, "First paragraph.\n\nSecond paragraph.\n\nThird.", res.Content)
	assert.Zero(t, res.Skipped)
}

func TestPreprocessor_SplitsOversizedParagraph(t *testing.T) {
	p := NewPreprocessor(PreprocessorConfig{MaxSegmentRunes: 10}, nil)

	res, err := p.Run(context.Background(), strings.Repeat("流", 25))

	require.NoError(t, err)
	assert.Len(t, res.Segments, 3)
}

func TestPreprocessor_SkipsFailingSegments(t *testing.T) {
	failSecond := func(_ context.Context, text string) (string, error) {
		if strings.Contains(text, "bad") {
			return "", errors.New("cleanup failed")
		}
		return text, nil
	}
	slow := func(ctx context.Context, text string) (string, error) {
		if strings.Contains(text, "slow") {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return text, nil
	}
	p := NewPreprocessor(PreprocessorConfig{MaxSegmentRunes: 100, SegmentTimeout: 20 * time.Millisecond}, nil, failSecond, slow)

	res, err := p.Run(context.Background(), "good one\n\nbad one\n\nslow one\n\ngood two")

	require.NoError(t, err)
	assert.Equal(t, 2, res.Skipped)
	require.Len(t, res.Segments, 2)
	assert.Equal(t, "seg-1", res.Segments[1].ID)
	assert.Equal(t, "good two", res.Segments[1].Text)
}

func TestPreprocessor_EmptyInput(t *testing.T) {
	p := NewPreprocessor(DefaultPreprocessorConfig(), nil)

	_, err := p.Run(context.Background(), "\n\n  \n")
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestStripMarkup(t *testing.T) {
	out, err := StripMarkup(context.Background(), `See <b>this</b> ![diagram](arch.png) now`)

	require.NoError(t, err)
	assert.Equal(t, "See this  now", out)
}
