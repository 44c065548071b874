package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"ai-docview-be/internal/pkg/logger"
	"ai-docview-be/pkg/utils"
	"ai-docview-be/pkg/view"
)

// CleanupFunc rewrites one segment. Returning an empty string drops it.
type CleanupFunc func(ctx context.Context, text string) (string, error)

type PreprocessorConfig struct {
	MaxSegmentRunes int
	Overlap         int
	SegmentTimeout  time.Duration
}

func DefaultPreprocessorConfig() PreprocessorConfig {
	return PreprocessorConfig{
		MaxSegmentRunes: 1200,
		Overlap:         0,
		SegmentTimeout:  2 * time.Second,
	}
}

type Result struct {
	Content  string
	Segments []view.Segment
	Skipped  int
}

// Preprocessor normalises raw text and cuts it into addressable segments.
type Preprocessor struct {
	cfg    PreprocessorConfig
	hooks  []CleanupFunc
	logger logger.ILogger
}

var (
	trailingSpace = regexp.MustCompile(`[ \t]+\n`)
	blankRun      = regexp.MustCompile(`\n{3,}`)
	htmlTag       = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
	markdownImage = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
)

func NewPreprocessor(cfg PreprocessorConfig, log logger.ILogger, hooks ...CleanupFunc) *Preprocessor {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if cfg.MaxSegmentRunes <= 0 {
		cfg.MaxSegmentRunes = DefaultPreprocessorConfig().MaxSegmentRunes
	}
	return &Preprocessor{cfg: cfg, hooks: hooks, logger: log}
}

// Run segments raw. A segment whose cleanup fails or exceeds SegmentTimeout
// is skipped and counted; the rest of the document still goes through.
func (p *Preprocessor) Run(ctx context.Context, raw string) (*Result, error) {
	text := normalize(raw)
	if text == "" {
		return nil, ErrEmptyContent
	}

	var segments []view.Segment
	skipped := 0
	for _, chunk := range p.chunks(text) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cleaned, err := p.clean(ctx, chunk)
		if err != nil {
			skipped++
			p.logger.Warn("Preprocessor", "Segment cleanup failed, skipping", map[string]interface{}{
				"error": err.Error(),
				"runes": len([]rune(chunk)),
			})
			continue
		}
		cleaned = strings.TrimSpace(cleaned)
		if cleaned == "" {
			continue
		}

		idx := len(segments)
		segments = append(segments, view.Segment{ID: view.SegmentID(idx), Index: idx, Text: cleaned})
	}

	if len(segments) == 0 {
		return nil, ErrEmptyContent
	}

	texts := make([]string, len(segments))
	for i, s := range segments {
		texts[i] = s.Text
	}
	return &Result{
		Content:  strings.Join(texts, "\n\n"),
		Segments: segments,
		Skipped:  skipped,
	}, nil
}

func (p *Preprocessor) chunks(text string) []string {
	var out []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len([]rune(para)) > p.cfg.MaxSegmentRunes {
			out = append(out, utils.SplitText(para, p.cfg.MaxSegmentRunes, p.cfg.Overlap)...)
			continue
		}
		out = append(out, para)
	}
	return out
}

func (p *Preprocessor) clean(ctx context.Context, text string) (string, error) {
	if len(p.hooks) == 0 {
		return text, nil
	}
	if p.cfg.SegmentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.SegmentTimeout)
		defer cancel()
	}

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("cleanup panicked: %v", r)}
			}
		}()
		current := text
		for _, hook := range p.hooks {
			next, err := hook(ctx, current)
			if err != nil {
				done <- outcome{err: err}
				return
			}
			current = next
		}
		done <- outcome{text: current}
	}()

	select {
	case res := <-done:
		return res.text, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func normalize(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = trailingSpace.ReplaceAllString(text, "\n")
	text = blankRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// StripMarkup removes HTML tags and markdown images, which carry no analysable text.
func StripMarkup(_ context.Context, text string) (string, error) {
	text = markdownImage.ReplaceAllString(text, "")
	return htmlTag.ReplaceAllString(text, ""), nil
}
