package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/merchantiq/docengine/internal/config"
	"github.com/merchantiq/docengine/internal/model"
	"github.com/merchantiq/docengine/internal/pkg/errors"
	"github.com/xxxsen/common/logutil"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gtext "github.com/yuin/goldmark/text"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of extracting one stored file.
type Result struct {
	Text         string
	Confidence   float64
	Method       model.ExtractionMethod
	WordCount    int
	Improvements []string
}

// Service extracts readable text from stored documents. Recognition
// failure is a data condition, not an error: a document whose every
// pass fails yields a MethodFailed result with zero confidence.
type Service struct {
	ocr    *OCRClient
	cfg    config.OCRConfig
	minLen int
	md     goldmark.Markdown
}

func NewService(ocr *OCRClient, cfg config.OCRConfig, minTextLength int) *Service {
	return &Service{
		ocr:    ocr,
		cfg:    cfg,
		minLen: minTextLength,
		md:     goldmark.New(),
	}
}

func (s *Service) Extract(ctx context.Context, data []byte, mimeType string) (*Result, error) {
	switch {
	case mimeType == "application/pdf":
		return s.extractPDF(ctx, data)
	case mimeType == "text/markdown":
		return s.extractMarkdown(data)
	case strings.HasPrefix(mimeType, "text/"):
		return s.extractPlain(data)
	case strings.HasPrefix(mimeType, "image/"):
		return s.extractImage(ctx, data)
	default:
		return nil, fmt.Errorf("%w: unsupported mime type %s", errors.ErrExtractionFailed, mimeType)
	}
}

func (s *Service) extractPlain(data []byte) (*Result, error) {
	cleaned, improvements := CleanText(string(data))
	return textResult(cleaned, improvements, model.MethodTextFile), nil
}

// textResult wraps a cleaned text layer into a result. Cleanup
// rejecting the whole text (debug output, log captures) yields a
// zero-confidence failure no matter which media path produced it.
func textResult(cleaned string, improvements []string, method model.ExtractionMethod) *Result {
	if cleaned == "" {
		return &Result{
			Method:       model.MethodFailed,
			Improvements: improvements,
		}
	}
	return &Result{
		Text:         cleaned,
		Confidence:   100,
		Method:       method,
		WordCount:    countWords(cleaned),
		Improvements: improvements,
	}
}

func (s *Service) extractMarkdown(data []byte) (*Result, error) {
	doc := s.md.Parser().Parse(gtext.NewReader(data))
	var sb strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(data))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte('\n')
			}
		case *ast.Paragraph, *ast.Heading, *ast.ListItem:
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	cleaned, improvements := CleanText(sb.String())
	return textResult(cleaned, improvements, model.MethodTextFile), nil
}

func (s *Service) extractPDF(ctx context.Context, data []byte) (*Result, error) {
	text, err := readPDFText(data)
	if err != nil {
		logutil.GetLogger(ctx).Debug("pdf text layer unreadable, falling back to recognition", zap.Error(err))
	}
	if err == nil {
		cleaned, improvements := CleanText(text)
		if len(cleaned) >= s.minLen {
			return &Result{
				Text:         cleaned,
				Confidence:   100,
				Method:       model.MethodPDFText,
				WordCount:    countWords(cleaned),
				Improvements: improvements,
			}, nil
		}
	}
	// Scanned PDFs carry no usable text layer; hand the raw bytes to
	// the recognizer, which rasterizes pages itself.
	return s.runPasses(ctx, data, nil)
}

func (s *Service) extractImage(ctx context.Context, data []byte) (*Result, error) {
	prepared, improvements := PreprocessImage(data, s.cfg.Preprocess)
	return s.runPasses(ctx, prepared, improvements)
}

// runPasses fans the page out to every recognition pass concurrently and
// keeps the best-scoring output. Score weighs confidence over length so a
// short high-confidence read beats a long garbled one.
func (s *Service) runPasses(ctx context.Context, data []byte, improvements []string) (*Result, error) {
	var (
		mu      sync.Mutex
		results []*OCRResult
	)
	eg, gctx := errgroup.WithContext(ctx)
	for _, pass := range DefaultPasses {
		eg.Go(func() error {
			r, err := s.ocr.Recognize(gctx, data, pass)
			if err != nil {
				logutil.GetLogger(gctx).Warn("recognition pass failed",
					zap.String("pass", pass.Name), zap.Error(err))
				return nil
			}
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	best := pickBest(results)
	if best == nil {
		return &Result{
			Method:       model.MethodFailed,
			Improvements: improvements,
		}, nil
	}
	cleaned, fixes := CleanText(best.Text)
	if cleaned == "" {
		return &Result{
			Method:       model.MethodFailed,
			Improvements: append(improvements, fixes...),
		}, nil
	}
	return &Result{
		Text:         cleaned,
		Confidence:   best.Confidence,
		Method:       model.MethodOCR,
		WordCount:    countWords(cleaned),
		Improvements: append(improvements, fixes...),
	}, nil
}

func pickBest(results []*OCRResult) *OCRResult {
	var best *OCRResult
	bestScore := -1.0
	for _, r := range results {
		lengthScore := float64(len(r.Text)) / 10
		if lengthScore > 100 {
			lengthScore = 100
		}
		score := r.Confidence*0.7 + lengthScore*0.3
		if score > bestScore {
			best = r
			bestScore = score
		}
	}
	return best
}

func readPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var sb strings.Builder
	if _, err := io.Copy(&sb, plain); err != nil {
		return "", fmt.Errorf("copy pdf text: %w", err)
	}
	return sb.String(), nil
}
