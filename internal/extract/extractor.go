// Package extract turns PDF pages into positioned text spans, reading the
// native text layer when there is one and falling back to OCR otherwise.
package extract

import (
	"context"
	"slices"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/gcbaptista/prism/config"
	"github.com/gcbaptista/prism/internal/errors"
	"github.com/gcbaptista/prism/internal/logger"
	"github.com/gcbaptista/prism/internal/merge"
	"github.com/gcbaptista/prism/model"
)

// Extractor reads spans from PDF files.
type Extractor struct {
	cfg  config.ExtractConfig
	ocr  OCREngine
	lang LanguageDetector
	log  logger.Logger
}

// Option customises an Extractor.
type Option func(*Extractor)

// WithOCREngine replaces the OCR engine (nil disables OCR).
func WithOCREngine(engine OCREngine) Option {
	return func(e *Extractor) { e.ocr = engine }
}

// WithLanguageDetector replaces the language detector.
func WithLanguageDetector(d LanguageDetector) Option {
	return func(e *Extractor) { e.lang = d }
}

// NewExtractor creates an Extractor. OCR uses the tesseract CLI unless
// disabled in cfg or replaced with WithOCREngine.
func NewExtractor(cfg config.ExtractConfig, log logger.Logger, opts ...Option) *Extractor {
	e := &Extractor{
		cfg:  cfg,
		lang: WhatlangDetector{},
		log:  log,
	}
	if cfg.OCREnabled {
		e.ocr = NewTesseractOCR(cfg)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the spans of every page of the PDF at path, sorted by
// (page, top, left). Native spans are merged into logical lines; OCR lines
// are already line-grouped. A page that cannot be read is logged and skipped.
func (e *Extractor) Extract(ctx context.Context, path string) ([]model.Span, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, errors.NewExtractionError(path, 0, err)
	}
	defer f.Close()

	var spans []model.Span
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		glyphs, err := pageGlyphs(page)
		if err != nil {
			e.log.Warn("Skipping unreadable page", "path", path, "page", i, "error", err)
			continue
		}

		if len(glyphs) == 0 {
			spans = append(spans, e.ocrPage(ctx, path, i)...)
			continue
		}

		raw := GlyphSpans(glyphs, i, pageHeight(page), e.lang)
		slices.SortStableFunc(raw, model.Compare)
		spans = append(spans, merge.Merge(raw)...)
	}

	slices.SortStableFunc(spans, model.Compare)
	e.log.Debug("Extracted spans", "path", path, "pages", r.NumPage(), "spans", len(spans))
	return spans, nil
}

func (e *Extractor) ocrPage(ctx context.Context, path string, page int) []model.Span {
	if e.ocr == nil {
		e.log.Debug("Page has no text layer and OCR is disabled", "path", path, "page", page)
		return nil
	}
	words, scale, err := e.ocr.RecognizePage(ctx, path, page)
	if err != nil {
		e.log.Warn("OCR failed, skipping page", "path", path, "page", page, "error", err)
		return nil
	}
	return GroupWords(words, e.cfg.MinConfidence, scale, page, e.lang)
}

// PageTexts returns the raw text of each page, in order. Pages that cannot
// be decoded yield an empty string.
func (e *Extractor) PageTexts(ctx context.Context, path string) ([]string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, errors.NewExtractionError(path, 0, err)
	}
	defer f.Close()

	texts := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			texts = append(texts, "")
			continue
		}
		text, err := pagePlainText(page)
		if err != nil {
			e.log.Warn("Skipping page text", "path", path, "page", i, "error", err)
		}
		texts = append(texts, strings.TrimSpace(text))
	}
	return texts, nil
}

// Title returns the Title entry of the document info dictionary, if any.
func Title(path string) string {
	f, r, err := pdf.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	return strings.TrimSpace(r.Trailer().Key("Info").Key("Title").Text())
}
