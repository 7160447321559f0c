// Package structure runs the document structuring pipeline: extraction,
// title detection, heading classification, outline and section assembly.
package structure

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gcbaptista/prism/config"
	"github.com/gcbaptista/prism/internal/assemble"
	"github.com/gcbaptista/prism/internal/classify"
	"github.com/gcbaptista/prism/internal/errors"
	"github.com/gcbaptista/prism/internal/logger"
	"github.com/gcbaptista/prism/model"
)

// SpanExtractor produces the sorted, line-merged spans of a PDF.
type SpanExtractor interface {
	Extract(ctx context.Context, path string) ([]model.Span, error)
}

// Result is the structure of one document.
type Result struct {
	// Title is the detected title; it is empty for invitation forms.
	Title     string
	Outline   model.Outline
	Sections  []model.Section
	PageCount int
}

// SectionsTitle returns the title to store with the document's sections,
// falling back to the file stem when no title was detected.
func (r *Result) SectionsTitle(path string) string {
	if r.Title != "" {
		return r.Title
	}
	return Stem(path)
}

// Stem returns the file name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Pipeline structures documents. It is safe for concurrent use: every Run
// works on its own spans.
type Pipeline struct {
	cfg        config.StructureConfig
	extractor  SpanExtractor
	classifier *classify.Classifier
	validator  *OutlineValidator
	log        logger.Logger
}

// NewPipeline builds a pipeline around extractor.
func NewPipeline(cfg config.StructureConfig, extractor SpanExtractor, log logger.Logger) (*Pipeline, error) {
	classifier := classify.NewClassifier()
	classifier.MinProbability = cfg.HeadingMinProb
	classifier.MinFontZ = cfg.HeadingMinZFont
	classifier.MaxLevels = cfg.MaxLevels

	p := &Pipeline{
		cfg:        cfg,
		extractor:  extractor,
		classifier: classifier,
		log:        log,
	}
	if cfg.ValidateOutline {
		validator, err := NewOutlineValidator()
		if err != nil {
			return nil, err
		}
		p.validator = validator
	}
	return p, nil
}

// Run structures the PDF at path.
func (p *Pipeline) Run(ctx context.Context, path string) (*Result, error) {
	spans, err := p.extractor.Extract(ctx, path)
	if err != nil {
		return nil, err
	}
	if len(spans) == 0 {
		return nil, fmt.Errorf("%w: no text in %s", errors.ErrEmptyStructure, filepath.Base(path))
	}
	return p.Structure(spans, path)
}

// Structure applies the classification steps to already extracted spans.
func (p *Pipeline) Structure(spans []model.Span, path string) (*Result, error) {
	pageCount := model.PageCount(spans)
	title := classify.DetectTitle(spans, p.cfg.TitleTopLimit)

	invite := pageCount == 1 && classify.IsInviteForm(spans)
	if invite {
		title = ""
	}

	filtered := classify.FilterSpans(spans, title, pageCount, classify.FilterOptions{
		StopsetRatio:      p.cfg.StopsetRatio,
		StopsetMinRepeats: p.cfg.StopsetMinRepeats,
	})
	headings := p.classifier.Predict(filtered)

	if invite {
		if pick, ok := classify.PickCalloutHeading(spans); ok {
			headings = []model.Span{pick}
		}
	}
	if pageCount == 1 && len(headings) == 0 && title == "" {
		headings = classify.FlyerHeadings(filtered)
	}

	outline := model.Outline{Title: title, Outline: BuildOutline(headings, pageCount)}
	if p.validator != nil {
		if err := p.validator.Validate(outline); err != nil {
			return nil, err
		}
	}

	result := &Result{
		Title:     title,
		Outline:   outline,
		Sections:  assemble.Sections(headings, spans, pageCount),
		PageCount: pageCount,
	}
	p.log.Debug("Structured document",
		"path", path,
		"pages", pageCount,
		"headings", len(headings),
		"invite", invite)
	return result, nil
}
