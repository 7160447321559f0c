package extract

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/gcbaptista/prism/config"
	"github.com/gcbaptista/prism/internal/errors"
	"github.com/gcbaptista/prism/model"
)

// OCRWord is one recognised word with its box in raster pixels.
type OCRWord struct {
	Block, Paragraph, Line int
	Left, Top              int
	Width, Height          int
	Confidence             float64
	Text                   string
}

// OCREngine recognises the words of one page of a PDF.
// Scale converts the returned pixel boxes to PDF points.
type OCREngine interface {
	RecognizePage(ctx context.Context, pdfPath string, page int) (words []OCRWord, scale float64, err error)
}

// TesseractOCR renders a page with pdftoppm and recognises it with the
// tesseract CLI in TSV mode.
type TesseractOCR struct {
	cfg config.ExtractConfig
}

// NewTesseractOCR creates a TesseractOCR from the extraction config.
func NewTesseractOCR(cfg config.ExtractConfig) *TesseractOCR {
	return &TesseractOCR{cfg: cfg}
}

// Available reports whether both binaries can be found on PATH.
func (o *TesseractOCR) Available() error {
	for _, bin := range []string{o.cfg.PdftoppmBin, o.cfg.TesseractBin} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("%w: %s: %v", errors.ErrOCRUnavailable, bin, err)
		}
	}
	return nil
}

// RecognizePage renders page (1-based) at the configured DPI and runs OCR on it.
func (o *TesseractOCR) RecognizePage(ctx context.Context, pdfPath string, page int) ([]OCRWord, float64, error) {
	if err := o.Available(); err != nil {
		return nil, 0, err
	}

	tmp, err := os.MkdirTemp("", "prism-ocr-*")
	if err != nil {
		return nil, 0, err
	}
	defer os.RemoveAll(tmp)

	prefix := filepath.Join(tmp, "page")
	pageArg := strconv.Itoa(page)
	render := exec.CommandContext(ctx, o.cfg.PdftoppmBin,
		"-r", strconv.Itoa(o.cfg.OCRDPI), "-f", pageArg, "-l", pageArg, "-png", "-singlefile", pdfPath, prefix)
	if out, err := render.CombinedOutput(); err != nil {
		return nil, 0, fmt.Errorf("pdftoppm page %d: %v: %s", page, err, strings.TrimSpace(string(out)))
	}

	args := []string{prefix + ".png", "stdout"}
	if o.cfg.OCRLanguages != "" {
		args = append(args, "-l", o.cfg.OCRLanguages)
	}
	args = append(args, "tsv")
	recognize := exec.CommandContext(ctx, o.cfg.TesseractBin, args...)
	stdout, err := recognize.Output()
	if err != nil {
		return nil, 0, fmt.Errorf("tesseract page %d: %w", page, err)
	}

	words, err := ParseTSV(strings.NewReader(string(stdout)))
	if err != nil {
		return nil, 0, err
	}
	return words, 72.0 / float64(o.cfg.OCRDPI), nil
}

// ParseTSV reads tesseract TSV output and returns the word rows (level 5).
// Malformed rows are skipped.
func ParseTSV(r io.Reader) ([]OCRWord, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var words []OCRWord
	header := true
	for sc.Scan() {
		if header {
			header = false
			continue
		}
		cols := strings.Split(sc.Text(), "\t")
		if len(cols) < 12 || cols[0] != "5" {
			continue
		}
		ints := make([]int, 9)
		ok := true
		for i := 0; i < 9; i++ {
			v, err := strconv.Atoi(cols[i+1])
			if err != nil {
				ok = false
				break
			}
			ints[i] = v
		}
		if !ok {
			continue
		}
		conf, err := strconv.ParseFloat(cols[10], 64)
		if err != nil {
			conf = -1
		}
		words = append(words, OCRWord{
			Block:      ints[1],
			Paragraph:  ints[2],
			Line:       ints[3],
			Left:       ints[5],
			Top:        ints[6],
			Width:      ints[7],
			Height:     ints[8],
			Confidence: conf,
			Text:       strings.Join(cols[11:], "\t"),
		})
	}
	return words, sc.Err()
}

type lineKey struct{ block, par, line int }

type lineGroup struct {
	words   []string
	box     model.BBox
	heights []float64
}

// GroupWords turns OCR words into one span per (block, paragraph, line).
// Words below minConfidence are dropped, boxes are scaled to points and the
// font size is the mean word height. Lines are returned sorted by (top, left).
func GroupWords(words []OCRWord, minConfidence int, scale float64, page int, lang LanguageDetector) []model.Span {
	if scale <= 0 {
		scale = 1
	}
	groups := make(map[lineKey]*lineGroup)
	var order []lineKey
	for _, w := range words {
		txt := strings.TrimSpace(w.Text)
		if txt == "" || int(w.Confidence) < minConfidence {
			continue
		}
		box := model.BBox{
			Left:   float64(w.Left) * scale,
			Top:    float64(w.Top) * scale,
			Right:  float64(w.Left+w.Width) * scale,
			Bottom: float64(w.Top+w.Height) * scale,
		}
		key := lineKey{w.Block, w.Paragraph, w.Line}
		g, ok := groups[key]
		if !ok {
			g = &lineGroup{box: box}
			groups[key] = g
			order = append(order, key)
		} else {
			g.box = g.box.Union(box)
		}
		g.words = append(g.words, txt)
		g.heights = append(g.heights, float64(w.Height)*scale)
	}

	spans := make([]model.Span, 0, len(order))
	for _, key := range order {
		g := groups[key]
		text := strings.TrimSpace(strings.Join(g.words, " "))
		if text == "" {
			continue
		}
		sum := 0.0
		for _, h := range g.heights {
			sum += h
		}
		spans = append(spans, model.Span{
			Text:     text,
			Page:     page,
			BBox:     g.box,
			FontSize: sum / float64(max(1, len(g.heights))),
			FontName: "OCR",
			Lang:     lang.Detect(text),
		})
	}
	slices.SortStableFunc(spans, model.Compare)
	return spans
}
