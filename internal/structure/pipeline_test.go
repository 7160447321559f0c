package structure

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/prism/config"
	"github.com/gcbaptista/prism/internal/errors"
	"github.com/gcbaptista/prism/internal/logger"
	"github.com/gcbaptista/prism/model"
)

type stubExtractor struct {
	spans []model.Span
	err   error
}

func (s stubExtractor) Extract(context.Context, string) ([]model.Span, error) {
	return s.spans, s.err
}

func span(text string, page int, top, size float64) model.Span {
	return model.Span{
		Text:     text,
		Page:     page,
		BBox:     model.BBox{Left: 72, Top: top, Right: 500, Bottom: top + size},
		FontSize: size,
	}
}

func newPipeline(t *testing.T, spans []model.Span) *Pipeline {
	t.Helper()
	p, err := NewPipeline(config.Default().Structure, stubExtractor{spans: spans}, logger.NewNop())
	require.NoError(t, err)
	return p
}

func TestRun_MultiPageReport(t *testing.T) {
	spans := []model.Span{
		span("Annual Report", 1, 60, 24),
		span("Prepared for the board", 1, 500, 11),
		span("1. Introduction", 2, 100, 18),
		span("The study covers several regions in detail.", 2, 130, 11),
		span("It was run over two years.", 2, 150, 11),
		span("2. Methods", 2, 400, 18),
		span("Surveys were collected from every office.", 2, 430, 11),
		span("Interviews followed the surveys.", 3, 80, 11),
	}

	res, err := newPipeline(t, spans).Run(context.Background(), "/docs/report.pdf")
	require.NoError(t, err)

	assert.Equal(t, "Annual Report", res.Title)
	assert.Equal(t, 3, res.PageCount)
	assert.Equal(t, []model.OutlineEntry{
		{Level: "H1", Text: "1. Introduction", Page: 1},
		{Level: "H1", Text: "2. Methods", Page: 1},
	}, res.Outline.Outline)

	require.Len(t, res.Sections, 2)
	assert.Equal(t, "The study covers several regions in detail. It was run over two years.", res.Sections[0].Text)
	assert.Equal(t, "Surveys were collected from every office. Interviews followed the surveys.", res.Sections[1].Text)
}

func TestRun_FlyerFallback(t *testing.T) {
	spans := []model.Span{
		span("Summer picnic", 1, 450, 12),
		span("Bring snacks", 1, 500, 12),
		span("See you soon", 1, 550, 12),
	}

	res, err := newPipeline(t, spans).Run(context.Background(), "flyer.pdf")
	require.NoError(t, err)

	assert.Empty(t, res.Title)
	assert.Equal(t, "flyer", res.SectionsTitle("flyer.pdf"))
	require.Len(t, res.Outline.Outline, 2)
	assert.Equal(t, model.OutlineEntry{Level: "H1", Text: "Summer picnic", Page: 0}, res.Outline.Outline[0])
	assert.Equal(t, model.OutlineEntry{Level: "H2", Text: "Bring snacks", Page: 0}, res.Outline.Outline[1])
}

func TestRun_InviteForm(t *testing.T) {
	spans := []model.Span{
		span("Party Invitation", 1, 40, 22),
		span("For: Kids and parents", 1, 100, 12),
		span("Date: Friday", 1, 120, 12),
		span("RSVP: Mary", 1, 140, 12),
		span("HOPE TO SEE YOU THERE!", 1, 600, 20),
	}

	res, err := newPipeline(t, spans).Run(context.Background(), "invite.pdf")
	require.NoError(t, err)

	assert.Empty(t, res.Title, "invitation forms have no title")
	assert.Equal(t, []model.OutlineEntry{{Level: "H1", Text: "HOPE TO SEE YOU THERE!", Page: 0}}, res.Outline.Outline)
}

func TestRun_Errors(t *testing.T) {
	_, err := newPipeline(t, nil).Run(context.Background(), "empty.pdf")
	assert.True(t, errors.Is(err, errors.ErrEmptyStructure))

	boom := stderrors.New("boom")
	p, err := NewPipeline(config.Default().Structure, stubExtractor{err: boom}, logger.NewNop())
	require.NoError(t, err)
	_, err = p.Run(context.Background(), "broken.pdf")
	assert.ErrorIs(t, err, boom)
}

func TestBuildOutline(t *testing.T) {
	headings := []model.Span{
		span("Later", 3, 50, 14).WithLevel("H2"),
		span("Untagged", 1, 300, 14),
		span("First", 1, 100, 18).WithLevel("H1"),
	}
	assert.Equal(t, []model.OutlineEntry{
		{Level: "H1", Text: "First", Page: 1},
		{Level: "H3", Text: "Untagged", Page: 1},
		{Level: "H2", Text: "Later", Page: 2},
	}, BuildOutline(headings, 3))

	assert.Equal(t, 0, LogicalPage(1, 1))
	assert.NotNil(t, BuildOutline(nil, 1))
}

func TestOutlineValidator(t *testing.T) {
	v, err := NewOutlineValidator()
	require.NoError(t, err)

	assert.NoError(t, v.Validate(model.Outline{Title: "T", Outline: []model.OutlineEntry{{Level: "H2", Text: "x", Page: 3}}}))

	err = v.Validate(model.Outline{Title: "T", Outline: []model.OutlineEntry{{Level: "H9", Text: "x", Page: 1}}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSchemaViolation))
}
