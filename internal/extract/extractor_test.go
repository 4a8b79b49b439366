package extract

import (
	"context"
	"testing"

	appErr "github.com/merchantiq/docengine/internal/pkg/errors"

	"github.com/merchantiq/docengine/internal/config"
	"github.com/merchantiq/docengine/internal/model"
	"github.com/stretchr/testify/require"
)

func newTextOnlyService() *Service {
	return NewService(nil, config.OCRConfig{}, 50)
}

func TestExtractPlainText(t *testing.T) {
	svc := newTextOnlyService()
	res, err := svc.Extract(context.Background(), []byte("Clearent offers interchange-plus pricing at 0.15% markup"), "text/plain")
	require.NoError(t, err)
	require.Equal(t, model.MethodTextFile, res.Method)
	require.InDelta(t, 100, res.Confidence, 0.001)
	require.Contains(t, res.Text, "interchange-plus")
	require.Greater(t, res.WordCount, 0)
}

func TestExtractPlainRejectsDebugContent(t *testing.T) {
	svc := newTextOnlyService()
	res, err := svc.Extract(context.Background(), []byte("10:42:07 AM [express] GET /api/documents 200 in 12ms"), "text/plain")
	require.NoError(t, err)
	require.Empty(t, res.Text)
	require.InDelta(t, 0, res.Confidence, 0.001)
	require.Equal(t, model.MethodFailed, res.Method)
}

func TestExtractMarkdownRejectsDebugContent(t *testing.T) {
	svc := newTextOnlyService()
	res, err := svc.Extract(context.Background(), []byte("# Notes\n\nconsole.log('connected to localhost:5173')\n"), "text/markdown")
	require.NoError(t, err)
	require.Empty(t, res.Text)
	require.InDelta(t, 0, res.Confidence, 0.001)
	require.Equal(t, model.MethodFailed, res.Method)
}

func TestExtractMarkdownStripsFormatting(t *testing.T) {
	svc := newTextOnlyService()
	res, err := svc.Extract(context.Background(), []byte("# Rates\n\nThe **qualified** rate is 1.89%.\n"), "text/markdown")
	require.NoError(t, err)
	require.Contains(t, res.Text, "qualified")
	require.NotContains(t, res.Text, "**")
	require.NotContains(t, res.Text, "#")
}

func TestExtractUnsupportedMimeType(t *testing.T) {
	svc := newTextOnlyService()
	_, err := svc.Extract(context.Background(), []byte("zzz"), "application/zip")
	require.Error(t, err)
	require.ErrorIs(t, err, appErr.ErrExtractionFailed)
}
