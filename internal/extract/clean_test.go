package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanTextRejectsDebugContent(t *testing.T) {
	samples := []string{
		"[vite] connected.",
		"console.log('ready')",
		"listening on localhost:3000",
		"GET /api/documents 200",
		"goroutine 12 [running]:",
	}
	for _, sample := range samples {
		text, improvements := CleanText(sample)
		require.Empty(t, text, "sample should be rejected: %s", sample)
		require.Equal(t, []string{"rejected debug content"}, improvements)
	}
}

func TestCleanTextFixesConfusions(t *testing.T) {
	text, improvements := CleanText("Tlie rate is 2. 5 %")
	require.Equal(t, "The rate is 2.5%", text)
	require.Contains(t, improvements, "fixed Tlie -> The")
}

func TestCleanTextRepairsCurrency(t *testing.T) {
	text, _ := CleanText("Monthly fee: $ 25 plus 0. 10 per transaction")
	require.Contains(t, text, "$25")
	require.Contains(t, text, "0.10")
}

func TestCleanTextStandaloneLetterFix(t *testing.T) {
	text, _ := CleanText("l agree to tlie terms")
	require.Equal(t, "I agree to the terms", text)
}

func TestCleanTextCollapsesWhitespace(t *testing.T) {
	text, _ := CleanText("rates    and\t\t\tfees")
	require.Equal(t, "rates and fees", text)
}

func TestIsDebugContent(t *testing.T) {
	require.True(t, IsDebugContent("Download the React DevTools for a better experience"))
	require.False(t, IsDebugContent("TSYS interchange rates for retail merchants"))
}
