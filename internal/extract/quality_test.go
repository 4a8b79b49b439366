package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssessQualityExcellent(t *testing.T) {
	a := AssessQuality(92, 500, 80)
	require.Equal(t, QualityExcellent, a.Quality)
}

func TestAssessQualityGood(t *testing.T) {
	a := AssessQuality(75, 150, 25)
	require.Equal(t, QualityGood, a.Quality)
}

func TestAssessQualityFair(t *testing.T) {
	a := AssessQuality(60, 80, 15)
	require.Equal(t, QualityFair, a.Quality)

	// Few words on a fair read warrants a re-scan suggestion.
	a = AssessQuality(60, 80, 5)
	require.Len(t, a.Recommendations, 2)
}

func TestAssessQualityPoor(t *testing.T) {
	a := AssessQuality(30, 500, 80)
	require.Equal(t, QualityPoor, a.Quality)

	// High confidence on almost no text is still poor.
	a = AssessQuality(95, 10, 2)
	require.Equal(t, QualityPoor, a.Quality)
}

func TestAssessQualityBoundaries(t *testing.T) {
	// 85 confidence but text just at the 200 limit drops to good.
	a := AssessQuality(85, 200, 30)
	require.Equal(t, QualityGood, a.Quality)
}
