package extract

type Quality string

const (
	QualityExcellent Quality = "excellent"
	QualityGood      Quality = "good"
	QualityFair      Quality = "fair"
	QualityPoor      Quality = "poor"
)

type Assessment struct {
	Quality         Quality  `json:"quality"`
	Recommendations []string `json:"recommendations"`
}

// AssessQuality grades an extraction. Confidence is on the recognizer's 0-100
// scale.
func AssessQuality(confidence float64, textLength, wordCount int) Assessment {
	switch {
	case confidence >= 85 && textLength > 200 && wordCount > 20:
		return Assessment{
			Quality:         QualityExcellent,
			Recommendations: []string{"High-quality extraction achieved"},
		}
	case confidence >= 70 && textLength > 100:
		return Assessment{
			Quality:         QualityGood,
			Recommendations: []string{"Good extraction with minor artifacts"},
		}
	case confidence >= 50 && textLength > 50:
		recs := []string{"Acceptable extraction, may need manual review"}
		if wordCount < 10 {
			recs = append(recs, "Consider re-scanning at higher resolution")
		}
		return Assessment{Quality: QualityFair, Recommendations: recs}
	default:
		return Assessment{
			Quality: QualityPoor,
			Recommendations: []string{
				"Low-quality extraction, manual review required",
				"Consider improving image quality or scanning settings",
			},
		}
	}
}
