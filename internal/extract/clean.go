package extract

import (
	"regexp"
	"strings"
)

// debugSignatures match tooling output (console logs, dev-server banners,
// request logs) that occasionally ends up in front of the recognizer instead
// of a real document. Matching text is rejected outright rather than indexed.
var debugSignatures = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Download the React DevTools`),
	regexp.MustCompile(`(?i)\[vite\] (?:connected|connecting|hot updated)`),
	regexp.MustCompile(`(?i)Banner not shown: beforeinstallprompt`),
	regexp.MustCompile(`(?i)console\.(log|warn|error|debug)`),
	regexp.MustCompile(`(?i)localhost:\d+`),
	regexp.MustCompile(`(?i)\d+:\d+:\d+ (AM|PM) \[express\]`),
	regexp.MustCompile(`(?i)sessionId: [a-zA-Z0-9]+`),
	regexp.MustCompile(`(?i)(GET|POST|PUT|DELETE|PATCH) /api`),
	regexp.MustCompile(`(?i)Cleared \d+ popup flags`),
	regexp.MustCompile(`goroutine \d+ \[`),
}

type confusionFix struct {
	pattern     *regexp.Regexp
	replacement string
	description string
}

// confusionFixes repair character pairs the recognizer frequently swaps.
var confusionFixes = []confusionFix{
	{regexp.MustCompile(`\bl\b`), "I", "fixed l -> I"},
	// Space-delimited only: a zero followed by punctuation is usually a
	// real number ("0. 10" is a split decimal, not a letter O).
	{regexp.MustCompile(`(^|\s)0($|\s)`), "${1}O${2}", "fixed 0 -> O"},
	{regexp.MustCompile(`\bTlie\b`), "The", "fixed Tlie -> The"},
	{regexp.MustCompile(`\btlie\b`), "the", "fixed tlie -> the"},
	{regexp.MustCompile(`\bWlien\b`), "When", "fixed Wlien -> When"},
	{regexp.MustCompile(`\bwlien\b`), "when", "fixed wlien -> when"},
	{regexp.MustCompile(`vv`), "w", "fixed vv -> w"},
}

var (
	artifactChars  = regexp.MustCompile(`[^\w\s\-.,!?@#$%^&*()+={}\[\]:;"'<>/\\|` + "`" + `~]`)
	repeatSpace    = regexp.MustCompile(`[ \t]{3,}`)
	repeatNewline  = regexp.MustCompile(`[\r\n]{3,}`)
	currencySpace  = regexp.MustCompile(`\$\s+(\d)`)
	percentSpace   = regexp.MustCompile(`(\d)\s+%`)
	decimalSpace   = regexp.MustCompile(`(\d)\s*\.\s*(\d)`)
	punctuationGap = regexp.MustCompile(`\s*([.,:;!?])\s*`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
)

// IsDebugContent reports whether raw recognizer output looks like tooling
// output rather than document content.
func IsDebugContent(text string) bool {
	for _, sig := range debugSignatures {
		if sig.MatchString(text) {
			return true
		}
	}
	return false
}

// CleanText post-processes recognizer output. It returns the cleaned text and
// the list of applied improvements; rejected debug content comes back empty.
func CleanText(raw string) (string, []string) {
	var improvements []string

	if IsDebugContent(raw) {
		return "", []string{"rejected debug content"}
	}

	text := raw
	if cleaned := artifactChars.ReplaceAllString(text, ""); cleaned != text {
		text = cleaned
		improvements = append(improvements, "artifacts removed")
	}
	text = repeatSpace.ReplaceAllString(text, " ")
	text = repeatNewline.ReplaceAllString(text, "\n\n")

	for _, fix := range confusionFixes {
		if fix.pattern.MatchString(text) {
			text = fix.pattern.ReplaceAllString(text, fix.replacement)
			improvements = append(improvements, fix.description)
		}
	}

	text = whitespaceRun.ReplaceAllString(text, " ")
	text = punctuationGap.ReplaceAllString(text, "$1 ")
	improvements = append(improvements, "normalized spacing and punctuation")

	// Number repair runs last: punctuation normalization splits decimals.
	text = currencySpace.ReplaceAllString(text, "$$$1")
	text = percentSpace.ReplaceAllString(text, "$1%")
	text = decimalSpace.ReplaceAllString(text, "$1.$2")
	text = strings.TrimSpace(text)
	improvements = append(improvements, "standardized currency and numbers")

	return text, improvements
}

func countWords(text string) int {
	return len(strings.Fields(text))
}
