package ingest

import (
	"fmt"
	"strings"

	"github.com/merchantiq/docengine/internal/model"
)

type nameHint struct {
	key  string
	hint string
}

// vendorHints maps filename keywords to the vendor line included in a
// generated description. First match wins.
var vendorHints = []nameHint{
	{"tsys", "TSYS payment processing"},
	{"clearent", "Clearent payment processing"},
	{"shift4", "Shift4 payment processing"},
	{"firstdata", "First Data payment processing"},
	{"fiserv", "Fiserv payment processing"},
	{"authorize", "Authorize.Net gateway"},
	{"stripe", "Stripe payments"},
	{"paypal", "PayPal payments"},
	{"square", "Square payments"},
}

var topicHints = []nameHint{
	{"rate", "pricing and rate information"},
	{"pricing", "pricing and rate information"},
	{"fee", "fee schedules"},
	{"terminal", "payment terminal hardware"},
	{"pos", "point-of-sale equipment"},
	{"gateway", "payment gateway integration"},
	{"agreement", "merchant agreement terms"},
	{"contract", "merchant agreement terms"},
	{"comparison", "processor comparison material"},
	{"setup", "account setup and onboarding"},
	{"statement", "merchant statement analysis"},
}

// GenerateDescription builds a searchable stub for documents whose
// file yields no usable text, so they still surface in keyword search.
func GenerateDescription(doc *model.Document) string {
	lower := strings.ToLower(doc.Name)
	var parts []string
	for _, h := range vendorHints {
		if strings.Contains(lower, h.key) {
			parts = append(parts, h.hint)
			break
		}
	}
	for _, h := range topicHints {
		if strings.Contains(lower, h.key) {
			parts = append(parts, h.hint)
			break
		}
	}
	if doc.Category != "" {
		parts = append(parts, fmt.Sprintf("category: %s", doc.Category))
	}
	if len(doc.Tags) > 0 {
		parts = append(parts, strings.Join(doc.Tags, ", "))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("Document: %s. No extractable text content.", doc.Name)
	}
	return fmt.Sprintf("Document: %s. Covers %s.", doc.Name, strings.Join(parts, "; "))
}
