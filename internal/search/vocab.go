package search

import (
	"strings"
)

// vocabulary maps sales-floor phrasing onto the terms documents
// actually use, so "what do you charge" still finds rate sheets.
var vocabulary = map[string][]string{
	"rates":      {"pricing", "fees", "cost", "charge", "interchange"},
	"rate":       {"pricing", "fees", "cost", "charge"},
	"pricing":    {"rates", "fees", "cost"},
	"fees":       {"rates", "pricing", "charges", "cost"},
	"processor":  {"processing", "payment processor", "acquirer"},
	"processing": {"processor", "payments"},
	"pos":        {"point of sale", "terminal", "register"},
	"terminal":   {"pos", "hardware", "device"},
	"restaurant": {"food service", "hospitality", "dining"},
	"retail":     {"store", "merchant", "brick and mortar"},
	"ecommerce":  {"online", "e-commerce", "web", "virtual terminal"},
	"online":     {"ecommerce", "web", "internet"},
	"compare":    {"comparison", "versus", "vs", "difference"},
	"comparison": {"compare", "versus", "difference"},
	"setup":      {"onboarding", "installation", "activation"},
	"support":    {"help", "service", "assistance", "troubleshooting"},
	"gateway":    {"payment gateway", "api", "integration"},
}

// ExpandQuery appends vocabulary synonyms for each recognized query
// term. The original words always come first so exact matches keep
// scoring highest.
func ExpandQuery(query string) []string {
	words := tokenize(query)
	seen := make(map[string]struct{}, len(words))
	expanded := make([]string, 0, len(words))
	add := func(w string) {
		if _, ok := seen[w]; ok {
			return
		}
		seen[w] = struct{}{}
		expanded = append(expanded, w)
	}
	for _, w := range words {
		add(w)
	}
	for _, w := range words {
		for _, synonym := range vocabulary[w] {
			add(synonym)
		}
	}
	return expanded
}

func tokenize(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:\"'()")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
