package chain

import (
	"fmt"
	"strings"

	"github.com/merchantiq/docengine/internal/ai"
	"github.com/merchantiq/docengine/internal/model"
	"github.com/merchantiq/docengine/internal/websearch"
)

const personaPrompt = `You are an expert assistant for merchant services sales agents, specialized in payment processors, gateways, hardware, pricing, and sales support.`

// intentFocus steers synthesis toward what each question category
// actually needs from the answer.
var intentFocus = map[model.Intent]string{
	model.IntentProcessorInfo:  "Focus on processor-specific information including rates, features, application processes, and technical requirements.",
	model.IntentGatewayInfo:    "Emphasize gateway integration, API capabilities, security features, and technical specifications.",
	model.IntentHardwareInfo:   "Provide detailed hardware specifications, compatibility, pricing, and deployment considerations.",
	model.IntentSalesMaterial:  "Focus on sales enablement, competitive advantages, ROI calculations, and client presentation materials.",
	model.IntentRateComparison: "Prioritize accurate rate analysis, cost breakdowns, fee structures, and competitive positioning.",
	model.IntentGeneral:        "Provide comprehensive merchant services guidance across all areas.",
}

func classificationPrompt(query string, history []ai.Message) string {
	var sb strings.Builder
	sb.WriteString("You are a merchant services expert analyzing sales agent queries. Classify this query and extract key information.\n\n")
	if len(history) > 0 {
		sb.WriteString("CONVERSATION HISTORY:\n")
		sb.WriteString(formatTurns(history))
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "CURRENT QUERY: %q\n\n", query)
	sb.WriteString(`Respond with JSON only, no prose, in this exact shape:
{
  "intent": "processor_info|gateway_info|hardware_info|sales_material|rate_comparison|general",
  "processors": ["mentioned processors"],
  "gateways": ["mentioned gateways"],
  "hardwareTypes": ["mentioned hardware types"],
  "confidence": 0.0,
  "suggestedNamespaces": ["namespaces like processors/tsys"],
  "reasoning": "one sentence on the classification"
}

Known processors: TSYS, Clearent, Shift4, First Data, WorldPay, Square, Stripe, Chase PaymenTech
Known gateways: Authorize.Net, Stripe, PayPal, Braintree, Square
Known hardware: terminals, mobile readers, PIN pads, virtual terminals`)
	return sb.String()
}

func synthesisSystemPrompt(intent model.Intent) string {
	focus, ok := intentFocus[intent]
	if !ok {
		focus = intentFocus[model.IntentGeneral]
	}
	return personaPrompt + `

SPECIALIZED FOCUS: ` + focus + `

KEY PRINCIPLES:
- Prioritize internal document knowledge over web search results
- Provide specific, actionable information with exact rates and fees when available
- Cite document names inline when using internal knowledge
- Be honest about limitations and suggest next steps when the context falls short`
}

// passageClip keeps a single retrieved passage from flooding the
// synthesis context.
const passageClip = 500

func synthesisPrompt(query string, history []ai.Message, results []model.SearchResult, web *websearch.Result) string {
	var sb strings.Builder
	if len(history) > 0 {
		sb.WriteString("CONVERSATION HISTORY:\n")
		sb.WriteString(formatTurns(history))
		sb.WriteString("\n")
	}
	sb.WriteString("DOCUMENT CONTEXT:\n")
	if len(results) == 0 {
		sb.WriteString("No relevant internal documents found.\n")
	}
	for i, r := range results {
		fmt.Fprintf(&sb, "DOCUMENT %d: %s\nRELEVANCE: %.1f%%\nCONTENT: %s\n", i+1, r.DocumentName, r.Score*100, clip(r.Content, passageClip))
		if r.WebViewLink != "" {
			fmt.Fprintf(&sb, "SOURCE: %s\n", r.WebViewLink)
		}
		sb.WriteString("\n")
	}
	if web != nil && web.Content != "" {
		sb.WriteString("WEB SEARCH RESULTS:\n")
		sb.WriteString(web.Content)
		sb.WriteString("\n")
		if len(web.Citations) > 0 {
			sb.WriteString("CITATIONS:\n")
			for _, c := range web.Citations {
				fmt.Fprintf(&sb, "%s %s\n", c.Title, c.URL)
			}
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "USER QUERY: %q\n\n", query)
	sb.WriteString("Answer using the available context. If the context is insufficient, state what is missing rather than guessing.")
	return sb.String()
}

func formatTurns(history []ai.Message) string {
	var sb strings.Builder
	for _, turn := range history {
		fmt.Fprintf(&sb, "%s: %s\n", turn.Role, turn.Content)
	}
	return sb.String()
}
