package classify

import (
	"fmt"
	"strings"

	"github.com/merchantiq/docengine/internal/model"
)

// entity maps a canonical name to the phrases that identify it in a
// query and the "<category>/<entity>" namespace it suggests.
type entity struct {
	name     string
	aliases  []string
	suggests string
}

var processors = []entity{
	{name: "tsys", aliases: []string{"tsys", "total system"}, suggests: "processors/tsys"},
	{name: "clearent", aliases: []string{"clearent"}, suggests: "processors/clearent"},
	{name: "shift4", aliases: []string{"shift4", "shift 4"}, suggests: "processors/shift4"},
	{name: "first_data", aliases: []string{"first data", "firstdata", "fiserv"}, suggests: "processors/first_data"},
	{name: "worldpay", aliases: []string{"worldpay", "world pay"}, suggests: "processors/worldpay"},
	{name: "square", aliases: []string{"square"}, suggests: "processors/square"},
	{name: "stripe", aliases: []string{"stripe"}, suggests: "processors/stripe"},
	{name: "chase", aliases: []string{"chase", "paymentech"}, suggests: "processors/chase"},
}

var gateways = []entity{
	{name: "authorize_net", aliases: []string{"authorize.net", "authorize net", "authnet"}, suggests: "gateways/authorize_net"},
	{name: "stripe", aliases: []string{"stripe gateway", "stripe api"}, suggests: "gateways/stripe"},
	{name: "paypal", aliases: []string{"paypal"}, suggests: "gateways/paypal"},
	{name: "square", aliases: []string{"square gateway", "square api"}, suggests: "gateways/square"},
	{name: "braintree", aliases: []string{"braintree"}, suggests: "gateways/braintree"},
}

var hardwareTypes = []entity{
	{name: "terminals", aliases: []string{"terminal", "credit card machine", "card reader"}, suggests: "hardware/terminals"},
	{name: "mobile", aliases: []string{"mobile reader", "mobile payment", "tap to pay"}, suggests: "hardware/mobile"},
	{name: "online", aliases: []string{"virtual terminal", "online payment", "payment page"}, suggests: "hardware/online"},
	{name: "pinpad", aliases: []string{"pin pad", "pinpad", "keypad"}, suggests: "hardware/pinpad"},
}

// salesMaterials only suggest namespaces; they never set the intent on
// their own unless the sales-material cues below fire.
var salesMaterials = []entity{
	{name: "presentations", aliases: []string{"presentation", "pitch", "proposal", "deck", "slides"}, suggests: "sales/presentations"},
	{name: "comparisons", aliases: []string{"comparison", "compare", " vs ", "versus", "rates"}, suggests: "sales/comparisons"},
	{name: "pricing", aliases: []string{"pricing", "cost", "fee", "rate", "price"}, suggests: "sales/pricing"},
	{name: "contracts", aliases: []string{"contract", "agreement", "terms", "conditions"}, suggests: "sales/contracts"},
}

var rateComparisonCues = []string{"rate", "rates", "pricing", "fee", "fees", "cost", "charge", "compare", "comparison", "versus", " vs ", "cheaper", "interchange"}

var salesMaterialCues = []string{"presentation", "pitch", "proposal", "one-pager", "one pager", "flyer", "brochure", "sales material", "marketing"}

// Classify categorizes a query by keyword and entity matching alone,
// with no model call, so routing stays fast and deterministic. Entity
// matches outrank topical cues.
func Classify(query string) *model.QueryClassification {
	lower := " " + strings.ToLower(query) + " "

	c := &model.QueryClassification{
		Intent:     model.IntentGeneral,
		Confidence: 0.5,
	}
	c.Processors = matchEntities(lower, processors, &c.SuggestedNamespaces)
	c.Gateways = matchEntities(lower, gateways, &c.SuggestedNamespaces)
	c.HardwareTypes = matchEntities(lower, hardwareTypes, &c.SuggestedNamespaces)
	matchEntities(lower, salesMaterials, &c.SuggestedNamespaces)

	switch {
	case len(c.Processors) > 0:
		c.Intent = model.IntentProcessorInfo
		c.Confidence = 0.8
	case len(c.Gateways) > 0:
		c.Intent = model.IntentGatewayInfo
		c.Confidence = 0.8
	case len(c.HardwareTypes) > 0:
		c.Intent = model.IntentHardwareInfo
		c.Confidence = 0.8
	case containsAny(lower, rateComparisonCues):
		c.Intent = model.IntentRateComparison
		c.Confidence = 0.7
		c.SuggestedNamespaces = appendUnique(c.SuggestedNamespaces, "sales/pricing")
		c.SuggestedNamespaces = appendUnique(c.SuggestedNamespaces, "processors/rates")
	case containsAny(lower, salesMaterialCues):
		c.Intent = model.IntentSalesMaterial
		c.Confidence = 0.7
		c.SuggestedNamespaces = appendUnique(c.SuggestedNamespaces, "sales/presentations")
	}

	if len(c.SuggestedNamespaces) == 0 {
		c.SuggestedNamespaces = []string{"default", "general"}
	}
	c.Reasoning = buildReasoning(c)
	return c
}

func matchEntities(lower string, entities []entity, suggested *[]string) []string {
	var matched []string
	for _, e := range entities {
		for _, alias := range e.aliases {
			if strings.Contains(lower, alias) {
				matched = appendUnique(matched, e.name)
				*suggested = appendUnique(*suggested, e.suggests)
				break
			}
		}
	}
	return matched
}

func containsAny(s string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(s, cue) {
			return true
		}
	}
	return false
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}

func buildReasoning(c *model.QueryClassification) string {
	var parts []string
	if len(c.Processors) > 0 {
		parts = append(parts, fmt.Sprintf("matched processors: %s", strings.Join(c.Processors, ", ")))
	}
	if len(c.Gateways) > 0 {
		parts = append(parts, fmt.Sprintf("matched gateways: %s", strings.Join(c.Gateways, ", ")))
	}
	if len(c.HardwareTypes) > 0 {
		parts = append(parts, fmt.Sprintf("matched hardware: %s", strings.Join(c.HardwareTypes, ", ")))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("no entities matched, intent %s from topical cues", c.Intent)
	}
	return strings.Join(parts, "; ")
}
