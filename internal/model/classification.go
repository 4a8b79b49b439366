package model

// Intent is the closed set of query categories the classifier can emit.
type Intent string

const (
	IntentProcessorInfo  Intent = "processor_info"
	IntentGatewayInfo    Intent = "gateway_info"
	IntentHardwareInfo   Intent = "hardware_info"
	IntentSalesMaterial  Intent = "sales_material"
	IntentRateComparison Intent = "rate_comparison"
	IntentGeneral        Intent = "general"
)

type QueryClassification struct {
	Intent              Intent   `json:"intent"`
	Processors          []string `json:"processors"`
	Gateways            []string `json:"gateways"`
	HardwareTypes       []string `json:"hardwareTypes"`
	Confidence          float64  `json:"confidence"`
	SuggestedNamespaces []string `json:"suggestedNamespaces"`
	Reasoning           string   `json:"reasoning,omitempty"`
}

type NamespaceRoute struct {
	Namespace  string        `json:"namespace"`
	Priority   int           `json:"priority"`
	Kind       NamespaceKind `json:"kind"`
	Confidence float64       `json:"confidence"`
}
