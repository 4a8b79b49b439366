package model

type NextAction string

const (
	ActionSearchDocuments NextAction = "search_documents"
	ActionWebSearch       NextAction = "web_search"
	ActionSynthesize      NextAction = "synthesize"
	ActionComplete        NextAction = "complete"
)

type ChainStep struct {
	Step             int            `json:"step"`
	Prompt           string         `json:"prompt"`
	Response         string         `json:"response"`
	Reasoning        string         `json:"reasoning"`
	NextAction       NextAction     `json:"next_action,omitempty"`
	SearchNamespaces []string       `json:"search_namespaces,omitempty"`
	SearchResults    []SearchResult `json:"search_results,omitempty"`
}

type Source struct {
	Name           string  `json:"name"`
	URL            string  `json:"url"`
	RelevanceScore float64 `json:"relevanceScore"`
	Snippet        string  `json:"snippet"`
	Type           string  `json:"type"`
}

type ChainResult struct {
	Steps         []ChainStep `json:"steps"`
	FinalResponse string      `json:"finalResponse"`
	Sources       []Source    `json:"sources"`
	Reasoning     string      `json:"reasoning"`
	Confidence    float64     `json:"confidence"`
}
