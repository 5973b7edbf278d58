// internal/pipeline/structured-generator/models.go
package structuredgenerator

// CompletionRequest is one call to the generative backend.
type CompletionRequest struct {
	Instructions string
	Content      string
	// JSON asks the backend for a JSON object response.
	JSON bool
}

// Expectations carries the request facts the output is checked against.
type Expectations struct {
	Items []string
	// RequireWinner is set when the user supplied preferences.
	RequireWinner bool
}

// rawOutput mirrors the model JSON. Pointers distinguish absent from empty.
type rawOutput struct {
	Introduction       *string                  `json:"introduction"`
	Table              []map[string]interface{} `json:"table"`
	Pros               []string                 `json:"pros"`
	Cons               []string                 `json:"cons"`
	Recommendation     *string                  `json:"recommendation"`
	PersonalizedWinner *string                  `json:"personalized_winner"`
	WinnerReason       *string                  `json:"winner_reason"`
	Message            *string                  `json:"message"`
}
