// internal/api/models.go
package api

import (
	"time"

	"compair/internal/models"
)

type CompareRequest struct {
	Category        string                  `json:"category"`
	Items           []string                `json:"items"`
	Criteria        string                  `json:"criteria,omitempty"`
	UserPreferences *models.UserPreferences `json:"user_preferences,omitempty"`
}

// CompareResponse flattens the result document into the envelope.
type CompareResponse struct {
	ComparisonID string          `json:"comparison_id,omitempty"`
	Category     models.Category `json:"category"`
	Items        []string        `json:"items"`
	Grounded     bool            `json:"grounded"`
	Cached       bool            `json:"cached"`
	CreatedAt    time.Time       `json:"created_at"`
	models.ResultDocument
}

type FollowupRequest struct {
	ComparisonID string `json:"comparison_id"`
	Question     string `json:"question"`
}

type FollowupResponse struct {
	Answer              string           `json:"answer"`
	ComparisonID        string           `json:"comparison_id"`
	ConversationHistory []models.Message `json:"conversation_history"`
}

type HistoryResponse struct {
	ComparisonID string           `json:"comparison_id"`
	History      []models.Message `json:"history"`
}

func newCompareResponse(env models.Envelope) CompareResponse {
	resp := CompareResponse{
		ComparisonID: env.ComparisonID,
		Category:     env.Category,
		Items:        env.Items,
		Grounded:     env.Grounded,
		Cached:       env.Cached,
		CreatedAt:    env.CreatedAt,
	}
	if env.Outcome != nil {
		resp.ResultDocument = env.Outcome.Document()
	}
	return resp
}
