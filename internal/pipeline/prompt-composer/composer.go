// internal/pipeline/prompt-composer/composer.go
package promptcomposer

import (
	"fmt"
	"strings"

	"compair/internal/models"
	groundingfetcher "compair/internal/pipeline/grounding-fetcher"
)

// Composer builds deterministic prompts. It holds no mutable state.
type Composer struct {
	config *Config
}

func New(cfg *Config) *Composer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Composer{config: cfg}
}

// ComposeForComparison renders the comparison prompt for req and its grounding.
func (c *Composer) ComposeForComparison(req models.ComparisonRequest, bundle groundingfetcher.Bundle) Prompt {
	grounded := bundle.Grounded()
	itemList := strings.Join(req.Items, ", ")

	var parts []string
	parts = append(parts, fmt.Sprintf("Category: %s", req.Category))
	parts = append(parts, fmt.Sprintf("Items to compare: %s", itemList))
	if req.Criteria != "" {
		parts = append(parts, fmt.Sprintf("Focus criteria: %s", req.Criteria))
	}
	if prefs := preferencesText(req.Preferences); prefs != "" {
		parts = append(parts, "")
		parts = append(parts, prefs)
	}

	parts = append(parts, "")
	parts = append(parts, searchResultsText(req.Items, bundle))

	parts = append(parts, "")
	parts = append(parts, fmt.Sprintf("Please compare these items: %s", itemList))
	if grounded {
		parts = append(parts, "Remember: Use ONLY the information from the search results provided above. If information is missing, state that clearly rather than inferring.")
	} else {
		parts = append(parts, "Remember: No search results were available. Do not invent facts.")
	}

	return Prompt{
		Instructions: instructionsFor(req.Category, req.HasPreferences(), grounded),
		Content:      strings.Join(parts, "\n"),
	}
}

// ComposeForFollowup renders a follow-up prompt from the thread snapshot. It never
// triggers new grounding.
func (c *Composer) ComposeForFollowup(thread models.ConversationThread, question string) Prompt {
	var sys []string
	sys = append(sys, "You are an expert assistant helping users with follow-up questions about comparisons.")
	sys = append(sys, "")
	sys = append(sys, fmt.Sprintf("Context: The user previously compared %s in the %s category.",
		strings.Join(thread.Items, ", "), thread.Category))
	sys = append(sys, "")
	sys = append(sys, "Original Comparison Result:")
	sys = append(sys, thread.Result.JSON())
	sys = append(sys, "")
	sys = append(sys, "Your task: Answer the user's specific question about this comparison.")
	sys = append(sys, "- Be concise and direct")
	sys = append(sys, "- Reference specific data from the comparison")
	sys = append(sys, "- Use the actual item names, not \"Item 1\", \"Item 2\"")
	sys = append(sys, "- Do not introduce facts that are not in the comparison; say so when information is missing")
	sys = append(sys, "- If the question is outside the comparison scope, politely mention the available information")
	sys = append(sys, "- Answer in plain text, not JSON")

	var content []string
	history := thread.Messages
	if limit := c.config.MaxHistoryMessages; limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	if len(history) > 0 {
		content = append(content, "Conversation so far:")
		for _, m := range history {
			content = append(content, fmt.Sprintf("%s: %s", roleLabel(m.Role), m.Content))
		}
		content = append(content, "")
	}
	content = append(content, fmt.Sprintf("Question: %s", strings.TrimSpace(question)))

	return Prompt{
		Instructions: strings.Join(sys, "\n"),
		Content:      strings.Join(content, "\n"),
	}
}

func roleLabel(r models.Role) string {
	if r == models.RoleAssistant {
		return "Assistant"
	}
	return "User"
}

func preferencesText(p *models.UserPreferences) string {
	if p.IsEmpty() {
		return ""
	}
	var prefs []string
	var priorities []string
	for _, pr := range p.Priorities {
		if v := strings.TrimSpace(pr); v != "" {
			priorities = append(priorities, v)
		}
	}
	if len(priorities) > 0 {
		prefs = append(prefs, fmt.Sprintf("Priorities: %s", strings.Join(priorities, ", ")))
	}
	if v := strings.TrimSpace(p.Budget); v != "" {
		prefs = append(prefs, fmt.Sprintf("Budget: %s", v))
	}
	if v := strings.TrimSpace(p.UseCase); v != "" {
		prefs = append(prefs, fmt.Sprintf("Use case: %s", v))
	}
	return "User Preferences:\n" + strings.Join(prefs, "\n")
}

func searchResultsText(items []string, bundle groundingfetcher.Bundle) string {
	if !bundle.Grounded() {
		return "REAL-TIME SEARCH RESULTS: none available."
	}

	var lines []string
	lines = append(lines, "REAL-TIME SEARCH RESULTS:")
	lines = append(lines, "Use the following search results as the PRIMARY source of information.")
	lines = append(lines, "")

	for _, item := range items {
		lines = append(lines, fmt.Sprintf("**%s:**", item))
		ig, ok := bundle.For(item)
		if !ok || len(ig.Snippets) == 0 {
			lines = append(lines, "No search results found for this item.")
			lines = append(lines, "")
			continue
		}
		for _, s := range ig.Snippets {
			if s.Title != "" {
				lines = append(lines, fmt.Sprintf("- %s: %s", s.Title, s.Snippet))
			} else {
				lines = append(lines, fmt.Sprintf("- %s", s.Snippet))
			}
			if s.URL != "" {
				lines = append(lines, fmt.Sprintf("  Source: %s", s.URL))
			}
		}
		lines = append(lines, "")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}
