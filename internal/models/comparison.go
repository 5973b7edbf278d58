// internal/models/comparison.go
package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"compair/internal/common/errors"
)

const (
	MinItems      = 2
	MaxItems      = 4
	MinItemLength = 2
)

// Messages for requests rejected locally before any external call.
const (
	MessageUnclearItems    = "Please enter clear, distinct, and comparable items."
	MessageDuplicateItems  = "Please enter different items to compare."
	MessageCategoryPattern = "These items don't match the %s category. Please check your selection."
)

// UserPreferences personalizes a comparison. The zero value means none were given.
type UserPreferences struct {
	Priorities []string `json:"priorities,omitempty"`
	Budget     string   `json:"budget,omitempty"`
	UseCase    string   `json:"use_case,omitempty"`
}

// IsEmpty reports whether no personalization was requested. Nil-safe.
func (p *UserPreferences) IsEmpty() bool {
	if p == nil {
		return true
	}
	for _, pr := range p.Priorities {
		if strings.TrimSpace(pr) != "" {
			return false
		}
	}
	return strings.TrimSpace(p.Budget) == "" && strings.TrimSpace(p.UseCase) == ""
}

// Canonical returns a lower-cased, trimmed, sorted copy used for fingerprinting.
func (p *UserPreferences) Canonical() UserPreferences {
	if p == nil {
		return UserPreferences{}
	}
	seen := make(map[string]struct{}, len(p.Priorities))
	priorities := make([]string, 0, len(p.Priorities))
	for _, pr := range p.Priorities {
		v := strings.ToLower(strings.TrimSpace(pr))
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		priorities = append(priorities, v)
	}
	sort.Strings(priorities)
	return UserPreferences{
		Priorities: priorities,
		Budget:     strings.ToLower(strings.TrimSpace(p.Budget)),
		UseCase:    strings.ToLower(strings.TrimSpace(p.UseCase)),
	}
}

// ComparisonRequest is one compare call.
type ComparisonRequest struct {
	Category    Category         `json:"category"`
	Items       []string         `json:"items"`
	Criteria    string           `json:"criteria,omitempty"`
	Preferences *UserPreferences `json:"user_preferences,omitempty"`
}

// NewComparisonRequest trims items and resolves the category name.
func NewComparisonRequest(category string, items []string, criteria string, prefs *UserPreferences) (ComparisonRequest, error) {
	cat, ok := ParseCategory(category)
	if !ok {
		return ComparisonRequest{}, errors.NewInputValidationError("category is required")
	}
	trimmed := make([]string, len(items))
	for i, it := range items {
		trimmed[i] = strings.TrimSpace(it)
	}
	req := ComparisonRequest{
		Category:    cat,
		Items:       trimmed,
		Criteria:    strings.TrimSpace(criteria),
		Preferences: prefs,
	}
	if err := req.Validate(); err != nil {
		return ComparisonRequest{}, err
	}
	return req, nil
}

// Validate enforces the structural invariants: category present, 2..4 non-blank items
// and priorities drawn from the category vocabulary.
func (r ComparisonRequest) Validate() error {
	if strings.TrimSpace(string(r.Category)) == "" {
		return errors.NewInputValidationError("category is required")
	}
	if len(r.Items) < MinItems {
		return errors.NewInputValidationError(fmt.Sprintf("at least %d items are required, got %d", MinItems, len(r.Items)))
	}
	if len(r.Items) > MaxItems {
		return errors.NewInputValidationError(fmt.Sprintf("at most %d items are allowed, got %d", MaxItems, len(r.Items)))
	}
	for i, it := range r.Items {
		if strings.TrimSpace(it) == "" {
			return errors.NewInputValidationError(fmt.Sprintf("items[%d] is blank", i))
		}
	}
	if r.Preferences != nil {
		rules := RulesFor(r.Category)
		for _, pr := range r.Preferences.Priorities {
			if strings.TrimSpace(pr) == "" {
				continue
			}
			if !rules.AllowsPriority(pr) {
				return errors.NewInputValidationError(fmt.Sprintf("priority %q is not valid for category %s", pr, r.Category))
			}
		}
	}
	return nil
}

// PreScreen returns a NotComparable outcome for requests that are structurally
// valid but can never produce a useful comparison.
func (r ComparisonRequest) PreScreen() (NotComparable, bool) {
	seen := make(map[string]struct{}, len(r.Items))
	for _, it := range r.Items {
		if len([]rune(strings.TrimSpace(it))) < MinItemLength {
			return NotComparable{Message: MessageUnclearItems}, true
		}
	}
	for _, it := range r.Items {
		key := strings.ToLower(strings.TrimSpace(it))
		if _, dup := seen[key]; dup {
			return NotComparable{Message: MessageDuplicateItems}, true
		}
		seen[key] = struct{}{}
	}
	return NotComparable{}, false
}

// HasPreferences reports whether the request asks for a personalized winner.
func (r ComparisonRequest) HasPreferences() bool {
	return !r.Preferences.IsEmpty()
}

// MatchItem returns the request item equal to name ignoring case and surrounding space.
func (r ComparisonRequest) MatchItem(name string) (string, bool) {
	return MatchItem(r.Items, name)
}

func MatchItem(items []string, name string) (string, bool) {
	n := strings.TrimSpace(name)
	for _, it := range items {
		if strings.EqualFold(strings.TrimSpace(it), n) {
			return it, true
		}
	}
	return "", false
}

// Envelope wraps a result with the request context returned to callers.
type Envelope struct {
	ComparisonID string    `json:"comparison_id,omitempty"`
	Category     Category  `json:"category"`
	Items        []string  `json:"items"`
	Grounded     bool      `json:"grounded"`
	Cached       bool      `json:"cached"`
	CreatedAt    time.Time `json:"created_at"`
	Outcome      Outcome   `json:"-"`
}
