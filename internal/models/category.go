// internal/models/category.go
package models

import (
	"strings"
	"unicode"
)

// Category is the comparison domain a request is scoped to.
type Category string

const (
	CategoryGadgets      Category = "Gadgets"
	CategoryCars         Category = "Cars"
	CategoryTechnologies Category = "Technologies"
	CategoryDestinations Category = "Destinations"
	CategoryShows        Category = "Shows"
	CategoryOther        Category = "Other"
)

// CategoryRules is the static per-category data used for validation and prompting.
type CategoryRules struct {
	Category Category
	// Scope describes what counts as a valid item, as shown to the model.
	Scope string
	// Strict categories reject items outside their scope; Other only rejects nonsense.
	Strict bool
	// Priorities is the accepted preference vocabulary. Empty means free text.
	Priorities []string
}

var categoryRules = map[Category]CategoryRules{
	CategoryGadgets: {
		Category: CategoryGadgets,
		Scope:    "smartphones, laptops, tablets, wearables, etc. You should expect brand names, model names and specific versions.",
		Strict:   true,
		Priorities: []string{
			"Performance", "Battery Life", "Camera Quality", "Display", "Price",
			"Build Quality", "Software Updates", "Portability", "Ecosystem",
		},
	},
	CategoryCars: {
		Category: CategoryCars,
		Scope:    "vehicles of all types",
		Strict:   true,
		Priorities: []string{
			"Fuel Efficiency", "Performance", "Safety", "Comfort", "Price",
			"Reliability", "Technology", "Cargo Space", "Resale Value",
		},
	},
	CategoryTechnologies: {
		Category: CategoryTechnologies,
		Scope:    "programming languages, frameworks, software, etc.",
		Strict:   true,
		Priorities: []string{
			"Performance", "Learning Curve", "Community Support", "Scalability",
			"Ecosystem", "Documentation", "Job Market", "Cost",
		},
	},
	CategoryDestinations: {
		Category: CategoryDestinations,
		Scope:    "countries, cities, travel locations",
		Strict:   true,
		Priorities: []string{
			"Cost", "Weather", "Safety", "Food", "Culture", "Nightlife",
			"Nature", "Accessibility", "Family Friendly",
		},
	},
	CategoryShows: {
		Category: CategoryShows,
		Scope:    "TV series, movies, etc.",
		Strict:   true,
		Priorities: []string{
			"Story", "Acting", "Visuals", "Length", "Ratings", "Genre", "Rewatch Value",
		},
	},
	CategoryOther: {
		Category: CategoryOther,
		Scope:    "anything else",
		Strict:   false,
	},
}

// orderedCategories fixes the listing order used in prompts.
var orderedCategories = []Category{
	CategoryGadgets,
	CategoryCars,
	CategoryTechnologies,
	CategoryDestinations,
	CategoryShows,
	CategoryOther,
}

// AllCategories returns the enumerated categories in display order.
func AllCategories() []Category {
	out := make([]Category, len(orderedCategories))
	copy(out, orderedCategories)
	return out
}

// RulesFor returns the rules for c, falling back to Other.
func RulesFor(c Category) CategoryRules {
	if r, ok := categoryRules[c]; ok {
		return r
	}
	return categoryRules[CategoryOther]
}

// ParseCategory matches s case-insensitively. Unknown names map to Other;
// ok is false only for a blank input.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, c := range orderedCategories {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return CategoryOther, true
}

// AllowsPriority reports whether label belongs to the category vocabulary.
// Case, spacing and punctuation are ignored, so "camera-quality" matches "Camera Quality".
func (r CategoryRules) AllowsPriority(label string) bool {
	if len(r.Priorities) == 0 {
		return true
	}
	want := priorityKey(label)
	for _, p := range r.Priorities {
		if priorityKey(p) == want {
			return true
		}
	}
	return false
}

func priorityKey(label string) string {
	var b strings.Builder
	for _, c := range label {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			b.WriteRune(unicode.ToLower(c))
		}
	}
	return b.String()
}
