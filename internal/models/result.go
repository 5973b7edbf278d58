// internal/models/result.go
package models

import "encoding/json"

// Outcome is either Comparable or NotComparable.
type Outcome interface {
	isOutcome()
	// Document returns the flat wire/cache form.
	Document() ResultDocument
}

// Row maps "feature" and one column per item to a display string.
type Row map[string]string

// Comparable is a full comparison.
type Comparable struct {
	Introduction       string
	Table              []Row
	Pros               []string
	Cons               []string
	Recommendation     string
	PersonalizedWinner string
	WinnerReason       string
}

// NotComparable is returned when the items cannot be compared in the category.
type NotComparable struct {
	Message string
}

func (Comparable) isOutcome()    {}
func (NotComparable) isOutcome() {}

// HasWinner reports whether a personalized winner was chosen.
func (c Comparable) HasWinner() bool {
	return c.PersonalizedWinner != ""
}

func (c Comparable) Document() ResultDocument {
	table := make([]Row, len(c.Table))
	for i, row := range c.Table {
		cp := make(Row, len(row))
		for k, v := range row {
			cp[k] = v
		}
		table[i] = cp
	}
	return ResultDocument{
		Introduction:       c.Introduction,
		Table:              table,
		Pros:               append([]string(nil), c.Pros...),
		Cons:               append([]string(nil), c.Cons...),
		Recommendation:     c.Recommendation,
		PersonalizedWinner: c.PersonalizedWinner,
		WinnerReason:       c.WinnerReason,
	}
}

func (n NotComparable) Document() ResultDocument {
	return ResultDocument{Message: n.Message}
}

// ResultDocument is the flat JSON shape persisted in the cache and returned over HTTP.
type ResultDocument struct {
	Introduction       string   `json:"introduction,omitempty"`
	Table              []Row    `json:"table,omitempty"`
	Pros               []string `json:"pros,omitempty"`
	Cons               []string `json:"cons,omitempty"`
	Recommendation     string   `json:"recommendation,omitempty"`
	PersonalizedWinner string   `json:"personalized_winner,omitempty"`
	WinnerReason       string   `json:"winner_reason,omitempty"`
	Message            string   `json:"message,omitempty"`
}

// IsMessage reports whether the document is the can't-compare variant.
func (d ResultDocument) IsMessage() bool {
	return d.Message != ""
}

// Outcome converts the flat document back into the sum type.
func (d ResultDocument) Outcome() Outcome {
	if d.IsMessage() {
		return NotComparable{Message: d.Message}
	}
	return Comparable{
		Introduction:       d.Introduction,
		Table:              d.Table,
		Pros:               d.Pros,
		Cons:               d.Cons,
		Recommendation:     d.Recommendation,
		PersonalizedWinner: d.PersonalizedWinner,
		WinnerReason:       d.WinnerReason,
	}
}

// JSON renders the document for prompts and logs.
func (d ResultDocument) JSON() string {
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
