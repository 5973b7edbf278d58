// internal/pipeline/grounding-fetcher/models.go
package groundingfetcher

// Snippet is one search hit.
type Snippet struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// ItemGrounding holds the snippets found for one compared item.
type ItemGrounding struct {
	Item     string    `json:"item"`
	Query    string    `json:"query"`
	Snippets []Snippet `json:"snippets"`
	// Failed is set when the fetch timed out or the provider errored.
	Failed  bool   `json:"failed"`
	Failure string `json:"failure,omitempty"`
	Err     error  `json:"-"`
}

// Bundle is the grounding for every item, in request order.
type Bundle struct {
	Items []ItemGrounding `json:"items"`
}

// Grounded reports whether at least one item has snippets.
func (b Bundle) Grounded() bool {
	for _, it := range b.Items {
		if len(it.Snippets) > 0 {
			return true
		}
	}
	return false
}

// Failures counts items whose fetch failed.
func (b Bundle) Failures() int {
	n := 0
	for _, it := range b.Items {
		if it.Failed {
			n++
		}
	}
	return n
}

// For returns the grounding of item.
func (b Bundle) For(item string) (ItemGrounding, bool) {
	for _, it := range b.Items {
		if it.Item == item {
			return it, true
		}
	}
	return ItemGrounding{}, false
}
