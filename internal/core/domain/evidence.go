package domain

// Evidence is one result from an external information source.
type Evidence struct {
	// Source is the name of the evidence source that returned the item.
	Source string `json:"source"`

	// Title is the page or topic title.
	Title string `json:"title"`

	// URL links to the full result.
	URL string `json:"url"`

	// Summary is a short plain-text extract.
	Summary string `json:"summary"`
}

// Text returns the item as retrievable text.
func (e Evidence) Text() string {
	if e.Title == "" {
		return e.Summary
	}
	return e.Title + ": " + e.Summary
}
