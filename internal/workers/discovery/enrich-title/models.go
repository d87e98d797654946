// internal/workers/discovery/enrich-title/models.go
package enrichtitle

import "movienight-workers/internal/selection"

type Input struct {
	Category string `json:"category"`
	ID       int    `json:"id"`
}

type Output struct {
	Status       string                  `json:"status"`
	RunID        string                  `json:"runId"`
	Category     string                  `json:"category"`
	Item         *selection.Item         `json:"item"`
	AgeWarning   string                  `json:"ageWarning,omitempty"`
	Rating       string                  `json:"rating"`
	RatingLabel  string                  `json:"ratingLabel"`
	Providers    []selection.Provider    `json:"providers"`
	Degradations []selection.Degradation `json:"degradations,omitempty"`
}
