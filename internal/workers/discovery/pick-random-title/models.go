// internal/workers/discovery/pick-random-title/models.go
package pickrandomtitle

import (
	"movienight-workers/internal/common/errors"
	"movienight-workers/internal/selection"
)

// StatusSuperseded is reported when a newer run for the same owner and
// category replaced this one before it finished.
const StatusSuperseded = "superseded"

type Input struct {
	Category         string `json:"category"`
	PagesToSearch    int    `json:"pagesToSearch,omitempty"`
	MaxAttempts      int    `json:"maxAttempts,omitempty"`
	RequireStreaming bool   `json:"requireStreaming,omitempty"`
	ProviderIDs      []int  `json:"providerIds,omitempty"`
	// Owner scopes the selection slot; defaults to the process instance key.
	Owner string `json:"owner,omitempty"`
}

type Output struct {
	Status       string                  `json:"status"`
	RunID        string                  `json:"runId,omitempty"`
	Category     string                  `json:"category"`
	Attempts     int                     `json:"attempts"`
	Item         *selection.Item         `json:"item,omitempty"`
	AgeWarning   string                  `json:"ageWarning,omitempty"`
	Rating       string                  `json:"rating,omitempty"`
	RatingLabel  string                  `json:"ratingLabel,omitempty"`
	Providers    []selection.Provider    `json:"providers"`
	Degradations []selection.Degradation `json:"degradations,omitempty"`
	// ErrorCode and ErrorDetails are set only when Status is failed, so a
	// gateway can branch on them without the job raising an incident.
	ErrorCode    string `json:"errorCode,omitempty"`
	ErrorDetails string `json:"errorDetails,omitempty"`
}

func outputFromResult(res *selection.Result) *Output {
	out := &Output{
		Status:       string(res.Status),
		RunID:        res.RunID,
		Category:     string(res.Category),
		Attempts:     res.Attempts,
		Item:         res.Item,
		AgeWarning:   res.AgeWarning,
		Providers:    res.ItemProviders(),
		Degradations: res.Degradations,
	}
	if res.HasSelection() {
		out.Rating = res.Certification
		out.RatingLabel = res.RatingLabel
	}
	if out.Providers == nil {
		out.Providers = []selection.Provider{}
	}
	if res.Status == selection.StatusFailed {
		stdErr := errors.NewDiscoveryUnavailableError(string(res.Category), res.Attempts)
		out.ErrorCode = string(stdErr.Code)
		out.ErrorDetails = stdErr.Details
	}
	return out
}
