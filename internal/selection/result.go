package selection

import "time"

type Status string

const (
	// StatusSuccess means a candidate was selected and fully enriched.
	StatusSuccess Status = "success"
	// StatusEmpty means the queries worked but nothing was admissible.
	StatusEmpty Status = "empty"
	// StatusDegraded means a candidate was selected but some lookups failed.
	StatusDegraded Status = "degraded"
	// StatusFailed means every discover page of every attempt failed.
	StatusFailed Status = "failed"
)

// Degradation records one failed enrichment lookup.
type Degradation struct {
	Lookup  string `json:"lookup"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the outcome of one run. Providers maps every candidate whose
// providers were checked to its (possibly empty) list.
type Result struct {
	RunID         string             `json:"runId"`
	Category      Category           `json:"category"`
	Status        Status             `json:"status"`
	Attempts      int                `json:"attempts"`
	Item          *Item              `json:"item,omitempty"`
	Certification string             `json:"rating"`
	RatingLabel   string             `json:"ratingLabel"`
	AgeWarning    string             `json:"ageWarning,omitempty"`
	Providers     map[int][]Provider `json:"providers"`
	Degradations  []Degradation      `json:"degradations,omitempty"`
	StartedAt     time.Time          `json:"startedAt"`
	FinishedAt    time.Time          `json:"finishedAt"`
}

// ItemProviders returns the providers of the selected item, or nil.
func (r *Result) ItemProviders() []Provider {
	if r == nil || r.Item == nil {
		return nil
	}
	return r.Providers[r.Item.ID]
}

func (r *Result) HasSelection() bool {
	return r != nil && r.Item != nil
}
