// internal/workers/discovery/clear-selection/models.go
package clearselection

type Input struct {
	Owner string `json:"owner"`
	// Category limits the clear to one slot. Empty clears every category and
	// forgets the owner.
	Category string `json:"category,omitempty"`
}

type Output struct {
	Owner   string         `json:"owner"`
	Cleared []ClearedTitle `json:"cleared"`
}

// ClearedTitle is a published pick that was dropped.
type ClearedTitle struct {
	Category string `json:"category"`
	RunID    string `json:"runId"`
	ID       int    `json:"id,omitempty"`
}
