// pkg/registry/schema.go
package registry

import (
	"fmt"
	"time"
)

type ImplementationStatus string

const (
	StatusPlanned    ImplementationStatus = "planned"
	StatusInProgress ImplementationStatus = "in-progress"
	StatusCompleted  ImplementationStatus = "completed"
	StatusVerified   ImplementationStatus = "verified"
)

func (s ImplementationStatus) Known() bool {
	switch s {
	case StatusPlanned, StatusInProgress, StatusCompleted, StatusVerified:
		return true
	}
	return false
}

// Runnable reports whether a worker with this status should be started.
func (s ImplementationStatus) Runnable() bool {
	return s == StatusCompleted || s == StatusVerified
}

type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

// Activity describes one job type the worker manager can serve.
type Activity struct {
	ID                   string                 `json:"id"`
	DisplayName          string                 `json:"displayName"`
	Description          string                 `json:"description"`
	Category             string                 `json:"category"`
	Version              string                 `json:"version"`
	TaskType             string                 `json:"taskType"`
	ImplementationStatus ImplementationStatus   `json:"implementationStatus"`
	MediaCategories      []string               `json:"mediaCategories,omitempty"`
	InputSchema          map[string]interface{} `json:"inputSchema"`
	OutputSchema         map[string]interface{} `json:"outputSchema"`
	ErrorCodes           []string               `json:"errorCodes"`
	Timeout              string                 `json:"timeout"`
	Retries              int                    `json:"retries"`
	Workflows            []string               `json:"workflows"`
	Tags                 []string               `json:"tags"`
}

// TimeoutDuration parses Timeout. An empty value yields zero.
func (a Activity) TimeoutDuration() (time.Duration, error) {
	if a.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return 0, fmt.Errorf("activity %s has invalid timeout %q: %w", a.ID, a.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("activity %s has negative timeout %q", a.ID, a.Timeout)
	}
	return d, nil
}

// ServesCategory reports whether the activity accepts the media category.
// An activity with no MediaCategories accepts all of them.
func (a Activity) ServesCategory(category string) bool {
	if len(a.MediaCategories) == 0 {
		return true
	}
	for _, c := range a.MediaCategories {
		if c == category {
			return true
		}
	}
	return false
}
