// pkg/registry/schema.go
package registry

import (
	"fmt"
	"time"
)

// ActivityRegistry lists the job types the template workers serve together
// with the variable schemas their jobs are checked against.
type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated,omitempty"`
	Activities  []Activity `json:"activities"`
}

// Status is how far the worker behind an activity has come.
type Status string

const (
	StatusPlanned     Status = "planned"
	StatusInProgress  Status = "in-progress"
	StatusImplemented Status = "implemented"
	StatusVerified    Status = "verified"
)

// ParseStatus accepts the four known statuses.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPlanned, StatusInProgress, StatusImplemented, StatusVerified:
		return st, nil
	default:
		return "", fmt.Errorf("unknown implementation status %q", s)
	}
}

// Activity is one job type. InputSchema is the JSON Schema job variables
// must satisfy; OutputSchema describes what a completed job sets.
type Activity struct {
	ID           string                 `json:"id"`
	DisplayName  string                 `json:"displayName"`
	Description  string                 `json:"description,omitempty"`
	TaskType     string                 `json:"taskType"`
	Status       Status                 `json:"implementationStatus,omitempty"`
	InputSchema  map[string]interface{} `json:"inputSchema,omitempty"`
	OutputSchema map[string]interface{} `json:"outputSchema,omitempty"`
	// ErrorCodes are the BPMN error codes a failed job may throw.
	ErrorCodes []string `json:"errorCodes,omitempty"`
	Timeout    string   `json:"timeout,omitempty"`
	Retries    int      `json:"retries,omitempty"`
}

// TimeoutDuration parses Timeout; zero when unset.
func (a *Activity) TimeoutDuration() (time.Duration, error) {
	if a.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return 0, fmt.Errorf("activity %s timeout: %w", a.ID, err)
	}
	return d, nil
}
