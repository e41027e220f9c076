// pkg/registry/validate.go
package registry

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Validate checks that every activity carries its required fields, known
// status, parseable timeout and compilable schemas, and that each of the
// required task types is registered.
func (r *ActivityRegistry) Validate(required ...string) error {
	if len(r.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}

	ids := make(map[string]bool, len(r.Activities))
	for _, activity := range r.Activities {
		if activity.ID == "" {
			return fmt.Errorf("activity missing required field: ID")
		}
		if ids[activity.ID] {
			return fmt.Errorf("duplicate activity ID: %s", activity.ID)
		}
		ids[activity.ID] = true

		if activity.DisplayName == "" {
			return fmt.Errorf("activity %s missing required field: DisplayName", activity.ID)
		}
		if activity.TaskType == "" {
			return fmt.Errorf("activity %s missing required field: TaskType", activity.ID)
		}
		if err := compiles(activity.InputSchema); err != nil {
			return fmt.Errorf("activity %s has an invalid input schema: %w", activity.ID, err)
		}
		if err := compiles(activity.OutputSchema); err != nil {
			return fmt.Errorf("activity %s has an invalid output schema: %w", activity.ID, err)
		}
		if activity.Status != "" {
			if _, err := ParseStatus(string(activity.Status)); err != nil {
				return fmt.Errorf("activity %s: %w", activity.ID, err)
			}
		}
		if _, err := activity.TimeoutDuration(); err != nil {
			return err
		}
		if activity.Retries < 0 {
			return fmt.Errorf("activity %s has negative retries", activity.ID)
		}
		codes := make(map[string]bool, len(activity.ErrorCodes))
		for _, code := range activity.ErrorCodes {
			if code == "" || codes[code] {
				return fmt.Errorf("activity %s has an empty or repeated error code %q", activity.ID, code)
			}
			codes[code] = true
		}
	}

	for _, taskType := range required {
		if _, ok := r.Find(taskType); !ok {
			return fmt.Errorf("no activity registered for task type %s", taskType)
		}
	}
	return nil
}

func compiles(schema map[string]interface{}) error {
	if len(schema) == 0 {
		return nil
	}
	_, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	return err
}
