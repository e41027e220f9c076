// internal/common/camunda/input.go
package camunda

import (
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"

	"template-resolver/internal/common/errors"
	"template-resolver/internal/common/validation"
)

// DecodeVariables checks the job variables against schema and decodes them
// into out. Bad input yields an INVALID_INPUT StandardError. A nil schema
// accepts any variables.
func DecodeVariables(job entities.Job, schema map[string]interface{}, out interface{}) error {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return errors.NewInvalidInputError(fmt.Sprintf("parse job variables: %v", err))
	}

	result, err := validation.ValidateDocument(schema, variables)
	if err != nil {
		return errors.NewInternalError(fmt.Errorf("validate job variables: %w", err))
	}
	if !result.Valid {
		return errors.NewInvalidInputError(result.Error())
	}

	if err := job.GetVariablesAs(out); err != nil {
		return errors.NewInvalidInputError(fmt.Sprintf("decode job variables: %v", err))
	}
	return nil
}
