// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"template-resolver/internal/templates"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeTemplateNotFound     ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodeTemplateTypeNotFound ErrorCode = "TEMPLATE_TYPE_NOT_FOUND"
	ErrCodeOrganizationNotFound ErrorCode = "ORGANIZATION_NOT_FOUND"
	ErrCodeResolutionFailed     ErrorCode = "RESOLUTION_FAILED"
	ErrCodePersistenceFailed    ErrorCode = "PERSISTENCE_FAILED"
	ErrCodeInvalidInput         ErrorCode = "INVALID_INPUT"
	ErrCodeReadOnlyCatalog      ErrorCode = "READ_ONLY_CATALOG"
	ErrCodeWorkflowEngine       ErrorCode = "WORKFLOW_ENGINE_UNAVAILABLE"
	ErrCodeInternal             ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.Cause
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewTemplateNotFoundError creates a non-retryable template error.
func NewTemplateNotFoundError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateNotFound,
		Message:   "Notification template not found",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateTypeNotFoundError creates a non-retryable template type error.
func NewTemplateTypeNotFoundError(displayName, channel string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateTypeNotFound,
		Message:   "Notification template type not found",
		Details:   fmt.Sprintf("displayName: %s, channel: %s", displayName, channel),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewOrganizationNotFoundError creates a non-retryable topology error.
func NewOrganizationNotFoundError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeOrganizationNotFound,
		Message:   "Organization could not be resolved for tenant",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// NewResolutionFailedError creates a retryable hierarchy resolution error.
func NewResolutionFailedError(err error) *StandardError {
	stdErr := &StandardError{
		Code:      ErrCodeResolutionFailed,
		Message:   "Template resolution through the organization hierarchy failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}

	var rerr *templates.ResolutionError
	if stderrors.As(err, &rerr) {
		stdErr.Metadata = map[string]interface{}{
			"tenantDomain": rerr.TenantDomain,
			"step":         rerr.Op,
		}
		if rerr.ApplicationID != "" {
			stdErr.Metadata["applicationId"] = rerr.ApplicationID
		}
		if rerr.Resource != "" {
			stdErr.Metadata["templateType"] = rerr.Resource
		}
	}
	return stdErr
}

// NewPersistenceFailedError creates a retryable storage error.
func NewPersistenceFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistenceFailed,
		Message:   "Template persistence operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// NewInvalidInputError creates a non-retryable input validation error.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid job input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewReadOnlyCatalogError creates a non-retryable error for writes against defaults.
func NewReadOnlyCatalogError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeReadOnlyCatalog,
		Message:   "System default templates cannot be modified",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// NewWorkflowEngineError creates a retryable error for transient Zeebe failures.
func NewWorkflowEngineError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeWorkflowEngine,
		Message:   "Workflow engine request failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// NewInternalError creates a non-retryable error for unexpected failures.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Internal error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// Classify maps any error returned by the template layer onto a StandardError.
func Classify(err error) *StandardError {
	if err == nil {
		return nil
	}

	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}

	switch {
	case stderrors.Is(err, templates.ErrOrganizationNotFound):
		return NewOrganizationNotFoundError(err)
	case stderrors.Is(err, templates.ErrTemplateNotFound):
		e := NewTemplateNotFoundError(err.Error())
		e.Cause = err
		return e
	case stderrors.Is(err, templates.ErrReadOnly):
		return NewReadOnlyCatalogError(err)
	}

	var rerr *templates.ResolutionError
	if stderrors.As(err, &rerr) {
		return NewResolutionFailedError(err)
	}

	return NewPersistenceFailedError(err)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodePersistenceFailed, ErrCodeWorkflowEngine:
		return 3
	case ErrCodeResolutionFailed:
		return 2
	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "TEMPLATE") || strings.Contains(codeStr, "CATALOG"):
		return "TEMPLATE"
	case strings.Contains(codeStr, "ORGANIZATION") || strings.Contains(codeStr, "RESOLUTION"):
		return "HIERARCHY"
	case strings.Contains(codeStr, "PERSISTENCE"):
		return "DATABASE"
	case strings.Contains(codeStr, "WORKFLOW"):
		return "EXTERNAL_SERVICE"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
