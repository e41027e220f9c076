package templates

import (
	"fmt"
	"strings"
)

// ResolutionError reports a failure while resolving a resource through the
// organization hierarchy. The cause stays reachable through errors.Is/As.
type ResolutionError struct {
	Op            string // resolution step or operation that failed
	Resource      string // template type being resolved, if any
	TenantDomain  string
	ApplicationID string
	Err           error
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	b.WriteString("resolving ")
	if e.Resource != "" {
		fmt.Fprintf(&b, "template with type %s ", e.Resource)
	} else {
		b.WriteString("resource ")
	}
	fmt.Fprintf(&b, "for tenant %s", e.TenantDomain)
	if e.ApplicationID != "" {
		fmt.Fprintf(&b, " and application id %s", e.ApplicationID)
	}
	if e.Op != "" {
		fmt.Fprintf(&b, ": %s", e.Op)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

func newResolutionError(op, tenantDomain, applicationID string, err error) *ResolutionError {
	return &ResolutionError{
		Op:            op,
		TenantDomain:  tenantDomain,
		ApplicationID: applicationID,
		Err:           err,
	}
}
