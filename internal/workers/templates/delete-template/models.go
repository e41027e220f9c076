// internal/workers/templates/delete-template/models.go
package deletetemplate

// Delete scopes.
const (
	ScopeTemplate        = "template"          // one localized template
	ScopeTemplatesOfType = "templates-of-type" // a type's templates in one application or org scope
	ScopeAllOfType       = "all-of-type"       // a type's templates in every scope of the tenant
	ScopeType            = "type"              // the type and all its templates
)

type Input struct {
	TenantDomain  string `json:"tenantDomain"`
	ApplicationID string `json:"applicationId,omitempty"`
	Scope         string `json:"scope"`
	DisplayName   string `json:"displayName"`
	Locale        string `json:"locale,omitempty"`
	Channel       string `json:"channel"`
}

// Output reports that the target is absent from the tenant afterwards.
type Output struct {
	Deleted   bool   `json:"deleted"`
	Scope     string `json:"scope"`
	RequestID string `json:"requestId"`
}
