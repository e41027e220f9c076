// internal/workers/templates/list-template-types/models.go
package listtemplatetypes

// Input checks DisplayName for existence when set, and lists every type
// name of Channel otherwise.
type Input struct {
	TenantDomain string `json:"tenantDomain"`
	DisplayName  string `json:"displayName,omitempty"`
	Channel      string `json:"channel"`
}

type Output struct {
	Types  []string `json:"types,omitempty"`
	Exists bool     `json:"exists"`
}
