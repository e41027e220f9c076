// internal/workers/templates/resolve-template/models.go
package resolvetemplate

import "template-resolver/internal/models"

type Input struct {
	TenantDomain  string `json:"tenantDomain"`
	ApplicationID string `json:"applicationId,omitempty"`
	DisplayName   string `json:"displayName"`
	Locale        string `json:"locale"`
	Channel       string `json:"channel"`
	// ExistsOnly skips loading the template and only reports whether it resolves.
	ExistsOnly bool `json:"existsOnly,omitempty"`
}

type Output struct {
	Found    bool                         `json:"found"`
	Template *models.NotificationTemplate `json:"template,omitempty"`
}
