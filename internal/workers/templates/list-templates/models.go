// internal/workers/templates/list-templates/models.go
package listtemplates

import "template-resolver/internal/models"

// Input lists the templates of TemplateType, or every template of Channel
// when TemplateType is empty.
type Input struct {
	TenantDomain  string `json:"tenantDomain"`
	ApplicationID string `json:"applicationId,omitempty"`
	TemplateType  string `json:"templateType,omitempty"`
	Channel       string `json:"channel"`
}

type Output struct {
	Templates []models.NotificationTemplate `json:"templates"`
	Count     int                           `json:"count"`
}
