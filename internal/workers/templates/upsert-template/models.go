// internal/workers/templates/upsert-template/models.go
package upserttemplate

import "template-resolver/internal/models"

// Input registers a template type, saves a template, or both. With AddType
// and no TemplateType the type is taken from Template.
type Input struct {
	TenantDomain  string                       `json:"tenantDomain"`
	ApplicationID string                       `json:"applicationId,omitempty"`
	AddType       bool                         `json:"addType,omitempty"`
	TemplateType  *models.TemplateType         `json:"templateType,omitempty"`
	Template      *models.NotificationTemplate `json:"template,omitempty"`
}

// Output reports Saved only when the template is now a tenant override.
// Outcome tells a reset to the system default apart from a no-op.
type Output struct {
	Saved     bool   `json:"saved"`
	Outcome   string `json:"outcome,omitempty"`
	TypeAdded bool   `json:"typeAdded"`
	RequestID string `json:"requestId"`
}
