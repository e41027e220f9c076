// internal/models/notification.go
package models

// Notification channels a template type can belong to.
const (
	ChannelEmail = "EMAIL"
	ChannelSMS   = "SMS"
)

// NotificationTemplate is one localized version of a template type.
// Type is the template type display name the template belongs to.
type NotificationTemplate struct {
	DisplayName string `json:"displayName"`
	Type        string `json:"type"`
	Locale      string `json:"locale"`
	Channel     string `json:"channel"`
	ContentType string `json:"contentType,omitempty"`
	Subject     string `json:"subject,omitempty"`
	Body        string `json:"body"`
	Footer      string `json:"footer,omitempty"`
}

// SameContent reports whether both templates carry byte-identical content.
func (t NotificationTemplate) SameContent(other NotificationTemplate) bool {
	return t.ContentType == other.ContentType &&
		t.Subject == other.Subject &&
		t.Body == other.Body &&
		t.Footer == other.Footer
}

// TemplateType is a named, channel-scoped group of localized templates.
type TemplateType struct {
	DisplayName string `json:"displayName"`
	Channel     string `json:"channel"`
}
