// Package templates resolves notification templates across a tenant's own
// store, its ancestor organizations and the system default catalog.
package templates

import (
	"context"
	"errors"

	"template-resolver/internal/models"
)

var (
	// ErrTemplateNotFound is returned by GetTemplate when no layer holds the template.
	ErrTemplateNotFound = errors.New("notification template not found")
	// ErrOrganizationNotFound is returned by an OrgDirectory for unknown tenants.
	ErrOrganizationNotFound = errors.New("organization not found")
	// ErrReadOnly is returned by stores that cannot be mutated, such as the default catalog.
	ErrReadOnly = errors.New("template store is read-only")
)

// TypeKey identifies a template type inside a tenant.
type TypeKey struct {
	DisplayName string
	Channel     string
}

// TemplateKey identifies a localized template inside a scope.
type TemplateKey struct {
	DisplayName string
	Locale      string
	Channel     string
}

// Type returns the template type the key belongs to.
func (k TemplateKey) Type() TypeKey {
	return TypeKey{DisplayName: k.DisplayName, Channel: k.Channel}
}

// KeyOf returns the key identifying t.
func KeyOf(t *models.NotificationTemplate) TemplateKey {
	return TemplateKey{DisplayName: t.DisplayName, Locale: t.Locale, Channel: t.Channel}
}

// Scope is the tenant and optional application a template lives in.
// An empty ApplicationID addresses the tenant's org-level templates.
type Scope struct {
	TenantDomain  string
	ApplicationID string
}

// Reader is the read surface shared by persistence stores and the default catalog.
type Reader interface {
	TemplateTypeExists(ctx context.Context, tenantDomain string, typ TypeKey) (bool, error)
	ListTemplateTypes(ctx context.Context, tenantDomain, channel string) ([]string, error)
	TemplateExists(ctx context.Context, scope Scope, key TemplateKey) (bool, error)
	GetTemplate(ctx context.Context, scope Scope, key TemplateKey) (*models.NotificationTemplate, error)
	ListTemplates(ctx context.Context, scope Scope, typ TypeKey) ([]models.NotificationTemplate, error)
	ListAllTemplates(ctx context.Context, tenantDomain, channel string) ([]models.NotificationTemplate, error)
}

// Store is the full template CRUD surface. Persistence backends, caches and
// the Resolver itself all implement it.
type Store interface {
	Reader

	AddTemplateType(ctx context.Context, tenantDomain string, typ TypeKey) error
	DeleteTemplateType(ctx context.Context, tenantDomain string, typ TypeKey) error
	// DeleteAllTemplatesOfType removes every template of the type in the tenant,
	// org-level and application-level alike. The type itself remains.
	DeleteAllTemplatesOfType(ctx context.Context, tenantDomain string, typ TypeKey) error
	AddOrUpdateTemplate(ctx context.Context, scope Scope, t *models.NotificationTemplate) error
	DeleteTemplate(ctx context.Context, scope Scope, key TemplateKey) error
	// DeleteTemplatesOfType removes the templates of the type in one scope.
	DeleteTemplatesOfType(ctx context.Context, scope Scope, typ TypeKey) error
}

// SaveOutcome says what a save did with a template that may duplicate a
// system default.
type SaveOutcome string

const (
	// SaveStored means the template is now held as a tenant override.
	SaveStored SaveOutcome = "stored"
	// SaveResetToDefault means an existing override was removed because the
	// saved content equals the system default.
	SaveResetToDefault SaveOutcome = "reset_to_default"
	// SaveMatchesDefault means nothing was written: the content equals the
	// system default and no override existed.
	SaveMatchesDefault SaveOutcome = "matches_default"
)

// Saver is implemented by stores that report what AddOrUpdateTemplate did.
type Saver interface {
	SaveTemplate(ctx context.Context, scope Scope, t *models.NotificationTemplate) (SaveOutcome, error)
}

// DefaultCatalog is the tenant-agnostic set of built-in templates.
type DefaultCatalog interface {
	Reader

	// HasSameTemplate reports whether a default with the same key and
	// byte-identical content exists.
	HasSameTemplate(t *models.NotificationTemplate) bool
}

// OrgDirectory answers organization tree topology queries.
type OrgDirectory interface {
	ResolveOrganizationID(ctx context.Context, tenantDomain string) (string, error)
	// AncestorOrganizationIDs returns the chain from orgID up to the root, self first.
	AncestorOrganizationIDs(ctx context.Context, orgID string) ([]string, error)
	OrganizationDepth(ctx context.Context, orgID string) (int, error)
	ResolveTenantDomain(ctx context.Context, orgID string) (string, error)
	IsOrganization(ctx context.Context, tenantDomain string) (bool, error)
}

// AppDirectory maps an application to its counterparts in ancestor organizations.
type AppDirectory interface {
	// AncestorApplicationIDs returns orgID -> applicationID for every ancestor
	// holding a corresponding application. Missing entries mean none.
	AncestorApplicationIDs(ctx context.Context, applicationID, orgID string) (map[string]string, error)
}
