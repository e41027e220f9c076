// Package templatestest provides testify mocks of the templates capabilities.
package templatestest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"template-resolver/internal/models"
	"template-resolver/internal/templates"
)

// MockStore is a mock templates.Store.
type MockStore struct {
	mock.Mock
}

var _ templates.Store = (*MockStore)(nil)

func (m *MockStore) TemplateTypeExists(ctx context.Context, tenantDomain string, typ templates.TypeKey) (bool, error) {
	args := m.Called(ctx, tenantDomain, typ)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) ListTemplateTypes(ctx context.Context, tenantDomain, channel string) ([]string, error) {
	args := m.Called(ctx, tenantDomain, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStore) TemplateExists(ctx context.Context, scope templates.Scope, key templates.TemplateKey) (bool, error) {
	args := m.Called(ctx, scope, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) GetTemplate(ctx context.Context, scope templates.Scope, key templates.TemplateKey) (*models.NotificationTemplate, error) {
	args := m.Called(ctx, scope, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NotificationTemplate), args.Error(1)
}

func (m *MockStore) ListTemplates(ctx context.Context, scope templates.Scope, typ templates.TypeKey) ([]models.NotificationTemplate, error) {
	args := m.Called(ctx, scope, typ)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.NotificationTemplate), args.Error(1)
}

func (m *MockStore) ListAllTemplates(ctx context.Context, tenantDomain, channel string) ([]models.NotificationTemplate, error) {
	args := m.Called(ctx, tenantDomain, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.NotificationTemplate), args.Error(1)
}

func (m *MockStore) AddTemplateType(ctx context.Context, tenantDomain string, typ templates.TypeKey) error {
	return m.Called(ctx, tenantDomain, typ).Error(0)
}

func (m *MockStore) DeleteTemplateType(ctx context.Context, tenantDomain string, typ templates.TypeKey) error {
	return m.Called(ctx, tenantDomain, typ).Error(0)
}

func (m *MockStore) DeleteAllTemplatesOfType(ctx context.Context, tenantDomain string, typ templates.TypeKey) error {
	return m.Called(ctx, tenantDomain, typ).Error(0)
}

func (m *MockStore) AddOrUpdateTemplate(ctx context.Context, scope templates.Scope, t *models.NotificationTemplate) error {
	return m.Called(ctx, scope, t).Error(0)
}

func (m *MockStore) DeleteTemplate(ctx context.Context, scope templates.Scope, key templates.TemplateKey) error {
	return m.Called(ctx, scope, key).Error(0)
}

func (m *MockStore) DeleteTemplatesOfType(ctx context.Context, scope templates.Scope, typ templates.TypeKey) error {
	return m.Called(ctx, scope, typ).Error(0)
}

// MockOrgDirectory is a mock templates.OrgDirectory.
type MockOrgDirectory struct {
	mock.Mock
}

var _ templates.OrgDirectory = (*MockOrgDirectory)(nil)

func (m *MockOrgDirectory) ResolveOrganizationID(ctx context.Context, tenantDomain string) (string, error) {
	args := m.Called(ctx, tenantDomain)
	return args.String(0), args.Error(1)
}

func (m *MockOrgDirectory) AncestorOrganizationIDs(ctx context.Context, orgID string) ([]string, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockOrgDirectory) OrganizationDepth(ctx context.Context, orgID string) (int, error) {
	args := m.Called(ctx, orgID)
	return args.Int(0), args.Error(1)
}

func (m *MockOrgDirectory) ResolveTenantDomain(ctx context.Context, orgID string) (string, error) {
	args := m.Called(ctx, orgID)
	return args.String(0), args.Error(1)
}

func (m *MockOrgDirectory) IsOrganization(ctx context.Context, tenantDomain string) (bool, error) {
	args := m.Called(ctx, tenantDomain)
	return args.Bool(0), args.Error(1)
}

// MockAppDirectory is a mock templates.AppDirectory.
type MockAppDirectory struct {
	mock.Mock
}

var _ templates.AppDirectory = (*MockAppDirectory)(nil)

func (m *MockAppDirectory) AncestorApplicationIDs(ctx context.Context, applicationID, orgID string) (map[string]string, error) {
	args := m.Called(ctx, applicationID, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}
