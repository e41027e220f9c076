package templatestest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"template-resolver/internal/models"
	"template-resolver/internal/templates"
)

// MemStore is an in-memory templates.Store. It records every tenant a
// read was issued for, in order.
type MemStore struct {
	mu        sync.Mutex
	types     map[string]map[templates.TypeKey]struct{}
	templates map[templates.Scope]map[templates.TemplateKey]models.NotificationTemplate
	reads     []string
}

var _ templates.Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		types:     make(map[string]map[templates.TypeKey]struct{}),
		templates: make(map[templates.Scope]map[templates.TemplateKey]models.NotificationTemplate),
	}
}

// Put stores t in scope without any default handling.
func (s *MemStore) Put(scope templates.Scope, t models.NotificationTemplate) {
	_ = s.AddOrUpdateTemplate(context.Background(), scope, &t)
}

// Reads returns the tenants read so far.
func (s *MemStore) Reads() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.reads...)
}

func (s *MemStore) read(tenantDomain string) {
	s.reads = append(s.reads, tenantDomain)
}

func (s *MemStore) TemplateTypeExists(_ context.Context, tenantDomain string, typ templates.TypeKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.read(tenantDomain)
	_, ok := s.types[tenantDomain][typ]
	return ok, nil
}

func (s *MemStore) ListTemplateTypes(_ context.Context, tenantDomain, channel string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.read(tenantDomain)
	var names []string
	for typ := range s.types[tenantDomain] {
		if typ.Channel == channel {
			names = append(names, typ.DisplayName)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemStore) TemplateExists(_ context.Context, scope templates.Scope, key templates.TemplateKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.read(scope.TenantDomain)
	_, ok := s.templates[scope][key]
	return ok, nil
}

func (s *MemStore) GetTemplate(_ context.Context, scope templates.Scope, key templates.TemplateKey) (*models.NotificationTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.read(scope.TenantDomain)
	t, ok := s.templates[scope][key]
	if !ok {
		return nil, templates.ErrTemplateNotFound
	}
	return &t, nil
}

func (s *MemStore) ListTemplates(_ context.Context, scope templates.Scope, typ templates.TypeKey) ([]models.NotificationTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.read(scope.TenantDomain)
	return s.collect(scope, func(t models.NotificationTemplate) bool {
		return t.DisplayName == typ.DisplayName && t.Channel == typ.Channel
	}), nil
}

func (s *MemStore) ListAllTemplates(_ context.Context, tenantDomain, channel string) ([]models.NotificationTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.read(tenantDomain)
	return s.collect(templates.Scope{TenantDomain: tenantDomain}, func(t models.NotificationTemplate) bool {
		return t.Channel == channel
	}), nil
}

func (s *MemStore) collect(scope templates.Scope, keep func(models.NotificationTemplate) bool) []models.NotificationTemplate {
	var out []models.NotificationTemplate
	for _, t := range s.templates[scope] {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayName != out[j].DisplayName {
			return out[i].DisplayName < out[j].DisplayName
		}
		return out[i].Locale < out[j].Locale
	})
	return out
}

func (s *MemStore) AddTemplateType(_ context.Context, tenantDomain string, typ templates.TypeKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addType(tenantDomain, typ)
	return nil
}

func (s *MemStore) addType(tenantDomain string, typ templates.TypeKey) {
	if s.types[tenantDomain] == nil {
		s.types[tenantDomain] = make(map[templates.TypeKey]struct{})
	}
	s.types[tenantDomain][typ] = struct{}{}
}

func (s *MemStore) DeleteTemplateType(_ context.Context, tenantDomain string, typ templates.TypeKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteOfType(tenantDomain, typ, nil)
	delete(s.types[tenantDomain], typ)
	return nil
}

func (s *MemStore) DeleteAllTemplatesOfType(_ context.Context, tenantDomain string, typ templates.TypeKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteOfType(tenantDomain, typ, nil)
	return nil
}

func (s *MemStore) AddOrUpdateTemplate(_ context.Context, scope templates.Scope, t *models.NotificationTemplate) error {
	if t == nil {
		return fmt.Errorf("nil template")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := templates.KeyOf(t)
	s.addType(scope.TenantDomain, key.Type())
	if s.templates[scope] == nil {
		s.templates[scope] = make(map[templates.TemplateKey]models.NotificationTemplate)
	}
	s.templates[scope][key] = *t
	return nil
}

func (s *MemStore) DeleteTemplate(_ context.Context, scope templates.Scope, key templates.TemplateKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.templates[scope], key)
	return nil
}

func (s *MemStore) DeleteTemplatesOfType(_ context.Context, scope templates.Scope, typ templates.TypeKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteOfType(scope.TenantDomain, typ, &scope)
	return nil
}

// deleteOfType removes templates of typ in tenantDomain, restricted to one
// scope when only is set.
func (s *MemStore) deleteOfType(tenantDomain string, typ templates.TypeKey, only *templates.Scope) {
	for scope, byKey := range s.templates {
		if scope.TenantDomain != tenantDomain || (only != nil && scope != *only) {
			continue
		}
		for key := range byKey {
			if key.Type() == typ {
				delete(byKey, key)
			}
		}
	}
}

// Org is one node of a Tree.
type Org struct {
	ID           string
	TenantDomain string
	ParentID     string
	Depth        int
}

// Tree is an in-memory OrgDirectory and AppDirectory.
type Tree struct {
	byID     map[string]Org
	byTenant map[string]string
	// apps maps orgID -> applicationID -> root application id.
	apps map[string]map[string]string
}

var (
	_ templates.OrgDirectory = (*Tree)(nil)
	_ templates.AppDirectory = (*Tree)(nil)
)

func NewTree(orgs ...Org) *Tree {
	t := &Tree{
		byID:     make(map[string]Org),
		byTenant: make(map[string]string),
		apps:     make(map[string]map[string]string),
	}
	for _, o := range orgs {
		t.byID[o.ID] = o
		t.byTenant[o.TenantDomain] = o.ID
	}
	return t
}

// ShareApp registers applicationID in orgID as a copy of rootAppID.
func (t *Tree) ShareApp(orgID, applicationID, rootAppID string) {
	if t.apps[orgID] == nil {
		t.apps[orgID] = make(map[string]string)
	}
	t.apps[orgID][applicationID] = rootAppID
}

func (t *Tree) ResolveOrganizationID(_ context.Context, tenantDomain string) (string, error) {
	id, ok := t.byTenant[tenantDomain]
	if !ok {
		return "", templates.ErrOrganizationNotFound
	}
	return id, nil
}

func (t *Tree) AncestorOrganizationIDs(_ context.Context, orgID string) ([]string, error) {
	var ids []string
	for id := orgID; id != ""; id = t.byID[id].ParentID {
		if _, ok := t.byID[id]; !ok {
			return nil, templates.ErrOrganizationNotFound
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (t *Tree) OrganizationDepth(_ context.Context, orgID string) (int, error) {
	o, ok := t.byID[orgID]
	if !ok {
		return 0, templates.ErrOrganizationNotFound
	}
	return o.Depth, nil
}

func (t *Tree) ResolveTenantDomain(_ context.Context, orgID string) (string, error) {
	o, ok := t.byID[orgID]
	if !ok {
		return "", templates.ErrOrganizationNotFound
	}
	return o.TenantDomain, nil
}

func (t *Tree) IsOrganization(_ context.Context, tenantDomain string) (bool, error) {
	id, ok := t.byTenant[tenantDomain]
	if !ok {
		return false, nil
	}
	return t.byID[id].Depth > 0, nil
}

func (t *Tree) AncestorApplicationIDs(ctx context.Context, applicationID, orgID string) (map[string]string, error) {
	root, ok := t.apps[orgID][applicationID]
	if !ok {
		return map[string]string{}, nil
	}
	ids, err := t.AncestorOrganizationIDs(ctx, orgID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for _, id := range ids[1:] {
		for app, r := range t.apps[id] {
			if r == root {
				out[id] = app
			}
		}
	}
	return out, nil
}
