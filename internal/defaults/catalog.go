// Package defaults serves the system default notification templates. The
// catalog is tenant-agnostic and immutable once loaded.
package defaults

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"template-resolver/internal/common/validation"
	"template-resolver/internal/models"
	"template-resolver/internal/templates"
)

//go:embed default_templates.json
var embeddedCatalog []byte

//go:embed catalog_schema.json
var catalogSchema []byte

type catalogFile struct {
	TemplateTypes []models.TemplateType         `json:"templateTypes"`
	Templates     []models.NotificationTemplate `json:"templates"`
}

// Catalog is an in-memory, read-only templates.Store. Tenant and application
// arguments are accepted for interface compatibility and ignored.
type Catalog struct {
	types     []templates.TypeKey
	typeSet   map[templates.TypeKey]struct{}
	templates []models.NotificationTemplate
	byKey     map[templates.TemplateKey]int
}

var (
	_ templates.DefaultCatalog = (*Catalog)(nil)
	_ templates.Store          = (*Catalog)(nil)
)

// New loads the catalog embedded in the binary.
func New() (*Catalog, error) {
	return Parse(embeddedCatalog)
}

// LoadFile loads a catalog from path, falling back to the embedded one when
// path is empty.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return New()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read default template catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates data against the catalog schema and indexes it. A later
// template with the same key replaces an earlier one.
func Parse(data []byte) (*Catalog, error) {
	result, err := validation.ValidateJSON(catalogSchema, data)
	if err != nil {
		return nil, fmt.Errorf("validate default template catalog: %w", err)
	}
	if !result.Valid {
		return nil, fmt.Errorf("invalid default template catalog: %s", result.Error())
	}

	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse default template catalog: %w", err)
	}

	c := &Catalog{
		typeSet: make(map[templates.TypeKey]struct{}),
		byKey:   make(map[templates.TemplateKey]int),
	}
	for _, tt := range file.TemplateTypes {
		c.addType(templates.TypeKey{DisplayName: tt.DisplayName, Channel: tt.Channel})
	}
	for _, t := range file.Templates {
		key := templates.KeyOf(&t)
		c.addType(key.Type())
		if i, ok := c.byKey[key]; ok {
			c.templates[i] = t
			continue
		}
		c.byKey[key] = len(c.templates)
		c.templates = append(c.templates, t)
	}
	return c, nil
}

func (c *Catalog) addType(typ templates.TypeKey) {
	if _, ok := c.typeSet[typ]; ok {
		return
	}
	c.typeSet[typ] = struct{}{}
	c.types = append(c.types, typ)
}

func (c *Catalog) TemplateTypeExists(_ context.Context, _ string, typ templates.TypeKey) (bool, error) {
	_, ok := c.typeSet[typ]
	return ok, nil
}

func (c *Catalog) ListTemplateTypes(_ context.Context, _, channel string) ([]string, error) {
	names := make([]string, 0, len(c.types))
	for _, typ := range c.types {
		if typ.Channel == channel {
			names = append(names, typ.DisplayName)
		}
	}
	return names, nil
}

func (c *Catalog) TemplateExists(_ context.Context, _ templates.Scope, key templates.TemplateKey) (bool, error) {
	_, ok := c.byKey[key]
	return ok, nil
}

func (c *Catalog) GetTemplate(_ context.Context, _ templates.Scope, key templates.TemplateKey) (*models.NotificationTemplate, error) {
	i, ok := c.byKey[key]
	if !ok {
		return nil, templates.ErrTemplateNotFound
	}
	t := c.templates[i]
	return &t, nil
}

func (c *Catalog) ListTemplates(_ context.Context, _ templates.Scope, typ templates.TypeKey) ([]models.NotificationTemplate, error) {
	var out []models.NotificationTemplate
	for _, t := range c.templates {
		if t.DisplayName == typ.DisplayName && t.Channel == typ.Channel {
			out = append(out, t)
		}
	}
	return out, nil
}

func (c *Catalog) ListAllTemplates(_ context.Context, _, channel string) ([]models.NotificationTemplate, error) {
	var out []models.NotificationTemplate
	for _, t := range c.templates {
		if t.Channel == channel {
			out = append(out, t)
		}
	}
	return out, nil
}

// HasSameTemplate reports whether a default with t's key carries exactly t's content.
func (c *Catalog) HasSameTemplate(t *models.NotificationTemplate) bool {
	if t == nil {
		return false
	}
	i, ok := c.byKey[templates.KeyOf(t)]
	if !ok {
		return false
	}
	return c.templates[i].SameContent(*t)
}

func (c *Catalog) AddTemplateType(context.Context, string, templates.TypeKey) error {
	return templates.ErrReadOnly
}

func (c *Catalog) DeleteTemplateType(context.Context, string, templates.TypeKey) error {
	return templates.ErrReadOnly
}

func (c *Catalog) DeleteAllTemplatesOfType(context.Context, string, templates.TypeKey) error {
	return templates.ErrReadOnly
}

func (c *Catalog) AddOrUpdateTemplate(context.Context, templates.Scope, *models.NotificationTemplate) error {
	return templates.ErrReadOnly
}

func (c *Catalog) DeleteTemplate(context.Context, templates.Scope, templates.TemplateKey) error {
	return templates.ErrReadOnly
}

func (c *Catalog) DeleteTemplatesOfType(context.Context, templates.Scope, templates.TypeKey) error {
	return templates.ErrReadOnly
}
