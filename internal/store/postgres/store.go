// Package postgres persists tenant notification templates in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"template-resolver/internal/common/database"
	"template-resolver/internal/common/logger"
	"template-resolver/internal/models"
	"template-resolver/internal/templates"
)

//go:embed schema.sql
var schema string

const (
	queryTypeExists = `SELECT EXISTS(SELECT 1 FROM notification_template_types WHERE tenant_domain = $1 AND display_name = $2 AND channel = $3)`

	queryListTypes = `SELECT display_name FROM notification_template_types WHERE tenant_domain = $1 AND channel = $2 ORDER BY display_name`

	queryInsertType = `INSERT INTO notification_template_types (id, tenant_domain, display_name, channel) VALUES ($1, $2, $3, $4) ON CONFLICT (tenant_domain, display_name, channel) DO NOTHING`

	queryDeleteType = `DELETE FROM notification_template_types WHERE tenant_domain = $1 AND display_name = $2 AND channel = $3`

	queryDeleteAllOfType = `DELETE FROM notification_templates WHERE tenant_domain = $1 AND display_name = $2 AND channel = $3`

	queryUpsertTemplate = `INSERT INTO notification_templates (id, tenant_domain, app_id, display_name, template_type, locale, channel, content_type, subject, body, footer, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW()) ON CONFLICT (tenant_domain, app_id, display_name, locale, channel) DO UPDATE SET template_type = EXCLUDED.template_type, content_type = EXCLUDED.content_type, subject = EXCLUDED.subject, body = EXCLUDED.body, footer = EXCLUDED.footer, updated_at = NOW()`

	queryTemplateExists = `SELECT EXISTS(SELECT 1 FROM notification_templates WHERE tenant_domain = $1 AND app_id = $2 AND display_name = $3 AND locale = $4 AND channel = $5)`

	templateColumns = `display_name, template_type, locale, channel, content_type, subject, body, footer`

	queryGetTemplate = `SELECT ` + templateColumns + ` FROM notification_templates WHERE tenant_domain = $1 AND app_id = $2 AND display_name = $3 AND locale = $4 AND channel = $5`

	queryListTemplates = `SELECT ` + templateColumns + ` FROM notification_templates WHERE tenant_domain = $1 AND app_id = $2 AND display_name = $3 AND channel = $4 ORDER BY locale`

	queryListAllTemplates = `SELECT ` + templateColumns + ` FROM notification_templates WHERE tenant_domain = $1 AND app_id = '' AND channel = $2 ORDER BY display_name, locale`

	queryDeleteTemplate = `DELETE FROM notification_templates WHERE tenant_domain = $1 AND app_id = $2 AND display_name = $3 AND locale = $4 AND channel = $5`

	queryDeleteTemplatesOfType = `DELETE FROM notification_templates WHERE tenant_domain = $1 AND app_id = $2 AND display_name = $3 AND channel = $4`
)

// Store is a templates.Store backed by PostgreSQL. Application-scoped
// templates carry their application id; org-level ones an empty app_id.
type Store struct {
	db     *sql.DB
	logger logger.Logger
}

var _ templates.Store = (*Store)(nil)

func New(db *sql.DB, log logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "template-store"}),
	}
}

// EnsureSchema creates the template tables when they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create template schema: %w", err)
	}
	return nil
}

func (s *Store) TemplateTypeExists(ctx context.Context, tenantDomain string, typ templates.TypeKey) (bool, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, queryTypeExists, tenantDomain, typ.DisplayName, typ.Channel).Scan(&exists); err != nil {
		return false, fmt.Errorf("check template type %s: %w", typ.DisplayName, err)
	}
	return exists, nil
}

func (s *Store) ListTemplateTypes(ctx context.Context, tenantDomain, channel string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, queryListTypes, tenantDomain, channel)
	if err != nil {
		return nil, fmt.Errorf("list template types: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan template type: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list template types: %w", err)
	}
	return names, nil
}

func (s *Store) AddTemplateType(ctx context.Context, tenantDomain string, typ templates.TypeKey) error {
	if _, err := s.db.ExecContext(ctx, queryInsertType, uuid.NewString(), tenantDomain, typ.DisplayName, typ.Channel); err != nil {
		return fmt.Errorf("add template type %s: %w", typ.DisplayName, err)
	}
	return nil
}

// DeleteTemplateType removes the type together with all of its templates.
func (s *Store) DeleteTemplateType(ctx context.Context, tenantDomain string, typ templates.TypeKey) error {
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, queryDeleteAllOfType, tenantDomain, typ.DisplayName, typ.Channel); err != nil {
			return fmt.Errorf("delete templates of type %s: %w", typ.DisplayName, err)
		}
		if _, err := tx.ExecContext(ctx, queryDeleteType, tenantDomain, typ.DisplayName, typ.Channel); err != nil {
			return fmt.Errorf("delete template type %s: %w", typ.DisplayName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("template type deleted", map[string]interface{}{
		"tenantDomain": tenantDomain,
		"displayName":  typ.DisplayName,
		"channel":      typ.Channel,
	})
	return nil
}

func (s *Store) DeleteAllTemplatesOfType(ctx context.Context, tenantDomain string, typ templates.TypeKey) error {
	if _, err := s.db.ExecContext(ctx, queryDeleteAllOfType, tenantDomain, typ.DisplayName, typ.Channel); err != nil {
		return fmt.Errorf("delete templates of type %s: %w", typ.DisplayName, err)
	}
	return nil
}

// AddOrUpdateTemplate upserts t and registers its type if needed.
func (s *Store) AddOrUpdateTemplate(ctx context.Context, scope templates.Scope, t *models.NotificationTemplate) error {
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, queryInsertType, uuid.NewString(), scope.TenantDomain, t.DisplayName, t.Channel); err != nil {
			return fmt.Errorf("add template type %s: %w", t.DisplayName, err)
		}
		_, err := tx.ExecContext(ctx, queryUpsertTemplate,
			uuid.NewString(), scope.TenantDomain, scope.ApplicationID,
			t.DisplayName, t.Type, t.Locale, t.Channel,
			t.ContentType, t.Subject, t.Body, t.Footer,
		)
		if err != nil {
			return fmt.Errorf("save template %s/%s: %w", t.DisplayName, t.Locale, err)
		}
		return nil
	})
}

func (s *Store) TemplateExists(ctx context.Context, scope templates.Scope, key templates.TemplateKey) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, queryTemplateExists,
		scope.TenantDomain, scope.ApplicationID, key.DisplayName, key.Locale, key.Channel,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check template %s/%s: %w", key.DisplayName, key.Locale, err)
	}
	return exists, nil
}

func (s *Store) GetTemplate(ctx context.Context, scope templates.Scope, key templates.TemplateKey) (*models.NotificationTemplate, error) {
	row := s.db.QueryRowContext(ctx, queryGetTemplate,
		scope.TenantDomain, scope.ApplicationID, key.DisplayName, key.Locale, key.Channel,
	)
	t, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, templates.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("get template %s/%s: %w", key.DisplayName, key.Locale, err)
	}
	return t, nil
}

func (s *Store) ListTemplates(ctx context.Context, scope templates.Scope, typ templates.TypeKey) ([]models.NotificationTemplate, error) {
	rows, err := s.db.QueryContext(ctx, queryListTemplates,
		scope.TenantDomain, scope.ApplicationID, typ.DisplayName, typ.Channel,
	)
	if err != nil {
		return nil, fmt.Errorf("list templates of type %s: %w", typ.DisplayName, err)
	}
	return collectTemplates(rows)
}

// ListAllTemplates lists the tenant's org-level templates on channel.
func (s *Store) ListAllTemplates(ctx context.Context, tenantDomain, channel string) ([]models.NotificationTemplate, error) {
	rows, err := s.db.QueryContext(ctx, queryListAllTemplates, tenantDomain, channel)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return collectTemplates(rows)
}

func (s *Store) DeleteTemplate(ctx context.Context, scope templates.Scope, key templates.TemplateKey) error {
	_, err := s.db.ExecContext(ctx, queryDeleteTemplate,
		scope.TenantDomain, scope.ApplicationID, key.DisplayName, key.Locale, key.Channel,
	)
	if err != nil {
		return fmt.Errorf("delete template %s/%s: %w", key.DisplayName, key.Locale, err)
	}
	return nil
}

func (s *Store) DeleteTemplatesOfType(ctx context.Context, scope templates.Scope, typ templates.TypeKey) error {
	_, err := s.db.ExecContext(ctx, queryDeleteTemplatesOfType,
		scope.TenantDomain, scope.ApplicationID, typ.DisplayName, typ.Channel,
	)
	if err != nil {
		return fmt.Errorf("delete templates of type %s: %w", typ.DisplayName, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTemplate(row scanner) (*models.NotificationTemplate, error) {
	var t models.NotificationTemplate
	if err := row.Scan(
		&t.DisplayName, &t.Type, &t.Locale, &t.Channel,
		&t.ContentType, &t.Subject, &t.Body, &t.Footer,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

func collectTemplates(rows *sql.Rows) ([]models.NotificationTemplate, error) {
	defer rows.Close()

	var list []models.NotificationTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		list = append(list, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	return list, nil
}
