// Package organization answers organization tree and shared application
// queries from PostgreSQL.
package organization

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"template-resolver/internal/common/logger"
	"template-resolver/internal/templates"
)

const (
	queryOrganizationID = `SELECT id FROM organizations WHERE tenant_domain = $1`

	queryAncestors = `WITH RECURSIVE chain AS (SELECT id, parent_id, 0 AS hop FROM organizations WHERE id = $1 UNION ALL SELECT o.id, o.parent_id, c.hop + 1 FROM organizations o JOIN chain c ON o.id = c.parent_id) SELECT id FROM chain ORDER BY hop`

	queryDepth = `SELECT depth FROM organizations WHERE id = $1`

	queryTenantDomain = `SELECT tenant_domain FROM organizations WHERE id = $1`

	queryTenantDepth = `SELECT depth FROM organizations WHERE tenant_domain = $1`

	queryMainApplication = `SELECT main_app_id, main_org_id FROM shared_applications WHERE shared_app_id = $1 AND shared_org_id = $2`

	querySharedApplications = `SELECT shared_org_id, shared_app_id FROM shared_applications WHERE main_app_id = $1 AND shared_org_id = ANY($2)`
)

// Directory implements templates.OrgDirectory and templates.AppDirectory.
// The root organization has depth 0; every child is one deeper than its parent.
type Directory struct {
	db     *sql.DB
	logger logger.Logger
}

var (
	_ templates.OrgDirectory = (*Directory)(nil)
	_ templates.AppDirectory = (*Directory)(nil)
)

func NewDirectory(db *sql.DB, log logger.Logger) *Directory {
	return &Directory{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "organization-directory"}),
	}
}

func (d *Directory) ResolveOrganizationID(ctx context.Context, tenantDomain string) (string, error) {
	var id string
	if err := d.db.QueryRowContext(ctx, queryOrganizationID, tenantDomain).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("tenant %s: %w", tenantDomain, templates.ErrOrganizationNotFound)
		}
		return "", fmt.Errorf("resolve organization of tenant %s: %w", tenantDomain, err)
	}
	return id, nil
}

// AncestorOrganizationIDs returns orgID followed by its ancestors up to the root.
func (d *Directory) AncestorOrganizationIDs(ctx context.Context, orgID string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, queryAncestors, orgID)
	if err != nil {
		return nil, fmt.Errorf("list ancestors of %s: %w", orgID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan ancestor: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list ancestors of %s: %w", orgID, err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("organization %s: %w", orgID, templates.ErrOrganizationNotFound)
	}
	return ids, nil
}

func (d *Directory) OrganizationDepth(ctx context.Context, orgID string) (int, error) {
	var depth int
	if err := d.db.QueryRowContext(ctx, queryDepth, orgID).Scan(&depth); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("organization %s: %w", orgID, templates.ErrOrganizationNotFound)
		}
		return 0, fmt.Errorf("resolve depth of %s: %w", orgID, err)
	}
	return depth, nil
}

func (d *Directory) ResolveTenantDomain(ctx context.Context, orgID string) (string, error) {
	var tenantDomain string
	if err := d.db.QueryRowContext(ctx, queryTenantDomain, orgID).Scan(&tenantDomain); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("organization %s: %w", orgID, templates.ErrOrganizationNotFound)
		}
		return "", fmt.Errorf("resolve tenant domain of %s: %w", orgID, err)
	}
	return tenantDomain, nil
}

// IsOrganization reports whether tenantDomain is a sub-organization. Root
// tenants and unknown domains are not.
func (d *Directory) IsOrganization(ctx context.Context, tenantDomain string) (bool, error) {
	var depth int
	if err := d.db.QueryRowContext(ctx, queryTenantDepth, tenantDomain).Scan(&depth); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check organization %s: %w", tenantDomain, err)
	}
	return depth > 0, nil
}

// AncestorApplicationIDs maps each ancestor of orgID that holds a copy of the
// application to that copy's id. An application that is not itself shared
// into orgID has no ancestor counterparts.
func (d *Directory) AncestorApplicationIDs(ctx context.Context, applicationID, orgID string) (map[string]string, error) {
	var mainAppID, mainOrgID string
	err := d.db.QueryRowContext(ctx, queryMainApplication, applicationID, orgID).Scan(&mainAppID, &mainOrgID)
	if errors.Is(err, sql.ErrNoRows) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve main application of %s: %w", applicationID, err)
	}

	chain, err := d.AncestorOrganizationIDs(ctx, orgID)
	if err != nil {
		return nil, err
	}
	ancestors := chain[1:]

	out := make(map[string]string, len(ancestors))
	if len(ancestors) == 0 {
		return out, nil
	}

	rows, err := d.db.QueryContext(ctx, querySharedApplications, mainAppID, pq.Array(ancestors))
	if err != nil {
		return nil, fmt.Errorf("list shared applications of %s: %w", mainAppID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var sharedOrgID, sharedAppID string
		if err := rows.Scan(&sharedOrgID, &sharedAppID); err != nil {
			return nil, fmt.Errorf("scan shared application: %w", err)
		}
		out[sharedOrgID] = sharedAppID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list shared applications of %s: %w", mainAppID, err)
	}

	for _, id := range ancestors {
		if id == mainOrgID {
			out[id] = mainAppID
			break
		}
	}

	d.logger.Debug("resolved ancestor applications", map[string]interface{}{
		"applicationId": applicationID,
		"orgId":         orgID,
		"mainAppId":     mainAppID,
		"matches":       len(out),
	})
	return out, nil
}
