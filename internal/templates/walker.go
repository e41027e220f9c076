package templates

import (
	"context"

	"template-resolver/internal/common/logger"
)

// Strategy controls how a walk treats probe hits.
type Strategy int

const (
	// FirstMatch stops at the nearest ancestor whose probe finds something.
	FirstMatch Strategy = iota
	// MergeAll visits every in-range ancestor. The probe owns the merge.
	MergeAll
)

func (s Strategy) String() string {
	switch s {
	case FirstMatch:
		return "first_match"
	case MergeAll:
		return "merge_all"
	default:
		return "unknown"
	}
}

// Ancestor is one organization visited during a walk.
type Ancestor struct {
	OrganizationID string
	TenantDomain   string
	// ApplicationID is the ancestor's counterpart of the requested application;
	// empty when none was requested or the ancestor has no counterpart.
	ApplicationID string
	Depth         int
}

// Probe looks a resource up at a single ancestor. found reports whether the
// result is meaningful; an error aborts the walk.
type Probe[T any] interface {
	Probe(ctx context.Context, ancestor Ancestor) (result T, found bool, err error)
}

// ProbeFunc adapts an ordinary function to the Probe interface.
type ProbeFunc[T any] func(ctx context.Context, ancestor Ancestor) (T, bool, error)

func (f ProbeFunc[T]) Probe(ctx context.Context, ancestor Ancestor) (T, bool, error) {
	return f(ctx, ancestor)
}

// Walker climbs the organization tree from a tenant towards the root.
// Ancestors shallower than minDepth are never visited.
type Walker struct {
	orgs     OrgDirectory
	apps     AppDirectory
	minDepth int
	logger   logger.Logger
}

func NewWalker(orgs OrgDirectory, apps AppDirectory, minDepth int, log logger.Logger) *Walker {
	return &Walker{
		orgs:     orgs,
		apps:     apps,
		minDepth: minDepth,
		logger:   log.WithFields(map[string]interface{}{"component": "ancestor-walker"}),
	}
}

// MinDepth returns the configured hierarchy cutoff.
func (w *Walker) MinDepth() int {
	return w.minDepth
}

// Walk visits the ancestors of tenantDomain nearest first, invoking probe at
// each one. With FirstMatch the first found result is returned immediately;
// with MergeAll the last found result is returned. Tenants without ancestors
// return found=false without any probe call.
func Walk[T any](ctx context.Context, w *Walker, tenantDomain, applicationID string, strategy Strategy, probe Probe[T]) (T, bool, error) {
	var (
		best  T
		found bool
		zero  T
	)

	orgID, err := w.orgs.ResolveOrganizationID(ctx, tenantDomain)
	if err != nil {
		return zero, false, newResolutionError("resolve organization id", tenantDomain, applicationID, err)
	}

	ancestorIDs, err := w.orgs.AncestorOrganizationIDs(ctx, orgID)
	if err != nil {
		return zero, false, newResolutionError("list ancestor organizations", tenantDomain, applicationID, err)
	}
	if len(ancestorIDs) < 2 {
		return zero, false, nil
	}

	var ancestorAppIDs map[string]string
	if applicationID != "" && w.apps != nil {
		ancestorAppIDs, err = w.apps.AncestorApplicationIDs(ctx, applicationID, orgID)
		if err != nil {
			return zero, false, newResolutionError("list ancestor applications", tenantDomain, applicationID, err)
		}
	}

	for _, ancestorID := range ancestorIDs[1:] {
		depth, err := w.orgs.OrganizationDepth(ctx, ancestorID)
		if err != nil {
			return zero, false, newResolutionError("resolve organization depth", tenantDomain, applicationID, err)
		}
		if depth < w.minDepth {
			w.logger.Debug("ancestor above hierarchy cutoff, stopping", map[string]interface{}{
				"tenantDomain":   tenantDomain,
				"organizationId": ancestorID,
				"depth":          depth,
				"minDepth":       w.minDepth,
			})
			break
		}

		ancestorTenant, err := w.orgs.ResolveTenantDomain(ctx, ancestorID)
		if err != nil {
			return zero, false, newResolutionError("resolve ancestor tenant domain", tenantDomain, applicationID, err)
		}

		ancestor := Ancestor{
			OrganizationID: ancestorID,
			TenantDomain:   ancestorTenant,
			ApplicationID:  ancestorAppIDs[ancestorID],
			Depth:          depth,
		}

		result, ok, err := probe.Probe(ctx, ancestor)
		if err != nil {
			return zero, false, newResolutionError("probe ancestor "+ancestorTenant, tenantDomain, applicationID, err)
		}
		if !ok {
			continue
		}

		best, found = result, true
		if strategy == FirstMatch {
			break
		}
	}

	return best, found, nil
}
