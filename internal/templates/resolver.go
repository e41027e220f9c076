package templates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"template-resolver/internal/common/logger"
	"template-resolver/internal/common/metrics"
	"template-resolver/internal/models"
)

const tracerName = "template-resolver/internal/templates"

// Operation labels used for metrics and spans.
const (
	opTemplateTypeExists       = "template_type_exists"
	opListTemplateTypes        = "list_template_types"
	opAddTemplateType          = "add_template_type"
	opDeleteTemplateType       = "delete_template_type"
	opDeleteAllTemplatesOfType = "delete_all_templates_of_type"
	opAddOrUpdateTemplate      = "add_or_update_template"
	opTemplateExists           = "template_exists"
	opGetTemplate              = "get_template"
	opListTemplates            = "list_templates"
	opListAllTemplates         = "list_all_templates"
	opDeleteTemplate           = "delete_template"
	opDeleteTemplatesOfType    = "delete_templates_of_type"
)

// Resolution sources recorded in metrics.
const (
	sourceTenant   = "tenant"
	sourceAncestor = "ancestor"
	sourceDefault  = "default"
	sourceNone     = "none"
)

// Resolver layers a tenant's persisted templates over those of its ancestor
// organizations and the system defaults. Precedence is always tenant, then
// ancestors nearest first, then defaults. Writes only ever touch the tenant's
// own persistence scope. A Resolver holds no per-call state and is safe for
// concurrent use.
type Resolver struct {
	store    Store
	defaults DefaultCatalog
	walker   *Walker
	keyOf    TemplateKeyFunc
	logger   logger.Logger
	tracer   trace.Tracer
}

var (
	_ Store = (*Resolver)(nil)
	_ Saver = (*Resolver)(nil)
)

// ResolverOption customizes a Resolver.
type ResolverOption func(*Resolver)

// WithMergeKey sets the identity used when reconciling template listings.
func WithMergeKey(keyOf TemplateKeyFunc) ResolverOption {
	return func(r *Resolver) {
		if keyOf != nil {
			r.keyOf = keyOf
		}
	}
}

// WithTracer overrides the tracer obtained from the global provider.
func WithTracer(tracer trace.Tracer) ResolverOption {
	return func(r *Resolver) {
		if tracer != nil {
			r.tracer = tracer
		}
	}
}

func NewResolver(store Store, defaults DefaultCatalog, walker *Walker, log logger.Logger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:    store,
		defaults: defaults,
		walker:   walker,
		keyOf:    ByDisplayName,
		logger:   log.WithFields(map[string]interface{}{"component": "template-resolver"}),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) AddTemplateType(ctx context.Context, tenantDomain string, typ TypeKey) (err error) {
	ctx, done := r.begin(ctx, opAddTemplateType, tenantDomain)
	defer func() { done(err) }()

	return r.store.AddTemplateType(ctx, tenantDomain, typ)
}

func (r *Resolver) TemplateTypeExists(ctx context.Context, tenantDomain string, typ TypeKey) (exists bool, err error) {
	ctx, done := r.begin(ctx, opTemplateTypeExists, tenantDomain)
	defer func() { done(err) }()

	exists, err = r.defaults.TemplateTypeExists(ctx, tenantDomain, typ)
	if err != nil {
		return false, err
	}
	if exists {
		recordSource(opTemplateTypeExists, sourceDefault)
		return true, nil
	}

	exists, err = r.store.TemplateTypeExists(ctx, tenantDomain, typ)
	if err != nil {
		return false, err
	}
	if exists {
		recordSource(opTemplateTypeExists, sourceTenant)
	} else {
		recordSource(opTemplateTypeExists, sourceNone)
	}
	return exists, nil
}

func (r *Resolver) ListTemplateTypes(ctx context.Context, tenantDomain, channel string) (types []string, err error) {
	ctx, done := r.begin(ctx, opListTemplateTypes, tenantDomain)
	defer func() { done(err) }()

	base, err := r.store.ListTemplateTypes(ctx, tenantDomain, channel)
	if err != nil {
		return nil, err
	}

	isOrg, err := r.isOrganization(ctx, tenantDomain, "", "")
	if err != nil {
		return nil, err
	}
	if isOrg {
		probe := &typeListProbe{store: r.store, channel: channel, running: base}
		merged, found, err := Walk[[]string](ctx, r.walker, tenantDomain, "", MergeAll, probe)
		if err != nil {
			return nil, withResource(err, "")
		}
		if found {
			base = MergeUnique(base, merged)
		}
	}

	defaults, err := r.defaults.ListTemplateTypes(ctx, tenantDomain, channel)
	if err != nil {
		return nil, err
	}
	return MergeUnique(base, defaults), nil
}

func (r *Resolver) DeleteTemplateType(ctx context.Context, tenantDomain string, typ TypeKey) (err error) {
	ctx, done := r.begin(ctx, opDeleteTemplateType, tenantDomain)
	defer func() { done(err) }()

	exists, err := r.store.TemplateTypeExists(ctx, tenantDomain, typ)
	if err != nil || !exists {
		return err
	}
	return r.store.DeleteTemplateType(ctx, tenantDomain, typ)
}

func (r *Resolver) DeleteAllTemplatesOfType(ctx context.Context, tenantDomain string, typ TypeKey) (err error) {
	ctx, done := r.begin(ctx, opDeleteAllTemplatesOfType, tenantDomain)
	defer func() { done(err) }()

	exists, err := r.store.TemplateTypeExists(ctx, tenantDomain, typ)
	if err != nil || !exists {
		return err
	}
	return r.store.DeleteAllTemplatesOfType(ctx, tenantDomain, typ)
}

// AddOrUpdateTemplate saves t the way SaveTemplate does.
func (r *Resolver) AddOrUpdateTemplate(ctx context.Context, scope Scope, t *models.NotificationTemplate) error {
	_, err := r.SaveTemplate(ctx, scope, t)
	return err
}

// SaveTemplate persists t unless it is byte-identical to a system default.
// Saving default content over an existing override deletes the override;
// saving it where no override exists stores nothing.
func (r *Resolver) SaveTemplate(ctx context.Context, scope Scope, t *models.NotificationTemplate) (outcome SaveOutcome, err error) {
	ctx, done := r.begin(ctx, opAddOrUpdateTemplate, scope.TenantDomain)
	defer func() { done(err) }()

	if !r.defaults.HasSameTemplate(t) {
		if err := r.store.AddOrUpdateTemplate(ctx, scope, t); err != nil {
			return "", err
		}
		return SaveStored, nil
	}

	key := KeyOf(t)
	exists, err := r.store.TemplateExists(ctx, scope, key)
	if err != nil {
		return "", err
	}
	fields := map[string]interface{}{
		"tenantDomain":  scope.TenantDomain,
		"applicationId": scope.ApplicationID,
		"displayName":   key.DisplayName,
		"locale":        key.Locale,
		"channel":       key.Channel,
	}
	if !exists {
		r.logger.Debug("template matches system default, not storing", fields)
		return SaveMatchesDefault, nil
	}

	r.logger.Info("template reset to system default, removing override", fields)
	if err := r.store.DeleteTemplate(ctx, scope, key); err != nil {
		return "", err
	}
	return SaveResetToDefault, nil
}

func (r *Resolver) TemplateExists(ctx context.Context, scope Scope, key TemplateKey) (exists bool, err error) {
	ctx, done := r.begin(ctx, opTemplateExists, scope.TenantDomain)
	defer func() { done(err) }()

	exists, err = r.defaults.TemplateExists(ctx, scope, key)
	if err != nil {
		return false, err
	}
	if exists {
		recordSource(opTemplateExists, sourceDefault)
		return true, nil
	}

	exists, err = r.store.TemplateExists(ctx, scope, key)
	if err != nil {
		return false, err
	}
	if exists {
		recordSource(opTemplateExists, sourceTenant)
	} else {
		recordSource(opTemplateExists, sourceNone)
	}
	return exists, nil
}

// GetTemplate returns the tenant's own template, else the one of the nearest
// in-range ancestor, else the system default. ErrTemplateNotFound is returned
// when no layer has it.
func (r *Resolver) GetTemplate(ctx context.Context, scope Scope, key TemplateKey) (t *models.NotificationTemplate, err error) {
	ctx, done := r.begin(ctx, opGetTemplate, scope.TenantDomain)
	defer func() { done(err) }()

	t, err = r.store.GetTemplate(ctx, scope, key)
	if err == nil {
		recordSource(opGetTemplate, sourceTenant)
		return t, nil
	}
	if !errors.Is(err, ErrTemplateNotFound) {
		return nil, err
	}

	isOrg, err := r.isOrganization(ctx, scope.TenantDomain, scope.ApplicationID, key.DisplayName)
	if err != nil {
		return nil, err
	}
	if isOrg {
		probe := &templateProbe{store: r.store, key: key}
		found, ok, err := Walk[*models.NotificationTemplate](ctx, r.walker, scope.TenantDomain, scope.ApplicationID, FirstMatch, probe)
		if err != nil {
			return nil, withResource(err, key.DisplayName)
		}
		if ok {
			r.logger.Debug("template resolved from ancestor", map[string]interface{}{
				"tenantDomain": scope.TenantDomain,
				"displayName":  key.DisplayName,
				"locale":       key.Locale,
			})
			recordSource(opGetTemplate, sourceAncestor)
			return found, nil
		}
	}

	t, err = r.defaults.GetTemplate(ctx, scope, key)
	if err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			recordSource(opGetTemplate, sourceNone)
			return nil, fmt.Errorf("template %s/%s on channel %s for tenant %s: %w",
				key.DisplayName, key.Locale, key.Channel, scope.TenantDomain, ErrTemplateNotFound)
		}
		return nil, err
	}
	recordSource(opGetTemplate, sourceDefault)
	return t, nil
}

func (r *Resolver) ListTemplates(ctx context.Context, scope Scope, typ TypeKey) (list []models.NotificationTemplate, err error) {
	ctx, done := r.begin(ctx, opListTemplates, scope.TenantDomain)
	defer func() { done(err) }()

	var base []models.NotificationTemplate
	exists, err := r.store.TemplateTypeExists(ctx, scope.TenantDomain, typ)
	if err != nil {
		return nil, err
	}
	if exists {
		base, err = r.store.ListTemplates(ctx, scope, typ)
		if err != nil {
			return nil, err
		}
	}

	isOrg, err := r.isOrganization(ctx, scope.TenantDomain, scope.ApplicationID, typ.DisplayName)
	if err != nil {
		return nil, err
	}
	if isOrg {
		probe := &templateListProbe{store: r.store, typ: &typ, keyOf: r.keyOf, running: base}
		merged, found, err := Walk[[]models.NotificationTemplate](ctx, r.walker, scope.TenantDomain, scope.ApplicationID, MergeAll, probe)
		if err != nil {
			return nil, withResource(err, typ.DisplayName)
		}
		if found {
			base = MergeByKey(base, merged, r.keyOf)
		}
	}

	var defaults []models.NotificationTemplate
	exists, err = r.defaults.TemplateTypeExists(ctx, scope.TenantDomain, typ)
	if err != nil {
		return nil, err
	}
	if exists {
		defaults, err = r.defaults.ListTemplates(ctx, scope, typ)
		if err != nil {
			return nil, err
		}
	}
	return MergeByKey(base, defaults, r.keyOf), nil
}

func (r *Resolver) ListAllTemplates(ctx context.Context, tenantDomain, channel string) (list []models.NotificationTemplate, err error) {
	ctx, done := r.begin(ctx, opListAllTemplates, tenantDomain)
	defer func() { done(err) }()

	base, err := r.store.ListAllTemplates(ctx, tenantDomain, channel)
	if err != nil {
		return nil, err
	}

	isOrg, err := r.isOrganization(ctx, tenantDomain, "", "")
	if err != nil {
		return nil, err
	}
	if isOrg {
		probe := &templateListProbe{store: r.store, channel: channel, keyOf: r.keyOf, running: base}
		merged, found, err := Walk[[]models.NotificationTemplate](ctx, r.walker, tenantDomain, "", MergeAll, probe)
		if err != nil {
			return nil, withResource(err, "")
		}
		if found {
			base = MergeByKey(base, merged, r.keyOf)
		}
	}

	defaults, err := r.defaults.ListAllTemplates(ctx, tenantDomain, channel)
	if err != nil {
		return nil, err
	}
	return MergeByKey(base, defaults, r.keyOf), nil
}

func (r *Resolver) DeleteTemplate(ctx context.Context, scope Scope, key TemplateKey) (err error) {
	ctx, done := r.begin(ctx, opDeleteTemplate, scope.TenantDomain)
	defer func() { done(err) }()

	exists, err := r.store.TemplateExists(ctx, scope, key)
	if err != nil || !exists {
		return err
	}
	return r.store.DeleteTemplate(ctx, scope, key)
}

func (r *Resolver) DeleteTemplatesOfType(ctx context.Context, scope Scope, typ TypeKey) (err error) {
	ctx, done := r.begin(ctx, opDeleteTemplatesOfType, scope.TenantDomain)
	defer func() { done(err) }()

	exists, err := r.store.TemplateTypeExists(ctx, scope.TenantDomain, typ)
	if err != nil || !exists {
		return err
	}
	return r.store.DeleteTemplatesOfType(ctx, scope, typ)
}

func (r *Resolver) isOrganization(ctx context.Context, tenantDomain, applicationID, resource string) (bool, error) {
	isOrg, err := r.walker.orgs.IsOrganization(ctx, tenantDomain)
	if err != nil {
		rerr := newResolutionError("check organization", tenantDomain, applicationID, err)
		rerr.Resource = resource
		return false, rerr
	}
	return isOrg, nil
}

func (r *Resolver) begin(ctx context.Context, op, tenantDomain string) (context.Context, func(error)) {
	ctx, span := r.tracer.Start(ctx, "templates."+op,
		trace.WithAttributes(attribute.String("tenant.domain", tenantDomain)))
	start := time.Now()

	return ctx, func(err error) {
		metrics.ResolutionDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

func recordSource(op, source string) {
	metrics.TemplateResolutions.WithLabelValues(op, source).Inc()
}

// withResource attaches the resource name to a ResolutionError from a walk.
func withResource(err error, resource string) error {
	var rerr *ResolutionError
	if errors.As(err, &rerr) && rerr.Resource == "" {
		rerr.Resource = resource
	}
	return err
}

// typeListProbe accumulates template type names, nearest ancestor first.
type typeListProbe struct {
	store   Store
	channel string
	running []string
}

func (p *typeListProbe) Probe(ctx context.Context, ancestor Ancestor) ([]string, bool, error) {
	metrics.AncestorProbes.WithLabelValues(opListTemplateTypes).Inc()

	types, err := p.store.ListTemplateTypes(ctx, ancestor.TenantDomain, p.channel)
	if err != nil {
		return nil, false, err
	}
	p.running = MergeUnique(p.running, types)
	return p.running, true, nil
}

// templateProbe looks up a single template at an ancestor.
type templateProbe struct {
	store Store
	key   TemplateKey
}

func (p *templateProbe) Probe(ctx context.Context, ancestor Ancestor) (*models.NotificationTemplate, bool, error) {
	metrics.AncestorProbes.WithLabelValues(opGetTemplate).Inc()

	scope := Scope{TenantDomain: ancestor.TenantDomain, ApplicationID: ancestor.ApplicationID}
	t, err := p.store.GetTemplate(ctx, scope, p.key)
	if err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return t, true, nil
}

// templateListProbe accumulates templates, nearest ancestor first. With typ
// set only ancestors that define the type contribute; otherwise every
// template on the channel does.
type templateListProbe struct {
	store   Store
	typ     *TypeKey
	channel string
	keyOf   TemplateKeyFunc
	running []models.NotificationTemplate
}

func (p *templateListProbe) Probe(ctx context.Context, ancestor Ancestor) ([]models.NotificationTemplate, bool, error) {
	var (
		list []models.NotificationTemplate
		err  error
	)

	if p.typ != nil {
		metrics.AncestorProbes.WithLabelValues(opListTemplates).Inc()

		exists, err := p.store.TemplateTypeExists(ctx, ancestor.TenantDomain, *p.typ)
		if err != nil {
			return nil, false, err
		}
		if !exists {
			return p.running, true, nil
		}
		scope := Scope{TenantDomain: ancestor.TenantDomain, ApplicationID: ancestor.ApplicationID}
		list, err = p.store.ListTemplates(ctx, scope, *p.typ)
		if err != nil {
			return nil, false, err
		}
	} else {
		metrics.AncestorProbes.WithLabelValues(opListAllTemplates).Inc()

		list, err = p.store.ListAllTemplates(ctx, ancestor.TenantDomain, p.channel)
		if err != nil {
			return nil, false, err
		}
	}

	p.running = MergeByKey(p.running, list, p.keyOf)
	return p.running, true, nil
}
