// Package cache decorates a templates.Store with a Redis read-through cache.
//
// Entries are namespaced by a per-tenant generation counter. Every write to a
// tenant bumps its counter, so stale entries are never read again and simply
// expire. Redis failures are logged and the call falls through to the
// underlying store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"template-resolver/internal/common/logger"
	"template-resolver/internal/common/metrics"
	"template-resolver/internal/models"
	"template-resolver/internal/templates"
)

const (
	resultHit   = "hit"
	resultMiss  = "miss"
	resultError = "error"
)

type Store struct {
	next   templates.Store
	redis  *redis.Client
	ttl    time.Duration
	prefix string
	logger logger.Logger
}

var _ templates.Store = (*Store)(nil)

func New(next templates.Store, rdb *redis.Client, ttl time.Duration, prefix string, log logger.Logger) *Store {
	return &Store{
		next:   next,
		redis:  rdb,
		ttl:    ttl,
		prefix: prefix,
		logger: log.WithFields(map[string]interface{}{"component": "template-cache"}),
	}
}

// templateEntry caches GetTemplate results, including misses.
type templateEntry struct {
	Template *models.NotificationTemplate `json:"template,omitempty"`
	Missing  bool                         `json:"missing,omitempty"`
}

// segment escapes a key part so that ':' only ever appears as a separator.
func segment(part string) string {
	return url.QueryEscape(part)
}

func (s *Store) generationKey(tenantDomain string) string {
	return fmt.Sprintf("%s:%s:gen", s.prefix, segment(tenantDomain))
}

func (s *Store) generation(ctx context.Context, tenantDomain string) (string, error) {
	gen, err := s.redis.Get(ctx, s.generationKey(tenantDomain)).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return gen, err
}

func (s *Store) entryKey(tenantDomain, gen, op string, args ...string) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = segment(arg)
	}
	return fmt.Sprintf("%s:%s:v%s:%s:%s", s.prefix, segment(tenantDomain), gen, op, strings.Join(parts, ":"))
}

func cached[T any](ctx context.Context, s *Store, tenantDomain, op string, args []string, load func(context.Context) (T, error)) (T, error) {
	gen, err := s.generation(ctx, tenantDomain)
	if err != nil {
		s.degraded("read generation", tenantDomain, err)
		return load(ctx)
	}
	key := s.entryKey(tenantDomain, gen, op, args...)

	raw, err := s.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var value T
		if jsonErr := json.Unmarshal(raw, &value); jsonErr == nil {
			metrics.CacheRequests.WithLabelValues(resultHit).Inc()
			return value, nil
		}
		metrics.CacheRequests.WithLabelValues(resultMiss).Inc()
	case errors.Is(err, redis.Nil):
		metrics.CacheRequests.WithLabelValues(resultMiss).Inc()
	default:
		s.degraded("read entry", tenantDomain, err)
		return load(ctx)
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return value, nil
	}
	if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.logger.Warn("template cache write failed", map[string]interface{}{
			"tenantDomain": tenantDomain,
			"key":          key,
			"error":        err,
		})
	}
	return value, nil
}

func (s *Store) degraded(step, tenantDomain string, err error) {
	metrics.CacheRequests.WithLabelValues(resultError).Inc()
	s.logger.Warn("template cache unavailable, reading through", map[string]interface{}{
		"step":         step,
		"tenantDomain": tenantDomain,
		"error":        err,
	})
}

// invalidate bumps the tenant generation. It runs after every write attempt
// since a failed write may still have changed rows.
func (s *Store) invalidate(ctx context.Context, tenantDomain string) {
	if err := s.redis.Incr(ctx, s.generationKey(tenantDomain)).Err(); err != nil {
		s.logger.Warn("template cache invalidation failed", map[string]interface{}{
			"tenantDomain": tenantDomain,
			"error":        err,
		})
	}
}

func (s *Store) TemplateTypeExists(ctx context.Context, tenantDomain string, typ templates.TypeKey) (bool, error) {
	return cached(ctx, s, tenantDomain, "type-exists", []string{typ.Channel, typ.DisplayName},
		func(ctx context.Context) (bool, error) {
			return s.next.TemplateTypeExists(ctx, tenantDomain, typ)
		})
}

func (s *Store) ListTemplateTypes(ctx context.Context, tenantDomain, channel string) ([]string, error) {
	return cached(ctx, s, tenantDomain, "types", []string{channel},
		func(ctx context.Context) ([]string, error) {
			return s.next.ListTemplateTypes(ctx, tenantDomain, channel)
		})
}

func (s *Store) TemplateExists(ctx context.Context, scope templates.Scope, key templates.TemplateKey) (bool, error) {
	return cached(ctx, s, scope.TenantDomain, "exists", []string{scope.ApplicationID, key.Channel, key.DisplayName, key.Locale},
		func(ctx context.Context) (bool, error) {
			return s.next.TemplateExists(ctx, scope, key)
		})
}

func (s *Store) GetTemplate(ctx context.Context, scope templates.Scope, key templates.TemplateKey) (*models.NotificationTemplate, error) {
	entry, err := cached(ctx, s, scope.TenantDomain, "get", []string{scope.ApplicationID, key.Channel, key.DisplayName, key.Locale},
		func(ctx context.Context) (templateEntry, error) {
			t, err := s.next.GetTemplate(ctx, scope, key)
			if errors.Is(err, templates.ErrTemplateNotFound) {
				return templateEntry{Missing: true}, nil
			}
			if err != nil {
				return templateEntry{}, err
			}
			return templateEntry{Template: t}, nil
		})
	if err != nil {
		return nil, err
	}
	if entry.Missing || entry.Template == nil {
		return nil, templates.ErrTemplateNotFound
	}
	return entry.Template, nil
}

func (s *Store) ListTemplates(ctx context.Context, scope templates.Scope, typ templates.TypeKey) ([]models.NotificationTemplate, error) {
	return cached(ctx, s, scope.TenantDomain, "list", []string{scope.ApplicationID, typ.Channel, typ.DisplayName},
		func(ctx context.Context) ([]models.NotificationTemplate, error) {
			return s.next.ListTemplates(ctx, scope, typ)
		})
}

func (s *Store) ListAllTemplates(ctx context.Context, tenantDomain, channel string) ([]models.NotificationTemplate, error) {
	return cached(ctx, s, tenantDomain, "list-all", []string{channel},
		func(ctx context.Context) ([]models.NotificationTemplate, error) {
			return s.next.ListAllTemplates(ctx, tenantDomain, channel)
		})
}

func (s *Store) AddTemplateType(ctx context.Context, tenantDomain string, typ templates.TypeKey) error {
	defer s.invalidate(ctx, tenantDomain)
	return s.next.AddTemplateType(ctx, tenantDomain, typ)
}

func (s *Store) DeleteTemplateType(ctx context.Context, tenantDomain string, typ templates.TypeKey) error {
	defer s.invalidate(ctx, tenantDomain)
	return s.next.DeleteTemplateType(ctx, tenantDomain, typ)
}

func (s *Store) DeleteAllTemplatesOfType(ctx context.Context, tenantDomain string, typ templates.TypeKey) error {
	defer s.invalidate(ctx, tenantDomain)
	return s.next.DeleteAllTemplatesOfType(ctx, tenantDomain, typ)
}

func (s *Store) AddOrUpdateTemplate(ctx context.Context, scope templates.Scope, t *models.NotificationTemplate) error {
	defer s.invalidate(ctx, scope.TenantDomain)
	return s.next.AddOrUpdateTemplate(ctx, scope, t)
}

func (s *Store) DeleteTemplate(ctx context.Context, scope templates.Scope, key templates.TemplateKey) error {
	defer s.invalidate(ctx, scope.TenantDomain)
	return s.next.DeleteTemplate(ctx, scope, key)
}

func (s *Store) DeleteTemplatesOfType(ctx context.Context, scope templates.Scope, typ templates.TypeKey) error {
	defer s.invalidate(ctx, scope.TenantDomain)
	return s.next.DeleteTemplatesOfType(ctx, scope, typ)
}
