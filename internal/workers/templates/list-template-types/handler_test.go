// internal/workers/templates/list-template-types/handler_test.go
package listtemplatetypes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"template-resolver/internal/common/config"
	"template-resolver/internal/common/errors"
	"template-resolver/internal/common/logger"
	"template-resolver/internal/defaults"
	"template-resolver/internal/models"
	"template-resolver/internal/templates"
	"template-resolver/internal/templates/templatestest"
	"template-resolver/pkg/registry"
)

// ==========================
// Test Helper Functions
// ==========================

func newTestHandler(t *testing.T, store templates.Store) *Handler {
	t.Helper()
	reg, err := registry.Default()
	require.NoError(t, err)
	log := logger.NewTestLogger(t)
	return NewHandler(LoadConfig(config.WorkerConfig{}), store, reg, errors.NewErrorHandler(log), log)
}

// newResolverStore layers a tenant store over the embedded defaults for a
// tenant outside any organization tree.
func newResolverStore(t *testing.T, tenant *templatestest.MemStore) templates.Store {
	t.Helper()
	catalog, err := defaults.New()
	require.NoError(t, err)
	log := logger.NewTestLogger(t)
	tree := templatestest.NewTree()
	return templates.NewResolver(tenant, catalog, templates.NewWalker(tree, tree, 1, log), log)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_List(t *testing.T) {
	tenant := templatestest.NewMemStore()
	require.NoError(t, tenant.AddTemplateType(context.Background(), "standalone.acme",
		templates.TypeKey{DisplayName: "Invoice", Channel: models.ChannelEmail}))
	handler := newTestHandler(t, newResolverStore(t, tenant))

	output, err := handler.Execute(context.Background(), &Input{TenantDomain: "standalone.acme", Channel: models.ChannelEmail})
	require.NoError(t, err)
	assert.True(t, output.Exists)
	assert.Equal(t, []string{"Invoice", "AccountConfirmation", "PasswordReset", "AccountLock"}, output.Types)
}

func TestHandler_Execute_Exists(t *testing.T) {
	tests := []struct {
		name        string
		displayName string
		channel     string
		want        bool
	}{
		{name: "system default type", displayName: "SMSOTP", channel: models.ChannelSMS, want: true},
		{name: "type on another channel", displayName: "SMSOTP", channel: models.ChannelEmail, want: false},
		{name: "tenant type", displayName: "Invoice", channel: models.ChannelEmail, want: true},
		{name: "unknown type", displayName: "Newsletter", channel: models.ChannelEmail, want: false},
	}

	tenant := templatestest.NewMemStore()
	require.NoError(t, tenant.AddTemplateType(context.Background(), "standalone.acme",
		templates.TypeKey{DisplayName: "Invoice", Channel: models.ChannelEmail}))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestHandler(t, newResolverStore(t, tenant))

			output, err := handler.Execute(context.Background(), &Input{
				TenantDomain: "standalone.acme",
				DisplayName:  tt.displayName,
				Channel:      tt.channel,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, output.Exists)
			assert.Nil(t, output.Types)
		})
	}
}

func TestHandler_Execute_EmptyChannel(t *testing.T) {
	store := &templatestest.MockStore{}
	store.On("ListTemplateTypes", mock.Anything, "child.acme", models.ChannelSMS).Return([]string{}, nil)
	handler := newTestHandler(t, store)

	output, err := handler.Execute(context.Background(), &Input{TenantDomain: "child.acme", Channel: models.ChannelSMS})
	require.NoError(t, err)
	assert.False(t, output.Exists)
	assert.Empty(t, output.Types)
}
