package defaults

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"template-resolver/internal/models"
	"template-resolver/internal/templates"
)

// ==========================
// Test Helper Functions
// ==========================

const testCatalog = `{
  "templateTypes": [
    {"displayName": "Welcome", "channel": "EMAIL"},
    {"displayName": "Empty", "channel": "EMAIL"}
  ],
  "templates": [
    {"displayName": "Welcome", "locale": "en_US", "channel": "EMAIL", "subject": "Hi", "body": "Hello"},
    {"displayName": "Welcome", "locale": "de_DE", "channel": "EMAIL", "subject": "Hallo", "body": "Guten Tag"},
    {"displayName": "Code", "locale": "en_US", "channel": "SMS", "body": "Your code"}
  ]
}`

func loadTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Parse([]byte(testCatalog))
	require.NoError(t, err)
	return c
}

var welcomeEN = templates.TemplateKey{DisplayName: "Welcome", Locale: "en_US", Channel: models.ChannelEmail}

// ==========================
// Loading Tests
// ==========================

func TestNew_EmbeddedCatalogIsValid(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	types, err := c.ListTemplateTypes(context.Background(), "", models.ChannelEmail)
	require.NoError(t, err)
	assert.Contains(t, types, "AccountConfirmation")
	assert.Contains(t, types, "PasswordReset")
}

func TestParse_RejectsInvalidCatalog(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: `{`},
		{name: "missing templates", data: `{"templateTypes": []}`},
		{name: "unknown channel", data: `{"templates": [{"displayName": "X", "locale": "en_US", "channel": "PUSH", "body": "b"}]}`},
		{name: "missing body", data: `{"templates": [{"displayName": "X", "locale": "en_US", "channel": "SMS"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defaults.json")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)
	ok, err := c.TemplateExists(context.Background(), templates.Scope{}, welcomeEN)
	require.NoError(t, err)
	assert.True(t, ok)

	embedded, err := LoadFile("")
	require.NoError(t, err)
	assert.NotNil(t, embedded)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

// ==========================
// Read Tests
// ==========================

func TestCatalog_IgnoresTenantAndApplication(t *testing.T) {
	c := loadTestCatalog(t)
	ctx := context.Background()

	for _, scope := range []templates.Scope{
		{},
		{TenantDomain: "acme"},
		{TenantDomain: "acme", ApplicationID: "app-1"},
	} {
		got, err := c.GetTemplate(ctx, scope, welcomeEN)
		require.NoError(t, err)
		assert.Equal(t, "Hello", got.Body)
	}
}

func TestCatalog_TypesIncludeDeclaredAndImplied(t *testing.T) {
	c := loadTestCatalog(t)
	ctx := context.Background()

	email, err := c.ListTemplateTypes(ctx, "acme", models.ChannelEmail)
	require.NoError(t, err)
	assert.Equal(t, []string{"Welcome", "Empty"}, email)

	sms, err := c.ListTemplateTypes(ctx, "acme", models.ChannelSMS)
	require.NoError(t, err)
	assert.Equal(t, []string{"Code"}, sms)

	ok, err := c.TemplateTypeExists(ctx, "acme", templates.TypeKey{DisplayName: "Code", Channel: models.ChannelSMS})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.TemplateTypeExists(ctx, "acme", templates.TypeKey{DisplayName: "Code", Channel: models.ChannelEmail})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCatalog_GetTemplate_NotFound(t *testing.T) {
	c := loadTestCatalog(t)

	_, err := c.GetTemplate(context.Background(), templates.Scope{}, templates.TemplateKey{
		DisplayName: "Welcome", Locale: "fr_FR", Channel: models.ChannelEmail,
	})
	assert.ErrorIs(t, err, templates.ErrTemplateNotFound)
}

func TestCatalog_GetTemplate_ReturnsCopy(t *testing.T) {
	c := loadTestCatalog(t)
	ctx := context.Background()

	got, err := c.GetTemplate(ctx, templates.Scope{}, welcomeEN)
	require.NoError(t, err)
	got.Body = "mutated"

	again, err := c.GetTemplate(ctx, templates.Scope{}, welcomeEN)
	require.NoError(t, err)
	assert.Equal(t, "Hello", again.Body)
}

func TestCatalog_Listings(t *testing.T) {
	c := loadTestCatalog(t)
	ctx := context.Background()

	list, err := c.ListTemplates(ctx, templates.Scope{}, templates.TypeKey{DisplayName: "Welcome", Channel: models.ChannelEmail})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = c.ListTemplates(ctx, templates.Scope{}, templates.TypeKey{DisplayName: "Empty", Channel: models.ChannelEmail})
	require.NoError(t, err)
	assert.Empty(t, list)

	all, err := c.ListAllTemplates(ctx, "", models.ChannelSMS)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Code", all[0].DisplayName)
}

// ==========================
// HasSameTemplate Tests
// ==========================

func TestCatalog_HasSameTemplate(t *testing.T) {
	c := loadTestCatalog(t)

	base := models.NotificationTemplate{
		DisplayName: "Welcome", Locale: "en_US", Channel: models.ChannelEmail,
		Subject: "Hi", Body: "Hello",
	}

	tests := []struct {
		name   string
		modify func(t *models.NotificationTemplate)
		want   bool
	}{
		{name: "identical content", modify: func(*models.NotificationTemplate) {}, want: true},
		{name: "different body", modify: func(t *models.NotificationTemplate) { t.Body = "Hello!" }, want: false},
		{name: "different subject", modify: func(t *models.NotificationTemplate) { t.Subject = "Hey" }, want: false},
		{name: "added footer", modify: func(t *models.NotificationTemplate) { t.Footer = "bye" }, want: false},
		{name: "unknown locale", modify: func(t *models.NotificationTemplate) { t.Locale = "it_IT" }, want: false},
		{name: "other channel", modify: func(t *models.NotificationTemplate) { t.Channel = models.ChannelSMS }, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := base
			tt.modify(&candidate)
			assert.Equal(t, tt.want, c.HasSameTemplate(&candidate))
		})
	}

	assert.False(t, c.HasSameTemplate(nil))
}

// ==========================
// Write Tests
// ==========================

func TestCatalog_WritesAreRejected(t *testing.T) {
	c := loadTestCatalog(t)
	ctx := context.Background()
	typ := templates.TypeKey{DisplayName: "Welcome", Channel: models.ChannelEmail}

	assert.ErrorIs(t, c.AddTemplateType(ctx, "acme", typ), templates.ErrReadOnly)
	assert.ErrorIs(t, c.DeleteTemplateType(ctx, "acme", typ), templates.ErrReadOnly)
	assert.ErrorIs(t, c.DeleteAllTemplatesOfType(ctx, "acme", typ), templates.ErrReadOnly)
	assert.ErrorIs(t, c.AddOrUpdateTemplate(ctx, templates.Scope{}, &models.NotificationTemplate{}), templates.ErrReadOnly)
	assert.ErrorIs(t, c.DeleteTemplate(ctx, templates.Scope{}, welcomeEN), templates.ErrReadOnly)
	assert.ErrorIs(t, c.DeleteTemplatesOfType(ctx, templates.Scope{}, typ), templates.ErrReadOnly)

	ok, err := c.TemplateExists(ctx, templates.Scope{}, welcomeEN)
	require.NoError(t, err)
	assert.True(t, ok)
}
