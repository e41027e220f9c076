package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"template-resolver/internal/common/logger"
	"template-resolver/internal/models"
	"template-resolver/internal/templates"
)

// ==========================
// Test Helper Functions
// ==========================

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, logger.NewTestLogger(t)), mock
}

func q(query string) string {
	return regexp.QuoteMeta(query)
}

var (
	ctx        = context.Background()
	welcome    = templates.TypeKey{DisplayName: "Welcome", Channel: models.ChannelEmail}
	welcomeEN  = templates.TemplateKey{DisplayName: "Welcome", Locale: "en_US", Channel: models.ChannelEmail}
	orgScope   = templates.Scope{TenantDomain: "acme"}
	appScope   = templates.Scope{TenantDomain: "acme", ApplicationID: "app-1"}
	columnList = []string{"display_name", "template_type", "locale", "channel", "content_type", "subject", "body", "footer"}
)

// ==========================
// Template Type Tests
// ==========================

func TestStore_TemplateTypeExists(t *testing.T) {
	tests := []struct {
		name   string
		exists bool
	}{
		{name: "type present", exists: true},
		{name: "type absent", exists: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newTestStore(t)
			mock.ExpectQuery(q(queryTypeExists)).
				WithArgs("acme", "Welcome", models.ChannelEmail).
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(tt.exists))

			got, err := store.TemplateTypeExists(ctx, "acme", welcome)
			require.NoError(t, err)
			assert.Equal(t, tt.exists, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStore_TemplateTypeExists_QueryError(t *testing.T) {
	store, mock := newTestStore(t)
	dbErr := errors.New("connection reset")
	mock.ExpectQuery(q(queryTypeExists)).WillReturnError(dbErr)

	_, err := store.TemplateTypeExists(ctx, "acme", welcome)
	assert.ErrorIs(t, err, dbErr)
}

func TestStore_ListTemplateTypes(t *testing.T) {
	store, mock := newTestStore(t)
	mock.ExpectQuery(q(queryListTypes)).
		WithArgs("acme", models.ChannelEmail).
		WillReturnRows(sqlmock.NewRows([]string{"display_name"}).AddRow("PasswordReset").AddRow("Welcome"))

	got, err := store.ListTemplateTypes(ctx, "acme", models.ChannelEmail)
	require.NoError(t, err)
	assert.Equal(t, []string{"PasswordReset", "Welcome"}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_AddTemplateType(t *testing.T) {
	store, mock := newTestStore(t)
	mock.ExpectExec(q(queryInsertType)).
		WithArgs(sqlmock.AnyArg(), "acme", "Welcome", models.ChannelEmail).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.AddTemplateType(ctx, "acme", welcome))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_DeleteTemplateType_RunsInTransaction(t *testing.T) {
	store, mock := newTestStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(q(queryDeleteAllOfType)).
		WithArgs("acme", "Welcome", models.ChannelEmail).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(q(queryDeleteType)).
		WithArgs("acme", "Welcome", models.ChannelEmail).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.DeleteTemplateType(ctx, "acme", welcome))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_DeleteTemplateType_RollsBackOnFailure(t *testing.T) {
	store, mock := newTestStore(t)
	dbErr := errors.New("lock timeout")
	mock.ExpectBegin()
	mock.ExpectExec(q(queryDeleteAllOfType)).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(q(queryDeleteType)).WillReturnError(dbErr)
	mock.ExpectRollback()

	err := store.DeleteTemplateType(ctx, "acme", welcome)
	assert.ErrorIs(t, err, dbErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_DeleteAllTemplatesOfType(t *testing.T) {
	store, mock := newTestStore(t)
	mock.ExpectExec(q(queryDeleteAllOfType)).
		WithArgs("acme", "Welcome", models.ChannelEmail).
		WillReturnResult(sqlmock.NewResult(0, 4))

	require.NoError(t, store.DeleteAllTemplatesOfType(ctx, "acme", welcome))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Template Tests
// ==========================

func TestStore_AddOrUpdateTemplate(t *testing.T) {
	store, mock := newTestStore(t)
	tmpl := &models.NotificationTemplate{
		DisplayName: "Welcome", Type: "welcome", Locale: "en_US", Channel: models.ChannelEmail,
		ContentType: "text/html", Subject: "Hi", Body: "<p>Hello</p>", Footer: "bye",
	}

	mock.ExpectBegin()
	mock.ExpectExec(q(queryInsertType)).
		WithArgs(sqlmock.AnyArg(), "acme", "Welcome", models.ChannelEmail).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q(queryUpsertTemplate)).
		WithArgs(sqlmock.AnyArg(), "acme", "app-1", "Welcome", "welcome", "en_US", models.ChannelEmail,
			"text/html", "Hi", "<p>Hello</p>", "bye").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.AddOrUpdateTemplate(ctx, appScope, tmpl))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_TemplateExists(t *testing.T) {
	store, mock := newTestStore(t)
	mock.ExpectQuery(q(queryTemplateExists)).
		WithArgs("acme", "", "Welcome", "en_US", models.ChannelEmail).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	got, err := store.TemplateExists(ctx, orgScope, welcomeEN)
	require.NoError(t, err)
	assert.True(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetTemplate(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		want    *models.NotificationTemplate
		wantErr error
	}{
		{
			name: "found",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(q(queryGetTemplate)).
					WithArgs("acme", "app-1", "Welcome", "en_US", models.ChannelEmail).
					WillReturnRows(sqlmock.NewRows(columnList).
						AddRow("Welcome", "welcome", "en_US", models.ChannelEmail, "text/html", "Hi", "Hello", ""))
			},
			want: &models.NotificationTemplate{
				DisplayName: "Welcome", Type: "welcome", Locale: "en_US", Channel: models.ChannelEmail,
				ContentType: "text/html", Subject: "Hi", Body: "Hello",
			},
		},
		{
			name: "no rows maps to not found",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(q(queryGetTemplate)).WillReturnError(sql.ErrNoRows)
			},
			wantErr: templates.ErrTemplateNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newTestStore(t)
			tt.setup(mock)

			got, err := store.GetTemplate(ctx, appScope, welcomeEN)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStore_GetTemplate_OtherErrorsAreNotNotFound(t *testing.T) {
	store, mock := newTestStore(t)
	dbErr := errors.New("too many connections")
	mock.ExpectQuery(q(queryGetTemplate)).WillReturnError(dbErr)

	_, err := store.GetTemplate(ctx, orgScope, welcomeEN)
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, templates.ErrTemplateNotFound)
}

func TestStore_ListTemplates(t *testing.T) {
	store, mock := newTestStore(t)
	mock.ExpectQuery(q(queryListTemplates)).
		WithArgs("acme", "", "Welcome", models.ChannelEmail).
		WillReturnRows(sqlmock.NewRows(columnList).
			AddRow("Welcome", "", "de_DE", models.ChannelEmail, "", "Hallo", "Guten Tag", "").
			AddRow("Welcome", "", "en_US", models.ChannelEmail, "", "Hi", "Hello", ""))

	got, err := store.ListTemplates(ctx, orgScope, welcome)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "de_DE", got[0].Locale)
	assert.Equal(t, "en_US", got[1].Locale)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListAllTemplates_ScanError(t *testing.T) {
	store, mock := newTestStore(t)
	mock.ExpectQuery(q(queryListAllTemplates)).
		WithArgs("acme", models.ChannelSMS).
		WillReturnRows(sqlmock.NewRows([]string{"display_name"}).AddRow("Code"))

	_, err := store.ListAllTemplates(ctx, "acme", models.ChannelSMS)
	assert.Error(t, err)
}

func TestStore_Deletes(t *testing.T) {
	store, mock := newTestStore(t)
	mock.ExpectExec(q(queryDeleteTemplate)).
		WithArgs("acme", "app-1", "Welcome", "en_US", models.ChannelEmail).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(queryDeleteTemplatesOfType)).
		WithArgs("acme", "app-1", "Welcome", models.ChannelEmail).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, store.DeleteTemplate(ctx, appScope, welcomeEN))
	require.NoError(t, store.DeleteTemplatesOfType(ctx, appScope, welcome))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_EnsureSchema(t *testing.T) {
	store, mock := newTestStore(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS notification_template_types`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.EnsureSchema(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}
