package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigkaa/edi-console/internal/domain/model"
	"github.com/bigkaa/edi-console/internal/ediclient"
)

func TestTogglePermission_Confirmed(t *testing.T) {
	ctx := context.Background()
	api := newFakeBackend()
	svc := NewAdminService(newTestCache(), 4, testLogger())

	current := model.Permissions{model.PermUploadFiles: false, model.PermViewTransactions: true}
	got, err := svc.TogglePermission(ctx, api, 7, model.PermUploadFiles, current)
	require.NoError(t, err)

	assert.Equal(t, model.Permissions{model.PermUploadFiles: true}, api.lastPerm, "отправляется только изменённое право")
	assert.True(t, got[model.PermUploadFiles])
	assert.False(t, current[model.PermUploadFiles], "исходные права не изменяются")
}

func TestTogglePermission_FailureKeepsState(t *testing.T) {
	ctx := context.Background()
	api := newFakeBackend()
	api.permErr = &ediclient.APIError{Status: 403, Message: "Admin access required"}
	svc := NewAdminService(newTestCache(), 4, testLogger())

	current := model.Permissions{model.PermUploadFiles: false}
	got, err := svc.TogglePermission(ctx, api, 7, model.PermUploadFiles, current)
	require.Error(t, err)
	assert.ErrorIs(t, err, ediclient.ErrForbidden)
	assert.False(t, got[model.PermUploadFiles])
}

func TestTogglePermission_UnknownPermission(t *testing.T) {
	api := newFakeBackend()
	svc := NewAdminService(newTestCache(), 4, testLogger())

	_, err := svc.TogglePermission(context.Background(), api, 7, model.Permission("can_fly"), model.Permissions{})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, api.count("UpdateUserPermissions"))
}

func TestTogglePermission_InvalidatesUsers(t *testing.T) {
	ctx := context.Background()
	api := newFakeBackend()
	svc := NewAdminService(newTestCache(), 4, testLogger())

	_, err := svc.PartnerUsers(ctx, api, "p1")
	require.NoError(t, err)
	_, err = svc.TogglePermission(ctx, api, 7, model.PermUploadFiles, model.Permissions{})
	require.NoError(t, err)
	_, err = svc.PartnerUsers(ctx, api, "p1")
	require.NoError(t, err)

	assert.Equal(t, 2, api.count("PartnerUsers"))
}

func TestDashboard_FanOutAndRefresh(t *testing.T) {
	ctx := context.Background()
	api := newFakeBackend()
	svc := NewAdminService(newTestCache(), 2, testLogger())

	view, err := svc.Dashboard(ctx, api, 30)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Metrics.Metrics.TotalPartners)
	assert.Equal(t, "healthy", view.Charts.SystemStatus.Database)

	_, err = svc.Dashboard(ctx, api, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, api.count("DashboardMetrics"))

	_, err = svc.RefreshDashboard(ctx, api, 30)
	require.NoError(t, err)
	assert.Equal(t, 2, api.count("DashboardMetrics"))
	assert.Equal(t, 2, api.count("DashboardCharts"))
}

func TestAnalytics_LoadsAllSections(t *testing.T) {
	api := newFakeBackend()
	svc := NewAdminService(newTestCache(), 3, testLogger())

	view, err := svc.Analytics(context.Background(), api, 7)
	require.NoError(t, err)
	assert.NotNil(t, view.Transactions)
	assert.NotNil(t, view.Partners)
	assert.NotNil(t, view.Documents)
}

func TestActivityLogs_FilterPassedThrough(t *testing.T) {
	ctx := context.Background()
	api := newFakeBackend()
	svc := NewAdminService(newTestCache(), 4, testLogger())

	f := model.ActivityLogFilter{UserType: model.UserTypeAdmin, Action: "login", Page: 2}
	page, err := svc.ActivityLogs(ctx, api, f)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Data.Pagination.Page)
	assert.Equal(t, f, api.lastLogFilter)

	_, err = svc.ActivityLogs(ctx, api, f.WithoutPage())
	require.NoError(t, err)
	assert.Equal(t, 2, api.count("ActivityLogs"), "без номера страницы ключ другой")
}

func TestSaveSFTPConfig_CreateThenUpdate(t *testing.T) {
	ctx := context.Background()
	api := newFakeBackend()
	svc := NewAdminService(newTestCache(), 4, testLogger())

	cfg := model.SFTPConfig{
		Host: "sftp.acme.com", Port: 22, Username: "acme", AuthMethod: "password",
		InboundDirectory: "/in", OutboundDirectory: "/out",
	}
	_, err := svc.SaveSFTPConfig(ctx, api, "p1", cfg)
	require.NoError(t, err)
	_, err = svc.SaveSFTPConfig(ctx, api, "p1", cfg)
	require.NoError(t, err)

	assert.Equal(t, []bool{true, false}, api.sftpCreate)
}

func TestSaveSFTPConfig_Validation(t *testing.T) {
	api := newFakeBackend()
	svc := NewAdminService(newTestCache(), 4, testLogger())

	_, err := svc.SaveSFTPConfig(context.Background(), api, "p1", model.SFTPConfig{Port: 70000, AuthMethod: "token"})
	require.Error(t, err)

	var fe *FormError
	require.True(t, errors.As(err, &fe))
	assert.NotEmpty(t, fe.Field("host"))
	assert.NotEmpty(t, fe.Field("port"))
	assert.NotEmpty(t, fe.Field("auth_method"))
	assert.Zero(t, api.count("SaveSFTPConfig"))
}

func TestCreateUser_Validation(t *testing.T) {
	api := newFakeBackend()
	svc := NewAdminService(newTestCache(), 4, testLogger())

	_, err := svc.CreateUser(context.Background(), api, "p1", model.CreateUserInput{Username: "ab", Email: "bad", Password: "short"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, api.count("CreatePartnerUser"))
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()
	api := newFakeBackend()
	svc := NewAdminService(newTestCache(), 4, testLogger())

	_, err := svc.UpdateUser(ctx, api, 7, model.UpdateUserInput{Email: "bad", Role: "owner"})
	var fe *FormError
	require.ErrorAs(t, err, &fe)
	assert.NotEmpty(t, fe.Field("email"))
	assert.NotEmpty(t, fe.Field("role"))
	assert.Zero(t, api.count("UpdateUser"))

	_, err = svc.PartnerUsers(ctx, api, "p1")
	require.NoError(t, err)

	active := false
	user, err := svc.UpdateUser(ctx, api, 7, model.UpdateUserInput{Email: "ann@acme.test", IsActive: &active})
	require.NoError(t, err)
	assert.EqualValues(t, 7, user.ID)

	_, err = svc.PartnerUsers(ctx, api, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, api.count("PartnerUsers"), "список пользователей перечитывается после изменения")
}

func TestResetPassword_MinLength(t *testing.T) {
	api := newFakeBackend()
	svc := NewAdminService(newTestCache(), 4, testLogger())

	err := svc.ResetPassword(context.Background(), api, 7, "1234")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, api.count("ResetUserPassword"))

	require.NoError(t, svc.ResetPassword(context.Background(), api, 7, "s3cret-pass"))
}

func TestPartnerDetail(t *testing.T) {
	api := newFakeBackend()
	svc := NewAdminService(newTestCache(), 3, testLogger())

	view, err := svc.PartnerDetail(context.Background(), api, "p1", 30)
	require.NoError(t, err)
	assert.Equal(t, 10, view.Analytics.TotalTransactions)
	require.Len(t, view.Users, 1)
	assert.False(t, view.SFTP.HasConfig)

	_, err = svc.PartnerDetail(context.Background(), api, "", 30)
	assert.ErrorIs(t, err, ErrValidation)
}
