// admin.go — административные ресурсы (/admin/...): панель, партнёры,
// пользователи и права, аналитика, журнал активности, SFTP.
// Требуют staff-сессии; иначе backend отвечает 403 (ErrForbidden).
package ediclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bigkaa/edi-console/internal/domain/model"
)

const adminPrefix = "/admin/"

type chartsEnvelope struct {
	Charts model.DashboardCharts `json:"charts"`
}

type partnerAnalyticsEnvelope struct {
	Analytics model.PartnerAnalytics `json:"analytics"`
}

type usersEnvelope struct {
	Users []model.PartnerUser `json:"users"`
}

type userEnvelope struct {
	User model.PartnerUser `json:"user"`
}

type permissionsEnvelope struct {
	Permissions model.Permissions `json:"permissions"`
}

type transactionAnalyticsEnvelope struct {
	Analytics model.TransactionAnalytics `json:"analytics"`
}

type partnerSummaryEnvelope struct {
	Analytics model.PartnerAnalyticsSummary `json:"analytics"`
}

type documentAnalyticsEnvelope struct {
	Analytics model.DocumentAnalytics `json:"analytics"`
}

// daysQuery — параметр периода отчёта; 0 — значение backend по умолчанию (30).
func daysQuery(days int) url.Values {
	if days <= 0 {
		return nil
	}
	return url.Values{"days": {strconv.Itoa(days)}}
}

// DashboardMetrics — GET admin/dashboard/metrics?days=N.
func (c *Client) DashboardMetrics(ctx context.Context, days int) (*model.DashboardMetricsResult, error) {
	var res model.DashboardMetricsResult
	if err := c.doJSON(ctx, http.MethodGet, adminPrefix+"dashboard/metrics", daysQuery(days), nil, &res); err != nil {
		return nil, fmt.Errorf("DashboardMetrics: %w", err)
	}
	return &res, nil
}

// DashboardCharts — GET admin/dashboard/charts?days=N.
func (c *Client) DashboardCharts(ctx context.Context, days int) (*model.DashboardCharts, error) {
	var env chartsEnvelope
	if err := c.doJSON(ctx, http.MethodGet, adminPrefix+"dashboard/charts", daysQuery(days), nil, &env); err != nil {
		return nil, fmt.Errorf("DashboardCharts: %w", err)
	}
	return &env.Charts, nil
}

// ListAdminPartners — GET admin/partners с поиском, статусом и пагинацией.
func (c *Client) ListAdminPartners(ctx context.Context, f model.PartnerFilter) (*model.AdminPartnerList, error) {
	var list model.AdminPartnerList
	if err := c.doJSON(ctx, http.MethodGet, adminPrefix+"partners", f.Values(), nil, &list); err != nil {
		return nil, fmt.Errorf("ListAdminPartners: %w", err)
	}
	return &list, nil
}

// PartnerAnalytics — GET admin/partners/{id}/analytics.
func (c *Client) PartnerAnalytics(ctx context.Context, partnerID string, days int) (*model.PartnerAnalytics, error) {
	if partnerID == "" {
		return nil, fmt.Errorf("PartnerAnalytics: %w", errEmptyID)
	}
	var env partnerAnalyticsEnvelope
	path := adminPrefix + "partners/" + escape(partnerID) + "/analytics"
	if err := c.doJSON(ctx, http.MethodGet, path, daysQuery(days), nil, &env); err != nil {
		return nil, fmt.Errorf("PartnerAnalytics %s: %w", partnerID, err)
	}
	return &env.Analytics, nil
}

// PartnerUsers — GET admin/partners/{id}/users.
func (c *Client) PartnerUsers(ctx context.Context, partnerID string) ([]model.PartnerUser, error) {
	if partnerID == "" {
		return nil, fmt.Errorf("PartnerUsers: %w", errEmptyID)
	}
	var env usersEnvelope
	if err := c.doJSON(ctx, http.MethodGet, adminPrefix+"partners/"+escape(partnerID)+"/users", nil, nil, &env); err != nil {
		return nil, fmt.Errorf("PartnerUsers %s: %w", partnerID, err)
	}
	return env.Users, nil
}

// CreatePartnerUser — POST admin/partners/{id}/users.
func (c *Client) CreatePartnerUser(ctx context.Context, partnerID string, in model.CreateUserInput) (*model.PartnerUser, error) {
	if partnerID == "" {
		return nil, fmt.Errorf("CreatePartnerUser: %w", errEmptyID)
	}
	var env userEnvelope
	if err := c.doJSON(ctx, http.MethodPost, adminPrefix+"partners/"+escape(partnerID)+"/users", nil, in, &env); err != nil {
		return nil, fmt.Errorf("CreatePartnerUser %s: %w", partnerID, err)
	}
	return &env.User, nil
}

// UpdateUser — PUT admin/users/{id}.
func (c *Client) UpdateUser(ctx context.Context, userID int64, in model.UpdateUserInput) (*model.PartnerUser, error) {
	var env userEnvelope
	if err := c.doJSON(ctx, http.MethodPut, userPath(userID, ""), nil, in, &env); err != nil {
		return nil, fmt.Errorf("UpdateUser %d: %w", userID, err)
	}
	return &env.User, nil
}

// DeleteUser — DELETE admin/users/{id}.
func (c *Client) DeleteUser(ctx context.Context, userID int64) error {
	if err := c.doJSON(ctx, http.MethodDelete, userPath(userID, ""), nil, nil, nil); err != nil {
		return fmt.Errorf("DeleteUser %d: %w", userID, err)
	}
	return nil
}

// ResetUserPassword — POST admin/users/{id}/reset-password.
func (c *Client) ResetUserPassword(ctx context.Context, userID int64, newPassword string) error {
	body := map[string]string{"new_password": newPassword}
	if err := c.doJSON(ctx, http.MethodPost, userPath(userID, "/reset-password"), nil, body, nil); err != nil {
		return fmt.Errorf("ResetUserPassword %d: %w", userID, err)
	}
	return nil
}

// UpdateUserPermissions — PUT admin/users/{id}/permissions.
// Возвращает права, подтверждённые backend.
func (c *Client) UpdateUserPermissions(ctx context.Context, userID int64, changes model.Permissions) (model.Permissions, error) {
	var env permissionsEnvelope
	if err := c.doJSON(ctx, http.MethodPut, userPath(userID, "/permissions"), nil, changes, &env); err != nil {
		return nil, fmt.Errorf("UpdateUserPermissions %d: %w", userID, err)
	}
	return env.Permissions, nil
}

func userPath(userID int64, suffix string) string {
	return adminPrefix + "users/" + strconv.FormatInt(userID, 10) + suffix
}

// TransactionAnalytics — GET admin/analytics/transactions.
func (c *Client) TransactionAnalytics(ctx context.Context, days int) (*model.TransactionAnalytics, error) {
	var env transactionAnalyticsEnvelope
	if err := c.doJSON(ctx, http.MethodGet, adminPrefix+"analytics/transactions", daysQuery(days), nil, &env); err != nil {
		return nil, fmt.Errorf("TransactionAnalytics: %w", err)
	}
	return &env.Analytics, nil
}

// PartnerSuccessRates — GET admin/analytics/partners.
func (c *Client) PartnerSuccessRates(ctx context.Context, days int) (*model.PartnerAnalyticsSummary, error) {
	var env partnerSummaryEnvelope
	if err := c.doJSON(ctx, http.MethodGet, adminPrefix+"analytics/partners", daysQuery(days), nil, &env); err != nil {
		return nil, fmt.Errorf("PartnerSuccessRates: %w", err)
	}
	return &env.Analytics, nil
}

// DocumentAnalytics — GET admin/analytics/documents.
func (c *Client) DocumentAnalytics(ctx context.Context, days int) (*model.DocumentAnalytics, error) {
	var env documentAnalyticsEnvelope
	if err := c.doJSON(ctx, http.MethodGet, adminPrefix+"analytics/documents", daysQuery(days), nil, &env); err != nil {
		return nil, fmt.Errorf("DocumentAnalytics: %w", err)
	}
	return &env.Analytics, nil
}

// ActivityLogs — GET admin/activity-logs.
func (c *Client) ActivityLogs(ctx context.Context, f model.ActivityLogFilter) (*model.ActivityLogPage, error) {
	var page model.ActivityLogPage
	if err := c.doJSON(ctx, http.MethodGet, adminPrefix+"activity-logs", f.Values(), nil, &page); err != nil {
		return nil, fmt.Errorf("ActivityLogs: %w", err)
	}
	return &page, nil
}

// ExportActivityLogs — GET admin/activity-logs/export, CSV-поток.
// Пагинация к экспорту не применяется.
func (c *Client) ExportActivityLogs(ctx context.Context, f model.ActivityLogFilter) (*Download, error) {
	f.Page, f.PerPage = 0, 0
	d, err := c.doStream(ctx, http.MethodGet, adminPrefix+"activity-logs/export", f.Values(), nil, "")
	if err != nil {
		return nil, fmt.Errorf("ExportActivityLogs: %w", err)
	}
	if d.Filename == "" {
		d.Filename = "activity_logs.csv"
	}
	return d, nil
}

// SFTPConfig — GET admin/partners/{id}/sftp-config.
func (c *Client) SFTPConfig(ctx context.Context, partnerID string) (*model.SFTPConfigState, error) {
	if partnerID == "" {
		return nil, fmt.Errorf("SFTPConfig: %w", errEmptyID)
	}
	var st model.SFTPConfigState
	if err := c.doJSON(ctx, http.MethodGet, sftpPath(partnerID, ""), nil, nil, &st); err != nil {
		return nil, fmt.Errorf("SFTPConfig %s: %w", partnerID, err)
	}
	return &st, nil
}

// SaveSFTPConfig создаёт (create=true, POST) или изменяет (PUT) SFTP-конфигурацию.
func (c *Client) SaveSFTPConfig(ctx context.Context, partnerID string, cfg model.SFTPConfig, create bool) (*model.SFTPConfig, error) {
	if partnerID == "" {
		return nil, fmt.Errorf("SaveSFTPConfig: %w", errEmptyID)
	}
	method := http.MethodPut
	if create {
		method = http.MethodPost
	}
	var env struct {
		Config *model.SFTPConfig `json:"config"`
	}
	if err := c.doJSON(ctx, method, sftpPath(partnerID, ""), nil, cfg, &env); err != nil {
		return nil, fmt.Errorf("SaveSFTPConfig %s: %w", partnerID, err)
	}
	if env.Config == nil {
		return &cfg, nil
	}
	return env.Config, nil
}

// DeleteSFTPConfig — DELETE admin/partners/{id}/sftp-config.
func (c *Client) DeleteSFTPConfig(ctx context.Context, partnerID string) error {
	if partnerID == "" {
		return fmt.Errorf("DeleteSFTPConfig: %w", errEmptyID)
	}
	if err := c.doJSON(ctx, http.MethodDelete, sftpPath(partnerID, ""), nil, nil, nil); err != nil {
		return fmt.Errorf("DeleteSFTPConfig %s: %w", partnerID, err)
	}
	return nil
}

// TestSFTPConnection — POST admin/partners/{id}/sftp-config/test.
func (c *Client) TestSFTPConnection(ctx context.Context, partnerID string) (*model.ConnectionTestResult, error) {
	if partnerID == "" {
		return nil, fmt.Errorf("TestSFTPConnection: %w", errEmptyID)
	}
	var res model.ConnectionTestResult
	if err := c.doJSON(ctx, http.MethodPost, sftpPath(partnerID, "/test"), nil, nil, &res); err != nil {
		return nil, fmt.Errorf("TestSFTPConnection %s: %w", partnerID, err)
	}
	return &res, nil
}

func sftpPath(partnerID, suffix string) string {
	return adminPrefix + "partners/" + escape(partnerID) + "/sftp-config" + suffix
}
