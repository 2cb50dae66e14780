// admin.go — административная консоль: панель, партнёры, пользователи
// и права, аналитика, журнал активности, SFTP.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/bigkaa/edi-console/internal/domain/model"
	"github.com/bigkaa/edi-console/internal/ediclient"
	"github.com/bigkaa/edi-console/internal/query"
)

// AdminAPI — операции backend административной консоли.
// Реализуется *ediclient.Client.
type AdminAPI interface {
	Scope() string
	DashboardMetrics(ctx context.Context, days int) (*model.DashboardMetricsResult, error)
	DashboardCharts(ctx context.Context, days int) (*model.DashboardCharts, error)
	ListAdminPartners(ctx context.Context, f model.PartnerFilter) (*model.AdminPartnerList, error)
	PartnerAnalytics(ctx context.Context, partnerID string, days int) (*model.PartnerAnalytics, error)
	PartnerUsers(ctx context.Context, partnerID string) ([]model.PartnerUser, error)
	CreatePartnerUser(ctx context.Context, partnerID string, in model.CreateUserInput) (*model.PartnerUser, error)
	UpdateUser(ctx context.Context, userID int64, in model.UpdateUserInput) (*model.PartnerUser, error)
	DeleteUser(ctx context.Context, userID int64) error
	ResetUserPassword(ctx context.Context, userID int64, newPassword string) error
	UpdateUserPermissions(ctx context.Context, userID int64, changes model.Permissions) (model.Permissions, error)
	TransactionAnalytics(ctx context.Context, days int) (*model.TransactionAnalytics, error)
	PartnerSuccessRates(ctx context.Context, days int) (*model.PartnerAnalyticsSummary, error)
	DocumentAnalytics(ctx context.Context, days int) (*model.DocumentAnalytics, error)
	ActivityLogs(ctx context.Context, f model.ActivityLogFilter) (*model.ActivityLogPage, error)
	ExportActivityLogs(ctx context.Context, f model.ActivityLogFilter) (*ediclient.Download, error)
	SFTPConfig(ctx context.Context, partnerID string) (*model.SFTPConfigState, error)
	SaveSFTPConfig(ctx context.Context, partnerID string, cfg model.SFTPConfig, create bool) (*model.SFTPConfig, error)
	DeleteSFTPConfig(ctx context.Context, partnerID string) error
	TestSFTPConnection(ctx context.Context, partnerID string) (*model.ConnectionTestResult, error)
}

// minPasswordLength — минимальная длина пароля при сбросе.
const minPasswordLength = 8

// AdminService — запросы и мутации административной консоли.
type AdminService struct {
	cache  *query.Cache
	fanout int
	logger *slog.Logger
}

// NewAdminService создаёт сервис административной консоли.
// fanout — максимальное число параллельных запросов одной страницы.
func NewAdminService(cache *query.Cache, fanout int, logger *slog.Logger) *AdminService {
	if fanout < 1 {
		fanout = 4
	}
	return &AdminService{
		cache:  cache,
		fanout: fanout,
		logger: logger.With(slog.String("component", "admin_service")),
	}
}

// DashboardView — данные административной панели.
type DashboardView struct {
	Metrics *model.DashboardMetricsResult
	Charts  *model.DashboardCharts
	Stale   bool
}

// AnalyticsView — данные страницы аналитики.
type AnalyticsView struct {
	Transactions *model.TransactionAnalytics
	Partners     *model.PartnerAnalyticsSummary
	Documents    *model.DocumentAnalytics
}

// PartnerDetailView — партнёр: аналитика, пользователи, SFTP.
type PartnerDetailView struct {
	Analytics *model.PartnerAnalytics
	Users     []model.PartnerUser
	SFTP      *model.SFTPConfigState
}

func daysParam(days int) string {
	return strconv.Itoa(days)
}

// Dashboard загружает показатели и графики параллельно.
func (s *AdminService) Dashboard(ctx context.Context, api AdminAPI, days int) (*DashboardView, error) {
	var (
		view        DashboardView
		metricsRes  query.Result[*model.DashboardMetricsResult]
		chartsRes   query.Result[*model.DashboardCharts]
		scope       = api.Scope()
		metricsKey  = query.Key{Scope: scope, Resource: query.ResourceDashboard, Sub: "metrics", ID: daysParam(days)}
		chartsKey   = query.Key{Scope: scope, Resource: query.ResourceDashboard, Sub: "charts", ID: daysParam(days)}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanout)
	g.Go(func() (err error) {
		metricsRes, err = query.Fetch(gctx, s.cache, metricsKey, true, func(ctx context.Context) (*model.DashboardMetricsResult, error) {
			return api.DashboardMetrics(ctx, days)
		})
		return err
	})
	g.Go(func() (err error) {
		chartsRes, err = query.Fetch(gctx, s.cache, chartsKey, true, func(ctx context.Context) (*model.DashboardCharts, error) {
			return api.DashboardCharts(ctx, days)
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("загрузка панели: %w", err)
	}

	view.Metrics = metricsRes.Data
	view.Charts = chartsRes.Data
	view.Stale = metricsRes.Stale || chartsRes.Stale
	return &view, nil
}

// RefreshDashboard сбрасывает панель сессии и загружает её заново.
// Используется автообновлением.
func (s *AdminService) RefreshDashboard(ctx context.Context, api AdminAPI, days int) (*DashboardView, error) {
	scope := api.Scope()
	for _, sub := range []string{"metrics", "charts"} {
		s.cache.Forget(query.Key{Scope: scope, Resource: query.ResourceDashboard, Sub: sub, ID: daysParam(days)})
	}
	return s.Dashboard(ctx, api, days)
}

// Analytics загружает три раздела аналитики параллельно.
func (s *AdminService) Analytics(ctx context.Context, api AdminAPI, days int) (*AnalyticsView, error) {
	var view AnalyticsView
	scope := api.Scope()
	key := func(sub string) query.Key {
		return query.Key{Scope: scope, Resource: query.ResourceAnalytics, Sub: sub, ID: daysParam(days)}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanout)
	g.Go(func() error {
		res, err := query.Fetch(gctx, s.cache, key("transactions"), true, func(ctx context.Context) (*model.TransactionAnalytics, error) {
			return api.TransactionAnalytics(ctx, days)
		})
		view.Transactions = res.Data
		return err
	})
	g.Go(func() error {
		res, err := query.Fetch(gctx, s.cache, key("partners"), true, func(ctx context.Context) (*model.PartnerAnalyticsSummary, error) {
			return api.PartnerSuccessRates(ctx, days)
		})
		view.Partners = res.Data
		return err
	})
	g.Go(func() error {
		res, err := query.Fetch(gctx, s.cache, key("documents"), true, func(ctx context.Context) (*model.DocumentAnalytics, error) {
			return api.DocumentAnalytics(ctx, days)
		})
		view.Documents = res.Data
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("загрузка аналитики: %w", err)
	}
	return &view, nil
}

// Partners возвращает страницу административного списка партнёров.
func (s *AdminService) Partners(ctx context.Context, api AdminAPI, f model.PartnerFilter) (query.Result[*model.AdminPartnerList], error) {
	key := query.Key{Scope: api.Scope(), Resource: query.ResourceAdminPartners, Params: f.Values()}
	return query.Fetch(ctx, s.cache, key, true, func(ctx context.Context) (*model.AdminPartnerList, error) {
		return api.ListAdminPartners(ctx, f)
	})
}

// PartnerUsers возвращает пользователей партнёра.
func (s *AdminService) PartnerUsers(ctx context.Context, api AdminAPI, partnerID string) (query.Result[[]model.PartnerUser], error) {
	key := query.Key{Scope: api.Scope(), Resource: query.ResourcePartnerUsers, ID: partnerID}
	return query.Fetch(ctx, s.cache, key, partnerID != "", func(ctx context.Context) ([]model.PartnerUser, error) {
		return api.PartnerUsers(ctx, partnerID)
	})
}

// SFTPConfig возвращает SFTP-конфигурацию партнёра.
func (s *AdminService) SFTPConfig(ctx context.Context, api AdminAPI, partnerID string) (query.Result[*model.SFTPConfigState], error) {
	key := query.Key{Scope: api.Scope(), Resource: query.ResourceSFTPConfig, ID: partnerID}
	return query.Fetch(ctx, s.cache, key, partnerID != "", func(ctx context.Context) (*model.SFTPConfigState, error) {
		return api.SFTPConfig(ctx, partnerID)
	})
}

// PartnerDetail загружает аналитику, пользователей и SFTP партнёра параллельно.
func (s *AdminService) PartnerDetail(ctx context.Context, api AdminAPI, partnerID string, days int) (*PartnerDetailView, error) {
	if partnerID == "" {
		return nil, fmt.Errorf("%w: пустой идентификатор партнёра", ErrValidation)
	}
	var view PartnerDetailView

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanout)
	g.Go(func() error {
		key := query.Key{Scope: api.Scope(), Resource: query.ResourceAdminPartners, Sub: "analytics", ID: partnerID,
			Params: map[string][]string{"days": {daysParam(days)}}}
		res, err := query.Fetch(gctx, s.cache, key, true, func(ctx context.Context) (*model.PartnerAnalytics, error) {
			return api.PartnerAnalytics(ctx, partnerID, days)
		})
		view.Analytics = res.Data
		return err
	})
	g.Go(func() error {
		res, err := s.PartnerUsers(gctx, api, partnerID)
		view.Users = res.Data
		return err
	})
	g.Go(func() error {
		res, err := s.SFTPConfig(gctx, api, partnerID)
		view.SFTP = res.Data
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("загрузка партнёра %s: %w", partnerID, err)
	}
	return &view, nil
}

// CreateUser создаёт пользователя портала у партнёра.
func (s *AdminService) CreateUser(ctx context.Context, api AdminAPI, partnerID string, in model.CreateUserInput) (*model.PartnerUser, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	user, err := api.CreatePartnerUser(ctx, partnerID, in)
	if err != nil {
		return nil, fmt.Errorf("создание пользователя: %w", err)
	}
	s.invalidateUsers(ctx)
	s.logger.Info("Пользователь партнёра создан",
		slog.String("partner_id", partnerID),
		slog.String("username", in.Username),
	)
	return user, nil
}

// UpdateUser изменяет пользователя портала.
func (s *AdminService) UpdateUser(ctx context.Context, api AdminAPI, userID int64, in model.UpdateUserInput) (*model.PartnerUser, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	user, err := api.UpdateUser(ctx, userID, in)
	if err != nil {
		return nil, fmt.Errorf("изменение пользователя: %w", err)
	}
	s.invalidateUsers(ctx)
	s.logger.Info("Пользователь партнёра изменён", slog.Int64("user_id", userID))
	return user, nil
}

// DeleteUser удаляет пользователя портала.
func (s *AdminService) DeleteUser(ctx context.Context, api AdminAPI, userID int64) error {
	if err := api.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("удаление пользователя: %w", err)
	}
	s.invalidateUsers(ctx)
	s.logger.Info("Пользователь партнёра удалён", slog.Int64("user_id", userID))
	return nil
}

// ResetPassword устанавливает пользователю новый пароль.
func (s *AdminService) ResetPassword(ctx context.Context, api AdminAPI, userID int64, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return fieldError("new_password", fmt.Sprintf("Минимум %d символов", minPasswordLength))
	}
	if err := api.ResetUserPassword(ctx, userID, newPassword); err != nil {
		return fmt.Errorf("сброс пароля: %w", err)
	}
	s.invalidateActivity(ctx)
	s.logger.Info("Пароль пользователя сброшен", slog.Int64("user_id", userID))
	return nil
}

// TogglePermission инвертирует право пользователя и возвращает права,
// подтверждённые backend. При ошибке возвращается копия current.
func (s *AdminService) TogglePermission(
	ctx context.Context,
	api AdminAPI,
	userID int64,
	perm model.Permission,
	current model.Permissions,
) (model.Permissions, error) {
	if !model.ValidPermission(perm) {
		return current.Clone(), fieldError("permission", "Неизвестное право: "+string(perm))
	}

	desired := !current[perm]
	confirmed, err := api.UpdateUserPermissions(ctx, userID, model.Permissions{perm: desired})
	if err != nil {
		s.logger.Warn("Не удалось изменить право пользователя",
			slog.Int64("user_id", userID),
			slog.String("permission", string(perm)),
			slog.String("error", err.Error()),
		)
		return current.Clone(), fmt.Errorf("изменение права %s: %w", perm, err)
	}

	s.invalidateUsers(ctx)
	s.logger.Info("Право пользователя изменено",
		slog.Int64("user_id", userID),
		slog.String("permission", string(perm)),
		slog.Bool("value", confirmed[perm]),
	)
	return confirmed, nil
}

// ActivityLogs возвращает страницу журнала активности.
func (s *AdminService) ActivityLogs(ctx context.Context, api AdminAPI, f model.ActivityLogFilter) (query.Result[*model.ActivityLogPage], error) {
	key := query.Key{Scope: api.Scope(), Resource: query.ResourceActivityLogs, Params: f.Values()}
	return query.Fetch(ctx, s.cache, key, true, func(ctx context.Context) (*model.ActivityLogPage, error) {
		return api.ActivityLogs(ctx, f)
	})
}

// ExportActivityLogs возвращает CSV-поток журнала. Не кэшируется.
func (s *AdminService) ExportActivityLogs(ctx context.Context, api AdminAPI, f model.ActivityLogFilter) (*ediclient.Download, error) {
	return api.ExportActivityLogs(ctx, f)
}

// SaveSFTPConfig создаёт или изменяет SFTP-конфигурацию партнёра.
// Способ (POST или PUT) выбирается по текущему состоянию конфигурации.
func (s *AdminService) SaveSFTPConfig(ctx context.Context, api AdminAPI, partnerID string, cfg model.SFTPConfig) (*model.SFTPConfig, error) {
	if err := validateInput(cfg); err != nil {
		return nil, err
	}
	state, err := s.SFTPConfig(ctx, api, partnerID)
	if err != nil {
		return nil, fmt.Errorf("сохранение SFTP: %w", err)
	}
	create := state.Data == nil || !state.Data.HasConfig

	saved, err := api.SaveSFTPConfig(ctx, partnerID, cfg, create)
	if err != nil {
		return nil, fmt.Errorf("сохранение SFTP: %w", err)
	}
	s.invalidateSFTP(ctx, partnerID)
	s.logger.Info("SFTP-конфигурация сохранена",
		slog.String("partner_id", partnerID),
		slog.Bool("created", create),
	)
	return saved, nil
}

// DeleteSFTPConfig удаляет SFTP-конфигурацию партнёра.
func (s *AdminService) DeleteSFTPConfig(ctx context.Context, api AdminAPI, partnerID string) error {
	if err := api.DeleteSFTPConfig(ctx, partnerID); err != nil {
		return fmt.Errorf("удаление SFTP: %w", err)
	}
	s.invalidateSFTP(ctx, partnerID)
	s.logger.Info("SFTP-конфигурация удалена", slog.String("partner_id", partnerID))
	return nil
}

// TestSFTPConnection проверяет соединение по SFTP-конфигурации.
func (s *AdminService) TestSFTPConnection(ctx context.Context, api AdminAPI, partnerID string) (*model.ConnectionTestResult, error) {
	res, err := api.TestSFTPConnection(ctx, partnerID)
	if err != nil {
		return nil, fmt.Errorf("проверка SFTP: %w", err)
	}
	return res, nil
}

func (s *AdminService) invalidateUsers(ctx context.Context) {
	s.cache.Invalidate(ctx, query.ResourcePartnerUsers, query.ResourceActivityLogs)
}

func (s *AdminService) invalidateActivity(ctx context.Context) {
	s.cache.Invalidate(ctx, query.ResourceActivityLogs)
}

func (s *AdminService) invalidateSFTP(ctx context.Context, partnerID string) {
	s.cache.InvalidateEntity(ctx, partnerID, query.ResourceSFTPConfig)
	s.cache.Invalidate(ctx, query.ResourceActivityLogs)
}
