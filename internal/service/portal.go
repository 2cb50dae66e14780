// portal.go — портал партнёра: панель, транзакции, загрузка и скачивание файлов, настройки.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/bigkaa/edi-console/internal/domain/model"
	"github.com/bigkaa/edi-console/internal/ediclient"
	"github.com/bigkaa/edi-console/internal/query"
)

// PortalAPI — операции backend портала партнёра.
// Реализуется *ediclient.Client.
type PortalAPI interface {
	Scope() string
	PortalDashboard(ctx context.Context, days int) (*model.PortalDashboard, error)
	PortalTransactions(ctx context.Context, f model.PortalTransactionFilter) (*model.PortalTransactionList, error)
	PortalTransaction(ctx context.Context, id string) (*model.PortalTransactionDetail, error)
	UploadFile(ctx context.Context, up ediclient.Upload) (*model.UploadResult, error)
	ListDownloads(ctx context.Context) ([]model.DownloadableFile, error)
	DownloadFile(ctx context.Context, id string) (*ediclient.Download, error)
	BulkDownload(ctx context.Context, ids []string) (*ediclient.Download, error)
	PortalSettings(ctx context.Context) (*model.PortalSettings, error)
	UpdateContact(ctx context.Context, in model.ContactUpdate) error
	TestConnection(ctx context.Context) (map[string]model.ChannelTest, error)
	Logout(ctx context.Context) error
}

// PortalService — запросы и мутации портала партнёра.
type PortalService struct {
	cache  *query.Cache
	logger *slog.Logger
}

// NewPortalService создаёт сервис портала.
func NewPortalService(cache *query.Cache, logger *slog.Logger) *PortalService {
	return &PortalService{
		cache:  cache,
		logger: logger.With(slog.String("component", "portal_service")),
	}
}

func (s *PortalService) key(api PortalAPI, sub, id string) query.Key {
	return query.Key{Scope: api.Scope(), Resource: query.ResourcePortal, Sub: sub, ID: id}
}

// Dashboard возвращает панель партнёра за период.
func (s *PortalService) Dashboard(ctx context.Context, api PortalAPI, days int) (query.Result[*model.PortalDashboard], error) {
	return query.Fetch(ctx, s.cache, s.key(api, "dashboard", strconv.Itoa(days)), true, func(ctx context.Context) (*model.PortalDashboard, error) {
		return api.PortalDashboard(ctx, days)
	})
}

// Transactions возвращает страницу транзакций партнёра.
func (s *PortalService) Transactions(ctx context.Context, api PortalAPI, f model.PortalTransactionFilter) (query.Result[*model.PortalTransactionList], error) {
	key := s.key(api, "transactions", "")
	key.Params = f.Values()
	return query.Fetch(ctx, s.cache, key, true, func(ctx context.Context) (*model.PortalTransactionList, error) {
		return api.PortalTransactions(ctx, f)
	})
}

// Transaction возвращает транзакцию партнёра. Без id запрос не выполняется.
func (s *PortalService) Transaction(ctx context.Context, api PortalAPI, id string) (query.Result[*model.PortalTransactionDetail], error) {
	return query.Fetch(ctx, s.cache, s.key(api, "transaction", id), id != "", func(ctx context.Context) (*model.PortalTransactionDetail, error) {
		return api.PortalTransaction(ctx, id)
	})
}

// Downloads возвращает файлы, доступные для скачивания.
func (s *PortalService) Downloads(ctx context.Context, api PortalAPI) (query.Result[[]model.DownloadableFile], error) {
	return query.Fetch(ctx, s.cache, s.key(api, "downloads", ""), true, api.ListDownloads)
}

// Settings возвращает настройки партнёра.
func (s *PortalService) Settings(ctx context.Context, api PortalAPI) (query.Result[*model.PortalSettings], error) {
	return query.Fetch(ctx, s.cache, s.key(api, "settings", ""), true, api.PortalSettings)
}

// CheckUpload проверяет файл до отправки в backend: размер, расширение, тип документа.
func CheckUpload(filename string, size int64, documentType string) error {
	fe := &FormError{}
	if size <= 0 {
		fe.Fields = append(fe.Fields, model.FieldError{Field: "file", Message: "Файл пуст"})
	} else if size > model.MaxUploadSize {
		fe.Fields = append(fe.Fields, model.FieldError{
			Field:   "file",
			Message: fmt.Sprintf("Размер файла превышает %d МБ", model.MaxUploadSize>>20),
		})
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !slices.Contains(model.UploadExtensions, ext) {
		fe.Fields = append(fe.Fields, model.FieldError{
			Field:   "file",
			Message: "Допустимые расширения: " + strings.Join(model.UploadExtensions, ", "),
		})
	}
	if strings.TrimSpace(documentType) == "" {
		fe.Fields = append(fe.Fields, model.FieldError{Field: "document_type", Message: "Обязательное поле"})
	}
	if len(fe.Fields) > 0 {
		return fe
	}
	return nil
}

// Upload проверяет и загружает файл партнёра.
func (s *PortalService) Upload(ctx context.Context, api PortalAPI, up ediclient.Upload, size int64) (*model.UploadResult, error) {
	if err := CheckUpload(up.Filename, size, up.DocumentType); err != nil {
		return nil, err
	}
	res, err := api.UploadFile(ctx, up)
	if err != nil {
		return nil, fmt.Errorf("загрузка файла: %w", err)
	}

	s.cache.Invalidate(ctx,
		query.ResourcePortal,
		query.ResourceTransactions,
		query.ResourceFolders,
		query.ResourceFolderStats,
		query.ResourceDashboard,
	)
	s.logger.Info("Файл загружен партнёром",
		slog.String("transaction_id", res.ID),
		slog.String("filename", up.Filename),
		slog.Int64("size", size),
	)
	return res, nil
}

// DownloadFile возвращает поток файла. Не кэшируется.
func (s *PortalService) DownloadFile(ctx context.Context, api PortalAPI, id string) (*ediclient.Download, error) {
	d, err := api.DownloadFile(ctx, id)
	if err != nil {
		return nil, err
	}
	s.invalidateDownloads(api)
	return d, nil
}

// BulkDownload возвращает zip-архив выбранных файлов.
func (s *PortalService) BulkDownload(ctx context.Context, api PortalAPI, ids []string) (*ediclient.Download, error) {
	if len(ids) == 0 {
		return nil, fieldError("transaction_ids", "Не выбраны файлы")
	}
	d, err := api.BulkDownload(ctx, ids)
	if err != nil {
		return nil, err
	}
	s.invalidateDownloads(api)
	return d, nil
}

// UpdateContact изменяет контактные данные партнёра.
func (s *PortalService) UpdateContact(ctx context.Context, api PortalAPI, in model.ContactUpdate) error {
	if err := validateInput(in); err != nil {
		return err
	}
	if err := api.UpdateContact(ctx, in); err != nil {
		return fmt.Errorf("изменение контактов: %w", err)
	}
	s.cache.Forget(s.key(api, "settings", ""))
	s.logger.Info("Контакты партнёра изменены")
	return nil
}

// TestConnection проверяет каналы связи партнёра.
func (s *PortalService) TestConnection(ctx context.Context, api PortalAPI) (map[string]model.ChannelTest, error) {
	res, err := api.TestConnection(ctx)
	if err != nil {
		return nil, fmt.Errorf("проверка соединения: %w", err)
	}
	s.cache.Forget(s.key(api, "settings", ""))
	return res, nil
}

// invalidateDownloads сбрасывает счётчики скачиваний сессии.
func (s *PortalService) invalidateDownloads(api PortalAPI) {
	s.cache.Forget(s.key(api, "downloads", ""))
}

// Logout закрывает сессию партнёра на backend.
func (s *PortalService) Logout(ctx context.Context, api PortalAPI) error {
	if err := api.Logout(ctx); err != nil {
		return fmt.Errorf("выход из портала: %w", err)
	}
	s.logger.Info("Партнёр вышел из портала")
	return nil
}
