// Пакет service — бизнес-логика консоли: запросы через кэш и мутации
// с инвалидацией затронутых данных.
// mailbox.go — почтовый ящик: папки, транзакции, действия над ними.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/bigkaa/edi-console/internal/domain/model"
	"github.com/bigkaa/edi-console/internal/query"
)

// MailboxAPI — операции backend, нужные почтовому ящику.
// Реализуется *ediclient.Client.
type MailboxAPI interface {
	Scope() string
	ListFolders(ctx context.Context) ([]model.FolderSummary, error)
	FolderStats(ctx context.Context, folder model.Folder) (*model.FolderStats, error)
	ListPartners(ctx context.Context) ([]model.Partner, error)
	ListDocumentTypes(ctx context.Context) ([]model.DocumentType, error)
	ListTransactions(ctx context.Context, f model.TransactionFilter) (*model.TransactionList, error)
	SearchTransactions(ctx context.Context, f model.TransactionFilter) (*model.TransactionList, error)
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	ValidateTransaction(ctx context.Context, id string) (*model.ValidationResult, error)
	TransactionHistory(ctx context.Context, id string) ([]model.HistoryEntry, error)
	TransactionRaw(ctx context.Context, id string) (*model.RawContent, error)
	CreateTransaction(ctx context.Context, in model.TransactionInput) (*model.MutationResult, error)
	UpdateTransaction(ctx context.Context, id string, in model.TransactionInput) (*model.MutationResult, error)
	DeleteTransaction(ctx context.Context, id string) (*model.MutationResult, error)
	MoveTransaction(ctx context.Context, id string, target model.Folder) (*model.MutationResult, error)
	SendTransaction(ctx context.Context, id string) (*model.MutationResult, error)
	ProcessTransaction(ctx context.Context, id string) (*model.MutationResult, error)
	PermanentDelete(ctx context.Context, id string) (*model.PermanentDeleteResult, error)
}

// MailboxService — запросы и мутации почтового ящика.
type MailboxService struct {
	cache  *query.Cache
	logger *slog.Logger
}

// NewMailboxService создаёт сервис почтового ящика.
func NewMailboxService(cache *query.Cache, logger *slog.Logger) *MailboxService {
	return &MailboxService{
		cache:  cache,
		logger: logger.With(slog.String("component", "mailbox_service")),
	}
}

// TransactionDetail — транзакция с результатом проверки.
// Validation.State == query.Failed означает «результат неизвестен»:
// действия при этом остаются доступными.
type TransactionDetail struct {
	Transaction query.Result[*model.Transaction]
	Validation  query.Result[*model.ValidationResult]
}

// Folders возвращает папки со счётчиками.
func (s *MailboxService) Folders(ctx context.Context, api MailboxAPI) (query.Result[[]model.FolderSummary], error) {
	key := query.Key{Scope: api.Scope(), Resource: query.ResourceFolders}
	return query.Fetch(ctx, s.cache, key, true, api.ListFolders)
}

// FolderStats возвращает статистику папки.
func (s *MailboxService) FolderStats(ctx context.Context, api MailboxAPI, folder model.Folder) (query.Result[*model.FolderStats], error) {
	key := query.Key{Scope: api.Scope(), Resource: query.ResourceFolderStats, Sub: folder.String()}
	return query.Fetch(ctx, s.cache, key, folder.Valid(), func(ctx context.Context) (*model.FolderStats, error) {
		return api.FolderStats(ctx, folder)
	})
}

// Partners — справочник партнёров для фильтров и форм.
func (s *MailboxService) Partners(ctx context.Context, api MailboxAPI) (query.Result[[]model.Partner], error) {
	key := query.Key{Scope: api.Scope(), Resource: query.ResourcePartners}
	return query.Fetch(ctx, s.cache, key, true, api.ListPartners)
}

// DocumentTypes — справочник типов документов.
func (s *MailboxService) DocumentTypes(ctx context.Context, api MailboxAPI) (query.Result[[]model.DocumentType], error) {
	key := query.Key{Scope: api.Scope(), Resource: query.ResourceDocumentTypes}
	return query.Fetch(ctx, s.cache, key, true, api.ListDocumentTypes)
}

// Transactions возвращает страницу транзакций по фильтру.
// Непустой Search направляет запрос в поиск.
func (s *MailboxService) Transactions(ctx context.Context, api MailboxAPI, f model.TransactionFilter) (query.Result[*model.TransactionList], error) {
	sub := f.FolderName()
	list := api.ListTransactions
	if f.Search != "" {
		sub = "search:" + sub
		list = api.SearchTransactions
	}
	key := query.Key{Scope: api.Scope(), Resource: query.ResourceTransactions, Sub: sub, Params: f.Values()}
	return query.Fetch(ctx, s.cache, key, true, func(ctx context.Context) (*model.TransactionList, error) {
		return list(ctx, f)
	})
}

// Transaction возвращает транзакцию. Без id запрос не выполняется.
func (s *MailboxService) Transaction(ctx context.Context, api MailboxAPI, id string) (query.Result[*model.Transaction], error) {
	key := query.Key{Scope: api.Scope(), Resource: query.ResourceTransaction, ID: id}
	return query.Fetch(ctx, s.cache, key, id != "", func(ctx context.Context) (*model.Transaction, error) {
		return api.GetTransaction(ctx, id)
	})
}

// Validation возвращает результат проверки транзакции.
func (s *MailboxService) Validation(ctx context.Context, api MailboxAPI, id string) (query.Result[*model.ValidationResult], error) {
	key := query.Key{Scope: api.Scope(), Resource: query.ResourceValidation, ID: id}
	return query.Fetch(ctx, s.cache, key, id != "", func(ctx context.Context) (*model.ValidationResult, error) {
		return api.ValidateTransaction(ctx, id)
	})
}

// History возвращает историю транзакции.
func (s *MailboxService) History(ctx context.Context, api MailboxAPI, id string) (query.Result[[]model.HistoryEntry], error) {
	key := query.Key{Scope: api.Scope(), Resource: query.ResourceHistory, ID: id}
	return query.Fetch(ctx, s.cache, key, id != "", func(ctx context.Context) ([]model.HistoryEntry, error) {
		return api.TransactionHistory(ctx, id)
	})
}

// Raw возвращает исходное содержимое документа.
func (s *MailboxService) Raw(ctx context.Context, api MailboxAPI, id string) (query.Result[*model.RawContent], error) {
	key := query.Key{Scope: api.Scope(), Resource: query.ResourceRaw, ID: id}
	return query.Fetch(ctx, s.cache, key, id != "", func(ctx context.Context) (*model.RawContent, error) {
		return api.TransactionRaw(ctx, id)
	})
}

// Detail загружает транзакцию и её проверку параллельно.
// Ошибка проверки не прерывает загрузку транзакции.
func (s *MailboxService) Detail(ctx context.Context, api MailboxAPI, id string) (*TransactionDetail, error) {
	var d TransactionDetail
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		res, err := s.Transaction(gctx, api, id)
		d.Transaction = res
		return err
	})
	g.Go(func() error {
		res, err := s.Validation(gctx, api, id)
		if err != nil {
			s.logger.Warn("Результат проверки транзакции недоступен",
				slog.String("transaction_id", id),
				slog.String("error", err.Error()),
			)
			res = query.Result[*model.ValidationResult]{State: query.Failed}
		}
		d.Validation = res
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Create создаёт транзакцию в inbox или outbox.
func (s *MailboxService) Create(ctx context.Context, api MailboxAPI, in model.TransactionInput) (*model.MutationResult, error) {
	// Без папки транзакция создаётся во входящих, как в форме создания
	if in.Folder == "" {
		in.Folder = model.FolderInbox.String()
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	res, err := api.CreateTransaction(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("создание транзакции: %w", err)
	}

	id := res.Transaction.ID
	s.invalidateTransaction(ctx, id)
	s.logger.Info("Транзакция создана",
		slog.String("transaction_id", id),
		slog.String("folder", in.Folder),
	)
	return res, nil
}

// Update изменяет транзакцию.
func (s *MailboxService) Update(ctx context.Context, api MailboxAPI, id string, in model.TransactionInput) (*model.MutationResult, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	res, err := api.UpdateTransaction(ctx, id, in)
	if err != nil {
		return nil, fmt.Errorf("изменение транзакции: %w", err)
	}
	s.invalidateTransaction(ctx, id)
	s.logger.Info("Транзакция изменена", slog.String("transaction_id", id))
	return res, nil
}

// Delete переносит транзакцию в deleted.
func (s *MailboxService) Delete(ctx context.Context, api MailboxAPI, id string) (*model.MutationResult, error) {
	return s.mutate(ctx, id, "Транзакция удалена", api.DeleteTransaction)
}

// Move переносит транзакцию в другую папку.
func (s *MailboxService) Move(ctx context.Context, api MailboxAPI, id string, target model.Folder) (*model.MutationResult, error) {
	if !target.Valid() {
		return nil, fieldError("target_folder", model.ErrUnknownFolder.Error())
	}
	return s.mutate(ctx, id, "Транзакция перемещена в "+target.String(), func(ctx context.Context, id string) (*model.MutationResult, error) {
		return api.MoveTransaction(ctx, id, target)
	})
}

// Send отправляет транзакцию партнёру.
func (s *MailboxService) Send(ctx context.Context, api MailboxAPI, id string) (*model.MutationResult, error) {
	return s.mutate(ctx, id, "Транзакция отправлена", api.SendTransaction)
}

// Process обрабатывает транзакцию (inbox → received, outbox → sent).
// Ошибки полей документа доступны через ediclient.ValidationErrors.
func (s *MailboxService) Process(ctx context.Context, api MailboxAPI, id string) (*model.MutationResult, error) {
	return s.mutate(ctx, id, "Транзакция обработана", api.ProcessTransaction)
}

// PermanentDelete необратимо удаляет транзакцию.
// Допускается только для транзакций в папке deleted.
func (s *MailboxService) PermanentDelete(ctx context.Context, api MailboxAPI, id string) (*model.PermanentDeleteResult, error) {
	tx, err := s.Transaction(ctx, api, id)
	if err != nil {
		return nil, fmt.Errorf("окончательное удаление: %w", err)
	}
	if tx.State != query.Loaded || tx.Data == nil {
		return nil, fmt.Errorf("окончательное удаление: %w", ErrNotFound)
	}
	if tx.Data.Folder != model.FolderDeleted {
		return nil, fmt.Errorf("окончательное удаление из папки %s: %w", tx.Data.Folder, ErrNotAllowed)
	}

	res, err := api.PermanentDelete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("окончательное удаление: %w", err)
	}
	s.invalidateTransaction(ctx, id)
	s.logger.Info("Транзакция удалена окончательно", slog.String("transaction_id", id))
	return res, nil
}

func (s *MailboxService) mutate(
	ctx context.Context,
	id, logMessage string,
	fn func(ctx context.Context, id string) (*model.MutationResult, error),
) (*model.MutationResult, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: пустой идентификатор транзакции", ErrValidation)
	}
	res, err := fn(ctx, id)
	if err != nil {
		return nil, err
	}
	s.invalidateTransaction(ctx, id)
	s.logger.Info(logMessage, slog.String("transaction_id", id))
	return res, nil
}

// invalidateTransaction сбрасывает данные, которые меняет любая мутация:
// саму транзакцию, списки, счётчики папок и зависящие от них сводки.
func (s *MailboxService) invalidateTransaction(ctx context.Context, id string) {
	if id != "" {
		s.cache.InvalidateEntity(ctx, id,
			query.ResourceTransaction,
			query.ResourceValidation,
			query.ResourceHistory,
			query.ResourceRaw,
		)
	}
	s.cache.Invalidate(ctx,
		query.ResourceTransactions,
		query.ResourceFolders,
		query.ResourceFolderStats,
		query.ResourceDashboard,
		query.ResourcePortal,
	)
}

