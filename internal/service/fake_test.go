package service

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/bigkaa/edi-console/internal/domain/model"
	"github.com/bigkaa/edi-console/internal/ediclient"
	"github.com/bigkaa/edi-console/internal/query"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestCache() *query.Cache {
	return query.New(query.Options{MaxEntries: 128, TTL: time.Minute}, testLogger())
}

// fakeBackend — backend в памяти, считающий вызовы каждой операции.
type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int
	txs   map[string]*model.Transaction
	delay time.Duration

	validation  *model.ValidationResult
	validateErr error
	mutateErr   error

	permissions map[int64]model.Permissions
	permErr     error
	lastPerm    model.Permissions

	sftp       *model.SFTPConfigState
	sftpCreate []bool

	lastLogFilter model.ActivityLogFilter
	uploads       []ediclient.Upload
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		calls: map[string]int{},
		txs: map[string]*model.Transaction{
			"42": {ID: "42", Folder: model.FolderInbox, PartnerName: "ACME", DocumentType: "850", Status: model.StatusDraft},
			"43": {ID: "43", Folder: model.FolderInbox, PartnerName: "ACME", DocumentType: "810", Status: model.StatusDraft},
			"7":  {ID: "7", Folder: model.FolderReceived, PartnerName: "Globex", DocumentType: "856"},
			"99": {ID: "99", Folder: model.FolderDeleted, PartnerName: "Globex", DocumentType: "997"},
		},
		permissions: map[int64]model.Permissions{},
		sftp:        &model.SFTPConfigState{},
	}
}

func (f *fakeBackend) hit(op string) {
	f.mu.Lock()
	f.calls[op]++
	delay := f.delay
	f.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
}

func (f *fakeBackend) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeBackend) Scope() string { return "test-scope" }

func (f *fakeBackend) ListFolders(ctx context.Context) ([]model.FolderSummary, error) {
	f.hit("ListFolders")
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.FolderSummary, 0, model.FolderCount)
	for _, folder := range model.Folders() {
		n := 0
		for _, tx := range f.txs {
			if tx.Folder == folder {
				n++
			}
		}
		out = append(out, model.FolderSummary{Name: folder, DisplayName: folder.String(), Count: n})
	}
	return out, nil
}

func (f *fakeBackend) FolderStats(ctx context.Context, folder model.Folder) (*model.FolderStats, error) {
	f.hit("FolderStats")
	return &model.FolderStats{Folder: folder}, nil
}

func (f *fakeBackend) ListPartners(ctx context.Context) ([]model.Partner, error) {
	f.hit("ListPartners")
	return []model.Partner{{ID: "p1", Name: "ACME"}}, nil
}

func (f *fakeBackend) ListDocumentTypes(ctx context.Context) ([]model.DocumentType, error) {
	f.hit("ListDocumentTypes")
	return nil, nil
}

func (f *fakeBackend) ListTransactions(ctx context.Context, flt model.TransactionFilter) (*model.TransactionList, error) {
	f.hit("ListTransactions")
	return f.list(flt), nil
}

func (f *fakeBackend) SearchTransactions(ctx context.Context, flt model.TransactionFilter) (*model.TransactionList, error) {
	f.hit("SearchTransactions")
	return f.list(flt), nil
}

func (f *fakeBackend) list(flt model.TransactionFilter) *model.TransactionList {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list model.TransactionList
	for _, tx := range f.txs {
		if flt.Folder != nil && tx.Folder != *flt.Folder {
			continue
		}
		list.Transactions = append(list.Transactions, *tx)
	}
	slices.SortFunc(list.Transactions, func(a, b model.Transaction) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	list.Pagination = model.Pagination{Page: 1, PageSize: model.DefaultPageSize, TotalPages: 1, TotalCount: len(list.Transactions)}
	return &list
}

func (f *fakeBackend) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	f.hit("GetTransaction")
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.txs[id]
	if !ok {
		return nil, &ediclient.APIError{Status: 404, Message: "Transaction not found"}
	}
	cp := *tx
	return &cp, nil
}

func (f *fakeBackend) ValidateTransaction(ctx context.Context, id string) (*model.ValidationResult, error) {
	f.hit("ValidateTransaction")
	if f.validateErr != nil {
		return nil, f.validateErr
	}
	if f.validation != nil {
		return f.validation, nil
	}
	return &model.ValidationResult{TransactionID: id, Validation: model.Validation{Valid: true}}, nil
}

func (f *fakeBackend) TransactionHistory(ctx context.Context, id string) ([]model.HistoryEntry, error) {
	f.hit("TransactionHistory")
	return nil, nil
}

func (f *fakeBackend) TransactionRaw(ctx context.Context, id string) (*model.RawContent, error) {
	f.hit("TransactionRaw")
	return &model.RawContent{}, nil
}

func (f *fakeBackend) CreateTransaction(ctx context.Context, in model.TransactionInput) (*model.MutationResult, error) {
	f.hit("CreateTransaction")
	folder, _ := model.ParseFolder(in.Folder)
	tx := &model.Transaction{ID: "new-1", Folder: folder, PartnerName: in.PartnerName, DocumentType: in.DocumentType}
	f.mu.Lock()
	f.txs[tx.ID] = tx
	f.mu.Unlock()
	return &model.MutationResult{Success: true, Transaction: *tx}, nil
}

func (f *fakeBackend) UpdateTransaction(ctx context.Context, id string, in model.TransactionInput) (*model.MutationResult, error) {
	return f.mutate("UpdateTransaction", id, func(tx *model.Transaction) { tx.PONumber = in.PONumber })
}

func (f *fakeBackend) DeleteTransaction(ctx context.Context, id string) (*model.MutationResult, error) {
	return f.mutate("DeleteTransaction", id, func(tx *model.Transaction) { tx.Folder = model.FolderDeleted })
}

func (f *fakeBackend) MoveTransaction(ctx context.Context, id string, target model.Folder) (*model.MutationResult, error) {
	return f.mutate("MoveTransaction", id, func(tx *model.Transaction) { tx.Folder = target })
}

func (f *fakeBackend) SendTransaction(ctx context.Context, id string) (*model.MutationResult, error) {
	return f.mutate("SendTransaction", id, func(tx *model.Transaction) { tx.Folder = model.FolderSent })
}

func (f *fakeBackend) ProcessTransaction(ctx context.Context, id string) (*model.MutationResult, error) {
	return f.mutate("ProcessTransaction", id, func(tx *model.Transaction) {
		if tx.Folder == model.FolderInbox {
			tx.Folder = model.FolderReceived
		} else {
			tx.Folder = model.FolderSent
		}
	})
}

func (f *fakeBackend) PermanentDelete(ctx context.Context, id string) (*model.PermanentDeleteResult, error) {
	f.hit("PermanentDelete")
	f.mu.Lock()
	delete(f.txs, id)
	f.mu.Unlock()
	return &model.PermanentDeleteResult{Success: true, TransactionID: id}, nil
}

func (f *fakeBackend) mutate(op, id string, apply func(tx *model.Transaction)) (*model.MutationResult, error) {
	f.hit(op)
	if f.mutateErr != nil {
		return nil, f.mutateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.txs[id]
	if !ok {
		return nil, &ediclient.APIError{Status: 404, Message: "Transaction not found"}
	}
	apply(tx)
	return &model.MutationResult{Success: true, Transaction: *tx}, nil
}

// AdminAPI

func (f *fakeBackend) DashboardMetrics(ctx context.Context, days int) (*model.DashboardMetricsResult, error) {
	f.hit("DashboardMetrics")
	return &model.DashboardMetricsResult{Metrics: model.DashboardMetrics{TotalPartners: 3}, PeriodDays: days}, nil
}

func (f *fakeBackend) DashboardCharts(ctx context.Context, days int) (*model.DashboardCharts, error) {
	f.hit("DashboardCharts")
	return &model.DashboardCharts{SystemStatus: model.SystemStatus{Database: "healthy"}}, nil
}

func (f *fakeBackend) ListAdminPartners(ctx context.Context, flt model.PartnerFilter) (*model.AdminPartnerList, error) {
	f.hit("ListAdminPartners")
	return &model.AdminPartnerList{}, nil
}

func (f *fakeBackend) PartnerAnalytics(ctx context.Context, partnerID string, days int) (*model.PartnerAnalytics, error) {
	f.hit("PartnerAnalytics")
	return &model.PartnerAnalytics{TotalTransactions: 10}, nil
}

func (f *fakeBackend) PartnerUsers(ctx context.Context, partnerID string) ([]model.PartnerUser, error) {
	f.hit("PartnerUsers")
	return []model.PartnerUser{{ID: 7, Username: "buyer"}}, nil
}

func (f *fakeBackend) CreatePartnerUser(ctx context.Context, partnerID string, in model.CreateUserInput) (*model.PartnerUser, error) {
	f.hit("CreatePartnerUser")
	return &model.PartnerUser{ID: 8, Username: in.Username}, nil
}

func (f *fakeBackend) UpdateUser(ctx context.Context, userID int64, in model.UpdateUserInput) (*model.PartnerUser, error) {
	f.hit("UpdateUser")
	return &model.PartnerUser{ID: userID}, nil
}

func (f *fakeBackend) DeleteUser(ctx context.Context, userID int64) error {
	f.hit("DeleteUser")
	return nil
}

func (f *fakeBackend) ResetUserPassword(ctx context.Context, userID int64, newPassword string) error {
	f.hit("ResetUserPassword")
	return nil
}

func (f *fakeBackend) UpdateUserPermissions(ctx context.Context, userID int64, changes model.Permissions) (model.Permissions, error) {
	f.hit("UpdateUserPermissions")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPerm = changes.Clone()
	if f.permErr != nil {
		return nil, f.permErr
	}
	perms := f.permissions[userID].Clone()
	for k, v := range changes {
		perms[k] = v
	}
	f.permissions[userID] = perms
	return perms.Clone(), nil
}

func (f *fakeBackend) TransactionAnalytics(ctx context.Context, days int) (*model.TransactionAnalytics, error) {
	f.hit("TransactionAnalytics")
	return &model.TransactionAnalytics{}, nil
}

func (f *fakeBackend) PartnerSuccessRates(ctx context.Context, days int) (*model.PartnerAnalyticsSummary, error) {
	f.hit("PartnerSuccessRates")
	return &model.PartnerAnalyticsSummary{}, nil
}

func (f *fakeBackend) DocumentAnalytics(ctx context.Context, days int) (*model.DocumentAnalytics, error) {
	f.hit("DocumentAnalytics")
	return &model.DocumentAnalytics{}, nil
}

func (f *fakeBackend) ActivityLogs(ctx context.Context, flt model.ActivityLogFilter) (*model.ActivityLogPage, error) {
	f.hit("ActivityLogs")
	f.mu.Lock()
	f.lastLogFilter = flt
	f.mu.Unlock()
	return &model.ActivityLogPage{Pagination: model.PagePagination{Page: max(flt.Page, 1)}}, nil
}

func (f *fakeBackend) ExportActivityLogs(ctx context.Context, flt model.ActivityLogFilter) (*ediclient.Download, error) {
	f.hit("ExportActivityLogs")
	return &ediclient.Download{Filename: "activity_logs.csv", Body: io.NopCloser(nil)}, nil
}

func (f *fakeBackend) SFTPConfig(ctx context.Context, partnerID string) (*model.SFTPConfigState, error) {
	f.hit("SFTPConfig")
	f.mu.Lock()
	defer f.mu.Unlock()
	st := *f.sftp
	return &st, nil
}

func (f *fakeBackend) SaveSFTPConfig(ctx context.Context, partnerID string, cfg model.SFTPConfig, create bool) (*model.SFTPConfig, error) {
	f.hit("SaveSFTPConfig")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sftpCreate = append(f.sftpCreate, create)
	f.sftp = &model.SFTPConfigState{HasConfig: true, Config: &cfg}
	return &cfg, nil
}

func (f *fakeBackend) DeleteSFTPConfig(ctx context.Context, partnerID string) error {
	f.hit("DeleteSFTPConfig")
	f.mu.Lock()
	f.sftp = &model.SFTPConfigState{}
	f.mu.Unlock()
	return nil
}

func (f *fakeBackend) TestSFTPConnection(ctx context.Context, partnerID string) (*model.ConnectionTestResult, error) {
	f.hit("TestSFTPConnection")
	return &model.ConnectionTestResult{Success: true}, nil
}

// PortalAPI

func (f *fakeBackend) PortalDashboard(ctx context.Context, days int) (*model.PortalDashboard, error) {
	f.hit("PortalDashboard")
	return &model.PortalDashboard{PeriodDays: days}, nil
}

func (f *fakeBackend) PortalTransactions(ctx context.Context, flt model.PortalTransactionFilter) (*model.PortalTransactionList, error) {
	f.hit("PortalTransactions")
	return &model.PortalTransactionList{}, nil
}

func (f *fakeBackend) PortalTransaction(ctx context.Context, id string) (*model.PortalTransactionDetail, error) {
	f.hit("PortalTransaction")
	return &model.PortalTransactionDetail{ID: id}, nil
}

func (f *fakeBackend) UploadFile(ctx context.Context, up ediclient.Upload) (*model.UploadResult, error) {
	f.hit("UploadFile")
	f.mu.Lock()
	f.uploads = append(f.uploads, up)
	f.mu.Unlock()
	return &model.UploadResult{ID: "up-1", Filename: up.Filename, DocumentType: up.DocumentType}, nil
}

func (f *fakeBackend) ListDownloads(ctx context.Context) ([]model.DownloadableFile, error) {
	f.hit("ListDownloads")
	return nil, nil
}

func (f *fakeBackend) DownloadFile(ctx context.Context, id string) (*ediclient.Download, error) {
	f.hit("DownloadFile")
	return &ediclient.Download{Filename: id + ".edi"}, nil
}

func (f *fakeBackend) BulkDownload(ctx context.Context, ids []string) (*ediclient.Download, error) {
	f.hit("BulkDownload")
	return &ediclient.Download{Filename: "edi_files.zip"}, nil
}

func (f *fakeBackend) PortalSettings(ctx context.Context) (*model.PortalSettings, error) {
	f.hit("PortalSettings")
	return &model.PortalSettings{}, nil
}

func (f *fakeBackend) UpdateContact(ctx context.Context, in model.ContactUpdate) error {
	f.hit("UpdateContact")
	return nil
}

func (f *fakeBackend) TestConnection(ctx context.Context) (map[string]model.ChannelTest, error) {
	f.hit("TestConnection")
	return map[string]model.ChannelTest{"sftp": {Status: "success"}}, nil
}

func (f *fakeBackend) Logout(ctx context.Context) error {
	f.hit("Logout")
	return nil
}

var (
	_ MailboxAPI = (*fakeBackend)(nil)
	_ AdminAPI   = (*fakeBackend)(nil)
	_ PortalAPI  = (*fakeBackend)(nil)
	_ MailboxAPI = (*ediclient.Client)(nil)
	_ AdminAPI   = (*ediclient.Client)(nil)
	_ PortalAPI  = (*ediclient.Client)(nil)
)
