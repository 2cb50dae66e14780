// portal.go — портал партнёра: панель, транзакции, загрузка и скачивание
// файлов, настройки.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/edi-console/internal/domain/model"
	"github.com/bigkaa/edi-console/internal/ediclient"
	"github.com/bigkaa/edi-console/internal/service"
	"github.com/bigkaa/edi-console/internal/ui/i18n"
	"github.com/bigkaa/edi-console/internal/ui/pages"
	"github.com/bigkaa/edi-console/internal/ui/pages/partials"
	"github.com/bigkaa/edi-console/internal/view"
)

const (
	portalTransactionsTarget = "portal-transactions"

	// multipartOverhead — запас на заголовки и поля формы сверх размера файла.
	multipartOverhead = 1 << 20
)

// PortalHandler — обработчик портала партнёра.
type PortalHandler struct {
	base
	svc *service.PortalService
}

// NewPortalHandler создаёт обработчик портала партнёра.
func NewPortalHandler(svc *service.PortalService, loginURL string, logger *slog.Logger) *PortalHandler {
	return &PortalHandler{
		base: newBase(loginURL, logger, "ui.portal"),
		svc:  svc,
	}
}

// HandleDashboard обрабатывает GET /partner-portal/?days=N.
func (h *PortalHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	days := parseDays(r)
	res, err := h.svc.Dashboard(r.Context(), api, days)
	h.page(w, r, err, pages.PortalDashboard(pages.PortalDashboardData{
		Dashboard: res.Data,
		Days:      days,
		Err:       err,
	}))
}

// HandleTransactions обрабатывает GET /partner-portal/transactions.
func (h *PortalHandler) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	criteria := view.Criteria(q)
	f := model.PortalTransactionFilter{
		Search: strings.TrimSpace(q.Get("search")),
		Status: q.Get("status"),
		Type:   strings.TrimSpace(q.Get("type")),
		Page:   view.ResolvePage(q.Get(view.CriteriaParam), q),
	}

	res, err := h.svc.Transactions(r.Context(), api, f)
	total := 1
	if res.Data != nil {
		total = res.Data.Pagination.Pages
	}
	pager := view.NewPager(f.Page, total, criteria)

	if hxTargets(r, portalTransactionsTarget) {
		if err != nil {
			if h.expired(w, r, err) {
				return
			}
			h.logFailure(r, err)
			h.render(w, r, http.StatusOK, pages.PortalTransactionsError(err))
			return
		}
		h.render(w, r, http.StatusOK, partials.PortalTransactionsTable(res.Data, pager))
		return
	}
	h.page(w, r, err, pages.PortalTransactions(pages.PortalTransactionsData{
		List:     res.Data,
		Filter:   f,
		Criteria: criteria,
		Pager:    pager,
		Err:      err,
	}))
}

// HandleTransaction обрабатывает GET /partner-portal/transactions/{id}.
func (h *PortalHandler) HandleTransaction(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Transaction(r.Context(), api, chi.URLParam(r, "id"))
	if err == nil && res.Data == nil {
		err = service.ErrNotFound
	}
	if err != nil {
		h.page(w, r, err, pages.PortalLayout(i18n.T(r.Context(), "nav.portal_transactions"), pages.SectionPortalTransactions, pages.ErrorBody(err)))
		return
	}
	h.page(w, r, nil, pages.PortalTransaction(res.Data))
}

// HandleUploadPage обрабатывает GET /partner-portal/upload.
func (h *PortalHandler) HandleUploadPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pages.PortalUpload())
}

// HandleUpload обрабатывает POST /partner-portal/upload (multipart:
// file, document_type, po_number). Размер и расширение проверяются до backend.
func (h *PortalHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, model.MaxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(model.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.uploadFailed(w, r, fileError(fmt.Sprintf("Размер файла превышает %d МБ", model.MaxUploadSize>>20)))
			return
		}
		h.uploadFailed(w, r, fileError("Некорректная форма загрузки"))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.uploadFailed(w, r, fileError("Выберите файл"))
		return
	}
	defer file.Close()

	res, err := h.svc.Upload(r.Context(), api, ediclient.Upload{
		Filename:     header.Filename,
		Content:      file,
		DocumentType: strings.TrimSpace(r.FormValue("document_type")),
		PONumber:     strings.TrimSpace(r.FormValue("po_number")),
	}, header.Size)
	if err != nil {
		h.uploadFailed(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, partials.UploadForm(nil, res))
}

func fileError(message string) error {
	return &service.FormError{Fields: []model.FieldError{{Field: "file", Message: message}}}
}

func (h *PortalHandler) uploadFailed(w http.ResponseWriter, r *http.Request, err error) {
	if h.expired(w, r, err) {
		return
	}
	h.render(w, r, h.logFailure(r, err), partials.UploadForm(err, nil))
}

// HandleDownloads обрабатывает GET /partner-portal/downloads.
func (h *PortalHandler) HandleDownloads(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Downloads(r.Context(), api)
	h.page(w, r, err, pages.PortalDownloads(res.Data, err))
}

// HandleDownload обрабатывает GET /partner-portal/downloads/{id}.
func (h *PortalHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	d, err := h.svc.DownloadFile(r.Context(), api, id)
	if err != nil {
		h.downloadFailed(w, r, api, err)
		return
	}
	h.download(w, r, d, id+".edi")
}

// HandleBulkDownload обрабатывает POST /partner-portal/downloads/bulk
// (поле transaction_ids) — zip-архив выбранных файлов.
func (h *PortalHandler) HandleBulkDownload(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.downloadFailed(w, r, api, service.ErrValidation)
		return
	}
	d, err := h.svc.BulkDownload(r.Context(), api, r.PostForm["transaction_ids"])
	if err != nil {
		h.downloadFailed(w, r, api, err)
		return
	}
	h.download(w, r, d, "edi_files.zip")
}

// downloadFailed возвращает страницу файлов с сообщением об ошибке.
func (h *PortalHandler) downloadFailed(w http.ResponseWriter, r *http.Request, api service.PortalAPI, err error) {
	if h.expired(w, r, err) {
		return
	}
	status := h.logFailure(r, err)
	res, _ := h.svc.Downloads(r.Context(), api)
	h.render(w, r, status, pages.PortalDownloads(res.Data, err))
}

// HandleSettings обрабатывает GET /partner-portal/settings.
func (h *PortalHandler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Settings(r.Context(), api)
	h.page(w, r, err, pages.PortalSettings(res.Data, err))
}

// HandleContact обрабатывает POST /partner-portal/settings/contact.
func (h *PortalHandler) HandleContact(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	in := model.ContactUpdate{
		ContactName:  strings.TrimSpace(r.PostFormValue("contact_name")),
		ContactEmail: strings.TrimSpace(r.PostFormValue("contact_email")),
		ContactPhone: strings.TrimSpace(r.PostFormValue("contact_phone")),
	}
	profile := model.PortalPartnerProfile{
		ContactName:  in.ContactName,
		ContactEmail: in.ContactEmail,
		ContactPhone: in.ContactPhone,
	}
	if err := h.svc.UpdateContact(r.Context(), api, in); err != nil {
		if h.expired(w, r, err) {
			return
		}
		h.render(w, r, h.logFailure(r, err), partials.ContactForm(profile, err, false))
		return
	}
	h.render(w, r, http.StatusOK, partials.ContactForm(profile, nil, true))
}

// HandleTestConnection обрабатывает POST /partner-portal/settings/test.
func (h *PortalHandler) HandleTestConnection(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	res, err := h.svc.TestConnection(r.Context(), api)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, partials.ChannelTests(res))
}
