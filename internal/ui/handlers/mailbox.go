// mailbox.go — почтовый ящик: папки, сетка транзакций, карточка,
// форма, перемещение и действия над транзакцией.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/bigkaa/edi-console/internal/domain/model"
	"github.com/bigkaa/edi-console/internal/query"
	"github.com/bigkaa/edi-console/internal/service"
	"github.com/bigkaa/edi-console/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/edi-console/internal/ui/middleware"
	"github.com/bigkaa/edi-console/internal/ui/pages"
	"github.com/bigkaa/edi-console/internal/ui/pages/partials"
	"github.com/bigkaa/edi-console/internal/view"
)

// gridTarget — id сетки папки: HTMX-запросы к ней получают только фрагмент.
const gridTarget = "tx-grid"

// MailboxHandler — обработчик почтового ящика администратора.
type MailboxHandler struct {
	base
	svc *service.MailboxService
}

// NewMailboxHandler создаёт обработчик почтового ящика.
func NewMailboxHandler(svc *service.MailboxService, loginURL string, logger *slog.Logger) *MailboxHandler {
	return &MailboxHandler{
		base: newBase(loginURL, logger, "ui.mailbox"),
		svc:  svc,
	}
}

// HandleMailbox обрабатывает GET /admin/mailbox — плитки папок со счётчиками.
func (h *MailboxHandler) HandleMailbox(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Folders(r.Context(), api)
	h.page(w, r, err, pages.Mailbox(pages.MailboxData{Folders: res.Data, Err: err}))
}

// HandleFolder обрабатывает GET /admin/mailbox/{folder}.
// Запрос HTMX к сетке получает только сетку.
func (h *MailboxHandler) HandleFolder(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	folder, err := model.ParseFolder(chi.URLParam(r, "folder"))
	if err != nil {
		h.page(w, r, service.ErrNotFound, pages.AdminLayout(i18n.T(r.Context(), "folder.unknown"), pages.SectionMailbox, pages.ErrorBody(service.ErrNotFound)))
		return
	}

	ctx := r.Context()
	q := r.URL.Query()
	criteria := view.Criteria(q)
	f := transactionFilter(q, folder)
	f.Page = view.ResolvePage(q.Get(view.CriteriaParam), q)

	list, listErr := h.svc.Transactions(ctx, api, f)
	grid := partials.TransactionGridData{
		Folder:   folder,
		List:     list.Data,
		Stale:    list.Stale,
		PageBase: partials.FolderURL(folder),
		Err:      listErr,
	}
	if list.Data != nil {
		grid.Pager = view.NewPager(f.Page, list.Data.Pagination.TotalPages, criteria)
	} else {
		grid.Pager = view.NewPager(f.Page, 1, criteria)
	}

	if hxTargets(r, gridTarget) {
		if h.expired(w, r, listErr) {
			return
		}
		if listErr != nil {
			h.logFailure(r, listErr)
		}
		h.render(w, r, http.StatusOK, partials.TransactionGrid(grid))
		return
	}

	data := pages.FolderData{
		Folder:   folder,
		Filter:   f,
		Criteria: criteria,
		Grid:     grid,
	}
	h.loadReferences(ctx, api, &data)
	h.page(w, r, listErr, pages.Folder(data))
}

// loadReferences загружает счётчики папок и справочники фильтров.
// Их ошибки не мешают показать сетку.
func (h *MailboxHandler) loadReferences(ctx context.Context, api service.MailboxAPI, d *pages.FolderData) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := h.svc.Folders(gctx, api)
		h.warn("папки", err)
		d.Folders = res.Data
		return nil
	})
	g.Go(func() error {
		res, err := h.svc.Partners(gctx, api)
		h.warn("партнёры", err)
		d.Partners = res.Data
		return nil
	})
	g.Go(func() error {
		res, err := h.svc.DocumentTypes(gctx, api)
		h.warn("типы документов", err)
		d.DocumentTypes = res.Data
		return nil
	})
	_ = g.Wait()
}

func (h *MailboxHandler) warn(what string, err error) {
	if err != nil {
		h.logger.Warn("Справочник недоступен",
			slog.String("reference", what),
			slog.String("error", err.Error()),
		)
	}
}

// HandleFolderStats обрабатывает GET /admin/mailbox/{folder}/stats.
func (h *MailboxHandler) HandleFolderStats(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	folder, err := model.ParseFolder(chi.URLParam(r, "folder"))
	if err != nil {
		h.fail(w, r, service.ErrNotFound)
		return
	}
	res, err := h.svc.FolderStats(r.Context(), api, folder)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, partials.FolderStats(res.Data))
}

// HandleTransaction обрабатывает GET /admin/transactions/{id}?tab=.
func (h *MailboxHandler) HandleTransaction(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	tx, v, err := h.detail(ctx, api, chi.URLParam(r, "id"))
	if err != nil {
		h.page(w, r, err, pages.AdminLayout(i18n.T(ctx, "nav.mailbox"), pages.SectionMailbox, pages.ErrorBody(err)))
		return
	}

	tabs := view.DetailTabs(tx, v)
	active := view.ActiveTab(tabs, r.URL.Query().Get("tab"))
	h.page(w, r, nil, pages.Transaction(pages.TransactionData{
		Transaction: tx,
		Validation:  v,
		Tabs:        tabs,
		Active:      active,
		Pane:        h.pane(ctx, api, tx, v, active),
	}))
}

// HandleTab обрабатывает GET /admin/transactions/{id}/tab/{tab} — содержимое вкладки.
func (h *MailboxHandler) HandleTab(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	tx, v, err := h.detail(ctx, api, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	active := view.ActiveTab(view.DetailTabs(tx, v), chi.URLParam(r, "tab"))
	h.render(w, r, http.StatusOK, h.pane(ctx, api, tx, v, active))
}

// HandleActions обрабатывает GET /admin/transactions/{id}/actions — кнопки карточки
// с учётом результата проверки.
func (h *MailboxHandler) HandleActions(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	tx, v, err := h.detail(r.Context(), api, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, partials.CardActions(tx, v))
}

// detail загружает транзакцию и результат её проверки.
// Недоступная проверка возвращается как nil: действия не блокируются.
func (h *MailboxHandler) detail(ctx context.Context, api service.MailboxAPI, id string) (*model.Transaction, *model.ValidationResult, error) {
	d, err := h.svc.Detail(ctx, api, id)
	if err != nil {
		return nil, nil, err
	}
	if d.Transaction.State != query.Loaded || d.Transaction.Data == nil {
		return nil, nil, service.ErrNotFound
	}
	var v *model.ValidationResult
	if d.Validation.State == query.Loaded {
		v = d.Validation.Data
	}
	return d.Transaction.Data, v, nil
}

// pane строит содержимое вкладки. Сырые данные и история
// запрашиваются только при открытии своей вкладки.
func (h *MailboxHandler) pane(ctx context.Context, api service.MailboxAPI, tx *model.Transaction, v *model.ValidationResult, tab view.Tab) templ.Component {
	switch tab {
	case view.TabErrors:
		if v == nil {
			return partials.ValidationUnavailable()
		}
		return partials.ErrorsPane(v)
	case view.TabRaw:
		res, err := h.svc.Raw(ctx, api, tx.ID)
		if err != nil {
			return partials.ErrorAlert(err)
		}
		return partials.RawPane(res.Data)
	case view.TabHistory:
		res, err := h.svc.History(ctx, api, tx.ID)
		if err != nil {
			return partials.ErrorAlert(err)
		}
		return partials.HistoryPane(res.Data)
	case view.TabAcknowledgment:
		return partials.AcknowledgmentPane(tx, v)
	}
	return partials.OverviewPane(tx)
}

// HandleNew обрабатывает GET /admin/transactions/new?folder= — форма создания.
func (h *MailboxHandler) HandleNew(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	in := model.TransactionInput{Folder: model.FolderInbox.String()}
	if f, err := model.ParseFolder(r.URL.Query().Get("folder")); err == nil && view.CanCreate(f) {
		in.Folder = f.String()
	}
	d := h.formData(r.Context(), api, "", in, nil)
	h.page(w, r, nil, pages.TransactionForm(d))
}

// HandleEdit обрабатывает GET /admin/transactions/{id}/edit.
func (h *MailboxHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	res, err := h.svc.Transaction(ctx, api, id)
	if err != nil || res.Data == nil {
		if err == nil {
			err = service.ErrNotFound
		}
		h.page(w, r, err, pages.AdminLayout(i18n.T(ctx, "tx.edit_title"), pages.SectionMailbox, pages.ErrorBody(err)))
		return
	}
	tx := res.Data
	in := model.TransactionInput{
		PartnerName:  tx.PartnerName,
		PartnerID:    tx.PartnerID,
		DocumentType: tx.DocumentType,
		PONumber:     tx.PONumber,
		Filename:     tx.Filename,
		Status:       tx.Status,
	}
	h.page(w, r, nil, pages.TransactionForm(h.formData(ctx, api, id, in, nil)))
}

// HandleCreate обрабатывает POST /admin/transactions.
func (h *MailboxHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	in := transactionInput(r)
	res, err := h.svc.Create(ctx, api, in)
	if err != nil {
		h.formError(w, r, h.formData(ctx, api, "", in, err))
		return
	}
	h.redirect(w, r, partials.TransactionURL(res.Transaction.ID))
}

// HandleUpdate обрабатывает POST /admin/transactions/{id}.
func (h *MailboxHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	in := transactionInput(r)
	in.Folder = ""
	if _, err := h.svc.Update(ctx, api, id, in); err != nil {
		h.formError(w, r, h.formData(ctx, api, id, in, err))
		return
	}
	h.redirect(w, r, partials.TransactionURL(id))
}

func (h *MailboxHandler) formData(ctx context.Context, api service.MailboxAPI, id string, in model.TransactionInput, err error) partials.TransactionFormData {
	d := partials.TransactionFormData{ID: id, Input: in, Err: err}
	var refs pages.FolderData
	h.loadReferences(ctx, api, &refs)
	d.Partners = refs.Partners
	d.DocumentTypes = refs.DocumentTypes
	return d
}

// formError показывает форму с ошибками: HTMX получает только форму.
func (h *MailboxHandler) formError(w http.ResponseWriter, r *http.Request, d partials.TransactionFormData) {
	if h.expired(w, r, d.Err) {
		return
	}
	status := h.logFailure(r, d.Err)
	if uimiddleware.IsHTMX(r) {
		h.render(w, r, status, partials.TransactionForm(d))
		return
	}
	h.render(w, r, status, pages.TransactionForm(d))
}

// redirect выполняет переход после успешной отправки формы.
func (h *MailboxHandler) redirect(w http.ResponseWriter, r *http.Request, target string) {
	if uimiddleware.IsHTMX(r) {
		w.Header().Set(hxRedirect, target)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// HandleMoveDialog обрабатывает GET /admin/transactions/{id}/move — выбор папки.
func (h *MailboxHandler) HandleMoveDialog(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Transaction(r.Context(), api, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if res.Data == nil {
		h.fail(w, r, service.ErrNotFound)
		return
	}
	h.render(w, r, http.StatusOK, partials.MoveDialog(res.Data))
}

// HandleMove обрабатывает POST /admin/transactions/{id}/move (поле target_folder).
func (h *MailboxHandler) HandleMove(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	target, err := model.ParseFolder(r.PostFormValue("target_folder"))
	if err != nil {
		target = model.FolderCount
	}
	if _, err := h.svc.Move(r.Context(), api, chi.URLParam(r, "id"), target); err != nil {
		h.failMutation(w, r, err)
		return
	}
	h.mailboxChanged(w, r, "flash.moved", partials.FolderLabel(r.Context(), target))
}

// HandleProcess обрабатывает POST /admin/transactions/{id}/process.
func (h *MailboxHandler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "flash.processed", h.svc.Process)
}

// HandleSend обрабатывает POST /admin/transactions/{id}/send.
func (h *MailboxHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "flash.sent", h.svc.Send)
}

// HandleDelete обрабатывает POST /admin/transactions/{id}/delete — перенос в deleted.
func (h *MailboxHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "flash.deleted", h.svc.Delete)
}

func (h *MailboxHandler) action(
	w http.ResponseWriter,
	r *http.Request,
	flashKey string,
	fn func(ctx context.Context, api service.MailboxAPI, id string) (*model.MutationResult, error),
) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	if _, err := fn(r.Context(), api, chi.URLParam(r, "id")); err != nil {
		h.failMutation(w, r, err)
		return
	}
	h.mailboxChanged(w, r, flashKey)
}

// HandlePermanentDelete обрабатывает POST /admin/transactions/{id}/permanent-delete.
// После удаления карточки больше нет, поэтому выполняется переход в deleted.
func (h *MailboxHandler) HandlePermanentDelete(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	if _, err := h.svc.PermanentDelete(r.Context(), api, chi.URLParam(r, "id")); err != nil {
		h.failMutation(w, r, err)
		return
	}
	h.redirect(w, r, partials.FolderURL(model.FolderDeleted))
}

// failMutation показывает ошибку действия вместе с ошибками полей документа.
func (h *MailboxHandler) failMutation(w http.ResponseWriter, r *http.Request, err error) {
	if h.expired(w, r, err) {
		return
	}
	status := h.logFailure(r, err)
	h.render(w, r, status, templ.Join(
		partials.ErrorAlert(err),
		partials.FieldErrorList(partials.FieldErrorsOf(err)),
	))
}

// transactionFilter читает фильтр сетки из query-параметров.
func transactionFilter(q url.Values, folder model.Folder) model.TransactionFilter {
	return model.TransactionFilter{
		Folder:       &folder,
		Partner:      q.Get("partner"),
		DocumentType: q.Get("document_type"),
		Status:       model.Status(q.Get("status")),
		Search:       strings.TrimSpace(q.Get("search")),
		DateFrom:     q.Get("date_from"),
		DateTo:       q.Get("date_to"),
	}
}

// transactionInput читает поля формы транзакции.
func transactionInput(r *http.Request) model.TransactionInput {
	return model.TransactionInput{
		Folder:       r.PostFormValue("folder"),
		PartnerName:  strings.TrimSpace(r.PostFormValue("partner_name")),
		DocumentType: r.PostFormValue("document_type"),
		PONumber:     strings.TrimSpace(r.PostFormValue("po_number")),
		Filename:     strings.TrimSpace(r.PostFormValue("filename")),
		Status:       model.Status(r.PostFormValue("status")),
	}
}

// hxTargets сообщает, что HTMX-запрос адресован элементу с указанным id.
func hxTargets(r *http.Request, id string) bool {
	return uimiddleware.IsHTMX(r) && r.Header.Get("HX-Target") == id
}
