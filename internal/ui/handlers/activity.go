// activity.go — журнал активности, его экспорт в CSV и аналитика.
package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/bigkaa/edi-console/internal/domain/model"
	"github.com/bigkaa/edi-console/internal/service"
	"github.com/bigkaa/edi-console/internal/ui/pages"
	"github.com/bigkaa/edi-console/internal/ui/pages/partials"
	"github.com/bigkaa/edi-console/internal/view"
)

const activityTarget = "activity-table"

// ActivityHandler — обработчик журнала активности и аналитики.
type ActivityHandler struct {
	base
	svc *service.AdminService
}

// NewActivityHandler создаёт обработчик журнала активности и аналитики.
func NewActivityHandler(svc *service.AdminService, loginURL string, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{
		base: newBase(loginURL, logger, "ui.activity"),
		svc:  svc,
	}
}

// HandleActivity обрабатывает GET /admin/activity. Запрос HTMX
// от формы фильтров получает только таблицу.
func (h *ActivityHandler) HandleActivity(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	criteria := view.Criteria(q)
	f := activityFilter(q)
	f.Page = view.ResolvePage(q.Get(view.CriteriaParam), q)

	res, err := h.svc.ActivityLogs(r.Context(), api, f)
	total := 1
	if res.Data != nil {
		total = res.Data.Pagination.Pages
	}
	table := partials.ActivityTableData{
		Page:  res.Data,
		Pager: view.NewPager(f.Page, total, criteria),
	}

	if hxTargets(r, activityTarget) {
		if err != nil {
			if h.expired(w, r, err) {
				return
			}
			h.logFailure(r, err)
			h.render(w, r, http.StatusOK, pages.ActivityError(err))
			return
		}
		h.render(w, r, http.StatusOK, partials.ActivityTable(table))
		return
	}
	h.page(w, r, err, pages.Activity(pages.ActivityData{
		Filter:   f,
		Criteria: criteria,
		Table:    table,
		Err:      err,
	}))
}

// HandleExport обрабатывает GET /admin/activity/export — CSV
// с текущими фильтрами, без пагинации.
func (h *ActivityHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	f := activityFilter(r.URL.Query())
	d, err := h.svc.ExportActivityLogs(r.Context(), api, f)
	if err != nil {
		if h.expired(w, r, err) {
			return
		}
		status := h.logFailure(r, err)
		h.render(w, r, status, pages.AdminLayout("", pages.SectionActivity, pages.ErrorBody(err)))
		return
	}
	h.download(w, r, d, "activity_logs.csv")
}

// HandleAnalytics обрабатывает GET /admin/analytics?days=N.
func (h *ActivityHandler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	days := parseDays(r)
	v, err := h.svc.Analytics(r.Context(), api, days)
	h.page(w, r, err, pages.Analytics(pages.AnalyticsData{View: v, Days: days, Err: err}))
}

func activityFilter(q url.Values) model.ActivityLogFilter {
	return model.ActivityLogFilter{
		Search:   strings.TrimSpace(q.Get("search")),
		UserType: model.UserType(q.Get("user_type")),
		Action:   q.Get("action"),
		DateFrom: q.Get("date_from"),
		DateTo:   q.Get("date_to"),
	}
}
