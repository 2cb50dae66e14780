package partials

import (
	"context"
	"strconv"

	"github.com/a-h/templ"

	"github.com/bigkaa/edi-console/internal/domain/model"
	"github.com/bigkaa/edi-console/internal/service"
	"github.com/bigkaa/edi-console/internal/ui/i18n"
	"github.com/bigkaa/edi-console/internal/ui/markup"
)

// DashboardEvent — имя SSE-события с обновлённой панелью.
const DashboardEvent = "dashboard"

// DashboardContent — показатели, состояние системы, ошибки и топ партнёров.
func DashboardContent(v *service.DashboardView) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<div id="dashboard-content">`)
		if v == nil {
			m.Raw(`</div>`)
			return
		}
		if v.Stale {
			m.Render(ctx, Alert(AlertInfo, i18n.T(ctx, "common.refreshing")))
		}
		if v.Metrics != nil {
			m.Render(ctx, MetricCards(v.Metrics.Metrics))
		}
		if c := v.Charts; c != nil {
			m.Raw(`<div class="grid-2">`)
			m.Render(ctx, SystemStatus(c.SystemStatus))
			m.Render(ctx, TopPartners(c.TopPartners))
			m.Raw(`</div>`)
			m.Render(ctx, VolumeTable(c.TransactionVolume))
			m.Render(ctx, RecentErrors(c.RecentErrors))
		}
		m.Raw(`</div>`)
	})
}

// MetricCards — сводные показатели.
func MetricCards(mt model.DashboardMetrics) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<div class="metric-cards">`)
		metric(ctx, m, "dashboard.total_partners", strconv.Itoa(mt.TotalPartners))
		metric(ctx, m, "dashboard.total_transactions", strconv.Itoa(mt.TotalTransactions))
		metric(ctx, m, "dashboard.success_rate", FormatPercent(mt.SuccessRate))
		metric(ctx, m, "dashboard.error_rate", FormatPercent(mt.ErrorRate))
		metric(ctx, m, "dashboard.total_sent", strconv.Itoa(mt.TotalSent))
		metric(ctx, m, "dashboard.acknowledged", strconv.Itoa(mt.Acknowledged))
		metric(ctx, m, "dashboard.failed", strconv.Itoa(mt.Failed))
		metric(ctx, m, "dashboard.pending", strconv.Itoa(mt.Pending))
		m.Raw(`</div>`)
	})
}

func metric(ctx context.Context, m *markup.Writer, labelKey, value string) {
	m.Raw(`<div class="metric-card"><span class="stat-value">`)
	m.Text(value)
	m.Raw(`</span><span class="stat-label">`)
	m.Text(i18n.T(ctx, labelKey))
	m.Raw(`</span></div>`)
}

// SystemStatus — состояние подсистем backend.
func SystemStatus(s model.SystemStatus) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<section class="panel"><h3>`)
		m.Text(i18n.T(ctx, "dashboard.system_status"))
		m.Raw(`</h3><ul class="status-list">`)
		statusItem(ctx, m, "dashboard.database", s.Database == "healthy")
		statusItem(ctx, m, "dashboard.api_services", s.APIServices == "healthy")
		statusItem(ctx, m, "dashboard.sftp_polling", s.SFTPPolling == "healthy")
		statusItem(ctx, m, "dashboard.recent_activity", s.RecentActivity)
		m.Raw(`</ul>`)
		if s.StuckTransactions > 0 {
			m.Render(ctx, Alert(AlertWarning, i18n.Tf(ctx, "dashboard.stuck", s.StuckTransactions)))
		}
		m.Raw(`</section>`)
	})
}

func statusItem(ctx context.Context, m *markup.Writer, labelKey string, ok bool) {
	state := "status-error"
	text := i18n.T(ctx, "status.error")
	if ok {
		state = "status-ok"
		text = i18n.T(ctx, "status.healthy")
	}
	m.Raw(`<li><span`)
	m.Attr("class", markup.Classes("dot", state))
	m.Raw(`></span>`)
	m.Text(i18n.T(ctx, labelKey))
	m.Raw(`<span class="muted">`)
	m.Text(text)
	m.Raw(`</span></li>`)
}

// TopPartners — партнёры с наибольшим числом транзакций.
func TopPartners(partners []model.TopPartner) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<section class="panel"><h3>`)
		m.Text(i18n.T(ctx, "dashboard.top_partners"))
		m.Raw(`</h3>`)
		if len(partners) == 0 {
			m.Raw(`<p class="muted">`)
			m.Text(i18n.T(ctx, "common.no_data"))
			m.Raw(`</p></section>`)
			return
		}
		m.Raw(`<table class="table table-compact"><tbody>`)
		for _, p := range partners {
			m.Raw(`<tr><td><a`)
			m.Href(markup.Path(AdminPrefix+"/partners", p.PartnerID))
			m.Raw(`>`)
			m.Text(p.PartnerName)
			m.Raw(`</a></td><td class="num">`)
			m.Text(strconv.Itoa(p.TransactionCount))
			m.Raw(`</td></tr>`)
		}
		m.Raw(`</tbody></table></section>`)
	})
}

// VolumeTable — количество транзакций по дням.
func VolumeTable(points []model.VolumePoint) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<section class="panel"><h3>`)
		m.Text(i18n.T(ctx, "dashboard.volume"))
		m.Raw(`</h3>`)
		m.Render(ctx, Placeholder("dashboard.volume"))
		if len(points) > 0 {
			m.Raw(`<table class="table table-compact"><tbody>`)
			for _, p := range points {
				m.Raw(`<tr><td>`)
				m.Text(p.Date)
				m.Raw(`</td><td class="num">`)
				m.Text(strconv.Itoa(p.Count))
				m.Raw(`</td></tr>`)
			}
			m.Raw(`</tbody></table>`)
		}
		m.Raw(`</section>`)
	})
}

// RecentErrors — последние ошибки обработки.
func RecentErrors(errs []model.RecentError) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<section class="panel"><h3>`)
		m.Text(i18n.T(ctx, "dashboard.recent_errors"))
		m.Raw(`</h3>`)
		if len(errs) == 0 {
			m.Raw(`<p class="muted">`)
			m.Text(i18n.T(ctx, "dashboard.no_errors"))
			m.Raw(`</p></section>`)
			return
		}
		m.Raw(`<table class="table"><thead><tr>`)
		for _, k := range []string{"history.timestamp", "tx.partner", "tx.document_type", "dashboard.error_type", "validation.message"} {
			m.Raw(`<th>`)
			m.Text(i18n.T(ctx, k))
			m.Raw(`</th>`)
		}
		m.Raw(`</tr></thead><tbody>`)
		for _, e := range errs {
			m.Raw(`<tr><td>`)
			m.Text(FormatTime(e.Timestamp))
			m.Raw(`</td><td><a`)
			m.Href(TransactionURL(e.ID))
			m.Raw(`>`)
			m.Text(e.PartnerName)
			m.Raw(`</a></td><td>`)
			m.Text(e.DocumentType)
			m.Raw(`</td><td>`)
			m.Text(e.ErrorType)
			m.Raw(`</td><td>`)
			m.Text(e.ErrorMessage)
			m.Raw(`</td></tr>`)
		}
		m.Raw(`</tbody></table></section>`)
	})
}

// AutoRefresh — переключатель автообновления панели.
// Включённое состояние подключает SSE-поток, отключение закрывает соединение.
func AutoRefresh(enabled bool, days int) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		next := "true"
		if enabled {
			next = "false"
		}
		m.Raw(`<div id="auto-refresh" class="auto-refresh">`)
		m.Raw(`<label class="form-check"><input type="checkbox" hx-target="#auto-refresh" hx-swap="outerHTML"`)
		m.Attr("hx-get", AdminPrefix+"/dashboard/auto-refresh?enabled="+next+"&days="+strconv.Itoa(days))
		m.Flag(enabled, "checked")
		m.Raw(`><span>`)
		m.Text(i18n.T(ctx, "dashboard.auto_refresh"))
		m.Raw(`</span></label>`)
		if enabled {
			m.Raw(`<div hx-ext="sse"`)
			m.Attr("sse-connect", AdminPrefix+"/events/dashboard?days="+strconv.Itoa(days))
			m.Attr("sse-swap", DashboardEvent)
			m.Raw(` hx-target="#dashboard-content" hx-swap="outerHTML"></div>`)
		}
		m.Raw(`</div>`)
	})
}

// PeriodSelect — выбор периода в днях.
func PeriodSelect(base string, days int) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<div class="period-select">`)
		for _, d := range []int{7, 30, 90} {
			m.Raw(`<a`)
			m.Attr("class", markup.Classes("btn", "btn-ghost", activeClass(d == days)))
			m.Href(base + "?days=" + strconv.Itoa(d))
			m.Raw(`>`)
			m.Text(i18n.Tf(ctx, "period.days", d))
			m.Raw(`</a>`)
		}
		m.Raw(`</div>`)
	})
}
