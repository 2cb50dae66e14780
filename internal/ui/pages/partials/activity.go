package partials

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/bigkaa/edi-console/internal/domain/model"
	"github.com/bigkaa/edi-console/internal/ui/i18n"
	"github.com/bigkaa/edi-console/internal/ui/markup"
	"github.com/bigkaa/edi-console/internal/view"
)

// ActivityURL — адрес журнала активности.
const ActivityURL = AdminPrefix + "/activity"

// ActivityTableData — страница журнала с навигацией.
type ActivityTableData struct {
	Page  *model.ActivityLogPage
	Pager view.Pager
}

// ActivityFilters — форма фильтров журнала. Изменение критериев
// возвращает пагинацию на первую страницу.
func ActivityFilters(f model.ActivityLogFilter, criteria string) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<form class="filters" hx-target="#activity-table" hx-swap="outerHTML" hx-push-url="true" hx-trigger="change, submit"`)
		m.Attr("hx-get", ActivityURL)
		m.Attr("action", ActivityURL)
		m.Raw(`>`)
		m.Render(ctx, CriteriaInput(criteria))
		m.Raw(`<input type="search" name="search"`)
		m.Attr("value", f.Search)
		m.Attr("placeholder", i18n.T(ctx, "common.search"))
		m.Raw(`>`)

		userTypes := []Option{
			{Value: "", Label: i18n.T(ctx, "activity.all_users")},
			{Value: string(model.UserTypeAdmin), Label: i18n.T(ctx, "activity.admin")},
			{Value: string(model.UserTypePartner), Label: i18n.T(ctx, "activity.partner")},
		}
		SelectField(ctx, m, "user_type", "activity.user_type", string(f.UserType), userTypes, nil)

		actions := []Option{{Value: "", Label: i18n.T(ctx, "activity.all_actions")}}
		for _, a := range model.ActivityActions {
			actions = append(actions, Option{Value: a, Label: a})
		}
		SelectField(ctx, m, "action", "activity.action", f.Action, actions, nil)
		InputField(ctx, m, "date", "date_from", "filter.date_from", f.DateFrom, nil)
		InputField(ctx, m, "date", "date_to", "filter.date_to", f.DateTo, nil)

		m.Raw(`<a class="btn btn-ghost"`)
		m.Href(ActivityURL + "/export?" + f.WithoutPage().Values().Encode())
		m.Raw(`>`)
		m.Text(i18n.T(ctx, "activity.export"))
		m.Raw(`</a></form>`)
	})
}

// ActivityTable — записи журнала.
func ActivityTable(d ActivityTableData) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<section id="activity-table">`)
		if d.Page == nil || len(d.Page.Logs) == 0 {
			m.Raw(`<p class="muted">`)
			m.Text(i18n.T(ctx, "activity.empty"))
			m.Raw(`</p></section>`)
			return
		}
		m.Raw(`<table class="table"><thead><tr>`)
		for _, k := range []string{"history.timestamp", "activity.user", "activity.user_type", "activity.action", "activity.resource", "activity.details", "activity.ip"} {
			m.Raw(`<th>`)
			m.Text(i18n.T(ctx, k))
			m.Raw(`</th>`)
		}
		m.Raw(`</tr></thead><tbody>`)
		for _, e := range d.Page.Logs {
			m.Raw(`<tr><td>`)
			m.Text(FormatTime(e.Timestamp))
			m.Raw(`</td><td>`)
			m.Text(e.UserName)
			m.Raw(`</td><td>`)
			m.Text(i18n.T(ctx, "activity."+string(e.UserType)))
			m.Raw(`</td><td><code>`)
			m.Text(e.Action)
			m.Raw(`</code></td><td>`)
			if e.ResourceType != "" {
				m.Text(e.ResourceType + " " + e.ResourceID)
			}
			m.Raw(`</td><td class="muted">`)
			m.Text(FormatDetails(e.Details))
			m.Raw(`</td><td>`)
			m.Text(e.IPAddress)
			m.Raw(`</td></tr>`)
		}
		m.Raw(`</tbody></table>`)
		m.Raw(`<p class="muted">`)
		m.Text(i18n.Tf(ctx, "activity.total", d.Page.Pagination.Total))
		m.Raw(`</p>`)
		m.Render(ctx, Pager(d.Pager, ActivityURL))
		m.Raw(`</section>`)
	})
}

// FormatDetails — пары ключ=значение в алфавитном порядке.
func FormatDetails(details map[string]any) string {
	if len(details) == 0 {
		return ""
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, details[k]))
	}
	return strings.Join(parts, ", ")
}

// AnalyticsTables — таблицы аналитики за период.
func AnalyticsTables(tx *model.TransactionAnalytics, partners *model.PartnerAnalyticsSummary, docs *model.DocumentAnalytics) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		if tx != nil {
			m.Raw(`<div class="metric-cards">`)
			metric(ctx, m, "analytics.avg_minutes", fmt.Sprintf("%.1f", tx.ProcessingTime.AverageMinutes))
			metric(ctx, m, "analytics.sample_size", strconv.Itoa(tx.ProcessingTime.SampleSize))
			m.Raw(`</div>`)
			m.Render(ctx, VolumeTable(tx.TransactionVolume))
		}
		if partners != nil {
			m.Render(ctx, successRates(partners.SuccessRates))
			m.Render(ctx, TopPartners(partners.TopPartners))
		}
		if docs != nil {
			m.Raw(`<section class="panel"><h3>`)
			m.Text(i18n.T(ctx, "analytics.documents"))
			m.Raw(`</h3>`)
			m.Render(ctx, DocumentCounts(docs.DocumentBreakdown))
			m.Raw(`</section>`)
			m.Render(ctx, heatmap(docs.ActivityHeatmap))
		}
	})
}

func successRates(rows []model.PartnerSuccessRate) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<section class="panel"><h3>`)
		m.Text(i18n.T(ctx, "analytics.success_rates"))
		m.Raw(`</h3>`)
		if len(rows) == 0 {
			m.Raw(`<p class="muted">`)
			m.Text(i18n.T(ctx, "common.no_data"))
			m.Raw(`</p></section>`)
			return
		}
		m.Raw(`<table class="table"><thead><tr>`)
		for _, k := range []string{"tx.partner", "partner.total", "dashboard.acknowledged", "dashboard.failed", "dashboard.success_rate"} {
			m.Raw(`<th>`)
			m.Text(i18n.T(ctx, k))
			m.Raw(`</th>`)
		}
		m.Raw(`</tr></thead><tbody>`)
		for _, r := range rows {
			m.Raw(`<tr><td>`)
			m.Text(r.PartnerName)
			m.Raw(`</td><td class="num">`)
			m.Text(strconv.Itoa(r.Total))
			m.Raw(`</td><td class="num">`)
			m.Text(strconv.Itoa(r.Acknowledged))
			m.Raw(`</td><td class="num">`)
			m.Text(strconv.Itoa(r.Failed))
			m.Raw(`</td><td class="num">`)
			m.Text(FormatPercent(r.SuccessRate))
			m.Raw(`</td></tr>`)
		}
		m.Raw(`</tbody></table></section>`)
	})
}

// heatmapDays — порядок строк тепловой карты активности.
var heatmapDays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func heatmap(cells []model.HeatmapCell) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		if len(cells) == 0 {
			return
		}
		grid := make(map[string][24]int, len(heatmapDays))
		for _, c := range cells {
			if c.Hour < 0 || c.Hour > 23 {
				continue
			}
			row := grid[c.Day]
			row[c.Hour] += c.Count
			grid[c.Day] = row
		}
		m.Raw(`<section class="panel"><h3>`)
		m.Text(i18n.T(ctx, "analytics.heatmap"))
		m.Raw(`</h3><table class="table table-heatmap"><thead><tr><th></th>`)
		for h := range 24 {
			m.Raw(`<th>`)
			m.Text(strconv.Itoa(h))
			m.Raw(`</th>`)
		}
		m.Raw(`</tr></thead><tbody>`)
		for _, day := range heatmapDays {
			row := grid[day]
			m.Raw(`<tr><th>`)
			m.Text(i18n.T(ctx, "day."+strings.ToLower(day)))
			m.Raw(`</th>`)
			for _, n := range row {
				m.Raw(`<td`)
				m.Attr("class", heatClass(n))
				m.Raw(`>`)
				if n > 0 {
					m.Text(strconv.Itoa(n))
				}
				m.Raw(`</td>`)
			}
			m.Raw(`</tr>`)
		}
		m.Raw(`</tbody></table></section>`)
	})
}

func heatClass(n int) string {
	switch {
	case n == 0:
		return "heat-0"
	case n < 5:
		return "heat-1"
	case n < 20:
		return "heat-2"
	default:
		return "heat-3"
	}
}
