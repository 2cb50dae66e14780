package pages

import (
	"context"
	"net/url"

	"github.com/a-h/templ"

	"github.com/bigkaa/edi-console/internal/domain/model"
	"github.com/bigkaa/edi-console/internal/service"
	"github.com/bigkaa/edi-console/internal/ui/i18n"
	"github.com/bigkaa/edi-console/internal/ui/markup"
	"github.com/bigkaa/edi-console/internal/ui/pages/partials"
	"github.com/bigkaa/edi-console/internal/view"
)

// DashboardData — административная панель.
type DashboardData struct {
	View        *service.DashboardView
	Days        int
	AutoRefresh bool
	Err         error
}

// Dashboard — показатели за период с переключателем автообновления.
func Dashboard(d DashboardData) templ.Component {
	body := markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<div class="toolbar">`)
		m.Render(ctx, partials.PeriodSelect(partials.AdminPrefix+"/", d.Days))
		m.Render(ctx, partials.AutoRefresh(d.AutoRefresh, d.Days))
		m.Raw(`</div>`)
		if d.Err != nil {
			m.Render(ctx, partials.ErrorAlert(d.Err))
		}
		m.Render(ctx, partials.DashboardContent(d.View))
	})
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Render(ctx, AdminLayout(i18n.T(ctx, "nav.dashboard"), SectionDashboard, body))
	})
}

// PartnersData — административный список партнёров.
type PartnersData struct {
	List     *model.AdminPartnerList
	Filter   model.PartnerFilter
	Criteria string
	Pager    view.Pager
	Err      error
}

// Partners — поиск и таблица партнёров.
func Partners(d PartnersData) templ.Component {
	body := markup.Component(func(ctx context.Context, m *markup.Writer) {
		base := partials.AdminPrefix + "/partners"
		m.Raw(`<form class="filters" method="get"`)
		m.Attr("action", base)
		m.Raw(`>`)
		m.Render(ctx, partials.CriteriaInput(d.Criteria))
		m.Raw(`<input type="search" name="search"`)
		m.Attr("value", d.Filter.Search)
		m.Attr("placeholder", i18n.T(ctx, "common.search"))
		m.Raw(`>`)
		statuses := []partials.Option{{Value: "", Label: i18n.T(ctx, "filter.all_statuses")}}
		for _, s := range model.PartnerStatuses {
			statuses = append(statuses, partials.Option{Value: string(s), Label: i18n.T(ctx, "partner_status."+string(s))})
		}
		partials.SelectField(ctx, m, "status", "partner.status", string(d.Filter.Status), statuses, nil)
		m.Raw(`<button type="submit" class="btn btn-ghost">`)
		m.Text(i18n.T(ctx, "common.apply"))
		m.Raw(`</button></form>`)

		if d.Err != nil {
			m.Render(ctx, partials.ErrorAlert(d.Err))
			return
		}
		if d.List == nil || len(d.List.Partners) == 0 {
			m.Raw(`<p class="muted">`)
			m.Text(i18n.T(ctx, "partner.empty"))
			m.Raw(`</p>`)
			return
		}
		m.Raw(`<table class="table"><thead><tr>`)
		for _, k := range []string{"partner.name", "partner.partner_id", "partner.status", "partner.communication", "partner.contact", "tx.created_at"} {
			m.Raw(`<th>`)
			m.Text(i18n.T(ctx, k))
			m.Raw(`</th>`)
		}
		m.Raw(`</tr></thead><tbody>`)
		for _, p := range d.List.Partners {
			name := p.DisplayName
			if name == "" {
				name = p.Name
			}
			m.Raw(`<tr><td><a`)
			m.Href(partials.PartnerURL(p.ID) + "?name=" + url.QueryEscape(name))
			m.Raw(`>`)
			m.Text(name)
			m.Raw(`</a></td><td><code>`)
			m.Text(p.PartnerID)
			m.Raw(`</code></td><td><span`)
			m.Attr("class", "badge badge-"+string(p.Status))
			m.Raw(`>`)
			m.Text(i18n.T(ctx, "partner_status."+string(p.Status)))
			m.Raw(`</span></td><td>`)
			m.Text(string(p.CommunicationMethod))
			m.Raw(`</td><td>`)
			m.Text(p.ContactName)
			if p.ContactEmail != "" {
				m.Raw(`<br><span class="muted">`)
				m.Text(p.ContactEmail)
				m.Raw(`</span>`)
			}
			m.Raw(`</td><td>`)
			m.Text(partials.FormatTime(p.CreatedAt))
			m.Raw(`</td></tr>`)
		}
		m.Raw(`</tbody></table>`)
		m.Render(ctx, partials.Pager(d.Pager, base))
	})
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Render(ctx, AdminLayout(i18n.T(ctx, "nav.partners"), SectionPartners, body))
	})
}

// PartnerData — страница партнёра.
type PartnerData struct {
	PartnerID string
	Name      string
	Days      int
	Detail    *service.PartnerDetailView
	Err       error
}

// Partner — аналитика, пользователи и SFTP партнёра.
func Partner(d PartnerData) templ.Component {
	body := markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<div class="toolbar">`)
		m.Render(ctx, partials.PeriodSelect(partials.PartnerURL(d.PartnerID), d.Days))
		m.Raw(`</div>`)
		if d.Err != nil {
			m.Render(ctx, partials.ErrorAlert(d.Err))
			return
		}
		if d.Detail == nil {
			return
		}
		m.Render(ctx, partials.PartnerAnalyticsPanel(d.Detail.Analytics))
		m.Render(ctx, partials.UsersTable(d.PartnerID, d.Detail.Users))

		form := partials.SFTPFormData{PartnerID: d.PartnerID}
		if s := d.Detail.SFTP; s != nil && s.HasConfig && s.Config != nil {
			form.HasConfig = true
			form.Config = *s.Config
		}
		m.Render(ctx, partials.SFTPForm(form))
	})
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		title := d.Name
		if title == "" {
			title = i18n.T(ctx, "partner.title")
		}
		m.Render(ctx, AdminLayout(title, SectionPartners, body))
	})
}

// ActivityData — журнал активности.
type ActivityData struct {
	Filter   model.ActivityLogFilter
	Criteria string
	Table    partials.ActivityTableData
	Err      error
}

// Activity — фильтры, таблица и экспорт журнала.
func Activity(d ActivityData) templ.Component {
	body := markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Render(ctx, partials.ActivityFilters(d.Filter, d.Criteria))
		if d.Err != nil {
			m.Render(ctx, ActivityError(d.Err))
			return
		}
		m.Render(ctx, partials.ActivityTable(d.Table))
	})
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Render(ctx, AdminLayout(i18n.T(ctx, "nav.activity"), SectionActivity, body))
	})
}

// ActivityError — таблица журнала, заменённая сообщением об ошибке.
// Сохраняет id, чтобы фильтры могли повторить запрос.
func ActivityError(err error) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<section id="activity-table">`)
		m.Render(ctx, partials.ErrorAlert(err))
		m.Raw(`</section>`)
	})
}

// AnalyticsData — аналитика за период.
type AnalyticsData struct {
	View *service.AnalyticsView
	Days int
	Err  error
}

// Analytics — таблицы аналитики.
func Analytics(d AnalyticsData) templ.Component {
	body := markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<div class="toolbar">`)
		m.Render(ctx, partials.PeriodSelect(partials.AdminPrefix+"/analytics", d.Days))
		m.Raw(`</div>`)
		if d.Err != nil {
			m.Render(ctx, partials.ErrorAlert(d.Err))
			return
		}
		if d.View != nil {
			m.Render(ctx, partials.AnalyticsTables(d.View.Transactions, d.View.Partners, d.View.Documents))
		}
	})
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Render(ctx, AdminLayout(i18n.T(ctx, "nav.analytics"), SectionAnalytics, body))
	})
}
