// Пакет pages — полные страницы консоли и портала партнёра.
// Компоненты собираются вручную через markup поверх templ.Component.
package pages

import (
	"context"

	"github.com/a-h/templ"

	"github.com/bigkaa/edi-console/internal/ui/i18n"
	"github.com/bigkaa/edi-console/internal/ui/markup"
	"github.com/bigkaa/edi-console/internal/ui/pages/partials"
)

// Скрипты HTMX подключаются с CDN фиксированных версий.
const (
	htmxScript   = "https://unpkg.com/htmx.org@2.0.4/dist/htmx.min.js"
	htmxSSEExt   = "https://unpkg.com/htmx-ext-sse@2.2.2/sse.js"
	langSwitchTo = "/lang"
)

// Section — раздел навигации.
type Section string

const (
	SectionDashboard Section = "dashboard"
	SectionMailbox   Section = "mailbox"
	SectionPartners  Section = "partners"
	SectionActivity  Section = "activity"
	SectionAnalytics Section = "analytics"

	SectionPortalDashboard    Section = "portal_dashboard"
	SectionPortalTransactions Section = "portal_transactions"
	SectionPortalUpload       Section = "portal_upload"
	SectionPortalDownloads    Section = "portal_downloads"
	SectionPortalSettings     Section = "portal_settings"
)

type navItem struct {
	section Section
	href    string
	icon    string
}

var adminNav = []navItem{
	{SectionDashboard, partials.AdminPrefix + "/", "dashboard"},
	{SectionMailbox, partials.AdminPrefix + "/mailbox", "inbox"},
	{SectionPartners, partials.AdminPrefix + "/partners", "users"},
	{SectionActivity, partials.AdminPrefix + "/activity", "list"},
	{SectionAnalytics, partials.AdminPrefix + "/analytics", "chart"},
}

var portalNav = []navItem{
	{SectionPortalDashboard, partials.PortalPrefix + "/", "dashboard"},
	{SectionPortalTransactions, partials.PortalPrefix + "/transactions", "list"},
	{SectionPortalUpload, partials.PortalPrefix + "/upload", "upload"},
	{SectionPortalDownloads, partials.PortalPrefix + "/downloads", "download"},
	{SectionPortalSettings, partials.PortalPrefix + "/settings", "settings"},
}

// AdminLayout — оболочка административной консоли.
func AdminLayout(title string, active Section, body templ.Component) templ.Component {
	return layout(title, "nav.admin_title", adminNav, partials.AdminPrefix+"/logout", active, body)
}

// PortalLayout — оболочка портала партнёра.
func PortalLayout(title string, active Section, body templ.Component) templ.Component {
	return layout(title, "nav.portal_title", portalNav, partials.PortalPrefix+"/logout", active, body)
}

func layout(title, brandKey string, nav []navItem, logoutURL string, active Section, body templ.Component) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		lang := i18n.LangFromContext(ctx)
		m.Raw(`<!DOCTYPE html><html`)
		m.Attr("lang", lang)
		m.Raw(`><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		m.Text(title + " · " + i18n.T(ctx, brandKey))
		m.Raw(`</title><link rel="stylesheet" href="/static/css/app.css">`)
		m.Raw(`<script defer`)
		m.Attr("src", htmxScript)
		m.Raw(`></script><script defer`)
		m.Attr("src", htmxSSEExt)
		m.Raw(`></script><script defer src="/static/js/app.js"></script></head><body>`)

		m.Raw(`<aside class="sidebar"><div class="brand">`)
		m.Text(i18n.T(ctx, brandKey))
		m.Raw(`</div><nav>`)
		for _, item := range nav {
			m.Raw(`<a`)
			m.Attr("class", markup.Classes("nav-link", activeClass(item.section == active)))
			m.Href(item.href)
			m.Raw(`>`)
			m.Render(ctx, partials.Icon(item.icon))
			m.Text(i18n.T(ctx, "nav."+string(item.section)))
			m.Raw(`</a>`)
		}
		m.Raw(`</nav>`)
		m.Render(ctx, languageSwitch(lang))
		m.Render(ctx, signOut(logoutURL))
		m.Raw(`</aside><main class="content"><h1>`)
		m.Text(title)
		m.Raw(`</h1><div`)
		m.Attr("id", partials.FlashID)
		m.Raw(` aria-live="polite"></div>`)
		m.Render(ctx, body)
		m.Raw(`</main><div`)
		m.Attr("id", partials.DialogID)
		m.Raw(`></div></body></html>`)
	})
}

func languageSwitch(current string) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<form class="lang-switch" method="post"`)
		m.Attr("action", langSwitchTo)
		m.Raw(`><select name="lang" onchange="this.form.submit()">`)
		langs := []string{i18n.DefaultLang}
		if b := i18n.Default(); b != nil {
			langs = b.Languages()
		}
		for _, lang := range langs {
			m.Raw(`<option`)
			m.Attr("value", lang)
			m.Flag(lang == current, "selected")
			m.Raw(`>`)
			m.Text(i18n.T(ctx, "lang."+lang))
			m.Raw(`</option>`)
		}
		m.Raw(`</select></form>`)
	})
}

// signOut — кнопка выхода. CSRF-поле формы добавляет app.js.
func signOut(action string) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<form class="sign-out" method="post"`)
		m.Attr("action", action)
		m.Raw(`><button type="submit" class="btn btn-ghost">`)
		m.Text(i18n.T(ctx, "action.sign_out"))
		m.Raw(`</button></form>`)
	})
}

func activeClass(active bool) string {
	if active {
		return "active"
	}
	return ""
}

// ErrorBody — содержимое страницы, данные которой не загрузились.
func ErrorBody(err error) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Render(ctx, partials.ErrorAlert(err))
	})
}
