package pages

import (
	"context"
	"strconv"

	"github.com/a-h/templ"

	"github.com/bigkaa/edi-console/internal/domain/model"
	"github.com/bigkaa/edi-console/internal/ui/i18n"
	"github.com/bigkaa/edi-console/internal/ui/markup"
	"github.com/bigkaa/edi-console/internal/ui/pages/partials"
	"github.com/bigkaa/edi-console/internal/view"
)

// PortalDashboardData — панель партнёра.
type PortalDashboardData struct {
	Dashboard *model.PortalDashboard
	Days      int
	Err       error
}

// PortalDashboard — показатели и последние транзакции партнёра.
func PortalDashboard(d PortalDashboardData) templ.Component {
	body := markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<div class="toolbar">`)
		m.Render(ctx, partials.PeriodSelect(partials.PortalURL()+"/", d.Days))
		m.Raw(`</div>`)
		if d.Err != nil {
			m.Render(ctx, partials.ErrorAlert(d.Err))
			return
		}
		if d.Dashboard == nil {
			return
		}
		m.Render(ctx, partials.PartnerAnalyticsPanel(&d.Dashboard.Metrics))
		m.Raw(`<h3>`)
		m.Text(i18n.T(ctx, "portal.recent"))
		m.Raw(`</h3>`)
		list := &model.PortalTransactionList{Transactions: d.Dashboard.RecentTransactions}
		m.Render(ctx, partials.PortalTransactionsTable(list, view.NewPager(1, 1, "")))
	})
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		title := i18n.T(ctx, "nav.portal_dashboard")
		if d.Dashboard != nil && d.Dashboard.Partner.Name != "" {
			title = d.Dashboard.Partner.Name
		}
		m.Render(ctx, PortalLayout(title, SectionPortalDashboard, body))
	})
}

// PortalTransactionsData — список транзакций партнёра.
type PortalTransactionsData struct {
	List     *model.PortalTransactionList
	Filter   model.PortalTransactionFilter
	Criteria string
	Pager    view.Pager
	Err      error
}

// PortalTransactions — фильтры и таблица транзакций партнёра.
func PortalTransactions(d PortalTransactionsData) templ.Component {
	body := markup.Component(func(ctx context.Context, m *markup.Writer) {
		base := partials.PortalURL("transactions")
		m.Raw(`<form class="filters" hx-target="#portal-transactions" hx-swap="outerHTML" hx-push-url="true" hx-trigger="change, submit"`)
		m.Attr("action", base)
		m.Attr("hx-get", base)
		m.Raw(`>`)
		m.Render(ctx, partials.CriteriaInput(d.Criteria))
		m.Raw(`<input type="search" name="search"`)
		m.Attr("value", d.Filter.Search)
		m.Attr("placeholder", i18n.T(ctx, "common.search"))
		m.Raw(`>`)
		folders := []partials.Option{{Value: "", Label: i18n.T(ctx, "filter.all_folders")}}
		for _, f := range model.Folders() {
			if f == model.FolderDeleted {
				continue
			}
			folders = append(folders, partials.Option{Value: f.String(), Label: partials.FolderLabel(ctx, f)})
		}
		partials.SelectField(ctx, m, "status", "tx.folder", d.Filter.Status, folders, nil)
		partials.InputField(ctx, m, "text", "type", "tx.document_type", d.Filter.Type, nil)
		m.Raw(`</form>`)
		if d.Err != nil {
			m.Render(ctx, PortalTransactionsError(d.Err))
			return
		}
		m.Render(ctx, partials.PortalTransactionsTable(d.List, d.Pager))
	})
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Render(ctx, PortalLayout(i18n.T(ctx, "nav.portal_transactions"), SectionPortalTransactions, body))
	})
}

// PortalTransactionsError — таблица транзакций, заменённая сообщением об ошибке.
func PortalTransactionsError(err error) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<section id="portal-transactions">`)
		m.Render(ctx, partials.ErrorAlert(err))
		m.Raw(`</section>`)
	})
}

// PortalTransaction — транзакция партнёра с содержимым и журналом.
func PortalTransaction(tx *model.PortalTransactionDetail) templ.Component {
	body := markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<div class="toolbar"><a class="btn btn-ghost"`)
		m.Href(partials.PortalURL("transactions"))
		m.Raw(`>← `)
		m.Text(i18n.T(ctx, "nav.portal_transactions"))
		m.Raw(`</a></div><div class="grid-2"><dl class="detail-fields panel">`)
		portalField(ctx, m, "tx.folder", partials.FolderLabel(ctx, tx.Folder))
		portalField(ctx, m, "tx.document_type", tx.DocumentType)
		portalField(ctx, m, "tx.po_number", tx.PONumber)
		portalField(ctx, m, "tx.file_size", partials.FormatSize(tx.FileSize))
		portalField(ctx, m, "tx.created_at", partials.FormatTime(tx.CreatedAt))
		portalField(ctx, m, "tx.sent_at", partials.FormatTime(tx.SentAt))
		portalField(ctx, m, "tx.received_at", partials.FormatTime(tx.ReceivedAt))
		if tx.AcknowledgmentStatus != "" {
			portalField(ctx, m, "ack.status", i18n.T(ctx, "ack."+string(tx.AcknowledgmentStatus)))
		}
		portalField(ctx, m, "ack.message", tx.AcknowledgmentMessage)
		m.Raw(`</dl><section class="panel"><h3>`)
		m.Text(i18n.T(ctx, "tab.history"))
		m.Raw(`</h3>`)
		m.Render(ctx, partials.HistoryPane(tx.History))
		m.Raw(`</section></div><h3>`)
		m.Text(i18n.T(ctx, "tab.raw"))
		m.Raw(`</h3>`)
		m.Render(ctx, partials.RawPane(&model.RawContent{
			TransactionID: tx.ID,
			Filename:      tx.Filename,
			Content:       tx.FileContent,
			FileSize:      tx.FileSize,
		}))
	})
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		title := tx.Filename
		if title == "" {
			title = tx.ID
		}
		m.Render(ctx, PortalLayout(title, SectionPortalTransactions, body))
	})
}

func portalField(ctx context.Context, m *markup.Writer, labelKey, value string) {
	if value == "" {
		return
	}
	m.Raw(`<dt>`)
	m.Text(i18n.T(ctx, labelKey))
	m.Raw(`</dt><dd>`)
	m.Text(value)
	m.Raw(`</dd>`)
}

// PortalUpload — страница загрузки файла.
func PortalUpload() templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Render(ctx, PortalLayout(i18n.T(ctx, "nav.portal_upload"), SectionPortalUpload, partials.UploadForm(nil, nil)))
	})
}

// PortalDownloads — файлы партнёра для скачивания.
func PortalDownloads(files []model.DownloadableFile, err error) templ.Component {
	body := markup.Component(func(ctx context.Context, m *markup.Writer) {
		unread := 0
		for _, f := range files {
			if !f.Downloaded {
				unread++
			}
		}
		if unread > 0 {
			m.Raw(`<p class="muted">`)
			m.Text(i18n.Tf(ctx, "portal.new_files", strconv.Itoa(unread)))
			m.Raw(`</p>`)
		}
		m.Render(ctx, partials.DownloadsTable(files, err))
	})
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Render(ctx, PortalLayout(i18n.T(ctx, "nav.portal_downloads"), SectionPortalDownloads, body))
	})
}

// PortalSettings — контакты и каналы связи партнёра.
func PortalSettings(s *model.PortalSettings, err error) templ.Component {
	body := markup.Component(func(ctx context.Context, m *markup.Writer) {
		if err != nil {
			m.Render(ctx, partials.ErrorAlert(err))
			return
		}
		if s == nil {
			return
		}
		m.Raw(`<div class="grid-2">`)
		m.Render(ctx, partials.ContactForm(s.Partner, nil, false))
		m.Raw(`<div>`)
		m.Render(ctx, partials.ChannelPanel("settings.sftp", s.SFTPConfig))
		m.Render(ctx, partials.ChannelPanel("settings.api", s.APIConfig))
		m.Raw(`<button type="button" class="btn btn-ghost" hx-target="#connection-test"`)
		m.Attr("hx-post", partials.PortalURL("settings", "test"))
		m.Raw(`>`)
		m.Text(i18n.T(ctx, "settings.test_connection"))
		m.Raw(`</button><div id="connection-test"></div></div></div>`)
	})
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Render(ctx, PortalLayout(i18n.T(ctx, "nav.portal_settings"), SectionPortalSettings, body))
	})
}
