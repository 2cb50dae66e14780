package partials

import (
	"context"
	"fmt"
	"sort"

	"github.com/a-h/templ"

	"github.com/bigkaa/edi-console/internal/domain/model"
	"github.com/bigkaa/edi-console/internal/ui/i18n"
	"github.com/bigkaa/edi-console/internal/ui/markup"
	"github.com/bigkaa/edi-console/internal/view"
)

// TabPaneID — контейнер содержимого активной вкладки.
const TabPaneID = "tab-pane"

// DetailTabs — переключатель вкладок транзакции.
func DetailTabs(id string, tabs []view.Tab, active view.Tab) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<nav class="tabs" role="tablist">`)
		for _, t := range tabs {
			m.Raw(`<a role="tab"`)
			m.Attr("class", markup.Classes("tab", activeClass(t == active), errorTabClass(t)))
			m.Href(TransactionURL(id) + "?tab=" + string(t))
			m.Attr("hx-get", TransactionURL(id, "tab", string(t)))
			m.Attr("hx-target", "#"+TabPaneID)
			m.Attr("hx-push-url", TransactionURL(id)+"?tab="+string(t))
			m.Raw(`>`)
			m.Text(i18n.T(ctx, "tab."+string(t)))
			m.Raw(`</a>`)
		}
		m.Raw(`</nav>`)
	})
}

func activeClass(active bool) string {
	if active {
		return "active"
	}
	return ""
}

func errorTabClass(t view.Tab) string {
	if t == view.TabErrors {
		return "tab-errors"
	}
	return ""
}

// ValidationUnavailable — проверка не выполнена, действия не блокируются.
func ValidationUnavailable() templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Render(ctx, Alert(AlertWarning, i18n.T(ctx, "validation.unavailable")))
	})
}

// ErrorsPane — ошибки проверки документа и подтверждения партнёра.
func ErrorsPane(v *model.ValidationResult) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		if v == nil {
			m.Render(ctx, ValidationUnavailable())
			return
		}
		if !view.HasErrors(v) {
			m.Render(ctx, Alert(AlertSuccess, i18n.T(ctx, "validation.ok")))
			return
		}
		if len(v.Validation.Errors) > 0 {
			m.Raw(`<h3>`)
			m.Text(i18n.T(ctx, "validation.document_errors"))
			m.Raw(`</h3>`)
			m.Render(ctx, FieldErrorList(v.Validation.Errors))
		}
		if len(v.AcknowledgmentErrors) > 0 {
			m.Raw(`<h3>`)
			m.Text(i18n.T(ctx, "validation.ack_errors"))
			m.Raw(`</h3>`)
			ackErrorTable(ctx, m, v.AcknowledgmentErrors)
		}
	})
}

func ackErrorTable(ctx context.Context, m *markup.Writer, errs []model.AckError) {
	m.Raw(`<table class="table"><thead><tr><th>`)
	m.Text(i18n.T(ctx, "validation.field"))
	m.Raw(`</th><th>`)
	m.Text(i18n.T(ctx, "validation.message"))
	m.Raw(`</th><th>`)
	m.Text(i18n.T(ctx, "validation.severity"))
	m.Raw(`</th></tr></thead><tbody>`)
	for _, e := range errs {
		m.Raw(`<tr><td>`)
		m.Text(e.Field)
		m.Raw(`</td><td>`)
		m.Text(e.Message)
		m.Raw(`</td><td>`)
		m.Raw(`<span`)
		m.Attr("class", "badge badge-"+e.Severity)
		m.Raw(`>`)
		m.Text(e.Severity)
		m.Raw(`</span></td></tr>`)
	}
	m.Raw(`</tbody></table>`)
}

// OverviewPane — поля транзакции и метаданные.
func OverviewPane(tx *model.Transaction) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<dl class="detail-fields">`)
		field(ctx, m, "tx.id", tx.ID)
		field(ctx, m, "tx.filename", tx.Filename)
		field(ctx, m, "tx.folder", FolderLabel(ctx, tx.Folder))
		field(ctx, m, "tx.status", StatusLabel(ctx, tx.Status))
		field(ctx, m, "tx.partner", tx.PartnerName)
		field(ctx, m, "tx.partner_id", tx.PartnerID)
		field(ctx, m, "tx.document_type", tx.DocumentType)
		field(ctx, m, "tx.po_number", tx.PONumber)
		field(ctx, m, "tx.file_size", FormatSize(tx.FileSize))
		field(ctx, m, "tx.file_path", tx.FilePath)
		field(ctx, m, "tx.content_hash", tx.ContentHash)
		field(ctx, m, "tx.created_by", tx.CreatedBy)
		field(ctx, m, "tx.created_at", FormatTime(tx.CreatedAt))
		field(ctx, m, "tx.modified_at", FormatTime(tx.ModifiedAt))
		field(ctx, m, "tx.sent_at", FormatTime(tx.SentAt))
		field(ctx, m, "tx.received_at", FormatTime(tx.ReceivedAt))
		if tx.BotsTAID != nil {
			field(ctx, m, "tx.bots_ta_id", fmt.Sprint(*tx.BotsTAID))
		}
		m.Raw(`</dl>`)
		if len(tx.Metadata) > 0 {
			m.Raw(`<h3>`)
			m.Text(i18n.T(ctx, "tx.metadata"))
			m.Raw(`</h3>`)
			metadataTable(m, tx.Metadata)
		}
	})
}

func metadataTable(m *markup.Writer, meta map[string]any) {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	m.Raw(`<table class="table table-compact"><tbody>`)
	for _, k := range keys {
		m.Raw(`<tr><th>`)
		m.Text(k)
		m.Raw(`</th><td>`)
		m.Text(fmt.Sprint(meta[k]))
		m.Raw(`</td></tr>`)
	}
	m.Raw(`</tbody></table>`)
}

// RawPane — исходное содержимое EDI-файла.
func RawPane(raw *model.RawContent) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		if raw == nil || raw.Content == "" {
			m.Render(ctx, Alert(AlertInfo, i18n.T(ctx, "raw.empty")))
			return
		}
		m.Raw(`<p class="muted">`)
		m.Text(raw.Filename + " · " + FormatSize(raw.FileSize))
		m.Raw(`</p><pre class="raw-content">`)
		m.Text(raw.Content)
		m.Raw(`</pre>`)
	})
}

// HistoryPane — журнал транзакции.
func HistoryPane(entries []model.HistoryEntry) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		if len(entries) == 0 {
			m.Render(ctx, Alert(AlertInfo, i18n.T(ctx, "history.empty")))
			return
		}
		m.Raw(`<table class="table"><thead><tr>`)
		for _, k := range []string{"history.timestamp", "history.action", "history.from", "history.to", "history.user"} {
			m.Raw(`<th>`)
			m.Text(i18n.T(ctx, k))
			m.Raw(`</th>`)
		}
		m.Raw(`</tr></thead><tbody>`)
		for _, e := range entries {
			m.Raw(`<tr><td>`)
			m.Text(FormatTime(e.Timestamp))
			m.Raw(`</td><td>`)
			m.Text(e.Action)
			m.Raw(`</td><td>`)
			m.Text(folderNameLabel(ctx, e.FromFolder))
			m.Raw(`</td><td>`)
			m.Text(folderNameLabel(ctx, e.ToFolder))
			m.Raw(`</td><td>`)
			m.Text(e.User)
			m.Raw(`</td></tr>`)
		}
		m.Raw(`</tbody></table>`)
	})
}

// folderNameLabel локализует имя папки из журнала; незнакомое имя выводится как есть.
func folderNameLabel(ctx context.Context, name string) string {
	if name == "" {
		return "—"
	}
	f, err := model.ParseFolder(name)
	if err != nil {
		return name
	}
	return FolderLabel(ctx, f)
}

// AcknowledgmentPane — подтверждение партнёра (997/999).
func AcknowledgmentPane(tx *model.Transaction, v *model.ValidationResult) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		status := string(tx.AcknowledgmentStatus)
		if status == "" {
			status = string(model.AckPending)
		}
		m.Raw(`<dl class="detail-fields">`)
		field(ctx, m, "ack.status", i18n.T(ctx, "ack."+status))
		field(ctx, m, "ack.at", FormatTime(tx.AcknowledgedAt))
		field(ctx, m, "ack.message", tx.AcknowledgmentMessage)
		m.Raw(`</dl>`)
		if v != nil && len(v.AcknowledgmentErrors) > 0 {
			ackErrorTable(ctx, m, v.AcknowledgmentErrors)
		}
	})
}
