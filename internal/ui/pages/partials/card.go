package partials

import (
	"context"

	"github.com/a-h/templ"

	"github.com/bigkaa/edi-console/internal/domain/model"
	"github.com/bigkaa/edi-console/internal/ui/i18n"
	"github.com/bigkaa/edi-console/internal/ui/markup"
	"github.com/bigkaa/edi-console/internal/view"
)

// Префиксы маршрутов консоли.
const (
	AdminPrefix  = "/admin"
	PortalPrefix = "/partner-portal"
)

// Цели HTMX, общие для страниц почтового ящика.
const (
	FlashID  = "flash"
	DialogID = "dialog"
	// MailboxChangedEvent — событие HX-Trigger после мутации транзакции.
	MailboxChangedEvent = "mailboxChanged"
)

// TransactionURL — адрес транзакции или её действия.
func TransactionURL(id string, suffix ...string) string {
	return markup.Path(AdminPrefix+"/transactions", append([]string{id}, suffix...)...)
}

// FolderURL — адрес папки почтового ящика.
func FolderURL(f model.Folder) string {
	return markup.Path(AdminPrefix+"/mailbox", f.String())
}

// Icon — иконка из SVG-спрайта.
func Icon(name string) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<svg class="icon" aria-hidden="true"><use`)
		m.Attr("href", "/static/icons.svg#"+name)
		m.Raw(`></use></svg>`)
	})
}

// TransactionCard — карточка транзакции в сетке папки.
// Действия подгружаются отдельным запросом вместе с результатом проверки.
func TransactionCard(tx model.Transaction) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		d := view.FolderDescriptor(tx.Folder)

		m.Raw(`<article`)
		m.Attr("id", "tx-"+tx.ID)
		m.Attr("class", markup.Classes("tx-card", "border-"+d.Color))
		m.Raw(`><header class="tx-card-header">`)
		m.Render(ctx, Icon(d.Icon))
		m.Raw(`<a class="tx-card-title"`)
		m.Href(TransactionURL(tx.ID))
		m.Raw(`>`)
		if tx.Filename != "" {
			m.Text(tx.Filename)
		} else {
			m.Text(tx.ID)
		}
		m.Raw(`</a>`)
		m.Render(ctx, StatusBadge(tx.Status))
		m.Raw(`</header><dl class="tx-card-fields">`)
		field(ctx, m, "tx.partner", tx.PartnerName)
		field(ctx, m, "tx.document_type", tx.DocumentType)
		field(ctx, m, "tx.po_number", tx.PONumber)
		field(ctx, m, "tx.modified_at", FormatTime(tx.ModifiedAt))
		m.Raw(`</dl>`)

		m.Raw(`<div class="tx-actions" hx-trigger="revealed" hx-swap="outerHTML"`)
		m.Attr("hx-get", TransactionURL(tx.ID, "actions"))
		m.Raw(`><span class="muted">`)
		m.Text(i18n.T(ctx, "common.loading"))
		m.Raw(`</span></div></article>`)
	})
}

func field(ctx context.Context, m *markup.Writer, labelKey, value string) {
	if value == "" {
		value = "—"
	}
	m.Raw(`<dt>`)
	m.Text(i18n.T(ctx, labelKey))
	m.Raw(`</dt><dd>`)
	m.Text(value)
	m.Raw(`</dd>`)
}

// StatusBadge — статус транзакции.
func StatusBadge(s model.Status) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<span`)
		m.Attr("class", markup.Classes("badge", "badge-"+string(s)))
		m.Raw(`>`)
		m.Text(StatusLabel(ctx, s))
		m.Raw(`</span>`)
	})
}

// CardActions — кнопки действий карточки.
func CardActions(tx *model.Transaction, v *model.ValidationResult) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<div class="tx-actions">`)
		if n := v.ErrorCount(); n > 0 {
			m.Raw(`<a class="badge badge-failed"`)
			m.Href(TransactionURL(tx.ID) + "?tab=" + string(view.TabErrors))
			m.Raw(`>`)
			m.Text(i18n.Tf(ctx, "tx.error_count", n))
			m.Raw(`</a>`)
		}
		for _, a := range view.CardActions(tx, v) {
			m.Render(ctx, actionButton(tx.ID, a))
		}
		m.Raw(`</div>`)
	})
}

func actionButton(id string, a view.Action) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		label := i18n.T(ctx, "action."+string(a.Name))
		switch a.Name {
		case view.ActionView:
			m.Raw(`<a class="btn btn-ghost"`)
			m.Href(TransactionURL(id))
			m.Raw(`>`)
			m.Text(label)
			m.Raw(`</a>`)
			return
		case view.ActionEdit:
			m.Raw(`<a class="btn btn-ghost"`)
			m.Href(TransactionURL(id, "edit"))
			m.Raw(`>`)
			m.Text(label)
			m.Raw(`</a>`)
			return
		case view.ActionMove:
			m.Raw(`<button type="button" class="btn btn-ghost"`)
			m.Attr("hx-get", TransactionURL(id, "move"))
			m.Attr("hx-target", "#"+DialogID)
			m.Raw(`>`)
			m.Text(label)
			m.Raw(`</button>`)
			return
		}

		m.Raw(`<button type="button"`)
		m.Attr("class", markup.Classes("btn", dangerClass(a.Name)))
		m.Attr("hx-post", TransactionURL(id, actionPath(a.Name)))
		m.Attr("hx-target", "#"+FlashID)
		m.AttrIf(a.Confirm, "hx-confirm", i18n.T(ctx, "confirm."+string(a.Name)))
		m.Flag(!a.Enabled, "disabled")
		m.AttrIf(a.HintKey != "", "title", i18n.T(ctx, a.HintKey))
		m.Raw(`>`)
		m.Text(label)
		m.Raw(`</button>`)
	})
}

func actionPath(name view.ActionName) string {
	if name == view.ActionPermanentDelete {
		return "permanent-delete"
	}
	return string(name)
}

func dangerClass(name view.ActionName) string {
	switch name {
	case view.ActionDelete, view.ActionPermanentDelete:
		return "btn-danger"
	case view.ActionProcess, view.ActionSend:
		return "btn-primary"
	}
	return "btn-ghost"
}

// TransactionGridData — содержимое сетки папки.
type TransactionGridData struct {
	Folder   model.Folder
	List     *model.TransactionList
	Pager    view.Pager
	Stale    bool
	PageBase string
	// Err — ошибка загрузки страницы; сетка сохраняет id для повторного запроса
	Err error
}

// TransactionGrid — сетка карточек с пагинацией или пустое состояние.
// Сетка перезапрашивает себя после любой мутации транзакции.
func TransactionGrid(d TransactionGridData) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<section id="tx-grid"`)
		m.Attr("hx-get", d.PageBase+d.Pager.Link(d.Pager.Page))
		m.Attr("hx-trigger", MailboxChangedEvent+" from:body")
		m.Raw(` hx-swap="outerHTML">`)
		if d.Err != nil {
			m.Render(ctx, ErrorAlert(d.Err))
			m.Raw(`</section>`)
			return
		}
		if d.Stale {
			m.Render(ctx, Alert(AlertInfo, i18n.T(ctx, "common.refreshing")))
		}
		if d.List == nil || len(d.List.Transactions) == 0 {
			m.Render(ctx, EmptyFolder(d.Folder))
		} else {
			m.Raw(`<div class="card-grid">`)
			for _, tx := range d.List.Transactions {
				m.Render(ctx, TransactionCard(tx))
			}
			m.Raw(`</div>`)
			m.Render(ctx, Pager(d.Pager, d.PageBase))
		}
		m.Raw(`</section>`)
	})
}

// EmptyFolder — пустое состояние папки. Создание предлагается только
// там, где оно разрешено.
func EmptyFolder(f model.Folder) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		d := view.FolderDescriptor(f)
		m.Raw(`<div class="empty-state">`)
		m.Render(ctx, Icon(d.Icon))
		m.Raw(`<p>`)
		m.Text(i18n.Tf(ctx, "mailbox.empty", i18n.T(ctx, d.LabelKey)))
		m.Raw(`</p>`)
		if view.CanCreate(f) {
			m.Raw(`<a class="btn btn-primary"`)
			m.Href(AdminPrefix + "/transactions/new?folder=" + f.String())
			m.Raw(`>`)
			m.Text(i18n.T(ctx, "action.create"))
			m.Raw(`</a>`)
		}
		m.Raw(`</div>`)
	})
}

// MoveDialog — выбор папки назначения. Текущая папка не предлагается,
// окончательного удаления в диалоге нет.
func MoveDialog(tx *model.Transaction) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<div class="dialog" role="dialog"><form class="dialog-body"`)
		m.Attr("hx-post", TransactionURL(tx.ID, "move"))
		m.Attr("hx-target", "#"+FlashID)
		m.Raw(`><h3>`)
		m.Text(i18n.T(ctx, "move.title"))
		m.Raw(`</h3><p class="muted">`)
		m.Text(i18n.Tf(ctx, "move.current", FolderLabel(ctx, tx.Folder)))
		m.Raw(`</p><div class="radio-list">`)
		for i, f := range view.MoveTargets(tx.Folder) {
			d := view.FolderDescriptor(f)
			m.Raw(`<label class="radio"><input type="radio" name="target_folder"`)
			m.Attr("value", f.String())
			m.Flag(i == 0, "checked")
			m.Raw(`>`)
			m.Render(ctx, Icon(d.Icon))
			m.Text(i18n.T(ctx, d.LabelKey))
			m.Raw(`</label>`)
		}
		m.Raw(`</div><div class="dialog-actions">`)
		m.Raw(`<button type="button" class="btn btn-ghost" onclick="closeDialog()">`)
		m.Text(i18n.T(ctx, "common.cancel"))
		m.Raw(`</button><button type="submit" class="btn btn-primary">`)
		m.Text(i18n.T(ctx, "action.move"))
		m.Raw(`</button></div></form></div>`)
	})
}

// FolderStats — сводка по папке.
func FolderStats(stats *model.FolderStats) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		if stats == nil {
			return
		}
		m.Raw(`<aside class="folder-stats"><div class="stat"><span class="stat-value">`)
		m.Textf("%d", stats.TotalCount)
		m.Raw(`</span><span class="stat-label">`)
		m.Text(i18n.T(ctx, "stats.total"))
		m.Raw(`</span></div><div class="stat"><span class="stat-value">`)
		m.Textf("%d", stats.RecentCount)
		m.Raw(`</span><span class="stat-label">`)
		m.Text(i18n.T(ctx, "stats.recent"))
		m.Raw(`</span></div>`)
		countTable(ctx, m, "stats.by_status", SortedCounts(stats.ByStatus), func(k string) string {
			return StatusLabel(ctx, model.Status(k))
		})
		countTable(ctx, m, "stats.by_document_type", SortedCounts(stats.ByDocumentType), nil)
		m.Raw(`</aside>`)
	})
}

func countTable(ctx context.Context, m *markup.Writer, titleKey string, rows []Count, label func(string) string) {
	if len(rows) == 0 {
		return
	}
	m.Raw(`<table class="table table-compact"><caption>`)
	m.Text(i18n.T(ctx, titleKey))
	m.Raw(`</caption><tbody>`)
	for _, r := range rows {
		name := r.Key
		if label != nil {
			name = label(r.Key)
		}
		m.Raw(`<tr><td>`)
		m.Text(name)
		m.Raw(`</td><td class="num">`)
		m.Textf("%d", r.Value)
		m.Raw(`</td></tr>`)
	}
	m.Raw(`</tbody></table>`)
}
