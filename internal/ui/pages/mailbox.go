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

// MailboxData — обзор почтового ящика.
type MailboxData struct {
	Folders []model.FolderSummary
	Err     error
}

// Mailbox — плитки папок со счётчиками.
func Mailbox(d MailboxData) templ.Component {
	body := markup.Component(func(ctx context.Context, m *markup.Writer) {
		if d.Err != nil {
			m.Render(ctx, partials.ErrorAlert(d.Err))
		}
		m.Raw(`<div class="folder-tiles">`)
		for _, f := range model.Folders() {
			desc := view.FolderDescriptor(f)
			m.Raw(`<a`)
			m.Attr("class", markup.Classes("folder-tile", "border-"+desc.Color))
			m.Href(partials.FolderURL(f))
			m.Raw(`>`)
			m.Render(ctx, partials.Icon(desc.Icon))
			m.Raw(`<span class="folder-name">`)
			m.Text(i18n.T(ctx, desc.LabelKey))
			m.Raw(`</span><span class="stat-value">`)
			m.Text(strconv.Itoa(folderCount(d.Folders, f)))
			m.Raw(`</span></a>`)
		}
		m.Raw(`</div>`)
	})
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Render(ctx, AdminLayout(i18n.T(ctx, "nav.mailbox"), SectionMailbox, body))
	})
}

func folderCount(folders []model.FolderSummary, f model.Folder) int {
	for _, s := range folders {
		if s.Name == f {
			return s.Count
		}
	}
	return 0
}

// FolderData — страница папки.
type FolderData struct {
	Folder        model.Folder
	Folders       []model.FolderSummary
	Filter        model.TransactionFilter
	Criteria      string
	Partners      []model.Partner
	DocumentTypes []model.DocumentType
	Grid          partials.TransactionGridData
	Err           error
}

// Folder — поиск, фильтры, статистика и сетка транзакций папки.
func Folder(d FolderData) templ.Component {
	body := markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Render(ctx, folderTabs(d.Folder, d.Folders))
		m.Raw(`<div class="toolbar">`)
		m.Render(ctx, folderFilters(d))
		if view.CanCreate(d.Folder) {
			m.Raw(`<a class="btn btn-primary"`)
			m.Href(partials.AdminPrefix + "/transactions/new?folder=" + d.Folder.String())
			m.Raw(`>`)
			m.Text(i18n.T(ctx, "action.create"))
			m.Raw(`</a>`)
		}
		m.Raw(`</div><div class="folder-layout">`)
		grid := d.Grid
		if grid.Err == nil {
			grid.Err = d.Err
		}
		m.Render(ctx, partials.TransactionGrid(grid))
		m.Raw(`<div hx-swap="innerHTML"`)
		m.Attr("hx-get", partials.FolderURL(d.Folder)+"/stats")
		m.Attr("hx-trigger", "load, "+partials.MailboxChangedEvent+" from:body")
		m.Raw(`></div></div>`)
	})
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Render(ctx, AdminLayout(partials.FolderLabel(ctx, d.Folder), SectionMailbox, body))
	})
}

func folderTabs(current model.Folder, folders []model.FolderSummary) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<nav class="tabs">`)
		for _, f := range model.Folders() {
			m.Raw(`<a`)
			m.Attr("class", markup.Classes("tab", activeClass(f == current)))
			m.Href(partials.FolderURL(f))
			m.Raw(`>`)
			m.Text(partials.FolderLabel(ctx, f))
			if n := folderCount(folders, f); n > 0 {
				m.Raw(` <span class="count">`)
				m.Text(strconv.Itoa(n))
				m.Raw(`</span>`)
			}
			m.Raw(`</a>`)
		}
		m.Raw(`</nav>`)
	})
}

func folderFilters(d FolderData) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		url := partials.FolderURL(d.Folder)
		m.Raw(`<form class="filters" hx-target="#tx-grid" hx-swap="outerHTML" hx-push-url="true" hx-trigger="change, submit, keyup changed delay:400ms from:input[name=search]"`)
		m.Attr("action", url)
		m.Attr("hx-get", url)
		m.Raw(`>`)
		m.Render(ctx, partials.CriteriaInput(d.Criteria))
		m.Raw(`<input type="search" name="search"`)
		m.Attr("value", d.Filter.Search)
		m.Attr("placeholder", i18n.T(ctx, "mailbox.search_placeholder"))
		m.Raw(`>`)

		partners := []partials.Option{{Value: "", Label: i18n.T(ctx, "filter.all_partners")}}
		for _, p := range d.Partners {
			partners = append(partners, partials.Option{Value: p.Name, Label: p.Name})
		}
		partials.SelectField(ctx, m, "partner", "tx.partner", d.Filter.Partner, partners, nil)

		docTypes := []partials.Option{{Value: "", Label: i18n.T(ctx, "filter.all_types")}}
		for _, t := range d.DocumentTypes {
			docTypes = append(docTypes, partials.Option{Value: t.Code, Label: t.Code + " " + t.Name})
		}
		partials.SelectField(ctx, m, "document_type", "tx.document_type", d.Filter.DocumentType, docTypes, nil)

		statuses := []partials.Option{{Value: "", Label: i18n.T(ctx, "filter.all_statuses")}}
		for _, s := range model.Statuses {
			statuses = append(statuses, partials.Option{Value: string(s), Label: partials.StatusLabel(ctx, s)})
		}
		partials.SelectField(ctx, m, "status", "tx.status", string(d.Filter.Status), statuses, nil)
		partials.InputField(ctx, m, "date", "date_from", "filter.date_from", d.Filter.DateFrom, nil)
		partials.InputField(ctx, m, "date", "date_to", "filter.date_to", d.Filter.DateTo, nil)
		m.Raw(`</form>`)
	})
}

// TransactionData — страница транзакции.
type TransactionData struct {
	Transaction *model.Transaction
	// Validation == nil — результат проверки неизвестен
	Validation *model.ValidationResult
	Tabs       []view.Tab
	Active     view.Tab
	Pane       templ.Component
}

// Transaction — карточка транзакции с действиями и вкладками.
func Transaction(d TransactionData) templ.Component {
	tx := d.Transaction
	body := markup.Component(func(ctx context.Context, m *markup.Writer) {
		// после мутации блок перечитывает страницу и заменяет себя
		m.Raw(`<div id="tx-detail" hx-select="#tx-detail" hx-target="this" hx-swap="outerHTML"`)
		m.Attr("hx-get", partials.TransactionURL(tx.ID)+"?tab="+string(d.Active))
		m.Attr("hx-trigger", partials.MailboxChangedEvent+" from:body")
		m.Raw(`><div class="toolbar"><a class="btn btn-ghost"`)
		m.Href(partials.FolderURL(tx.Folder))
		m.Raw(`>← `)
		m.Text(partials.FolderLabel(ctx, tx.Folder))
		m.Raw(`</a>`)
		m.Render(ctx, partials.StatusBadge(tx.Status))
		m.Render(ctx, partials.CardActions(tx, d.Validation))
		m.Raw(`</div>`)
		if d.Validation == nil {
			m.Render(ctx, partials.ValidationUnavailable())
		}
		m.Render(ctx, partials.DetailTabs(tx.ID, d.Tabs, d.Active))
		m.Raw(`<section`)
		m.Attr("id", partials.TabPaneID)
		m.Raw(` class="tab-pane">`)
		if d.Pane != nil {
			m.Render(ctx, d.Pane)
		}
		m.Raw(`</section></div>`)
	})
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		title := tx.Filename
		if title == "" {
			title = tx.ID
		}
		m.Render(ctx, AdminLayout(title, SectionMailbox, body))
	})
}

// TransactionForm — страница создания или изменения транзакции.
func TransactionForm(d partials.TransactionFormData) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		title := i18n.T(ctx, "tx.create_title")
		if d.ID != "" {
			title = i18n.T(ctx, "tx.edit_title")
		}
		m.Render(ctx, AdminLayout(title, SectionMailbox, partials.TransactionForm(d)))
	})
}
