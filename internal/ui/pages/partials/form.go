package partials

import (
	"context"

	"github.com/a-h/templ"

	"github.com/bigkaa/edi-console/internal/domain/model"
	"github.com/bigkaa/edi-console/internal/ui/i18n"
	"github.com/bigkaa/edi-console/internal/ui/markup"
	"github.com/bigkaa/edi-console/internal/view"
)

// TransactionFormData — форма создания или изменения транзакции.
// Пустой ID означает создание.
type TransactionFormData struct {
	ID            string
	Input         model.TransactionInput
	Partners      []model.Partner
	DocumentTypes []model.DocumentType
	Err           error
}

// Option — элемент выпадающего списка.
type Option struct {
	Value string
	Label string
}

// TransactionForm — форма транзакции с ошибками полей.
func TransactionForm(d TransactionFormData) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		errs := FieldErrorsOf(d.Err)
		action := AdminPrefix + "/transactions"
		if d.ID != "" {
			action = TransactionURL(d.ID)
		}

		m.Raw(`<form id="tx-form" class="form" method="post"`)
		m.Attr("action", action)
		m.Attr("hx-post", action)
		m.Raw(` hx-target="#tx-form" hx-swap="outerHTML">`)
		if d.Err != nil {
			m.Render(ctx, ErrorAlert(d.Err))
		}

		if d.ID == "" {
			var folders []Option
			for _, f := range model.Folders() {
				if view.CanCreate(f) {
					folders = append(folders, Option{Value: f.String(), Label: FolderLabel(ctx, f)})
				}
			}
			SelectField(ctx, m, "folder", "tx.folder", d.Input.Folder, folders, errs)
		} else {
			statuses := []Option{{Value: "", Label: "—"}}
			for _, s := range model.Statuses {
				statuses = append(statuses, Option{Value: string(s), Label: StatusLabel(ctx, s)})
			}
			SelectField(ctx, m, "status", "tx.status", string(d.Input.Status), statuses, errs)
		}

		partners := []Option{{Value: "", Label: "—"}}
		for _, p := range d.Partners {
			partners = append(partners, Option{Value: p.Name, Label: p.Name})
		}
		SelectField(ctx, m, "partner_name", "tx.partner", d.Input.PartnerName, partners, errs)

		docTypes := []Option{{Value: "", Label: "—"}}
		for _, t := range d.DocumentTypes {
			docTypes = append(docTypes, Option{Value: t.Code, Label: t.Code + " " + t.Name})
		}
		SelectField(ctx, m, "document_type", "tx.document_type", d.Input.DocumentType, docTypes, errs)

		InputField(ctx, m, "text", "po_number", "tx.po_number", d.Input.PONumber, errs)
		InputField(ctx, m, "text", "filename", "tx.filename", d.Input.Filename, errs)

		m.Raw(`<div class="form-actions"><button type="submit" class="btn btn-primary">`)
		m.Text(i18n.T(ctx, "common.save"))
		m.Raw(`</button></div></form>`)
	})
}

// InputField — поле ввода с подписью и ошибкой.
func InputField(ctx context.Context, m *markup.Writer, typ, name, labelKey, value string, errs []model.FieldError) {
	m.Raw(`<label class="form-field"><span>`)
	m.Text(i18n.T(ctx, labelKey))
	m.Raw(`</span><input`)
	m.Attr("type", typ)
	m.Attr("name", name)
	if typ != "password" {
		m.Attr("value", value)
	}
	m.Raw(`>`)
	m.Render(ctx, FieldError(errs, name))
	m.Raw(`</label>`)
}

// SelectField — выпадающий список с подписью и ошибкой.
func SelectField(ctx context.Context, m *markup.Writer, name, labelKey, value string, opts []Option, errs []model.FieldError) {
	m.Raw(`<label class="form-field"><span>`)
	m.Text(i18n.T(ctx, labelKey))
	m.Raw(`</span><select`)
	m.Attr("name", name)
	m.Raw(`>`)
	for _, o := range opts {
		m.Raw(`<option`)
		m.Attr("value", o.Value)
		m.Flag(o.Value == value, "selected")
		m.Raw(`>`)
		m.Text(o.Label)
		m.Raw(`</option>`)
	}
	m.Raw(`</select>`)
	m.Render(ctx, FieldError(errs, name))
	m.Raw(`</label>`)
}

// CheckboxField — флажок с подписью.
func CheckboxField(ctx context.Context, m *markup.Writer, name, labelKey string, checked bool) {
	m.Raw(`<label class="form-check"><input type="checkbox" value="true"`)
	m.Attr("name", name)
	m.Flag(checked, "checked")
	m.Raw(`><span>`)
	m.Text(i18n.T(ctx, labelKey))
	m.Raw(`</span></label>`)
}
