package partials

import (
	"context"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/bigkaa/edi-console/internal/domain/model"
	"github.com/bigkaa/edi-console/internal/ui/i18n"
	"github.com/bigkaa/edi-console/internal/ui/markup"
	"github.com/bigkaa/edi-console/internal/view"
)

// PortalURL — адрес раздела портала.
func PortalURL(segments ...string) string {
	return markup.Path(PortalPrefix, segments...)
}

// PortalTransactionsTable — транзакции партнёра.
func PortalTransactionsTable(list *model.PortalTransactionList, pager view.Pager) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<section id="portal-transactions">`)
		if list == nil || len(list.Transactions) == 0 {
			m.Raw(`<p class="muted">`)
			m.Text(i18n.T(ctx, "portal.no_transactions"))
			m.Raw(`</p></section>`)
			return
		}
		m.Raw(`<table class="table"><thead><tr>`)
		for _, k := range []string{"portal.date", "tx.document_type", "tx.po_number", "tx.folder", "portal.direction", "ack.status"} {
			m.Raw(`<th>`)
			m.Text(i18n.T(ctx, k))
			m.Raw(`</th>`)
		}
		m.Raw(`</tr></thead><tbody>`)
		for _, tx := range list.Transactions {
			m.Raw(`<tr><td><a`)
			m.Href(PortalURL("transactions", tx.ID))
			m.Raw(`>`)
			m.Text(FormatTime(tx.Date))
			m.Raw(`</a></td><td>`)
			m.Text(tx.Type)
			m.Raw(`</td><td>`)
			m.Text(tx.PONumber)
			m.Raw(`</td><td>`)
			m.Text(folderNameLabel(ctx, tx.Status))
			m.Raw(`</td><td>`)
			m.Text(i18n.T(ctx, "portal."+directionKey(tx.Direction)))
			m.Raw(`</td><td>`)
			if tx.AcknowledgmentStatus != "" {
				m.Text(i18n.T(ctx, "ack."+string(tx.AcknowledgmentStatus)))
			}
			m.Raw(`</td></tr>`)
		}
		m.Raw(`</tbody></table>`)
		m.Render(ctx, Pager(pager, PortalURL("transactions")))
		m.Raw(`</section>`)
	})
}

func directionKey(d string) string {
	if d == "sent" {
		return "sent"
	}
	return "received"
}

// DownloadsTable — файлы для скачивания с массовым выбором.
func DownloadsTable(files []model.DownloadableFile, err error) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<form id="downloads" method="post"`)
		m.Attr("action", PortalURL("downloads", "bulk"))
		m.Raw(`>`)
		if err != nil {
			m.Render(ctx, ErrorAlert(err))
		}
		if len(files) == 0 {
			m.Raw(`<p class="muted">`)
			m.Text(i18n.T(ctx, "portal.no_files"))
			m.Raw(`</p></form>`)
			return
		}
		m.Raw(`<table class="table"><thead><tr><th></th>`)
		for _, k := range []string{"tx.filename", "tx.document_type", "portal.date", "tx.file_size", "portal.downloads"} {
			m.Raw(`<th>`)
			m.Text(i18n.T(ctx, k))
			m.Raw(`</th>`)
		}
		m.Raw(`</tr></thead><tbody>`)
		for _, f := range files {
			m.Raw(`<tr`)
			m.AttrIf(!f.Downloaded, "class", "unread")
			m.Raw(`><td><input type="checkbox" name="transaction_ids"`)
			m.Attr("value", f.ID)
			m.Raw(`></td><td><a`)
			m.Href(PortalURL("downloads", f.ID))
			m.Raw(`>`)
			m.Text(f.Filename)
			m.Raw(`</a></td><td>`)
			m.Text(f.DocumentType)
			m.Raw(`</td><td>`)
			m.Text(FormatTime(f.Date))
			m.Raw(`</td><td>`)
			m.Text(FormatSize(f.Size))
			m.Raw(`</td><td class="num">`)
			m.Text(strconv.Itoa(f.DownloadCount))
			m.Raw(`</td></tr>`)
		}
		m.Raw(`</tbody></table><div class="form-actions"><button type="submit" class="btn btn-primary">`)
		m.Text(i18n.T(ctx, "portal.download_selected"))
		m.Raw(`</button></div></form>`)
	})
}

// UploadForm — загрузка файла партнёром.
func UploadForm(err error, result *model.UploadResult) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		errs := FieldErrorsOf(err)
		m.Raw(`<form id="upload-form" class="form panel" method="post" enctype="multipart/form-data" hx-encoding="multipart/form-data" hx-target="#upload-form" hx-swap="outerHTML"`)
		m.Attr("action", PortalURL("upload"))
		m.Attr("hx-post", PortalURL("upload"))
		m.Raw(`>`)
		if err != nil {
			m.Render(ctx, ErrorAlert(err))
		}
		if result != nil {
			m.Render(ctx, Alert(AlertSuccess, i18n.Tf(ctx, "portal.uploaded", result.Filename)))
		}
		m.Raw(`<label class="form-field"><span>`)
		m.Text(i18n.T(ctx, "portal.file"))
		m.Raw(`</span><input type="file" name="file" required`)
		m.Attr("accept", strings.Join(model.UploadExtensions, ","))
		m.Raw(`>`)
		m.Render(ctx, FieldError(errs, "file"))
		m.Raw(`<small class="muted">`)
		m.Text(i18n.Tf(ctx, "portal.upload_hint", strings.Join(model.UploadExtensions, ", "), model.MaxUploadSize>>20))
		m.Raw(`</small></label>`)
		InputField(ctx, m, "text", "document_type", "tx.document_type", "", errs)
		InputField(ctx, m, "text", "po_number", "tx.po_number", "", errs)
		m.Raw(`<div class="form-actions"><button type="submit" class="btn btn-primary">`)
		m.Text(i18n.T(ctx, "portal.upload"))
		m.Raw(`</button></div></form>`)
	})
}

// ContactForm — контактные данные партнёра.
func ContactForm(p model.PortalPartnerProfile, err error, saved bool) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		errs := FieldErrorsOf(err)
		m.Raw(`<form id="contact-form" class="form panel" hx-target="#contact-form" hx-swap="outerHTML"`)
		m.Attr("hx-post", PortalURL("settings", "contact"))
		m.Raw(`><h3>`)
		m.Text(i18n.T(ctx, "settings.contact"))
		m.Raw(`</h3>`)
		if err != nil {
			m.Render(ctx, ErrorAlert(err))
		}
		if saved {
			m.Render(ctx, Alert(AlertSuccess, i18n.T(ctx, "settings.saved")))
		}
		InputField(ctx, m, "text", "contact_name", "settings.contact_name", p.ContactName, errs)
		InputField(ctx, m, "email", "contact_email", "settings.contact_email", p.ContactEmail, errs)
		InputField(ctx, m, "tel", "contact_phone", "settings.contact_phone", p.ContactPhone, errs)
		m.Raw(`<div class="form-actions"><button type="submit" class="btn btn-primary">`)
		m.Text(i18n.T(ctx, "common.save"))
		m.Raw(`</button></div></form>`)
	})
}

// ChannelPanel — состояние настроенного канала.
func ChannelPanel(titleKey string, ch *model.ChannelState) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		if ch == nil {
			return
		}
		m.Raw(`<section class="panel"><h3>`)
		m.Text(i18n.T(ctx, titleKey))
		m.Raw(`</h3><dl class="detail-fields">`)
		if ch.Host != "" {
			field(ctx, m, "sftp.host", ch.Host+":"+strconv.Itoa(ch.Port))
			field(ctx, m, "sftp.username", ch.Username)
		}
		if ch.BaseURL != "" {
			field(ctx, m, "settings.base_url", ch.BaseURL)
		}
		field(ctx, m, "settings.channel_status", ch.Status)
		field(ctx, m, "settings.last_test", FormatTime(ch.LastTest))
		m.Raw(`</dl></section>`)
	})
}
