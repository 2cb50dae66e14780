package partials

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/a-h/templ"

	"github.com/bigkaa/edi-console/internal/domain/model"
	"github.com/bigkaa/edi-console/internal/ui/i18n"
	"github.com/bigkaa/edi-console/internal/ui/markup"
)

// PartnerURL — адрес партнёра или его раздела.
func PartnerURL(partnerID string, suffix ...string) string {
	return markup.Path(AdminPrefix+"/partners", append([]string{partnerID}, suffix...)...)
}

// SFTPFormData — форма SFTP-конфигурации партнёра.
type SFTPFormData struct {
	PartnerID string
	HasConfig bool
	Config    model.SFTPConfig
	Err       error
	Saved     bool
}

// SFTPForm — создание или изменение SFTP-конфигурации.
// Пароль никогда не подставляется в форму.
func SFTPForm(d SFTPFormData) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		errs := FieldErrorsOf(d.Err)
		c := d.Config
		if c.Port == 0 {
			c.Port = 22
		}
		if c.AuthMethod == "" {
			c.AuthMethod = "password"
		}

		m.Raw(`<form id="sftp-form" class="form panel"`)
		m.Attr("hx-post", PartnerURL(d.PartnerID, "sftp"))
		m.Raw(` hx-target="#sftp-form" hx-swap="outerHTML"><h3>`)
		m.Text(i18n.T(ctx, "sftp.title"))
		m.Raw(`</h3>`)
		if d.Err != nil {
			m.Render(ctx, ErrorAlert(d.Err))
		}
		if d.Saved {
			m.Render(ctx, Alert(AlertSuccess, i18n.T(ctx, "sftp.saved")))
		}
		if !d.HasConfig {
			m.Raw(`<p class="muted">`)
			m.Text(i18n.T(ctx, "sftp.not_configured"))
			m.Raw(`</p>`)
		}

		InputField(ctx, m, "text", "host", "sftp.host", c.Host, errs)
		InputField(ctx, m, "number", "port", "sftp.port", strconv.Itoa(c.Port), errs)
		InputField(ctx, m, "text", "username", "sftp.username", c.Username, errs)
		methods := []Option{
			{Value: "password", Label: i18n.T(ctx, "sftp.auth_password")},
			{Value: "key", Label: i18n.T(ctx, "sftp.auth_key")},
			{Value: "both", Label: i18n.T(ctx, "sftp.auth_both")},
		}
		SelectField(ctx, m, "auth_method", "sftp.auth_method", c.AuthMethod, methods, errs)
		InputField(ctx, m, "password", "password", "sftp.password", "", errs)
		InputField(ctx, m, "text", "private_key_path", "sftp.private_key_path", c.PrivateKeyPath, errs)
		InputField(ctx, m, "text", "inbound_directory", "sftp.inbound_directory", c.InboundDirectory, errs)
		InputField(ctx, m, "text", "outbound_directory", "sftp.outbound_directory", c.OutboundDirectory, errs)
		InputField(ctx, m, "text", "archive_directory", "sftp.archive_directory", c.ArchiveDirectory, errs)
		InputField(ctx, m, "text", "inbound_file_pattern", "sftp.inbound_file_pattern", c.InboundFilePattern, errs)
		InputField(ctx, m, "text", "outbound_file_pattern", "sftp.outbound_file_pattern", c.OutboundFilePattern, errs)
		InputField(ctx, m, "number", "timeout", "sftp.timeout", intOrEmpty(c.Timeout), errs)
		InputField(ctx, m, "number", "poll_interval", "sftp.poll_interval", intOrEmpty(c.PollInterval), errs)
		CheckboxField(ctx, m, "passive_mode", "sftp.passive_mode", c.PassiveMode)
		CheckboxField(ctx, m, "poll_enabled", "sftp.poll_enabled", c.PollEnabled)

		m.Raw(`<div class="form-actions"><button type="submit" class="btn btn-primary">`)
		m.Text(i18n.T(ctx, "common.save"))
		m.Raw(`</button>`)
		if d.HasConfig {
			m.Raw(`<button type="button" class="btn btn-ghost" hx-target="#sftp-test"`)
			m.Attr("hx-post", PartnerURL(d.PartnerID, "sftp", "test"))
			m.Raw(`>`)
			m.Text(i18n.T(ctx, "sftp.test"))
			m.Raw(`</button><button type="button" class="btn btn-danger" hx-target="#sftp-form" hx-swap="outerHTML"`)
			m.Attr("hx-post", PartnerURL(d.PartnerID, "sftp", "delete"))
			m.Attr("hx-confirm", i18n.T(ctx, "confirm.delete_sftp"))
			m.Raw(`>`)
			m.Text(i18n.T(ctx, "action.delete"))
			m.Raw(`</button>`)
		}
		m.Raw(`</div><div id="sftp-test"></div></form>`)
	})
}

func intOrEmpty(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// ConnectionResult — результат проверки соединения.
func ConnectionResult(res *model.ConnectionTestResult) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		kind := AlertError
		if res.Success {
			kind = AlertSuccess
		}
		msg := res.Message
		if msg == "" {
			msg = i18n.T(ctx, "sftp.test_done")
		}
		m.Render(ctx, Alert(kind, msg))
		if len(res.Details) > 0 {
			metadataTable(m, res.Details)
		}
	})
}

// ChannelTests — результаты проверки каналов портала (sftp, api).
func ChannelTests(results map[string]model.ChannelTest) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		names := make([]string, 0, len(results))
		for name := range results {
			names = append(names, name)
		}
		sort.Strings(names)
		if len(names) == 0 {
			m.Render(ctx, Alert(AlertInfo, i18n.T(ctx, "settings.no_channels")))
			return
		}
		for _, name := range names {
			r := results[name]
			kind := AlertError
			if r.Status == "success" {
				kind = AlertSuccess
			}
			m.Render(ctx, Alert(kind, fmt.Sprintf("%s: %s", name, r.Message)))
		}
	})
}

// PartnerAnalyticsPanel — сводка транзакций партнёра.
func PartnerAnalyticsPanel(a *model.PartnerAnalytics) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		if a == nil {
			return
		}
		m.Raw(`<div class="metric-cards">`)
		metric(ctx, m, "partner.total", strconv.Itoa(a.TotalTransactions))
		metric(ctx, m, "partner.sent", strconv.Itoa(a.Sent))
		metric(ctx, m, "partner.received", strconv.Itoa(a.Received))
		metric(ctx, m, "partner.pending", strconv.Itoa(a.Pending))
		metric(ctx, m, "partner.errors", strconv.Itoa(a.Errors))
		m.Raw(`</div>`)
		m.Render(ctx, DocumentCounts(a.DocumentTypes))
	})
}

// DocumentCounts — количество документов по типам.
func DocumentCounts(rows []model.DocumentCount) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		if len(rows) == 0 {
			return
		}
		m.Raw(`<table class="table table-compact"><caption>`)
		m.Text(i18n.T(ctx, "stats.by_document_type"))
		m.Raw(`</caption><tbody>`)
		for _, r := range rows {
			m.Raw(`<tr><td>`)
			m.Text(r.DocumentType)
			m.Raw(`</td><td class="num">`)
			m.Text(strconv.Itoa(r.Count))
			m.Raw(`</td></tr>`)
		}
		m.Raw(`</tbody></table>`)
	})
}
