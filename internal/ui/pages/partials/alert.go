// Пакет partials — фрагменты страниц, которые HTMX подставляет по месту.
package partials

import (
	"context"
	"errors"

	"github.com/a-h/templ"

	"github.com/bigkaa/edi-console/internal/domain/model"
	"github.com/bigkaa/edi-console/internal/ediclient"
	"github.com/bigkaa/edi-console/internal/service"
	"github.com/bigkaa/edi-console/internal/ui/i18n"
	"github.com/bigkaa/edi-console/internal/ui/markup"
)

// AlertKind — оформление сообщения.
type AlertKind string

const (
	AlertError   AlertKind = "error"
	AlertSuccess AlertKind = "success"
	AlertInfo    AlertKind = "info"
	AlertWarning AlertKind = "warning"
)

// Alert — сообщение пользователю.
func Alert(kind AlertKind, message string) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<div`)
		m.Attr("class", "alert alert-"+string(kind))
		m.Attr("role", "alert")
		m.Raw(`>`)
		m.Text(message)
		m.Raw(`</div>`)
	})
}

// FlashOOB — сообщение для #flash, подставляемое вне основной цели ответа.
func FlashOOB(kind AlertKind, message string) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<div`)
		m.Attr("id", FlashID)
		m.Raw(` hx-swap-oob="innerHTML">`)
		m.Render(ctx, Alert(kind, message))
		m.Raw(`</div>`)
	})
}

// ErrorAlert — сообщение об ошибке обращения к backend.
func ErrorAlert(err error) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Render(ctx, Alert(AlertError, ErrorMessage(ctx, err)))
	})
}

// ErrorMessage — текст ошибки для пользователя.
// Для ответов backend с телом {error} показывается сообщение backend.
func ErrorMessage(ctx context.Context, err error) string {
	var apiErr *ediclient.APIError
	var formErr *service.FormError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &formErr):
		return i18n.T(ctx, "error.validation")
	case errors.Is(err, ediclient.ErrUnauthorized):
		return i18n.T(ctx, "error.unauthorized")
	case errors.Is(err, ediclient.ErrForbidden):
		return i18n.T(ctx, "error.forbidden")
	case errors.Is(err, ediclient.ErrRateLimited):
		return i18n.T(ctx, "error.rate_limited")
	case errors.Is(err, ediclient.ErrTimeout):
		return i18n.T(ctx, "error.timeout")
	case errors.Is(err, ediclient.ErrTransport):
		return i18n.T(ctx, "error.transport")
	case errors.Is(err, service.ErrNotAllowed):
		return i18n.T(ctx, "error.not_allowed")
	case errors.Is(err, ediclient.ErrNotFound), errors.Is(err, service.ErrNotFound):
		return i18n.T(ctx, "error.not_found")
	case errors.Is(err, ediclient.ErrConflict):
		return i18n.T(ctx, "error.conflict")
	case errors.As(err, &apiErr):
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return i18n.Tf(ctx, "error.backend_status", apiErr.Status)
	}
	return i18n.T(ctx, "error.internal")
}

// FieldErrorsOf извлекает ошибки полей: из формы или из ответа backend (400).
func FieldErrorsOf(err error) []model.FieldError {
	var formErr *service.FormError
	if errors.As(err, &formErr) {
		return formErr.Fields
	}
	return ediclient.ValidationErrors(err)
}

// FieldError — сообщение под полем формы. Ничего не пишет, если ошибки нет.
func FieldError(errs []model.FieldError, field string) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		for _, e := range errs {
			if e.Field == field {
				m.Raw(`<p class="field-error">`)
				m.Text(e.Message)
				m.Raw(`</p>`)
			}
		}
	})
}

// FieldErrorList — список всех ошибок полей (ответ process с невалидным документом).
func FieldErrorList(errs []model.FieldError) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		if len(errs) == 0 {
			return
		}
		m.Raw(`<ul class="field-errors">`)
		for _, e := range errs {
			m.Raw(`<li>`)
			if e.Field != "" {
				m.Raw(`<strong>`)
				m.Text(e.Field)
				m.Raw(`</strong>: `)
			}
			m.Text(e.Message)
			m.Raw(`</li>`)
		}
		m.Raw(`</ul>`)
	})
}

// Placeholder — заглушка графика: консоль выводит только таблицы.
func Placeholder(titleKey string) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<div class="chart-placeholder">`)
		m.Text(i18n.Tf(ctx, "chart.placeholder", i18n.T(ctx, titleKey)))
		m.Raw(`</div>`)
	})
}
