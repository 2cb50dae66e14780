// Пакет handlers — HTTP-обработчики консоли администратора и портала партнёра.
// Полные страницы и HTMX-фрагменты рендерятся компонентами pages и partials.
package handlers

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	apierrors "github.com/bigkaa/edi-console/internal/api/errors"
	"github.com/bigkaa/edi-console/internal/ediclient"
	"github.com/bigkaa/edi-console/internal/service"
	"github.com/bigkaa/edi-console/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/edi-console/internal/ui/middleware"
	"github.com/bigkaa/edi-console/internal/ui/pages/partials"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"

	hxTrigger  = "HX-Trigger"
	hxRedirect = "HX-Redirect"

	// defaultDays — период панелей и аналитики по умолчанию (как у backend).
	defaultDays = 30
	maxDays     = 365
)

// base — общие зависимости обработчиков: адрес входа и логгер.
type base struct {
	loginURL string
	logger   *slog.Logger
}

func newBase(loginURL string, logger *slog.Logger, component string) base {
	return base{
		loginURL: loginURL,
		logger:   logger.With(slog.String("component", component)),
	}
}

// client возвращает клиента backend сессии запроса.
// Без клиента выполняется redirect на вход и возвращается false.
func (b *base) client(w http.ResponseWriter, r *http.Request) (*ediclient.Client, bool) {
	c := uimiddleware.ClientFromContext(r.Context())
	if c == nil {
		uimiddleware.RedirectToLogin(w, r, b.loginURL)
		return nil, false
	}
	return c, true
}

// expired выполняет redirect на вход, если сессия backend истекла.
func (b *base) expired(w http.ResponseWriter, r *http.Request, err error) bool {
	if errors.Is(err, ediclient.ErrUnauthorized) {
		b.logger.Info("Сессия backend истекла, redirect на вход",
			slog.String("path", r.URL.Path),
		)
		uimiddleware.RedirectToLogin(w, r, b.loginURL)
		return true
	}
	return false
}

// render пишет компонент со статусом. Для HTMX ошибки отдаются со статусом 200,
// иначе HTMX не подставит фрагмент с сообщением.
func (b *base) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	if uimiddleware.IsHTMX(r) {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		b.logger.Error("Ошибка рендеринга",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
}

// page рендерит полную страницу. Статус выводится из ошибки загрузки данных.
func (b *base) page(w http.ResponseWriter, r *http.Request, err error, c templ.Component) {
	if b.expired(w, r, err) {
		return
	}
	status := http.StatusOK
	if err != nil {
		status = b.logFailure(r, err)
	}
	b.render(w, r, status, c)
}

// fail отвечает фрагментом с сообщением об ошибке.
func (b *base) fail(w http.ResponseWriter, r *http.Request, err error) {
	if b.expired(w, r, err) {
		return
	}
	b.render(w, r, b.logFailure(r, err), partials.ErrorAlert(err))
}

// logFailure логирует ошибку и возвращает HTTP-статус ответа.
func (b *base) logFailure(r *http.Request, err error) int {
	status, code := apierrors.Classify(err)
	if errors.Is(err, service.ErrValidation) {
		status, code = http.StatusUnprocessableEntity, apierrors.CodeValidationError
	}
	if errors.Is(err, service.ErrNotAllowed) {
		status, code = http.StatusConflict, apierrors.CodeConflict
	}
	if errors.Is(err, service.ErrNotFound) {
		status, code = http.StatusNotFound, apierrors.CodeNotFound
	}
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway && status != http.StatusGatewayTimeout {
		level = slog.LevelError
	}
	b.logger.LogAttrs(r.Context(), level, "Ошибка обращения к backend",
		slog.String("path", r.URL.Path),
		slog.String("code", code),
		slog.String("error", err.Error()),
	)
	return status
}

// flash отвечает сообщением об успехе и сообщает странице о событиях.
func (b *base) flash(w http.ResponseWriter, r *http.Request, message string, events ...string) {
	if len(events) > 0 {
		w.Header().Set(hxTrigger, strings.Join(events, ", "))
	}
	b.render(w, r, http.StatusOK, partials.Alert(partials.AlertSuccess, message))
}

// mailboxChanged — сообщение об успешной мутации транзакции:
// сетка, статистика и карточка перечитываются по событию.
func (b *base) mailboxChanged(w http.ResponseWriter, r *http.Request, key string, args ...any) {
	b.flash(w, r, i18n.Tf(r.Context(), key, args...), partials.MailboxChangedEvent)
}

// parseDays читает период в днях (1..365), по умолчанию 30.
func parseDays(r *http.Request) int {
	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil || days < 1 || days > maxDays {
		return defaultDays
	}
	return days
}

// download передаёт файл backend клиенту как вложение.
// Тело копируется потоком и закрывается.
func (b *base) download(w http.ResponseWriter, r *http.Request, d *ediclient.Download, fallbackName string) {
	defer d.Body.Close()

	name := d.Filename
	if name == "" {
		name = fallbackName
	}
	ct := d.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	if d.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(d.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)

	n, err := io.Copy(w, d.Body)
	if err != nil {
		b.logger.Warn("Передача файла прервана",
			slog.String("path", r.URL.Path),
			slog.String("filename", name),
			slog.Int64("bytes", n),
			slog.String("error", err.Error()),
		)
		return
	}
	b.logger.Debug("Файл передан",
		slog.String("filename", name),
		slog.Int64("bytes", n),
	)
}
