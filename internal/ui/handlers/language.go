// language.go — переключение языка интерфейса.
package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bigkaa/edi-console/internal/ui/i18n"
	"github.com/bigkaa/edi-console/internal/ui/pages/partials"
)

const langCookieMaxAge = 365 * 24 * time.Hour

// LanguageHandler — обработчик смены языка.
type LanguageHandler struct {
	bundle *i18n.Bundle
	logger *slog.Logger
}

// NewLanguageHandler создаёт обработчик смены языка.
func NewLanguageHandler(bundle *i18n.Bundle, logger *slog.Logger) *LanguageHandler {
	return &LanguageHandler{
		bundle: bundle,
		logger: logger.With(slog.String("component", "ui.language")),
	}
}

// HandleSwitch обрабатывает POST /lang (поле lang): сохраняет язык в cookie
// и возвращает на страницу, с которой пришёл запрос.
func (h *LanguageHandler) HandleSwitch(w http.ResponseWriter, r *http.Request) {
	lang := r.PostFormValue("lang")
	if !h.bundle.Supported(lang) {
		h.logger.Debug("Неизвестный язык", slog.String("lang", lang))
		lang = i18n.DefaultLang
	}

	http.SetCookie(w, &http.Cookie{
		Name:     i18n.LangCookieName,
		Value:    lang,
		Path:     "/",
		MaxAge:   int(langCookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, backTo(r), http.StatusSeeOther)
}

// backTo возвращает локальный путь из Referer. Внешние адреса
// заменяются главной страницей консоли.
func backTo(r *http.Request) string {
	fallback := partials.AdminPrefix + "/"
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || !strings.HasPrefix(ref.Path, "/") || strings.HasPrefix(ref.Path, "//") {
		return fallback
	}
	if ref.Host != "" && ref.Host != r.Host {
		return fallback
	}
	out := ref.Path
	if ref.RawQuery != "" {
		out += "?" + ref.RawQuery
	}
	return out
}
