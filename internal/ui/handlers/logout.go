// logout.go — выход из консоли и портала партнёра.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/bigkaa/edi-console/internal/ediclient"
	"github.com/bigkaa/edi-console/internal/service"
	uimiddleware "github.com/bigkaa/edi-console/internal/ui/middleware"
)

// LogoutHandler — выход: cookie сессии удаляется, браузер уходит на вход.
type LogoutHandler struct {
	base
	portal  *service.PortalService
	session *uimiddleware.Session
}

// NewLogoutHandler создаёт обработчик выхода.
func NewLogoutHandler(portal *service.PortalService, session *uimiddleware.Session, logger *slog.Logger) *LogoutHandler {
	return &LogoutHandler{
		base:    newBase(session.LoginURL(), logger, "ui.logout"),
		portal:  portal,
		session: session,
	}
}

// HandleAdmin обрабатывает POST /admin/logout.
func (h *LogoutHandler) HandleAdmin(w http.ResponseWriter, r *http.Request) {
	h.finish(w, r)
}

// HandlePortal обрабатывает POST /partner-portal/logout.
// Сессия партнёра закрывается на backend; недоступный backend выход не блокирует.
func (h *LogoutHandler) HandlePortal(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	if err := h.portal.Logout(r.Context(), api); err != nil && !errors.Is(err, ediclient.ErrUnauthorized) {
		h.logger.Warn("Ошибка выхода на backend",
			slog.String("error", err.Error()),
		)
	}
	h.finish(w, r)
}

// finish удаляет cookie сессии и переводит на страницу входа.
func (h *LogoutHandler) finish(w http.ResponseWriter, r *http.Request) {
	h.session.ClearCookie(w)
	if uimiddleware.IsHTMX(r) {
		w.Header().Set(hxRedirect, h.loginURL)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, h.loginURL, http.StatusSeeOther)
}
