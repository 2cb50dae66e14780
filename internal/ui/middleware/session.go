// Пакет middleware — HTTP middleware для UI EDI Console.
// session.go — сессия оператора из cookie backend и redirect на вход.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/bigkaa/edi-console/internal/ediclient"
)

// contextKey — тип для ключей контекста UI.
type contextKey string

const (
	// ContextKeyClient — клиент backend, привязанный к сессии запроса.
	ContextKeyClient contextKey = "ui_client"
)

// Session — middleware, создающий клиента backend для сессии оператора.
// Cookie сессии и CSRF ставит backend при входе; консоль их только передаёт.
type Session struct {
	factory  *ediclient.Factory
	loginURL string
	logger   *slog.Logger
}

// NewSession создаёт middleware сессии.
// loginURL — страница входа backend (redirect при отсутствии или истечении сессии).
func NewSession(factory *ediclient.Factory, loginURL string, logger *slog.Logger) *Session {
	return &Session{
		factory:  factory,
		loginURL: loginURL,
		logger:   logger.With(slog.String("component", "ui_session_middleware")),
	}
}

// Middleware возвращает HTTP middleware: без cookie сессии выполняется redirect
// на вход, иначе клиент помещается в контекст.
func (s *Session) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := s.sessionFromRequest(r)
			if !ok {
				s.logger.Debug("Запрос без сессии, redirect на вход",
					slog.String("path", r.URL.Path),
					slog.String("remote_addr", r.RemoteAddr),
				)
				RedirectToLogin(w, r, s.loginURL)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyClient, s.factory.Client(sess))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoginURL возвращает адрес страницы входа.
func (s *Session) LoginURL() string {
	return s.loginURL
}

// ClearCookie удаляет cookie сессии в браузере.
func (s *Session) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.factory.SessionCookie(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// sessionFromRequest читает cookie сессии и CSRF-токена.
func (s *Session) sessionFromRequest(r *http.Request) (ediclient.Session, bool) {
	sid, err := r.Cookie(s.factory.SessionCookie())
	if err != nil || sid.Value == "" {
		return ediclient.Session{}, false
	}
	sess := ediclient.Session{SessionID: sid.Value}
	if csrf, err := r.Cookie(s.factory.CSRFCookie()); err == nil {
		sess.CSRFToken = csrf.Value
	}
	return sess, true
}

// ClientFromContext извлекает клиента backend из контекста запроса.
// Возвращает nil, если запрос не прошёл через Session middleware.
func ClientFromContext(ctx context.Context) *ediclient.Client {
	c, ok := ctx.Value(ContextKeyClient).(*ediclient.Client)
	if !ok {
		return nil
	}
	return c
}

// IsHTMX сообщает, выполнен ли запрос HTMX.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// RedirectToLogin выполняет полный переход на страницу входа с параметром next.
// Для HTMX-запросов используется заголовок HX-Redirect: частичный ответ
// не должен подставлять страницу входа во фрагмент.
func RedirectToLogin(w http.ResponseWriter, r *http.Request, loginURL string) {
	target := loginURL
	if u, err := url.Parse(loginURL); err == nil {
		q := u.Query()
		q.Set("next", r.URL.RequestURI())
		if IsHTMX(r) {
			if cur := r.Header.Get("HX-Current-URL"); cur != "" {
				if cu, err := url.Parse(cur); err == nil {
					q.Set("next", cu.RequestURI())
				}
			}
		}
		u.RawQuery = q.Encode()
		target = u.String()
	}

	if IsHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}
