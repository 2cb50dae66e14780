// csrf.go — проверка CSRF для изменяющих запросов (double-submit cookie).
package middleware

import (
	"crypto/subtle"
	"log/slog"
	"mime"
	"net/http"

	"github.com/bigkaa/edi-console/internal/ediclient"
)

// CSRFFormField — имя скрытого поля формы с CSRF-токеном.
const CSRFFormField = "csrfmiddlewaretoken"

// CSRF — middleware, требующий совпадения токена из cookie с заголовком
// X-CSRFToken или полем формы. Безопасные методы пропускаются без проверки.
// Тело multipart/form-data здесь не разбирается, такие формы (загрузка файлов)
// отправляются через HTMX с заголовком.
// Cookie ставит backend при входе, тем же токеном консоль подписывает
// свои запросы к backend.
func CSRF(cookieName string, logger *slog.Logger) func(http.Handler) http.Handler {
	log := logger.With(slog.String("component", "ui_csrf_middleware"))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if safeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				log.Warn("Изменяющий запрос без CSRF cookie",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				http.Error(w, "CSRF cookie не найден", http.StatusForbidden)
				return
			}

			token := r.Header.Get(ediclient.CSRFHeader)
			if token == "" && !isMultipart(r) {
				token = r.PostFormValue(CSRFFormField)
			}
			if subtle.ConstantTimeCompare([]byte(token), []byte(cookie.Value)) != 1 {
				log.Warn("CSRF-токен не совпадает",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("remote_addr", r.RemoteAddr),
				)
				http.Error(w, "Некорректный CSRF-токен", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func safeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}
