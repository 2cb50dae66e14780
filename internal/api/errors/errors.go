// Пакет errors — ответы с ошибками для машинных endpoints EDI Console.
// Единый формат: {"error": {"code": "...", "message": "..."}}.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/bigkaa/edi-console/internal/ediclient"
)

// Коды ошибок.
const (
	CodeValidationError    = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeConflict           = "CONFLICT"
	CodeRateLimited        = "RATE_LIMITED"
	CodeBackendTimeout     = "BACKEND_TIMEOUT"
	CodeBackendUnavailable = "BACKEND_UNAVAILABLE"
	CodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	CodeInternalError      = "INTERNAL_ERROR"
)

// errorBody — структура тела ответа ошибки.
type errorBody struct {
	Error errorDetail `json:"error"`
}

// errorDetail — детали ошибки.
type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError записывает ответ ошибки в стандартном формате.
// statusCode — HTTP статус-код, code — машиночитаемый код, message — описание.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// Classify сопоставляет ошибку обращения к backend с HTTP-статусом и кодом.
func Classify(err error) (int, string) {
	var apiErr *ediclient.APIError
	switch {
	case stderrors.Is(err, ediclient.ErrUnauthorized):
		return http.StatusUnauthorized, CodeUnauthorized
	case stderrors.Is(err, ediclient.ErrForbidden):
		return http.StatusForbidden, CodeForbidden
	case stderrors.Is(err, ediclient.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case stderrors.Is(err, ediclient.ErrConflict):
		return http.StatusConflict, CodeConflict
	case stderrors.Is(err, ediclient.ErrRateLimited):
		return http.StatusTooManyRequests, CodeRateLimited
	case stderrors.Is(err, ediclient.ErrTimeout):
		return http.StatusGatewayTimeout, CodeBackendTimeout
	case stderrors.Is(err, ediclient.ErrTransport):
		return http.StatusBadGateway, CodeBackendUnavailable
	case stderrors.As(err, &apiErr):
		if apiErr.Status == http.StatusBadRequest {
			return http.StatusBadRequest, CodeValidationError
		}
		return http.StatusBadGateway, CodeBackendUnavailable
	}
	return http.StatusInternalServerError, CodeInternalError
}

// FromBackend записывает ошибку обращения к backend.
func FromBackend(w http.ResponseWriter, err error) {
	status, code := Classify(err)
	WriteError(w, status, code, err.Error())
}

// --- Конструкторы для типичных ошибок ---

// ValidationError — 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// Unauthorized — 401 требуется аутентификация.
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, CodeUnauthorized, message)
}

// MethodNotAllowed — 405 метод не поддерживается.
func MethodNotAllowed(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message)
}
