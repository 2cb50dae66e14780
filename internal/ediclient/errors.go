// errors.go — таксономия ошибок обращения к EDI backend.
package ediclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/bigkaa/edi-console/internal/domain/model"
)

var (
	// ErrTransport — сетевая ошибка: backend недоступен, обрыв соединения.
	ErrTransport = errors.New("backend недоступен")
	// ErrTimeout — истёк таймаут запроса (собственный или заданный вызывающим).
	ErrTimeout = errors.New("истёк таймаут запроса к backend")
	// ErrUnauthorized — 401, сессия истекла. UI выполняет redirect на login.
	ErrUnauthorized = errors.New("сессия истекла, требуется вход")
	// ErrForbidden — 403, недостаточно прав.
	ErrForbidden = errors.New("доступ запрещён")
	// ErrRateLimited — 429, превышен лимит запросов backend.
	ErrRateLimited = errors.New("превышен лимит запросов")
	// ErrNotFound — 404.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrConflict — 409, конкурирующее изменение.
	ErrConflict = errors.New("конфликт изменений")
)

// maxErrorBody — сколько байт тела ошибки читается для разбора {error}.
const maxErrorBody = 64 << 10

// maxMessageRunes — длина сообщения из тела ошибки без JSON.
const maxMessageRunes = 200

// APIError — ответ backend с кодом не 2xx.
// errors.Is сопоставляет статус с ErrUnauthorized, ErrForbidden и т.д.
type APIError struct {
	// Status — HTTP-статус ответа
	Status int
	// Message — поле error из тела ответа (или тело целиком)
	Message string
	// ValidationErrors — ошибки полей (process с невалидным документом)
	ValidationErrors []model.FieldError
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend вернул статус %d", e.Status)
	}
	return fmt.Sprintf("backend вернул статус %d: %s", e.Status, e.Message)
}

// Is связывает статус ответа с ошибками-маркерами пакета.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrConflict:
		return e.Status == http.StatusConflict
	}
	return false
}

// errorPayload — формат тела ошибки backend.
type errorPayload struct {
	Error            string             `json:"error"`
	Message          string             `json:"message"`
	ValidationErrors []model.FieldError `json:"validation_errors"`
}

// newAPIError читает тело ответа и строит APIError.
// Тело, не являющееся JSON, попадает в Message как есть (обрезанным).
func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Message = payload.Error
		if apiErr.Message == "" {
			apiErr.Message = payload.Message
		}
		apiErr.ValidationErrors = payload.ValidationErrors
		return apiErr
	}

	// Тело без JSON (страница прокси и т.п.) обрезается по границе символа
	text := strings.ToValidUTF8(strings.TrimSpace(string(body)), "")
	if runes := []rune(text); len(runes) > maxMessageRunes {
		text = string(runes[:maxMessageRunes])
	}
	apiErr.Message = text
	return apiErr
}

// classifyTransport переводит ошибку http.Client в таксономию пакета.
// Отмена контекста вызывающим возвращается без изменений.
func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

// ValidationErrors извлекает ошибки полей из ошибки backend, если они есть.
func ValidationErrors(err error) []model.FieldError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ValidationErrors
	}
	return nil
}
