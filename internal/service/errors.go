// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import (
	"errors"
	"strings"

	"github.com/bigkaa/edi-console/internal/domain/model"
)

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrNotAllowed — действие недоступно для текущего состояния транзакции.
	ErrNotAllowed = errors.New("действие недоступно")
)

// FormError — ошибки полей формы. errors.Is(err, ErrValidation) == true.
type FormError struct {
	Fields []model.FieldError
}

func (e *FormError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *FormError) Unwrap() error {
	return ErrValidation
}

// Field возвращает сообщение для поля или "".
func (e *FormError) Field(name string) string {
	for _, f := range e.Fields {
		if f.Field == name {
			return f.Message
		}
	}
	return ""
}

// fieldError — ошибка одного поля формы.
func fieldError(field, message string) error {
	return &FormError{Fields: []model.FieldError{{Field: field, Message: message}}}
}
