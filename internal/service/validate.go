// validate.go — проверка форм через go-playground/validator.
package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bigkaa/edi-console/internal/domain/model"
)

var validate = newValidator()

// newValidator создаёт валидатор, который называет поля по json-тегам.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateInput проверяет структуру и возвращает *FormError.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	fe := &FormError{Fields: make([]model.FieldError, 0, len(verrs))}
	for _, e := range verrs {
		fe.Fields = append(fe.Fields, model.FieldError{
			Field:   e.Field(),
			Message: validationMessage(e),
		})
	}
	return fe
}

// validationMessage — сообщение для пользователя по тегу правила.
func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "Обязательное поле"
	case "email":
		return "Некорректный email"
	case "hostname|ip":
		return "Некорректный адрес хоста"
	case "min":
		if e.Kind() == reflect.String {
			return "Минимум " + e.Param() + " символов"
		}
		return "Не меньше " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Максимум " + e.Param() + " символов"
		}
		return "Не больше " + e.Param()
	case "oneof":
		return "Допустимые значения: " + e.Param()
	default:
		return "Некорректное значение"
	}
}
