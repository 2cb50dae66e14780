package model

// FieldError — ошибка валидации конкретного поля.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AckError — ошибка из функционального подтверждения партнёра.
type AckError struct {
	Field    string `json:"field"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// Validation — результат проверки документа.
type Validation struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors"`
}

// ValidationResult — ответ GET /transaction/{id}/validate/.
// Ошибки валидации — обычный успешный ответ, а не HTTP-ошибка.
type ValidationResult struct {
	TransactionID        string     `json:"transaction_id"`
	Validation           Validation `json:"validation"`
	AcknowledgmentErrors []AckError `json:"acknowledgment_errors"`
	HasErrors            bool       `json:"has_errors"`
}

// ErrorCount возвращает общее количество ошибок валидации и подтверждения.
func (v *ValidationResult) ErrorCount() int {
	if v == nil {
		return 0
	}
	return len(v.Validation.Errors) + len(v.AcknowledgmentErrors)
}
