package model

// Status — статус обработки транзакции.
type Status string

const (
	StatusDraft        Status = "draft"
	StatusReady        Status = "ready"
	StatusProcessing   Status = "processing"
	StatusSent         Status = "sent"
	StatusAcknowledged Status = "acknowledged"
	StatusFailed       Status = "failed"
)

// Statuses — все статусы в порядке отображения в фильтрах.
var Statuses = []Status{
	StatusDraft, StatusReady, StatusProcessing,
	StatusSent, StatusAcknowledged, StatusFailed,
}

// AckStatus — статус подтверждения (997/999) от партнёра.
type AckStatus string

const (
	AckAccepted AckStatus = "accepted"
	AckRejected AckStatus = "rejected"
	AckPending  AckStatus = "pending"
)

// Transaction — EDI-транзакция в почтовом ящике.
// Детальный ответ (GET /transaction/{id}/) дополнительно заполняет
// FilePath, ContentHash, Metadata, CreatedBy и флаг IsMovable.
type Transaction struct {
	// ID — UUID транзакции (выдаётся backend)
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	Folder       Folder `json:"folder"`
	PartnerName  string `json:"partner_name"`
	PartnerID    string `json:"partner_id"`
	DocumentType string `json:"document_type"`
	PONumber     string `json:"po_number"`
	Status       Status `json:"status"`
	// FileSize — размер файла в байтах
	FileSize    int64  `json:"file_size"`
	FilePath    string `json:"file_path,omitempty"`
	ContentHash string `json:"content_hash,omitempty"`
	// Metadata — произвольные пары ключ/значение
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedBy string         `json:"created_by,omitempty"`
	BotsTAID  *int64         `json:"bots_ta_id,omitempty"`

	CreatedAt      Timestamp `json:"created_at"`
	ModifiedAt     Timestamp `json:"modified_at"`
	SentAt         Timestamp `json:"sent_at"`
	ReceivedAt     Timestamp `json:"received_at"`
	AcknowledgedAt Timestamp `json:"acknowledged_at"`
	DeletedAt      Timestamp `json:"deleted_at"`

	AcknowledgmentStatus  AckStatus `json:"acknowledgment_status"`
	AcknowledgmentMessage string    `json:"acknowledgment_message,omitempty"`

	// IsEditable — редактирование разрешено (inbox/outbox)
	IsEditable bool `json:"is_editable"`
	// IsSendable — отправка разрешена (outbox с draft/ready/failed)
	IsSendable bool `json:"is_sendable"`
	IsMovable  bool `json:"is_movable"`
}

// Pagination — «страничная» часть ответа списка транзакций.
type Pagination struct {
	Page        int  `json:"page"`
	PageSize    int  `json:"page_size"`
	TotalPages  int  `json:"total_pages"`
	TotalCount  int  `json:"total_count"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// TransactionList — страница транзакций.
type TransactionList struct {
	Transactions []Transaction `json:"transactions"`
	Pagination   Pagination    `json:"pagination"`
}

// Contains сообщает, есть ли на странице транзакция с указанным ID.
func (l *TransactionList) Contains(id string) bool {
	if l == nil {
		return false
	}
	for i := range l.Transactions {
		if l.Transactions[i].ID == id {
			return true
		}
	}
	return false
}

// TransactionInput — тело запросов create и update.
// Для create обязательны PartnerName и DocumentType; пустая Folder
// при создании заменяется на inbox.
type TransactionInput struct {
	Folder       string         `json:"folder,omitempty" validate:"omitempty,oneof=inbox outbox"`
	PartnerName  string         `json:"partner_name,omitempty" validate:"required,max=255"`
	PartnerID    string         `json:"partner_id,omitempty" validate:"max=100"`
	DocumentType string         `json:"document_type,omitempty" validate:"required,max=50"`
	PONumber     string         `json:"po_number,omitempty" validate:"max=100"`
	Filename     string         `json:"filename,omitempty" validate:"max=255"`
	Status       Status         `json:"status,omitempty" validate:"omitempty,oneof=draft ready processing sent acknowledged failed"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// MutationResult — ответ мутирующих операций: {success, message, transaction}.
type MutationResult struct {
	Success     bool        `json:"success"`
	Message     string      `json:"message"`
	Transaction Transaction `json:"transaction"`
}

// PermanentDeleteResult — ответ permanent-delete.
type PermanentDeleteResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	TransactionID string `json:"transaction_id"`
}

// HistoryEntry — запись журнала транзакции (ведётся backend, только чтение).
type HistoryEntry struct {
	ID         int64          `json:"id"`
	Action     string         `json:"action"`
	FromFolder string         `json:"from_folder"`
	ToFolder   string         `json:"to_folder"`
	User       string         `json:"user"`
	Timestamp  Timestamp      `json:"timestamp"`
	Details    map[string]any `json:"details"`
}

// RawContent — исходное содержимое EDI-файла.
type RawContent struct {
	TransactionID string `json:"transaction_id"`
	Filename      string `json:"filename"`
	Content       string `json:"content"`
	FileSize      int64  `json:"file_size"`
	ContentHash   string `json:"content_hash"`
}

// DocumentType — тип EDI-документа (810, 850, 856...).
type DocumentType struct {
	Code             string `json:"code"`
	Name             string `json:"name"`
	TransactionCount int    `json:"transaction_count"`
}
