package model

// CommunicationMethod — канал обмена с партнёром.
type CommunicationMethod string

const (
	CommSFTP   CommunicationMethod = "sftp"
	CommAPI    CommunicationMethod = "api"
	CommBoth   CommunicationMethod = "both"
	CommManual CommunicationMethod = "manual"
)

// PartnerStatus — статус партнёра.
type PartnerStatus string

const (
	PartnerActive    PartnerStatus = "active"
	PartnerInactive  PartnerStatus = "inactive"
	PartnerSuspended PartnerStatus = "suspended"
	PartnerTesting   PartnerStatus = "testing"
)

// PartnerStatuses — все статусы партнёра для фильтров.
var PartnerStatuses = []PartnerStatus{PartnerActive, PartnerInactive, PartnerSuspended, PartnerTesting}

// Partner — торговый партнёр из справочника (GET /partners/).
type Partner struct {
	// ID — UUID партнёра
	ID string `json:"id"`
	// PartnerID — бизнес-идентификатор (например, PARTNER001)
	PartnerID           string              `json:"partner_id"`
	Name                string              `json:"name"`
	CommunicationMethod CommunicationMethod `json:"communication_method"`
	Status              PartnerStatus       `json:"status"`
	TransactionCount    int                 `json:"transaction_count"`
	LastActivity        Timestamp           `json:"last_activity"`
}

// AdminPartner — партнёр в административном списке.
type AdminPartner struct {
	ID                  string              `json:"id"`
	PartnerID           string              `json:"partner_id"`
	Name                string              `json:"name"`
	DisplayName         string              `json:"display_name"`
	Status              PartnerStatus       `json:"status"`
	CommunicationMethod CommunicationMethod `json:"communication_method"`
	ContactEmail        string              `json:"contact_email"`
	ContactName         string              `json:"contact_name"`
	CreatedAt           Timestamp           `json:"created_at"`
}

// PagePagination — пагинация административных списков (per_page/total/pages).
type PagePagination struct {
	Page        int  `json:"page"`
	PerPage     int  `json:"per_page"`
	Total       int  `json:"total"`
	Pages       int  `json:"pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// AdminPartnerList — страница административного списка партнёров.
type AdminPartnerList struct {
	Partners   []AdminPartner `json:"partners"`
	Pagination PagePagination `json:"pagination"`
}

// PartnerAnalytics — сводка по транзакциям партнёра.
type PartnerAnalytics struct {
	TotalTransactions int             `json:"total_transactions"`
	Sent              int             `json:"sent"`
	Received          int             `json:"received"`
	Pending           int             `json:"pending"`
	Errors            int             `json:"errors"`
	DocumentTypes     []DocumentCount `json:"document_types"`
}

// SFTPConfig — настройки SFTP-канала партнёра.
// Password передаётся только при создании/изменении и не возвращается backend.
type SFTPConfig struct {
	Host                string `json:"host" validate:"required,hostname|ip"`
	Port                int    `json:"port" validate:"required,min=1,max=65535"`
	Username            string `json:"username" validate:"required"`
	AuthMethod          string `json:"auth_method" validate:"required,oneof=password key both"`
	Password            string `json:"password,omitempty"`
	PrivateKeyPath      string `json:"private_key_path,omitempty"`
	InboundDirectory    string `json:"inbound_directory" validate:"required"`
	OutboundDirectory   string `json:"outbound_directory" validate:"required"`
	ArchiveDirectory    string `json:"archive_directory,omitempty"`
	InboundFilePattern  string `json:"inbound_file_pattern,omitempty"`
	OutboundFilePattern string `json:"outbound_file_pattern,omitempty"`
	Timeout             int    `json:"timeout,omitempty" validate:"omitempty,min=1,max=600"`
	PassiveMode         bool   `json:"passive_mode"`
	PollEnabled         bool   `json:"poll_enabled"`
	PollInterval        int    `json:"poll_interval,omitempty" validate:"omitempty,min=30"`
}

// SFTPConfigState — ответ GET sftp-config: конфигурации может не быть.
type SFTPConfigState struct {
	HasConfig bool        `json:"has_config"`
	Config    *SFTPConfig `json:"config"`
}

// ConnectionTestResult — результат проверки соединения.
// Состав полей зависит от канала, поэтому Details остаётся свободным.
type ConnectionTestResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
