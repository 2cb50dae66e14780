package model

// Ограничения загрузки файлов через портал партнёра.
const (
	// MaxUploadSize — максимальный размер файла (10 МБ).
	MaxUploadSize = 10 << 20
)

// UploadExtensions — допустимые расширения загружаемых файлов.
var UploadExtensions = []string{".edi", ".x12", ".txt", ".xml"}

// PortalPartner — партнёр текущего пользователя портала.
type PortalPartner struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	PartnerID string `json:"partner_id"`
}

// PortalTransaction — транзакция в списке портала.
// Status в портале — имя папки, Direction — sent или received.
type PortalTransaction struct {
	ID                   string    `json:"id"`
	Date                 Timestamp `json:"date"`
	Type                 string    `json:"type"`
	PONumber             string    `json:"po_number"`
	Status               string    `json:"status"`
	Direction            string    `json:"direction"`
	Filename             string    `json:"filename,omitempty"`
	AcknowledgmentStatus AckStatus `json:"acknowledgment_status,omitempty"`
}

// PortalDashboard — ответ partner-portal/dashboard/metrics.
type PortalDashboard struct {
	Metrics            PartnerAnalytics    `json:"metrics"`
	RecentTransactions []PortalTransaction `json:"recent_transactions"`
	Partner            PortalPartner       `json:"partner"`
	PeriodDays         int                 `json:"period_days"`
}

// PortalTransactionList — страница транзакций портала.
type PortalTransactionList struct {
	Transactions []PortalTransaction `json:"transactions"`
	Pagination   PagePagination      `json:"pagination"`
}

// PortalTransactionDetail — транзакция портала с содержимым и журналом.
type PortalTransactionDetail struct {
	ID                    string         `json:"id"`
	Folder                Folder         `json:"folder"`
	PartnerName           string         `json:"partner_name"`
	DocumentType          string         `json:"document_type"`
	PONumber              string         `json:"po_number"`
	Filename              string         `json:"filename"`
	FileSize              int64          `json:"file_size"`
	FileContent           string         `json:"file_content"`
	CreatedAt             Timestamp      `json:"created_at"`
	ModifiedAt            Timestamp      `json:"modified_at"`
	SentAt                Timestamp      `json:"sent_at"`
	ReceivedAt            Timestamp      `json:"received_at"`
	AcknowledgmentStatus  AckStatus      `json:"acknowledgment_status"`
	AcknowledgmentMessage string         `json:"acknowledgment_message"`
	Metadata              map[string]any `json:"metadata"`
	History               []HistoryEntry `json:"history"`
}

// UploadResult — транзакция, созданная загрузкой файла.
type UploadResult struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	DocumentType string `json:"document_type"`
	PONumber     string `json:"po_number"`
}

// DownloadableFile — файл, доступный партнёру для скачивания.
type DownloadableFile struct {
	ID            string    `json:"id"`
	Filename      string    `json:"filename"`
	DocumentType  string    `json:"document_type"`
	Date          Timestamp `json:"date"`
	Size          int64     `json:"size"`
	Folder        Folder    `json:"folder"`
	Downloaded    bool      `json:"downloaded"`
	DownloadCount int       `json:"download_count"`
}

// PortalPartnerProfile — контактные данные партнёра в настройках.
type PortalPartnerProfile struct {
	ID                  string              `json:"id"`
	PartnerID           string              `json:"partner_id"`
	Name                string              `json:"name"`
	ContactName         string              `json:"contact_name"`
	ContactEmail        string              `json:"contact_email"`
	ContactPhone        string              `json:"contact_phone"`
	CommunicationMethod CommunicationMethod `json:"communication_method"`
}

// ChannelState — состояние настроенного канала (SFTP или API).
type ChannelState struct {
	Host     string    `json:"host,omitempty"`
	Port     int       `json:"port,omitempty"`
	Username string    `json:"username,omitempty"`
	BaseURL  string    `json:"base_url,omitempty"`
	Status   string    `json:"status"`
	LastTest Timestamp `json:"last_test"`
}

// PortalSettings — ответ partner-portal/settings.
type PortalSettings struct {
	Partner    PortalPartnerProfile `json:"partner"`
	SFTPConfig *ChannelState        `json:"sftp_config"`
	APIConfig  *ChannelState        `json:"api_config"`
}

// ContactUpdate — тело PUT settings/contact.
type ContactUpdate struct {
	ContactName  string `json:"contact_name" validate:"max=255"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email"`
	ContactPhone string `json:"contact_phone" validate:"max=50"`
}

// ChannelTest — результат проверки одного канала.
type ChannelTest struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
