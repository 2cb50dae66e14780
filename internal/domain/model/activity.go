package model

// UserType — тип субъекта записи журнала активности.
type UserType string

const (
	UserTypeAdmin   UserType = "admin"
	UserTypePartner UserType = "partner"
)

// ActivityActions — действия, по которым фильтруется журнал.
var ActivityActions = []string{
	"login", "logout", "file_upload", "file_download", "transaction_view",
	"user_created", "user_updated", "user_deleted", "password_reset",
	"permissions_updated", "settings_updated", "sftp_config_updated",
}

// ActivityLogEntry — запись журнала активности (только чтение).
type ActivityLogEntry struct {
	ID           int64          `json:"id"`
	Timestamp    Timestamp      `json:"timestamp"`
	UserType     UserType       `json:"user_type"`
	UserID       int64          `json:"user_id"`
	UserName     string         `json:"user_name"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	Details      map[string]any `json:"details"`
	IPAddress    string         `json:"ip_address"`
}

// ActivityLogPage — страница журнала активности.
type ActivityLogPage struct {
	Logs       []ActivityLogEntry `json:"logs"`
	Pagination PagePagination     `json:"pagination"`
}
