// Пакет query — кэш запросов к backend: дедупликация одинаковых
// запросов, фоновое обновление устаревших данных, инвалидация по ресурсу.
package query

import (
	"net/url"
	"strings"
)

// Ресурсы кэша. Мутации инвалидируют их по имени.
const (
	ResourceTransactions  = "transactions"
	ResourceTransaction   = "transaction"
	ResourceFolders       = "folders"
	ResourceFolderStats   = "folder_stats"
	ResourceValidation    = "validation"
	ResourceHistory       = "history"
	ResourceRaw           = "raw"
	ResourcePartners      = "partners"
	ResourceDocumentTypes = "document_types"
	ResourceDashboard     = "dashboard"
	ResourceAdminPartners = "admin_partners"
	ResourcePartnerUsers  = "partner_users"
	ResourceAnalytics     = "analytics"
	ResourceActivityLogs  = "activity_logs"
	ResourceSFTPConfig    = "sftp_config"
	ResourcePortal        = "portal"
)

// Key — идентификатор запроса в кэше.
type Key struct {
	// Scope — идентификатор сессии; данные разных сессий не смешиваются
	Scope string
	// Resource — тип ресурса (ResourceTransactions, ...)
	Resource string
	// ID — идентификатор сущности (для списков пустой)
	ID string
	// Sub — уточнение внутри ресурса (имя папки, подраздел)
	Sub string
	// Params — параметры запроса (фильтры, пагинация)
	Params url.Values
}

// String возвращает каноническую форму ключа.
// url.Values.Encode сортирует параметры, поэтому одинаковые
// параметры в любом порядке дают один ключ.
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(k.Scope)
	b.WriteByte('|')
	b.WriteString(k.Resource)
	b.WriteByte('|')
	b.WriteString(k.ID)
	b.WriteByte('|')
	b.WriteString(k.Sub)
	if len(k.Params) > 0 {
		b.WriteByte('?')
		b.WriteString(k.Params.Encode())
	}
	return b.String()
}
