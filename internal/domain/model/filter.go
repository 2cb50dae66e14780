package model

import (
	"net/url"
	"strconv"
)

// Значения пагинации по умолчанию (совпадают с backend).
const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// TransactionFilter — параметры списка и поиска транзакций.
// Folder == nil — все папки.
type TransactionFilter struct {
	Folder       *Folder
	Partner      string
	DocumentType string
	Status       Status
	Search       string
	DateFrom     string
	DateTo       string
	Page         int
	PageSize     int
}

// Values сериализует фильтр в query-параметры, пропуская пустые поля.
// Папка в параметры не входит: она задаётся путём /transactions/{folder}/.
func (f TransactionFilter) Values() url.Values {
	v := url.Values{}
	setNonEmpty(v, "partner", f.Partner)
	setNonEmpty(v, "document_type", f.DocumentType)
	setNonEmpty(v, "status", string(f.Status))
	setNonEmpty(v, "search", f.Search)
	setNonEmpty(v, "date_from", f.DateFrom)
	setNonEmpty(v, "date_to", f.DateTo)
	setPage(v, "page", f.Page)
	if f.PageSize > 0 && f.PageSize != DefaultPageSize {
		v.Set("page_size", strconv.Itoa(min(f.PageSize, MaxPageSize)))
	}
	return v
}

// WithoutPage возвращает копию фильтра без номера страницы — «критерии»
// выборки, изменение которых сбрасывает пагинацию.
func (f TransactionFilter) WithoutPage() TransactionFilter {
	f.Page = 0
	return f
}

// FolderName возвращает имя папки фильтра или пустую строку.
func (f TransactionFilter) FolderName() string {
	if f.Folder == nil {
		return ""
	}
	return f.Folder.String()
}

// PartnerFilter — параметры административного списка партнёров.
type PartnerFilter struct {
	Search  string
	Status  PartnerStatus
	Page    int
	PerPage int
}

// Values сериализует фильтр в query-параметры.
func (f PartnerFilter) Values() url.Values {
	v := url.Values{}
	setNonEmpty(v, "search", f.Search)
	setNonEmpty(v, "status", string(f.Status))
	setPage(v, "page", f.Page)
	setPage(v, "per_page", f.PerPage)
	return v
}

// WithoutPage возвращает критерии фильтра без страницы.
func (f PartnerFilter) WithoutPage() PartnerFilter {
	f.Page = 0
	return f
}

// ActivityLogFilter — параметры журнала активности.
type ActivityLogFilter struct {
	Search   string
	UserType UserType
	Action   string
	DateFrom string
	DateTo   string
	Page     int
	PerPage  int
}

// Values сериализует фильтр в query-параметры.
func (f ActivityLogFilter) Values() url.Values {
	v := url.Values{}
	setNonEmpty(v, "search", f.Search)
	setNonEmpty(v, "user_type", string(f.UserType))
	setNonEmpty(v, "action", f.Action)
	setNonEmpty(v, "date_from", f.DateFrom)
	setNonEmpty(v, "date_to", f.DateTo)
	setPage(v, "page", f.Page)
	setPage(v, "per_page", f.PerPage)
	return v
}

// WithoutPage возвращает критерии фильтра без страницы.
func (f ActivityLogFilter) WithoutPage() ActivityLogFilter {
	f.Page = 0
	return f
}

// PortalTransactionFilter — параметры списка транзакций портала.
type PortalTransactionFilter struct {
	Search  string
	Status  string
	Type    string
	Page    int
	PerPage int
}

// Values сериализует фильтр в query-параметры.
func (f PortalTransactionFilter) Values() url.Values {
	v := url.Values{}
	setNonEmpty(v, "search", f.Search)
	setNonEmpty(v, "status", f.Status)
	setNonEmpty(v, "type", f.Type)
	setPage(v, "page", f.Page)
	setPage(v, "per_page", f.PerPage)
	return v
}

// WithoutPage возвращает критерии фильтра без страницы.
func (f PortalTransactionFilter) WithoutPage() PortalTransactionFilter {
	f.Page = 0
	return f
}

func setNonEmpty(v url.Values, key, val string) {
	if val != "" {
		v.Set(key, val)
	}
}

// setPage пишет номер страницы, только если он больше 1 (или задан размер).
func setPage(v url.Values, key string, n int) {
	if key == "page" && n <= 1 {
		return
	}
	if n > 0 {
		v.Set(key, strconv.Itoa(n))
	}
}
