package model

// DashboardMetrics — сводные показатели административной панели.
type DashboardMetrics struct {
	TotalPartners     int     `json:"total_partners"`
	TotalTransactions int     `json:"total_transactions"`
	SuccessRate       float64 `json:"success_rate"`
	ErrorRate         float64 `json:"error_rate"`
	TotalSent         int     `json:"total_sent"`
	Acknowledged      int     `json:"acknowledged"`
	Failed            int     `json:"failed"`
	Pending           int     `json:"pending"`
}

// DashboardMetricsResult — ответ dashboard/metrics.
type DashboardMetricsResult struct {
	Metrics    DashboardMetrics `json:"metrics"`
	PeriodDays int              `json:"period_days"`
}

// VolumePoint — количество транзакций за день.
type VolumePoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// TopPartner — партнёр с наибольшим числом транзакций.
type TopPartner struct {
	PartnerID        string `json:"partner_id"`
	PartnerName      string `json:"partner_name"`
	TransactionCount int    `json:"transaction_count"`
}

// RecentError — последняя ошибка обработки.
type RecentError struct {
	ID           string    `json:"id"`
	PartnerName  string    `json:"partner_name"`
	DocumentType string    `json:"document_type"`
	ErrorType    string    `json:"error_type"`
	ErrorMessage string    `json:"error_message"`
	Timestamp    Timestamp `json:"timestamp"`
}

// SystemStatus — состояние подсистем backend (healthy, error).
type SystemStatus struct {
	Database    string `json:"database"`
	APIServices string `json:"api_services"`
	SFTPPolling string `json:"sftp_polling"`
	// RecentActivity — были ли транзакции за последний час
	RecentActivity bool `json:"recent_activity"`
	// StuckTransactions — транзакции в outbox старше суток
	StuckTransactions int `json:"stuck_transactions"`
}

// DashboardCharts — данные для графиков административной панели.
type DashboardCharts struct {
	TransactionVolume []VolumePoint `json:"transaction_volume"`
	TopPartners       []TopPartner  `json:"top_partners"`
	RecentErrors      []RecentError `json:"recent_errors"`
	SystemStatus      SystemStatus  `json:"system_status"`
}

// ProcessingTime — среднее время обработки транзакций.
type ProcessingTime struct {
	AverageSeconds float64 `json:"average_seconds"`
	AverageMinutes float64 `json:"average_minutes"`
	SampleSize     int     `json:"sample_size"`
}

// TransactionAnalytics — analytics/transactions.
type TransactionAnalytics struct {
	TransactionVolume []VolumePoint  `json:"transaction_volume"`
	ProcessingTime    ProcessingTime `json:"processing_time"`
}

// PartnerSuccessRate — доля успешных транзакций партнёра.
type PartnerSuccessRate struct {
	PartnerID    string  `json:"partner_id"`
	PartnerName  string  `json:"partner_name"`
	Total        int     `json:"total"`
	Acknowledged int     `json:"acknowledged"`
	Failed       int     `json:"failed"`
	SuccessRate  float64 `json:"success_rate"`
}

// PartnerAnalyticsSummary — ответ analytics/partners.
type PartnerAnalyticsSummary struct {
	SuccessRates []PartnerSuccessRate `json:"success_rates"`
	TopPartners  []TopPartner         `json:"top_partners"`
}

// DocumentCount — количество документов одного типа.
type DocumentCount struct {
	DocumentType string `json:"document_type"`
	Count        int    `json:"count"`
}

// HeatmapCell — активность по дню недели (Monday..Sunday) и часу.
type HeatmapCell struct {
	Day   string `json:"day"`
	Hour  int    `json:"hour"`
	Count int    `json:"count"`
}

// DocumentAnalytics — ответ analytics/documents.
type DocumentAnalytics struct {
	DocumentBreakdown []DocumentCount `json:"document_breakdown"`
	ActivityHeatmap   []HeatmapCell   `json:"activity_heatmap"`
}
