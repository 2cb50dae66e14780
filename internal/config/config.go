// Пакет config — загрузка и валидация конфигурации EDI Console
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации EDI Console.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера (диапазон 1024-65535)
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- EDI backend ---

	// Origin backend (например, https://edi.example.com), без завершающего /
	BackendURL string
	// Таймаут одного запроса к backend
	BackendTimeout time.Duration
	// Лимит исходящих запросов в секунду (0 — без лимита)
	BackendRateLimit float64
	// Burst лимитера
	BackendBurst int
	// Путь к CA-сертификату backend (опционально)
	BackendCACertPath string
	// Путь проверки доступности backend для topologymetrics
	BackendHealthPath string

	// --- Сессия ---

	// Имя cookie сессии backend
	SessionCookie string
	// Имя cookie CSRF-токена backend
	CSRFCookie string
	// URL страницы входа (redirect при 401)
	LoginURL string

	// --- Кэш запросов ---

	// Максимум записей LRU
	CacheMaxEntries int
	// Жёсткий срок жизни записи
	CacheTTL time.Duration
	// Возраст, после которого запись считается устаревшей
	CacheStaleAfter time.Duration

	// --- Redis (инвалидация между экземплярами, опционально) ---

	// URL Redis (redis://host:6379/0); пусто — инвалидация только локальная
	RedisURL string
	// Канал pub/sub
	RedisChannel string

	// --- Панель администратора ---

	// Интервал автообновления панели
	DashboardRefresh time.Duration

	// --- topologymetrics ---

	// Группа зависимостей
	DephealthGroup string
	// Интервал проверки backend
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// EC_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("EC_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("EC_PORT: %w", err)
	}
	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("EC_PORT: значение %d вне допустимого диапазона 1024-65535", cfg.Port)
	}

	// EC_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("EC_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("EC_LOG_LEVEL: %w", err)
	}

	// EC_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("EC_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("EC_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- EDI backend ---

	// EC_BACKEND_URL — обязательный
	cfg.BackendURL, err = getEnvRequired("EC_BACKEND_URL")
	if err != nil {
		return nil, err
	}
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")
	if u, perr := url.Parse(cfg.BackendURL); perr != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("EC_BACKEND_URL: некорректный URL %q", cfg.BackendURL)
	}

	// EC_BACKEND_TIMEOUT — таймаут запроса (по умолчанию 30s)
	cfg.BackendTimeout, err = getEnvDuration("EC_BACKEND_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("EC_BACKEND_TIMEOUT: %w", err)
	}
	if cfg.BackendTimeout <= 0 {
		return nil, fmt.Errorf("EC_BACKEND_TIMEOUT: значение должно быть больше нуля")
	}

	// EC_BACKEND_RATE_LIMIT — запросов в секунду (по умолчанию 20)
	cfg.BackendRateLimit, err = getEnvFloat("EC_BACKEND_RATE_LIMIT", 20)
	if err != nil {
		return nil, fmt.Errorf("EC_BACKEND_RATE_LIMIT: %w", err)
	}
	if cfg.BackendRateLimit < 0 {
		return nil, fmt.Errorf("EC_BACKEND_RATE_LIMIT: отрицательное значение %v", cfg.BackendRateLimit)
	}

	// EC_BACKEND_BURST — burst лимитера (по умолчанию 40)
	cfg.BackendBurst, err = getEnvInt("EC_BACKEND_BURST", 40)
	if err != nil {
		return nil, fmt.Errorf("EC_BACKEND_BURST: %w", err)
	}
	if cfg.BackendBurst < 1 {
		return nil, fmt.Errorf("EC_BACKEND_BURST: значение %d должно быть не меньше 1", cfg.BackendBurst)
	}

	// EC_BACKEND_CA_CERT_PATH — путь к CA-сертификату (опционально)
	cfg.BackendCACertPath = getEnvDefault("EC_BACKEND_CA_CERT_PATH", "")

	// EC_BACKEND_HEALTH_PATH — путь проверки доступности (по умолчанию /login/)
	cfg.BackendHealthPath = getEnvDefault("EC_BACKEND_HEALTH_PATH", "/login/")
	if !strings.HasPrefix(cfg.BackendHealthPath, "/") {
		return nil, fmt.Errorf("EC_BACKEND_HEALTH_PATH: путь %q должен начинаться с /", cfg.BackendHealthPath)
	}

	// --- Сессия ---

	cfg.SessionCookie = getEnvDefault("EC_SESSION_COOKIE", "sessionid")
	cfg.CSRFCookie = getEnvDefault("EC_CSRF_COOKIE", "csrftoken")

	// EC_LOGIN_URL — redirect при истёкшей сессии (по умолчанию /login/)
	cfg.LoginURL = getEnvDefault("EC_LOGIN_URL", "/login/")

	// --- Кэш запросов ---

	// EC_CACHE_MAX_ENTRIES — размер LRU (по умолчанию 2048)
	cfg.CacheMaxEntries, err = getEnvInt("EC_CACHE_MAX_ENTRIES", 2048)
	if err != nil {
		return nil, fmt.Errorf("EC_CACHE_MAX_ENTRIES: %w", err)
	}
	if cfg.CacheMaxEntries < 1 || cfg.CacheMaxEntries > 1_000_000 {
		return nil, fmt.Errorf("EC_CACHE_MAX_ENTRIES: значение %d вне допустимого диапазона 1-1000000", cfg.CacheMaxEntries)
	}

	// EC_CACHE_TTL — срок жизни записи (по умолчанию 5m)
	cfg.CacheTTL, err = getEnvDuration("EC_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("EC_CACHE_TTL: %w", err)
	}

	// EC_CACHE_STALE_AFTER — окно свежести (по умолчанию 30s)
	cfg.CacheStaleAfter, err = getEnvDuration("EC_CACHE_STALE_AFTER", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("EC_CACHE_STALE_AFTER: %w", err)
	}
	if cfg.CacheTTL > 0 && cfg.CacheStaleAfter > cfg.CacheTTL {
		return nil, fmt.Errorf("EC_CACHE_STALE_AFTER: %v больше EC_CACHE_TTL %v", cfg.CacheStaleAfter, cfg.CacheTTL)
	}

	// --- Redis ---

	// EC_REDIS_URL — опционально
	cfg.RedisURL = getEnvDefault("EC_REDIS_URL", "")
	cfg.RedisChannel = getEnvDefault("EC_REDIS_CHANNEL", "edi-console:invalidate")

	// --- Панель администратора ---

	// EC_DASHBOARD_REFRESH — интервал автообновления (по умолчанию 60s)
	cfg.DashboardRefresh, err = getEnvDuration("EC_DASHBOARD_REFRESH", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("EC_DASHBOARD_REFRESH: %w", err)
	}
	if cfg.DashboardRefresh < time.Second {
		return nil, fmt.Errorf("EC_DASHBOARD_REFRESH: значение %v меньше 1s", cfg.DashboardRefresh)
	}

	// --- topologymetrics ---

	cfg.DephealthGroup = getEnvDefault("EC_DEPHEALTH_GROUP", "edi")

	// EC_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("EC_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("EC_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	// EC_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("EC_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("EC_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvFloat возвращает значение с плавающей точкой или значение по умолчанию.
func getEnvFloat(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное число: %q", val)
	}
	return f, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
