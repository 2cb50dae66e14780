// Пакет ediclient — HTTP-клиент EDI backend (/modern-edi/api/v1).
// Клиент привязан к сессии оператора: cookie сессии и CSRF-токен
// передаются явно при создании, глобального состояния сессии нет.
// Ошибки: ErrUnauthorized (401), ErrForbidden (403), ErrRateLimited (429),
// ErrTimeout, ErrTransport и *APIError для прочих статусов. Повторов нет.
package ediclient

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

// APIBasePath — базовый путь REST API backend.
const APIBasePath = "/modern-edi/api/v1"

// Имена cookie и заголовков Django по умолчанию.
const (
	DefaultSessionCookie = "sessionid"
	DefaultCSRFCookie    = "csrftoken"
	CSRFHeader           = "X-CSRFToken"
	RequestIDHeader      = "X-Request-ID"
)

var (
	backendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ec_backend_requests_total",
			Help: "Количество запросов к EDI backend",
		},
		[]string{"method", "status"},
	)
	backendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ec_backend_request_duration_seconds",
			Help:    "Длительность запросов к EDI backend в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

// Session — учётные данные оператора, полученные из cookie браузера.
type Session struct {
	// SessionID — значение cookie sessionid
	SessionID string
	// CSRFToken — значение cookie csrftoken
	CSRFToken string
}

// Scope возвращает необратимый идентификатор сессии для разделения кэша.
func (s Session) Scope() string {
	if s.SessionID == "" {
		return "anonymous"
	}
	sum := sha256.Sum256([]byte(s.SessionID))
	return hex.EncodeToString(sum[:12])
}

// Options — параметры фабрики клиентов.
type Options struct {
	// BaseURL — origin backend (https://edi.example.com)
	BaseURL string
	// Timeout — таймаут одного JSON-запроса (0 — без таймаута)
	Timeout time.Duration
	// RateLimit — исходящих запросов в секунду на процесс (0 — без ограничения)
	RateLimit float64
	// Burst — размер всплеска для RateLimit
	Burst int
	// CACertPath — путь к CA-сертификату backend (опционально)
	CACertPath string
	// SessionCookie и CSRFCookie — имена cookie (по умолчанию Django)
	SessionCookie string
	CSRFCookie    string
	// HTTPClient — транспорт (для тестов); если nil, создаётся по CACertPath
	HTTPClient *http.Client
}

// Factory создаёт клиентов, привязанных к сессиям.
// Транспорт и лимитер запросов общие для всех сессий.
type Factory struct {
	baseURL       string
	httpClient    *http.Client
	limiter       *rate.Limiter
	timeout       time.Duration
	sessionCookie string
	csrfCookie    string
	logger        *slog.Logger
}

// NewFactory создаёт фабрику клиентов backend.
func NewFactory(opts Options, logger *slog.Logger) (*Factory, error) {
	base := strings.TrimRight(opts.BaseURL, "/")
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("некорректный адрес backend %q", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
		if opts.CACertPath != "" {
			tlsConfig, err := buildTLSConfig(opts.CACertPath)
			if err != nil {
				return nil, fmt.Errorf("загрузка CA-сертификата backend: %w", err)
			}
			httpClient.Transport = &http.Transport{TLSClientConfig: tlsConfig}
			logger.Info("CA-сертификат backend добавлен в пул доверия",
				slog.String("ca_cert", opts.CACertPath),
			)
		}
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	f := &Factory{
		baseURL:       base,
		httpClient:    httpClient,
		limiter:       limiter,
		timeout:       opts.Timeout,
		sessionCookie: opts.SessionCookie,
		csrfCookie:    opts.CSRFCookie,
		logger:        logger.With(slog.String("component", "edi_client")),
	}
	if f.sessionCookie == "" {
		f.sessionCookie = DefaultSessionCookie
	}
	if f.csrfCookie == "" {
		f.csrfCookie = DefaultCSRFCookie
	}
	return f, nil
}

// BaseURL возвращает origin backend без завершающего слэша.
func (f *Factory) BaseURL() string {
	return f.baseURL
}

// SessionCookie возвращает имя cookie сессии.
func (f *Factory) SessionCookie() string {
	return f.sessionCookie
}

// CSRFCookie возвращает имя CSRF cookie.
func (f *Factory) CSRFCookie() string {
	return f.csrfCookie
}

// Client возвращает клиента, действующего от имени сессии.
func (f *Factory) Client(sess Session) *Client {
	return &Client{f: f, session: sess}
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	caCertPool.AppendCertsFromPEM(caCert)

	return &tls.Config{RootCAs: caCertPool}, nil
}

// Client — клиент backend от имени одной сессии.
type Client struct {
	f       *Factory
	session Session
}

// Scope — идентификатор сессии для разделения кэша.
func (c *Client) Scope() string {
	return c.session.Scope()
}

// Download — потоковый ответ с файлом. Body закрывает вызывающий.
type Download struct {
	Filename      string
	ContentType   string
	ContentLength int64
	Body          io.ReadCloser
}

// doJSON выполняет запрос с JSON-телом in и декодирует ответ в out.
// in и out могут быть nil.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	if in == nil {
		return c.doBody(ctx, method, path, query, nil, "", out)
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("кодирование тела %s %s: %w", method, path, err)
	}
	return c.doBody(ctx, method, path, query, bytes.NewReader(payload), "application/json", out)
}

// doBody выполняет запрос с готовым телом и декодирует JSON-ответ в out.
// Действует таймаут фабрики.
func (c *Client) doBody(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	if c.f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.f.timeout)
		defer cancel()
	}

	resp, err := c.send(ctx, method, path, query, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return classifyTransport(ctxErr)
		}
		return fmt.Errorf("декодирование ответа %s %s: %w", method, path, err)
	}
	return nil
}

// doStream выполняет запрос и возвращает тело ответа без буферизации.
// Для потоков действует только контекст вызывающего.
func (c *Client) doStream(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*Download, error) {
	resp, err := c.send(ctx, method, path, query, body, contentType)
	if err != nil {
		return nil, err
	}

	d := &Download{
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
		Body:          resp.Body,
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			d.Filename = params["filename"]
		}
	}
	return d, nil
}

// send строит запрос, ждёт лимитер, выполняет его и проверяет статус.
// При успехе тело ответа закрывает вызывающий.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, path, query, body, contentType)
	if err != nil {
		return nil, err
	}

	if c.f.limiter != nil {
		if err := c.f.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, classifyTransport(ctxErr)
			}
			return nil, fmt.Errorf("%w: ожидание лимита запросов: %v", ErrTimeout, err)
		}
	}

	start := time.Now()
	resp, err := c.f.httpClient.Do(req)
	backendRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		backendRequestsTotal.WithLabelValues(method, "error").Inc()
		c.f.logger.Debug("Ошибка запроса к backend",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, classifyTransport(err)
	}
	backendRequestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	apiErr := newAPIError(resp)
	switch resp.StatusCode {
	case http.StatusForbidden:
		c.f.logger.Warn("Backend отказал в доступе",
			slog.String("path", path),
			slog.String("error", apiErr.Message),
		)
	case http.StatusTooManyRequests:
		c.f.logger.Warn("Backend ограничил частоту запросов",
			slog.String("path", path),
			slog.String("error", apiErr.Message),
		)
	}
	return nil, apiErr
}

// newRequest собирает запрос: cookie сессии, CSRF для изменяющих методов,
// идентификатор запроса.
func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Request, error) {
	reqURL := c.f.baseURL + APIBasePath + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("создание запроса %s %s: %w", method, path, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID(ctx))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if c.session.SessionID != "" {
		req.AddCookie(&http.Cookie{Name: c.f.sessionCookie, Value: c.session.SessionID})
	}
	if c.session.CSRFToken != "" {
		req.AddCookie(&http.Cookie{Name: c.f.csrfCookie, Value: c.session.CSRFToken})
		if isUnsafe(method) {
			req.Header.Set(CSRFHeader, c.session.CSRFToken)
			// Django проверяет Referer для HTTPS-запросов с CSRF.
			req.Header.Set("Referer", c.f.baseURL+"/")
		}
	}
	return req, nil
}

// isUnsafe — методы, изменяющие состояние и требующие CSRF-токена.
func isUnsafe(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// escape экранирует сегмент пути (идентификаторы приходят от пользователя).
func escape(segment string) string {
	return url.PathEscape(segment)
}

// jsonBody кодирует значение в тело запроса.
func jsonBody(v any) (io.Reader, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("кодирование тела: %w", err)
	}
	return bytes.NewReader(payload), nil
}
