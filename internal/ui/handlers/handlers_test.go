package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigkaa/edi-console/internal/ediclient"
	"github.com/bigkaa/edi-console/internal/query"
	"github.com/bigkaa/edi-console/internal/service"
	"github.com/bigkaa/edi-console/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/edi-console/internal/ui/middleware"
	"github.com/bigkaa/edi-console/internal/ui/pages/partials"
)

const loginURL = "/login/"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeBackend — заглушка EDI backend, отвечающая по путям REST API.
type fakeBackend struct {
	mu    sync.Mutex
	calls []string
	// bodies — тела запросов по "METHOD path"
	bodies map[string]string
	mux    *http.ServeMux
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{bodies: map[string]string{}, mux: http.NewServeMux()}
}

// handle регистрирует ответ на путь относительно APIBasePath.
func (b *fakeBackend) handle(pattern string, fn http.HandlerFunc) {
	method, path, _ := strings.Cut(pattern, " ")
	b.mux.HandleFunc(method+" "+ediclient.APIBasePath+path, fn)
}

func (b *fakeBackend) json(pattern string, status int, v any) {
	b.handle(pattern, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, status, v)
	})
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))
	key := r.Method + " " + strings.TrimPrefix(r.URL.Path, ediclient.APIBasePath)
	b.mu.Lock()
	b.calls = append(b.calls, key)
	b.bodies[key] = string(body)
	b.mu.Unlock()
	b.mux.ServeHTTP(w, r)
}

func (b *fakeBackend) called(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.calls {
		if c == key {
			return true
		}
	}
	return false
}

func (b *fakeBackend) body(key string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bodies[key]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// env — консоль, подключённая к заглушке backend.
type env struct {
	backend *fakeBackend
	router  chi.Router
}

func newEnv(t *testing.T) *env {
	t.Helper()
	backend := newFakeBackend()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	logger := testLogger()
	factory, err := ediclient.NewFactory(ediclient.Options{BaseURL: srv.URL, Timeout: 5 * time.Second}, logger)
	require.NoError(t, err)
	cache := query.New(query.Options{MaxEntries: 100, TTL: time.Minute}, logger)

	mailbox := NewMailboxHandler(service.NewMailboxService(cache, logger), loginURL, logger)
	admin := service.NewAdminService(cache, 4, logger)
	partners := NewPartnersHandler(admin, loginURL, logger)
	activity := NewActivityHandler(admin, loginURL, logger)
	portal := NewPortalHandler(service.NewPortalService(cache, logger), loginURL, logger)

	bundle := i18n.NewBundle(logger)
	require.NoError(t, i18n.LoadEmbedded(bundle, logger))
	lang := NewLanguageHandler(bundle, logger)
	session := uimiddleware.NewSession(factory, loginURL, logger)
	logout := NewLogoutHandler(service.NewPortalService(cache, logger), session, logger)

	r := chi.NewRouter()
	r.Post("/lang", lang.HandleSwitch)
	r.Group(func(r chi.Router) {
		r.Use(session.Middleware())
		r.Get("/admin/mailbox/{folder}", mailbox.HandleFolder)
		r.Post("/admin/transactions", mailbox.HandleCreate)
		r.Get("/admin/transactions/{id}", mailbox.HandleTransaction)
		r.Post("/admin/transactions/{id}/move", mailbox.HandleMove)
		r.Post("/admin/transactions/{id}/process", mailbox.HandleProcess)
		r.Post("/admin/transactions/{id}/permanent-delete", mailbox.HandlePermanentDelete)
		r.Get("/admin/users/{id}/edit", partners.HandleEditDialog)
		r.Post("/admin/users/{id}", partners.HandleUpdateUser)
		r.Post("/admin/users/{id}/permissions/{perm}", partners.HandleTogglePermission)
		r.Get("/admin/activity/export", activity.HandleExport)
		r.Post("/partner-portal/upload", portal.HandleUpload)
		r.Post("/partner-portal/logout", logout.HandlePortal)
	})
	return &env{backend: backend, router: r}
}

// do выполняет запрос оператора с cookie сессии.
func (e *env) do(r *http.Request) *httptest.ResponseRecorder {
	r.AddCookie(&http.Cookie{Name: ediclient.DefaultSessionCookie, Value: "sess-1"})
	r.AddCookie(&http.Cookie{Name: ediclient.DefaultCSRFCookie, Value: "csrf-1"})
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, r)
	return rec
}

func htmx(r *http.Request, target string) *http.Request {
	r.Header.Set("HX-Request", "true")
	if target != "" {
		r.Header.Set("HX-Target", target)
	}
	return r
}

func postForm(path string, form url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func transaction(id, folder string) map[string]any {
	return map[string]any{
		"id": id, "filename": "po-" + id + ".edi", "folder": folder,
		"partner_name": "Acme", "document_type": "850", "status": "ready",
	}
}

func (e *env) mailboxReferences() {
	e.backend.json("GET /folders/", http.StatusOK, map[string]any{"folders": []any{}})
	e.backend.json("GET /partners/", http.StatusOK, map[string]any{"partners": []any{}})
	e.backend.json("GET /document-types/", http.StatusOK, map[string]any{"document_types": []any{}})
}

func TestHandleFolder_FullPageAndGridFragment(t *testing.T) {
	e := newEnv(t)
	e.mailboxReferences()
	e.backend.json("GET /transactions/inbox/", http.StatusOK, map[string]any{
		"transactions": []any{transaction("t1", "inbox")},
		"pagination":   map[string]any{"page": 1, "total_pages": 1, "total_count": 1},
	})

	full := e.do(httptest.NewRequest(http.MethodGet, "/admin/mailbox/inbox", nil))
	require.Equal(t, http.StatusOK, full.Code)
	assert.Contains(t, full.Body.String(), "<html")
	assert.Contains(t, full.Body.String(), "po-t1.edi")
	assert.True(t, e.backend.called("GET /folders/"), "полная страница загружает счётчики папок")

	grid := e.do(htmx(httptest.NewRequest(http.MethodGet, "/admin/mailbox/inbox", nil), gridTarget))
	require.Equal(t, http.StatusOK, grid.Code)
	assert.NotContains(t, grid.Body.String(), "<html", "HTMX получает только сетку")
	assert.True(t, strings.HasPrefix(grid.Body.String(), `<section id="tx-grid"`))
}

func TestHandleFolder_UnknownFolder(t *testing.T) {
	e := newEnv(t)
	rec := e.do(httptest.NewRequest(http.MethodGet, "/admin/mailbox/archive", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleFolder_NoSessionRedirects(t *testing.T) {
	e := newEnv(t)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/mailbox/inbox", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), loginURL))
}

func TestHandleTransaction_ExpiredSessionRedirects(t *testing.T) {
	e := newEnv(t)
	e.backend.json("GET /transaction/t1/", http.StatusUnauthorized, map[string]any{"error": "Authentication required"})
	e.backend.json("GET /transaction/t1/validate/", http.StatusUnauthorized, map[string]any{"error": "Authentication required"})

	rec := e.do(htmx(httptest.NewRequest(http.MethodGet, "/admin/transactions/t1", nil), ""))
	assert.Contains(t, rec.Header().Get("HX-Redirect"), loginURL)
}

func TestHandleTransaction_ValidationUnavailableKeepsActions(t *testing.T) {
	e := newEnv(t)
	e.backend.json("GET /transaction/t1/", http.StatusOK, map[string]any{"transaction": transaction("t1", "outbox")})
	e.backend.json("GET /transaction/t1/validate/", http.StatusInternalServerError, map[string]any{"error": "boom"})

	rec := e.do(httptest.NewRequest(http.MethodGet, "/admin/transactions/t1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	html := rec.Body.String()
	assert.Contains(t, html, `hx-post="/admin/transactions/t1/process"`)
	assert.Contains(t, html, `id="tx-detail"`)
}

func TestHandleCreate_EmptyFolderGoesToInbox(t *testing.T) {
	e := newEnv(t)
	e.backend.json("POST /transaction/create/", http.StatusOK, map[string]any{
		"success": true, "transaction": transaction("t9", "inbox"),
	})

	form := url.Values{"partner_name": {"Acme"}, "document_type": {"850"}}
	rec := e.do(htmx(postForm("/admin/transactions", form), ""))

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "/admin/transactions/t9", rec.Header().Get("HX-Redirect"))
	assert.JSONEq(t, `{"folder":"inbox","partner_name":"Acme","document_type":"850"}`,
		e.backend.body("POST /transaction/create/"))
}

func TestHandleMove_TriggersMailboxChanged(t *testing.T) {
	e := newEnv(t)
	e.backend.json("POST /transaction/t1/move/", http.StatusOK, map[string]any{
		"success": true, "transaction": transaction("t1", "outbox"),
	})

	rec := e.do(htmx(postForm("/admin/transactions/t1/move", url.Values{"target_folder": {"outbox"}}), partials.FlashID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, partials.MailboxChangedEvent, rec.Header().Get(hxTrigger))
	assert.Contains(t, rec.Body.String(), "alert-success")
	assert.JSONEq(t, `{"target_folder":"outbox"}`, e.backend.body("POST /transaction/t1/move/"))
}

func TestHandleMove_UnknownFolderNotSent(t *testing.T) {
	e := newEnv(t)
	rec := e.do(htmx(postForm("/admin/transactions/t1/move", url.Values{"target_folder": {"archive"}}), partials.FlashID))
	assert.Equal(t, http.StatusOK, rec.Code, "HTMX получает ошибку со статусом 200")
	assert.Contains(t, rec.Body.String(), "alert-error")
	assert.Empty(t, rec.Header().Get(hxTrigger))
	assert.False(t, e.backend.called("POST /transaction/t1/move/"))
}

func TestHandleProcess_ShowsFieldErrors(t *testing.T) {
	e := newEnv(t)
	e.backend.json("POST /transaction/t1/process/", http.StatusBadRequest, map[string]any{
		"error":             "Document has validation errors",
		"validation_errors": []any{map[string]any{"field": "BEG03", "message": "PO number is required"}},
	})

	rec := e.do(htmx(postForm("/admin/transactions/t1/process", nil), partials.FlashID))
	require.Equal(t, http.StatusOK, rec.Code)
	html := rec.Body.String()
	assert.Contains(t, html, "Document has validation errors")
	assert.Contains(t, html, "BEG03")
	assert.Contains(t, html, "PO number is required")
	assert.Empty(t, rec.Header().Get(hxTrigger), "неудачная мутация не обновляет страницу")
}

func TestHandlePermanentDelete_OnlyFromDeleted(t *testing.T) {
	e := newEnv(t)
	e.backend.json("GET /transaction/t1/", http.StatusOK, map[string]any{"transaction": transaction("t1", "inbox")})

	rec := e.do(htmx(postForm("/admin/transactions/t1/permanent-delete", nil), partials.FlashID))
	assert.Contains(t, rec.Body.String(), "alert-error")
	assert.False(t, e.backend.called("POST /transaction/t1/permanent-delete/"))
}

func TestHandlePermanentDelete_RedirectsToDeleted(t *testing.T) {
	e := newEnv(t)
	e.backend.json("GET /transaction/t2/", http.StatusOK, map[string]any{"transaction": transaction("t2", "deleted")})
	e.backend.json("POST /transaction/t2/permanent-delete/", http.StatusOK, map[string]any{"success": true, "transaction_id": "t2"})

	rec := e.do(htmx(postForm("/admin/transactions/t2/permanent-delete", nil), partials.FlashID))
	assert.Equal(t, "/admin/mailbox/deleted", rec.Header().Get(hxRedirect))
}

func TestHandleTogglePermission(t *testing.T) {
	form := url.Values{
		partials.PartnerIDField:   {"p1"},
		"can_view_transactions":   {"true"},
		"can_upload_files":        {"false"},
		"can_download_files":      {"true"},
		"can_view_reports":        {"false"},
		"can_manage_settings":     {"false"},
	}

	t.Run("подтверждённые права", func(t *testing.T) {
		e := newEnv(t)
		e.backend.json("PUT /admin/users/7/permissions", http.StatusOK, map[string]any{
			"permissions": map[string]bool{"can_upload_files": true},
		})
		e.backend.json("GET /admin/partners/p1/users", http.StatusOK, map[string]any{
			"users": []any{map[string]any{"id": 7, "username": "buyer"}},
		})

		rec := e.do(htmx(postForm("/admin/users/7/permissions/can_upload_files", form), "perm-7"))
		require.Equal(t, http.StatusOK, rec.Code)
		html := rec.Body.String()
		assert.Contains(t, html, `id="perm-7"`)
		assert.Contains(t, html, "buyer")
		assert.Contains(t, html, "&#34;can_upload_files&#34;:&#34;true&#34;")
		assert.JSONEq(t, `{"can_upload_files":true}`, e.backend.body("PUT /admin/users/7/permissions"))
	})

	t.Run("ошибка сохраняет прежнее состояние", func(t *testing.T) {
		e := newEnv(t)
		e.backend.json("PUT /admin/users/7/permissions", http.StatusForbidden, map[string]any{"error": "Admin access required"})
		e.backend.json("GET /admin/partners/p1/users", http.StatusOK, map[string]any{"users": []any{}})

		rec := e.do(htmx(postForm("/admin/users/7/permissions/can_upload_files", form), "perm-7"))
		html := rec.Body.String()
		assert.Contains(t, html, "&#34;can_upload_files&#34;:&#34;false&#34;")
		assert.Contains(t, html, "alert-error")
	})
}

func TestHandleEditDialog(t *testing.T) {
	e := newEnv(t)
	e.backend.json("GET /admin/partners/p1/users", http.StatusOK, map[string]any{
		"users": []any{map[string]any{"id": 7, "username": "buyer", "email": "buyer@acme.test", "role": "partner_user", "is_active": true}},
	})

	rec := e.do(htmx(httptest.NewRequest(http.MethodGet, "/admin/users/7/edit?partner_id=p1", nil), "dialog"))
	require.Equal(t, http.StatusOK, rec.Code)
	html := rec.Body.String()
	assert.Contains(t, html, `hx-post="/admin/users/7"`)
	assert.Contains(t, html, `value="buyer@acme.test"`)
	assert.Contains(t, html, `name="is_active" checked`)

	rec = e.do(htmx(httptest.NewRequest(http.MethodGet, "/admin/users/8/edit?partner_id=p1", nil), "dialog"))
	assert.Contains(t, rec.Body.String(), "alert-error", "неизвестный пользователь")
}

func TestHandleUpdateUser(t *testing.T) {
	form := url.Values{
		partials.PartnerIDField: {"p1"},
		"email":                 {"new@acme.test"},
		"first_name":            {"Ann"},
		"role":                  {"partner_admin"},
	}

	t.Run("строка перерисовывается", func(t *testing.T) {
		e := newEnv(t)
		e.backend.json("PUT /admin/users/7", http.StatusOK, map[string]any{
			"user": map[string]any{"id": 7, "username": "buyer", "email": "new@acme.test", "role": "partner_admin"},
		})

		rec := e.do(htmx(postForm("/admin/users/7", form), "dialog"))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "#perm-7", rec.Header().Get("HX-Retarget"))
		assert.Equal(t, "closeDialog", rec.Header().Get("HX-Trigger"))
		assert.Contains(t, rec.Body.String(), `id="perm-7"`)
		assert.Contains(t, rec.Body.String(), "new@acme.test")
		assert.JSONEq(t,
			`{"email":"new@acme.test","first_name":"Ann","role":"partner_admin","is_active":false}`,
			e.backend.body("PUT /admin/users/7"))
	})

	t.Run("ошибка формы без обращения к backend", func(t *testing.T) {
		e := newEnv(t)
		bad := url.Values{partials.PartnerIDField: {"p1"}, "email": {"not-an-email"}, "is_active": {"true"}}

		rec := e.do(htmx(postForm("/admin/users/7", bad), "dialog"))
		require.Equal(t, http.StatusOK, rec.Code)
		html := rec.Body.String()
		assert.Contains(t, html, `hx-post="/admin/users/7"`)
		assert.Contains(t, html, `value="not-an-email"`)
		assert.Contains(t, html, "alert-error")
		assert.Empty(t, rec.Header().Get("HX-Retarget"))
		assert.False(t, e.backend.called("PUT /admin/users/7"))
	})
}

func TestHandleExport_StreamsCSV(t *testing.T) {
	e := newEnv(t)
	e.backend.handle("GET /admin/activity-logs/export", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "login", r.URL.Query().Get("action"))
		assert.Empty(t, r.URL.Query().Get("page"))
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="logs.csv"`)
		_, _ = io.WriteString(w, "timestamp,user\n2024-01-01,admin\n")
	})

	rec := e.do(httptest.NewRequest(http.MethodGet, "/admin/activity/export?action=login&page=3", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "logs.csv")
	assert.Equal(t, "timestamp,user\n2024-01-01,admin\n", rec.Body.String())
}

func TestHandleUpload_RejectsExtensionLocally(t *testing.T) {
	e := newEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "invoice.exe")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("MZ"))
	require.NoError(t, mw.WriteField("document_type", "810"))
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/partner-portal/upload", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	rec := e.do(htmx(r, "upload-form"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="upload-form"`)
	assert.Contains(t, rec.Body.String(), "alert-error")
	assert.False(t, e.backend.called("POST /partner-portal/files/upload"))
}

func TestHandlePortalLogout(t *testing.T) {
	t.Run("сессия закрывается на backend", func(t *testing.T) {
		e := newEnv(t)
		e.backend.json("POST /partner-portal/auth/logout", http.StatusOK, map[string]any{"success": true})

		rec := e.do(htmx(httptest.NewRequest(http.MethodPost, "/partner-portal/logout", nil), ""))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, loginURL, rec.Header().Get("HX-Redirect"))
		assert.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0")
		assert.True(t, e.backend.called("POST /partner-portal/auth/logout"))
	})

	t.Run("ошибка backend не мешает выходу", func(t *testing.T) {
		e := newEnv(t)
		e.backend.json("POST /partner-portal/auth/logout", http.StatusInternalServerError, map[string]any{"error": "boom"})

		rec := e.do(httptest.NewRequest(http.MethodPost, "/partner-portal/logout", nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, loginURL, rec.Header().Get("Location"))
	})
}

func TestHandleSwitchLanguage(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name     string
		lang     string
		referer  string
		wantLang string
		wantLoc  string
	}{
		{"локальный referer", "ru", "http://example.com/admin/partners?page=2", "ru", "/admin/partners?page=2"},
		{"чужой хост", "en", "http://evil.example.org/phish", "en", "/admin/"},
		{"неизвестный язык", "de", "", i18n.DefaultLang, "/admin/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := postForm("/lang", url.Values{"lang": {tt.lang}})
			r.Host = "example.com"
			if tt.referer != "" {
				r.Header.Set("Referer", tt.referer)
			}
			rec := httptest.NewRecorder()
			e.router.ServeHTTP(rec, r)

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.wantLoc, rec.Header().Get("Location"))
			cookies := rec.Result().Cookies()
			require.Len(t, cookies, 1)
			assert.Equal(t, i18n.LangCookieName, cookies[0].Name)
			assert.Equal(t, tt.wantLang, cookies[0].Value)
		})
	}
}

func TestDashboardSend_FramesEveryLine(t *testing.T) {
	h := NewDashboardHandler(nil, time.Minute, loginURL, testLogger())
	rec := httptest.NewRecorder()
	rc := http.NewResponseController(rec)

	c := partials.Alert(partials.AlertInfo, "line")
	require.NoError(t, h.send(t.Context(), rec, rc, c))

	out := rec.Body.String()
	assert.True(t, strings.HasPrefix(out, "event: "+partials.DashboardEvent+"\n"))
	assert.True(t, strings.HasSuffix(out, "\n\n"))
	for _, line := range strings.Split(strings.TrimSuffix(out, "\n\n"), "\n")[1:] {
		assert.True(t, strings.HasPrefix(line, "data: "), "строка %q без data:", line)
	}
	assert.True(t, rec.Flushed)
}

func TestParseDays(t *testing.T) {
	tests := map[string]int{"": defaultDays, "7": 7, "0": defaultDays, "366": defaultDays, "abc": defaultDays, "365": 365}
	for in, want := range tests {
		r := httptest.NewRequest(http.MethodGet, "/admin/?days="+url.QueryEscape(in), nil)
		assert.Equal(t, want, parseDays(r), "days=%q", in)
	}
}
