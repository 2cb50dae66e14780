package ediclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigkaa/edi-console/internal/domain/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

var testSession = Session{SessionID: "sess-123", CSRFToken: "csrf-abc"}

// newTestClient поднимает mock backend и возвращает клиента для testSession.
func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...func(*Options)) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	o := Options{BaseURL: server.URL + "/"}
	for _, fn := range opts {
		fn(&o)
	}
	f, err := NewFactory(o, testLogger())
	require.NoError(t, err)
	return f.Client(testSession)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewFactory_InvalidURL(t *testing.T) {
	_, err := NewFactory(Options{BaseURL: "edi.local"}, testLogger())
	assert.Error(t, err)
}

func TestSessionScope(t *testing.T) {
	a := Session{SessionID: "a"}.Scope()
	assert.Equal(t, a, Session{SessionID: "a", CSRFToken: "x"}.Scope(), "scope зависит только от сессии")
	assert.NotEqual(t, a, Session{SessionID: "b"}.Scope())
	assert.NotContains(t, testSession.Scope(), testSession.SessionID, "scope не раскрывает cookie")
	assert.Equal(t, "anonymous", Session{}.Scope())
}

func TestClient_SessionCookiesAndCSRF(t *testing.T) {
	var gotGet, gotPost *http.Request
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			gotGet = r.Clone(context.Background())
			writeJSON(w, http.StatusOK, map[string]any{"folders": []any{}})
		case http.MethodPost:
			gotPost = r.Clone(context.Background())
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
		}
	})

	_, err := c.ListFolders(context.Background())
	require.NoError(t, err)
	_, err = c.SendTransaction(context.Background(), "42")
	require.NoError(t, err)

	require.NotNil(t, gotGet)
	assert.Equal(t, "/modern-edi/api/v1/folders/", gotGet.URL.Path)
	sid, err := gotGet.Cookie(DefaultSessionCookie)
	require.NoError(t, err)
	assert.Equal(t, "sess-123", sid.Value)
	assert.Empty(t, gotGet.Header.Get(CSRFHeader), "CSRF-заголовок только для изменяющих запросов")
	assert.NotEmpty(t, gotGet.Header.Get(RequestIDHeader))

	require.NotNil(t, gotPost)
	assert.Equal(t, "/modern-edi/api/v1/transaction/42/send/", gotPost.URL.Path)
	assert.Equal(t, "csrf-abc", gotPost.Header.Get(CSRFHeader))
	csrf, err := gotPost.Cookie(DefaultCSRFCookie)
	require.NoError(t, err)
	assert.Equal(t, "csrf-abc", csrf.Value)
	assert.NotEmpty(t, gotPost.Header.Get("Referer"))
}

func TestClient_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		target  error
		message string
	}{
		{"401 — сессия истекла", http.StatusUnauthorized, `{"error":"Not authenticated"}`, ErrUnauthorized, "Not authenticated"},
		{"403 — нет прав", http.StatusForbidden, `{"error":"Admin access required"}`, ErrForbidden, "Admin access required"},
		{"429 — лимит", http.StatusTooManyRequests, `{"error":"slow down"}`, ErrRateLimited, "slow down"},
		{"404", http.StatusNotFound, `{"error":"Transaction not found"}`, ErrNotFound, "Transaction not found"},
		{"500 без JSON", http.StatusInternalServerError, `<html>oops</html>`, nil, "<html>oops</html>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.GetTransaction(context.Background(), "42")
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.message, apiErr.Message)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			assert.NotErrorIs(t, err, ErrTransport)
			assert.NotErrorIs(t, err, ErrTimeout)
		})
	}
}

func TestNewAPIError_TruncatesOnRuneBoundary(t *testing.T) {
	body := strings.Repeat("ошибка ", 100)
	resp := &http.Response{StatusCode: http.StatusBadGateway, Body: io.NopCloser(strings.NewReader(body))}

	apiErr := newAPIError(resp)
	assert.True(t, utf8.ValidString(apiErr.Message), "сообщение остаётся корректным UTF-8")
	assert.Equal(t, maxMessageRunes, utf8.RuneCountInString(apiErr.Message))
	assert.True(t, strings.HasPrefix(body, apiErr.Message))

	resp = &http.Response{StatusCode: http.StatusBadGateway, Body: io.NopCloser(strings.NewReader("сбой\xff"))}
	assert.Equal(t, "сбой", newAPIError(resp).Message)
}

func TestClient_NoRetry(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "Rate limit exceeded"})
	})

	_, err := c.ListFolders(context.Background())
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 1, calls, "ошибка возвращается один раз, без повторов")
}

func TestClient_Timeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}, func(o *Options) { o.Timeout = 50 * time.Millisecond })

	_, err := c.ListFolders(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr), "таймаут отличается от ошибки сервера")
}

func TestClient_CallerTimeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := c.ListPartners(ctx)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	f, err := NewFactory(Options{BaseURL: url}, testLogger())
	require.NoError(t, err)

	_, err = f.Client(testSession).ListFolders(context.Background())
	assert.ErrorIs(t, err, ErrTransport)
}

func TestClient_RateLimiterHonoursContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"partners": []any{}})
	}, func(o *Options) {
		o.RateLimit = 0.01
		o.Burst = 1
	})

	_, err := c.ListPartners(context.Background())
	require.NoError(t, err, "первый запрос проходит в пределах burst")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.ListPartners(ctx)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestListTransactions_Folder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/modern-edi/api/v1/transactions/inbox/", r.URL.Path)
		assert.Equal(t, "ACME", r.URL.Query().Get("partner"))
		assert.Equal(t, "850", r.URL.Query().Get("document_type"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"transactions": []map[string]any{
				{"id": "42", "folder": "inbox", "partner_name": "ACME", "document_type": "850", "status": "draft"},
			},
			"pagination": map[string]any{"page": 2, "page_size": 50, "total_pages": 2, "total_count": 51, "has_next": false, "has_previous": true},
		})
	})

	inbox := model.FolderInbox
	list, err := c.ListTransactions(context.Background(), model.TransactionFilter{
		Folder: &inbox, Partner: "ACME", DocumentType: "850", Page: 2,
	})
	require.NoError(t, err)
	require.Len(t, list.Transactions, 1)
	assert.True(t, list.Contains("42"))
	assert.Equal(t, 51, list.Pagination.TotalCount)
}

func TestListTransactions_AllFolders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/modern-edi/api/v1/transactions/", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"transactions": []any{}})
	})
	_, err := c.ListTransactions(context.Background(), model.TransactionFilter{})
	require.NoError(t, err)
}

func TestMoveTransaction(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/modern-edi/api/v1/transaction/42/move/", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "received", body["target_folder"])
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true, "message": "Transaction moved to received",
			"transaction": map[string]any{"id": "42", "folder": "received"},
		})
	})

	res, err := c.MoveTransaction(context.Background(), "42", model.FolderReceived)
	require.NoError(t, err)
	assert.Equal(t, model.FolderReceived, res.Transaction.Folder)

	_, err = c.MoveTransaction(context.Background(), "42", model.Folder(17))
	assert.ErrorIs(t, err, model.ErrUnknownFolder)
}

func TestProcessTransaction_ValidationErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":             "Transaction validation failed",
			"validation_errors": []map[string]string{{"field": "po_number", "message": "required"}},
		})
	})

	_, err := c.ProcessTransaction(context.Background(), "42")
	require.Error(t, err)
	fields := ValidationErrors(err)
	require.Len(t, fields, 1)
	assert.Equal(t, "po_number", fields[0].Field)
}

func TestEmptyIDNotSent(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { calls++ })

	_, err := c.GetTransaction(context.Background(), "")
	assert.ErrorIs(t, err, errEmptyID)
	_, err = c.TransactionHistory(context.Background(), "")
	assert.ErrorIs(t, err, errEmptyID)
	assert.Zero(t, calls)
}

func TestValidateTransaction(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/modern-edi/api/v1/transaction/42/validate/", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"transaction_id": "42",
			"validation":     map[string]any{"valid": false, "errors": []map[string]string{{"field": "isa", "message": "bad"}}},
			"acknowledgment_errors": []map[string]string{{"field": "ak5", "message": "rejected", "severity": "error"}},
			"has_errors":            true,
		})
	})

	v, err := c.ValidateTransaction(context.Background(), "42")
	require.NoError(t, err, "ошибки валидации — успешный ответ")
	assert.True(t, v.HasErrors)
	assert.Equal(t, 2, v.ErrorCount())
}

func TestUpdateUserPermissions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/modern-edi/api/v1/admin/users/7/permissions", r.URL.Path)
		var body map[string]bool
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]bool{"can_upload_files": true}, body)
		writeJSON(w, http.StatusOK, map[string]any{
			"success":     true,
			"permissions": map[string]bool{"can_upload_files": true, "can_view_transactions": true},
		})
	})

	perms, err := c.UpdateUserPermissions(context.Background(), 7, model.Permissions{model.PermUploadFiles: true})
	require.NoError(t, err)
	assert.True(t, perms[model.PermUploadFiles])
	assert.True(t, perms[model.PermViewTransactions])
}

func TestActivityLogs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/modern-edi/api/v1/admin/activity-logs", r.URL.Path)
		assert.Equal(t, "action=login&page=2&user_type=admin", r.URL.RawQuery)
		writeJSON(w, http.StatusOK, map[string]any{
			"logs": []map[string]any{
				{"id": 101, "user_type": "admin", "user_name": "root", "action": "login", "timestamp": "2024-03-01T10:00:00+00:00"},
			},
			"pagination": map[string]any{"page": 2, "per_page": 50, "total": 51, "pages": 2, "has_previous": true},
		})
	})

	page, err := c.ActivityLogs(context.Background(), model.ActivityLogFilter{
		UserType: model.UserTypeAdmin, Action: "login", Page: 2,
	})
	require.NoError(t, err)
	require.Len(t, page.Logs, 1)
	assert.Equal(t, 2, page.Pagination.Page)
}

func TestExportActivityLogs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("page"), "экспорт без пагинации")
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="activity_logs.csv"`)
		_, _ = io.WriteString(w, "Timestamp,User\n")
	})

	d, err := c.ExportActivityLogs(context.Background(), model.ActivityLogFilter{Page: 3})
	require.NoError(t, err)
	defer d.Body.Close()
	assert.Equal(t, "activity_logs.csv", d.Filename)
	body, _ := io.ReadAll(d.Body)
	assert.Equal(t, "Timestamp,User\n", string(body))
}

func TestUploadFile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/modern-edi/api/v1/partner-portal/files/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "850", r.FormValue("document_type"))
		assert.Equal(t, "PO-9", r.FormValue("po_number"))
		file, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "order.edi", hdr.Filename)
		content, _ := io.ReadAll(file)
		assert.Equal(t, "ISA*00~", string(content))
		writeJSON(w, http.StatusOK, map[string]any{
			"success":     true,
			"transaction": map[string]any{"id": "t-1", "filename": "order.edi", "document_type": "850"},
		})
	})

	res, err := c.UploadFile(context.Background(), Upload{
		Filename: "order.edi", Content: strings.NewReader("ISA*00~"),
		DocumentType: "850", PONumber: "PO-9",
	})
	require.NoError(t, err)
	assert.Equal(t, "t-1", res.ID)
}

func TestBulkDownload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string][]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"a", "b"}, body["transaction_ids"])
		w.Header().Set("Content-Type", "application/zip")
		_, _ = io.WriteString(w, "PK")
	})

	d, err := c.BulkDownload(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	defer d.Body.Close()
	assert.Equal(t, "edi_files.zip", d.Filename, "имя по умолчанию")
	assert.Equal(t, "application/zip", d.ContentType)

	_, err = c.BulkDownload(context.Background(), nil)
	assert.Error(t, err)
}

func TestClient_RequestIDFromContext(t *testing.T) {
	var got string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(RequestIDHeader)
		writeJSON(w, http.StatusOK, map[string]any{"folders": []any{}})
	})

	ctx := WithRequestID(context.Background(), "req-1")
	_, err := c.ListFolders(ctx)
	require.NoError(t, err)
	assert.Equal(t, "req-1", got)
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
}
