package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/bigkaa/edi-console/internal/ediclient"
)

func csrfHandler(called *bool) http.Handler {
	return CSRF("csrftoken", slog.New(slog.NewTextHandler(io.Discard, nil)))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*called = true
		}))
}

func TestCSRF_SafeMethodPasses(t *testing.T) {
	var called bool
	rec := httptest.NewRecorder()
	csrfHandler(&called).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/", nil))
	if !called || rec.Code != http.StatusOK {
		t.Errorf("GET должен проходить без токена, статус %d", rec.Code)
	}
}

func TestCSRF_Unsafe(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		header string
		form   string
		want   int
	}{
		{"без cookie", "", "abc", "", http.StatusForbidden},
		{"без токена", "abc", "", "", http.StatusForbidden},
		{"чужой токен", "abc", "xyz", "", http.StatusForbidden},
		{"заголовок", "abc", "abc", "", http.StatusOK},
		{"поле формы", "abc", "", "abc", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			body := url.Values{}
			if tt.form != "" {
				body.Set(CSRFFormField, tt.form)
			}
			req := httptest.NewRequest(http.MethodPost, "/admin/transactions/1/send", strings.NewReader(body.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "csrftoken", Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set(ediclient.CSRFHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			csrfHandler(&called).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("статус = %d, ожидается %d", rec.Code, tt.want)
			}
			if called != (tt.want == http.StatusOK) {
				t.Errorf("обработчик вызван = %v", called)
			}
		})
	}
}

// Токен из поля multipart-формы не принимается: тело загрузки
// не читается до проверки размера в обработчике.
func TestCSRF_MultipartRequiresHeader(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField(CSRFFormField, "abc"); err != nil {
		t.Fatalf("WriteField: %v", err)
	}
	fw, err := mw.CreateFormFile("file", "po.edi")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	_, _ = fw.Write([]byte("ISA*00*"))
	if err := mw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	size := buf.Len()

	var called bool
	req := httptest.NewRequest(http.MethodPost, "/partner-portal/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(&http.Cookie{Name: "csrftoken", Value: "abc"})
	rec := httptest.NewRecorder()
	csrfHandler(&called).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden || called {
		t.Errorf("статус = %d, обработчик вызван = %v", rec.Code, called)
	}
	if buf.Len() != size {
		t.Errorf("тело прочитано: осталось %d из %d байт", buf.Len(), size)
	}

	called = false
	req = httptest.NewRequest(http.MethodPost, "/partner-portal/upload", strings.NewReader("--x--"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	req.Header.Set(ediclient.CSRFHeader, "abc")
	req.AddCookie(&http.Cookie{Name: "csrftoken", Value: "abc"})
	rec = httptest.NewRecorder()
	csrfHandler(&called).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !called {
		t.Errorf("с заголовком: статус = %d, обработчик вызван = %v", rec.Code, called)
	}
}
