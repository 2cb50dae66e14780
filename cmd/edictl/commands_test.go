package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bigkaa/edi-console/internal/ediclient"
)

type recordedRequest struct {
	Method  string
	Path    string
	Query   string
	Body    string
	Session string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

// newTestServer отвечает заданными телами по ключу "METHOD path"
// (путь относительно базового пути API).
func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		path := strings.TrimPrefix(r.URL.Path, ediclient.APIBasePath)
		sess := ""
		if c, err := r.Cookie(ediclient.DefaultSessionCookie); err == nil {
			sess = c.Value
		}
		ts.requests = append(ts.requests, recordedRequest{
			Method:  r.Method,
			Path:    path,
			Query:   r.URL.RawQuery,
			Body:    string(body),
			Session: sess,
		})

		key := r.Method + " " + path
		if resp, ok := responses[key]; ok {
			if strings.HasSuffix(path, "/export") {
				w.Header().Set("Content-Type", "text/csv")
				w.Write([]byte(resp))
				return
			}
			w.Header().Set("Content-Type", "application/json")
			if strings.Contains(resp, `"validation_errors"`) {
				w.WriteHeader(http.StatusBadRequest)
			}
			w.Write([]byte(resp))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Not found"}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(append([]string{"--backend", ts.server.URL, "--session", "sess-1", "--no-color"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestFoldersCommand(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /folders/": `{"folders":[{"name":"inbox","display_name":"Inbox","count":3},{"name":"sent","display_name":"Sent","count":0}]}`,
	})

	out, _, err := ts.run(t, "folders")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "inbox") || !strings.Contains(out, "Inbox") {
		t.Errorf("вывод без папки inbox: %q", out)
	}
	if len(ts.requests) != 1 || ts.requests[0].Session != "sess-1" {
		t.Errorf("запросы = %+v", ts.requests)
	}
}

func TestListCommand_Filters(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /transactions/outbox/": `{"transactions":[{"id":"t1","filename":"po.edi","folder":"outbox","status":"failed"}],"pagination":{"page":2,"total_pages":3,"total_count":41}}`,
	})

	out, _, err := ts.run(t, "list", "outbox", "--status", "failed", "--page", "2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "po.edi") {
		t.Errorf("вывод без транзакции: %q", out)
	}
	if !strings.Contains(out, "страница 2 из 3") {
		t.Errorf("вывод без пагинации: %q", out)
	}
	q := ts.requests[0].Query
	if !strings.Contains(q, "status=failed") || !strings.Contains(q, "page=2") {
		t.Errorf("query = %q", q)
	}
}

func TestListCommand_UnknownFolder(t *testing.T) {
	ts := newTestServer(t, nil)

	if _, _, err := ts.run(t, "list", "archive"); err == nil {
		t.Fatal("ожидается ошибка для неизвестной папки")
	}
	if len(ts.requests) != 0 {
		t.Errorf("backend не должен вызываться: %+v", ts.requests)
	}
}

func TestMoveCommand(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /transaction/t1/move/": `{"success":true,"message":"Moved to sent","transaction":{"id":"t1","folder":"sent"}}`,
	})

	out, _, err := ts.run(t, "move", "t1", "sent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Moved to sent") {
		t.Errorf("вывод = %q", out)
	}
	if body := ts.requests[0].Body; !strings.Contains(body, `"target_folder":"sent"`) {
		t.Errorf("тело = %q", body)
	}
}

func TestProcessCommand_FieldErrors(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /transaction/t1/process/": `{"error":"Document has validation errors","validation_errors":[{"field":"BEG03","message":"required"}]}`,
	})

	_, errOut, err := ts.run(t, "process", "t1")
	if err == nil {
		t.Fatal("ожидается ошибка")
	}
	if !strings.Contains(errOut, "BEG03: required") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestShowCommand_JSON(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /transaction/t1/": `{"transaction":{"id":"t1","filename":"po.edi","folder":"inbox","status":"ready"}}`,
	})

	out, _, err := ts.run(t, "--json", "show", "t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `"filename": "po.edi"`) {
		t.Errorf("вывод = %q", out)
	}
}

func TestLogsExportCommand(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /admin/activity-logs/export": "timestamp,user\n2024-01-01,admin\n",
	})
	path := filepath.Join(t.TempDir(), "logs.csv")

	if _, _, err := ts.run(t, "logs", "export", "--action", "login", "-o", path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("чтение файла: %v", err)
	}
	if string(data) != "timestamp,user\n2024-01-01,admin\n" {
		t.Errorf("содержимое = %q", data)
	}
	if !strings.Contains(ts.requests[0].Query, "action=login") {
		t.Errorf("query = %q", ts.requests[0].Query)
	}
}

func TestRootCommand_RequiresBackend(t *testing.T) {
	t.Setenv("EC_BACKEND_URL", "")
	t.Setenv("EC_SESSION_ID", "")

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"folders"})
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "EC_BACKEND_URL") {
		t.Errorf("err = %v", err)
	}
}

func TestColorize(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	if got := colorize(colorRed, "x"); got != "x" {
		t.Errorf("colorize с noColor = %q", got)
	}
	noColor = false
	if got := colorize(colorRed, "x"); !strings.Contains(got, "\033[") {
		t.Errorf("colorize без noColor = %q", got)
	}
}
