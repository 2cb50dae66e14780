// dashboard.go — административная панель и её автообновление через SSE.
package handlers

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"

	"github.com/bigkaa/edi-console/internal/poller"
	"github.com/bigkaa/edi-console/internal/service"
	"github.com/bigkaa/edi-console/internal/ui/pages"
	"github.com/bigkaa/edi-console/internal/ui/pages/partials"
)

// DashboardHandler — обработчик административной панели.
type DashboardHandler struct {
	base
	svc      *service.AdminService
	interval time.Duration
}

// NewDashboardHandler создаёт обработчик панели.
// interval — период автообновления SSE-потока.
func NewDashboardHandler(svc *service.AdminService, interval time.Duration, loginURL string, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		base:     newBase(loginURL, logger, "ui.dashboard"),
		svc:      svc,
		interval: interval,
	}
}

// HandleDashboard обрабатывает GET /admin/?days=N.
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	days := parseDays(r)
	v, err := h.svc.Dashboard(r.Context(), api, days)
	h.page(w, r, err, pages.Dashboard(pages.DashboardData{
		View:        v,
		Days:        days,
		AutoRefresh: r.URL.Query().Get("auto_refresh") == "true",
		Err:         err,
	}))
}

// HandleAutoRefresh обрабатывает GET /admin/dashboard/auto-refresh?enabled=&days=.
// Переключатель заменяет себя; включённый подключает SSE-поток.
func (h *DashboardHandler) HandleAutoRefresh(w http.ResponseWriter, r *http.Request) {
	enabled := r.URL.Query().Get("enabled") == "true"
	h.logger.Debug("Автообновление панели",
		slog.Bool("enabled", enabled),
	)
	h.render(w, r, http.StatusOK, partials.AutoRefresh(enabled, parseDays(r)))
}

// HandleEvents обрабатывает GET /admin/events/dashboard?days=N — SSE-поток
// с содержимым панели. Поток живёт, пока открыто соединение.
func (h *DashboardHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	api, ok := h.client(w, r)
	if !ok {
		return
	}
	days := parseDays(r)
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.logger.Error("SSE не поддерживается соединением", slog.String("error", err.Error()))
		return
	}

	ctx := r.Context()
	task := poller.New("dashboard-sse", h.interval, func(ctx context.Context) error {
		v, err := h.svc.RefreshDashboard(ctx, api, days)
		if err != nil {
			// на странице остаются последние полученные данные
			return err
		}
		return h.send(ctx, w, rc, partials.DashboardContent(v))
	}, h.logger)

	h.logger.Debug("SSE-поток панели открыт", slog.Int("days", days))
	task.Start(ctx)
	<-ctx.Done()
	task.Stop()
	h.logger.Debug("SSE-поток панели закрыт")
}

// send пишет компонент одним событием SSE: каждая строка HTML
// передаётся отдельным полем data.
func (h *DashboardHandler) send(ctx context.Context, w http.ResponseWriter, rc *http.ResponseController, c templ.Component) error {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return fmt.Errorf("рендеринг события: %w", err)
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "event: %s\n", partials.DashboardEvent)
	sc := bufio.NewScanner(&buf)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		out.WriteString("data: ")
		out.Write(sc.Bytes())
		out.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("кадрирование события: %w", err)
	}
	out.WriteByte('\n')

	if _, err := w.Write(out.Bytes()); err != nil {
		return fmt.Errorf("запись события: %w", err)
	}
	return rc.Flush()
}
