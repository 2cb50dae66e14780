// Пакет poller — отменяемая периодическая задача.
// Используется для автообновления панели администратора через SSE.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Func — одна итерация задачи. Ошибка логируется, задача продолжается.
type Func func(ctx context.Context) error

// Task выполняет fn сразу после Start и затем с фиксированным интервалом.
// Stop обязателен, его можно вызывать многократно.
type Task struct {
	name     string
	interval time.Duration
	fn       Func
	logger   *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

// New создаёт задачу. interval <= 0 заменяется на минуту.
func New(name string, interval time.Duration, fn Func, logger *slog.Logger) *Task {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Task{
		name:     name,
		interval: interval,
		fn:       fn,
		logger:   logger.With(slog.String("component", "poller"), slog.String("task", name)),
	}
}

// Start запускает задачу. Повторный вызов и вызов после Stop игнорируются.
// Задача завершается при отмене ctx или по Stop.
func (t *Task) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil || t.stopped {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})
	go t.run(ctx, t.done)

	t.logger.Debug("Периодическая задача запущена", slog.Duration("interval", t.interval))
}

func (t *Task) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		t.tick(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (t *Task) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := t.fn(ctx); err != nil && ctx.Err() == nil {
		t.logger.Warn("Ошибка периодической задачи", slog.String("error", err.Error()))
	}
}

// Stop останавливает задачу и ждёт завершения текущей итерации.
func (t *Task) Stop() {
	t.mu.Lock()
	t.stopped = true
	cancel, done := t.cancel, t.done
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running сообщает, выполняется ли задача.
func (t *Task) Running() bool {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}
