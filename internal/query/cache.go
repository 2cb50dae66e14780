// cache.go — кэш результатов запросов на hashicorp/golang-lru/v2/expirable.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ec_cache_hits_total",
		Help: "Общее количество попаданий в кэш запросов.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ec_cache_misses_total",
		Help: "Общее количество промахов кэша запросов.",
	})
	cacheRevalidationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ec_cache_revalidations_total",
		Help: "Общее количество фоновых обновлений устаревших записей.",
	})
)

// State — состояние результата запроса.
type State int

const (
	// NotRequested — запрос отключён (нет идентификатора), backend не вызывался.
	NotRequested State = iota
	// Loaded — данные получены.
	Loaded
	// Failed — запрос завершился ошибкой.
	Failed
)

// Result — результат запроса через кэш.
type Result[T any] struct {
	State State
	Data  T
	// Stale — данные старше окна актуальности, обновление уже запущено
	Stale     bool
	FetchedAt time.Time
}

// Options — параметры кэша.
type Options struct {
	// MaxEntries — максимальное количество записей
	MaxEntries int
	// TTL — время жизни записи после добавления
	TTL time.Duration
	// StaleAfter — возраст, после которого запись отдаётся с Stale=true
	// и обновляется в фоне (0 — записи актуальны до истечения TTL)
	StaleAfter time.Duration
	// FetchTimeout — таймаут общего запроса к backend
	FetchTimeout time.Duration
}

type entry struct {
	key       Key
	value     any
	fetchedAt time.Time
}

// Cache — кэш запросов. Каждый экземпляр консоли имеет собственный
// in-memory кэш; согласованность между экземплярами обеспечивает Publisher.
type Cache struct {
	lru   *expirable.LRU[string, *entry]
	group singleflight.Group

	// mu защищает generation и связку «проверка поколения + запись»
	mu         sync.Mutex
	generation uint64

	staleAfter   time.Duration
	fetchTimeout time.Duration
	origin       string
	publisher    Publisher
	logger       *slog.Logger
	now          func() time.Time
}

// New создаёт кэш запросов.
func New(opts Options, logger *slog.Logger) *Cache {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = 2048
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 30 * time.Second
	}
	return &Cache{
		lru:          expirable.NewLRU[string, *entry](opts.MaxEntries, nil, opts.TTL),
		staleAfter:   opts.StaleAfter,
		fetchTimeout: opts.FetchTimeout,
		origin:       uuid.NewString(),
		logger:       logger.With(slog.String("component", "query_cache")),
		now:          time.Now,
	}
}

// SetPublisher подключает рассылку инвалидаций другим экземплярам.
func (c *Cache) SetPublisher(p Publisher) {
	c.publisher = p
}

// Origin — идентификатор экземпляра в сообщениях инвалидации.
func (c *Cache) Origin() string {
	return c.origin
}

// Len возвращает количество записей в кэше.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Fetch возвращает данные по ключу через кэш.
//
//   - enabled == false: Result{State: NotRequested}, fn не вызывается;
//   - актуальная запись: отдаётся из кэша;
//   - устаревшая запись: отдаётся с Stale=true, запускается одно фоновое обновление;
//   - промах: одновременные вызовы с одинаковым ключом разделяют один вызов fn.
func Fetch[T any](ctx context.Context, c *Cache, key Key, enabled bool, fn func(ctx context.Context) (T, error)) (Result[T], error) {
	if !enabled {
		return Result[T]{State: NotRequested}, nil
	}

	k := key.String()
	load := func(ctx context.Context) (any, error) { return fn(ctx) }

	if e, ok := c.lru.Get(k); ok {
		if v, ok := e.value.(T); ok {
			cacheHitsTotal.Inc()
			stale := c.isStale(e)
			if stale {
				c.revalidate(key, k, load)
			}
			return Result[T]{State: Loaded, Data: v, Stale: stale, FetchedAt: e.fetchedAt}, nil
		}
	}
	cacheMissesTotal.Inc()

	// Общий запрос, начатый до инвалидации, может вернуть устаревшие данные:
	// такой результат пропускается, и запрос повторяется после его завершения.
	since := c.currentGeneration()
	for {
		ch := c.join(ctx, key, k, load)
		var res singleflight.Result
		select {
		case <-ctx.Done():
			return Result[T]{State: Failed}, fmt.Errorf("ожидание запроса %s: %w", key.Resource, ctx.Err())
		case res = <-ch:
		}

		f := res.Val.(*flight)
		if f.gen < since {
			continue
		}
		if res.Err != nil {
			return Result[T]{State: Failed}, res.Err
		}
		v, ok := f.entry.value.(T)
		if !ok {
			return Result[T]{State: Failed}, fmt.Errorf("тип данных ключа %s: %T", key.Resource, f.entry.value)
		}
		return Result[T]{State: Loaded, Data: v, FetchedAt: f.entry.fetchedAt}, nil
	}
}

// flight — результат общего запроса и поколение кэша на момент его начала.
type flight struct {
	entry *entry
	gen   uint64
}

// join присоединяется к запросу по ключу k или начинает новый.
// По каждому ключу одновременно выполняется не более одного запроса.
func (c *Cache) join(ctx context.Context, key Key, k string, fn func(context.Context) (any, error)) <-chan singleflight.Result {
	return c.group.DoChan(k, func() (any, error) {
		gen := c.currentGeneration()
		e, err := c.load(ctx, key, k, gen, fn)
		return &flight{entry: e, gen: gen}, err
	})
}

// load выполняет запрос и сохраняет результат, если поколение
// не изменилось за время запроса. Отмена контекста одного из ожидающих
// не прерывает общий запрос.
func (c *Cache) load(ctx context.Context, key Key, k string, gen uint64, fn func(context.Context) (any, error)) (*entry, error) {
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
	defer cancel()

	v, err := fn(fetchCtx)
	if err != nil {
		return nil, err
	}

	e := &entry{key: key, value: v, fetchedAt: c.now()}
	c.mu.Lock()
	if c.generation == gen {
		c.lru.Add(k, e)
	}
	c.mu.Unlock()
	return e, nil
}

// revalidate запускает фоновое обновление записи.
// Повторные вызовы во время обновления присоединяются к нему.
func (c *Cache) revalidate(key Key, k string, fn func(context.Context) (any, error)) {
	c.join(context.Background(), key, k, func(ctx context.Context) (any, error) {
		cacheRevalidationsTotal.Inc()
		v, err := fn(ctx)
		if err != nil {
			c.logger.Debug("Ошибка фонового обновления записи кэша",
				slog.String("resource", key.Resource),
				slog.String("error", err.Error()),
			)
		}
		return v, err
	})
}

func (c *Cache) isStale(e *entry) bool {
	return c.staleAfter > 0 && c.now().Sub(e.fetchedAt) > c.staleAfter
}

func (c *Cache) currentGeneration() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Invalidate удаляет все записи указанных ресурсов во всех сессиях.
// Запросы, начатые до инвалидации, свои результаты не сохраняют.
func (c *Cache) Invalidate(ctx context.Context, resources ...string) {
	c.invalidate(ctx, Invalidation{Resources: resources})
}

// InvalidateEntity удаляет записи сущности id в указанных ресурсах.
func (c *Cache) InvalidateEntity(ctx context.Context, id string, resources ...string) {
	c.invalidate(ctx, Invalidation{Resources: resources, ID: id})
}

func (c *Cache) invalidate(ctx context.Context, inv Invalidation) {
	removed := c.apply(inv)
	c.logger.Debug("Инвалидация кэша",
		slog.Any("resources", inv.Resources),
		slog.String("id", inv.ID),
		slog.Int("removed", removed),
	)

	if c.publisher == nil {
		return
	}
	inv.Origin = c.origin
	if err := c.publisher.Publish(ctx, inv); err != nil {
		c.logger.Warn("Не удалось разослать инвалидацию кэша",
			slog.String("error", err.Error()),
		)
	}
}

// Apply применяет инвалидацию, полученную от другого экземпляра.
// Собственные сообщения экземпляра игнорируются.
func (c *Cache) Apply(inv Invalidation) {
	if inv.Origin == c.origin {
		return
	}
	c.apply(inv)
}

// apply удаляет подходящие записи и увеличивает поколение.
func (c *Cache) apply(inv Invalidation) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++

	removed := 0
	for _, k := range c.lru.Keys() {
		e, ok := c.lru.Peek(k)
		if !ok || !inv.matches(e.key) {
			continue
		}
		c.lru.Remove(k)
		removed++
	}
	return removed
}

// Forget удаляет одну запись локально, без рассылки.
// Следующий Fetch по ключу обратится к backend.
func (c *Cache) Forget(key Key) {
	c.lru.Remove(key.String())
}

// Purge удаляет все записи.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.lru.Purge()
}

func (inv Invalidation) matches(k Key) bool {
	if !slices.Contains(inv.Resources, k.Resource) {
		return false
	}
	return inv.ID == "" || inv.ID == k.ID
}
