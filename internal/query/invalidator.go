// invalidator.go — рассылка инвалидаций кэша между экземплярами через Redis Pub/Sub.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Invalidation — сообщение об инвалидации.
type Invalidation struct {
	Resources []string `json:"resources"`
	// ID — идентификатор сущности; пустой — все записи ресурсов
	ID string `json:"id,omitempty"`
	// Origin — экземпляр-отправитель
	Origin    string `json:"origin"`
	Timestamp int64  `json:"ts"`
}

// Publisher рассылает инвалидации другим экземплярам.
type Publisher interface {
	Publish(ctx context.Context, inv Invalidation) error
}

const (
	// DefaultChannel — канал Pub/Sub по умолчанию.
	DefaultChannel      = "edi-console:invalidate"
	defaultCloseTimeout = 5 * time.Second
)

// RedisInvalidator — Publisher на Redis Pub/Sub, получаемые сообщения
// применяет к локальному кэшу.
type RedisInvalidator struct {
	client  *redis.Client
	channel string
	cache   *Cache
	logger  *slog.Logger

	mu       sync.Mutex
	cancelFn context.CancelFunc
	doneCh   chan struct{}
	doneOnce sync.Once
}

// NewRedisInvalidator подключается к Redis по URL (redis://host:port/db)
// и связывает рассылку с кэшем.
func NewRedisInvalidator(ctx context.Context, redisURL, channel string, cache *Cache, logger *slog.Logger) (*RedisInvalidator, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("некорректный EC_REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("подключение к Redis: %w", err)
	}

	if channel == "" {
		channel = DefaultChannel
	}
	inv := &RedisInvalidator{
		client:  client,
		channel: channel,
		cache:   cache,
		logger:  logger.With(slog.String("component", "cache_invalidator")),
		doneCh:  make(chan struct{}),
	}
	cache.SetPublisher(inv)
	return inv, nil
}

// Publish отправляет сообщение в канал.
func (i *RedisInvalidator) Publish(ctx context.Context, inv Invalidation) error {
	data, err := encodeInvalidation(inv)
	if err != nil {
		return err
	}
	if err := i.client.Publish(ctx, i.channel, data).Err(); err != nil {
		return fmt.Errorf("публикация инвалидации: %w", err)
	}
	return nil
}

// Start запускает подписку в фоне.
func (i *RedisInvalidator) Start(ctx context.Context) error {
	subCtx, cancel := context.WithCancel(ctx)

	pubsub := i.client.Subscribe(subCtx, i.channel)
	if _, err := pubsub.Receive(subCtx); err != nil {
		cancel()
		_ = pubsub.Close()
		return fmt.Errorf("подписка на канал %s: %w", i.channel, err)
	}

	i.mu.Lock()
	i.cancelFn = cancel
	i.mu.Unlock()

	i.logger.Info("Подписка на инвалидации кэша", slog.String("channel", i.channel))

	go func() {
		defer i.markDone()
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					i.logger.Warn("Канал инвалидаций закрыт")
					return
				}
				i.handle(msg.Payload)
			}
		}
	}()
	return nil
}

// handle разбирает сообщение и применяет его к кэшу.
func (i *RedisInvalidator) handle(payload string) {
	inv, err := decodeInvalidation(payload)
	if err != nil {
		i.logger.Warn("Некорректное сообщение инвалидации",
			slog.String("error", err.Error()),
		)
		return
	}
	i.cache.Apply(inv)
}

func (i *RedisInvalidator) markDone() {
	i.doneOnce.Do(func() { close(i.doneCh) })
}

// Close останавливает подписку и закрывает клиента Redis.
func (i *RedisInvalidator) Close() error {
	i.mu.Lock()
	cancelFn := i.cancelFn
	i.mu.Unlock()

	if cancelFn != nil {
		cancelFn()
		select {
		case <-i.doneCh:
		case <-time.After(defaultCloseTimeout):
			i.logger.Warn("Таймаут остановки подписки на инвалидации")
		}
	}
	return i.client.Close()
}

var errEmptyInvalidation = errors.New("инвалидация без ресурсов")

func encodeInvalidation(inv Invalidation) ([]byte, error) {
	if len(inv.Resources) == 0 {
		return nil, errEmptyInvalidation
	}
	if inv.Timestamp == 0 {
		inv.Timestamp = time.Now().UnixNano()
	}
	data, err := json.Marshal(inv)
	if err != nil {
		return nil, fmt.Errorf("кодирование инвалидации: %w", err)
	}
	return data, nil
}

func decodeInvalidation(payload string) (Invalidation, error) {
	var inv Invalidation
	if err := json.Unmarshal([]byte(payload), &inv); err != nil {
		return Invalidation{}, fmt.Errorf("разбор инвалидации: %w", err)
	}
	if len(inv.Resources) == 0 {
		return Invalidation{}, errEmptyInvalidation
	}
	return inv, nil
}

// CheckReady проверяет соединение с Redis. Недоступный Redis не блокирует
// работу: инвалидация остаётся локальной, поэтому статус degraded.
func (i *RedisInvalidator) CheckReady() (string, string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := i.client.Ping(ctx).Err(); err != nil {
		return "degraded", "Redis недоступен: " + err.Error()
	}
	return "ok", ""
}
