package query

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestRedis запускает Redis в Docker-контейнере через testcontainers.
// Возвращает URL подключения.
func setupTestRedis(t *testing.T) string {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := tcredis.Run(ctx,
		"docker.io/redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить Redis контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	url, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить адрес контейнера: %v", err)
	}
	return url
}

// startInvalidator подключает кэш к общему каналу и запускает подписку.
func startInvalidator(t *testing.T, url, channel string, c *Cache) *RedisInvalidator {
	t.Helper()
	ctx := context.Background()

	inv, err := NewRedisInvalidator(ctx, url, channel, c, testLogger())
	if err != nil {
		t.Fatalf("NewRedisInvalidator: %v", err)
	}
	if err := inv.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = inv.Close() })
	return inv
}

// TestRedisInvalidator_BetweenInstances проверяет, что инвалидация одного
// экземпляра удаляет записи другого, а своё сообщение отправитель пропускает.
func TestRedisInvalidator_BetweenInstances(t *testing.T) {
	url := setupTestRedis(t)
	ctx := context.Background()
	const channel = "edi-console:test"

	a := newTestCache(Options{})
	b := newTestCache(Options{})
	startInvalidator(t, url, channel, a)
	startInvalidator(t, url, channel, b)

	var fn counter
	foldersKey := Key{Scope: "s", Resource: ResourceFolders}
	for _, c := range []*Cache{a, b} {
		_, err := Fetch(ctx, c, listKey("s"), true, fn.fetch)
		require.NoError(t, err)
		_, err = Fetch(ctx, c, foldersKey, true, fn.fetch)
		require.NoError(t, err)
	}

	a.Invalidate(ctx, ResourceTransactions)
	assert.Equal(t, 1, a.Len(), "локально записи удаляются сразу")

	require.Eventually(t, func() bool { return b.Len() == 1 }, 5*time.Second, 20*time.Millisecond,
		"инвалидация доходит до второго экземпляра")

	// Новая запись A не должна пострадать от возврата собственного сообщения.
	_, err := Fetch(ctx, a, listKey("s"), true, fn.fetch)
	require.NoError(t, err)
	require.Equal(t, 2, a.Len())

	// Сообщения канала доставляются по порядку: после метки от B
	// собственное сообщение A уже обработано.
	b.Invalidate(ctx, ResourceFolders)
	require.Eventually(t, func() bool { return a.Len() == 1 }, 5*time.Second, 20*time.Millisecond)

	calls := fn.calls.Load()
	res, err := Fetch(ctx, a, listKey("s"), true, fn.fetch)
	require.NoError(t, err)
	assert.Equal(t, Loaded, res.State)
	assert.Equal(t, calls, fn.calls.Load(), "собственная инвалидация не применяется повторно")
}

// TestRedisInvalidator_CheckReadyAndClose проверяет статус готовности
// до и после остановки.
func TestRedisInvalidator_CheckReadyAndClose(t *testing.T) {
	url := setupTestRedis(t)
	c := newTestCache(Options{})

	inv, err := NewRedisInvalidator(context.Background(), url, "", c, testLogger())
	require.NoError(t, err)
	require.NoError(t, inv.Start(context.Background()))
	assert.Equal(t, DefaultChannel, inv.channel)

	status, msg := inv.CheckReady()
	assert.Equal(t, "ok", status)
	assert.Empty(t, msg)

	require.NoError(t, inv.Close())
	select {
	case <-inv.doneCh:
	default:
		t.Fatal("подписка не остановлена после Close")
	}

	status, _ = inv.CheckReady()
	assert.Equal(t, "degraded", status)
}

func TestNewRedisInvalidator_BadURL(t *testing.T) {
	_, err := NewRedisInvalidator(context.Background(), "http://not-redis", "", newTestCache(Options{}), testLogger())
	require.Error(t, err)
}
