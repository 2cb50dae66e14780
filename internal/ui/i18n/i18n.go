// Пакет i18n — интернационализация EDI Console.
// Функции T(ctx, key) и Tf(ctx, key, args...) возвращают переведённые строки
// для языка из контекста HTTP-запроса.
// Языки определяются загруженными каталогами (en, ru).
// Язык запроса: cookie "lang" → Accept-Language → язык по умолчанию.
package i18n

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/text/language"
)

// DefaultLang — язык по умолчанию и последний уровень fallback.
const DefaultLang = "en"

// contextKey — тип ключа для контекста (избегаем коллизий).
type contextKey struct{}

// Bundle — хранилище переводов для всех языков.
// Загружается один раз при старте приложения.
type Bundle struct {
	mu       sync.RWMutex
	catalogs map[string]map[string]string // lang → key → translation
	langs    []string
	matcher  language.Matcher
	logger   *slog.Logger
}

// NewBundle создаёт пустой Bundle.
func NewBundle(logger *slog.Logger) *Bundle {
	return &Bundle{
		catalogs: make(map[string]map[string]string),
		logger:   logger,
	}
}

// LoadMessages загружает JSON-каталог переводов для указанного языка.
// JSON формат: {"key": "translation", ...} (плоский).
func (b *Bundle) LoadMessages(lang string, data []byte) error {
	if _, err := language.Parse(lang); err != nil {
		return fmt.Errorf("i18n: некорректный язык %q: %w", lang, err)
	}

	var messages map[string]string
	if err := json.Unmarshal(data, &messages); err != nil {
		return fmt.Errorf("i18n: ошибка парсинга каталога %s: %w", lang, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.catalogs[lang]; !exists {
		b.langs = append(b.langs, lang)
	}
	b.catalogs[lang] = messages
	b.rebuildMatcher()

	if b.logger != nil {
		b.logger.Info("i18n каталог загружен",
			slog.String("lang", lang),
			slog.Int("keys", len(messages)),
		)
	}
	return nil
}

// rebuildMatcher пересобирает matcher: язык по умолчанию всегда первый.
func (b *Bundle) rebuildMatcher() {
	slices.SortFunc(b.langs, func(x, y string) int {
		switch {
		case x == y:
			return 0
		case x == DefaultLang:
			return -1
		case y == DefaultLang:
			return 1
		case x < y:
			return -1
		}
		return 1
	})
	tags := make([]language.Tag, 0, len(b.langs))
	for _, l := range b.langs {
		tags = append(tags, language.Make(l))
	}
	b.matcher = language.NewMatcher(tags)
}

// Languages возвращает загруженные языки, язык по умолчанию первым.
func (b *Bundle) Languages() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.langs)
}

// Supported сообщает, загружен ли каталог языка.
func (b *Bundle) Supported(lang string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.catalogs[lang]
	return ok
}

// Match выбирает лучший загруженный язык по заголовку Accept-Language.
func (b *Bundle) Match(acceptLanguage string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.matcher == nil || len(b.langs) == 0 {
		return DefaultLang
	}
	_, idx := language.MatchStrings(b.matcher, acceptLanguage)
	return b.langs[idx]
}

// Translate возвращает перевод по ключу для указанного языка.
// Если ключ не найден ни в языке, ни в DefaultLang, возвращается сам ключ.
func (b *Bundle) Translate(lang, key string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if catalog, ok := b.catalogs[lang]; ok {
		if msg, ok := catalog[key]; ok {
			return msg
		}
	}
	if lang != DefaultLang {
		if msg, ok := b.catalogs[DefaultLang][key]; ok {
			return msg
		}
	}
	return key
}

// Translatef возвращает перевод с подстановкой аргументов (fmt.Sprintf).
func (b *Bundle) Translatef(lang, key string, args ...any) string {
	template := b.Translate(lang, key)
	if len(args) == 0 {
		return template
	}
	return formatFunc(template, args...)
}

// --- Глобальный Bundle ---

var (
	globalMu     sync.RWMutex
	globalBundle *Bundle
)

// SetDefault делает bundle глобальным для T и Tf.
func SetDefault(b *Bundle) {
	globalMu.Lock()
	globalBundle = b
	globalMu.Unlock()
}

// Default возвращает глобальный Bundle (nil, если не задан).
func Default() *Bundle {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalBundle
}

// --- Функции для использования в шаблонах ---

// WithLang помещает язык в контекст.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, contextKey{}, lang)
}

// LangFromContext извлекает язык из контекста. По умолчанию DefaultLang.
func LangFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(contextKey{}).(string); ok && lang != "" {
		return lang
	}
	return DefaultLang
}

// T возвращает перевод по ключу, используя язык из контекста.
func T(ctx context.Context, key string) string {
	b := Default()
	if b == nil {
		return key
	}
	return b.Translate(LangFromContext(ctx), key)
}

// Tf возвращает перевод по ключу с аргументами.
func Tf(ctx context.Context, key string, args ...any) string {
	b := Default()
	if b == nil {
		if len(args) == 0 {
			return key
		}
		return formatFunc(key, args...)
	}
	return b.Translatef(LangFromContext(ctx), key, args...)
}

// formatFunc — fmt.Sprintf через переменную: формат-строки приходят
// из каталогов во время выполнения, статическая printf-проверка к ним неприменима.
var formatFunc = fmt.Sprintf
