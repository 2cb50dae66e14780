// loader.go — загрузка каталогов переводов из fs.FS.
package i18n

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"
)

// LoadFS загружает все каталоги dir/*.json. Имя файла без расширения — язык.
// Каталог DefaultLang обязателен.
func LoadFS(bundle *Bundle, fsys fs.FS, dir string, logger *slog.Logger) error {
	files, err := fs.Glob(fsys, path.Join(dir, "*.json"))
	if err != nil {
		return fmt.Errorf("i18n: поиск каталогов: %w", err)
	}

	for _, file := range files {
		lang := strings.TrimSuffix(path.Base(file), ".json")
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return fmt.Errorf("i18n: не удалось прочитать %s: %w", file, err)
		}
		if err := bundle.LoadMessages(lang, data); err != nil {
			return err
		}
	}

	if !bundle.Supported(DefaultLang) {
		return fmt.Errorf("i18n: отсутствует каталог языка по умолчанию %s", DefaultLang)
	}

	logger.Info("i18n каталоги загружены", slog.Int("languages", len(files)))
	return nil
}

// LoadEmbedded загружает встроенные каталоги locales/*.json.
func LoadEmbedded(bundle *Bundle, logger *slog.Logger) error {
	return LoadFS(bundle, LocaleFS, "locales", logger)
}
