package partials

import (
	"context"
	"fmt"
	"sort"

	"github.com/bigkaa/edi-console/internal/domain/model"
	"github.com/bigkaa/edi-console/internal/ui/i18n"
	"github.com/bigkaa/edi-console/internal/view"
)

// DateTimeLayout — формат даты и времени в таблицах и карточках.
const DateTimeLayout = "2006-01-02 15:04"

// FormatTime возвращает дату или прочерк для пустого значения.
func FormatTime(ts model.Timestamp) string {
	if ts.IsZero() {
		return "—"
	}
	return ts.Format(DateTimeLayout)
}

// FormatSize — размер файла в Б/КБ/МБ.
func FormatSize(n int64) string {
	switch {
	case n < 1<<10:
		return fmt.Sprintf("%d B", n)
	case n < 1<<20:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	}
}

// FormatPercent — доля с одним знаком после запятой.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// FolderLabel — локализованное название папки.
func FolderLabel(ctx context.Context, f model.Folder) string {
	return i18n.T(ctx, view.FolderDescriptor(f).LabelKey)
}

// StatusLabel — локализованный статус транзакции.
func StatusLabel(ctx context.Context, s model.Status) string {
	if s == "" {
		return "—"
	}
	return i18n.T(ctx, "status."+string(s))
}

// SortedCounts возвращает пары ключ/число по убыванию числа.
func SortedCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Count — строка таблицы «ключ — количество».
type Count struct {
	Key   string
	Value int
}
