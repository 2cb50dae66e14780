// Пакет markup — запись HTML-разметки в templ.Component.
// Текст и значения атрибутов экранируются, первая ошибка записи запоминается.
package markup

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"
)

// Writer пишет разметку в io.Writer.
type Writer struct {
	w   io.Writer
	err error
}

// New создаёт Writer.
func New(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Err возвращает первую ошибку записи.
func (m *Writer) Err() error {
	return m.err
}

func (m *Writer) write(s string) {
	if m.err != nil {
		return
	}
	_, m.err = io.WriteString(m.w, s)
}

// Raw пишет строки без экранирования. Только для литералов разметки.
func (m *Writer) Raw(parts ...string) {
	for _, p := range parts {
		m.write(p)
	}
}

// Text пишет экранированный текст.
func (m *Writer) Text(s string) {
	m.write(templ.EscapeString(s))
}

// Textf форматирует и пишет экранированный текст.
func (m *Writer) Textf(format string, args ...any) {
	m.Text(fmt.Sprintf(format, args...))
}

// Attr пишет атрибут с экранированным значением: ` name="value"`.
func (m *Writer) Attr(name, value string) {
	m.write(" " + name + `="` + templ.EscapeString(value) + `"`)
}

// AttrIf пишет атрибут, только если cond истинно.
func (m *Writer) AttrIf(cond bool, name, value string) {
	if cond {
		m.Attr(name, value)
	}
}

// Flag пишет булев атрибут (disabled, checked, selected).
func (m *Writer) Flag(cond bool, name string) {
	if cond {
		m.write(" " + name)
	}
}

// Href пишет атрибут href, пропуская небезопасные схемы (javascript: и т.п.).
func (m *Writer) Href(u string) {
	m.Attr("href", string(templ.URL(u)))
}

// Render вставляет компонент.
func (m *Writer) Render(ctx context.Context, c templ.Component) {
	if m.err != nil || c == nil {
		return
	}
	m.err = c.Render(ctx, m.w)
}

// Component оборачивает функцию записи в templ.Component.
func Component(fn func(ctx context.Context, m *Writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := New(w)
		fn(ctx, m)
		return m.Err()
	})
}

// Path собирает путь из сегментов, экранируя каждый динамический сегмент.
// Path("/admin/transactions", id, "history") → /admin/transactions/{id}/history
func Path(base string, segments ...string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(base, "/"))
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// Classes объединяет CSS-классы, пропуская пустые.
func Classes(classes ...string) string {
	out := classes[:0:0]
	for _, c := range classes {
		if c != "" {
			out = append(out, c)
		}
	}
	return strings.Join(out, " ")
}
