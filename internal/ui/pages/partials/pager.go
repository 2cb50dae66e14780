package partials

import (
	"context"

	"github.com/a-h/templ"

	"github.com/bigkaa/edi-console/internal/ui/i18n"
	"github.com/bigkaa/edi-console/internal/ui/markup"
	"github.com/bigkaa/edi-console/internal/view"
)

// Pager — навигация по страницам. Ссылки сохраняют критерии фильтра.
func Pager(p view.Pager, baseURL string) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		if p.Pages <= 1 {
			return
		}
		m.Raw(`<nav class="pager">`)
		if p.HasPrev {
			m.Raw(`<a class="btn btn-ghost"`)
			m.Href(baseURL + p.Link(p.Page-1))
			m.Raw(`>`)
			m.Text(i18n.T(ctx, "pager.prev"))
			m.Raw(`</a>`)
		}
		m.Raw(`<span class="pager-info">`)
		m.Text(i18n.Tf(ctx, "pager.info", p.Page, p.Pages))
		m.Raw(`</span>`)
		if p.HasNext {
			m.Raw(`<a class="btn btn-ghost"`)
			m.Href(baseURL + p.Link(p.Page+1))
			m.Raw(`>`)
			m.Text(i18n.T(ctx, "pager.next"))
			m.Raw(`</a>`)
		}
		m.Raw(`</nav>`)
	})
}

// CriteriaInput — скрытое поле формы фильтра с критериями текущей выборки.
// По нему сервер определяет, что фильтр изменился и страницу нужно сбросить.
func CriteriaInput(criteria string) templ.Component {
	return markup.Component(func(ctx context.Context, m *markup.Writer) {
		m.Raw(`<input type="hidden"`)
		m.Attr("name", view.CriteriaParam)
		m.Attr("value", criteria)
		m.Raw(`>`)
	})
}
