package view

import (
	"net/url"
	"strconv"
)

// PageParam — имя параметра номера страницы.
const PageParam = "page"

// CriteriaParam — скрытое поле формы фильтра с критериями предыдущего запроса.
const CriteriaParam = "criteria"

// Criteria возвращает канонические критерии выборки: все параметры,
// кроме номера страницы и самого поля criteria.
func Criteria(v url.Values) string {
	c := url.Values{}
	for k, vals := range v {
		if k == PageParam || k == CriteriaParam {
			continue
		}
		for _, s := range vals {
			if s != "" {
				c.Add(k, s)
			}
		}
	}
	return c.Encode()
}

// ResolvePage возвращает номер страницы для нового запроса.
// Если критерии изменились относительно prevCriteria, страница сбрасывается на 1.
func ResolvePage(prevCriteria string, next url.Values) int {
	if Criteria(next) != prevCriteria {
		return 1
	}
	page, err := strconv.Atoi(next.Get(PageParam))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// Pager — данные блока пагинации.
type Pager struct {
	Page     int
	Pages    int
	HasPrev  bool
	HasNext  bool
	Criteria string
}

// NewPager строит пагинацию по номеру и числу страниц.
func NewPager(page, pages int, criteria string) Pager {
	page = max(page, 1)
	pages = max(pages, 1)
	return Pager{
		Page:     page,
		Pages:    pages,
		HasPrev:  page > 1,
		HasNext:  page < pages,
		Criteria: criteria,
	}
}

// Link возвращает query-строку для страницы с сохранением критериев.
func (p Pager) Link(page int) string {
	v, _ := url.ParseQuery(p.Criteria)
	if v == nil {
		v = url.Values{}
	}
	if page > 1 {
		v.Set(PageParam, strconv.Itoa(page))
	}
	v.Set(CriteriaParam, p.Criteria)
	return "?" + v.Encode()
}
