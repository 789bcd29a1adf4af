package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func paramsFor(query string) PaginationParams {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	return GetPaginationParams(e.NewContext(req, httptest.NewRecorder()))
}

func TestGetPaginationParams(t *testing.T) {
	p := paramsFor("")
	assert.Equal(t, PaginationParams{Page: 1, PageSize: DefaultPageSize, Offset: 0}, p)

	p = paramsFor("page=3&limit=10")
	assert.Equal(t, PaginationParams{Page: 3, PageSize: 10, Offset: 20}, p)

	p = paramsFor("page=-1&limit=5000")
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, MaxPageSize, p.PageSize)
}

func TestTail(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	assert.Equal(t, []int{5, 6, 7}, Tail(items, PaginationParams{Page: 1, PageSize: 3, Offset: 0}))
	assert.Equal(t, []int{2, 3, 4}, Tail(items, PaginationParams{Page: 2, PageSize: 3, Offset: 3}))
	assert.Equal(t, []int{1}, Tail(items, PaginationParams{Page: 3, PageSize: 3, Offset: 6}))
	assert.Empty(t, Tail(items, PaginationParams{Page: 4, PageSize: 3, Offset: 9}))
}
