package utils

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// PaginationParams counts pages back from the newest item: page 1 is the
// most recent PageSize items.
type PaginationParams struct {
	Page     int
	PageSize int
	Offset   int
}

// GetPaginationParams reads ?page= and ?limit=.
func GetPaginationParams(c echo.Context) PaginationParams {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("limit"))

	if page <= 0 {
		page = 1
	}

	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	return PaginationParams{
		Page:     page,
		PageSize: pageSize,
		Offset:   (page - 1) * pageSize,
	}
}

// Tail returns the requested page of an ascending list, keeping ascending order.
func Tail[T any](items []T, p PaginationParams) []T {
	end := len(items) - p.Offset
	if end <= 0 {
		return []T{}
	}
	start := end - p.PageSize
	if start < 0 {
		start = 0
	}
	return items[start:end]
}
