package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

func paramID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func parseDay(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, strings.TrimSpace(s))
}

// queryDay reads an optional YYYY-MM-DD query parameter.
func queryDay(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	t, err := parseDay(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func queryInt(c echo.Context, name string, def int) int {
	if n, err := strconv.Atoi(c.QueryParam(name)); err == nil {
		return n
	}
	return def
}

func queryUint(c echo.Context, name string) uint64 {
	n, _ := strconv.ParseUint(c.QueryParam(name), 10, 64)
	return n
}

// page normalizes page and page_size query parameters.
func page(c echo.Context) (pageNum, size int) {
	pageNum = queryInt(c, "page", 1)
	if pageNum < 1 {
		pageNum = 1
	}
	size = queryInt(c, "page_size", 20)
	if size < 1 || size > 100 {
		size = 20
	}
	return pageNum, size
}
