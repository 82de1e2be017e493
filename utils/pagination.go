package utils

import "strconv"

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// PageLimit parses page/limit query values, falling back to 1/10 when absent
// or non-numeric and capping limit at 100.
func PageLimit(pageStr, limitStr string) (int, int) {
	page := defaultPage
	if n, err := strconv.Atoi(pageStr); err == nil && n > 0 {
		page = n
	}
	limit := defaultLimit
	if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
		limit = n
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}
