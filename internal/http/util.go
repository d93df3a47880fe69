package httpx

import (
	"net/http"
	"strconv"
)

// ParseLimitOffset reads the limit and offset query parameters,
// clamping limit into [1, maxLimit] and offset to zero or more.
// Missing or non-numeric values fall back to defLimit and 0.
func ParseLimitOffset(r *http.Request, defLimit, maxLimit int) (int, int) {
	if maxLimit < 1 {
		maxLimit = 1
	}

	limit := min(max(intQuery(r, "limit", defLimit), 1), maxLimit)
	offset := max(intQuery(r, "offset", 0), 0)
	return limit, offset
}

// intQuery returns the integer value of a query parameter, or def when
// the parameter is absent or malformed.
func intQuery(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}
