package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"deskbook/pkg/config"
	apperrors "deskbook/pkg/errors"
)

// ExtractLimitOffset reads limit/offset, falling back to the pageSize/pageOffset
// names older clients send. Limit must lie in [1, MaxPaginationLimit] and offset
// must not be negative; anything else is rejected.
func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := config.DefaultPaginationLimit
	if s := firstOf(query, "limit", "pageSize"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > config.MaxPaginationLimit {
			return 0, 0, apperrors.InvalidInput(fmt.Sprintf("limit must be an integer between 1 and %d, got: %s", config.MaxPaginationLimit, s))
		}
		limit = v
	}

	var offset int64
	if s := firstOf(query, "offset", "pageOffset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil || v < 0 {
			return 0, 0, apperrors.InvalidInput("offset must be a non-negative integer, got: " + s)
		}
		offset = v
	}

	return limit, offset, nil
}

func firstOf(query url.Values, keys ...string) string {
	for _, k := range keys {
		if v := query.Get(k); v != "" {
			return v
		}
	}
	return ""
}
