package http

import (
	"fmt"
	"net/http"
	apperrors "staybook/pkg/errors"
	"strconv"
	"strings"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

// ExtractLimitOffset reads ?limit= and ?offset=. A missing or non-positive
// limit becomes DefaultPageLimit, and limits above MaxPageLimit are capped.
func ExtractLimitOffset(r *http.Request) (int, int, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	offset := 0
	if s := query.Get("offset"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = v
	}

	if limit <= 0 {
		limit = DefaultPageLimit
	}
	limit = min(limit, MaxPageLimit)
	offset = max(offset, 0)

	return limit, offset, nil
}

// Page slices items by limit and offset.
func Page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}

// RequiredQuery returns the named query parameters, failing with INVALID_INPUT
// listing every one that is missing or blank.
func RequiredQuery(r *http.Request, names ...string) (map[string]string, error) {
	query := r.URL.Query()
	values := make(map[string]string, len(names))
	var missing []string
	for _, name := range names {
		v := query.Get(name)
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
			continue
		}
		values[name] = v
	}
	if len(missing) > 0 {
		return nil, apperrors.InvalidInput(fmt.Sprintf("missing query parameter(s): %s", strings.Join(missing, ", ")))
	}
	return values, nil
}

// QueryBool parses ?name=; absent means false.
func QueryBool(r *http.Request, name string) (bool, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, apperrors.InvalidInput(fmt.Sprintf("invalid %s parameter: %s", name, s))
	}
	return v, nil
}
