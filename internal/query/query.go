// Package query interprets the list-endpoint parameters (where, sort,
// select, skip, limit, count) into a structured Query value.
// Parsing is deliberately forgiving: a malformed parameter is dropped
// with a warning instead of failing the request.
package query

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Query is the structured form of a list request. The zero value
// means "return everything".
type Query struct {
	Where     map[string]any
	Sort      []SortField
	Select    map[string]bool
	Skip      int64
	Limit     int64
	CountOnly bool
}

// SortField is a single sort clause. Dir is 1 for ascending and -1
// for descending.
type SortField struct {
	Field string
	Dir   int
}

// Parse reads the recognized parameters out of values. Where, sort and
// select carry JSON documents; when one does not decode it is ignored
// and logged, so a broken filter can never fail a read. Skip and limit
// fall back to zero on anything that is not a usable integer.
func Parse(logger zerolog.Logger, values url.Values) Query {
	var q Query

	if raw := values.Get("where"); raw != "" {
		var where map[string]any
		if err := json.Unmarshal([]byte(raw), &where); err != nil {
			logger.Warn().
				Err(err).
				Str("where", raw).
				Msg("ignoring malformed where parameter")
		} else {
			q.Where = where
		}
	}

	if raw := values.Get("sort"); raw != "" {
		sort, err := parseSort(raw)
		if err != nil {
			logger.Warn().
				Err(err).
				Str("sort", raw).
				Msg("ignoring malformed sort parameter")
		} else {
			q.Sort = sort
		}
	}

	if raw := values.Get("select"); raw != "" {
		sel, err := parseSelect(raw)
		if err != nil {
			logger.Warn().
				Err(err).
				Str("select", raw).
				Msg("ignoring malformed select parameter")
		} else {
			q.Select = sel
		}
	}

	if raw := values.Get("skip"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			n = 0
		}
		q.Skip = n
	}

	if raw := values.Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			n = 0
		}
		q.Limit = n
	}

	q.CountOnly = values.Get("count") == "true"

	return q
}

// parseSort decodes a {"field": direction} document token by token so
// the declared field order survives into the sort clauses.
func parseSort(raw string) ([]SortField, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if tok != json.Delim('{') {
		return nil, fmt.Errorf("sort must be an object, got %v", tok)
	}

	var fields []SortField
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		field, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected sort key %v", keyTok)
		}

		var value any
		if err = dec.Decode(&value); err != nil {
			return nil, err
		}
		dir, ok := sortDirection(value)
		if !ok {
			return nil, fmt.Errorf("invalid sort direction %v for field %q", value, field)
		}

		fields = append(fields, SortField{Field: field, Dir: dir})
	}
	if _, err = dec.Token(); err != nil {
		return nil, err
	}

	return fields, nil
}

func sortDirection(value any) (int, bool) {
	switch v := value.(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil || f == 0 {
			return 0, false
		}
		if f < 0 {
			return -1, true
		}
		return 1, true
	case string:
		switch strings.ToLower(v) {
		case "asc", "ascending", "1":
			return 1, true
		case "desc", "descending", "-1":
			return -1, true
		}
	}
	return 0, false
}

// parseSelect decodes a {"field": include} projection document. Zero
// and false exclude the field, any other number or true includes it.
func parseSelect(raw string) (map[string]bool, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}

	sel := make(map[string]bool, len(doc))
	for field, value := range doc {
		switch v := value.(type) {
		case json.Number:
			f, err := v.Float64()
			if err != nil {
				return nil, fmt.Errorf("invalid projection value for field %q", field)
			}
			sel[field] = f != 0
		case bool:
			sel[field] = v
		default:
			return nil, fmt.Errorf("invalid projection value for field %q", field)
		}
	}

	return sel, nil
}
