package services

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// deadlineLayouts are tried in order for deadline strings that do not
// look numeric.
var deadlineLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123,
	time.RFC1123Z,
	"01/02/2006",
}

// normalizeEmail applies the stored form of an email address: trimmed
// and lowercased, which is also how uniqueness is enforced.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateUserFields(name, email string) error {
	if strings.TrimSpace(name) == "" {
		return errValidationf("name is required")
	}
	if email == "" {
		return errValidationf("email is required")
	}
	return nil
}

// dedupeIDs drops repeated ids, keeping the first occurrence order.
func dedupeIDs(ids []string) []string {
	deduped := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		deduped = append(deduped, id)
	}
	return deduped
}

// parseDeadline coerces the wire form of a deadline. Numbers, and
// strings that parse as numbers (a fractional part is allowed), are
// Unix epoch milliseconds; any other string is tried against the known
// layouts. Numeric-looking input always takes the numeric reading.
func parseDeadline(value any) (time.Time, error) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, errValidationf("deadline is required")
	case float64:
		return time.UnixMilli(int64(v)).UTC(), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return time.Time{}, errValidationf("invalid deadline: %s", v)
		}
		return time.UnixMilli(int64(f)).UTC(), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return time.Time{}, errValidationf("deadline is required")
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return time.UnixMilli(int64(f)).UTC(), nil
		}
		for _, layout := range deadlineLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, errValidationf("invalid deadline: %s", s)
	default:
		return time.Time{}, errValidationf("invalid deadline")
	}
}

// parseCompleted coerces the wire form of the completed flag. Booleans
// and the literal strings "true" and "false" are accepted. Anything
// else falls back to false on create and is rejected on replace, which
// is what the strict flag selects.
func parseCompleted(value any, strict bool) (bool, error) {
	switch v := value.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		switch v {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	if strict {
		return false, errValidationf("invalid completed value")
	}
	return false, nil
}
