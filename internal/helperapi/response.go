package helperapi

import (
	"fmt"
	"sort"
	"strconv"
)

// Response is a decoded JSON object from the licensing server, kept unmodified.
type Response map[string]any

// Errors returns the "errors" sub-object keyed by reason (no_activation,
// expired_key, ...). A JSON list is keyed by index.
func (r Response) Errors() map[string]string {
	raw, ok := r["errors"]
	if !ok || raw == nil {
		return nil
	}
	out := make(map[string]string)
	switch v := raw.(type) {
	case map[string]any:
		for k, msg := range v {
			if msg != nil {
				out[k] = stringify(msg)
			}
		}
	case []any:
		for i, msg := range v {
			if msg != nil {
				out[strconv.Itoa(i)] = stringify(msg)
			}
		}
	default:
		out["0"] = stringify(v)
	}
	return out
}

// HasErrors reports whether the response carries an "errors" entry.
func (r Response) HasErrors() bool {
	v, ok := r["errors"]
	return ok && v != nil
}

// NewVersion returns the advertised new_version, if any.
func (r Response) NewVersion() string {
	v, ok := r["new_version"]
	if !ok || v == nil {
		return ""
	}
	return stringify(v)
}

// Activated reports whether "activated" is truthy.
func (r Response) Activated() bool {
	return truthy(r["activated"])
}

// APIError returns the structured error carried by the response when both
// error_code and error are present.
func (r Response) APIError() (code, message string, ok bool) {
	c, hasCode := r["error_code"]
	m, hasMsg := r["error"]
	if !hasCode || !hasMsg || c == nil || m == nil {
		return "", "", false
	}
	return stringify(c), stringify(m), true
}

// SortedErrorKeys returns error reasons in a stable order for logging.
func SortedErrorKeys(errs map[string]string) []string {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprint(t)
	}
}

// truthy follows the licensing server's loose notion of a set flag: false,
// zero, "", "0", null and empty collections are all unset.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case string:
		return t != "" && t != "0"
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}
