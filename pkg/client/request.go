package client

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Params are query parameters appended to a request URL.
//
// Values are formatted with fmt.Sprint, booleans as "1"/"0". Slices expand to
// repeated keys, maps to bracketed keys (filter[a]=1) and nil values are
// skipped.
type Params map[string]any

// Request describes a single dispatch. It is built per call and never stored.
type Request struct {
	Method string
	URL    string
	Params Params

	// Body is JSON-encoded when non-nil. A typed nil (nil slice, map or
	// pointer) sends no body.
	Body any
}

// Values converts p to url.Values.
func (p Params) Values() url.Values {
	values := make(url.Values, len(p))
	for _, key := range sortedKeys(p) {
		addParam(values, key, p[key])
	}
	return values
}

// addParam adds v under key. Maps expand to bracketed keys (key[sub]=v),
// recursively, the way PHP's http_build_query encodes nested arrays.
func addParam(values url.Values, key string, v any) {
	switch v := v.(type) {
	case nil:
	case []string:
		for _, item := range v {
			values.Add(key, item)
		}
	case []any:
		for _, item := range v {
			if item != nil {
				values.Add(key, formatParam(item))
			}
		}
	case []int:
		for _, item := range v {
			values.Add(key, formatParam(item))
		}
	case Params:
		for _, sub := range sortedKeys(v) {
			addParam(values, key+"["+sub+"]", v[sub])
		}
	case map[string]any:
		addParam(values, key, Params(v))
	case map[string]string:
		for _, sub := range sortedKeys(v) {
			values.Add(key+"["+sub+"]", v[sub])
		}
	default:
		values.Add(key, formatParam(v))
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func formatParam(v any) string {
	if b, ok := v.(bool); ok {
		if b {
			return "1"
		}
		return "0"
	}
	return fmt.Sprint(v)
}

// BuildURL appends the encoded params to base. Keys are encoded in sorted
// order, so identical params always produce the same URL. Any #fragment is
// dropped; otherwise, with no params, base is returned unmodified.
func BuildURL(base string, params Params) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	encoded := params.Values().Encode()
	if encoded == "" && !strings.Contains(base, "#") {
		return base, nil
	}

	u.Fragment = ""
	u.RawFragment = ""

	switch {
	case encoded == "":
	case u.RawQuery == "":
		u.RawQuery = encoded
	case strings.HasSuffix(u.RawQuery, "&"):
		u.RawQuery += encoded
	default:
		u.RawQuery += "&" + encoded
	}
	u.ForceQuery = false

	return u.String(), nil
}
