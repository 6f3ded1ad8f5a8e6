// Package source acquires workbook bytes: share-link rewriting, bounded
// remote fetches and on-disk change watching.
package source

import (
	"net/url"
	"strings"
)

type queryParam struct {
	key string
	val string
}

// CoerceShareURL rewrites well-known share links into direct-download form.
// Hosts ending in sharepoint.com or 1drv.ms gain download=1 when absent;
// hosts ending in dropbox.com get dl forced to 1. Query parameter order is
// preserved and a repeated parameter keeps its first value. Unparseable
// input and unrecognized hosts come back unchanged.
func CoerceShareURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	host := strings.ToLower(u.Hostname())
	params := parseQueryOrdered(u.RawQuery)

	switch {
	case strings.HasSuffix(host, "sharepoint.com") || strings.HasSuffix(host, "1drv.ms"):
		if !hasParam(params, "download") {
			params = append(params, queryParam{key: "download", val: "1"})
		}
	case strings.HasSuffix(host, "dropbox.com"):
		params = setParam(params, "dl", "1")
	default:
		return raw
	}

	u.RawQuery = encodeQueryOrdered(params)
	return u.String()
}

func parseQueryOrdered(rawQuery string) []queryParam {
	if rawQuery == "" {
		return nil
	}
	seen := make(map[string]bool)
	var params []queryParam
	for _, piece := range strings.Split(rawQuery, "&") {
		if piece == "" {
			continue
		}
		rawKey, rawVal, _ := strings.Cut(piece, "=")
		key := unescape(rawKey)
		if seen[key] {
			continue
		}
		seen[key] = true
		params = append(params, queryParam{key: key, val: unescape(rawVal)})
	}
	return params
}

func unescape(s string) string {
	out, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return out
}

func hasParam(params []queryParam, key string) bool {
	for _, p := range params {
		if p.key == key {
			return true
		}
	}
	return false
}

func setParam(params []queryParam, key, val string) []queryParam {
	for i, p := range params {
		if p.key == key {
			params[i].val = val
			return params
		}
	}
	return append(params, queryParam{key: key, val: val})
}

func encodeQueryOrdered(params []queryParam) string {
	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.val))
	}
	return b.String()
}
