// Package share builds and parses shareable document links.
package share

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/mithrel/inkpad/internal/codec"
)

// DefaultParam is the query parameter carrying the encoded document.
const DefaultParam = "md"

// Link returns base with param set to the encoded content. Any existing
// value of param is replaced; other query parameters are kept.
func Link(base, param, content string) (string, error) {
	if param == "" {
		param = DefaultParam
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("share: base url: %w", err)
	}
	q := u.Query()
	q.Set(param, codec.Encode(content))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// TokenFromURL extracts the token from a URL's query. A string without a
// query is returned as a bare token.
func TokenFromURL(raw, param string) (string, bool) {
	if param == "" {
		param = DefaultParam
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if strings.Contains(raw, "?") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false
		}
		tok := u.Query().Get(param)
		return tok, tok != ""
	}
	return raw, true
}
