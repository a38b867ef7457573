// Package codec turns document text into URL-safe tokens and back.
//
// Text is first taken as its UTF-8 bytes, then base64 encoded with the
// URL-safe alphabet and the padding stripped. Decode reverses both steps and
// rebuilds the padding with the usual modulo-4 rule.
package codec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrDecode marks a token that cannot be turned back into text.
var ErrDecode = errors.New("malformed share token")

// Encode returns the URL-safe, unpadded token for text.
func Encode(text string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(text))
}

// Decode returns the text for token. Every failure wraps ErrDecode.
func Decode(token string) (string, error) {
	// Links wrapped by mail clients carry line breaks inside the token.
	token = strings.Join(strings.Fields(token), "")
	if token == "" {
		return "", nil
	}
	// Tokens pasted from tools that use the standard alphabet.
	token = strings.NewReplacer("+", "-", "/", "_").Replace(token)
	token = strings.TrimRight(token, "=")

	switch len(token) % 4 {
	case 1:
		return "", fmt.Errorf("%w: invalid length %d", ErrDecode, len(token))
	case 2:
		token += "=="
	case 3:
		token += "="
	}
	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: not utf-8 text", ErrDecode)
	}
	return string(b), nil
}
