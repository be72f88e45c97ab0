package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// CanonicalQuery rebuilds the callback query into the exact byte sequence the
// platform signed: signature parameters removed, keys sorted, pairs joined as
// key=value with '&', values URL-decoded and not re-encoded. An unparseable
// query returns an error.
func CanonicalQuery(rawQuery string) (string, error) {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", fmt.Errorf("failed to parse callback query: %w", err)
	}
	return canonicalize(values), nil
}

// VerifyHMAC checks the hmac parameter of a callback query against the
// digest computed with the shared app secret. A missing signature or a
// mismatch returns false. Only a query string that cannot be parsed at all
// returns an error, that is a malformed request rather than a failed check.
func VerifyHMAC(rawQuery, secret string) (bool, error) {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return false, fmt.Errorf("failed to parse callback query: %w", err)
	}

	provided := values.Get("hmac")
	if provided == "" {
		return false, nil
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(canonicalize(values)))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(provided)), nil
}

// canonicalize sorts and joins already parsed parameters. The hmac parameter
// itself and the legacy signature parameter are never part of the signed
// payload. Repeated keys contribute their values comma-joined in arrival
// order.
func canonicalize(values url.Values) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		if key == "hmac" || key == "signature" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, key := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(strings.Join(values[key], ","))
	}
	return b.String()
}
