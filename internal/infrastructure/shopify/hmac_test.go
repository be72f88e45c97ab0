package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

// The first vector is the platform documentation's worked example, so the
// digest can be checked against an independent implementation.
func TestVerifyHMACKnownAnswers(t *testing.T) {
	tests := []struct {
		name     string
		rawQuery string
		secret   string
	}{
		{
			name:     "documented example",
			rawQuery: "code=0907a61c0c8d55e99db179b68161bc00&hmac=700e2dadb827fcc8609e9d5ce208b2e9cdaab9df07390d2cbca10d7c328fc4bf&shop=some-shop.myshopify.com&state=0.6784241404160823&timestamp=1337178173",
			secret:   "hush",
		},
		{
			name:     "callback with host and state",
			rawQuery: "state=a1b2c3d4e5f6&shop=shop-a.myshopify.com&code=authcode123&timestamp=1756100000&host=YWRtaW4uc2hvcGlmeS5jb20&hmac=da70142d380b78fe5ed4214b606c1c1336840e6179fc8a9cbefdaa0424d74f84",
			secret:   "test-secret",
		},
		{
			name:     "percent encoded value signed in decoded form",
			rawQuery: "redirect=%2Fapps%2Fvoxcart&shop=shop-b.myshopify.com&timestamp=1756100001&hmac=171e495dfddbf8eb04493041da1f9dba1014790569a86bcd931e5b5cc46b9023",
			secret:   "test-secret",
		},
		{
			name:     "legacy signature parameter excluded from payload",
			rawQuery: "shop=shop-c.myshopify.com&signature=legacyvalue&timestamp=1756100002&hmac=fd3af86b352e2fdf2e0b32284016a63ada4324741336514e5c0191a2d9850b07",
			secret:   "test-secret",
		},
		{
			name:     "repeated key joined with comma",
			rawQuery: "ids=1&ids=2&shop=shop-d.myshopify.com&timestamp=1756100003&hmac=22929554d7208639f576484d53b5cd43a88fd7d57a0e97a4a2836e95a888efa4",
			secret:   "test-secret",
		},
		{
			name:     "empty value kept in payload",
			rawQuery: "host=&shop=shop-e.myshopify.com&timestamp=1756100004&hmac=cfd7c3d29263f70d9c27d49b6ec056bac78a0fbc50046794c710482dc0268267",
			secret:   "test-secret",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := VerifyHMAC(tt.rawQuery, tt.secret)
			require.NoError(t, err)
			require.True(t, ok)
		})
	}
}

func TestVerifyHMACRejects(t *testing.T) {
	signed := "code=authcode123&shop=shop-a.myshopify.com&state=a1b2c3d4e5f6&timestamp=1756100000"
	digest := hmacHex(t, "test-secret", signed)

	t.Run("missing hmac parameter", func(t *testing.T) {
		ok, err := VerifyHMAC(signed, "test-secret")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("wrong secret", func(t *testing.T) {
		ok, err := VerifyHMAC(signed+"&hmac="+digest, "other-secret")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("tampered parameter", func(t *testing.T) {
		tampered := "code=authcode123&shop=evil.example.com&state=a1b2c3d4e5f6&timestamp=1756100000&hmac=" + digest
		ok, err := VerifyHMAC(tampered, "test-secret")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("truncated digest", func(t *testing.T) {
		ok, err := VerifyHMAC(signed+"&hmac="+digest[:32], "test-secret")
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestVerifyHMACMalformedQuery(t *testing.T) {
	tests := []struct {
		name     string
		rawQuery string
	}{
		{name: "bad percent escape", rawQuery: "shop=%zz&hmac=abc"},
		{name: "semicolon separator", rawQuery: "shop=a;hmac=abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := VerifyHMAC(tt.rawQuery, "test-secret")
			require.Error(t, err, "a query that cannot be parsed is an error, not a false verdict")
			require.False(t, ok)
		})
	}
}

func TestCanonicalQuery(t *testing.T) {
	tests := []struct {
		name     string
		rawQuery string
		want     string
	}{
		{
			name:     "sorts keys and strips signature parameters",
			rawQuery: "timestamp=1337178173&shop=some-shop.myshopify.com&hmac=ffff&signature=legacy&code=abc",
			want:     "code=abc&shop=some-shop.myshopify.com&timestamp=1337178173",
		},
		{
			name:     "decodes values without re-encoding",
			rawQuery: "redirect=%2Fapps%2Fvoxcart&shop=shop-b.myshopify.com",
			want:     "redirect=/apps/voxcart&shop=shop-b.myshopify.com",
		},
		{
			name:     "empty query",
			rawQuery: "",
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanonicalQuery(tt.rawQuery)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	t.Run("malformed query", func(t *testing.T) {
		_, err := CanonicalQuery("shop=%zz")
		require.Error(t, err)
	})
}

// hmacHex signs payload the way the platform does, for building fixtures.
func hmacHex(t *testing.T, secret, payload string) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
