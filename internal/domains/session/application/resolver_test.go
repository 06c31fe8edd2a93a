package application

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/storefront-client/internal/domains/session/adapters/memory"
)

func unsignedToken(payload string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`)) + "." +
		enc.EncodeToString([]byte(payload)) + ".c2lnbmF0dXJl"
}

func storeWith(t *testing.T, token string) *memory.CredentialStore {
	t.Helper()
	store := memory.NewCredentialStore()
	if token != "" {
		require.NoError(t, store.Set(context.Background(), token))
	}
	return store
}

type brokenStore struct{}

func (brokenStore) Get(context.Context) (string, bool, error) { return "", false, errors.New("io") }
func (brokenStore) Set(context.Context, string) error         { return errors.New("io") }
func (brokenStore) Clear(context.Context) error               { return errors.New("io") }

func TestUnverifiedResolver_SubjectLookupOrder(t *testing.T) {
	cases := map[string]struct {
		payload string
		want    string
	}{
		"numeric id":       {`{"id":42,"email":"a@b.c"}`, "42"},
		"string id":        {`{"id":"u-7"}`, "u-7"},
		"userId":           {`{"userId":"abc"}`, "abc"},
		"sub":              {`{"sub":"s-1"}`, "s-1"},
		"id wins over sub": {`{"sub":"s-1","id":9}`, "9"},
		"large numeric id": {`{"id":9007199254740993}`, "9007199254740993"},
		"blank id skipped": {`{"id":"  ","userId":"x"}`, "x"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			resolver := NewUnverifiedResolver(storeWith(t, unsignedToken(tc.payload)))
			identity, ok := resolver.Resolve(context.Background())
			require.True(t, ok)
			assert.Equal(t, tc.want, identity.UserID)
		})
	}
}

func TestUnverifiedResolver_FailuresYieldAbsent(t *testing.T) {
	enc := base64.RawURLEncoding
	cases := map[string]string{
		"no token":        "",
		"two segments":    "a.b",
		"four segments":   "a.b.c.d",
		"bad base64":      "a.!!!.c",
		"not json":        "a." + enc.EncodeToString([]byte("hello")) + ".c",
		"json array":      "a." + enc.EncodeToString([]byte(`[1,2]`)) + ".c",
		"missing subject": unsignedToken(`{"email":"a@b.c"}`),
		"object subject":  unsignedToken(`{"id":{"n":1}}`),
		"trailing text":   unsignedToken(`{"id":"u1"}garbage`),
		"second object":   unsignedToken(`{"id":"u1"}{"id":"u2"}`),
		"stray bracket":   unsignedToken(`{"id":"u1"} ]`),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			resolver := NewUnverifiedResolver(storeWith(t, token))
			_, ok := resolver.Resolve(context.Background())
			assert.False(t, ok)
		})
	}

	_, ok := NewUnverifiedResolver(brokenStore{}).Resolve(context.Background())
	assert.False(t, ok)
}

func TestUnverifiedResolver_AllowsTrailingWhitespace(t *testing.T) {
	resolver := NewUnverifiedResolver(storeWith(t, unsignedToken("{\"id\":\"u1\"}\n ")))
	identity, ok := resolver.Resolve(context.Background())
	require.True(t, ok)
	assert.Equal(t, "u1", identity.UserID)
}

func TestUnverifiedResolver_IsPure(t *testing.T) {
	resolver := NewUnverifiedResolver(storeWith(t, unsignedToken(`{"id":42,"iat":1700000000,"exp":1700003600}`)))
	first, ok := resolver.Resolve(context.Background())
	require.True(t, ok)
	for i := 0; i < 5; i++ {
		again, ok := resolver.Resolve(context.Background())
		require.True(t, ok)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, time.Unix(1700000000, 0).Unix(), first.IssuedAt.Unix())
	assert.Equal(t, time.Unix(1700003600, 0).Unix(), first.ExpiresAt.Unix())
}

func TestUnverifiedResolver_AcceptsPaddedSegments(t *testing.T) {
	payload := base64.URLEncoding.EncodeToString([]byte(`{"id":1}`))
	resolver := NewUnverifiedResolver(storeWith(t, "h."+payload+".s"))
	identity, ok := resolver.Resolve(context.Background())
	require.True(t, ok)
	assert.Equal(t, "1", identity.UserID)
}

func signed(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func TestHMACResolver_VerifiesSignature(t *testing.T) {
	secret := []byte("shared")
	good := signed(t, secret, jwt.MapClaims{"id": 42, "exp": time.Now().Add(time.Hour).Unix()})

	identity, ok := NewHMACResolver(storeWith(t, good), secret).Resolve(context.Background())
	require.True(t, ok)
	assert.Equal(t, "42", identity.UserID)

	forged := signed(t, []byte("other"), jwt.MapClaims{"id": 42})
	_, ok = NewHMACResolver(storeWith(t, forged), secret).Resolve(context.Background())
	assert.False(t, ok)

	// The unverified resolver accepts the same forged token.
	_, ok = NewUnverifiedResolver(storeWith(t, forged)).Resolve(context.Background())
	assert.True(t, ok)

	expired := signed(t, secret, jwt.MapClaims{"id": 42, "exp": time.Now().Add(-time.Hour).Unix()})
	_, ok = NewHMACResolver(storeWith(t, expired), secret).Resolve(context.Background())
	assert.False(t, ok)
}

func TestVerifiedResolver_NilKeyFunc(t *testing.T) {
	_, ok := NewVerifiedResolver(storeWith(t, unsignedToken(`{"id":1}`)), nil).Resolve(context.Background())
	assert.False(t, ok)
}
