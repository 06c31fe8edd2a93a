package application

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Apurer/storefront-client/internal/domains/session/domain"
	"github.com/Apurer/storefront-client/internal/domains/session/ports"
)

// subjectClaims lists the claim names probed for the user identifier, in order.
var subjectClaims = []string{"id", "userId", "sub"}

// UnverifiedResolver decodes the token payload without checking its signature.
// It only gates local UI decisions; every authorization decision stays on the server.
type UnverifiedResolver struct {
	store  ports.CredentialStore
	parser *jwt.Parser
}

func NewUnverifiedResolver(store ports.CredentialStore) *UnverifiedResolver {
	return &UnverifiedResolver{store: store, parser: jwt.NewParser(jwt.WithPaddingAllowed())}
}

func (r *UnverifiedResolver) Resolve(ctx context.Context) (domain.Identity, bool) {
	token, ok := currentToken(ctx, r.store)
	if !ok {
		return domain.Identity{}, false
	}
	claims, err := r.decodeClaims(token)
	if err != nil {
		return domain.Identity{}, false
	}
	identity, err := identityFromClaims(claims)
	if err != nil {
		return domain.Identity{}, false
	}
	return identity, true
}

// decodeClaims decodes the middle segment of a three-part token.
func (r *UnverifiedResolver) decodeClaims(token string) (jwt.MapClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, jwt.ErrTokenMalformed
	}
	payload, err := r.parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	claims := jwt.MapClaims{}
	if err := dec.Decode(&claims); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, jwt.ErrTokenMalformed
	}
	return claims, nil
}

// VerifiedResolver checks the token signature through keyFunc before trusting it.
type VerifiedResolver struct {
	store   ports.CredentialStore
	keyFunc jwt.Keyfunc
	parser  *jwt.Parser
}

func NewVerifiedResolver(store ports.CredentialStore, keyFunc jwt.Keyfunc, opts ...jwt.ParserOption) *VerifiedResolver {
	opts = append([]jwt.ParserOption{jwt.WithJSONNumber()}, opts...)
	return &VerifiedResolver{store: store, keyFunc: keyFunc, parser: jwt.NewParser(opts...)}
}

// NewHMACResolver verifies HS256/384/512 tokens against a shared secret.
func NewHMACResolver(store ports.CredentialStore, secret []byte) *VerifiedResolver {
	keyFunc := func(*jwt.Token) (any, error) { return secret, nil }
	return NewVerifiedResolver(store, keyFunc, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
}

func (r *VerifiedResolver) Resolve(ctx context.Context) (domain.Identity, bool) {
	token, ok := currentToken(ctx, r.store)
	if !ok || r.keyFunc == nil {
		return domain.Identity{}, false
	}
	claims := jwt.MapClaims{}
	if _, err := r.parser.ParseWithClaims(token, claims, r.keyFunc); err != nil {
		return domain.Identity{}, false
	}
	identity, err := identityFromClaims(claims)
	if err != nil {
		return domain.Identity{}, false
	}
	return identity, true
}

func currentToken(ctx context.Context, store ports.CredentialStore) (string, bool) {
	if store == nil {
		return "", false
	}
	token, ok, err := store.Get(ctx)
	if err != nil || !ok {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func identityFromClaims(claims jwt.MapClaims) (domain.Identity, error) {
	userID := ""
	for _, name := range subjectClaims {
		if id, ok := subjectString(claims[name]); ok {
			userID = id
			break
		}
	}
	if userID == "" {
		return domain.Identity{}, domain.ErrMissingSubject
	}
	identity := domain.Identity{UserID: userID}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		identity.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		identity.ExpiresAt = exp.Time
	}
	return identity, nil
}

func subjectString(v any) (string, bool) {
	switch id := v.(type) {
	case string:
		id = strings.TrimSpace(id)
		return id, id != ""
	case json.Number:
		return id.String(), id.String() != ""
	default:
		return "", false
	}
}

var (
	_ ports.IdentityResolver = (*UnverifiedResolver)(nil)
	_ ports.IdentityResolver = (*VerifiedResolver)(nil)
)
