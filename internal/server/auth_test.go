package server

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gravitas-games/mazenav/internal/config"
	"github.com/gravitas-games/mazenav/internal/logging"
)

type fakeBlacklist struct {
	revoked map[string]bool
	err     error
}

func (f *fakeBlacklist) IsBlacklisted(_ context.Context, userID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.revoked[userID], nil
}

// keyServer serves the PEM public key of a fresh P-256 key pair.
func keyServer(t *testing.T) (*ecdsa.PrivateKey, *httptest.Server) {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	body := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	t.Cleanup(ts.Close)
	return priv, ts
}

func newTestValidator(t *testing.T, url string, bl Blacklist) *JWTValidator {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	v, err := NewJWTValidator(ctx, config.JWTConfig{
		Issuer:              "login",
		PublicKeyURL:        url,
		PublicKeyRefreshHrs: 24,
	}, bl, logging.Discard())
	if err != nil {
		t.Fatalf("NewJWTValidator: %v", err)
	}
	return v
}

func signToken(t *testing.T, key *ecdsa.PrivateKey, claims Claims) string {
	t.Helper()
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func validClaims() Claims {
	return Claims{
		UserID:    42,
		Username:  "ada",
		Email:     "ada@example.com",
		Activated: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "login",
		},
	}
}

func TestValidateToken(t *testing.T) {
	key, ts := keyServer(t)
	v := newTestValidator(t, ts.URL, nil)

	user, err := v.ValidateToken(context.Background(), signToken(t, key, validClaims()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "42" || user.Username != "ada" || !user.IsActive() {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	key, ts := keyServer(t)
	v := newTestValidator(t, ts.URL, &fakeBlacklist{revoked: map[string]bool{"7": true}})

	otherKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	hmac, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims()).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign hmac: %v", err)
	}

	wrongIssuer := validClaims()
	wrongIssuer.Issuer = "elsewhere"
	banned := validClaims()
	banned.Activated = -1
	inactive := validClaims()
	inactive.Activated = 0
	revoked := validClaims()
	revoked.UserID = 7
	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	cases := map[string]string{
		"wrong issuer":  signToken(t, key, wrongIssuer),
		"banned":        signToken(t, key, banned),
		"not activated": signToken(t, key, inactive),
		"blacklisted":   signToken(t, key, revoked),
		"expired":       signToken(t, key, expired),
		"wrong key":     signToken(t, otherKey, validClaims()),
		"hmac":          hmac,
		"garbage":       "not.a.token",
	}
	for name, token := range cases {
		if _, err := v.ValidateToken(context.Background(), token); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestValidateTokenBlacklistDown(t *testing.T) {
	key, ts := keyServer(t)
	v := newTestValidator(t, ts.URL, &fakeBlacklist{err: errors.New("redis down")})

	if _, err := v.ValidateToken(context.Background(), signToken(t, key, validClaims())); err != nil {
		t.Fatalf("blacklist outage should not reject: %v", err)
	}
}

func TestNewJWTValidatorKeyUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := NewJWTValidator(context.Background(), config.JWTConfig{PublicKeyURL: ts.URL}, nil, logging.Discard())
	if err == nil {
		t.Fatal("expected error for failing key endpoint")
	}
}

func TestExtractToken(t *testing.T) {
	cases := []struct {
		name  string
		setup func(r *http.Request)
		want  string
	}{
		{"subprotocol", func(r *http.Request) { r.Header.Set("Sec-WebSocket-Protocol", "access_token, abc") }, "abc"},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer def") }, "def"},
		{"query", func(r *http.Request) { r.URL.RawQuery = "token=ghi" }, "ghi"},
		{"other subprotocol", func(r *http.Request) { r.Header.Set("Sec-WebSocket-Protocol", "chat") }, ""},
		{"none", func(r *http.Request) {}, ""},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		tc.setup(r)
		if got := extractToken(r); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestValidateTokenBannedBeforeInactive(t *testing.T) {
	key, ts := keyServer(t)
	v := newTestValidator(t, ts.URL, nil)

	banned := validClaims()
	banned.Activated = -1
	_, err := v.ValidateToken(context.Background(), signToken(t, key, banned))
	if err == nil || !strings.Contains(err.Error(), "banned") {
		t.Fatalf("expected banned error, got %v", err)
	}
}
