package server

import (
	"context"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gravitas-games/mazenav/internal/config"
	"github.com/gravitas-games/mazenav/pkg/models"
)

// Blacklist reports revoked users
type Blacklist interface {
	IsBlacklisted(ctx context.Context, userID string) (bool, error)
}

// RedisBlacklist checks for the presence of <prefix><userID> keys
type RedisBlacklist struct {
	client *redis.Client
	prefix string
}

// NewRedisBlacklist creates a blacklist backed by Redis keys
func NewRedisBlacklist(client *redis.Client, prefix string) *RedisBlacklist {
	return &RedisBlacklist{client: client, prefix: prefix}
}

func (b *RedisBlacklist) IsBlacklisted(ctx context.Context, userID string) (bool, error) {
	n, err := b.client.Exists(ctx, b.prefix+userID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// JWTValidator handles JWT token validation
type JWTValidator struct {
	config     config.JWTConfig
	publicKey  *ecdsa.PublicKey
	keyMu      sync.RWMutex
	blacklist  Blacklist
	httpClient *http.Client
	logger     *log.Logger
}

// Claims represents JWT token claims issued by the login server
type Claims struct {
	UserID      int64  `json:"user_id"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	AuthMethod  string `json:"auth_method"`
	Permissions int64  `json:"permissions"`
	Activated   int64  `json:"activated"`
	jwt.RegisteredClaims
}

// NewJWTValidator fetches the signing key and keeps it fresh until ctx is
// done. blacklist may be nil.
func NewJWTValidator(ctx context.Context, cfg config.JWTConfig, blacklist Blacklist, logger *log.Logger) (*JWTValidator, error) {
	validator := &JWTValidator{
		config:     cfg,
		blacklist:  blacklist,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}

	if err := validator.RefreshPublicKey(ctx); err != nil {
		return nil, fmt.Errorf("failed to fetch public key: %w", err)
	}

	go validator.periodicKeyRefresh(ctx)

	logger.Info("JWT validator initialized", "issuer", cfg.Issuer)
	return validator, nil
}

// RefreshPublicKey fetches the PEM encoded ECDSA public key
func (v *JWTValidator) RefreshPublicKey(ctx context.Context) error {
	v.logger.Debug("Fetching public key", "url", v.config.PublicKeyURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.config.PublicKeyURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build key request: %w", err)
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch public key: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("public key endpoint returned status %d", resp.StatusCode)
	}

	keyData, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read public key: %w", err)
	}

	key, err := parseECDSAPublicKey(keyData)
	if err != nil {
		return err
	}

	v.keyMu.Lock()
	v.publicKey = key
	v.keyMu.Unlock()

	v.logger.Info("Public key refreshed")
	return nil
}

func parseECDSAPublicKey(data []byte) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}

	pubKey, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	ecdsaKey, ok := pubKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is not ECDSA")
	}
	return ecdsaKey, nil
}

// periodicKeyRefresh refreshes the public key until ctx is done
func (v *JWTValidator) periodicKeyRefresh(ctx context.Context) {
	refreshInterval := time.Duration(v.config.PublicKeyRefreshHrs) * time.Hour
	if refreshInterval <= 0 {
		return
	}

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := v.RefreshPublicKey(ctx); err != nil {
				v.logger.Error("Failed to refresh public key", "error", err)
			}
		}
	}
}

// ValidateToken validates a JWT token and returns the user it names
func (v *JWTValidator) ValidateToken(ctx context.Context, tokenString string) (*models.User, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"ES256", "ES384", "ES512"})}
	if v.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		v.keyMu.RLock()
		defer v.keyMu.RUnlock()
		return v.publicKey, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	user := &models.User{
		ID:          strconv.FormatInt(claims.UserID, 10),
		Username:    claims.Username,
		Email:       claims.Email,
		Permissions: claims.Permissions,
		Activated:   claims.Activated,
		AuthMethod:  claims.AuthMethod,
	}
	if user.IsBanned() {
		return nil, fmt.Errorf("user is banned")
	}
	if !user.IsActive() {
		return nil, fmt.Errorf("user not activated")
	}

	if v.blacklist != nil {
		isBlacklisted, err := v.blacklist.IsBlacklisted(ctx, user.ID)
		if err != nil {
			// Redis being down must not lock everyone out
			v.logger.Warn("Failed to check blacklist", "user", user.ID, "error", err)
		} else if isBlacklisted {
			return nil, fmt.Errorf("token is blacklisted")
		}
	}

	return user, nil
}

// extractToken finds the bearer token of a request
func extractToken(r *http.Request) string {
	// Sec-WebSocket-Protocol: "access_token, <token>"
	if protocols := r.Header.Get("Sec-WebSocket-Protocol"); protocols != "" {
		parts := strings.Split(protocols, ",")
		if len(parts) == 2 && strings.TrimSpace(parts[0]) == "access_token" {
			return strings.TrimSpace(parts[1])
		}
	}

	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}

	// Query parameter (less secure, but supported)
	return r.URL.Query().Get("token")
}
