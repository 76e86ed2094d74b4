package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
)

const (
	AuthorizationHeader = "Authorization"
	RefreshCookieName   = "jwt"
)

type Config struct {
	AccessSecret  string        `envconfig:"ACCESS_TOKEN_SECRET" required:"true"`
	RefreshSecret string        `envconfig:"REFRESH_TOKEN_SECRET" required:"true"`
	AccessTTL     time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"1h"`
	RefreshTTL    time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"1h"`
}

// Claims carried by both access and refresh tokens. Refresh tokens
// identify the member by the internal id only.
type Claims struct {
	MemberID int    `json:"memberId"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	cfg Config
}

func NewTokenManager(cfg Config) *TokenManager {
	return &TokenManager{cfg: cfg}
}

func (m *TokenManager) RefreshTTL() time.Duration { return m.cfg.RefreshTTL }

func (m *TokenManager) NewAccessToken(memberID int, role string) (string, error) {
	return m.sign(memberID, role, m.cfg.AccessTTL, []byte(m.cfg.AccessSecret))
}

func (m *TokenManager) NewRefreshToken(memberID int) (string, error) {
	return m.sign(memberID, "", m.cfg.RefreshTTL, []byte(m.cfg.RefreshSecret))
}

func (m *TokenManager) sign(memberID int, role string, ttl time.Duration, key []byte) (string, error) {
	now := time.Now()
	claims := &Claims{
		MemberID: memberID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

func (m *TokenManager) ParseAccessToken(token string) (*Claims, error) {
	return parse(token, []byte(m.cfg.AccessSecret))
}

func (m *TokenManager) ParseRefreshToken(token string) (*Claims, error) {
	return parse(token, []byte(m.cfg.RefreshSecret))
}

func parse(tokenStr string, key []byte) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

type contextKey int

const (
	memberIDKey contextKey = iota + 1
	roleKey
)

func SetAuthContext(ctx context.Context, memberID int, role string) context.Context {
	ctx = context.WithValue(ctx, memberIDKey, memberID)
	return context.WithValue(ctx, roleKey, role)
}

func MemberFromContext(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(memberIDKey).(int)
	return id, ok
}

func RoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(roleKey).(string)
	return role, ok
}
