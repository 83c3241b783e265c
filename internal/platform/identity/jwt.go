package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/claimpacket-backend/internal/platform/ctxutil"
	"github.com/yungbote/claimpacket-backend/internal/platform/envutil"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Resolver turns a bearer token into the caller's identity.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*ctxutil.RequestData, error)
}

// Claims carries the org alongside the standard subject. Every pipeline
// call is scoped to OrgID, so a token without one is rejected.
type Claims struct {
	OrgID string `json:"org_id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

func JWTConfigFromEnv() JWTConfig {
	return JWTConfig{
		Secret: envutil.String("JWT_SECRET_KEY", ""),
		Issuer: envutil.String("JWT_ISSUER", "claimpacket"),
		TTL:    envutil.Duration("JWT_ACCESS_TTL", time.Hour),
	}
}

// JWTResolver verifies HS256 access tokens.
type JWTResolver struct {
	cfg JWTConfig
}

func NewJWTResolver(cfg JWTConfig) (*JWTResolver, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("missing JWT_SECRET_KEY")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	return &JWTResolver{cfg: cfg}, nil
}

func (r *JWTResolver) Resolve(_ context.Context, token string) (*ctxutil.RequestData, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if r.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(r.cfg.Issuer))
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(r.cfg.Secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	orgID, err := uuid.Parse(claims.OrgID)
	if err != nil || orgID == uuid.Nil {
		return nil, fmt.Errorf("%w: bad org_id", ErrInvalidToken)
	}
	return &ctxutil.RequestData{
		UserID: userID,
		OrgID:  orgID,
		Email:  claims.Email,
		Name:   claims.Name,
	}, nil
}

// Issue signs an access token for userID in orgID.
func (r *JWTResolver) Issue(userID, orgID uuid.UUID, email, name string) (string, error) {
	now := time.Now()
	claims := Claims{
		OrgID: orgID.String(),
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    r.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(r.cfg.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(r.cfg.Secret))
}
