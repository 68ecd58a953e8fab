package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hirecopilot/relay/pkg/config"
	"github.com/hirecopilot/relay/pkg/kernel"
)

// JWTService implements TokenService with HMAC-signed JWTs.
type JWTService struct {
	secretKey       []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	issuer          string
}

// NewJWTService creates a new JWT token service.
func NewJWTService(secretKey string, accessTokenTTL, refreshTokenTTL time.Duration, issuer string) *JWTService {
	if accessTokenTTL == 0 {
		accessTokenTTL = 15 * time.Minute
	}
	if refreshTokenTTL == 0 {
		refreshTokenTTL = 7 * 24 * time.Hour
	}
	if issuer == "" {
		issuer = "hirecopilot"
	}

	return &JWTService{
		secretKey:       []byte(secretKey),
		accessTokenTTL:  accessTokenTTL,
		refreshTokenTTL: refreshTokenTTL,
		issuer:          issuer,
	}
}

// NewJWTServiceFromConfig builds the token service from the JWT config block.
func NewJWTServiceFromConfig(cfg *config.JWTConfig) *JWTService {
	return NewJWTService(cfg.Secret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, cfg.Issuer)
}

// Audience values keep access and refresh tokens from standing in for each
// other even though both are signed with the same key.
const (
	audienceAccess  = "hirecopilot-api"
	audienceRefresh = "hirecopilot-refresh"
)

// JWTClaims are the custom claims carried by access tokens. Role and company
// are convenience hints only; authorization re-resolves both from the store.
type JWTClaims struct {
	UserID    kernel.UserID    `json:"user_id"`
	CompanyID kernel.CompanyID `json:"company_id"`
	Email     string           `json:"email"`
	Name      string           `json:"name"`
	Role      string           `json:"role"`
	jwt.RegisteredClaims
}

// GenerateAccessToken generates a signed access token.
func (j *JWTService) GenerateAccessToken(userID kernel.UserID, companyID kernel.CompanyID, claims map[string]any) (string, error) {
	now := time.Now()

	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	role, _ := claims["role"].(string)

	jwtClaims := JWTClaims{
		UserID:    userID,
		CompanyID: companyID,
		Email:     email,
		Name:      name,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   userID.String(),
			Audience:  []string{audienceAccess},
			ExpiresAt: jwt.NewNumericDate(now.Add(j.accessTokenTTL)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims)

	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", ErrTokenGenerationFailed().WithDetail("error", err.Error())
	}

	return tokenString, nil
}

// ValidateAccessToken validates and decodes an access token.
func (j *JWTService) ValidateAccessToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secretKey, nil
	}, jwt.WithAudience(audienceAccess), jwt.WithIssuer(j.issuer))

	if err != nil {
		return nil, ErrTokenValidationFailed().WithDetail("error", err.Error())
	}

	if !token.Valid {
		return nil, ErrTokenValidationFailed().WithDetail("error", "token is invalid")
	}

	jwtClaims, ok := token.Claims.(*JWTClaims)
	if !ok {
		return nil, ErrTokenValidationFailed().WithDetail("error", "invalid claims type")
	}

	return &TokenClaims{
		UserID:    jwtClaims.UserID,
		CompanyID: jwtClaims.CompanyID,
		Email:     jwtClaims.Email,
		Name:      jwtClaims.Name,
		Role:      jwtClaims.Role,
		IssuedAt:  jwtClaims.IssuedAt.Time,
		ExpiresAt: jwtClaims.ExpiresAt.Time,
	}, nil
}

// GenerateRefreshToken generates a signed refresh token.
func (j *JWTService) GenerateRefreshToken(userID kernel.UserID) (string, error) {
	now := time.Now()

	claims := jwt.RegisteredClaims{
		Issuer:    j.issuer,
		Subject:   userID.String(),
		Audience:  []string{audienceRefresh},
		ExpiresAt: jwt.NewNumericDate(now.Add(j.refreshTokenTTL)),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", ErrTokenGenerationFailed().WithDetail("error", err.Error())
	}

	return tokenString, nil
}

// RefreshTokenTTL exposes the configured refresh lifetime for persistence.
func (j *JWTService) RefreshTokenTTL() time.Duration {
	return j.refreshTokenTTL
}
