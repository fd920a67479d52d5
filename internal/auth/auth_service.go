package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"cmsadmin/internal/database"
	"cmsadmin/internal/errcode"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Identity is the acting user decoded from an access token. It is passed
// explicitly to every service call that needs to know who is acting.
type Identity struct {
	UserID             uint
	Role               database.Role
	MustChangePassword bool
}

// IsAdmin reports whether the identity carries the ADMIN role.
func (i Identity) IsAdmin() bool { return i.Role == database.RoleAdmin }

// AuthService signs and verifies the RS256 token pair.
type AuthService struct {
	privateKey      *rsa.PrivateKey
	publicKey       *rsa.PublicKey
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	now             func() time.Time
}

// TokenPair holds a freshly issued access and refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenClaims are the application fields carried in both token types.
type TokenClaims struct {
	UserID             uint          `json:"user_id"`
	Role               database.Role `json:"role"`
	TokenType          string        `json:"token_type"`
	MustChangePassword bool          `json:"must_change_password,omitempty"`
	jwt.RegisteredClaims
}

// Identity converts verified claims into the acting identity.
func (c *TokenClaims) Identity() Identity {
	return Identity{UserID: c.UserID, Role: c.Role, MustChangePassword: c.MustChangePassword}
}

// NewAuthService parses the PEM key pair.
func NewAuthService(privateKeyPEM, publicKeyPEM []byte, accessTTL, refreshTTL time.Duration) (*AuthService, error) {
	if len(privateKeyPEM) == 0 {
		return nil, errors.New("private key pem is required")
	}
	if len(publicKeyPEM) == 0 {
		return nil, errors.New("public key pem is required")
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse rsa private key: %w", err)
	}
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse rsa public key: %w", err)
	}

	return &AuthService{
		privateKey:      privateKey,
		publicKey:       publicKey,
		accessTokenTTL:  accessTTL,
		refreshTokenTTL: refreshTTL,
		now:             time.Now,
	}, nil
}

// GenerateTokenPair issues an access token and a refresh token with a fresh jti.
func (s *AuthService) GenerateTokenPair(id Identity) (TokenPair, error) {
	now := s.now()
	subject := strconv.FormatUint(uint64(id.UserID), 10)

	accessClaims := TokenClaims{
		UserID:             id.UserID,
		Role:               id.Role,
		TokenType:          TokenTypeAccess,
		MustChangePassword: id.MustChangePassword,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenTTL)),
		},
	}
	refreshClaims := TokenClaims{
		UserID:    id.UserID,
		Role:      id.Role,
		TokenType: TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTokenTTL)),
		},
	}

	accessToken, err := s.signClaims(accessClaims)
	if err != nil {
		return TokenPair{}, err
	}
	refreshToken, err := s.signClaims(refreshClaims)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// ValidateToken verifies signature, expiry and token type. Every failure is KindUnauthorized.
func (s *AuthService) ValidateToken(tokenString, tokenType string) (*TokenClaims, error) {
	if tokenString == "" {
		return nil, errcode.New(errcode.KindUnauthorized, "missing token")
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodRS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.publicKey, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, errcode.Wrap(errcode.KindUnauthorized, "invalid token", err)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, errcode.New(errcode.KindUnauthorized, "invalid token")
	}
	if claims.TokenType != tokenType {
		return nil, errcode.New(errcode.KindUnauthorized, "wrong token type")
	}
	if tokenType == TokenTypeRefresh && claims.ID == "" {
		return nil, errcode.New(errcode.KindUnauthorized, "refresh token missing jti")
	}
	return claims, nil
}

func (s *AuthService) signClaims(claims TokenClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(s.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *AuthService) AccessTokenTTL() time.Duration {
	return s.accessTokenTTL
}

func (s *AuthService) RefreshTokenTTL() time.Duration {
	return s.refreshTokenTTL
}
