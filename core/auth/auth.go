package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingSecret 未配置 JWT_SECRET
	ErrMissingSecret = errors.New("jwt secret is not configured")
	// ErrInvalidToken 令牌无法通过校验
	ErrInvalidToken = errors.New("invalid identity token")
)

// Identity is a caller identity verified at the request boundary. It is passed
// explicitly to every library operation.
type Identity struct {
	// TokenIdentifier uniquely names the caller: "<issuer>|<subject>".
	TokenIdentifier string
	Subject         string
	Issuer          string
	Name            string
	Email           string
}

// Claims 身份令牌中携带的声明
type Claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenIdentifier joins issuer and subject the way profile rows are keyed.
func TokenIdentifier(issuer, subject string) string {
	return issuer + "|" + subject
}

// Verifier 使用共享密钥校验外部身份提供方签发的 HS256 令牌
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier 创建令牌校验器；issuer 为空时不校验签发方
func NewVerifier(secret, issuer string) (*Verifier, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &Verifier{secret: []byte(secret), issuer: issuer}, nil
}

// Verify parses and validates a raw bearer token.
func (v *Verifier) Verify(raw string) (*Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &Identity{
		TokenIdentifier: TokenIdentifier(claims.Issuer, claims.Subject),
		Subject:         claims.Subject,
		Issuer:          claims.Issuer,
		Name:            claims.Name,
		Email:           claims.Email,
	}, nil
}

// GenerateToken 签发开发用身份令牌
func GenerateToken(secret, issuer, subject, name, email string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}
	if subject == "" {
		return "", errors.New("subject is required")
	}
	now := time.Now()
	claims := Claims{
		Name:  name,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
