package services

import (
	"context"
	"errors"
	"fmt"

	"journal/config"
	"journal/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken      = errors.New("invalid token")
	ErrInvalidSubject    = errors.New("token subject is not a user id")
	ErrAuthNotConfigured = errors.New("token verification is not configured")
)

// TokenVerifier resolves a bearer token to the user it was issued for
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (uuid.UUID, error)
}

// AuthService validates HS256 access tokens issued by the identity provider. The
// token's sub claim carries the user id.
type AuthService struct {
	secret []byte
	log    logger.Logger
}

func NewAuthService(cfg config.Config) *AuthService {
	return &AuthService{
		secret: []byte(cfg.AuthJWTSecret),
		log:    logger.New("authService"),
	}
}

func (s *AuthService) VerifyToken(ctx context.Context, tokenString string) (uuid.UUID, error) {
	log := s.log.TraceFromContext(ctx).Function("VerifyToken")

	if len(s.secret) == 0 {
		return uuid.Nil, ErrAuthNotConfigured
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		log.Debug("token rejected", "error", err)
		return uuid.Nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		log.Debug("token subject rejected", "subject", claims.Subject)
		return uuid.Nil, ErrInvalidSubject
	}

	return userID, nil
}
