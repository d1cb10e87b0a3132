package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	AccessTokenTTL  = 24 * time.Hour
	RefreshTokenTTL = 7 * 24 * time.Hour
)

var ErrInvalidToken = errors.New("invalid token")

// GenerateTokens signs an access token carrying the role name and a longer
// lived refresh token that only identifies the user.
func GenerateTokens(userID uint, email, role, secret string) (access string, refresh string, err error) {
	now := time.Now()

	access, err = jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    userID,
		"email": email,
		"role":  role,
		"type":  TokenTypeAccess,
		"iat":   now.Unix(),
		"exp":   now.Add(AccessTokenTTL).Unix(),
	}).SignedString([]byte(secret))
	if err != nil {
		return "", "", fmt.Errorf("sign access token: %w", err)
	}

	refresh, err = jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   userID,
		"type": TokenTypeRefresh,
		"jti":  uuid.NewString(),
		"iat":  now.Unix(),
		"exp":  now.Add(RefreshTokenTTL).Unix(),
	}).SignedString([]byte(secret))
	if err != nil {
		return "", "", fmt.Errorf("sign refresh token: %w", err)
	}
	return access, refresh, nil
}

// ParseRefreshToken validates a refresh token and returns the user id.
func ParseRefreshToken(tokenString, secret string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	if typ, _ := claims["type"].(string); typ != TokenTypeRefresh {
		return 0, ErrInvalidToken
	}
	id, ok := claims["id"].(float64)
	if !ok || id <= 0 {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}
