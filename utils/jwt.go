package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"leadengine/config"
	"leadengine/models"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

type Claims struct {
	AdminID      uint   `json:"admin_id"`
	TokenVersion int    `json:"token_version"`
	TokenType    string `json:"token_type"`
	jwt.RegisteredClaims
}

func signToken(admin *models.AdminUser, tokenType string, ttl time.Duration) (string, error) {
	claims := &Claims{
		AdminID:      admin.ID,
		TokenVersion: admin.TokenVersion,
		TokenType:    tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

// GenerateJWTToken issues a 15 minute access token and a 7 day refresh token.
func GenerateJWTToken(admin *models.AdminUser) (string, string, error) {
	accessToken, err := signToken(admin, TokenTypeAccess, 15*time.Minute)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := signToken(admin, TokenTypeRefresh, 7*24*time.Hour)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func ParseJWTToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
