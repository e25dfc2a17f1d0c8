package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"leadengine/config"
	"leadengine/models"
)

func TestGenerateAndParseJWT(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"
	admin := &models.AdminUser{Model: gorm.Model{ID: 7}, TokenVersion: 2}

	access, refresh, err := GenerateJWTToken(admin)
	require.NoError(t, err)

	claims, err := ParseJWTToken(access)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.AdminID)
	assert.Equal(t, 2, claims.TokenVersion)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)

	claims, err = ParseJWTToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.TokenType)

	config.AppConfig.JWTSecret = "rotated"
	_, err = ParseJWTToken(access)
	assert.Error(t, err)
}
