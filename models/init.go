package models

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CreateDefaultAdmin makes sure the configured back-office account exists.
// An existing account keeps its password.
func CreateDefaultAdmin(db *gorm.DB, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := AdminUser{
		Email:        email,
		PasswordHash: string(hash),
		Name:         "Administrator",
		IsActive:     true,
	}
	return db.Where("email = ?", email).FirstOrCreate(&admin).Error
}
