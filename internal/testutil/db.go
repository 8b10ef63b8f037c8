// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/anonto42/socialpulse/backend/internal/models"
	"github.com/anonto42/socialpulse/backend/pkg/config"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewDB opens an isolated in-memory sqlite database with every gorm model migrated
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := config.OpenGorm("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Like{},
		&models.Comment{},
		&models.Notification{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts a user with the given username and returns it
func CreateUser(t testing.TB, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{Username: username, Email: username + "@example.test"}
	if err := db.WithContext(context.Background()).Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}
