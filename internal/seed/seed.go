package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicedesk/internal/recordstore/auth"
	"github.com/smallbiznis/invoicedesk/internal/recordstore/domain"
	"gorm.io/gorm"
)

var ErrBootstrapPassword = errors.New("bootstrap password is required")

// EnsureSuperuser creates the bootstrap superuser if it does not exist. An
// existing user is promoted but its password is left alone.
func EnsureSuperuser(ctx context.Context, db *gorm.DB, node *snowflake.Node, username, password string) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user domain.User
		err := tx.Where("username = ?", username).First(&user).Error
		if err == nil {
			if user.IsSuperuser {
				return nil
			}
			return tx.Model(&domain.User{}).
				Where("id = ?", user.ID).
				Updates(map[string]any{"is_superuser": true, "updated_at": time.Now().UTC()}).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if password == "" {
			return ErrBootstrapPassword
		}
		hashed, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		return tx.Create(&domain.User{
			ID:           node.Generate(),
			Username:     username,
			PasswordHash: hashed,
			IsSuperuser:  true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}).Error
	})
}
