package migration

import (
	"context"
	"errors"
	"fmt"

	"github.com/smallbiznis/invoicedesk/internal/recordstore/domain"
	"gorm.io/gorm"
)

// RunMigrations brings the record store schema up to date on whichever
// dialect the store was opened with.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}
	if err := db.WithContext(ctx).AutoMigrate(domain.Models()...); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
