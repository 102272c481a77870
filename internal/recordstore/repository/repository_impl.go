package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicedesk/internal/recordstore/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, inv *domain.Invoice) error {
	return db.WithContext(ctx).Create(inv).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, inv *domain.Invoice) error {
	return db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("id = ?", inv.ID).
		Select("customer_name", "customer_address", "contract_no", "po_no", "invoice_date",
			"vat_date", "vat", "wht", "subtotal", "total", "items", "updated_at").
		Updates(inv).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := db.WithContext(ctx).Where("id = ?", id).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repo) FindByIdempotencyKey(ctx context.Context, db *gorm.DB, key string) (*domain.Invoice, error) {
	if key == "" {
		return nil, nil
	}
	var inv domain.Invoice
	err := db.WithContext(ctx).Where("idempotency_key = ?", key).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// List matches customer_name and po_no as case-insensitive substrings and
// bounds invoice_date inclusively. Dates are YYYY-MM-DD text, so string
// comparison orders them correctly.
func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Invoice, error) {
	stmt := db.WithContext(ctx).Model(&domain.Invoice{})
	if v := strings.TrimSpace(filter.CustomerName); v != "" {
		stmt = stmt.Where("LOWER(customer_name) LIKE ? ESCAPE '!'", likePattern(v))
	}
	if v := strings.TrimSpace(filter.PONo); v != "" {
		stmt = stmt.Where("LOWER(po_no) LIKE ? ESCAPE '!'", likePattern(v))
	}
	if v := strings.TrimSpace(filter.StartDate); v != "" {
		stmt = stmt.Where("invoice_date >= ?", v)
	}
	if v := strings.TrimSpace(filter.EndDate); v != "" {
		stmt = stmt.Where("invoice_date <= ?", v)
	}

	var out []domain.Invoice
	if err := stmt.Order("id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Invoice{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// NextSequence increments and returns the named counter. Call it inside a
// transaction; the row is locked on dialects that support it.
func (r *repo) NextSequence(ctx context.Context, db *gorm.DB, name string) (int64, error) {
	stmt := db.WithContext(ctx)
	if db.Dialector.Name() != "sqlite" {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var seq domain.Sequence
	err := stmt.Where("name = ?", name).First(&seq).Error
	now := time.Now().UTC()
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		seq = domain.Sequence{Name: name, Value: 1, UpdatedAt: now}
		if err := db.WithContext(ctx).Create(&seq).Error; err != nil {
			return 0, err
		}
		return seq.Value, nil
	case err != nil:
		return 0, err
	}

	next := seq.Value + 1
	err = db.WithContext(ctx).
		Model(&domain.Sequence{}).
		Where("name = ?", name).
		Updates(map[string]any{"value": next, "updated_at": now}).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (r *repo) FindUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error) {
	var user domain.User
	err := db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repo) InsertUser(ctx context.Context, db *gorm.DB, user *domain.User) error {
	return db.WithContext(ctx).Create(user).Error
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// likePattern matches v as a literal, case-insensitive substring.
func likePattern(v string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(v)) + "%"
}
