// Package domain holds the record store's persisted types.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Item is one line of an invoice, stored inside the invoice row as JSON.
type Item struct {
	Description string  `json:"description"`
	Unit        string  `json:"unit"`
	Qty         float64 `json:"qty"`
	UnitRate    float64 `json:"unit_rate"`
}

func (i Item) Amount() float64 { return i.Qty * i.UnitRate }

// Invoice is a persisted invoice.
type Invoice struct {
	ID              snowflake.ID              `gorm:"primaryKey"`
	InvoiceNo       string                    `gorm:"type:text;not null;uniqueIndex"`
	CustomerName    string                    `gorm:"type:text;not null;index"`
	CustomerAddress string                    `gorm:"type:text"`
	ContractNo      string                    `gorm:"type:text"`
	PONo            string                    `gorm:"column:po_no;type:text;index"`
	InvoiceDate     string                    `gorm:"type:text;index"`
	VATDate         string                    `gorm:"column:vat_date;type:text"`
	VAT             float64                   `gorm:"column:vat;not null;default:0"`
	WHT             float64                   `gorm:"column:wht;not null;default:0"`
	Subtotal        float64                   `gorm:"not null;default:0"`
	Total           float64                   `gorm:"not null;default:0"`
	Items           datatypes.JSONSlice[Item] `gorm:"type:json"`
	IdempotencyKey  *string                   `gorm:"type:text;uniqueIndex"`
	CreatedAt       time.Time                 `gorm:"not null"`
	UpdatedAt       time.Time                 `gorm:"not null"`
}

func (Invoice) TableName() string { return "invoices" }

// Recompute derives subtotal and total (subtotal + vat - wht) from the rows.
// Client-supplied totals are never trusted.
func (inv *Invoice) Recompute() {
	var subtotal float64
	for _, it := range inv.Items {
		subtotal += it.Amount()
	}
	inv.Subtotal = subtotal
	inv.Total = subtotal + inv.VAT - inv.WHT
}

// User is an operator account allowed to request tokens.
type User struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	Username     string       `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string       `gorm:"type:text;not null"`
	IsSuperuser  bool         `gorm:"not null;default:false"`
	CreatedAt    time.Time    `gorm:"not null"`
	UpdatedAt    time.Time    `gorm:"not null"`
}

func (User) TableName() string { return "users" }

// Sequence is a named counter used for invoice numbering.
type Sequence struct {
	Name      string `gorm:"primaryKey;type:text"`
	Value     int64  `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

func (Sequence) TableName() string { return "sequences" }

// Models lists every table the store migrates.
func Models() []any {
	return []any{&Invoice{}, &User{}, &Sequence{}}
}
