package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"gorm.io/gorm"
)

// InvoiceInput is the create/update body. Amount fields accept numbers or
// numeric strings.
type InvoiceInput struct {
	CustomerName    string                   `json:"customer_name"`
	CustomerAddress string                   `json:"customer_address"`
	ContractNo      string                   `json:"contract_no"`
	PONo            string                   `json:"po_no"`
	InvoiceDate     string                   `json:"invoice_date"`
	VATDate         string                   `json:"vat_date"`
	VAT             invoicedomain.Amount     `json:"vat"`
	WHT             invoicedomain.Amount     `json:"wht"`
	Items           []invoicedomain.LineItem `json:"items"`
}

// ListFilter narrows a listing. Empty fields do not constrain.
type ListFilter struct {
	CustomerName string
	PONo         string
	StartDate    string
	EndDate      string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, inv *Invoice) error
	Update(ctx context.Context, db *gorm.DB, inv *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	FindByIdempotencyKey(ctx context.Context, db *gorm.DB, key string) (*Invoice, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Invoice, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
	NextSequence(ctx context.Context, db *gorm.DB, name string) (int64, error)

	FindUserByUsername(ctx context.Context, db *gorm.DB, username string) (*User, error)
	InsertUser(ctx context.Context, db *gorm.DB, user *User) error
}

type Service interface {
	Create(ctx context.Context, in InvoiceInput, idempotencyKey string) (*Invoice, error)
	Update(ctx context.Context, id string, in InvoiceInput) (*Invoice, error)
	Get(ctx context.Context, id string) (*Invoice, error)
	List(ctx context.Context, filter ListFilter) ([]Invoice, error)
	Delete(ctx context.Context, id string) error
	Export(ctx context.Context, id string, format string) (*Artifact, error)
}

// Artifact is a rendered invoice document.
type Artifact struct {
	Filename    string
	ContentType string
	Body        []byte
}

// TokenPair is what a successful login returns.
type TokenPair struct {
	Access           string
	Refresh          string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

type AuthService interface {
	Login(ctx context.Context, username, password string) (TokenPair, error)
	Refresh(ctx context.Context, refresh string) (TokenPair, error)
	Authenticate(ctx context.Context, access string) (*Principal, error)
}

// Principal identifies the operator behind a verified access token.
type Principal struct {
	UserID   string
	Username string
}
