package domain

import "context"

// InvoiceWriter persists drafts.
type InvoiceWriter interface {
	Create(ctx context.Context, payload Payload, idempotencyKey string) (SaveResult, error)
	Update(ctx context.Context, id ID, payload Payload) (SaveResult, error)
}

type InvoiceReader interface {
	Get(ctx context.Context, id ID) (Record, error)
}

type InvoiceQuerier interface {
	List(ctx context.Context, criteria FilterCriteria) ([]InvoiceSummary, error)
}

type InvoiceRemover interface {
	Delete(ctx context.Context, id ID) error
}

// DocumentFetcher retrieves a rendered invoice document.
type DocumentFetcher interface {
	Export(ctx context.Context, id ID, format Format) ([]byte, error)
}

// RecordStore is everything the client core needs from the store.
type RecordStore interface {
	InvoiceWriter
	InvoiceReader
	InvoiceQuerier
	InvoiceRemover
	DocumentFetcher
}
