package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicedesk/internal/clock"
	"github.com/smallbiznis/invoicedesk/internal/config"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/internal/invoice/export"
	"github.com/smallbiznis/invoicedesk/internal/invoice/format"
	obsmetrics "github.com/smallbiznis/invoicedesk/internal/observability/metrics"
	"github.com/smallbiznis/invoicedesk/internal/recordstore/domain"
	"github.com/smallbiznis/invoicedesk/internal/recordstore/render"
	"github.com/smallbiznis/invoicedesk/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const invoiceSequence = "invoice"

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Renderer *render.Renderer
	Config   config.Config
	Metrics  *obsmetrics.Metrics `optional:"true"`
	Clock    clock.Clock         `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	renderer *render.Renderer
	metrics  *obsmetrics.Metrics
	template string
	clock    clock.Clock
}

func NewService(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.System{}
	}
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("recordstore.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		renderer: p.Renderer,
		metrics:  p.Metrics,
		template: p.Config.InvoiceNumberTemplate,
		clock:    clk,
	}
}

// Create inserts a new invoice and assigns its number. A repeated
// idempotency key returns the invoice created the first time.
func (s *Service) Create(ctx context.Context, in domain.InvoiceInput, idempotencyKey string) (*domain.Invoice, error) {
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if existing, err := s.repo.FindByIdempotencyKey(ctx, s.db, idempotencyKey); err != nil {
		return nil, err
	} else if existing != nil {
		s.log.Info("idempotent create replayed", zap.String("invoice_id", existing.ID.String()))
		return existing, nil
	}

	inv, err := s.fromInput(in)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	inv.ID = s.genID.Generate()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	if idempotencyKey != "" {
		inv.IdempotencyKey = &idempotencyKey
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, err := s.repo.NextSequence(ctx, tx, invoiceSequence)
		if err != nil {
			return err
		}
		inv.InvoiceNo, err = format.FormatInvoiceNumber(s.template, now, seq)
		if err != nil {
			return err
		}
		return s.repo.Insert(ctx, tx, inv)
	})
	if err != nil {
		if idempotencyKey != "" && db.IsUniqueViolation(err) {
			if existing, findErr := s.repo.FindByIdempotencyKey(ctx, s.db, idempotencyKey); findErr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}

	s.metrics.RecordInvoiceCreated(ctx)
	s.log.Info("invoice created",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("invoice_no", inv.InvoiceNo),
	)
	return inv, nil
}

func (s *Service) Update(ctx context.Context, id string, in domain.InvoiceInput) (*domain.Invoice, error) {
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := s.fromInput(in)
	if err != nil {
		return nil, err
	}

	next.ID = current.ID
	next.InvoiceNo = current.InvoiceNo
	next.IdempotencyKey = current.IdempotencyKey
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = s.clock.Now().UTC()
	if !next.UpdatedAt.After(current.UpdatedAt) {
		next.UpdatedAt = current.UpdatedAt.Add(time.Microsecond)
	}

	if err := s.repo.Update(ctx, s.db, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	return s.find(ctx, id)
}

func (s *Service) List(ctx context.Context, filter domain.ListFilter) ([]domain.Invoice, error) {
	for _, d := range []string{filter.StartDate, filter.EndDate} {
		if err := validateDate(d); err != nil {
			return nil, err
		}
	}
	return s.repo.List(ctx, s.db, filter)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	parsed, err := parseID(id)
	if err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, s.db, parsed)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrInvoiceNotFound
	}
	s.log.Info("invoice deleted", zap.String("invoice_id", id))
	return nil
}

func (s *Service) Export(ctx context.Context, id string, rawFormat string) (*domain.Artifact, error) {
	f, err := invoicedomain.ParseFormat(rawFormat)
	if err != nil {
		return nil, domain.ErrUnsupportedFormat
	}
	inv, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	body, err := s.renderer.Render(ctx, inv, f)
	if err != nil {
		return nil, err
	}
	return &domain.Artifact{
		Filename:    export.Filename(inv.InvoiceNo, f),
		ContentType: f.ContentType(),
		Body:        body,
	}, nil
}

func (s *Service) find(ctx context.Context, id string) (*domain.Invoice, error) {
	parsed, err := parseID(id)
	if err != nil {
		return nil, err
	}
	inv, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrInvoiceNotFound
	}
	return inv, nil
}

func (s *Service) fromInput(in domain.InvoiceInput) (*domain.Invoice, error) {
	name := strings.TrimSpace(in.CustomerName)
	if name == "" {
		return nil, domain.ErrMissingCustomerName
	}
	for _, d := range []string{in.InvoiceDate, in.VATDate} {
		if err := validateDate(d); err != nil {
			return nil, err
		}
	}

	items := make([]domain.Item, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, domain.Item{
			Description: it.Description,
			Unit:        it.Unit,
			Qty:         it.Qty.Float64(),
			UnitRate:    it.UnitRate.Float64(),
		})
	}

	inv := &domain.Invoice{
		CustomerName:    name,
		CustomerAddress: in.CustomerAddress,
		ContractNo:      in.ContractNo,
		PONo:            in.PONo,
		InvoiceDate:     strings.TrimSpace(in.InvoiceDate),
		VATDate:         strings.TrimSpace(in.VATDate),
		VAT:             in.VAT.Float64(),
		WHT:             in.WHT.Float64(),
		Items:           items,
	}
	inv.Recompute()
	return inv, nil
}

func parseID(id string) (snowflake.ID, error) {
	parsed, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil || parsed <= 0 {
		return 0, domain.ErrInvalidInvoiceID
	}
	return snowflake.ID(parsed), nil
}

// validateDate accepts an empty value or YYYY-MM-DD.
func validateDate(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	if _, err := time.Parse(time.DateOnly, v); err != nil {
		return errors.Join(domain.ErrInvalidDate, err)
	}
	return nil
}
