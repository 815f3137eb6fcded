package service

import (
	"BiomassLedger/internal/config"
	"BiomassLedger/internal/document"
	"BiomassLedger/internal/model"
	"BiomassLedger/internal/monitoring"
	"BiomassLedger/internal/notify"
	"BiomassLedger/internal/pricing"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Renderer формирует документ накладной.
type Renderer interface {
	Generate(rec *model.DeliveryRecord, customer, supplier *document.Signature) ([]byte, error)
}

// DeliveryService оформление накладной: проверка, расчёт, документ, журнал, рассылка.
type DeliveryService struct {
	catalog      *CatalogService
	ledger       *LedgerService
	renderer     Renderer
	mail         mailer
	logger       *zap.SugaredLogger
	validate     *validator.Validate
	adminEmail   string
	signatureMax int
	now          func() time.Time
}

func NewDeliveryService(
	catalog *CatalogService,
	ledger *LedgerService,
	renderer Renderer,
	n notify.Notifier,
	logger *zap.SugaredLogger,
	cfg *config.Config,
) *DeliveryService {
	return &DeliveryService{
		catalog:      catalog,
		ledger:       ledger,
		renderer:     renderer,
		mail:         mailer{n: n, logger: logger, timeout: cfg.NotifyTimeout},
		logger:       logger,
		validate:     validator.New(),
		adminEmail:   model.NormalizeEmail(cfg.AdminEmail),
		signatureMax: cfg.SignatureMaxBytes(),
		now:          time.Now,
	}
}

// QuoteRequest предварительный расчёт без записи.
type QuoteRequest struct {
	MaterialName string
	// Basis пустой: базис материала по умолчанию.
	Basis       string
	Measurement pricing.Measurement
}

// IssueRequest данные новой накладной.
type IssueRequest struct {
	QuoteRequest
	CustomerName       string
	SignatureCustomer  []byte
	SignatureSupplier  []byte
	DisclaimerAccepted bool
}

// Quote считает количество и сумму по материалу из каталога вызывающего.
func (s *DeliveryService) Quote(ctx context.Context, caller *model.Identity, req QuoteRequest) (pricing.Result, *model.Material, error) {
	material, err := s.catalog.FindMaterial(ctx, caller, req.MaterialName)
	if err != nil {
		return pricing.Result{}, nil, err
	}

	basis := material.DefaultBasis
	if req.Basis != "" {
		if basis, err = model.ParseBasis(req.Basis); err != nil {
			return pricing.Result{}, nil, invalid("basis", err.Error())
		}
	}

	res, err := pricing.Quote(basis, req.Measurement, material.Prices())
	if err != nil {
		return pricing.Result{}, nil, invalid("measurement", err.Error())
	}
	return res, material, nil
}

// Issue оформляет накладную. Все проверки выполняются до первой записи;
// сбой рассылки не влияет на результат.
func (s *DeliveryService) Issue(ctx context.Context, caller *model.Identity, req IssueRequest) (*model.DeliveryRecord, error) {
	if !caller.IsApproved() {
		return nil, ErrForbidden
	}
	if !req.DisclaimerAccepted {
		return nil, invalid("disclaimer", "must be accepted")
	}
	sigCustomer, err := s.parseSignature("signature_customer", req.SignatureCustomer)
	if err != nil {
		return nil, err
	}
	sigSupplier, err := s.parseSignature("signature_supplier", req.SignatureSupplier)
	if err != nil {
		return nil, err
	}
	if req.CustomerName == "" {
		return nil, invalid("customer", "required")
	}
	if req.MaterialName == "" {
		return nil, invalid("material", "required")
	}

	customer, err := s.catalog.FindCustomer(ctx, caller, req.CustomerName)
	if err != nil {
		return nil, err
	}
	res, material, err := s.Quote(ctx, caller, req.QuoteRequest)
	if err != nil {
		return nil, err
	}

	owner, err := ownerOf(caller)
	if err != nil {
		return nil, err
	}
	measured := recordedMeasurement(res.Basis, req.Measurement)
	rec := &model.DeliveryRecord{
		ID:                   uuid.NewString(),
		CreatedAt:            s.now().UTC(),
		OwnerID:              owner,
		CreatorEmail:         caller.Email,
		CustomerName:         customer.Name,
		CustomerContact:      customer.Contact,
		MaterialName:         material.Name,
		Basis:                res.Basis,
		Gross:                measured.Gross,
		Tare:                 measured.Tare,
		Volume:               measured.Volume,
		NetQuantity:          res.Net,
		Unit:                 res.Unit,
		UnitPrice:            res.UnitPrice,
		Total:                res.Total,
		SignatureCustomerRef: sigCustomer.Ref,
		SignatureSupplierRef: sigSupplier.Ref,
	}

	pdf, err := s.renderer.Generate(rec, sigCustomer, sigSupplier)
	if err != nil {
		return nil, fmt.Errorf("generate document: %w", err)
	}
	doc := model.NewArtifact(document.ContentType, pdf)
	rec.ArtifactRef = doc.ID

	if _, err := s.ledger.Append(ctx, rec, sigCustomer.Artifact(), sigSupplier.Artifact(), doc); err != nil {
		return nil, err
	}

	monitoring.DeliveriesIssuedAmount.WithLabelValues(string(rec.Basis)).Inc()
	s.logger.Infow("delivery issued",
		"id", rec.ID,
		"owner", rec.OwnerID,
		"customer", rec.CustomerName,
		"material", rec.MaterialName,
		"total", rec.Total.StringFixed(pricing.TotalPlaces),
	)

	s.distribute(ctx, caller, rec, pdf)
	return rec, nil
}

// recordedMeasurement замеры, по которым считался базис; остальные в запись не попадают.
func recordedMeasurement(basis model.Basis, m pricing.Measurement) pricing.Measurement {
	if basis.IsMass() {
		m.Volume = decimal.Zero
	} else {
		m.Gross, m.Tare = decimal.Zero, decimal.Zero
	}
	return m
}

func (s *DeliveryService) parseSignature(field string, data []byte) (*document.Signature, error) {
	sig, err := document.ParseSignature(data, s.signatureMax)
	if err != nil {
		if errors.Is(err, document.ErrSignatureMissing) {
			return nil, invalid(field, "required")
		}
		return nil, invalid(field, err.Error())
	}
	return sig, nil
}

// distribute рассылка документа: клиенту (если контакт: e-mail), копия создателю,
// копия администратору, если создатель не администратор.
func (s *DeliveryService) distribute(ctx context.Context, caller *model.Identity, rec *model.DeliveryRecord, pdf []byte) {
	attachment := &notify.Attachment{
		Name:        document.FileName(rec),
		ContentType: document.ContentType,
		Content:     pdf,
	}

	if rec.CustomerContact != "" && s.validate.Var(rec.CustomerContact, "required,email") == nil {
		s.mail.send(ctx, "delivery_customer", notify.Message{
			To:         rec.CustomerContact,
			Subject:    "Lieferschein Biomasse",
			Body:       "Ihr Lieferschein im Anhang.",
			Attachment: attachment,
		})
	}

	s.mail.send(ctx, "delivery_copy", notify.Message{
		To:         caller.Email,
		Subject:    "Kopie Lieferschein",
		Body:       "Kopie zur Datensicherung.",
		Attachment: attachment,
	})

	if !caller.IsAdmin() && s.adminEmail != "" && s.adminEmail != model.NormalizeEmail(caller.Email) {
		s.mail.send(ctx, "delivery_admin", notify.Message{
			To:         s.adminEmail,
			Subject:    "Kopie Lieferschein (Admin)",
			Body:       "Kopie zur Datensicherung.",
			Attachment: attachment,
		})
	}
}
