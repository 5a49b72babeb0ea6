package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/receiptflow-api/internal/domain/entity"
	"github.com/sangkips/receiptflow-api/internal/domain/enum"
	"github.com/sangkips/receiptflow-api/internal/domain/repository"
	"github.com/sangkips/receiptflow-api/internal/infrastructure/storage"
	"github.com/sangkips/receiptflow-api/pkg/apperror"
	"github.com/sangkips/receiptflow-api/pkg/utils"
	"github.com/sangkips/receiptflow-api/pkg/validation"
	"github.com/sangkips/receiptflow-api/pkg/worker"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DocumentRenderer turns a persisted receipt into document bytes.
type DocumentRenderer interface {
	Render(ctx context.Context, receipt *entity.Receipt) ([]byte, error)
}

// DocumentUploader stores document bytes under a stable id and returns a public URL.
type DocumentUploader interface {
	Upload(ctx context.Context, objectID string, data []byte) (string, error)
}

// BackgroundRunner runs work after the caller has been answered.
type BackgroundRunner interface {
	Submit(ctx context.Context, name string, job worker.Job)
}

// Stage names a step of the finalization pipeline.
type Stage string

const (
	StageValidated             Stage = "validated"
	StagePersisted             Stage = "persisted"
	StageRendered              Stage = "rendered"
	StageUploaded              Stage = "uploaded"
	StageLinked                Stage = "linked"
	StageNotificationScheduled Stage = "notification_scheduled"
)

// ReceiptDeps are the collaborators of ReceiptService.
type ReceiptDeps struct {
	Repo     repository.ReceiptRepository
	Renderer DocumentRenderer
	Uploader DocumentUploader
	Notifier *Notifier
	Runner   BackgroundRunner
}

// ReceiptSettings are the tunables of the pipeline.
type ReceiptSettings struct {
	TaxRate       decimal.Decimal
	BusinessStore string
	RenderTimeout time.Duration
	UploadTimeout time.Duration
}

// ReceiptService finalizes paid orders into receipts and serves them back.
type ReceiptService struct {
	repo     repository.ReceiptRepository
	renderer DocumentRenderer
	uploader DocumentUploader
	notifier *Notifier
	runner   BackgroundRunner
	settings ReceiptSettings
	log      *zap.Logger
	metrics  *pipelineMetrics
}

// NewReceiptService creates a new receipt service
func NewReceiptService(deps ReceiptDeps, settings ReceiptSettings, opts ...Option) *ReceiptService {
	o := buildOptions(opts)
	if settings.RenderTimeout <= 0 {
		settings.RenderTimeout = 30 * time.Second
	}
	if settings.UploadTimeout <= 0 {
		settings.UploadTimeout = 30 * time.Second
	}
	return &ReceiptService{
		repo:     deps.Repo,
		renderer: deps.Renderer,
		uploader: deps.Uploader,
		notifier: deps.Notifier,
		runner:   deps.Runner,
		settings: settings,
		log:      o.logger,
		metrics:  newPipelineMetrics(o.meter, o.logger),
	}
}

// LineItemInput is one purchased product of a payment event.
type LineItemInput struct {
	ProductName string          `json:"product_name" validate:"required,max=255"`
	Quantity    int             `json:"quantity" validate:"gte=0"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"gte=0,lt=100000000000000,max_places=4"`
}

// FinalizeInput is a successful payment to be turned into a receipt.
type FinalizeInput struct {
	OrderID       string             `json:"order_id" validate:"required,max=255"`
	CustomerName  string             `json:"customer_name" validate:"required,max=255"`
	CustomerEmail string             `json:"customer_email" validate:"required,email,max=255"`
	PaymentMethod enum.PaymentMethod `json:"payment_method" validate:"required,oneof=Card Transfer Crypto-Currency"`
	BusinessStore string             `json:"business_store" validate:"max=255"`
	Items         []LineItemInput    `json:"items" validate:"required,min=1,dive"`
}

func (in *FinalizeInput) normalize() {
	in.OrderID = strings.TrimSpace(in.OrderID)
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerEmail = strings.TrimSpace(in.CustomerEmail)
	in.BusinessStore = strings.TrimSpace(in.BusinessStore)
	for i := range in.Items {
		in.Items[i].ProductName = strings.TrimSpace(in.Items[i].ProductName)
	}
}

func (in *FinalizeInput) lineItems() []entity.LineItem {
	items := make([]entity.LineItem, len(in.Items))
	for i, item := range in.Items {
		items[i] = entity.LineItem{
			Position:    i,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
	}
	return items
}

// FinalizeResult is the outcome of a successful finalization or reissue.
// DocumentLinked is false when the document was stored but recording its URL
// on the receipt failed; DocumentURL is valid either way.
type FinalizeResult struct {
	Receipt        *entity.Receipt
	DocumentURL    string
	DocumentLinked bool
}

// ReceiptRef identifies a persisted receipt in failure responses so the
// caller can retry only the failed stage.
type ReceiptRef struct {
	ID            uuid.UUID `json:"id"`
	OrderID       string    `json:"order_id"`
	ReceiptNumber string    `json:"receipt_number"`
}

func refOf(r *entity.Receipt) ReceiptRef {
	return ReceiptRef{ID: r.ID, OrderID: r.OrderID, ReceiptNumber: r.ReceiptNumber}
}

// FinalizePayment validates the payment, persists the receipt exactly once
// per order, publishes its document and schedules the customer notification.
//
// Once the receipt is persisted it is never rolled back. Render and upload
// failures are returned to the caller with the receipt reference attached;
// a failure to record the document URL is logged and reported through
// FinalizeResult.DocumentLinked only.
func (s *ReceiptService) FinalizePayment(ctx context.Context, input FinalizeInput) (*FinalizeResult, error) {
	input.normalize()
	ctx, span := tracer.Start(ctx, "receipt.finalize", trace.WithAttributes(attribute.String("order_id", input.OrderID)))
	defer span.End()
	log := s.log.With(zap.String("order_id", input.OrderID))

	if err := validation.Struct(input); err != nil {
		log.Info("payment event rejected by validation", zap.Error(err))
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}
	s.stage(ctx, log, StageValidated)

	exists, err := s.repo.ExistsByOrderID(ctx, input.OrderID)
	if err != nil {
		return nil, s.fail(ctx, log, StageValidated, apperror.Wrap(apperror.ErrInternalServer, fmt.Errorf("check existing receipt: %w", err), nil))
	}
	if exists {
		return nil, s.reject(ctx, log)
	}

	items := input.lineItems()
	totals, err := CalculateTotals(items, s.settings.TaxRate)
	if err == nil {
		err = checkStorable(totals)
	}
	if err != nil {
		log.Info("payment event rejected by validation", zap.Error(err))
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	businessStore := input.BusinessStore
	if businessStore == "" {
		businessStore = s.settings.BusinessStore
	}
	receipt, err := s.repo.Create(ctx, &entity.Receipt{
		OrderID:       input.OrderID,
		ReceiptNumber: utils.GenerateReceiptNumber(),
		CustomerName:  input.CustomerName,
		CustomerEmail: input.CustomerEmail,
		BusinessStore: businessStore,
		PaymentMethod: input.PaymentMethod,
		SubTotal:      totals.SubTotal,
		Tax:           totals.Tax,
		Total:         totals.Total,
	}, items)
	if errors.Is(err, repository.ErrDuplicateOrder) {
		return nil, s.reject(ctx, log)
	}
	if err != nil {
		return nil, s.fail(ctx, log, StageValidated, apperror.Wrap(apperror.ErrInternalServer, fmt.Errorf("persist receipt: %w", err), nil))
	}
	log = log.With(zap.String("receipt_id", receipt.ID.String()), zap.String("receipt_number", receipt.ReceiptNumber))
	s.stage(ctx, log, StagePersisted)

	// The receipt is now the financial record of the order; nothing below may
	// be aborted by the caller going away.
	ctx = context.WithoutCancel(ctx)

	result, err := s.publish(ctx, log, receipt)
	if err != nil {
		return nil, err
	}

	s.runner.Submit(ctx, "receipt-notification", func(jobCtx context.Context) {
		s.notifier.Notify(jobCtx, ReceiptNotification{
			Recipient:     receipt.CustomerEmail,
			CustomerName:  receipt.CustomerName,
			DocumentURL:   result.DocumentURL,
			OrderID:       receipt.OrderID,
			BusinessStore: receipt.BusinessStore,
		})
	})
	s.stage(ctx, log, StageNotificationScheduled)

	s.metrics.finalized.Add(ctx, 1)
	return result, nil
}

// ReissueDocument renders, uploads and links the document of an already
// persisted receipt again. It is the retry path after a render or upload
// failure and sends no notification.
func (s *ReceiptService) ReissueDocument(ctx context.Context, id uuid.UUID) (*FinalizeResult, error) {
	ctx, span := tracer.Start(ctx, "receipt.reissue", trace.WithAttributes(attribute.String("receipt_id", id.String())))
	defer span.End()

	receipt, err := s.GetReceipt(ctx, id)
	if err != nil {
		return nil, err
	}
	log := s.log.With(
		zap.String("order_id", receipt.OrderID),
		zap.String("receipt_id", receipt.ID.String()),
		zap.String("receipt_number", receipt.ReceiptNumber),
	)
	return s.publish(ctx, log, receipt)
}

// publish runs the render, upload and link stages for a persisted receipt.
func (s *ReceiptService) publish(ctx context.Context, log *zap.Logger, receipt *entity.Receipt) (*FinalizeResult, error) {
	ref := refOf(receipt)

	data, err := callWithTimeout(ctx, s.settings.RenderTimeout, func(ctx context.Context) ([]byte, error) {
		return s.renderer.Render(ctx, receipt)
	})
	if err != nil {
		sentinel := apperror.ErrRenderFailed
		if errors.Is(err, context.DeadlineExceeded) {
			sentinel = apperror.ErrRenderTimeout
		}
		return nil, s.fail(ctx, log, StagePersisted, apperror.Wrap(sentinel, err, ref))
	}
	s.stage(ctx, log, StageRendered)

	objectID := storage.ObjectID(receipt.OrderID, receipt.ReceiptNumber)
	url, err := callWithTimeout(ctx, s.settings.UploadTimeout, func(ctx context.Context) (string, error) {
		return s.uploader.Upload(ctx, objectID, data)
	})
	if err != nil {
		sentinel := apperror.ErrUploadFailed
		if errors.Is(err, context.DeadlineExceeded) {
			sentinel = apperror.ErrUploadTimeout
		}
		return nil, s.fail(ctx, log, StageRendered, apperror.Wrap(sentinel, err, ref))
	}
	s.stage(ctx, log, StageUploaded, zap.String("object_id", objectID), zap.String("document_url", url))

	result := &FinalizeResult{Receipt: receipt, DocumentURL: url}
	updated, err := s.repo.AttachDocumentURL(ctx, receipt.ID, url)
	if err != nil {
		log.Warn("document stored but not linked to receipt",
			zap.String("document_url", url),
			zap.Error(err),
		)
		s.metrics.linkFailures.Add(ctx, 1)
		trace.SpanFromContext(ctx).AddEvent("link_failed", trace.WithAttributes(attribute.String("error", err.Error())))
		return result, nil
	}
	result.Receipt = updated
	result.DocumentLinked = true
	s.stage(ctx, log, StageLinked)
	return result, nil
}

// ListReceipts returns every receipt oldest first. An empty store is
// reported as apperror.ErrNoRecords.
func (s *ReceiptService) ListReceipts(ctx context.Context) ([]entity.Receipt, error) {
	receipts, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(receipts) == 0 {
		return nil, apperror.ErrNoRecords
	}
	return receipts, nil
}

func (s *ReceiptService) GetReceipt(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	receipt, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrReceiptNotFound) {
		return nil, apperror.NewNotFoundError("Receipt")
	}
	return receipt, err
}

func (s *ReceiptService) GetReceiptByOrderID(ctx context.Context, orderID string) (*entity.Receipt, error) {
	receipt, err := s.repo.GetByOrderID(ctx, strings.TrimSpace(orderID))
	if errors.Is(err, repository.ErrReceiptNotFound) {
		return nil, apperror.NewNotFoundError("Receipt")
	}
	return receipt, err
}

// DeleteReceipt removes a receipt together with its line items.
func (s *ReceiptService) DeleteReceipt(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrReceiptNotFound) {
		return apperror.NewNotFoundError("Receipt")
	}
	if err == nil {
		s.log.Info("receipt deleted", zap.String("receipt_id", id.String()))
	}
	return err
}

// DeleteLineItem removes a single line item. The receipt and its stored
// totals are left untouched.
func (s *ReceiptService) DeleteLineItem(ctx context.Context, itemID uuid.UUID) error {
	err := s.repo.DeleteLineItem(ctx, itemID)
	if errors.Is(err, repository.ErrReceiptNotFound) {
		return apperror.NewNotFoundError("Line item")
	}
	if err == nil {
		s.log.Info("line item deleted", zap.String("item_id", itemID.String()))
	}
	return err
}

func (s *ReceiptService) stage(ctx context.Context, log *zap.Logger, stage Stage, fields ...zap.Field) {
	trace.SpanFromContext(ctx).AddEvent(string(stage))
	log.Info("receipt pipeline stage", append([]zap.Field{zap.String("stage", string(stage))}, fields...)...)
}

func (s *ReceiptService) reject(ctx context.Context, log *zap.Logger) error {
	log.Info("duplicate payment event rejected")
	trace.SpanFromContext(ctx).AddEvent("rejected")
	return apperror.ErrDuplicateOrder
}

// fail records a fatal error raised while leaving stage.
func (s *ReceiptService) fail(ctx context.Context, log *zap.Logger, stage Stage, err *apperror.AppError) error {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Reason)
	s.metrics.stageFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", string(stage)),
		attribute.String("reason", err.Reason),
	))
	log.Error("receipt pipeline failed",
		zap.String("after_stage", string(stage)),
		zap.String("reason", err.Reason),
		zap.Error(err.Unwrap()),
	)
	return err
}

// callWithTimeout runs fn with a deadline and stops waiting once the deadline
// passes, even if fn ignores its context. A panic in fn is returned as an error.
func callWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		var o outcome
		defer func() {
			if r := recover(); r != nil {
				o.err = fmt.Errorf("panic: %v", r)
			}
			done <- o
		}()
		o.value, o.err = fn(ctx)
	}()

	select {
	case o := <-done:
		return o.value, o.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
