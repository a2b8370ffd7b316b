package services

import (
	"context"
	"fmt"
	"time"

	"github.com/lndnexus/marketplace/backend/internal/config"
	"github.com/lndnexus/marketplace/backend/internal/models"
	"github.com/lndnexus/marketplace/backend/pkg/logger"
	"gorm.io/gorm"
)

// PaymentProcessor moves money through the external escrow provider.
type PaymentProcessor interface {
	CreateIntent(ctx context.Context, req *IntentRequest) (*Intent, error)
	Capture(ctx context.Context, intentID string) error
	Refund(ctx context.Context, intentID string) error
	Cancel(ctx context.Context, intentID string) error
}

// IntentRequest asks the processor to authorize an amount in minor units.
type IntentRequest struct {
	AmountMinor int64
	Currency    string
	Metadata    map[string]string
}

type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

type PaymentService struct {
	db        *gorm.DB
	processor PaymentProcessor
	feePct    float64
	currency  string
	notifier  Notifier
}

func NewPaymentService(db *gorm.DB, processor PaymentProcessor, cfg *config.PaymentsConfig, notifier Notifier) *PaymentService {
	return &PaymentService{
		db:        db,
		processor: processor,
		feePct:    cfg.PlatformFeePercent,
		currency:  currencyOr(cfg.DefaultCurrency, "USD"),
		notifier:  notifier,
	}
}

type CreateIntentRequest struct {
	ProjectID   string  `json:"projectId" binding:"required"`
	MilestoneID *string `json:"milestoneId"`
	Amount      string  `json:"amount" binding:"required,money"`
	Currency    string  `json:"currency" binding:"omitempty,len=3"`
}

// IntentResult is returned to the paying client to confirm the intent.
type IntentResult struct {
	ClientSecret string          `json:"clientSecret"`
	Payment      *models.Payment `json:"payment"`
}

// CreateIntent authorizes a payment from the project's company to its
// professional and records it as pending.
func (s *PaymentService) CreateIntent(ctx context.Context, project *models.Project, req *CreateIntentRequest) (*IntentResult, error) {
	amount, err := models.ParseMoney(req.Amount)
	if err != nil {
		return nil, invalid("amount", "must be a decimal amount with at most 2 fractional digits")
	}
	minor, err := amount.MinorUnits()
	if err != nil || minor <= 0 {
		return nil, invalid("amount", "must be greater than zero")
	}
	fee, err := amount.Percent(s.feePct)
	if err != nil {
		return nil, err
	}
	if project.Company == nil || project.Professional == nil {
		return nil, fmt.Errorf("project parties not loaded")
	}
	if project.Status.Terminal() {
		return nil, fmt.Errorf("project is %s: %w", project.Status, ErrConflict)
	}

	if req.MilestoneID != nil && *req.MilestoneID != "" {
		var milestone models.Milestone
		err := s.db.WithContext(ctx).Select("id").
			First(&milestone, "id = ? AND project_id = ?", *req.MilestoneID, project.ID).Error
		if err != nil {
			return nil, lookupErr(err, "milestone")
		}
	} else {
		req.MilestoneID = nil
	}

	currency := currencyOr(req.Currency, project.Currency)
	if currency == "" {
		currency = s.currency
	}

	pctx, cancel := providerContext(ctx)
	defer cancel()
	intent, err := s.processor.CreateIntent(pctx, &IntentRequest{
		AmountMinor: minor,
		Currency:    currency,
		Metadata: map[string]string{
			"projectId": project.ID,
			"paidBy":    project.Company.UserID,
			"paidTo":    project.Professional.UserID,
		},
	})
	if err != nil {
		logger.Error().Err(err).Str("project_id", project.ID).Msg("[Payment] Create intent failed")
		return nil, fmt.Errorf("create payment intent: %v: %w", err, ErrUpstream)
	}

	payment := models.Payment{
		ProjectID:         project.ID,
		MilestoneID:       req.MilestoneID,
		ProcessorIntentID: intent.ID,
		Amount:            amount,
		Currency:          currency,
		Status:            models.PaymentPending,
		PaidBy:            project.Company.UserID,
		PaidTo:            project.Professional.UserID,
		PlatformFee:       fee,
	}
	if err := s.db.WithContext(ctx).Create(&payment).Error; err != nil {
		// the intent is only authorized; void it so no money is stranded
		if cerr := s.processor.Cancel(context.Background(), intent.ID); cerr != nil {
			logger.Error().Err(cerr).Str("intent_id", intent.ID).Msg("[Payment] Failed to cancel orphaned intent")
		}
		return nil, writeErr(err, "payment")
	}

	return &IntentResult{ClientSecret: intent.ClientSecret, Payment: &payment}, nil
}

// Get returns the payment with its project parties loaded.
func (s *PaymentService) Get(ctx context.Context, id string) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		return nil, lookupErr(err, "payment")
	}
	return &payment, nil
}

func (s *PaymentService) ListByProject(ctx context.Context, projectID string) ([]models.Payment, error) {
	payments := []models.Payment{}
	err := s.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at DESC").Find(&payments).Error
	return payments, err
}

// Capture moves an authorized payment into escrow.
func (s *PaymentService) Capture(ctx context.Context, id string) (*models.Payment, error) {
	return s.transition(ctx, id, models.PaymentHeld, func(pctx context.Context, p *models.Payment) error {
		return s.processor.Capture(pctx, p.ProcessorIntentID)
	})
}

// Release pays escrowed money out to the professional.
func (s *PaymentService) Release(ctx context.Context, id string) (*models.Payment, error) {
	payment, err := s.transition(ctx, id, models.PaymentReleased, nil)
	if err != nil {
		return nil, err
	}
	notify(ctx, s.notifier, &NotifyInput{
		UserID:  payment.PaidTo,
		Type:    NotificationPayment,
		Title:   models.LocalizedText{En: "Payment released", Ar: "تم تحرير الدفعة"},
		Message: models.LocalizedText{En: fmt.Sprintf("%s %s", payment.Amount, payment.Currency)},
		Link:    "/projects/" + payment.ProjectID,
	})
	return payment, nil
}

// Refund returns held money to the company, or voids a pending intent.
func (s *PaymentService) Refund(ctx context.Context, id string) (*models.Payment, error) {
	payment, err := s.transition(ctx, id, models.PaymentRefunded, func(pctx context.Context, p *models.Payment) error {
		if p.Status == models.PaymentPending {
			return s.processor.Cancel(pctx, p.ProcessorIntentID)
		}
		return s.processor.Refund(pctx, p.ProcessorIntentID)
	})
	if err != nil {
		return nil, err
	}
	notify(ctx, s.notifier, &NotifyInput{
		UserID:  payment.PaidBy,
		Type:    NotificationPayment,
		Title:   models.LocalizedText{En: "Payment refunded", Ar: "تم استرداد الدفعة"},
		Message: models.LocalizedText{En: fmt.Sprintf("%s %s", payment.Amount, payment.Currency)},
		Link:    "/projects/" + payment.ProjectID,
	})
	return payment, nil
}

// transition checks the payment state machine, runs the processor call if
// any and then records the new status. A lost race on the status column
// reports an invalid transition.
func (s *PaymentService) transition(ctx context.Context, id string, to models.PaymentStatus, call func(context.Context, *models.Payment) error) (*models.Payment, error) {
	payment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !payment.Status.CanTransitionTo(to) {
		return nil, transitionErr("payment", payment.Status, to)
	}

	if call != nil {
		pctx, cancel := providerContext(ctx)
		err := call(pctx, payment)
		cancel()
		if err != nil {
			logger.Error().Err(err).Str("payment_id", id).Str("to", string(to)).Msg("[Payment] Processor call failed")
			return nil, fmt.Errorf("payment %s: %v: %w", to, err, ErrUpstream)
		}
	}

	now := time.Now()
	updates := map[string]interface{}{"status": to, "updated_at": now}
	switch to {
	case models.PaymentReleased:
		updates["released_at"] = now
		payment.ReleasedAt = &now
	case models.PaymentRefunded:
		updates["refunded_at"] = now
		payment.RefundedAt = &now
	}

	result := s.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, payment.Status).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, transitionErr("payment", "a concurrent update", to)
	}

	logger.Info().Str("payment_id", id).Str("from", string(payment.Status)).Str("to", string(to)).Msg("[Payment] Status changed")
	payment.Status = to
	payment.UpdatedAt = now
	return payment, nil
}
