package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jengacalc/jengacalc/internal/common"
	"github.com/jengacalc/jengacalc/internal/logging"
	"github.com/jengacalc/jengacalc/internal/server/config"
	"github.com/jengacalc/jengacalc/internal/server/models"
	"github.com/jengacalc/jengacalc/internal/server/paystack"
	"github.com/jengacalc/jengacalc/internal/server/repositories/repomanager"
	"github.com/jengacalc/jengacalc/internal/timex"
)

// Outcomes of a webhook delivery.
const (
	EventApplied   = "applied"
	EventDuplicate = "duplicate"
	EventIgnored   = "ignored"
)

// ActivationResult describes what a webhook delivery did.
type ActivationResult struct {
	Status      string
	Reference   string
	Email       string
	Kind        models.PaymentKind
	Entitlement *models.Entitlement
}

// ActivatorService turns confirmed payments into entitlement changes.
type ActivatorService struct {
	repomanager repomanager.RepositoryManager
	price       int64
	period      time.Duration
	now         timex.Clock
	logger      logging.Logger
}

func NewActivatorService(m repomanager.RepositoryManager, cfg *config.Config, now timex.Clock, logger logging.Logger) *ActivatorService {
	return &ActivatorService{
		repomanager: m,
		price:       cfg.SubscriptionPrice,
		period:      cfg.SubscriptionPeriod,
		now:         now,
		logger:      logger.With("module", "activator"),
	}
}

// HandleEvent applies an already authenticated webhook body.
//
// The payment reference is recorded in the same transaction as the
// entitlement change, so a redelivery is a no-op and a failed change leaves
// no trace of the reference.
func (s *ActivatorService) HandleEvent(ctx context.Context, raw []byte) (*ActivationResult, error) {
	event, err := paystack.DecodeEvent(raw)
	if err != nil {
		s.logger.Warn(ctx, "undecodable payment event", "error", err)
		return nil, err
	}
	if event.Event != paystack.EventChargeSuccess {
		s.logger.Debug(ctx, "payment event ignored", "event", event.Event)
		return &ActivationResult{Status: EventIgnored}, nil
	}

	data := event.Data
	now := s.now()
	p := &models.Payment{
		Reference: data.Reference,
		Email:     common.NormalizeEmail(data.Customer.Email),
		Amount:    data.Amount,
		Kind:      models.PaymentTokens,
		CreatedAt: now,
	}
	if data.IsMonthlySubscription(s.price) {
		p.Kind = models.PaymentSubscription
	}

	result := &ActivationResult{Status: EventApplied, Reference: p.Reference, Email: p.Email, Kind: p.Kind}
	err = s.repomanager.WithinTx(ctx, func(ctx context.Context, m repomanager.RepositoryManager) error {
		fresh, err := m.Payments().Record(ctx, p)
		if err != nil {
			return err
		}
		if !fresh {
			result.Status = EventDuplicate
			return nil
		}

		switch p.Kind {
		case models.PaymentSubscription:
			result.Entitlement, err = m.Entitlements().ActivateSubscription(ctx, p.Email, now.Add(s.period))
		default:
			result.Entitlement, err = m.Entitlements().AddTokens(ctx, p.Email, p.Amount/100)
		}
		return err
	})
	if err != nil {
		s.logger.Error(ctx, "apply payment failed", "reference", p.Reference, "email", p.Email, "error", err)
		if errors.Is(err, common.ErrStorageFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
	}

	switch result.Status {
	case EventDuplicate:
		s.logger.Info(ctx, "duplicate payment event", "reference", p.Reference)
	default:
		s.logger.Info(ctx, "payment applied", "reference", p.Reference, "email", p.Email, "kind", p.Kind, "amount", p.Amount)
	}
	return result, nil
}

// Payments lists the recorded transactions for email.
func (s *ActivatorService) Payments(ctx context.Context, email string) ([]*models.Payment, error) {
	list, err := s.repomanager.Payments().ListByEmail(ctx, common.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
	}
	return list, nil
}

// GrantSubscription activates a subscription without a payment. Administrative.
func (s *ActivatorService) GrantSubscription(ctx context.Context, email string, period time.Duration) (*models.Entitlement, error) {
	if period <= 0 {
		period = s.period
	}
	e, err := s.repomanager.Entitlements().ActivateSubscription(ctx, common.NormalizeEmail(email), s.now().Add(period))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
	}
	s.logger.Info(ctx, "subscription granted", "email", e.Email, "expires", e.SubscriptionExpires)
	return e, nil
}
