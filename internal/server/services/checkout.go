package services

import (
	"context"
	"strings"

	"github.com/jengacalc/jengacalc/internal/common"
	"github.com/jengacalc/jengacalc/internal/logging"
	"github.com/jengacalc/jengacalc/internal/server/config"
	"github.com/jengacalc/jengacalc/internal/server/paystack"
)

// MinTopUp is the smallest token purchase, in major currency units.
const MinTopUp = 100

// PaymentSuccessPath is where the provider sends the customer back.
const PaymentSuccessPath = "/payment-success"

// PaymentProvider starts hosted checkouts.
type PaymentProvider interface {
	InitializeTransaction(ctx context.Context, req paystack.InitializeRequest) (*paystack.Authorization, error)
}

// CheckoutService starts payments for the verified identity.
type CheckoutService struct {
	provider PaymentProvider
	price    int64
	currency string
	baseURL  string
	logger   logging.Logger
}

func NewCheckoutService(provider PaymentProvider, cfg *config.Config, logger logging.Logger) *CheckoutService {
	return &CheckoutService{
		provider: provider,
		price:    cfg.SubscriptionPrice,
		currency: cfg.Currency,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		logger:   logger.With("module", "checkout"),
	}
}

// Subscribe starts a monthly subscription charge.
func (s *CheckoutService) Subscribe(ctx context.Context, email string) (*paystack.Authorization, error) {
	email = common.NormalizeEmail(email)
	req := paystack.InitializeRequest{
		Email:       email,
		Amount:      s.price,
		Currency:    s.currency,
		Channels:    paystack.DefaultChannels,
		CallbackURL: s.baseURL + PaymentSuccessPath,
		Metadata: map[string]any{
			"payment_type": paystack.PaymentTypeMonthly,
			"custom_fields": []paystack.CustomField{
				{DisplayName: "Subscription Type", VariableName: "subscription_type", Value: paystack.SubscriptionTypeMonthly},
				{DisplayName: "Service", VariableName: "service", Value: "Construction Calculator Pro"},
			},
		},
	}
	return s.start(ctx, req)
}

// TopUp starts a token purchase of amount major units.
func (s *CheckoutService) TopUp(ctx context.Context, email string, amount int64) (*paystack.Authorization, error) {
	if amount < MinTopUp {
		return nil, common.ErrInvalidInput
	}
	req := paystack.InitializeRequest{
		Email:       common.NormalizeEmail(email),
		Amount:      amount * 100,
		Currency:    s.currency,
		Channels:    paystack.DefaultChannels,
		CallbackURL: s.baseURL + PaymentSuccessPath,
		Metadata: map[string]any{
			"payment_type": "token_topup",
		},
	}
	return s.start(ctx, req)
}

func (s *CheckoutService) start(ctx context.Context, req paystack.InitializeRequest) (*paystack.Authorization, error) {
	auth, err := s.provider.InitializeTransaction(ctx, req)
	if err != nil {
		s.logger.Error(ctx, "payment initialization failed", "email", req.Email, "amount", req.Amount, "error", err)
		return nil, err
	}
	s.logger.Info(ctx, "payment initialized", "email", req.Email, "amount", req.Amount, "reference", auth.Reference)
	return auth, nil
}
