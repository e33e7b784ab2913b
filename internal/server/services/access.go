// Package services contains server-side business logic: access decisions,
// identity verification, payment activation, sessions and checkout.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jengacalc/jengacalc/internal/common"
	"github.com/jengacalc/jengacalc/internal/logging"
	"github.com/jengacalc/jengacalc/internal/server/config"
	"github.com/jengacalc/jengacalc/internal/server/models"
	"github.com/jengacalc/jengacalc/internal/server/repositories/repomanager"
	"github.com/jengacalc/jengacalc/internal/timex"
)

// SubscribePath is the remediation endpoint offered on DENY.
const SubscribePath = "/api/paystack/subscribe"

// Decision reasons.
const (
	ReasonSubscription   = "subscription"
	ReasonFreeQuota      = "free_quota"
	ReasonQuotaExhausted = "quota_exhausted"
	ReasonUnavailable    = "unavailable"
)

// Decision is the outcome of an access check. Entitlement is the record as
// it stood after any consumption; it is nil when the store failed.
type Decision struct {
	Allowed        bool
	Reason         string
	Entitlement    *models.Entitlement
	RemediationURL string
}

// EntitlementStatus is the read-only view served to the status endpoint.
type EntitlementStatus struct {
	Email               string
	SubscriptionActive  bool
	SubscriptionExpires *time.Time
	TokenBalance        int64
	CalculationsUsed    int64
	FreeCalculations    int64
}

// AccessService is the access decision engine.
type AccessService struct {
	repomanager repomanager.RepositoryManager
	freeLimit   int64
	baseURL     string
	now         timex.Clock
	logger      logging.Logger
}

func NewAccessService(m repomanager.RepositoryManager, cfg *config.Config, now timex.Clock, logger logging.Logger) *AccessService {
	return &AccessService{
		repomanager: m,
		freeLimit:   cfg.FreeCalculations,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		now:         now,
		logger:      logger.With("module", "access"),
	}
}

// Authorize decides whether email may proceed. Only consuming actions draw
// down the free quota, and they do so with a single conditional increment.
//
// On a storage error the decision is DENY and the error wraps
// common.ErrStorageFailure.
func (s *AccessService) Authorize(ctx context.Context, email string, consuming bool) (*Decision, error) {
	email = common.NormalizeEmail(email)

	e, err := s.repomanager.Entitlements().FindOrCreate(ctx, email)
	if err != nil {
		return s.failClosed(ctx, email, err)
	}

	if e.HasActiveSubscription(s.now()) {
		return &Decision{Allowed: true, Reason: ReasonSubscription, Entitlement: e}, nil
	}

	if !consuming {
		if e.CalculationsUsed < s.freeLimit {
			return &Decision{Allowed: true, Reason: ReasonFreeQuota, Entitlement: e}, nil
		}
		return s.deny(e), nil
	}

	e, consumed, err := s.repomanager.Entitlements().ConsumeFreeCalculation(ctx, email, s.freeLimit)
	if err != nil {
		return s.failClosed(ctx, email, err)
	}
	if !consumed {
		s.logger.Info(ctx, "free limit reached", "email", email, "calculations_used", e.CalculationsUsed)
		return s.deny(e), nil
	}

	s.logger.Debug(ctx, "free calculation consumed", "email", email, "calculations_used", e.CalculationsUsed)
	return &Decision{Allowed: true, Reason: ReasonFreeQuota, Entitlement: e}, nil
}

func (s *AccessService) deny(e *models.Entitlement) *Decision {
	return &Decision{
		Allowed:        false,
		Reason:         ReasonQuotaExhausted,
		Entitlement:    e,
		RemediationURL: s.baseURL + SubscribePath,
	}
}

func (s *AccessService) failClosed(ctx context.Context, email string, err error) (*Decision, error) {
	s.logger.Error(ctx, "access check failed", "email", email, "error", err)
	return &Decision{Allowed: false, Reason: ReasonUnavailable}, fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
}

// GetEntitlement reports the current state for email without creating a
// record. Unknown emails get a zeroed status.
func (s *AccessService) GetEntitlement(ctx context.Context, email string) (*EntitlementStatus, error) {
	email = common.NormalizeEmail(email)
	status := &EntitlementStatus{Email: email, FreeCalculations: s.freeLimit}

	e, err := s.repomanager.Entitlements().Get(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return status, nil
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
	}

	status.SubscriptionActive = e.HasActiveSubscription(s.now())
	status.SubscriptionExpires = e.SubscriptionExpires
	status.TokenBalance = e.TokenBalance
	status.CalculationsUsed = e.CalculationsUsed
	return status, nil
}

// ResetUsage zeroes calculations_used. Administrative.
func (s *AccessService) ResetUsage(ctx context.Context, email string) (*models.Entitlement, error) {
	email = common.NormalizeEmail(email)
	e, err := s.repomanager.Entitlements().ResetUsage(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
	}
	s.logger.Info(ctx, "usage reset", "email", email)
	return e, nil
}
