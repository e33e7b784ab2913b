package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jengacalc/jengacalc/internal/common"
	"github.com/jengacalc/jengacalc/internal/cryptox"
	"github.com/jengacalc/jengacalc/internal/logging"
	"github.com/jengacalc/jengacalc/internal/server/config"
	"github.com/jengacalc/jengacalc/internal/server/models"
	"github.com/jengacalc/jengacalc/internal/server/notify"
	"github.com/jengacalc/jengacalc/internal/server/repositories/challenges"
	"github.com/jengacalc/jengacalc/internal/timex"
)

// CodeDigits is the length of a one-time code.
const CodeDigits = 6

// EmailChecker validates addresses before a code is issued.
type EmailChecker interface {
	CheckSyntax(email string) error
	Check(ctx context.Context, email string) error
}

// VerifierService proves control of an email address with a one-time code.
type VerifierService struct {
	challenges   challenges.Repository
	checker      EmailChecker
	notifier     notify.Notifier
	now          timex.Clock
	codeTTL      time.Duration
	window       time.Duration
	maxAttempts  int
	requestLimit int
	logger       logging.Logger
}

func NewVerifierService(store challenges.Repository, checker EmailChecker, notifier notify.Notifier, cfg *config.Config, now timex.Clock, logger logging.Logger) *VerifierService {
	return &VerifierService{
		challenges:   store,
		checker:      checker,
		notifier:     notifier,
		now:          now,
		codeTTL:      cfg.CodeTTL,
		window:       cfg.CodeRequestWindow,
		maxAttempts:  cfg.MaxVerifyAttempts,
		requestLimit: cfg.CodeRequestLimit,
		logger:       logger.With("module", "verifier"),
	}
}

// RequestCode issues a fresh code for email and hands it to the notifier.
// Any previous challenge for the address is replaced.
//
// The request counts against the rate limit as soon as the syntax check
// passes, so rejected domains still consume quota.
func (s *VerifierService) RequestCode(ctx context.Context, email string) error {
	email = common.NormalizeEmail(email)
	if err := s.checker.CheckSyntax(email); err != nil {
		return err
	}

	now := s.now()
	allowed, err := s.challenges.AllowRequest(ctx, email, now, s.window, s.requestLimit)
	if err != nil {
		return s.storageError(ctx, "rate limit check failed", email, err)
	}
	if !allowed {
		s.logger.Warn(ctx, "code requests rate limited", "email", email)
		return common.ErrRateLimited
	}

	if err := s.checker.Check(ctx, email); err != nil {
		s.logger.Info(ctx, "email rejected", "email", email, "reason", err)
		return err
	}

	code, err := common.MakeNumericCode(CodeDigits)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	hash, salt := cryptox.NewCodeHash(code)

	c := &models.Challenge{Email: email, CodeHash: hash, Salt: salt, CreatedAt: now}
	if err := s.challenges.Put(ctx, c, 2*s.codeTTL); err != nil {
		return s.storageError(ctx, "store challenge failed", email, err)
	}

	if err := s.notifier.Send(ctx, email, code); err != nil {
		s.logger.Error(ctx, "send code failed", "email", email, "error", err)
		if _, derr := s.challenges.Delete(ctx, email, c.CodeHash); derr != nil {
			s.logger.Warn(ctx, "drop undelivered challenge failed", "email", email, "error", derr)
		}
		return common.ErrNotifierUnavailable
	}

	s.logger.Info(ctx, "verification code sent", "email", email)
	return nil
}

// VerifyCode checks code against the pending challenge and consumes it on
// success. It returns the normalized email that is now verified.
func (s *VerifierService) VerifyCode(ctx context.Context, email, code string) (string, error) {
	email = common.NormalizeEmail(email)

	c, err := s.challenges.Get(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrNoChallenge
		}
		return "", s.storageError(ctx, "load challenge failed", email, err)
	}

	if c.Expired(s.now(), s.codeTTL) {
		s.drop(ctx, c)
		return "", common.ErrChallengeExpired
	}
	if c.Attempts >= s.maxAttempts {
		s.drop(ctx, c)
		return "", common.ErrTooManyAttempts
	}

	if !cryptox.VerifyCode(code, c.Salt, c.CodeHash) {
		attempts, err := s.challenges.IncrementAttempts(ctx, email)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return "", common.ErrNoChallenge
			}
			return "", s.storageError(ctx, "count attempt failed", email, err)
		}
		if attempts >= s.maxAttempts {
			s.drop(ctx, c)
			s.logger.Warn(ctx, "challenge locked out", "email", email)
			return "", common.ErrTooManyAttempts
		}
		return "", common.ErrCodeMismatch
	}

	// Two concurrent correct submissions race here; only the one that
	// actually removes the challenge wins. A code replaced since Get is no
	// longer valid.
	deleted, err := s.challenges.Delete(ctx, email, c.CodeHash)
	if err != nil {
		return "", s.storageError(ctx, "consume challenge failed", email, err)
	}
	if !deleted {
		return "", common.ErrNoChallenge
	}

	s.logger.Info(ctx, "email verified", "email", email)
	return email, nil
}

// Sweep drops expired challenges and stale request history.
func (s *VerifierService) Sweep(ctx context.Context) error {
	return s.challenges.Sweep(ctx, s.now())
}

// drop discards c unless a newer challenge has replaced it.
func (s *VerifierService) drop(ctx context.Context, c *models.Challenge) {
	if _, err := s.challenges.Delete(ctx, c.Email, c.CodeHash); err != nil {
		s.logger.Warn(ctx, "delete challenge failed", "email", c.Email, "error", err)
	}
}

func (s *VerifierService) storageError(ctx context.Context, msg, email string, err error) error {
	s.logger.Error(ctx, msg, "email", email, "error", err)
	return fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
}
