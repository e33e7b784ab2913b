package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jengacalc/jengacalc/internal/common"
	"github.com/jengacalc/jengacalc/internal/logging"
	"github.com/jengacalc/jengacalc/internal/server/auth"
	"github.com/jengacalc/jengacalc/internal/server/config"
	"github.com/jengacalc/jengacalc/internal/server/models"
	"github.com/jengacalc/jengacalc/internal/server/repositories/repomanager"
	"github.com/jengacalc/jengacalc/internal/timex"
)

// SessionService issues and resolves login sessions. The token only names
// the session; the stored record is authoritative.
type SessionService struct {
	repomanager repomanager.RepositoryManager
	secret      []byte
	ttl         time.Duration
	now         timex.Clock
	logger      logging.Logger
}

func NewSessionService(m repomanager.RepositoryManager, cfg *config.Config, now timex.Clock, logger logging.Logger) *SessionService {
	return &SessionService{
		repomanager: m,
		secret:      []byte(cfg.SecretKey),
		ttl:         cfg.SessionTTL,
		now:         now,
		logger:      logger.With("module", "sessions"),
	}
}

// Create opens a session for an email that has just been verified.
func (s *SessionService) Create(ctx context.Context, email string) (string, *models.Session, error) {
	now := s.now()
	sess := &models.Session{
		ID:        uuid.NewString(),
		Email:     common.NormalizeEmail(email),
		Verified:  true,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.repomanager.Sessions().Create(ctx, sess); err != nil {
		return "", nil, fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
	}

	token, err := auth.GenerateToken(sess.ID, sess.Email, s.secret, sess.ExpiresAt)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	s.logger.Debug(ctx, "session created", "email", sess.Email, "session_id", sess.ID)
	return token, sess, nil
}

// Resolve returns the verified identity behind token.
func (s *SessionService) Resolve(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, common.ErrorUnauthorized
	}
	claims, err := auth.ParseToken(token, s.secret)
	if err != nil {
		return nil, err
	}

	sess, err := s.repomanager.Sessions().Find(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
	}

	if !sess.ExpiresAt.After(s.now()) {
		return nil, common.ErrSessionExpired
	}
	if !sess.Verified || sess.Email != claims.Email {
		return nil, common.ErrInvalidToken
	}
	return sess, nil
}

// Destroy logs out. Unknown or malformed tokens are ignored.
func (s *SessionService) Destroy(ctx context.Context, token string) error {
	claims, err := auth.ParseToken(token, s.secret)
	if err != nil {
		return nil
	}
	if err := s.repomanager.Sessions().Delete(ctx, claims.SessionID); err != nil && !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
	}
	return nil
}

// Sweep removes expired sessions.
func (s *SessionService) Sweep(ctx context.Context) (int64, error) {
	n, err := s.repomanager.Sessions().DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Debug(ctx, "expired sessions removed", "count", n)
	}
	return n, nil
}
