// Package common defines shared constants, sentinel errors and small helpers
// used across the calculator server components. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrInvalidInput   = errors.New("invalid input")

	// Identity verifier, send path.
	ErrInvalidEmail        = errors.New("invalid email")
	ErrDisposableDomain    = errors.New("disposable domain")
	ErrUnknownDomain       = errors.New("unknown domain")
	ErrRateLimited         = errors.New("rate limited")
	ErrNotifierUnavailable = errors.New("notifier unavailable")

	// Identity verifier, verify path.
	ErrNoChallenge      = errors.New("no challenge")
	ErrChallengeExpired = errors.New("challenge expired")
	ErrTooManyAttempts  = errors.New("too many attempts")
	ErrCodeMismatch     = errors.New("code mismatch")

	// Entitlement activator.
	ErrBadEvent       = errors.New("bad event")
	ErrStorageFailure = errors.New("storage failure")

	// Payment provider.
	ErrProviderUnavailable = errors.New("payment provider unavailable")

	// Session errors (invalid or malformed token, expired session).
	ErrInvalidToken   = errors.New("invalid token")
	ErrSessionExpired = errors.New("session expired")
)

var messages = []struct {
	err error
	msg string
}{
	{ErrInvalidEmail, "Invalid email format. Please enter a valid email address (e.g., yourname@gmail.com)."},
	{ErrDisposableDomain, "Temporary or disposable email addresses are not allowed. Please use a permanent email address from a trusted provider."},
	{ErrUnknownDomain, "Unable to verify this email domain. Please check for typos or use a well-known email provider like Gmail, Outlook, or Yahoo."},
	{ErrRateLimited, "Too many verification attempts. Please try again in one hour."},
	{ErrNotifierUnavailable, "Failed to send verification email. Please try again."},
	{ErrNoChallenge, "No verification code found for this email. Please request a new one."},
	{ErrChallengeExpired, "Verification code has expired. Please request a new one."},
	{ErrTooManyAttempts, "Too many failed attempts. Please request a new verification code."},
	{ErrCodeMismatch, "Invalid verification code. Please try again."},
	{ErrBadEvent, "Malformed payment event."},
	{ErrStorageFailure, "A storage error occurred. Please try again."},
	{ErrProviderUnavailable, "Payment initialization failed. Please try again."},
	{ErrInvalidInput, "Some of the submitted values are invalid. Please check the form and try again."},
	{ErrorUnauthorized, "Email is required to continue. Please log in again."},
	{ErrInvalidToken, "Email is required to continue. Please log in again."},
	{ErrSessionExpired, "Your session has expired. Please log in again."},
	{ErrorNotFound, "Not found."},
}

// Message returns the human-readable reason for err that is safe to show to
// an end user. Unknown errors map to a generic message.
func Message(err error) string {
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return "An error occurred. Please try again."
}
