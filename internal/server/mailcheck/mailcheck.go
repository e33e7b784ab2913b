// Package mailcheck decides whether an email address is acceptable for
// sign-up: syntax, deny-listed domains, and whether the domain receives mail.
package mailcheck

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jengacalc/jengacalc/internal/common"
	"github.com/jengacalc/jengacalc/internal/logging"
)

// MXResolver is the subset of *net.Resolver used by Checker.
type MXResolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
}

var disposableDomains = toSet(
	"tempmail.com", "guerrillamail.com", "mailinator.com", "10minutemail.com",
	"throwaway.com", "fakeinbox.com", "yopmail.com", "trashmail.com",
	"disposable.com", "temp-mail.org", "getairmail.com", "sharklasers.com",
	"maildrop.cc", "tempail.com", "fake-mail.com", "throwawaymail.com",
	"tempmail.net", "trashmail.net", "dispostable.com", "mailmetrash.com",
	"tmpmail.org", "mailnesia.com", "mohmal.com", "fake-box.com",
	"mail-temp.com", "tempinbox.com", "mail-temporaire.com",
	"example.com", "test.com", "test.org", "example.org", "example.net",
	"test.net", "fake.com", "invalid.com", "localhost.com", "domain.com",
)

// fakeDomains are placeholder domains people type into forms.
var fakeDomains = toSet(
	"example.com", "test.com", "test.org", "fake.com", "invalid.com",
	"localhost.com", "domain.com", "email.com", "mail.com", "test.net",
)

// knownProviders are accepted when the MX lookup itself fails. A domain
// matches a provider exactly or as a subdomain, so "acme.co.ke" matches "co.ke".
var knownProviders = []string{
	"gmail.com", "googlemail.com", "yahoo.com", "ymail.com", "rocketmail.com",
	"outlook.com", "hotmail.com", "live.com", "msn.com",
	"icloud.com", "me.com", "mac.com",
	"protonmail.com", "proton.me",
	"aol.com", "zoho.com", "mail.com", "gmx.com", "yandex.com",
	"co.ke", "ac.ke", "go.ke", "ne.ke", "or.ke", "sc.ke", "me.ke",
}

// Checker validates addresses. The zero value is not usable; use New.
type Checker struct {
	resolver MXResolver
	validate *validator.Validate
	logger   logging.Logger
}

func New(resolver MXResolver, logger logging.Logger) *Checker {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &Checker{
		resolver: resolver,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With("module", "mailcheck"),
	}
}

// CheckSyntax reports common.ErrInvalidEmail for malformed addresses.
func (c *Checker) CheckSyntax(email string) error {
	if err := c.validate.Var(email, "required,email"); err != nil {
		return common.ErrInvalidEmail
	}
	if !strings.Contains(common.EmailDomain(email), ".") {
		return common.ErrInvalidEmail
	}
	return nil
}

// Check runs every rule in order. email must already be normalized.
//
// It returns common.ErrInvalidEmail, common.ErrDisposableDomain or
// common.ErrUnknownDomain. A DNS failure other than "not found" does not
// reject the address by itself; the known-provider list decides instead.
func (c *Checker) Check(ctx context.Context, email string) error {
	if err := c.CheckSyntax(email); err != nil {
		return err
	}

	domain := common.EmailDomain(email)
	if _, ok := disposableDomains[domain]; ok {
		return common.ErrDisposableDomain
	}
	if _, ok := fakeDomains[domain]; ok {
		return common.ErrDisposableDomain
	}

	records, err := c.resolver.LookupMX(ctx, domain)
	if err == nil {
		if len(records) == 0 {
			return common.ErrUnknownDomain
		}
		return nil
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return common.ErrUnknownDomain
	}

	c.logger.Warn(ctx, "mx lookup failed, using known providers", "domain", domain, "error", err)
	if isKnownProvider(domain) {
		return nil
	}
	return common.ErrUnknownDomain
}

func isKnownProvider(domain string) bool {
	for _, p := range knownProviders {
		if domain == p || strings.HasSuffix(domain, "."+p) {
			return true
		}
	}
	return false
}

func toSet(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, s := range items {
		m[s] = struct{}{}
	}
	return m
}
