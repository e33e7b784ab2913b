package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jengacalc/jengacalc/internal/common"
	"github.com/jengacalc/jengacalc/internal/logging"
	"github.com/jengacalc/jengacalc/internal/server/mailcheck"
	"github.com/jengacalc/jengacalc/internal/server/models"
	"github.com/jengacalc/jengacalc/internal/server/repositories/challenges"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChecker accepts everything except the listed domains.
type fakeChecker struct {
	reject map[string]error
}

func (f *fakeChecker) CheckSyntax(email string) error {
	if common.EmailDomain(email) == "" {
		return common.ErrInvalidEmail
	}
	return nil
}

func (f *fakeChecker) Check(_ context.Context, email string) error {
	if err := f.CheckSyntax(email); err != nil {
		return err
	}
	return f.reject[common.EmailDomain(email)]
}

// captureNotifier remembers the last code per email.
type captureNotifier struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
}

func (n *captureNotifier) Send(_ context.Context, email, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	if n.codes == nil {
		n.codes = map[string]string{}
	}
	n.codes[email] = code
	return nil
}

func (n *captureNotifier) code(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.codes[email]
}

type verifierFixture struct {
	svc      *VerifierService
	store    *challenges.MemoryRepository
	notifier *captureNotifier
	clock    *testClock
}

func newVerifier(t *testing.T) *verifierFixture {
	t.Helper()
	f := &verifierFixture{
		store:    challenges.NewMemoryRepository(),
		notifier: &captureNotifier{},
		clock:    newTestClock(),
	}
	checker := &fakeChecker{reject: map[string]error{"tempmail.com": common.ErrDisposableDomain}}
	f.svc = NewVerifierService(f.store, checker, f.notifier, testConfig(), f.clock.Now, logging.Nop{})
	return f
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestVerifier_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newVerifier(t)

	require.NoError(t, f.svc.RequestCode(ctx, "  User@Gmail.com "))
	code := f.notifier.code("user@gmail.com")
	require.Len(t, code, CodeDigits)

	email, err := f.svc.VerifyCode(ctx, "USER@gmail.com", code)
	require.NoError(t, err)
	assert.Equal(t, "user@gmail.com", email)

	_, err = f.svc.VerifyCode(ctx, "user@gmail.com", code)
	assert.ErrorIs(t, err, common.ErrNoChallenge, "a code is single use")
}

func TestVerifier_StoresOnlyDigest(t *testing.T) {
	ctx := context.Background()
	f := newVerifier(t)

	require.NoError(t, f.svc.RequestCode(ctx, "a@gmail.com"))
	c, err := f.store.Get(ctx, "a@gmail.com")
	require.NoError(t, err)
	assert.NotContains(t, string(c.CodeHash), f.notifier.code("a@gmail.com"))
	assert.Len(t, c.Salt, 16)
}

func TestVerifier_NewRequestReplacesOldCode(t *testing.T) {
	ctx := context.Background()
	f := newVerifier(t)

	require.NoError(t, f.svc.RequestCode(ctx, "a@gmail.com"))
	first := f.notifier.code("a@gmail.com")
	require.NoError(t, f.svc.RequestCode(ctx, "a@gmail.com"))
	second := f.notifier.code("a@gmail.com")

	if first != second {
		_, err := f.svc.VerifyCode(ctx, "a@gmail.com", first)
		assert.ErrorIs(t, err, common.ErrCodeMismatch)
	}
	_, err := f.svc.VerifyCode(ctx, "a@gmail.com", second)
	assert.NoError(t, err)
}

func TestVerifier_Expiry(t *testing.T) {
	ctx := context.Background()
	f := newVerifier(t)

	require.NoError(t, f.svc.RequestCode(ctx, "late@gmail.com"))
	f.clock.Advance(16 * time.Minute)

	_, err := f.svc.VerifyCode(ctx, "late@gmail.com", f.notifier.code("late@gmail.com"))
	assert.ErrorIs(t, err, common.ErrChallengeExpired)

	_, err = f.svc.VerifyCode(ctx, "late@gmail.com", f.notifier.code("late@gmail.com"))
	assert.ErrorIs(t, err, common.ErrNoChallenge)
}

func TestVerifier_AttemptLimit(t *testing.T) {
	ctx := context.Background()
	f := newVerifier(t)

	require.NoError(t, f.svc.RequestCode(ctx, "guess@gmail.com"))
	bad := wrongCode(f.notifier.code("guess@gmail.com"))

	for i := 1; i <= 4; i++ {
		_, err := f.svc.VerifyCode(ctx, "guess@gmail.com", bad)
		require.ErrorIs(t, err, common.ErrCodeMismatch, "attempt %d", i)
	}
	_, err := f.svc.VerifyCode(ctx, "guess@gmail.com", bad)
	require.ErrorIs(t, err, common.ErrTooManyAttempts)

	_, err = f.svc.VerifyCode(ctx, "guess@gmail.com", f.notifier.code("guess@gmail.com"))
	assert.ErrorIs(t, err, common.ErrNoChallenge, "the correct code no longer works")
}

func TestVerifier_RateLimit(t *testing.T) {
	ctx := context.Background()
	f := newVerifier(t)

	for i := 0; i < 10; i++ {
		require.NoError(t, f.svc.RequestCode(ctx, "spam@gmail.com"))
	}
	assert.ErrorIs(t, f.svc.RequestCode(ctx, "spam@gmail.com"), common.ErrRateLimited)
	assert.NoError(t, f.svc.RequestCode(ctx, "other@gmail.com"))

	f.clock.Advance(time.Hour + time.Second)
	assert.NoError(t, f.svc.RequestCode(ctx, "spam@gmail.com"))
}

func TestVerifier_RejectedDomainCountsTowardsLimit(t *testing.T) {
	ctx := context.Background()
	f := newVerifier(t)

	for i := 0; i < 10; i++ {
		require.ErrorIs(t, f.svc.RequestCode(ctx, "c@tempmail.com"), common.ErrDisposableDomain)
	}
	assert.ErrorIs(t, f.svc.RequestCode(ctx, "c@tempmail.com"), common.ErrRateLimited)
	assert.Empty(t, f.notifier.code("c@tempmail.com"))
}

func TestVerifier_InvalidSyntaxIsNotCounted(t *testing.T) {
	ctx := context.Background()
	f := newVerifier(t)

	for i := 0; i < 20; i++ {
		require.ErrorIs(t, f.svc.RequestCode(ctx, "not-an-email"), common.ErrInvalidEmail)
	}
}

func TestVerifier_NotifierFailureDropsChallenge(t *testing.T) {
	ctx := context.Background()
	f := newVerifier(t)
	f.notifier.err = errBoom

	err := f.svc.RequestCode(ctx, "a@gmail.com")
	require.ErrorIs(t, err, common.ErrNotifierUnavailable)

	_, err = f.store.Get(ctx, "a@gmail.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestVerifier_WithMailcheck(t *testing.T) {
	ctx := context.Background()
	f := newVerifier(t)
	f.svc.checker = mailcheck.New(nil, logging.Nop{})

	assert.ErrorIs(t, f.svc.RequestCode(ctx, "c@tempmail.com"), common.ErrDisposableDomain)
	assert.ErrorIs(t, f.svc.RequestCode(ctx, "bad@"), common.ErrInvalidEmail)
}

func TestVerifier_ConcurrentCorrectSubmissionsVerifyOnce(t *testing.T) {
	ctx := context.Background()
	f := newVerifier(t)

	require.NoError(t, f.svc.RequestCode(ctx, "twice@gmail.com"))
	code := f.notifier.code("twice@gmail.com")

	var wg sync.WaitGroup
	results := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.VerifyCode(ctx, "twice@gmail.com", code)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	ok := 0
	for err := range results {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, common.ErrNoChallenge)
		}
	}
	assert.Equal(t, 1, ok)
}

func TestVerifier_Sweep(t *testing.T) {
	ctx := context.Background()
	f := newVerifier(t)

	require.NoError(t, f.svc.RequestCode(ctx, "a@gmail.com"))
	f.clock.Advance(2 * time.Hour)
	require.NoError(t, f.svc.Sweep(ctx))

	_, err := f.store.Get(ctx, "a@gmail.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

// replaceAfterGet runs hook once, right after the first Get returns.
type replaceAfterGet struct {
	*challenges.MemoryRepository
	once sync.Once
	hook func()
}

func (r *replaceAfterGet) Get(ctx context.Context, email string) (*models.Challenge, error) {
	c, err := r.MemoryRepository.Get(ctx, email)
	r.once.Do(r.hook)
	return c, err
}

func TestVerifier_CodeReplacedDuringVerifyIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newVerifier(t)

	require.NoError(t, f.svc.RequestCode(ctx, "a@gmail.com"))
	old := f.notifier.code("a@gmail.com")

	store := &replaceAfterGet{MemoryRepository: f.store}
	checker := &fakeChecker{}
	svc := NewVerifierService(store, checker, f.notifier, testConfig(), f.clock.Now, logging.Nop{})
	store.hook = func() { require.NoError(t, svc.RequestCode(ctx, "a@gmail.com")) }

	_, err := svc.VerifyCode(ctx, "a@gmail.com", old)
	require.ErrorIs(t, err, common.ErrNoChallenge)

	fresh := f.notifier.code("a@gmail.com")
	email, err := svc.VerifyCode(ctx, "a@gmail.com", fresh)
	require.NoError(t, err, "the replacing challenge survives")
	assert.Equal(t, "a@gmail.com", email)
}
