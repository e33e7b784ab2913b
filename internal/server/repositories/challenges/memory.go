package challenges

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/jengacalc/jengacalc/internal/common"
	"github.com/jengacalc/jengacalc/internal/server/models"
)

type memoryChallenge struct {
	challenge models.Challenge
	retainTil time.Time
}

type requestLog struct {
	times  []time.Time
	window time.Duration
}

// MemoryRepository keeps challenges and request logs in process memory.
// State is lost on restart, which only forces users to request a new code.
type MemoryRepository struct {
	mu         sync.Mutex
	challenges map[string]*memoryChallenge
	requests   map[string]*requestLog
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		challenges: make(map[string]*memoryChallenge),
		requests:   make(map[string]*requestLog),
	}
}

func (r *MemoryRepository) Get(_ context.Context, email string) (*models.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	mc, ok := r.challenges[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := mc.challenge
	return &c, nil
}

func (r *MemoryRepository) Put(_ context.Context, c *models.Challenge, retain time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.challenges[c.Email] = &memoryChallenge{challenge: *c, retainTil: c.CreatedAt.Add(retain)}
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, email string, codeHash []byte) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	mc, ok := r.challenges[email]
	if !ok || !bytes.Equal(mc.challenge.CodeHash, codeHash) {
		return false, nil
	}
	delete(r.challenges, email)
	return true, nil
}

func (r *MemoryRepository) IncrementAttempts(_ context.Context, email string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	mc, ok := r.challenges[email]
	if !ok {
		return 0, common.ErrorNotFound
	}
	mc.challenge.Attempts++
	return mc.challenge.Attempts, nil
}

func (r *MemoryRepository) AllowRequest(_ context.Context, email string, now time.Time, window time.Duration, limit int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	log, ok := r.requests[email]
	if !ok {
		log = &requestLog{}
		r.requests[email] = log
	}
	log.window = window
	log.times = pruneBefore(log.times, now.Add(-window))

	if len(log.times) >= limit {
		return false, nil
	}
	log.times = append(log.times, now)
	return true, nil
}

func (r *MemoryRepository) Sweep(_ context.Context, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for email, mc := range r.challenges {
		if !now.Before(mc.retainTil) {
			delete(r.challenges, email)
		}
	}
	for email, log := range r.requests {
		log.times = pruneBefore(log.times, now.Add(-log.window))
		if len(log.times) == 0 {
			delete(r.requests, email)
		}
	}
	return nil
}

// pruneBefore drops timestamps not after cutoff. times is in ascending order.
func pruneBefore(times []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}
	return times[i:]
}
