// Package fulfillment holds Fulfiller implementations.
package fulfillment

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultSuccessRate is the share of orders the simulated fulfiller accepts.
const DefaultSuccessRate = 0.9

// maxOutcomes caps how many per-order outcomes are remembered at once.
const maxOutcomes = 4096

// RandomFulfiller simulates fulfillment: it waits Delay, then succeeds with
// probability SuccessRate. Outcomes are remembered per order for outcomeTTL, so
// a redelivery within that window gets the same answer as the first attempt.
// At most maxOutcomes are kept; the least recently used are forgotten first.
type RandomFulfiller struct {
	delay       time.Duration
	successRate float64
	sleep       func(time.Duration)

	mu       sync.Mutex
	rnd      *rand.Rand
	outcomes *expirable.LRU[string, bool]
}

// NewRandomFulfiller validates successRate in [0, 1] and a non-negative delay.
// outcomeTTL should cover at least one lease reclaim cycle; zero keeps outcomes
// until they are pushed out by newer orders.
func NewRandomFulfiller(delay time.Duration, successRate float64, outcomeTTL time.Duration) (*RandomFulfiller, error) {
	if delay < 0 {
		return nil, errs.NewValueIsOutOfRangeError("delay", delay, time.Duration(0), "unbounded")
	}
	if successRate < 0 || successRate > 1 {
		return nil, errs.NewValueIsOutOfRangeError("success_rate", successRate, 0, 1)
	}
	if outcomeTTL < 0 {
		return nil, errs.NewValueIsOutOfRangeError("outcome_ttl", outcomeTTL, time.Duration(0), "unbounded")
	}

	return &RandomFulfiller{
		delay:       delay,
		successRate: successRate,
		sleep:       time.Sleep,
		rnd:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		outcomes:    expirable.NewLRU[string, bool](maxOutcomes, nil, outcomeTTL),
	}, nil
}

// WithSource replaces the random source, for deterministic runs.
func (f *RandomFulfiller) WithSource(src rand.Source) *RandomFulfiller {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rnd = rand.New(src)
	return f
}

// Fulfill does not observe ctx; the simulated work always runs to completion.
func (f *RandomFulfiller) Fulfill(_ context.Context, o *order.Order) (bool, error) {
	if err := o.Validate(); err != nil {
		return false, err
	}

	f.sleep(f.delay)

	key := o.ID().String()

	f.mu.Lock()
	defer f.mu.Unlock()

	if ok, seen := f.outcomes.Get(key); seen {
		return ok, nil
	}

	ok := f.rnd.Float64() < f.successRate
	f.outcomes.Add(key, ok)
	return ok, nil
}
