// Package resolver advances pending trades to terminal outcomes.
package resolver

import (
	"math/rand"
	"sync"

	"moment-machine/internal/ledger"
	"moment-machine/internal/model"
)

// Implied win probability is clamped so no trade is a sure thing
// either way.
const (
	minWinProb = 0.15
	maxWinProb = 0.85
)

// DefaultBatchSize bounds one resolution pass.
const DefaultBatchSize = 50

// Resolver draws WIN/LOSS outcomes for pending trades. The entry odds
// act as an implied win probability, which keeps aggregate bot
// performance plausible without real settlement data.
type Resolver struct {
	ledger    *ledger.Ledger
	mu        sync.Mutex // guards rng; rand.Rand is not safe for concurrent use
	rng       *rand.Rand
	batchSize int
}

// New builds a resolver over the ledger. rng is seedable so tests can
// force deterministic outcome sequences.
func New(l *ledger.Ledger, rng *rand.Rand, batchSize int) *Resolver {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Resolver{ledger: l, rng: rng, batchSize: batchSize}
}

// ResolvePending resolves up to one batch of pending trades, oldest
// first, and returns the resolved snapshots. Trades resolved by a
// concurrent caller in the meantime come back unchanged; the ledger's
// idempotence guarantees no double settlement.
func (r *Resolver) ResolvePending() []model.Trade {
	pending := r.ledger.Pending(r.batchSize)
	out := make([]model.Trade, 0, len(pending))
	for _, t := range pending {
		outcome := model.StatusLoss
		if r.draw() < winProb(t.Odds) {
			outcome = model.StatusWin
		}
		resolved, ok := r.ledger.Resolve(t.ID, outcome)
		if !ok {
			continue
		}
		out = append(out, resolved)
	}
	return out
}

func (r *Resolver) draw() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

func winProb(odds float64) float64 {
	p := 1 / odds
	if p < minWinProb {
		return minWinProb
	}
	if p > maxWinProb {
		return maxWinProb
	}
	return p
}
