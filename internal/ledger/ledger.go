package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"moment-machine/internal/model"
)

// DefaultRecentLimit caps RecentTrades when the caller passes no limit.
const DefaultRecentLimit = 20

// Ledger is the sole owner of trade state. Every mutation goes through
// Record or Resolve under one mutex; all reads hand out copies so
// callers can never corrupt a record they hold.
type Ledger struct {
	mu        sync.Mutex
	trades    []*model.Trade
	index     map[string]*model.Trade
	maxTrades int
	now       func() time.Time
}

// New creates an empty ledger. maxTrades bounds retained history;
// zero or negative means unbounded.
func New(maxTrades int) *Ledger {
	return &Ledger{
		index:     make(map[string]*model.Trade),
		maxTrades: maxTrades,
		now:       time.Now,
	}
}

// SetClock overrides the time source. Tests only.
func (l *Ledger) SetClock(now func() time.Time) { l.now = now }

// snapshot deep-copies a trade, re-allocating the pointer fields so a
// caller writing through them cannot reach the ledger's record.
func snapshot(t *model.Trade) model.Trade {
	out := *t
	if t.PnL != nil {
		pnl := *t.PnL
		out.PnL = &pnl
	}
	if t.ResolvedAt != nil {
		at := *t.ResolvedAt
		out.ResolvedAt = &at
	}
	return out
}

// Record validates a proposal, assigns it an id and appends it as a
// PENDING trade. The returned snapshot is visible to all subsequent
// reads before Record returns.
func (l *Ledger) Record(p model.Proposal) (model.Trade, error) {
	if p.Stake <= 0 {
		return model.Trade{}, fmt.Errorf("invalid proposal: stake %.2f must be positive", p.Stake)
	}
	if p.Odds <= 1.0 {
		return model.Trade{}, fmt.Errorf("invalid proposal: odds %.2f must exceed 1.0", p.Odds)
	}
	if p.Action != model.ActionBuy && p.Action != model.ActionSell {
		return model.Trade{}, fmt.Errorf("invalid proposal: action %q", p.Action)
	}

	t := &model.Trade{
		ID:         uuid.New().String(),
		BotID:      p.BotID,
		Market:     p.Market,
		Action:     p.Action,
		Stake:      p.Stake,
		Odds:       p.Odds,
		EventID:    p.EventID,
		EventLabel: p.EventLabel,
		Status:     model.StatusPending,
		Comment:    p.Comment,
		CreatedAt:  l.now(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.trades = append(l.trades, t)
	l.index[t.ID] = t
	l.evictLocked()
	return snapshot(t), nil
}

// Resolve moves a pending trade to a terminal status and sets its
// realized P&L. Resolving an already-resolved trade is a no-op that
// returns the existing snapshot, so re-invocation is safe.
func (l *Ledger) Resolve(tradeID string, outcome model.TradeStatus) (model.Trade, bool) {
	if outcome != model.StatusWin && outcome != model.StatusLoss {
		return model.Trade{}, false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.index[tradeID]
	if !ok {
		return model.Trade{}, false
	}
	if t.Status != model.StatusPending {
		return snapshot(t), true
	}
	t.Status = outcome
	pnl := model.RealizedPnL(t.Stake, t.Odds, outcome)
	t.PnL = &pnl
	at := l.now()
	t.ResolvedAt = &at
	return snapshot(t), true
}

// Get returns a snapshot of one trade.
func (l *Ledger) Get(tradeID string) (model.Trade, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.index[tradeID]
	if !ok {
		return model.Trade{}, false
	}
	return snapshot(t), true
}

// TradesForBot returns the bot's trades in creation order, oldest first.
func (l *Ledger) TradesForBot(botID string) []model.Trade {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []model.Trade
	for _, t := range l.trades {
		if t.BotID == botID {
			out = append(out, snapshot(t))
		}
	}
	return out
}

// RecentTrades returns up to limit trades, newest first.
func (l *Ledger) RecentTrades(limit int) []model.Trade {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Trade, 0, limit)
	for i := len(l.trades) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, snapshot(l.trades[i]))
	}
	return out
}

// Pending returns up to max pending trades, oldest first. Zero or
// negative max means all of them.
func (l *Ledger) Pending(max int) []model.Trade {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []model.Trade
	for _, t := range l.trades {
		if t.Status != model.StatusPending {
			continue
		}
		out = append(out, snapshot(t))
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out
}

func (l *Ledger) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.trades)
}

// evictLocked drops oldest trades past the retention cap. Caller holds mu.
func (l *Ledger) evictLocked() {
	if l.maxTrades <= 0 || len(l.trades) <= l.maxTrades {
		return
	}
	drop := len(l.trades) - l.maxTrades
	for _, t := range l.trades[:drop] {
		delete(l.index, t.ID)
	}
	l.trades = append([]*model.Trade(nil), l.trades[drop:]...)
}
