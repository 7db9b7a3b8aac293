// Package stats recomputes per-bot figures and the leaderboard from
// the trade set. Nothing here is cached; ordering is a pure function
// of the ledger contents.
package stats

import (
	"math"
	"sort"
	"time"

	"moment-machine/internal/ledger"
	"moment-machine/internal/model"
	"moment-machine/internal/registry"
)

type Aggregator struct {
	registry *registry.Registry
	ledger   *ledger.Ledger
	now      func() time.Time
}

func New(reg *registry.Registry, l *ledger.Ledger) *Aggregator {
	return &Aggregator{registry: reg, ledger: l, now: time.Now}
}

// SetClock overrides the time source. Tests only.
func (a *Aggregator) SetClock(now func() time.Time) { a.now = now }

// StatsFor recomputes a bot's stats from its trades.
func (a *Aggregator) StatsFor(botID string) model.BotStats {
	return Compute(a.ledger.TradesForBot(botID), a.now())
}

// Leaderboard ranks every registered bot by total P&L, ties broken by
// win rate then bot id for determinism.
func (a *Aggregator) Leaderboard() []model.Standing {
	out := a.BotsWithStats()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Stats.TotalPnL != out[j].Stats.TotalPnL {
			return out[i].Stats.TotalPnL > out[j].Stats.TotalPnL
		}
		if out[i].Stats.WinRate != out[j].Stats.WinRate {
			return out[i].Stats.WinRate > out[j].Stats.WinRate
		}
		return out[i].Bot.ID < out[j].Bot.ID
	})
	return out
}

// BotsWithStats pairs every bot with its stats in registry order, for
// display tables that sort client-side.
func (a *Aggregator) BotsWithStats() []model.Standing {
	bots := a.registry.Bots()
	now := a.now()
	out := make([]model.Standing, len(bots))
	for i, b := range bots {
		out[i] = model.Standing{Bot: b, Stats: Compute(a.ledger.TradesForBot(b.ID), now)}
	}
	return out
}

// Compute derives stats from one bot's trades. now anchors the
// "today" window.
func Compute(trades []model.Trade, now time.Time) model.BotStats {
	s := model.BotStats{TotalTrades: len(trades)}

	resolved := make([]model.Trade, 0, len(trades))
	for _, t := range trades {
		if !t.Resolved() || t.PnL == nil {
			continue
		}
		resolved = append(resolved, t)
		if t.Status == model.StatusWin {
			s.Wins++
		} else {
			s.Losses++
		}
		s.TotalPnL += *t.PnL
		if sameDay(t.CreatedAt, now) {
			s.TodayPnL += *t.PnL
		}
	}

	if n := s.Wins + s.Losses; n > 0 {
		s.WinRate = int(math.Round(100 * float64(s.Wins) / float64(n)))
	}
	s.Streak = streak(resolved)
	return s
}

// streak is the signed length of the trailing run of same-outcome
// trades ordered by resolution time. Pending trades are invisible here.
func streak(resolved []model.Trade) int {
	if len(resolved) == 0 {
		return 0
	}
	sort.SliceStable(resolved, func(i, j int) bool {
		return resolved[i].ResolvedAt.Before(*resolved[j].ResolvedAt)
	})
	last := resolved[len(resolved)-1].Status
	run := 0
	for i := len(resolved) - 1; i >= 0; i-- {
		if resolved[i].Status != last {
			break
		}
		run++
	}
	if last == model.StatusLoss {
		return -run
	}
	return run
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
