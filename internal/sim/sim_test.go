package sim

import (
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"moment-machine/internal/commentary"
	"moment-machine/internal/ledger"
	"moment-machine/internal/model"
	"moment-machine/internal/policy"
	"moment-machine/internal/registry"
	"moment-machine/internal/resolver"
	"moment-machine/internal/stats"
)

func newSim(seed int64) *Simulator {
	reg := registry.Default()
	l := ledger.New(0)
	pol := policy.New(policy.DefaultConfig(), rand.New(rand.NewSource(seed)))
	res := resolver.New(l, rand.New(rand.NewSource(seed+1)), 0)
	gen := commentary.New(rand.New(rand.NewSource(seed+2)))
	agg := stats.New(reg, l)
	return New(reg, l, pol, res, gen, agg)
}

func touchdown() model.GameEvent {
	return model.GameEvent{
		ID: "ev-td", Kind: model.KindTouchdown, Team: "Chiefs",
		Description: "Mahomes 18-yard touchdown pass",
		Quarter:     2, Clock: "04:12", Timestamp: time.Now(), Confidence: 0.95,
	}
}

func TestTouchdownYieldsPendingScoringTrades(t *testing.T) {
	s := newSim(1)
	trades := s.ReactToEvent(touchdown())
	if len(trades) < 1 || len(trades) > 4 {
		t.Fatalf("expected 1-4 trades from 4 bots, got %d", len(trades))
	}
	for _, tr := range trades {
		if tr.Status != model.StatusPending {
			t.Fatalf("fresh trade status = %s, want PENDING", tr.Status)
		}
		if !strings.Contains(strings.ToLower(tr.Market), "score") {
			t.Fatalf("market %q should reference a scoring market", tr.Market)
		}
		if tr.Comment == "" {
			t.Fatal("commentary should be attached at creation")
		}
		if _, ok := s.Bot(tr.BotID); !ok {
			t.Fatalf("trade references unregistered bot %s", tr.BotID)
		}
	}
}

func TestPuntYieldsNothing(t *testing.T) {
	s := newSim(1)
	ev := touchdown()
	ev.Kind = model.KindPunt
	if trades := s.ReactToEvent(ev); len(trades) != 0 {
		t.Fatalf("punt produced %d trades, want 0", len(trades))
	}
}

func TestExecuteTradeUnknownBot(t *testing.T) {
	s := newSim(1)
	if tr := s.ExecuteTrade("bot-unknown", touchdown(), nil, nil); tr != nil {
		t.Fatalf("expected nil for unknown bot, got %+v", tr)
	}
}

func TestExecuteTradeNonSignificant(t *testing.T) {
	s := newSim(1)
	ev := touchdown()
	ev.Kind = model.KindKickoff
	if tr := s.ExecuteTrade("bot-blaze", ev, nil, nil); tr != nil {
		t.Fatal("expected nil for non-significant event")
	}
}

func TestExecuteTradeOverrides(t *testing.T) {
	s := newSim(1)
	market := "Chiefs to cover the spread"
	action := model.ActionSell
	tr := s.ExecuteTrade("bot-ledger", touchdown(), &market, &action)
	if tr == nil {
		t.Fatal("expected a trade")
	}
	if tr.Market != market || tr.Action != action {
		t.Fatalf("overrides ignored: %+v", tr)
	}
	if tr.Status != model.StatusPending {
		t.Fatalf("manual trade status = %s", tr.Status)
	}
}

func TestResolveThenLeaderboardConsistent(t *testing.T) {
	s := newSim(5)
	for i := 0; i < 6; i++ {
		s.ReactToEvent(touchdown())
	}
	resolved := s.ResolvePendingTrades()
	if len(resolved) == 0 {
		t.Fatal("expected some resolutions")
	}

	var lbTotal float64
	for _, row := range s.Leaderboard() {
		lbTotal += row.Stats.TotalPnL
	}
	var sum float64
	for _, bot := range s.Bots() {
		for _, tr := range s.TradesForBot(bot.ID) {
			if tr.PnL != nil {
				sum += *tr.PnL
			}
		}
	}
	if lbTotal != sum {
		t.Fatalf("leaderboard total %v != realized sum %v", lbTotal, sum)
	}

	// Ranking is stable across calls on a fixed trade set.
	a, b := s.Leaderboard(), s.Leaderboard()
	for i := range a {
		if a[i].Bot.ID != b[i].Bot.ID {
			t.Fatal("leaderboard ordering unstable")
		}
	}
}

func TestConcurrentReactAndResolve(t *testing.T) {
	s := newSim(7)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				if g%2 == 0 {
					s.ReactToEvent(touchdown())
				} else {
					s.ResolvePendingTrades()
				}
			}
		}(g)
	}
	wg.Wait()
	s.ResolvePendingTrades()

	// Every resolved trade carries a consistent terminal state, and the
	// leaderboard still balances against the realized sum.
	var lbTotal float64
	for _, row := range s.Leaderboard() {
		lbTotal += row.Stats.TotalPnL
	}
	var sum float64
	for _, bot := range s.Bots() {
		for _, tr := range s.TradesForBot(bot.ID) {
			if tr.Status == model.StatusPending {
				continue
			}
			if tr.PnL == nil || tr.ResolvedAt == nil {
				t.Fatalf("resolved trade %s missing pnl or resolved_at", tr.ID)
			}
			sum += *tr.PnL
		}
	}
	if lbTotal != sum {
		t.Fatalf("leaderboard total %v != realized sum %v", lbTotal, sum)
	}
}

func TestArchiveHookSeesResolvedTrades(t *testing.T) {
	s := newSim(2)
	var archived []model.Trade
	s.SetArchive(func(tr model.Trade) { archived = append(archived, tr) })

	s.ReactToEvent(touchdown())
	resolved := s.ResolvePendingTrades()
	if len(archived) != len(resolved) {
		t.Fatalf("archived %d, resolved %d", len(archived), len(resolved))
	}
	for _, tr := range archived {
		if tr.Status == model.StatusPending {
			t.Fatal("pending trade reached the archive")
		}
	}
}

func TestPublishHookFiresOnActivity(t *testing.T) {
	s := newSim(3)
	channels := map[string]int{}
	s.SetPublish(func(channel, msgType string, data any) { channels[channel]++ })

	s.ReactToEvent(touchdown())
	s.ResolvePendingTrades()
	if channels["trades"] == 0 || channels["leaderboard"] == 0 {
		t.Fatalf("expected broadcasts on trades and leaderboard, got %v", channels)
	}
}

func TestGenerateComment(t *testing.T) {
	s := newSim(1)
	tr := s.ExecuteTrade("bot-blaze", touchdown(), nil, nil)
	if tr == nil {
		t.Fatal("expected trade")
	}
	c, ok := s.GenerateComment("bot-blaze", *tr, touchdown())
	if !ok || c == "" {
		t.Fatalf("expected comment, got %q ok=%v", c, ok)
	}
	if _, ok := s.GenerateComment("bot-unknown", *tr, touchdown()); ok {
		t.Fatal("unknown bot should not generate commentary")
	}
}

func TestSeedDemoIdempotent(t *testing.T) {
	s := newSim(4)
	s.SeedDemo()
	n := s.Metrics()["total_trades"].(int)
	if n == 0 {
		t.Fatal("seed placed no trades")
	}
	s.SeedDemo()
	if got := s.Metrics()["total_trades"].(int); got != n {
		t.Fatalf("second seed changed trade count: %d -> %d", n, got)
	}
}

func TestStatsForUnknownBot(t *testing.T) {
	s := newSim(1)
	if _, ok := s.StatsFor("bot-unknown"); ok {
		t.Fatal("expected ok=false for unknown bot")
	}
}
