package stats

import (
	"testing"
	"time"

	"moment-machine/internal/ledger"
	"moment-machine/internal/model"
	"moment-machine/internal/registry"
)

func recordN(t *testing.T, l *ledger.Ledger, botID string, n int, stake, odds float64) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		tr, err := l.Record(model.Proposal{
			BotID: botID, Market: "Next score: Chiefs", Action: model.ActionBuy,
			Stake: stake, Odds: odds, EventID: "ev", EventLabel: "TOUCHDOWN",
		})
		if err != nil {
			t.Fatalf("record: %v", err)
		}
		ids = append(ids, tr.ID)
	}
	return ids
}

func resolveSeq(t *testing.T, l *ledger.Ledger, ids []string, seq string) {
	t.Helper()
	if len(ids) != len(seq) {
		t.Fatalf("sequence length %d != trades %d", len(seq), len(ids))
	}
	for i, c := range seq {
		outcome := model.StatusLoss
		if c == 'W' {
			outcome = model.StatusWin
		}
		if _, ok := l.Resolve(ids[i], outcome); !ok {
			t.Fatalf("resolve %d failed", i)
		}
	}
}

// Ten trades at odds 2.0, stake 100, outcomes WWWLLWWLWW:
// totalPnL = 7*100 - 3*100 = 400, winRate = 70%.
func TestFixedOutcomeSequence(t *testing.T) {
	l := ledger.New(0)
	ids := recordN(t, l, "b1", 10, 100, 2.0)
	resolveSeq(t, l, ids, "WWWLLWWLWW")

	s := Compute(l.TradesForBot("b1"), time.Now())
	if s.TotalPnL != 400 {
		t.Fatalf("totalPnL = %v, want 400", s.TotalPnL)
	}
	if s.WinRate != 70 {
		t.Fatalf("winRate = %d, want 70", s.WinRate)
	}
	if s.Wins != 7 || s.Losses != 3 {
		t.Fatalf("wins/losses = %d/%d, want 7/3", s.Wins, s.Losses)
	}
	if s.Streak != 2 {
		t.Fatalf("streak = %d, want +2", s.Streak)
	}
}

func TestConservationPerTrade(t *testing.T) {
	l := ledger.New(0)
	ids := recordN(t, l, "b1", 4, 50, 3.0)
	resolveSeq(t, l, ids, "WLWL")

	var sum float64
	for _, tr := range l.TradesForBot("b1") {
		if tr.Status == model.StatusWin && *tr.PnL != 50*(3.0-1) {
			t.Fatalf("win pnl = %v, want 100", *tr.PnL)
		}
		if tr.Status == model.StatusLoss && *tr.PnL != -50 {
			t.Fatalf("loss pnl = %v, want -50", *tr.PnL)
		}
		sum += *tr.PnL
	}
	if s := Compute(l.TradesForBot("b1"), time.Now()); s.TotalPnL != sum {
		t.Fatalf("totalPnL %v != sum of realized %v", s.TotalPnL, sum)
	}
}

func TestStreakOnlyCountsTrailingRun(t *testing.T) {
	l := ledger.New(0)
	ids := recordN(t, l, "b1", 4, 10, 2.0)
	resolveSeq(t, l, ids, "WWLW")
	if s := Compute(l.TradesForBot("b1"), time.Now()); s.Streak != 1 {
		t.Fatalf("streak = %d, want +1", s.Streak)
	}

	l2 := ledger.New(0)
	ids2 := recordN(t, l2, "b1", 3, 10, 2.0)
	resolveSeq(t, l2, ids2, "WWW")
	if s := Compute(l2.TradesForBot("b1"), time.Now()); s.Streak != 3 {
		t.Fatalf("streak = %d, want +3", s.Streak)
	}

	l3 := ledger.New(0)
	ids3 := recordN(t, l3, "b1", 3, 10, 2.0)
	resolveSeq(t, l3, ids3, "WLL")
	if s := Compute(l3.TradesForBot("b1"), time.Now()); s.Streak != -2 {
		t.Fatalf("streak = %d, want -2", s.Streak)
	}
}

func TestStreakOrderedByResolutionTime(t *testing.T) {
	l := ledger.New(0)
	tick := time.Now()
	l.SetClock(func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	})
	ids := recordN(t, l, "b1", 3, 10, 2.0)
	// Resolve out of creation order: newest first as a loss, then two wins.
	l.Resolve(ids[2], model.StatusLoss)
	l.Resolve(ids[0], model.StatusWin)
	l.Resolve(ids[1], model.StatusWin)
	// By resolution time the trailing run is W,W.
	if s := Compute(l.TradesForBot("b1"), time.Now()); s.Streak != 2 {
		t.Fatalf("streak = %d, want +2", s.Streak)
	}
}

func TestEmptyAndPendingOnly(t *testing.T) {
	s := Compute(nil, time.Now())
	if s.WinRate != 0 || s.Streak != 0 || s.TotalPnL != 0 {
		t.Fatalf("zero-value stats expected, got %+v", s)
	}

	l := ledger.New(0)
	recordN(t, l, "b1", 3, 10, 2.0)
	s = Compute(l.TradesForBot("b1"), time.Now())
	if s.TotalTrades != 3 || s.WinRate != 0 || s.Streak != 0 {
		t.Fatalf("pending-only stats wrong: %+v", s)
	}
}

func TestTodayPnLWindow(t *testing.T) {
	l := ledger.New(0)
	yesterday := time.Now().Add(-48 * time.Hour)
	l.SetClock(func() time.Time { return yesterday })
	old := recordN(t, l, "b1", 1, 100, 2.0)
	resolveSeq(t, l, old, "W")

	l.SetClock(time.Now)
	fresh := recordN(t, l, "b1", 1, 100, 2.0)
	resolveSeq(t, l, fresh, "W")

	s := Compute(l.TradesForBot("b1"), time.Now())
	if s.TotalPnL != 200 {
		t.Fatalf("totalPnL = %v, want 200", s.TotalPnL)
	}
	if s.TodayPnL != 100 {
		t.Fatalf("todayPnL = %v, want 100", s.TodayPnL)
	}
}

func TestLeaderboardOrderingAndTies(t *testing.T) {
	reg := registry.New([]model.Bot{
		{ID: "bot-a", Personality: model.Aggressive},
		{ID: "bot-b", Personality: model.Conservative},
		{ID: "bot-c", Personality: model.Contrarian},
	})
	l := ledger.New(0)

	// bot-a: +100. bot-b: +100 with lower win rate. bot-c: -50.
	a := recordN(t, l, "bot-a", 1, 100, 2.0)
	resolveSeq(t, l, a, "W")
	b := recordN(t, l, "bot-b", 3, 100, 2.0)
	resolveSeq(t, l, b, "WWL")
	c := recordN(t, l, "bot-c", 1, 50, 2.0)
	resolveSeq(t, l, c, "L")

	agg := New(reg, l)
	lb := agg.Leaderboard()
	want := []string{"bot-a", "bot-b", "bot-c"}
	for i, id := range want {
		if lb[i].Bot.ID != id {
			t.Fatalf("rank %d = %s, want %s", i, lb[i].Bot.ID, id)
		}
	}

	// Same trade set, same ordering.
	again := agg.Leaderboard()
	for i := range lb {
		if lb[i].Bot.ID != again[i].Bot.ID {
			t.Fatal("leaderboard not deterministic")
		}
	}
}

func TestLeaderboardTieBreaksByID(t *testing.T) {
	reg := registry.New([]model.Bot{
		{ID: "bot-z"},
		{ID: "bot-a"},
	})
	l := ledger.New(0)
	agg := New(reg, l)
	lb := agg.Leaderboard()
	if lb[0].Bot.ID != "bot-a" {
		t.Fatalf("identical stats must tie-break by id, got %s first", lb[0].Bot.ID)
	}
}

func TestBotsWithStatsRegistryOrder(t *testing.T) {
	reg := registry.New([]model.Bot{{ID: "bot-z"}, {ID: "bot-a"}})
	agg := New(reg, ledger.New(0))
	rows := agg.BotsWithStats()
	if rows[0].Bot.ID != "bot-z" || rows[1].Bot.ID != "bot-a" {
		t.Fatal("expected registry order, unsorted")
	}
}
