package model

import "time"

// ── Enums ────────────────────────────────────────────

type EventKind string

const (
	KindTouchdown    EventKind = "TOUCHDOWN"
	KindFieldGoal    EventKind = "FIELD_GOAL"
	KindInterception EventKind = "INTERCEPTION"
	KindFumble       EventKind = "FUMBLE"
	KindSafety       EventKind = "SAFETY"
	KindSack         EventKind = "SACK"
	KindBigPlay      EventKind = "BIG_PLAY"
	KindPunt         EventKind = "PUNT"
	KindKickoff      EventKind = "KICKOFF"
	KindTwoPoint     EventKind = "TWO_POINT_CONVERSION"
	KindHalftime     EventKind = "HALFTIME"
	KindGameStart    EventKind = "GAME_START"
	KindGameEnd      EventKind = "GAME_END"
	KindPlay         EventKind = "PLAY"
)

type Personality string

const (
	Aggressive   Personality = "AGGRESSIVE"
	Conservative Personality = "CONSERVATIVE"
	Contrarian   Personality = "CONTRARIAN"
	Momentum     Personality = "MOMENTUM"
)

type TradeAction string

const (
	ActionBuy  TradeAction = "BUY"
	ActionSell TradeAction = "SELL"
)

type TradeStatus string

const (
	StatusPending TradeStatus = "PENDING"
	StatusWin     TradeStatus = "WIN"
	StatusLoss    TradeStatus = "LOSS"
)

// ── Domain Objects ───────────────────────────────────

// GameEvent is a single classified occurrence from the game feed.
// The core never mutates one after it is handed in.
type GameEvent struct {
	ID          string    `json:"id"`
	Kind        EventKind `json:"kind"`
	Description string    `json:"description"`
	Team        string    `json:"team,omitempty"`
	Player      string    `json:"player,omitempty"`
	Quarter     int       `json:"quarter"`
	Clock       string    `json:"clock"`
	HomeScore   int       `json:"home_score"`
	AwayScore   int       `json:"away_score"`
	Timestamp   time.Time `json:"timestamp"`
	Confidence  float64   `json:"confidence"`
}

type Bot struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Brand       string      `json:"brand"`
	Avatar      string      `json:"avatar"`
	Color       string      `json:"color"`
	Personality Personality `json:"personality"`
	Tagline     string      `json:"tagline"`
}

// Proposal is a trade a bot would like to place. It has no identity
// yet; the ledger assigns one when it is recorded.
type Proposal struct {
	BotID      string
	Market     string
	Action     TradeAction
	Stake      float64
	Odds       float64
	EventID    string
	EventLabel string
	Comment    string
}

type Trade struct {
	ID         string      `json:"id"`
	BotID      string      `json:"bot_id"`
	Market     string      `json:"market"`
	Action     TradeAction `json:"action"`
	Stake      float64     `json:"stake"`
	Odds       float64     `json:"odds"`
	EventID    string      `json:"event_id"`
	EventLabel string      `json:"event_label"`
	Status     TradeStatus `json:"status"`
	PnL        *float64    `json:"pnl,omitempty"`
	Comment    string      `json:"comment,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	ResolvedAt *time.Time  `json:"resolved_at,omitempty"`
}

func (t Trade) Resolved() bool { return t.Status != StatusPending }

// BotStats is always recomputed from the trade set, never stored.
type BotStats struct {
	TotalTrades int     `json:"total_trades"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	WinRate     int     `json:"win_rate"`
	TotalPnL    float64 `json:"total_pnl"`
	TodayPnL    float64 `json:"today_pnl"`
	Streak      int     `json:"streak"`
}

type Standing struct {
	Bot   Bot      `json:"bot"`
	Stats BotStats `json:"stats"`
}

// ── Settlement ───────────────────────────────────────

// RealizedPnL is the payout formula for a terminal outcome:
// stake*(odds-1) on a win, -stake on a loss.
func RealizedPnL(stake, odds float64, status TradeStatus) float64 {
	if status == StatusWin {
		return stake * (odds - 1)
	}
	return -stake
}
