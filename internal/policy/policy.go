// Package policy decides whether and how a bot trades on a game event.
// It only computes proposals; the ledger is the sole writer of trade state.
package policy

import (
	"fmt"
	"math/rand"
	"sync"

	"moment-machine/internal/model"
	"moment-machine/internal/taxonomy"
)

// Streak thresholds for the momentum personality.
const (
	hotStreak  = 3
	coldStreak = -3
)

// Config carries the tunables of the policy.
type Config struct {
	BaseStake  float64 // base stake unit
	OddsJitter float64 // max absolute jitter applied to base odds
}

func DefaultConfig() Config {
	return Config{BaseStake: 25, OddsJitter: 0.15}
}

// Policy evaluates (bot, event) pairs into trade proposals.
type Policy struct {
	cfg Config
	mu  sync.Mutex
	rng *rand.Rand
}

// New builds a policy around a seedable random source. The rng drives
// odds jitter and probabilistic personalities so no two bots ever emit
// byte-identical trades.
func New(cfg Config, rng *rand.Rand) *Policy {
	if cfg.BaseStake <= 0 {
		cfg.BaseStake = DefaultConfig().BaseStake
	}
	if cfg.OddsJitter < 0 {
		cfg.OddsJitter = 0
	}
	return &Policy{cfg: cfg, rng: rng}
}

// Evaluate returns the bot's trade proposal for the event, or nil when
// the bot sits this one out. A nil result is a normal outcome, not an
// error. streak is the bot's current signed streak, used by MOMENTUM.
func (p *Policy) Evaluate(bot model.Bot, event model.GameEvent, streak int) *model.Proposal {
	if !taxonomy.Significant(event.Kind) {
		return nil
	}

	var (
		stake  float64
		action model.TradeAction
		ok     bool
	)
	switch bot.Personality {
	case model.Aggressive:
		stake, action, ok = p.evalAggressive(event)
	case model.Conservative:
		stake, action, ok = p.evalConservative(event)
	case model.Contrarian:
		stake, action, ok = p.evalContrarian(event)
	case model.Momentum:
		stake, action, ok = p.evalMomentum(event, streak)
	default:
		return nil
	}
	if !ok {
		return nil
	}

	return &model.Proposal{
		BotID:      bot.ID,
		Market:     MarketLabel(event.Kind, event.Team),
		Action:     action,
		Stake:      stake,
		Odds:       p.odds(event.Kind),
		EventID:    event.ID,
		EventLabel: string(event.Kind),
	}
}

// ForceProposal builds the proposal a manual (UI-triggered) trade uses:
// the personality's probability gate is bypassed but stake, action,
// market and odds derive the same way. Still nil for non-significant
// events.
func (p *Policy) ForceProposal(bot model.Bot, event model.GameEvent) *model.Proposal {
	if !taxonomy.Significant(event.Kind) {
		return nil
	}
	return &model.Proposal{
		BotID:      bot.ID,
		Market:     MarketLabel(event.Kind, event.Team),
		Action:     naiveAction(event.Kind),
		Stake:      p.cfg.BaseStake,
		Odds:       p.odds(event.Kind),
		EventID:    event.ID,
		EventLabel: string(event.Kind),
	}
}

// ── Personality decision surfaces ────────────────────

// evalAggressive trades every significant event at triple stake.
func (p *Policy) evalAggressive(event model.GameEvent) (float64, model.TradeAction, bool) {
	return p.cfg.BaseStake * 3, naiveAction(event.Kind), true
}

// evalConservative only touches the highest-conviction kinds and keeps
// the stake at one base unit.
func (p *Policy) evalConservative(event model.GameEvent) (float64, model.TradeAction, bool) {
	switch event.Kind {
	case model.KindTouchdown, model.KindSafety, model.KindGameEnd:
		return p.cfg.BaseStake, model.ActionBuy, true
	}
	return 0, "", false
}

// evalContrarian fades the crowd: always in on turnovers, coin-flip on
// everything else, and the naive action inverted either way.
func (p *Policy) evalContrarian(event model.GameEvent) (float64, model.TradeAction, bool) {
	inverted := invert(naiveAction(event.Kind))
	if isTurnover(event.Kind) {
		return p.cfg.BaseStake * 2, inverted, true
	}
	if p.flip(0.5) {
		return p.cfg.BaseStake * 1.5, inverted, true
	}
	return 0, "", false
}

// evalMomentum sizes with the current streak. A hot bot presses, a cold
// bot shrinks and eventually stops proposing at all.
func (p *Policy) evalMomentum(event model.GameEvent, streak int) (float64, model.TradeAction, bool) {
	prob := 0.6 + 0.08*float64(streak)
	if prob > 0.95 {
		prob = 0.95
	}
	if streak <= coldStreak {
		prob = 0.1
	}
	if !p.flip(prob) {
		return 0, "", false
	}
	stake := p.cfg.BaseStake * 2
	switch {
	case streak >= hotStreak:
		stake = p.cfg.BaseStake * (2 + 0.5*float64(streak))
	case streak <= coldStreak:
		stake = p.cfg.BaseStake * 0.5
	case streak < 0:
		stake = p.cfg.BaseStake
	}
	return stake, naiveAction(event.Kind), true
}

// ── Derivations ──────────────────────────────────────

// naiveAction is the non-contrarian default: back the score, fade the
// mistake.
func naiveAction(kind model.EventKind) model.TradeAction {
	if isTurnover(kind) || kind == model.KindSack {
		return model.ActionSell
	}
	return model.ActionBuy
}

func invert(a model.TradeAction) model.TradeAction {
	if a == model.ActionBuy {
		return model.ActionSell
	}
	return model.ActionBuy
}

func isTurnover(kind model.EventKind) bool {
	return kind == model.KindInterception || kind == model.KindFumble
}

// baseOdds is the kind-keyed odds table. Jitter is applied on top so
// simultaneous proposals never collide exactly.
var baseOdds = map[model.EventKind]float64{
	model.KindTouchdown:    1.8,
	model.KindFieldGoal:    1.6,
	model.KindInterception: 2.2,
	model.KindFumble:       2.4,
	model.KindSafety:       5.0,
	model.KindSack:         1.9,
	model.KindBigPlay:      2.0,
	model.KindTwoPoint:     3.2,
	model.KindGameStart:    1.9,
	model.KindGameEnd:      1.5,
}

const fallbackOdds = 2.0

func (p *Policy) odds(kind model.EventKind) float64 {
	base, ok := baseOdds[kind]
	if !ok {
		base = fallbackOdds
	}
	p.mu.Lock()
	j := (p.rng.Float64()*2 - 1) * p.cfg.OddsJitter
	p.mu.Unlock()
	o := base + j
	if o <= 1.05 {
		o = 1.05
	}
	return o
}

func (p *Policy) flip(prob float64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64() < prob
}

// MarketLabel derives the traded proposition from the event kind and
// team attribution. Deterministic: no randomness in here.
func MarketLabel(kind model.EventKind, team string) string {
	if team == "" {
		team = "Either team"
	}
	switch kind {
	case model.KindTouchdown, model.KindFieldGoal, model.KindTwoPoint, model.KindSafety:
		return fmt.Sprintf("Next score: %s", team)
	case model.KindInterception, model.KindFumble:
		return fmt.Sprintf("%s to score off the turnover", team)
	case model.KindSack:
		return fmt.Sprintf("%s drive ends in a punt", team)
	case model.KindBigPlay:
		return fmt.Sprintf("%s to score this drive", team)
	case model.KindGameStart:
		return "Over/under total points"
	case model.KindGameEnd:
		return fmt.Sprintf("%s to win the postgame narrative", team)
	}
	return "Over/under total points"
}
