// Package commentary renders personality-flavored blurbs for trades.
package commentary

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"moment-machine/internal/model"
)

type key struct {
	personality model.Personality
	kind        model.EventKind
}

// Templates interpolate {bot}, {team}, {market}, {odds}, {stake} and
// {action}. Several variants per key keep repeated events from reading
// identically.
var templates = map[key][]string{
	{model.Aggressive, model.KindTouchdown}: {
		"{bot} SMASHES the {action} button — {market} at {odds}. No hesitation.",
		"Six points?! {bot} is throwing {stake} at {market}. Odds {odds}, who cares.",
	},
	{model.Aggressive, model.KindInterception}: {
		"Picked off! {bot} fades the chaos, {action} on {market} at {odds}.",
	},
	{model.Aggressive, model.KindBigPlay}: {
		"Huge gain and {bot} is ALL IN: {action} {market} at {odds}.",
	},
	{model.Conservative, model.KindTouchdown}: {
		"{bot} has run the numbers. A measured {stake} on {market} at {odds}.",
		"Touchdowns are signal, not noise. {bot} takes {market} at {odds}.",
	},
	{model.Conservative, model.KindSafety}: {
		"A safety — rare, and rarely mispriced. {bot} quietly takes {market} at {odds}.",
	},
	{model.Contrarian, model.KindTouchdown}: {
		"Everyone's euphoric, so {bot} is selling. {action} on {market} at {odds}.",
		"{bot} fades the roar of the crowd: {action} {market}, odds {odds}.",
	},
	{model.Contrarian, model.KindFumble}: {
		"The ball is on the turf and {bot} smells value: {action} {market} at {odds}.",
	},
	{model.Contrarian, model.KindInterception}: {
		"A turnover is where {bot} lives. {action} on {market} at {odds}.",
	},
	{model.Momentum, model.KindTouchdown}: {
		"{bot} is riding the wave — {stake} on {market} at {odds}.",
		"The tape says the run continues. {bot} presses with {action} on {market}.",
	},
	{model.Momentum, model.KindBigPlay}: {
		"Momentum begets momentum. {bot} adds {stake} to {market} at {odds}.",
	},
}

// generic is the fallback pool for any (personality, kind) the table
// doesn't cover.
var generic = []string{
	"{bot} takes a position: {action} on {market} at {odds}.",
	"{team} made a play, {bot} made a trade — {market}, odds {odds}.",
	"{bot} puts {stake} on {market} at {odds}.",
}

// Generator never fails; it falls back to a generic template when no
// personality/kind-specific one exists.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func New(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// Generate renders a comment for a bot/trade/event triple.
func (g *Generator) Generate(bot model.Bot, trade model.Trade, event model.GameEvent) string {
	pool, ok := templates[key{bot.Personality, event.Kind}]
	if !ok || len(pool) == 0 {
		pool = generic
	}
	g.mu.Lock()
	tmpl := pool[g.rng.Intn(len(pool))]
	g.mu.Unlock()

	team := event.Team
	if team == "" {
		team = "The offense"
	}
	return strings.NewReplacer(
		"{bot}", bot.Name,
		"{team}", team,
		"{market}", trade.Market,
		"{odds}", fmt.Sprintf("%.2f", trade.Odds),
		"{stake}", fmt.Sprintf("%.0f", trade.Stake),
		"{action}", string(trade.Action),
	).Replace(tmpl)
}
