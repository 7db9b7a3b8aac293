// Package sim wires the registry, policy, ledger, resolver, stats and
// commentary into the engine the route layer talks to. All outbound
// values are snapshots; callers can never reach into ledger state.
package sim

import (
	"log"
	"sync"

	"moment-machine/internal/commentary"
	"moment-machine/internal/ledger"
	"moment-machine/internal/model"
	"moment-machine/internal/policy"
	"moment-machine/internal/registry"
	"moment-machine/internal/resolver"
	"moment-machine/internal/stats"
	"moment-machine/internal/taxonomy"
)

// PublishFunc broadcasts a WS message on a channel.
type PublishFunc func(channel, msgType string, data any)

// ArchiveFunc receives each resolved trade for out-of-band persistence.
// It runs outside the ledger's critical sections and must not block
// resolution on failure.
type ArchiveFunc func(model.Trade)

type Simulator struct {
	registry   *registry.Registry
	ledger     *ledger.Ledger
	policy     *policy.Policy
	resolver   *resolver.Resolver
	commentary *commentary.Generator
	stats      *stats.Aggregator
	publish    PublishFunc
	archive    ArchiveFunc
	seedOnce   sync.Once
}

func New(reg *registry.Registry, l *ledger.Ledger, pol *policy.Policy,
	res *resolver.Resolver, gen *commentary.Generator, agg *stats.Aggregator) *Simulator {
	return &Simulator{
		registry:   reg,
		ledger:     l,
		policy:     pol,
		resolver:   res,
		commentary: gen,
		stats:      agg,
	}
}

// SetPublish attaches the WS broadcast hook. Optional.
func (s *Simulator) SetPublish(pub PublishFunc) { s.publish = pub }

// SetArchive attaches the resolved-trade archive hook. Optional.
func (s *Simulator) SetArchive(fn ArchiveFunc) { s.archive = fn }

// ── Outbound operations ──────────────────────────────

// ReactToEvent runs the reaction policy over every registered bot and
// records the resulting trades. A non-significant event yields an
// empty result for any bot configuration.
func (s *Simulator) ReactToEvent(event model.GameEvent) []model.Trade {
	if !taxonomy.Significant(event.Kind) {
		return []model.Trade{}
	}

	trades := []model.Trade{}
	for _, bot := range s.registry.Bots() {
		streak := s.stats.StatsFor(bot.ID).Streak
		prop := s.policy.Evaluate(bot, event, streak)
		if prop == nil {
			continue
		}
		prop.Comment = s.commentary.Generate(bot, tradePreview(*prop), event)
		trade, err := s.ledger.Record(*prop)
		if err != nil {
			// A policy emitting an invalid proposal is a logic bug;
			// it never reaches the ledger.
			log.Printf("[sim] dropping proposal from %s: %v", bot.ID, err)
			continue
		}
		trades = append(trades, trade)
	}

	if len(trades) > 0 {
		log.Printf("[sim] %s (%s): %d bots reacted", event.Kind, event.Team, len(trades))
		s.broadcast("trades", "trades_placed", trades)
		s.broadcast("leaderboard", "leaderboard", s.stats.Leaderboard())
	}
	return trades
}

// ExecuteTrade places a single manual trade for one bot. Returns nil
// when the bot is unknown or the event is not significant; absence is
// a normal outcome here, not an error.
func (s *Simulator) ExecuteTrade(botID string, event model.GameEvent, market *string, action *model.TradeAction) *model.Trade {
	bot, ok := s.registry.Find(botID)
	if !ok {
		return nil
	}
	prop := s.policy.ForceProposal(bot, event)
	if prop == nil {
		return nil
	}
	if market != nil && *market != "" {
		prop.Market = *market
	}
	if action != nil && (*action == model.ActionBuy || *action == model.ActionSell) {
		prop.Action = *action
	}
	prop.Comment = s.commentary.Generate(bot, tradePreview(*prop), event)

	trade, err := s.ledger.Record(*prop)
	if err != nil {
		log.Printf("[sim] manual trade for %s rejected: %v", botID, err)
		return nil
	}
	s.broadcast("trades", "trades_placed", []model.Trade{trade})
	return &trade
}

// ResolvePendingTrades advances one bounded batch of pending trades.
func (s *Simulator) ResolvePendingTrades() []model.Trade {
	resolved := s.resolver.ResolvePending()
	if len(resolved) == 0 {
		return resolved
	}
	if s.archive != nil {
		for _, t := range resolved {
			s.archive(t)
		}
	}
	log.Printf("[sim] resolved %d trades", len(resolved))
	s.broadcast("trades", "trades_resolved", resolved)
	s.broadcast("leaderboard", "leaderboard", s.stats.Leaderboard())
	return resolved
}

func (s *Simulator) Leaderboard() []model.Standing   { return s.stats.Leaderboard() }
func (s *Simulator) BotsWithStats() []model.Standing { return s.stats.BotsWithStats() }

func (s *Simulator) RecentTrades(limit int) []model.Trade { return s.ledger.RecentTrades(limit) }

func (s *Simulator) Bot(id string) (model.Bot, bool) { return s.registry.Find(id) }
func (s *Simulator) Bots() []model.Bot               { return s.registry.Bots() }

func (s *Simulator) StatsFor(botID string) (model.BotStats, bool) {
	if _, ok := s.registry.Find(botID); !ok {
		return model.BotStats{}, false
	}
	return s.stats.StatsFor(botID), true
}

func (s *Simulator) TradesForBot(botID string) []model.Trade {
	return s.ledger.TradesForBot(botID)
}

// GenerateComment renders fresh commentary for a bot/trade/event
// triple. ok is false only for an unknown bot.
func (s *Simulator) GenerateComment(botID string, trade model.Trade, event model.GameEvent) (string, bool) {
	bot, ok := s.registry.Find(botID)
	if !ok {
		return "", false
	}
	return s.commentary.Generate(bot, trade, event), true
}

// Metrics summarizes ledger contents for the admin surface.
func (s *Simulator) Metrics() map[string]any {
	total := s.ledger.Size()
	pending := len(s.ledger.Pending(0))
	return map[string]any{
		"bots":            s.registry.Size(),
		"total_trades":    total,
		"pending_trades":  pending,
		"resolved_trades": total - pending,
	}
}

func (s *Simulator) broadcast(channel, msgType string, data any) {
	if s.publish != nil {
		s.publish(channel, msgType, data)
	}
}

// tradePreview shapes a proposal like the trade it will become, for
// commentary rendering before the ledger assigns identity.
func tradePreview(p model.Proposal) model.Trade {
	return model.Trade{
		BotID:  p.BotID,
		Market: p.Market,
		Action: p.Action,
		Stake:  p.Stake,
		Odds:   p.Odds,
	}
}
