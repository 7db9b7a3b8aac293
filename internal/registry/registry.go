package registry

import "moment-machine/internal/model"

// Registry is the fixed catalog of brand bots. It is built once at
// process start and read-only afterwards, so concurrent readers are safe
// without locking.
type Registry struct {
	bots  []model.Bot
	index map[string]int
}

// New builds a registry from an ordered bot list. Later duplicates of
// an id are ignored.
func New(bots []model.Bot) *Registry {
	r := &Registry{index: make(map[string]int)}
	for _, b := range bots {
		if _, exists := r.index[b.ID]; exists {
			continue
		}
		r.index[b.ID] = len(r.bots)
		r.bots = append(r.bots, b)
	}
	return r
}

// Default returns the registry used by the demo: one bot per personality.
func Default() *Registry {
	return New([]model.Bot{
		{
			ID: "bot-blaze", Name: "Blaze", Brand: "Inferno Energy",
			Avatar: "🔥", Color: "#ff4d29", Personality: model.Aggressive,
			Tagline: "Full send, every snap.",
		},
		{
			ID: "bot-ledger", Name: "Ledger", Brand: "Granite Mutual",
			Avatar: "🏦", Color: "#3b6ea5", Personality: model.Conservative,
			Tagline: "Slow money is still money.",
		},
		{
			ID: "bot-fade", Name: "Fade", Brand: "Undertow Apparel",
			Avatar: "🌊", Color: "#15b0a5", Personality: model.Contrarian,
			Tagline: "The crowd is the exit liquidity.",
		},
		{
			ID: "bot-surge", Name: "Surge", Brand: "Voltway Scooters",
			Avatar: "⚡", Color: "#f4b400", Personality: model.Momentum,
			Tagline: "Ride the wave till it breaks.",
		},
	})
}

// Find looks a bot up by id.
func (r *Registry) Find(id string) (model.Bot, bool) {
	i, ok := r.index[id]
	if !ok {
		return model.Bot{}, false
	}
	return r.bots[i], true
}

// Bots returns the bots in registry order. The returned slice is a copy.
func (r *Registry) Bots() []model.Bot {
	out := make([]model.Bot, len(r.bots))
	copy(out, r.bots)
	return out
}

func (r *Registry) Size() int { return len(r.bots) }
