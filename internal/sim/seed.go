package sim

import (
	"log"
	"time"

	"github.com/google/uuid"
	"moment-machine/internal/model"
)

// demoPlays is a canned drive the demo replays so the leaderboard has
// something to show before the first live event arrives.
var demoPlays = []struct {
	desc string
	team string
	kind model.EventKind
}{
	{"Mahomes finds Kelce for a 12-yard TOUCHDOWN", "Chiefs", model.KindTouchdown},
	{"Allen pass INTERCEPTED at midfield", "Bills", model.KindInterception},
	{"Pacheco rips off a 34-yard gain", "Chiefs", model.KindBigPlay},
	{"Bass 44-yard field goal is good", "Bills", model.KindFieldGoal},
	{"Strip FUMBLE recovered by the defense", "Chiefs", model.KindFumble},
	{"Mahomes sacked for a loss of 9", "Chiefs", model.KindSack},
}

// SeedDemo replays the canned drive and settles the first batch.
// Idempotent; the bootstrap calls it exactly once, outside the
// request-handling path.
func (s *Simulator) SeedDemo() {
	s.seedOnce.Do(func() {
		placed := 0
		for i, play := range demoPlays {
			ev := model.GameEvent{
				ID:          uuid.New().String(),
				Kind:        play.kind,
				Description: play.desc,
				Team:        play.team,
				Quarter:     1 + i/3,
				Clock:       "12:00",
				Timestamp:   time.Now(),
				Confidence:  0.9,
			}
			placed += len(s.ReactToEvent(ev))
		}
		resolved := s.ResolvePendingTrades()
		log.Printf("[sim] demo seed: %d trades placed, %d resolved", placed, len(resolved))
	})
}
