package taxonomy

import (
	"regexp"
	"strconv"
	"strings"

	"moment-machine/internal/model"
)

// kindInfo fixes the priority and trade eligibility of each event kind.
type kindInfo struct {
	priority    int
	significant bool
}

var kinds = map[model.EventKind]kindInfo{
	model.KindTouchdown:    {10, true},
	model.KindSafety:       {9, true},
	model.KindTwoPoint:     {8, true},
	model.KindFieldGoal:    {7, true},
	model.KindInterception: {6, true},
	model.KindFumble:       {6, true},
	model.KindSack:         {5, true},
	model.KindBigPlay:      {5, true},
	model.KindGameEnd:      {4, true},
	model.KindGameStart:    {3, true},
	model.KindHalftime:     {2, false},
	model.KindPunt:         {2, false},
	model.KindKickoff:      {1, false},
	model.KindPlay:         {1, false},
}

// bigPlayYards is the yardage threshold above which a plain gain
// counts as a big play.
const bigPlayYards = 20

var yardageRe = regexp.MustCompile(`(\d+)[- ]yard`)

// Classify maps raw play-by-play text to an event kind. First matching
// rule wins; anything unmatched is a generic PLAY. Total over all strings.
func Classify(raw string) model.EventKind {
	s := strings.ToLower(raw)
	switch {
	case strings.Contains(s, "touchdown"):
		return model.KindTouchdown
	case strings.Contains(s, "field goal"):
		return model.KindFieldGoal
	case strings.Contains(s, "intercept"):
		return model.KindInterception
	case strings.Contains(s, "fumble"):
		return model.KindFumble
	case strings.Contains(s, "safety"):
		return model.KindSafety
	case strings.Contains(s, "sack"):
		return model.KindSack
	case strings.Contains(s, "two-point") || strings.Contains(s, "two point"):
		return model.KindTwoPoint
	case strings.Contains(s, "halftime"):
		return model.KindHalftime
	case strings.Contains(s, "punt"):
		return model.KindPunt
	case strings.Contains(s, "kickoff") && strings.Contains(s, "game"):
		return model.KindGameStart
	case strings.Contains(s, "kickoff"):
		return model.KindKickoff
	case strings.Contains(s, "final") || strings.Contains(s, "game over"):
		return model.KindGameEnd
	}
	if m := yardageRe.FindStringSubmatch(s); m != nil {
		if yards, err := strconv.Atoi(m[1]); err == nil && yards >= bigPlayYards {
			return model.KindBigPlay
		}
	}
	return model.KindPlay
}

// Significant reports whether a kind is eligible to trigger trades.
func Significant(kind model.EventKind) bool {
	return kinds[kind].significant
}

// Priority returns the kind's fixed priority, 10 down to 1.
// Unknown kinds rank lowest.
func Priority(kind model.EventKind) int {
	info, ok := kinds[kind]
	if !ok {
		return 1
	}
	return info.priority
}
