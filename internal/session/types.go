package session

import (
	"strings"

	"github.com/kd9gek/bpq-chess/internal/rules"
)

// Slot identifies one of the two roster positions. The first callsign to
// register a game plays white and moves first.
type Slot string

const (
	SlotWhite Slot = "white"
	SlotBlack Slot = "black"
)

// Other returns the opposing slot.
func (s Slot) Other() Slot {
	if s == SlotWhite {
		return SlotBlack
	}
	return SlotWhite
}

func slotForIndex(i int) Slot {
	if i == 0 {
		return SlotWhite
	}
	return SlotBlack
}

// Session is the loaded triple for one game identifier.
type Session struct {
	GameID   string
	Position rules.Position
	Turn     Slot
	Roster   []string
}

// SlotOf returns the slot a callsign occupies, if any.
func (s *Session) SlotOf(playerID string) (Slot, bool) {
	id := strings.TrimSpace(playerID)
	for i, p := range s.Roster {
		if p == id {
			return slotForIndex(i), true
		}
	}
	return "", false
}

// PlayerIn returns the callsign occupying a slot, or "" when the slot is
// still open.
func (s *Session) PlayerIn(slot Slot) string {
	for i, p := range s.Roster {
		if slotForIndex(i) == slot {
			return p
		}
	}
	return ""
}

// Full reports whether both slots are taken.
func (s *Session) Full() bool { return len(s.Roster) >= 2 }

// MoveResult reports an accepted move.
type MoveResult struct {
	Position rules.Position
	Turn     Slot // side to move next; not meaningful once Finished
	Finished bool
	Result   string // PGN result token when Finished
	Method   string // "checkmate", "stalemate", ... when Finished
	Winner   string // winning callsign; "" on a draw
}

// EndResult reports a resignation.
type EndResult struct {
	WinnerSlot Slot
	Winner     string // winning callsign, when that slot is occupied
}
