package record

import (
	"context"
	"errors"
	"strings"
)

// Kind names one of the three per-game records.
type Kind string

const (
	KindGame    Kind = "game"    // position, FEN text
	KindTurn    Kind = "turn"    // "white" or "black"
	KindPlayers Kind = "players" // roster, one callsign per line
)

// Kinds lists every record a game owns, in deletion order.
var Kinds = []Kind{KindGame, KindTurn, KindPlayers}

// ParseRoster splits a players record into callsigns, one per line, in slot
// order. Blank lines are dropped. Every reader of KindPlayers goes through
// this so listing and play never disagree on a roster.
func ParseRoster(text string) []string {
	var roster []string
	for _, line := range strings.Split(text, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			roster = append(roster, s)
		}
	}
	return roster
}

var (
	// ErrUnavailable wraps backend failures: the namespace itself could not
	// be read or written. Absent records are not errors.
	ErrUnavailable = errors.New("storage unavailable")

	// ErrLockBusy is returned when the per-game scope could not be taken
	// within the store's lock timeout.
	ErrLockBusy = errors.New("game is locked by another writer")

	// ErrBadGameID rejects identifiers the backend cannot key safely.
	ErrBadGameID = errors.New("invalid game identifier")
)

// Store is a keyed record store shared across uncoordinated processes. The
// game identifier is the locking granularity: Acquire serializes writers on
// one game without serializing unrelated games. Backends must be
// interchangeable under the same record defaults.
type Store interface {
	// Get returns the record text. ok is false when the record is absent,
	// which callers treat as the documented default value.
	Get(ctx context.Context, gameID string, kind Kind) (text string, ok bool, err error)

	// Put replaces the record text.
	Put(ctx context.Context, gameID string, kind Kind, text string) error

	// Delete removes the given records, ignoring ones already absent.
	Delete(ctx context.Context, gameID string, kinds ...Kind) error

	// ListGames enumerates identifiers that currently have a players
	// record. Best-effort snapshot; the set may change between calls.
	ListGames(ctx context.Context) ([]string, error)

	// Acquire takes the per-game exclusive scope, waiting up to the
	// store's lock timeout. The release func must run on every path.
	Acquire(ctx context.Context, gameID string) (release func(), err error)
}
