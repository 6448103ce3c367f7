package lobby

import (
	"context"

	"github.com/kd9gek/bpq-chess/internal/record"
)

// State classifies a game identifier for listing purposes.
type State int

const (
	// StateAbsent covers missing or inconsistent record triples; such
	// games are not listed at all.
	StateAbsent State = iota
	// StateOpen means exactly one player has registered.
	StateOpen
	// StateFull means the game is in progress with both slots taken.
	StateFull
)

// Directory enumerates sessions straight off the storage namespace. There
// is no cache: every call reflects a fresh scan, O(number of sessions).
type Directory struct {
	records record.Store
}

func NewDirectory(records record.Store) *Directory {
	return &Directory{records: records}
}

// Enumerate returns every game identifier with a players record.
func (d *Directory) Enumerate(ctx context.Context) ([]string, error) {
	return d.records.ListGames(ctx)
}

// Classify reads the roster for one identifier.
func (d *Directory) Classify(ctx context.Context, gameID string) (State, error) {
	text, ok, err := d.records.Get(ctx, gameID, record.KindPlayers)
	if err != nil {
		return StateAbsent, err
	}
	if !ok {
		return StateAbsent, nil
	}
	switch len(record.ParseRoster(text)) {
	case 1:
		return StateOpen, nil
	case 2:
		return StateFull, nil
	default:
		return StateAbsent, nil
	}
}

// Open lists games waiting for a second player.
func (d *Directory) Open(ctx context.Context) ([]string, error) {
	ids, err := d.Enumerate(ctx)
	if err != nil {
		return nil, err
	}
	var open []string
	for _, id := range ids {
		state, err := d.Classify(ctx, id)
		if err != nil {
			continue // snapshot is best-effort
		}
		if state == StateOpen {
			open = append(open, id)
		}
	}
	return open, nil
}
