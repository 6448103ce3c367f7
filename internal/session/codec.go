package session

import (
	"fmt"
	"strings"

	"github.com/kd9gek/bpq-chess/internal/record"
	"github.com/kd9gek/bpq-chess/internal/rules"
)

// Codec maps the three per-game records to and from their on-disk text.
// Absent or unparsable input decodes to the documented defaults: initial
// position, white to move, empty roster. Structural correctness of the
// position text is the rules engine's business.
type Codec struct {
	Rules *rules.Engine
}

func (c Codec) EncodePosition(p rules.Position) string {
	return c.Rules.Encode(p)
}

// DecodePosition always returns a usable position. When the stored text
// fails to parse the initial position is returned together with
// ErrPartialRecord so the caller can log the substitution.
func (c Codec) DecodePosition(text string) (rules.Position, error) {
	p, err := c.Rules.Decode(text)
	if err != nil {
		return c.Rules.Initial(), fmt.Errorf("%w: position: %v", ErrPartialRecord, err)
	}
	return p, nil
}

func (c Codec) EncodeTurn(s Slot) string { return string(s) }

// DecodeTurn defaults to white for missing or unrecognized tokens.
func (c Codec) DecodeTurn(text string) Slot {
	if strings.EqualFold(strings.TrimSpace(text), string(SlotBlack)) {
		return SlotBlack
	}
	return SlotWhite
}

func (c Codec) EncodeRoster(roster []string) string {
	return strings.Join(roster, "\n")
}

// DecodeRoster returns the registered callsigns in slot order. Duplicate
// enforcement belongs to the store.
func (c Codec) DecodeRoster(text string) []string {
	return record.ParseRoster(text)
}
