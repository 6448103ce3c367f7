package rules

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// Position is one board state, carried as its FEN text. Code outside this
// package treats it as an opaque value; two positions are equal iff their
// FEN strings are equal.
type Position struct {
	fen string
}

func (p Position) FEN() string { return p.fen }

// Move is a candidate move parsed against a specific position.
type Move struct {
	inner *nchess.Move
	uci   string
}

// UCI returns the move in coordinate notation, e.g. "e2e4".
func (m Move) UCI() string { return m.uci }

// Outcome tokens use the PGN result convention.
const (
	NoOutcome = "*"
	WhiteWon  = "1-0"
	BlackWon  = "0-1"
	Draw      = "1/2-1/2"
)

// Engine is the rules collaborator: it owns legality, position transitions
// and the FEN text encoding. The session store never inspects positions
// itself.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// Initial returns the standard starting position.
func (e *Engine) Initial() Position {
	return Position{fen: nchess.NewGame().FEN()}
}

// Decode parses stored position text. Empty input yields the initial
// position; that is part of the record contract, not an error.
func (e *Engine) Decode(text string) (Position, error) {
	fen := strings.TrimSpace(text)
	if fen == "" {
		return e.Initial(), nil
	}
	if _, err := gameAt(fen); err != nil {
		return Position{}, err
	}
	return Position{fen: fen}, nil
}

// Encode serializes a position for storage.
func (e *Engine) Encode(p Position) string { return p.fen }

// ParseMove decodes UCI move text against a position. An error here means
// the text is malformed, not that the move is illegal.
func (e *Engine) ParseMove(p Position, text string) (Move, error) {
	uci := strings.ToLower(strings.TrimSpace(text))
	if uci == "" {
		return Move{}, fmt.Errorf("empty move")
	}
	game, err := gameAt(p.fen)
	if err != nil {
		return Move{}, err
	}
	mv, err := nchess.UCINotation{}.Decode(game.Position(), uci)
	if err != nil {
		return Move{}, fmt.Errorf("decode move %q: %w", uci, err)
	}
	return Move{inner: mv, uci: uci}, nil
}

// Apply plays the move and returns the resulting position. An error means
// the move is not legal in p; p itself is never modified.
func (e *Engine) Apply(p Position, m Move) (Position, error) {
	game, err := gameAt(p.fen)
	if err != nil {
		return Position{}, err
	}
	if err := game.Move(m.inner, nil); err != nil {
		return Position{}, fmt.Errorf("move %s: %w", m.uci, err)
	}
	return Position{fen: game.FEN()}, nil
}

// Outcome reports whether the position ends the game. The result is one of
// the PGN tokens above; method is "checkmate" or "stalemate" when the game
// is over on the board, empty otherwise.
func (e *Engine) Outcome(p Position) (result, method string) {
	game, err := gameAt(p.fen)
	if err != nil {
		return NoOutcome, ""
	}
	switch game.Outcome() {
	case nchess.WhiteWon:
		return WhiteWon, methodToken(game.Method())
	case nchess.BlackWon:
		return BlackWon, methodToken(game.Method())
	case nchess.Draw:
		return Draw, methodToken(game.Method())
	default:
		return NoOutcome, ""
	}
}

func methodToken(m nchess.Method) string {
	switch m {
	case nchess.Checkmate:
		return "checkmate"
	case nchess.Stalemate:
		return "stalemate"
	case nchess.InsufficientMaterial:
		return "insufficient material"
	case nchess.FiftyMoveRule:
		return "fifty move rule"
	default:
		return "draw"
	}
}

func gameAt(fen string) (*nchess.Game, error) {
	if strings.TrimSpace(fen) == "" {
		return nchess.NewGame(), nil
	}
	opt, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("parse fen: %w", err)
	}
	return nchess.NewGame(opt), nil
}
