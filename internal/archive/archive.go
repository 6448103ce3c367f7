package archive

import (
	"context"
	"time"
)

// Result is the final record of a completed game, written once when a game
// ends by checkmate, stalemate or resignation. Live game state never lives
// here; it stays in the shared record namespace until the game ends.
type Result struct {
	GameID   string
	White    string
	Black    string
	Result   string // PGN result token: 1-0, 0-1, 1/2-1/2
	Method   string // checkmate, stalemate, resignation, ...
	FinalFEN string
	EndedAt  time.Time
}

// Repository persists final results. SaveResult is an upsert keyed by game
// identifier so a retried ending does not duplicate rows.
type Repository interface {
	SaveResult(ctx context.Context, r *Result) error
}
