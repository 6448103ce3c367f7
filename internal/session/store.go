package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kd9gek/bpq-chess/internal/archive"
	"github.com/kd9gek/bpq-chess/internal/record"
	"github.com/kd9gek/bpq-chess/internal/rules"
)

// Store owns the lifecycle of game sessions keyed by game identifier. All
// state lives in the shared record namespace; independent front-ends (the
// interactive door and the mail relay) each hold their own Store over the
// same namespace and coordinate only through it. Mutations run inside the
// per-game exclusive scope so two writers racing on one game serialize;
// different games never contend.
type Store struct {
	records record.Store
	rules   *rules.Engine
	codec   Codec
	repo    archive.Repository
	log     *zap.Logger
}

func NewStore(records record.Store, engine *rules.Engine, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		records: records,
		rules:   engine,
		codec:   Codec{Rules: engine},
		log:     log,
	}
}

// AttachArchive wires a repository for persisting final results. Optional;
// without it finished games are simply removed.
func (s *Store) AttachArchive(r archive.Repository) {
	if s != nil {
		s.repo = r
	}
}

// ResolveOrCreate loads the session triple. Absent records decode to their
// defaults, so referencing a fresh identifier yields a new game without
// writing anything; records materialize on the first mutation.
func (s *Store) ResolveOrCreate(ctx context.Context, gameID string) (*Session, error) {
	return s.load(ctx, gameID)
}

// AssignPlayer registers a callsign into the next open slot. Re-assigning a
// registered callsign returns its existing slot, so rejoining a game is
// idempotent.
func (s *Store) AssignPlayer(ctx context.Context, gameID, playerID string) (Slot, []string, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return "", nil, fmt.Errorf("%w: empty callsign", ErrUnknownPlayer)
	}
	release, err := s.records.Acquire(ctx, gameID)
	if err != nil {
		return "", nil, err
	}
	defer release()

	sess, err := s.load(ctx, gameID)
	if err != nil {
		return "", nil, err
	}
	if slot, ok := sess.SlotOf(playerID); ok {
		return slot, sess.Roster, nil
	}
	if sess.Full() {
		return "", nil, ErrRosterFull
	}
	roster := append(sess.Roster, playerID)
	if err := s.records.Put(ctx, gameID, record.KindPlayers, s.codec.EncodeRoster(roster)); err != nil {
		return "", nil, err
	}
	slot := slotForIndex(len(roster) - 1)
	s.log.Info("player_assigned",
		zap.String("game_id", gameID),
		zap.String("callsign", playerID),
		zap.String("slot", string(slot)),
	)
	return slot, roster, nil
}

// CurrentTurn reports which slot may submit the next move.
func (s *Store) CurrentTurn(ctx context.Context, gameID string) (Slot, error) {
	text, ok, err := s.records.Get(ctx, gameID, record.KindTurn)
	if err != nil {
		return "", err
	}
	if !ok {
		return SlotWhite, nil
	}
	return s.codec.DecodeTurn(text), nil
}

// CurrentPosition reports the current board state.
func (s *Store) CurrentPosition(ctx context.Context, gameID string) (rules.Position, error) {
	text, ok, err := s.records.Get(ctx, gameID, record.KindGame)
	if err != nil {
		return rules.Position{}, err
	}
	if !ok {
		return s.rules.Initial(), nil
	}
	pos, perr := s.codec.DecodePosition(text)
	if perr != nil {
		s.log.Warn("partial_record", zap.String("game_id", gameID), zap.Error(perr))
	}
	return pos, nil
}

// SubmitMove validates turn ownership, delegates legality to the rules
// engine and persists the new position together with the flipped turn. The
// two writes happen inside the exclusive scope, so no other writer can
// observe the new position paired with the old turn.
func (s *Store) SubmitMove(ctx context.Context, gameID, playerID, moveText string) (*MoveResult, error) {
	release, err := s.records.Acquire(ctx, gameID)
	if err != nil {
		return nil, err
	}
	defer release()

	sess, err := s.load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	slot, ok := sess.SlotOf(playerID)
	if !ok {
		return nil, ErrUnknownPlayer
	}
	if !sess.Full() {
		return nil, ErrWaitingForOpponent
	}
	if slot != sess.Turn {
		return nil, ErrNotYourTurn
	}

	move, err := s.rules.ParseMove(sess.Position, moveText)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMove, err)
	}
	next, err := s.rules.Apply(sess.Position, move)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrIllegalMove, move.UCI())
	}

	result, method := s.rules.Outcome(next)
	if result != rules.NoOutcome {
		// The board itself ended the game: archive and clear the records,
		// same as a resignation.
		winner := ""
		switch result {
		case rules.WhiteWon:
			winner = sess.PlayerIn(SlotWhite)
		case rules.BlackWon:
			winner = sess.PlayerIn(SlotBlack)
		}
		s.archiveResult(ctx, sess, next, result, method)
		if err := s.records.Delete(ctx, gameID, record.Kinds...); err != nil {
			return nil, err
		}
		s.log.Info("game_finished",
			zap.String("game_id", gameID),
			zap.String("result", result),
			zap.String("method", method),
			zap.String("winner", winner),
		)
		return &MoveResult{
			Position: next,
			Finished: true,
			Result:   result,
			Method:   method,
			Winner:   winner,
		}, nil
	}

	newTurn := slot.Other()
	if err := s.records.Put(ctx, gameID, record.KindGame, s.codec.EncodePosition(next)); err != nil {
		return nil, err
	}
	if err := s.records.Put(ctx, gameID, record.KindTurn, s.codec.EncodeTurn(newTurn)); err != nil {
		return nil, err
	}
	s.log.Info("move_applied",
		zap.String("game_id", gameID),
		zap.String("callsign", strings.TrimSpace(playerID)),
		zap.String("move", move.UCI()),
		zap.String("next_turn", string(newTurn)),
	)
	return &MoveResult{Position: next, Turn: newTurn}, nil
}

// Resign ends the game in favor of the opposing slot and removes all three
// records. A later ResolveOrCreate on the same identifier starts a brand
// new game.
func (s *Store) Resign(ctx context.Context, gameID, playerID string) (*EndResult, error) {
	release, err := s.records.Acquire(ctx, gameID)
	if err != nil {
		return nil, err
	}
	defer release()

	sess, err := s.load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	slot, ok := sess.SlotOf(playerID)
	if !ok {
		return nil, ErrUnknownPlayer
	}
	winnerSlot := slot.Other()
	result := rules.BlackWon
	if winnerSlot == SlotWhite {
		result = rules.WhiteWon
	}
	s.archiveResult(ctx, sess, sess.Position, result, "resignation")
	if err := s.records.Delete(ctx, gameID, record.Kinds...); err != nil {
		return nil, err
	}
	s.log.Info("game_resigned",
		zap.String("game_id", gameID),
		zap.String("resigner", strings.TrimSpace(playerID)),
		zap.String("winner_slot", string(winnerSlot)),
	)
	return &EndResult{WinnerSlot: winnerSlot, Winner: sess.PlayerIn(winnerSlot)}, nil
}

// ListOpenGames enumerates identifiers with exactly one registered player.
func (s *Store) ListOpenGames(ctx context.Context) ([]string, error) {
	ids, err := s.records.ListGames(ctx)
	if err != nil {
		return nil, err
	}
	var open []string
	for _, id := range ids {
		text, ok, err := s.records.Get(ctx, id, record.KindPlayers)
		if err != nil || !ok {
			continue // vanished between scan and read
		}
		if len(s.codec.DecodeRoster(text)) == 1 {
			open = append(open, id)
		}
	}
	return open, nil
}

// load reads the session triple, substituting defaults for absent records
// and logging (not failing) on partial ones.
func (s *Store) load(ctx context.Context, gameID string) (*Session, error) {
	sess := &Session{
		GameID:   gameID,
		Position: s.rules.Initial(),
		Turn:     SlotWhite,
	}

	if text, ok, err := s.records.Get(ctx, gameID, record.KindGame); err != nil {
		return nil, err
	} else if ok {
		pos, perr := s.codec.DecodePosition(text)
		if perr != nil {
			s.log.Warn("partial_record", zap.String("game_id", gameID), zap.Error(perr))
		}
		sess.Position = pos
	}

	if text, ok, err := s.records.Get(ctx, gameID, record.KindTurn); err != nil {
		return nil, err
	} else if ok {
		sess.Turn = s.codec.DecodeTurn(text)
	}

	if text, ok, err := s.records.Get(ctx, gameID, record.KindPlayers); err != nil {
		return nil, err
	} else if ok {
		sess.Roster = s.codec.DecodeRoster(text)
	}

	return sess, nil
}

func (s *Store) archiveResult(ctx context.Context, sess *Session, final rules.Position, result, method string) {
	if s.repo == nil {
		return
	}
	res := &archive.Result{
		GameID:   sess.GameID,
		White:    sess.PlayerIn(SlotWhite),
		Black:    sess.PlayerIn(SlotBlack),
		Result:   result,
		Method:   method,
		FinalFEN: s.rules.Encode(final),
		EndedAt:  time.Now(),
	}
	if err := s.repo.SaveResult(ctx, res); err != nil {
		s.log.Error("result_persist_error",
			zap.String("game_id", sess.GameID),
			zap.String("result", result),
			zap.Error(err),
		)
	}
}

// IsRetryable reports whether an error is one of the typed outcomes a
// front-end should surface to the player rather than abort on.
func IsRetryable(err error) bool {
	for _, target := range []error{
		ErrRosterFull, ErrUnknownPlayer, ErrNotYourTurn,
		ErrWaitingForOpponent, ErrMalformedMove, ErrIllegalMove,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
