package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/kd9gek/bpq-chess/internal/board"
	"github.com/kd9gek/bpq-chess/internal/lobby"
	"github.com/kd9gek/bpq-chess/internal/msgcat"
	"github.com/kd9gek/bpq-chess/internal/session"
)

// Console is the interactive front-end, run as a BBS door: one connected
// user, one short session. It joins (or opens) a game, shows the board and
// takes at most one accepted move before exiting; opponents play their
// replies in their own sessions, possibly days later.
type Console struct {
	store *session.Store
	dir   *lobby.Directory
	cat   *msgcat.Catalog
	in    *bufio.Scanner
	out   io.Writer
	log   *zap.Logger
}

func New(store *session.Store, dir *lobby.Directory, cat *msgcat.Catalog, in io.Reader, out io.Writer, log *zap.Logger) *Console {
	if log == nil {
		log = zap.NewNop()
	}
	return &Console{
		store: store,
		dir:   dir,
		cat:   cat,
		in:    bufio.NewScanner(in),
		out:   out,
		log:   log,
	}
}

func (c *Console) Run(ctx context.Context) error {
	c.println(c.cat.Line("console.welcome"))

	callsign := strings.ToUpper(c.prompt(c.cat.Line("console.prompt_callsign")))
	if callsign == "" {
		return nil
	}

	if open, err := c.dir.Open(ctx); err == nil && len(open) > 0 {
		line, rerr := c.cat.Render("console.open_games", map[string]string{"Games": strings.Join(open, ", ")})
		if rerr == nil {
			c.println(line)
		}
	}

	gameID := c.prompt(c.cat.Line("console.prompt_game_id"))
	if gameID == "" {
		return nil
	}

	slot, _, err := c.store.AssignPlayer(ctx, gameID, callsign)
	if errors.Is(err, session.ErrRosterFull) {
		c.println(c.cat.Line("console.roster_full"))
		return nil
	}
	if err != nil {
		return err
	}
	c.log.Info("door_session",
		zap.String("game_id", gameID),
		zap.String("callsign", callsign),
		zap.String("slot", string(slot)),
	)

	turn, err := c.store.CurrentTurn(ctx, gameID)
	if err != nil {
		return err
	}
	if turn != slot {
		c.printKey("console.wait_turn", map[string]string{"Turn": title(string(turn))})
		return nil
	}

	for {
		pos, err := c.store.CurrentPosition(ctx, gameID)
		if err != nil {
			return err
		}
		c.println(board.Render(pos))
		c.println(c.cat.Line("board.howto"))

		move := strings.ToLower(c.prompt(c.renderKey("console.prompt_move", map[string]string{"Color": title(string(slot))})))
		switch move {
		case "":
			continue
		case "quit":
			c.println(c.cat.Line("console.quit_saved"))
			return nil
		case "resign":
			if _, err := c.store.Resign(ctx, gameID, callsign); err != nil {
				return err
			}
			c.printKey("console.resigned", map[string]string{"Color": title(string(slot))})
			return nil
		}

		res, err := c.store.SubmitMove(ctx, gameID, callsign, move)
		switch {
		case errors.Is(err, session.ErrMalformedMove):
			c.println(c.cat.Line("console.move_malformed"))
			continue
		case errors.Is(err, session.ErrIllegalMove):
			c.println(c.cat.Line("console.move_illegal"))
			continue
		case errors.Is(err, session.ErrWaitingForOpponent):
			c.println(c.cat.Line("console.waiting_opponent"))
			return nil
		case errors.Is(err, session.ErrNotYourTurn):
			c.printKey("console.wait_turn", map[string]string{"Turn": title(string(slot.Other()))})
			return nil
		case err != nil:
			return err
		}

		if res.Finished {
			c.printKey("console.finished", map[string]string{"Result": res.Result, "Method": res.Method})
			return nil
		}
		c.printKey("console.move_accepted", map[string]string{"Move": move, "Turn": title(string(res.Turn))})
		return nil
	}
}

func (c *Console) prompt(text string) string {
	fmt.Fprint(c.out, text)
	if !c.in.Scan() {
		return ""
	}
	return strings.TrimSpace(c.in.Text())
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.out, s)
}

func (c *Console) renderKey(key string, data map[string]string) string {
	out, err := c.cat.Render(key, data)
	if err != nil {
		return ""
	}
	return out
}

func (c *Console) printKey(key string, data map[string]string) {
	c.println(c.renderKey(key, data))
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
