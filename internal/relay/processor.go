package relay

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kd9gek/bpq-chess/internal/board"
	"github.com/kd9gek/bpq-chess/internal/msgcat"
	"github.com/kd9gek/bpq-chess/internal/session"
)

// Processor is the asynchronous front-end: it drains submitted moves from
// the mailbox, applies them through the session store and mails the outcome
// back. It holds no game state of its own; a rejected message produces one
// notification to the sender and nothing else, so the next poll starts
// clean.
type Processor struct {
	store *session.Store
	box   *Mailbox
	cat   *msgcat.Catalog
	log   *zap.Logger
}

func NewProcessor(store *session.Store, box *Mailbox, cat *msgcat.Catalog, log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{store: store, box: box, cat: cat, log: log}
}

// Run polls the mailbox until the context ends.
func (p *Processor) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := p.RunOnce(ctx); err != nil {
			p.log.Error("relay_poll_error", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce drains and handles one batch. Storage failures abort the batch;
// per-message rejections are mailed to the submitter and do not stop the
// remaining messages.
func (p *Processor) RunOnce(ctx context.Context) error {
	msgs, err := p.box.Drain()
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	p.log.Info("relay_batch", zap.Int("messages", len(msgs)))
	for _, m := range msgs {
		if err := p.handle(ctx, m); err != nil {
			p.log.Error("relay_message_error",
				zap.String("game_id", m.GameID),
				zap.String("sender", m.Sender),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (p *Processor) handle(ctx context.Context, m Message) error {
	sess, err := p.store.ResolveOrCreate(ctx, m.GameID)
	if err != nil {
		return err
	}

	if strings.EqualFold(strings.TrimSpace(m.Move), "resign") {
		return p.handleResign(ctx, m, sess.Roster)
	}

	res, err := p.store.SubmitMove(ctx, m.GameID, m.Sender, m.Move)
	if err != nil {
		if session.IsRetryable(err) {
			return p.rejectToSender(m, err)
		}
		return err
	}

	if res.Finished {
		body, rerr := p.cat.Render("mail.finished", map[string]string{
			"GameID": m.GameID, "Result": res.Result, "Method": res.Method,
		})
		if rerr != nil {
			return rerr
		}
		subject, rerr := p.cat.Render("mail.subject_over", map[string]string{"GameID": m.GameID})
		if rerr != nil {
			return rerr
		}
		return p.notifyAll(sess.Roster, subject, body+board.Render(res.Position))
	}

	subject, rerr := p.cat.Render("mail.subject_update", map[string]string{"GameID": m.GameID})
	if rerr != nil {
		return rerr
	}
	body := board.Render(res.Position) + p.cat.Line("board.howto")
	return p.notifyAll(sess.Roster, subject, body)
}

func (p *Processor) handleResign(ctx context.Context, m Message, roster []string) error {
	end, err := p.store.Resign(ctx, m.GameID, m.Sender)
	if err != nil {
		if session.IsRetryable(err) {
			return p.rejectToSender(m, err)
		}
		return err
	}
	body, rerr := p.cat.Render("mail.resigned", map[string]string{
		"GameID": m.GameID, "Resigner": m.Sender, "Winner": end.Winner,
	})
	if rerr != nil {
		return rerr
	}
	subject, rerr := p.cat.Render("mail.subject_over", map[string]string{"GameID": m.GameID})
	if rerr != nil {
		return rerr
	}
	return p.notifyAll(roster, subject, body)
}

func (p *Processor) rejectToSender(m Message, cause error) error {
	body := p.cat.Line(rejectionKey(cause))
	if body == "" {
		body = cause.Error()
	}
	p.log.Info("relay_rejected",
		zap.String("game_id", m.GameID),
		zap.String("sender", m.Sender),
		zap.String("move", m.Move),
		zap.String("reason", cause.Error()),
	)
	return p.box.Send(m.Sender, p.cat.Line("mail.subject_error"), body)
}

func (p *Processor) notifyAll(roster []string, subject, body string) error {
	for _, callsign := range roster {
		if err := p.box.Send(callsign, subject, body); err != nil {
			return err
		}
	}
	return nil
}

func rejectionKey(err error) string {
	switch {
	case errors.Is(err, session.ErrUnknownPlayer):
		return "mail.unknown_player"
	case errors.Is(err, session.ErrNotYourTurn):
		return "mail.not_your_turn"
	case errors.Is(err, session.ErrWaitingForOpponent):
		return "mail.waiting_opponent"
	case errors.Is(err, session.ErrMalformedMove):
		return "mail.malformed"
	case errors.Is(err, session.ErrIllegalMove):
		return "mail.illegal"
	case errors.Is(err, session.ErrRosterFull):
		return "mail.roster_full"
	default:
		return ""
	}
}
