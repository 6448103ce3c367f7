package relay

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kd9gek/bpq-chess/internal/archive"
	"github.com/kd9gek/bpq-chess/internal/msgcat"
	"github.com/kd9gek/bpq-chess/internal/record"
	"github.com/kd9gek/bpq-chess/internal/rules"
	"github.com/kd9gek/bpq-chess/internal/session"
)

type relayFixture struct {
	proc    *Processor
	store   *session.Store
	mailDir string
}

func newRelayFixture(t *testing.T) *relayFixture {
	t.Helper()
	fs, err := record.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	store := session.NewStore(fs, rules.NewEngine(), zap.NewNop())
	store.AttachArchive(archive.NewMemoryRepository())

	mailDir := t.TempDir()
	box, err := NewMailbox(mailDir)
	if err != nil {
		t.Fatalf("NewMailbox: %v", err)
	}
	cat, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat.New: %v", err)
	}
	return &relayFixture{
		proc:    NewProcessor(store, box, cat, zap.NewNop()),
		store:   store,
		mailDir: mailDir,
	}
}

func (f *relayFixture) submit(t *testing.T, lines ...string) {
	t.Helper()
	path := filepath.Join(f.mailDir, inboundFile)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write inbound: %v", err)
	}
}

func (f *relayFixture) outbound(t *testing.T) string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(f.mailDir, outboundFile))
	if os.IsNotExist(err) {
		return ""
	}
	if err != nil {
		t.Fatalf("read outbound: %v", err)
	}
	return string(raw)
}

func seatBoth(t *testing.T, store *session.Store, gameID string) {
	t.Helper()
	ctx := context.Background()
	if _, _, err := store.AssignPlayer(ctx, gameID, "KD9GEK"); err != nil {
		t.Fatalf("AssignPlayer: %v", err)
	}
	if _, _, err := store.AssignPlayer(ctx, gameID, "N0CALL"); err != nil {
		t.Fatalf("AssignPlayer: %v", err)
	}
}

func TestAcceptedMoveNotifiesBothPlayers(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()
	seatBoth(t, f.store, "G1")

	f.submit(t, "CHESS G1 e2e4 KD9GEK")
	if err := f.proc.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	out := f.outbound(t)
	if n := strings.Count(out, "Subject: CHESS UPDATE G1"); n != 2 {
		t.Fatalf("expected 2 update mails, got %d:\n%s", n, out)
	}
	for _, rcpt := range []string{"To: KD9GEK", "To: N0CALL"} {
		if !strings.Contains(out, rcpt) {
			t.Fatalf("missing %q in outbound:\n%s", rcpt, out)
		}
	}
	if !strings.Contains(out, "A   B   C   D   E   F   G   H") {
		t.Fatalf("update mail lacks the board:\n%s", out)
	}

	turn, err := f.store.CurrentTurn(ctx, "G1")
	if err != nil {
		t.Fatalf("CurrentTurn: %v", err)
	}
	if turn != session.SlotBlack {
		t.Fatalf("expected black to move, got %s", turn)
	}
}

func TestRejectionMailsOnlyTheSender(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()
	seatBoth(t, f.store, "G1")

	// Black submits out of turn.
	f.submit(t, "CHESS G1 e7e5 N0CALL")
	if err := f.proc.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	out := f.outbound(t)
	if n := strings.Count(out, "Subject: CHESS ERROR"); n != 1 {
		t.Fatalf("expected 1 error mail, got %d:\n%s", n, out)
	}
	if !strings.Contains(out, "To: N0CALL") || strings.Contains(out, "To: KD9GEK") {
		t.Fatalf("error mail misrouted:\n%s", out)
	}
	if !strings.Contains(out, "It's not your turn!") {
		t.Fatalf("missing rejection body:\n%s", out)
	}

	// The rejection left the game untouched.
	turn, err := f.store.CurrentTurn(ctx, "G1")
	if err != nil {
		t.Fatalf("CurrentTurn: %v", err)
	}
	if turn != session.SlotWhite {
		t.Fatalf("expected white to move, got %s", turn)
	}
}

func TestBatchIsAppliedAtMostOnce(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()
	seatBoth(t, f.store, "G1")

	f.submit(t, "CHESS G1 e2e4 KD9GEK")
	if err := f.proc.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	first := f.outbound(t)

	// A second poll with nothing submitted sends nothing and does not
	// re-apply the drained batch.
	if err := f.proc.RunOnce(ctx); err != nil {
		t.Fatalf("second RunOnce: %v", err)
	}
	if f.outbound(t) != first {
		t.Fatalf("second poll produced new mail")
	}
	if _, err := os.Stat(filepath.Join(f.mailDir, inboundFile)); !os.IsNotExist(err) {
		t.Fatalf("inbound file not drained")
	}
}

func TestMixedBatchProcessesIndependently(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()
	seatBoth(t, f.store, "G1")

	f.submit(t,
		"some unrelated mail line",
		"CHESS G1 banana KD9GEK",
		"CHESS G1 e2e4 KD9GEK",
	)
	if err := f.proc.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	out := f.outbound(t)
	if n := strings.Count(out, "Subject: CHESS ERROR"); n != 1 {
		t.Fatalf("expected 1 error mail, got %d:\n%s", n, out)
	}
	if n := strings.Count(out, "Subject: CHESS UPDATE G1"); n != 2 {
		t.Fatalf("expected the later legal move to land, got %d updates:\n%s", n, out)
	}
}

func TestResignByMail(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()
	seatBoth(t, f.store, "G1")

	f.submit(t, "CHESS G1 resign N0CALL")
	if err := f.proc.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	out := f.outbound(t)
	if n := strings.Count(out, "Subject: CHESS GAME OVER G1"); n != 2 {
		t.Fatalf("expected 2 game-over mails, got %d:\n%s", n, out)
	}
	if !strings.Contains(out, "N0CALL resigned game G1. KD9GEK wins.") {
		t.Fatalf("missing resignation body:\n%s", out)
	}

	// The records are cleared, so the identifier is free again.
	sess, err := f.store.ResolveOrCreate(ctx, "G1")
	if err != nil {
		t.Fatalf("ResolveOrCreate: %v", err)
	}
	if len(sess.Roster) != 0 {
		t.Fatalf("roster survived resignation: %v", sess.Roster)
	}
}

func TestEmptyMailboxIsQuiet(t *testing.T) {
	f := newRelayFixture(t)
	if err := f.proc.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce on empty mailbox: %v", err)
	}
	if f.outbound(t) != "" {
		t.Fatalf("unexpected outbound mail")
	}
}
