package relay

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDrainParsesSubmissions(t *testing.T) {
	dir := t.TempDir()
	mb, err := NewMailbox(dir)
	if err != nil {
		t.Fatalf("NewMailbox: %v", err)
	}
	raw := "CHESS G1 e2e4 KD9GEK\nnoise\nCHESS G2 resign N0CALL extra trailing\n"
	if err := os.WriteFile(filepath.Join(dir, inboundFile), []byte(raw), 0o644); err != nil {
		t.Fatalf("write inbound: %v", err)
	}

	msgs, err := mb.Drain()
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %v", msgs)
	}
	if msgs[0] != (Message{GameID: "G1", Move: "e2e4", Sender: "KD9GEK"}) {
		t.Fatalf("bad first message: %+v", msgs[0])
	}
	if msgs[1] != (Message{GameID: "G2", Move: "resign", Sender: "N0CALL"}) {
		t.Fatalf("bad second message: %+v", msgs[1])
	}
}

func TestDrainResumesInterruptedBatch(t *testing.T) {
	dir := t.TempDir()
	mb, err := NewMailbox(dir)
	if err != nil {
		t.Fatalf("NewMailbox: %v", err)
	}
	// A crash between rename and remove leaves the .processing file behind.
	work := filepath.Join(dir, inboundFile+".processing")
	if err := os.WriteFile(work, []byte("CHESS G1 e2e4 KD9GEK\n"), 0o644); err != nil {
		t.Fatalf("write work file: %v", err)
	}

	msgs, err := mb.Drain()
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(msgs) != 1 || msgs[0].GameID != "G1" {
		t.Fatalf("leftover batch not recovered: %v", msgs)
	}
	if _, err := os.Stat(work); !os.IsNotExist(err) {
		t.Fatalf("work file not cleaned up")
	}
}

func TestDrainMergesInterruptedBatchWithFreshMail(t *testing.T) {
	dir := t.TempDir()
	mb, err := NewMailbox(dir)
	if err != nil {
		t.Fatalf("NewMailbox: %v", err)
	}
	work := filepath.Join(dir, inboundFile+".processing")
	if err := os.WriteFile(work, []byte("CHESS G1 e2e4 KD9GEK\n"), 0o644); err != nil {
		t.Fatalf("write work file: %v", err)
	}
	// New mail arrived after the crash; it must not clobber the old batch.
	in := filepath.Join(dir, inboundFile)
	if err := os.WriteFile(in, []byte("CHESS G2 d2d4 N0CALL\n"), 0o644); err != nil {
		t.Fatalf("write inbound: %v", err)
	}

	msgs, err := mb.Drain()
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected both batches, got %v", msgs)
	}
	if msgs[0].GameID != "G1" || msgs[1].GameID != "G2" {
		t.Fatalf("batches out of order: %v", msgs)
	}
	for _, path := range []string{in, work} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("%s not cleaned up", path)
		}
	}

	again, err := mb.Drain()
	if err != nil {
		t.Fatalf("second Drain: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("batch redelivered: %v", again)
	}
}

func TestSendFormat(t *testing.T) {
	dir := t.TempDir()
	mb, err := NewMailbox(dir)
	if err != nil {
		t.Fatalf("NewMailbox: %v", err)
	}
	if err := mb.Send("KD9GEK", "CHESS UPDATE G1", "body text"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, outboundFile))
	if err != nil {
		t.Fatalf("read outbound: %v", err)
	}
	out := string(raw)
	for _, want := range []string{
		"Message-Id: <",
		"@bpq-chess>\n",
		"To: KD9GEK\n",
		"Subject: CHESS UPDATE G1\n\nbody text\n\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}
