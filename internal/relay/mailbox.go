package relay

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// BPQ mailbox filenames. The node's mail forwarder drops submitted moves
// into the inbound file and picks notification blocks up from the outbound
// one; this package never talks to the network itself.
const (
	inboundFile  = "chess_moves.txt"
	outboundFile = "outgoing_msgs.txt"
)

// Message is one inbound move submission: a mail line of the form
// "CHESS <gameID> <move> <sender>".
type Message struct {
	GameID string
	Move   string
	Sender string
}

// Mailbox is the file-exchange channel shared with the BPQ mail forwarder.
type Mailbox struct {
	dir string
}

func NewMailbox(dir string) (*Mailbox, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("mail directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	return &Mailbox{dir: dir}, nil
}

// Drain consumes the inbound file and returns its parsed messages, oldest
// first. The file is renamed aside before reading so a move is applied at
// most once even when polls overlap; a batch interrupted mid-processing is
// picked up again on the next call.
func (mb *Mailbox) Drain() ([]Message, error) {
	in := filepath.Join(mb.dir, inboundFile)
	work := in + ".processing"

	if _, err := os.Stat(work); err == nil {
		// Leftover batch from an interrupted run. Renaming over it would
		// drop those moves, so fold any fresh mail into it instead.
		if err := mergeInbound(work, in); err != nil {
			return nil, err
		}
	} else if err := os.Rename(in, work); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("claim inbound mail: %w", err)
		}
		return nil, nil // nothing submitted
	}

	raw, err := os.ReadFile(work)
	if err != nil {
		return nil, fmt.Errorf("read inbound mail: %w", err)
	}
	var msgs []Message
	for _, line := range strings.Split(string(raw), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 4 && fields[0] == "CHESS" {
			msgs = append(msgs, Message{GameID: fields[1], Move: fields[2], Sender: fields[3]})
		}
	}
	if err := os.Remove(work); err != nil {
		return msgs, fmt.Errorf("clear inbound mail: %w", err)
	}
	return msgs, nil
}

// mergeInbound appends fresh inbound mail to the leftover work file, old
// batch first so submission order survives the restart.
func mergeInbound(work, in string) error {
	raw, err := os.ReadFile(in)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read inbound mail: %w", err)
	}
	f, err := os.OpenFile(work, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("merge inbound mail: %w", err)
	}
	if _, err := f.WriteString("\n" + string(raw)); err != nil {
		f.Close()
		return fmt.Errorf("merge inbound mail: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("merge inbound mail: %w", err)
	}
	if err := os.Remove(in); err != nil {
		return fmt.Errorf("clear inbound mail: %w", err)
	}
	return nil
}

// Send appends one notification block to the outbound file in the To/
// Subject format the BPQ forwarder expects.
func (mb *Mailbox) Send(recipient, subject, body string) error {
	path := filepath.Join(mb.dir, outboundFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open outbound mail: %w", err)
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "Message-Id: <%s@bpq-chess>\nTo: %s\nSubject: %s\n\n%s\n\n",
		uuid.NewString(), recipient, subject, body)
	if err != nil {
		return fmt.Errorf("append outbound mail: %w", err)
	}
	return nil
}
