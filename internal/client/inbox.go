package client

import (
	"sort"
	"sync"

	"github.com/framecast/framecast/internal/protocol"
)

// Inbox accumulates messages received from the relay until the
// application drains them. Text and event messages queue in arrival
// order. Snapshots represent full state, so only the latest snapshot
// per sender is kept.
type Inbox struct {
	mu        sync.Mutex
	texts     []protocol.Message
	events    []protocol.Message
	snapshots map[uint8]protocol.Message
}

// NewInbox creates an empty inbox.
func NewInbox() *Inbox {
	return &Inbox{
		snapshots: make(map[uint8]protocol.Message),
	}
}

// put files one received message under its kind.
func (in *Inbox) put(msg protocol.Message) {
	in.mu.Lock()
	defer in.mu.Unlock()
	switch msg.Kind {
	case protocol.KindText:
		in.texts = append(in.texts, msg)
	case protocol.KindEvent:
		in.events = append(in.events, msg)
	case protocol.KindSnapshot:
		in.snapshots[msg.Sender] = msg
	}
}

// Len returns the number of messages a Drain of the given kind would
// return right now.
func (in *Inbox) Len(kind protocol.Kind) int {
	in.mu.Lock()
	defer in.mu.Unlock()
	switch kind {
	case protocol.KindText:
		return len(in.texts)
	case protocol.KindEvent:
		return len(in.events)
	case protocol.KindSnapshot:
		return len(in.snapshots)
	default:
		return 0
	}
}

// Drain removes and returns the accumulated messages of one kind. Text
// and event messages come back in arrival order, snapshots come back as
// the latest snapshot per sender ordered by sender identifier.
func (in *Inbox) Drain(kind protocol.Kind) []protocol.Message {
	in.mu.Lock()
	defer in.mu.Unlock()
	switch kind {
	case protocol.KindText:
		msgs := in.texts
		in.texts = nil
		return msgs
	case protocol.KindEvent:
		msgs := in.events
		in.events = nil
		return msgs
	case protocol.KindSnapshot:
		if len(in.snapshots) == 0 {
			return nil
		}
		msgs := make([]protocol.Message, 0, len(in.snapshots))
		for _, msg := range in.snapshots {
			msgs = append(msgs, msg)
		}
		sort.Slice(msgs, func(i, j int) bool {
			return msgs[i].Sender < msgs[j].Sender
		})
		in.snapshots = make(map[uint8]protocol.Message)
		return msgs
	default:
		return nil
	}
}
