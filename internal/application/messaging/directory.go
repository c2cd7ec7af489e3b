package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrUnknownAgent means the recipient is not (or no longer) registered
	ErrUnknownAgent = errors.New("unknown agent")

	// ErrMailboxFull means the recipient's buffer is full; the sender treats
	// the agent as unreachable rather than blocking
	ErrMailboxFull = errors.New("mailbox full")

	// ErrReceiveTimeout means no message arrived within the receive window
	ErrReceiveTimeout = errors.New("receive timeout")
)

// Mailbox is an agent's buffered inbound queue. Channel ordering gives FIFO
// delivery per (sender, recipient) pair.
type Mailbox struct {
	ch chan Message
}

// Receive waits for the next message, the timeout, or context cancellation
func (m *Mailbox) Receive(ctx context.Context, timeout time.Duration) (Message, error) {
	select {
	case msg := <-m.ch:
		return msg, nil
	case <-time.After(timeout):
		return Message{}, ErrReceiveTimeout
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// TryReceive returns the next message without waiting
func (m *Mailbox) TryReceive() (Message, bool) {
	select {
	case msg := <-m.ch:
		return msg, true
	default:
		return Message{}, false
	}
}

// Directory routes messages between agents by id. It owns every mailbox;
// agents register at startup and deregister when they terminate.
type Directory struct {
	mu          sync.RWMutex
	mailboxes   map[string]*Mailbox
	mailboxSize int
}

// NewDirectory creates an empty directory with the given per-agent buffer size
func NewDirectory(mailboxSize int) *Directory {
	if mailboxSize < 1 {
		mailboxSize = 1
	}
	return &Directory{
		mailboxes:   make(map[string]*Mailbox),
		mailboxSize: mailboxSize,
	}
}

// Register creates a mailbox for the agent and returns it
func (d *Directory) Register(agentID string) (*Mailbox, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.mailboxes[agentID]; exists {
		return nil, fmt.Errorf("agent %s already registered", agentID)
	}
	box := &Mailbox{ch: make(chan Message, d.mailboxSize)}
	d.mailboxes[agentID] = box
	return box, nil
}

// Deregister removes the agent's mailbox. Later sends to it fail with
// ErrUnknownAgent. The channel is left open so in-flight sends cannot panic.
func (d *Directory) Deregister(agentID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.mailboxes, agentID)
}

// Send delivers a message to the recipient's mailbox without blocking
func (d *Directory) Send(msg Message) error {
	d.mu.RLock()
	box, ok := d.mailboxes[msg.Recipient]
	d.mu.RUnlock()

	if !ok {
		return fmt.Errorf("send to %s: %w", msg.Recipient, ErrUnknownAgent)
	}
	select {
	case box.ch <- msg:
		return nil
	default:
		return fmt.Errorf("send to %s: %w", msg.Recipient, ErrMailboxFull)
	}
}

// AgentIDs returns the currently registered agents
func (d *Directory) AgentIDs() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids := make([]string, 0, len(d.mailboxes))
	for id := range d.mailboxes {
		ids = append(ids, id)
	}
	return ids
}
