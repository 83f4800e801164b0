// Package recorder is a Messenger that keeps outbound messages in memory and
// logs them. It stands in for the WhatsApp client when MESSENGER=log and in
// tests that assert on what each party was told.
package recorder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"pharmadelivery/internal/core/ports"
)

type Kind string

const (
	KindText    Kind = "text"
	KindImage   Kind = "image"
	KindButtons Kind = "buttons"
)

// Message is one recorded outbound message.
type Message struct {
	ID       string
	To       string
	Kind     Kind
	Body     string
	MediaRef string
	Buttons  []ports.Button
}

type Messenger struct {
	logger *slog.Logger

	mu   sync.Mutex
	sent []Message
	fail map[string]error
}

var _ ports.Messenger = (*Messenger)(nil)

func NewMessenger(logger *slog.Logger) *Messenger {
	return &Messenger{
		logger: logger.With("component", "recorder_messenger"),
		fail:   make(map[string]error),
	}
}

func (m *Messenger) SendText(ctx context.Context, to, body string) (string, error) {
	return m.record(ctx, Message{To: to, Kind: KindText, Body: body})
}

func (m *Messenger) SendImage(ctx context.Context, to, mediaRef, caption string) (string, error) {
	return m.record(ctx, Message{To: to, Kind: KindImage, Body: caption, MediaRef: mediaRef})
}

func (m *Messenger) SendButtons(ctx context.Context, to, body string, buttons []ports.Button) (string, error) {
	if len(buttons) > ports.MaxButtons {
		return "", ports.ErrTooManyButtons
	}
	return m.record(ctx, Message{To: to, Kind: KindButtons, Body: body, Buttons: append([]ports.Button(nil), buttons...)})
}

// FailFor makes every send to recipient fail with err; a nil err clears it.
func (m *Messenger) FailFor(recipient string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, recipient)
		return
	}
	m.fail[recipient] = err
}

func (m *Messenger) record(ctx context.Context, msg Message) (string, error) {
	m.mu.Lock()
	if err, ok := m.fail[msg.To]; ok {
		m.mu.Unlock()
		return "", err
	}
	msg.ID = fmt.Sprintf("rec-%d", len(m.sent)+1)
	m.sent = append(m.sent, msg)
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "outbound message", "to", msg.To, "kind", string(msg.Kind), "body", msg.Body)
	return msg.ID, nil
}

// Sent returns every recorded message, oldest first.
func (m *Messenger) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}

// To returns the messages sent to recipient.
func (m *Messenger) To(recipient string) []Message {
	var out []Message
	for _, msg := range m.Sent() {
		if msg.To == recipient {
			out = append(out, msg)
		}
	}
	return out
}

// Last returns the latest message sent to recipient.
func (m *Messenger) Last(recipient string) (Message, bool) {
	msgs := m.To(recipient)
	if len(msgs) == 0 {
		return Message{}, false
	}
	return msgs[len(msgs)-1], true
}

// Received reports whether any message to recipient contains fragment.
func (m *Messenger) Received(recipient, fragment string) bool {
	for _, msg := range m.To(recipient) {
		if strings.Contains(msg.Body, fragment) {
			return true
		}
	}
	return false
}

// Reset drops recorded messages.
func (m *Messenger) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}
