package email

import (
	"context"
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"
)

// Sender delivers a single message through a provider.
type Sender interface {
	SendEmail(ctx context.Context, msg Message) (Receipt, error)
}

// Verifier checks that the provider credentials and configuration are usable.
type Verifier interface {
	Verify(ctx context.Context) error
}

// Message is a provider-agnostic outbound email.
// From and ReplyTo fall back to the sender defaults when empty.
type Message struct {
	To      AddressList `json:"to"`
	Cc      AddressList `json:"cc,omitempty"`
	Bcc     AddressList `json:"bcc,omitempty"`
	Subject string      `json:"subject"`
	Text    string      `json:"text,omitempty"`
	HTML    string      `json:"html,omitempty"`
	ReplyTo string      `json:"replyTo,omitempty"`
	From    string      `json:"from,omitempty"`
	Tag     string      `json:"tag,omitempty"`
}

// Receipt is returned for an accepted message.
type Receipt struct {
	MessageID string `json:"messageId"`
}

// Validate checks that the message has recipients, a subject and a body,
// and that every address parses.
func (m Message) Validate() error {
	if len(m.To) == 0 {
		return fmt.Errorf("%w: to is required", ErrInvalidMessage)
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidMessage)
	}
	if m.Text == "" && m.HTML == "" {
		return fmt.Errorf("%w: text or html is required", ErrInvalidMessage)
	}

	for _, list := range []AddressList{m.To, m.Cc, m.Bcc} {
		for _, addr := range list {
			if _, err := mail.ParseAddress(addr); err != nil {
				return fmt.Errorf("%w: invalid address %q", ErrInvalidMessage, addr)
			}
		}
	}
	for _, addr := range []string{m.From, m.ReplyTo} {
		if addr == "" {
			continue
		}
		if _, err := mail.ParseAddress(addr); err != nil {
			return fmt.Errorf("%w: invalid address %q", ErrInvalidMessage, addr)
		}
	}
	return nil
}

// AddressList is a list of addresses that decodes from either a JSON string
// or an array of strings.
type AddressList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *AddressList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*l = nil
			return nil
		}
		*l = AddressList{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("address list must be a string or an array of strings: %w", err)
	}
	*l = many
	return nil
}

// String joins the addresses with ", ".
func (l AddressList) String() string {
	return strings.Join(l, ", ")
}
