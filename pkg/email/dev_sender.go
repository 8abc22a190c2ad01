package email

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DevSender implements Sender for local development.
// It saves emails as HTML (or text) and JSON files to a specified directory
// instead of sending them through an email service.
type DevSender struct {
	dir    string
	config Config
	now    func() time.Time
}

// NewDevSender creates a development email sender that saves emails to cfg.DevDir.
// The directory will be created if it doesn't exist.
func NewDevSender(cfg Config) *DevSender {
	return &DevSender{dir: cfg.DevDir, config: cfg, now: time.Now}
}

// emailMetadata contains the email data saved to JSON (excluding the body).
type emailMetadata struct {
	MessageID string   `json:"message_id"`
	Timestamp string   `json:"timestamp"`
	From      string   `json:"from"`
	ReplyTo   string   `json:"reply_to,omitempty"`
	To        []string `json:"to"`
	Cc        []string `json:"cc,omitempty"`
	Bcc       []string `json:"bcc,omitempty"`
	Subject   string   `json:"subject"`
	Tag       string   `json:"tag,omitempty"`
	BodyFile  string   `json:"body_file"`
}

// SendEmail saves the body and metadata to the configured directory.
func (d *DevSender) SendEmail(ctx context.Context, msg Message) (Receipt, error) {
	if err := msg.Validate(); err != nil {
		return Receipt{}, err
	}

	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return Receipt{}, fmt.Errorf("%w: failed to create directory: %v", ErrFailedToSendEmail, err)
	}

	now := d.now()
	messageID := uuid.NewString()

	// Use tag if available, otherwise use subject
	identifier := msg.Tag
	if identifier == "" {
		identifier = msg.Subject
	}
	baseFilename := fmt.Sprintf("%s_%s_%s", now.Format("2006_01_02_150405"), sanitizeFilename(identifier), messageID[:8])

	body, ext := msg.HTML, ".html"
	if body == "" {
		body, ext = msg.Text, ".txt"
	}
	bodyPath := filepath.Join(d.dir, baseFilename+ext)
	if err := os.WriteFile(bodyPath, []byte(body), 0644); err != nil {
		return Receipt{}, fmt.Errorf("%w: failed to write body file: %v", ErrFailedToSendEmail, err)
	}

	from, replyTo := senderDefaults(d.config, msg)
	metadata := emailMetadata{
		MessageID: messageID,
		Timestamp: now.Format(time.RFC3339),
		From:      from,
		ReplyTo:   replyTo,
		To:        msg.To,
		Cc:        msg.Cc,
		Bcc:       msg.Bcc,
		Subject:   msg.Subject,
		Tag:       msg.Tag,
		BodyFile:  filepath.Base(bodyPath),
	}

	jsonData, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: failed to marshal metadata: %v", ErrFailedToSendEmail, err)
	}

	jsonPath := filepath.Join(d.dir, baseFilename+".json")
	if err := os.WriteFile(jsonPath, jsonData, 0644); err != nil {
		return Receipt{}, fmt.Errorf("%w: failed to write JSON file: %v", ErrFailedToSendEmail, err)
	}

	return Receipt{MessageID: messageID}, nil
}

// Verify checks that the output directory can be created.
func (d *DevSender) Verify(ctx context.Context) error {
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return fmt.Errorf("%w: %v", ErrVerifyFailed, err)
	}
	return nil
}

// sanitizeRegex matches characters that are not alphanumeric, dash, underscore, or dot
var sanitizeRegex = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// sanitizeFilename converts a string into a safe filename.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = sanitizeRegex.ReplaceAllString(s, "")

	const maxLength = 100
	if len(s) > maxLength {
		s = s[:maxLength]
	}

	if s == "" {
		s = "email"
	}

	return strings.ToLower(s)
}
