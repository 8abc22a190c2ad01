package email

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/mrz1836/postmark"
)

// PostmarkAPI is the subset of *postmark.Client used by PostmarkClient.
type PostmarkAPI interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
	GetCurrentServer(ctx context.Context) (postmark.Server, error)
}

// PostmarkClient sends email through Postmark's transactional API.
type PostmarkClient struct {
	client PostmarkAPI
	config Config
}

// PostmarkOption configures PostmarkClient.
type PostmarkOption func(*PostmarkClient)

// WithPostmarkAPI replaces the client built from the config. Useful for tests.
func WithPostmarkAPI(api PostmarkAPI) PostmarkOption {
	return func(c *PostmarkClient) {
		c.client = api
	}
}

// NewPostmarkClient creates a Postmark-backed email sender.
// Both tokens are required.
func NewPostmarkClient(cfg Config, opts ...PostmarkOption) (*PostmarkClient, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	if cfg.PostmarkAccountToken == "" {
		return nil, fmt.Errorf("%w: PostmarkAccountToken is required", ErrInvalidConfig)
	}
	if err := validateSender(cfg); err != nil {
		return nil, err
	}

	c := &PostmarkClient{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		config: cfg,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// MustNewPostmarkClient creates a Postmark client that panics on invalid config.
func MustNewPostmarkClient(cfg Config, opts ...PostmarkOption) *PostmarkClient {
	client, err := NewPostmarkClient(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return client
}

// SendEmail implements Sender using Postmark's transactional API.
// Tracking is enabled for opens and HTML link clicks only.
func (c *PostmarkClient) SendEmail(ctx context.Context, msg Message) (Receipt, error) {
	if err := msg.Validate(); err != nil {
		return Receipt{}, err
	}

	from, replyTo := senderDefaults(c.config, msg)
	resp, err := c.client.SendEmail(ctx, postmark.Email{
		From:       from,
		ReplyTo:    replyTo,
		To:         msg.To.String(),
		Cc:         msg.Cc.String(),
		Bcc:        msg.Bcc.String(),
		Subject:    msg.Subject,
		Tag:        msg.Tag,
		HTMLBody:   msg.HTML,
		TextBody:   msg.Text,
		TrackOpens: msg.HTML != "",
		TrackLinks: "HtmlOnly",
	})
	if err != nil {
		return Receipt{}, errors.Join(ErrFailedToSendEmail, err)
	}
	if resp.ErrorCode > 0 {
		return Receipt{}, errors.Join(
			ErrFailedToSendEmail,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message),
		)
	}
	return Receipt{MessageID: resp.MessageID}, nil
}

// Verify fetches the server the token belongs to.
func (c *PostmarkClient) Verify(ctx context.Context) error {
	if _, err := c.client.GetCurrentServer(ctx); err != nil {
		return errors.Join(ErrVerifyFailed, err)
	}
	return nil
}

func validateSender(cfg Config) error {
	if cfg.SenderEmail == "" {
		return fmt.Errorf("%w: SenderEmail is required", ErrInvalidConfig)
	}
	if _, err := mail.ParseAddress(cfg.SenderEmail); err != nil {
		return fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	}
	if cfg.ReplyTo != "" {
		if _, err := mail.ParseAddress(cfg.ReplyTo); err != nil {
			return fmt.Errorf("%w: ReplyTo must be a valid email address", ErrInvalidConfig)
		}
	}
	return nil
}

func senderDefaults(cfg Config, msg Message) (from, replyTo string) {
	from, replyTo = msg.From, msg.ReplyTo
	if from == "" {
		from = cfg.SenderEmail
	}
	if replyTo == "" {
		replyTo = cfg.ReplyTo
	}
	return from, replyTo
}
