package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/smithy-go"
)

// SESAPI is the subset of *sesv2.Client used by SESSender.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
	GetAccount(ctx context.Context, params *sesv2.GetAccountInput, optFns ...func(*sesv2.Options)) (*sesv2.GetAccountOutput, error)
}

// SESSender sends email through Amazon SES v2.
type SESSender struct {
	client SESAPI
	config Config
}

// SESOption configures SESSender.
type SESOption func(*SESSender)

// WithSESAPI replaces the client built from the AWS default config. Useful for tests.
func WithSESAPI(api SESAPI) SESOption {
	return func(s *SESSender) {
		s.client = api
	}
}

// NewSESSender creates an SES-backed sender. Credentials come from the default
// AWS credential chain.
func NewSESSender(ctx context.Context, cfg Config, opts ...SESOption) (*SESSender, error) {
	if err := validateSender(cfg); err != nil {
		return nil, err
	}
	if cfg.SESRegion == "" {
		return nil, fmt.Errorf("%w: SESRegion is required", ErrInvalidConfig)
	}

	s := &SESSender{config: cfg}
	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.SESRegion))
		if err != nil {
			return nil, fmt.Errorf("%w: loading AWS config for SES: %v", ErrInvalidConfig, err)
		}
		s.client = sesv2.NewFromConfig(awsCfg)
	}
	return s, nil
}

// SendEmail implements Sender using the SES v2 simple content API.
func (s *SESSender) SendEmail(ctx context.Context, msg Message) (Receipt, error) {
	if err := msg.Validate(); err != nil {
		return Receipt{}, err
	}

	from, replyTo := senderDefaults(s.config, msg)

	body := &types.Body{}
	if msg.HTML != "" {
		body.Html = &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")}
	}
	if msg.Text != "" {
		body.Text = &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")}
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses:  msg.To,
			CcAddresses:  msg.Cc,
			BccAddresses: msg.Bcc,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body:    body,
			},
		},
	}
	if replyTo != "" {
		input.ReplyToAddresses = []string{replyTo}
	}
	if msg.Tag != "" {
		input.EmailTags = []types.MessageTag{{Name: aws.String("tag"), Value: aws.String(msg.Tag)}}
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return Receipt{}, errors.Join(ErrFailedToSendEmail, describeSESError(err))
	}
	return Receipt{MessageID: aws.ToString(out.MessageId)}, nil
}

// Verify checks that the account can send email.
func (s *SESSender) Verify(ctx context.Context) error {
	out, err := s.client.GetAccount(ctx, &sesv2.GetAccountInput{})
	if err != nil {
		return errors.Join(ErrVerifyFailed, describeSESError(err))
	}
	if !out.SendingEnabled {
		return fmt.Errorf("%w: sending is disabled for this account", ErrVerifyFailed)
	}
	return nil
}

func describeSESError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("ses error %s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return err
}
