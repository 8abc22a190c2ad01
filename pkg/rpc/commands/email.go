package commands

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/integrations/pkg/email"
	"github.com/dmitrymomot/integrations/pkg/logger"
	"github.com/dmitrymomot/integrations/pkg/rpc"
)

// SendEmailRequest is the payload of email.send. To, Cc and Bcc accept a
// single address or a list.
type SendEmailRequest struct {
	To      email.AddressList `json:"to" validate:"required,min=1"`
	Subject string            `json:"subject" validate:"required,max=998"`
	Text    string            `json:"text" validate:"required_without=HTML"`
	HTML    string            `json:"html"`
	Cc      email.AddressList `json:"cc"`
	Bcc     email.AddressList `json:"bcc"`
	ReplyTo string            `json:"replyTo"`
	From    string            `json:"from"`
	Tag     string            `json:"tag" validate:"max=100"`
}

// SendEmailResponse reports delivery. Provider failures are reported here
// rather than as an error envelope.
type SendEmailResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// VerifyResponse reports whether the provider configuration works.
type VerifyResponse struct {
	Success bool   `json:"success"`
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

func registerEmail(r *rpc.Router, deps Deps) {
	client := deps.Email
	log := deps.Logger

	r.Register("email.send", rpc.Handle(func(ctx context.Context, req SendEmailRequest) (SendEmailResponse, error) {
		receipt, err := client.SendEmail(ctx, req.message())
		if err != nil {
			log.ErrorContext(ctx, "failed to send email", logger.Error(err))
			return SendEmailResponse{Success: false, Error: err.Error()}, nil
		}
		log.InfoContext(ctx, "email sent",
			logger.MessageID(receipt.MessageID),
			slog.Int("recipients", len(req.To)+len(req.Cc)+len(req.Bcc)),
		)
		return SendEmailResponse{Success: true, MessageID: receipt.MessageID}, nil
	}))

	r.Register("email.verify", rpc.Handle(func(ctx context.Context, _ Empty) (VerifyResponse, error) {
		if err := client.Verify(ctx); err != nil {
			log.ErrorContext(ctx, "email provider verification failed", logger.Error(err))
			return VerifyResponse{Success: true, Valid: false, Message: "email provider configuration is invalid"}, nil
		}
		return VerifyResponse{Success: true, Valid: true, Message: "email provider configuration is valid"}, nil
	}))

	r.Register("email.health", health("email-service", deps.Now))
}

func (req SendEmailRequest) message() email.Message {
	return email.Message{
		To:      req.To,
		Cc:      req.Cc,
		Bcc:     req.Bcc,
		Subject: req.Subject,
		Text:    req.Text,
		HTML:    req.HTML,
		ReplyTo: req.ReplyTo,
		From:    req.From,
		Tag:     req.Tag,
	}
}
