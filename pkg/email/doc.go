// Package email sends transactional messages through a pluggable provider.
//
// Three drivers implement Sender and Verifier:
//   - PostmarkClient delivers through Postmark with open and link tracking.
//   - SESSender delivers through Amazon SES v2 using the default AWS credential chain.
//   - DevSender writes the body and a JSON metadata file to a local directory.
//
// New picks the driver named by Config.Driver. Every driver validates the
// Message before contacting the provider, so a malformed request never
// leaves the process.
//
// # Usage
//
//	client, err := email.New(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//
//	receipt, err := client.SendEmail(ctx, email.Message{
//	    To:      email.AddressList{"user@example.com"},
//	    Subject: "Welcome!",
//	    HTML:    html,
//	    Tag:     "welcome",
//	})
//
// From and ReplyTo default to Config.SenderEmail and Config.ReplyTo.
//
// # Error Handling
//
//   - ErrInvalidConfig: driver configuration is incomplete
//   - ErrInvalidMessage: the message failed validation
//   - ErrFailedToSendEmail: the provider rejected or failed the request
//   - ErrVerifyFailed: credential check during readiness failed
package email
