package email_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mrz1836/postmark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/integrations/pkg/email"
)

// MockPostmarkAPI is a mock implementation of the PostmarkAPI interface
type MockPostmarkAPI struct {
	mock.Mock
}

func (m *MockPostmarkAPI) SendEmail(ctx context.Context, e postmark.Email) (postmark.EmailResponse, error) {
	args := m.Called(ctx, e)
	return args.Get(0).(postmark.EmailResponse), args.Error(1)
}

func (m *MockPostmarkAPI) GetCurrentServer(ctx context.Context) (postmark.Server, error) {
	args := m.Called(ctx)
	return args.Get(0).(postmark.Server), args.Error(1)
}

func postmarkConfig() email.Config {
	return email.Config{
		Driver:               email.DriverPostmark,
		PostmarkServerToken:  "test-server-token",
		PostmarkAccountToken: "test-account-token",
		SenderEmail:          "sender@example.com",
		ReplyTo:              "support@example.com",
	}
}

func TestNewPostmarkClient_ValidConfig(t *testing.T) {
	t.Parallel()

	client, err := email.NewPostmarkClient(postmarkConfig())
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestNewPostmarkClient_InvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*email.Config)
		message string
	}{
		{"empty server token", func(c *email.Config) { c.PostmarkServerToken = "" }, "PostmarkServerToken is required"},
		{"empty account token", func(c *email.Config) { c.PostmarkAccountToken = "" }, "PostmarkAccountToken is required"},
		{"missing sender email", func(c *email.Config) { c.SenderEmail = "" }, "SenderEmail is required"},
		{"invalid sender email format", func(c *email.Config) { c.SenderEmail = "invalid-email" }, "SenderEmail must be a valid email address"},
		{"invalid reply-to format", func(c *email.Config) { c.ReplyTo = "@invalid.com" }, "ReplyTo must be a valid email address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := postmarkConfig()
			tt.mutate(&cfg)

			client, err := email.NewPostmarkClient(cfg)
			assert.Error(t, err)
			assert.Nil(t, client)
			assert.ErrorIs(t, err, email.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestMustNewPostmarkClient(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() { email.MustNewPostmarkClient(postmarkConfig()) })
	assert.Panics(t, func() { email.MustNewPostmarkClient(email.Config{}) })
}

func TestPostmarkClient_SendEmail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("maps message and returns message id", func(t *testing.T) {
		t.Parallel()
		api := new(MockPostmarkAPI)
		api.On("SendEmail", mock.Anything, mock.MatchedBy(func(e postmark.Email) bool {
			return e.From == "sender@example.com" &&
				e.ReplyTo == "support@example.com" &&
				e.To == "a@example.com, b@example.com" &&
				e.Cc == "c@example.com" &&
				e.Subject == "Hello" &&
				e.HTMLBody == "<p>Hi</p>" &&
				e.TextBody == "Hi" &&
				e.Tag == "welcome"
		})).Return(postmark.EmailResponse{MessageID: "pm-123"}, nil)

		client := email.MustNewPostmarkClient(postmarkConfig(), email.WithPostmarkAPI(api))
		receipt, err := client.SendEmail(ctx, email.Message{
			To:      email.AddressList{"a@example.com", "b@example.com"},
			Cc:      email.AddressList{"c@example.com"},
			Subject: "Hello",
			HTML:    "<p>Hi</p>",
			Text:    "Hi",
			Tag:     "welcome",
		})
		require.NoError(t, err)
		assert.Equal(t, "pm-123", receipt.MessageID)
		api.AssertExpectations(t)
	})

	t.Run("explicit from overrides default", func(t *testing.T) {
		t.Parallel()
		api := new(MockPostmarkAPI)
		api.On("SendEmail", mock.Anything, mock.MatchedBy(func(e postmark.Email) bool {
			return e.From == "billing@example.com"
		})).Return(postmark.EmailResponse{MessageID: "pm-1"}, nil)

		client := email.MustNewPostmarkClient(postmarkConfig(), email.WithPostmarkAPI(api))
		_, err := client.SendEmail(ctx, email.Message{
			To: email.AddressList{"a@example.com"}, Subject: "s", Text: "t", From: "billing@example.com",
		})
		require.NoError(t, err)
	})

	t.Run("provider error code", func(t *testing.T) {
		t.Parallel()
		api := new(MockPostmarkAPI)
		api.On("SendEmail", mock.Anything, mock.Anything).
			Return(postmark.EmailResponse{ErrorCode: 406, Message: "Inactive recipient"}, nil)

		client := email.MustNewPostmarkClient(postmarkConfig(), email.WithPostmarkAPI(api))
		_, err := client.SendEmail(ctx, email.Message{To: email.AddressList{"a@example.com"}, Subject: "s", Text: "t"})
		require.Error(t, err)
		assert.ErrorIs(t, err, email.ErrFailedToSendEmail)
		assert.Contains(t, err.Error(), "Inactive recipient")
	})

	t.Run("transport error", func(t *testing.T) {
		t.Parallel()
		api := new(MockPostmarkAPI)
		api.On("SendEmail", mock.Anything, mock.Anything).Return(postmark.EmailResponse{}, errors.New("timeout"))

		client := email.MustNewPostmarkClient(postmarkConfig(), email.WithPostmarkAPI(api))
		_, err := client.SendEmail(ctx, email.Message{To: email.AddressList{"a@example.com"}, Subject: "s", Text: "t"})
		assert.ErrorIs(t, err, email.ErrFailedToSendEmail)
	})

	t.Run("invalid message never reaches provider", func(t *testing.T) {
		t.Parallel()
		api := new(MockPostmarkAPI)

		client := email.MustNewPostmarkClient(postmarkConfig(), email.WithPostmarkAPI(api))
		_, err := client.SendEmail(ctx, email.Message{Subject: "s", Text: "t"})
		assert.ErrorIs(t, err, email.ErrInvalidMessage)
		api.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
	})
}

func TestPostmarkClient_Verify(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()
		api := new(MockPostmarkAPI)
		api.On("GetCurrentServer", mock.Anything).Return(postmark.Server{Name: "prod"}, nil)

		client := email.MustNewPostmarkClient(postmarkConfig(), email.WithPostmarkAPI(api))
		assert.NoError(t, client.Verify(ctx))
	})

	t.Run("bad token", func(t *testing.T) {
		t.Parallel()
		api := new(MockPostmarkAPI)
		api.On("GetCurrentServer", mock.Anything).Return(postmark.Server{}, errors.New("401"))

		client := email.MustNewPostmarkClient(postmarkConfig(), email.WithPostmarkAPI(api))
		assert.ErrorIs(t, client.Verify(ctx), email.ErrVerifyFailed)
	})
}
