package email

import (
	"context"
	"fmt"
)

// Client is a provider that can both send and verify.
type Client interface {
	Sender
	Verifier
}

// New builds the client selected by cfg.Driver.
func New(ctx context.Context, cfg Config) (Client, error) {
	switch cfg.Driver {
	case DriverPostmark:
		return NewPostmarkClient(cfg)
	case DriverSES:
		return NewSESSender(ctx, cfg)
	case DriverDev, "":
		if err := validateSender(cfg); err != nil {
			return nil, err
		}
		return NewDevSender(cfg), nil
	default:
		return nil, fmt.Errorf("%w: unknown driver %q", ErrInvalidConfig, cfg.Driver)
	}
}
