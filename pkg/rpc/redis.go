package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/integrations/pkg/logger"
	"github.com/dmitrymomot/integrations/pkg/requestid"
)

// ListClient is the subset of redis.UniversalClient used by the Redis transport.
type ListClient interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	RPush(ctx context.Context, key string, values ...any) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// Pattern identifies the command in a request envelope.
type Pattern struct {
	Cmd string `json:"cmd"`
}

// Request is the envelope pushed onto the requests list.
// ReplyTo may be empty for fire-and-forget commands.
type Request struct {
	ID      string          `json:"id"`
	Pattern Pattern         `json:"pattern"`
	Data    json.RawMessage `json:"data,omitempty"`
	ReplyTo string          `json:"replyTo,omitempty"`
}

// Reply is pushed onto Request.ReplyTo. Exactly one of Response and Err is set.
type Reply struct {
	ID       string          `json:"id"`
	Response json.RawMessage `json:"response,omitempty"`
	Err      *Error          `json:"err,omitempty"`
}

type redisConfig struct {
	prefix         string
	concurrency    int
	pollTimeout    time.Duration
	replyTTL       time.Duration
	requestTimeout time.Duration
	logger         *slog.Logger
}

func defaultRedisConfig() *redisConfig {
	return &redisConfig{
		prefix:         "integration",
		concurrency:    8,
		pollTimeout:    5 * time.Second,
		replyTTL:       time.Minute,
		requestTimeout: 30 * time.Second,
		logger:         slog.New(slog.DiscardHandler),
	}
}

func (c *redisConfig) requestsKey() string { return c.prefix + ":requests" }

// RedisOption configures RedisServer and RedisClient.
type RedisOption func(*redisConfig)

// WithKeyPrefix sets the key prefix. Requests go to "<prefix>:requests".
func WithKeyPrefix(prefix string) RedisOption {
	if prefix == "" {
		panic("WithKeyPrefix: prefix cannot be empty")
	}
	return func(c *redisConfig) { c.prefix = prefix }
}

// WithConcurrency sets the number of consumers popping requests.
func WithConcurrency(n int) RedisOption {
	if n <= 0 {
		panic("WithConcurrency: n must be > 0")
	}
	return func(c *redisConfig) { c.concurrency = n }
}

// WithPollTimeout sets the BLPOP timeout. Shutdown latency is bounded by it.
func WithPollTimeout(d time.Duration) RedisOption {
	if d <= 0 {
		panic("WithPollTimeout: duration must be > 0")
	}
	return func(c *redisConfig) { c.pollTimeout = d }
}

// WithReplyTTL sets how long an unread reply list lives.
func WithReplyTTL(d time.Duration) RedisOption {
	if d <= 0 {
		panic("WithReplyTTL: duration must be > 0")
	}
	return func(c *redisConfig) { c.replyTTL = d }
}

// WithRequestTimeout bounds a single dispatch on the server and a single
// Call on the client.
func WithRequestTimeout(d time.Duration) RedisOption {
	if d <= 0 {
		panic("WithRequestTimeout: duration must be > 0")
	}
	return func(c *redisConfig) { c.requestTimeout = d }
}

// WithRedisLogger sets the transport logger.
func WithRedisLogger(l *slog.Logger) RedisOption {
	return func(c *redisConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// RedisServer consumes request envelopes from a Redis list and replies on
// the per-request reply list.
type RedisServer struct {
	client ListClient
	router *Router
	cfg    *redisConfig
}

// NewRedisServer creates a consumer pool bound to router.
func NewRedisServer(client ListClient, router *Router, opts ...RedisOption) *RedisServer {
	cfg := defaultRedisConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &RedisServer{client: client, router: router, cfg: cfg}
}

// Serve blocks until ctx is cancelled. In-flight requests finish before it returns.
func (s *RedisServer) Serve(ctx context.Context) error {
	s.cfg.logger.InfoContext(ctx, "redis rpc transport started",
		slog.String("queue", s.cfg.requestsKey()),
		slog.Int("concurrency", s.cfg.concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	for range s.cfg.concurrency {
		g.Go(func() error { return s.consume(gctx) })
	}
	err := g.Wait()

	s.cfg.logger.InfoContext(context.WithoutCancel(ctx), "redis rpc transport stopped")
	return err
}

// Run returns a function suitable for errgroup.
func (s *RedisServer) Run(ctx context.Context) func() error {
	return func() error { return s.Serve(ctx) }
}

func (s *RedisServer) consume(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		res, err := s.client.BLPop(ctx, s.cfg.pollTimeout, s.cfg.requestsKey()).Result()
		switch {
		case errors.Is(err, redis.Nil):
			continue
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			s.cfg.logger.ErrorContext(ctx, "failed to pop rpc request", logger.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		if len(res) != 2 {
			continue
		}
		s.handle(context.WithoutCancel(ctx), res[1])
	}
}

func (s *RedisServer) handle(ctx context.Context, raw string) {
	var req Request
	if err := json.Unmarshal([]byte(raw), &req); err != nil || req.Pattern.Cmd == "" {
		s.cfg.logger.WarnContext(ctx, "dropping malformed rpc request",
			logger.Error(errors.Join(ErrInvalidEnvelope, err)))
		return
	}

	ctx, _ = requestid.Ensure(ctx, req.ID)
	ctx, cancel := context.WithTimeout(ctx, s.cfg.requestTimeout)
	defer cancel()

	result, rpcErr := s.router.Dispatch(ctx, req.Pattern.Cmd, req.Data)
	if req.ReplyTo == "" {
		return
	}

	reply := Reply{ID: req.ID, Err: rpcErr}
	if rpcErr == nil {
		body, err := json.Marshal(result)
		if err != nil {
			reply.Err = FromError(fmt.Errorf("marshal response: %w", err))
		} else {
			reply.Response = body
		}
	}

	if err := s.push(ctx, req.ReplyTo, reply); err != nil {
		s.cfg.logger.ErrorContext(ctx, "failed to push rpc reply",
			logger.MessageID(req.ID),
			logger.Command(req.Pattern.Cmd),
			logger.Error(err),
		)
	}
}

func (s *RedisServer) push(ctx context.Context, key string, reply Reply) error {
	body, err := json.Marshal(reply)
	if err != nil {
		return err
	}
	if err := s.client.RPush(ctx, key, body).Err(); err != nil {
		return err
	}
	return s.client.Expire(ctx, key, s.cfg.replyTTL).Err()
}

// RedisClient sends commands to a RedisServer and waits for the reply.
type RedisClient struct {
	client ListClient
	cfg    *redisConfig
}

// NewRedisClient creates a caller using the same key layout as RedisServer.
func NewRedisClient(client ListClient, opts ...RedisOption) *RedisClient {
	cfg := defaultRedisConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &RedisClient{client: client, cfg: cfg}
}

// Call sends cmd with payload and decodes the response into out (nil to discard).
// A failed command is returned as *Error.
func (c *RedisClient) Call(ctx context.Context, cmd string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	id := uuid.NewString()
	req := Request{
		ID:      id,
		Pattern: Pattern{Cmd: cmd},
		Data:    data,
		ReplyTo: c.cfg.prefix + ":replies:" + id,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	if err := c.client.RPush(ctx, c.cfg.requestsKey(), body).Err(); err != nil {
		return fmt.Errorf("push rpc request: %w", err)
	}

	wait := c.cfg.requestTimeout
	if deadline, ok := ctx.Deadline(); ok {
		wait = min(wait, time.Until(deadline))
	}

	res, err := c.client.BLPop(ctx, wait, req.ReplyTo).Result()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %s", ErrNoReply, cmd)
	}
	if err != nil {
		return fmt.Errorf("wait rpc reply: %w", err)
	}
	if len(res) != 2 {
		return fmt.Errorf("%w: unexpected reply shape", ErrInvalidEnvelope)
	}

	var reply Reply
	if err := json.Unmarshal([]byte(res[1]), &reply); err != nil {
		return errors.Join(ErrInvalidEnvelope, err)
	}
	if reply.Err != nil {
		return reply.Err
	}
	if out == nil || len(reply.Response) == 0 {
		return nil
	}
	return json.Unmarshal(reply.Response, out)
}
