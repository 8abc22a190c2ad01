package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/integrations/pkg/logger"
)

// DefaultNamespace prefixes every registered command.
const DefaultNamespace = "integration."

// HandlerFunc processes a raw JSON payload and returns a JSON-serializable result.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) (any, error)

// Decorator wraps a HandlerFunc to add cross-cutting behavior. The first
// decorator passed to WithDecorators is the outermost.
type Decorator func(next HandlerFunc) HandlerFunc

// Router maps command names to handlers.
type Router struct {
	namespace  string
	log        *slog.Logger
	mappings   []Mapping
	decorators []Decorator

	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// RouterOption configures Router.
type RouterOption func(*Router)

// WithNamespace sets the command prefix. A trailing dot is added if missing.
func WithNamespace(ns string) RouterOption {
	return func(r *Router) {
		if ns != "" && !strings.HasSuffix(ns, ".") {
			ns += "."
		}
		r.namespace = ns
	}
}

// WithLogger sets the logger used for dispatch records.
func WithLogger(l *slog.Logger) RouterOption {
	return func(r *Router) {
		if l != nil {
			r.log = l
		}
	}
}

// WithErrorMappings adds sentinel-to-envelope mappings consulted by Dispatch.
func WithErrorMappings(m ...Mapping) RouterOption {
	return func(r *Router) {
		r.mappings = append(r.mappings, m...)
	}
}

// WithDecorators wraps every handler registered after construction.
func WithDecorators(d ...Decorator) RouterOption {
	return func(r *Router) {
		r.decorators = append(r.decorators, d...)
	}
}

// NewRouter creates an empty router using DefaultNamespace.
func NewRouter(opts ...RouterOption) *Router {
	r := &Router{
		namespace: DefaultNamespace,
		log:       slog.New(slog.DiscardHandler),
		handlers:  make(map[string]HandlerFunc),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Namespace returns the command prefix.
func (r *Router) Namespace() string {
	return r.namespace
}

// Register binds cmd (without namespace) to h. It panics on duplicates, as
// registration happens once during startup.
func (r *Router) Register(cmd string, h HandlerFunc) {
	if cmd == "" || h == nil {
		panic("rpc: Register requires a command name and handler")
	}
	for i := len(r.decorators) - 1; i >= 0; i-- {
		h = r.decorators[i](h)
	}

	name := r.namespace + cmd
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handlers[name]; ok {
		panic(fmt.Errorf("%w: %s", ErrDuplicateCommand, name))
	}
	r.handlers[name] = h
}

// Commands lists registered command names, sorted.
func (r *Router) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// lookup accepts either the full name or the name without namespace.
func (r *Router) lookup(cmd string) (string, HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if h, ok := r.handlers[cmd]; ok {
		return cmd, h, true
	}
	if h, ok := r.handlers[r.namespace+cmd]; ok {
		return r.namespace + cmd, h, true
	}
	return cmd, nil, false
}

// Dispatch runs the handler for cmd. Errors and panics are converted to an
// envelope; the returned result is nil whenever the envelope is not.
func (r *Router) Dispatch(ctx context.Context, cmd string, payload json.RawMessage) (result any, rpcErr *Error) {
	name, h, ok := r.lookup(cmd)
	log := r.log.With(logger.Command(name))
	if !ok {
		log.WarnContext(ctx, "unknown command")
		return nil, FromError(fmt.Errorf("%w: %s", ErrUnknownCommand, cmd))
	}

	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			log.ErrorContext(ctx, "handler panic",
				slog.Any("panic", p),
				slog.String("stack", string(debug.Stack())),
			)
			result, rpcErr = nil, FromError(fmt.Errorf("panic: %v", p))
		}
	}()

	res, err := h(ctx, payload)
	if err != nil {
		rpcErr = FromError(err, r.mappings...)
		level := slog.LevelWarn
		if rpcErr.Status >= 500 {
			level = slog.LevelError
		}
		log.Log(ctx, level, "command failed",
			logger.Error(err),
			slog.String("category", string(rpcErr.Category)),
			logger.Duration(time.Since(start)),
		)
		return nil, rpcErr
	}

	log.DebugContext(ctx, "command handled", logger.Duration(time.Since(start)))
	return res, nil
}
