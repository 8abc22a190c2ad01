package requestid

import (
	"context"
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

const (
	Header      = "X-Request-ID"
	maxIDLength = 128
)

var validID = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)

// Ensure stores id in ctx when it is a usable correlation ID, otherwise a
// fresh UUID. It returns the ID that was stored. RPC transports call it with
// the envelope ID so replies and logs share one identifier.
func Ensure(ctx context.Context, id string) (context.Context, string) {
	if !Valid(id) {
		id = uuid.NewString()
	}
	return WithContext(ctx, id), id
}

// Valid reports whether id is non-empty, at most 128 bytes and made of
// letters, digits, '-', '_', '.' or ':'.
func Valid(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}
	return validID.MatchString(id)
}

// Middleware reuses a valid X-Request-ID header or generates one, stores it
// in the request context and echoes it in the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, id := Ensure(r.Context(), r.Header.Get(Header))
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
