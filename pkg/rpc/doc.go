// Package rpc routes named commands with JSON payloads to typed handlers and
// exposes them over HTTP and a Redis request/reply list.
//
// Commands are registered without the namespace and addressed with it:
//
//	router := rpc.NewRouter(rpc.WithLogger(log), rpc.WithErrorMappings(mappings...))
//	router.Register("files.exists", rpc.Handle(existsHandler))
//	router.Dispatch(ctx, "integration.files.exists", payload)
//
// Handle decodes the payload into the request type and runs
// go-playground/validator tags before the handler sees it. Field names in
// validation errors are the json tag names.
//
// Every failure leaves the package as an *Error envelope with an HTTP-style
// status and a Category. FromError maps sentinel errors through the Mapping
// table; anything unmapped becomes INTERNAL without leaking its message.
//
// # Transports
//
// HTTPHandler serves POST /{command} on a chi router. RedisServer pops
// Request envelopes from "<prefix>:requests" with a pool of consumers and
// pushes a Reply onto the request's replyTo list with a TTL. RedisClient is
// the matching caller.
package rpc
