// Package requestid carries a correlation ID through a request.
//
// Middleware handles the HTTP side: it reuses a valid X-Request-ID header or
// generates a UUID and echoes the result. Ensure does the same for other
// transports, such as the Redis RPC envelope ID. LoggerExtractor adds the ID
// to every log record written with the request context:
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//	handler := requestid.Middleware(mux)
package requestid
