// Package requestid attaches a correlation id to every request.
//
// Middleware keeps a client supplied X-Request-ID when it only contains
// letters, digits, '-' or '_' and is at most 128 bytes long; otherwise it
// generates a UUIDv7. The id is stored in the request context, echoed in the
// response header and can be added to every log record:
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
package requestid
