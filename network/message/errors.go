package message

import "errors"

// Structural decode failures. They are recoverable: the connection that produced them is dropped,
// the node keeps running. Wrapped errors carry detail, match them with errors.Is.
var (
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrTruncatedMessage   = errors.New("truncated message")
	ErrMalformedPayload   = errors.New("malformed payload")
	ErrMessageTooLarge    = errors.New("message too large")
)

// ErrorKind names the decode failure class, for logging and metrics labels
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnknownMessageType):
		return "unknown_type"
	case errors.Is(err, ErrTruncatedMessage):
		return "truncated"
	case errors.Is(err, ErrMalformedPayload):
		return "malformed"
	case errors.Is(err, ErrMessageTooLarge):
		return "too_large"
	default:
		return "other"
	}
}
