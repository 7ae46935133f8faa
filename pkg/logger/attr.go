package logger

import (
	"log/slog"
	"time"
)

// sessionKeyPrefix is how much of a session key ends up in logs.
const sessionKeyPrefix = 8

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event records the event name under the key "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// RequestID records the request identifier under the key "request_id".
// An empty id yields an empty Attr.
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// SessionKey records a shortened session key under the key "session".
// Full keys never reach the log.
func SessionKey(key string) slog.Attr {
	if key == "" {
		return slog.Attr{}
	}
	if len(key) > sessionKeyPrefix {
		key = key[:sessionKeyPrefix]
	}
	return slog.String("session", key)
}

// Waited records how long a caller waited under the key "waited".
func Waited(d time.Duration) slog.Attr {
	return slog.Duration("waited", d)
}
