package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Error returns an "error" attribute, or an empty one for a nil err.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Errors groups the non-nil errors under "errors", keyed by position.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

func RequestID(id string) slog.Attr { return optionalString("request_id", id) }

// MessageID is the provider or envelope message identifier.
func MessageID(id string) slog.Attr { return optionalString("message_id", id) }

func Duration(d time.Duration) slog.Attr { return slog.Duration("duration", d) }

func Component(name string) slog.Attr { return slog.String("component", name) }

// Command is the fully qualified RPC command name.
func Command(name string) slog.Attr { return slog.String("command", name) }

func StorageKey(key string) slog.Attr { return slog.String("storage_key", key) }

func Bucket(name string) slog.Attr { return slog.String("bucket", name) }

func ContentType(mimeType string) slog.Attr { return slog.String("content_type", mimeType) }

// Size is a byte count.
func Size(n int64) slog.Attr { return slog.Int64("size", n) }

func optionalString(key, v string) slog.Attr {
	if v == "" {
		return slog.Attr{}
	}
	return slog.String(key, v)
}
