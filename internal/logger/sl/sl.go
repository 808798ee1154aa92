// Package sl holds small slog attribute helpers.
package sl

import "log/slog"

// Err wraps an error as the "error" attribute.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{Key: "error", Value: slog.StringValue("<nil>")}
	}
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}
