package dictionary

import (
	"errors"
	"fmt"
)

// Table names used in configuration errors.
const (
	TableArtists  = "artists"
	TableMembers  = "members"
	TableNews     = "news"
	TableKeywords = "keywords"
	TableFeedback = "feedback"
)

// ErrMalformedRecord marks a row that was skipped because it lacks a
// required field or normalizes to an empty key.
var ErrMalformedRecord = errors.New("malformed record")

// ConfigurationError reports an input table that cannot be used at all.
// It aborts a run before any matching happens.
type ConfigurationError struct {
	Table  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s table: %s: %v", e.Table, e.Reason, e.Err)
	}
	return fmt.Sprintf("configuration error: %s table: %s", e.Table, e.Reason)
}

// Unwrap returns the underlying error, if any.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
