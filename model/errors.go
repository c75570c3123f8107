package model

import "fmt"

// Kind names the record type a raw field map was parsed into.
type Kind string

const (
	KindConnectionInfo    Kind = "connection_info"
	KindConnectionHome    Kind = "connection_home"
	KindConnectionAddress Kind = "connection_address"
	KindDownstreamChannel Kind = "downstream_channel"
	KindUpstreamChannel   Kind = "upstream_channel"
	KindLogEntry          Kind = "log_entry"
)

// ParseError reports a missing or malformed key in a raw field map.
// Err is nil when the key is missing.
type ParseError struct {
	Kind Kind
	Key  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("parse %s: missing key %q", e.Kind, e.Key)
	}
	return fmt.Sprintf("parse %s: invalid key %q: %s", e.Kind, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
