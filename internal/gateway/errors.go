package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies why a fetch failed.
type Kind int

const (
	// KindConfig means the request could not be built, usually because the
	// credential is missing. No network call was made.
	KindConfig Kind = iota + 1
	// KindTransport covers DNS, connection, timeout and cancellation errors.
	KindTransport
	// KindProtocol means the upstream answered with a non-success status or
	// a body that is not a feed.
	KindProtocol
	// KindProvider means the feed itself carried status "error".
	KindProvider
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindProvider:
		return "provider"
	default:
		return "unknown"
	}
}

// MissingKeyMessage is the message the proxy answers with when it has no
// provider credential.
const MissingKeyMessage = "API key is not set."

// Error is returned by every Client operation.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindTransport:
		if e.Err != nil {
			return fmt.Sprintf("request failed: %v", e.Err)
		}
		return "request failed"
	case KindProtocol:
		if e.Status != 0 {
			if e.Message == "" {
				return fmt.Sprintf("HTTP %d", e.Status)
			}
			return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
		}
	}
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a gateway error of kind k.
func IsKind(err error, k Kind) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Kind == k
}
