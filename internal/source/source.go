package source

import (
	"context"
	"fmt"

	"github.com/loog-project/rulist/internal/user"
)

// Source is the remote data source the user list is fed from.
// Implementations must be safe for concurrent use.
type Source interface {
	// FetchMany returns n records in source order.
	FetchMany(ctx context.Context, n int) ([]user.Record, error)
	// FetchOne returns a single record.
	FetchOne(ctx context.Context) (user.Record, error)
}

type ErrorKind uint8

const (
	// KindConnectivity covers transport failures: DNS, refused connections, timeouts.
	KindConnectivity ErrorKind = iota
	// KindStatus is a response with a non-2xx status code.
	KindStatus
	// KindDecode is a response body that is not the expected JSON.
	KindDecode
	// KindInvalid is a well-formed payload with unusable content (e.g. records without id).
	KindInvalid
)

func (k ErrorKind) String() string {
	switch k {
	case KindConnectivity:
		return "connectivity"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	case KindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// NetworkError is returned by every failing Source call.
type NetworkError struct {
	Kind       ErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("fetching %s: unexpected status %d", e.URL, e.StatusCode)
	}
	if e.Err == nil {
		return fmt.Sprintf("fetching %s: %s error", e.URL, e.Kind)
	}
	return fmt.Sprintf("fetching %s: %s error: %v", e.URL, e.Kind, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
