package fetch

import (
	"errors"
	"fmt"
)

// Kind classifies fetch failures.
type Kind string

const (
	// KindBlocked means the URL or a redirect target failed the URL guard, or
	// resolved to a private address at dial time.
	KindBlocked Kind = "blocked"
	// KindNetwork covers DNS, connection, TLS and timeout failures.
	KindNetwork Kind = "network"
	// KindStatus means the server answered with a non-2xx status.
	KindStatus Kind = "status"
	// KindTooLarge means the body exceeded the configured cap.
	KindTooLarge Kind = "too_large"
)

// Error is returned by Fetch for every failure.
type Error struct {
	Kind Kind
	URL  string
	Code int // HTTP status for KindStatus
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.Code)
	default:
		if e.Err == nil {
			return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
		}
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsBlocked reports whether err is a fetch error of KindBlocked.
func IsBlocked(err error) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == KindBlocked
}

// errPrivateDial marks a dial refused because the host resolved to a
// non-public address.
var errPrivateDial = errors.New("host resolves to a non-public address")

// errTooManyRedirects is returned from CheckRedirect when the hop budget is spent.
var errTooManyRedirects = errors.New("too many redirects")
