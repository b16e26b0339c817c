package remote

import "errors"

var (
	// ErrRemoteUnreachable marks transport-level failures: DNS, refused
	// connections, timeouts. The work that hit it is retryable.
	ErrRemoteUnreachable = errors.New("remote unreachable")

	// ErrRemoteRejected marks non-2xx responses from a reachable backend.
	ErrRemoteRejected = errors.New("remote rejected request")

	// ErrNoPriorArrival is returned for a departure submit when the backend
	// has no open arrival for that person on the civil day.
	ErrNoPriorArrival = errors.New("no prior arrival for today")
)
