package mqtt

// ConnState is the broker session state as tracked by the Client.
//
// The state is owned exclusively by the Client: callers observe it through
// IsConnected or State and never mutate it directly. Connected can fall back
// to Disconnected at any time (link loss, broker restart); there is no
// terminal state, the client is always eligible for restart.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

// String returns a human-readable state name for logging.
func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}
