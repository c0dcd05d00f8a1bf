package server

// ConnState is the lifecycle stage of a client connection.
type ConnState int

const (
	// StateAccepted means the connection was accepted and waits for a permit.
	StateAccepted ConnState = iota

	// StateReading means a permit is held and the request head is being read.
	StateReading

	// StateParsed means the request head was decoded.
	StateParsed

	// StateDispatched means the request body was read and handed to the
	// handler.
	StateDispatched

	// StateClosed means the socket was closed and the permit released.
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateAccepted:
		return "accepted"
	case StateReading:
		return "reading"
	case StateParsed:
		return "parsed"
	case StateDispatched:
		return "dispatched"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
