package tcp

import "time"

// Compile-time knobs, expressed as overridable package variables rather
// than a configuration struct threaded through every constructor.
var (
	// MsgQueueSize is the capacity of a per-call mailbox. Must be a power
	// of two; see mailbox.go.
	MsgQueueSize = 8

	// ConnectionTimeout bounds how long a user call may block before the
	// FSM aborts the connection. The call then fails with ErrTimedOut if
	// the handshake had not completed, ErrConnAborted otherwise.
	ConnectionTimeout = 120 * time.Second

	// MSL is the maximum segment lifetime; TIME_WAIT lasts 2*MSL.
	MSL = 30 * time.Second

	// RTOInitial, RTOMin and RTOMax bound the retransmission timeout.
	RTOInitial = 3 * time.Second
	RTOMin     = 1 * time.Second
	RTOMax     = 120 * time.Second

	// ProbeLowerBound and ProbeUpperBound clamp the zero-window probe
	// backoff.
	ProbeLowerBound = 1 * time.Second
	ProbeUpperBound = 60 * time.Second

	// RetriesMax is the number of retransmit attempts tolerated before a
	// connection is aborted.
	RetriesMax = 5

	// MSSDefault is used when no MSS option was negotiated.
	MSSDefault uint16 = 1220
)
