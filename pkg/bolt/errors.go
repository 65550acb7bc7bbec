package bolt

import "errors"

// Sentinel errors for the taxonomy in spec §7. Transport, Handshake, Codec,
// and Protocol errors are fatal to the session (it moves to StateDefunct);
// Server failure is recoverable via ACK_FAILURE or RESET; caller failures
// never touch the wire.
var (
	// ErrHandshakeRejected means the server replied with version 0.
	ErrHandshakeRejected = errors.New("bolt: handshake rejected, no common protocol version")
	// ErrProtocol means a message arrived out of the shapes the client
	// understands (wrong signature, non-Structure PDU, INIT IGNORED).
	ErrProtocol = errors.New("bolt: protocol violation")
	// ErrDefunct means the session already failed fatally and cannot be
	// used again; the caller must open a new one.
	ErrDefunct = errors.New("bolt: session is defunct")
	// ErrSessionBusy means a query-result façade already owns the session
	// (spec §5: "the session cannot be used for other statements until the
	// façade is exhausted or dropped").
	ErrSessionBusy = errors.New("bolt: session is already in use by another result")
	// ErrUnknownResponse means a caller passed a response id that the
	// session has no record of (already compacted, or never issued).
	ErrUnknownResponse = errors.New("bolt: unknown response id")
)
