package bolt

import "github.com/orneryd/boltwire/pkg/packstream"

// State is the connection-level state machine from spec §4.3.8.
type State uint8

const (
	StateDisconnected State = iota
	StateConnected
	StateReady
	StateStreaming
	StateFailed
	StateDefunct
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnected:
		return "CONNECTED"
	case StateReady:
		return "READY"
	case StateStreaming:
		return "STREAMING"
	case StateFailed:
		return "FAILED"
	case StateDefunct:
		return "DEFUNCT"
	default:
		return "UNKNOWN"
	}
}

// State reports the session's current connection-level state.
func (s *Session) State() State { return s.state }

// onRequestPacked advances the state machine for the request signature just
// packed, per the transition table in spec §4.3.8. It does not send
// anything; it only predicts the effect that packing has on the local view
// of connection state.
func (s *Session) onRequestPacked(sig byte) {
	switch sig {
	case packstream.SigRun, packstream.SigDiscardAll, packstream.SigPullAll:
		if s.state == StateReady {
			s.state = StateStreaming
		}
		s.streamingInFlight++
	}
}

// onResponseComplete advances the state machine once a pending response's
// summary has arrived.
func (s *Session) onResponseComplete(pr *pendingResponse) {
	if pr.ignoredByCaller {
		pr.done = true
	}

	if pr.summary.Kind == SummaryFailure {
		s.state = StateFailed
		return
	}

	switch pr.requestSig {
	case packstream.SigInit:
		if s.state != StateFailed && s.state != StateDefunct {
			s.state = StateReady
		}
	case packstream.SigAckFailure, packstream.SigReset:
		if s.state != StateDefunct {
			s.state = StateReady
		}
	case packstream.SigRun, packstream.SigDiscardAll, packstream.SigPullAll:
		if s.streamingInFlight > 0 {
			s.streamingInFlight--
		}
		if s.streamingInFlight == 0 && s.state == StateStreaming {
			s.state = StateReady
		}
	}
}
