package bolt

import (
	"context"

	"github.com/orneryd/boltwire/pkg/packstream"
)

// PackInit packs an INIT request and returns its response id.
func (s *Session) PackInit(userAgent string, auth map[string]packstream.Value) (int, error) {
	return s.pack(packstream.SigInit, buildInit(userAgent, auth), false)
}

// PackRun packs a RUN request and returns its response id. ignored marks it
// fire-and-forget in the FIFO (spec §3's ignored_by_caller), the way BEGIN's
// RUN is never collected on its own.
func (s *Session) PackRun(statement string, params map[string]packstream.Value, ignored bool) (int, error) {
	return s.pack(packstream.SigRun, buildRun(statement, params), ignored)
}

// PackDiscardAll packs a DISCARD_ALL request. ignored marks it fire-and-forget
// in the FIFO (spec §3's ignored_by_caller).
func (s *Session) PackDiscardAll(ignored bool) (int, error) {
	return s.pack(packstream.SigDiscardAll, buildDiscardAll(), ignored)
}

// PackPullAll packs a PULL_ALL request.
func (s *Session) PackPullAll() (int, error) {
	return s.pack(packstream.SigPullAll, buildPullAll(), false)
}

// PackAckFailure packs ACK_FAILURE with an ignored pending slot (spec
// §4.3.7): the slot is marked done as soon as its summary arrives, and the
// returned id is only needed to wait for that summary via FetchSummary.
func (s *Session) PackAckFailure() (int, error) {
	return s.pack(packstream.SigAckFailure, buildAckFailure(), true)
}

// PackReset packs RESET.
func (s *Session) PackReset() (int, error) {
	return s.pack(packstream.SigReset, buildReset(), false)
}

// Send flushes all packed-but-unsent requests (spec §4.3.3).
func (s *Session) Send(ctx context.Context) error { return s.send(ctx) }

// AcquireFacade marks the session as owned by a query-result façade. Returns
// ErrSessionBusy if one is already open (spec §5).
func (s *Session) AcquireFacade() error {
	if s.busy {
		return ErrSessionBusy
	}
	s.busy = true
	return nil
}

// ReleaseFacade releases the exclusive hold a façade took with AcquireFacade.
func (s *Session) ReleaseFacade() { s.busy = false }
