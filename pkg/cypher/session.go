// Package cypher provides a transaction-aware client session atop pkg/bolt:
// begin/run/commit/rollback/reset, bookmark propagation across transactions,
// and automatic FAILURE recovery via ACK_FAILURE (spec §4.4).
package cypher

import (
	"context"
	"fmt"
	"log"

	"github.com/orneryd/boltwire/pkg/bolt"
	"github.com/orneryd/boltwire/pkg/packstream"
	"github.com/orneryd/boltwire/pkg/planstats"
)

// Session wraps a bolt.Session with Cypher transaction semantics. Not safe
// for concurrent use, same as the bolt.Session it wraps.
type Session struct {
	conn  *bolt.Session
	stats *planstats.Cache // optional; nil means "no cache"

	// bookmarkDirty tracks whether a transaction is open that hasn't
	// reached COMMIT/ROLLBACK/RESET yet; supplemented from original_source/
	// (see DESIGN.md) for REPL-style callers deciding whether to auto-RESET.
	bookmarkDirty bool

	// activeTxID correlates log lines for one transaction's lifetime, the
	// way a connection proxy tags each client transaction for its own logs.
	activeTxID string
}

// Connect dials addr, completes the handshake, and sends INIT with the given
// user agent and auth token (spec §4.3's INIT request, driven from here
// since L3 stays protocol-only).
func Connect(ctx context.Context, network, addr, userAgent string, auth map[string]packstream.Value) (*Session, error) {
	conn, err := bolt.Dial(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	s := &Session{conn: conn}
	id, err := conn.PackInit(userAgent, auth)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := conn.Send(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	sum, err := conn.FetchSummary(id)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if sum.Kind != bolt.SummarySuccess {
		conn.Close()
		return nil, fmt.Errorf("cypher: INIT failed: %v", sum.Metadata)
	}
	log.Printf("cypher: session initialized against %s", addr)
	return s, nil
}

// WrapBoltSession builds a Session from an already-INIT'd bolt.Session,
// for callers that dialed and initialized the connection themselves (a
// custom net.Conn, a non-TCP transport, or a test harness) rather than
// going through Connect.
func WrapBoltSession(conn *bolt.Session) *Session {
	return &Session{conn: conn}
}

// WithPlanStatsCache attaches a field-name cache used by StatementResult.Keys
// to avoid re-deriving field names for repeated statement text.
func (s *Session) WithPlanStatsCache(c *planstats.Cache) *Session {
	s.stats = c
	return s
}

// Bolt exposes the underlying protocol session, for callers (notably
// pkg/result) that need direct FetchRecord/FetchSummary access.
func (s *Session) Bolt() *bolt.Session { return s.conn }

// InTransaction reports whether Begin was called without a matching
// Commit/Rollback/Reset yet.
func (s *Session) InTransaction() bool { return s.bookmarkDirty }

// ActiveTransactionID returns the correlation id assigned by the current
// transaction's Begin, if one is open.
func (s *Session) ActiveTransactionID() (string, bool) {
	if !s.bookmarkDirty {
		return "", false
	}
	return s.activeTxID, true
}

// LastBookmark returns the most recent bookmark recorded by Commit.
func (s *Session) LastBookmark() (string, bool) { return s.conn.Bookmark() }

// ProtocolVersion returns the Bolt version negotiated during the handshake.
func (s *Session) ProtocolVersion() (uint32, bool) { return s.conn.RemoteVersion() }

// ServerVersion returns the "server" string from the INIT success metadata,
// if the server sent one.
func (s *Session) ServerVersion() (string, bool) { return s.conn.ServerVersion() }

// Close releases the underlying connection.
func (s *Session) Close() error { return s.conn.Close() }

func metaString(meta map[string]packstream.Value, key string) (string, bool) {
	v, ok := meta[key]
	if !ok {
		return "", false
	}
	return v.Str()
}

// checkSummary classifies sum for op ("COMMIT", "RUN %q", ...), acking and
// recovering the connection on both FAILURE and IGNORED. IGNORED means the
// server was already in a failed state when it saw this request — usually
// because an earlier ignored request in the same pipeline (a fire-and-forget
// BEGIN, say) carried the real failure — so there is no statement-specific
// metadata to surface here, only the fact that op never ran (original_source/
// neo4j/src/cypher.rs's fetch_header and commit_transaction both route
// Ignored through the same ack-and-report path as Failure; see DESIGN.md).
func (s *Session) checkSummary(ctx context.Context, op string, sum *bolt.Summary) error {
	switch sum.Kind {
	case bolt.SummaryFailure:
		if ackErr := s.ackFailureAndRecover(ctx); ackErr != nil {
			return fmt.Errorf("cypher: %s failed (%v), recovery also failed: %w", op, sum.Metadata, ackErr)
		}
		return fmt.Errorf("cypher: %s failed: %v", op, sum.Metadata)
	case bolt.SummaryIgnored:
		if ackErr := s.ackFailureAndRecover(ctx); ackErr != nil {
			return fmt.Errorf("cypher: %s was ignored, recovery also failed: %w", op, ackErr)
		}
		return fmt.Errorf("cypher: %s was ignored: an earlier request in this pipeline failed", op)
	default:
		return nil
	}
}

// ackFailureAndRecover sends ACK_FAILURE and waits for it to succeed,
// returning the connection to READY (spec §4.3.7).
func (s *Session) ackFailureAndRecover(ctx context.Context) error {
	id, err := s.conn.PackAckFailure()
	if err != nil {
		return err
	}
	if err := s.conn.Send(ctx); err != nil {
		return err
	}
	sum, err := s.conn.FetchSummary(id)
	if err != nil {
		return err
	}
	if sum.Kind != bolt.SummarySuccess {
		return fmt.Errorf("cypher: ACK_FAILURE did not succeed: %v", sum.Metadata)
	}
	return nil
}
