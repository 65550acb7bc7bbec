// Transaction support for the Cypher client session.
//
// Implements BEGIN/COMMIT/ROLLBACK/RESET over the Bolt wire protocol,
// including automatic ACK_FAILURE recovery and bookmark propagation.
package cypher

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/orneryd/boltwire/pkg/bolt"
	"github.com/orneryd/boltwire/pkg/packstream"
)

// Begin starts an explicit transaction: RUN "BEGIN" [+ bookmark] then
// DISCARD_ALL, both packed as ignored responses and left unsent (spec §4.4;
// original_source/neo4j/src/cypher.rs's begin_transaction packs both and
// calls ignore_response() twice without ever calling send()). A failed BEGIN
// is therefore not reported here — it surfaces as an IGNORED summary on
// whatever statement the caller runs next, the same as any other request
// pipelined behind a failure. Pass an empty bookmark to start without one.
func (s *Session) Begin(ctx context.Context, bookmark string) error {
	params := map[string]packstream.Value{}
	if bookmark != "" {
		params["bookmark"] = packstream.Str(bookmark)
	}
	if _, err := s.conn.PackRun("BEGIN", params, true); err != nil {
		return err
	}
	if _, err := s.conn.PackDiscardAll(true); err != nil {
		return err
	}
	s.bookmarkDirty = true
	s.activeTxID = uuid.New().String()
	log.Printf("cypher: transaction %s begun (bookmark=%q)", s.activeTxID, bookmark)
	return nil
}

// Commit runs COMMIT + DISCARD_ALL; on success it extracts "bookmark" from
// the COMMIT summary metadata and stores it for LastBookmark (spec §4.4).
func (s *Session) Commit(ctx context.Context) error {
	runID, err := s.conn.PackRun("COMMIT", nil, false)
	if err != nil {
		return err
	}
	if _, err := s.conn.PackDiscardAll(true); err != nil {
		return err
	}
	if err := s.conn.Send(ctx); err != nil {
		return err
	}
	sum, err := s.conn.FetchSummary(runID)
	if err != nil {
		return err
	}
	if err := s.checkSummary(ctx, "COMMIT", sum); err != nil {
		return err
	}
	if bm, ok := metaString(sum.Metadata, "bookmark"); ok {
		s.conn.SetBookmark(bm)
	}
	log.Printf("cypher: transaction %s committed", s.activeTxID)
	s.bookmarkDirty = false
	s.activeTxID = ""
	return nil
}

// Rollback runs ROLLBACK + DISCARD_ALL; unlike Commit, it never updates the
// bookmark.
func (s *Session) Rollback(ctx context.Context) error {
	runID, err := s.conn.PackRun("ROLLBACK", nil, false)
	if err != nil {
		return err
	}
	if _, err := s.conn.PackDiscardAll(true); err != nil {
		return err
	}
	if err := s.conn.Send(ctx); err != nil {
		return err
	}
	sum, err := s.conn.FetchSummary(runID)
	if err != nil {
		return err
	}
	if err := s.checkSummary(ctx, "ROLLBACK", sum); err != nil {
		return err
	}
	log.Printf("cypher: transaction %s rolled back", s.activeTxID)
	s.bookmarkDirty = false
	s.activeTxID = ""
	return nil
}

// Reset packs RESET and awaits its summary, discarding all preceding
// pending work client-side (spec §4.4). Supplemented from original_source/
// (see DESIGN.md): this also clears the dirty-bookmark flag a REPL-style
// caller uses to detect a half-finished transaction, fully re-arming the
// connection the way the upstream driver's RESET does.
func (s *Session) Reset(ctx context.Context) error {
	id, err := s.conn.PackReset()
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
		return fmt.Errorf("cypher: RESET did not succeed: %v", sum.Metadata)
	}
	s.bookmarkDirty = false
	s.activeTxID = ""
	return nil
}
