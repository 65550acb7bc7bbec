package cypher

import (
	"context"
	"fmt"

	"github.com/orneryd/boltwire/pkg/bolt"
	"github.com/orneryd/boltwire/pkg/packstream"
)

// StatementResult is the handle returned by Run: two response ids, one for
// the RUN summary (field names) and one for the PULL_ALL summary (record
// stream + completion stats), per spec §4.4.
type StatementResult struct {
	session   *Session
	statement string
	head      int // RUN response id
	body      int // PULL_ALL response id

	headSummary *bolt.Summary // fetched by Run before returning; Keys() reads it
}

// Run packs RUN + PULL_ALL and blocks until the RUN summary arrives, so
// field names are available before the caller starts streaming records
// (spec §4.4). A FAILURE on RUN auto-sends ACK_FAILURE; the failure metadata
// is returned as an error rather than a StatementResult.
func (s *Session) Run(ctx context.Context, statement string, params map[string]packstream.Value) (*StatementResult, error) {
	headID, err := s.conn.PackRun(statement, params, false)
	if err != nil {
		return nil, err
	}
	bodyID, err := s.conn.PackPullAll()
	if err != nil {
		return nil, err
	}
	if err := s.conn.Send(ctx); err != nil {
		return nil, err
	}

	headSum, err := s.conn.FetchSummary(headID)
	if err != nil {
		return nil, err
	}
	if err := s.checkSummary(ctx, fmt.Sprintf("RUN %q", statement), headSum); err != nil {
		return nil, err
	}

	if s.stats != nil {
		if fields, ok := fieldsFromMetadata(headSum.Metadata); ok {
			s.stats.Put(statement, fields)
		}
	}

	return &StatementResult{session: s, statement: statement, head: headID, body: bodyID, headSummary: headSum}, nil
}

// RunUnchecked is the fire-and-forget variant: RUN paired with DISCARD_ALL,
// both marked ignored. Errors surface only the next time the caller fetches
// anything on this session (spec §4.4).
func (s *Session) RunUnchecked(ctx context.Context, statement string, params map[string]packstream.Value) error {
	if _, err := s.conn.PackRun(statement, params, true); err != nil {
		return err
	}
	if _, err := s.conn.PackDiscardAll(true); err != nil {
		return err
	}
	return s.conn.Send(ctx)
}

// Keys returns the field names from the RUN summary metadata key "fields".
// If a planstats cache is attached and already has an entry for this exact
// statement text, it is consulted first as a convenience — never as a
// substitute for the wire round trip already completed by Run.
func (r *StatementResult) Keys() ([]string, error) {
	if r.session.stats != nil {
		if fields, ok := r.session.stats.Get(r.statement); ok {
			return fields, nil
		}
	}
	fields, ok := fieldsFromMetadata(r.headSummary.Metadata)
	if !ok {
		return nil, fmt.Errorf("cypher: RUN summary for %q has no \"fields\" entry", r.statement)
	}
	return fields, nil
}

// Statement returns the original statement text.
func (r *StatementResult) Statement() string { return r.statement }

// Head returns the RUN response id, for a façade that wants the raw ids.
func (r *StatementResult) Head() int { return r.head }

// Body returns the PULL_ALL response id.
func (r *StatementResult) Body() int { return r.body }

// Session returns the owning cypher.Session.
func (r *StatementResult) Session() *Session { return r.session }

func fieldsFromMetadata(meta map[string]packstream.Value) ([]string, bool) {
	v, ok := meta["fields"]
	if !ok {
		return nil, false
	}
	items, ok := v.List()
	if !ok {
		return nil, false
	}
	names := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.Str()
		if !ok {
			return nil, false
		}
		names = append(names, s)
	}
	return names, true
}
