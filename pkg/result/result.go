// Package result provides the query-result façade (L5, spec §4.5): a lazy
// iterator over a StatementResult's records, with field names and a
// drain-on-close guarantee that leaves the underlying session clean for its
// next statement.
package result

import (
	"fmt"
	"log"
	"runtime"

	"github.com/orneryd/boltwire/pkg/bolt"
	"github.com/orneryd/boltwire/pkg/cypher"
)

// Result is a handle over a cypher.StatementResult. It borrows the
// underlying cypher.Session exclusively for its lifetime (spec §5); call
// Close (or exhaust via Next/ForEach) before running another statement on
// the same session.
type Result struct {
	stmt     *cypher.StatementResult
	session  *cypher.Session
	closed   bool
	finished bool // true once a nil record has been observed
}

// New wraps stmt in a façade and acquires exclusive use of its session.
func New(stmt *cypher.StatementResult) (*Result, error) {
	session := stmt.Session()
	if err := session.Bolt().AcquireFacade(); err != nil {
		return nil, err
	}
	r := &Result{stmt: stmt, session: session}
	runtime.SetFinalizer(r, func(r *Result) {
		if !r.closed {
			log.Printf("result: façade for %q garbage-collected without Close; draining now", r.stmt.Statement())
			_ = r.Close()
		}
	})
	return r, nil
}

// Keys returns the statement's field names (spec §4.5).
func (r *Result) Keys() ([]string, error) { return r.stmt.Keys() }

// Next returns the next record, or ok=false once the stream is exhausted.
func (r *Result) Next() (bolt.Record, bool, error) {
	if r.finished {
		return bolt.Record{}, false, nil
	}
	rec, ok, err := r.session.Bolt().FetchRecord(r.stmt.Body())
	if err != nil {
		return bolt.Record{}, false, err
	}
	if !ok {
		r.finished = true
	}
	return rec, ok, nil
}

// ForEach calls fn for every remaining record, stopping at the first error
// either from the stream or from fn itself.
func (r *Result) ForEach(fn func(bolt.Record) error) error {
	for {
		rec, ok, err := r.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

// Close drains any remaining records and the terminal summary, then
// releases the session back for the next statement (spec §4.5's
// drain-on-destruction, performed deterministically here rather than solely
// relying on the finalizer backstop).
func (r *Result) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	runtime.SetFinalizer(r, nil)

	for !r.finished {
		if _, ok, err := r.Next(); err != nil {
			r.session.Bolt().ReleaseFacade()
			return fmt.Errorf("result: drain: %w", err)
		} else if !ok {
			break
		}
	}
	_, err := r.session.Bolt().FetchSummary(r.stmt.Body())
	r.session.Bolt().ReleaseFacade()
	if err != nil {
		return fmt.Errorf("result: drain summary: %w", err)
	}
	return nil
}
