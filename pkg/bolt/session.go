// Package bolt implements the client side of the Bolt v1 wire protocol: the
// 20-byte version handshake, request packing and pipelined transmission, and
// response demultiplexing against a FIFO of pending responses (spec §4.3).
package bolt

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net"

	"github.com/orneryd/boltwire/pkg/chunk"
	"github.com/orneryd/boltwire/pkg/packstream"
)

// handshake magic and proposed versions (spec §4.3.1). Only version 1 is
// offered; the other three u32 slots are reserved/zero per the wire format.
var handshakeMagic = [4]byte{0x60, 0x60, 0xB0, 0x17}

const proposedVersion = uint32(1)

// pendingResponse is one FIFO slot (spec §3, "Pending response").
type pendingResponse struct {
	requestSig      byte
	detail          []Record
	summary         *Summary
	done            bool
	ignoredByCaller bool
}

// Session is a single Bolt v1 connection. It is not safe for concurrent use
// by more than one goroutine at a time — spec §5 describes it as
// single-threaded cooperative with respect to itself.
type Session struct {
	conn   net.Conn
	writer *chunk.Writer
	reader *chunk.Reader

	sendBuf    bytes.Buffer
	reqOffsets []int
	reqSigs    []byte // parallel to reqOffsets; signature packed at that boundary

	responses     []*pendingResponse
	responsesDone int // absolute id of responses[0]
	fillCursor    int // absolute id of the response fetch_one is currently filling

	streamingInFlight int
	state             State

	remoteVersion uint32
	haveVersion   bool
	serverVersion string

	bookmark string
	busy     bool // held by an open query-result façade (spec §5)

	instrument instrumentHooks
}

// instrumentHooks lets pkg/telemetry observe send/fetch without this package
// importing OpenTelemetry directly; the zero value is entirely inert.
type instrumentHooks struct {
	onSend    func(bytes int)
	onFetch   func(sig byte)
	wrapSend  func(ctx context.Context, fn func() error) error
	wrapFetch func(ctx context.Context, fn func() error) error
}

// NewSession wraps an already-connected net.Conn and performs the Bolt
// handshake. Use Dial for the common case of opening the TCP connection too.
func NewSession(conn net.Conn) (*Session, error) {
	s := &Session{
		conn:   conn,
		writer: chunk.NewWriter(conn),
		reader: chunk.NewReader(conn),
		state:  StateDisconnected,
	}
	if err := s.handshake(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// DialOption configures Dial.
type DialOption func(*dialOptions)

type dialOptions struct{}

// Dial opens a TCP connection to addr and performs the Bolt handshake.
func Dial(ctx context.Context, network, addr string, opts ...DialOption) (*Session, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("bolt: dial %s: %w", addr, err)
	}
	log.Printf("bolt: connected to %s, negotiating handshake", addr)
	s, err := NewSession(conn)
	if err != nil {
		return nil, err
	}
	log.Printf("bolt: handshake with %s accepted version %d", addr, s.remoteVersion)
	return s, nil
}

// handshake performs the 20-byte version negotiation (spec §4.3.1).
func (s *Session) handshake() error {
	var preamble [20]byte
	copy(preamble[0:4], handshakeMagic[:])
	// offer version 1 only; the remaining three u32 slots stay zero.
	preamble[7] = byte(proposedVersion)

	if _, err := s.conn.Write(preamble[:]); err != nil {
		return fmt.Errorf("bolt: handshake write: %w", err)
	}

	var reply [4]byte
	if _, err := readFull(s.conn, reply[:]); err != nil {
		return fmt.Errorf("bolt: handshake read: %w", err)
	}
	version := uint32(reply[0])<<24 | uint32(reply[1])<<16 | uint32(reply[2])<<8 | uint32(reply[3])
	if version == 0 {
		s.state = StateDefunct
		return ErrHandshakeRejected
	}
	s.remoteVersion = version
	s.haveVersion = true
	s.state = StateConnected
	return nil
}

// Bookmark returns the last bookmark recorded via SetBookmark, if any.
func (s *Session) Bookmark() (string, bool) { return s.bookmark, s.bookmark != "" }

// SetBookmark records a new causal-consistency bookmark (spec §3); the
// cypher layer calls this after extracting "bookmark" from a COMMIT summary.
func (s *Session) SetBookmark(b string) { s.bookmark = b }

// RemoteVersion reports the negotiated handshake version, if the handshake
// has completed.
func (s *Session) RemoteVersion() (uint32, bool) { return s.remoteVersion, s.haveVersion }

// ServerVersion reports the server-supplied version string from INIT's
// SUCCESS metadata, if INIT has completed and the server sent one.
func (s *Session) ServerVersion() (string, bool) { return s.serverVersion, s.serverVersion != "" }

// Close closes the underlying connection.
func (s *Session) Close() error { return s.conn.Close() }

// Instrumenter lets a collaborator (pkg/telemetry) observe and wrap this
// session's send/fetch calls without this package importing a tracing SDK.
// Once attached, all four methods are called; Instrument(nil) detaches it.
type Instrumenter interface {
	OnSend(bytes int)
	OnFetch(sig byte)
	WrapSend(ctx context.Context, fn func() error) error
	WrapFetch(ctx context.Context, fn func() error) error
}

// Instrument attaches i to the session. Passing nil restores the no-op
// default.
func (s *Session) Instrument(i Instrumenter) {
	if i == nil {
		s.instrument = instrumentHooks{}
		return
	}
	s.instrument = instrumentHooks{
		onSend:    i.OnSend,
		onFetch:   i.OnFetch,
		wrapSend:  i.WrapSend,
		wrapFetch: i.WrapFetch,
	}
}

// pack serializes v as a PackStream Structure into the send buffer and
// appends a pending response slot (spec §4.3.2). It never transmits.
func (s *Session) pack(sig byte, v packstream.Value, ignored bool) (id int, err error) {
	if s.state == StateDefunct {
		return 0, ErrDefunct
	}
	if err := packstream.NewPacker(&s.sendBuf).Pack(v); err != nil {
		s.state = StateDefunct
		return 0, fmt.Errorf("bolt: pack: %w", err)
	}
	s.reqOffsets = append(s.reqOffsets, s.sendBuf.Len())
	s.reqSigs = append(s.reqSigs, sig)

	s.responses = append(s.responses, &pendingResponse{requestSig: sig, ignoredByCaller: ignored})
	id = s.responsesDone + len(s.responses) - 1

	s.onRequestPacked(sig)
	return id, nil
}

// send walks the packed requests and frames each one through the chunk
// writer, then clears the send buffer (spec §4.3.3).
func (s *Session) send(ctx context.Context) error {
	if s.state == StateDefunct {
		return ErrDefunct
	}
	do := func() error {
		body := s.sendBuf.Bytes()
		start := 0
		total := 0
		for _, end := range s.reqOffsets {
			if err := s.writer.WriteMessage(body[start:end]); err != nil {
				s.state = StateDefunct
				return fmt.Errorf("bolt: send: %w", err)
			}
			total += end - start
			start = end
		}
		if s.instrument.onSend != nil {
			s.instrument.onSend(total)
		}
		return nil
	}

	var err error
	if s.instrument.wrapSend != nil {
		err = s.instrument.wrapSend(ctx, do)
	} else {
		err = do()
	}
	s.sendBuf.Reset()
	s.reqOffsets = s.reqOffsets[:0]
	s.reqSigs = s.reqSigs[:0]
	return err
}

// get resolves an absolute response id to its slot, or ErrUnknownResponse if
// it has already been compacted away or was never issued.
func (s *Session) get(id int) (*pendingResponse, error) {
	idx := id - s.responsesDone
	if idx < 0 || idx >= len(s.responses) {
		return nil, ErrUnknownResponse
	}
	return s.responses[idx], nil
}

// fetchOne reads one framed message and dispatches it onto the response the
// fill cursor currently points to (spec §4.3.4).
func (s *Session) fetchOne() error {
	if s.instrument.wrapFetch != nil {
		return s.instrument.wrapFetch(context.Background(), s.fetchOneRaw)
	}
	return s.fetchOneRaw()
}

func (s *Session) fetchOneRaw() error {
	if s.state == StateDefunct {
		return ErrDefunct
	}
	body, err := s.reader.ReadMessage()
	if err != nil {
		s.state = StateDefunct
		return fmt.Errorf("bolt: read: %w", err)
	}
	v, err := packstream.Unpack(body)
	if err != nil {
		s.state = StateDefunct
		return fmt.Errorf("bolt: decode: %w", err)
	}
	sig, fields, ok := v.Structure()
	if !ok {
		s.state = StateDefunct
		return fmt.Errorf("%w: message is not a Structure", ErrProtocol)
	}
	if s.instrument.onFetch != nil {
		s.instrument.onFetch(sig)
	}

	target, err := s.get(s.fillCursor)
	if err != nil {
		s.state = StateDefunct
		return fmt.Errorf("bolt: fill cursor %d has no pending response: %w", s.fillCursor, err)
	}

	if sig == packstream.SigIgnored && target.requestSig == packstream.SigInit {
		// spec §9 open question: an IGNORED reply to INIT is undefined in
		// the upstream driver (it panics there); treated here as fatal.
		s.state = StateDefunct
		return fmt.Errorf("%w: IGNORED response to INIT", ErrProtocol)
	}

	switch sig {
	case packstream.SigRecord:
		if len(fields) != 1 {
			s.state = StateDefunct
			return fmt.Errorf("%w: RECORD with %d fields, want 1", ErrProtocol, len(fields))
		}
		recFields, ok := fields[0].List()
		if !ok {
			s.state = StateDefunct
			return fmt.Errorf("%w: RECORD field is not a List", ErrProtocol)
		}
		target.detail = append(target.detail, Record{Fields: recFields})
		return nil
	case packstream.SigSuccess, packstream.SigIgnored, packstream.SigFailure:
		meta := map[string]packstream.Value{}
		if len(fields) == 1 {
			if m, ok := fields[0].Map(); ok {
				meta = m
			}
		}
		kind := SummarySuccess
		switch sig {
		case packstream.SigIgnored:
			kind = SummaryIgnored
		case packstream.SigFailure:
			kind = SummaryFailure
		}
		target.summary = &Summary{Kind: kind, Metadata: meta}
		if target.requestSig == packstream.SigReset {
			// RESET discards every response packed before it client-side.
			for _, earlier := range s.responses[:s.fillCursor-s.responsesDone] {
				earlier.done = true
			}
		}
		if sig == packstream.SigSuccess && target.requestSig == packstream.SigInit {
			if sv, ok := meta["server"]; ok {
				if str, ok := sv.Str(); ok {
					s.serverVersion = str
				}
			}
		}
		s.fillCursor++
		s.onResponseComplete(target)
		s.compact()
		return nil
	default:
		s.state = StateDefunct
		return fmt.Errorf("%w: unexpected signature 0x%02X", ErrProtocol, sig)
	}
}

// FetchRecord drives fetchOne until either a buffered record is available
// for id or its summary has arrived (spec §4.3.5).
func (s *Session) FetchRecord(id int) (Record, bool, error) {
	for {
		target, err := s.get(id)
		if err != nil {
			return Record{}, false, err
		}
		if len(target.detail) > 0 {
			rec := target.detail[0]
			target.detail = target.detail[1:]
			return rec, true, nil
		}
		if target.summary != nil {
			return Record{}, false, nil
		}
		if err := s.fetchOne(); err != nil {
			return Record{}, false, err
		}
	}
}

// FetchSummary drives fetchOne until id's summary has arrived, then marks it
// done and attempts compaction (spec §4.3.5, §4.3.6).
func (s *Session) FetchSummary(id int) (*Summary, error) {
	target, err := s.get(id)
	if err != nil {
		return nil, err
	}
	// target is held by pointer, so it stays valid even when fetchOne
	// compacts an ignored slot away the moment its summary arrives.
	for target.summary == nil {
		if err := s.fetchOne(); err != nil {
			return nil, err
		}
	}
	target.done = true
	s.compact()
	return target.summary, nil
}

// compact drops consecutive done entries from the head of the FIFO,
// advancing responsesDone without renumbering outstanding ids (spec §4.3.6).
func (s *Session) compact() {
	i := 0
	for i < len(s.responses) && s.responses[i].done {
		i++
	}
	if i == 0 {
		return
	}
	s.responses = s.responses[i:]
	s.responsesDone += i
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
