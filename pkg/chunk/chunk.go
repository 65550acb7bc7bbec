// Package chunk implements Bolt's message framing: a message body is split
// into one or more length-prefixed chunks and terminated by a zero-length
// chunk (spec §4.2). The framer is transport-agnostic — it only needs an
// io.Reader/io.Writer — and stateless across messages.
package chunk

import (
	"encoding/binary"
	"errors"
	"io"
	"log"

	"github.com/dustin/go-humanize"
)

// MaxChunkSize is the largest payload a single chunk may carry; the u16
// length prefix cannot express more.
const MaxChunkSize = 65535

// terminator is the two-byte zero-length chunk marking end-of-message.
var terminator = [2]byte{0x00, 0x00}

// ErrZeroLengthChunk is returned if a caller tries to write a zero-length
// chunk as anything but the terminator — spec §4.2 forbids that shape.
var ErrZeroLengthChunk = errors.New("chunk: zero-length chunk is reserved for the terminator")

// Options configure a Writer or Reader.
type Options struct {
	maxChunkSize int
}

// Option mutates Options.
type Option func(*Options)

// WithMaxChunkSize overrides the default 65535-byte chunk cap. Only useful
// for tests that want to exercise multi-chunk framing without allocating
// real 64KB+ payloads.
func WithMaxChunkSize(n int) Option {
	return func(o *Options) {
		if n > 0 && n <= MaxChunkSize {
			o.maxChunkSize = n
		}
	}
}

func newOptions(opts []Option) Options {
	o := Options{maxChunkSize: MaxChunkSize}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Writer frames message bodies onto an underlying io.Writer.
type Writer struct {
	w    io.Writer
	opts Options
	hdr  [2]byte
}

// NewWriter returns a Writer that frames onto w.
func NewWriter(w io.Writer, opts ...Option) *Writer {
	return &Writer{w: w, opts: newOptions(opts)}
}

// WriteMessage splits body into chunks of at most the configured max size,
// writes them each prefixed by a big-endian u16 length, then writes the
// terminator. Spec §4.2: "messages larger than 65535 bytes are split across
// multiple chunks transparently."
func (w *Writer) WriteMessage(body []byte) error {
	total := len(body)
	var sizes []int
	for len(body) > 0 {
		n := len(body)
		if n > w.opts.maxChunkSize {
			n = w.opts.maxChunkSize
		}
		if err := w.writeChunk(body[:n]); err != nil {
			return err
		}
		sizes = append(sizes, n)
		body = body[n:]
	}
	if len(sizes) > 1 {
		log.Printf("chunk: split %s message into %d chunks (%s)", humanize.Bytes(uint64(total)), len(sizes), describeSizes(sizes))
	}
	if _, err := w.w.Write(terminator[:]); err != nil {
		return err
	}
	return nil
}

func describeSizes(sizes []int) string {
	parts := make([]string, len(sizes))
	for i, n := range sizes {
		parts[i] = humanize.Bytes(uint64(n))
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += " + " + p
	}
	return out
}

func (w *Writer) writeChunk(payload []byte) error {
	if len(payload) == 0 {
		return ErrZeroLengthChunk
	}
	binary.BigEndian.PutUint16(w.hdr[:], uint16(len(payload)))
	if _, err := w.w.Write(w.hdr[:]); err != nil {
		return err
	}
	_, err := w.w.Write(payload)
	return err
}

// Reader reassembles one message body at a time from an underlying
// io.Reader's chunk stream.
type Reader struct {
	r   io.Reader
	hdr [2]byte
}

// NewReader returns a Reader reading chunks from r.
func NewReader(r io.Reader, opts ...Option) *Reader {
	// opts currently only affects the writer side; accepted here for a
	// symmetric constructor signature in case a future reader-side limit is
	// added (e.g. a max total message size).
	_ = newOptions(opts)
	return &Reader{r: r}
}

// ReadMessage reads chunks until the zero-length terminator, concatenating
// their payloads into a single message body.
func (r *Reader) ReadMessage() ([]byte, error) {
	var body []byte
	for {
		if _, err := io.ReadFull(r.r, r.hdr[:]); err != nil {
			return nil, err
		}
		size := binary.BigEndian.Uint16(r.hdr[:])
		if size == 0 {
			return body, nil
		}
		chunk := make([]byte, size)
		if _, err := io.ReadFull(r.r, chunk); err != nil {
			return nil, err
		}
		body = append(body, chunk...)
	}
}
