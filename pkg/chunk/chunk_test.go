package chunk

import (
	"bytes"
	"io"
	"testing"
)

func TestRoundTripSmallMessage(t *testing.T) {
	var buf bytes.Buffer
	body := []byte("hello, bolt")
	if err := NewWriter(&buf).WriteMessage(body); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	got, err := NewReader(&buf).ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Fatalf("got %q, want %q", got, body)
	}
}

func TestTerminatorShape(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriter(&buf).WriteMessage([]byte("x")); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	b := buf.Bytes()
	// header(2) + 1 payload byte + terminator(2)
	if len(b) != 5 {
		t.Fatalf("framed length = %d, want 5", len(b))
	}
	if b[len(b)-2] != 0 || b[len(b)-1] != 0 {
		t.Fatalf("missing zero-length terminator: %x", b)
	}
}

func TestChunkBoundaryExactMultiple(t *testing.T) {
	const chunkSize = 100
	body := bytes.Repeat([]byte{0xAB}, chunkSize*3) // exactly 3 full chunks, no remainder
	var buf bytes.Buffer
	if err := NewWriter(&buf, WithMaxChunkSize(chunkSize)).WriteMessage(body); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	chunks := 0
	for {
		var hdr [2]byte
		if _, err := io.ReadFull(&buf, hdr[:]); err != nil {
			t.Fatalf("reading header %d: %v", chunks, err)
		}
		size := int(hdr[0])<<8 | int(hdr[1])
		if size == 0 {
			break
		}
		chunks++
		payload := make([]byte, size)
		if _, err := io.ReadFull(&buf, payload); err != nil {
			t.Fatalf("reading payload %d: %v", chunks, err)
		}
		if size != chunkSize {
			t.Errorf("chunk %d size = %d, want %d", chunks, size, chunkSize)
		}
	}
	if chunks != 3 {
		t.Fatalf("got %d chunks, want 3", chunks)
	}
}

func TestChunkBoundaryWithRemainder(t *testing.T) {
	const chunkSize = 65535
	body := make([]byte, chunkSize*2+4465) // two full chunks + a remainder chunk
	var buf bytes.Buffer
	if err := NewWriter(&buf).WriteMessage(body); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	got, err := NewReader(&buf).ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if len(got) != len(body) {
		t.Fatalf("got %d bytes, want %d", len(got), len(body))
	}
}

func TestNeverEmitsZeroLengthChunkMidMessage(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, WithMaxChunkSize(4))
	if err := w.WriteMessage([]byte("12345678")); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	b := buf.Bytes()
	pos := 0
	for {
		size := int(b[pos])<<8 | int(b[pos+1])
		pos += 2
		if size == 0 {
			break // terminator, must be the last thing in the stream
		}
		pos += size
	}
	if pos != len(b) {
		t.Fatalf("trailing bytes after terminator: %d remain", len(b)-pos)
	}
}

func TestReaderPropagatesIOErrors(t *testing.T) {
	_, err := NewReader(bytes.NewReader(nil)).ReadMessage()
	if err == nil {
		t.Fatal("expected an error reading from empty stream")
	}
}

func TestWriterRejectsExplicitZeroChunk(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	err := w.writeChunk(nil)
	if err != ErrZeroLengthChunk {
		t.Fatalf("expected ErrZeroLengthChunk, got %v", err)
	}
}
