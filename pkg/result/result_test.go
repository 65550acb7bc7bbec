package result

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orneryd/boltwire/pkg/bolt"
	"github.com/orneryd/boltwire/pkg/chunk"
	"github.com/orneryd/boltwire/pkg/cypher"
	"github.com/orneryd/boltwire/pkg/packstream"
)

func startFakeServer(t *testing.T, server net.Conn, script func(w *chunk.Writer, r *chunk.Reader)) {
	t.Helper()
	go func() {
		var preamble [20]byte
		if _, err := io.ReadFull(server, preamble[:]); err != nil {
			return
		}
		server.Write([]byte{0x00, 0x00, 0x00, 0x01})
		script(chunk.NewWriter(server), chunk.NewReader(server))
		server.Close()
	}()
}

func send(t *testing.T, w *chunk.Writer, v packstream.Value) {
	t.Helper()
	encoded, err := packstream.Pack(v)
	require.NoError(t, err)
	require.NoError(t, w.WriteMessage(encoded))
}

func recv(t *testing.T, r *chunk.Reader) (byte, []packstream.Value) {
	t.Helper()
	body, err := r.ReadMessage()
	require.NoError(t, err)
	v, err := packstream.Unpack(body)
	require.NoError(t, err)
	sig, fields, ok := v.Structure()
	require.True(t, ok)
	return sig, fields
}

func success(meta map[string]packstream.Value) packstream.Value {
	return packstream.Struct(packstream.SigSuccess, []packstream.Value{packstream.Map(meta)})
}

func record(fields ...packstream.Value) packstream.Value {
	return packstream.Struct(packstream.SigRecord, []packstream.Value{packstream.List(fields)})
}

func newTestSession(t *testing.T, script func(w *chunk.Writer, r *chunk.Reader)) *cypher.Session {
	t.Helper()
	client, server := net.Pipe()
	startFakeServer(t, server, script)
	conn, err := bolt.NewSession(client)
	require.NoError(t, err)
	return cypher.WrapBoltSession(conn)
}

func TestResultDrainsOnClose(t *testing.T) {
	s := newTestSession(t, func(w *chunk.Writer, r *chunk.Reader) {
		recv(t, r) // RUN
		send(t, w, success(map[string]packstream.Value{
			"fields": packstream.List([]packstream.Value{packstream.Str("n")}),
		}))
		recv(t, r) // PULL_ALL
		send(t, w, record(packstream.Int(1)))
		send(t, w, record(packstream.Int(2)))
		send(t, w, success(nil))
	})
	defer s.Close()

	stmt, err := s.Run(context.Background(), "MATCH (n) RETURN n", nil)
	require.NoError(t, err)

	res, err := New(stmt)
	require.NoError(t, err)

	keys, err := res.Keys()
	require.NoError(t, err)
	require.Equal(t, []string{"n"}, keys)

	require.NoError(t, res.Close())

	// Closing drains both records plus the terminal summary, and releases
	// the session facade so a second statement can run.
	require.NoError(t, s.Bolt().AcquireFacade())
	s.Bolt().ReleaseFacade()
}

func TestResultForEachStopsAtFirstError(t *testing.T) {
	s := newTestSession(t, func(w *chunk.Writer, r *chunk.Reader) {
		recv(t, r) // RUN
		send(t, w, success(map[string]packstream.Value{
			"fields": packstream.List([]packstream.Value{packstream.Str("n")}),
		}))
		recv(t, r) // PULL_ALL
		send(t, w, record(packstream.Int(1)))
		send(t, w, record(packstream.Int(2)))
		send(t, w, success(nil))
	})
	defer s.Close()

	stmt, err := s.Run(context.Background(), "MATCH (n) RETURN n", nil)
	require.NoError(t, err)

	res, err := New(stmt)
	require.NoError(t, err)
	defer res.Close()

	var seen int
	stop := errors.New("stop after first record")
	err = res.ForEach(func(rec bolt.Record) error {
		seen++
		return stop
	})
	require.ErrorIs(t, err, stop)
	require.Equal(t, 1, seen)
}

func TestAcquireFacadeRejectsConcurrentResult(t *testing.T) {
	s := newTestSession(t, func(w *chunk.Writer, r *chunk.Reader) {
		recv(t, r) // RUN
		send(t, w, success(map[string]packstream.Value{
			"fields": packstream.List([]packstream.Value{packstream.Str("n")}),
		}))
		recv(t, r) // PULL_ALL
		send(t, w, success(nil))
	})
	defer s.Close()

	stmt, err := s.Run(context.Background(), "MATCH (n) RETURN n", nil)
	require.NoError(t, err)

	res, err := New(stmt)
	require.NoError(t, err)
	defer res.Close()

	_, err = New(stmt)
	require.ErrorIs(t, err, bolt.ErrSessionBusy)
}
