package audit

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bufbuild/connect-go"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kayneai/code-auditor/internal/observability"
	"github.com/kayneai/code-auditor/internal/rpc"
	"github.com/kayneai/code-auditor/internal/rpc/connectjson"
)

func TestConnectHandlerStreamsEvents(t *testing.T) {
	runner := &stubRunner{events: []rpc.AuditEvent{
		{Type: "message", Message: "starting"},
		{Type: "done", Reason: "success", Done: true},
	}}
	path, handler := NewConnectHandler(runner, observability.NewMetrics())
	mux := http.NewServeMux()
	mux.Handle(path, handler)

	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot open listener in sandbox: %v", err)
	}

	server := httptest.NewUnstartedServer(h2c.NewHandler(mux, &http2.Server{}))
	server.Listener = ln
	server.Start()
	t.Cleanup(server.Close)

	client := connect.NewClient[rpc.AuditStreamRequest, rpc.AuditEvent](
		&http.Client{
			Transport: &http2.Transport{
				AllowHTTP: true,
				DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, network, addr)
				},
			},
		},
		server.URL+path,
		connect.WithCodec(connectjson.Codec{}),
	)

	stream := client.CallBidiStream(context.Background())
	require.NoError(t, stream.Send(&rpc.AuditStreamRequest{
		Run: &rpc.RunAuditRequest{RunID: "run-1", Path: "/tmp/project"},
	}))
	require.NoError(t, stream.CloseRequest())

	var doneSeen bool
	for {
		evt, err := stream.Receive()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		if evt.Type == "done" {
			doneSeen = true
			require.Equal(t, "run-1", evt.RunID)
			require.Equal(t, "success", evt.Reason)
		}
	}
	require.NoError(t, stream.CloseResponse())
	require.True(t, doneSeen)
}

func TestSendEventsDrainsAfterFailure(t *testing.T) {
	events := make(chan rpc.AuditEvent, 2)
	produced := make(chan struct{})
	go func() {
		defer close(produced)
		defer close(events)
		for i := 0; i < 32; i++ {
			events <- rpc.AuditEvent{Type: "message"}
		}
	}()

	var cancelled bool
	sent := 0
	err := sendEvents(events, func(*rpc.AuditEvent) error {
		sent++
		if sent > 1 {
			return errors.New("peer closed the stream")
		}
		return nil
	}, func() { cancelled = true })

	require.Error(t, err)
	require.True(t, cancelled)
	select {
	case <-produced:
	case <-time.After(2 * time.Second):
		t.Fatal("producer still blocked after send failure")
	}
}
