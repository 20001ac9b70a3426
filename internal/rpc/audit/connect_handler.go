package audit

import (
	"context"
	"errors"
	"net/http"

	"github.com/bufbuild/connect-go"
	"github.com/google/uuid"

	"github.com/kayneai/code-auditor/internal/observability"
	"github.com/kayneai/code-auditor/internal/rpc"
	"github.com/kayneai/code-auditor/internal/rpc/connectjson"
)

const ConnectRunAuditProcedure = "/connect.auditor.v1.AuditService/RunAudit"

// NewConnectHandler builds a Connect bidi stream handler for RunAudit.
func NewConnectHandler(runner Runner, metrics *observability.Metrics) (string, http.Handler) {
	h := &connectRunHandler{runner: runner, metrics: metrics}
	return ConnectRunAuditProcedure, connect.NewBidiStreamHandler(ConnectRunAuditProcedure, h.handle, connect.WithCodec(connectjson.Codec{}))
}

type connectRunHandler struct {
	runner  Runner
	metrics *observability.Metrics
}

func (h *connectRunHandler) handle(ctx context.Context, stream *connect.BidiStream[rpc.AuditStreamRequest, rpc.AuditEvent]) error {
	h.metrics.IncActiveStreams("connect")
	defer h.metrics.DecActiveStreams("connect")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	first, err := stream.Receive()
	if err != nil {
		return err
	}
	if first == nil || first.Run == nil {
		return connect.NewError(connect.CodeInvalidArgument, errors.New("first message must include run payload"))
	}

	req := *first.Run
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}

	// Listen for cancellation messages from the client.
	go func() {
		for {
			msg, recvErr := stream.Receive()
			if recvErr != nil {
				cancel()
				return
			}
			if msg != nil && msg.Cancel {
				cancel()
				return
			}
		}
	}()

	httpReq := &http.Request{}
	httpReq = httpReq.WithContext(ctx)

	events, runErr := h.runner.Run(httpReq, req)
	if runErr != nil {
		return connect.NewError(connect.CodeInvalidArgument, runErr)
	}

	return sendEvents(events, stream.Send, cancel)
}

// sendEvents forwards events to the client. On a send failure it stops
// the run and drains the channel so the runner goroutine is never left
// blocked on a full buffer.
func sendEvents(events <-chan rpc.AuditEvent, send func(*rpc.AuditEvent) error, cancel context.CancelFunc) error {
	for ev := range events {
		if err := send(&ev); err != nil {
			cancel()
			for range events {
			}
			return err
		}
	}
	return nil
}
