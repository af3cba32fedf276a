package meshrun

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/cuemby/meshrun/meshpb"
	"github.com/cuemby/meshrun/pkg/metrics"
)

// SubmitClient is the point-to-point producer path (C8): send a
// command or query to another service through the mesh and collect
// its response(s), independent of the provider worker loops.
type SubmitClient struct {
	handle   *ConnectionHandle
	cfg      Config
	commands meshpb.CommandServiceClient
	queries  meshpb.QueryServiceClient
}

// NewSubmitClient builds a SubmitClient over handle.
func NewSubmitClient(handle *ConnectionHandle, cfg Config) *SubmitClient {
	return &SubmitClient{
		handle:   handle,
		cfg:      cfg,
		commands: meshpb.NewCommandServiceClient(handle.Conn),
		queries:  meshpb.NewQueryServiceClient(handle.Conn),
	}
}

// SendCommand wraps data as a SerializedObject tagged typeName and
// dispatches it unary. It returns the response payload, which may be
// nil for a command whose handler produced no response.
func (c *SubmitClient) SendCommand(ctx context.Context, typeName string, data []byte) (*meshpb.SerializedObject, error) {
	resp, err := c.commands.Dispatch(ctx, &meshpb.Command{
		MessageID:     uuid.NewString(),
		Name:          typeName,
		Payload:       &meshpb.SerializedObject{TypeName: typeName, Data: data},
		ClientID:      c.handle.ClientID,
		ComponentName: c.cfg.ComponentName(),
	})
	if err != nil {
		metrics.CommandsSubmittedTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("submit command %q: %w", typeName, err)
	}
	if resp.ErrorCode != "" {
		metrics.CommandsSubmittedTotal.WithLabelValues("error").Inc()
		msg := ""
		if resp.ErrorMessage != nil {
			msg = resp.ErrorMessage.Message
		}
		return nil, fmt.Errorf("submit command %q: %s: %s", typeName, resp.ErrorCode, msg)
	}
	metrics.CommandsSubmittedTotal.WithLabelValues("ok").Inc()
	return resp.Payload, nil
}

// SendQuery wraps data as a SerializedObject tagged typeName and
// submits it, collecting every streamed response into an ordered
// list until the server closes the stream. A nil data payload and an
// empty result list are both legal.
func (c *SubmitClient) SendQuery(ctx context.Context, typeName string, data []byte) ([]*meshpb.SerializedObject, error) {
	req := &meshpb.QueryRequest{
		MessageIdentifier: uuid.NewString(),
		Query:             typeName,
		ClientID:          c.handle.ClientID,
		ComponentName:     c.cfg.ComponentName(),
	}
	if data != nil {
		req.Payload = &meshpb.SerializedObject{TypeName: typeName, Data: data}
	}

	stream, err := c.queries.Query(ctx, req)
	if err != nil {
		metrics.QueriesSubmittedTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("submit query %q: %w", typeName, err)
	}

	var results []*meshpb.SerializedObject
	for {
		resp, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			metrics.QueriesSubmittedTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("submit query %q: %w", typeName, err)
		}
		if resp.ErrorCode != "" {
			metrics.QueriesSubmittedTotal.WithLabelValues("error").Inc()
			msg := ""
			if resp.ErrorMessage != nil {
				msg = resp.ErrorMessage.Message
			}
			return nil, fmt.Errorf("submit query %q: %s: %s", typeName, resp.ErrorCode, msg)
		}
		if resp.Payload != nil {
			results = append(results, resp.Payload)
		}
	}

	metrics.QueriesSubmittedTotal.WithLabelValues("ok").Inc()
	return results, nil
}
