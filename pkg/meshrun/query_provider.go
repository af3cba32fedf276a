package meshrun

import (
	"context"
	"io"

	"github.com/cuemby/meshrun/meshpb"
	"github.com/cuemby/meshrun/pkg/diag"
	"github.com/cuemby/meshrun/pkg/log"
	"github.com/cuemby/meshrun/pkg/metrics"
)

// QueryProvider serves the queries registered against a query
// registry: no replay, no append, one response plus one completion
// marker per query.
type QueryProvider struct {
	handle   *ConnectionHandle
	cfg      Config
	registry *Registry[struct{}, *meshpb.SerializedObject]
	bus      *diag.Bus
}

// NewQueryProvider builds a query provider over handle using registry.
func NewQueryProvider(handle *ConnectionHandle, cfg Config, registry *Registry[struct{}, *meshpb.SerializedObject], bus *diag.Bus) *QueryProvider {
	return &QueryProvider{handle: handle, cfg: cfg, registry: registry, bus: bus}
}

type queryResult struct {
	requestID string
	payload   *meshpb.SerializedObject
	errMsg    string
}

// Run opens the query stream and serves it until ctx is canceled or
// the broker closes the stream.
func (p *QueryProvider) Run(ctx context.Context) error {
	logger := log.WithComponent("query-provider")
	client := meshpb.NewQueryServiceClient(p.handle.Conn)
	stream, err := client.OpenStream(ctx)
	if err != nil {
		return err
	}

	names := p.registry.Names()
	for _, name := range names {
		if err := stream.Send(&meshpb.QueryProviderOutbound{
			InstructionID: newInstructionID(),
			Subscribe: &meshpb.QuerySubscription{
				MessageID:     newInstructionID(),
				Query:         name,
				ClientID:      p.handle.ClientID,
				ComponentName: p.cfg.ComponentName(),
			},
		}); err != nil {
			return err
		}
		p.notify(diag.KindSubscribed, name, "")
	}
	metrics.Subscriptions.WithLabelValues("query").Set(float64(len(names)))

	session := newPermitSession(p.cfg.PermitBatchSize)
	if err := stream.Send(&meshpb.QueryProviderOutbound{
		InstructionID: newInstructionID(),
		FlowControl:   &meshpb.FlowControl{ClientID: p.handle.ClientID, Permits: session.permits},
	}); err != nil {
		return err
	}
	metrics.Permits.WithLabelValues("query").Set(float64(session.permits))

	results := make(chan queryResult, p.cfg.ResponseQueueCapacity)
	go p.outboundLoop(stream, session, results)

	for {
		in, err := stream.Recv()
		if err == io.EOF {
			close(results)
			return nil
		}
		if err != nil {
			close(results)
			return err
		}
		if in.Query == nil {
			continue
		}
		go p.handleQuery(in.Query, results)
		logger.Debug().Str("query", in.Query.Query).Msg("dispatched query")
	}
}

func (p *QueryProvider) outboundLoop(stream meshpb.QueryService_OpenStreamClient, session *permitSession, results <-chan queryResult) {
	for r := range results {
		resp := &meshpb.QueryResponse{
			MessageIdentifier: newInstructionID(),
			RequestIdentifier: r.requestID,
			Payload:           r.payload,
		}
		if r.errMsg != "" {
			resp.ErrorCode = "ERROR"
			resp.ErrorMessage = &meshpb.ErrorMessage{Message: r.errMsg}
		}

		_ = stream.Send(&meshpb.QueryProviderOutbound{
			InstructionID: newInstructionID(),
			QueryResponse: resp,
		})
		_ = stream.Send(&meshpb.QueryProviderOutbound{
			InstructionID: newInstructionID(),
			QueryComplete: &meshpb.QueryComplete{MessageID: newInstructionID(), RequestID: r.requestID},
		})

		if by := session.consumeOne(); by > 0 {
			_ = stream.Send(&meshpb.QueryProviderOutbound{
				InstructionID: newInstructionID(),
				FlowControl:   &meshpb.FlowControl{ClientID: p.handle.ClientID, Permits: by},
			})
			metrics.FlowControlGrantsTotal.WithLabelValues("query").Inc()
		}
		metrics.Permits.WithLabelValues("query").Set(float64(session.permits))
	}
}

func (p *QueryProvider) handleQuery(q *meshpb.QueryRequest, results chan<- queryResult) {
	res := queryResult{requestID: q.MessageIdentifier}

	entry, ok := p.registry.Get(q.Query)
	if !ok {
		res.errMsg = (&ErrHandlerMissing{Name: q.Query}).Error()
		metrics.QueriesHandledTotal.WithLabelValues(q.Query, "error").Inc()
		p.notify(diag.KindQueryFailed, q.Query, res.errMsg)
		results <- res
		return
	}

	var data []byte
	if q.Payload != nil {
		data = q.Payload.Data
	}

	payload, err := entry.handle(data, struct{}{})
	if err != nil {
		res.errMsg = err.Error()
		metrics.QueriesHandledTotal.WithLabelValues(q.Query, "error").Inc()
		p.notify(diag.KindQueryFailed, q.Query, err.Error())
	} else {
		res.payload = payload
		metrics.QueriesHandledTotal.WithLabelValues(q.Query, "ok").Inc()
		p.notify(diag.KindQueryHandled, q.Query, "")
	}

	results <- res
}

func (p *QueryProvider) notify(kind diag.Kind, subject, message string) {
	if p.bus == nil {
		return
	}
	p.bus.Publish(&diag.Notification{Kind: kind, Subject: subject, Message: message})
}
