package meshrun

import (
	"context"
	"io"
	"time"

	"github.com/cuemby/meshrun/meshpb"
	"github.com/cuemby/meshrun/pkg/diag"
	"github.com/cuemby/meshrun/pkg/log"
	"github.com/cuemby/meshrun/pkg/metrics"
)

// CommandProvider serves the commands registered against one
// AggregateDefinition: subscribe, then for every inbound command,
// replay the aggregate's history, dispatch the handler, append any
// emitted events, and reply.
type CommandProvider[P any] struct {
	handle *ConnectionHandle
	cfg    Config
	def    *AggregateDefinition[P]
	store  *EventStore
	bus    *diag.Bus
	cache  *SnapshotCache[P]
}

// NewCommandProvider builds a command provider for def over handle.
// bus may be nil if the caller does not want lifecycle notifications.
func NewCommandProvider[P any](handle *ConnectionHandle, cfg Config, def *AggregateDefinition[P], bus *diag.Bus) *CommandProvider[P] {
	return &CommandProvider[P]{
		handle: handle,
		cfg:    cfg,
		def:    def,
		store:  NewEventStore(meshpb.NewEventStoreClient(handle.Conn)),
		bus:    bus,
	}
}

// WithSnapshotCache enables the opt-in projection cache, disabled by
// default. Call it once after NewCommandProvider, before Run.
func (p *CommandProvider[P]) WithSnapshotCache(capacity int) *CommandProvider[P] {
	p.cache = NewSnapshotCache[P](capacity)
	return p
}

// commandResult is what one inbound command's handling produces, queued for
// the outbound loop to turn into a wire CommandResponse.
type commandResult struct {
	requestID string
	payload   *meshpb.SerializedObject
	errMsg    string
}

// Run opens the command stream and serves it until ctx is canceled or
// the broker closes the stream; the caller is expected to call Run
// again to resume serving.
func (p *CommandProvider[P]) Run(ctx context.Context) error {
	logger := log.WithComponent("command-provider")
	client := meshpb.NewCommandServiceClient(p.handle.Conn)
	stream, err := client.OpenStream(ctx)
	if err != nil {
		return err
	}

	names := p.def.Commands.Names()
	for _, name := range names {
		if err := stream.Send(&meshpb.CommandProviderOutbound{
			InstructionID: newInstructionID(),
			Subscribe: &meshpb.CommandSubscription{
				MessageID:     newInstructionID(),
				Command:       name,
				ClientID:      p.handle.ClientID,
				ComponentName: p.cfg.ComponentName(),
				LoadFactor:    p.cfg.CommandLoadFactor,
			},
		}); err != nil {
			return err
		}
		p.notify(diag.KindSubscribed, name, "")
	}
	metrics.Subscriptions.WithLabelValues("command").Set(float64(len(names)))

	session := newPermitSession(p.cfg.PermitBatchSize)
	if err := stream.Send(&meshpb.CommandProviderOutbound{
		InstructionID: newInstructionID(),
		FlowControl:   &meshpb.FlowControl{ClientID: p.handle.ClientID, Permits: session.permits},
	}); err != nil {
		return err
	}
	metrics.Permits.WithLabelValues("command").Set(float64(session.permits))

	results := make(chan commandResult, p.cfg.ResponseQueueCapacity)

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
		if in.Command == nil {
			continue
		}
		go p.handleCommand(ctx, in.Command, results)
		logger.Debug().Str("command", in.Command.Name).Msg("dispatched command")
	}
}

func (p *CommandProvider[P]) outboundLoop(stream meshpb.CommandService_OpenStreamClient, session *permitSession, results <-chan commandResult) {
	for r := range results {
		resp := &meshpb.CommandResponse{
			MessageID:         newInstructionID(),
			RequestIdentifier: r.requestID,
			Payload:           r.payload,
			ClientID:          p.handle.ClientID,
			ComponentName:     p.cfg.ComponentName(),
		}
		if r.errMsg != "" {
			resp.ErrorCode = "ERROR"
			resp.ErrorMessage = &meshpb.ErrorMessage{Message: r.errMsg}
		}

		_ = stream.Send(&meshpb.CommandProviderOutbound{
			InstructionID:   newInstructionID(),
			CommandResponse: resp,
		})

		if by := session.consumeOne(); by > 0 {
			_ = stream.Send(&meshpb.CommandProviderOutbound{
				InstructionID: newInstructionID(),
				FlowControl:   &meshpb.FlowControl{ClientID: p.handle.ClientID, Permits: by},
			})
			metrics.FlowControlGrantsTotal.WithLabelValues("command").Inc()
		}
		metrics.Permits.WithLabelValues("command").Set(float64(session.permits))
	}
}

func (p *CommandProvider[P]) handleCommand(ctx context.Context, cmd *meshpb.Command, results chan<- commandResult) {
	timer := metrics.NewTimer()
	res := commandResult{requestID: cmd.MessageID}

	payload, err := p.dispatch(ctx, cmd)
	timer.ObserveDurationVec(metrics.CommandHandleDuration, cmd.Name)

	if err != nil {
		res.errMsg = err.Error()
		metrics.CommandsHandledTotal.WithLabelValues(cmd.Name, "error").Inc()
		p.notify(diag.KindCommandFailed, cmd.Name, err.Error())
	} else {
		res.payload = payload
		metrics.CommandsHandledTotal.WithLabelValues(cmd.Name, "ok").Inc()
		p.notify(diag.KindCommandHandled, cmd.Name, "")
	}

	results <- res
}

func (p *CommandProvider[P]) dispatch(ctx context.Context, cmd *meshpb.Command) (*meshpb.SerializedObject, error) {
	entry, ok := p.def.Commands.Get(cmd.Name)
	if !ok {
		return nil, &ErrHandlerMissing{Name: cmd.Name}
	}

	aggregateID, err := aggregateIdentifierOf(cmd.Payload.Data)
	if err != nil {
		return nil, &DecodeError{TypeName: cmd.Name, Err: err}
	}

	projection, baseSeq, err := p.replay(ctx, aggregateID)
	if err != nil {
		return nil, err
	}

	out, err := entry.handle(cmd.Payload.Data, projection)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, nil
	}

	if len(out.Events) > 0 {
		targetID := out.AggregateID
		if targetID == "" {
			targetID = aggregateID
		}
		highest, err := p.store.ReadHighestSequenceNr(ctx, targetID)
		if err != nil {
			return nil, err
		}
		if err := p.store.Append(ctx, p.def.ProjectionName, targetID, highest, time.Now().UnixMilli(), out.Events); err != nil {
			metrics.AppendRejectionsTotal.WithLabelValues(p.def.ProjectionName).Inc()
			if p.cache != nil {
				p.cache.Invalidate(targetID)
			}
			p.notify(diag.KindAppendRejected, targetID, err.Error())
			return nil, err
		}
		if p.cache != nil && targetID == aggregateID {
			p.refreshCache(aggregateID, projection, baseSeq, out.Events)
		}
	}

	return out.Response, nil
}

// replay returns the projection for aggregateID and the sequence
// number it reflects, using the snapshot cache when enabled to avoid
// refetching events already folded in.
func (p *CommandProvider[P]) replay(ctx context.Context, aggregateID string) (P, int64, error) {
	if p.cache != nil {
		if cached, highestSeq, ok := p.cache.Get(aggregateID); ok {
			events, err := p.store.ListAggregateEventsFrom(ctx, aggregateID, highestSeq+1)
			if err != nil {
				var zero P
				return zero, 0, err
			}
			projection, err := p.def.ReplayOnto(cached, events)
			if err != nil {
				var zero P
				return zero, 0, err
			}
			return projection, highestSeq + int64(len(events)), nil
		}
	}

	events, err := p.store.ListAggregateEvents(ctx, aggregateID)
	if err != nil {
		var zero P
		return zero, 0, err
	}
	projection, err := p.def.Replay(events)
	if err != nil {
		var zero P
		return zero, 0, err
	}
	return projection, int64(len(events)) - 1, nil
}

func (p *CommandProvider[P]) refreshCache(aggregateID string, projection P, baseSeq int64, newEvents []ApplicableEvent) {
	for _, e := range newEvents {
		entry, ok := p.def.Sourcing.Get(e.TypeName)
		if !ok {
			return
		}
		updated, err := entry.apply(e.Data, projection)
		if err != nil {
			return
		}
		projection = updated
		baseSeq++
	}
	p.cache.Put(aggregateID, projection, baseSeq)
}

func (p *CommandProvider[P]) notify(kind diag.Kind, subject, message string) {
	if p.bus == nil {
		return
	}
	p.bus.Publish(&diag.Notification{Kind: kind, Subject: subject, Message: message})
}
