package meshrun

import (
	"context"
	"fmt"
	"io"

	"github.com/cuemby/meshrun/meshpb"
	"github.com/cuemby/meshrun/pkg/diag"
	"github.com/cuemby/meshrun/pkg/log"
	"github.com/cuemby/meshrun/pkg/metrics"
	"github.com/cuemby/meshrun/pkg/tokenstore"
)

// EventProcessor tracks a durable per-consumer token, streams events
// since that token, dispatches by type, and persists the token after
// each successfully handled event. Ctx is the application context (a
// query model, a projection cache, and so on) handed to every event
// handler; it carries no runtime-imposed shape.
type EventProcessor[Ctx any] struct {
	handle    *ConnectionHandle
	cfg       Config
	processor string
	registry  *Registry[Ctx, struct{}]
	tokens    tokenstore.TokenStore
	newCtx    func() Ctx
	bus       *diag.Bus
}

// NewEventProcessor builds an event processor named processor (used
// both as the TokenStore key and as GetEventsRequest.Processor).
func NewEventProcessor[Ctx any](
	handle *ConnectionHandle,
	cfg Config,
	processor string,
	registry *Registry[Ctx, struct{}],
	tokens tokenstore.TokenStore,
	newCtx func() Ctx,
	bus *diag.Bus,
) *EventProcessor[Ctx] {
	return &EventProcessor[Ctx]{
		handle:    handle,
		cfg:       cfg,
		processor: processor,
		registry:  registry,
		tokens:    tokens,
		newCtx:    newCtx,
		bus:       bus,
	}
}

// Run opens the tracking-token event stream and processes events
// strictly sequentially, one in flight at a time, until the broker
// closes the stream, ctx is canceled, or a handler fails, at which
// point it halts without advancing the token.
func (p *EventProcessor[Ctx]) Run(ctx context.Context) error {
	logger := log.WithComponent("event-processor").With().Str("processor", p.processor).Logger()

	token, found, err := p.tokens.RetrieveToken(ctx, p.processor)
	if err != nil {
		return fmt.Errorf("retrieve token for %q: %w", p.processor, err)
	}
	if !found {
		token = -1
	}

	client := meshpb.NewEventStoreClient(p.handle.Conn)
	stream, err := client.ListEvents(ctx)
	if err != nil {
		return err
	}

	session := newPermitSession(p.cfg.PermitBatchSize)
	if err := stream.Send(&meshpb.GetEventsRequest{
		TrackingToken:   token + 1,
		NumberOfPermits: session.permits,
		ClientID:        p.handle.ClientID,
		ComponentName:   p.cfg.ComponentName(),
		Processor:       p.processor,
	}); err != nil {
		return err
	}
	metrics.Permits.WithLabelValues("event").Set(float64(session.permits))
	metrics.EventProcessorToken.Set(float64(token))

	for {
		in, err := stream.Recv()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		if err := p.handleOne(ctx, in); err != nil {
			metrics.EventProcessorHalted.Set(1)
			p.notify(diag.KindEventProcessorHalted, p.processor, err.Error())
			logger.Error().Err(err).Int64("token", in.Token).Msg("handler failed, halting event processor")
			return err
		}

		if by := session.consumeOne(); by > 0 {
			if err := stream.Send(&meshpb.GetEventsRequest{
				NumberOfPermits: by,
				ClientID:        p.handle.ClientID,
				ComponentName:   p.cfg.ComponentName(),
				Processor:       p.processor,
			}); err != nil {
				return err
			}
			metrics.FlowControlGrantsTotal.WithLabelValues("event").Inc()
		}
		metrics.Permits.WithLabelValues("event").Set(float64(session.permits))
	}
}

func (p *EventProcessor[Ctx]) handleOne(ctx context.Context, in *meshpb.EventWithToken) error {
	typeName := in.Event.Payload.TypeName
	entry, ok := p.registry.Get(typeName)
	if !ok {
		// No handler registered for this type: skip it silently.
		return nil
	}

	if _, err := entry.handle(in.Event.Payload.Data, p.newCtx()); err != nil {
		metrics.EventsProcessedTotal.WithLabelValues(typeName, "error").Inc()
		return err
	}

	if err := p.tokens.StoreToken(ctx, p.processor, in.Token); err != nil {
		metrics.EventsProcessedTotal.WithLabelValues(typeName, "error").Inc()
		return fmt.Errorf("store token %d for %q: %w", in.Token, p.processor, err)
	}

	metrics.EventsProcessedTotal.WithLabelValues(typeName, "ok").Inc()
	metrics.EventProcessorToken.Set(float64(in.Token))
	p.notify(diag.KindEventProcessed, typeName, "")
	return nil
}

func (p *EventProcessor[Ctx]) notify(kind diag.Kind, subject, message string) {
	if p.bus == nil {
		return
	}
	p.bus.Publish(&diag.Notification{Kind: kind, Subject: subject, Message: message})
}
