package meshrun

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/google/uuid"

	"github.com/cuemby/meshrun/meshpb"
	"github.com/cuemby/meshrun/pkg/metrics"
)

// EventStore wraps an EventStoreClient with the three operations the
// command provider (C5) needs. Listing counts replayed events and a
// successful append counts appended events; reading the highest
// sequence number records no metric.
type EventStore struct {
	client meshpb.EventStoreClient
}

// NewEventStore wraps an existing EventStoreClient.
func NewEventStore(client meshpb.EventStoreClient) *EventStore {
	return &EventStore{client: client}
}

// ListAggregateEvents returns every event for aggregateID in sequence
// order.
func (s *EventStore) ListAggregateEvents(ctx context.Context, aggregateID string) ([]*meshpb.Event, error) {
	return s.ListAggregateEventsFrom(ctx, aggregateID, 0)
}

// ListAggregateEventsFrom is ListAggregateEvents starting at
// initialSequence instead of 0, used to replay only the events a
// cached projection has not yet folded in.
func (s *EventStore) ListAggregateEventsFrom(ctx context.Context, aggregateID string, initialSequence int64) ([]*meshpb.Event, error) {
	stream, err := s.client.ListAggregateEvents(ctx, &meshpb.GetAggregateEventsRequest{
		AggregateID:     aggregateID,
		AllowSnapshots:  false,
		InitialSequence: initialSequence,
		MaxSequence:     math.MaxInt64,
		MinToken:        0,
	})
	if err != nil {
		return nil, fmt.Errorf("list aggregate events for %q: %w", aggregateID, err)
	}

	var events []*meshpb.Event
	for {
		event, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list aggregate events for %q: %w", aggregateID, err)
		}
		events = append(events, event)
		metrics.EventsReplayedTotal.Inc()
	}
	return events, nil
}

// ReadHighestSequenceNr returns the highest aggregate_seq appended for
// aggregateID, or -1 if it has no events.
func (s *EventStore) ReadHighestSequenceNr(ctx context.Context, aggregateID string) (int64, error) {
	resp, err := s.client.ReadHighestSequenceNr(ctx, &meshpb.ReadHighestSequenceNrRequest{
		AggregateID: aggregateID,
		From:        0,
	})
	if err != nil {
		return 0, fmt.Errorf("read highest sequence nr for %q: %w", aggregateID, err)
	}
	return resp.ToSequenceNr, nil
}

// Append appends events atomically for one aggregate. It assigns
// successive sequence numbers starting at highestSeq+1, sharing one
// message id and timestamp across the whole batch.
func (s *EventStore) Append(ctx context.Context, aggregateType, aggregateID string, highestSeq int64, timestampMs int64, events []ApplicableEvent) error {
	if len(events) == 0 {
		return nil
	}

	stream, err := s.client.AppendEvent(ctx)
	if err != nil {
		return &AppendRejection{AggregateID: aggregateID, Err: err}
	}

	messageID := uuid.NewString()
	for i, e := range events {
		wireEvent := &meshpb.Event{
			MessageID:               messageID,
			Timestamp:               timestampMs,
			AggregateIdentifier:     aggregateID,
			AggregateSequenceNumber: highestSeq + int64(i) + 1,
			AggregateType:           aggregateType,
			Payload:                 &meshpb.SerializedObject{TypeName: e.TypeName, Data: e.Data},
		}
		if err := stream.Send(wireEvent); err != nil {
			return &AppendRejection{AggregateID: aggregateID, Err: err}
		}
	}

	if err := stream.CloseSend(); err != nil {
		return &AppendRejection{AggregateID: aggregateID, Err: err}
	}
	confirmation, err := stream.Recv()
	if err != nil {
		return &AppendRejection{AggregateID: aggregateID, Err: err}
	}
	if !confirmation.Success {
		return &AppendRejection{AggregateID: aggregateID, Err: fmt.Errorf("broker rejected the append")}
	}

	metrics.EventsAppendedTotal.WithLabelValues(aggregateType).Add(float64(len(events)))
	return nil
}
