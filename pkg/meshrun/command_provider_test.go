package meshrun

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/meshrun/meshpb"
)

type incrementCommand struct {
	AggregateIdentifier string `json:"aggregate_identifier"`
	By                  int    `json:"by"`
}

func newIncrementCommandDef(t *testing.T, failOn int) *AggregateDefinition[counterProjection] {
	def := newCounterDefinition(t)
	require.NoError(t, InsertWithOutput(def.Commands, "counter.increment",
		JSONDecoder[incrementCommand](),
		func(cmd incrementCommand, p counterProjection) (*EmitApplicableEventsAndResponse, error) {
			if cmd.By == failOn {
				return nil, errors.New("refuse to increment by that much")
			}
			event, err := JSONApplicableEvent("counter.incremented", incremented{By: cmd.By})
			if err != nil {
				return nil, err
			}
			resp, err := JSONEncode("counter.incremented.ack", map[string]int{"total": p.Count + cmd.By})
			if err != nil {
				return nil, err
			}
			return &EmitApplicableEventsAndResponse{Events: []ApplicableEvent{event}, Response: resp}, nil
		},
	))
	return def
}

func newCommandFor(t *testing.T, aggregateID string, by int) *meshpb.Command {
	data, err := json.Marshal(incrementCommand{AggregateIdentifier: aggregateID, By: by})
	require.NoError(t, err)
	return &meshpb.Command{
		MessageID: "req-1",
		Name:      "counter.increment",
		Payload:   &meshpb.SerializedObject{TypeName: "counter.increment", Data: data},
	}
}

func TestCommandProvider_DispatchReplaysAppendsAndReplies(t *testing.T) {
	def := newIncrementCommandDef(t, -1)
	fakeClient := &fakeEventStoreClient{
		eventsByAggregate: map[string][]*meshpb.Event{
			"agg-1": {eventOf(t, "counter.incremented", 0, incremented{By: 4})},
		},
		highestSeq: map[string]int64{"agg-1": 0},
	}
	p := &CommandProvider[counterProjection]{
		def:   def,
		store: NewEventStore(fakeClient),
	}

	payload, err := p.dispatch(context.Background(), newCommandFor(t, "agg-1", 3))
	require.NoError(t, err)
	require.NotNil(t, payload)

	var ack map[string]int
	require.NoError(t, json.Unmarshal(payload.Data, &ack))
	assert.Equal(t, 7, ack["total"])
	assert.Len(t, fakeClient.lastAppend.sentMessages(), 1)
}

func TestCommandProvider_DispatchSurfacesHandlerFailure(t *testing.T) {
	def := newIncrementCommandDef(t, 3)
	fakeClient := &fakeEventStoreClient{highestSeq: map[string]int64{"agg-1": -1}}
	p := &CommandProvider[counterProjection]{def: def, store: NewEventStore(fakeClient)}

	_, err := p.dispatch(context.Background(), newCommandFor(t, "agg-1", 3))
	var failure *HandlerFailure
	require.True(t, errors.As(err, &failure))
}

func TestCommandProvider_DispatchUnknownCommandFails(t *testing.T) {
	def := newCounterDefinition(t)
	p := &CommandProvider[counterProjection]{def: def, store: NewEventStore(&fakeEventStoreClient{})}

	cmd := newCommandFor(t, "agg-1", 1)
	cmd.Name = "counter.unknown"
	_, err := p.dispatch(context.Background(), cmd)
	var missing *ErrHandlerMissing
	require.True(t, errors.As(err, &missing))
}

func TestCommandProvider_AppendRefusedByBrokerSurfacesRejection(t *testing.T) {
	def := newIncrementCommandDef(t, -1)
	fakeClient := &fakeEventStoreClient{
		highestSeq:    map[string]int64{"agg-1": -1},
		appendRefused: true,
	}
	p := &CommandProvider[counterProjection]{def: def, store: NewEventStore(fakeClient)}

	_, err := p.dispatch(context.Background(), newCommandFor(t, "agg-1", 1))
	var rejection *AppendRejection
	require.True(t, errors.As(err, &rejection))
}

func TestCommandProvider_AppendRejectionInvalidatesCache(t *testing.T) {
	def := newIncrementCommandDef(t, -1)
	fakeClient := &fakeEventStoreClient{
		highestSeq: map[string]int64{"agg-1": -1},
		appendErr:  errors.New("broker rejected append"),
	}
	p := &CommandProvider[counterProjection]{def: def, store: NewEventStore(fakeClient)}
	p.WithSnapshotCache(4)
	p.cache.Put("agg-1", counterProjection{Count: 9}, 0)

	_, err := p.dispatch(context.Background(), newCommandFor(t, "agg-1", 1))
	var rejection *AppendRejection
	require.True(t, errors.As(err, &rejection))

	_, _, found := p.cache.Get("agg-1")
	assert.False(t, found)
}

func TestCommandProvider_ReplayUsesCacheOnHit(t *testing.T) {
	def := newIncrementCommandDef(t, -1)
	fakeClient := &fakeEventStoreClient{
		eventsByAggregate: map[string][]*meshpb.Event{
			"agg-1": {
				eventOf(t, "counter.incremented", 0, incremented{By: 1}),
				eventOf(t, "counter.incremented", 1, incremented{By: 2}),
			},
		},
		highestSeq: map[string]int64{"agg-1": 1},
	}
	p := &CommandProvider[counterProjection]{def: def, store: NewEventStore(fakeClient)}
	p.WithSnapshotCache(4)
	p.cache.Put("agg-1", counterProjection{Count: 1}, 0)

	projection, _, err := p.replay(context.Background(), "agg-1")
	require.NoError(t, err)
	assert.Equal(t, 3, projection.Count)
}
