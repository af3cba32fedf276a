package meshrun

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/meshrun/meshpb"
)

type counterProjection struct {
	Count int
}

type incremented struct {
	By int
}

func decodeIncremented(data []byte) (incremented, error) {
	var v incremented
	err := json.Unmarshal(data, &v)
	return v, err
}

func applyIncremented(v incremented, p counterProjection) (counterProjection, error) {
	p.Count += v.By
	return p, nil
}

func newCounterDefinition(t *testing.T) *AggregateDefinition[counterProjection] {
	def := NewAggregateDefinition("counter", func() counterProjection { return counterProjection{} })
	require.NoError(t, InsertSourcing(def.Sourcing, "counter.incremented", decodeIncremented, applyIncremented))
	return def
}

func eventOf(t *testing.T, typeName string, seq int64, v incremented) *meshpb.Event {
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return &meshpb.Event{
		AggregateIdentifier:     "agg-1",
		AggregateSequenceNumber: seq,
		AggregateType:           "counter",
		Payload:                 &meshpb.SerializedObject{TypeName: typeName, Data: data},
	}
}

func TestAggregateDefinition_ReplayFoldsEventsInOrder(t *testing.T) {
	def := newCounterDefinition(t)
	events := []*meshpb.Event{
		eventOf(t, "counter.incremented", 0, incremented{By: 2}),
		eventOf(t, "counter.incremented", 1, incremented{By: 5}),
	}

	projection, err := def.Replay(events)
	require.NoError(t, err)
	assert.Equal(t, 7, projection.Count)
}

func TestAggregateDefinition_ReplayOntoStartsFromExistingProjection(t *testing.T) {
	def := newCounterDefinition(t)
	events := []*meshpb.Event{eventOf(t, "counter.incremented", 2, incremented{By: 3})}

	projection, err := def.ReplayOnto(counterProjection{Count: 10}, events)
	require.NoError(t, err)
	assert.Equal(t, 13, projection.Count)
}

func TestAggregateDefinition_ReplayMissingSourcingHandlerFails(t *testing.T) {
	def := newCounterDefinition(t)
	events := []*meshpb.Event{eventOf(t, "counter.unknown", 0, incremented{By: 1})}

	_, err := def.Replay(events)
	var missing *SourcingHandlerMissing
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "counter.unknown", missing.TypeName)
}

func TestInsertSourcing_DuplicateNameFails(t *testing.T) {
	def := newCounterDefinition(t)
	err := InsertSourcing(def.Sourcing, "counter.incremented", decodeIncremented, applyIncremented)
	var dup *ErrDuplicateHandler
	require.True(t, errors.As(err, &dup))
}
