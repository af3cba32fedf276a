package meshrun

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/meshrun/meshpb"
	"github.com/cuemby/meshrun/pkg/tokenstore"
)

type readModel struct {
	total int
}

func eventWithToken(t *testing.T, token int64, by int) *meshpb.EventWithToken {
	data, err := json.Marshal(incremented{By: by})
	require.NoError(t, err)
	return &meshpb.EventWithToken{
		Token: token,
		Event: &meshpb.Event{Payload: &meshpb.SerializedObject{TypeName: "counter.incremented", Data: data}},
	}
}

func TestEventProcessor_HandleOneAdvancesTokenOnSuccess(t *testing.T) {
	model := &readModel{}
	registry := NewRegistry[*readModel, struct{}]()
	require.NoError(t, InsertVoid(registry, "counter.incremented", JSONDecoder[incremented](), func(v incremented, m *readModel) error {
		m.total += v.By
		return nil
	}))

	tokens := tokenstore.NewMemoryTokenStore()
	p := &EventProcessor[*readModel]{processor: "read-model", registry: registry, tokens: tokens, newCtx: func() *readModel { return model }}

	require.NoError(t, p.handleOne(context.Background(), eventWithToken(t, 6, 4)))
	assert.Equal(t, 4, model.total)

	token, found, err := tokens.RetrieveToken(context.Background(), "read-model")
	require.NoError(t, err)
	assert.True(t, found)
	assert.EqualValues(t, 6, token)
}

func TestEventProcessor_HandleOneSkipsUnregisteredType(t *testing.T) {
	registry := NewRegistry[*readModel, struct{}]()
	tokens := tokenstore.NewMemoryTokenStore()
	p := &EventProcessor[*readModel]{processor: "read-model", registry: registry, tokens: tokens, newCtx: func() *readModel { return &readModel{} }}

	err := p.handleOne(context.Background(), eventWithToken(t, 1, 1))
	require.NoError(t, err)

	_, found, err := tokens.RetrieveToken(context.Background(), "read-model")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestEventProcessor_HandleOneFailureDoesNotAdvanceToken(t *testing.T) {
	registry := NewRegistry[*readModel, struct{}]()
	require.NoError(t, InsertVoid(registry, "counter.incremented", JSONDecoder[incremented](), func(v incremented, m *readModel) error {
		return errors.New("downstream write failed")
	}))

	tokens := tokenstore.NewMemoryTokenStore()
	require.NoError(t, tokens.StoreToken(context.Background(), "read-model", 5))

	p := &EventProcessor[*readModel]{processor: "read-model", registry: registry, tokens: tokens, newCtx: func() *readModel { return &readModel{} }}

	err := p.handleOne(context.Background(), eventWithToken(t, 9, 1))
	var failure *HandlerFailure
	require.True(t, errors.As(err, &failure))

	token, found, err := tokens.RetrieveToken(context.Background(), "read-model")
	require.NoError(t, err)
	require.True(t, found)
	assert.EqualValues(t, 5, token, "token must not advance past a failed event")
}
