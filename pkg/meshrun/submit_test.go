package meshrun

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/meshrun/meshpb"
)

func TestSubmitClient_SendCommandReturnsPayload(t *testing.T) {
	fake := &fakeCommandServiceClient{
		dispatchResp: &meshpb.CommandResponse{Payload: &meshpb.SerializedObject{TypeName: "ack", Data: []byte(`{"ok":true}`)}},
	}
	c := &SubmitClient{handle: &ConnectionHandle{ClientID: "client-1"}, cfg: NewConfig(Config{}), commands: fake}

	payload, err := c.SendCommand(context.Background(), "counter.increment", []byte(`{"by":1}`))
	require.NoError(t, err)
	assert.Equal(t, "ack", payload.TypeName)
}

func TestSubmitClient_SendCommandSurfacesErrorCode(t *testing.T) {
	fake := &fakeCommandServiceClient{
		dispatchResp: &meshpb.CommandResponse{ErrorCode: "ERROR", ErrorMessage: &meshpb.ErrorMessage{Message: "refused"}},
	}
	c := &SubmitClient{handle: &ConnectionHandle{ClientID: "client-1"}, cfg: NewConfig(Config{}), commands: fake}

	_, err := c.SendCommand(context.Background(), "counter.increment", []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
}

func TestSubmitClient_SendQueryCollectsAllResponses(t *testing.T) {
	fake := &fakeQueryServiceClient{responses: []*meshpb.QueryResponse{
		{Payload: &meshpb.SerializedObject{TypeName: "row", Data: []byte(`{"n":1}`)}},
		{Payload: &meshpb.SerializedObject{TypeName: "row", Data: []byte(`{"n":2}`)}},
	}}
	c := &SubmitClient{handle: &ConnectionHandle{ClientID: "client-1"}, cfg: NewConfig(Config{}), queries: fake}

	results, err := c.SendQuery(context.Background(), "counter.list", nil)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}
