package meshrun

import (
	"context"

	"google.golang.org/grpc"

	"github.com/cuemby/meshrun/meshpb"
)

// fakeEventStoreClient backs EventStore in tests: no network, just
// canned responses and captured calls.
type fakeEventStoreClient struct {
	eventsByAggregate map[string][]*meshpb.Event
	highestSeq        map[string]int64

	appendErr     error
	appendRefused bool
	lastAppend    *fakeClientStream
	listErr       error
	listStream    *fakeClientStream
}

func (f *fakeEventStoreClient) AppendEvent(ctx context.Context, opts ...grpc.CallOption) (meshpb.EventStore_AppendEventClient, error) {
	var cs *fakeClientStream
	switch {
	case f.appendErr != nil:
		cs = newFakeClientStream()
		cs.recvErr = f.appendErr
	case f.appendRefused:
		cs = newFakeClientStream(&meshpb.Confirmation{Success: false})
	default:
		cs = newFakeClientStream(&meshpb.Confirmation{Success: true})
	}
	f.lastAppend = cs
	return meshpb.NewFakeAppendEventStream(cs), nil
}

func (f *fakeEventStoreClient) ListAggregateEvents(ctx context.Context, in *meshpb.GetAggregateEventsRequest, opts ...grpc.CallOption) (meshpb.EventStore_ListAggregateEventsClient, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []any
	for _, e := range f.eventsByAggregate[in.AggregateID] {
		if e.AggregateSequenceNumber >= in.InitialSequence {
			out = append(out, e)
		}
	}
	return meshpb.NewFakeListAggregateEventsStream(newFakeClientStream(out...)), nil
}

func (f *fakeEventStoreClient) ReadHighestSequenceNr(ctx context.Context, in *meshpb.ReadHighestSequenceNrRequest, opts ...grpc.CallOption) (*meshpb.ReadHighestSequenceNrResponse, error) {
	seq, ok := f.highestSeq[in.AggregateID]
	if !ok {
		seq = -1
	}
	return &meshpb.ReadHighestSequenceNrResponse{ToSequenceNr: seq}, nil
}

func (f *fakeEventStoreClient) ListEvents(ctx context.Context, opts ...grpc.CallOption) (meshpb.EventStore_ListEventsClient, error) {
	return meshpb.NewFakeListEventsStream(f.listStream), nil
}

// fakeCommandServiceClient backs SubmitClient's command path in tests.
type fakeCommandServiceClient struct {
	dispatchResp *meshpb.CommandResponse
	dispatchErr  error
}

func (f *fakeCommandServiceClient) Dispatch(ctx context.Context, in *meshpb.Command, opts ...grpc.CallOption) (*meshpb.CommandResponse, error) {
	return f.dispatchResp, f.dispatchErr
}

func (f *fakeCommandServiceClient) OpenStream(ctx context.Context, opts ...grpc.CallOption) (meshpb.CommandService_OpenStreamClient, error) {
	panic("unused by these tests")
}

// fakeQueryServiceClient backs SubmitClient's query path in tests.
type fakeQueryServiceClient struct {
	responses []*meshpb.QueryResponse
	queryErr  error
}

func (f *fakeQueryServiceClient) Query(ctx context.Context, in *meshpb.QueryRequest, opts ...grpc.CallOption) (meshpb.QueryService_QueryClient, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var out []any
	for _, r := range f.responses {
		out = append(out, r)
	}
	return meshpb.NewFakeQueryStream(newFakeClientStream(out...)), nil
}

func (f *fakeQueryServiceClient) OpenStream(ctx context.Context, opts ...grpc.CallOption) (meshpb.QueryService_OpenStreamClient, error) {
	panic("unused by these tests")
}
