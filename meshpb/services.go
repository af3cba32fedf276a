package meshpb

import (
	"context"

	"google.golang.org/grpc"
)

// Full method names for the four service contracts this runtime consumes.
const (
	methodGetPlatformServer     = "/mesh.PlatformService/GetPlatformServer"
	methodCommandDispatch       = "/mesh.CommandService/Dispatch"
	methodCommandOpenStream     = "/mesh.CommandService/OpenStream"
	methodQuery                 = "/mesh.QueryService/Query"
	methodQueryOpenStream       = "/mesh.QueryService/OpenStream"
	methodAppendEvent           = "/mesh.EventStore/AppendEvent"
	methodListAggregateEvents   = "/mesh.EventStore/ListAggregateEvents"
	methodReadHighestSequenceNr = "/mesh.EventStore/ReadHighestSequenceNr"
	methodListEvents            = "/mesh.EventStore/ListEvents"
)

// genericClientStream adapts a grpc.ClientStream to typed Send/Recv, the
// same shape protoc-gen-go-grpc emits for bidirectional-streaming methods.
type genericClientStream[Send, Recv any] struct {
	grpc.ClientStream
}

func (s *genericClientStream[Send, Recv]) Send(m *Send) error {
	return s.ClientStream.SendMsg(m)
}

func (s *genericClientStream[Send, Recv]) Recv() (*Recv, error) {
	m := new(Recv)
	if err := s.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// The NewFake*Stream constructors below wrap an arbitrary
// grpc.ClientStream (typically a fake built for tests) as the typed
// stream client type a service method returns. They exist because the
// generic stream wrapper is unexported; production code never needs
// them, only tests standing in for a live broker connection.

// NewFakeCommandOpenStream wraps cs as a CommandService_OpenStreamClient.
func NewFakeCommandOpenStream(cs grpc.ClientStream) CommandService_OpenStreamClient {
	return &genericClientStream[CommandProviderOutbound, CommandProviderInbound]{ClientStream: cs}
}

// NewFakeQueryStream wraps cs as a QueryService_QueryClient.
func NewFakeQueryStream(cs grpc.ClientStream) QueryService_QueryClient {
	return &genericClientStream[struct{}, QueryResponse]{ClientStream: cs}
}

// NewFakeQueryOpenStream wraps cs as a QueryService_OpenStreamClient.
func NewFakeQueryOpenStream(cs grpc.ClientStream) QueryService_OpenStreamClient {
	return &genericClientStream[QueryProviderOutbound, QueryProviderInbound]{ClientStream: cs}
}

// NewFakeAppendEventStream wraps cs as an EventStore_AppendEventClient.
func NewFakeAppendEventStream(cs grpc.ClientStream) EventStore_AppendEventClient {
	return &genericClientStream[Event, Confirmation]{ClientStream: cs}
}

// NewFakeListAggregateEventsStream wraps cs as an
// EventStore_ListAggregateEventsClient.
func NewFakeListAggregateEventsStream(cs grpc.ClientStream) EventStore_ListAggregateEventsClient {
	return &genericClientStream[struct{}, Event]{ClientStream: cs}
}

// NewFakeListEventsStream wraps cs as an EventStore_ListEventsClient.
func NewFakeListEventsStream(cs grpc.ClientStream) EventStore_ListEventsClient {
	return &genericClientStream[GetEventsRequest, EventWithToken]{ClientStream: cs}
}

// PlatformServiceClient identifies this process to the mesh broker.
type PlatformServiceClient interface {
	GetPlatformServer(ctx context.Context, in *ClientIdentification, opts ...grpc.CallOption) (*PlatformInfo, error)
}

type platformServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewPlatformServiceClient builds a PlatformServiceClient over an existing
// connection.
func NewPlatformServiceClient(cc grpc.ClientConnInterface) PlatformServiceClient {
	return &platformServiceClient{cc: cc}
}

func (c *platformServiceClient) GetPlatformServer(ctx context.Context, in *ClientIdentification, opts ...grpc.CallOption) (*PlatformInfo, error) {
	out := new(PlatformInfo)
	if err := c.cc.Invoke(ctx, methodGetPlatformServer, in, out, append(opts, callCodec())...); err != nil {
		return nil, err
	}
	return out, nil
}

// CommandService_OpenStreamClient is the bidirectional stream a command
// provider opens once and keeps for its lifetime.
type CommandService_OpenStreamClient = *genericClientStream[CommandProviderOutbound, CommandProviderInbound]

// CommandServiceClient dispatches commands and serves them.
type CommandServiceClient interface {
	Dispatch(ctx context.Context, in *Command, opts ...grpc.CallOption) (*CommandResponse, error)
	OpenStream(ctx context.Context, opts ...grpc.CallOption) (CommandService_OpenStreamClient, error)
}

type commandServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewCommandServiceClient builds a CommandServiceClient over an existing
// connection.
func NewCommandServiceClient(cc grpc.ClientConnInterface) CommandServiceClient {
	return &commandServiceClient{cc: cc}
}

func (c *commandServiceClient) Dispatch(ctx context.Context, in *Command, opts ...grpc.CallOption) (*CommandResponse, error) {
	out := new(CommandResponse)
	if err := c.cc.Invoke(ctx, methodCommandDispatch, in, out, append(opts, callCodec())...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *commandServiceClient) OpenStream(ctx context.Context, opts ...grpc.CallOption) (CommandService_OpenStreamClient, error) {
	stream, err := c.cc.NewStream(ctx, &grpc.StreamDesc{StreamName: "OpenStream", ServerStreams: true, ClientStreams: true}, methodCommandOpenStream, append(opts, callCodec())...)
	if err != nil {
		return nil, err
	}
	return &genericClientStream[CommandProviderOutbound, CommandProviderInbound]{ClientStream: stream}, nil
}

// QueryService_QueryClient streams zero or more responses to one query.
type QueryService_QueryClient = *genericClientStream[struct{}, QueryResponse]

// QueryService_OpenStreamClient is the bidirectional stream a query
// provider opens once and keeps for its lifetime.
type QueryService_OpenStreamClient = *genericClientStream[QueryProviderOutbound, QueryProviderInbound]

// QueryServiceClient submits queries and serves them.
type QueryServiceClient interface {
	Query(ctx context.Context, in *QueryRequest, opts ...grpc.CallOption) (QueryService_QueryClient, error)
	OpenStream(ctx context.Context, opts ...grpc.CallOption) (QueryService_OpenStreamClient, error)
}

type queryServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewQueryServiceClient builds a QueryServiceClient over an existing
// connection.
func NewQueryServiceClient(cc grpc.ClientConnInterface) QueryServiceClient {
	return &queryServiceClient{cc: cc}
}

func (c *queryServiceClient) Query(ctx context.Context, in *QueryRequest, opts ...grpc.CallOption) (QueryService_QueryClient, error) {
	stream, err := c.cc.NewStream(ctx, &grpc.StreamDesc{StreamName: "Query", ServerStreams: true}, methodQuery, append(opts, callCodec())...)
	if err != nil {
		return nil, err
	}
	typed := &genericClientStream[struct{}, QueryResponse]{ClientStream: stream}
	if err := typed.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := typed.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return typed, nil
}

func (c *queryServiceClient) OpenStream(ctx context.Context, opts ...grpc.CallOption) (QueryService_OpenStreamClient, error) {
	stream, err := c.cc.NewStream(ctx, &grpc.StreamDesc{StreamName: "OpenStream", ServerStreams: true, ClientStreams: true}, methodQueryOpenStream, append(opts, callCodec())...)
	if err != nil {
		return nil, err
	}
	return &genericClientStream[QueryProviderOutbound, QueryProviderInbound]{ClientStream: stream}, nil
}

// EventStore_AppendEventClient streams events for a single atomic append.
type EventStore_AppendEventClient = *genericClientStream[Event, Confirmation]

// EventStore_ListAggregateEventsClient streams one aggregate's event log.
type EventStore_ListAggregateEventsClient = *genericClientStream[struct{}, Event]

// EventStore_ListEventsClient is the tracking-token stream used by event
// processors.
type EventStore_ListEventsClient = *genericClientStream[GetEventsRequest, EventWithToken]

// EventStoreClient appends and reads an aggregate's event log and serves
// tracking-token event processors.
type EventStoreClient interface {
	AppendEvent(ctx context.Context, opts ...grpc.CallOption) (EventStore_AppendEventClient, error)
	ListAggregateEvents(ctx context.Context, in *GetAggregateEventsRequest, opts ...grpc.CallOption) (EventStore_ListAggregateEventsClient, error)
	ReadHighestSequenceNr(ctx context.Context, in *ReadHighestSequenceNrRequest, opts ...grpc.CallOption) (*ReadHighestSequenceNrResponse, error)
	ListEvents(ctx context.Context, opts ...grpc.CallOption) (EventStore_ListEventsClient, error)
}

type eventStoreClient struct {
	cc grpc.ClientConnInterface
}

// NewEventStoreClient builds an EventStoreClient over an existing
// connection.
func NewEventStoreClient(cc grpc.ClientConnInterface) EventStoreClient {
	return &eventStoreClient{cc: cc}
}

func (c *eventStoreClient) AppendEvent(ctx context.Context, opts ...grpc.CallOption) (EventStore_AppendEventClient, error) {
	stream, err := c.cc.NewStream(ctx, &grpc.StreamDesc{StreamName: "AppendEvent", ClientStreams: true}, methodAppendEvent, append(opts, callCodec())...)
	if err != nil {
		return nil, err
	}
	return &genericClientStream[Event, Confirmation]{ClientStream: stream}, nil
}

func (c *eventStoreClient) ListAggregateEvents(ctx context.Context, in *GetAggregateEventsRequest, opts ...grpc.CallOption) (EventStore_ListAggregateEventsClient, error) {
	stream, err := c.cc.NewStream(ctx, &grpc.StreamDesc{StreamName: "ListAggregateEvents", ServerStreams: true}, methodListAggregateEvents, append(opts, callCodec())...)
	if err != nil {
		return nil, err
	}
	typed := &genericClientStream[struct{}, Event]{ClientStream: stream}
	if err := typed.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := typed.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return typed, nil
}

func (c *eventStoreClient) ReadHighestSequenceNr(ctx context.Context, in *ReadHighestSequenceNrRequest, opts ...grpc.CallOption) (*ReadHighestSequenceNrResponse, error) {
	out := new(ReadHighestSequenceNrResponse)
	if err := c.cc.Invoke(ctx, methodReadHighestSequenceNr, in, out, append(opts, callCodec())...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *eventStoreClient) ListEvents(ctx context.Context, opts ...grpc.CallOption) (EventStore_ListEventsClient, error) {
	stream, err := c.cc.NewStream(ctx, &grpc.StreamDesc{StreamName: "ListEvents", ServerStreams: true, ClientStreams: true}, methodListEvents, append(opts, callCodec())...)
	if err != nil {
		return nil, err
	}
	return &genericClientStream[GetEventsRequest, EventWithToken]{ClientStream: stream}, nil
}
