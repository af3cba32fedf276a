// Package meshpb holds the wire-level message shapes and service contracts
// exchanged with the mesh broker. It stands in for the code that would
// normally be generated from the broker's own .proto definitions: plain
// data plus four thin gRPC client shims, no business logic. Everything in
// this package is dictated by the broker, not by meshrun.
package meshpb

// SerializedObject is the opaque envelope carrying one encoded domain
// message: a command payload, an event payload, a query payload or a query
// response payload.
type SerializedObject struct {
	TypeName string
	Revision string
	Data     []byte
}

// ErrorMessage is the structured error detail attached to a failed command
// or query response.
type ErrorMessage struct {
	Message string
	Details []string
}

// ClientIdentification is sent once per connection during bootstrap.
type ClientIdentification struct {
	ClientID      string
	ComponentName string
}

// PlatformInfo is returned by the identification RPC.
type PlatformInfo struct {
	NodeName string
}

// Command is an inbound command delivered to a command provider.
type Command struct {
	MessageID     string
	Name          string
	Payload       *SerializedObject
	ClientID      string
	ComponentName string
	Metadata      map[string]string
	Timestamp     int64
}

// CommandResponse is the reply to a single dispatched or provided command.
type CommandResponse struct {
	MessageID         string
	RequestIdentifier string
	Payload           *SerializedObject
	ErrorCode         string
	ErrorMessage      *ErrorMessage
	ClientID          string
	ComponentName     string
}

// Event is a single entry in an aggregate's event log.
type Event struct {
	MessageID               string
	Timestamp               int64
	AggregateIdentifier     string
	AggregateSequenceNumber int64
	AggregateType           string
	Payload                 *SerializedObject
	Snapshot                bool
	MetaData                map[string]string
}

// EventWithToken pairs an event with its position in the global log.
type EventWithToken struct {
	Token int64
	Event *Event
}

// QueryRequest is an inbound query delivered to a query provider, and the
// shape used to submit a point-to-point query.
type QueryRequest struct {
	MessageIdentifier string
	Query             string
	Payload           *SerializedObject
	ResponseType      string
	ClientID          string
	ComponentName     string
	MetaData          map[string]string
	Timestamp         int64
}

// QueryResponse carries one result for a query.
type QueryResponse struct {
	MessageIdentifier string
	RequestIdentifier string
	Payload           *SerializedObject
	ErrorCode         string
	ErrorMessage      *ErrorMessage
}

// QueryComplete marks the end of the result set for one query request.
type QueryComplete struct {
	MessageID string
	RequestID string
}

// CommandSubscription registers interest in one command name.
type CommandSubscription struct {
	MessageID     string
	Command       string
	ClientID      string
	ComponentName string
	LoadFactor    int32
}

// QuerySubscription registers interest in one query name.
type QuerySubscription struct {
	MessageID     string
	Query         string
	ResultName    string
	ClientID      string
	ComponentName string
}

// FlowControl grants additional permits to the broker.
type FlowControl struct {
	ClientID string
	Permits  int64
}

// CommandProviderOutbound is one instruction on the command provider's
// outbound stream. Exactly one of the pointer fields is set.
type CommandProviderOutbound struct {
	InstructionID   string
	Subscribe       *CommandSubscription
	Unsubscribe     *CommandSubscription
	FlowControl     *FlowControl
	CommandResponse *CommandResponse
}

// CommandProviderInbound is one message delivered to a command provider.
type CommandProviderInbound struct {
	InstructionID string
	Command       *Command
}

// QueryProviderOutbound is one instruction on the query provider's outbound
// stream. Exactly one of the pointer fields is set.
type QueryProviderOutbound struct {
	InstructionID string
	Subscribe     *QuerySubscription
	Unsubscribe   *QuerySubscription
	FlowControl   *FlowControl
	QueryResponse *QueryResponse
	QueryComplete *QueryComplete
}

// QueryProviderInbound is one message delivered to a query provider.
type QueryProviderInbound struct {
	InstructionID string
	Query         *QueryRequest
}

// GetAggregateEventsRequest requests the full ordered event log for one
// aggregate.
type GetAggregateEventsRequest struct {
	AggregateID     string
	AllowSnapshots  bool
	InitialSequence int64
	MaxSequence     int64
	MinToken        int64
}

// ReadHighestSequenceNrRequest asks for the highest known sequence number
// of an aggregate.
type ReadHighestSequenceNrRequest struct {
	AggregateID string
	From        int64
}

// ReadHighestSequenceNrResponse answers ReadHighestSequenceNrRequest.
type ReadHighestSequenceNrResponse struct {
	ToSequenceNr int64
}

// GetEventsRequest opens or advances an event-processor tracking stream.
type GetEventsRequest struct {
	TrackingToken       int64
	NumberOfPermits     int64
	ClientID            string
	ComponentName       string
	Processor           string
	Blacklist           []string
	ForceReadFromLeader bool
}

// Confirmation acknowledges an AppendEvent call.
type Confirmation struct {
	Success bool
}
