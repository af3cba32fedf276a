package meshrun

import (
	"encoding/json"

	"github.com/cuemby/meshrun/meshpb"
)

// JSONDecoder returns a deserializer suitable for InsertVoid,
// InsertWithOutput, InsertWithMappedOutput and InsertSourcing that
// decodes a wire payload into T with encoding/json. Domain payloads
// in this runtime are JSON rather than a generated binary encoding,
// so this covers the common case.
func JSONDecoder[T any]() func([]byte) (T, error) {
	return func(data []byte) (T, error) {
		var v T
		err := json.Unmarshal(data, &v)
		return v, err
	}
}

// JSONEncode marshals v and wraps it as a SerializedObject tagged
// typeName, suitable as the Response of an
// EmitApplicableEventsAndResponse or a query handler's payload. Use
// JSONApplicableEvent to build an ApplicableEvent.
func JSONEncode(typeName string, v any) (*meshpb.SerializedObject, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &meshpb.SerializedObject{TypeName: typeName, Data: data}, nil
}

// JSONWrap adapts JSONEncode to the wrap signature InsertWithMappedOutput
// expects.
func JSONWrap[R any](responseTypeName string, v R) (*meshpb.SerializedObject, error) {
	return JSONEncode(responseTypeName, v)
}

// aggregateIdentifier is the envelope every command payload is
// expected to carry, following the source system's convention of
// addressing the target aggregate from within the command body
// itself rather than in an out-of-band field.
type aggregateIdentifier struct {
	AggregateIdentifier string `json:"aggregate_identifier"`
}

func aggregateIdentifierOf(data []byte) (string, error) {
	var v aggregateIdentifier
	if err := json.Unmarshal(data, &v); err != nil {
		return "", err
	}
	return v.AggregateIdentifier, nil
}

// JSONApplicableEvent marshals v into an ApplicableEvent tagged typeName.
func JSONApplicableEvent(typeName string, v any) (ApplicableEvent, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return ApplicableEvent{}, err
	}
	return ApplicableEvent{TypeName: typeName, Data: data}, nil
}
