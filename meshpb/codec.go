package meshpb

import (
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// codecName is the gRPC content-subtype used for every call this package
// makes. The broker is expected to speak it; grpc-go dispatches encode and
// decode to the codec registered under this name for any call tagged with
// grpc.CallContentSubtype(codecName).
const codecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec marshals the plain structs in this package with encoding/json.
// The runtime has no generated protobuf types to encode with (see the
// package doc comment), so calls are tagged to use this codec instead of
// gRPC's default proto codec.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (jsonCodec) Name() string { return codecName }

func callCodec() grpc.CallOption {
	return grpc.CallContentSubtype(codecName)
}
