// Package statusserver streams deployment status over gRPC.
//
// Messages are plain JSON, not protobuf. Calls use the content type
// application/grpc+json, and clients in other languages must register a JSON
// codec for it. NewStatusClient selects the codec for Go clients.
package statusserver

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName is the content subtype used on the wire, i.e. "application/grpc+json".
const CodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
