// Package api defines the wire messages of the fintrack RPC services and the
// helpers that mount and call them over Connect with a JSON codec.
package api

import (
	"encoding/json"
	"fmt"
)

// CodecName is the Connect codec name; requests use Content-Type application/json.
const CodecName = "json"

// JSONCodec marshals plain Go structs. It replaces Connect's protobuf JSON
// codec, which only accepts proto.Message values.
type JSONCodec struct{}

func (JSONCodec) Name() string { return CodecName }

func (JSONCodec) Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", v, err)
	}
	return b, nil
}

func (JSONCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %T: %w", v, err)
	}
	return nil
}
