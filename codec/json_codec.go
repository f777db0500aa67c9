package codec

import (
	"encoding/json"
)

// JSONCodec is the debugging alternative to CBOR.
// Pros: human-readable on the wire, easy to inspect with tcpdump.
// Cons: slower, larger payloads (field names repeated per object).
type JSONCodec struct{}

func (c *JSONCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (c *JSONCodec) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (c *JSONCodec) Type() CodecType {
	return CodecTypeJSON
}
