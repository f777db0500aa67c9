package codec

import (
	"github.com/fxamacker/cbor/v2"
)

// CBORCodec is the default codec for management payloads.
// Core-deterministic encoding keeps the bytes stable for identical values,
// so both peers of a protocol version produce identical object payloads.
type CBORCodec struct{}

var (
	cborEnc, _ = cbor.CoreDetEncOptions().EncMode()
	cborDec, _ = cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
)

func (c *CBORCodec) Encode(v any) ([]byte, error) {
	return cborEnc.Marshal(v)
}

func (c *CBORCodec) Decode(data []byte, v any) error {
	return cborDec.Unmarshal(data, v)
}

func (c *CBORCodec) Type() CodecType {
	return CodecTypeCBOR
}
