// Package codec is the serialization boundary for typed management payloads.
//
// The protocol layer only guarantees tag placement and count agreement; the
// bytes inside each object field are produced and consumed here, keyed by the
// expected Go type on the receiving side.
package codec

type CodecType byte

const (
	CodecTypeCBOR CodecType = 0
	CodecTypeJSON CodecType = 1
)

type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
	Type() CodecType // 0=CBOR, 1=JSON
}

func GetCodec(codecType CodecType) Codec {
	if codecType == CodecTypeJSON {
		return &JSONCodec{}
	}

	return &CBORCodec{}
}
