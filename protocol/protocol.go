// Package protocol defines the byte-level contract between a domain controller
// and a server manager.
//
// Every request is one contiguous stream over one connection:
//
//	┌────────────┬─────────┬──────────────────────────────────┐
//	│ handler id │ op code │ payload: (tag, value) pairs ...  │
//	│   1 byte   │ 1 byte  │ variant-specific, tag-prefixed   │
//	└────────────┴─────────┴──────────────────────────────────┘
//
// and the response mirrors it:
//
//	┌───────────┬──────────────────────────────────┐
//	│ resp code │ payload (only where declared)    │
//	└───────────┴──────────────────────────────────┘
//
// Both ends compile against the constants below; a single code collision or
// reordering breaks interoperability silently, so the catalogue is frozen and
// versioned together with the codec's expected schemas.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Handler discriminator: selects which peer-side subsystem services the
// request. Only the server-manager subsystem exists today, but the byte stays
// on the wire so one port can multiplex subsystems later.
const (
	ServerManagerRequest byte = 0x01
)

// Operation codes and their paired response codes. Each request variant
// declares exactly one pair; the receiver validates the response code before
// touching the payload.
const (
	UpdateFullDomainRequest  byte = 0x10
	UpdateFullDomainResponse byte = 0x11

	UpdateDomainModelRequest  byte = 0x12
	UpdateDomainModelResponse byte = 0x13

	UpdateHostModelRequest  byte = 0x14
	UpdateHostModelResponse byte = 0x15

	UpdateServerModelRequest  byte = 0x16
	UpdateServerModelResponse byte = 0x17

	IsActiveRequest  byte = 0x18
	IsActiveResponse byte = 0x19
)

// Field tags. Each logical field in a payload is preceded by its tag byte;
// sender and receiver must agree on tag order. A receiver that sees an
// unexpected tag fails the exchange rather than attempting recovery.
const (
	ParamDomainModel byte = 0x20

	ParamDomainModelUpdateCount byte = 0x21
	ParamDomainModelUpdate      byte = 0x22

	ParamHostModelUpdateCount byte = 0x23
	ParamHostModelUpdate      byte = 0x24

	ParamServerName             byte = 0x25
	ParamServerModelUpdateCount byte = 0x26
	ParamServerModelUpdate      byte = 0x27

	ParamModelUpdateResponseCount byte = 0x30
	ParamModelUpdateResponse      byte = 0x31
)

// MaxBlobLen caps a single length-prefixed object payload. A peer announcing
// a larger length is treated as a framing error instead of an allocation.
const MaxBlobLen = 16 << 20 // 16 MiB

// MaxBatchItems caps the announced item count of an update or result batch.
// The count arrives before any item does, so it gets the same treatment as a
// blob length: a peer announcing more than this is a framing error, not an
// allocation request.
const MaxBatchItems = 1 << 16

// ErrInvalidToken reports a byte on the wire that does not match the tag the
// grammar requires at that position.
var ErrInvalidToken = errors.New("invalid byte token")

// OperationName maps an operation code to a readable name for logs.
func OperationName(code byte) string {
	switch code {
	case UpdateFullDomainRequest:
		return "update-full-domain"
	case UpdateDomainModelRequest:
		return "update-domain-model"
	case UpdateHostModelRequest:
		return "update-host-model"
	case UpdateServerModelRequest:
		return "update-server-model"
	case IsActiveRequest:
		return "is-active"
	default:
		return fmt.Sprintf("unknown-0x%02x", code)
	}
}

// WriteByte writes a single raw byte (handler id, op code, field tag).
func WriteByte(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	return err
}

// ReadByte reads a single raw byte.
func ReadByte(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ExpectHeader reads one byte and fails unless it equals the expected tag.
// This is the receiver-side half of the tag-order agreement: any mismatch
// means wire desynchronization or version skew, fatal to the exchange.
func ExpectHeader(r io.Reader, expected byte) error {
	got, err := ReadByte(r)
	if err != nil {
		return fmt.Errorf("reading header byte: %w", err)
	}
	if got != expected {
		return fmt.Errorf("%w: expected 0x%02x, received 0x%02x", ErrInvalidToken, expected, got)
	}
	return nil
}

// WriteInt writes an int32 count, big-endian (network byte order).
func WriteInt(w io.Writer, v int32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	_, err := w.Write(buf[:])
	return err
}

// ReadInt reads a big-endian int32 count.
// Uses io.ReadFull so a short TCP read can never yield a partial value.
func ReadInt(r io.Reader) (int32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(buf[:])), nil
}

// WriteString writes a uint16 length followed by the UTF-8 bytes.
func WriteString(w io.Writer, s string) error {
	if len(s) > 0xffff {
		return fmt.Errorf("string field too long: %d bytes", len(s))
	}
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], uint16(len(s)))
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// ReadString reads a uint16 length-prefixed UTF-8 string.
func ReadString(r io.Reader) (string, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", err
	}
	buf := make([]byte, binary.BigEndian.Uint16(lenBuf[:]))
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// WriteBlob writes a uint32 length followed by the codec-encoded bytes of a
// single object field (an update, a result, a full model).
func WriteBlob(w io.Writer, data []byte) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(len(data)))
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

// ReadBlob reads a uint32 length-prefixed object payload.
func ReadBlob(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > MaxBlobLen {
		return nil, fmt.Errorf("object payload of %d bytes exceeds limit", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
