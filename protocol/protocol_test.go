package protocol

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestExpectHeader(t *testing.T) {
	buf := bytes.NewBuffer([]byte{ParamDomainModel})
	if err := ExpectHeader(buf, ParamDomainModel); err != nil {
		t.Fatalf("matching tag should pass: %v", err)
	}

	buf = bytes.NewBuffer([]byte{ParamHostModelUpdate})
	err := ExpectHeader(buf, ParamDomainModel)
	if err == nil {
		t.Fatal("mismatched tag should fail")
	}
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	// Empty stream: the read error must come through, not a token error.
	err = ExpectHeader(bytes.NewBuffer(nil), ParamDomainModel)
	if err == nil {
		t.Fatal("empty stream should fail")
	}
	if errors.Is(err, ErrInvalidToken) {
		t.Fatalf("EOF should not classify as a token mismatch: %v", err)
	}
}

func TestIntRoundTrip(t *testing.T) {
	cases := []int32{0, 1, 3, 1 << 20, -1, -42}
	for _, want := range cases {
		var buf bytes.Buffer
		if err := WriteInt(&buf, want); err != nil {
			t.Fatal(err)
		}
		if buf.Len() != 4 {
			t.Fatalf("int32 must be 4 bytes, got %d", buf.Len())
		}
		got, err := ReadInt(&buf)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("round trip: got %d, want %d", got, want)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	cases := []string{"", "server-one", "hôst-ünïcode", string(make([]byte, 0xffff))}
	for _, want := range cases {
		var buf bytes.Buffer
		if err := WriteString(&buf, want); err != nil {
			t.Fatal(err)
		}
		got, err := ReadString(&buf)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("round trip: got %q, want %q", got, want)
		}
	}

	var buf bytes.Buffer
	if err := WriteString(&buf, string(make([]byte, 0x10000))); err == nil {
		t.Fatal("over-long string must be rejected")
	}
}

func TestBlobRoundTrip(t *testing.T) {
	want := []byte{0xde, 0xad, 0xbe, 0xef}
	var buf bytes.Buffer
	if err := WriteBlob(&buf, want); err != nil {
		t.Fatal(err)
	}
	got, err := ReadBlob(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("round trip: got %x, want %x", got, want)
	}
}

func TestBlobLengthLimit(t *testing.T) {
	// Announce a body far over the limit without sending it.
	var buf bytes.Buffer
	if err := WriteInt(&buf, int32(MaxBlobLen+1)); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadBlob(&buf); err == nil {
		t.Fatal("oversized blob announcement must be rejected")
	}
}

func TestBlobTruncated(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteBlob(&buf, []byte{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	truncated := bytes.NewBuffer(buf.Bytes()[:buf.Len()-2])
	if _, err := ReadBlob(truncated); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("truncated blob should fail with unexpected EOF, got %v", err)
	}
}

// Catalogue invariant: every code and tag value is unique. A collision would
// break interoperability silently, with a wrong field read as a wrong type.
func TestCatalogueUniqueness(t *testing.T) {
	values := []byte{
		ServerManagerRequest,
		UpdateFullDomainRequest, UpdateFullDomainResponse,
		UpdateDomainModelRequest, UpdateDomainModelResponse,
		UpdateHostModelRequest, UpdateHostModelResponse,
		UpdateServerModelRequest, UpdateServerModelResponse,
		IsActiveRequest, IsActiveResponse,
		ParamDomainModel,
		ParamDomainModelUpdateCount, ParamDomainModelUpdate,
		ParamHostModelUpdateCount, ParamHostModelUpdate,
		ParamServerName, ParamServerModelUpdateCount, ParamServerModelUpdate,
		ParamModelUpdateResponseCount, ParamModelUpdateResponse,
	}
	seen := make(map[byte]bool)
	for _, v := range values {
		if seen[v] {
			t.Fatalf("catalogue collision on 0x%02x", v)
		}
		seen[v] = true
	}
}
