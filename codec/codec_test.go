package codec

import (
	"reflect"
	"testing"

	"domain-mgmt/model"
)

func TestCBORCodecRoundTrip(t *testing.T) {
	c := &CBORCodec{}

	original := model.DomainModel{
		Name: "production",
		ServerGroups: map[string]model.ServerGroup{
			"web": {Profile: "default", Servers: []string{"web-one", "web-two"}},
		},
		Attributes: map[string]string{"heap": "512m"},
	}

	data, err := c.Encode(original)
	if err != nil {
		t.Fatalf("CBORCodec Encode failed: %v", err)
	}

	var decoded model.DomainModel
	if err := c.Decode(data, &decoded); err != nil {
		t.Fatalf("CBORCodec Decode failed: %v", err)
	}

	if !reflect.DeepEqual(original, decoded) {
		t.Errorf("round trip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestCBORDeterministicEncoding(t *testing.T) {
	c := &CBORCodec{}
	update := model.HostUpdate{Action: model.ActionSetAttribute, Name: "memory", Value: "2g"}

	first, err := c.Encode(update)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Encode(update)
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Error("identical values must encode to identical bytes")
	}
}

func TestJSONCodecRoundTrip(t *testing.T) {
	c := &JSONCodec{}

	original := model.UpdateResult{
		Applied: true,
		Servers: []model.ServerIdentity{
			{HostName: "host-a", ServerGroup: "web", ServerName: "web-one"},
		},
	}

	data, err := c.Encode(original)
	if err != nil {
		t.Fatalf("JSONCodec Encode failed: %v", err)
	}

	var decoded model.UpdateResult
	if err := c.Decode(data, &decoded); err != nil {
		t.Fatalf("JSONCodec Decode failed: %v", err)
	}

	if !reflect.DeepEqual(original, decoded) {
		t.Errorf("round trip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestGetCodec(t *testing.T) {
	if GetCodec(CodecTypeCBOR).Type() != CodecTypeCBOR {
		t.Error("CodecTypeCBOR should yield the CBOR codec")
	}
	if GetCodec(CodecTypeJSON).Type() != CodecTypeJSON {
		t.Error("CodecTypeJSON should yield the JSON codec")
	}
}
