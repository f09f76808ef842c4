package network

import (
	"encoding/json"
	"testing"
)

func TestDecodeHeader(t *testing.T) {
	frame := []byte(`{"type":"move","x":3.5,"y":2,"direction":"left","isMoving":true}`)

	header, raw, err := DecodeHeader(frame)
	if err != nil {
		t.Fatalf("DecodeHeader failed: %v", err)
	}
	if header.Type != MsgMove {
		t.Errorf("Type = %q, want %q", header.Type, MsgMove)
	}

	var payload MovePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("Payload decode failed: %v", err)
	}
	if payload.X != 3.5 || payload.Y != 2 || payload.Direction != "left" || !payload.IsMoving {
		t.Errorf("Payload = %+v", payload)
	}
}

func TestDecodeHeader_InvalidJSON(t *testing.T) {
	if _, _, err := DecodeHeader([]byte("{broken")); err == nil {
		t.Error("DecodeHeader should reject malformed JSON")
	}
}

func TestDecodeHeader_MissingType(t *testing.T) {
	header, _, err := DecodeHeader([]byte(`{"x":1}`))
	if err != nil {
		t.Fatalf("DecodeHeader failed: %v", err)
	}
	if header.Type != "" {
		t.Errorf("Type = %q, want empty", header.Type)
	}
}

func TestErrorMessage_Shape(t *testing.T) {
	data, err := json.Marshal(NewErrorMessage("boom"))
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]interface{}
	json.Unmarshal(data, &decoded)
	if decoded["type"] != MsgError || decoded["message"] != "boom" {
		t.Errorf("Encoded error = %s", data)
	}
}
