package chat

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEncodeEvent_Envelope(t *testing.T) {
	frame, err := EncodeEvent(EventJoinRoom, JoinRoomPayload{RoomID: 42})
	if err != nil {
		t.Fatalf("EncodeEvent() error = %v", err)
	}

	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		t.Fatalf("frame is not valid JSON: %v", err)
	}

	if env.V != WireVersion {
		t.Errorf("envelope version = %d, want %d", env.V, WireVersion)
	}
	if env.Type != EventJoinRoom {
		t.Errorf("envelope type = %q, want %q", env.Type, EventJoinRoom)
	}

	var payload JoinRoomPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		t.Fatalf("payload decode failed: %v", err)
	}
	if payload.RoomID != 42 {
		t.Errorf("payload roomId = %d, want 42", payload.RoomID)
	}
}

func TestEncodeEvent_ChatMessageOutbound(t *testing.T) {
	sent := ChatMessageOutbound{
		ID:        7,
		RoomID:    1,
		UserID:    3,
		Nickname:  "alice",
		Content:   "hi",
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	frame, err := EncodeEvent(EventChatMessage, sent)
	if err != nil {
		t.Fatalf("EncodeEvent() error = %v", err)
	}

	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		t.Fatalf("frame decode failed: %v", err)
	}

	var got ChatMessageOutbound
	if err := json.Unmarshal(env.Payload, &got); err != nil {
		t.Fatalf("payload decode failed: %v", err)
	}

	if got != sent {
		t.Errorf("round-tripped payload = %+v, want %+v", got, sent)
	}
}

func TestEncodeEvent_AvatarOmittedWhenEmpty(t *testing.T) {
	frame, err := EncodeEvent(EventChatMessage, ChatMessageOutbound{ID: 1, RoomID: 1})
	if err != nil {
		t.Fatalf("EncodeEvent() error = %v", err)
	}

	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		t.Fatalf("frame decode failed: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(env.Payload, &raw); err != nil {
		t.Fatalf("payload decode failed: %v", err)
	}
	if _, present := raw["avatarUrl"]; present {
		t.Error("empty avatarUrl serialized, want omitted")
	}
}

func TestEnvelope_UnknownTypePreserved(t *testing.T) {
	var env Envelope
	if err := json.Unmarshal([]byte(`{"v":1,"type":"presence","payload":{}}`), &env); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	// Unknown types decode cleanly; dispatch decides what to ignore.
	if env.Type != EventType("presence") {
		t.Errorf("type = %q, want %q", env.Type, "presence")
	}
}
