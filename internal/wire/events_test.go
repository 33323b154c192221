package wire

import (
	"encoding/json"
	"testing"

	"github.com/dukepan/multi-rooms-chat-back/internal/domain"
)

func TestToHostMessageMarshalMessage(t *testing.T) {
	msg := HostMessage(domain.UserId("user-1"), json.RawMessage(`{"text":"hi"}`))

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out map[string]json.RawMessage
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got := string(out["event"]); got != `"Message"` {
		t.Errorf("event = %s, want %q", got, "Message")
	}
	if got := string(out["userId"]); got != `"user-1"` {
		t.Errorf("userId = %s, want %q", got, "user-1")
	}
	if string(out["message"]) != `{"text":"hi"}` {
		t.Errorf("message = %s, want %s", out["message"], `{"text":"hi"}`)
	}
}

func TestToUserMessageMarshalDisconnect(t *testing.T) {
	msg := UserDisconnect(domain.UserId("user-2"), ReasonKicked)

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out struct {
		Event   string `json:"event"`
		UserID  string `json:"userId"`
		Message struct {
			Reason string `json:"reason"`
		} `json:"message"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if out.Event != "Disconnect" {
		t.Errorf("event = %q, want Disconnect", out.Event)
	}
	if out.UserID != "user-2" {
		t.Errorf("userId = %q, want user-2", out.UserID)
	}
	if out.Message.Reason != string(ReasonKicked) {
		t.Errorf("reason = %q, want %q", out.Message.Reason, ReasonKicked)
	}
}

func TestIsDisconnect(t *testing.T) {
	if HostMessage(domain.UserId("u"), nil).IsDisconnect() {
		t.Error("Message event reported as disconnect")
	}
	if !HostDisconnect(domain.UserId("u"), ReasonRoomClosed).IsDisconnect() {
		t.Error("Disconnect event not reported as disconnect")
	}
}

func TestHostWsInUnmarshal(t *testing.T) {
	raw := []byte(`{"event":"MESSAGE","userId":"abc","message":{"text":"hey"}}`)

	var in HostWsIn
	if err := json.Unmarshal(raw, &in); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if in.Event != "MESSAGE" || in.UserID != "abc" {
		t.Errorf("got %+v", in)
	}
}
