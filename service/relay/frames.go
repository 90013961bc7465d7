package relay

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Visitor wire protocol: every frame on the WebSocket is a JSON envelope
// {"event": <name>, "data": {...}}. Inbound we accept chatMessage only;
// outbound we emit chatMessage (local echo), adminMessage and liveUserCount.

const (
	EventChatMessage  = "chatMessage"
	EventAdminMessage = "adminMessage"
	EventLiveCount    = "liveUserCount"
)

const (
	SenderVisitor = "visitor"
	SenderAdmin   = "admin"
	SenderSystem  = "system"
)

// ChatMessage is a single transient chat line; no identity beyond content.
type ChatMessage struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type liveCountPayload struct {
	Count int `json:"count"`
}

func ParseFrameJSON(raw []byte) (*Frame, error) {
	frame := &Frame{}
	if err := json.Unmarshal(raw, frame); err != nil {
		return nil, errors.Wrap(err, "unmarshal frame failed")
	}
	if frame.Event == "" {
		return nil, errors.New("frame missing event")
	}
	return frame, nil
}

// ChatMessage decodes the frame payload; valid only for chatMessage frames.
func (f *Frame) ChatMessage() (*ChatMessage, error) {
	if f.Event != EventChatMessage {
		return nil, errors.Errorf("not a chat message frame: %s", f.Event)
	}
	msg := &ChatMessage{}
	if err := json.Unmarshal(f.Data, msg); err != nil {
		return nil, errors.Wrap(err, "unmarshal chat message failed")
	}
	return msg, nil
}

// ---- outbound frame builders ----

func buildFrame(event string, data any) []byte {
	raw, _ := json.Marshal(data)
	b, _ := json.Marshal(Frame{Event: event, Data: raw})
	return b
}

// BuildChatEcho is the local-echo frame: the visitor's own message reflected
// back so the browser renders it without a channel round trip.
func BuildChatEcho(msg ChatMessage) []byte {
	return buildFrame(EventChatMessage, msg)
}

func BuildAdminMessage(msg ChatMessage) []byte {
	return buildFrame(EventAdminMessage, msg)
}

func BuildLiveCount(count int) []byte {
	return buildFrame(EventLiveCount, liveCountPayload{Count: count})
}
