// Package protocol defines the wire messages exchanged with the browser.
package protocol

import (
	"time"
)

// MessageType identifies the kind of protocol message.
type MessageType uint8

const (
	// MsgJoin is sent when a client joins its live view.
	MsgJoin MessageType = iota
	// MsgLeave is sent when a client leaves.
	MsgLeave
	// MsgEvent is a user interaction.
	MsgEvent
	// MsgReply answers a request carrying a ref.
	MsgReply
	// MsgDiff carries re-rendered slots.
	MsgDiff
	// MsgHeartbeat keeps the connection alive.
	MsgHeartbeat
	// MsgPush is a server-initiated event such as layout or ack.
	MsgPush
)

// String returns a string representation of the message type.
func (mt MessageType) String() string {
	switch mt {
	case MsgJoin:
		return "join"
	case MsgLeave:
		return "leave"
	case MsgEvent:
		return "event"
	case MsgReply:
		return "reply"
	case MsgDiff:
		return "diff"
	case MsgHeartbeat:
		return "heartbeat"
	case MsgPush:
		return "push"
	default:
		return "unknown"
	}
}

// Message is a protocol message exchanged between client and server.
type Message struct {
	Type      MessageType    `json:"t" msgpack:"t"`
	Ref       string         `json:"ref,omitempty" msgpack:"ref,omitempty"`
	Topic     string         `json:"topic" msgpack:"topic"`
	Event     string         `json:"event,omitempty" msgpack:"event,omitempty"`
	Payload   map[string]any `json:"payload,omitempty" msgpack:"payload,omitempty"`
	Timestamp int64          `json:"ts,omitempty" msgpack:"ts,omitempty"`
	JoinRef   string         `json:"join_ref,omitempty" msgpack:"join_ref,omitempty"`
}

// NewMessage creates a message stamped with the current time.
func NewMessage(msgType MessageType, topic, event string) *Message {
	return &Message{
		Type:      msgType,
		Topic:     topic,
		Event:     event,
		Payload:   make(map[string]any),
		Timestamp: time.Now().UnixMilli(),
	}
}

// WithRef adds a reference ID to the message.
func (m *Message) WithRef(ref string) *Message {
	m.Ref = ref
	return m
}

// WithPayload sets the message payload.
func (m *Message) WithPayload(payload map[string]any) *Message {
	m.Payload = payload
	return m
}

// PayloadString retrieves a string value from the payload.
func (m *Message) PayloadString(key string) string {
	return PayloadString(m.Payload, key)
}

// PayloadInt retrieves an integer value from the payload.
func (m *Message) PayloadInt(key string) int {
	return PayloadInt(m.Payload, key)
}

// PayloadString reads key from payload as a string.
func PayloadString(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

// PayloadInt reads key from payload as an int. JSON numbers arrive as
// float64, msgpack integers as any sized int, browsers sometimes send strings.
func PayloadInt(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case int:
		return v
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	case uint8:
		return int(v)
	case uint16:
		return int(v)
	case uint32:
		return int(v)
	case uint64:
		return int(v)
	case float32:
		return int(v)
	case float64:
		return int(v)
	case string:
		n := 0
		for _, c := range v {
			if c < '0' || c > '9' {
				return 0
			}
			n = n*10 + int(c-'0')
		}
		return n
	default:
		return 0
	}
}

// ReplyMessage creates a reply to the request identified by ref.
func ReplyMessage(ref, topic, status string, response map[string]any) *Message {
	return NewMessage(MsgReply, topic, "phx_reply").
		WithRef(ref).
		WithPayload(map[string]any{
			"status":   status,
			"response": response,
		})
}

// OkReply creates a successful reply.
func OkReply(ref, topic string, response map[string]any) *Message {
	return ReplyMessage(ref, topic, "ok", response)
}

// ErrorReply creates an error reply.
func ErrorReply(ref, topic, reason string) *Message {
	return ReplyMessage(ref, topic, "error", map[string]any{"reason": reason})
}

// EventToType maps event names to message types.
func EventToType(event string) MessageType {
	switch event {
	case "phx_join":
		return MsgJoin
	case "phx_leave":
		return MsgLeave
	case "phx_reply":
		return MsgReply
	case "heartbeat", "phx_heartbeat":
		return MsgHeartbeat
	case "diff":
		return MsgDiff
	case "layout", "ack":
		return MsgPush
	default:
		return MsgEvent
	}
}
