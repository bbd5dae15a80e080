package protocol

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Common codec errors.
var (
	ErrInvalidMessage = errors.New("invalid message format")
	ErrUnknownCodec   = errors.New("unknown codec type")
)

// Codec handles message encoding/decoding.
type Codec interface {
	// Encode serializes a message to bytes.
	Encode(msg *Message) ([]byte, error)

	// Decode deserializes bytes to a message.
	Decode(data []byte) (*Message, error)

	// Name returns the codec name.
	Name() string

	// Binary reports whether frames must be sent as binary.
	Binary() bool
}

// JSONCodec encodes messages as JSON objects.
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

func (c *JSONCodec) Encode(msg *Message) ([]byte, error) {
	return json.Marshal(msg)
}

func (c *JSONCodec) Decode(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Event == "" {
		return nil, ErrInvalidMessage
	}
	msg.Type = EventToType(msg.Event)
	return &msg, nil
}

func (c *JSONCodec) Name() string { return "json" }
func (c *JSONCodec) Binary() bool { return false }

// MsgPackCodec encodes messages with MessagePack.
type MsgPackCodec struct{}

// NewMsgPackCodec creates a new MsgPack codec.
func NewMsgPackCodec() *MsgPackCodec {
	return &MsgPackCodec{}
}

func (c *MsgPackCodec) Encode(msg *Message) ([]byte, error) {
	return msgpack.Marshal(msg)
}

func (c *MsgPackCodec) Decode(data []byte) (*Message, error) {
	var msg Message
	if err := msgpack.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Event == "" {
		return nil, ErrInvalidMessage
	}
	msg.Type = EventToType(msg.Event)
	return &msg, nil
}

func (c *MsgPackCodec) Name() string { return "msgpack" }
func (c *MsgPackCodec) Binary() bool { return true }

// PhoenixCodec implements the Phoenix tuple wire format spoken by the
// embedded client: [join_ref, ref, topic, event, payload].
type PhoenixCodec struct{}

// NewPhoenixCodec creates a new Phoenix-compatible codec.
func NewPhoenixCodec() *PhoenixCodec {
	return &PhoenixCodec{}
}

func (c *PhoenixCodec) Encode(msg *Message) ([]byte, error) {
	tuple := []any{
		nullable(msg.JoinRef),
		nullable(msg.Ref),
		msg.Topic,
		msg.Event,
		msg.Payload,
	}
	return json.Marshal(tuple)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (c *PhoenixCodec) Decode(data []byte) (*Message, error) {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return nil, err
	}
	if len(tuple) != 5 {
		return nil, ErrInvalidMessage
	}

	msg := &Message{}

	var joinRef *string
	if err := json.Unmarshal(tuple[0], &joinRef); err == nil && joinRef != nil {
		msg.JoinRef = *joinRef
	}

	var ref *string
	if err := json.Unmarshal(tuple[1], &ref); err == nil && ref != nil {
		msg.Ref = *ref
	}

	if err := json.Unmarshal(tuple[2], &msg.Topic); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(tuple[3], &msg.Event); err != nil {
		return nil, err
	}
	if msg.Event == "" {
		return nil, ErrInvalidMessage
	}

	if err := json.Unmarshal(tuple[4], &msg.Payload); err != nil || msg.Payload == nil {
		msg.Payload = make(map[string]any)
	}

	msg.Type = EventToType(msg.Event)
	return msg, nil
}

func (c *PhoenixCodec) Name() string { return "phoenix" }
func (c *PhoenixCodec) Binary() bool { return false }

// CodecRegistry resolves codecs by name.
type CodecRegistry struct {
	codecs       map[string]Codec
	defaultCodec Codec
	mu           sync.RWMutex
}

// NewCodecRegistry creates a registry holding the json, msgpack and phoenix
// codecs, with phoenix as default.
func NewCodecRegistry() *CodecRegistry {
	r := &CodecRegistry{
		codecs: make(map[string]Codec),
	}
	r.Register(NewJSONCodec())
	r.Register(NewMsgPackCodec())
	phoenix := NewPhoenixCodec()
	r.Register(phoenix)
	r.defaultCodec = phoenix
	return r
}

// Register adds a codec to the registry.
func (r *CodecRegistry) Register(codec Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[codec.Name()] = codec
}

// Get retrieves a codec by name.
func (r *CodecRegistry) Get(name string) (Codec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codecs[name]
	return c, ok
}

// Default returns the default codec.
func (r *CodecRegistry) Default() Codec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultCodec
}

// SetDefault sets the default codec.
func (r *CodecRegistry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.codecs[name]
	if !ok {
		return ErrUnknownCodec
	}
	r.defaultCodec = c
	return nil
}

// Resolve returns the named codec, or the default when name is empty or unknown.
func (r *CodecRegistry) Resolve(name string) Codec {
	if name != "" {
		if c, ok := r.Get(name); ok {
			return c
		}
	}
	return r.Default()
}
