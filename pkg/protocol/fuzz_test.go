package protocol

import (
	"reflect"
	"testing"
)

func FuzzPhoenixDecode(f *testing.F) {
	f.Add([]byte(`[null,"1","lv:abc","phx_join",{}]`))
	f.Add([]byte(`["1","2","lv:abc","input",{"field":"name","value":"Ada"}]`))
	f.Add([]byte(`["1","3","lv:abc","viewport",{"width":800}]`))
	f.Add([]byte(`[null,null,"t","e",null]`))
	f.Add([]byte(`[]`))
	f.Add([]byte(`[1,2,3,4,5]`))
	f.Add([]byte(`["","","","",{}]`))
	f.Add([]byte(`{"ref":"1"}`))
	f.Add([]byte(`{malformed`))
	f.Add([]byte(``))

	codec := NewPhoenixCodec()

	f.Fuzz(func(t *testing.T, data []byte) {
		msg, err := codec.Decode(data)
		if err != nil {
			return
		}

		out, err := codec.Encode(msg)
		if err != nil {
			return
		}

		msg2, err := codec.Decode(out)
		if err != nil {
			t.Fatalf("failed to decode encoded message: %v", err)
		}
		if !messagesEqual(msg, msg2) {
			t.Errorf("roundtrip mismatch: %+v != %+v", msg, msg2)
		}
	})
}

func FuzzPayloadInt(f *testing.F) {
	f.Add("1024")
	f.Add("")
	f.Add("-1")
	f.Add("12a")

	f.Fuzz(func(t *testing.T, s string) {
		if n := PayloadInt(map[string]any{"width": s}, "width"); n < 0 && len(s) < 19 {
			t.Errorf("PayloadInt(%q) = %d, want non-negative", s, n)
		}
	})
}

func messagesEqual(a, b *Message) bool {
	if a.Ref != b.Ref || a.JoinRef != b.JoinRef || a.Topic != b.Topic || a.Event != b.Event {
		return false
	}
	if len(a.Payload) != len(b.Payload) {
		return false
	}
	for k, v := range a.Payload {
		if !reflect.DeepEqual(v, b.Payload[k]) {
			return false
		}
	}
	return true
}
