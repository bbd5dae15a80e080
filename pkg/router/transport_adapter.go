package router

import (
	"github.com/gabrielmiguelok/stepform/pkg/core"
	"github.com/gabrielmiguelok/stepform/pkg/protocol"
	"github.com/gabrielmiguelok/stepform/pkg/transport"
)

// transportAdapter lets a core.Socket write to a transport.Transport.
type transportAdapter struct {
	t       transport.Transport
	joinRef func() string
}

func newTransportAdapter(t transport.Transport, joinRef func() string) *transportAdapter {
	return &transportAdapter{t: t, joinRef: joinRef}
}

// Send implements core.Transport.
func (a *transportAdapter) Send(msg core.Message) error {
	out := protocol.NewMessage(protocol.EventToType(msg.Event), msg.Topic, msg.Event).
		WithRef(msg.Ref).
		WithPayload(msg.Payload)
	if a.joinRef != nil {
		out.JoinRef = a.joinRef()
	}
	return a.t.Send(out)
}

// Close implements core.Transport.
func (a *transportAdapter) Close() error {
	return a.t.Close()
}

// IsConnected implements core.Transport.
func (a *transportAdapter) IsConnected() bool {
	return a.t.IsConnected()
}
