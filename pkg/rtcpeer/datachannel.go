package rtcpeer

import (
	"github.com/pion/webrtc/v3"

	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/voice"
)

type dataChannel struct {
	dc *webrtc.DataChannel
}

func (c *dataChannel) Send(data []byte) error {
	return c.dc.Send(data)
}

func (c *dataChannel) OnMessage(fn func(data []byte)) {
	c.dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		fn(msg.Data)
	})
}

func (c *dataChannel) OnOpen(fn func())  { c.dc.OnOpen(fn) }
func (c *dataChannel) OnClose(fn func()) { c.dc.OnClose(fn) }

func (c *dataChannel) IsOpen() bool {
	return c.dc.ReadyState() == webrtc.DataChannelStateOpen
}

func (c *dataChannel) Close() error {
	return c.dc.Close()
}

var _ voice.EventChannel = (*dataChannel)(nil)
