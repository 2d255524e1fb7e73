package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		packet Packet
	}{
		{
			name:   "heartbeat",
			packet: Packet{Type: Heartbeat},
		},
		{
			name:   "disconnect with endpoint",
			packet: Packet{Type: Disconnect, Endpoint: "/chat"},
		},
		{
			name:   "connect default endpoint",
			packet: Packet{Type: Connect},
		},
		{
			name:   "connect with query",
			packet: Packet{Type: Connect, Endpoint: "/chat", Data: "?token=abc"},
		},
		{
			name:   "event without args",
			packet: Packet{Type: Event, Name: "ping"},
		},
		{
			name: "event with args",
			packet: Packet{
				Type:     Event,
				Endpoint: "/chat",
				Name:     "msg",
				Args:     []interface{}{"hello", float64(3)},
			},
		},
		{
			name: "event requesting ack",
			packet: Packet{
				Type:    Event,
				ID:      "12",
				AckWith: "true",
				Name:    "save",
				Args:    []interface{}{"doc"},
			},
		},
		{
			name: "event requesting data ack",
			packet: Packet{
				Type:    Event,
				ID:      "13",
				AckWith: "data",
				Name:    "save",
			},
		},
		{
			name:   "bare ack",
			packet: Packet{Type: Ack, AckID: "4"},
		},
		{
			name:   "ack with data",
			packet: Packet{Type: Ack, AckID: "4", Args: []interface{}{"ok"}},
		},
		{
			name:   "message",
			packet: Packet{Type: Message, Data: "hi there"},
		},
		{
			name:   "message with colons in body",
			packet: Packet{Type: Message, Endpoint: "/chat", Data: "a:b:c"},
		},
		{
			name:   "json",
			packet: Packet{Type: JSON, Data: `{"a":1}`},
		},
		{
			name:   "error with reason",
			packet: Packet{Type: Error, Data: "7"},
		},
		{
			name:   "noop",
			packet: Packet{Type: Noop},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := tt.packet.Encode()
			require.NoError(t, err)

			decoded, err := Decode(encoded)
			require.NoError(t, err)
			assert.Equal(t, &tt.packet, decoded)
		})
	}
}

func TestEncodeWireForm(t *testing.T) {
	tests := []struct {
		packet Packet
		want   string
	}{
		{Packet{Type: Heartbeat}, "2::"},
		{Packet{Type: Disconnect, Endpoint: "/chat"}, "0::/chat"},
		{Packet{Type: Event, Name: "ping"}, `5:::{"name":"ping"}`},
		{Packet{Type: Event, ID: "1", AckWith: "data", Name: "x"}, `5:1+::{"name":"x"}`},
		{Packet{Type: Ack, AckID: "4", Args: []interface{}{"ok"}}, `6:::4+["ok"]`},
		{Packet{Type: Message, Data: "hi"}, "3:::hi"},
	}

	for _, tt := range tests {
		encoded, err := tt.packet.Encode()
		require.NoError(t, err)
		assert.Equal(t, tt.want, encoded)
	}
}

func TestDecodeMalformed(t *testing.T) {
	for _, frame := range []string{"", "5", "5:", "x::", "9::", `5:::not-json`} {
		_, err := Decode(frame)
		assert.Error(t, err, "frame %q", frame)
	}
}

func TestDecodeAckRequestFlag(t *testing.T) {
	p, err := Decode("5:7::" + `{"name":"x"}`)
	require.NoError(t, err)
	assert.Equal(t, "7", p.ID)
	assert.Equal(t, "true", p.AckWith)

	p, err = Decode("5:7+::" + `{"name":"x"}`)
	require.NoError(t, err)
	assert.Equal(t, "7", p.ID)
	assert.Equal(t, "data", p.AckWith)
}

func TestEncodeInvalidType(t *testing.T) {
	_, err := (&Packet{Type: Type(42)}).Encode()
	assert.Error(t, err)
}
