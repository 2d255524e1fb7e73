package parser

// Type identifies a socket.io packet on the wire.
type Type int

const (
	Disconnect Type = iota
	Connect
	Heartbeat
	Message
	JSON
	Event
	Ack
	Error
	Noop
)

func (t Type) Valid() bool {
	return t >= Disconnect && t <= Noop
}

func (t Type) String() string {
	switch t {
	case Disconnect:
		return "disconnect"
	case Connect:
		return "connect"
	case Heartbeat:
		return "heartbeat"
	case Message:
		return "message"
	case JSON:
		return "json"
	case Event:
		return "event"
	case Ack:
		return "ack"
	case Error:
		return "error"
	case Noop:
		return "noop"
	default:
		return "unknown"
	}
}

// Packet is the transport-agnostic form of one socket.io frame.
//
// ID and AckWith carry the acknowledgement metadata. AckWith is either empty,
// "true" (bare ack requested) or "data" (ack carries arguments). The codec
// round-trips both fields; correlation of acks to callbacks is left to the
// application.
type Packet struct {
	Type     Type
	ID       string
	AckWith  string
	Endpoint string

	// Name and Args are set for Event packets; Args alone for Ack packets
	// replying with data. Data holds the body of Message and JSON packets
	// and the reason of Error packets.
	Name string
	Args []interface{}
	Data string

	// AckID is the id being acknowledged, set on Ack packets.
	AckID string
}
