package parser

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// The wire format is "type:id:endpoint:data". The id segment grows a "+"
// suffix when the sender wants the acknowledgement to carry data. The data
// segment is type-dependent and may itself contain colons, so it is always
// the final segment.

type eventBody struct {
	Name string        `json:"name"`
	Args []interface{} `json:"args,omitempty"`
}

// Encode renders the packet to its wire form.
func (p *Packet) Encode() (string, error) {
	if !p.Type.Valid() {
		return "", fmt.Errorf("encode: invalid packet type %d", int(p.Type))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d:", int(p.Type))

	b.WriteString(p.ID)
	if p.AckWith == "data" {
		b.WriteByte('+')
	}
	b.WriteByte(':')
	b.WriteString(p.Endpoint)

	data, err := p.encodeData()
	if err != nil {
		return "", err
	}
	if data != "" {
		b.WriteByte(':')
		b.WriteString(data)
	}

	return b.String(), nil
}

func (p *Packet) encodeData() (string, error) {
	switch p.Type {
	case Event:
		body, err := json.Marshal(eventBody{Name: p.Name, Args: p.Args})
		if err != nil {
			return "", fmt.Errorf("encode event %q: %w", p.Name, err)
		}
		return string(body), nil

	case Ack:
		if len(p.Args) == 0 {
			return p.AckID, nil
		}
		args, err := json.Marshal(p.Args)
		if err != nil {
			return "", fmt.Errorf("encode ack %s: %w", p.AckID, err)
		}
		return p.AckID + "+" + string(args), nil

	case Message, JSON, Connect, Error:
		return p.Data, nil
	}

	// heartbeat, disconnect, noop carry no body
	return "", nil
}

// Decode parses a wire frame back into a packet. It is the inverse of
// Encode for every valid packet: a packet carrying an ID always has AckWith
// "true" or "data", since the wire cannot represent an id without an
// acknowledgement request.
func Decode(frame string) (*Packet, error) {
	parts := strings.SplitN(frame, ":", 4)
	if len(parts) < 3 {
		return nil, fmt.Errorf("decode: malformed frame %q", frame)
	}

	typ, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, fmt.Errorf("decode: bad type in %q: %w", frame, err)
	}

	p := &Packet{Type: Type(typ), Endpoint: parts[2]}
	if !p.Type.Valid() {
		return nil, fmt.Errorf("decode: unknown packet type %d", typ)
	}

	id := parts[1]
	if strings.HasSuffix(id, "+") {
		p.ID = id[:len(id)-1]
		p.AckWith = "data"
	} else if id != "" {
		p.ID = id
		p.AckWith = "true"
	}

	if len(parts) == 4 {
		if err := p.decodeData(parts[3]); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func (p *Packet) decodeData(data string) error {
	switch p.Type {
	case Event:
		var body eventBody
		if err := json.Unmarshal([]byte(data), &body); err != nil {
			return fmt.Errorf("decode event body: %w", err)
		}
		p.Name = body.Name
		p.Args = body.Args

	case Ack:
		ackID, args, hasArgs := strings.Cut(data, "+")
		p.AckID = ackID
		if hasArgs {
			if err := json.Unmarshal([]byte(args), &p.Args); err != nil {
				return fmt.Errorf("decode ack args: %w", err)
			}
		}

	case Message, JSON, Connect, Error:
		p.Data = data
	}

	return nil
}
