package socketio

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keesun/go-socket.io/parser"
)

// fakeTransport records everything pushed through it.
type fakeTransport struct {
	mutex      sync.Mutex
	open       bool
	dispatched []string
	payloads   [][]string
	discarded  bool
}

func newFakeTransport(open bool) *fakeTransport {
	return &fakeTransport{open: open}
}

func (t *fakeTransport) Name() string { return "fake" }

func (t *fakeTransport) Open() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.open
}

func (t *fakeTransport) Dispatch(packet string, volatile bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.dispatched = append(t.dispatched, packet)
}

func (t *fakeTransport) Payload(packets []string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.payloads = append(t.payloads, append([]string(nil), packets...))
}

func (t *fakeTransport) Discard() {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.open = false
	t.discarded = true
}

func (t *fakeTransport) packets() []string {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return append([]string(nil), t.dispatched...)
}

func (t *fakeTransport) payloadCalls() [][]string {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return append([][]string(nil), t.payloads...)
}

func TestDispatchDirectWhenOpen(t *testing.T) {
	m := NewManager(nil)
	ft := newFakeTransport(true)
	m.BindTransport("1", ft)

	m.Dispatch("1", "pkt-a", false)

	assert.Equal(t, []string{"pkt-a"}, ft.packets())
	m.mutex.Lock()
	assert.Empty(t, m.closed["1"])
	m.mutex.Unlock()
}

func TestDispatchBuffersWithoutTransport(t *testing.T) {
	m := NewManager(nil)

	m.Dispatch("9", "A", false)
	m.Dispatch("9", "B", false)
	m.Dispatch("9", "C", false)

	m.mutex.Lock()
	assert.Equal(t, []string{"A", "B", "C"}, m.closed["9"])
	m.mutex.Unlock()
}

func TestDispatchDropsVolatileWithoutTransport(t *testing.T) {
	m := NewManager(nil)

	m.Dispatch("9", "A", true)

	m.mutex.Lock()
	assert.Empty(t, m.closed["9"])
	m.mutex.Unlock()
}

func TestDispatchBuffersWhenTransportClosed(t *testing.T) {
	m := NewManager(nil)
	ft := newFakeTransport(false)
	m.BindTransport("1", ft)

	m.Dispatch("1", "pkt", false)

	assert.Empty(t, ft.packets())
	m.mutex.Lock()
	assert.Equal(t, []string{"pkt"}, m.closed["1"])
	m.mutex.Unlock()
}

func TestReplayDrainsBufferInOrder(t *testing.T) {
	m := NewManager(nil)

	m.Dispatch("9", "A", false)
	m.Dispatch("9", "B", false)
	m.Dispatch("9", "C", false)

	ft := newFakeTransport(true)
	m.BindTransport("9", ft)
	m.OnOpen("9")

	require.Len(t, ft.payloadCalls(), 1)
	assert.Equal(t, []string{"A", "B", "C"}, ft.payloadCalls()[0])

	// buffer is drained: a second open replays nothing
	m.OnOpen("9")
	assert.Len(t, ft.payloadCalls(), 1)
}

func TestBindTransportDiscardsPrevious(t *testing.T) {
	m := NewManager(nil)
	first := newFakeTransport(true)
	second := newFakeTransport(true)

	m.BindTransport("1", first)
	m.BindTransport("1", second)

	assert.True(t, first.discarded)
	assert.False(t, second.discarded)
	assert.Same(t, second, m.Transport("1").(*fakeTransport))
}

func TestJoinLeaveRoundTrip(t *testing.T) {
	m := NewManager(nil)

	m.Join("s", "/chat")
	assert.Equal(t, 1, m.RoomLen("/chat"))

	m.Leave("s", "/chat")
	assert.Equal(t, 0, m.RoomLen("/chat"))
	assert.NotContains(t, m.Rooms(), "/chat")

	m.mutex.Lock()
	rc := m.roomClients["s"]
	m.mutex.Unlock()
	require.NotNil(t, rc)
	assert.False(t, rc.isIn("/chat"))
}

func TestJoinIsIdempotent(t *testing.T) {
	m := NewManager(nil)

	m.Join("s", "/chat")
	m.Join("s", "/chat")

	assert.Equal(t, 1, m.RoomLen("/chat"))
}

func TestLeaveUnknownRoomIsNoop(t *testing.T) {
	m := NewManager(nil)

	m.Leave("s", "/nowhere")
	assert.Equal(t, 0, m.RoomLen("/nowhere"))
}

func TestBroadcastDispatchHonorsExclusions(t *testing.T) {
	m := NewManager(nil)
	t42 := newFakeTransport(true)
	t7 := newFakeTransport(true)
	m.BindTransport("42", t42)
	m.BindTransport("7", t7)

	m.Join("42", "/chat")
	m.Join("7", "/chat")

	m.BroadcastDispatch("/chat", "pkt", false, []string{"7"})

	assert.Equal(t, []string{"pkt"}, t42.packets())
	assert.Empty(t, t7.packets())
}

func TestBroadcastDispatchBuffersClosedMembers(t *testing.T) {
	m := NewManager(nil)
	m.Join("a", "/chat")
	m.Join("b", "/chat")
	tb := newFakeTransport(true)
	m.BindTransport("b", tb)

	m.BroadcastDispatch("/chat", "pkt", false, nil)

	assert.Equal(t, []string{"pkt"}, tb.packets())
	m.mutex.Lock()
	assert.Equal(t, []string{"pkt"}, m.closed["a"])
	m.mutex.Unlock()
}

func TestBroadcastDispatchUnknownRoomIsNoop(t *testing.T) {
	m := NewManager(nil)
	m.BroadcastDispatch("/ghost", "pkt", false, nil)
}

func TestHandshakeRecordsAndOverwrites(t *testing.T) {
	m := NewManager(nil)

	require.NoError(t, m.Handshake("1", HandshakeData{Address: "10.0.0.1"}))
	require.NoError(t, m.Handshake("1", HandshakeData{Address: "10.0.0.2"}))

	data, ok := m.Handshaken("1")
	require.True(t, ok)
	assert.Equal(t, "10.0.0.2", data.Address)
}

func TestHandshakeAuthorizationGate(t *testing.T) {
	m := NewManager(nil)
	m.SetAuthorization(func(data HandshakeData) bool {
		return data.Address != "10.6.6.6"
	})

	assert.NoError(t, m.Handshake("ok", HandshakeData{Address: "10.0.0.1"}))

	err := m.Handshake("bad", HandshakeData{Address: "10.6.6.6"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, ok := m.Handshaken("bad")
	assert.False(t, ok)
}

func TestNewTransportUnsupportedKind(t *testing.T) {
	m := NewManager(nil)

	_, err := m.NewTransport("carrier-pigeon", &ClientData{})
	assert.ErrorIs(t, err, ErrUnsupportedTransport)
}

func TestNewTransportKnownKinds(t *testing.T) {
	m := NewManager(nil)

	for kind, want := range map[string]string{
		"websocket":     "websocket",
		"flashsocket":   "flashsocket",
		"htmlfile":      "htmlfile",
		"xhr-polling":   "xhr-polling",
		"jsonp-polling": "jsonp-polling",
	} {
		tr, err := m.NewTransport(kind, &ClientData{})
		require.NoError(t, err, kind)
		assert.Equal(t, want, tr.Name())
	}
}

func TestDisconnectTearsDownEverything(t *testing.T) {
	m := NewManager(nil)
	ns := m.Of(DefaultNamespace)

	var disconnects []string
	ns.OnDisconnect(func(s *Socket, reason string) {
		disconnects = append(disconnects, s.ID())
	})

	require.NoError(t, m.Handshake("1", HandshakeData{}))
	ns.ConnectSocket("1", true)
	m.Join("1", "/chat")
	m.OnClose("1")
	m.Dispatch("1", "pending", false)

	m.mutex.Lock()
	require.Equal(t, []string{"pending"}, m.closed["1"])
	m.mutex.Unlock()

	ft := newFakeTransport(false)
	m.BindTransport("1", ft)

	m.OnClientDisconnect("1", "transport error")

	_, ok := m.Handshaken("1")
	assert.False(t, ok)
	assert.Nil(t, m.Transport("1"))
	assert.True(t, ft.discarded)
	assert.Equal(t, 0, m.RoomLen("/chat"))
	assert.Equal(t, 0, m.RoomLen("/"))
	assert.False(t, m.Connected("1"))
	m.mutex.Lock()
	assert.Empty(t, m.closed["1"])
	assert.NotContains(t, m.roomClients, "1")
	m.mutex.Unlock()
	assert.Equal(t, []string{"1"}, disconnects)

	// a second disconnect is a no-op
	m.OnClientDisconnect("1", "transport error")
	assert.Equal(t, []string{"1"}, disconnects)
}

func TestOnClientMessageRoutesToNamespace(t *testing.T) {
	m := NewManager(nil)
	ns := m.Of("/chat")

	var got []interface{}
	ns.OnEvent("msg", func(s *Socket, args []interface{}) {
		got = args
	})
	ns.ConnectSocket("1", true)

	m.OnClientMessage("1", &parser.Packet{
		Type:     parser.Event,
		Endpoint: "/chat",
		Name:     "msg",
		Args:     []interface{}{"hello"},
	})

	assert.Equal(t, []interface{}{"hello"}, got)
}

func TestOnClientMessageUnknownEndpointIgnored(t *testing.T) {
	m := NewManager(nil)

	m.OnClientMessage("1", &parser.Packet{Type: parser.Event, Endpoint: "/ghost", Name: "x"})
}

func TestOfReturnsSameNamespace(t *testing.T) {
	m := NewManager(nil)

	assert.Same(t, m.Of("/chat"), m.Of("/chat"))
	assert.Same(t, m.Sockets(), m.Of(DefaultNamespace))
}

func TestRoomScenarioBroadcastWithExclusion(t *testing.T) {
	m := NewManager(nil)
	ns := m.Of(DefaultNamespace)

	t42 := newFakeTransport(true)
	t7 := newFakeTransport(true)
	m.BindTransport("42", t42)
	m.BindTransport("7", t7)
	ns.ConnectSocket("42", true)
	ns.ConnectSocket("7", true)
	m.Join("42", "/chat")
	m.Join("7", "/chat")

	require.NoError(t, ns.In("chat").Except("7").Emit("news", "hello"))

	require.Len(t, t42.packets(), 1)
	decoded, err := parser.Decode(t42.packets()[0])
	require.NoError(t, err)
	assert.Equal(t, "news", decoded.Name)
	assert.Empty(t, t7.packets())
}
