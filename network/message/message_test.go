package message

import (
	"bytes"
	"strings"
	"testing"

	"git.gammaspectra.live/IronFish/network/network/identity"
	"git.gammaspectra.live/IronFish/network/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

const testIdentityA = identity.Identity("AQIDBAUGBwgJCgsMDQ4PEBESExQVFhcYGRobHB0eHyA=")
const testIdentityB = identity.Identity("ICEiIyQlJicoKSorLC0uLzAxMjM0NTY3ODk6Ozw9Pj8=")

func testMessages() map[string]Message {
	return map[string]Message{
		"disconnecting": &Disconnecting{
			SourceIdentity:      testIdentityA,
			DestinationIdentity: ptr(testIdentityB),
			Reason:              DisconnectingReasonCongested,
			DisconnectUntil:     1700000000000,
		},
		"disconnecting-no-destination": &Disconnecting{
			SourceIdentity: testIdentityA,
			Reason:         DisconnectingReasonShuttingDown,
		},
		"cannot-satisfy": &CannotSatisfyRequest{RpcId: 0xdeadbeef},
		"get-blocks-request": &GetBlocksRequest{
			RpcId: 7,
			Start: types.MustHashFromString(strings.Repeat("ab", types.HashSize)),
			Limit: 128,
		},
		"get-blocks-response": &GetBlocksResponse{
			RpcId:  7,
			Blocks: [][]byte{{1, 2, 3}, {}, bytes.Repeat([]byte{0xff}, 300)},
		},
		"get-blocks-response-empty": &GetBlocksResponse{RpcId: 1, Blocks: [][]byte{}},
		"identify": &Identify{
			Agent:    "ironfish-go/0.1.0",
			Version:  9,
			Head:     types.MustHashFromString(strings.Repeat("11", types.HashSize)),
			Sequence: 123456,
			Work:     "680564733841876926926749214863536422912000",
			Identity: testIdentityA,
			Name:     ptr("seed-1"),
			Port:     ptr(uint16(9033)),
		},
		"identify-minimal": &Identify{
			Identity: testIdentityB,
			Work:     "0",
		},
		"peer-list": &PeerList{
			Peers: []PeerAddress{
				{Identity: testIdentityA, Name: ptr("a"), Address: ptr("10.0.0.1"), Port: ptr(uint16(9033))},
				{Identity: testIdentityB},
				{Identity: testIdentityB, Address: ptr("node.example.com")},
			},
		},
		"peer-list-empty":   &PeerList{Peers: []PeerAddress{}},
		"peer-list-request": &PeerListRequest{},
		"signal": &Signal{
			Source:      testIdentityA,
			Destination: testIdentityB,
			Nonce:       "bm9uY2Vub25jZW5vbmNlbm9uY2Vub25j",
			Signal:      strings.Repeat("c2lnbmFs", 64),
		},
		"signal-request": &SignalRequest{
			Source:      testIdentityA,
			Destination: testIdentityB,
		},
	}
}

func TestMessageRoundTrip(t *testing.T) {
	t.Parallel()

	for name, m := range testMessages() {
		m := m
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			buf, err := m.MarshalBinary()
			require.NoError(t, err)
			assert.Equal(t, m.BufferLength(), len(buf), "BufferLength must match serialized size")

			decoded, err := registry[m.Type()](buf)
			require.NoError(t, err)
			assert.Equal(t, m, decoded)
		})
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	t.Parallel()

	for name, m := range testMessages() {
		m := m
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			buf, err := MarshalWithMetadata(m)
			require.NoError(t, err)
			require.Len(t, buf, HeaderSize+m.BufferLength())
			assert.Equal(t, byte(m.Type()), buf[0])

			decoded, err := UnmarshalEnvelope(buf)
			require.NoError(t, err)
			assert.Equal(t, m, decoded)

			// same through the stream reader
			decoded, err = ReadMessage(bytes.NewReader(buf))
			require.NoError(t, err)
			assert.Equal(t, m, decoded)
		})
	}
}

func TestRawEnvelopeRoundTrip(t *testing.T) {
	t.Parallel()

	for _, payload := range [][]byte{{}, {0}, bytes.Repeat([]byte{0x5a}, 70000)} {
		e := &Envelope{Type: MessageGetBlocksResponse, Length: uint64(len(payload)), Payload: payload}
		buf, err := e.MarshalBinary()
		require.NoError(t, err)
		require.Len(t, buf, HeaderSize+len(payload))

		var decoded Envelope
		require.NoError(t, decoded.UnmarshalBinary(buf))
		assert.Equal(t, e.Type, decoded.Type)
		assert.Equal(t, e.Length, decoded.Length)
		assert.True(t, bytes.Equal(payload, decoded.Payload))
	}

	_, err := (&Envelope{Type: MessageSignal, Length: 3, Payload: []byte{1}}).MarshalBinary()
	assert.Error(t, err)

	for name, m := range testMessages() {
		e, err := NewEnvelope(m)
		require.NoError(t, err, name)
		assert.Equal(t, m.Type(), e.Type, name)
		assert.Equal(t, uint64(m.BufferLength()), e.Length, name)

		buf, err := e.MarshalBinary()
		require.NoError(t, err, name)
		framed, err := MarshalWithMetadata(m)
		require.NoError(t, err, name)
		assert.Equal(t, framed, buf, name)

		decoded, err := e.Message()
		require.NoError(t, err, name)
		assert.Equal(t, m, decoded, name)
	}
}

func TestPeerListRequestEnvelope(t *testing.T) {
	t.Parallel()

	m := &PeerListRequest{}
	buf, err := m.MarshalBinary()
	require.NoError(t, err)
	assert.Empty(t, buf)
	assert.Equal(t, 0, m.BufferLength())

	envelope, err := MarshalWithMetadata(m)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x06, 0, 0, 0, 0, 0, 0, 0, 0}, envelope)

	decoded, err := UnmarshalEnvelope(envelope)
	require.NoError(t, err)
	assert.Equal(t, m, decoded)
}

func TestIdentifyScenario(t *testing.T) {
	t.Parallel()

	m := &Identify{
		Agent:    "node/1.0",
		Version:  1,
		Head:     types.MustHashFromString(strings.Repeat("aa", 32)),
		Sequence: 5,
		Work:     "100",
		Identity: testIdentityA,
	}

	buf, err := MarshalWithMetadata(m)
	require.NoError(t, err)

	decoded, err := UnmarshalEnvelope(buf)
	require.NoError(t, err)
	identify, ok := decoded.(*Identify)
	require.True(t, ok)

	assert.Equal(t, "node/1.0", identify.Agent)
	assert.Equal(t, uint32(1), identify.Version)
	assert.Equal(t, strings.Repeat("aa", 32), identify.Head.String())
	assert.Equal(t, uint64(5), identify.Sequence)
	assert.Equal(t, "100", identify.Work)
	assert.Equal(t, testIdentityA, identify.Identity)
	assert.Nil(t, identify.Name)
	assert.Nil(t, identify.Port)
}

func TestMessageTypeCodes(t *testing.T) {
	t.Parallel()

	for code, name := range []string{
		"Disconnecting",
		"CannotSatisfyRequest",
		"GetBlocksRequest",
		"GetBlocksResponse",
		"Identify",
		"PeerList",
		"PeerListRequest",
		"Signal",
		"SignalRequest",
	} {
		assert.Equal(t, name, MessageType(code).String())
		assert.True(t, MessageType(code).Known())
	}
	assert.False(t, MessageType(9).Known())
	assert.False(t, MessageType(0xff).Known())

	for _, m := range testMessages() {
		assert.Equal(t, typeName(m), m.Type().String())
	}
}

func typeName(m Message) string {
	switch m.(type) {
	case *Disconnecting:
		return "Disconnecting"
	case *CannotSatisfyRequest:
		return "CannotSatisfyRequest"
	case *GetBlocksRequest:
		return "GetBlocksRequest"
	case *GetBlocksResponse:
		return "GetBlocksResponse"
	case *Identify:
		return "Identify"
	case *PeerList:
		return "PeerList"
	case *PeerListRequest:
		return "PeerListRequest"
	case *Signal:
		return "Signal"
	case *SignalRequest:
		return "SignalRequest"
	default:
		return ""
	}
}
