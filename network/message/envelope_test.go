package message

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func header(t MessageType, length uint64) []byte {
	return binary.LittleEndian.AppendUint64([]byte{byte(t)}, length)
}

func TestEnvelopeDecodeErrors(t *testing.T) {
	t.Parallel()

	identify, err := MarshalWithMetadata(testMessages()["identify"])
	require.NoError(t, err)

	for _, tc := range []struct {
		name  string
		input []byte
		err   error
	}{
		{name: "empty", input: nil, err: ErrTruncatedMessage},
		{name: "unknown-type", input: header(9, 0), err: ErrUnknownMessageType},
		{name: "unknown-type-high", input: []byte{0xff}, err: ErrUnknownMessageType},
		{name: "short-header", input: []byte{byte(MessagePeerListRequest), 0, 0}, err: ErrTruncatedMessage},
		{name: "type-only", input: []byte{byte(MessagePeerListRequest)}, err: ErrTruncatedMessage},
		{name: "short-payload", input: identify[:len(identify)-1], err: ErrTruncatedMessage},
		{name: "huge-length", input: append(header(MessageSignal, 1<<63+5), 1, 2, 3), err: ErrTruncatedMessage},
		{name: "trailing-bytes", input: append(header(MessagePeerListRequest, 0), 0), err: ErrMalformedPayload},
		{name: "payload-too-short-for-variant", input: append(header(MessageCannotSatisfyRequest, 2), 1, 2), err: ErrMalformedPayload},
		{name: "payload-longer-than-variant", input: append(header(MessageCannotSatisfyRequest, 5), 1, 2, 3, 4, 5), err: ErrMalformedPayload},
		{name: "bad-presence-flag", input: append(header(MessageDisconnecting, 12), append([]byte{0, 2}, make([]byte, 10)...)...), err: ErrMalformedPayload},
		{name: "count-exceeds-payload", input: append(header(MessagePeerList, 2), 0xff, 0x01), err: ErrMalformedPayload},
		{name: "string-exceeds-payload", input: append(header(MessageSignalRequest, 2), 0x10, 'a'), err: ErrMalformedPayload},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m, err := UnmarshalEnvelope(tc.input)
			require.Error(t, err)
			assert.Nil(t, m)
			assert.True(t, errors.Is(err, tc.err), "expected %v, got %v", tc.err, err)
		})
	}
}

func TestEnvelopeDataless(t *testing.T) {
	t.Parallel()

	// dataless variants ignore their payload
	m, err := UnmarshalEnvelope(append(header(MessagePeerListRequest, 3), 1, 2, 3))
	require.NoError(t, err)
	assert.IsType(t, &PeerListRequest{}, m)
}

func TestReadMessageStream(t *testing.T) {
	t.Parallel()

	var stream bytes.Buffer
	messages := []Message{
		testMessages()["identify"],
		&PeerListRequest{},
		testMessages()["peer-list"],
		testMessages()["signal"],
	}
	for _, m := range messages {
		buf, err := MarshalWithMetadata(m)
		require.NoError(t, err)
		stream.Write(buf)
	}

	for _, expected := range messages {
		m, err := ReadMessage(&stream)
		require.NoError(t, err)
		assert.Equal(t, expected, m)
	}

	// clean end of stream
	_, err := ReadMessage(&stream)
	assert.Equal(t, io.EOF, err)
}

func TestReadMessageTruncatedStream(t *testing.T) {
	t.Parallel()

	buf, err := MarshalWithMetadata(testMessages()["signal"])
	require.NoError(t, err)

	for _, n := range []int{1, 5, HeaderSize, len(buf) - 1} {
		_, err = ReadMessage(bytes.NewReader(buf[:n]))
		assert.ErrorIs(t, err, ErrTruncatedMessage)
		assert.NotErrorIs(t, err, io.EOF)
	}
}

func TestDecoderMaxPayloadSize(t *testing.T) {
	t.Parallel()

	buf, err := MarshalWithMetadata(testMessages()["get-blocks-response"])
	require.NoError(t, err)

	_, err = Decoder{MaxPayloadSize: 16}.Unmarshal(buf)
	assert.ErrorIs(t, err, ErrMessageTooLarge)
	assert.Equal(t, "too_large", ErrorKind(err))

	m, err := Decoder{MaxPayloadSize: uint64(len(buf))}.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, testMessages()["get-blocks-response"], m)
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	_, err := UnmarshalEnvelope([]byte{0xfe})
	assert.Equal(t, "unknown_type", ErrorKind(err))
	_, err = UnmarshalEnvelope([]byte{byte(MessageSignal)})
	assert.Equal(t, "truncated", ErrorKind(err))
	_, err = UnmarshalEnvelope(append(header(MessageCannotSatisfyRequest, 1), 0))
	assert.Equal(t, "malformed", ErrorKind(err))
	assert.Equal(t, "", ErrorKind(nil))
}
