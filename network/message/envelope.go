package message

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// HeaderSize is the fixed envelope header: type code (1 byte) and payload length (8 bytes)
const HeaderSize = 1 + 8

// Envelope is one framed message as carried on the wire. Length always equals len(Payload).
type Envelope struct {
	Type    MessageType
	Length  uint64
	Payload []byte
}

func NewEnvelope(m Message) (*Envelope, error) {
	payload, err := m.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return &Envelope{
		Type:    m.Type(),
		Length:  uint64(len(payload)),
		Payload: payload,
	}, nil
}

func (e *Envelope) BufferLength() int {
	return HeaderSize + len(e.Payload)
}

func (e *Envelope) MarshalBinary() ([]byte, error) {
	return e.AppendBinary(make([]byte, 0, e.BufferLength()))
}

func (e *Envelope) AppendBinary(preAllocatedBuf []byte) (buf []byte, err error) {
	if e.Length != uint64(len(e.Payload)) {
		return nil, fmt.Errorf("envelope length %d does not match payload size %d", e.Length, len(e.Payload))
	}
	buf = preAllocatedBuf
	buf = append(buf, byte(e.Type))
	buf = binary.LittleEndian.AppendUint64(buf, e.Length)
	buf = append(buf, e.Payload...)
	return buf, nil
}

// UnmarshalBinary decodes exactly one envelope from data
func (e *Envelope) UnmarshalBinary(data []byte) error {
	reader := bytes.NewReader(data)
	if err := e.FromReader(reader, 0); err != nil {
		if err == io.EOF {
			return fmt.Errorf("%w: empty buffer", ErrTruncatedMessage)
		}
		return err
	}
	if reader.Len() != 0 {
		return fmt.Errorf("%w: %d bytes after envelope", ErrMalformedPayload, reader.Len())
	}
	return nil
}

// FromReader reads one envelope. A clean end of stream before the type byte is returned as io.EOF.
// maxPayloadSize of 0 means no limit besides what the reader can deliver.
func (e *Envelope) FromReader(reader io.Reader, maxPayloadSize uint64) (err error) {
	var header [HeaderSize]byte

	if _, err = io.ReadFull(reader, header[:1]); err != nil {
		return err
	}
	e.Type = MessageType(header[0])
	if !e.Type.Known() {
		return fmt.Errorf("%w: %d", ErrUnknownMessageType, header[0])
	}

	if _, err = io.ReadFull(reader, header[1:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("%w: reading header of %s: %w", ErrTruncatedMessage, e.Type, err)
	}
	e.Length = binary.LittleEndian.Uint64(header[1:])

	if maxPayloadSize != 0 && e.Length > maxPayloadSize {
		return fmt.Errorf("%w: %s declares %d bytes, limit is %d", ErrMessageTooLarge, e.Type, e.Length, maxPayloadSize)
	}

	limit := int64(math.MaxInt64)
	if e.Length < math.MaxInt64 {
		limit = int64(e.Length)
	}

	// read through a limit instead of allocating the declared size up front
	if e.Payload, err = io.ReadAll(io.LimitReader(reader, limit)); err != nil {
		return fmt.Errorf("%w: reading payload of %s: %w", ErrTruncatedMessage, e.Type, err)
	}
	if uint64(len(e.Payload)) != e.Length {
		return fmt.Errorf("%w: %s declares %d bytes, got %d", ErrTruncatedMessage, e.Type, e.Length, len(e.Payload))
	}

	return nil
}

// Message decodes the payload with the variant registered for the envelope type
func (e *Envelope) Message() (Message, error) {
	if !e.Type.Known() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMessageType, uint8(e.Type))
	}
	m, err := registry[e.Type](e.Payload)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", e.Type, err)
	}
	return m, nil
}

// Decoder reads envelopes from a stream, optionally enforcing a transport payload limit
type Decoder struct {
	MaxPayloadSize uint64
}

func (d Decoder) ReadEnvelope(reader io.Reader) (*Envelope, error) {
	e := &Envelope{}
	if err := e.FromReader(reader, d.MaxPayloadSize); err != nil {
		return nil, err
	}
	return e, nil
}

// ReadMessage reads and decodes the next message. Messages are returned in stream order.
func (d Decoder) ReadMessage(reader io.Reader) (Message, error) {
	e, err := d.ReadEnvelope(reader)
	if err != nil {
		return nil, err
	}
	return e.Message()
}

// Unmarshal decodes a buffer holding exactly one envelope
func (d Decoder) Unmarshal(data []byte) (Message, error) {
	reader := bytes.NewReader(data)
	e, err := d.ReadEnvelope(reader)
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty buffer", ErrTruncatedMessage)
		}
		return nil, err
	}
	if reader.Len() != 0 {
		return nil, fmt.Errorf("%w: %d bytes after envelope", ErrMalformedPayload, reader.Len())
	}
	return e.Message()
}

func ReadEnvelope(reader io.Reader) (*Envelope, error) {
	return Decoder{}.ReadEnvelope(reader)
}

func ReadMessage(reader io.Reader) (Message, error) {
	return Decoder{}.ReadMessage(reader)
}

// UnmarshalEnvelope decodes a buffer holding exactly one envelope, without payload size limit
func UnmarshalEnvelope(data []byte) (Message, error) {
	return Decoder{}.Unmarshal(data)
}
