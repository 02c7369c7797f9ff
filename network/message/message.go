// Package message implements the wire messages exchanged between peers and the envelope framing
// them: a one byte type code, the payload size as a little endian uint64, then the payload.
package message

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Message is implemented by every registry variant.
// BufferLength must always equal len(MarshalBinary()).
type Message interface {
	Type() MessageType
	BufferLength() int
	AppendBinary(preAllocatedBuf []byte) ([]byte, error)
	MarshalBinary() ([]byte, error)
	UnmarshalBinary(data []byte) error
}

// MarshalWithMetadata frames m into an envelope ready for a transport
func MarshalWithMetadata(m Message) ([]byte, error) {
	size := m.BufferLength()
	buf := make([]byte, 0, HeaderSize+size)
	buf = append(buf, byte(m.Type()))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(size))
	buf, err := m.AppendBinary(buf)
	if err != nil {
		return nil, err
	}
	if len(buf) != HeaderSize+size {
		return nil, fmt.Errorf("%s: declared size %d, wrote %d", m.Type(), size, len(buf)-HeaderSize)
	}
	return buf, nil
}

// unmarshalPayload runs fromReader over the whole payload and requires it to consume every byte
func unmarshalPayload(data []byte, fromReader func(reader *bytes.Reader) error) error {
	reader := bytes.NewReader(data)
	if err := fromReader(reader); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if reader.Len() != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrMalformedPayload, reader.Len())
	}
	return nil
}

// remaining bounds variable length reads to what the payload can still hold
func remaining(reader *bytes.Reader) uint64 {
	return uint64(reader.Len())
}
