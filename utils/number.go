package utils

import (
	"encoding/binary"
	"io"
)

type ReaderAndByteReader interface {
	io.Reader
	io.ByteReader
}

// UVarInt64Size returns the number of bytes binary.AppendUvarint emits for v
func UVarInt64Size[T uint64 | int | uint32 | uint16 | uint8](v T) (n int) {
	x := uint64(v)
	for n = 1; x >= 0x80; n++ {
		x >>= 7
	}
	return n
}

// VarStringSize is the encoded size of a uvarint length prefixed string
func VarStringSize(s string) int {
	return UVarInt64Size(len(s)) + len(s)
}

func AppendVarString(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

func AppendVarBytes(buf []byte, b []byte) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(b)))
	return append(buf, b...)
}

// ReadVarBytes reads a uvarint length prefixed byte slice, refusing lengths above maxLength
func ReadVarBytes(reader ReaderAndByteReader, maxLength uint64) ([]byte, error) {
	length, err := binary.ReadUvarint(reader)
	if err != nil {
		return nil, err
	}
	if length > maxLength {
		return nil, io.ErrUnexpectedEOF
	}
	buf := make([]byte, length)
	if _, err = io.ReadFull(reader, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func ReadVarString(reader ReaderAndByteReader, maxLength uint64) (string, error) {
	buf, err := ReadVarBytes(reader, maxLength)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}
