package message

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"git.gammaspectra.live/IronFish/network/utils"
	"io"
)

var errInvalidPresence = errors.New("invalid presence flag")
var errCountTooLarge = errors.New("element count exceeds payload")

func readVarString(reader *bytes.Reader) (string, error) {
	return utils.ReadVarString(reader, remaining(reader))
}

func readVarBytes(reader *bytes.Reader) ([]byte, error) {
	return utils.ReadVarBytes(reader, remaining(reader))
}

// readCount reads an element count, refusing counts the rest of the payload cannot hold
// at minElementSize bytes per element
func readCount(reader *bytes.Reader, minElementSize uint64) (uint64, error) {
	count, err := binary.ReadUvarint(reader)
	if err != nil {
		return 0, err
	}
	if count > remaining(reader)/minElementSize {
		return 0, fmt.Errorf("%w: %d", errCountTooLarge, count)
	}
	return count, nil
}

func readPresence(reader *bytes.Reader) (bool, error) {
	b, err := reader.ReadByte()
	if err != nil {
		return false, io.ErrUnexpectedEOF
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: %d", errInvalidPresence, b)
	}
}

func optionalStringSize[T ~string](s *T) int {
	if s == nil {
		return 1
	}
	return 1 + utils.VarStringSize(string(*s))
}

func appendOptionalString[T ~string](buf []byte, s *T) []byte {
	if s == nil {
		return append(buf, 0)
	}
	return utils.AppendVarString(append(buf, 1), string(*s))
}

func readOptionalString[T ~string](reader *bytes.Reader) (*T, error) {
	if present, err := readPresence(reader); err != nil || !present {
		return nil, err
	}
	s, err := readVarString(reader)
	if err != nil {
		return nil, err
	}
	v := T(s)
	return &v, nil
}

func optionalUint16Size(v *uint16) int {
	if v == nil {
		return 1
	}
	return 1 + 2
}

func appendOptionalUint16(buf []byte, v *uint16) []byte {
	if v == nil {
		return append(buf, 0)
	}
	return binary.LittleEndian.AppendUint16(append(buf, 1), *v)
}

func readOptionalUint16(reader *bytes.Reader) (*uint16, error) {
	if present, err := readPresence(reader); err != nil || !present {
		return nil, err
	}
	var v uint16
	if err := binary.Read(reader, binary.LittleEndian, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
