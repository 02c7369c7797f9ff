package message

import (
	"bytes"
	"encoding/binary"
	"git.gammaspectra.live/IronFish/network/network/identity"
	"git.gammaspectra.live/IronFish/network/types"
	"git.gammaspectra.live/IronFish/network/utils"
	"io"
)

// Identify is the handshake. It binds the sender identity to its current chain head so the
// remote side can compare chain strength before deciding to sync.
type Identify struct {
	Agent    string
	Version  uint32
	Head     types.Hash
	Sequence uint64
	// Work is the cumulative work of Head as a base 10 integer
	Work     string
	Identity identity.Identity
	Name     *string
	Port     *uint16
}

func (m *Identify) Type() MessageType {
	return MessageIdentify
}

func (m *Identify) BufferLength() int {
	return utils.VarStringSize(m.Agent) +
		4 +
		types.HashSize +
		8 +
		utils.VarStringSize(m.Work) +
		utils.VarStringSize(string(m.Identity)) +
		optionalStringSize(m.Name) +
		optionalUint16Size(m.Port)
}

func (m *Identify) MarshalBinary() ([]byte, error) {
	return m.AppendBinary(make([]byte, 0, m.BufferLength()))
}

func (m *Identify) AppendBinary(preAllocatedBuf []byte) (buf []byte, err error) {
	buf = preAllocatedBuf
	buf = utils.AppendVarString(buf, m.Agent)
	buf = binary.LittleEndian.AppendUint32(buf, m.Version)
	buf = append(buf, m.Head[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, m.Sequence)
	buf = utils.AppendVarString(buf, m.Work)
	buf = utils.AppendVarString(buf, string(m.Identity))
	buf = appendOptionalString(buf, m.Name)
	buf = appendOptionalUint16(buf, m.Port)
	return buf, nil
}

func (m *Identify) FromReader(reader *bytes.Reader) (err error) {
	if m.Agent, err = readVarString(reader); err != nil {
		return err
	}
	if err = binary.Read(reader, binary.LittleEndian, &m.Version); err != nil {
		return err
	}
	if _, err = io.ReadFull(reader, m.Head[:]); err != nil {
		return err
	}
	if err = binary.Read(reader, binary.LittleEndian, &m.Sequence); err != nil {
		return err
	}
	if m.Work, err = readVarString(reader); err != nil {
		return err
	}
	var id string
	if id, err = readVarString(reader); err != nil {
		return err
	}
	m.Identity = identity.Identity(id)
	if m.Name, err = readOptionalString[string](reader); err != nil {
		return err
	}
	if m.Port, err = readOptionalUint16(reader); err != nil {
		return err
	}
	return nil
}

func (m *Identify) UnmarshalBinary(data []byte) error {
	return unmarshalPayload(data, m.FromReader)
}
