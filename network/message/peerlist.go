package message

import (
	"bytes"
	"encoding/binary"
	"git.gammaspectra.live/IronFish/network/network/identity"
	"git.gammaspectra.live/IronFish/network/utils"
)

// PeerListRequest asks for the remote peer list. The type code is the whole message.
type PeerListRequest struct{}

func (m *PeerListRequest) Type() MessageType {
	return MessagePeerListRequest
}

func (m *PeerListRequest) BufferLength() int {
	return 0
}

func (m *PeerListRequest) MarshalBinary() ([]byte, error) {
	return []byte{}, nil
}

func (m *PeerListRequest) AppendBinary(preAllocatedBuf []byte) ([]byte, error) {
	return preAllocatedBuf, nil
}

// UnmarshalBinary ignores data, there is nothing to decode
func (m *PeerListRequest) UnmarshalBinary(data []byte) error {
	return nil
}

// PeerAddress is one connected peer as advertised in a PeerList
type PeerAddress struct {
	Identity identity.Identity
	Name     *string
	Address  *string
	Port     *uint16
}

// identity varstring length + three presence flags
const peerAddressMinSize = 1 + 3

func (p *PeerAddress) BufferLength() int {
	return utils.VarStringSize(string(p.Identity)) +
		optionalStringSize(p.Name) +
		optionalStringSize(p.Address) +
		optionalUint16Size(p.Port)
}

func (p *PeerAddress) AppendBinary(preAllocatedBuf []byte) (buf []byte, err error) {
	buf = preAllocatedBuf
	buf = utils.AppendVarString(buf, string(p.Identity))
	buf = appendOptionalString(buf, p.Name)
	buf = appendOptionalString(buf, p.Address)
	buf = appendOptionalUint16(buf, p.Port)
	return buf, nil
}

func (p *PeerAddress) FromReader(reader *bytes.Reader) (err error) {
	var id string
	if id, err = readVarString(reader); err != nil {
		return err
	}
	p.Identity = identity.Identity(id)
	if p.Name, err = readOptionalString[string](reader); err != nil {
		return err
	}
	if p.Address, err = readOptionalString[string](reader); err != nil {
		return err
	}
	if p.Port, err = readOptionalUint16(reader); err != nil {
		return err
	}
	return nil
}

// PeerList answers a PeerListRequest with the peers the sender is connected to
type PeerList struct {
	Peers []PeerAddress
}

func (m *PeerList) Type() MessageType {
	return MessagePeerList
}

func (m *PeerList) BufferLength() (n int) {
	n = utils.UVarInt64Size(len(m.Peers))
	for i := range m.Peers {
		n += m.Peers[i].BufferLength()
	}
	return n
}

func (m *PeerList) MarshalBinary() ([]byte, error) {
	return m.AppendBinary(make([]byte, 0, m.BufferLength()))
}

func (m *PeerList) AppendBinary(preAllocatedBuf []byte) (buf []byte, err error) {
	buf = binary.AppendUvarint(preAllocatedBuf, uint64(len(m.Peers)))
	for i := range m.Peers {
		if buf, err = m.Peers[i].AppendBinary(buf); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func (m *PeerList) FromReader(reader *bytes.Reader) (err error) {
	var count uint64
	if count, err = readCount(reader, peerAddressMinSize); err != nil {
		return err
	}
	m.Peers = make([]PeerAddress, count)
	for i := range m.Peers {
		if err = m.Peers[i].FromReader(reader); err != nil {
			return err
		}
	}
	return nil
}

func (m *PeerList) UnmarshalBinary(data []byte) error {
	return unmarshalPayload(data, m.FromReader)
}
